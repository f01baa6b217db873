package settings

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/casadaesfiha/storefront-backend/pkg/errors"
	"github.com/casadaesfiha/storefront-backend/pkg/logger"
)

type fakeKV struct {
	data map[string]string
}

func newFakeKV() *fakeKV {
	return &fakeKV{data: map[string]string{}}
}

func (f *fakeKV) Get(_ context.Context, key string) (string, error) {
	v, ok := f.data[key]
	if !ok {
		return "", redis.Nil
	}
	return v, nil
}

func (f *fakeKV) Set(_ context.Context, key string, value any, _ time.Duration) error {
	switch v := value.(type) {
	case []byte:
		f.data[key] = string(v)
	case string:
		f.data[key] = v
	}
	return nil
}

func (f *fakeKV) SettingsKey() string {
	return "test:settings:store"
}

func newTestHolder(t *testing.T, kv *fakeKV) *Holder {
	t.Helper()
	logg := logger.New(logger.Options{ServiceName: "settings-test", Output: io.Discard})
	h, err := NewHolder(kv, logg)
	require.NoError(t, err)
	return h
}

func TestGetServesDefaultsOnFreshInstall(t *testing.T) {
	t.Parallel()

	h := newTestHolder(t, newFakeKV())
	cfg, err := h.Get(context.Background())
	require.NoError(t, err)

	require.Equal(t, "Casa da Esfiha", cfg.Name)
	require.Equal(t, "Culinária Árabe", cfg.CuisineType)
	require.True(t, cfg.DeliveryFee.Equal(decimal.RequireFromString("10.99")))
	require.True(t, cfg.MinOrder.Equal(decimal.RequireFromString("25.00")))
}

func TestUpdateMergesAndPersists(t *testing.T) {
	t.Parallel()

	kv := newFakeKV()
	h := newTestHolder(t, kv)
	ctx := context.Background()

	fee := decimal.RequireFromString("12.50")
	name := "Casa da Esfiha do Centro"
	cfg, err := h.Update(ctx, UpdateInput{Name: &name, DeliveryFee: &fee})
	require.NoError(t, err)

	require.Equal(t, name, cfg.Name)
	require.True(t, cfg.DeliveryFee.Equal(fee))
	require.Equal(t, "Culinária Árabe", cfg.CuisineType, "untouched fields keep defaults")

	// A second holder reads only what was persisted.
	other := newTestHolder(t, kv)
	cfg, err = other.Get(ctx)
	require.NoError(t, err)
	require.Equal(t, name, cfg.Name)
	require.True(t, cfg.DeliveryFee.Equal(fee))
}

func TestUpdateRejectsNegativeFees(t *testing.T) {
	t.Parallel()

	h := newTestHolder(t, newFakeKV())
	ctx := context.Background()

	negative := decimal.RequireFromString("-1.00")
	_, err := h.Update(ctx, UpdateInput{DeliveryFee: &negative})
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	require.Equal(t, pkgerrors.CodeValidation, typed.Code())

	_, err = h.Update(ctx, UpdateInput{MinOrder: &negative})
	typed = pkgerrors.As(err)
	require.NotNil(t, typed)
	require.Equal(t, pkgerrors.CodeValidation, typed.Code())
}

func TestRefreshPicksUpOutOfBandChanges(t *testing.T) {
	t.Parallel()

	kv := newFakeKV()
	first := newTestHolder(t, kv)
	second := newTestHolder(t, kv)
	ctx := context.Background()

	_, err := first.Get(ctx)
	require.NoError(t, err)

	fee := decimal.RequireFromString("8.00")
	_, err = second.Update(ctx, UpdateInput{DeliveryFee: &fee})
	require.NoError(t, err)

	cfg, err := first.Get(ctx)
	require.NoError(t, err)
	require.True(t, cfg.DeliveryFee.Equal(decimal.RequireFromString("10.99")),
		"cached copy until refresh")

	cfg, err = first.Refresh(ctx)
	require.NoError(t, err)
	require.True(t, cfg.DeliveryFee.Equal(fee))
}

func TestForeignShapedSnapshotFallsBackToDefaults(t *testing.T) {
	t.Parallel()

	// Valid JSON written by something that is not this service. It carries
	// no version tag, so it must not bleed zero values into the config.
	kv := newFakeKV()
	kv.data[kv.SettingsKey()] = `{"store_name":"legacy","fee":"10.99"}`

	h := newTestHolder(t, kv)
	cfg, err := h.Get(context.Background())
	require.NoError(t, err)
	require.Equal(t, "Casa da Esfiha", cfg.Name)
	require.True(t, cfg.DeliveryFee.Equal(decimal.RequireFromString("10.99")))
}

func TestStaleSnapshotVersionFallsBackToDefaults(t *testing.T) {
	t.Parallel()

	kv := newFakeKV()
	kv.data[kv.SettingsKey()] = `{"version":0,"config":{"name":"old","delivery_fee":"1.00"}}`

	h := newTestHolder(t, kv)
	cfg, err := h.Get(context.Background())
	require.NoError(t, err)
	require.Equal(t, "Casa da Esfiha", cfg.Name)
	require.True(t, cfg.MinOrder.Equal(decimal.RequireFromString("25.00")))
}

func TestUnreadableSnapshotFallsBackToDefaults(t *testing.T) {
	t.Parallel()

	kv := newFakeKV()
	kv.data[kv.SettingsKey()] = "{not json"

	h := newTestHolder(t, kv)
	cfg, err := h.Get(context.Background())
	require.NoError(t, err)
	require.Equal(t, "Casa da Esfiha", cfg.Name)
}
