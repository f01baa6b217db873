package cart

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/casadaesfiha/storefront-backend/pkg/db/models"
	pkgerrors "github.com/casadaesfiha/storefront-backend/pkg/errors"
	"github.com/casadaesfiha/storefront-backend/pkg/logger"
	"github.com/casadaesfiha/storefront-backend/pkg/metrics"
	"github.com/casadaesfiha/storefront-backend/pkg/types"
)

type fakeKV struct {
	data    map[string]string
	failSet bool
}

func newFakeKV() *fakeKV {
	return &fakeKV{data: map[string]string{}}
}

func (f *fakeKV) Get(_ context.Context, key string) (string, error) {
	v, ok := f.data[key]
	if !ok {
		return "", fmt.Errorf("key %s not found", key)
	}
	return v, nil
}

func (f *fakeKV) Set(_ context.Context, key string, value any, _ time.Duration) error {
	if f.failSet {
		return fmt.Errorf("redis is down")
	}
	switch v := value.(type) {
	case []byte:
		f.data[key] = string(v)
	case string:
		f.data[key] = v
	default:
		return fmt.Errorf("unexpected value type %T", value)
	}
	return nil
}

func (f *fakeKV) Del(_ context.Context, keys ...string) error {
	for _, key := range keys {
		delete(f.data, key)
	}
	return nil
}

func (f *fakeKV) CartKey(ownerID string) string {
	return "test:cart:" + ownerID
}

type stubProducts struct {
	products map[uuid.UUID]*models.Product
}

func (s *stubProducts) GetProduct(_ context.Context, id uuid.UUID) (*models.Product, error) {
	p, ok := s.products[id]
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	return p, nil
}

func esfihaGrande() *models.Product {
	return &models.Product{
		ID:          uuid.New(),
		Name:        "Esfiha de Carne",
		BasePrice:   decimal.RequireFromString("7.99"),
		IsAvailable: true,
		Options: []models.ProductOption{
			{
				Name:          "Tamanho",
				Required:      true,
				MaxSelections: 1,
				Variations: []models.OptionVariation{
					{Name: "Pequena", PriceDelta: decimal.Zero},
					{Name: "Grande", PriceDelta: decimal.RequireFromString("1.50")},
				},
			},
		},
	}
}

func newTestService(t *testing.T, kv *fakeKV, products ...*models.Product) (Service, *Store) {
	t.Helper()

	logg := logger.New(logger.Options{ServiceName: "cart-test", Output: io.Discard})
	store, err := NewStore(kv, logg, metrics.NewStorefrontMetrics(nil), time.Hour)
	require.NoError(t, err)

	loader := &stubProducts{products: map[uuid.UUID]*models.Product{}}
	for _, p := range products {
		loader.products[p.ID] = p
	}

	svc, err := NewService(store, loader)
	require.NoError(t, err)
	return svc, store
}

func TestAddItemMergesIdenticalSelections(t *testing.T) {
	t.Parallel()

	product := esfihaGrande()
	svc, _ := newTestService(t, newFakeKV(), product)
	ctx := context.Background()

	input := AddItemInput{
		ProductID:       product.ID,
		SelectedOptions: types.SelectedOptions{"Tamanho": {"Grande"}},
		Quantity:        1,
	}
	_, err := svc.AddItem(ctx, "owner-1", input)
	require.NoError(t, err)

	c, err := svc.AddItem(ctx, "owner-1", input)
	require.NoError(t, err)

	require.Len(t, c.Lines, 1)
	require.Equal(t, 2, c.Lines[0].Quantity)
	require.True(t, c.Lines[0].UnitPrice.Equal(decimal.RequireFromString("9.49")))
	require.True(t, c.Subtotal().Equal(decimal.RequireFromString("18.98")),
		"subtotal %s", c.Subtotal())
}

func TestAddItemKeepsDistinctSelectionsApart(t *testing.T) {
	t.Parallel()

	product := esfihaGrande()
	svc, _ := newTestService(t, newFakeKV(), product)
	ctx := context.Background()

	_, err := svc.AddItem(ctx, "owner-1", AddItemInput{
		ProductID:       product.ID,
		SelectedOptions: types.SelectedOptions{"Tamanho": {"Grande"}},
		Quantity:        1,
	})
	require.NoError(t, err)

	c, err := svc.AddItem(ctx, "owner-1", AddItemInput{
		ProductID:       product.ID,
		SelectedOptions: types.SelectedOptions{"Tamanho": {"Pequena"}},
		Quantity:        1,
	})
	require.NoError(t, err)

	require.Len(t, c.Lines, 2)
	require.NotEqual(t, c.Lines[0].Fingerprint, c.Lines[1].Fingerprint)
}

func TestAddItemSnapshotsDisplayFields(t *testing.T) {
	t.Parallel()

	product := esfihaGrande()
	original := "https://cdn.example.com/esfiha-carne.jpg"
	product.ImageURL = &original

	svc, _ := newTestService(t, newFakeKV(), product)
	ctx := context.Background()

	c, err := svc.AddItem(ctx, "owner-1", AddItemInput{
		ProductID:       product.ID,
		SelectedOptions: types.SelectedOptions{"Tamanho": {"Grande"}},
		Quantity:        1,
	})
	require.NoError(t, err)
	require.Len(t, c.Lines, 1)
	require.NotNil(t, c.Lines[0].ImageURL)
	require.Equal(t, original, *c.Lines[0].ImageURL)

	// Catalog edits after add time do not touch the line.
	replaced := "https://cdn.example.com/new.jpg"
	product.ImageURL = &replaced
	product.Name = "Esfiha Especial"

	c, err = svc.Get(ctx, "owner-1")
	require.NoError(t, err)
	require.Equal(t, original, *c.Lines[0].ImageURL)
	require.Equal(t, "Esfiha de Carne", c.Lines[0].ProductName)
}

func TestAddItemRejectsUnavailableProduct(t *testing.T) {
	t.Parallel()

	product := esfihaGrande()
	product.IsAvailable = false
	svc, _ := newTestService(t, newFakeKV(), product)

	_, err := svc.AddItem(context.Background(), "owner-1", AddItemInput{
		ProductID:       product.ID,
		SelectedOptions: types.SelectedOptions{"Tamanho": {"Grande"}},
		Quantity:        1,
	})
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	require.Equal(t, pkgerrors.CodeValidation, typed.Code())
}

func TestUpdateQuantityRejectsBelowOne(t *testing.T) {
	t.Parallel()

	product := esfihaGrande()
	svc, _ := newTestService(t, newFakeKV(), product)
	ctx := context.Background()

	c, err := svc.AddItem(ctx, "owner-1", AddItemInput{
		ProductID:       product.ID,
		SelectedOptions: types.SelectedOptions{"Tamanho": {"Grande"}},
		Quantity:        2,
	})
	require.NoError(t, err)
	fingerprint := c.Lines[0].Fingerprint

	_, err = svc.UpdateQuantity(ctx, "owner-1", fingerprint, 0)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	require.Equal(t, pkgerrors.CodeValidation, typed.Code())

	c, err = svc.Get(ctx, "owner-1")
	require.NoError(t, err)
	require.Equal(t, 2, c.Lines[0].Quantity, "rejected update must not change the line")

	c, err = svc.UpdateQuantity(ctx, "owner-1", fingerprint, 3)
	require.NoError(t, err)
	require.Equal(t, 3, c.Lines[0].Quantity)
}

func TestRemoveItemAndClear(t *testing.T) {
	t.Parallel()

	product := esfihaGrande()
	kv := newFakeKV()
	svc, _ := newTestService(t, kv, product)
	ctx := context.Background()

	c, err := svc.AddItem(ctx, "owner-1", AddItemInput{
		ProductID:       product.ID,
		SelectedOptions: types.SelectedOptions{"Tamanho": {"Grande"}},
		Quantity:        1,
	})
	require.NoError(t, err)

	removed, err := svc.RemoveItem(ctx, "owner-1", "missing")
	require.NoError(t, err, "removing an absent line is a no-op")
	require.Len(t, removed.Lines, 1)

	c, err = svc.RemoveItem(ctx, "owner-1", c.Lines[0].Fingerprint)
	require.NoError(t, err)
	require.True(t, c.IsEmpty())

	_, err = svc.AddItem(ctx, "owner-1", AddItemInput{
		ProductID:       product.ID,
		SelectedOptions: types.SelectedOptions{"Tamanho": {"Pequena"}},
		Quantity:        1,
	})
	require.NoError(t, err)

	require.NoError(t, svc.Clear(ctx, "owner-1"))
	require.Empty(t, kv.data)

	c, err = svc.Get(ctx, "owner-1")
	require.NoError(t, err)
	require.True(t, c.IsEmpty())
}

func TestMutationSurvivesRedisWriteFailure(t *testing.T) {
	t.Parallel()

	product := esfihaGrande()
	kv := newFakeKV()
	kv.failSet = true
	svc, _ := newTestService(t, kv, product)
	ctx := context.Background()

	c, err := svc.AddItem(ctx, "owner-1", AddItemInput{
		ProductID:       product.ID,
		SelectedOptions: types.SelectedOptions{"Tamanho": {"Grande"}},
		Quantity:        1,
	})
	require.NoError(t, err, "redis being down must not lose the mutation")
	require.Len(t, c.Lines, 1)

	c, err = svc.Get(ctx, "owner-1")
	require.NoError(t, err)
	require.Len(t, c.Lines, 1)
}

func TestStoreReloadsPersistedSnapshot(t *testing.T) {
	t.Parallel()

	product := esfihaGrande()
	kv := newFakeKV()
	svc, _ := newTestService(t, kv, product)
	ctx := context.Background()

	_, err := svc.AddItem(ctx, "owner-1", AddItemInput{
		ProductID:       product.ID,
		SelectedOptions: types.SelectedOptions{"Tamanho": {"Grande"}},
		Quantity:        2,
	})
	require.NoError(t, err)

	// A second store sees only what redis holds, as after a restart.
	svc2, _ := newTestService(t, kv, product)
	c, err := svc2.Get(ctx, "owner-1")
	require.NoError(t, err)
	require.Len(t, c.Lines, 1)
	require.True(t, c.Subtotal().Equal(decimal.RequireFromString("18.98")))
}

func TestStoreDropsMalformedLinesOnReload(t *testing.T) {
	t.Parallel()

	good := Line{
		Fingerprint: "fp-good",
		ProductID:   uuid.New(),
		ProductName: "Esfiha de Queijo",
		UnitPrice:   decimal.RequireFromString("6.50"),
		Quantity:    3,
	}
	snapshot := Cart{
		OwnerID: "owner-1",
		Version: SchemaVersion,
		Lines: []Line{
			good,
			{Fingerprint: "", ProductID: uuid.New(), UnitPrice: decimal.NewFromInt(5), Quantity: 1},
			{Fingerprint: "fp-no-product", UnitPrice: decimal.NewFromInt(5), Quantity: 1},
			{Fingerprint: "fp-zero-qty", ProductID: uuid.New(), UnitPrice: decimal.NewFromInt(5), Quantity: 0},
			{Fingerprint: "fp-negative", ProductID: uuid.New(), UnitPrice: decimal.RequireFromString("-1.00"), Quantity: 1},
		},
	}

	kv := newFakeKV()
	raw, err := json.Marshal(&snapshot)
	require.NoError(t, err)
	kv.data[kv.CartKey("owner-1")] = string(raw)

	svc, _ := newTestService(t, kv)
	c, err := svc.Get(context.Background(), "owner-1")
	require.NoError(t, err)
	require.Len(t, c.Lines, 1)
	require.Equal(t, "fp-good", c.Lines[0].Fingerprint)
	require.True(t, c.Subtotal().Equal(decimal.RequireFromString("19.50")))
	require.Equal(t, 3, c.ItemCount())
}

func TestStoreDiscardsStaleSchema(t *testing.T) {
	t.Parallel()

	kv := newFakeKV()
	stale, err := json.Marshal(map[string]any{"owner_id": "owner-1", "version": 0})
	require.NoError(t, err)
	kv.data[kv.CartKey("owner-1")] = string(stale)

	svc, _ := newTestService(t, kv)
	c, err := svc.Get(context.Background(), "owner-1")
	require.NoError(t, err)
	require.True(t, c.IsEmpty())
	require.Equal(t, SchemaVersion, c.Version)
}
