package settings

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	pkgerrors "github.com/casadaesfiha/storefront-backend/pkg/errors"
	"github.com/casadaesfiha/storefront-backend/pkg/logger"
	pkgredis "github.com/casadaesfiha/storefront-backend/pkg/redis"
)

// SchemaVersion tags persisted settings payloads so snapshots written by an
// incompatible build are discarded for defaults instead of misread.
const SchemaVersion = 1

// snapshot is the persisted envelope around StoreConfig.
type snapshot struct {
	Version int         `json:"version"`
	Config  StoreConfig `json:"config"`
}

// StoreConfig is the storefront's single, store-wide configuration record.
// DeliveryFee feeds order total computation; MinOrder and the rest are
// display values served to clients.
type StoreConfig struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	LogoURL     string          `json:"logo_url"`
	BannerURL   string          `json:"banner_url"`
	DeliveryFee decimal.Decimal `json:"delivery_fee"`
	MinOrder    decimal.Decimal `json:"min_order"`
	CuisineType string          `json:"cuisine_type"`
}

// DefaultConfig is what a fresh install serves before an admin touches
// anything.
func DefaultConfig() StoreConfig {
	return StoreConfig{
		Name:        "Casa da Esfiha",
		Description: "Esfihas e pratos árabes feitos na hora.",
		DeliveryFee: decimal.RequireFromString("10.99"),
		MinOrder:    decimal.RequireFromString("25.00"),
		CuisineType: "Culinária Árabe",
	}
}

// UpdateInput is a partial update. Nil fields keep their current value.
type UpdateInput struct {
	Name        *string          `json:"name,omitempty"`
	Description *string          `json:"description,omitempty"`
	LogoURL     *string          `json:"logo_url,omitempty"`
	BannerURL   *string          `json:"banner_url,omitempty"`
	DeliveryFee *decimal.Decimal `json:"delivery_fee,omitempty"`
	MinOrder    *decimal.Decimal `json:"min_order,omitempty"`
	CuisineType *string          `json:"cuisine_type,omitempty"`
}

// keyValue is the slice of the redis client the holder needs.
type keyValue interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	SettingsKey() string
}

// Holder serves the store configuration. Reads come from an in-process copy
// guarded by a RWMutex; updates merge, persist to redis, then swap the copy.
// Refresh re-reads redis so a second admin session's changes become visible.
type Holder struct {
	kv   keyValue
	logg *logger.Logger

	mu     sync.RWMutex
	cfg    StoreConfig
	loaded bool
}

// NewHolder builds the configuration holder. It does not touch redis until
// the first read.
func NewHolder(kv keyValue, logg *logger.Logger) (*Holder, error) {
	if kv == nil {
		return nil, fmt.Errorf("settings holder requires a redis client")
	}
	if logg == nil {
		return nil, fmt.Errorf("settings holder requires a logger")
	}
	return &Holder{kv: kv, logg: logg}, nil
}

// Get returns the current configuration, loading it on first use. A store
// that was never configured serves the defaults.
func (h *Holder) Get(ctx context.Context) (StoreConfig, error) {
	h.mu.RLock()
	if h.loaded {
		cfg := h.cfg
		h.mu.RUnlock()
		return cfg, nil
	}
	h.mu.RUnlock()
	return h.Refresh(ctx)
}

// Refresh re-reads the persisted configuration, discarding the in-process
// copy. Used on startup and to pick up out-of-band admin changes.
func (h *Holder) Refresh(ctx context.Context) (StoreConfig, error) {
	cfg, err := h.read(ctx)
	if err != nil {
		return StoreConfig{}, err
	}

	h.mu.Lock()
	h.cfg = cfg
	h.loaded = true
	h.mu.Unlock()
	return cfg, nil
}

// Update merges the partial input over the current configuration and
// persists the result. Fee fields must not be negative.
func (h *Holder) Update(ctx context.Context, input UpdateInput) (StoreConfig, error) {
	if input.DeliveryFee != nil && input.DeliveryFee.IsNegative() {
		return StoreConfig{}, pkgerrors.New(pkgerrors.CodeValidation, "delivery fee must not be negative")
	}
	if input.MinOrder != nil && input.MinOrder.IsNegative() {
		return StoreConfig{}, pkgerrors.New(pkgerrors.CodeValidation, "minimum order must not be negative")
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.loaded {
		cfg, err := h.read(ctx)
		if err != nil {
			return StoreConfig{}, err
		}
		h.cfg = cfg
		h.loaded = true
	}

	cfg := h.cfg
	if input.Name != nil {
		cfg.Name = *input.Name
	}
	if input.Description != nil {
		cfg.Description = *input.Description
	}
	if input.LogoURL != nil {
		cfg.LogoURL = *input.LogoURL
	}
	if input.BannerURL != nil {
		cfg.BannerURL = *input.BannerURL
	}
	if input.DeliveryFee != nil {
		cfg.DeliveryFee = *input.DeliveryFee
	}
	if input.MinOrder != nil {
		cfg.MinOrder = *input.MinOrder
	}
	if input.CuisineType != nil {
		cfg.CuisineType = *input.CuisineType
	}

	payload, err := json.Marshal(snapshot{Version: SchemaVersion, Config: cfg})
	if err != nil {
		return StoreConfig{}, fmt.Errorf("encoding store settings: %w", err)
	}
	if err := h.kv.Set(ctx, h.kv.SettingsKey(), payload, 0); err != nil {
		return StoreConfig{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persisting store settings")
	}

	h.cfg = cfg
	return cfg, nil
}

func (h *Holder) read(ctx context.Context) (StoreConfig, error) {
	raw, err := h.kv.Get(ctx, h.kv.SettingsKey())
	if err != nil {
		if pkgredis.IsNil(err) {
			return DefaultConfig(), nil
		}
		return StoreConfig{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reading store settings")
	}

	var snap snapshot
	if err := json.Unmarshal([]byte(raw), &snap); err != nil {
		h.logg.Warn(ctx, fmt.Sprintf("store settings snapshot is unreadable, serving defaults: %v", err))
		return DefaultConfig(), nil
	}
	if snap.Version != SchemaVersion {
		ctx = h.logg.WithField(ctx, "version", snap.Version)
		h.logg.Warn(ctx, "store settings snapshot has stale schema, serving defaults")
		return DefaultConfig(), nil
	}
	return snap.Config, nil
}
