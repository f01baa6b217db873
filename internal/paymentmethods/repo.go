package paymentmethods

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/casadaesfiha/storefront-backend/pkg/db/models"
	"github.com/casadaesfiha/storefront-backend/pkg/enums"
)

// Repository handles payment method persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds a GORM DB to payment method operations.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// List returns payment methods in display order. When activeOnly is set,
// disabled methods are skipped.
func (r *Repository) List(ctx context.Context, activeOnly bool) ([]models.PaymentMethod, error) {
	query := r.db.WithContext(ctx).Order("sort_order asc, name asc")
	if activeOnly {
		query = query.Where("is_active = ?", true)
	}
	var methods []models.PaymentMethod
	if err := query.Find(&methods).Error; err != nil {
		return nil, err
	}
	return methods, nil
}

// FindByID loads a payment method by its UUID.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.PaymentMethod, error) {
	var method models.PaymentMethod
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&method).Error; err != nil {
		return nil, err
	}
	return &method, nil
}

// FindByType loads a payment method by its type.
func (r *Repository) FindByType(ctx context.Context, methodType enums.PaymentMethodType) (*models.PaymentMethod, error) {
	var method models.PaymentMethod
	if err := r.db.WithContext(ctx).Where("type = ?", methodType).First(&method).Error; err != nil {
		return nil, err
	}
	return &method, nil
}

// Update saves the provided payment method.
func (r *Repository) Update(ctx context.Context, method *models.PaymentMethod) error {
	if method == nil {
		return fmt.Errorf("payment method is required")
	}
	return r.db.WithContext(ctx).Save(method).Error
}
