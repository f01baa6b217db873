package catalog

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/casadaesfiha/storefront-backend/pkg/db/models"
)

// Repository handles catalog persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds a GORM DB to catalog operations.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// CreateCategory persists a new category row.
func (r *Repository) CreateCategory(ctx context.Context, category *models.Category) error {
	if category == nil {
		return fmt.Errorf("category is required")
	}
	return r.db.WithContext(ctx).Create(category).Error
}

// ListCategories returns categories in display order. When activeOnly is set,
// hidden categories are skipped.
func (r *Repository) ListCategories(ctx context.Context, activeOnly bool) ([]models.Category, error) {
	query := r.db.WithContext(ctx).Order("sort_order asc, name asc")
	if activeOnly {
		query = query.Where("is_active = ?", true)
	}
	var categories []models.Category
	if err := query.Find(&categories).Error; err != nil {
		return nil, err
	}
	return categories, nil
}

// FindCategoryByID loads a category by its UUID.
func (r *Repository) FindCategoryByID(ctx context.Context, id uuid.UUID) (*models.Category, error) {
	var category models.Category
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&category).Error; err != nil {
		return nil, err
	}
	return &category, nil
}

// UpdateCategory saves the provided category.
func (r *Repository) UpdateCategory(ctx context.Context, category *models.Category) error {
	if category == nil {
		return fmt.Errorf("category is required")
	}
	return r.db.WithContext(ctx).Save(category).Error
}

// DeleteCategory removes the category row.
func (r *Repository) DeleteCategory(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Category{}).Error
}

// CountProductsInCategory reports how many products reference the category.
func (r *Repository) CountProductsInCategory(ctx context.Context, id uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Product{}).
		Where("category_id = ?", id).Count(&count).Error
	return count, err
}

// CreateProduct persists a product with its option groups and variations.
func (r *Repository) CreateProduct(ctx context.Context, product *models.Product) error {
	if product == nil {
		return fmt.Errorf("product is required")
	}
	return r.db.WithContext(ctx).Create(product).Error
}

// FindProductByID loads a product with its option tree, variations included.
func (r *Repository) FindProductByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	err := r.db.WithContext(ctx).
		Preload("Options", func(db *gorm.DB) *gorm.DB {
			return db.Order("sort_order asc, name asc")
		}).
		Preload("Options.Variations", func(db *gorm.DB) *gorm.DB {
			return db.Order("sort_order asc, name asc")
		}).
		Where("id = ?", id).
		First(&product).Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// ProductFilter narrows product listings.
type ProductFilter struct {
	CategoryID    *uuid.UUID
	AvailableOnly bool
}

// ListProducts returns products matching the filter, option tree included.
func (r *Repository) ListProducts(ctx context.Context, filter ProductFilter) ([]models.Product, error) {
	query := r.db.WithContext(ctx).
		Preload("Options", func(db *gorm.DB) *gorm.DB {
			return db.Order("sort_order asc, name asc")
		}).
		Preload("Options.Variations", func(db *gorm.DB) *gorm.DB {
			return db.Order("sort_order asc, name asc")
		}).
		Order("name asc")
	if filter.CategoryID != nil {
		query = query.Where("category_id = ?", *filter.CategoryID)
	}
	if filter.AvailableOnly {
		query = query.Where("is_available = ?", true)
	}
	var products []models.Product
	if err := query.Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}

// UpdateProduct saves the product's scalar columns. Option groups are
// replaced separately through ReplaceOptions.
func (r *Repository) UpdateProduct(ctx context.Context, product *models.Product) error {
	if product == nil {
		return fmt.Errorf("product is required")
	}
	return r.db.WithContext(ctx).Omit("Options").Save(product).Error
}

// ReplaceOptions swaps a product's entire option tree inside one transaction.
// Callers pass options with zero IDs; the insert assigns fresh ones.
func (r *Repository) ReplaceOptions(tx *gorm.DB, productID uuid.UUID, options []models.ProductOption) error {
	if tx == nil {
		return gorm.ErrInvalidTransaction
	}
	var optionIDs []uuid.UUID
	if err := tx.Model(&models.ProductOption{}).
		Where("product_id = ?", productID).
		Pluck("id", &optionIDs).Error; err != nil {
		return err
	}
	if len(optionIDs) > 0 {
		if err := tx.Where("option_id IN ?", optionIDs).
			Delete(&models.OptionVariation{}).Error; err != nil {
			return err
		}
		if err := tx.Where("product_id = ?", productID).
			Delete(&models.ProductOption{}).Error; err != nil {
			return err
		}
	}
	for i := range options {
		options[i].ProductID = productID
		if err := tx.Create(&options[i]).Error; err != nil {
			return err
		}
	}
	return nil
}

// DeleteProduct removes the product row. Options and variations go with it
// through the cascade.
func (r *Repository) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Product{}).Error
}
