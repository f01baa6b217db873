package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	pkgdb "github.com/casadaesfiha/storefront-backend/pkg/db"
	"github.com/casadaesfiha/storefront-backend/pkg/db/models"
	pkgerrors "github.com/casadaesfiha/storefront-backend/pkg/errors"
)

// txRunner is the slice of the db client the service needs.
type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service exposes the menu to customers and catalog management to admins.
type Service interface {
	GetMenu(ctx context.Context) ([]MenuSection, error)
	GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error)

	ListCategories(ctx context.Context) ([]models.Category, error)
	CreateCategory(ctx context.Context, input CreateCategoryInput) (*models.Category, error)
	UpdateCategory(ctx context.Context, id uuid.UUID, input UpdateCategoryInput) (*models.Category, error)
	DeleteCategory(ctx context.Context, id uuid.UUID) error

	ListProducts(ctx context.Context, filter ProductFilter) ([]models.Product, error)
	CreateProduct(ctx context.Context, input CreateProductInput) (*models.Product, error)
	UpdateProduct(ctx context.Context, id uuid.UUID, input UpdateProductInput) (*models.Product, error)
	DeleteProduct(ctx context.Context, id uuid.UUID) error
}

type service struct {
	repo *Repository
	tx   txRunner
}

// NewService builds the catalog service.
func NewService(repo *Repository, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("catalog service requires a repository")
	}
	if tx == nil {
		return nil, fmt.Errorf("catalog service requires a transaction runner")
	}
	return &service{repo: repo, tx: tx}, nil
}

// GetMenu returns active categories with their available products, in
// display order. Empty categories are kept so the storefront can show them.
func (s *service) GetMenu(ctx context.Context) ([]MenuSection, error) {
	categories, err := s.repo.ListCategories(ctx, true)
	if err != nil {
		return nil, err
	}
	products, err := s.repo.ListProducts(ctx, ProductFilter{AvailableOnly: true})
	if err != nil {
		return nil, err
	}

	byCategory := make(map[uuid.UUID][]models.Product, len(categories))
	for _, p := range products {
		byCategory[p.CategoryID] = append(byCategory[p.CategoryID], p)
	}

	sections := make([]MenuSection, 0, len(categories))
	for _, c := range categories {
		items := byCategory[c.ID]
		if items == nil {
			items = []models.Product{}
		}
		sections = append(sections, MenuSection{Category: c, Products: items})
	}
	return sections, nil
}

func (s *service) GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	product, err := s.repo.FindProductByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, err
	}
	return product, nil
}

func (s *service) ListCategories(ctx context.Context) ([]models.Category, error) {
	return s.repo.ListCategories(ctx, false)
}

func (s *service) CreateCategory(ctx context.Context, input CreateCategoryInput) (*models.Category, error) {
	category := input.ToModel()
	if err := s.repo.CreateCategory(ctx, category); err != nil {
		if pkgdb.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict,
				fmt.Sprintf("category %q already exists", input.Name))
		}
		return nil, err
	}
	return category, nil
}

func (s *service) UpdateCategory(ctx context.Context, id uuid.UUID, input UpdateCategoryInput) (*models.Category, error) {
	category, err := s.repo.FindCategoryByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "category not found")
		}
		return nil, err
	}

	if input.Name != nil {
		category.Name = *input.Name
	}
	if input.SortOrder != nil {
		category.SortOrder = *input.SortOrder
	}
	if input.IsActive != nil {
		category.IsActive = *input.IsActive
	}

	if err := s.repo.UpdateCategory(ctx, category); err != nil {
		if pkgdb.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict,
				fmt.Sprintf("category %q already exists", category.Name))
		}
		return nil, err
	}
	return category, nil
}

// DeleteCategory refuses to drop a category that still has products, the
// admin has to move or delete them first.
func (s *service) DeleteCategory(ctx context.Context, id uuid.UUID) error {
	if _, err := s.repo.FindCategoryByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "category not found")
		}
		return err
	}
	count, err := s.repo.CountProductsInCategory(ctx, id)
	if err != nil {
		return err
	}
	if count > 0 {
		return pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("category still has %d products", count))
	}
	return s.repo.DeleteCategory(ctx, id)
}

func (s *service) ListProducts(ctx context.Context, filter ProductFilter) ([]models.Product, error) {
	return s.repo.ListProducts(ctx, filter)
}

func (s *service) CreateProduct(ctx context.Context, input CreateProductInput) (*models.Product, error) {
	if input.BasePrice.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "base price must not be negative")
	}
	if err := validateOptionInputs(input.Options); err != nil {
		return nil, err
	}
	if _, err := s.repo.FindCategoryByID(ctx, input.CategoryID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "category does not exist")
		}
		return nil, err
	}

	product := input.ToModel()
	if err := s.repo.CreateProduct(ctx, product); err != nil {
		return nil, err
	}
	return s.GetProduct(ctx, product.ID)
}

func (s *service) UpdateProduct(ctx context.Context, id uuid.UUID, input UpdateProductInput) (*models.Product, error) {
	if input.BasePrice != nil && input.BasePrice.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "base price must not be negative")
	}
	if input.Options != nil {
		if err := validateOptionInputs(input.Options); err != nil {
			return nil, err
		}
	}

	product, err := s.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.CategoryID != nil {
		if _, err := s.repo.FindCategoryByID(ctx, *input.CategoryID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, pkgerrors.New(pkgerrors.CodeValidation, "category does not exist")
			}
			return nil, err
		}
		product.CategoryID = *input.CategoryID
	}
	if input.Name != nil {
		product.Name = *input.Name
	}
	if input.Description != nil {
		product.Description = input.Description
	}
	if input.BasePrice != nil {
		product.BasePrice = *input.BasePrice
	}
	if input.ImageURL != nil {
		product.ImageURL = input.ImageURL
	}
	if input.IsAvailable != nil {
		product.IsAvailable = *input.IsAvailable
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		scalar := *product
		scalar.Options = nil
		if err := tx.Omit("Options").Save(&scalar).Error; err != nil {
			return err
		}
		if input.Options != nil {
			return s.repo.ReplaceOptions(tx, product.ID, buildOptions(input.Options))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.GetProduct(ctx, id)
}

func (s *service) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	if _, err := s.GetProduct(ctx, id); err != nil {
		return err
	}
	return s.repo.DeleteProduct(ctx, id)
}

func validateOptionInputs(options []OptionInput) error {
	seen := make(map[string]struct{}, len(options))
	for _, opt := range options {
		if opt.Name == "" {
			return pkgerrors.New(pkgerrors.CodeValidation, "option group name is required")
		}
		if _, dup := seen[opt.Name]; dup {
			return pkgerrors.New(pkgerrors.CodeValidation,
				fmt.Sprintf("option group %q is duplicated", opt.Name))
		}
		seen[opt.Name] = struct{}{}
		if len(opt.Variations) == 0 {
			return pkgerrors.New(pkgerrors.CodeValidation,
				fmt.Sprintf("option group %q needs at least one variation", opt.Name))
		}
		names := make(map[string]struct{}, len(opt.Variations))
		for _, v := range opt.Variations {
			if v.Name == "" {
				return pkgerrors.New(pkgerrors.CodeValidation,
					fmt.Sprintf("option group %q has a variation without a name", opt.Name))
			}
			if _, dup := names[v.Name]; dup {
				return pkgerrors.New(pkgerrors.CodeValidation,
					fmt.Sprintf("variation %q is duplicated in group %q", v.Name, opt.Name))
			}
			names[v.Name] = struct{}{}
			if v.PriceDelta.IsNegative() {
				return pkgerrors.New(pkgerrors.CodeValidation,
					fmt.Sprintf("variation %q must not have a negative price", v.Name))
			}
		}
	}
	return nil
}
