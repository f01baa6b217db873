package paymentmethods

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/casadaesfiha/storefront-backend/pkg/db/models"
	pkgerrors "github.com/casadaesfiha/storefront-backend/pkg/errors"
)

// UpdateInput edits how a payment method is presented. The method's type is
// fixed at seed time and never changes.
type UpdateInput struct {
	Name         *string `json:"name" validate:"omitempty,max=120"`
	Description  *string `json:"description"`
	Instructions *string `json:"instructions"`
	IsActive     *bool   `json:"is_active"`
	SortOrder    *int    `json:"sort_order" validate:"omitempty,min=0"`
}

// Service exposes the payment methods offered at checkout. The set of
// methods is seeded with the schema; admins only toggle and relabel them.
type Service interface {
	ListActive(ctx context.Context) ([]models.PaymentMethod, error)
	ListAll(ctx context.Context) ([]models.PaymentMethod, error)
	Get(ctx context.Context, id uuid.UUID) (*models.PaymentMethod, error)
	Update(ctx context.Context, id uuid.UUID, input UpdateInput) (*models.PaymentMethod, error)
}

type service struct {
	repo *Repository
}

// NewService builds the payment methods service.
func NewService(repo *Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("payment methods service requires a repository")
	}
	return &service{repo: repo}, nil
}

func (s *service) ListActive(ctx context.Context) ([]models.PaymentMethod, error) {
	return s.repo.List(ctx, true)
}

func (s *service) ListAll(ctx context.Context) ([]models.PaymentMethod, error) {
	return s.repo.List(ctx, false)
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.PaymentMethod, error) {
	method, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "payment method not found")
		}
		return nil, err
	}
	return method, nil
}

func (s *service) Update(ctx context.Context, id uuid.UUID, input UpdateInput) (*models.PaymentMethod, error) {
	method, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		if *input.Name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment method name must not be empty")
		}
		method.Name = *input.Name
	}
	if input.Description != nil {
		method.Description = input.Description
	}
	if input.Instructions != nil {
		method.Instructions = input.Instructions
	}
	if input.IsActive != nil {
		method.IsActive = *input.IsActive
	}
	if input.SortOrder != nil {
		method.SortOrder = *input.SortOrder
	}

	if err := s.repo.Update(ctx, method); err != nil {
		return nil, err
	}
	return method, nil
}
