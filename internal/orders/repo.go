package orders

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/casadaesfiha/storefront-backend/pkg/db/models"
	"github.com/casadaesfiha/storefront-backend/pkg/pagination"
)

// Repository handles order persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds a GORM DB to order operations.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// NextOrderNumberWithTx reserves the next customer-facing order number. On
// Postgres this comes from a sequence so concurrent checkouts never collide;
// the sqlite path exists for local development only.
func (r *Repository) NextOrderNumberWithTx(tx *gorm.DB) (int64, error) {
	if tx == nil {
		return 0, gorm.ErrInvalidTransaction
	}
	var number int64
	if tx.Dialector.Name() == "postgres" {
		if err := tx.Raw("SELECT nextval('order_number_seq')").Scan(&number).Error; err != nil {
			return 0, err
		}
		return number, nil
	}
	if err := tx.Raw("SELECT COALESCE(MAX(order_number), 999) + 1 FROM orders").Scan(&number).Error; err != nil {
		return 0, err
	}
	return number, nil
}

// CreateWithTx persists the order header and its items in the caller's
// transaction, so a failed item insert rolls the header back too.
func (r *Repository) CreateWithTx(tx *gorm.DB, order *models.Order) error {
	if tx == nil {
		return gorm.ErrInvalidTransaction
	}
	if order == nil {
		return fmt.Errorf("order is required")
	}
	return tx.Create(order).Error
}

// FindByID loads an order with its items.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("id = ?", id).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// FindByIDWithTx loads an order with its items using the provided transaction.
func (r *Repository) FindByIDWithTx(tx *gorm.DB, id uuid.UUID) (*models.Order, error) {
	if tx == nil {
		return nil, gorm.ErrInvalidTransaction
	}
	var order models.Order
	if err := tx.Preload("Items").First(&order, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

// ListByUser returns the user's orders, newest first.
func (r *Repository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Order, error) {
	var orders []models.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("user_id = ?", userID).
		Order("created_at desc, id desc").
		Find(&orders).Error
	if err != nil {
		return nil, err
	}
	return orders, nil
}

// List returns orders matching the filter with cursor pagination, newest
// first. It fetches one row past the limit so the caller can tell whether a
// next page exists.
func (r *Repository) List(ctx context.Context, filter ListFilter) ([]models.Order, string, error) {
	query := r.db.WithContext(ctx).
		Preload("Items").
		Order("created_at desc, id desc").
		Limit(pagination.LimitWithBuffer(filter.Pagination.Limit))

	if filter.PaymentStatus != nil {
		query = query.Where("payment_status = ?", *filter.PaymentStatus)
	}
	if filter.FulfillmentStatus != nil {
		query = query.Where("fulfillment_status = ?", *filter.FulfillmentStatus)
	}

	cursor, err := pagination.ParseCursor(filter.Pagination.Cursor)
	if err != nil {
		return nil, "", err
	}
	if cursor != nil {
		query = query.Where(
			"(created_at < ?) OR (created_at = ? AND id < ?)",
			cursor.CreatedAt, cursor.CreatedAt, cursor.ID,
		)
	}

	var orders []models.Order
	if err := query.Find(&orders).Error; err != nil {
		return nil, "", err
	}

	limit := pagination.NormalizeLimit(filter.Pagination.Limit)
	nextCursor := ""
	if len(orders) > limit {
		orders = orders[:limit]
		last := orders[len(orders)-1]
		nextCursor = pagination.EncodeCursor(pagination.Cursor{
			CreatedAt: last.CreatedAt,
			ID:        last.ID,
		})
	}
	return orders, nextCursor, nil
}

// UpdateWithTx persists the order using the provided transaction.
func (r *Repository) UpdateWithTx(tx *gorm.DB, order *models.Order) error {
	if tx == nil {
		return gorm.ErrInvalidTransaction
	}
	if order == nil {
		return fmt.Errorf("order is required")
	}
	return tx.Omit("Items").Save(order).Error
}
