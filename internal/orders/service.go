package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v84"
	"gorm.io/gorm"

	"github.com/casadaesfiha/storefront-backend/internal/cart"
	"github.com/casadaesfiha/storefront-backend/internal/pricing"
	"github.com/casadaesfiha/storefront-backend/internal/settings"
	"github.com/casadaesfiha/storefront-backend/pkg/db/models"
	"github.com/casadaesfiha/storefront-backend/pkg/enums"
	pkgerrors "github.com/casadaesfiha/storefront-backend/pkg/errors"
	"github.com/casadaesfiha/storefront-backend/pkg/logger"
	"github.com/casadaesfiha/storefront-backend/pkg/metrics"
)

// txRunner is the slice of the db client the service needs.
type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// cartReader reads a customer's cart snapshot.
type cartReader interface {
	Get(ctx context.Context, ownerID string) (*cart.Cart, error)
}

// productLoader is the slice of the catalog the service needs.
type productLoader interface {
	GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error)
}

// paymentMethodLoader resolves the payment method chosen at checkout.
type paymentMethodLoader interface {
	Get(ctx context.Context, id uuid.UUID) (*models.PaymentMethod, error)
}

// configReader serves the store configuration the order snapshots.
type configReader interface {
	Get(ctx context.Context) (settings.StoreConfig, error)
}

// Service materializes carts into orders and drives their payment and
// fulfillment transitions. Clearing the cart after a confirmed payment is
// the caller's job, not this service's.
type Service interface {
	Create(ctx context.Context, userID uuid.UUID, input CreateOrderInput) (*models.Order, error)
	GetForUser(ctx context.Context, userID, orderID uuid.UUID) (*models.Order, error)
	ListForUser(ctx context.Context, userID uuid.UUID) ([]models.Order, error)

	CreatePaymentIntent(ctx context.Context, userID, orderID uuid.UUID) (string, error)
	ConfirmPixPayment(ctx context.Context, userID, orderID uuid.UUID) (*models.Order, error)
	ConfirmCardPayment(ctx context.Context, userID, orderID uuid.UUID) (*models.Order, error)
	ConfirmCashPayment(ctx context.Context, userID, orderID uuid.UUID) (*models.Order, error)
	FailPayment(ctx context.Context, userID, orderID uuid.UUID) (*models.Order, error)

	Get(ctx context.Context, orderID uuid.UUID) (*models.Order, error)
	List(ctx context.Context, filter ListFilter) ([]models.Order, string, error)
	UpdateFulfillment(ctx context.Context, orderID uuid.UUID, status enums.FulfillmentStatus) (*models.Order, error)
	MarkRefunded(ctx context.Context, orderID uuid.UUID) (*models.Order, error)
	Retotal(ctx context.Context, orderID uuid.UUID) (*models.Order, error)
}

type service struct {
	repo     *Repository
	tx       txRunner
	carts    cartReader
	products productLoader
	methods  paymentMethodLoader
	config   configReader
	stripe   StripePaymentClient
	logg     *logger.Logger
	metrics  *metrics.StorefrontMetrics
}

// ServiceParams bundles the dependencies required to build an order service.
type ServiceParams struct {
	Repo           *Repository
	Tx             txRunner
	Carts          cartReader
	Products       productLoader
	PaymentMethods paymentMethodLoader
	Config         configReader
	Stripe         StripePaymentClient
	Logger         *logger.Logger
	Metrics        *metrics.StorefrontMetrics
}

// NewService constructs an order service with the provided dependencies.
// Stripe may be nil when card payments are disabled.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("order repository is required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner is required")
	}
	if params.Carts == nil {
		return nil, fmt.Errorf("cart reader is required")
	}
	if params.Products == nil {
		return nil, fmt.Errorf("product loader is required")
	}
	if params.PaymentMethods == nil {
		return nil, fmt.Errorf("payment method loader is required")
	}
	if params.Config == nil {
		return nil, fmt.Errorf("config reader is required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	return &service{
		repo:     params.Repo,
		tx:       params.Tx,
		carts:    params.Carts,
		products: params.Products,
		methods:  params.PaymentMethods,
		config:   params.Config,
		stripe:   params.Stripe,
		logg:     params.Logger,
		metrics:  params.Metrics,
	}, nil
}

// Create materializes the caller's cart into a persisted order. The items
// are snapshotted with the prices the cart resolved; the delivery fee is
// copied from the store configuration as it stands right now. Header and
// items land in one transaction, a partial order is never left behind.
func (s *service) Create(ctx context.Context, userID uuid.UUID, input CreateOrderInput) (*models.Order, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "sign in to place an order")
	}
	if trimmed(input.CustomerName) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer name is required")
	}
	if trimmed(input.CustomerPhone) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer phone is required")
	}
	if trimmed(input.DeliveryAddress) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "delivery address is required")
	}
	if input.PaymentMethodID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment method is required")
	}

	method, err := s.methods.Get(ctx, input.PaymentMethodID)
	if err != nil {
		if typed := pkgerrors.As(err); typed != nil && typed.Code() == pkgerrors.CodeNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment method is not available")
		}
		return nil, err
	}
	if !method.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment method is not available")
	}

	snapshot, err := s.carts.Get(ctx, userID.String())
	if err != nil {
		return nil, err
	}
	if snapshot.IsEmpty() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
	}
	if err := s.validateSelections(ctx, snapshot); err != nil {
		return nil, err
	}

	cfg, err := s.config.Get(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read store configuration")
	}

	subtotal := snapshot.Subtotal()
	order := &models.Order{
		ID:                uuid.New(),
		UserID:            &userID,
		CustomerName:      trimmed(input.CustomerName),
		CustomerPhone:     trimmed(input.CustomerPhone),
		DeliveryAddress:   trimmed(input.DeliveryAddress),
		Notes:             input.Notes,
		PaymentMethod:     method.Type,
		PaymentStatus:     enums.PaymentStatusPending,
		FulfillmentStatus: enums.FulfillmentStatusPending,
		Subtotal:          subtotal,
		DeliveryFee:       cfg.DeliveryFee,
		Total:             subtotal.Add(cfg.DeliveryFee),
		Items:             itemsFromCart(snapshot),
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		number, err := s.repo.NextOrderNumberWithTx(tx)
		if err != nil {
			return err
		}
		order.OrderNumber = number
		return s.repo.CreateWithTx(tx, order)
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist order")
	}

	s.metrics.IncOrderCreated(method.Type.String())
	lctx := s.logg.WithOrderID(ctx, order.ID.String())
	s.logg.Info(lctx, fmt.Sprintf("order #%d created, total %s", order.OrderNumber, order.Total))
	return order, nil
}

func (s *service) GetForUser(ctx context.Context, userID, orderID uuid.UUID) (*models.Order, error) {
	order, err := s.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.UserID == nil || *order.UserID != userID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	return order, nil
}

func (s *service) ListForUser(ctx context.Context, userID uuid.UUID) ([]models.Order, error) {
	return s.repo.ListByUser(ctx, userID)
}

// CreatePaymentIntent registers the order's total with Stripe and returns
// the client secret the buyer's card flow needs. Amounts go out in centavos.
func (s *service) CreatePaymentIntent(ctx context.Context, userID, orderID uuid.UUID) (string, error) {
	if s.stripe == nil {
		return "", pkgerrors.New(pkgerrors.CodePayment, "card payments are not enabled")
	}

	order, err := s.GetForUser(ctx, userID, orderID)
	if err != nil {
		return "", err
	}
	if order.PaymentMethod != enums.PaymentMethodTypeCreditCard {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "order is not a card payment")
	}
	if order.PaymentStatus != enums.PaymentStatusPending {
		return "", pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("order payment is already %s", order.PaymentStatus))
	}

	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(order.Total.Mul(decimal.NewFromInt(100)).IntPart()),
		Currency: stripe.String(string(stripe.CurrencyBRL)),
	}
	params.AddMetadata("order_id", order.ID.String())
	params.AddMetadata("order_number", fmt.Sprintf("%d", order.OrderNumber))

	intent, err := s.stripe.CreateIntent(ctx, params)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodePayment, err, "create payment intent")
	}

	order.StripePaymentIntentID = &intent.ID
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		return s.repo.UpdateWithTx(tx, order)
	})
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store payment intent id")
	}
	return intent.ClientSecret, nil
}

// ConfirmPixPayment marks a pix order as paid. The store verifies the
// transfer out of band before the admin-facing flow calls this.
func (s *service) ConfirmPixPayment(ctx context.Context, userID, orderID uuid.UUID) (*models.Order, error) {
	return s.confirmPayment(ctx, userID, orderID, enums.PaymentMethodTypePix, func(ctx context.Context, order *models.Order) error {
		return nil
	})
}

// ConfirmCardPayment checks the Stripe payment intent and marks the order
// paid only when the intent succeeded. A still-processing or failed intent
// surfaces as a payment error the buyer can retry; nothing is retried here.
func (s *service) ConfirmCardPayment(ctx context.Context, userID, orderID uuid.UUID) (*models.Order, error) {
	return s.confirmPayment(ctx, userID, orderID, enums.PaymentMethodTypeCreditCard, func(ctx context.Context, order *models.Order) error {
		if s.stripe == nil {
			return pkgerrors.New(pkgerrors.CodePayment, "card payments are not enabled")
		}
		if order.StripePaymentIntentID == nil {
			return pkgerrors.New(pkgerrors.CodeValidation, "order has no payment intent")
		}
		intent, err := s.stripe.GetIntent(ctx, *order.StripePaymentIntentID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodePayment, err, "retrieve payment intent")
		}
		if intent.Status != stripe.PaymentIntentStatusSucceeded {
			return pkgerrors.New(pkgerrors.CodePayment,
				fmt.Sprintf("payment intent is %s, try again", intent.Status))
		}
		return nil
	})
}

// ConfirmCashPayment completes a cash checkout. Payment stays pending, the
// courier settles at the door; the order itself proceeds to fulfillment.
func (s *service) ConfirmCashPayment(ctx context.Context, userID, orderID uuid.UUID) (*models.Order, error) {
	order, err := s.GetForUser(ctx, userID, orderID)
	if err != nil {
		return nil, err
	}
	if order.PaymentMethod != enums.PaymentMethodTypeCash {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order is not a cash payment")
	}
	if order.PaymentStatus != enums.PaymentStatusPending {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("order payment is already %s", order.PaymentStatus))
	}

	s.metrics.IncPaymentConfirmation(order.PaymentMethod.String(), enums.PaymentStatusPending.String())
	return order, nil
}

// FailPayment marks a pending payment as failed, either on an explicit
// buyer cancellation or after the provider rejected the charge.
func (s *service) FailPayment(ctx context.Context, userID, orderID uuid.UUID) (*models.Order, error) {
	order, err := s.GetForUser(ctx, userID, orderID)
	if err != nil {
		return nil, err
	}
	if order.PaymentStatus != enums.PaymentStatusPending {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("order payment is already %s", order.PaymentStatus))
	}

	order.PaymentStatus = enums.PaymentStatusFailed
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		return s.repo.UpdateWithTx(tx, order)
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist payment failure")
	}
	s.metrics.IncPaymentConfirmation(order.PaymentMethod.String(), enums.PaymentStatusFailed.String())
	return order, nil
}

func (s *service) Get(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, err
	}
	return order, nil
}

func (s *service) List(ctx context.Context, filter ListFilter) ([]models.Order, string, error) {
	return s.repo.List(ctx, filter)
}

// UpdateFulfillment applies an admin-driven status change. Forward moves
// through the delivery pipeline are allowed, skipping included; cancelled is
// reachable from any non-terminal state; delivered and cancelled are final.
func (s *service) UpdateFulfillment(ctx context.Context, orderID uuid.UUID, status enums.FulfillmentStatus) (*models.Order, error) {
	if !status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid fulfillment status %q", status))
	}

	order, err := s.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if err := validateFulfillmentTransition(order.FulfillmentStatus, status); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	order.FulfillmentStatus = status
	switch status {
	case enums.FulfillmentStatusDelivered:
		order.DeliveredAt = &now
	case enums.FulfillmentStatusCancelled:
		order.CancelledAt = &now
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		return s.repo.UpdateWithTx(tx, order)
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist fulfillment status")
	}

	lctx := s.logg.WithOrderID(ctx, order.ID.String())
	s.logg.Info(lctx, fmt.Sprintf("order #%d moved to %s", order.OrderNumber, status))
	return order, nil
}

// MarkRefunded flips a paid order to refunded after the money went back.
func (s *service) MarkRefunded(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	order, err := s.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.PaymentStatus != enums.PaymentStatusPaid {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("only paid orders can be refunded, payment is %s", order.PaymentStatus))
	}

	order.PaymentStatus = enums.PaymentStatusRefunded
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		return s.repo.UpdateWithTx(tx, order)
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist refund")
	}
	return order, nil
}

// Retotal recomputes the order total from its stored lines and the delivery
// fee snapshotted at creation. Only pending-payment orders can be retotaled,
// a paid total never moves.
func (s *service) Retotal(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	var order *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		loaded, err := s.repo.FindByIDWithTx(tx, orderID)
		if err != nil {
			return err
		}
		if loaded.PaymentStatus != enums.PaymentStatusPending {
			return pkgerrors.New(pkgerrors.CodeStateConflict,
				fmt.Sprintf("order payment is already %s, total is frozen", loaded.PaymentStatus))
		}

		subtotal := decimal.Zero
		for _, item := range loaded.Items {
			subtotal = subtotal.Add(item.LineTotal)
		}
		loaded.Subtotal = subtotal
		loaded.Total = subtotal.Add(loaded.DeliveryFee)

		if err := s.repo.UpdateWithTx(tx, loaded); err != nil {
			return err
		}
		order = loaded
		return nil
	})
	if err != nil {
		if typed := pkgerrors.As(err); typed != nil {
			return nil, typed
		}
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "retotal order")
	}
	return order, nil
}

func (s *service) confirmPayment(ctx context.Context, userID, orderID uuid.UUID, method enums.PaymentMethodType, check func(ctx context.Context, order *models.Order) error) (*models.Order, error) {
	order, err := s.GetForUser(ctx, userID, orderID)
	if err != nil {
		return nil, err
	}
	if order.PaymentMethod != method {
		return nil, pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("order is not a %s payment", method))
	}
	if order.PaymentStatus != enums.PaymentStatusPending {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("order payment is already %s", order.PaymentStatus))
	}

	if err := check(ctx, order); err != nil {
		s.metrics.IncPaymentConfirmation(method.String(), enums.PaymentStatusFailed.String())
		return nil, err
	}

	now := time.Now().UTC()
	order.PaymentStatus = enums.PaymentStatusPaid
	order.PaidAt = &now
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		return s.repo.UpdateWithTx(tx, order)
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist payment confirmation")
	}

	s.metrics.IncPaymentConfirmation(method.String(), enums.PaymentStatusPaid.String())
	lctx := s.logg.WithOrderID(ctx, order.ID.String())
	s.logg.Info(lctx, fmt.Sprintf("order #%d paid via %s", order.OrderNumber, method))
	return order, nil
}

// validateSelections re-checks every cart line against the catalog as it
// stands at checkout, so an option made required after the item was added
// still blocks the order. Prices are not re-resolved, the snapshot wins.
func (s *service) validateSelections(ctx context.Context, snapshot *cart.Cart) error {
	for _, line := range snapshot.Lines {
		product, err := s.products.GetProduct(ctx, line.ProductID)
		if err != nil {
			if typed := pkgerrors.As(err); typed != nil && typed.Code() == pkgerrors.CodeNotFound {
				return pkgerrors.New(pkgerrors.CodeValidation,
					fmt.Sprintf("%q is no longer on the menu", line.ProductName))
			}
			return err
		}
		table, err := pricing.BuildPriceTable(product)
		if err != nil {
			return err
		}
		if _, err := table.Resolve(line.SelectedOptions); err != nil {
			return err
		}
	}
	return nil
}

func validateFulfillmentTransition(from, to enums.FulfillmentStatus) error {
	if from.IsTerminal() {
		return pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("order is already %s", from))
	}
	if to == enums.FulfillmentStatusCancelled {
		return nil
	}
	if fulfillmentRank(to) <= fulfillmentRank(from) {
		return pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("cannot move order from %s back to %s", from, to))
	}
	return nil
}

func fulfillmentRank(status enums.FulfillmentStatus) int {
	switch status {
	case enums.FulfillmentStatusPending:
		return 0
	case enums.FulfillmentStatusProcessing:
		return 1
	case enums.FulfillmentStatusDelivering:
		return 2
	case enums.FulfillmentStatusDelivered:
		return 3
	default:
		return -1
	}
}

func itemsFromCart(snapshot *cart.Cart) []models.OrderItem {
	items := make([]models.OrderItem, 0, len(snapshot.Lines))
	for _, line := range snapshot.Lines {
		productID := line.ProductID
		items = append(items, models.OrderItem{
			ID:              uuid.New(),
			ProductID:       &productID,
			ProductName:     line.ProductName,
			ImageURL:        line.ImageURL,
			SelectedOptions: line.SelectedOptions.Clone(),
			Fingerprint:     line.Fingerprint,
			UnitPrice:       line.UnitPrice,
			Quantity:        line.Quantity,
			LineTotal:       line.Total(),
		})
	}
	return items
}

func trimmed(value string) string {
	return strings.TrimSpace(value)
}
