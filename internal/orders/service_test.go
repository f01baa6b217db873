package orders

import (
	"context"
	"fmt"
	"io"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v84"
	"gorm.io/gorm"

	"github.com/casadaesfiha/storefront-backend/internal/cart"
	"github.com/casadaesfiha/storefront-backend/internal/settings"
	"github.com/casadaesfiha/storefront-backend/pkg/db/models"
	"github.com/casadaesfiha/storefront-backend/pkg/enums"
	pkgerrors "github.com/casadaesfiha/storefront-backend/pkg/errors"
	"github.com/casadaesfiha/storefront-backend/pkg/logger"
	"github.com/casadaesfiha/storefront-backend/pkg/metrics"
	"github.com/casadaesfiha/storefront-backend/pkg/types"
)

type testTx struct {
	db *gorm.DB
}

func (t testTx) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return t.db.WithContext(ctx).Transaction(fn)
}

type stubCarts struct {
	carts map[string]*cart.Cart
}

func (s *stubCarts) Get(_ context.Context, ownerID string) (*cart.Cart, error) {
	if c, ok := s.carts[ownerID]; ok {
		return c.Clone(), nil
	}
	return cart.NewCart(ownerID), nil
}

type stubProducts struct {
	products map[uuid.UUID]*models.Product
}

func (s *stubProducts) GetProduct(_ context.Context, id uuid.UUID) (*models.Product, error) {
	if p, ok := s.products[id]; ok {
		return p, nil
	}
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
}

type stubMethods struct {
	methods map[uuid.UUID]*models.PaymentMethod
}

func (s *stubMethods) Get(_ context.Context, id uuid.UUID) (*models.PaymentMethod, error) {
	if m, ok := s.methods[id]; ok {
		return m, nil
	}
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "payment method not found")
}

type stubConfig struct {
	cfg settings.StoreConfig
}

func (s *stubConfig) Get(_ context.Context) (settings.StoreConfig, error) {
	return s.cfg, nil
}

type stubStripe struct {
	status    stripe.PaymentIntentStatus
	createErr error
	created   []*stripe.PaymentIntentParams
}

func (s *stubStripe) CreateIntent(_ context.Context, params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error) {
	if s.createErr != nil {
		return nil, s.createErr
	}
	s.created = append(s.created, params)
	return &stripe.PaymentIntent{
		ID:           fmt.Sprintf("pi_test_%d", len(s.created)),
		ClientSecret: "cs_test_secret",
		Status:       stripe.PaymentIntentStatusRequiresPaymentMethod,
	}, nil
}

func (s *stubStripe) GetIntent(_ context.Context, id string) (*stripe.PaymentIntent, error) {
	return &stripe.PaymentIntent{ID: id, Status: s.status}, nil
}

type fixture struct {
	svc      Service
	conn     *gorm.DB
	carts    *stubCarts
	products *stubProducts
	methods  *stubMethods
	stripe   *stubStripe
	userID   uuid.UUID
	pix      uuid.UUID
	card     uuid.UUID
	cash     uuid.UUID
}

func esfihaProduct() *models.Product {
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

func newFixture(t *testing.T) *fixture {
	t.Helper()

	conn := openTestDB(t)
	f := &fixture{
		conn:     conn,
		carts:    &stubCarts{carts: map[string]*cart.Cart{}},
		products: &stubProducts{products: map[uuid.UUID]*models.Product{}},
		methods:  &stubMethods{methods: map[uuid.UUID]*models.PaymentMethod{}},
		stripe:   &stubStripe{status: stripe.PaymentIntentStatusSucceeded},
		userID:   uuid.New(),
	}

	f.pix = uuid.New()
	f.card = uuid.New()
	f.cash = uuid.New()
	f.methods.methods[f.pix] = &models.PaymentMethod{ID: f.pix, Type: enums.PaymentMethodTypePix, Name: "Pix", IsActive: true}
	f.methods.methods[f.card] = &models.PaymentMethod{ID: f.card, Type: enums.PaymentMethodTypeCreditCard, Name: "Cartão", IsActive: true}
	f.methods.methods[f.cash] = &models.PaymentMethod{ID: f.cash, Type: enums.PaymentMethodTypeCash, Name: "Dinheiro", IsActive: true}

	logg := logger.New(logger.Options{ServiceName: "orders-test", Output: io.Discard})
	svc, err := NewService(ServiceParams{
		Repo:           NewRepository(conn),
		Tx:             testTx{db: conn},
		Carts:          f.carts,
		Products:       f.products,
		PaymentMethods: f.methods,
		Config:         &stubConfig{cfg: settings.DefaultConfig()},
		Stripe:         f.stripe,
		Logger:         logg,
		Metrics:        metrics.NewStorefrontMetrics(nil),
	})
	require.NoError(t, err)
	f.svc = svc
	return f
}

// fillCart puts two large esfihas in the user's cart, subtotal 18.98.
func (f *fixture) fillCart(t *testing.T) *models.Product {
	t.Helper()

	product := esfihaProduct()
	f.products.products[product.ID] = product

	selection := types.SelectedOptions{"Tamanho": {"Grande"}}.Normalize()
	image := "https://cdn.example.com/esfiha-carne.jpg"
	c := cart.NewCart(f.userID.String())
	c.Lines = append(c.Lines, cart.Line{
		Fingerprint:     selection.Fingerprint(product.ID),
		ProductID:       product.ID,
		ProductName:     product.Name,
		ImageURL:        &image,
		SelectedOptions: selection,
		UnitPrice:       decimal.RequireFromString("9.49"),
		Quantity:        2,
	})
	f.carts.carts[f.userID.String()] = c
	return product
}

func checkoutInput(methodID uuid.UUID) CreateOrderInput {
	return CreateOrderInput{
		CustomerName:    "Maria da Silva",
		CustomerPhone:   "+55 11 91234-5678",
		DeliveryAddress: "Rua das Esfihas, 100 - São Paulo",
		PaymentMethodID: methodID,
	}
}

func requireCode(t *testing.T, err error, code pkgerrors.Code) {
	t.Helper()
	typed := pkgerrors.As(err)
	require.NotNil(t, typed, "expected a coded error, got %v", err)
	require.Equal(t, code, typed.Code())
}

func TestCreateMaterializesCartSnapshot(t *testing.T) {
	f := newFixture(t)
	f.fillCart(t)
	ctx := context.Background()

	order, err := f.svc.Create(ctx, f.userID, checkoutInput(f.pix))
	require.NoError(t, err)

	require.GreaterOrEqual(t, order.OrderNumber, int64(1000))
	require.Equal(t, enums.PaymentStatusPending, order.PaymentStatus)
	require.Equal(t, enums.FulfillmentStatusPending, order.FulfillmentStatus)
	require.True(t, order.Subtotal.Equal(decimal.RequireFromString("18.98")))
	require.True(t, order.DeliveryFee.Equal(decimal.RequireFromString("10.99")))
	require.True(t, order.Total.Equal(decimal.RequireFromString("29.97")), "total %s", order.Total)

	// The persisted snapshot must survive a reload with its options intact.
	loaded, err := f.svc.Get(ctx, order.ID)
	require.NoError(t, err)
	require.Len(t, loaded.Items, 1)
	item := loaded.Items[0]
	require.Equal(t, "Esfiha de Carne", item.ProductName)
	require.NotNil(t, item.ImageURL)
	require.Equal(t, "https://cdn.example.com/esfiha-carne.jpg", *item.ImageURL)
	require.Equal(t, 2, item.Quantity)
	require.True(t, item.UnitPrice.Equal(decimal.RequireFromString("9.49")))
	require.True(t, item.LineTotal.Equal(decimal.RequireFromString("18.98")))
	require.Equal(t, []string{"Grande"}, item.SelectedOptions["Tamanho"])
}

func TestCreateValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// Empty cart.
	_, err := f.svc.Create(ctx, f.userID, checkoutInput(f.pix))
	requireCode(t, err, pkgerrors.CodeValidation)

	f.fillCart(t)

	blank := checkoutInput(f.pix)
	blank.DeliveryAddress = "   "
	_, err = f.svc.Create(ctx, f.userID, blank)
	requireCode(t, err, pkgerrors.CodeValidation)

	_, err = f.svc.Create(ctx, f.userID, checkoutInput(uuid.New()))
	requireCode(t, err, pkgerrors.CodeValidation)

	f.methods.methods[f.pix].IsActive = false
	_, err = f.svc.Create(ctx, f.userID, checkoutInput(f.pix))
	requireCode(t, err, pkgerrors.CodeValidation)

	// None of the rejected checkouts may have persisted a header.
	var count int64
	require.NoError(t, f.conn.Model(&models.Order{}).Count(&count).Error)
	require.Zero(t, count)
}

func TestCreateRejectsMissingRequiredOption(t *testing.T) {
	f := newFixture(t)
	product := f.fillCart(t)
	ctx := context.Background()

	// The line was added without any selection, but Tamanho is required.
	c := cart.NewCart(f.userID.String())
	c.Lines = append(c.Lines, cart.Line{
		Fingerprint: types.SelectedOptions{}.Fingerprint(product.ID),
		ProductID:   product.ID,
		ProductName: product.Name,
		UnitPrice:   product.BasePrice,
		Quantity:    1,
	})
	f.carts.carts[f.userID.String()] = c

	_, err := f.svc.Create(ctx, f.userID, checkoutInput(f.pix))
	requireCode(t, err, pkgerrors.CodeValidation)

	var count int64
	require.NoError(t, f.conn.Model(&models.Order{}).Count(&count).Error)
	require.Zero(t, count)
}

func TestConfirmPixPayment(t *testing.T) {
	f := newFixture(t)
	f.fillCart(t)
	ctx := context.Background()

	order, err := f.svc.Create(ctx, f.userID, checkoutInput(f.pix))
	require.NoError(t, err)

	paid, err := f.svc.ConfirmPixPayment(ctx, f.userID, order.ID)
	require.NoError(t, err)
	require.Equal(t, enums.PaymentStatusPaid, paid.PaymentStatus)
	require.NotNil(t, paid.PaidAt)

	_, err = f.svc.ConfirmPixPayment(ctx, f.userID, order.ID)
	requireCode(t, err, pkgerrors.CodeStateConflict)
}

func TestConfirmCardPayment(t *testing.T) {
	f := newFixture(t)
	f.fillCart(t)
	ctx := context.Background()

	order, err := f.svc.Create(ctx, f.userID, checkoutInput(f.card))
	require.NoError(t, err)

	secret, err := f.svc.CreatePaymentIntent(ctx, f.userID, order.ID)
	require.NoError(t, err)
	require.Equal(t, "cs_test_secret", secret)
	require.Len(t, f.stripe.created, 1)
	require.EqualValues(t, 2997, *f.stripe.created[0].Amount, "29.97 goes out as centavos")
	require.Equal(t, "brl", *f.stripe.created[0].Currency)

	// Intent still processing, confirmation must not mark paid.
	f.stripe.status = stripe.PaymentIntentStatusProcessing
	_, err = f.svc.ConfirmCardPayment(ctx, f.userID, order.ID)
	requireCode(t, err, pkgerrors.CodePayment)

	loaded, err := f.svc.Get(ctx, order.ID)
	require.NoError(t, err)
	require.Equal(t, enums.PaymentStatusPending, loaded.PaymentStatus)

	f.stripe.status = stripe.PaymentIntentStatusSucceeded
	paid, err := f.svc.ConfirmCardPayment(ctx, f.userID, order.ID)
	require.NoError(t, err)
	require.Equal(t, enums.PaymentStatusPaid, paid.PaymentStatus)
}

func TestCreatePaymentIntentRejectsNonCardOrders(t *testing.T) {
	f := newFixture(t)
	f.fillCart(t)
	ctx := context.Background()

	order, err := f.svc.Create(ctx, f.userID, checkoutInput(f.pix))
	require.NoError(t, err)

	_, err = f.svc.CreatePaymentIntent(ctx, f.userID, order.ID)
	requireCode(t, err, pkgerrors.CodeValidation)
}

func TestConfirmCashPaymentKeepsPending(t *testing.T) {
	f := newFixture(t)
	f.fillCart(t)
	ctx := context.Background()

	order, err := f.svc.Create(ctx, f.userID, checkoutInput(f.cash))
	require.NoError(t, err)

	confirmed, err := f.svc.ConfirmCashPayment(ctx, f.userID, order.ID)
	require.NoError(t, err)
	require.Equal(t, enums.PaymentStatusPending, confirmed.PaymentStatus,
		"cash settles at the door, payment stays pending")
	require.Nil(t, confirmed.PaidAt)
}

func TestFailPayment(t *testing.T) {
	f := newFixture(t)
	f.fillCart(t)
	ctx := context.Background()

	order, err := f.svc.Create(ctx, f.userID, checkoutInput(f.card))
	require.NoError(t, err)

	failed, err := f.svc.FailPayment(ctx, f.userID, order.ID)
	require.NoError(t, err)
	require.Equal(t, enums.PaymentStatusFailed, failed.PaymentStatus)

	_, err = f.svc.FailPayment(ctx, f.userID, order.ID)
	requireCode(t, err, pkgerrors.CodeStateConflict)
}

func TestGetForUserScopesByOwner(t *testing.T) {
	f := newFixture(t)
	f.fillCart(t)
	ctx := context.Background()

	order, err := f.svc.Create(ctx, f.userID, checkoutInput(f.pix))
	require.NoError(t, err)

	_, err = f.svc.GetForUser(ctx, uuid.New(), order.ID)
	requireCode(t, err, pkgerrors.CodeNotFound)
}

func TestUpdateFulfillmentTransitions(t *testing.T) {
	f := newFixture(t)
	f.fillCart(t)
	ctx := context.Background()

	order, err := f.svc.Create(ctx, f.userID, checkoutInput(f.pix))
	require.NoError(t, err)

	// Forward moves may skip stages.
	updated, err := f.svc.UpdateFulfillment(ctx, order.ID, enums.FulfillmentStatusDelivering)
	require.NoError(t, err)
	require.Equal(t, enums.FulfillmentStatusDelivering, updated.FulfillmentStatus)

	_, err = f.svc.UpdateFulfillment(ctx, order.ID, enums.FulfillmentStatusProcessing)
	requireCode(t, err, pkgerrors.CodeStateConflict)

	updated, err = f.svc.UpdateFulfillment(ctx, order.ID, enums.FulfillmentStatusDelivered)
	require.NoError(t, err)
	require.NotNil(t, updated.DeliveredAt)

	// Delivered is terminal, not even cancellation gets through.
	_, err = f.svc.UpdateFulfillment(ctx, order.ID, enums.FulfillmentStatusCancelled)
	requireCode(t, err, pkgerrors.CodeStateConflict)
}

func TestCancelFromAnyNonTerminalState(t *testing.T) {
	f := newFixture(t)
	f.fillCart(t)
	ctx := context.Background()

	order, err := f.svc.Create(ctx, f.userID, checkoutInput(f.pix))
	require.NoError(t, err)

	_, err = f.svc.UpdateFulfillment(ctx, order.ID, enums.FulfillmentStatusDelivering)
	require.NoError(t, err)

	cancelled, err := f.svc.UpdateFulfillment(ctx, order.ID, enums.FulfillmentStatusCancelled)
	require.NoError(t, err)
	require.NotNil(t, cancelled.CancelledAt)

	_, err = f.svc.UpdateFulfillment(ctx, order.ID, enums.FulfillmentStatusProcessing)
	requireCode(t, err, pkgerrors.CodeStateConflict)
}

func TestMarkRefundedRequiresPaidOrder(t *testing.T) {
	f := newFixture(t)
	f.fillCart(t)
	ctx := context.Background()

	order, err := f.svc.Create(ctx, f.userID, checkoutInput(f.pix))
	require.NoError(t, err)

	_, err = f.svc.MarkRefunded(ctx, order.ID)
	requireCode(t, err, pkgerrors.CodeStateConflict)

	_, err = f.svc.ConfirmPixPayment(ctx, f.userID, order.ID)
	require.NoError(t, err)

	refunded, err := f.svc.MarkRefunded(ctx, order.ID)
	require.NoError(t, err)
	require.Equal(t, enums.PaymentStatusRefunded, refunded.PaymentStatus)
}

func TestRetotalRecomputesFromStoredLines(t *testing.T) {
	f := newFixture(t)
	f.fillCart(t)
	ctx := context.Background()

	order, err := f.svc.Create(ctx, f.userID, checkoutInput(f.pix))
	require.NoError(t, err)

	// An admin corrects the line before payment.
	require.NoError(t, f.conn.Model(&models.OrderItem{}).
		Where("order_id = ?", order.ID).
		Updates(map[string]any{"quantity": 1, "line_total": "9.49"}).Error)

	retotaled, err := f.svc.Retotal(ctx, order.ID)
	require.NoError(t, err)
	require.True(t, retotaled.Subtotal.Equal(decimal.RequireFromString("9.49")))
	require.True(t, retotaled.Total.Equal(decimal.RequireFromString("20.48")), "total %s", retotaled.Total)

	_, err = f.svc.ConfirmPixPayment(ctx, f.userID, order.ID)
	require.NoError(t, err)

	_, err = f.svc.Retotal(ctx, order.ID)
	requireCode(t, err, pkgerrors.CodeStateConflict)
}

func TestListFiltersAndPaginates(t *testing.T) {
	f := newFixture(t)
	f.fillCart(t)
	ctx := context.Background()

	first, err := f.svc.Create(ctx, f.userID, checkoutInput(f.pix))
	require.NoError(t, err)
	_, err = f.svc.Create(ctx, f.userID, checkoutInput(f.cash))
	require.NoError(t, err)

	_, err = f.svc.ConfirmPixPayment(ctx, f.userID, first.ID)
	require.NoError(t, err)

	paid := enums.PaymentStatusPaid
	orders, _, err := f.svc.List(ctx, ListFilter{PaymentStatus: &paid})
	require.NoError(t, err)
	require.Len(t, orders, 1)
	require.Equal(t, first.ID, orders[0].ID)

	mine, err := f.svc.ListForUser(ctx, f.userID)
	require.NoError(t, err)
	require.Len(t, mine, 2)
}
