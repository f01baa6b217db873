package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/casadaesfiha/storefront-backend/api/middleware"
	cartsvc "github.com/casadaesfiha/storefront-backend/internal/cart"
	"github.com/casadaesfiha/storefront-backend/internal/orders"
	"github.com/casadaesfiha/storefront-backend/pkg/db/models"
	"github.com/casadaesfiha/storefront-backend/pkg/enums"
	pkgerrors "github.com/casadaesfiha/storefront-backend/pkg/errors"
	"github.com/casadaesfiha/storefront-backend/pkg/types"
)

type stubOrdersService struct {
	order        *models.Order
	confirmed    string
	createdInput orders.CreateOrderInput
	failErr      error
}

func (s *stubOrdersService) Create(_ context.Context, _ uuid.UUID, input orders.CreateOrderInput) (*models.Order, error) {
	if s.failErr != nil {
		return nil, s.failErr
	}
	s.createdInput = input
	return s.order, nil
}

func (s *stubOrdersService) GetForUser(_ context.Context, _, _ uuid.UUID) (*models.Order, error) {
	if s.order == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	return s.order, nil
}

func (s *stubOrdersService) ListForUser(context.Context, uuid.UUID) ([]models.Order, error) {
	if s.order == nil {
		return nil, nil
	}
	return []models.Order{*s.order}, nil
}

func (s *stubOrdersService) CreatePaymentIntent(context.Context, uuid.UUID, uuid.UUID) (string, error) {
	return "cs_test_secret", nil
}

func (s *stubOrdersService) ConfirmPixPayment(context.Context, uuid.UUID, uuid.UUID) (*models.Order, error) {
	s.confirmed = "pix"
	return s.order, s.failErr
}

func (s *stubOrdersService) ConfirmCardPayment(context.Context, uuid.UUID, uuid.UUID) (*models.Order, error) {
	s.confirmed = "credit_card"
	return s.order, s.failErr
}

func (s *stubOrdersService) ConfirmCashPayment(context.Context, uuid.UUID, uuid.UUID) (*models.Order, error) {
	s.confirmed = "cash"
	return s.order, s.failErr
}

func (s *stubOrdersService) FailPayment(context.Context, uuid.UUID, uuid.UUID) (*models.Order, error) {
	return s.order, nil
}

func (s *stubOrdersService) Get(context.Context, uuid.UUID) (*models.Order, error) {
	return s.order, nil
}

func (s *stubOrdersService) List(context.Context, orders.ListFilter) ([]models.Order, string, error) {
	return []models.Order{*s.order}, "", nil
}

func (s *stubOrdersService) UpdateFulfillment(context.Context, uuid.UUID, enums.FulfillmentStatus) (*models.Order, error) {
	return s.order, nil
}

func (s *stubOrdersService) MarkRefunded(context.Context, uuid.UUID) (*models.Order, error) {
	return s.order, nil
}

func (s *stubOrdersService) Retotal(context.Context, uuid.UUID) (*models.Order, error) {
	return s.order, nil
}

type stubCartService struct {
	cleared []string
}

func (s *stubCartService) Get(_ context.Context, ownerID string) (*cartsvc.Cart, error) {
	return cartsvc.NewCart(ownerID), nil
}

func (s *stubCartService) AddItem(_ context.Context, ownerID string, _ cartsvc.AddItemInput) (*cartsvc.Cart, error) {
	return cartsvc.NewCart(ownerID), nil
}

func (s *stubCartService) UpdateQuantity(_ context.Context, ownerID, _ string, _ int) (*cartsvc.Cart, error) {
	return cartsvc.NewCart(ownerID), nil
}

func (s *stubCartService) RemoveItem(_ context.Context, ownerID, _ string) (*cartsvc.Cart, error) {
	return cartsvc.NewCart(ownerID), nil
}

func (s *stubCartService) Clear(_ context.Context, ownerID string) error {
	s.cleared = append(s.cleared, ownerID)
	return nil
}

func pendingOrder(method enums.PaymentMethodType) *models.Order {
	return &models.Order{
		ID:                uuid.New(),
		OrderNumber:       1000,
		CustomerName:      "Ana Lima",
		CustomerPhone:     "11 91234-5678",
		DeliveryAddress:   "Rua das Esfihas, 42",
		PaymentMethod:     method,
		PaymentStatus:     enums.PaymentStatusPending,
		FulfillmentStatus: enums.FulfillmentStatusPending,
		Subtotal:          decimal.RequireFromString("18.98"),
		DeliveryFee:       decimal.RequireFromString("10.99"),
		Total:             decimal.RequireFromString("29.97"),
	}
}

func serveConfirm(t *testing.T, svc *stubOrdersService, carts *stubCartService, userID uuid.UUID, orderID uuid.UUID) *httptest.ResponseRecorder {
	t.Helper()

	r := chi.NewRouter()
	r.Post("/api/v1/orders/{orderId}/confirm-payment", ConfirmPayment(svc, carts, nil))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders/"+orderID.String()+"/confirm-payment", strings.NewReader(`{}`))
	req = req.WithContext(middleware.WithUserID(req.Context(), userID.String()))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestConfirmPaymentDispatchesByMethodAndClearsCart(t *testing.T) {
	for _, method := range []enums.PaymentMethodType{
		enums.PaymentMethodTypePix,
		enums.PaymentMethodTypeCreditCard,
		enums.PaymentMethodTypeCash,
	} {
		svc := &stubOrdersService{order: pendingOrder(method)}
		carts := &stubCartService{}
		userID := uuid.New()

		w := serveConfirm(t, svc, carts, userID, svc.order.ID)

		require.Equal(t, http.StatusOK, w.Code, "method %s", method)
		require.Equal(t, string(method), svc.confirmed)
		require.Equal(t, []string{userID.String()}, carts.cleared, "cart must be cleared after %s confirmation", method)
	}
}

func TestConfirmPaymentKeepsCartOnFailure(t *testing.T) {
	svc := &stubOrdersService{
		order:   pendingOrder(enums.PaymentMethodTypeCreditCard),
		failErr: pkgerrors.New(pkgerrors.CodePayment, "payment has not completed, try again"),
	}
	carts := &stubCartService{}

	w := serveConfirm(t, svc, carts, uuid.New(), svc.order.ID)

	require.Equal(t, http.StatusPaymentRequired, w.Code)
	require.Empty(t, carts.cleared, "cart survives a failed confirmation")
}

func TestConfirmPaymentRequiresUserContext(t *testing.T) {
	svc := &stubOrdersService{order: pendingOrder(enums.PaymentMethodTypePix)}

	r := chi.NewRouter()
	r.Post("/api/v1/orders/{orderId}/confirm-payment", ConfirmPayment(svc, &stubCartService{}, nil))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders/"+svc.order.ID.String()+"/confirm-payment", strings.NewReader(`{}`))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCheckoutReturnsCreatedOrderView(t *testing.T) {
	svc := &stubOrdersService{order: pendingOrder(enums.PaymentMethodTypePix)}

	r := chi.NewRouter()
	r.Post("/api/v1/checkout", Checkout(svc, nil))

	payload := `{"customer_name":"Ana Lima","customer_phone":"11 91234-5678","delivery_address":"Rua das Esfihas, 42","payment_method_id":"` + uuid.NewString() + `"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout", strings.NewReader(payload))
	req = req.WithContext(middleware.WithUserID(req.Context(), uuid.NewString()))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code)

	var envelope types.SuccessEnvelope
	require.NoError(t, json.NewDecoder(w.Body).Decode(&envelope))
	view := envelope.Data.(map[string]any)
	require.EqualValues(t, 1000, view["order_number"])
	require.Equal(t, "29.97", view["total"])
	require.Equal(t, "Ana Lima", svc.createdInput.CustomerName)
}

func TestCheckoutValidatesBody(t *testing.T) {
	svc := &stubOrdersService{order: pendingOrder(enums.PaymentMethodTypePix)}

	r := chi.NewRouter()
	r.Post("/api/v1/checkout", Checkout(svc, nil))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout", strings.NewReader(`{"customer_name":"Ana"}`))
	req = req.WithContext(middleware.WithUserID(req.Context(), uuid.NewString()))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusBadRequest, w.Code)
}
