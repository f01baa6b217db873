package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/casadaesfiha/storefront-backend/api/middleware"
	"github.com/casadaesfiha/storefront-backend/api/responses"
	"github.com/casadaesfiha/storefront-backend/api/validators"
	"github.com/casadaesfiha/storefront-backend/internal/cart"
	"github.com/casadaesfiha/storefront-backend/internal/orders"
	"github.com/casadaesfiha/storefront-backend/pkg/db/models"
	"github.com/casadaesfiha/storefront-backend/pkg/enums"
	pkgerrors "github.com/casadaesfiha/storefront-backend/pkg/errors"
	"github.com/casadaesfiha/storefront-backend/pkg/logger"
)

type paymentIntentResponse struct {
	ClientSecret string `json:"client_secret"`
}

// Checkout materializes the caller's cart into an order. The cart survives
// until a payment confirmation succeeds, so a failed payment can retry
// without rebuilding it.
func Checkout(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := authedUserID(r, svc)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body orders.CreateOrderInput
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.Create(r.Context(), userID, body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, newOrderView(order))
	}
}

// CheckoutPaymentIntent creates a card payment intent for a pending order.
func CheckoutPaymentIntent(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := authedUserID(r, svc)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		orderID, err := validators.ParseUUIDParam(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		clientSecret, err := svc.CreatePaymentIntent(r.Context(), userID, orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, paymentIntentResponse{ClientSecret: clientSecret})
	}
}

// ConfirmPayment runs the confirmation flow matching the order's payment
// method. On success the cart that produced the order is cleared.
func ConfirmPayment(svc orders.Service, carts cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := authedUserID(r, svc)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		orderID, err := validators.ParseUUIDParam(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.GetForUser(r.Context(), userID, orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var confirmed *models.Order
		switch order.PaymentMethod {
		case enums.PaymentMethodTypePix:
			confirmed, err = svc.ConfirmPixPayment(r.Context(), userID, orderID)
		case enums.PaymentMethodTypeCreditCard:
			confirmed, err = svc.ConfirmCardPayment(r.Context(), userID, orderID)
		case enums.PaymentMethodTypeCash:
			confirmed, err = svc.ConfirmCashPayment(r.Context(), userID, orderID)
		default:
			err = pkgerrors.New(pkgerrors.CodePayment, "unsupported payment method")
		}
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if carts != nil {
			if clearErr := carts.Clear(r.Context(), userID.String()); clearErr != nil && logg != nil {
				ctx := logg.WithOrderID(r.Context(), orderID.String())
				logg.Warn(ctx, "failed to clear cart after payment confirmation")
			}
		}

		responses.WriteSuccess(w, newOrderView(confirmed))
	}
}

// PaymentFailed records a failed payment attempt on a pending order.
func PaymentFailed(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := authedUserID(r, svc)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		orderID, err := validators.ParseUUIDParam(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.FailPayment(r.Context(), userID, orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newOrderView(order))
	}
}

func authedUserID(r *http.Request, svc orders.Service) (uuid.UUID, error) {
	if svc == nil {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable")
	}
	raw := middleware.UserIDFromContext(r.Context())
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing user context")
	}
	userID, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid user context")
	}
	return userID, nil
}
