package controllers

import (
	"net/http"

	"github.com/casadaesfiha/storefront-backend/api/responses"
	"github.com/casadaesfiha/storefront-backend/api/validators"
	"github.com/casadaesfiha/storefront-backend/internal/paymentmethods"
	pkgerrors "github.com/casadaesfiha/storefront-backend/pkg/errors"
	"github.com/casadaesfiha/storefront-backend/pkg/logger"
)

// AdminListPaymentMethods lists every payment method, active or not.
func AdminListPaymentMethods(svc paymentmethods.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payment methods unavailable"))
			return
		}

		methods, err := svc.ListAll(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newPaymentMethodViews(methods))
	}
}

// AdminUpdatePaymentMethod edits the presentation and availability of a
// seeded payment method. The method type itself never changes.
func AdminUpdatePaymentMethod(svc paymentmethods.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payment methods unavailable"))
			return
		}

		methodID, err := validators.ParseUUIDParam(r, "methodId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body paymentmethods.UpdateInput
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		method, err := svc.Update(r.Context(), methodID, body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newPaymentMethodView(*method))
	}
}
