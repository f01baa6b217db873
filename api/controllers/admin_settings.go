package controllers

import (
	"net/http"

	"github.com/casadaesfiha/storefront-backend/api/responses"
	"github.com/casadaesfiha/storefront-backend/api/validators"
	"github.com/casadaesfiha/storefront-backend/internal/settings"
	pkgerrors "github.com/casadaesfiha/storefront-backend/pkg/errors"
	"github.com/casadaesfiha/storefront-backend/pkg/logger"
)

func AdminGetSettings(holder *settings.Holder, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if holder == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "settings unavailable"))
			return
		}

		cfg, err := holder.Get(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, cfg)
	}
}

// AdminUpdateSettings merges the supplied fields into the store
// configuration and swaps the cached copy.
func AdminUpdateSettings(holder *settings.Holder, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if holder == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "settings unavailable"))
			return
		}

		var body settings.UpdateInput
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		cfg, err := holder.Update(r.Context(), body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, cfg)
	}
}

// AdminRefreshSettings re-reads the configuration from the backing store,
// picking up out-of-band edits.
func AdminRefreshSettings(holder *settings.Holder, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if holder == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "settings unavailable"))
			return
		}

		cfg, err := holder.Refresh(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, cfg)
	}
}
