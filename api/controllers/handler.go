package controllers

import (
	"net/http"

	"github.com/angelmondragon/storefront-backend/api/responses"
	"github.com/angelmondragon/storefront-backend/api/validators"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

// unavailable answers every request with a 500 naming the missing service.
func unavailable(logg *logger.Logger, service string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, service+" service unavailable"))
	}
}

// respond writes result with status, or err when it is non-nil.
func respond(w http.ResponseWriter, r *http.Request, logg *logger.Logger, status int, result any, err error) {
	if err != nil {
		responses.WriteError(r.Context(), logg, w, err)
		return
	}
	responses.WriteSuccessStatus(w, status, result)
}

// withBody decodes and validates a Req payload before handing it to next.
func withBody[Req any](logg *logger.Logger, next func(w http.ResponseWriter, r *http.Request, body Req)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body Req
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		next(w, r, body)
	}
}
