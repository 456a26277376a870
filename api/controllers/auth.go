package controllers

import (
	"context"
	"net/http"

	"github.com/angelmondragon/storefront-backend/api/middleware"
	"github.com/angelmondragon/storefront-backend/internal/auth"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

// tokenEndpoint serves the register, login and refresh calls, which all take
// a JSON request and answer with a token pair.
func tokenEndpoint[Req any](logg *logger.Logger, status int, issue func(context.Context, Req) (*auth.TokenResponse, error)) http.HandlerFunc {
	return withBody(logg, func(w http.ResponseWriter, r *http.Request, body Req) {
		tokens, err := issue(r.Context(), body)
		respond(w, r, logg, status, tokens, err)
	})
}

// AuthRegister creates an account and signs it in.
func AuthRegister(svc auth.Service, logg *logger.Logger) http.HandlerFunc {
	if svc == nil {
		return unavailable(logg, "auth")
	}
	return tokenEndpoint(logg, http.StatusCreated, svc.Register)
}

func AuthLogin(svc auth.Service, logg *logger.Logger) http.HandlerFunc {
	if svc == nil {
		return unavailable(logg, "auth")
	}
	return tokenEndpoint(logg, http.StatusOK, svc.Login)
}

// AuthRefresh trades a refresh token for a new pair. The old pair stops working.
func AuthRefresh(svc auth.Service, logg *logger.Logger) http.HandlerFunc {
	if svc == nil {
		return unavailable(logg, "auth")
	}
	return tokenEndpoint(logg, http.StatusOK, svc.Refresh)
}

// AuthLogout revokes the session behind the bearer token.
func AuthLogout(svc auth.Service, logg *logger.Logger) http.HandlerFunc {
	if svc == nil {
		return unavailable(logg, "auth")
	}
	return func(w http.ResponseWriter, r *http.Request) {
		err := svc.Logout(r.Context(), middleware.AccessIDFromContext(r.Context()))
		respond(w, r, logg, http.StatusOK, map[string]bool{"loggedOut": true}, err)
	}
}
