package controllers

import (
	"context"
	"net/http"

	"github.com/angelmondragon/storefront-backend/api/middleware"
	"github.com/angelmondragon/storefront-backend/internal/profiles"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

type ProfileService interface {
	Get(ctx context.Context, identity profiles.Identity) (*profiles.ProfileDTO, error)
	Upsert(ctx context.Context, identity profiles.Identity, input profiles.UpdateInput) (*profiles.ProfileDTO, error)
}

func ProfileGet(svc ProfileService, logg *logger.Logger) http.HandlerFunc {
	if svc == nil {
		return unavailable(logg, "profile")
	}
	return func(w http.ResponseWriter, r *http.Request) {
		profile, err := svc.Get(r.Context(), identityFromRequest(r))
		respond(w, r, logg, http.StatusOK, profile, err)
	}
}

// ProfileUpsert saves the caller's profile. The stored email is always the
// one carried by the access token.
func ProfileUpsert(svc ProfileService, logg *logger.Logger) http.HandlerFunc {
	if svc == nil {
		return unavailable(logg, "profile")
	}
	return withBody(logg, func(w http.ResponseWriter, r *http.Request, input profiles.UpdateInput) {
		profile, err := svc.Upsert(r.Context(), identityFromRequest(r), input)
		respond(w, r, logg, http.StatusOK, profile, err)
	})
}

func identityFromRequest(r *http.Request) profiles.Identity {
	ctx := r.Context()
	return profiles.Identity{
		UserID: middleware.UserUUIDFromContext(ctx),
		Email:  middleware.EmailFromContext(ctx),
	}
}
