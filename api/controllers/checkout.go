package controllers

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/angelmondragon/storefront-backend/api/middleware"
	"github.com/angelmondragon/storefront-backend/internal/checkout"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

type CheckoutService interface {
	Start(ctx context.Context, input checkout.StartInput) (*checkout.Session, error)
}

type checkoutSessionRequest struct {
	Customer checkout.Customer `json:"customer"`
}

// CheckoutSession opens a hosted payment page for the caller's cart. Signed-in
// shoppers have their user id attached to the session metadata.
func CheckoutSession(svc CheckoutService, logg *logger.Logger) http.HandlerFunc {
	if svc == nil {
		return unavailable(logg, "checkout")
	}
	return withBody(logg, func(w http.ResponseWriter, r *http.Request, body checkoutSessionRequest) {
		var userID *uuid.UUID
		if id := middleware.UserUUIDFromContext(r.Context()); id != uuid.Nil {
			userID = &id
		}
		session, err := svc.Start(r.Context(), checkout.StartInput{
			CartSession: slotOf(r),
			Customer:    body.Customer,
			UserID:      userID,
			Origin:      strings.TrimSpace(r.Header.Get("Origin")),
		})
		respond(w, r, logg, http.StatusOK, session, err)
	})
}
