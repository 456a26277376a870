package controllers

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/angelmondragon/storefront-backend/api/middleware"
	"github.com/angelmondragon/storefront-backend/internal/orders"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

// OrderHistoryService only ever returns orders owned by userID.
type OrderHistoryService interface {
	ListForUser(ctx context.Context, userID uuid.UUID) ([]orders.OrderView, error)
	GetForUser(ctx context.Context, userID, orderID uuid.UUID) (*orders.OrderView, error)
}

// OrderList returns the caller's orders, newest first.
func OrderList(svc OrderHistoryService, logg *logger.Logger) http.HandlerFunc {
	if svc == nil {
		return unavailable(logg, "orders")
	}
	return func(w http.ResponseWriter, r *http.Request) {
		owner := middleware.UserUUIDFromContext(r.Context())
		list, err := svc.ListForUser(r.Context(), owner)
		respond(w, r, logg, http.StatusOK, list, err)
	}
}

// OrderDetail answers 404 for orders that exist but belong to someone else.
func OrderDetail(svc OrderHistoryService, logg *logger.Logger) http.HandlerFunc {
	if svc == nil {
		return unavailable(logg, "orders")
	}
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := parseUUIDParam(r, "orderId")
		if err != nil {
			respond(w, r, logg, 0, nil, err)
			return
		}
		order, err := svc.GetForUser(r.Context(), middleware.UserUUIDFromContext(r.Context()), orderID)
		respond(w, r, logg, http.StatusOK, order, err)
	}
}
