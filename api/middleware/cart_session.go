package middleware

import (
	"net/http"
	"regexp"
	"strings"

	"github.com/angelmondragon/storefront-backend/api/responses"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

var cartSessionPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{8,128}$`)

// CartSession requires the X-Cart-Session header and stores the slot id in
// the context. The browser generates the id; the server only checks its shape.
func CartSession(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			slot := strings.TrimSpace(r.Header.Get(cartSessionHeader))
			if !cartSessionPattern.MatchString(slot) {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "X-Cart-Session header is required").
					WithDetails(map[string]any{"header": cartSessionHeader}))
				return
			}
			ctx := WithCartSession(r.Context(), slot)
			if logg != nil {
				ctx = logg.WithCartSession(ctx, slot)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
