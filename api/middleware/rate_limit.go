package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/angelmondragon/storefront-backend/api/responses"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

type rateLimiterStore interface {
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
}

// RateScope names what a counter is keyed by.
type RateScope string

const (
	ScopeIP    RateScope = "ip"
	ScopeEmail RateScope = "email"
	ScopeCart  RateScope = "cart"
)

// scopeOrder fixes evaluation order: cheap header checks before body reads.
var scopeOrder = []RateScope{ScopeIP, ScopeCart, ScopeEmail}

// RateLimitPolicy is a named fixed window with one limit per scope.
// Zero limits disable a scope.
type RateLimitPolicy struct {
	Name   string
	Window time.Duration
	Limits map[RateScope]int
}

func (p RateLimitPolicy) active() bool {
	if p.Window <= 0 {
		return false
	}
	for _, limit := range p.Limits {
		if limit > 0 {
			return true
		}
	}
	return false
}

func (p RateLimitPolicy) counterKey(scope RateScope, subject string) string {
	name := strings.ToLower(strings.TrimSpace(p.Name))
	if name == "" {
		name = "default"
	}
	return "rl:" + name + ":" + string(scope) + ":" + subject
}

// RateLimit rejects requests once any scoped counter passes its limit
// within the policy window. Email subjects are hashed before use as keys.
func RateLimit(policy RateLimitPolicy, store rateLimiterStore, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if store == nil || !policy.active() {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			for _, scope := range scopeOrder {
				limit := policy.Limits[scope]
				if limit <= 0 {
					continue
				}
				subject, err := rateSubject(r, scope)
				if err != nil {
					responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read request"))
					return
				}
				if subject == "" {
					continue
				}
				allowed, count, err := store.FixedWindowAllow(ctx, policy.counterKey(scope, subject), int64(limit), policy.Window)
				if err != nil {
					responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rate limiting"))
					return
				}
				if !allowed {
					if logg != nil {
						logg.Warn(logg.WithFields(ctx, map[string]any{
							"policy":   policy.Name,
							"scope":    scope,
							"attempts": count,
							"limit":    limit,
						}), "rate_limit.blocked")
					}
					responses.WriteError(ctx, logg, w,
						pkgerrors.New(pkgerrors.CodeRateLimit, "too many requests, try again later").WithRetryAfter(policy.Window))
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

func rateSubject(r *http.Request, scope RateScope) (string, error) {
	switch scope {
	case ScopeIP:
		return clientIP(r), nil
	case ScopeCart:
		return strings.TrimSpace(r.Header.Get(cartSessionHeader)), nil
	case ScopeEmail:
		body, err := io.ReadAll(r.Body)
		if err != nil {
			return "", err
		}
		r.Body = io.NopCloser(bytes.NewReader(body))
		var payload struct {
			Email string `json:"email"`
		}
		if json.Unmarshal(body, &payload) != nil {
			return "", nil
		}
		email := strings.ToLower(strings.TrimSpace(payload.Email))
		if email == "" {
			return "", nil
		}
		sum := sha256.Sum256([]byte(email))
		return hex.EncodeToString(sum[:]), nil
	}
	return "", nil
}

func clientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		first, _, _ := strings.Cut(forwarded, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil && host != "" {
		return host
	}
	return r.RemoteAddr
}
