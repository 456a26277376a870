package validators

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

// Query reads optional typed values from the URL query. Malformed values are
// collected and reported together by Err.
type Query struct {
	values   url.Values
	problems map[string]string
}

func NewQuery(r *http.Request) *Query {
	return &Query{values: r.URL.Query()}
}

func (q *Query) raw(key string) string {
	return strings.TrimSpace(q.values.Get(key))
}

func (q *Query) fail(key, problem string) {
	if q.problems == nil {
		q.problems = make(map[string]string)
	}
	q.problems[key] = problem
}

// String returns the sanitized value cut to maxLen runes.
func (q *Query) String(key string, maxLen int) string {
	return SanitizeString(q.values.Get(key), maxLen)
}

// Bool accepts the strconv spellings; a missing value is false.
func (q *Query) Bool(key string) bool {
	raw := q.raw(key)
	if raw == "" {
		return false
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		q.fail(key, "must be true or false")
		return false
	}
	return v
}

// Money returns nil when key is absent and rejects negative amounts.
func (q *Query) Money(key string) *decimal.Decimal {
	raw := q.raw(key)
	if raw == "" {
		return nil
	}
	v, err := decimal.NewFromString(raw)
	switch {
	case err != nil:
		q.fail(key, "must be a number")
		return nil
	case v.IsNegative():
		q.fail(key, "must not be negative")
		return nil
	}
	return &v
}

// Err returns a validation error listing every malformed parameter.
func (q *Query) Err() error {
	if len(q.problems) == 0 {
		return nil
	}
	return pkgerrors.New(pkgerrors.CodeValidation, "invalid query parameters").WithDetails(q.problems)
}
