package validators

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

func TestQueryReadsTypedValues(t *testing.T) {
	q := NewQuery(httptest.NewRequest("GET", "/products?minPrice=19.5&includeTax=TRUE&category=+Tops+", nil))

	min := q.Money("minPrice")
	require.NotNil(t, min)
	require.Equal(t, "19.5", min.String())
	require.Nil(t, q.Money("maxPrice"))
	require.True(t, q.Bool("includeTax"))
	require.False(t, q.Bool("absent"))
	require.Equal(t, "Tops", q.String("category", 100))
	require.NoError(t, q.Err())
}

func TestQueryCollectsEveryProblem(t *testing.T) {
	q := NewQuery(httptest.NewRequest("GET", "/products?minPrice=-1&maxPrice=abc&includeTax=maybe", nil))
	q.Money("minPrice")
	q.Money("maxPrice")
	q.Bool("includeTax")

	err := q.Err()
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	require.Equal(t, pkgerrors.CodeValidation, typed.Code())
	require.Equal(t, map[string]string{
		"minPrice":   "must not be negative",
		"maxPrice":   "must be a number",
		"includeTax": "must be true or false",
	}, typed.Details())
}
