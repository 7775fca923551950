package utils

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"saffron/globals"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlugify(t *testing.T) {
	cases := map[string]string{
		"Crème Brûlée!":         "creme-brulee",
		"  Quick   Weeknight  ": "quick-weeknight",
		"C++ & Go":              "c-go",
		"!!!":                   "",
	}
	for in, want := range cases {
		assert.Equal(t, want, Slugify(in), in)
	}
}

func TestNormalizeTags(t *testing.T) {
	assert.Equal(t, []string{"quick", "vegan"}, NormalizeTags([]string{"Quick", " ", "vegan", "QUICK"}))
	assert.Equal(t, []string{}, SplitTags(""))
	assert.Equal(t, []string{"a", "b"}, SplitTags("a, b,,A"))
}

func TestParseIntOr(t *testing.T) {
	assert.Equal(t, 7, ParseIntOr(" 7 ", 1))
	assert.Equal(t, 1, ParseIntOr("seven", 1))
	assert.Equal(t, 1, ParseIntOr("", 1))
}

type item struct {
	Name  string `validate:"required"`
	Count int    `validate:"gte=1"`
}

func TestValidateStruct(t *testing.T) {
	require.NoError(t, ValidateStruct(item{Name: "salt", Count: 1}))

	err := ValidateStruct(item{})
	var fe FieldErrors
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, FieldErrors{"name": "is required", "count": "must be >= 1"}, fe)
	assert.Equal(t, "invalid fields: count, name", err.Error())
}

func TestActorFromRequest(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Empty(t, ActorFromRequest(r).UserID)

	ctx := context.WithValue(r.Context(), globals.UserIDKey, "u1")
	ctx = context.WithValue(ctx, globals.RoleKey, []string{globals.RoleEditor})
	a := ActorFromRequest(r.WithContext(ctx))
	assert.Equal(t, "u1", a.UserID)
	assert.Equal(t, []string{"editor"}, a.Roles)
}

func TestRespondWithDetails(t *testing.T) {
	rec := httptest.NewRecorder()
	RespondWithDetails(rec, http.StatusBadRequest, "Invalid recipe", map[string]string{"title": "is required"})
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body ErrorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, ErrorBody{Error: "Invalid recipe", Details: map[string]string{"title": "is required"}}, body)
}
