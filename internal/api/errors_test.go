package api

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "string detail",
			err:  newHTTPError(http.MethodGet, "/wishlists/1", 404, []byte(`{"detail":"Wishlist not found"}`)),
			want: "Wishlist not found",
		},
		{
			name: "validation list detail",
			err:  newHTTPError(http.MethodPost, "/items/", 422, []byte(`{"detail":[{"loc":["body","title"],"msg":"field required"},{"loc":["body","price"],"msg":"must be positive"}]}`)),
			want: "field required; must be positive",
		},
		{
			name: "message field",
			err:  newHTTPError(http.MethodPost, "/auth/login", 400, []byte(`{"message":"Bad input"}`)),
			want: "Bad input",
		},
		{
			name: "errors map first sorted field",
			err:  newHTTPError(http.MethodPost, "/auth/register", 400, []byte(`{"errors":{"password":["too short"],"email":["taken"]}}`)),
			want: "taken",
		},
		{
			name: "no envelope",
			err:  newHTTPError(http.MethodGet, "/", 500, []byte(`<html>oops</html>`)),
			want: MessageGeneric,
		},
		{
			name: "network",
			err:  newNetworkError(http.MethodGet, "/", errors.New("connection refused")),
			want: MessageGeneric,
		},
		{
			name: "wrapped api error",
			err:  fmt.Errorf("load: %w", newHTTPError(http.MethodGet, "/", 403, []byte(`{"detail":"Forbidden"}`))),
			want: "Forbidden",
		},
		{
			name: "foreign error",
			err:  errors.New("boom"),
			want: MessageUnknown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ErrorMessage(tt.err))
		})
	}
}

func TestDetailOr(t *testing.T) {
	withDetail := newHTTPError(http.MethodPost, "/wishlists/", 400, []byte(`{"detail":"Title taken"}`))
	withoutDetail := newHTTPError(http.MethodPost, "/wishlists/", 500, nil)

	assert.Equal(t, "Title taken", DetailOr(withDetail, "Ошибка создания списка"))
	assert.Equal(t, "Ошибка создания списка", DetailOr(withoutDetail, "Ошибка создания списка"))
	assert.Equal(t, "fallback", DetailOr(errors.New("x"), "fallback"))
}

func TestErrorTypeForStatus(t *testing.T) {
	assert.Equal(t, "auth", newHTTPError("GET", "/", 401, nil).Type)
	assert.Equal(t, "notfound", newHTTPError("GET", "/", 404, nil).Type)
	assert.Equal(t, "validation", newHTTPError("GET", "/", 422, nil).Type)
	assert.Equal(t, "server", newHTTPError("GET", "/", 503, nil).Type)
	assert.True(t, IsNotFound(newHTTPError("GET", "/", 404, nil)))
}
