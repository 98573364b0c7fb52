package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppError_Error(t *testing.T) {
	e := NotFound("product", "p-1")
	assert.Contains(t, e.Error(), "NOT_FOUND")
	assert.Contains(t, e.Error(), "p-1")

	wrapped := Internal(errors.New("boom"))
	assert.Contains(t, wrapped.Error(), "boom")
}

func TestAppError_Unwrap(t *testing.T) {
	e := NotFound("page", "about")
	assert.True(t, errors.Is(e, ErrNotFound))

	c := CheckoutFailed(errors.New("provider timeout"))
	assert.True(t, errors.Is(c, ErrCheckout))
	assert.Contains(t, c.Err.Error(), "provider timeout")
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"app error not found", NotFound("product", "x"), http.StatusNotFound},
		{"app error already exists", AlreadyExists("product", "slug", "tee"), http.StatusConflict},
		{"app error invalid", InvalidInput("quantity must be positive"), http.StatusBadRequest},
		{"app error unauthorized", Unauthorized("missing token"), http.StatusUnauthorized},
		{"app error forbidden", Forbidden("admin only"), http.StatusForbidden},
		{"app error conflict", Conflict("stale version"), http.StatusConflict},
		{"app error checkout", CheckoutFailed(errors.New("502")), http.StatusBadGateway},
		{"wrapped sentinel", fmt.Errorf("lookup: %w", ErrNotFound), http.StatusNotFound},
		{"sentinel unauthorized", ErrUnauthorized, http.StatusUnauthorized},
		{"sentinel checkout", ErrCheckout, http.StatusBadGateway},
		{"unknown", errors.New("anything"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HTTPStatus(tt.err))
		})
	}
}

func TestCheckoutFailed_GenericMessage(t *testing.T) {
	e := CheckoutFailed(errors.New("stripe: card_declined secret detail"))
	assert.Equal(t, "unable to create checkout", e.Message)
	assert.NotContains(t, e.Message, "stripe")
}
