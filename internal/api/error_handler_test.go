package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/tiendadigital/marketplace-api/internal/core/domain"
)

func renderError(t *testing.T, err error) (int, string) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	NewHTTPErrorHandler(zerolog.Nop())(err, c)

	var body errorResponse
	if jerr := json.Unmarshal(rec.Body.Bytes(), &body); jerr != nil {
		t.Fatalf("decode body %q: %v", rec.Body.String(), jerr)
	}
	return rec.Code, body.Error
}

func TestHTTPErrorHandler_DomainMapping(t *testing.T) {
	cases := []struct {
		err  error
		code int
		msg  string
	}{
		{domain.ErrInvalidCredentials, http.StatusUnauthorized, "Invalid username or password"},
		{domain.ErrMissingRefreshToken, http.StatusUnauthorized, "refresh token not provided"},
		{fmt.Errorf("refresh: %w", domain.ErrUnknownRefreshToken), http.StatusForbidden, "unknown refresh token"},
		{domain.ErrInvalidRefreshToken, http.StatusForbidden, "invalid refresh token"},
		{domain.ErrUserNotFound, http.StatusNotFound, "user not found"},
		{domain.ErrUserExists, http.StatusConflict, "username already exists"},
		{fmt.Errorf("%w: name cannot be empty", domain.ErrInvalidInput), http.StatusBadRequest, "invalid input: name cannot be empty"},
		{fmt.Errorf("%w: write timeout", domain.ErrTokenPersistence), http.StatusInternalServerError, "could not persist session"},
		{fmt.Errorf("login: %w: dial tcp", domain.ErrStoreUnavailable), http.StatusServiceUnavailable, "service temporarily unavailable"},
		{errors.New("something exploded"), http.StatusInternalServerError, "internal server error"},
	}

	for _, tc := range cases {
		t.Run(tc.err.Error(), func(t *testing.T) {
			code, msg := renderError(t, tc.err)
			if code != tc.code || msg != tc.msg {
				t.Fatalf("expected %d %q, got %d %q", tc.code, tc.msg, code, msg)
			}
		})
	}
}

func TestHTTPErrorHandler_EchoError(t *testing.T) {
	err := echo.NewHTTPError(http.StatusForbidden, "access denied: insufficient permissions").SetInternal(domain.ErrInsufficientRole)
	code, msg := renderError(t, err)
	if code != http.StatusForbidden || msg != "access denied: insufficient permissions" {
		t.Fatalf("unexpected %d %q", code, msg)
	}
}

func TestHTTPErrorHandler_NoInternalLeak(t *testing.T) {
	code, msg := renderError(t, fmt.Errorf("find user: %w: mongodb://admin:hunter2@db", domain.ErrStoreUnavailable))
	if code != http.StatusServiceUnavailable {
		t.Fatalf("unexpected code %d", code)
	}
	if msg != "service temporarily unavailable" {
		t.Fatalf("internal detail leaked: %q", msg)
	}
}
