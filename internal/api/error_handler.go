package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/tiendadigital/marketplace-api/internal/core/domain"
)

// errorResponse is the canonical error envelope for all API errors.
type errorResponse struct {
	Error string `json:"error"`
}

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that:
//   - Maps known domain errors to their appropriate HTTP status codes.
//   - Logs unexpected errors internally without leaking details to the client.
//   - Renders a consistent JSON envelope: {"error": "<message>"}.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code, msg := resolveError(err, log, c)
		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(code)
			return
		}
		_ = c.JSON(code, errorResponse{Error: msg})
	}
}

func resolveError(err error, log zerolog.Logger, c echo.Context) (int, string) {
	// Echo's own errors (bind failures, 404 from router, middleware rejections).
	var he *echo.HTTPError
	if errors.As(err, &he) {
		if he.Internal != nil && he.Code >= http.StatusInternalServerError {
			log.Error().Err(he.Internal).
				Str("method", c.Request().Method).
				Str("path", c.Path()).
				Msg("request failed")
		}
		return he.Code, fmt.Sprintf("%v", he.Message)
	}

	// Known domain errors → deterministic HTTP codes.
	switch {
	case errors.Is(err, domain.ErrInvalidCredentials):
		return http.StatusUnauthorized, "Invalid username or password"
	case errors.Is(err, domain.ErrMissingToken),
		errors.Is(err, domain.ErrMalformedHeader),
		errors.Is(err, domain.ErrMissingRefreshToken):
		return http.StatusUnauthorized, rootMessage(err)
	case errors.Is(err, domain.ErrInvalidOrExpiredToken),
		errors.Is(err, domain.ErrUnknownRefreshToken),
		errors.Is(err, domain.ErrInvalidRefreshToken),
		errors.Is(err, domain.ErrUnauthenticated),
		errors.Is(err, domain.ErrInsufficientRole):
		return http.StatusForbidden, rootMessage(err)
	case errors.Is(err, domain.ErrUserNotFound):
		return http.StatusNotFound, domain.ErrUserNotFound.Error()
	case errors.Is(err, domain.ErrUserExists):
		return http.StatusConflict, domain.ErrUserExists.Error()
	case errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, domain.ErrStoreUnavailable):
		log.Error().Err(err).Str("method", c.Request().Method).Str("path", c.Path()).Msg("store unavailable")
		return http.StatusServiceUnavailable, "service temporarily unavailable"
	case errors.Is(err, domain.ErrTokenPersistence):
		log.Error().Err(err).Str("path", c.Path()).Msg("session not persisted")
		return http.StatusInternalServerError, domain.ErrTokenPersistence.Error()
	case errors.Is(err, domain.ErrAuthorization):
		log.Error().Err(err).Str("path", c.Path()).Msg("authorization check failed")
		return http.StatusInternalServerError, domain.ErrAuthorization.Error()
	}

	// Unexpected error: log the real cause, return a generic message.
	log.Error().
		Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Msg("unhandled error")

	return http.StatusInternalServerError, "internal server error"
}

// rootMessage returns the text of the client-facing sentinel in err's chain.
func rootMessage(err error) string {
	for _, s := range []error{
		domain.ErrMissingToken,
		domain.ErrMalformedHeader,
		domain.ErrMissingRefreshToken,
		domain.ErrInvalidOrExpiredToken,
		domain.ErrUnknownRefreshToken,
		domain.ErrInvalidRefreshToken,
		domain.ErrUnauthenticated,
		domain.ErrInsufficientRole,
	} {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return err.Error()
}
