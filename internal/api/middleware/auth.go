package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/tiendadigital/marketplace-api/internal/api/metrics"
	"github.com/tiendadigital/marketplace-api/internal/core/domain"
	"github.com/tiendadigital/marketplace-api/internal/core/ports"
)

const principalKey = "principal"

// Authenticate validates the Bearer access token and attaches the resulting
// domain.Principal to the context.
//
//	no header                 → 401 token not provided
//	not "Bearer <token>"      → 401 malformed token
//	verification fails        → 403 invalid or expired token
func Authenticate(verifier ports.AccessVerifier, log zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw, err := BearerToken(c)
			if err != nil {
				reason := "malformed_header"
				if errors.Is(err, domain.ErrMissingToken) {
					reason = "missing_token"
				}
				metrics.AuthRejectionsTotal.WithLabelValues(reason).Inc()
				return echo.NewHTTPError(http.StatusUnauthorized, err.Error()).SetInternal(err)
			}

			claims, err := verifier.VerifyAccess(raw)
			if err != nil {
				// The cause stays server-side.
				log.Debug().Err(err).Str("path", c.Path()).Msg("access token rejected")
				metrics.AuthRejectionsTotal.WithLabelValues("invalid_token").Inc()
				return echo.NewHTTPError(http.StatusForbidden, domain.ErrInvalidOrExpiredToken.Error()).
					SetInternal(domain.ErrInvalidOrExpiredToken)
			}

			c.Set(principalKey, claims.Principal())
			return next(c)
		}
	}
}

// BearerToken extracts the token from an "Authorization: Bearer <token>"
// header. The scheme match is case-sensitive.
func BearerToken(c echo.Context) (string, error) {
	header := c.Request().Header.Get(echo.HeaderAuthorization)
	if header == "" {
		return "", domain.ErrMissingToken
	}
	// The token is the second space-separated field; anything after it is
	// ignored.
	scheme, rest, ok := strings.Cut(header, " ")
	token, _, _ := strings.Cut(rest, " ")
	if !ok || scheme != "Bearer" || token == "" {
		return "", domain.ErrMalformedHeader
	}
	return token, nil
}

// PrincipalFrom returns the principal attached by Authenticate.
func PrincipalFrom(c echo.Context) (domain.Principal, bool) {
	p, ok := c.Get(principalKey).(domain.Principal)
	return p, ok
}
