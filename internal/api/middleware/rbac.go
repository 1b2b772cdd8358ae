package middleware

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/tiendadigital/marketplace-api/internal/api/metrics"
	"github.com/tiendadigital/marketplace-api/internal/core/domain"
)

// Authorize enforces role-based access control. It must run after
// Authenticate. The wrapped handler never runs when the check fails.
func Authorize(allowedRoles ...domain.Role) echo.MiddlewareFunc {
	allowed := make(map[domain.Role]struct{}, len(allowedRoles))
	for _, r := range allowedRoles {
		allowed[r] = struct{}{}
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if err := checkRole(c, allowed); err != nil {
				return err
			}
			return next(c)
		}
	}
}

// checkRole converts a panic during the check into a 500 so next is never
// reached on an unexpected failure.
func checkRole(c echo.Context, allowed map[domain.Role]struct{}) (err error) {
	defer func() {
		if r := recover(); r != nil {
			metrics.AuthRejectionsTotal.WithLabelValues("authorization_error").Inc()
			err = echo.NewHTTPError(http.StatusInternalServerError, domain.ErrAuthorization.Error()).
				SetInternal(fmt.Errorf("%w: %v", domain.ErrAuthorization, r))
		}
	}()

	p, ok := PrincipalFrom(c)
	if !ok || p.Role == "" {
		metrics.AuthRejectionsTotal.WithLabelValues("unauthenticated").Inc()
		return echo.NewHTTPError(http.StatusForbidden, domain.ErrUnauthenticated.Error()).
			SetInternal(domain.ErrUnauthenticated)
	}
	if _, ok := allowed[p.Role]; !ok {
		metrics.AuthRejectionsTotal.WithLabelValues("insufficient_role").Inc()
		return echo.NewHTTPError(http.StatusForbidden, domain.ErrInsufficientRole.Error()).
			SetInternal(domain.ErrInsufficientRole)
	}
	return nil
}
