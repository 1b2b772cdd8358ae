package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/tiendadigital/marketplace-api/internal/api/middleware"
	"github.com/tiendadigital/marketplace-api/internal/core/domain"
)

// ctxPrincipal returns the principal attached by the Authenticate
// middleware. A missing or id-less principal means the route was mounted
// without authentication, so the request is rejected with 401.
func ctxPrincipal(c echo.Context) (domain.Principal, error) {
	p, ok := middleware.PrincipalFrom(c)
	if !ok || p.ID == "" {
		return domain.Principal{}, echo.NewHTTPError(http.StatusUnauthorized, domain.ErrUnauthenticated.Error()).
			SetInternal(domain.ErrUnauthenticated)
	}
	return p, nil
}
