package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/tiendadigital/marketplace-api/internal/core/ports"
)

type ProfileHandler struct {
	profiles ports.ProfileService
}

func NewProfileHandler(profiles ports.ProfileService) *ProfileHandler {
	return &ProfileHandler{profiles: profiles}
}

// Me returns the caller's identity as carried by the access token.
//
// @Summary      Current user
// @Tags         profile
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  domain.Principal
// @Failure      401  {object}  map[string]string
// @Failure      403  {object}  map[string]string
// @Router       /user [get]
func (h *ProfileHandler) Me(c echo.Context) error {
	p, err := ctxPrincipal(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, p)
}

// Get returns the stored profile of the caller.
//
// @Summary      Own profile
// @Tags         profile
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  profileResponse
// @Failure      403  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /profile [get]
func (h *ProfileHandler) Get(c echo.Context) error {
	p, err := ctxPrincipal(c)
	if err != nil {
		return err
	}
	user, err := h.profiles.Get(c.Request().Context(), p.ID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, profileResponse{User: user})
}

// List returns every profile. Admin only.
//
// @Summary      All profiles
// @Tags         profile
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  profileListResponse
// @Failure      403  {object}  map[string]string
// @Router       /profile/all [get]
func (h *ProfileHandler) List(c echo.Context) error {
	users, err := h.profiles.List(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, profileListResponse{Users: users})
}

// Update edits the allow-listed fields of a profile. Admin only.
//
// @Summary      Edit a profile
// @Tags         profile
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string                true  "User id"
// @Param        body  body      profileUpdateRequest  true  "Fields to change"
// @Success      200   {object}  profileUpdateResponse
// @Failure      400   {object}  map[string]string
// @Failure      403   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Failure      409   {object}  map[string]string
// @Router       /profile/{id} [put]
func (h *ProfileHandler) Update(c echo.Context) error {
	var req profileUpdateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	user, err := h.profiles.Update(c.Request().Context(), c.Param("id"), ports.ProfileInput{
		Name:      req.Name,
		Username:  req.Username,
		Role:      req.Role,
		Age:       req.Age,
		BirthDate: req.BirthDate,
		Email:     req.Email,
		Career:    req.Career,
		Password:  req.Password,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, profileUpdateResponse{Message: "profile updated", User: user})
}
