package handler

import (
	"github.com/tiendadigital/marketplace-api/internal/core/domain"
)

type signupRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
	Name     string `json:"name" validate:"required"`
	Role     string `json:"role,omitempty"`
}

type signupUser struct {
	ID       string      `json:"id"`
	Username string      `json:"username"`
	Name     string      `json:"name"`
	Role     domain.Role `json:"role"`
}

type signupResponse struct {
	Message string     `json:"message"`
	User    signupUser `json:"user"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// profileUpdateRequest lists the only fields PUT /profile/:id accepts.
type profileUpdateRequest struct {
	Name      *string `json:"name,omitempty"`
	Username  *string `json:"username,omitempty"`
	Role      *string `json:"role,omitempty" validate:"omitempty,oneof=administrador colaborador"`
	Age       *int    `json:"edad,omitempty" validate:"omitempty,gte=0"`
	BirthDate *string `json:"fechaNacimiento,omitempty"`
	Email     *string `json:"correo,omitempty" validate:"omitempty,email"`
	Career    *string `json:"carrera,omitempty"`
	Password  *string `json:"password,omitempty"`
}

type profileResponse struct {
	User *domain.User `json:"user"`
}

type profileListResponse struct {
	Users []*domain.User `json:"users"`
}

type profileUpdateResponse struct {
	Message string       `json:"message"`
	User    *domain.User `json:"user"`
}
