package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/tiendadigital/marketplace-api/internal/core/domain"
	"github.com/tiendadigital/marketplace-api/internal/core/ports"
)

type stubProfileService struct {
	getFn    func(ctx context.Context, id string) (*domain.User, error)
	listFn   func(ctx context.Context) ([]*domain.User, error)
	updateFn func(ctx context.Context, id string, in ports.ProfileInput) (*domain.User, error)
}

func (s *stubProfileService) Get(ctx context.Context, id string) (*domain.User, error) {
	return s.getFn(ctx, id)
}

func (s *stubProfileService) List(ctx context.Context) ([]*domain.User, error) {
	return s.listFn(ctx)
}

func (s *stubProfileService) Update(ctx context.Context, id string, in ports.ProfileInput) (*domain.User, error) {
	return s.updateFn(ctx, id, in)
}

func withPrincipal(c echo.Context, p domain.Principal) {
	// Same key the Authenticate middleware writes.
	c.Set("principal", p)
}

func TestProfileHandler_Get(t *testing.T) {
	stub := &stubProfileService{
		getFn: func(_ context.Context, id string) (*domain.User, error) {
			if id != "u1" {
				t.Fatalf("unexpected id %q", id)
			}
			return &domain.User{ID: "u1", Username: "alice", PasswordHash: "secret-hash"}, nil
		},
	}
	c, rec := newJSONContext(http.MethodGet, "/api/profile", "")
	withPrincipal(c, domain.Principal{ID: "u1", Role: domain.RoleCollaborator})

	if err := NewProfileHandler(stub).Get(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	var resp map[string]map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp["user"]["username"] != "alice" {
		t.Fatalf("unexpected body: %s", rec.Body.String())
	}
	for _, k := range []string{"password", "PasswordHash", "passwordHash"} {
		if _, ok := resp["user"][k]; ok {
			t.Fatalf("password hash leaked under %q", k)
		}
	}
}

func TestProfileHandler_Get_NoPrincipal(t *testing.T) {
	c, _ := newJSONContext(http.MethodGet, "/api/profile", "")
	err := NewProfileHandler(&stubProfileService{}).Get(c)

	var he *echo.HTTPError
	if !errors.As(err, &he) || he.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %v", err)
	}
}

func TestProfileHandler_Me(t *testing.T) {
	c, rec := newJSONContext(http.MethodGet, "/api/user", "")
	withPrincipal(c, domain.Principal{ID: "u1", Role: domain.RoleAdmin, Username: "alice"})

	if err := NewProfileHandler(&stubProfileService{}).Me(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	var p domain.Principal
	_ = json.Unmarshal(rec.Body.Bytes(), &p)
	if p.ID != "u1" || p.Role != domain.RoleAdmin || p.Username != "alice" {
		t.Fatalf("unexpected principal: %+v", p)
	}
}

func TestProfileHandler_Update_AllowListedFields(t *testing.T) {
	stub := &stubProfileService{
		updateFn: func(_ context.Context, id string, in ports.ProfileInput) (*domain.User, error) {
			if id != "u2" {
				t.Fatalf("unexpected id %q", id)
			}
			if in.Name == nil || *in.Name != "Bob B" || in.Age == nil || *in.Age != 22 {
				t.Fatalf("unexpected input: %+v", in)
			}
			if in.Password != nil {
				t.Fatal("password was not in the payload")
			}
			return &domain.User{ID: id, Name: *in.Name}, nil
		},
	}
	c, rec := newJSONContext(http.MethodPut, "/api/profile/u2", `{"name":"Bob B","edad":22,"isAdmin":true}`)
	c.SetParamNames("id")
	c.SetParamValues("u2")

	if err := NewProfileHandler(stub).Update(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestProfileHandler_Update_Validation(t *testing.T) {
	for name, body := range map[string]string{
		"role":  `{"role":"superuser"}`,
		"email": `{"correo":"not-an-email"}`,
		"age":   `{"edad":-1}`,
	} {
		t.Run(name, func(t *testing.T) {
			c, _ := newJSONContext(http.MethodPut, "/api/profile/u2", body)
			c.SetParamNames("id")
			c.SetParamValues("u2")

			err := NewProfileHandler(&stubProfileService{}).Update(c)
			if !errors.Is(err, domain.ErrInvalidInput) {
				t.Fatalf("expected ErrInvalidInput, got %v", err)
			}
		})
	}
}

func TestProfileHandler_List(t *testing.T) {
	stub := &stubProfileService{
		listFn: func(context.Context) ([]*domain.User, error) {
			return []*domain.User{{ID: "u1"}, {ID: "u2"}}, nil
		},
	}
	c, rec := newJSONContext(http.MethodGet, "/api/profile/all", "")

	if err := NewProfileHandler(stub).List(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	var resp struct {
		Users []domain.User `json:"users"`
	}
	_ = json.Unmarshal(rec.Body.Bytes(), &resp)
	if len(resp.Users) != 2 {
		t.Fatalf("expected 2 users, got %d", len(resp.Users))
	}
}
