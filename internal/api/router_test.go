package api

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/steinfletcher/apitest"
	jsonpath "github.com/steinfletcher/apitest-jsonpath"
	"golang.org/x/crypto/bcrypt"

	"github.com/tiendadigital/marketplace-api/internal/api/handler"
	"github.com/tiendadigital/marketplace-api/internal/core/domain"
	"github.com/tiendadigital/marketplace-api/internal/core/service"
)

// ---------------------------------------------------------------------------
// In-memory adapters
// ---------------------------------------------------------------------------

type memUsers struct {
	mu    sync.Mutex
	byID  map[string]domain.User
	seq   int
	calls map[string]int
}

func newMemUsers() *memUsers {
	return &memUsers{byID: map[string]domain.User{}, calls: map[string]int{}}
}

func (m *memUsers) Create(_ context.Context, u *domain.User) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.byID {
		if existing.Username == u.Username {
			return nil, domain.ErrUserExists
		}
	}
	m.seq++
	c := *u
	c.ID = fmt.Sprintf("%024x", m.seq)
	m.byID[c.ID] = c
	return &c, nil
}

func (m *memUsers) FindByUsername(_ context.Context, username string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.byID {
		if u.Username == username {
			return &u, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (m *memUsers) FindByID(_ context.Context, id string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byID[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return &u, nil
}

func (m *memUsers) List(_ context.Context) ([]*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*domain.User, 0, len(m.byID))
	for _, u := range m.byID {
		u := u
		out = append(out, &u)
	}
	return out, nil
}

func (m *memUsers) Update(_ context.Context, id string, upd domain.ProfileUpdate) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls["update"]++
	u, ok := m.byID[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	if upd.Name != nil {
		u.Name = *upd.Name
	}
	if upd.Role != nil {
		u.Role = *upd.Role
	}
	if upd.PasswordHash != nil {
		u.PasswordHash = *upd.PasswordHash
	}
	m.byID[id] = u
	return &u, nil
}

func (m *memUsers) updates() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls["update"]
}

type memTokens struct {
	mu      sync.Mutex
	records map[string]domain.RefreshTokenRecord
}

func (m *memTokens) Insert(_ context.Context, rec *domain.RefreshTokenRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[rec.Token] = *rec
	return nil
}

func (m *memTokens) FindByToken(_ context.Context, token string) (*domain.RefreshTokenRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[token]
	if !ok {
		return nil, domain.ErrUnknownRefreshToken
	}
	return &rec, nil
}

func (m *memTokens) Delete(_ context.Context, token string) (*domain.RefreshTokenRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[token]
	if !ok {
		return nil, domain.ErrUnknownRefreshToken
	}
	delete(m.records, token)
	return &rec, nil
}

type testServer struct {
	handler http.Handler
	users   *memUsers
	tokens  *memTokens
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	codec, err := service.NewTokenCodec(service.TokenConfig{
		AccessSecret:      "router-access-secret",
		AccessExpiration:  time.Hour,
		RefreshSecret:     "router-refresh-secret",
		RefreshExpiration: 7 * 24 * time.Hour,
	})
	if err != nil {
		t.Fatalf("NewTokenCodec: %v", err)
	}

	ts := &testServer{
		users:  newMemUsers(),
		tokens: &memTokens{records: map[string]domain.RefreshTokenRecord{}},
	}
	ts.handler = NewRouter(Dependencies{
		Users:     ts.users,
		Tokens:    ts.tokens,
		Codec:     codec,
		Hasher:    service.NewPasswordHasher(bcrypt.MinCost),
		Readiness: map[string]handler.Pinger{},
		Log:       zerolog.Nop(),
	})
	return ts
}

type sessionBody struct {
	AccessToken  string          `json:"accessToken"`
	RefreshToken string          `json:"refreshToken"`
	User         domain.Identity `json:"user"`
}

func (ts *testServer) signup(t *testing.T, username, password, name, role string) {
	t.Helper()
	apitest.New().
		Handler(ts.handler).
		Post("/api/signup").
		JSON(fmt.Sprintf(`{"username":%q,"password":%q,"name":%q,"role":%q}`, username, password, name, role)).
		Expect(t).
		Status(http.StatusCreated).
		End()
}

func (ts *testServer) login(t *testing.T, username, password string) sessionBody {
	t.Helper()
	var sess sessionBody
	apitest.New().
		Handler(ts.handler).
		Post("/api/login").
		JSON(fmt.Sprintf(`{"username":%q,"password":%q}`, username, password)).
		Expect(t).
		Status(http.StatusOK).
		End().
		JSON(&sess)
	return sess
}

// ---------------------------------------------------------------------------
// Flows
// ---------------------------------------------------------------------------

func TestRouter_SignupLoginScenario(t *testing.T) {
	ts := newTestServer(t)

	apitest.New().
		Handler(ts.handler).
		Post("/api/signup").
		JSON(`{"username":"alice","password":"s3cret!","name":"Alice A","role":"administrador"}`).
		Expect(t).
		Status(http.StatusCreated).
		Assert(jsonpath.Equal("$.user.username", "alice")).
		Assert(jsonpath.Equal("$.user.role", "administrador")).
		Assert(jsonpath.Present("$.user.id")).
		Assert(jsonpath.NotPresent("$.user.password")).
		End()

	apitest.New().
		Handler(ts.handler).
		Post("/api/login").
		JSON(`{"username":"alice","password":"s3cret!"}`).
		Expect(t).
		Status(http.StatusOK).
		Assert(jsonpath.Equal("$.user.role", "administrador")).
		Assert(jsonpath.Present("$.accessToken")).
		Assert(jsonpath.Present("$.refreshToken")).
		End()

	apitest.New().
		Handler(ts.handler).
		Post("/api/login").
		JSON(`{"username":"alice","password":"wrong"}`).
		Expect(t).
		Status(http.StatusUnauthorized).
		Body(`{"error":"Invalid username or password"}`).
		End()

	apitest.New().
		Handler(ts.handler).
		Post("/api/login").
		JSON(`{"username":"nobody","password":"s3cret!"}`).
		Expect(t).
		Status(http.StatusUnauthorized).
		Body(`{"error":"Invalid username or password"}`).
		End()
}

func TestRouter_SignupValidation(t *testing.T) {
	ts := newTestServer(t)

	apitest.New().
		Handler(ts.handler).
		Post("/api/signup").
		JSON(`{"username":"bob","name":"Bob"}`).
		Expect(t).
		Status(http.StatusBadRequest).
		Assert(jsonpath.Contains("$.error", "password is required")).
		End()

	ts.signup(t, "bob", "pw", "Bob", "superuser")
	sess := ts.login(t, "bob", "pw")
	if sess.User.Role != domain.RoleCollaborator {
		t.Fatalf("invalid role must default to colaborador, got %s", sess.User.Role)
	}

	apitest.New().
		Handler(ts.handler).
		Post("/api/signup").
		JSON(`{"username":"bob","password":"pw2","name":"Bob 2"}`).
		Expect(t).
		Status(http.StatusConflict).
		End()
}

func TestRouter_RefreshRoundTrip(t *testing.T) {
	ts := newTestServer(t)
	ts.signup(t, "carol", "pw", "Carol", "colaborador")
	sess := ts.login(t, "carol", "pw")

	var refreshed sessionBody
	apitest.New().
		Handler(ts.handler).
		Post("/api/refresh-token").
		JSON(fmt.Sprintf(`{"refreshToken":%q}`, sess.RefreshToken)).
		Expect(t).
		Status(http.StatusOK).
		Assert(jsonpath.Equal("$.refreshToken", sess.RefreshToken)).
		Assert(jsonpath.Equal("$.user.username", "carol")).
		End().
		JSON(&refreshed)

	apitest.New().
		Handler(ts.handler).
		Get("/api/profile").
		Header("Authorization", "Bearer "+refreshed.AccessToken).
		Expect(t).
		Status(http.StatusOK).
		Assert(jsonpath.Equal("$.user.username", "carol")).
		End()
}

func TestRouter_RefreshFailures(t *testing.T) {
	ts := newTestServer(t)
	ts.signup(t, "dave", "pw", "Dave", "")
	sess := ts.login(t, "dave", "pw")

	apitest.New().
		Handler(ts.handler).
		Post("/api/refresh-token").
		JSON(`{}`).
		Expect(t).
		Status(http.StatusUnauthorized).
		End()

	apitest.New().
		Handler(ts.handler).
		Post("/api/refresh-token").
		JSON(`{"refreshToken":"never-issued"}`).
		Expect(t).
		Status(http.StatusForbidden).
		Body(`{"error":"unknown refresh token"}`).
		End()

	// The access token is validly signed, but it was never stored as a
	// refresh token.
	apitest.New().
		Handler(ts.handler).
		Post("/api/refresh-token").
		JSON(fmt.Sprintf(`{"refreshToken":%q}`, sess.AccessToken)).
		Expect(t).
		Status(http.StatusForbidden).
		End()

	ts.tokens.records["tampered"] = domain.RefreshTokenRecord{Token: "tampered", UserID: sess.User.ID}
	apitest.New().
		Handler(ts.handler).
		Post("/api/refresh-token").
		JSON(`{"refreshToken":"tampered"}`).
		Expect(t).
		Status(http.StatusForbidden).
		Body(`{"error":"invalid refresh token"}`).
		End()

	delete(ts.users.byID, sess.User.ID)
	apitest.New().
		Handler(ts.handler).
		Post("/api/refresh-token").
		JSON(fmt.Sprintf(`{"refreshToken":%q}`, sess.RefreshToken)).
		Expect(t).
		Status(http.StatusNotFound).
		End()
}

func TestRouter_Signout(t *testing.T) {
	ts := newTestServer(t)
	ts.signup(t, "erin", "pw", "Erin", "")
	sess := ts.login(t, "erin", "pw")

	apitest.New().
		Handler(ts.handler).
		Delete("/api/signout").
		Header("Authorization", "Bearer "+sess.RefreshToken).
		Expect(t).
		Status(http.StatusNoContent).
		End()

	apitest.New().
		Handler(ts.handler).
		Post("/api/refresh-token").
		JSON(fmt.Sprintf(`{"refreshToken":%q}`, sess.RefreshToken)).
		Expect(t).
		Status(http.StatusForbidden).
		End()

	apitest.New().
		Handler(ts.handler).
		Delete("/api/signout").
		Expect(t).
		Status(http.StatusUnauthorized).
		End()
}

func TestRouter_AuthenticatorResponses(t *testing.T) {
	ts := newTestServer(t)

	apitest.New().
		Handler(ts.handler).
		Get("/api/profile").
		Expect(t).
		Status(http.StatusUnauthorized).
		Body(`{"error":"token not provided"}`).
		End()

	apitest.New().
		Handler(ts.handler).
		Get("/api/profile").
		Header("Authorization", "Basic dXNlcjpwYXNz").
		Expect(t).
		Status(http.StatusUnauthorized).
		Body(`{"error":"malformed token"}`).
		End()

	apitest.New().
		Handler(ts.handler).
		Get("/api/user").
		Header("Authorization", "Bearer abc.def.ghi").
		Expect(t).
		Status(http.StatusForbidden).
		Body(`{"error":"invalid or expired token"}`).
		End()
}

func TestRouter_AdminOnlyRoutes(t *testing.T) {
	ts := newTestServer(t)
	ts.signup(t, "root", "pw", "Root", "administrador")
	ts.signup(t, "frank", "pw", "Frank", "colaborador")
	admin := ts.login(t, "root", "pw")
	collab := ts.login(t, "frank", "pw")

	apitest.New().
		Handler(ts.handler).
		Get("/api/profile/all").
		Header("Authorization", "Bearer "+collab.AccessToken).
		Expect(t).
		Status(http.StatusForbidden).
		Body(`{"error":"access denied: insufficient permissions"}`).
		End()

	apitest.New().
		Handler(ts.handler).
		Put("/api/profile/"+admin.User.ID).
		Header("Authorization", "Bearer "+collab.AccessToken).
		JSON(`{"role":"colaborador"}`).
		Expect(t).
		Status(http.StatusForbidden).
		End()
	if n := ts.users.updates(); n != 0 {
		t.Fatalf("forbidden request reached the store: %d updates", n)
	}

	apitest.New().
		Handler(ts.handler).
		Get("/api/profile/all").
		Header("Authorization", "Bearer "+admin.AccessToken).
		Expect(t).
		Status(http.StatusOK).
		Assert(jsonpath.Len("$.users", 2)).
		End()

	apitest.New().
		Handler(ts.handler).
		Put("/api/profile/"+collab.User.ID).
		Header("Authorization", "Bearer "+admin.AccessToken).
		JSON(`{"role":"administrador","name":"Frank F"}`).
		Expect(t).
		Status(http.StatusOK).
		Assert(jsonpath.Equal("$.user.role", "administrador")).
		Assert(jsonpath.Equal("$.user.name", "Frank F")).
		End()

	// Refresh reflects the stored role, not the one in the old token.
	apitest.New().
		Handler(ts.handler).
		Post("/api/refresh-token").
		JSON(fmt.Sprintf(`{"refreshToken":%q}`, collab.RefreshToken)).
		Expect(t).
		Status(http.StatusOK).
		Assert(jsonpath.Equal("$.user.role", "administrador")).
		End()
}

func TestRouter_PrincipalEcho(t *testing.T) {
	ts := newTestServer(t)
	ts.signup(t, "gina", "pw", "Gina", "colaborador")
	sess := ts.login(t, "gina", "pw")

	apitest.New().
		Handler(ts.handler).
		Get("/api/user").
		Header("Authorization", "Bearer "+sess.AccessToken).
		Expect(t).
		Status(http.StatusOK).
		Assert(jsonpath.Equal("$.id", sess.User.ID)).
		Assert(jsonpath.Equal("$.role", "colaborador")).
		End()
}

func TestRouter_HealthAndMetrics(t *testing.T) {
	ts := newTestServer(t)
	ts.signup(t, "hank", "pw", "Hank", "")
	ts.login(t, "hank", "pw")

	apitest.New().
		Handler(ts.handler).
		Get("/health").
		Expect(t).
		Status(http.StatusOK).
		Assert(jsonpath.Equal("$.status", "ok")).
		End()

	apitest.New().
		Handler(ts.handler).
		Get("/health/ready").
		Expect(t).
		Status(http.StatusOK).
		End()

	apitest.New().
		Handler(ts.handler).
		Get("/metrics").
		Expect(t).
		Status(http.StatusOK).
		Assert(func(res *http.Response, _ *http.Request) error {
			body, err := io.ReadAll(res.Body)
			if err != nil {
				return err
			}
			for _, name := range []string{"marketplace_logins_total", "marketplace_http_requests_total"} {
				if !strings.Contains(string(body), name) {
					return fmt.Errorf("metric %s not exposed", name)
				}
			}
			return nil
		}).
		End()
}
