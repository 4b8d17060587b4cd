package auth_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"

	"github.com/driftboard/driftboard/internal/auth"
	"github.com/driftboard/driftboard/internal/shared"
	_ "github.com/driftboard/driftboard/testing"
)

type stubRepo struct {
	user            *auth.User
	sessionsCreated []string
	sessionsDeleted []string
}

func (r *stubRepo) FindByEmail(ctx context.Context, email string) (*auth.User, error) {
	if r.user == nil || r.user.Email != email {
		return nil, shared.ErrInvalidCredentials
	}
	return r.user, nil
}

func (r *stubRepo) CreateSession(ctx context.Context, id string, userID int64, expiresAt time.Time, ip, ua string) error {
	r.sessionsCreated = append(r.sessionsCreated, id)
	return nil
}

func (r *stubRepo) DeleteSession(ctx context.Context, id string) error {
	r.sessionsDeleted = append(r.sessionsDeleted, id)
	return nil
}

func activeUser(t *testing.T, email, password string) *auth.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	return &auth.User{ID: 1, Email: email, Name: "Dev", PasswordHash: string(hash), IsActive: true}
}

func newAuthRouter(t *testing.T, repo auth.Repository) (http.Handler, *shared.SessionManager) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	sessions := shared.NewSessionManager(client, "driftboard_session", "test-secret", time.Hour, false)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	handler := auth.NewHandler(logger, auth.NewService(repo), sessions)
	router := chi.NewRouter()
	router.Route("/auth", handler.MountRoutes)
	return router, sessions
}

func requestWithSession(t *testing.T, sessions *shared.SessionManager, method, target, body string) (*http.Request, *shared.Session) {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	sess, err := sessions.Load(req.Context(), req)
	if err != nil {
		t.Fatalf("load session: %v", err)
	}
	return req.WithContext(shared.ContextWithSession(req.Context(), sess)), sess
}

func TestLoginSuccess(t *testing.T) {
	repo := &stubRepo{user: activeUser(t, "dev@driftboard.local", "driftboard1")}
	router, sessions := newAuthRouter(t, repo)

	req, sess := requestWithSession(t, sessions, http.MethodPost, "/auth/login",
		`{"email":"dev@driftboard.local","password":"driftboard1"}`)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	var payload struct {
		UserID int64  `json:"userId"`
		Email  string `json:"email"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if payload.UserID != 1 || payload.Email != "dev@driftboard.local" {
		t.Fatalf("unexpected payload: %+v", payload)
	}
	if sess.User() != "1" {
		t.Fatalf("expected session bound to user 1, got %q", sess.User())
	}
	if len(repo.sessionsCreated) != 1 {
		t.Fatalf("expected session row persisted, got %v", repo.sessionsCreated)
	}
}

func TestLoginInvalidCredentials(t *testing.T) {
	repo := &stubRepo{user: activeUser(t, "dev@driftboard.local", "driftboard1")}
	router, sessions := newAuthRouter(t, repo)

	req, _ := requestWithSession(t, sessions, http.MethodPost, "/auth/login",
		`{"email":"dev@driftboard.local","password":"wrong-password"}`)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rr.Code)
	}
}

func TestLoginInactiveUser(t *testing.T) {
	user := activeUser(t, "dev@driftboard.local", "driftboard1")
	user.IsActive = false
	router, sessions := newAuthRouter(t, &stubRepo{user: user})

	req, _ := requestWithSession(t, sessions, http.MethodPost, "/auth/login",
		`{"email":"dev@driftboard.local","password":"driftboard1"}`)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for inactive user, got %d", rr.Code)
	}
}

func TestLoginRejectsMalformedBody(t *testing.T) {
	router, sessions := newAuthRouter(t, &stubRepo{})

	req, _ := requestWithSession(t, sessions, http.MethodPost, "/auth/login", `{"email":`)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}

func TestLogoutRemovesSession(t *testing.T) {
	repo := &stubRepo{}
	router, sessions := newAuthRouter(t, repo)

	req, sess := requestWithSession(t, sessions, http.MethodPost, "/auth/logout", "")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rr.Code)
	}
	if len(repo.sessionsDeleted) != 1 || repo.sessionsDeleted[0] != sess.ID {
		t.Fatalf("expected session %q deleted, got %v", sess.ID, repo.sessionsDeleted)
	}
}

func TestMeRequiresPrincipal(t *testing.T) {
	router, _ := newAuthRouter(t, &stubRepo{})

	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rr.Code)
	}

	req = req.WithContext(shared.ContextWithPrincipal(context.Background(), shared.Principal{ID: 7}))
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), `"userId":7`) {
		t.Fatalf("unexpected body: %s", rr.Body.String())
	}
}
