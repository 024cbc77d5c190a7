package middleware_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/slicehouse/api/internal/auth"
	"github.com/slicehouse/api/internal/database"
	"github.com/slicehouse/api/internal/middleware"
)

const testSecret = "test-secret"

type mockUsers struct {
	users map[uuid.UUID]database.User
	err   error
}

func (m *mockUsers) GetUserByID(ctx context.Context, id uuid.UUID) (database.User, error) {
	if m.err != nil {
		return database.User{}, m.err
	}
	u, ok := m.users[id]
	if !ok {
		return database.User{}, pgx.ErrNoRows
	}
	return u, nil
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestAuthMiddleware_ValidToken(t *testing.T) {
	userID := uuid.New()
	token, _ := auth.GenerateToken(testSecret, userID, "customer")

	handler := middleware.Authenticate(testSecret)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims := middleware.ClaimsFromContext(r.Context())
		if claims == nil {
			t.Fatal("expected claims in context")
		}
		if claims.UserID != userID {
			t.Errorf("user ID: got %v, want %v", claims.UserID, userID)
		}
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusOK)
	}
}

func TestAuthMiddleware_Rejections(t *testing.T) {
	refresh, _ := auth.GenerateRefreshToken(testSecret, uuid.New())
	tests := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"wrong scheme", "Basic abc"},
		{"garbage token", "Bearer invalid-token"},
		{"refresh token", "Bearer " + refresh},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := middleware.Authenticate(testSecret)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				t.Fatal("handler should not be called")
			}))
			req := httptest.NewRequest("GET", "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)

			if rr.Code != http.StatusUnauthorized {
				t.Errorf("status: got %d, want %d", rr.Code, http.StatusUnauthorized)
			}
		})
	}
}

func chain(users *mockUsers, roles ...string) http.Handler {
	h := okHandler()
	if len(roles) > 0 {
		h = middleware.RequireRole(roles...)(h)
	}
	return middleware.Authenticate(testSecret)(middleware.LoadUser(users, zap.NewNop())(h))
}

func TestRequireRole_UsesStoredRole(t *testing.T) {
	userID := uuid.New()
	users := &mockUsers{users: map[uuid.UUID]database.User{
		userID: {ID: userID, Role: database.UserRoleCustomer},
	}}
	// Token claims admin, storage says customer.
	token, _ := auth.GenerateToken(testSecret, userID, "admin")

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rr := httptest.NewRecorder()
	chain(users, "admin").ServeHTTP(rr, req)

	if rr.Code != http.StatusForbidden {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusForbidden)
	}
}

func TestRequireRole_Admin(t *testing.T) {
	userID := uuid.New()
	users := &mockUsers{users: map[uuid.UUID]database.User{
		userID: {ID: userID, Role: database.UserRoleAdmin},
	}}
	token, _ := auth.GenerateToken(testSecret, userID, "customer")

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rr := httptest.NewRecorder()
	chain(users, "admin").ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusOK)
	}
}

func TestRequireRole_NoUser(t *testing.T) {
	rr := httptest.NewRecorder()
	middleware.RequireRole("admin")(okHandler()).ServeHTTP(rr, httptest.NewRequest("GET", "/", nil))
	if rr.Code != http.StatusUnauthorized {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusUnauthorized)
	}
}

func TestLoadUser(t *testing.T) {
	userID := uuid.New()
	token, _ := auth.GenerateToken(testSecret, userID, "customer")

	tests := []struct {
		name  string
		users *mockUsers
		want  int
	}{
		{"found", &mockUsers{users: map[uuid.UUID]database.User{userID: {ID: userID, Role: database.UserRoleCustomer}}}, http.StatusOK},
		{"deleted user", &mockUsers{users: map[uuid.UUID]database.User{}}, http.StatusUnauthorized},
		{"database down", &mockUsers{err: errors.New("connection refused")}, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/", nil)
			req.Header.Set("Authorization", "Bearer "+token)
			rr := httptest.NewRecorder()
			chain(tt.users).ServeHTTP(rr, req)
			if rr.Code != tt.want {
				t.Errorf("status: got %d, want %d", rr.Code, tt.want)
			}
		})
	}
}

func TestRequestLogger(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(middleware.RequestLogger(zap.New(core)))
	r.Get("/missing", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/missing", nil))

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 log entry, got %d", len(entries))
	}
	e := entries[0]
	if e.Level != zap.WarnLevel {
		t.Errorf("level: got %s, want warn", e.Level)
	}
	fields := e.ContextMap()
	if fields["status"] != int64(404) {
		t.Errorf("status field: got %v", fields["status"])
	}
	if fields["request_id"] == "" {
		t.Error("expected request id")
	}
}
