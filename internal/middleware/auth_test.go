package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/evxeen/shop-backend/internal/model"
)

type stubUserProvider struct {
	user *model.User
	err  error
}

func (s *stubUserProvider) GetUserByID(ctx context.Context, id int64) (*model.User, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.user, nil
}

func TestRequire_WithValidToken(t *testing.T) {
	users := &stubUserProvider{user: &model.User{ID: 42, Role: model.RoleUser}}
	m := NewAuthMiddleware("test-secret", users)

	nextCalled := false
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		nextCalled = true
		user, ok := GetUserFromContext(r.Context())
		if !ok {
			t.Fatalf("user not in context")
		}
		if user.ID != 42 {
			t.Fatalf("user id from context = %d, want 42", user.ID)
		}
	})

	token, err := m.IssueToken(42)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}

	r := httptest.NewRequest(http.MethodGet, "/protected", nil)
	r.Header.Set("Authorization", "Bearer "+token)

	handler := m.Require(next)
	handler.ServeHTTP(httptest.NewRecorder(), r)

	if !nextCalled {
		t.Fatalf("next handler was not called")
	}
}

func TestRequire_WithoutToken(t *testing.T) {
	m := NewAuthMiddleware("test-secret", &stubUserProvider{})

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatalf("next handler should not be called")
	})

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/protected", nil)

	handler := m.Require(next)
	handler.ServeHTTP(w, r)

	res := w.Result()
	if res.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusUnauthorized)
	}
}

func TestRequire_TokenSignedWithOtherSecret(t *testing.T) {
	users := &stubUserProvider{user: &model.User{ID: 1}}
	issuer := NewAuthMiddleware("other-secret", users)
	m := NewAuthMiddleware("test-secret", users)

	token, err := issuer.IssueToken(1)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/protected", nil)
	r.Header.Set("Authorization", "Bearer "+token)

	handler := m.Require(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatalf("next handler should not be called")
	}))
	handler.ServeHTTP(w, r)

	res := w.Result()
	if res.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusUnauthorized)
	}
}

func TestRequire_DeletedUser(t *testing.T) {
	users := &stubUserProvider{err: errors.New("user not found")}
	m := NewAuthMiddleware("test-secret", users)

	token, err := m.IssueToken(42)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/protected", nil)
	r.Header.Set("Authorization", "Bearer "+token)

	handler := m.Require(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatalf("next handler should not be called")
	}))
	handler.ServeHTTP(w, r)

	res := w.Result()
	if res.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusUnauthorized)
	}
}

func TestOptional_WithoutTokenPassesAnonymously(t *testing.T) {
	m := NewAuthMiddleware("test-secret", &stubUserProvider{})

	nextCalled := false
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		nextCalled = true
		if _, ok := GetUserFromContext(r.Context()); ok {
			t.Fatalf("anonymous request must not carry a user")
		}
	})

	r := httptest.NewRequest(http.MethodPost, "/api/orders", nil)

	handler := m.Optional(next)
	handler.ServeHTTP(httptest.NewRecorder(), r)

	if !nextCalled {
		t.Fatalf("next handler was not called")
	}
}

func TestOptional_InvalidTokenRejected(t *testing.T) {
	m := NewAuthMiddleware("test-secret", &stubUserProvider{})

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/api/orders", nil)
	r.Header.Set("Authorization", "Bearer garbage")

	handler := m.Optional(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatalf("next handler should not be called")
	}))
	handler.ServeHTTP(w, r)

	res := w.Result()
	if res.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusUnauthorized)
	}
}

func TestRequireAdmin(t *testing.T) {
	tests := []struct {
		name       string
		role       model.Role
		wantStatus int
	}{
		{
			name:       "admin allowed",
			role:       model.RoleAdmin,
			wantStatus: http.StatusOK,
		},
		{
			name:       "regular user forbidden",
			role:       model.RoleUser,
			wantStatus: http.StatusForbidden,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			users := &stubUserProvider{user: &model.User{ID: 7, Role: tt.role}}
			m := NewAuthMiddleware("test-secret", users)

			token, err := m.IssueToken(7)
			if err != nil {
				t.Fatalf("issue token: %v", err)
			}

			w := httptest.NewRecorder()
			r := httptest.NewRequest(http.MethodGet, "/api/admin/stats", nil)
			r.Header.Set("Authorization", "Bearer "+token)

			handler := m.RequireAdmin(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
			}))
			handler.ServeHTTP(w, r)

			res := w.Result()
			if res.StatusCode != tt.wantStatus {
				t.Fatalf("status = %d, want %d", res.StatusCode, tt.wantStatus)
			}
		})
	}
}
