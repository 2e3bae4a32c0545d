package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/example/pizza-shop/internal/auth"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestJWTService() *auth.JWTService {
	return auth.NewJWTService("test-secret-key", "pizza-accounts", 15*time.Minute)
}

func mustToken(t *testing.T, s *auth.JWTService, userID, role string) string {
	t.Helper()
	token, _, err := s.GenerateAccessToken(userID, userID+"@example.com", role)
	require.NoError(t, err)
	return token
}

func identify(t *testing.T, req *http.Request) (Shopper, *httptest.ResponseRecorder) {
	t.Helper()
	var shopper Shopper
	handler := Identify(newTestJWTService(), false)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		shopper = ShopperFrom(r.Context())
	}))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return shopper, rec
}

// ============================================
// Identify Tests
// ============================================

func TestIdentify_SignedIn(t *testing.T) {
	jwtService := newTestJWTService()

	tests := []struct {
		name     string
		prepare  func(r *http.Request)
		wantUser string
	}{
		{
			name:     "bearer header",
			prepare:  func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+mustToken(t, jwtService, "user-123", "customer")) },
			wantUser: "user-123",
		},
		{
			name: "cookie",
			prepare: func(r *http.Request) {
				r.AddCookie(&http.Cookie{Name: AccessTokenCookie, Value: mustToken(t, jwtService, "user-456", "customer")})
			},
			wantUser: "user-456",
		},
		{
			name: "cookie wins over header",
			prepare: func(r *http.Request) {
				r.AddCookie(&http.Cookie{Name: AccessTokenCookie, Value: mustToken(t, jwtService, "cookie-user", "customer")})
				r.Header.Set("Authorization", "Bearer "+mustToken(t, jwtService, "header-user", "admin"))
			},
			wantUser: "cookie-user",
		},
		{
			name: "user id wins over cart token",
			prepare: func(r *http.Request) {
				r.Header.Set("Authorization", "Bearer "+mustToken(t, jwtService, "user-789", "customer"))
				r.AddCookie(&http.Cookie{Name: CartTokenCookie, Value: uuid.NewString()})
			},
			wantUser: "user-789",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/cart", nil)
			tt.prepare(req)

			shopper, rec := identify(t, req)

			require.NotNil(t, shopper.Claims)
			assert.Equal(t, tt.wantUser, shopper.UserID())
			assert.Equal(t, tt.wantUser, shopper.Owner)
			assert.Empty(t, rec.Result().Cookies())
		})
	}
}

func TestIdentify_ExistingCartToken(t *testing.T) {
	token := uuid.NewString()
	req := httptest.NewRequest(http.MethodGet, "/cart", nil)
	req.AddCookie(&http.Cookie{Name: CartTokenCookie, Value: token})

	shopper, rec := identify(t, req)

	assert.Equal(t, token, shopper.Owner)
	assert.Empty(t, shopper.UserID())
	assert.Empty(t, rec.Result().Cookies())
}

func TestIdentify_IssuesCartToken(t *testing.T) {
	expired := auth.NewJWTService("test-secret-key", "pizza-accounts", -time.Minute)
	foreign := auth.NewJWTService("other-secret", "pizza-accounts", time.Minute)

	tests := []struct {
		name    string
		prepare func(r *http.Request)
	}{
		{"no cookie", func(r *http.Request) {}},
		{"malformed cart token", func(r *http.Request) {
			r.AddCookie(&http.Cookie{Name: CartTokenCookie, Value: "../../etc"})
		}},
		{"garbage access token", func(r *http.Request) { r.Header.Set("Authorization", "Bearer invalid-token") }},
		{"expired access token", func(r *http.Request) {
			r.Header.Set("Authorization", "Bearer "+mustToken(t, expired, "user-1", "customer"))
		}},
		{"foreign access token", func(r *http.Request) {
			r.Header.Set("Authorization", "Bearer "+mustToken(t, foreign, "user-1", "customer"))
		}},
		{"non bearer scheme", func(r *http.Request) { r.Header.Set("Authorization", "Basic dXNlcjpwYXNz") }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/cart/items", nil)
			tt.prepare(req)

			shopper, rec := identify(t, req)

			assert.Nil(t, shopper.Claims)
			_, err := uuid.Parse(shopper.Owner)
			require.NoError(t, err)
			cookies := rec.Result().Cookies()
			require.Len(t, cookies, 1)
			assert.Equal(t, CartTokenCookie, cookies[0].Name)
			assert.Equal(t, shopper.Owner, cookies[0].Value)
			assert.True(t, cookies[0].HttpOnly)
		})
	}
}

func TestShopperFrom_Empty(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	shopper := ShopperFrom(req.Context())

	assert.Empty(t, shopper.Owner)
	assert.Empty(t, shopper.UserID())
	assert.False(t, shopper.IsAdmin())
}

// ============================================
// Admin Only Tests
// ============================================

func TestAdminOnly(t *testing.T) {
	jwtService := newTestJWTService()

	tests := []struct {
		name       string
		header     string
		wantStatus int
	}{
		{"admin allowed", "Bearer " + mustToken(t, jwtService, "user-1", auth.RoleAdmin), http.StatusOK},
		{"customer forbidden", "Bearer " + mustToken(t, jwtService, "user-1", "customer"), http.StatusForbidden},
		{"anonymous", "", http.StatusUnauthorized},
		{"invalid token", "Bearer nope", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/orders/1/complete", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()

			ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
			Identify(jwtService, false)(AdminOnly(ok)).ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantStatus != http.StatusOK {
				assert.Contains(t, rec.Body.String(), `"error"`)
			}
		})
	}
}
