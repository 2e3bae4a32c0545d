package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/example/pizza-shop/internal/auth"
	"github.com/google/uuid"
)

const (
	AccessTokenCookie = "access_token"
	CartTokenCookie   = "cart_token"
	cartTokenMaxAge   = 30 * 24 * time.Hour
)

type shopperKey struct{}

// Shopper is who a request acts for. Owner keys the cart and the orders:
// the user id when signed in, else the anonymous cart token.
type Shopper struct {
	Owner  string
	Claims *auth.Claims
}

// UserID is empty for anonymous shoppers.
func (s Shopper) UserID() string {
	if s.Claims == nil {
		return ""
	}
	return s.Claims.UserID
}

func (s Shopper) IsAdmin() bool {
	return s.Claims.IsAdmin()
}

// Identify attaches the Shopper to every request. A token that fails
// validation is ignored, so the request continues anonymously; anonymous
// shoppers without a usable cart token get a fresh one.
func Identify(jwtService *auth.JWTService, secureCookies bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var shopper Shopper
			if token := accessToken(r); token != "" {
				if claims, err := jwtService.ValidateAccessToken(token); err == nil {
					shopper = Shopper{Owner: claims.UserID, Claims: claims}
				}
			}
			if shopper.Claims == nil {
				shopper.Owner = cartToken(r)
			}
			if shopper.Owner == "" {
				shopper.Owner = uuid.NewString()
				http.SetCookie(w, &http.Cookie{
					Name:     CartTokenCookie,
					Value:    shopper.Owner,
					Path:     "/",
					MaxAge:   int(cartTokenMaxAge.Seconds()),
					HttpOnly: true,
					Secure:   secureCookies,
					SameSite: http.SameSiteLaxMode,
				})
			}

			ctx := context.WithValue(r.Context(), shopperKey{}, shopper)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// AdminOnly answers 401 to anonymous shoppers and 403 to signed-in
// non-admins. It must run inside Identify.
func AdminOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		shopper := ShopperFrom(r.Context())
		switch {
		case shopper.Claims == nil:
			writeError(w, http.StatusUnauthorized, "sign in required")
		case !shopper.IsAdmin():
			writeError(w, http.StatusForbidden, "forbidden")
		default:
			next.ServeHTTP(w, r)
		}
	})
}

// ShopperFrom returns the Shopper set by Identify.
func ShopperFrom(ctx context.Context) Shopper {
	shopper, _ := ctx.Value(shopperKey{}).(Shopper)
	return shopper
}

// accessToken prefers the cookie over the Authorization header.
func accessToken(r *http.Request) string {
	if cookie, err := r.Cookie(AccessTokenCookie); err == nil {
		return cookie.Value
	}
	if token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer "); ok {
		return token
	}
	return ""
}

func cartToken(r *http.Request) string {
	cookie, err := r.Cookie(CartTokenCookie)
	if err != nil {
		return ""
	}
	id, err := uuid.Parse(cookie.Value)
	if err != nil {
		return ""
	}
	return id.String()
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}
