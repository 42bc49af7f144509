package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gdg-garage/event-tickets/internal/config"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func signed(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return s
}

func serve(h *AuthHandler, req *http.Request) (*httptest.ResponseRecorder, *Organiser) {
	var seen *Organiser
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if o, ok := FromContext(r.Context()); ok {
			seen = &o
		}
		w.WriteHeader(http.StatusOK)
	})
	rr := httptest.NewRecorder()
	h.AuthMiddleware(next).ServeHTTP(rr, req)
	return rr, seen
}

func TestJWTMiddleware_SlidingSession(t *testing.T) {
	cfg := &config.Config{JWTSecret: "test-secret"}
	handler := NewAuthHandler(cfg, zerolog.Nop())

	t.Run("TokenRenewed", func(t *testing.T) {
		tokenString := signed(t, cfg.JWTSecret, jwt.MapClaims{
			"discord_id": "1",
			"username":   "ada",
			"exp":        time.Now().Add(11 * time.Hour).Unix(),
		})

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(&http.Cookie{Name: TokenCookie, Value: tokenString})
		rr, seen := serve(handler, req)

		require.Equal(t, http.StatusOK, rr.Code)
		require.Equal(t, &Organiser{DiscordID: "1", Username: "ada"}, seen)

		renewed := findCookie(rr, TokenCookie)
		require.NotNil(t, renewed, "expected new auth_token cookie to be set")
		require.NotEqual(t, tokenString, renewed.Value)
	})

	t.Run("TokenNotRenewed", func(t *testing.T) {
		tokenString := signed(t, cfg.JWTSecret, jwt.MapClaims{
			"discord_id": "1",
			"exp":        time.Now().Add(13 * time.Hour).Unix(),
		})

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(&http.Cookie{Name: TokenCookie, Value: tokenString})
		rr, _ := serve(handler, req)

		require.Equal(t, http.StatusOK, rr.Code)
		require.Nil(t, findCookie(rr, TokenCookie))
	})

	t.Run("Expired", func(t *testing.T) {
		tokenString := signed(t, cfg.JWTSecret, jwt.MapClaims{
			"discord_id": "1",
			"exp":        time.Now().Add(-time.Minute).Unix(),
		})

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(&http.Cookie{Name: TokenCookie, Value: tokenString})
		rr, seen := serve(handler, req)

		require.Equal(t, http.StatusUnauthorized, rr.Code)
		require.Nil(t, seen)
	})

	t.Run("NoCookie", func(t *testing.T) {
		rr, _ := serve(handler, httptest.NewRequest(http.MethodGet, "/", nil))
		require.Equal(t, http.StatusUnauthorized, rr.Code)
	})
}

func TestMiddleware_APIKey(t *testing.T) {
	handler := NewAuthHandler(&config.Config{JWTSecret: "s", AdminAPIKey: "admin-key"}, zerolog.Nop())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-API-KEY", "admin-key")
	rr, seen := serve(handler, req)
	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, &APIKeyOrganiser, seen)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-API-KEY", "wrong")
	rr, seen = serve(handler, req)
	require.Equal(t, http.StatusUnauthorized, rr.Code)
	require.Nil(t, seen)

	unset := NewAuthHandler(&config.Config{JWTSecret: "s"}, zerolog.Nop())
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-API-KEY", "")
	rr, _ = serve(unset, req)
	require.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestMiddleware_EmptySecretRejectsTokens(t *testing.T) {
	handler := NewAuthHandler(&config.Config{AdminAPIKey: "set-key"}, zerolog.Nop())

	forged := signed(t, "", jwt.MapClaims{
		"discord_id": "attacker",
		"exp":        time.Now().Add(time.Hour).Unix(),
	})
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: TokenCookie, Value: forged})
	rr, seen := serve(handler, req)

	require.Equal(t, http.StatusUnauthorized, rr.Code)
	require.Nil(t, seen)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-API-KEY", "set-key")
	rr, seen = serve(handler, req)
	require.Equal(t, http.StatusOK, rr.Code, "API key still works without a JWT secret")
	require.Equal(t, &APIKeyOrganiser, seen)
}
