package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type contextKey string

const OrganiserKey contextKey = "organiser"

// APIKeyOrganiser is put in the context for requests authenticated with
// the static admin key.
var APIKeyOrganiser = Organiser{DiscordID: "api-key", Username: "api-key"}

// FromContext returns the organiser the middleware authenticated.
func FromContext(ctx context.Context) (Organiser, bool) {
	o, ok := ctx.Value(OrganiserKey).(Organiser)
	return o, ok
}

func (h *AuthHandler) AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if apiKey := r.Header.Get("X-API-KEY"); apiKey != "" {
			if h.cfg.AdminAPIKey != "" && subtle.ConstantTimeCompare([]byte(apiKey), []byte(h.cfg.AdminAPIKey)) == 1 {
				ctx := context.WithValue(r.Context(), OrganiserKey, APIKeyOrganiser)
				next.ServeHTTP(w, r.WithContext(ctx))
				return
			}
			h.log.Warn().Str("path", r.URL.Path).Msg("rejected admin API key")
			http.Error(w, "Unauthorized: Invalid API key", http.StatusUnauthorized)
			return
		}

		cookie, err := r.Cookie(TokenCookie)
		if err != nil {
			if errors.Is(err, http.ErrNoCookie) {
				http.Error(w, "Unauthorized: No token found", http.StatusUnauthorized)
				return
			}
			http.Error(w, "Bad Request", http.StatusBadRequest)
			return
		}

		organiser, exp, err := h.parseToken(cookie.Value)
		if err != nil {
			http.Error(w, "Unauthorized: Invalid token", http.StatusUnauthorized)
			return
		}

		// Sliding session: renew once past half the token lifetime.
		if time.Until(exp) < TokenDuration/2 {
			if renewed, err := h.GenerateToken(organiser); err == nil {
				http.SetCookie(w, h.tokenCookie(renewed))
			}
		}

		ctx := context.WithValue(r.Context(), OrganiserKey, organiser)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (h *AuthHandler) parseToken(tokenString string) (Organiser, time.Time, error) {
	if h.cfg.JWTSecret == "" {
		return Organiser{}, time.Time{}, ErrNoJWTSecret
	}
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(h.cfg.JWTSecret), nil
	})
	if err != nil || !token.Valid {
		return Organiser{}, time.Time{}, errors.New("invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return Organiser{}, time.Time{}, errors.New("invalid token claims")
	}
	id, _ := claims["discord_id"].(string)
	if id == "" {
		return Organiser{}, time.Time{}, errors.New("invalid token claims")
	}
	username, _ := claims["username"].(string)

	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return Organiser{}, time.Time{}, errors.New("token has no expiry")
	}
	return Organiser{DiscordID: id, Username: username}, exp.Time, nil
}
