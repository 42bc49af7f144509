package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/gdg-garage/event-tickets/internal/config"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/oauth2"
)

const (
	DiscordAuthorizeEndpoint = "https://discord.com/api/oauth2/authorize"
	DiscordTokenEndpoint     = "https://discord.com/api/oauth2/token"
	DiscordUserAPI           = "https://discord.com/api/users/@me"
	DiscordUserGuildsAPI     = "https://discord.com/api/users/@me/guilds"

	TokenCookie   = "auth_token"
	stateCookie   = "oauth_state"
	TokenDuration = 24 * time.Hour
)

// ErrNoJWTSecret is returned when sessions are used without JWT_SECRET.
var ErrNoJWTSecret = errors.New("JWT_SECRET is not set")

// Organiser is the signed-in admin carried in the JWT.
type Organiser struct {
	DiscordID string `json:"discord_id"`
	Username  string `json:"username"`
}

type AuthHandler struct {
	oauthConfig *oauth2.Config
	cfg         *config.Config
	log         zerolog.Logger

	userAPI   string
	guildsAPI string
}

func NewAuthHandler(cfg *config.Config, log zerolog.Logger) *AuthHandler {
	return &AuthHandler{
		oauthConfig: &oauth2.Config{
			ClientID:     cfg.DiscordClientID,
			ClientSecret: cfg.DiscordClientSecret,
			RedirectURL:  cfg.DiscordRedirectURL,
			Scopes:       []string{"identify", "guilds"},
			Endpoint: oauth2.Endpoint{
				AuthURL:  DiscordAuthorizeEndpoint,
				TokenURL: DiscordTokenEndpoint,
			},
		},
		cfg:       cfg,
		log:       log,
		userAPI:   DiscordUserAPI,
		guildsAPI: DiscordUserGuildsAPI,
	}
}

func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	state := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     stateCookie,
		Value:    state,
		Expires:  time.Now().Add(10 * time.Minute),
		HttpOnly: true,
		Path:     "/",
		SameSite: http.SameSiteLaxMode,
	})
	url := h.oauthConfig.AuthCodeURL(state, oauth2.AccessTypeOnline)
	http.Redirect(w, r, url, http.StatusTemporaryRedirect)
}

func (h *AuthHandler) HandleCallback(w http.ResponseWriter, r *http.Request) {
	if h.cfg.JWTSecret == "" {
		h.log.Error().Err(ErrNoJWTSecret).Msg("organiser login is disabled")
		http.Error(w, "Login is not configured", http.StatusServiceUnavailable)
		return
	}

	state, err := r.Cookie(stateCookie)
	if err != nil || state.Value == "" || state.Value != r.URL.Query().Get("state") {
		http.Error(w, "Invalid OAuth state", http.StatusBadRequest)
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		http.Error(w, "Code not found", http.StatusBadRequest)
		return
	}

	token, err := h.oauthConfig.Exchange(r.Context(), code)
	if err != nil {
		h.log.Error().Err(err).Msg("failed to exchange oauth code")
		http.Error(w, "Failed to exchange token", http.StatusInternalServerError)
		return
	}

	client := h.oauthConfig.Client(r.Context(), token)

	if h.cfg.DiscordGuildID != "" {
		member, err := h.isGuildMember(client)
		if err != nil {
			h.log.Error().Err(err).Msg("failed to check guild membership")
			http.Error(w, "Failed to get user guilds", http.StatusInternalServerError)
			return
		}
		if !member {
			http.Error(w, "Access denied: You are not a member of the required guild.", http.StatusForbidden)
			return
		}
	}

	var discordUser struct {
		ID       string `json:"id"`
		Username string `json:"username"`
	}
	if err := getJSON(client, h.userAPI, &discordUser); err != nil {
		h.log.Error().Err(err).Msg("failed to get discord user")
		http.Error(w, "Failed to get user info", http.StatusInternalServerError)
		return
	}

	jwtToken, err := h.GenerateToken(Organiser{DiscordID: discordUser.ID, Username: discordUser.Username})
	if err != nil {
		http.Error(w, "Failed to generate token", http.StatusInternalServerError)
		return
	}

	http.SetCookie(w, &http.Cookie{Name: stateCookie, Value: "", Path: "/", MaxAge: -1})
	http.SetCookie(w, h.tokenCookie(jwtToken))
	h.log.Info().Str("discord_id", discordUser.ID).Str("username", discordUser.Username).Msg("organiser signed in")

	if h.cfg.FrontendURL != "" {
		http.Redirect(w, r, h.cfg.FrontendURL, http.StatusTemporaryRedirect)
		return
	}
	fmt.Fprintf(w, "Welcome %s! You are logged in.", discordUser.Username)
}

type guild struct {
	ID string `json:"id"`
}

func (h *AuthHandler) isGuildMember(client *http.Client) (bool, error) {
	var guilds []guild
	if err := getJSON(client, h.guildsAPI, &guilds); err != nil {
		return false, err
	}
	return slices.ContainsFunc(guilds, func(g guild) bool {
		return g.ID == h.cfg.DiscordGuildID
	}), nil
}

func getJSON(client *http.Client, url string, v any) error {
	resp, err := client.Get(url)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("GET %s: status %d", url, resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(v)
}

func (h *AuthHandler) GenerateToken(o Organiser) (string, error) {
	if h.cfg.JWTSecret == "" {
		return "", ErrNoJWTSecret
	}
	claims := jwt.MapClaims{
		"discord_id": o.DiscordID,
		"username":   o.Username,
		"exp":        time.Now().Add(TokenDuration).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(h.cfg.JWTSecret))
}

func (h *AuthHandler) tokenCookie(value string) *http.Cookie {
	return &http.Cookie{
		Name:     TokenCookie,
		Value:    value,
		Expires:  time.Now().Add(TokenDuration),
		HttpOnly: true,
		Path:     "/",
		SameSite: http.SameSiteLaxMode,
	}
}

type AuthInput struct {
	Token string `cookie:"auth_token"`
}

type MeOutput struct {
	Body Organiser
}

func (h *AuthHandler) HandleMe(ctx context.Context, input *AuthInput) (*MeOutput, error) {
	if input.Token == "" {
		return nil, huma.Error401Unauthorized("Not logged in")
	}
	o, _, err := h.parseToken(input.Token)
	if err != nil {
		return nil, huma.Error401Unauthorized("Invalid token")
	}
	return &MeOutput{Body: o}, nil
}
