package config

import (
	"errors"
	"log"

	"github.com/spf13/viper"
)

type Config struct {
	Port                          string `mapstructure:"PORT"`
	DatabaseURL                   string `mapstructure:"DATABASE_URL"`
	LogLevel                      string `mapstructure:"LOG_LEVEL"`
	LogFormat                     string `mapstructure:"LOG_FORMAT"`
	EnableCORS                    bool   `mapstructure:"ENABLE_CORS"`
	ResendAPIKey                  string `mapstructure:"RESEND_API_KEY"`
	EmailAPIURL                   string `mapstructure:"EMAIL_API_URL"`
	EmailFrom                     string `mapstructure:"EMAIL_FROM"`
	EventTitle                    string `mapstructure:"EVENT_TITLE"`
	EventDate                     string `mapstructure:"EVENT_DATE"`
	VIPCapacity                   int    `mapstructure:"VIP_CAPACITY"`
	RegularCapacity               int    `mapstructure:"REGULAR_CAPACITY"`
	JWTSecret                     string `mapstructure:"JWT_SECRET"`
	AdminAPIKey                   string `mapstructure:"ADMIN_API_KEY"`
	DiscordClientID               string `mapstructure:"DISCORD_CLIENT_ID"`
	DiscordClientSecret           string `mapstructure:"DISCORD_CLIENT_SECRET"`
	DiscordRedirectURL            string `mapstructure:"DISCORD_REDIRECT_URL"`
	DiscordGuildID                string `mapstructure:"DISCORD_GUILD_ID"`
	DiscordBotToken               string `mapstructure:"DISCORD_BOT_TOKEN"`
	DiscordNotificationsChannelID string `mapstructure:"DISCORD_NOTIFICATIONS_CHANNEL_ID"`
	FrontendURL                   string `mapstructure:"FRONTEND_URL"`
	AMQPURL                       string `mapstructure:"AMQP_URL"`
	AMQPExchange                  string `mapstructure:"AMQP_EXCHANGE"`
}

var (
	ErrMissingDatabaseURL = errors.New("DATABASE_URL is not set")
	ErrMissingJWTSecret   = errors.New("JWT_SECRET is required when DISCORD_CLIENT_ID is set")
)

func LoadConfig() *Config {
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("LOG_FORMAT", "console")
	viper.SetDefault("EMAIL_API_URL", "https://api.resend.com")
	viper.SetDefault("EMAIL_FROM", "onboarding@resend.dev")
	viper.SetDefault("EVENT_TITLE", "An Evening of Culinary Experience")
	viper.SetDefault("EVENT_DATE", "Friday, 29th August 2025, 5:00 PM")
	viper.SetDefault("VIP_CAPACITY", 6)
	viper.SetDefault("REGULAR_CAPACITY", 24)
	viper.SetDefault("DISCORD_REDIRECT_URL", "http://127.0.0.1:8080/auth/discord/callback")
	viper.SetDefault("FRONTEND_URL", "http://127.0.0.1:4000/admin")
	viper.SetDefault("AMQP_EXCHANGE", "registrations")

	viper.BindEnv("DATABASE_URL")
	viper.BindEnv("RESEND_API_KEY")
	viper.BindEnv("JWT_SECRET")
	viper.BindEnv("ADMIN_API_KEY")
	viper.BindEnv("DISCORD_CLIENT_ID")
	viper.BindEnv("DISCORD_CLIENT_SECRET")
	viper.BindEnv("DISCORD_GUILD_ID")
	viper.BindEnv("DISCORD_BOT_TOKEN")
	viper.BindEnv("DISCORD_NOTIFICATIONS_CHANNEL_ID")
	viper.BindEnv("ENABLE_CORS")
	viper.BindEnv("AMQP_URL")

	viper.AutomaticEnv()

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		log.Fatalf("Unable to decode into struct, %v", err)
	}

	return &config
}

// Validate reports configuration that would leave the service running
// against nothing. Optional integrations are not checked here.
func (c *Config) Validate() error {
	if c.DatabaseURL == "" {
		return ErrMissingDatabaseURL
	}
	if c.DiscordClientID != "" && c.JWTSecret == "" {
		return ErrMissingJWTSecret
	}
	return nil
}

func (c *Config) EmailConfigured() bool {
	return c.ResendAPIKey != ""
}
