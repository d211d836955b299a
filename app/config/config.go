package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable read by Load.
const EnvPrefix = "TIPSVENDOR"

// DevelopmentSecretKey is the published default secretKey. It signs sessions
// and email tokens, so production refuses it.
const DevelopmentSecretKey = "change-me-tipsvendor-development-key"

// MinSecretKeyLength is the shortest secretKey accepted in production.
const MinSecretKeyLength = 32

// SMTP holds outgoing mail server settings.
type SMTP struct {
	Host     string
	Port     int
	Username string
	Password string
}

// Config is the resolved application configuration.
type Config struct {
	Env     string
	Debug   bool
	Addr    string
	DBPath  string
	BaseURL string

	SiteName   string
	SecretKey  string
	SessionTTL time.Duration

	PasswordResetTimeout time.Duration

	UploadDir string

	EmailBackend     string // console, smtp or sendgrid
	SMTP             SMTP
	SendgridAPIKey   string
	DefaultFromEmail string
	ContactEmail     string

	PaystackSecretKey string
	PaystackBaseURL   string

	ExchangeRateURL string
	ExchangeRateTTL time.Duration

	AnalyticsID     string
	TagManagerID    string
	AdsenseClientID string

	RollbarToken string
}

func setDefaults(v *viper.Viper) {
	v.SetTypeByDefaultValue(true)
	v.SetDefault("env", "dev")
	v.SetDefault("debug", true)
	v.SetDefault("addr", ":8080")
	v.SetDefault("dbPath", "data/badger")
	v.SetDefault("baseURL", "http://localhost:8080")
	v.SetDefault("siteName", "Tipsvendor")
	v.SetDefault("secretKey", DevelopmentSecretKey)
	v.SetDefault("sessionTTL", 7*24*time.Hour)
	v.SetDefault("passwordResetTimeout", 3*24*time.Hour)
	v.SetDefault("uploadDir", "data/uploads")
	v.SetDefault("emailBackend", "console")
	v.SetDefault("smtp.host", "")
	v.SetDefault("smtp.port", 587)
	v.SetDefault("smtp.username", "")
	v.SetDefault("smtp.password", "")
	v.SetDefault("sendgridApiKey", "")
	v.SetDefault("defaultFromEmail", "noreply@tipsvendor.com")
	v.SetDefault("contactEmail", "support@tipsvendor.com")
	v.SetDefault("paystackSecretKey", "")
	v.SetDefault("paystackBaseURL", "https://api.paystack.co")
	v.SetDefault("exchangeRateURL", "https://open.er-api.com/v6/latest")
	v.SetDefault("exchangeRateTTL", time.Hour)
	v.SetDefault("analyticsID", "")
	v.SetDefault("tagManagerID", "")
	v.SetDefault("adsenseClientID", "")
	v.SetDefault("rollbarToken", "")
}

// New builds a viper instance with defaults and environment binding.
// Nested keys map to env vars with "_" (smtp.host -> TIPSVENDOR_SMTP_HOST).
func New() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads config/.env.<env> when present, then the environment.
func Load(workDir string) (*Config, error) {
	env := strings.ToLower(os.Getenv(EnvPrefix + "_ENV"))
	if env == "" {
		env = "dev"
	}

	dotEnvPath := filepath.Join(workDir, "config", ".env."+env)
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			return nil, fmt.Errorf("config.godotenv(%s): %w", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("config.os.Stat(%s): %w", dotEnvPath, err)
	}

	return FromViper(New()), nil
}

// FromViper resolves a Config from an already populated viper instance.
func FromViper(v *viper.Viper) *Config {
	return &Config{
		Env:                  v.GetString("env"),
		Debug:                v.GetBool("debug"),
		Addr:                 v.GetString("addr"),
		DBPath:               v.GetString("dbPath"),
		BaseURL:              strings.TrimRight(v.GetString("baseURL"), "/"),
		SiteName:             v.GetString("siteName"),
		SecretKey:            v.GetString("secretKey"),
		SessionTTL:           v.GetDuration("sessionTTL"),
		PasswordResetTimeout: v.GetDuration("passwordResetTimeout"),
		UploadDir:            v.GetString("uploadDir"),
		EmailBackend:         strings.ToLower(v.GetString("emailBackend")),
		SMTP: SMTP{
			Host:     v.GetString("smtp.host"),
			Port:     v.GetInt("smtp.port"),
			Username: v.GetString("smtp.username"),
			Password: v.GetString("smtp.password"),
		},
		SendgridAPIKey:    v.GetString("sendgridApiKey"),
		DefaultFromEmail:  v.GetString("defaultFromEmail"),
		ContactEmail:      v.GetString("contactEmail"),
		PaystackSecretKey: v.GetString("paystackSecretKey"),
		PaystackBaseURL:   strings.TrimRight(v.GetString("paystackBaseURL"), "/"),
		ExchangeRateURL:   strings.TrimRight(v.GetString("exchangeRateURL"), "/"),
		ExchangeRateTTL:   v.GetDuration("exchangeRateTTL"),
		AnalyticsID:       v.GetString("analyticsID"),
		TagManagerID:      v.GetString("tagManagerID"),
		AdsenseClientID:   v.GetString("adsenseClientID"),
		RollbarToken:      v.GetString("rollbarToken"),
	}
}

// IsProduction reports whether the app runs with production settings.
func (c *Config) IsProduction() bool {
	return c.Env == "prod" || c.Env == "production"
}

// Validate rejects settings that are only safe for development.
func (c *Config) Validate() error {
	if !c.IsProduction() {
		return nil
	}
	if c.SecretKey == DevelopmentSecretKey {
		return fmt.Errorf("config: secretKey is the development default; set %s_SECRETKEY", EnvPrefix)
	}
	if len(c.SecretKey) < MinSecretKeyLength {
		return fmt.Errorf("config: secretKey must be at least %d characters in production", MinSecretKeyLength)
	}
	return nil
}

// Default returns the configuration with only defaults applied.
// Tests use it to avoid picking up the host environment.
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	return FromViper(v)
}
