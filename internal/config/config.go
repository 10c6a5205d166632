// Package config loads server settings from the environment, an optional
// .env file and an optional YAML file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/portfolio/backend/internal/mailer"
)

// ErrInvalid is wrapped by every validation failure returned from Load.
var ErrInvalid = errors.New("invalid configuration")

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Port               int      `yaml:"port"`
	Env                string   `yaml:"env"`
	FrontendURL        string   `yaml:"frontend_url"`
	CORSOrigins        []string `yaml:"cors_origins"`
	CORSOriginSuffixes []string `yaml:"cors_origin_suffixes"`
	LogLevel           string   `yaml:"log_level"`
	LogFormat          string   `yaml:"log_format"`
	TrustedProxies     int      `yaml:"trusted_proxies"`
	MetricsEnabled     bool     `yaml:"metrics_enabled"`
	BotScoreThreshold  int      `yaml:"bot_score_threshold"`

	Mail      MailConfig      `yaml:"mail"`
	Owner     OwnerConfig     `yaml:"owner"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
}

type MailConfig struct {
	Host       string        `yaml:"host"`
	Port       int           `yaml:"port"`
	User       string        `yaml:"user"`
	Pass       string        `yaml:"pass"`
	AdminEmail string        `yaml:"admin_email"`
	FromName   string        `yaml:"from_name"`
	SendRate   float64       `yaml:"send_rate"`
	Timeout    time.Duration `yaml:"timeout"`
	Timezone   string        `yaml:"timezone"`
}

type OwnerConfig struct {
	Name        string `yaml:"name"`
	Title       string `yaml:"title"`
	GitHubURL   string `yaml:"github_url"`
	LinkedInURL string `yaml:"linkedin_url"`
}

type RateLimitConfig struct {
	Contact int           `yaml:"contact"`
	API     int           `yaml:"api"`
	Window  time.Duration `yaml:"window"`
}

// Default returns the settings used when nothing else is configured.
func Default() Config {
	return Config{
		Port:               5000,
		Env:                EnvDevelopment,
		FrontendURL:        "http://localhost:3000",
		CORSOrigins:        []string{"http://localhost:3000", "http://localhost:3001"},
		CORSOriginSuffixes: []string{".vercel.app"},
		LogLevel:           "INFO",
		LogFormat:          "json",
		MetricsEnabled:     true,
		BotScoreThreshold:  5,
		Mail: MailConfig{
			Host:     "smtp.gmail.com",
			Port:     587,
			FromName: "Portfolio Contact",
			Timeout:  15 * time.Second,
			Timezone: "Asia/Kolkata",
		},
		Owner: OwnerConfig{
			Name: "Portfolio Owner",
		},
		RateLimit: RateLimitConfig{
			Contact: 3,
			API:     100,
			Window:  15 * time.Minute,
		},
	}
}

// Load reads .env (if present), then the YAML file named by CONFIG_FILE (if
// set), then environment variables, and validates the result.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Default()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return Config{}, err
		}
	}
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return Config{}, err
	}
	if cfg.Mail.AdminEmail == "" {
		cfg.Mail.AdminEmail = cfg.Mail.User
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(b, c); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	e := envReader{lookup: lookup}

	e.integer("PORT", &c.Port)
	e.str("APP_ENV", &c.Env)
	e.str("FRONTEND_URL", &c.FrontendURL)
	e.list("CORS_ORIGINS", &c.CORSOrigins)
	e.list("CORS_ORIGIN_SUFFIXES", &c.CORSOriginSuffixes)
	e.str("LOG_LEVEL", &c.LogLevel)
	e.str("LOG_FORMAT", &c.LogFormat)
	e.integer("TRUSTED_PROXIES", &c.TrustedProxies)
	e.boolean("METRICS_ENABLED", &c.MetricsEnabled)
	e.integer("BOT_SCORE_THRESHOLD", &c.BotScoreThreshold)

	e.str("SMTP_HOST", &c.Mail.Host)
	e.integer("SMTP_PORT", &c.Mail.Port)
	e.str("EMAIL_USER", &c.Mail.User)
	e.str("EMAIL_PASS", &c.Mail.Pass)
	e.str("ADMIN_EMAIL", &c.Mail.AdminEmail)
	e.str("MAIL_FROM_NAME", &c.Mail.FromName)
	e.float("MAIL_SEND_RATE", &c.Mail.SendRate)
	e.duration("MAIL_TIMEOUT", &c.Mail.Timeout)
	e.str("MAIL_TIMEZONE", &c.Mail.Timezone)

	e.str("OWNER_NAME", &c.Owner.Name)
	e.str("OWNER_TITLE", &c.Owner.Title)
	e.str("OWNER_GITHUB_URL", &c.Owner.GitHubURL)
	e.str("OWNER_LINKEDIN_URL", &c.Owner.LinkedInURL)

	e.integer("CONTACT_RATE_LIMIT", &c.RateLimit.Contact)
	e.integer("API_RATE_LIMIT", &c.RateLimit.API)
	e.duration("RATE_LIMIT_WINDOW", &c.RateLimit.Window)

	return errors.Join(e.errs...)
}

// Validate checks ranges and required combinations.
func (c Config) Validate() error {
	var errs []error
	bad := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalid}, args...)...))
	}

	if c.Port < 1 || c.Port > 65535 {
		bad("port %d out of range", c.Port)
	}
	if c.Env != EnvDevelopment && c.Env != EnvProduction && c.Env != "test" {
		bad("unknown environment %q", c.Env)
	}
	if c.Mail.Port < 1 || c.Mail.Port > 65535 {
		bad("smtp port %d out of range", c.Mail.Port)
	}
	if c.Mail.Timeout <= 0 {
		bad("mail timeout must be positive")
	}
	if c.Mail.SendRate < 0 {
		bad("mail send rate must not be negative")
	}
	if c.RateLimit.Contact < 1 || c.RateLimit.API < 1 {
		bad("rate limits must be positive")
	}
	if c.RateLimit.Window <= 0 {
		bad("rate limit window must be positive")
	}
	if c.TrustedProxies < 0 {
		bad("trusted proxies must not be negative")
	}
	if c.BotScoreThreshold < 0 {
		bad("bot score threshold must not be negative")
	}
	if c.IsProduction() && (c.Mail.User == "" || c.Mail.Pass == "") {
		bad("EMAIL_USER and EMAIL_PASS are required in production")
	}
	return errors.Join(errs...)
}

func (c Config) IsProduction() bool { return c.Env == EnvProduction }

// Addr is the listen address.
func (c Config) Addr() string { return ":" + strconv.Itoa(c.Port) }

// Location resolves Mail.Timezone, falling back to UTC.
func (c Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Mail.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// MailerConfig maps the mail and owner settings onto mailer.Config.
func (c Config) MailerConfig() mailer.Config {
	return mailer.Config{
		Host:        c.Mail.Host,
		Port:        c.Mail.Port,
		Username:    c.Mail.User,
		Password:    c.Mail.Pass,
		AdminEmail:  c.Mail.AdminEmail,
		FromName:    c.Mail.FromName,
		OwnerName:   c.Owner.Name,
		OwnerTitle:  c.Owner.Title,
		GitHubURL:   c.Owner.GitHubURL,
		LinkedInURL: c.Owner.LinkedInURL,
		Product:     "Portfolio Contact System",
		SendRate:    c.Mail.SendRate,
		Timeout:     c.Mail.Timeout,
		Location:    c.Location(),
	}
}

// AllowedOrigins is FrontendURL plus CORSOrigins, without duplicates.
func (c Config) AllowedOrigins() []string {
	out := []string{}
	seen := map[string]bool{}
	for _, o := range append([]string{c.FrontendURL}, c.CORSOrigins...) {
		o = strings.TrimRight(strings.TrimSpace(o), "/")
		if o == "" || seen[o] {
			continue
		}
		seen[o] = true
		out = append(out, o)
	}
	return out
}

type envReader struct {
	lookup func(string) (string, bool)
	errs   []error
}

func (e *envReader) get(key string) (string, bool) {
	v, ok := e.lookup(key)
	if !ok {
		return "", false
	}
	v = strings.TrimSpace(v)
	return v, v != ""
}

func (e *envReader) fail(key, v string, err error) {
	e.errs = append(e.errs, fmt.Errorf("%w: %s=%q: %v", ErrInvalid, key, v, err))
}

func (e *envReader) str(key string, dst *string) {
	if v, ok := e.get(key); ok {
		*dst = v
	}
}

func (e *envReader) list(key string, dst *[]string) {
	v, ok := e.get(key)
	if !ok {
		return
	}
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	*dst = out
}

func (e *envReader) integer(key string, dst *int) {
	if v, ok := e.get(key); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			e.fail(key, v, err)
			return
		}
		*dst = n
	}
}

func (e *envReader) float(key string, dst *float64) {
	if v, ok := e.get(key); ok {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			e.fail(key, v, err)
			return
		}
		*dst = f
	}
}

func (e *envReader) boolean(key string, dst *bool) {
	if v, ok := e.get(key); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			e.fail(key, v, err)
			return
		}
		*dst = b
	}
}

func (e *envReader) duration(key string, dst *time.Duration) {
	if v, ok := e.get(key); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			e.fail(key, v, err)
			return
		}
		*dst = d
	}
}
