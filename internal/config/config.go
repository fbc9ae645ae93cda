// Package config provides runtime configuration values for the storefront.
package config

import (
	"encoding/json"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Catalog source kinds.
const (
	SourceFirestore = "firestore"
	SourceFile      = "file"
	SourceStatic    = "static"
)

// Session backends.
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

// Platform is the decoded hosting platform blob (Firebase web config).
type Platform struct {
	ProjectID     string `json:"projectId" yaml:"projectId"`
	APIKey        string `json:"apiKey" yaml:"apiKey"`
	AuthDomain    string `json:"authDomain" yaml:"authDomain"`
	StorageBucket string `json:"storageBucket" yaml:"storageBucket"`
	AppID         string `json:"appId" yaml:"appId"`
}

// Config is built once at startup and passed down explicitly.
type Config struct {
	HTTPAddr        string        `yaml:"http_addr"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	LogLevel        string        `yaml:"log_level"`

	AppID            string   `yaml:"app_id"`
	InitialAuthToken string   `yaml:"initial_auth_token"`
	AnonymousUID     string   `yaml:"anonymous_uid"`
	Platform         Platform `yaml:"platform"`
	CredentialsFile  string   `yaml:"credentials_file"`

	CatalogSource string `yaml:"catalog_source"`
	CatalogFile   string `yaml:"catalog_file"`

	MessagingBaseURL string `yaml:"messaging_base_url"`
	MerchantPhone    string `yaml:"merchant_phone"`
	CurrencyLabel    string `yaml:"currency_label"`
	Locale           string `yaml:"locale"`
	Greeting         string `yaml:"checkout_greeting"`

	SessionBackend string        `yaml:"session_backend"`
	RedisAddr      string        `yaml:"redis_addr"`
	SessionTTL     time.Duration `yaml:"session_ttl"`
	SessionCookie  string        `yaml:"session_cookie"`

	OTLPEndpoint string `yaml:"otlp_endpoint"`
	TraceStdout  bool   `yaml:"trace_stdout"`
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func atoienv(key string, def int) int {
	v := getenv(key, "")
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func boolenv(key string, def bool) bool {
	v := getenv(key, "")
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func durenvs(key string, defSec int) time.Duration {
	sec := atoienv(key, defSec)
	return time.Duration(sec) * time.Second
}

// ParsePlatform decodes the serialized platform blob. An empty blob is valid.
func ParsePlatform(blob string) (Platform, error) {
	var p Platform
	if strings.TrimSpace(blob) == "" {
		return p, nil
	}
	if err := json.Unmarshal([]byte(blob), &p); err != nil {
		return p, errors.Wrap(err, "decode platform config")
	}
	return p, nil
}

// Load collects configuration from environment with defaults.
// A malformed FIREBASE_CONFIG is reported but the rest of the config is usable.
func Load() (Config, error) {
	platform, err := ParsePlatform(os.Getenv("FIREBASE_CONFIG"))
	cfg := Config{
		HTTPAddr:        getenv("HTTP_ADDR", ":8080"),
		ShutdownTimeout: durenvs("SHUTDOWN_TIMEOUT", 15),
		LogLevel:        getenv("LOG_LEVEL", "info"),

		AppID:            getenv("APP_ID", "hampers-ghania-pro"),
		InitialAuthToken: os.Getenv("INITIAL_AUTH_TOKEN"),
		AnonymousUID:     getenv("ANONYMOUS_UID", "storefront-anonymous"),
		Platform:         platform,
		CredentialsFile:  os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"),

		CatalogSource: getenv("CATALOG_SOURCE", SourceFile),
		CatalogFile:   getenv("CATALOG_FILE", "catalog.yaml"),

		MessagingBaseURL: getenv("MESSAGING_BASE_URL", "https://wa.me"),
		MerchantPhone:    getenv("MERCHANT_PHONE", "62895334016084"),
		CurrencyLabel:    getenv("CURRENCY_LABEL", "Rp"),
		Locale:           getenv("LOCALE", "id"),
		Greeting:         getenv("CHECKOUT_GREETING", "Halo Dapur Ghania, saya pesan:"),

		SessionBackend: getenv("SESSION_BACKEND", BackendMemory),
		RedisAddr:      getenv("REDIS_ADDR", "localhost:6379"),
		SessionTTL:     durenvs("SESSION_TTL", 24*60*60),
		SessionCookie:  getenv("SESSION_COOKIE", "storefront_session"),

		OTLPEndpoint: os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
		TraceStdout:  boolenv("TRACE_STDOUT", false),
	}
	return cfg, err
}

// LoadFile overlays the non-zero values of a YAML file onto base.
func LoadFile(base Config, path string) (Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return base, errors.Wrapf(err, "read config %s", path)
	}
	// decoding into a copy keeps fields absent from the file untouched
	cfg := base
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return base, errors.Wrapf(err, "parse config %s", path)
	}
	return cfg, cfg.Validate()
}

// Validate rejects settings the service cannot start with.
func (c Config) Validate() error {
	switch c.CatalogSource {
	case SourceFirestore, SourceFile, SourceStatic:
	default:
		return errors.Errorf("unknown catalog source %q", c.CatalogSource)
	}
	switch c.SessionBackend {
	case BackendMemory, BackendRedis:
	default:
		return errors.Errorf("unknown session backend %q", c.SessionBackend)
	}
	if c.AppID == "" {
		return errors.New("app id is required")
	}
	if c.MerchantPhone == "" {
		return errors.New("merchant phone is required")
	}
	return nil
}
