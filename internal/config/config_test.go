package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var envKeys = []string{
	"HTTP_ADDR", "SHUTDOWN_TIMEOUT", "LOG_LEVEL", "APP_ID", "INITIAL_AUTH_TOKEN",
	"ANONYMOUS_UID", "FIREBASE_CONFIG", "GOOGLE_APPLICATION_CREDENTIALS", "CATALOG_SOURCE", "CATALOG_FILE",
	"MESSAGING_BASE_URL", "MERCHANT_PHONE", "CURRENCY_LABEL", "LOCALE", "CHECKOUT_GREETING",
	"SESSION_BACKEND", "REDIS_ADDR", "SESSION_TTL", "SESSION_COOKIE",
	"OTEL_EXPORTER_OTLP_ENDPOINT", "TRACE_STDOUT",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range envKeys {
		t.Setenv(k, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	c, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":8080", c.HTTPAddr)
	assert.Equal(t, 15*time.Second, c.ShutdownTimeout)
	assert.Equal(t, "hampers-ghania-pro", c.AppID)
	assert.Empty(t, c.InitialAuthToken)
	assert.Equal(t, "storefront-anonymous", c.AnonymousUID)
	assert.Equal(t, SourceFile, c.CatalogSource)
	assert.Equal(t, "https://wa.me", c.MessagingBaseURL)
	assert.Equal(t, "62895334016084", c.MerchantPhone)
	assert.Equal(t, "Rp", c.CurrencyLabel)
	assert.Equal(t, "id", c.Locale)
	assert.Equal(t, BackendMemory, c.SessionBackend)
	assert.Equal(t, 24*time.Hour, c.SessionTTL)
	assert.False(t, c.TraceStdout)
	require.NoError(t, c.Validate())
}

func TestLoadEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("SHUTDOWN_TIMEOUT", "2")
	t.Setenv("APP_ID", "ghania-staging")
	t.Setenv("INITIAL_AUTH_TOKEN", "tok")
	t.Setenv("ANONYMOUS_UID", "ghania-reader")
	t.Setenv("FIREBASE_CONFIG", `{"projectId":"ghania-dev","apiKey":"k"}`)
	t.Setenv("CATALOG_SOURCE", "firestore")
	t.Setenv("SESSION_BACKEND", "redis")
	t.Setenv("SESSION_TTL", "60")
	t.Setenv("TRACE_STDOUT", "true")
	c, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":9090", c.HTTPAddr)
	assert.Equal(t, 2*time.Second, c.ShutdownTimeout)
	assert.Equal(t, "ghania-staging", c.AppID)
	assert.Equal(t, "tok", c.InitialAuthToken)
	assert.Equal(t, "ghania-reader", c.AnonymousUID)
	assert.Equal(t, "ghania-dev", c.Platform.ProjectID)
	assert.Equal(t, SourceFirestore, c.CatalogSource)
	assert.Equal(t, BackendRedis, c.SessionBackend)
	assert.Equal(t, time.Minute, c.SessionTTL)
	assert.True(t, c.TraceStdout)
}

func TestLoadBadPlatformBlob(t *testing.T) {
	clearEnv(t)
	t.Setenv("FIREBASE_CONFIG", "{not json")
	c, err := Load()
	require.Error(t, err)
	assert.Equal(t, ":8080", c.HTTPAddr)
	assert.Empty(t, c.Platform.ProjectID)
}

func TestLoadFileOverlay(t *testing.T) {
	clearEnv(t)
	base, err := Load()
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "storefront.yaml")
	body := "http_addr: \":7000\"\ncatalog_source: static\nsession_ttl: 30m\nplatform:\n  projectId: from-file\n"
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	c, err := LoadFile(base, path)
	require.NoError(t, err)
	assert.Equal(t, ":7000", c.HTTPAddr)
	assert.Equal(t, SourceStatic, c.CatalogSource)
	assert.Equal(t, 30*time.Minute, c.SessionTTL)
	assert.Equal(t, "from-file", c.Platform.ProjectID)
	assert.Equal(t, "Rp", c.CurrencyLabel)
}

func TestLoadFileRejectsUnknownSource(t *testing.T) {
	clearEnv(t)
	base, err := Load()
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("catalog_source: ftp\n"), 0o600))
	_, err = LoadFile(base, path)
	assert.Error(t, err)
}
