package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoadEnvConfigDefaults(t *testing.T) {
	for _, key := range []string{
		"UPLOAD_MAX_SIZE_BYTES", "UPLOAD_ALLOWED_CONTENT_TYPES", "UPLOAD_ASSOCIATION_MODE",
		"UPLOAD_PRESIGN_TTL_SECONDS", "RECONCILE_INTERVAL_SECONDS", "RECONCILE_GRACE_PERIOD_SECONDS",
		"AUTH_ENABLED", "GRAFANA_OTLP_ENDPOINT",
	} {
		t.Setenv(key, "")
	}

	cfg := LoadEnvConfig()

	assert.Equal(t, int64(10*1024*1024), cfg.Upload.MaxSizeBytes)
	assert.Equal(t, []string{"image/jpeg", "image/jpg", "image/png", "image/gif"}, cfg.Upload.AllowedContentTypes)
	assert.Equal(t, AssociationModeMulti, cfg.Upload.AssociationMode)
	assert.Equal(t, 3600, cfg.Upload.PresignTTLSeconds)
	assert.Equal(t, 3600, cfg.Reconcile.IntervalSeconds)
	assert.Equal(t, 600, cfg.Reconcile.GracePeriodSeconds)
	assert.False(t, cfg.Auth.Enabled)
	assert.Empty(t, cfg.Grafana.OTLPEndpoint)
}

func TestLoadEnvConfigOverrides(t *testing.T) {
	t.Setenv("UPLOAD_MAX_SIZE_BYTES", "1024")
	t.Setenv("UPLOAD_ALLOWED_CONTENT_TYPES", "image/webp, image/png")
	t.Setenv("UPLOAD_ASSOCIATION_MODE", "single")
	t.Setenv("UPLOAD_PRESIGN_TTL_SECONDS", "120")
	t.Setenv("AUTH_ENABLED", "true")
	t.Setenv("GRAFANA_OTLP_ENDPOINT", "https://otlp.example.com")

	cfg := LoadEnvConfig()

	assert.Equal(t, int64(1024), cfg.Upload.MaxSizeBytes)
	assert.Equal(t, []string{"image/webp", "image/png"}, cfg.Upload.AllowedContentTypes)
	assert.Equal(t, AssociationModeSingle, cfg.Upload.AssociationMode)
	assert.Equal(t, 120, cfg.Upload.PresignTTLSeconds)
	assert.True(t, cfg.Auth.Enabled)
	assert.Equal(t, "otlp.example.com", cfg.Grafana.OTLPEndpoint, "scheme prefix is stripped for the exporter")
}

func TestLoadEnvConfigRejectsUnknownAssociationMode(t *testing.T) {
	t.Setenv("UPLOAD_ASSOCIATION_MODE", "both")

	cfg := LoadEnvConfig()
	assert.Equal(t, AssociationModeMulti, cfg.Upload.AssociationMode)
}
