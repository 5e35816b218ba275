package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolateConfig points the config file lookup at an empty temp location so
// a developer's real ~/.mcp-productboard/config.yaml never leaks into tests.
func isolateConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv(ConfigPathEnvVar, filepath.Join(dir, "config.yaml"))
	return dir
}

func TestLoadRequiresToken(t *testing.T) {
	isolateConfig(t)
	t.Setenv(APITokenEnvVar, "")

	_, err := Load(nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), APITokenEnvVar)
}

func TestLoadDefaults(t *testing.T) {
	isolateConfig(t)
	t.Setenv(APITokenEnvVar, "pb-token")
	t.Setenv(APIBaseURLEnvVar, "")
	t.Setenv(CacheTTLSecondsEnvVar, "")
	t.Setenv(CacheMaxEntriesEnvVar, "")
	t.Setenv(RateLimitPerMinuteEnvVar, "")

	cfg, err := Load(nil)
	require.NoError(t, err)

	assert.Equal(t, "pb-token", cfg.APIToken)
	assert.Equal(t, DefaultBaseURL, cfg.APIBaseURL)
	assert.Equal(t, DefaultCacheTTLSeconds, cfg.CacheTTLSeconds)
	assert.Equal(t, DefaultCacheMaxEntries, cfg.CacheMaxEntries)
	assert.Equal(t, DefaultRateLimitPerMinute, cfg.RateLimitPerMinute)
}

func TestLoadEnvOverrides(t *testing.T) {
	isolateConfig(t)
	t.Setenv(APITokenEnvVar, "pb-token")
	t.Setenv(APIBaseURLEnvVar, "https://api.example.test")
	t.Setenv(CacheTTLSecondsEnvVar, "120")
	t.Setenv(CacheMaxEntriesEnvVar, "50")
	t.Setenv(RateLimitPerMinuteEnvVar, "30")

	cfg, err := Load(nil)
	require.NoError(t, err)

	assert.Equal(t, "https://api.example.test", cfg.APIBaseURL)
	assert.Equal(t, 120, cfg.CacheTTLSeconds)
	assert.Equal(t, 50, cfg.CacheMaxEntries)
	assert.Equal(t, 30, cfg.RateLimitPerMinute)
}

func TestLoadIgnoresInvalidNumericEnv(t *testing.T) {
	isolateConfig(t)
	t.Setenv(APITokenEnvVar, "pb-token")
	t.Setenv(CacheTTLSecondsEnvVar, "not-a-number")
	t.Setenv(RateLimitPerMinuteEnvVar, "-5")

	cfg, err := Load(nil)
	require.NoError(t, err)

	assert.Equal(t, DefaultCacheTTLSeconds, cfg.CacheTTLSeconds)
	assert.Equal(t, DefaultRateLimitPerMinute, cfg.RateLimitPerMinute)
}

func TestLoadFromYAMLFile(t *testing.T) {
	dir := isolateConfig(t)
	path := filepath.Join(dir, "config.yaml")
	content := []byte("api_token: file-token\napi_base_url: https://file.example.test\ncache_ttl_seconds: 600\n")
	require.NoError(t, os.WriteFile(path, content, 0600))
	t.Setenv(APITokenEnvVar, "")

	cfg, err := Load(nil)
	require.NoError(t, err)

	assert.Equal(t, "file-token", cfg.APIToken)
	assert.Equal(t, "https://file.example.test", cfg.APIBaseURL)
	assert.Equal(t, 600, cfg.CacheTTLSeconds)
}

func TestLoadEnvBeatsFile(t *testing.T) {
	dir := isolateConfig(t)
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("api_token: file-token\n"), 0600))
	t.Setenv(APITokenEnvVar, "env-token")

	cfg, err := Load(nil)
	require.NoError(t, err)
	assert.Equal(t, "env-token", cfg.APIToken)
}

func TestLoadRejectsMalformedFile(t *testing.T) {
	dir := isolateConfig(t)
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("api_token: [unclosed\n"), 0600))

	_, err := Load(nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse config file")
}

func TestLoadMissingFileIsNotAnError(t *testing.T) {
	isolateConfig(t)
	t.Setenv(APITokenEnvVar, "pb-token")

	cfg, err := Load(nil)
	require.NoError(t, err)
	assert.Equal(t, "pb-token", cfg.APIToken)
}
