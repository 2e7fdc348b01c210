package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, "https://api.jikan.moe/v4", cfg.Catalog.BaseURL)
	assert.Equal(t, 10*time.Second, cfg.Catalog.Timeout)
	assert.Equal(t, "fr", cfg.Bot.DefaultLocale)
	assert.Empty(t, cfg.Auth.IssuerURL)
	assert.Less(t, cfg.Enrich.MissTTL, cfg.Enrich.CacheTTL, "misses are retried sooner than hits")
}

func TestLoadFileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "anidex.yaml")
	yamlDoc := `
server:
  addr: ":9000"
catalog:
  timeout: 3s
bot:
  username: anidexbot
streaming:
  sites:
    - name: Example
      slug_url: "https://example.test/anime/%s/"
      search_url: "https://example.test/?s=%s"
`
	require.NoError(t, os.WriteFile(path, []byte(yamlDoc), 0o600))

	t.Setenv("ANIDEX_SERVER__ADDR", ":9100")
	t.Setenv("ANIDEX_DATABASE__DSN", ":memory:")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9100", cfg.Server.Addr, "env wins over file")
	assert.Equal(t, 3*time.Second, cfg.Catalog.Timeout)
	assert.Equal(t, "anidexbot", cfg.Bot.Username)
	assert.Equal(t, ":memory:", cfg.Database.DSN)
	require.Len(t, cfg.Streaming.Sites, 1)
	assert.Equal(t, "Example", cfg.Streaming.Sites[0].Name)
}

func TestLoadRejectsInvalid(t *testing.T) {
	t.Setenv("ANIDEX_LOGGING__FORMAT", "xml")

	_, err := Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid configuration")
}

func TestAuthAudienceRequiredWithIssuer(t *testing.T) {
	cfg := defaultConfig()
	cfg.Auth.IssuerURL = "https://issuer.example.com"
	require.Error(t, cfg.Validate())

	cfg.Auth.Audience = "anidex-gateway"
	require.NoError(t, cfg.Validate())
}
