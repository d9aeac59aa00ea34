package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const baseYAML = `
app:
  name: attribsync-test
mysql:
  dsn: "user:pass@tcp(127.0.0.1:3306)/attribsync"
redis:
  addr: "127.0.0.1:6379"
lmstfy:
  host: "127.0.0.1"
  queue: "attribsync"
`

func TestLoadPreferTaggingDefaultsTrue(t *testing.T) {
	cfg, err := Load(writeConfig(t, baseYAML))
	require.NoError(t, err)

	assert.True(t, cfg.Correlation.PreferTagging)
}

func TestLoadPreferTaggingExplicitFalse(t *testing.T) {
	cfg, err := Load(writeConfig(t, baseYAML+`
correlation:
  prefer_tagging: false
`))
	require.NoError(t, err)

	assert.False(t, cfg.Correlation.PreferTagging)
}

func TestLoadAppliesDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, baseYAML))
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, 100, cfg.Sync.PageSize)
}

func TestValidateServerRequiresServiceToken(t *testing.T) {
	cfg, err := Load(writeConfig(t, baseYAML))
	require.NoError(t, err)

	require.NoError(t, cfg.Validate())

	err = cfg.ValidateServer()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "server.service_token")

	cfg.Server.ServiceToken = "token-1"
	assert.NoError(t, cfg.ValidateServer())
}

func TestValidateMissingRequired(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
app:
  name: attribsync-test
`))
	require.NoError(t, err)

	assert.Error(t, cfg.Validate())
}
