package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleYAML = `
listen: ":9090"
timeout: 45s
log:
  level: debug
  format: json
connections:
  - name: prod
    host: tower.example.com
    username: admin
    password: secret
  - name: lab
    scheme: http
    host: awx.lab
    port: 8052
`

// clearEnv blanks every TOWER_* variable for the duration of the test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"TOWER_LISTEN", "TOWER_HOST", "TOWER_SCHEME", "TOWER_PORT", "TOWER_USERNAME",
		"TOWER_PASSWORD", "TOWER_INSECURE", "TOWER_CA_CERT_FILE", "TOWER_LOG_LEVEL",
		"TOWER_LOG_FORMAT", "TOWER_LOG_OUTPUT", "TOWER_LOG_FILE",
	} {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestParse_Defaults(t *testing.T) {
	clearEnv(t)
	cfg, rest, err := Parse(nil)
	require.NoError(t, err)
	assert.Empty(t, rest)
	assert.Equal(t, ":8080", cfg.Listen)
	assert.Equal(t, 30*time.Second, cfg.Timeout)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
	assert.Equal(t, "stderr", cfg.Log.Output)
	assert.Empty(t, cfg.Connections)
}

func TestParse_File(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, "tower.yaml", sampleYAML)

	cfg, rest, err := Parse([]string{"--config", path, "templates"})
	require.NoError(t, err)
	assert.Equal(t, []string{"templates"}, rest)
	assert.Equal(t, ":9090", cfg.Listen)
	assert.Equal(t, 45*time.Second, cfg.Timeout)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	require.Len(t, cfg.Connections, 2)
	assert.Equal(t, "prod", cfg.Connections[0].Name)
	assert.Equal(t, 8052, cfg.Connections[1].Port)
}

func TestParse_FlagsWinOverFileAndEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("TOWER_LOG_LEVEL", "warn")
	t.Setenv("TOWER_LISTEN", ":7000")
	path := writeFile(t, "tower.yaml", sampleYAML)

	cfg, rest, err := Parse([]string{"-c", path, "--listen", ":1234", "launch", "10", "--limit", "web"})
	require.NoError(t, err)
	assert.Equal(t, ":1234", cfg.Listen)
	assert.Equal(t, "warn", cfg.Log.Level, "env overrides the file")
	assert.Equal(t, []string{"launch", "10", "--limit", "web"}, rest)
}

func TestParse_EnvConnection(t *testing.T) {
	clearEnv(t)
	t.Setenv("TOWER_HOST", "tower.internal")
	t.Setenv("TOWER_USERNAME", "ops")
	t.Setenv("TOWER_PASSWORD", "pw")
	t.Setenv("TOWER_PORT", "8443")
	t.Setenv("TOWER_INSECURE", "true")

	cfg, _, err := Parse([]string{"--connection", "env"})
	require.NoError(t, err)
	require.Len(t, cfg.Connections, 1)
	cc := cfg.Connections[0]
	assert.Equal(t, EnvConnectionName, cc.Name)
	assert.Equal(t, "tower.internal", cc.Host)
	assert.Equal(t, 8443, cc.Port)
	assert.True(t, cc.Insecure)

	selected, err := cfg.Select()
	require.NoError(t, err)
	assert.Equal(t, "ops", selected.Username)
}

func TestParse_Errors(t *testing.T) {
	clearEnv(t)

	_, _, err := Parse([]string{"--config", filepath.Join(t.TempDir(), "missing.yaml")})
	assert.Error(t, err)

	bad := writeFile(t, "bad.yaml", "listen: [unterminated")
	_, _, err = Parse([]string{"--config", bad})
	assert.Error(t, err)

	_, _, err = Parse([]string{"--no-such-flag"})
	assert.Error(t, err)

	t.Setenv("TOWER_HOST", "h")
	t.Setenv("TOWER_PORT", "not-a-number")
	_, _, err = Parse(nil)
	assert.Error(t, err)
}

func TestSelect(t *testing.T) {
	cfg := &Config{Connections: []ConnectionConfig{{Name: "a"}, {Name: "b"}}}

	cc, err := cfg.Select()
	require.NoError(t, err)
	assert.Equal(t, "a", cc.Name)

	cfg.Connection = "b"
	cc, err = cfg.Select()
	require.NoError(t, err)
	assert.Equal(t, "b", cc.Name)

	cfg.Connection = "c"
	_, err = cfg.Select()
	assert.Error(t, err)

	_, err = (&Config{}).Select()
	assert.Error(t, err)
}

func TestConnectionConfig_ToConnection(t *testing.T) {
	conn, err := ConnectionConfig{Name: "prod", Host: "tower.example.com"}.ToConnection()
	require.NoError(t, err)
	assert.Equal(t, "https", conn.Scheme)
	assert.Equal(t, 443, conn.Port)
	assert.Equal(t, "https://tower.example.com:443", conn.BaseURL())

	ca := writeFile(t, "ca.pem", "-----BEGIN CERTIFICATE-----\n")
	conn, err = ConnectionConfig{Host: "h", Scheme: "http", CACertFile: ca}.ToConnection()
	require.NoError(t, err)
	assert.Equal(t, 80, conn.Port)
	assert.Contains(t, conn.CACert, "BEGIN CERTIFICATE")

	_, err = ConnectionConfig{Host: "h", CACertFile: "/nonexistent/ca.pem"}.ToConnection()
	assert.Error(t, err)
}
