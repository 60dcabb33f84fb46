package config

import (
	"bytes"
	"flag"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, TransportBLE, cfg.Transport)
	assert.Equal(t, 10*time.Second, cfg.ScanTimeout)
	assert.Equal(t, 8, cfg.Digits)
	assert.Equal(t, "arduino", cfg.Subject)
	assert.Equal(t, time.Hour, cfg.TokenTTL)
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "smartdoor.yaml", `
transport: tcp
peers:
  - 127.0.0.1:7420
scan_timeout: 3s
digits: 6
passphrase: ignored
`)

	cfg := Default()
	require.NoError(t, cfg.LoadFile(path))
	assert.Equal(t, TransportTCP, cfg.Transport)
	assert.Equal(t, []string{"127.0.0.1:7420"}, cfg.Peers)
	assert.Equal(t, 3*time.Second, cfg.ScanTimeout)
	assert.Equal(t, 6, cfg.Digits)
	assert.Empty(t, cfg.Passphrase, "passphrase must not come from YAML")
	assert.Equal(t, "arduino", cfg.Subject, "unset keys keep defaults")

	bad := writeFile(t, dir, "bad.yaml", "digits: [")
	assert.Error(t, cfg.LoadFile(bad))
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"SMARTDOOR_TRANSPORT":  "TCP",
		"SMARTDOOR_PEERS":      "a:1, b:2,,",
		"SMARTDOOR_MDNS":       "true",
		"SMARTDOOR_TOKEN_TTL":  "90s",
		"SMARTDOOR_PASSPHRASE": "pw",
	}
	lookup := func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}

	cfg := Default()
	require.NoError(t, cfg.ApplyEnv(lookup))
	assert.Equal(t, TransportTCP, cfg.Transport)
	assert.Equal(t, []string{"a:1", "b:2"}, cfg.Peers)
	assert.True(t, cfg.Browse)
	assert.Equal(t, 90*time.Second, cfg.TokenTTL)
	assert.Equal(t, "pw", cfg.Passphrase)

	env["SMARTDOOR_DIGITS"] = "eight"
	err := cfg.ApplyEnv(lookup)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SMARTDOOR_DIGITS")
}

func TestEnvLookup(t *testing.T) {
	dir := t.TempDir()
	dotenv := writeFile(t, dir, ".env", "SMARTDOOR_SUBJECT=from-file\nSMARTDOOR_DIGITS=6\n")
	t.Setenv("SMARTDOOR_DIGITS", "7")

	lookup, err := EnvLookup(dotenv, filepath.Join(dir, "missing.env"))
	require.NoError(t, err)

	v, ok := lookup("SMARTDOOR_SUBJECT")
	assert.True(t, ok)
	assert.Equal(t, "from-file", v)

	v, _ = lookup("SMARTDOOR_DIGITS")
	assert.Equal(t, "7", v, "process environment wins over .env")

	_, ok = lookup("SMARTDOOR_NOT_SET_ANYWHERE")
	assert.False(t, ok)
}

func TestLoadLayering(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	path := writeFile(t, dir, "smartdoor.yaml", "transport: tcp\ndigits: 6\nsubject: yaml\nlog_level: warn\n")
	writeFile(t, dir, ".env", "SMARTDOOR_SUBJECT=dotenv\nSMARTDOOR_LOG_LEVEL=error\n")
	t.Setenv("SMARTDOOR_LOG_LEVEL", "debug")

	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	cfg, err := Load(fs, []string{"-config", path, "-digits", "8", "-peer", "10.0.0.2:7420"})
	require.NoError(t, err)

	assert.Equal(t, TransportTCP, cfg.Transport, "from YAML")
	assert.Equal(t, 8, cfg.Digits, "flag beats YAML")
	assert.Equal(t, "dotenv", cfg.Subject, ".env beats YAML")
	assert.Equal(t, "debug", cfg.LogLevel, "process env beats .env")
	assert.Equal(t, []string{"10.0.0.2:7420"}, cfg.Peers)
	assert.Equal(t, 10*time.Second, cfg.ScanTimeout, "unset flag keeps default")
}

func TestLoadRejectsInvalid(t *testing.T) {
	t.Chdir(t.TempDir())

	tests := [][]string{
		{"-transport", "usb"},
		{"-key-source", "cloud"},
		{"-digits", "11"},
		{"-scan-timeout", "0s"},
		{"-log-format", "xml"},
		{"-log-level", "loud"},
		{"-digits", "x"},
	}
	for _, args := range tests {
		fs := flag.NewFlagSet("test", flag.ContinueOnError)
		fs.SetOutput(&bytes.Buffer{})
		_, err := Load(fs, args)
		assert.Error(t, err, "%v", args)
	}
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	cfg := Default()
	cfg.LogFormat = "json"
	cfg.LogLevel = "warn"
	logger := cfg.NewLogger(&buf)

	logger.Info("hidden")
	logger.Warn("shown", "k", 1)
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"msg":"shown"`)
}
