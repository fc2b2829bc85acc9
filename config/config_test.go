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
	t.Chdir(t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:11434/api/chat", cfg.OllamaURL)
	assert.Equal(t, "Vancouver, British Columbia", cfg.City)
	assert.Equal(t, "Vancouver", cfg.CityName())
	assert.Equal(t, 5, cfg.LeadCount)
	assert.Equal(t, "leads_output.txt", cfg.OutputFile)
	assert.Equal(t, 10*time.Second, cfg.FetchTimeout)
	assert.Equal(t, 15*time.Second, cfg.SearchTimeout)
	assert.InDelta(t, 0.1, cfg.Temperature, 1e-9)
	assert.False(t, cfg.SheetsEnabled())
	assert.False(t, cfg.TelegramEnabled())
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("OLLAMA_MODEL", "llama3.1")
	t.Setenv("LEADGEN_CITY", "Calgary, Alberta")
	t.Setenv("LEADGEN_LEAD_COUNT", "3")
	t.Setenv("LEADGEN_FETCH_TIMEOUT", "4s")
	t.Setenv("TELEGRAM_BOT_TOKEN", "123:abc")
	t.Setenv("TELEGRAM_CHAT_ID", "-1001")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "llama3.1", cfg.OllamaModel)
	assert.Equal(t, "Calgary", cfg.CityName())
	assert.Equal(t, 3, cfg.LeadCount)
	assert.Equal(t, 4*time.Second, cfg.FetchTimeout)
	assert.True(t, cfg.TelegramEnabled())
}

func TestLoadPrefixedEnvWins(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("OLLAMA_MODEL", "plain")
	t.Setenv("LEADGEN_OLLAMA_MODEL", "prefixed")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "prefixed", cfg.OllamaModel)
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "leadgen.yaml")
	require.NoError(t, os.WriteFile(path, []byte("city: Toronto, Ontario\noutput_file: toronto.txt\n"), 0o644))

	cfg, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "Toronto", cfg.CityName())
	assert.Equal(t, "toronto.txt", cfg.OutputFile)
}

func TestLoadFileMissing(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("LEADGEN_LEAD_COUNT", "0")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "lead_count")
}

func TestLoadIgnoresExtensionlessLeadgenFile(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	// A built binary lands next to the config as ./leadgen.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "leadgen"), []byte("\x7fELF\x02\x01\x01\x00\x00"), 0o755))

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "Vancouver, British Columbia", cfg.City)
}

func TestLoadReadsLeadgenYAMLBesideBinary(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "leadgen"), []byte("\x7fELF"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "leadgen.yaml"), []byte("lead_count: 7\n"), 0o644))

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.LeadCount)
}
