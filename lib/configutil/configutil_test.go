package configutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

type testConfig struct {
	BaseURL           string            `json:"base_url"`
	RequestsPerSecond float64           `json:"requests_per_second"`
	Username          string            `json:"username"`
	Endpoints         map[string]string `json:"endpoints"`
}

func writeFile(t *testing.T, path, contents string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(contents), 0600))
}

func TestReadConfigMergesLocal(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "fimfiction.json5"), `{
		// defaults
		base_url: "http://www.fimfiction.net",
		requests_per_second: 2,
		endpoints: {login: "/ajax/login.php"},
	}`)
	writeFile(t, filepath.Join(dir, "fimfiction.local.json5"), `{
		username: "reader",
		requests_per_second: 0.5,
	}`)

	config, err := ReadConfig[testConfig](filepath.Join(dir, "fimfiction.json5"))
	require.NoError(t, err)
	require.Equal(t, testConfig{
		BaseURL:           "http://www.fimfiction.net",
		RequestsPerSecond: 0.5,
		Username:          "reader",
		Endpoints:         map[string]string{"login": "/ajax/login.php"},
	}, config)
}

func TestReadConfigMissing(t *testing.T) {
	_, err := ReadConfig[testConfig](filepath.Join(t.TempDir(), "nothing.json5"))
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoadExplicitPath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "custom.json5")
	writeFile(t, path, `{username: "someone"}`)

	config, err := Load[testConfig](path, "fimfiction.json5")
	require.NoError(t, err)
	require.Equal(t, "someone", config.Username)
}

func TestSplitExt(t *testing.T) {
	cases := []struct {
		in   string
		name string
		ext  string
	}{
		{in: "fimfiction.json5", name: "fimfiction", ext: "json5"},
		{in: "a.b.json", name: "a.b", ext: "json"},
		{in: "noext", name: "noext", ext: ""},
	}
	for _, c := range cases {
		name, ext := splitExt(c.in)
		require.Equal(t, c.name, name)
		require.Equal(t, c.ext, ext)
	}
}

func TestEnvName(t *testing.T) {
	require.Equal(t, "FIMFICTION_CONFIG", EnvName("fimfiction.json5"))
	require.Equal(t, "FIMFICTION_CLI_CONFIG", EnvName("dir/fimfiction-cli.json5"))
}

func TestLoadEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "fimfiction.json5")
	writeFile(t, path, `{username: "someone", base_url: "http://www.fimfiction.net"}`)
	t.Setenv("FIMFICTION_CONFIG", `{username: "other"}`)

	config, err := Load[testConfig](path, "fimfiction.json5")
	require.NoError(t, err)
	require.Equal(t, "other", config.Username)
	require.Equal(t, "http://www.fimfiction.net", config.BaseURL)

	config, err = Load[testConfig](filepath.Join(dir, "missing.json5"), "fimfiction.json5")
	require.NoError(t, err)
	require.Equal(t, "other", config.Username)
	require.Empty(t, config.BaseURL)
}

func TestLoadMissing(t *testing.T) {
	t.Setenv("FIMFICTION_CONFIG", "")
	_, err := Load[testConfig](filepath.Join(t.TempDir(), "missing.json5"), "fimfiction.json5")
	require.ErrorIs(t, err, os.ErrNotExist)
}
