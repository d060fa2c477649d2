package configutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

type testConfig struct {
	BaseUrl     string `json:"base_url"`
	AccessToken string `json:"access_token"`
}

func TestReadConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sitetester.json5")
	err := os.WriteFile(path, []byte(`{
		// comments are allowed
		base_url: "https://audit.example.com",
		access_token: "tok",
	}`), 0644)
	require.NoError(t, err)

	config, err := ReadConfig[testConfig](path)
	require.NoError(t, err)
	require.Equal(t, "https://audit.example.com", config.BaseUrl)
	require.Equal(t, "tok", config.AccessToken)
}

func TestReadConfigLocalOverride(t *testing.T) {
	dir := t.TempDir()
	err := os.WriteFile(
		filepath.Join(dir, "sitetester.json5"),
		[]byte(`{base_url: "https://audit.example.com", access_token: "tok"}`),
		0644,
	)
	require.NoError(t, err)
	err = os.WriteFile(
		filepath.Join(dir, "sitetester.local.json5"),
		[]byte(`{access_token: "local-tok"}`),
		0644,
	)
	require.NoError(t, err)

	config, err := ReadConfig[testConfig](filepath.Join(dir, "sitetester.json5"))
	require.NoError(t, err)
	require.Equal(t, "https://audit.example.com", config.BaseUrl)
	require.Equal(t, "local-tok", config.AccessToken)
}

func TestReadConfigMissing(t *testing.T) {
	dir := t.TempDir()
	_, err := ReadConfig[testConfig](filepath.Join(dir, "nope.json5"))
	require.ErrorIs(t, err, os.ErrNotExist)
}
