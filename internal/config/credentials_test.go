package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleCredentials = `
[default]
api_key = "ck"
api_key_secret = "cs"
access_token = "at"
access_token_secret = "as"
handle = "tw_dev"

[alt1]
api_key = "ck2"
api_key_secret = "cs2"
access_token = "at2"
access_token_secret = ""
`

func writeCredentials(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "creds.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadProfile(t *testing.T) {
	path := writeCredentials(t, sampleCredentials)
	p, err := LoadProfile(path, "")
	require.NoError(t, err)
	assert.Equal(t, "tw_dev", p.Handle)
	assert.Equal(t, "as", p.Credentials().AccessTokenSecret)
}

func TestLoadProfileIncomplete(t *testing.T) {
	path := writeCredentials(t, sampleCredentials)
	_, err := LoadProfile(path, "alt1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "access_token_secret")
}

func TestLoadProfileNotFound(t *testing.T) {
	path := writeCredentials(t, sampleCredentials)
	_, err := LoadProfile(path, "ghost")
	assert.True(t, errors.Is(err, ErrProfileNotFound))
	assert.Contains(t, err.Error(), "ghost")
}

func TestLoadProfileMissingFile(t *testing.T) {
	_, err := LoadProfile(filepath.Join(t.TempDir(), "none.toml"), "default")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "tw init")
}

func TestInitCredentials(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "creds.toml")
	wrote, err := InitCredentials(path)
	require.NoError(t, err)
	assert.True(t, wrote)

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(b), "[default]")
	assert.Contains(t, string(b), `api_key_secret = ""`)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	// existing content is never overwritten
	require.NoError(t, os.WriteFile(path, []byte(sampleCredentials), 0o600))
	wrote, err = InitCredentials(path)
	require.NoError(t, err)
	assert.False(t, wrote)
	b, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, sampleCredentials, string(b))
}

func TestInitCredentialsFillsEmptyFile(t *testing.T) {
	path := writeCredentials(t, "")
	wrote, err := InitCredentials(path)
	require.NoError(t, err)
	assert.True(t, wrote)
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".twitter_credentials.toml"), ExpandPath("~/.twitter_credentials.toml"))
	assert.Equal(t, filepath.Join(home, ".twitter_credentials.toml"), ExpandPath(".twitter_credentials.toml"))
	assert.Equal(t, filepath.Join(home, "alt.toml"), ExpandPath("alt.toml"))
	assert.Equal(t, "/etc/tw.toml", ExpandPath("/etc/tw.toml"))
	assert.Equal(t, "./local.toml", ExpandPath("./local.toml"))
}
