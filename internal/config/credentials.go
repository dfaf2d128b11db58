package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"tw/internal/xclient"
)

const (
	DefaultProfile         = "default"
	DefaultCredentialsFile = ".twitter_credentials.toml"
)

// ErrProfileNotFound is returned when the credentials file has no table for
// the requested profile.
var ErrProfileNotFound = errors.New("profile not found in credentials file")

// Profile is one table of the credentials file.
type Profile struct {
	APIKey            string `toml:"api_key"`
	APIKeySecret      string `toml:"api_key_secret"`
	AccessToken       string `toml:"access_token"`
	AccessTokenSecret string `toml:"access_token_secret"`
	Handle            string `toml:"handle"`
}

// Credentials converts the profile for the API client.
func (p Profile) Credentials() xclient.Credentials {
	return xclient.Credentials{
		APIKey:            p.APIKey,
		APIKeySecret:      p.APIKeySecret,
		AccessToken:       p.AccessToken,
		AccessTokenSecret: p.AccessTokenSecret,
	}
}

// ExpandPath resolves a leading ~ and bare file names against the home
// directory.
func ExpandPath(p string) string {
	switch {
	case p == "~":
		return homeDir()
	case strings.HasPrefix(p, "~/"):
		return filepath.Join(homeDir(), p[2:])
	case !filepath.IsAbs(p) && !strings.ContainsRune(p, os.PathSeparator):
		return filepath.Join(homeDir(), p)
	}
	return p
}

// LoadProfile reads path and returns the named profile. The profile must
// carry all four secrets.
func LoadProfile(path, name string) (Profile, error) {
	if name == "" {
		name = DefaultProfile
	}
	profiles := map[string]Profile{}
	if _, err := toml.DecodeFile(path, &profiles); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Profile{}, fmt.Errorf("credentials file %s does not exist, run `tw init`: %w", path, err)
		}
		return Profile{}, fmt.Errorf("parse credentials file %s: %w", path, err)
	}
	p, ok := profiles[name]
	if !ok {
		return Profile{}, fmt.Errorf("%w: %s", ErrProfileNotFound, name)
	}
	if err := p.Credentials().Validate(); err != nil {
		return Profile{}, fmt.Errorf("profile %s: %w", name, err)
	}
	return p, nil
}

// InitCredentials writes an empty default profile when path is missing or
// empty. It never overwrites content and reports whether it wrote.
func InitCredentials(path string) (bool, error) {
	info, err := os.Stat(path)
	switch {
	case err == nil && info.Size() > 0:
		return false, nil
	case err != nil && !errors.Is(err, fs.ErrNotExist):
		return false, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return false, err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return false, err
	}
	defer f.Close()
	if err := toml.NewEncoder(f).Encode(map[string]Profile{DefaultProfile: {}}); err != nil {
		return false, err
	}
	return true, f.Close()
}
