package cli

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	yaml "gopkg.in/yaml.v3"
)

// Config holds CLI configuration
type Config struct {
	ServerURL string
	Token     string
	TokenFile string
	Output    string
	Verbose   bool
}

// DefaultConfig returns a Config with default values
func DefaultConfig() *Config {
	return &Config{
		ServerURL: getEnvOrDefault("DLEAGUE_SERVER", "http://localhost:8080"),
		Token:     os.Getenv("DLEAGUE_TOKEN"),
		TokenFile: getEnvOrDefault("DLEAGUE_TOKEN_FILE", defaultTokenFile()),
		Output:    "text",
		Verbose:   false,
	}
}

// sessionFile is the saved-login store. Tokens are keyed by server URL, so
// one file serves several leagues and a token only goes back to the server
// that issued it.
type sessionFile struct {
	Sessions map[string]savedSession `yaml:"sessions"`
}

type savedSession struct {
	Token   string    `yaml:"token"`
	Player  string    `yaml:"player,omitempty"`
	SavedAt time.Time `yaml:"saved_at"`
}

// NormalizeServer checks ServerURL is an http(s) base URL and drops any
// trailing slash so the same server always maps to the same saved session
func (c *Config) NormalizeServer() error {
	u, err := url.Parse(strings.TrimSpace(c.ServerURL))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("server %q must be an http:// or https:// URL", c.ServerURL)
	}
	u.Path = strings.TrimRight(u.Path, "/")
	c.ServerURL = u.String()
	return nil
}

// LoadToken picks up the saved token for ServerURL unless a token was
// given on the command line or in the environment
func (c *Config) LoadToken() error {
	if c.Token != "" {
		return nil
	}

	f, err := c.readSessions()
	if err != nil {
		return err
	}
	c.Token = f.Sessions[c.ServerURL].Token
	return nil
}

// SaveToken records a fresh login for ServerURL, keeping other servers' sessions
func (c *Config) SaveToken(token, player string) error {
	c.Token = token

	f, err := c.readSessions()
	if err != nil {
		return err
	}
	f.Sessions[c.ServerURL] = savedSession{Token: token, Player: player, SavedAt: time.Now().UTC()}
	return c.writeSessions(f)
}

// ClearToken forgets the session for ServerURL. The file goes once no
// sessions are left; a missing file is not an error.
func (c *Config) ClearToken() error {
	c.Token = ""

	f, err := c.readSessions()
	if err != nil {
		return err
	}
	delete(f.Sessions, c.ServerURL)
	if len(f.Sessions) == 0 {
		if err := os.Remove(c.TokenFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return err
		}
		return nil
	}
	return c.writeSessions(f)
}

func (c *Config) readSessions() (*sessionFile, error) {
	f := &sessionFile{Sessions: map[string]savedSession{}}

	info, err := os.Stat(c.TokenFile)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return f, nil
		}
		return nil, err
	}
	if info.Mode().Perm()&0o077 != 0 {
		return nil, fmt.Errorf("token file %s is readable by other users; run chmod 600 on it", c.TokenFile)
	}

	data, err := os.ReadFile(c.TokenFile)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, f); err != nil {
		return nil, fmt.Errorf("token file %s: %w", c.TokenFile, err)
	}
	if f.Sessions == nil {
		f.Sessions = map[string]savedSession{}
	}
	return f, nil
}

// writeSessions replaces the file in one rename so a crash never leaves
// it half written
func (c *Config) writeSessions(f *sessionFile) error {
	data, err := yaml.Marshal(f)
	if err != nil {
		return err
	}

	dir := filepath.Dir(c.TokenFile)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".sessions-*")
	if err != nil {
		return err
	}
	defer func() {
		_ = os.Remove(tmp.Name())
	}()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), c.TokenFile)
}

// defaultTokenFile lives under the user config dir ($XDG_CONFIG_HOME on Linux)
func defaultTokenFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return filepath.Join(".dartleague", "sessions.yaml")
	}
	return filepath.Join(dir, "dartleague", "sessions.yaml")
}

func getEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}
