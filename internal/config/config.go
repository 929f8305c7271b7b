// Package config persists the CLI's local settings: named server profiles
// with the remembered server URL, username and last session token. This is
// the settings collaborator the API client core stays agnostic of.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const defaultServerURL = "http://localhost:8001/api"

// Config is the on-disk CLI configuration.
type Config struct {
	CurrentProfile string              `yaml:"current_profile" mapstructure:"current_profile"`
	Profiles       map[string]*Profile `yaml:"profiles" mapstructure:"profiles"`

	path string
}

// Profile holds the settings for one server.
type Profile struct {
	ServerURL string `yaml:"server_url" mapstructure:"server_url"`
	Username  string `yaml:"username,omitempty" mapstructure:"username"`
	// AccessToken is the last session token, restored into the client on
	// startup so an operator does not re-login between invocations.
	AccessToken string `yaml:"access_token,omitempty" mapstructure:"access_token"`
	// SuccessConvention selects how login/format responses report success:
	// "status" (HTTP status only, default) or "flag" (status plus a
	// "success" boolean in the body, as older servers do).
	SuccessConvention string `yaml:"success_convention,omitempty" mapstructure:"success_convention"`
}

// Default returns an empty configuration with a default profile name.
func Default() *Config {
	return &Config{
		CurrentProfile: "default",
		Profiles:       make(map[string]*Profile),
	}
}

// Dir returns the configuration directory, honoring DBADM_CONFIG_DIR.
func Dir() (string, error) {
	if dir := os.Getenv("DBADM_CONFIG_DIR"); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("determine home directory: %w", err)
	}
	return filepath.Join(home, ".dbadm"), nil
}

// Load reads the configuration through viper so DBADM_* environment
// variables override file values. A missing file is not an error.
func Load(cfgFile string) (*Config, error) {
	if cfgFile == "" {
		dir, err := Dir()
		if err != nil {
			return nil, err
		}
		cfgFile = filepath.Join(dir, "config.yaml")
	}

	v := viper.New()
	v.SetConfigFile(cfgFile)
	v.SetConfigType("yaml")
	v.SetDefault("current_profile", "default")

	v.SetEnvPrefix("DBADM")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	_ = v.ReadInConfig() // file may not exist yet

	cfg := Default()
	cfg.path = cfgFile
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if cfg.Profiles == nil {
		cfg.Profiles = make(map[string]*Profile)
	}

	// Env override for the server URL of the active profile.
	if url := os.Getenv("DBADM_SERVER_URL"); url != "" {
		p := cfg.Profiles[cfg.CurrentProfile]
		if p == nil {
			p = &Profile{}
			cfg.Profiles[cfg.CurrentProfile] = p
		}
		p.ServerURL = url
	}

	return cfg, nil
}

// Save writes the configuration back to its file with owner-only permissions
// (it may contain a session token).
func (c *Config) Save() error {
	if c.path == "" {
		dir, err := Dir()
		if err != nil {
			return err
		}
		c.path = filepath.Join(dir, "config.yaml")
	}

	if err := os.MkdirAll(filepath.Dir(c.path), 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(c.path, data, 0o600)
}

// GetProfile returns the named profile, or the current one for "".
func (c *Config) GetProfile(name string) (*Profile, error) {
	if name == "" {
		name = c.CurrentProfile
	}
	p, ok := c.Profiles[name]
	if !ok {
		return nil, fmt.Errorf("profile %q not found", name)
	}
	return p, nil
}

// ProfileOrDefault returns the named profile, creating one pointed at the
// default server URL if it does not exist yet.
func (c *Config) ProfileOrDefault(name string) *Profile {
	if name == "" {
		name = c.CurrentProfile
	}
	if p, ok := c.Profiles[name]; ok {
		return p
	}
	p := &Profile{ServerURL: defaultServerURL}
	c.Profiles[name] = p
	return p
}

// SaveProfile stores the profile and marks it current.
func (c *Config) SaveProfile(name string, p *Profile) error {
	if name == "" {
		name = c.CurrentProfile
	}
	c.Profiles[name] = p
	c.CurrentProfile = name
	return c.Save()
}

// ClearToken drops the remembered session token for the named profile.
func (c *Config) ClearToken(name string) error {
	p, err := c.GetProfile(name)
	if err != nil {
		return err
	}
	p.AccessToken = ""
	return c.Save()
}

// RemoveProfile deletes the named profile.
func (c *Config) RemoveProfile(name string) error {
	if _, ok := c.Profiles[name]; !ok {
		return fmt.Errorf("profile %q not found", name)
	}
	delete(c.Profiles, name)
	if c.CurrentProfile == name {
		c.CurrentProfile = ""
	}
	return c.Save()
}
