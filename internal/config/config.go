package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/zalando/go-keyring"
	"gopkg.in/yaml.v3"

	"github.com/mdewey/gmcli/internal/mailbox"
)

const (
	AppName = "gmcli"

	// Keyring entries. One account per install, so the keys are fixed.
	keyringAppPassword = "app-password"
	keyringDelegated   = "oauth-credential"

	DefaultRedirectURL = "http://localhost:8089/callback"
	DefaultListenAddr  = "127.0.0.1:8089"
	DefaultFetchCap    = 100
)

// AccountConfig records which account is signed in and over which
// transport. No secrets live here: the app password and the delegated
// credential are keyring-only.
type AccountConfig struct {
	Address   string `yaml:"address"`
	Transport string `yaml:"transport"`
}

type OAuthConfig struct {
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`
	RedirectURL  string `yaml:"redirect_url"`
	ListenAddr   string `yaml:"listen_addr"`
}

type DefaultsConfig struct {
	PageSize int    `yaml:"page_size"`
	FetchCap int    `yaml:"fetch_cap"`
	Format   string `yaml:"format"`
}

type Config struct {
	Account  AccountConfig  `yaml:"account"`
	OAuth    OAuthConfig    `yaml:"oauth"`
	Defaults DefaultsConfig `yaml:"defaults"`
}

func DefaultConfig() *Config {
	return &Config{
		OAuth: OAuthConfig{
			RedirectURL: DefaultRedirectURL,
			ListenAddr:  DefaultListenAddr,
		},
		Defaults: DefaultsConfig{
			PageSize: 10,
			FetchCap: DefaultFetchCap,
			Format:   "text",
		},
	}
}

func ConfigDir() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to get config directory: %w", err)
	}
	return filepath.Join(configDir, AppName), nil
}

func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

func Load(path string) (*Config, error) {
	if path == "" {
		var err error
		path, err = ConfigPath()
		if err != nil {
			return nil, err
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config file not found at %s - run 'gmcli config init' to create one", path)
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return cfg, nil
}

// LoadOrDefault behaves like Load but treats a missing file as an
// empty config, so commands that can run before 'config init' still
// get the defaults.
func LoadOrDefault(path string) (*Config, error) {
	if path == "" {
		p, err := ConfigPath()
		if err != nil {
			return nil, err
		}
		path = p
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return DefaultConfig(), nil
	}
	return Load(path)
}

func (c *Config) Save(path string) error {
	if path == "" {
		var err error
		path, err = ConfigPath()
		if err != nil {
			return err
		}
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// Set assigns a config field by its dotted key, validating values that
// have a constrained domain.
func (c *Config) Set(key, value string) error {
	switch key {
	case "account.address":
		c.Account.Address = value
	case "account.transport":
		if value != string(mailbox.TransportAppPassword) && value != string(mailbox.TransportOAuth) {
			return fmt.Errorf("invalid transport %q (valid: %s, %s)",
				value, mailbox.TransportAppPassword, mailbox.TransportOAuth)
		}
		c.Account.Transport = value
	case "oauth.client_id":
		c.OAuth.ClientID = value
	case "oauth.client_secret":
		c.OAuth.ClientSecret = value
	case "oauth.redirect_url":
		c.OAuth.RedirectURL = value
	case "oauth.listen_addr":
		c.OAuth.ListenAddr = value
	case "defaults.page_size":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid page size %q", value)
		}
		valid := false
		for _, s := range mailbox.PageSizes {
			if n == s {
				valid = true
			}
		}
		if !valid {
			return fmt.Errorf("invalid page size %d (valid sizes: 10, 25, 50, 100)", n)
		}
		c.Defaults.PageSize = n
	case "defaults.fetch_cap":
		n, err := strconv.Atoi(value)
		if err != nil || n < 1 {
			return fmt.Errorf("invalid fetch cap %q", value)
		}
		c.Defaults.FetchCap = n
	case "defaults.format":
		if value != "text" && value != "json" {
			return fmt.Errorf("invalid format %q (valid: text, json)", value)
		}
		c.Defaults.Format = value
	default:
		return fmt.Errorf("unknown config key %q", key)
	}
	return nil
}

// SetAppPassword stores the App Password for the configured address in
// the OS keyring.
func (c *Config) SetAppPassword(secret string) error {
	if c.Account.Address == "" {
		return errors.New("address must be set before storing the App Password")
	}
	return keyring.Set(AppName, keyringAppPassword, secret)
}

func (c *Config) AppPassword() (string, error) {
	secret, err := keyring.Get(AppName, keyringAppPassword)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", fmt.Errorf("no App Password in keyring - run 'gmcli auth login' to sign in")
		}
		return "", fmt.Errorf("failed to get App Password from keyring: %w", err)
	}
	return secret, nil
}

func DeleteAppPassword() error {
	err := keyring.Delete(AppName, keyringAppPassword)
	if errors.Is(err, keyring.ErrNotFound) {
		return nil
	}
	return err
}

// SaveDelegatedCredential serializes the OAuth credential into the OS
// keyring. The config file never holds token material.
func SaveDelegatedCredential(cred *mailbox.DelegatedCredential) error {
	data, err := cred.Marshal()
	if err != nil {
		return fmt.Errorf("failed to serialize credential: %w", err)
	}
	return keyring.Set(AppName, keyringDelegated, string(data))
}

func LoadDelegatedCredential() (*mailbox.DelegatedCredential, error) {
	data, err := keyring.Get(AppName, keyringDelegated)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return nil, fmt.Errorf("no OAuth credential in keyring - run 'gmcli oauth login' to sign in")
		}
		return nil, fmt.Errorf("failed to get credential from keyring: %w", err)
	}
	cred, err := mailbox.UnmarshalDelegatedCredential([]byte(data))
	if err != nil {
		return nil, fmt.Errorf("stored credential is corrupt: %w", err)
	}
	return cred, nil
}

func DeleteDelegatedCredential() error {
	err := keyring.Delete(AppName, keyringDelegated)
	if errors.Is(err, keyring.ErrNotFound) {
		return nil
	}
	return err
}

func Exists() bool {
	path, err := ConfigPath()
	if err != nil {
		return false
	}
	_, err = os.Stat(path)
	return err == nil
}
