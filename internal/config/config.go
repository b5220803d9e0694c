// Package config resolves blobnav settings from flags, environment and
// defaults through viper, and reads s3cmd-style credential files.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"

	"github.com/slmtnm/blobnav/internal/logging"
	"github.com/slmtnm/blobnav/internal/store"
)

// Configuration keys.
const (
	KeyBackend        = "backend"
	KeyAzureAccount   = "azure.account"
	KeyAzureAccessKey = "azure.access_key"
	KeyAzureEndpoint  = "azure.endpoint"
	KeyLocalRoot      = "local.root"
	KeyDownloadDir    = "download_dir"
	KeyLogLevel       = "log_level"
	KeyLogFile        = "log_file"
	KeyIcons          = "icons"
)

// Fixed environment variables for the Azure storage account.
const (
	EnvAzureAccount   = "AZURE_STORAGE_ACCOUNT"
	EnvAzureAccessKey = "AZURE_STORAGE_ACCESS_KEY"
)

// EnvPrefix prefixes every other environment variable.
const EnvPrefix = "BLOBNAV"

// Config holds the resolved application configuration.
type Config struct {
	// Backend selects the storage implementation: azure, s3 or local.
	Backend store.Backend

	Azure AzureConfig

	// LocalRoot is the directory whose sub-directories are served as
	// containers by the local backend.
	LocalRoot string

	// DownloadDir pre-fills the download destination prompt.
	DownloadDir string

	LogLevel string
	LogFile  string

	// Icons forces an icon set (unicode, ascii, minimal). Empty means detect.
	Icons string
}

// AzureConfig holds the storage account identity.
type AzureConfig struct {
	Account   string
	AccessKey string
	Endpoint  string
}

// Error reports an invalid or missing setting.
type Error struct {
	Key    string
	Env    string
	Reason string
}

func (e *Error) Error() string {
	if e.Env != "" {
		return fmt.Sprintf("invalid configuration: %s (%s): %s", e.Key, e.Env, e.Reason)
	}
	return fmt.Sprintf("invalid configuration: %s: %s", e.Key, e.Reason)
}

// SetDefaults registers default values on v.
func SetDefaults(v *viper.Viper) {
	wd, err := os.Getwd()
	if err != nil {
		wd = "."
	}

	v.SetDefault(KeyBackend, string(store.BackendAzure))
	v.SetDefault(KeyLocalRoot, ".")
	v.SetDefault(KeyDownloadDir, wd)
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyLogFile, logging.DefaultPath())
	v.SetDefault(KeyIcons, "")
}

// BindEnv maps environment variables onto v. Keys are looked up as
// BLOBNAV_<KEY> with dots replaced by underscores, except for the Azure
// account variables which keep their conventional names.
func BindEnv(v *viper.Viper) error {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.BindEnv(KeyAzureAccount, EnvAzureAccount); err != nil {
		return fmt.Errorf("failed to bind %s: %w", EnvAzureAccount, err)
	}
	if err := v.BindEnv(KeyAzureAccessKey, EnvAzureAccessKey); err != nil {
		return fmt.Errorf("failed to bind %s: %w", EnvAzureAccessKey, err)
	}
	return nil
}

// Load reads the configuration out of v and validates it.
func Load(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		Backend: store.Backend(strings.ToLower(strings.TrimSpace(v.GetString(KeyBackend)))),
		Azure: AzureConfig{
			Account:   v.GetString(KeyAzureAccount),
			AccessKey: v.GetString(KeyAzureAccessKey),
			Endpoint:  v.GetString(KeyAzureEndpoint),
		},
		LocalRoot:   v.GetString(KeyLocalRoot),
		DownloadDir: v.GetString(KeyDownloadDir),
		LogLevel:    strings.ToLower(v.GetString(KeyLogLevel)),
		LogFile:     v.GetString(KeyLogFile),
		Icons:       v.GetString(KeyIcons),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that the selected backend has what it needs.
func (c *Config) Validate() error {
	switch c.Backend {
	case store.BackendAzure:
		if c.Azure.Account == "" {
			return &Error{Key: KeyAzureAccount, Env: EnvAzureAccount, Reason: "environment variable not set"}
		}
		if c.Azure.AccessKey == "" {
			return &Error{Key: KeyAzureAccessKey, Env: EnvAzureAccessKey, Reason: "environment variable not set"}
		}
	case store.BackendS3:
		// Credentials come from .s3cfg.
	case store.BackendLocal:
		if c.LocalRoot == "" {
			return &Error{Key: KeyLocalRoot, Env: EnvPrefix + "_LOCAL_ROOT", Reason: "cannot be empty"}
		}
	default:
		return &Error{Key: KeyBackend, Env: EnvPrefix + "_BACKEND", Reason: fmt.Sprintf("unknown backend %q", c.Backend)}
	}

	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return &Error{Key: KeyLogLevel, Env: EnvPrefix + "_LOG_LEVEL", Reason: fmt.Sprintf("unknown level %q", c.LogLevel)}
	}
	return nil
}
