package config

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/term"
	"gopkg.in/ini.v1"

	"github.com/slmtnm/blobnav/internal/store/s3"
)

// ErrS3ConfigNotFound is returned when no .s3cfg exists in any search location.
var ErrS3ConfigNotFound = errors.New(".s3cfg file not found in any of the standard locations")

// S3Config holds the S3 configuration parsed from .s3cfg
type S3Config struct {
	AccessKey   string
	SecretKey   string
	HostBase    string
	HostBucket  string
	UseHTTPS    bool
	SignatureV2 bool
	Region      string
}

// S3ConfigPaths lists the locations searched for .s3cfg, in order.
func S3ConfigPaths() []string {
	paths := []string{".s3cfg"}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".s3cfg"))
	}
	return append(paths, "/etc/s3cfg")
}

// LoadS3Config loads configuration from the first .s3cfg found in paths,
// or in S3ConfigPaths when none are given.
func LoadS3Config(paths ...string) (*S3Config, error) {
	if len(paths) == 0 {
		paths = S3ConfigPaths()
	}

	var configPath string
	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			configPath = path
			break
		}
	}

	if configPath == "" {
		return nil, ErrS3ConfigNotFound
	}

	cfg, err := ini.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load .s3cfg: %w", err)
	}

	section := cfg.Section("default")

	config := &S3Config{
		AccessKey:   section.Key("access_key").String(),
		SecretKey:   section.Key("secret_key").String(),
		HostBase:    section.Key("host_base").MustString("s3.amazonaws.com"),
		HostBucket:  section.Key("host_bucket").MustString("%(bucket)s.s3.amazonaws.com"),
		UseHTTPS:    section.Key("use_https").MustBool(true),
		SignatureV2: section.Key("signature_v2").MustBool(false),
		Region:      section.Key("bucket_location").MustString("us-east-1"),
	}

	if config.AccessKey == "" || config.SecretKey == "" {
		return nil, &Error{Key: "access_key", Reason: "access_key and secret_key must be specified in " + configPath}
	}

	return config, nil
}

// EndpointURL returns the endpoint URL for the S3 service
func (c *S3Config) EndpointURL() string {
	protocol := "https"
	if !c.UseHTTPS {
		protocol = "http"
	}
	return fmt.Sprintf("%s://%s", protocol, c.HostBase)
}

// StoreConfig converts the file settings into adapter settings.
func (c *S3Config) StoreConfig() s3.Config {
	return s3.Config{
		Endpoint:        c.EndpointURL(),
		Region:          c.Region,
		AccessKeyID:     c.AccessKey,
		SecretAccessKey: c.SecretKey,
	}
}

// CanPrompt reports whether f is an interactive terminal. A nil f never is.
func CanPrompt(f *os.File) bool {
	return f != nil && term.IsTerminal(int(f.Fd()))
}

// InteractiveS3Setup asks for S3 credentials on in, echoes prompts to out,
// and saves the answers as a new .s3cfg.
func InteractiveS3Setup(in io.Reader, out io.Writer) (*S3Config, error) {
	scanner := bufio.NewScanner(in)
	ask := func(prompt, what string) (string, error) {
		fmt.Fprint(out, prompt)
		if !scanner.Scan() {
			return "", fmt.Errorf("failed to read %s", what)
		}
		return strings.TrimSpace(scanner.Text()), nil
	}

	fmt.Fprintln(out, "🔧 blobnav Interactive Setup")
	fmt.Fprintln(out, "===========================")
	fmt.Fprintln(out)
	fmt.Fprintln(out, "No .s3cfg configuration file found.")
	fmt.Fprintln(out, "Would you like to create one interactively? (y/N)")

	response, err := ask("> ", "input")
	if err != nil {
		return nil, err
	}
	response = strings.ToLower(response)
	if response != "y" && response != "yes" {
		return nil, fmt.Errorf("setup declined by user")
	}

	fmt.Fprintln(out)
	fmt.Fprintln(out, "Common configurations:")
	fmt.Fprintln(out, "  • AWS S3: Use your AWS credentials and s3.amazonaws.com")
	fmt.Fprintln(out, "  • MinIO local: Use minioadmin/minioadmin123 and localhost:9000")
	fmt.Fprintln(out, "  • Other S3-compatible: Use your service's endpoint and credentials")
	fmt.Fprintln(out)

	config := &S3Config{}

	if config.AccessKey, err = ask("Access Key ID: ", "access key"); err != nil {
		return nil, err
	}
	if config.AccessKey == "" {
		return nil, fmt.Errorf("access key cannot be empty")
	}

	if config.SecretKey, err = ask("Secret Access Key: ", "secret key"); err != nil {
		return nil, err
	}
	if config.SecretKey == "" {
		return nil, fmt.Errorf("secret key cannot be empty")
	}

	hostBase, err := ask("S3 Endpoint (default: s3.amazonaws.com): ", "endpoint")
	if err != nil {
		return nil, err
	}
	config.HostBase = hostBase
	if config.HostBase == "" {
		config.HostBase = "s3.amazonaws.com"
	}

	// Set host bucket based on endpoint
	if config.HostBase == "s3.amazonaws.com" {
		config.HostBucket = "%(bucket)s.s3.amazonaws.com"
	} else {
		config.HostBucket = config.HostBase + "/%(bucket)s"
	}

	region, err := ask("Region (default: us-east-1): ", "region")
	if err != nil {
		return nil, err
	}
	config.Region = region
	if config.Region == "" {
		config.Region = "us-east-1"
	}

	config.UseHTTPS = !strings.Contains(config.HostBase, "localhost") && !strings.Contains(config.HostBase, "127.0.0.1")

	fmt.Fprintln(out)
	fmt.Fprintf(out, "Configuration summary:\n")
	fmt.Fprintf(out, "  Endpoint: %s\n", config.EndpointURL())
	fmt.Fprintf(out, "  Region: %s\n", config.Region)
	fmt.Fprintf(out, "  HTTPS: %t\n", config.UseHTTPS)
	fmt.Fprintln(out)

	fmt.Fprintln(out, "Where would you like to save this configuration?")
	fmt.Fprintln(out, "1. Current directory (.s3cfg)")
	fmt.Fprintln(out, "2. Home directory (~/.s3cfg)")
	choice, err := ask("Choice (1-2, default: 2): ", "save location")
	if err != nil {
		return nil, err
	}

	var configPath string
	switch choice {
	case "1":
		configPath = ".s3cfg"
	case "", "2":
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		configPath = filepath.Join(homeDir, ".s3cfg")
	default:
		return nil, fmt.Errorf("invalid choice %q", choice)
	}

	if err := SaveS3Config(config, configPath); err != nil {
		return nil, fmt.Errorf("failed to save configuration: %w", err)
	}

	fmt.Fprintf(out, "\n✅ Configuration saved to: %s\n\n", configPath)

	return config, nil
}

// SaveS3Config writes the configuration to path in s3cmd format.
func SaveS3Config(config *S3Config, path string) error {
	cfg := ini.Empty()
	section := cfg.Section("default")

	section.Key("access_key").SetValue(config.AccessKey)
	section.Key("secret_key").SetValue(config.SecretKey)
	section.Key("host_base").SetValue(config.HostBase)
	section.Key("host_bucket").SetValue(config.HostBucket)
	section.Key("use_https").SetValue(pyBool(config.UseHTTPS))
	section.Key("signature_v2").SetValue(pyBool(config.SignatureV2))
	section.Key("bucket_location").SetValue(config.Region)

	return cfg.SaveTo(path)
}

// pyBool renders booleans the way s3cmd writes them.
func pyBool(b bool) string {
	if b {
		return "True"
	}
	return "False"
}
