package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/ini.v1"
)

const (
	BackendHTTP = "http"
	BackendS3   = "s3"

	configFileName = ".sourcetabs.ini"
)

// Config holds the browser configuration parsed from .sourcetabs.ini
type Config struct {
	Backend     string
	ServerURL   string
	PageSize    int
	Sort        SortOrder
	IconSize    IconSize
	DownloadDir string
	Timeout     time.Duration
	LogFile     string
	LogLevel    string
	S3          S3Config

	// Path is the file the configuration was read from, empty for defaults
	Path string
}

// S3Config holds the settings of the S3 backend. Key names follow s3cmd's
// .s3cfg so an existing file can be pasted into the [s3] section.
// HostBucket and SignatureV2 are kept for that round trip only: requests
// are always path style and signed with SigV4.
type S3Config struct {
	AccessKey   string
	SecretKey   string
	HostBase    string
	HostBucket  string
	UseHTTPS    bool
	SignatureV2 bool
	Region      string
	Bucket      string
	Roots       []string
}

// DefaultConfig returns the configuration used when no file is found
func DefaultConfig() *Config {
	return &Config{
		Backend:     BackendHTTP,
		ServerURL:   "http://localhost:8000",
		PageSize:    DefaultPageSize,
		Sort:        SortByLastModified,
		IconSize:    IconNormal,
		DownloadDir: ".",
		Timeout:     30 * time.Second,
		LogFile:     filepath.Join(os.TempDir(), "sourcetabs.log"),
		LogLevel:    "info",
		S3: S3Config{
			HostBase:   "s3.amazonaws.com",
			HostBucket: "%(bucket)s.s3.amazonaws.com",
			UseHTTPS:   true,
			Region:     "us-east-1",
		},
	}
}

// configSearchPaths lists the locations tried when no file is given
func configSearchPaths() []string {
	return []string{
		configFileName,
		filepath.Join(os.Getenv("HOME"), configFileName),
		"/etc/sourcetabs.ini",
	}
}

// LoadConfig reads the configuration. An explicit path must exist; otherwise
// the standard locations are searched and defaults apply if none is found.
// The result is not validated so that flags can still override it.
func LoadConfig(explicit string) (*Config, error) {
	configPath := explicit
	if configPath == "" {
		for _, path := range configSearchPaths() {
			if _, err := os.Stat(path); err == nil {
				configPath = path
				break
			}
		}
	}

	cfg := DefaultConfig()
	if configPath == "" {
		return cfg, nil
	}

	file, err := ini.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", configPath, err)
	}
	if err := cfg.apply(file); err != nil {
		return nil, fmt.Errorf("invalid configuration in %s: %w", configPath, err)
	}
	cfg.Path = configPath
	return cfg, nil
}

func (c *Config) apply(file *ini.File) error {
	section := file.Section("default")

	c.Backend = strings.ToLower(section.Key("backend").MustString(c.Backend))
	c.ServerURL = section.Key("server_url").MustString(c.ServerURL)
	c.PageSize = section.Key("page_size").MustInt(c.PageSize)
	c.DownloadDir = section.Key("download_dir").MustString(c.DownloadDir)
	c.Timeout = section.Key("timeout").MustDuration(c.Timeout)
	c.LogFile = section.Key("log_file").MustString(c.LogFile)
	c.LogLevel = section.Key("log_level").MustString(c.LogLevel)

	var err error
	if c.Sort, err = ParseSortOrder(section.Key("sort").MustString(c.Sort.String())); err != nil {
		return err
	}
	if c.IconSize, err = ParseIconSize(section.Key("icon_size").MustString(c.IconSize.String())); err != nil {
		return err
	}

	s3 := file.Section("s3")
	c.S3 = S3Config{
		AccessKey:   s3.Key("access_key").String(),
		SecretKey:   s3.Key("secret_key").String(),
		HostBase:    s3.Key("host_base").MustString(c.S3.HostBase),
		HostBucket:  s3.Key("host_bucket").MustString(c.S3.HostBucket),
		UseHTTPS:    s3.Key("use_https").MustBool(c.S3.UseHTTPS),
		SignatureV2: s3.Key("signature_v2").MustBool(false),
		Region:      s3.Key("bucket_location").MustString(c.S3.Region),
		Bucket:      s3.Key("bucket").String(),
		Roots:       s3.Key("roots").Strings(","),
	}
	return nil
}

// Validate checks the settings the selected backend depends on
func (c *Config) Validate() error {
	if c.PageSize < 1 || c.PageSize > 100 {
		return fmt.Errorf("page_size must be between 1 and 100, got %d", c.PageSize)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}

	switch c.Backend {
	case BackendHTTP:
		if c.ServerURL == "" {
			return fmt.Errorf("server_url must be specified for the http backend")
		}
	case BackendS3:
		if c.S3.Bucket == "" {
			return fmt.Errorf("bucket must be specified in the [s3] section")
		}
	default:
		return fmt.Errorf("unknown backend %q (want http or s3)", c.Backend)
	}
	return nil
}

// ResolveS3Credentials fills missing S3 credentials from an s3cmd .s3cfg file
func (c *Config) ResolveS3Credentials() error {
	if c.S3.AccessKey != "" && c.S3.SecretKey != "" {
		return nil
	}

	s3cfg, err := LoadS3CmdConfig()
	if err != nil {
		return fmt.Errorf("no credentials in the [s3] section and %w", err)
	}

	bucket, roots := c.S3.Bucket, c.S3.Roots
	c.S3 = *s3cfg
	c.S3.Bucket, c.S3.Roots = bucket, roots
	return nil
}

// LoadS3CmdConfig loads S3 credentials from an s3cmd .s3cfg file
func LoadS3CmdConfig() (*S3Config, error) {
	configPaths := []string{
		".s3cfg",
		filepath.Join(os.Getenv("HOME"), ".s3cfg"),
		"/etc/s3cfg",
	}

	var configPath string
	for _, path := range configPaths {
		if _, err := os.Stat(path); err == nil {
			configPath = path
			break
		}
	}

	if configPath == "" {
		return nil, fmt.Errorf(".s3cfg file not found in any of the standard locations")
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
		return nil, fmt.Errorf("access_key and secret_key must be specified in .s3cfg")
	}

	return config, nil
}

// GetEndpointURL returns the endpoint URL for the S3 service
func (c *S3Config) GetEndpointURL() string {
	protocol := "https"
	if !c.UseHTTPS {
		protocol = "http"
	}
	return fmt.Sprintf("%s://%s", protocol, c.HostBase)
}

// InteractiveSetup asks for the essential settings and writes them to a file
func InteractiveSetup(in io.Reader, out io.Writer) (*Config, string, error) {
	scanner := bufio.NewScanner(in)
	ask := func(prompt string) (string, error) {
		fmt.Fprint(out, prompt)
		if !scanner.Scan() {
			return "", fmt.Errorf("failed to read input")
		}
		return strings.TrimSpace(scanner.Text()), nil
	}

	fmt.Fprintln(out, "sourcetabs interactive setup")
	fmt.Fprintln(out, "============================")
	fmt.Fprintln(out)

	config := DefaultConfig()

	backend, err := ask("Backend, http or s3 (default: http): ")
	if err != nil {
		return nil, "", err
	}
	if backend != "" {
		config.Backend = strings.ToLower(backend)
	}

	switch config.Backend {
	case BackendHTTP:
		server, err := ask(fmt.Sprintf("File service URL (default: %s): ", config.ServerURL))
		if err != nil {
			return nil, "", err
		}
		if server != "" {
			config.ServerURL = server
		}
	case BackendS3:
		if config.S3.Bucket, err = ask("Bucket: "); err != nil {
			return nil, "", err
		}
		if config.S3.AccessKey, err = ask("Access Key ID (empty to use ~/.s3cfg): "); err != nil {
			return nil, "", err
		}
		if config.S3.AccessKey != "" {
			if config.S3.SecretKey, err = ask("Secret Access Key: "); err != nil {
				return nil, "", err
			}
			hostBase, err := ask("S3 Endpoint (default: s3.amazonaws.com): ")
			if err != nil {
				return nil, "", err
			}
			if hostBase != "" {
				config.S3.HostBase = hostBase
				config.S3.HostBucket = hostBase + "/%(bucket)s"
			}
			config.S3.UseHTTPS = !strings.Contains(config.S3.HostBase, "localhost") && !strings.Contains(config.S3.HostBase, "127.0.0.1")
		}
		roots, err := ask("Root prefixes, comma separated (empty for top-level prefixes): ")
		if err != nil {
			return nil, "", err
		}
		for _, r := range strings.Split(roots, ",") {
			if r = strings.TrimSpace(r); r != "" {
				config.S3.Roots = append(config.S3.Roots, r)
			}
		}
	default:
		return nil, "", fmt.Errorf("unknown backend %q", config.Backend)
	}

	dir, err := ask("Download directory (default: current directory): ")
	if err != nil {
		return nil, "", err
	}
	if dir != "" {
		config.DownloadDir = dir
	}

	if err := config.Validate(); err != nil {
		return nil, "", err
	}

	fmt.Fprintln(out)
	fmt.Fprintln(out, "Where would you like to save this configuration?")
	fmt.Fprintf(out, "1. Current directory (%s)\n", configFileName)
	fmt.Fprintf(out, "2. Home directory (~/%s)\n", configFileName)
	choice, err := ask("Choice (1-2, default: 2): ")
	if err != nil {
		return nil, "", err
	}

	var configPath string
	switch choice {
	case "1":
		configPath = configFileName
	case "", "2":
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, "", fmt.Errorf("failed to get home directory: %w", err)
		}
		configPath = filepath.Join(homeDir, configFileName)
	default:
		return nil, "", fmt.Errorf("invalid choice")
	}

	if err := SaveConfig(config, configPath); err != nil {
		return nil, "", fmt.Errorf("failed to save configuration: %w", err)
	}
	config.Path = configPath

	fmt.Fprintf(out, "\nConfiguration saved to: %s\n", configPath)
	return config, configPath, nil
}

// SaveConfig writes the configuration as an ini file
func SaveConfig(config *Config, path string) error {
	cfg := ini.Empty()
	section := cfg.Section("default")

	section.Key("backend").SetValue(config.Backend)
	section.Key("server_url").SetValue(config.ServerURL)
	section.Key("page_size").SetValue(fmt.Sprint(config.PageSize))
	section.Key("sort").SetValue(config.Sort.String())
	section.Key("icon_size").SetValue(config.IconSize.String())
	section.Key("download_dir").SetValue(config.DownloadDir)
	section.Key("timeout").SetValue(config.Timeout.String())
	section.Key("log_file").SetValue(config.LogFile)
	section.Key("log_level").SetValue(config.LogLevel)

	if config.Backend == BackendS3 {
		s3 := cfg.Section("s3")
		if config.S3.AccessKey != "" {
			s3.Key("access_key").SetValue(config.S3.AccessKey)
			s3.Key("secret_key").SetValue(config.S3.SecretKey)
		}
		s3.Key("host_base").SetValue(config.S3.HostBase)
		s3.Key("host_bucket").SetValue(config.S3.HostBucket)
		if config.S3.UseHTTPS {
			s3.Key("use_https").SetValue("True")
		} else {
			s3.Key("use_https").SetValue("False")
		}
		if config.S3.SignatureV2 {
			s3.Key("signature_v2").SetValue("True")
		} else {
			s3.Key("signature_v2").SetValue("False")
		}
		s3.Key("bucket_location").SetValue(config.S3.Region)
		s3.Key("bucket").SetValue(config.S3.Bucket)
		if len(config.S3.Roots) > 0 {
			s3.Key("roots").SetValue(strings.Join(config.S3.Roots, ","))
		}
	}

	return cfg.SaveTo(path)
}
