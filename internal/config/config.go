// Package config provides configuration management for box-browse.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/ini.v1"

	"github.com/rescale/box-browse/internal/constants"
)

// Environment variables that override the config file.
const (
	EnvDeveloperToken = "BOX_DEVELOPER_TOKEN"
	EnvAPIURL         = "BOX_API_URL"
)

// Config holds everything needed to talk to Box and browse it.
//
// Config file location:
//   - Windows: %USERPROFILE%\.config\box-browse\config
//   - Unix: ~/.config/box-browse/config
//
// INI format:
//
//	[box]
//	api_url = https://api.box.com/2.0
//	developer_token = <token>
//	additional_fields = description, created_by
//
//	[proxy]
//	mode = no-proxy
//	host = proxy.corp
//	port = 8080
//	user = jdoe
//	no_proxy = localhost, 10.0.0.0/8
//	warmup = false
//
//	[browse]
//	folder_page_size = 30
//	search_page_size = 15
//	search_debounce = 350ms
//	requests_per_second = 10
//
//	[thumbnails]
//	concurrency = 4
//	size = 128
//	cache_count = 200
//	cache_cost = 8388608
//
//	[log]
//	level = info
type Config struct {
	// Box connection settings
	APIBaseURL       string   `validate:"required,url"`
	Token            string   `validate:"required"`
	AdditionalFields []string `validate:"dive,required"`

	// Proxy settings
	ProxyMode     string `validate:"oneof=no-proxy system basic ntlm"`
	ProxyHost     string
	ProxyPort     int `validate:"gte=0,lte=65535"`
	ProxyUser     string
	ProxyPassword string // never persisted
	NoProxy       string // Comma-separated list of hosts to bypass proxy
	ProxyWarmup   bool

	// Browsing
	FolderPageSize    int           `validate:"gte=1,lte=1000"`
	SearchPageSize    int           `validate:"gte=1,lte=200"`
	SearchDebounce    time.Duration `validate:"gte=0"`
	RequestsPerSecond float64       `validate:"gt=0"`

	// Thumbnails
	ThumbnailConcurrency int   `validate:"gte=1,lte=32"`
	ThumbnailSize        int   `validate:"gte=16,lte=1024"`
	CacheCountLimit      int   `validate:"gte=0"`
	CacheCostLimit       int64 `validate:"gte=0"`

	LogLevel string `validate:"oneof=debug info warn error"`
}

// Validation errors
var (
	ErrMissingToken     = errors.New("developer_token is required (set it in the config file or " + EnvDeveloperToken + ")")
	ErrMissingProxyHost = errors.New("proxy host is required for basic and ntlm proxy modes")
)

var validate = validator.New()

// Default returns a config with default values and no token.
func Default() *Config {
	return &Config{
		APIBaseURL:           constants.DefaultAPIBaseURL,
		ProxyMode:            "no-proxy",
		FolderPageSize:       constants.FolderPageSize,
		SearchPageSize:       constants.SearchPageSize,
		SearchDebounce:       constants.SearchDebounce,
		RequestsPerSecond:    constants.DefaultRequestsPerSecond,
		ThumbnailConcurrency: constants.ThumbnailConcurrency,
		ThumbnailSize:        constants.DefaultThumbnailSize,
		CacheCountLimit:      constants.ImageCacheCountLimit,
		CacheCostLimit:       constants.ImageCacheCostLimit,
		LogLevel:             "info",
	}
}

// DefaultPath returns the default path for the config file.
func DefaultPath() (string, error) {
	dir, err := ConfigDirectory()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config"), nil
}

// Load reads configuration from an INI file and applies environment
// overrides. A missing file yields defaults. An empty path means the
// default location.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		var err error
		path, err = DefaultPath()
		if err != nil {
			cfg.ApplyEnv()
			return cfg, nil
		}
	}

	if _, err := os.Stat(path); err == nil {
		iniFile, err := ini.Load(path)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg.readINI(iniFile)
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to stat config: %w", err)
	}

	cfg.ApplyEnv()
	return cfg, nil
}

func (cfg *Config) readINI(f *ini.File) {
	box := f.Section("box")
	cfg.APIBaseURL = box.Key("api_url").MustString(cfg.APIBaseURL)
	cfg.Token = box.Key("developer_token").String()
	if box.HasKey("additional_fields") {
		cfg.AdditionalFields = box.Key("additional_fields").Strings(",")
	}

	proxy := f.Section("proxy")
	cfg.ProxyMode = proxy.Key("mode").MustString(cfg.ProxyMode)
	cfg.ProxyHost = proxy.Key("host").String()
	cfg.ProxyPort = proxy.Key("port").MustInt(0)
	cfg.ProxyUser = proxy.Key("user").String()
	cfg.NoProxy = proxy.Key("no_proxy").String()
	cfg.ProxyWarmup = proxy.Key("warmup").MustBool(false)

	browse := f.Section("browse")
	cfg.FolderPageSize = browse.Key("folder_page_size").MustInt(cfg.FolderPageSize)
	cfg.SearchPageSize = browse.Key("search_page_size").MustInt(cfg.SearchPageSize)
	cfg.SearchDebounce = browse.Key("search_debounce").MustDuration(cfg.SearchDebounce)
	cfg.RequestsPerSecond = browse.Key("requests_per_second").MustFloat64(cfg.RequestsPerSecond)

	thumbs := f.Section("thumbnails")
	cfg.ThumbnailConcurrency = thumbs.Key("concurrency").MustInt(cfg.ThumbnailConcurrency)
	cfg.ThumbnailSize = thumbs.Key("size").MustInt(cfg.ThumbnailSize)
	cfg.CacheCountLimit = thumbs.Key("cache_count").MustInt(cfg.CacheCountLimit)
	cfg.CacheCostLimit = thumbs.Key("cache_cost").MustInt64(cfg.CacheCostLimit)

	cfg.LogLevel = strings.ToLower(f.Section("log").Key("level").MustString(cfg.LogLevel))
}

// ApplyEnv overrides the token and API URL from the environment.
func (cfg *Config) ApplyEnv() {
	if token := os.Getenv(EnvDeveloperToken); token != "" {
		cfg.Token = token
	}
	if url := os.Getenv(EnvAPIURL); url != "" {
		cfg.APIBaseURL = url
	}
}

// Save writes the configuration to an INI file. The proxy password is not
// written. Creates parent directories if they don't exist.
func Save(cfg *Config, path string) error {
	if path == "" {
		var err error
		path, err = DefaultPath()
		if err != nil {
			return fmt.Errorf("failed to determine config path: %w", err)
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	iniFile := ini.Empty()

	box, err := iniFile.NewSection("box")
	if err != nil {
		return fmt.Errorf("failed to create box section: %w", err)
	}
	box.Key("api_url").SetValue(cfg.APIBaseURL)
	box.Key("developer_token").SetValue(cfg.Token)
	if len(cfg.AdditionalFields) > 0 {
		box.Key("additional_fields").SetValue(strings.Join(cfg.AdditionalFields, ", "))
	}

	proxy, err := iniFile.NewSection("proxy")
	if err != nil {
		return fmt.Errorf("failed to create proxy section: %w", err)
	}
	proxy.Key("mode").SetValue(cfg.ProxyMode)
	proxy.Key("host").SetValue(cfg.ProxyHost)
	proxy.Key("port").SetValue(fmt.Sprintf("%d", cfg.ProxyPort))
	proxy.Key("user").SetValue(cfg.ProxyUser)
	proxy.Key("no_proxy").SetValue(cfg.NoProxy)
	proxy.Key("warmup").SetValue(fmt.Sprintf("%t", cfg.ProxyWarmup))

	browse, err := iniFile.NewSection("browse")
	if err != nil {
		return fmt.Errorf("failed to create browse section: %w", err)
	}
	browse.Key("folder_page_size").SetValue(fmt.Sprintf("%d", cfg.FolderPageSize))
	browse.Key("search_page_size").SetValue(fmt.Sprintf("%d", cfg.SearchPageSize))
	browse.Key("search_debounce").SetValue(cfg.SearchDebounce.String())
	browse.Key("requests_per_second").SetValue(fmt.Sprintf("%g", cfg.RequestsPerSecond))

	thumbs, err := iniFile.NewSection("thumbnails")
	if err != nil {
		return fmt.Errorf("failed to create thumbnails section: %w", err)
	}
	thumbs.Key("concurrency").SetValue(fmt.Sprintf("%d", cfg.ThumbnailConcurrency))
	thumbs.Key("size").SetValue(fmt.Sprintf("%d", cfg.ThumbnailSize))
	thumbs.Key("cache_count").SetValue(fmt.Sprintf("%d", cfg.CacheCountLimit))
	thumbs.Key("cache_cost").SetValue(fmt.Sprintf("%d", cfg.CacheCostLimit))

	logSection, err := iniFile.NewSection("log")
	if err != nil {
		return fmt.Errorf("failed to create log section: %w", err)
	}
	logSection.Key("level").SetValue(cfg.LogLevel)

	// Temporary file + rename for atomicity
	tmpPath := path + ".tmp"
	if err := iniFile.SaveTo(tmpPath); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	// The token is sensitive
	if runtime.GOOS != "windows" {
		if err := os.Chmod(tmpPath, 0600); err != nil {
			os.Remove(tmpPath)
			return fmt.Errorf("failed to set config permissions: %w", err)
		}
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to save config: %w", err)
	}

	return nil
}

// Validate checks struct tags and the rules tags cannot express.
func (cfg *Config) Validate() error {
	if strings.TrimSpace(cfg.Token) == "" {
		return ErrMissingToken
	}
	if err := validate.Struct(cfg); err != nil {
		return formatValidationError(err)
	}

	mode := strings.ToLower(cfg.ProxyMode)
	if (mode == "basic" || mode == "ntlm") && cfg.ProxyHost == "" {
		return ErrMissingProxyHost
	}

	return nil
}

// formatValidationError converts validator errors into user-friendly messages.
func formatValidationError(err error) error {
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) && len(validationErrs) > 0 {
		e := validationErrs[0]
		return fmt.Errorf("%s: validation failed on '%s' tag (value: %v)",
			e.Namespace(), e.Tag(), e.Value())
	}
	return err
}
