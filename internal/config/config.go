package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/corpuschat/corpuschat/internal/utils"
)

var (
	home, _           = os.UserHomeDir()
	DefaultConfigPath = filepath.Join(home, ".corpuschat", "config.json")
	DefaultDataDir    = filepath.Join(home, ".corpuschat")
	DefaultHTTPAddr   = "localhost:8118"
	DefaultStoreName  = "corpus"
)

// UploadConfig carries the retry/backoff/poll tunables. The right bounds
// are discovered per deployment, so all of them are configurable.
type UploadConfig struct {
	MaxAttempts     int           `json:"max_attempts" mapstructure:"max_attempts"`
	BackoffBase     time.Duration `json:"backoff_base" mapstructure:"backoff_base"`
	PollInterval    time.Duration `json:"poll_interval" mapstructure:"poll_interval"`
	MaxPolls        int           `json:"max_polls" mapstructure:"max_polls"`
	PostUploadDelay time.Duration `json:"post_upload_delay" mapstructure:"post_upload_delay"`
}

// Config is the full service configuration.
type Config struct {
	// DataDir holds the ledger database, the instance lock and logs.
	DataDir string `json:"data_dir" mapstructure:"data_dir"`

	// SourceDir is the corpus directory to sync from.
	SourceDir string `json:"source_dir" mapstructure:"source_dir"`

	// StoreName is the logical display name of the remote store.
	StoreName string `json:"store_name" mapstructure:"store_name"`

	// TargetCount is the expected corpus size, used only for completeness
	// reporting.
	TargetCount int `json:"target_count" mapstructure:"target_count"`

	// APIURL and APIKey identify the remote document-index service.
	APIURL string `json:"api_url" mapstructure:"api_url"`
	APIKey string `json:"api_key" mapstructure:"api_key"`

	// HTTPAddr is the bind address of the local HTTP service.
	HTTPAddr string `json:"http_addr" mapstructure:"http_addr"`

	Upload UploadConfig `json:"upload" mapstructure:"upload"`

	// Path the config was loaded from, if any.
	Path string `json:"-" mapstructure:"-"`
}

// Default returns a Config with every tunable at its default.
func Default() *Config {
	return &Config{
		DataDir:   DefaultDataDir,
		StoreName: DefaultStoreName,
		HTTPAddr:  DefaultHTTPAddr,
		Upload: UploadConfig{
			MaxAttempts:     5,
			BackoffBase:     2 * time.Second,
			PollInterval:    3 * time.Second,
			MaxPolls:        120,
			PostUploadDelay: 1500 * time.Millisecond,
		},
	}
}

// Validate checks the fields every entry point needs.
func (c *Config) Validate() error {
	if c.APIURL == "" {
		return errors.New("api_url is required")
	}
	if c.APIKey == "" {
		return errors.New("api_key is required (flag, config file or CORPUSCHAT_API_KEY)")
	}
	if c.StoreName == "" {
		return errors.New("store_name is required")
	}

	resolved, err := utils.ResolvePath(c.DataDir)
	if err != nil {
		return fmt.Errorf("data_dir: %w", err)
	}
	c.DataDir = resolved

	if c.SourceDir != "" {
		if c.SourceDir, err = utils.ResolvePath(c.SourceDir); err != nil {
			return fmt.Errorf("source_dir: %w", err)
		}
	}

	if c.Upload.MaxAttempts <= 0 || c.Upload.MaxPolls <= 0 {
		return errors.New("upload bounds must be positive")
	}
	return nil
}

// LedgerPath is the location of the upload ledger database.
func (c *Config) LedgerPath() string {
	return filepath.Join(c.DataDir, "ledger.db")
}

// LockPath is the single-instance lock file.
func (c *Config) LockPath() string {
	return filepath.Join(c.DataDir, "corpuschat.lock")
}

// LogPath is the daemon log file.
func (c *Config) LogPath() string {
	return filepath.Join(c.DataDir, "logs", "corpuschat.log")
}
