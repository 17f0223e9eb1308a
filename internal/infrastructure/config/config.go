// Package config builds the immutable run configuration from the
// environment, an optional .env file and an optional config file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/felixgeelhaar/tasksync/pkg/domain/tracking"
)

// Keys, named after the environment variables that set them.
const (
	KeyNotionToken      = "notion_token"
	KeyNotionDatabaseID = "notion_dev_tasks_db_id"
	KeyNotionAPIURL     = "notion_api_url"
	KeyGitHubToken      = "github_token"
	KeyGitHubRepository = "github_repository"
	KeyGitHubAPIURL     = "github_api_url"
	KeyEventPath        = "github_event_path"
	KeyPushLimit        = "tasksync_push_limit"
	KeyCloseLimit       = "tasksync_close_limit"
	KeyRetries          = "tasksync_retries"
	KeyRetryDelay       = "tasksync_retry_delay"
	KeyFailFast         = "tasksync_fail_fast"
	KeyDryRun           = "tasksync_dry_run"
	KeyDeadLetter       = "tasksync_dead_letter"
)

// DefaultEnvFile is loaded when present and no other file is named.
const DefaultEnvFile = ".env"

// Config is built once at startup and passed down by value.
type Config struct {
	NotionToken      string
	NotionDatabaseID string
	NotionAPIURL     string
	GitHubToken      string
	GitHubRepository string
	GitHubAPIURL     string
	EventPath        string
	PushLimit        int
	CloseLimit       int
	Retries          int
	RetryDelay       time.Duration
	FailFast         bool
	DryRun           bool
	DeadLetterPath   string
}

// LoadOptions names optional files to read.
type LoadOptions struct {
	// ConfigFile is a YAML/JSON/TOML file with the same keys.
	ConfigFile string
	// EnvFile is a dotenv file. Values already in the environment win.
	EnvFile string
}

// Load reads configuration. It does not check required values; see Require.
func Load(opts LoadOptions) (Config, error) {
	if err := loadEnvFile(opts.EnvFile); err != nil {
		return Config{}, err
	}

	v := viper.New()
	v.SetDefault(KeyPushLimit, 10)
	v.SetDefault(KeyCloseLimit, 20)
	v.SetDefault(KeyRetries, 0)
	v.SetDefault(KeyRetryDelay, time.Second)
	v.SetDefault(KeyFailFast, false)
	v.SetDefault(KeyDryRun, false)

	v.AutomaticEnv()
	// The database id has two spellings in the wild.
	if err := v.BindEnv(KeyNotionDatabaseID, "NOTION_DEV_TASKS_DB_ID", "NOTION_DATABASE_ID"); err != nil {
		return Config{}, err
	}

	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, &tracking.ConfigError{Key: "config", Reason: fmt.Sprintf("read %s: %v", opts.ConfigFile, err)}
		}
	}

	cfg := Config{
		NotionToken:      strings.TrimSpace(v.GetString(KeyNotionToken)),
		NotionDatabaseID: strings.TrimSpace(v.GetString(KeyNotionDatabaseID)),
		NotionAPIURL:     v.GetString(KeyNotionAPIURL),
		GitHubToken:      strings.TrimSpace(v.GetString(KeyGitHubToken)),
		GitHubRepository: strings.TrimSpace(v.GetString(KeyGitHubRepository)),
		GitHubAPIURL:     v.GetString(KeyGitHubAPIURL),
		EventPath:        v.GetString(KeyEventPath),
		PushLimit:        v.GetInt(KeyPushLimit),
		CloseLimit:       v.GetInt(KeyCloseLimit),
		Retries:          v.GetInt(KeyRetries),
		RetryDelay:       v.GetDuration(KeyRetryDelay),
		FailFast:         v.GetBool(KeyFailFast),
		DryRun:           v.GetBool(KeyDryRun),
		DeadLetterPath:   v.GetString(KeyDeadLetter),
	}

	if cfg.PushLimit <= 0 {
		return Config{}, &tracking.ConfigError{Key: envName(KeyPushLimit), Reason: "must be positive"}
	}
	if cfg.CloseLimit <= 0 {
		return Config{}, &tracking.ConfigError{Key: envName(KeyCloseLimit), Reason: "must be positive"}
	}
	if cfg.Retries < 0 {
		return Config{}, &tracking.ConfigError{Key: envName(KeyRetries), Reason: "must not be negative"}
	}

	return cfg, nil
}

func loadEnvFile(path string) error {
	explicit := path != ""
	if !explicit {
		path = DefaultEnvFile
	}
	if err := godotenv.Load(path); err != nil {
		if !explicit && errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return &tracking.ConfigError{Key: "env-file", Reason: fmt.Sprintf("load %s: %v", path, err)}
	}
	return nil
}

// Require checks the values every run needs, plus the event path when the
// run is event driven. It reports the first missing key.
func (c Config) Require(event bool) error {
	type requirement struct {
		key   string
		value string
	}
	required := []requirement{
		{KeyNotionToken, c.NotionToken},
		{KeyNotionDatabaseID, c.NotionDatabaseID},
		{KeyGitHubToken, c.GitHubToken},
		{KeyGitHubRepository, c.GitHubRepository},
	}
	if event {
		required = append(required, requirement{KeyEventPath, c.EventPath})
	}

	for _, r := range required {
		if r.value == "" {
			return &tracking.ConfigError{Key: envName(r.key), Reason: "is required"}
		}
	}

	if owner, repo, ok := strings.Cut(c.GitHubRepository, "/"); !ok || owner == "" || repo == "" {
		return &tracking.ConfigError{Key: envName(KeyGitHubRepository), Reason: "must be owner/name"}
	}
	return nil
}

func envName(key string) string {
	return strings.ToUpper(key)
}
