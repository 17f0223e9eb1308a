package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/felixgeelhaar/tasksync/pkg/domain/tracking"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("NOTION_TOKEN", "secret_notion")
	t.Setenv("NOTION_DEV_TASKS_DB_ID", "db-1")
	t.Setenv("GITHUB_TOKEN", "ghp_token")
	t.Setenv("GITHUB_REPOSITORY", "octo/site")
}

func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chdir(wd) })
	return dir
}

func TestLoad_FromEnvironment(t *testing.T) {
	chdirTemp(t)
	setRequiredEnv(t)
	t.Setenv("TASKSYNC_PUSH_LIMIT", "5")
	t.Setenv("TASKSYNC_FAIL_FAST", "true")

	cfg, err := Load(LoadOptions{})
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.NotionToken != "secret_notion" || cfg.NotionDatabaseID != "db-1" {
		t.Errorf("notion config = %+v", cfg)
	}
	if cfg.GitHubRepository != "octo/site" {
		t.Errorf("repository = %q", cfg.GitHubRepository)
	}
	if cfg.PushLimit != 5 || cfg.CloseLimit != 20 {
		t.Errorf("limits = %d/%d", cfg.PushLimit, cfg.CloseLimit)
	}
	if !cfg.FailFast || cfg.DryRun {
		t.Errorf("flags = fail_fast %v dry_run %v", cfg.FailFast, cfg.DryRun)
	}
	if cfg.RetryDelay != time.Second {
		t.Errorf("retry delay = %v", cfg.RetryDelay)
	}
	if err := cfg.Require(false); err != nil {
		t.Errorf("Require failed: %v", err)
	}
}

func TestLoad_DatabaseIDAlias(t *testing.T) {
	chdirTemp(t)
	t.Setenv("NOTION_DEV_TASKS_DB_ID", "")
	t.Setenv("NOTION_DATABASE_ID", "db-alias")

	cfg, err := Load(LoadOptions{})
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.NotionDatabaseID != "db-alias" {
		t.Errorf("database id = %q", cfg.NotionDatabaseID)
	}
}

func TestRequire_MissingValues(t *testing.T) {
	full := Config{
		NotionToken:      "n",
		NotionDatabaseID: "d",
		GitHubToken:      "g",
		GitHubRepository: "octo/site",
		EventPath:        "/tmp/event.json",
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		event   bool
		wantKey string
	}{
		{"notion token", func(c *Config) { c.NotionToken = "" }, false, "NOTION_TOKEN"},
		{"database", func(c *Config) { c.NotionDatabaseID = "" }, false, "NOTION_DEV_TASKS_DB_ID"},
		{"github token", func(c *Config) { c.GitHubToken = "" }, false, "GITHUB_TOKEN"},
		{"repository", func(c *Config) { c.GitHubRepository = "" }, false, "GITHUB_REPOSITORY"},
		{"repository shape", func(c *Config) { c.GitHubRepository = "site" }, false, "GITHUB_REPOSITORY"},
		{"event path", func(c *Config) { c.EventPath = "" }, true, "GITHUB_EVENT_PATH"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := full
			tt.mutate(&cfg)
			err := cfg.Require(tt.event)
			var ce *tracking.ConfigError
			if !errors.As(err, &ce) {
				t.Fatalf("expected ConfigError, got %v", err)
			}
			if ce.Key != tt.wantKey {
				t.Errorf("key = %q, want %q", ce.Key, tt.wantKey)
			}
		})
	}

	noEvent := full
	noEvent.EventPath = ""
	if err := noEvent.Require(false); err != nil {
		t.Errorf("batch runs should not need an event path: %v", err)
	}
}

func TestLoad_EnvFile(t *testing.T) {
	dir := chdirTemp(t)
	t.Setenv("NOTION_TOKEN", "from-env")
	// godotenv writes through os.Setenv; register the keys so t.Setenv restores them.
	t.Setenv("GITHUB_REPOSITORY", "")
	os.Unsetenv("GITHUB_REPOSITORY")

	envFile := filepath.Join(dir, ".env")
	content := "NOTION_TOKEN=from-file\nGITHUB_REPOSITORY=octo/dotenv\n"
	if err := os.WriteFile(envFile, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(LoadOptions{})
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.NotionToken != "from-env" {
		t.Errorf("environment should win over .env, got %q", cfg.NotionToken)
	}
	if cfg.GitHubRepository != "octo/dotenv" {
		t.Errorf("repository = %q", cfg.GitHubRepository)
	}

	_, err = Load(LoadOptions{EnvFile: filepath.Join(dir, "missing.env")})
	var ce *tracking.ConfigError
	if !errors.As(err, &ce) {
		t.Errorf("expected ConfigError for missing env file, got %v", err)
	}
}

func TestLoad_ConfigFile(t *testing.T) {
	dir := chdirTemp(t)
	path := filepath.Join(dir, "tasksync.yaml")
	content := "tasksync_close_limit: 7\ntasksync_retries: 2\ntasksync_retry_delay: 250ms\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(LoadOptions{ConfigFile: path})
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.CloseLimit != 7 || cfg.Retries != 2 || cfg.RetryDelay != 250*time.Millisecond {
		t.Errorf("config = %+v", cfg)
	}
}

func TestLoad_InvalidLimits(t *testing.T) {
	chdirTemp(t)
	t.Setenv("TASKSYNC_PUSH_LIMIT", "0")

	_, err := Load(LoadOptions{})
	var ce *tracking.ConfigError
	if !errors.As(err, &ce) || ce.Key != "TASKSYNC_PUSH_LIMIT" {
		t.Errorf("expected ConfigError for push limit, got %v", err)
	}
}
