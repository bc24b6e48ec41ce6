package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	if config.Version != "1.0" {
		t.Errorf("Expected version 1.0, got %s", config.Version)
	}
	if config.LogLevel != "warn" {
		t.Errorf("Expected log level warn, got %s", config.LogLevel)
	}
	if config.Classifier.CacheSize != 256 {
		t.Errorf("Expected cache size 256, got %d", config.Classifier.CacheSize)
	}
	if config.Workflow.TopN != 3 {
		t.Errorf("Expected top_n 3, got %d", config.Workflow.TopN)
	}
	if config.Workflow.HealthCooldownSeconds != 0 {
		t.Errorf("Expected zero health cooldown, got %d", config.Workflow.HealthCooldownSeconds)
	}
}

func TestConfigValidation(t *testing.T) {
	validator := NewValidator()

	base := func() *Config {
		c := DefaultConfig()
		c.Model.Providers = []ProviderConfig{
			{Name: "openrouter", Model: "some/model", DeadlineSeconds: 30},
		}
		c.Model.Primary = "openrouter"
		c.Storage.DatabasePath = "/tmp/deskpilot.db"
		return c
	}

	tests := []struct {
		name    string
		config  *Config
		wantErr bool
	}{
		{
			name:   "valid config",
			config: base(),
		},
		{
			name: "invalid log level",
			config: func() *Config {
				c := base()
				c.LogLevel = "verbose"
				return c
			}(),
			wantErr: true,
		},
		{
			name: "provider missing model",
			config: func() *Config {
				c := base()
				c.Model.Providers[0].Model = ""
				return c
			}(),
			wantErr: true,
		},
		{
			name: "duplicate provider names",
			config: func() *Config {
				c := base()
				c.Model.Providers = append(c.Model.Providers, c.Model.Providers[0])
				return c
			}(),
			wantErr: true,
		},
		{
			name: "unknown primary provider",
			config: func() *Config {
				c := base()
				c.Model.Primary = "missing"
				return c
			}(),
			wantErr: true,
		},
		{
			name: "unknown secondary provider",
			config: func() *Config {
				c := base()
				c.Model.Secondary = "missing"
				return c
			}(),
			wantErr: true,
		},
		{
			name: "invalid backend type",
			config: func() *Config {
				c := base()
				c.Backends = []BackendConfig{{Name: "x", Type: "carrier-pigeon"}}
				return c
			}(),
			wantErr: true,
		},
		{
			name: "webhook without capability",
			config: func() *Config {
				c := base()
				c.Backends = []BackendConfig{{Name: "hook", Type: "webhook", URL: "https://example.com/hook"}}
				return c
			}(),
			wantErr: true,
		},
		{
			name: "jira without url",
			config: func() *Config {
				c := base()
				c.Backends = []BackendConfig{{Name: "jira", Type: "jira", Capability: "ticket_creation"}}
				return c
			}(),
			wantErr: true,
		},
		{
			name: "invalid capability name",
			config: func() *Config {
				c := base()
				c.Backends = []BackendConfig{{Name: "hook", Type: "webhook", URL: "https://example.com/hook", Capability: "time-travel"}}
				return c
			}(),
			wantErr: true,
		},
		{
			name: "duplicate backend names",
			config: func() *Config {
				c := base()
				b := BackendConfig{Name: "hook", Type: "webhook", URL: "https://example.com/hook", Capability: "publish"}
				c.Backends = []BackendConfig{b, b}
				return c
			}(),
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validator.Validate(tt.config)
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.LogLevel != "warn" {
		t.Errorf("Expected default log level, got %s", cfg.LogLevel)
	}
	if cfg.Storage.DatabasePath == "" {
		t.Error("Expected database path to be resolved")
	}
}

func TestLoadAppliesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	data := `{
		"model": {
			"providers": [
				{"name": "openrouter", "model": "some/model"},
				{"name": "fallback", "model": "other/model"}
			],
			"secondary": "fallback"
		},
		"backends": [
			{"name": "jira", "type": "jira", "url": "https://jira.example.com"}
		]
	}`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Model.Primary != "openrouter" {
		t.Errorf("Expected first provider as primary, got %s", cfg.Model.Primary)
	}
	if cfg.Model.Providers[0].Deadline() != 30*time.Second {
		t.Errorf("Expected default 30s deadline, got %v", cfg.Model.Providers[0].Deadline())
	}

	b := cfg.Backends[0]
	if b.Capability != "ticket_creation" {
		t.Errorf("Expected jira to default to ticket_creation, got %s", b.Capability)
	}
	if b.IssueType != "Task" {
		t.Errorf("Expected default issue type Task, got %s", b.IssueType)
	}
	if b.ConnectTimeout() != 5*time.Second || b.CallTimeout() != 10*time.Second {
		t.Errorf("Expected default timeouts, got %v/%v", b.ConnectTimeout(), b.CallTimeout())
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("DESKPILOT_LOG_LEVEL", "debug")
	t.Setenv("DESKPILOT_DB_PATH", "/tmp/override.db")
	t.Setenv("DESKPILOT_API_KEY", "sk-env")

	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	data := `{
		"model": {
			"providers": [
				{"name": "withkey", "model": "m", "api_key": "sk-file"},
				{"name": "nokey", "model": "m"}
			]
		}
	}`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.LogLevel != "debug" {
		t.Errorf("Expected env log level, got %s", cfg.LogLevel)
	}
	if cfg.Storage.DatabasePath != "/tmp/override.db" {
		t.Errorf("Expected env db path, got %s", cfg.Storage.DatabasePath)
	}
	// The env key only fills providers without their own.
	if cfg.Model.Providers[0].APIKey != "sk-file" {
		t.Errorf("Expected file key to win, got %s", cfg.Model.Providers[0].APIKey)
	}
	if cfg.Model.Providers[1].APIKey != "sk-env" {
		t.Errorf("Expected env key to fill, got %s", cfg.Model.Providers[1].APIKey)
	}
}

func TestLoadRejectsInvalidJSON(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("Expected parse error")
	}
}
