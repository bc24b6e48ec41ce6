package config

// DefaultConfig returns the built-in configuration. Values here are chosen
// so a config file only needs to name providers and backends.
func DefaultConfig() *Config {
	return &Config{
		Version:  "1.0",
		LogLevel: "warn",
		Model: ModelConfig{
			CostPer1K: 0,
		},
		Classifier: ClassifierConfig{
			CacheSize:          256,
			ModelFallback:      false,
			FallbackDeadlineMS: 2000,
		},
		Workflow: WorkflowConfig{
			TopN:                  3,
			HealthCooldownSeconds: 0,
		},
		Storage: StorageConfig{
			DatabasePath: "", // resolved against XDG state home when empty
		},
	}
}

// applyDefaults fills zero values on a loaded config.
func applyDefaults(cfg *Config) {
	def := DefaultConfig()

	if cfg.Version == "" {
		cfg.Version = def.Version
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = def.LogLevel
	}
	if cfg.Classifier.CacheSize == 0 {
		cfg.Classifier.CacheSize = def.Classifier.CacheSize
	}
	if cfg.Classifier.FallbackDeadlineMS == 0 {
		cfg.Classifier.FallbackDeadlineMS = def.Classifier.FallbackDeadlineMS
	}
	if cfg.Workflow.TopN == 0 {
		cfg.Workflow.TopN = def.Workflow.TopN
	}
	if cfg.Storage.DatabasePath == "" {
		cfg.Storage.DatabasePath = GetDefaultStoragePaths().DatabasePath
	}

	for i := range cfg.Model.Providers {
		if cfg.Model.Providers[i].DeadlineSeconds == 0 {
			cfg.Model.Providers[i].DeadlineSeconds = 30
		}
	}
	if cfg.Model.Primary == "" && len(cfg.Model.Providers) > 0 {
		cfg.Model.Primary = cfg.Model.Providers[0].Name
	}

	for i := range cfg.Backends {
		b := &cfg.Backends[i]
		if b.Capability == "" {
			switch b.Type {
			case "jira", "outbox":
				b.Capability = "ticket_creation"
			}
		}
		if b.ConnectTimeoutMS == 0 {
			b.ConnectTimeoutMS = 5000
		}
		if b.CallTimeoutMS == 0 {
			b.CallTimeoutMS = 10000
		}
		if b.IssueType == "" && b.Type == "jira" {
			b.IssueType = "Task"
		}
	}
}
