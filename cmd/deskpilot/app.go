package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/elee1766/deskpilot/src/aisdk"
	"github.com/elee1766/deskpilot/src/backends/backend_jira"
	"github.com/elee1766/deskpilot/src/backends/backend_outbox"
	"github.com/elee1766/deskpilot/src/backends/backend_webhook"
	"github.com/elee1766/deskpilot/src/capability"
	"github.com/elee1766/deskpilot/src/classifier"
	"github.com/elee1766/deskpilot/src/config"
	"github.com/elee1766/deskpilot/src/modelclient"
	"github.com/elee1766/deskpilot/src/modelrouter"
	"github.com/elee1766/deskpilot/src/retrieval"
	"github.com/elee1766/deskpilot/src/storage"
	"github.com/elee1766/deskpilot/src/toolgateway"
	"github.com/elee1766/deskpilot/src/workflow"
	"github.com/spf13/afero"
)

// App holds the wired components for one process.
type App struct {
	Config       *config.Config
	Logger       *slog.Logger
	DB           *storage.DB
	Router       *modelrouter.Router
	Gateway      *toolgateway.Gateway
	Orchestrator *workflow.Orchestrator
}

// Close releases the app's resources.
func (a *App) Close() error {
	if a.DB != nil {
		return a.DB.Close()
	}
	return nil
}

// buildApp loads configuration and wires every component. CLI flags override
// the file where both are set. makeLogger receives the effective log level so
// commands can choose where log lines go.
func buildApp(cli *CLI, makeLogger func(logLevel string) *slog.Logger) (*App, error) {
	cfg, err := config.Load(cli.Config)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if cli.LogLevel != "" {
		cfg.LogLevel = cli.LogLevel
	}
	if cli.APIKey != "" {
		for i := range cfg.Model.Providers {
			if cfg.Model.Providers[i].APIKey == "" {
				cfg.Model.Providers[i].APIKey = cli.APIKey
			}
		}
	}

	logger := makeLogger(cfg.LogLevel)

	db, err := openStorage(cfg)
	if err != nil {
		return nil, err
	}

	router, err := buildRouter(cfg, logger)
	if err != nil {
		db.Close()
		return nil, err
	}

	gateway, err := buildGateway(cfg, db, logger)
	if err != nil {
		db.Close()
		return nil, err
	}

	var fallback classifier.ModelFallback
	if cfg.Classifier.ModelFallback {
		fallback = classifier.NewModelFallback(router)
	}
	cls := classifier.New(classifier.Config{
		Fallback:         fallback,
		FallbackDeadline: time.Duration(cfg.Classifier.FallbackDeadlineMS) * time.Millisecond,
		CacheSize:        cfg.Classifier.CacheSize,
		Logger:           logger,
	})

	var publishTarget capability.Capability
	if cfg.Workflow.PublishTarget != "" {
		publishTarget, err = capability.Parse(cfg.Workflow.PublishTarget)
		if err != nil {
			db.Close()
			return nil, err
		}
	}

	orch, err := workflow.New(workflow.Config{
		Classifier:    cls,
		Router:        router,
		Gateway:       gateway,
		Retriever:     buildRetriever(cfg),
		SystemPrompt:  cfg.Workflow.SystemPrompt,
		TopN:          cfg.Workflow.TopN,
		PublishTarget: publishTarget,
		Logger:        logger,
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to build orchestrator: %w", err)
	}

	return &App{
		Config:       cfg,
		Logger:       logger,
		DB:           db,
		Router:       router,
		Gateway:      gateway,
		Orchestrator: orch,
	}, nil
}

// openStorage opens the sqlite store, creating its parent directory first.
func openStorage(cfg *config.Config) (*storage.DB, error) {
	path := cfg.Storage.DatabasePath
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}
	db, err := storage.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return db, nil
}

// buildRouter constructs one model client per configured provider.
func buildRouter(cfg *config.Config, logger *slog.Logger) (*modelrouter.Router, error) {
	entries := make([]modelrouter.ProviderEntry, 0, len(cfg.Model.Providers))
	for _, p := range cfg.Model.Providers {
		client := modelclient.NewClient(aisdk.ClientConfig{
			APIKey:  p.APIKey,
			BaseURL: p.BaseURL,
			Model:   p.Model,
			Logger:  logger,
		})
		entries = append(entries, modelrouter.ProviderEntry{
			Name:     p.Name,
			Client:   client,
			Deadline: p.Deadline(),
		})
	}

	router, err := modelrouter.NewRouter(modelrouter.RouterConfig{
		Providers: entries,
		Primary:   cfg.Model.Primary,
		Secondary: cfg.Model.Secondary,
		Telemetry: modelrouter.NewTelemetry(cfg.Model.CostPer1K),
		Logger:    logger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build model router: %w", err)
	}
	return router, nil
}

// buildGateway constructs one adapter per configured backend plus the shared
// health registry.
func buildGateway(cfg *config.Config, db *storage.DB, logger *slog.Logger) (*toolgateway.Gateway, error) {
	adapters := make([]toolgateway.BackendAdapter, 0, len(cfg.Backends))
	for _, b := range cfg.Backends {
		adapter, err := buildAdapter(b, db, logger)
		if err != nil {
			return nil, err
		}
		adapters = append(adapters, adapter)
	}

	cooldown := time.Duration(cfg.Workflow.HealthCooldownSeconds) * time.Second
	return toolgateway.NewGateway(toolgateway.GatewayConfig{
		Adapters: adapters,
		Health:   toolgateway.NewHealthRegistry(cooldown),
		Logger:   logger,
	}), nil
}

func buildAdapter(b config.BackendConfig, db *storage.DB, logger *slog.Logger) (toolgateway.BackendAdapter, error) {
	switch b.Type {
	case "jira":
		return backend_jira.New(backend_jira.Config{
			Name:           b.Name,
			BaseURL:        b.URL,
			ProjectKey:     b.ProjectKey,
			IssueType:      b.IssueType,
			Token:          b.Token,
			Priority:       b.Priority,
			ConnectTimeout: b.ConnectTimeout(),
			CallTimeout:    b.CallTimeout(),
			Logger:         logger,
		}), nil

	case "webhook":
		cap, err := capability.Parse(b.Capability)
		if err != nil {
			return nil, fmt.Errorf("backend %q: %w", b.Name, err)
		}
		wcfg := backend_webhook.Config{
			Name:           b.Name,
			Capability:     cap,
			URL:            b.URL,
			Token:          b.Token,
			Priority:       b.Priority,
			ConnectTimeout: b.ConnectTimeout(),
			CallTimeout:    b.CallTimeout(),
			Logger:         logger,
		}
		switch cap {
		case capability.Publish:
			wcfg.Schema = backend_webhook.PublishSchema()
			wcfg.Aliases = backend_webhook.PublishAliases()
		case capability.ExternalAgent:
			wcfg.Schema = backend_webhook.AgentSchema()
			wcfg.Aliases = backend_webhook.AgentAliases()
		}
		return backend_webhook.New(wcfg), nil

	case "outbox":
		return backend_outbox.New(backend_outbox.Config{
			Name:     b.Name,
			DB:       db,
			Priority: b.Priority,
			Logger:   logger,
		}), nil
	}

	return nil, fmt.Errorf("backend %q has unknown type %q", b.Name, b.Type)
}

// buildRetriever selects the context providers named by the config. Returns
// nil when retrieval is unconfigured; the orchestrator then degrades knowledge
// queries to plain model replies.
func buildRetriever(cfg *config.Config) retrieval.Provider {
	var providers []retrieval.Provider

	if cfg.Retrieval.KnowledgeDir != "" {
		providers = append(providers, retrieval.NewDirProvider(afero.NewOsFs(), cfg.Retrieval.KnowledgeDir))
	}
	if cfg.Retrieval.DocsURL != "" {
		providers = append(providers, retrieval.NewWebProvider(cfg.Retrieval.DocsURL, 0))
	}

	switch len(providers) {
	case 0:
		return nil
	case 1:
		return providers[0]
	}
	return retrieval.NewMultiProvider(providers...)
}
