// Package config loads, defaults and validates deskpilot configuration.
package config

import "time"

// Config is the root configuration document.
type Config struct {
	Version  string `json:"version"`
	LogLevel string `json:"log_level" validate:"omitempty,oneof=debug info warn error"`

	Model      ModelConfig      `json:"model"`
	Classifier ClassifierConfig `json:"classifier"`
	Workflow   WorkflowConfig   `json:"workflow"`
	Retrieval  RetrievalConfig  `json:"retrieval"`
	Backends   []BackendConfig  `json:"backends" validate:"dive"`
	Storage    StorageConfig    `json:"storage"`
}

// ProviderConfig describes one model provider.
type ProviderConfig struct {
	Name    string `json:"name" validate:"required"`
	BaseURL string `json:"base_url" validate:"omitempty,url"`
	APIKey  string `json:"api_key"`
	Model   string `json:"model" validate:"required"`
	// DeadlineSeconds bounds each call to this provider family.
	DeadlineSeconds int `json:"deadline_seconds" validate:"omitempty,min=1"`
}

// Deadline returns the provider deadline as a duration.
func (p ProviderConfig) Deadline() time.Duration {
	return time.Duration(p.DeadlineSeconds) * time.Second
}

// ModelConfig describes the router's provider set.
type ModelConfig struct {
	Providers []ProviderConfig `json:"providers" validate:"omitempty,dive"`
	Primary   string           `json:"primary"`
	Secondary string           `json:"secondary"`
	// CostPer1K is the per-1000-token rate (USD) for telemetry estimates.
	CostPer1K float64 `json:"cost_per_1k" validate:"omitempty,min=0"`
}

// ClassifierConfig tunes intent detection.
type ClassifierConfig struct {
	// CacheSize enables the label cache when > 0.
	CacheSize int `json:"cache_size" validate:"omitempty,min=0"`
	// ModelFallback consults the model router for ambiguous input.
	ModelFallback bool `json:"model_fallback"`
	// FallbackDeadlineMS bounds the fallback call.
	FallbackDeadlineMS int `json:"fallback_deadline_ms" validate:"omitempty,min=1"`
}

// WorkflowConfig tunes the orchestrator.
type WorkflowConfig struct {
	SystemPrompt string `json:"system_prompt"`
	TopN         int    `json:"top_n" validate:"omitempty,min=1"`
	// PublishTarget enables the publishing stage; names a capability.
	PublishTarget string `json:"publish_target" validate:"omitempty,capability"`
	// HealthCooldownSeconds re-admits unhealthy adapters after the window.
	// Zero excludes them for the process lifetime.
	HealthCooldownSeconds int `json:"health_cooldown_seconds" validate:"omitempty,min=0"`
}

// RetrievalConfig selects context providers.
type RetrievalConfig struct {
	// KnowledgeDir is a local directory of markdown/text documents.
	KnowledgeDir string `json:"knowledge_dir"`
	// DocsURL is a documentation page fetched on demand.
	DocsURL string `json:"docs_url" validate:"omitempty,url"`
}

// BackendConfig describes one tool backend adapter.
type BackendConfig struct {
	Name string `json:"name" validate:"required"`
	Type string `json:"type" validate:"required,oneof=jira webhook outbox"`
	// Capability defaults per type: jira/outbox serve ticket_creation,
	// webhook requires an explicit capability.
	Capability string `json:"capability" validate:"omitempty,capability"`
	URL        string `json:"url" validate:"omitempty,url"`
	Token      string `json:"token"`
	ProjectKey string `json:"project_key"`
	IssueType  string `json:"issue_type"`
	Priority   int    `json:"priority" validate:"omitempty,min=0"`

	ConnectTimeoutMS int `json:"connect_timeout_ms" validate:"omitempty,min=1"`
	CallTimeoutMS    int `json:"call_timeout_ms" validate:"omitempty,min=1"`
}

// ConnectTimeout returns the connect timeout as a duration.
func (b BackendConfig) ConnectTimeout() time.Duration {
	return time.Duration(b.ConnectTimeoutMS) * time.Millisecond
}

// CallTimeout returns the call timeout as a duration.
func (b BackendConfig) CallTimeout() time.Duration {
	return time.Duration(b.CallTimeoutMS) * time.Millisecond
}

// StorageConfig locates the sqlite database.
type StorageConfig struct {
	DatabasePath string `json:"database_path"`
}
