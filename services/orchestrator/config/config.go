// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package config loads and validates the orchestrator's YAML configuration.
// Environment variables override file values for deployment-sensitive knobs
// (ports, endpoints) so the same file works across environments.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// =============================================================================
// Configuration Types
// =============================================================================

// TenantConfig describes one knowledge tenant: where its vector index and
// fragment metadata live on disk and how it is presented to callers.
type TenantConfig struct {
	DisplayName  string `yaml:"display_name"`
	IndexPath    string `yaml:"index_path"`
	MetadataPath string `yaml:"metadata_path"`
}

// RetrievalConfig holds the knobs for nearest-neighbor retrieval.
type RetrievalConfig struct {
	// TopK is the number of fragments retrieved per query.
	TopK int `yaml:"top_k"`

	// RelevanceThreshold is the minimum similarity score a fragment must
	// reach to be passed to the generation collaborator.
	RelevanceThreshold float64 `yaml:"relevance_threshold"`

	// AllowNoContext permits answering from model knowledge alone when
	// retrieval returns nothing. Off by default.
	AllowNoContext bool `yaml:"allow_no_context"`
}

// LLMConfig selects the generation backend and its endpoints.
type LLMConfig struct {
	// Backend can be "ollama" or "openai".
	Backend string `yaml:"backend"`
	BaseURL string `yaml:"base_url"`
	Model   string `yaml:"model"`

	// PlannerModel is used for NL-to-SQL plan generation. Falls back to
	// Model when empty.
	PlannerModel string `yaml:"planner_model"`

	// GenerationTimeoutSeconds bounds a single completion call.
	GenerationTimeoutSeconds int `yaml:"generation_timeout_seconds"`
}

// EmbeddingConfig points at the sidecar that turns text into vectors.
type EmbeddingConfig struct {
	ServiceURL string `yaml:"service_url"`
	Model      string `yaml:"model"`
}

// AnalyticsConfig holds the analytical pipeline's storage locations and
// execution bounds.
type AnalyticsConfig struct {
	// DatasetDir is the directory holding per-conversation dataset files.
	DatasetDir string `yaml:"dataset_dir"`

	// SessionsDBPath is the SQLite file backing the session store.
	SessionsDBPath string `yaml:"sessions_db_path"`

	// ExecTimeoutSeconds bounds a single statement execution.
	ExecTimeoutSeconds int `yaml:"exec_timeout_seconds"`

	// HistoryWindow is how many prior exchanges seed plan generation.
	HistoryWindow int `yaml:"history_window"`
}

// GuardrailsConfig tunes answer synthesis without touching the fixed gates.
type GuardrailsConfig struct {
	// ExtraInstructions are appended to the prompt's rule list after the
	// built-in rules. The built-in rules cannot be removed.
	ExtraInstructions []string `yaml:"extra_instructions"`
}

// Config is the orchestrator's full configuration.
type Config struct {
	Port         string                  `yaml:"port"`
	OTLPEndpoint string                  `yaml:"otlp_endpoint"`
	Tenants      map[string]TenantConfig `yaml:"tenants"`
	Retrieval    RetrievalConfig         `yaml:"retrieval"`
	LLM          LLMConfig               `yaml:"llm"`
	Embedding    EmbeddingConfig         `yaml:"embedding"`
	Analytics    AnalyticsConfig         `yaml:"analytics"`
	Guardrails   GuardrailsConfig        `yaml:"guardrails"`
}

// =============================================================================
// Loading
// =============================================================================

// Load reads and validates the configuration at path. Missing optional
// fields are filled with defaults before validation.
//
// # Inputs
//   - path: filesystem path to a YAML configuration file.
//
// # Outputs
//   - *Config: the validated configuration.
//   - error: unreadable file, malformed YAML, or a failed invariant.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read the config file: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse the config file: %w", err)
	}
	cfg.applyDefaults()
	cfg.applyEnvOverrides()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Port == "" {
		c.Port = "8080"
	}
	if c.Retrieval.TopK == 0 {
		c.Retrieval.TopK = 5
	}
	if c.Retrieval.RelevanceThreshold == 0 {
		c.Retrieval.RelevanceThreshold = 0.3
	}
	if c.LLM.Backend == "" {
		c.LLM.Backend = "ollama"
	}
	if c.LLM.BaseURL == "" {
		c.LLM.BaseURL = "http://localhost:11434"
	}
	if c.LLM.GenerationTimeoutSeconds == 0 {
		c.LLM.GenerationTimeoutSeconds = 500
	}
	if c.Analytics.ExecTimeoutSeconds == 0 {
		c.Analytics.ExecTimeoutSeconds = 60
	}
	if c.Analytics.HistoryWindow == 0 {
		c.Analytics.HistoryWindow = 5
	}
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("PLAMBO_PORT"); v != "" {
		c.Port = v
	}
	if v := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"); v != "" {
		c.OTLPEndpoint = v
	}
	if v := os.Getenv("LLM_BACKEND_TYPE"); v != "" {
		c.LLM.Backend = v
	}
	if v := os.Getenv("LLM_BASE_URL"); v != "" {
		c.LLM.BaseURL = v
	}
	if v := os.Getenv("EMBEDDING_SERVICE_URL"); v != "" {
		c.Embedding.ServiceURL = v
	}
}

// Validate checks the invariants that cannot be defaulted away.
func (c *Config) Validate() error {
	if len(c.Tenants) == 0 {
		return fmt.Errorf("config: at least one tenant must be defined")
	}
	for id, t := range c.Tenants {
		if t.IndexPath == "" {
			return fmt.Errorf("config: tenant %q has no index_path", id)
		}
		if t.MetadataPath == "" {
			return fmt.Errorf("config: tenant %q has no metadata_path", id)
		}
	}
	if c.Retrieval.TopK < 1 {
		return fmt.Errorf("config: retrieval.top_k must be positive, got %d", c.Retrieval.TopK)
	}
	if c.Retrieval.RelevanceThreshold < 0 || c.Retrieval.RelevanceThreshold > 1 {
		return fmt.Errorf("config: retrieval.relevance_threshold must be in [0,1], got %f",
			c.Retrieval.RelevanceThreshold)
	}
	switch c.LLM.Backend {
	case "ollama", "openai":
	default:
		return fmt.Errorf("config: unknown llm backend %q", c.LLM.Backend)
	}
	if c.Analytics.DatasetDir == "" {
		return fmt.Errorf("config: analytics.dataset_dir must be set")
	}
	if c.Analytics.SessionsDBPath == "" {
		return fmt.Errorf("config: analytics.sessions_db_path must be set")
	}
	return nil
}

// GenerationTimeout returns the completion deadline as a duration.
func (c *Config) GenerationTimeout() time.Duration {
	return time.Duration(c.LLM.GenerationTimeoutSeconds) * time.Second
}

// ExecTimeout returns the statement execution deadline as a duration.
func (c *Config) ExecTimeout() time.Duration {
	return time.Duration(c.Analytics.ExecTimeoutSeconds) * time.Second
}
