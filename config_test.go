package main

import (
	"os"
	"path/filepath"
	"testing"
)

// setRequiredConfigEnv sets the minimum environment for LoadConfig to pass
// validation, pointing CONFIG_PATH away from any real config.yaml.
func setRequiredConfigEnv(t *testing.T) {
	t.Helper()
	t.Setenv("CONFIG_PATH", filepath.Join(t.TempDir(), "no-such-config.yaml"))
	t.Setenv("SLACK_BOT_TOKEN", "xoxb-test")
	t.Setenv("SLACK_APP_TOKEN", "xapp-test")
	t.Setenv("LLM_PROVIDER", "anthropic")
	t.Setenv("ANTHROPIC_API_KEY", "sk-ant-test")
	// Neutralize any ambient overrides.
	for _, key := range []string{
		"LLM_MODEL", "DB_PATH", "CACHE_BACKEND",
		"INTENT_TTL_MINUTES", "RESPONSE_TTL_MINUTES", "REQUEST_TIMEOUT_SECONDS",
		"CELEBRATION_SCHEDULE", "CELEBRATION_CHANNEL_ID", "COMPANY_NAME", "OPENAI_API_KEY",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	setRequiredConfigEnv(t)

	cfg := LoadConfig()

	if cfg.DBPath != "./assistbot.db" {
		t.Errorf("DBPath = %q", cfg.DBPath)
	}
	if cfg.CacheBackend != "memory" {
		t.Errorf("CacheBackend = %q", cfg.CacheBackend)
	}
	if cfg.IntentTTLMinutes != 60 {
		t.Errorf("IntentTTLMinutes = %d", cfg.IntentTTLMinutes)
	}
	if cfg.ResponseTTLMinutes != 30 {
		t.Errorf("ResponseTTLMinutes = %d", cfg.ResponseTTLMinutes)
	}
	if cfg.RequestTimeoutSeconds != 60 {
		t.Errorf("RequestTimeoutSeconds = %d", cfg.RequestTimeoutSeconds)
	}
	if cfg.CompanyName != "the company" {
		t.Errorf("CompanyName = %q", cfg.CompanyName)
	}
	if cfg.LLMProvider != "anthropic" {
		t.Errorf("LLMProvider = %q", cfg.LLMProvider)
	}
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	setRequiredConfigEnv(t)
	t.Setenv("DB_PATH", "/tmp/other.db")
	t.Setenv("CACHE_BACKEND", "sqlite")
	t.Setenv("INTENT_TTL_MINUTES", "5")
	t.Setenv("RESPONSE_TTL_MINUTES", "2")
	t.Setenv("COMPANY_NAME", "Acme")

	cfg := LoadConfig()

	if cfg.DBPath != "/tmp/other.db" {
		t.Errorf("DBPath = %q", cfg.DBPath)
	}
	if cfg.CacheBackend != "sqlite" {
		t.Errorf("CacheBackend = %q", cfg.CacheBackend)
	}
	if cfg.IntentTTLMinutes != 5 || cfg.ResponseTTLMinutes != 2 {
		t.Errorf("TTLs = %d/%d", cfg.IntentTTLMinutes, cfg.ResponseTTLMinutes)
	}
	if cfg.CompanyName != "Acme" {
		t.Errorf("CompanyName = %q", cfg.CompanyName)
	}
}

func TestLoadConfigYAMLWithEnvPrecedence(t *testing.T) {
	setRequiredConfigEnv(t)

	yamlPath := filepath.Join(t.TempDir(), "config.yaml")
	yamlBody := "db_path: /data/from-yaml.db\ncompany_name: YamlCorp\nintent_ttl_minutes: 15\n"
	if err := os.WriteFile(yamlPath, []byte(yamlBody), 0644); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	t.Setenv("CONFIG_PATH", yamlPath)
	t.Setenv("COMPANY_NAME", "EnvCorp")

	cfg := LoadConfig()

	if cfg.DBPath != "/data/from-yaml.db" {
		t.Errorf("DBPath = %q", cfg.DBPath)
	}
	if cfg.IntentTTLMinutes != 15 {
		t.Errorf("IntentTTLMinutes = %d", cfg.IntentTTLMinutes)
	}
	// Env wins over YAML.
	if cfg.CompanyName != "EnvCorp" {
		t.Errorf("CompanyName = %q", cfg.CompanyName)
	}
}
