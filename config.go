package main

import (
	"log"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

type Config struct {
	SlackBotToken string `yaml:"slack_bot_token"`
	SlackAppToken string `yaml:"slack_app_token"`

	LLMProvider     string `yaml:"llm_provider"`
	LLMModel        string `yaml:"llm_model"`
	AnthropicAPIKey string `yaml:"anthropic_api_key"`
	OpenAIAPIKey    string `yaml:"openai_api_key"`

	DBPath       string `yaml:"db_path"`
	CacheBackend string `yaml:"cache_backend"`

	IntentTTLMinutes      int `yaml:"intent_ttl_minutes"`
	ResponseTTLMinutes    int `yaml:"response_ttl_minutes"`
	RequestTimeoutSeconds int `yaml:"request_timeout_seconds"`

	CelebrationSchedule  string `yaml:"celebration_schedule"`
	CelebrationChannelID string `yaml:"celebration_channel_id"`
	CompanyName          string `yaml:"company_name"`
}

func LoadConfig() Config {
	var cfg Config

	// Load from config.yaml if it exists
	configPath := "config.yaml"
	if envPath := os.Getenv("CONFIG_PATH"); envPath != "" {
		configPath = envPath
	}
	if data, err := os.ReadFile(configPath); err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			log.Fatalf("Error parsing %s: %v", configPath, err)
		}
		log.Printf("Loaded config from %s", configPath)
	}

	// Env vars override YAML values
	envOverride(&cfg.SlackBotToken, "SLACK_BOT_TOKEN")
	envOverride(&cfg.SlackAppToken, "SLACK_APP_TOKEN")
	envOverride(&cfg.LLMProvider, "LLM_PROVIDER")
	envOverride(&cfg.LLMModel, "LLM_MODEL")
	envOverride(&cfg.AnthropicAPIKey, "ANTHROPIC_API_KEY")
	envOverride(&cfg.OpenAIAPIKey, "OPENAI_API_KEY")
	envOverride(&cfg.DBPath, "DB_PATH")
	envOverride(&cfg.CacheBackend, "CACHE_BACKEND")
	envOverrideInt(&cfg.IntentTTLMinutes, "INTENT_TTL_MINUTES")
	envOverrideInt(&cfg.ResponseTTLMinutes, "RESPONSE_TTL_MINUTES")
	envOverrideInt(&cfg.RequestTimeoutSeconds, "REQUEST_TIMEOUT_SECONDS")
	envOverride(&cfg.CelebrationSchedule, "CELEBRATION_SCHEDULE")
	envOverride(&cfg.CelebrationChannelID, "CELEBRATION_CHANNEL_ID")
	envOverride(&cfg.CompanyName, "COMPANY_NAME")

	// Defaults
	if cfg.LLMProvider == "" {
		cfg.LLMProvider = "anthropic"
	}
	if cfg.DBPath == "" {
		cfg.DBPath = "./assistbot.db"
	}
	if cfg.CacheBackend == "" {
		cfg.CacheBackend = "memory"
	}
	if cfg.IntentTTLMinutes == 0 {
		cfg.IntentTTLMinutes = 60
	}
	if cfg.ResponseTTLMinutes == 0 {
		cfg.ResponseTTLMinutes = 30
	}
	if cfg.RequestTimeoutSeconds == 0 {
		cfg.RequestTimeoutSeconds = 60
	}
	if cfg.CompanyName == "" {
		cfg.CompanyName = "the company"
	}

	// Validate required fields
	required := map[string]string{
		"slack_bot_token": cfg.SlackBotToken,
		"slack_app_token": cfg.SlackAppToken,
	}
	for name, val := range required {
		if val == "" {
			log.Fatalf("Required config '%s' is not set (via config.yaml or env var)", name)
		}
	}

	switch cfg.LLMProvider {
	case "anthropic":
		if cfg.AnthropicAPIKey == "" {
			log.Fatalf("anthropic_api_key is required when llm_provider=anthropic")
		}
	case "openai":
		if cfg.OpenAIAPIKey == "" {
			log.Fatalf("openai_api_key is required when llm_provider=openai")
		}
	default:
		log.Fatalf("llm_provider must be 'anthropic' or 'openai', got '%s'", cfg.LLMProvider)
	}

	switch cfg.CacheBackend {
	case "memory", "sqlite":
	default:
		log.Fatalf("cache_backend must be 'memory' or 'sqlite', got '%s'", cfg.CacheBackend)
	}

	// The cache itself does not police TTLs; a non-positive TTL is a
	// configuration error caught here.
	if cfg.IntentTTLMinutes < 1 {
		log.Fatalf("invalid intent_ttl_minutes '%d': must be >= 1", cfg.IntentTTLMinutes)
	}
	if cfg.ResponseTTLMinutes < 1 {
		log.Fatalf("invalid response_ttl_minutes '%d': must be >= 1", cfg.ResponseTTLMinutes)
	}
	if cfg.RequestTimeoutSeconds < 0 {
		log.Fatalf("invalid request_timeout_seconds '%d': must be >= 0", cfg.RequestTimeoutSeconds)
	}

	return cfg
}

func envOverride(field *string, envKey string) {
	if val := os.Getenv(envKey); val != "" {
		*field = val
	}
}

func envOverrideInt(field *int, envKey string) {
	if val := os.Getenv(envKey); val != "" {
		parsed, err := strconv.Atoi(val)
		if err != nil {
			log.Fatalf("invalid %s '%s': %v", envKey, val, err)
		}
		*field = parsed
	}
}
