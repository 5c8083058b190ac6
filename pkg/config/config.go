package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
)

// LLMProvider defines the backend LLM service type
type LLMProvider string

const (
	ProviderNone       LLMProvider = "none"       // No LLM, heuristics only
	ProviderOllama     LLMProvider = "ollama"     // Local Ollama server
	ProviderOpenRouter LLMProvider = "openrouter" // OpenRouter (has free tier)
	ProviderGroq       LLMProvider = "groq"       // Groq (high-speed inference)
	ProviderOpenAI     LLMProvider = "openai"     // Direct OpenAI API
)

// Config holds global settings for the fraud-scoring engine.
// All settings can be configured via environment variables or programmatically.
type Config struct {
	// === Detection Thresholds (0.0 - 1.0) ===
	// Tune these to balance recall vs. false positives
	FraudThreshold    float64 // Score above this = fraud (default: 0.6)
	OverrideThreshold float64 // Heuristic score needed to overrule an external "safe" (default: 0.8)
	SimilarityBonus   float64 // Added to the heuristic estimate on a known-scam match (default: 0.15)

	// === External Detector Configuration ===
	LLMProvider       LLMProvider // Which LLM service to use: "ollama", "openrouter", "groq", "openai", "none"
	LLMAPIKey         string      // API key for cloud providers
	LLMModel          string      // Model identifier (e.g. "gpt-4o-mini", "qwen2.5:7b")
	LLMBaseURL        string      // Custom base URL for self-hosted endpoints
	DetectorTimeoutMs int         // Hard timeout per external detector call (default: 10000)
	DetectorEndpoint  string      // Optional plain-HTTP classifier endpoint

	// === Local ONNX Model ===
	EnableLocalModel bool   // Run the bundled spam classifier via onnxruntime
	ModelPath        string // Directory holding the ONNX model files
	OnnxLibraryPath  string // Explicit libonnxruntime path (auto-detected when empty)

	// === Scam Similarity (chromem + Ollama embeddings) ===
	EnableSimilarity bool
	OllamaURL        string // Embedding server base URL (default: http://localhost:11434)

	// === Sender Blacklist ===
	BlacklistPath string // YAML blacklist file; empty = bundled seed dataset
	RedisAddr     string // When set, the blacklist is read from Redis instead
	RedisPassword string
	RedisDB       int

	// === Persistence & Audit ===
	PostgresDSN  string // When set, verdicts are persisted for the stats endpoint
	AuditLogPath string // Append-only JSONL decision log (default: "fraud_events.jsonl")

	// === Server ===
	ListenAddr string // HTTP listen address for serve mode (default: ":8080")
}

// NewDefaultConfig creates a Config with sensible defaults.
// All settings can be overridden via environment variables.
func NewDefaultConfig() *Config {
	return &Config{
		FraudThreshold:    GetEnvFloat("FRAUDSHIELD_THRESHOLD", 0.6),
		OverrideThreshold: GetEnvFloat("FRAUDSHIELD_OVERRIDE_THRESHOLD", 0.8),
		SimilarityBonus:   GetEnvFloat("FRAUDSHIELD_SIMILARITY_BONUS", 0.15),

		LLMProvider:       detectLLMProvider(),
		LLMAPIKey:         GetEnv("FRAUDSHIELD_LLM_API_KEY", GetEnv("GROQ_API_KEY", os.Getenv("OPENROUTER_API_KEY"))),
		LLMModel:          GetEnv("FRAUDSHIELD_LLM_MODEL", ""),
		LLMBaseURL:        GetEnv("FRAUDSHIELD_LLM_BASE_URL", ""),
		DetectorTimeoutMs: GetEnvInt("FRAUDSHIELD_DETECTOR_TIMEOUT_MS", 10000),
		DetectorEndpoint:  GetEnv("FRAUDSHIELD_DETECTOR_ENDPOINT", ""),

		EnableLocalModel: GetEnvBool("FRAUDSHIELD_ENABLE_LOCAL_MODEL", false),
		ModelPath:        GetEnv("FRAUDSHIELD_MODEL_PATH", "./models/bert-tiny-sms-spam"),
		OnnxLibraryPath:  GetEnv("ONNX_LIBRARY_PATH", ""),

		EnableSimilarity: GetEnvBool("FRAUDSHIELD_ENABLE_SIMILARITY", false),
		OllamaURL:        GetEnv("FRAUDSHIELD_OLLAMA_URL", "http://localhost:11434"),

		BlacklistPath: GetEnv("FRAUDSHIELD_BLACKLIST_PATH", ""),
		RedisAddr:     GetEnv("FRAUDSHIELD_REDIS_ADDR", ""),
		RedisPassword: GetEnv("FRAUDSHIELD_REDIS_PASSWORD", ""),
		RedisDB:       GetEnvInt("FRAUDSHIELD_REDIS_DB", 0),

		PostgresDSN:  GetEnv("FRAUDSHIELD_POSTGRES_DSN", ""),
		AuditLogPath: GetEnv("FRAUDSHIELD_AUDIT_LOG", "fraud_events.jsonl"),

		ListenAddr: GetEnv("FRAUDSHIELD_LISTEN_ADDR", ":8080"),
	}
}

// NewLocalConfig creates a Config optimized for fully local operation
// (no cloud API calls). Use this for development or air-gapped setups.
func NewLocalConfig() *Config {
	cfg := NewDefaultConfig()
	cfg.LLMProvider = ProviderOllama
	cfg.LLMBaseURL = "http://localhost:11434/v1"
	cfg.LLMModel = "qwen2.5:7b"
	cfg.LLMAPIKey = ""
	cfg.EnableLocalModel = true
	cfg.EnableSimilarity = true
	return cfg
}

// NewHeuristicOnlyConfig disables every external dependency. The engine
// still produces verdicts for all inputs on the heuristic path alone.
func NewHeuristicOnlyConfig() *Config {
	cfg := NewDefaultConfig()
	cfg.LLMProvider = ProviderNone
	cfg.EnableLocalModel = false
	cfg.EnableSimilarity = false
	return cfg
}

func detectLLMProvider() LLMProvider {
	// Check explicit provider setting first
	if p := os.Getenv("FRAUDSHIELD_LLM_PROVIDER"); p != "" {
		return LLMProvider(p)
	}
	// Auto-detect based on available keys
	if os.Getenv("GROQ_API_KEY") != "" {
		return ProviderGroq
	}
	if os.Getenv("OPENROUTER_API_KEY") != "" || os.Getenv("FRAUDSHIELD_LLM_API_KEY") != "" {
		return ProviderOpenRouter
	}
	if os.Getenv("OPENAI_API_KEY") != "" {
		return ProviderOpenAI
	}
	// No cloud keys: heuristics only. Running an LLM should be opt-in,
	// not a surprise dependency on a local Ollama install.
	return ProviderNone
}

// Validate checks threshold ordering and provider requirements.
func (c *Config) Validate() error {
	var problems []string

	if c.FraudThreshold <= 0 || c.FraudThreshold >= 1 {
		problems = append(problems, "FRAUDSHIELD_THRESHOLD must be in (0,1)")
	}
	if c.OverrideThreshold <= c.FraudThreshold || c.OverrideThreshold > 1 {
		problems = append(problems, "FRAUDSHIELD_OVERRIDE_THRESHOLD must be in (threshold,1]")
	}
	if c.SimilarityBonus < 0 || c.SimilarityBonus > 0.5 {
		problems = append(problems, "FRAUDSHIELD_SIMILARITY_BONUS must be in [0,0.5]")
	}
	if c.DetectorTimeoutMs <= 0 {
		problems = append(problems, "FRAUDSHIELD_DETECTOR_TIMEOUT_MS must be positive")
	}

	switch c.LLMProvider {
	case ProviderNone, ProviderOllama:
		// No key needed.
	case ProviderOpenRouter, ProviderGroq, ProviderOpenAI:
		if c.LLMAPIKey == "" {
			problems = append(problems, fmt.Sprintf("provider %q requires FRAUDSHIELD_LLM_API_KEY", c.LLMProvider))
		}
	default:
		problems = append(problems, fmt.Sprintf("unknown LLM provider %q", c.LLMProvider))
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return nil
}

// MustValidate calls Validate and fatally exits if validation fails.
// Call this at startup before serving traffic.
func (c *Config) MustValidate() {
	if err := c.Validate(); err != nil {
		log.Fatalf("[STARTUP] FATAL: Configuration validation failed: %v", err)
	}
	log.Println("[STARTUP] Configuration validated successfully")
}

// Helper functions for environment variable parsing.
// These are exported for use by other packages.

// GetEnv returns the value of an environment variable or a default value.
func GetEnv(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

// GetEnvBool returns the boolean value of an environment variable or a default value.
func GetEnvBool(key string, defaultValue bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return defaultValue
}

// GetEnvFloat returns the float64 value of an environment variable or a default value.
func GetEnvFloat(key string, defaultValue float64) float64 {
	if v := os.Getenv(key); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err == nil {
			return f
		}
	}
	return defaultValue
}

// GetEnvInt returns the integer value of an environment variable or a default value.
func GetEnvInt(key string, defaultValue int) int {
	if v := os.Getenv(key); v != "" {
		i, err := strconv.Atoi(v)
		if err == nil {
			return i
		}
	}
	return defaultValue
}
