package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Redis     RedisConfig     `yaml:"redis"`
	Auth      AuthConfig      `yaml:"auth"`
	LLM       LLMConfig       `yaml:"llm"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	RAG       RAGConfig       `yaml:"rag"`
	Tutor     TutorConfig     `yaml:"tutor"`
	Storage   StorageConfig   `yaml:"storage"`
	Speech    SpeechConfig    `yaml:"speech"`
	Queue     QueueConfig     `yaml:"queue"`
}

type ServerConfig struct {
	Host      string  `yaml:"host"`
	Port      int     `yaml:"port"`
	RateLimit float64 `yaml:"rate_limit"`
	RateBurst int     `yaml:"rate_burst"`

	// MaxInputRunes bounds a chat question or tutor answer.
	MaxInputRunes int `yaml:"max_input_runes"`
	// AllowedOrigins is a CORS allow list; "*" admits any origin.
	AllowedOrigins []string `yaml:"allowed_origins"`
}

type DatabaseConfig struct {
	URL            string `yaml:"url"`
	MaxConns       int    `yaml:"max_conns"`
	MinConns       int    `yaml:"min_conns"`
	MigrationsPath string `yaml:"migrations_path"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type AuthConfig struct {
	JWTSecret string `yaml:"jwt_secret"`
}

type LLMConfig struct {
	OpenAIKey        string `yaml:"openai_key"`
	AnthropicKey     string `yaml:"anthropic_key"`
	OllamaURL        string `yaml:"ollama_url"`
	DefaultProvider  string `yaml:"default_provider"`
	DefaultModel     string `yaml:"default_model"`
	FallbackProvider string `yaml:"fallback_provider"`
	FallbackModel    string `yaml:"fallback_model"`
	MaxRetries       int    `yaml:"max_retries"`
}

// EmbeddingConfig names the embedding model and its vector width. Ingestion
// and query paths must share one value.
type EmbeddingConfig struct {
	Provider   string `yaml:"provider"`
	Model      string `yaml:"model"`
	Dimensions int    `yaml:"dimensions"`
	CacheTTL   int    `yaml:"cache_ttl_seconds"`
}

type RAGConfig struct {
	ChunkSize        int `yaml:"chunk_size"`
	TopK             int `yaml:"top_k"`
	ProbeRunes       int `yaml:"probe_runes"`
	ContextMaxTokens int `yaml:"context_max_tokens"`
	SummaryRunes     int `yaml:"summary_runes"`
}

type TutorConfig struct {
	SessionLength     int `yaml:"session_length"`
	HistoryWindow     int `yaml:"history_window"`
	SourcePrefixRunes int `yaml:"source_prefix_runes"`
}

type StorageConfig struct {
	SupabaseURL string `yaml:"supabase_url"`
	SupabaseKey string `yaml:"supabase_key"`
	Bucket      string `yaml:"bucket"`
}

// SpeechConfig selects the voice used to narrate summaries. Narration is
// available only with an OpenAI key.
type SpeechConfig struct {
	Model string `yaml:"model"`
	Voice string `yaml:"voice"`
}

type QueueConfig struct {
	AsyncIngest bool `yaml:"async_ingest"`
	Concurrency int  `yaml:"concurrency"`
}

// Load builds the configuration from defaults, an optional YAML file named by
// CONFIG_FILE and the environment, in that order of precedence (env wins).
// A .env file in the working directory is loaded first if present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := Defaults()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func Defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Host:      "0.0.0.0",
			Port:      8080,
			RateLimit: 20,
			RateBurst: 40,

			MaxInputRunes:  4000,
			AllowedOrigins: []string{"*"},
		},
		Database: DatabaseConfig{
			MaxConns:       20,
			MinConns:       5,
			MigrationsPath: "migrations",
		},
		Redis: RedisConfig{
			Addr: "localhost:6379",
		},
		LLM: LLMConfig{
			OllamaURL:       "http://localhost:11434",
			DefaultProvider: "openai",
			DefaultModel:    "gpt-4o-mini",
			MaxRetries:      0,
		},
		Embedding: EmbeddingConfig{
			Provider:   "openai",
			Model:      "text-embedding-3-small",
			Dimensions: 768,
			CacheTTL:   86400,
		},
		RAG: RAGConfig{
			ChunkSize:        1000,
			TopK:             3,
			ProbeRunes:       2000,
			ContextMaxTokens: 6000,
			SummaryRunes:     30000,
		},
		Tutor: TutorConfig{
			SessionLength:     10,
			HistoryWindow:     10,
			SourcePrefixRunes: 4000,
		},
		Storage: StorageConfig{
			Bucket: "documents",
		},
		Speech: SpeechConfig{
			Model: "tts-1",
			Voice: "alloy",
		},
		Queue: QueueConfig{
			Concurrency: 5,
		},
	}
}

func applyEnv(cfg *Config) error {
	ints := []struct {
		key string
		dst *int
	}{
		{"SERVER_PORT", &cfg.Server.Port},
		{"RATE_LIMIT_BURST", &cfg.Server.RateBurst},
		{"MAX_INPUT_RUNES", &cfg.Server.MaxInputRunes},
		{"DB_MAX_CONNS", &cfg.Database.MaxConns},
		{"DB_MIN_CONNS", &cfg.Database.MinConns},
		{"REDIS_DB", &cfg.Redis.DB},
		{"LLM_MAX_RETRIES", &cfg.LLM.MaxRetries},
		{"EMBEDDING_DIMENSIONS", &cfg.Embedding.Dimensions},
		{"EMBEDDING_CACHE_TTL", &cfg.Embedding.CacheTTL},
		{"RAG_CHUNK_SIZE", &cfg.RAG.ChunkSize},
		{"RAG_TOP_K", &cfg.RAG.TopK},
		{"RAG_PROBE_RUNES", &cfg.RAG.ProbeRunes},
		{"RAG_CONTEXT_MAX_TOKENS", &cfg.RAG.ContextMaxTokens},
		{"TUTOR_SESSION_LENGTH", &cfg.Tutor.SessionLength},
		{"TUTOR_HISTORY_WINDOW", &cfg.Tutor.HistoryWindow},
		{"TUTOR_SOURCE_PREFIX", &cfg.Tutor.SourcePrefixRunes},
		{"QUEUE_CONCURRENCY", &cfg.Queue.Concurrency},
	}
	for _, i := range ints {
		v, err := getEnvInt(i.key, *i.dst)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", i.key, err)
		}
		*i.dst = v
	}

	if v := os.Getenv("RATE_LIMIT_RPS"); v != "" {
		rps, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("invalid RATE_LIMIT_RPS: %w", err)
		}
		cfg.Server.RateLimit = rps
	}
	if v := os.Getenv("QUEUE_INGEST"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid QUEUE_INGEST: %w", err)
		}
		cfg.Queue.AsyncIngest = b
	}

	if v := os.Getenv("CORS_ORIGINS"); v != "" {
		cfg.Server.AllowedOrigins = splitList(v)
	}

	cfg.Server.Host = getEnv("SERVER_HOST", cfg.Server.Host)
	cfg.Database.URL = getEnv("DATABASE_URL", cfg.Database.URL)
	cfg.Database.MigrationsPath = getEnv("MIGRATIONS_PATH", cfg.Database.MigrationsPath)
	cfg.Redis.Addr = getEnv("REDIS_ADDR", cfg.Redis.Addr)
	cfg.Redis.Password = getEnv("REDIS_PASSWORD", cfg.Redis.Password)
	cfg.Auth.JWTSecret = getEnv("JWT_SECRET", cfg.Auth.JWTSecret)
	cfg.LLM.OpenAIKey = getEnv("OPENAI_API_KEY", cfg.LLM.OpenAIKey)
	cfg.LLM.AnthropicKey = getEnv("ANTHROPIC_API_KEY", cfg.LLM.AnthropicKey)
	cfg.LLM.OllamaURL = getEnv("OLLAMA_URL", cfg.LLM.OllamaURL)
	cfg.LLM.DefaultProvider = getEnv("LLM_DEFAULT_PROVIDER", cfg.LLM.DefaultProvider)
	cfg.LLM.DefaultModel = getEnv("LLM_DEFAULT_MODEL", cfg.LLM.DefaultModel)
	cfg.LLM.FallbackProvider = getEnv("LLM_FALLBACK_PROVIDER", cfg.LLM.FallbackProvider)
	cfg.LLM.FallbackModel = getEnv("LLM_FALLBACK_MODEL", cfg.LLM.FallbackModel)
	cfg.Embedding.Provider = getEnv("EMBEDDING_PROVIDER", cfg.Embedding.Provider)
	cfg.Embedding.Model = getEnv("EMBEDDING_MODEL", cfg.Embedding.Model)
	cfg.Storage.SupabaseURL = getEnv("SUPABASE_URL", cfg.Storage.SupabaseURL)
	cfg.Storage.SupabaseKey = getEnv("SUPABASE_SERVICE_KEY", cfg.Storage.SupabaseKey)
	cfg.Storage.Bucket = getEnv("STORAGE_BUCKET", cfg.Storage.Bucket)
	cfg.Speech.Model = getEnv("TTS_MODEL", cfg.Speech.Model)
	cfg.Speech.Voice = getEnv("TTS_VOICE", cfg.Speech.Voice)

	return nil
}

func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

func (c *Config) Validate() error {
	var missing []string
	if c.Database.URL == "" {
		missing = append(missing, "DATABASE_URL")
	}
	if c.Auth.JWTSecret == "" {
		missing = append(missing, "JWT_SECRET")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required env vars: %s", strings.Join(missing, ", "))
	}
	if c.Embedding.Dimensions <= 0 {
		return fmt.Errorf("embedding dimensions must be positive, got %d", c.Embedding.Dimensions)
	}
	if c.RAG.ChunkSize <= 0 {
		return fmt.Errorf("chunk size must be positive, got %d", c.RAG.ChunkSize)
	}
	if c.Tutor.SessionLength <= 0 {
		return fmt.Errorf("tutor session length must be positive, got %d", c.Tutor.SessionLength)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	return strconv.Atoi(v)
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
