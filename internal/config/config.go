package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
	timex "github.com/ferdiebergado/ragchat/internal/pkg/time"
)

type App struct {
	Env      string `json:"env,omitempty" env:"APP_ENV"`
	LogLevel string `json:"log_level,omitempty" env:"LOG_LEVEL"`
}

type Server struct {
	URL             string         `json:"url,omitempty" env:"URL"`
	Port            int            `json:"port,omitempty" env:"PORT"`
	ReadTimeout     timex.Duration `json:"read_timeout,omitempty"`
	WriteTimeout    timex.Duration `json:"write_timeout,omitempty"`
	IdleTimeout     timex.Duration `json:"idle_timeout,omitempty"`
	ShutdownTimeout timex.Duration `json:"shutdown_timeout,omitempty"`
	MaxBodyBytes    int64          `json:"max_body_bytes,omitempty"`
	AllowedOrigin   string         `json:"allowed_origin,omitempty" env:"ALLOWED_ORIGIN"`

	// BehindProxy makes X-Real-IP and X-Forwarded-For identify the client.
	// Leave it off unless a reverse proxy overwrites those headers.
	BehindProxy bool `json:"behind_proxy,omitempty" env:"BEHIND_PROXY"`
}

type DB struct {
	Driver          string         `json:"driver,omitempty"`
	MaxOpenConns    int            `json:"max_open_conns,omitempty"`
	MaxIdleConns    int            `json:"max_idle_conns,omitempty"`
	ConnMaxIdleTime timex.Duration `json:"conn_max_idle_time,omitempty"`
	ConnMaxLifetime timex.Duration `json:"conn_max_lifetime,omitempty"`
	PingTimeout     timex.Duration `json:"ping_timeout,omitempty"`

	Host    string `json:"-" env:"DB_HOST"`
	Port    string `json:"-" env:"DB_PORT"`
	User    string `json:"-" env:"DB_USER"`
	Pass    string `json:"-" env:"DB_PASS"`
	Name    string `json:"-" env:"DB_NAME"`
	SSLMode string `json:"-" env:"DB_SSLMODE"`
}

func (d *DB) DSN() string {
	const dsnFmt = "postgres://%s:%s@%s:%s/%s?sslmode=%s"
	return fmt.Sprintf(dsnFmt, d.User, d.Pass, d.Host, d.Port, d.Name, d.SSLMode)
}

type JWT struct {
	Issuer string         `json:"issuer,omitempty"`
	TTL    timex.Duration `json:"ttl,omitempty"`
	Key    string         `json:"-" env:"KEY"`
}

type Auth struct {
	Required bool `json:"required,omitempty" env:"AUTH_REQUIRED"`
}

type LLM struct {
	BaseURL     string         `json:"base_url,omitempty" env:"LLM_BASE_URL"`
	Model       string         `json:"model,omitempty" env:"LLM_MODEL"`
	MaxTokens   int            `json:"max_tokens,omitempty"`
	Temperature float64        `json:"temperature,omitempty"`
	Stop        []string       `json:"stop,omitempty"`
	Timeout     timex.Duration `json:"timeout,omitempty"`
	APIKey      string         `json:"-" env:"LLM_API_KEY"`

	// Breaker trips after this many consecutive failures.
	BreakerFailures uint32         `json:"breaker_failures,omitempty"`
	BreakerTimeout  timex.Duration `json:"breaker_timeout,omitempty"`
}

type Embedding struct {
	BaseURL   string         `json:"base_url,omitempty" env:"EMBEDDING_BASE_URL"`
	Model     string         `json:"model,omitempty" env:"EMBEDDING_MODEL"`
	BatchSize int            `json:"batch_size,omitempty"`
	Timeout   timex.Duration `json:"timeout,omitempty"`
	APIKey    string         `json:"-" env:"EMBEDDING_API_KEY"`
}

type Cache struct {
	Enabled  bool           `json:"enabled,omitempty" env:"CACHE_ENABLED"`
	Addr     string         `json:"addr,omitempty" env:"REDIS_ADDR"`
	DB       int            `json:"db,omitempty"`
	TTL      timex.Duration `json:"ttl,omitempty"`
	Prefix   string         `json:"prefix,omitempty"`
	Password string         `json:"-" env:"REDIS_PASSWORD"`
}

type Weaviate struct {
	Host   string `json:"host,omitempty" env:"WEAVIATE_HOST"`
	Scheme string `json:"scheme,omitempty"`
	APIKey string `json:"-" env:"WEAVIATE_API_KEY"`
}

type VectorStore struct {
	Backend          string    `json:"backend,omitempty" env:"VECTORSTORE_BACKEND"`
	PersistDirectory string    `json:"persist_directory,omitempty" env:"PERSIST_DIRECTORY"`
	Collection       string    `json:"collection,omitempty"`
	DistanceMetric   string    `json:"distance_metric,omitempty"`
	Weaviate         *Weaviate `json:"weaviate,omitempty"`
}

type RAG struct {
	TopK              int     `json:"top_k,omitempty"`
	DistanceThreshold float64 `json:"distance_threshold,omitempty"`
	MaxContextChars   int     `json:"max_context_chars,omitempty"`
}

type Router struct {
	Keywords []string `json:"keywords,omitempty"`
}

type Chat struct {
	DefaultTitle string `json:"default_title,omitempty"`
	TitleLength  int    `json:"title_length,omitempty"`
}

type Ingest struct {
	ChunkSize    int `json:"chunk_size,omitempty"`
	ChunkOverlap int `json:"chunk_overlap,omitempty"`
	Workers      int `json:"workers,omitempty"`
}

type RateLimit struct {
	RPS   float64 `json:"rps,omitempty"`
	Burst int     `json:"burst,omitempty"`
}

type Telemetry struct {
	Endpoint    string `json:"endpoint,omitempty" env:"OTEL_ENDPOINT"`
	ServiceName string `json:"service_name,omitempty"`
}

type Config struct {
	App         *App         `json:"app,omitempty"`
	Server      *Server      `json:"server,omitempty"`
	DB          *DB          `json:"db,omitempty"`
	JWT         *JWT         `json:"jwt,omitempty"`
	Auth        *Auth        `json:"auth,omitempty"`
	LLM         *LLM         `json:"llm,omitempty"`
	Embedding   *Embedding   `json:"embedding,omitempty"`
	Cache       *Cache       `json:"cache,omitempty"`
	VectorStore *VectorStore `json:"vectorstore,omitempty"`
	RAG         *RAG         `json:"rag,omitempty"`
	Router      *Router      `json:"router,omitempty"`
	Chat        *Chat        `json:"chat,omitempty"`
	Ingest      *Ingest      `json:"ingest,omitempty"`
	RateLimit   *RateLimit   `json:"rate_limit,omitempty"`
	Telemetry   *Telemetry   `json:"telemetry,omitempty"`
}

func (c *Config) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Any("app", c.App),
		slog.Any("server", c.Server),
		slog.Any("db", c.DB),
		slog.Any("llm", c.LLM),
		slog.Any("embedding", c.Embedding),
		slog.Any("cache", c.Cache),
		slog.Any("vectorstore", c.VectorStore),
		slog.Any("rag", c.RAG),
		slog.Any("router", c.Router),
		slog.Any("ingest", c.Ingest),
	)
}

// Defaults returns the configuration used for anything config.json leaves out.
func Defaults() *Config {
	return &Config{
		App: &App{Env: "development", LogLevel: "info"},
		Server: &Server{
			Port:            8000,
			ReadTimeout:     timex.Of(10 * time.Second),
			WriteTimeout:    timex.Of(180 * time.Second),
			IdleTimeout:     timex.Of(60 * time.Second),
			ShutdownTimeout: timex.Of(10 * time.Second),
			MaxBodyBytes:    1 << 20,
			AllowedOrigin:   "*",
		},
		DB: &DB{
			Driver:          "pgx",
			MaxOpenConns:    10,
			MaxIdleConns:    5,
			ConnMaxIdleTime: timex.Of(5 * time.Minute),
			ConnMaxLifetime: timex.Of(time.Hour),
			PingTimeout:     timex.Of(5 * time.Second),
		},
		JWT:  &JWT{Issuer: "ragchat", TTL: timex.Of(24 * time.Hour)},
		Auth: &Auth{},
		LLM: &LLM{
			BaseURL:         "http://localhost:8080",
			Model:           "mistral-7b-instruct",
			MaxTokens:       512,
			Temperature:     0.7,
			Stop:            []string{"</s>", "[INST]"},
			Timeout:         timex.Of(120 * time.Second),
			BreakerFailures: 5,
			BreakerTimeout:  timex.Of(30 * time.Second),
		},
		Embedding: &Embedding{
			BaseURL:   "http://localhost:8081",
			Model:     "all-MiniLM-L6-v2",
			BatchSize: 32,
			Timeout:   timex.Of(30 * time.Second),
		},
		Cache: &Cache{
			Addr:   "localhost:6379",
			TTL:    timex.Of(7 * 24 * time.Hour),
			Prefix: "ragchat:embedding:",
		},
		VectorStore: &VectorStore{
			Backend:          "sqlite",
			PersistDirectory: "data",
			Collection:       "documents",
			DistanceMetric:   "cosine",
			Weaviate:         &Weaviate{Host: "localhost:8088", Scheme: "http"},
		},
		RAG:       &RAG{TopK: 3, DistanceThreshold: 0.7, MaxContextChars: 1000},
		Router:    &Router{},
		Chat:      &Chat{DefaultTitle: "New Chat", TitleLength: 30},
		Ingest:    &Ingest{ChunkSize: 1000, ChunkOverlap: 200, Workers: 4},
		RateLimit: &RateLimit{RPS: 2, Burst: 4},
		Telemetry: &Telemetry{ServiceName: "ragchat"},
	}
}

// Load reads cfgFile over the defaults and applies environment overrides.
func Load(cfgFile string) (*Config, error) {
	slog.Info("Loading config...")
	cfg := Defaults()
	if err := parseCfgFile(cfgFile, cfg); err != nil {
		return nil, err
	}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config %s: %w", cfgFile, err)
	}

	slog.Info("Config loaded.", "config_file", cfgFile, slog.Any("config", cfg))
	return cfg, nil
}

func parseCfgFile(cfgFile string, cfg *Config) error {
	cfgFile = filepath.Clean(cfgFile)
	b, err := os.ReadFile(cfgFile)
	if err != nil {
		return fmt.Errorf("read config file %s: %w", cfgFile, err)
	}

	decoder := json.NewDecoder(bytes.NewReader(b))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(cfg); err != nil {
		return fmt.Errorf("decode json config %s: %w", cfgFile, err)
	}

	return nil
}

var (
	metrics  = []string{"cosine", "l2", "ip"}
	backends = []string{"sqlite", "weaviate"}
)

func (c *Config) Validate() error {
	var errs []error

	if !oneOf(c.VectorStore.DistanceMetric, metrics) {
		errs = append(errs, fmt.Errorf("vectorstore.distance_metric %q must be one of %v", c.VectorStore.DistanceMetric, metrics))
	}
	if !oneOf(c.VectorStore.Backend, backends) {
		errs = append(errs, fmt.Errorf("vectorstore.backend %q must be one of %v", c.VectorStore.Backend, backends))
	}
	if c.VectorStore.Collection == "" {
		errs = append(errs, errors.New("vectorstore.collection is required"))
	}
	if c.RAG.TopK < 1 {
		errs = append(errs, fmt.Errorf("rag.top_k must be at least 1, got %d", c.RAG.TopK))
	}
	if c.RAG.DistanceThreshold <= 0 {
		errs = append(errs, fmt.Errorf("rag.distance_threshold must be positive, got %v", c.RAG.DistanceThreshold))
	}
	if c.Ingest.ChunkSize < 1 || c.Ingest.ChunkOverlap < 0 || c.Ingest.ChunkOverlap >= c.Ingest.ChunkSize {
		errs = append(errs, fmt.Errorf("ingest.chunk_overlap (%d) must be in [0, chunk_size=%d)", c.Ingest.ChunkOverlap, c.Ingest.ChunkSize))
	}
	if c.Auth.Required && c.JWT.Key == "" {
		errs = append(errs, errors.New("KEY must be set when auth.required is true"))
	}
	if c.Chat.TitleLength < 1 {
		errs = append(errs, fmt.Errorf("chat.title_length must be at least 1, got %d", c.Chat.TitleLength))
	}

	return errors.Join(errs...)
}

func oneOf(s string, allowed []string) bool {
	for _, a := range allowed {
		if s == a {
			return true
		}
	}
	return false
}
