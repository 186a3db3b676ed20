package ticketeta

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/lucas-stellet/ticketeta/compose"
	"github.com/lucas-stellet/ticketeta/embed"
)

// Config holds the ticketeta configuration loaded from a TOML file.
type Config struct {
	Embedding EmbeddingConfig `toml:"embedding"`
	Compose   ComposeConfig   `toml:"compose"`
	Cache     CacheConfig     `toml:"cache"`
	Vector    VectorConfig    `toml:"vector"`
	Text      TextConfig      `toml:"text"`
	Engine    EngineCfg       `toml:"engine"`
}

// EmbeddingConfig configures the embedding provider.
type EmbeddingConfig struct {
	Provider   string `toml:"provider"` // "openai", "ollama", "google", "noop"
	Model      string `toml:"model"`
	APIKey     string `toml:"api_key"` // supports ${ENV_VAR} expansion
	URL        string `toml:"url"`
	Dimensions int    `toml:"dimensions"`
	Retries    int    `toml:"retries"` // attempts per call (default 3, 1 disables retry)
}

// ComposeConfig configures the notification composer.
type ComposeConfig struct {
	Provider  string `toml:"provider"` // "template", "anthropic", "openai"
	Model     string `toml:"model"`
	APIKey    string `toml:"api_key"`
	URL       string `toml:"url"`
	MaxTokens int    `toml:"max_tokens"`
	Summarize bool   `toml:"summarize"` // summarize long descriptions before indexing
}

// CacheConfig configures the result cache.
type CacheConfig struct {
	Backend string `toml:"backend"` // "none", "file", "redis"
	Dir     string `toml:"dir"`
	URL     string `toml:"url"`
	Prefix  string `toml:"prefix"`
	TTL     string `toml:"ttl"` // e.g. "1h" or "1d"
}

// VectorConfig groups the two vector stores.
type VectorConfig struct {
	Active   VectorStoreConfig `toml:"active"`
	Historic VectorStoreConfig `toml:"historic"`
}

// VectorStoreConfig configures one vector store. An empty backend disables it.
type VectorStoreConfig struct {
	Backend    string `toml:"backend"` // "qdrant", "pgvector", ""
	URL        string `toml:"url"`     // qdrant URL or postgres DSN
	APIKey     string `toml:"api_key"`
	Collection string `toml:"collection"` // qdrant collection or postgres table
	Ensure     bool   `toml:"ensure"`     // create collection/table when missing
}

// TextConfig configures the Bleve text index. An empty path disables it.
type TextConfig struct {
	Path         string   `toml:"path"`
	VectorField  string   `toml:"vector_field"`
	VectorFields []string `toml:"vector_fields"` // probe order for hybrid search
}

// EngineCfg configures orchestration behavior.
type EngineCfg struct {
	SearchLimit    int    `toml:"search_limit"`
	NoMatch        string `toml:"no_match"` // "default" or "invalid"
	EmbedTimeout   string `toml:"embed_timeout"`
	BackendTimeout string `toml:"backend_timeout"`
	CacheTimeout   string `toml:"cache_timeout"`
	ComposeTimeout string `toml:"compose_timeout"`
}

// LoadConfig reads a TOML file at path and returns a parsed Config.
// ${VAR_NAME} references in secrets and connection strings are expanded.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var cfg Config
	if _, err := toml.Decode(string(data), &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	for _, s := range []*string{
		&cfg.Embedding.APIKey, &cfg.Embedding.URL,
		&cfg.Compose.APIKey, &cfg.Compose.URL,
		&cfg.Cache.URL, &cfg.Cache.Dir, &cfg.Text.Path,
		&cfg.Vector.Active.URL, &cfg.Vector.Active.APIKey,
		&cfg.Vector.Historic.URL, &cfg.Vector.Historic.APIKey,
	} {
		*s = expandEnvVars(*s)
	}

	return &cfg, nil
}

// BuildEmbedFunc constructs an EmbeddingFunc from the embedding configuration.
// It returns nil for the noop provider so vector tiers are skipped cheaply.
func (c *Config) BuildEmbedFunc() (embed.EmbeddingFunc, error) {
	var fn embed.EmbeddingFunc
	switch c.Embedding.Provider {
	case "noop", "":
		return nil, nil
	case "openai":
		fn = embed.OpenAI(embed.OpenAIConfig{
			URL:        c.Embedding.URL,
			APIKey:     c.Embedding.APIKey,
			Model:      c.Embedding.Model,
			Dimensions: c.Embedding.Dimensions,
		})
	case "ollama":
		fn = embed.Ollama(embed.OllamaConfig{
			URL:   c.Embedding.URL,
			Model: c.Embedding.Model,
		})
	case "google":
		fn = embed.Google(embed.GoogleConfig{
			URL:    c.Embedding.URL,
			APIKey: c.Embedding.APIKey,
			Model:  c.Embedding.Model,
		})
	default:
		return nil, fmt.Errorf("unknown embedding provider: %q", c.Embedding.Provider)
	}

	retry := embed.DefaultRetryConfig()
	if c.Embedding.Retries > 0 {
		retry.MaxRetries = c.Embedding.Retries
	}
	return embed.WithDimensions(embed.WithRetry(fn, retry), c.Embedding.Dimensions), nil
}

// BuildComposer constructs the notification composer and optional summarizer.
func (c *Config) BuildComposer() (compose.Func, compose.SummarizeFunc, error) {
	var gen compose.GenerateFunc
	switch c.Compose.Provider {
	case "template", "":
		return compose.Template(), nil, nil
	case "anthropic":
		gen = compose.Anthropic(compose.AnthropicConfig{
			APIKey:    c.Compose.APIKey,
			Model:     c.Compose.Model,
			URL:       c.Compose.URL,
			MaxTokens: int64(c.Compose.MaxTokens),
		})
	case "openai":
		gen = compose.OpenAI(compose.OpenAIConfig{
			APIKey:    c.Compose.APIKey,
			Model:     c.Compose.Model,
			URL:       c.Compose.URL,
			MaxTokens: c.Compose.MaxTokens,
		})
	default:
		return nil, nil, fmt.Errorf("unknown compose provider: %q", c.Compose.Provider)
	}

	var summarize compose.SummarizeFunc
	if c.Compose.Summarize {
		summarize = compose.Summarizer(gen, SummaryFallbackLength)
	}
	return compose.Notifier(gen), summarize, nil
}

// BuildEngineConfig opens every configured backend and returns a ready
// EngineConfig. On error, anything already opened is closed.
func (c *Config) BuildEngineConfig(ctx context.Context, logger *slog.Logger) (cfg EngineConfig, err error) {
	if logger == nil {
		logger = slog.Default()
	}
	cfg.Logger = logger

	var opened []interface{ Close() error }
	defer func() {
		if err != nil {
			for _, o := range opened {
				o.Close()
			}
		}
	}()

	if cfg.EmbedFunc, err = c.BuildEmbedFunc(); err != nil {
		return cfg, fmt.Errorf("build embed func: %w", err)
	}
	if cfg.Compose, cfg.Summarize, err = c.BuildComposer(); err != nil {
		return cfg, fmt.Errorf("build composer: %w", err)
	}

	durations := []struct {
		name string
		raw  string
		dst  *time.Duration
	}{
		{"embed_timeout", c.Engine.EmbedTimeout, &cfg.EmbedTimeout},
		{"backend_timeout", c.Engine.BackendTimeout, &cfg.BackendTimeout},
		{"cache_timeout", c.Engine.CacheTimeout, &cfg.CacheTimeout},
		{"compose_timeout", c.Engine.ComposeTimeout, &cfg.ComposeTimeout},
		{"cache.ttl", c.Cache.TTL, &cfg.CacheTTL},
	}
	for _, d := range durations {
		if *d.dst, err = parseDuration(d.raw); err != nil {
			return cfg, fmt.Errorf("parse %s: %w", d.name, err)
		}
	}
	cfg.SearchLimit = c.Engine.SearchLimit
	cfg.NoMatch = NoMatchOutcome(c.Engine.NoMatch)

	switch c.Cache.Backend {
	case "", "none":
	case "file":
		dir := c.Cache.Dir
		if dir == "" {
			dir = filepath.Join(".ticketeta", "cache")
		}
		fc, ferr := NewFileCache(dir)
		if ferr != nil {
			return cfg, fmt.Errorf("open file cache: %w", ferr)
		}
		cfg.Cache = fc
	case "redis":
		prefix := c.Cache.Prefix
		if prefix == "" {
			prefix = "ticketeta:"
		}
		rc, rerr := NewRedisCache(ctx, c.Cache.URL, prefix)
		if rerr != nil {
			return cfg, fmt.Errorf("open redis cache: %w", rerr)
		}
		cfg.Cache = rc
	default:
		return cfg, fmt.Errorf("unknown cache backend: %q", c.Cache.Backend)
	}
	if cfg.Cache != nil {
		opened = append(opened, cfg.Cache)
	}

	if cfg.ActiveIndex, err = c.openVectorStore(ctx, "active", c.Vector.Active, logger); err != nil {
		return cfg, err
	}
	if cfg.ActiveIndex != nil {
		opened = append(opened, cfg.ActiveIndex)
	}
	if cfg.HistoricIndex, err = c.openVectorStore(ctx, "historic", c.Vector.Historic, logger); err != nil {
		return cfg, err
	}
	if cfg.HistoricIndex != nil {
		opened = append(opened, cfg.HistoricIndex)
	}

	if c.Text.Path != "" {
		bi, berr := NewBleveIndex(IndexerConfig{
			Path:        c.Text.Path,
			Dims:        c.Embedding.Dimensions,
			VectorField: c.Text.VectorField,
		})
		if berr != nil {
			return cfg, fmt.Errorf("open text index: %w", berr)
		}
		cfg.TextIndex = bi
		cfg.VectorFields = c.Text.VectorFields
		if c.Text.VectorField != "" && len(cfg.VectorFields) == 0 {
			cfg.VectorFields = append([]string{c.Text.VectorField}, DefaultVectorFields...)
		}
	}

	return cfg, nil
}

// openVectorStore returns nil, nil when the store is not configured.
func (c *Config) openVectorStore(ctx context.Context, name string, vc VectorStoreConfig, logger *slog.Logger) (VectorIndex, error) {
	switch vc.Backend {
	case "":
		return nil, nil
	case "qdrant":
		qi, err := NewQdrantIndex(QdrantConfig{
			URL:        vc.URL,
			APIKey:     vc.APIKey,
			Collection: vc.Collection,
			Dims:       uint64(max(c.Embedding.Dimensions, 0)), //nolint:gosec
		}, logger.With("store", name))
		if err != nil {
			return nil, fmt.Errorf("open %s vector store: %w", name, err)
		}
		if vc.Ensure {
			if err := qi.EnsureCollection(ctx); err != nil {
				qi.Close()
				return nil, fmt.Errorf("ensure %s collection: %w", name, err)
			}
		}
		return qi, nil
	case "pgvector":
		pi, err := NewPgVectorIndex(ctx, PgVectorConfig{
			DSN:   vc.URL,
			Table: vc.Collection,
			Dims:  c.Embedding.Dimensions,
		}, logger.With("store", name))
		if err != nil {
			return nil, fmt.Errorf("open %s vector store: %w", name, err)
		}
		if vc.Ensure {
			if err := pi.EnsureSchema(ctx); err != nil {
				pi.Close()
				return nil, fmt.Errorf("ensure %s table: %w", name, err)
			}
		}
		return pi, nil
	default:
		return nil, fmt.Errorf("unknown %s vector backend: %q", name, vc.Backend)
	}
}

// expandEnvVars replaces ${VAR_NAME} patterns in s with the corresponding environment variable values.
func expandEnvVars(s string) string {
	return os.Expand(s, os.Getenv)
}

// parseDuration accepts Go durations ("90s", "1h") and whole days ("1d").
// An empty string returns zero, meaning "use the default".
func parseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}

	if days, ok := strings.CutSuffix(s, "d"); ok {
		n, err := strconv.Atoi(days)
		if err != nil {
			return 0, fmt.Errorf("invalid number of days in %q: %w", s, err)
		}
		return time.Duration(n) * 24 * time.Hour, nil
	}

	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, errors.New("duration must not be negative")
	}
	return d, nil
}
