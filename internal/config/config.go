// Package config loads the relayctx configuration: a YAML file merged with
// RELAYCTX_* environment overrides, validated once at startup. The resulting
// struct is immutable by convention and passed by value into the engine;
// nothing reads the environment at call time.
package config

import (
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/WildfireRanch/relayctx/internal/errors"
)

// FileName is the per-project configuration file.
const FileName = ".relayctx.yaml"

// DataDirName is the per-project index/data directory.
const DataDirName = ".relayctx"

// Backend selects a tier's retrieval backend.
type Backend string

const (
	// BackendBleve is BM25 keyword retrieval over a bleve index.
	BackendBleve Backend = "bleve"
	// BackendSQLite is keyword retrieval over SQLite FTS5.
	BackendSQLite Backend = "sqlite"
	// BackendHNSW is vector retrieval over an in-process HNSW graph.
	BackendHNSW Backend = "hnsw"
)

// CounterKind selects the token counter implementation.
type CounterKind string

const (
	// CounterHeuristic is the ceil(len/4) character heuristic.
	CounterHeuristic CounterKind = "heuristic"
	// CounterTiktoken is accurate cl100k_base counting.
	CounterTiktoken CounterKind = "tiktoken"
)

// Config is the complete relayctx configuration.
type Config struct {
	Version int           `yaml:"version"`
	Engine  EngineConfig  `yaml:"engine"`
	Logging LoggingConfig `yaml:"logging"`
}

// EngineConfig holds the context-assembly knobs.
type EngineConfig struct {
	// MaxContextTokens is the overall token budget. Must be > 0.
	MaxContextTokens int `yaml:"max_context_tokens"`

	// Counter selects the token counter: heuristic or tiktoken.
	Counter CounterKind `yaml:"counter"`

	// CounterCache is the LRU size for memoized token counts.
	// 0 uses the package default; negative disables caching.
	CounterCache int `yaml:"counter_cache"`

	// IsolateTierFailures turns a failing retriever into an empty tier
	// contribution instead of failing the whole request.
	IsolateTierFailures bool `yaml:"isolate_tier_failures"`

	// DefaultTier is the policy for tiers without an explicit entry.
	DefaultTier TierSettings `yaml:"default_tier"`

	// Tiers holds per-tier settings keyed by tier name.
	Tiers map[string]TierSettings `yaml:"tiers"`
}

// TierSettings configures one retrieval tier.
type TierSettings struct {
	// Enabled wires the tier into the engine. Tiers absent from the
	// config, or present with enabled: false, are skipped silently.
	Enabled bool `yaml:"enabled"`

	// Backend selects the retrieval backend.
	Backend Backend `yaml:"backend"`

	// TopK is the per-call result bound. Must be >= 1.
	TopK int `yaml:"top_k"`

	// MinScore is the normalized score threshold in [0, 1].
	MinScore float64 `yaml:"min_score"`
}

// LoggingConfig mirrors the logging package knobs.
type LoggingConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// Default returns the configuration used when no file exists: keyword tiers
// for global and project docs, FTS5 for code, heuristic counting, and the
// stock budget.
func Default() Config {
	return Config{
		Version: 1,
		Engine: EngineConfig{
			MaxContextTokens: 2400,
			Counter:          CounterHeuristic,
			DefaultTier:      TierSettings{Enabled: true, Backend: BackendBleve, TopK: 6, MinScore: 0.35},
			Tiers: map[string]TierSettings{
				"global":       {Enabled: true, Backend: BackendBleve, TopK: 6, MinScore: 0.35},
				"project_docs": {Enabled: true, Backend: BackendBleve, TopK: 6, MinScore: 0.35},
				"code":         {Enabled: true, Backend: BackendSQLite, TopK: 6, MinScore: 0.35},
			},
		},
		Logging: LoggingConfig{Level: "info"},
	}
}

// Load reads root/.relayctx.yaml if present, applies environment overrides,
// and validates. A missing file is not an error; defaults apply.
func Load(root string) (Config, error) {
	cfg := Default()

	path := filepath.Join(root, FileName)
	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		// Defaults apply.
	case err != nil:
		return Config{}, errors.IOError("read config file", err).WithDetail("path", path)
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, errors.New(errors.ErrCodeConfigInvalid, "parse config file", err).
				WithDetail("path", path)
		}
	}

	applyEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// applyEnv merges RELAYCTX_* overrides. Environment wins over file values;
// malformed values are ignored rather than failing startup.
func applyEnv(cfg *Config) {
	if v, ok := envInt("RELAYCTX_MAX_CONTEXT_TOKENS"); ok {
		cfg.Engine.MaxContextTokens = v
	}
	if v, ok := envInt("RELAYCTX_TOP_K"); ok {
		cfg.Engine.DefaultTier.TopK = v
		for name, ts := range cfg.Engine.Tiers {
			ts.TopK = v
			cfg.Engine.Tiers[name] = ts
		}
	}
	if v, ok := envFloat("RELAYCTX_MIN_SCORE"); ok {
		cfg.Engine.DefaultTier.MinScore = v
		for name, ts := range cfg.Engine.Tiers {
			ts.MinScore = v
			cfg.Engine.Tiers[name] = ts
		}
	}
	if v := os.Getenv("RELAYCTX_COUNTER"); v != "" {
		cfg.Engine.Counter = CounterKind(v)
	}
	if v := os.Getenv("RELAYCTX_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}

func envInt(key string) (int, bool) {
	v := os.Getenv(key)
	if v == "" {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return n, true
}

func envFloat(key string) (float64, bool) {
	v := os.Getenv(key)
	if v == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// Validate rejects illegal knob values with field-named errors. The same
// invariants hold at the engine boundary; catching them here surfaces the
// offending config field instead of a generic engine error.
func (c Config) Validate() error {
	if c.Engine.MaxContextTokens <= 0 {
		return errors.ConfigError("engine.max_context_tokens must be > 0", nil).
			WithDetail("value", strconv.Itoa(c.Engine.MaxContextTokens))
	}
	switch c.Engine.Counter {
	case CounterHeuristic, CounterTiktoken, "":
	default:
		return errors.ConfigError("engine.counter must be heuristic or tiktoken", nil).
			WithDetail("value", string(c.Engine.Counter))
	}
	// The default tier is a policy template, not a wired tier; its knobs
	// are checked regardless of the enabled flag.
	def := c.Engine.DefaultTier
	def.Enabled = true
	if err := def.validate("engine.default_tier"); err != nil {
		return err
	}
	for name, ts := range c.Engine.Tiers {
		if err := ts.validate("engine.tiers." + name); err != nil {
			return err
		}
	}
	return nil
}

func (ts TierSettings) validate(field string) error {
	if !ts.Enabled {
		// Disabled tiers are never wired; a bare "enabled: false" entry
		// with zeroed knobs is legal.
		return nil
	}
	if ts.TopK <= 0 {
		return errors.ConfigError(field+".top_k must be >= 1", nil).
			WithDetail("value", strconv.Itoa(ts.TopK))
	}
	if ts.MinScore < 0 || ts.MinScore > 1 {
		return errors.ConfigError(field+".min_score must be in [0, 1]", nil)
	}
	switch ts.Backend {
	case BackendBleve, BackendSQLite, BackendHNSW, "":
	default:
		return errors.ConfigError(field+".backend must be bleve, sqlite, or hnsw", nil).
			WithDetail("value", string(ts.Backend))
	}
	return nil
}

// DataDir returns the index/data directory under root.
func DataDir(root string) string {
	return filepath.Join(root, DataDirName)
}

// IndexPath returns the on-disk index location for a tier given its backend.
func IndexPath(root, tier string, backend Backend) string {
	switch backend {
	case BackendSQLite:
		return filepath.Join(DataDir(root), tier+".db")
	default:
		return filepath.Join(DataDir(root), tier+".bleve")
	}
}
