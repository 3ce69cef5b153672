package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the ESG assistant.
type Config struct {
	Chunking  ChunkingConfig  `yaml:"chunking" toml:"chunking"`
	Embedding EmbeddingConfig `yaml:"embedding" toml:"embedding"`
	Index     IndexConfig     `yaml:"index" toml:"index"`
	Retrieve  RetrieveConfig  `yaml:"retrieve" toml:"retrieve"`
	Scoring   ScoringConfig   `yaml:"scoring" toml:"scoring"`
	LLM       LLMConfig       `yaml:"llm" toml:"llm"`
	Search    SearchConfig    `yaml:"search" toml:"search"`
	Extract   ExtractConfig   `yaml:"extract" toml:"extract"`
	Server    ServerConfig    `yaml:"server" toml:"server"`
	Logging   LoggingConfig   `yaml:"logging" toml:"logging"`
}

// ChunkingConfig holds both segmentation policies. Sizes are in characters.
type ChunkingConfig struct {
	ChunkSize    int `yaml:"chunk_size" toml:"chunk_size"`
	ChunkOverlap int `yaml:"chunk_overlap" toml:"chunk_overlap"`
	BlockSize    int `yaml:"block_size" toml:"block_size"`
}

// EmbeddingConfig holds embedding configuration.
type EmbeddingConfig struct {
	Provider  string `yaml:"provider" toml:"provider"` // "hash", "ollama", "openai"
	Model     string `yaml:"model" toml:"model"`
	BaseURL   string `yaml:"base_url" toml:"base_url"`
	APIKeyEnv string `yaml:"api_key_env" toml:"api_key_env"` // Environment variable for API key
	Dimension int    `yaml:"dimension" toml:"dimension"`
	MaxTokens int    `yaml:"max_tokens" toml:"max_tokens"`
	BatchSize int    `yaml:"batch_size" toml:"batch_size"`
}

// IndexConfig selects the vector index backend.
type IndexConfig struct {
	Backend string `yaml:"backend" toml:"backend"` // "flat", "chromem"
}

// RetrieveConfig holds retrieval configuration.
type RetrieveConfig struct {
	TopK            int `yaml:"top_k" toml:"top_k"`
	CacheSize       int `yaml:"cache_size" toml:"cache_size"` // 0 disables the query cache
	CacheTTLSeconds int `yaml:"cache_ttl_seconds" toml:"cache_ttl_seconds"`
}

// ScoringConfig holds the keyword risk scoring rules.
type ScoringConfig struct {
	Weights     WeightsConfig  `yaml:"weights" toml:"weights"`
	PositiveCap int            `yaml:"positive_cap" toml:"positive_cap"`
	NegativeCap int            `yaml:"negative_cap" toml:"negative_cap"`
	Parallel    bool           `yaml:"parallel" toml:"parallel"`
	Workers     int            `yaml:"workers" toml:"workers"`
	Lexicons    LexiconsConfig `yaml:"lexicons" toml:"lexicons"`
}

// WeightsConfig holds the dimension weights of the overall score.
type WeightsConfig struct {
	Environmental float64 `yaml:"environmental" toml:"environmental"`
	Social        float64 `yaml:"social" toml:"social"`
	Governance    float64 `yaml:"governance" toml:"governance"`
}

// LexiconsConfig holds one lexicon pair per dimension.
type LexiconsConfig struct {
	Environmental LexiconConfig `yaml:"environmental" toml:"environmental"`
	Social        LexiconConfig `yaml:"social" toml:"social"`
	Governance    LexiconConfig `yaml:"governance" toml:"governance"`
}

// LexiconConfig holds the positive and negative phrases of one dimension.
// Order is significant: matched signals are reported in lexicon order.
type LexiconConfig struct {
	Positive []TermConfig `yaml:"positive" toml:"positive"`
	Negative []TermConfig `yaml:"negative" toml:"negative"`
}

// TermConfig is a single weighted phrase.
type TermConfig struct {
	Phrase string  `yaml:"phrase" toml:"phrase"`
	Weight float64 `yaml:"weight" toml:"weight"`
}

// LLMConfig holds the answer generation model configuration.
type LLMConfig struct {
	Provider          string  `yaml:"provider" toml:"provider"`
	Model             string  `yaml:"model" toml:"model"`
	BaseURL           string  `yaml:"base_url" toml:"base_url"`
	APIKeyEnv         string  `yaml:"api_key_env" toml:"api_key_env"`
	Temperature       float64 `yaml:"temperature" toml:"temperature"`
	ConciseMaxTokens  int     `yaml:"concise_max_tokens" toml:"concise_max_tokens"`
	DetailedMaxTokens int     `yaml:"detailed_max_tokens" toml:"detailed_max_tokens"`
}

// SearchConfig holds web search configuration.
type SearchConfig struct {
	Enabled    bool   `yaml:"enabled" toml:"enabled"`
	BaseURL    string `yaml:"base_url" toml:"base_url"`
	MaxResults int    `yaml:"max_results" toml:"max_results"`
	IntervalMS int    `yaml:"interval_ms" toml:"interval_ms"`
}

// ExtractConfig holds the patterns of accepted report files.
type ExtractConfig struct {
	Includes []string `yaml:"includes" toml:"includes"`
	Excludes []string `yaml:"excludes" toml:"excludes"`
}

// ServerConfig holds HTTP API configuration.
type ServerConfig struct {
	Addr           string   `yaml:"addr" toml:"addr"`
	AllowedOrigins []string `yaml:"allowed_origins" toml:"allowed_origins"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level" toml:"level"`
	Format string `yaml:"format" toml:"format"` // "console", "json"
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Chunking: ChunkingConfig{
			ChunkSize:    1000,
			ChunkOverlap: 200,
			BlockSize:    20000,
		},
		Embedding: EmbeddingConfig{
			Provider:  "hash",
			Model:     "all-minilm",
			BaseURL:   "http://localhost:11434",
			APIKeyEnv: "OPENAI_API_KEY",
			Dimension: 384,
			MaxTokens: 512,
			BatchSize: 32,
		},
		Index: IndexConfig{
			Backend: "flat",
		},
		Retrieve: RetrieveConfig{
			TopK:            3,
			CacheSize:       128,
			CacheTTLSeconds: 300,
		},
		Scoring: ScoringConfig{
			Weights: WeightsConfig{
				Environmental: 0.35,
				Social:        0.35,
				Governance:    0.30,
			},
			PositiveCap: 3,
			NegativeCap: 2,
			Parallel:    false,
			Workers:     4,
			Lexicons:    DefaultLexicons(),
		},
		LLM: LLMConfig{
			Provider:          "groq",
			Model:             "llama-3.1-8b-instant",
			BaseURL:           "https://api.groq.com/openai/v1",
			APIKeyEnv:         "GROQ_API_KEY",
			Temperature:       0.3,
			ConciseMaxTokens:  150,
			DetailedMaxTokens: 1000,
		},
		Search: SearchConfig{
			Enabled:    true,
			BaseURL:    "https://api.duckduckgo.com/",
			MaxResults: 5,
			IntervalMS: 500,
		},
		Extract: ExtractConfig{
			Includes: []string{"**/*.pdf", "**/*.docx", "**/*.xlsx", "**/*.txt", "**/*.md"},
			Excludes: []string{"**/.git/**", "**/.esgrag/**", "**/node_modules/**"},
		},
		Server: ServerConfig{
			Addr:           ":8080",
			AllowedOrigins: []string{"*"},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// DefaultLexicons returns the built-in ESG phrase tables.
func DefaultLexicons() LexiconsConfig {
	return LexiconsConfig{
		Environmental: LexiconConfig{
			Positive: []TermConfig{
				{"carbon reduction", 0.8}, {"renewable energy", 0.8}, {"emissions reduction", 0.7},
				{"clean energy", 0.7}, {"sustainability", 0.6}, {"recycling", 0.5},
				{"energy efficiency", 0.6}, {"green", 0.4}, {"circular economy", 0.7},
				{"net zero", 0.9}, {"carbon neutral", 0.8}, {"climate action", 0.7},
			},
			Negative: []TermConfig{
				{"environmental fine", -1.2}, {"pollution", -0.8}, {"spill", -1.0},
				{"contamination", -0.9}, {"emissions increased", -0.8}, {"non-compliance", -1.0},
				{"environmental violation", -1.2}, {"waste increased", -0.5}, {"deforestation", -0.9},
			},
		},
		Social: LexiconConfig{
			Positive: []TermConfig{
				{"diversity", 0.7}, {"inclusion", 0.7}, {"equal opportunity", 0.8},
				{"gender equality", 0.8}, {"employee wellbeing", 0.6}, {"work-life balance", 0.5},
				{"training programs", 0.6}, {"community engagement", 0.6}, {"human rights", 0.8},
				{"fair wages", 0.7}, {"safety programs", 0.7}, {"employee satisfaction", 0.6},
			},
			Negative: []TermConfig{
				{"discrimination", -1.2}, {"harassment", -1.2}, {"labor violation", -1.0},
				{"workplace accident", -0.8}, {"union dispute", -0.6}, {"unfair practice", -0.9},
				{"child labor", -1.5}, {"forced labor", -1.5}, {"unsafe conditions", -1.0}, {"lawsuit", -0.7},
			},
		},
		Governance: LexiconConfig{
			Positive: []TermConfig{
				{"board independence", 0.8}, {"transparent", 0.7}, {"ethics policy", 0.7},
				{"compliance program", 0.7}, {"risk management", 0.6}, {"audit committee", 0.6},
				{"whistleblower", 0.6}, {"anti-corruption", 0.8}, {"board diversity", 0.8},
				{"stakeholder engagement", 0.6},
			},
			Negative: []TermConfig{
				{"fraud", -1.5}, {"corruption", -1.5}, {"bribery", -1.5},
				{"conflict of interest", -0.9}, {"regulatory fine", -1.0}, {"governance failure", -1.2},
				{"investigation", -0.8}, {"scandal", -1.0}, {"insider trading", -1.3}, {"breach", -0.9},
			},
		},
	}
}

// Validate checks invariants the rest of the program relies on.
func (c *Config) Validate() error {
	var errs []error

	if c.Chunking.ChunkSize <= 0 {
		errs = append(errs, fmt.Errorf("chunking.chunk_size must be positive, got %d", c.Chunking.ChunkSize))
	}
	if c.Chunking.ChunkOverlap < 0 || c.Chunking.ChunkOverlap >= c.Chunking.ChunkSize {
		errs = append(errs, fmt.Errorf("chunking.chunk_overlap must be in [0, chunk_size), got %d", c.Chunking.ChunkOverlap))
	}
	if c.Chunking.BlockSize <= 0 {
		errs = append(errs, fmt.Errorf("chunking.block_size must be positive, got %d", c.Chunking.BlockSize))
	}
	if c.Embedding.Dimension <= 0 {
		errs = append(errs, fmt.Errorf("embedding.dimension must be positive, got %d", c.Embedding.Dimension))
	}
	if c.Embedding.MaxTokens <= 0 {
		errs = append(errs, fmt.Errorf("embedding.max_tokens must be positive, got %d", c.Embedding.MaxTokens))
	}
	if c.Retrieve.TopK < 1 {
		errs = append(errs, fmt.Errorf("retrieve.top_k must be at least 1, got %d", c.Retrieve.TopK))
	}

	w := c.Scoring.Weights
	for name, v := range map[string]float64{"environmental": w.Environmental, "social": w.Social, "governance": w.Governance} {
		if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
			errs = append(errs, fmt.Errorf("scoring.weights.%s must be a finite non-negative number, got %v", name, v))
		}
	}
	if sum := w.Environmental + w.Social + w.Governance; math.Abs(sum-1.0) > 1e-9 {
		errs = append(errs, fmt.Errorf("scoring.weights must sum to 1.0, got %v", sum))
	}
	if c.Scoring.PositiveCap < 1 || c.Scoring.NegativeCap < 1 {
		errs = append(errs, errors.New("scoring caps must be at least 1"))
	}

	lex := map[string]LexiconConfig{
		"environmental": c.Scoring.Lexicons.Environmental,
		"social":        c.Scoring.Lexicons.Social,
		"governance":    c.Scoring.Lexicons.Governance,
	}
	for dim, l := range lex {
		for _, t := range append(append([]TermConfig{}, l.Positive...), l.Negative...) {
			if strings.TrimSpace(t.Phrase) == "" {
				errs = append(errs, fmt.Errorf("scoring.lexicons.%s has an empty phrase", dim))
			}
			if math.IsNaN(t.Weight) || math.IsInf(t.Weight, 0) {
				errs = append(errs, fmt.Errorf("scoring.lexicons.%s: weight of %q is not finite", dim, t.Phrase))
			}
		}
	}

	return errors.Join(errs...)
}

// Load loads configuration from a YAML or TOML file.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil // Return defaults if no config file
		}
		return nil, err
	}

	if strings.EqualFold(filepath.Ext(path), ".toml") {
		err = toml.Unmarshal(data, cfg)
	} else {
		err = yaml.Unmarshal(data, cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}

	return cfg, nil
}

// LoadFromDir loads configuration from a directory. It looks for esgrag.yaml,
// esgrag.toml and .esgrag/config.yaml in that order.
func LoadFromDir(dir string) (*Config, error) {
	candidates := []string{
		filepath.Join(dir, "esgrag.yaml"),
		filepath.Join(dir, "esgrag.toml"),
		filepath.Join(dir, ".esgrag", "config.yaml"),
	}
	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return Load(path)
		}
	}

	// Return defaults
	return DefaultConfig(), nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// SessionDBPath returns the path to the session database.
func SessionDBPath(dir string) string {
	return filepath.Join(dir, ".esgrag", "session.db")
}

// EnsureDataDir ensures the .esgrag directory exists.
func EnsureDataDir(dir string) error {
	return os.MkdirAll(filepath.Join(dir, ".esgrag"), 0755)
}
