// Package config provides configuration loading and validation for the ruiji batch job.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application.
type Config struct {
	Debug      bool             `yaml:"debug"`
	Server     ServerConfig     `yaml:"server"`
	Storage    StorageConfig    `yaml:"storage"`
	Similarity SimilarityConfig `yaml:"similarity"`
	Pipeline   PipelineConfig   `yaml:"pipeline"`
}

// ServerConfig holds HTTP results-server settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// StorageConfig holds the corpus/results database location and output semantics.
type StorageConfig struct {
	DatabasePath string `yaml:"database_path"`
	// Overwrite allows a run to replace existing neighbor output. When false,
	// a non-empty neighbors table is a fatal precondition violation.
	Overwrite bool `yaml:"overwrite"`
}

// SimilarityConfig holds the similarity-engine parameters.
type SimilarityConfig struct {
	// SimilarDistance is the inclusive Jaccard distance threshold in [0,1].
	// Pointer so that an explicit 0 (exact signature matches only) is
	// distinguishable from unset; defaults to 0.5 when nil.
	SimilarDistance  *float64 `yaml:"similar_distance"`
	VocabSize        int      `yaml:"vocab_size"`
	NgramSize        int      `yaml:"ngram_size"`
	MinDocFreq       int      `yaml:"min_doc_freq"`
	NumHashFunctions int      `yaml:"num_hash_functions"`
	// RowsPerBand controls LSH banding; must divide NumHashFunctions.
	RowsPerBand int `yaml:"rows_per_band"`
	// HashSeed seeds the MinHash coefficient generator. Runs with the same
	// seed and corpus produce byte-identical output.
	HashSeed int64 `yaml:"hash_seed"`
}

// SimilarDistanceOrDefault returns the configured threshold, or 0.5 when unset.
func (s *SimilarityConfig) SimilarDistanceOrDefault() float64 {
	if s.SimilarDistance != nil {
		return *s.SimilarDistance
	}
	return 0.5
}

// PipelineConfig holds batch-execution settings.
type PipelineConfig struct {
	// Workers is the worker count for document-parallel stages; 0 means NumCPU.
	Workers int `yaml:"workers"`
}

// Load reads and parses the config file at path, expands paths, and applies defaults.
// Returns an error if the file cannot be read or parsed.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	ApplyDefaults(&cfg)

	configDir := filepath.Dir(path)
	cfg.Storage.DatabasePath = expandPath(cfg.Storage.DatabasePath, configDir)

	return &cfg, nil
}

// Validate checks the similarity and pipeline parameters. Violations are
// configuration errors: fatal, and detected before any computation begins.
func (c *Config) Validate() error {
	s := &c.Similarity
	if s.VocabSize <= 0 {
		return fmt.Errorf("vocab_size must be positive, got %d", s.VocabSize)
	}
	if s.NgramSize <= 0 {
		return fmt.Errorf("ngram_size must be positive, got %d", s.NgramSize)
	}
	if s.MinDocFreq < 1 {
		return fmt.Errorf("min_doc_freq must be at least 1, got %d", s.MinDocFreq)
	}
	if s.NumHashFunctions <= 0 {
		return fmt.Errorf("num_hash_functions must be positive, got %d", s.NumHashFunctions)
	}
	if s.RowsPerBand <= 0 || s.NumHashFunctions%s.RowsPerBand != 0 {
		return fmt.Errorf("rows_per_band must be positive and divide num_hash_functions, got %d", s.RowsPerBand)
	}
	if d := s.SimilarDistanceOrDefault(); d < 0 || d > 1 {
		return fmt.Errorf("similar_distance must be in [0,1], got %g", d)
	}
	if c.Pipeline.Workers < 0 {
		return fmt.Errorf("workers must not be negative, got %d", c.Pipeline.Workers)
	}
	return nil
}

// Save writes the config to path.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// expandPath converts a path to absolute. Paths starting with "./" are relative to configDir;
// other relative paths are relative to the home directory.
func expandPath(path string, configDir string) string {
	if filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "./") || path == "." {
		return filepath.Join(configDir, path)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, path)
	}
	return path
}
