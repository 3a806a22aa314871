package config

import "runtime"

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Storage.DatabasePath == "" {
		cfg.Storage.DatabasePath = "/usr/local/var/ruiji/data/corpus.db"
	}
	if cfg.Similarity.SimilarDistance == nil {
		d := 0.5
		cfg.Similarity.SimilarDistance = &d
	}
	if cfg.Similarity.VocabSize == 0 {
		cfg.Similarity.VocabSize = 1000
	}
	if cfg.Similarity.NgramSize == 0 {
		cfg.Similarity.NgramSize = 3
	}
	if cfg.Similarity.MinDocFreq == 0 {
		cfg.Similarity.MinDocFreq = 1
	}
	if cfg.Similarity.NumHashFunctions == 0 {
		cfg.Similarity.NumHashFunctions = 3
	}
	if cfg.Similarity.RowsPerBand == 0 {
		cfg.Similarity.RowsPerBand = 1
	}
	if cfg.Similarity.HashSeed == 0 {
		cfg.Similarity.HashSeed = 42
	}
	if cfg.Pipeline.Workers == 0 {
		cfg.Pipeline.Workers = runtime.NumCPU()
	}
}
