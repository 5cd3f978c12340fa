package config

// Default fusion parameters. The weights bias fusion toward semantic matches
// while keeping exact keyword hits influential.
const (
	DefaultVectorWeight = 0.7
	DefaultBM25Weight   = 0.3
	DefaultRRFK         = 60
)

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Storage.KeywordBackend == "" {
		cfg.Storage.KeywordBackend = "file"
	}
	if cfg.Storage.IndexDir == "" {
		cfg.Storage.IndexDir = "/usr/local/var/awase/data/indexes/keyword"
	}
	if cfg.Storage.DatabasePath == "" {
		cfg.Storage.DatabasePath = "/usr/local/var/awase/data/db/keyword.db"
	}
	if cfg.Vector.Backend == "" {
		cfg.Vector.Backend = "memory"
	}
	if cfg.Vector.Dimensions == 0 {
		cfg.Vector.Dimensions = 384
	}
	if cfg.Vector.ChromaURL == "" {
		cfg.Vector.ChromaURL = "http://localhost:8000"
	}
	if cfg.Vector.Collection == "" {
		cfg.Vector.Collection = "documents"
	}
	if cfg.Retrieval.VectorWeight == 0 && cfg.Retrieval.BM25Weight == 0 {
		cfg.Retrieval.VectorWeight = DefaultVectorWeight
		cfg.Retrieval.BM25Weight = DefaultBM25Weight
	}
	if cfg.Retrieval.RRFK == 0 {
		cfg.Retrieval.RRFK = DefaultRRFK
	}
	if cfg.Retrieval.DefaultK == 0 {
		cfg.Retrieval.DefaultK = 10
	}
	if cfg.Retrieval.MaxK == 0 {
		cfg.Retrieval.MaxK = 100
	}
}
