// Package config defines service configuration structures and loading hooks.
package config

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// DBPath locates the SQLite database file.
	DBPath string `koanf:"db_path"`

	// QueueSize bounds the in-memory score report queue.
	QueueSize int `koanf:"queue_size"`

	// WorkerCount sets the number of score workers.
	WorkerCount int `koanf:"worker_count"`

	// DedupeSize sets the size of the report deduplication cache.
	DedupeSize int `koanf:"dedupe_size"`
}

// New returns a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:    "info",
		Addr:        ":8080",
		DBPath:      "bracketeer.db",
		QueueSize:   10_000,
		WorkerCount: 4,
		DedupeSize:  50_000,
	}
}
