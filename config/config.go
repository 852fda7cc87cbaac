// Package config defines the process-wide configuration surface recognized
// by the service (cache sizing, pool sizing, durable-store connection
// parameters) and a flag-based loader matching the cmd/bench flag
// style.
package config

import (
	"errors"
	"flag"
	"time"
)

// Config holds every recognized option.
type Config struct {
	// Cache sizing.
	CacheTotalCapacity int
	NumShards          int
	SampleSize         int

	// Pool / worker sizing.
	SessionPoolSize    int
	WriteBehindWorkers int
	HandlerThreads     int

	// Durable store connection.
	DSN              string
	StatementTimeout time.Duration

	// HTTP front end.
	ListenAddr  string
	MetricsAddr string
}

// Defaults returns the configuration surface's documented defaults.
func Defaults() Config {
	return Config{
		CacheTotalCapacity: 1024,
		NumShards:          32,
		SampleSize:         8,
		SessionPoolSize:    20,
		WriteBehindWorkers: 10,
		HandlerThreads:     8,
		StatementTimeout:   5 * time.Second,
		ListenAddr:         ":8080",
		MetricsAddr:        ":9090",
	}
}

// Load populates a Config from the given flag set's args, starting from
// Defaults(). Passing flag.CommandLine lets callers parse os.Args directly.
func Load(fs *flag.FlagSet, args []string) (Config, error) {
	c := Defaults()

	fs.IntVar(&c.CacheTotalCapacity, "cache_total_capacity", c.CacheTotalCapacity, "total cache capacity across shards (entries)")
	fs.IntVar(&c.NumShards, "num_shards", c.NumShards, "cache shard fanout")
	fs.IntVar(&c.SampleSize, "sample_size", c.SampleSize, "approximate-LRU eviction sample count")
	fs.IntVar(&c.SessionPoolSize, "session_pool_size", c.SessionPoolSize, "durable-store session pool size")
	fs.IntVar(&c.WriteBehindWorkers, "write_behind_workers", c.WriteBehindWorkers, "write-behind worker count")
	fs.IntVar(&c.HandlerThreads, "handler_threads", c.HandlerThreads, "cap on concurrently served HTTP requests")
	fs.StringVar(&c.DSN, "dsn", c.DSN, "durable store DSN (github.com/go-sql-driver/mysql format)")
	fs.DurationVar(&c.StatementTimeout, "statement_timeout", c.StatementTimeout, "per-statement timeout against the durable store")
	fs.StringVar(&c.ListenAddr, "listen", c.ListenAddr, "HTTP front end listen address")
	fs.StringVar(&c.MetricsAddr, "metrics_listen", c.MetricsAddr, "Prometheus /metrics listen address")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	return c, c.Validate()
}

// Validate rejects non-positive capacities/shards/workers.
func (c Config) Validate() error {
	switch {
	case c.CacheTotalCapacity <= 0:
		return errors.New("config: cache_total_capacity must be > 0")
	case c.NumShards <= 0:
		return errors.New("config: num_shards must be > 0")
	case c.SampleSize <= 0:
		return errors.New("config: sample_size must be > 0")
	case c.SessionPoolSize <= 0:
		return errors.New("config: session_pool_size must be > 0")
	case c.WriteBehindWorkers <= 0:
		return errors.New("config: write_behind_workers must be > 0")
	case c.HandlerThreads <= 0:
		return errors.New("config: handler_threads must be > 0")
	case c.StatementTimeout <= 0:
		return errors.New("config: statement_timeout must be > 0")
	}
	return nil
}
