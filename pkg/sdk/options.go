package moviemaster

import (
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kailas-cloud/moviemaster/internal/db"
)

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

type clientConfig struct {
	driver   string // redis, valkey, badger, bolt
	addrs    []string
	password string
	path     string

	keyPrefix string

	tmdbAPIKey  string
	tmdbBaseURL string

	maxConcurrency int
	callTimeout    time.Duration

	logger     *slog.Logger
	metricsReg prometheus.Registerer
}

// WithValkey stores recent searches in a Valkey instance.
func WithValkey(addr, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.driver = db.DriverValkey
		c.addrs = []string{addr}
		c.password = password
	})
}

// WithRedis stores recent searches in a Redis instance.
func WithRedis(addr, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.driver = db.DriverRedis
		c.addrs = []string{addr}
		c.password = password
	})
}

// WithBadger stores recent searches in an embedded BadgerDB at path.
// An empty path keeps everything in memory.
func WithBadger(path string) Option {
	return optionFunc(func(c *clientConfig) {
		c.driver = db.DriverBadger
		c.path = path
	})
}

// WithBolt stores recent searches in a single bbolt file at path.
func WithBolt(path string) Option {
	return optionFunc(func(c *clientConfig) {
		c.driver = db.DriverBolt
		c.path = path
	})
}

// WithKeyPrefix overrides the namespace of stored keys. Default: "movie-store:".
func WithKeyPrefix(prefix string) Option {
	return optionFunc(func(c *clientConfig) {
		c.keyPrefix = prefix
	})
}

// WithTMDB enables recommendations. An empty baseURL uses the public API.
func WithTMDB(apiKey, baseURL string) Option {
	return optionFunc(func(c *clientConfig) {
		c.tmdbAPIKey = apiKey
		c.tmdbBaseURL = baseURL
	})
}

// WithAggregation bounds the recommendation fan-out: maxConcurrency in-flight
// upstream calls, each limited to callTimeout. Zero values keep the defaults.
func WithAggregation(maxConcurrency int, callTimeout time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.maxConcurrency = maxConcurrency
		c.callTimeout = callTimeout
	})
}

// WithLogger enables structured logging for SDK operations.
// Pass nil to disable (default). Uses standard library slog.
func WithLogger(l *slog.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = l
	})
}

// WithPrometheus registers SDK metrics (operation counts, durations and
// aggregation outcomes) on the given registerer. Pass nil to disable (default).
func WithPrometheus(reg prometheus.Registerer) Option {
	return optionFunc(func(c *clientConfig) {
		c.metricsReg = reg
	})
}
