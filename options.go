package campusagent

import (
	"time"

	"go.uber.org/zap"
)

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

type clientConfig struct {
	driver   string // "valkey", "redis" or "memory"
	addrs    []string
	password string

	embedder  Embedder
	generator Generator
	executor  ToolExecutor

	requestsPerWindow int
	window            time.Duration
	retrievalTopK     int
	keyPrefix         string

	logger *zap.Logger
}

// WithValkey stores documents and sync state in a Valkey instance.
func WithValkey(addr, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.driver = "valkey"
		c.addrs = []string{addr}
		c.password = password
	})
}

// WithRedis stores documents and sync state in a Redis instance.
func WithRedis(addr, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.driver = "redis"
		c.addrs = []string{addr}
		c.password = password
	})
}

// WithMemoryStore keeps everything in process memory. Useful for tests and demos.
func WithMemoryStore() Option {
	return optionFunc(func(c *clientConfig) {
		c.driver = "memory"
		c.addrs = nil
	})
}

// WithEmbedder sets the text embedding provider. Required.
func WithEmbedder(e Embedder) Option {
	return optionFunc(func(c *clientConfig) {
		c.embedder = e
	})
}

// WithGenerator sets the generative backend. Required.
func WithGenerator(g Generator) Option {
	return optionFunc(func(c *clientConfig) {
		c.generator = g
	})
}

// WithToolExecutor enables external tools and mailbox sync.
func WithToolExecutor(e ToolExecutor) Option {
	return optionFunc(func(c *clientConfig) {
		c.executor = e
	})
}

// WithRateLimit sets how many backend calls start per window.
// Both the generative and the embedding backend get their own limiter.
// Defaults to 28 per minute.
func WithRateLimit(requests int, window time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.requestsPerWindow = requests
		c.window = window
	})
}

// WithRetrievalTopK sets how many documents ground a retrieval answer. Defaults to 3.
func WithRetrievalTopK(k int) Option {
	return optionFunc(func(c *clientConfig) {
		c.retrievalTopK = k
	})
}

// WithKeyPrefix namespaces every stored key.
func WithKeyPrefix(prefix string) Option {
	return optionFunc(func(c *clientConfig) {
		c.keyPrefix = prefix
	})
}

// WithLogger sets a zap logger for the client. Defaults to a no-op logger.
func WithLogger(l *zap.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = l
	})
}
