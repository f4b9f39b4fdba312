package redis

// Config holds Redis connection and behavior settings
type Config struct {
	// URL is the Redis connection URL (e.g., redis://localhost:6379/0)
	URL string

	// KeyPrefix namespaces every key; empty means DefaultKeyPrefix
	KeyPrefix string

	PoolSize     int
	MinIdleConns int

	// MaxTxRetries bounds how often a watched update is retried after
	// another client touched one of its keys
	MaxTxRetries int
}

// DefaultConfig returns the settings used by the server unless overridden
func DefaultConfig() Config {
	return Config{
		URL:          "redis://localhost:6379",
		KeyPrefix:    DefaultKeyPrefix,
		PoolSize:     10,
		MinIdleConns: 2,
		MaxTxRetries: 5,
	}
}
