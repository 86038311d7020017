package models

// Config represents application configuration, composed from environment
// variables by internal/pkg/config.
type Config struct {
	App       AppConfig
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	NSQ       NSQConfig
	JWT       JWTConfig
	TestAuth  TestAuthConfig
	RateLimit RateLimitConfig
	Matcher   MatcherConfig
	Logger    LoggerConfig
}

// AppConfig contains application-specific configuration.
type AppConfig struct {
	Name        string
	Environment string
	Debug       bool
	Version     string
}

// ServerConfig contains HTTP server configuration.
type ServerConfig struct {
	Host            string
	Port            int
	ReadTimeout     int
	WriteTimeout    int
	ShutdownTimeout int
}

// DatabaseConfig contains database connection configuration.
type DatabaseConfig struct {
	Driver    string
	Host      string
	Port      int
	Username  string
	Password  string
	Database  string
	SSLMode   string
	MaxConns  int
	IdleConns int
}

// RedisConfig contains Redis connection configuration.
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
	PoolSize int
}

// NSQConfig contains NSQ producer/consumer configuration.
type NSQConfig struct {
	NSQDAddress     string
	LookupdAddress  string
	NotifyTopic     string
	NotifyChannel   string
}

// JWTConfig contains JWT authentication configuration.
type JWTConfig struct {
	Secret     string
	Expiration int // in minutes
	Issuer     string
}

// TestAuthConfig gates the development-only test-auth path of the auth
// middleware, which bypasses JWT verification. Never enabled outside
// local/dev environments. When enabled,
// callers must prefix the bearer token with a shared secret
// (`<secret>:<user_id>`) checked against SharedSecretHash, so a test-auth
// deployment accidentally left reachable still requires a real credential,
// not just any string as a user id.
type TestAuthConfig struct {
	Enabled          bool
	SharedSecretHash string
}

// RateLimitConfig toggles the rate limiter subsystem globally; individual
// policy parameters live in internal/pkg/ratelimit.Policies.
type RateLimitConfig struct {
	Enabled bool
}

// MatcherConfig contains matcher-specific tunables.
type MatcherConfig struct {
	DefaultRadiusMiles   int
	RecencyWindowDays    int
	MaxCandidateResults  int
}

// LoggerConfig contains logging configuration.
type LoggerConfig struct {
	Level    string
	FilePath string
}
