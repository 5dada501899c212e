package config

import (
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds daemon-wide configuration settings.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Solver   SolverConfig   `yaml:"solver"`
	Catalogs CatalogsConfig `yaml:"catalogs"`
}

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	// ListenAddress is the address the HTTP/WebSocket listener binds to.
	ListenAddress string `yaml:"listen_address"`

	WebSocket WebSocketConfig `yaml:"websocket"`
}

// WebSocketConfig holds WebSocket-specific settings.
type WebSocketConfig struct {
	// AllowedOrigins is a list of origins allowed to connect via WebSocket.
	// Empty list enforces same-origin policy.
	// Use "*" to allow all origins (not recommended for production).
	AllowedOrigins []string `yaml:"allowed_origins"`

	// MaxMessageSize is the maximum WebSocket message size in bytes.
	MaxMessageSize int64 `yaml:"max_message_size"`
}

// DatabaseConfig holds run archive settings.
type DatabaseConfig struct {
	// Driver selects the archive backend: "sqlite" or "postgres".
	Driver string `yaml:"driver"`

	// SQLitePath is the embedded archive file (sqlite driver only).
	SQLitePath string `yaml:"sqlite_path"`

	Postgres PostgresConfig `yaml:"postgres"`
}

// PostgresConfig holds PostgreSQL connection settings.
type PostgresConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
	SSLMode  string `yaml:"sslmode"`
}

// SolverConfig holds defaults applied to solve requests that omit them.
type SolverConfig struct {
	// Width and Depth are the default grid dimensions.
	Width int `yaml:"width"`
	Depth int `yaml:"depth"`

	// Seed is the default seed. 0 derives a seed from the current time.
	Seed int64 `yaml:"seed"`

	// UseBacktracking enables snapshot-based recovery from contradictions.
	UseBacktracking bool `yaml:"use_backtracking"`

	// MaxBacktracks is the restore budget per run.
	MaxBacktracks int `yaml:"max_backtracks"`

	// PropagateImmediately enables constraint propagation after each collapse.
	PropagateImmediately bool `yaml:"propagate_immediately"`

	// HistoryCapacity bounds the snapshot stack. 0 uses the built-in default.
	HistoryCapacity int `yaml:"history_capacity"`
}

// CatalogsConfig holds tile catalog settings.
type CatalogsConfig struct {
	// Directory is scanned for *.yaml catalog files at startup.
	Directory string `yaml:"directory"`

	// Default is the catalog used when a solve request names none.
	Default string `yaml:"default"`

	// Watch enables hot reload of edited catalog files.
	Watch bool `yaml:"watch"`
}

// DefaultConfig returns a Config with sensible defaults for an embedded
// SQLite archive and a local catalog directory.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			ListenAddress: ":8080",
			WebSocket: WebSocketConfig{
				AllowedOrigins: []string{}, // Same-origin only by default
				MaxMessageSize: 4096,
			},
		},
		Database: DatabaseConfig{
			Driver:     "sqlite",
			SQLitePath: "data/wfc.db",
			Postgres: PostgresConfig{
				Host:    "localhost",
				Port:    5432,
				SSLMode: "disable",
			},
		},
		Solver: SolverConfig{
			Width:                16,
			Depth:                16,
			Seed:                 0, // Derive from time
			UseBacktracking:      true,
			MaxBacktracks:        32,
			PropagateImmediately: true,
			HistoryCapacity:      0, // Solver default
		},
		Catalogs: CatalogsConfig{
			Directory: "data/catalogs",
			Default:   "dungeon",
			Watch:     false,
		},
	}
}

// LoadConfig loads daemon configuration from a YAML file and applies
// environment variable overrides. If the file doesn't exist, returns
// default config. If the file can't be parsed, returns default config
// and the parse error so callers can warn and continue.
func LoadConfig(path string) (*Config, error) {
	config := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			applyEnvOverrides(config)
			return config, nil // Use defaults if file doesn't exist
		}
		return config, err
	}

	if err := yaml.Unmarshal(data, config); err != nil {
		config = DefaultConfig()
		applyEnvOverrides(config)
		return config, err
	}

	applyEnvOverrides(config)
	return config, nil
}

// applyEnvOverrides applies environment variables for deployment-sensitive
// settings, taking precedence over file values.
func applyEnvOverrides(config *Config) {
	if addr := os.Getenv("LISTEN_ADDRESS"); addr != "" {
		config.Server.ListenAddress = addr
	}

	if driver := os.Getenv("DB_DRIVER"); driver != "" {
		config.Database.Driver = driver
	}
	if path := os.Getenv("DB_SQLITE_PATH"); path != "" {
		config.Database.SQLitePath = path
	}
	if host := os.Getenv("DB_HOST"); host != "" {
		config.Database.Postgres.Host = host
	}
	if port := os.Getenv("DB_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Database.Postgres.Port = p
		}
	}
	if user := os.Getenv("DB_USER"); user != "" {
		config.Database.Postgres.User = user
	}
	if password := os.Getenv("DB_PASSWORD"); password != "" {
		config.Database.Postgres.Password = password
	}
	if name := os.Getenv("DB_NAME"); name != "" {
		config.Database.Postgres.Database = name
	}
	if sslmode := os.Getenv("DB_SSLMODE"); sslmode != "" {
		config.Database.Postgres.SSLMode = sslmode
	}
}

// IsOriginAllowed checks if the given origin is allowed based on the config.
// Returns true if:
// - AllowedOrigins contains "*" (allow all)
// - AllowedOrigins contains the exact origin
// - AllowedOrigins is empty and origin matches the request host (same-origin)
func (c *WebSocketConfig) IsOriginAllowed(origin, requestHost string) bool {
	// If no origins configured, enforce same-origin policy
	if len(c.AllowedOrigins) == 0 {
		return isSameOrigin(origin, requestHost)
	}

	for _, allowed := range c.AllowedOrigins {
		// Wildcard allows all origins
		if allowed == "*" {
			return true
		}
		// Exact match
		if allowed == origin {
			return true
		}
	}

	return false
}

// isSameOrigin checks if the origin matches the request host (same-origin policy).
func isSameOrigin(origin, requestHost string) bool {
	if origin == "" {
		return true // No origin header means same-origin (e.g., non-browser client)
	}

	// Extract host from origin URL (e.g., "http://localhost:3000" -> "localhost:3000")
	originHost := origin
	if idx := strings.Index(origin, "://"); idx != -1 {
		originHost = origin[idx+3:]
	}
	// Remove trailing slash if present
	originHost = strings.TrimSuffix(originHost, "/")

	return originHost == requestHost
}
