package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// Config represents the main application configuration structure
// containing all configuration sections
type Config struct {
	Server   ServerConfig   `toml:"server"`   // HTTP server settings
	Logging  LoggingConfig  `toml:"logging"`  // Application logging settings
	Storage  StorageConfig  `toml:"storage"`  // Data persistence settings
	Schedule ScheduleConfig `toml:"schedule"` // Scheduling and conflict detection policy
}

// ServerConfig contains HTTP server configuration settings
type ServerConfig struct {
	Port               int      `toml:"port"`                  // Primary HTTP port for the server
	Host               string   `toml:"host"`                  // Host address to bind to (e.g., 127.0.0.1 for localhost only, 0.0.0.0 for all interfaces)
	CORSAllowedOrigins []string `toml:"cors_allowed_origins"`  // List of origins allowed for CORS requests (use ["*"] for all origins)
	ReadTimeoutSecs    int      `toml:"read_timeout_seconds"`  // Maximum duration for reading the entire request (0 = no timeout)
	WriteTimeoutSecs   int      `toml:"write_timeout_seconds"` // Maximum duration for writing the response (0 = no timeout)
	IdleTimeoutSecs    int      `toml:"idle_timeout_seconds"`  // Maximum duration to wait for the next request when keep-alives are enabled
	AdditionalPorts    []int    `toml:"additional_ports"`      // Additional HTTP ports to listen on (useful for multiple interfaces)
}

// LoggingConfig contains application logging configuration
type LoggingConfig struct {
	Level  string `toml:"level"`  // Log level: "debug", "info", "warn", or "error"
	Format string `toml:"format"` // Log format: "json" (structured) or "console" (human-readable)
}

// StorageConfig contains data persistence configuration
type StorageConfig struct {
	Type       string `toml:"type"`        // Storage backend type (currently only "sqlite" is supported)
	SQLitePath string `toml:"sqlite_path"` // Path to the SQLite database file
}

// ScheduleConfig contains scheduling and conflict detection policy.
// The severity defaults follow the standard table; overrides let a
// deployment tune them without a rebuild.
type ScheduleConfig struct {
	// Minimum severity at which a new open conflict is emitted on the
	// alert stream: "low", "medium", "high", or "critical"
	AlertSeverity string `toml:"alert_severity"`

	// Number of recent alerts kept in memory for the alerts API
	AlertBufferSize int `toml:"alert_buffer_size"`

	// Fuel ceiling per flight in kilograms; 0 disables the fuel check
	MaxFuelKg float64 `toml:"max_fuel_kg"`

	// How often expired advisories are pruned (minutes)
	AdvisoryPruneIntervalMinutes int `toml:"advisory_prune_interval_minutes"`

	// Per-conflict-type severity overrides, e.g.
	// severity_overrides = { crew_overlap = "high" }
	SeverityOverrides map[string]string `toml:"severity_overrides"`
}

// Load loads the configuration from the specified file path
func Load(path string) (*Config, error) {
	var config Config

	// Check if the file exists
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file not found: %s", path)
	}

	// Read the config file
	if _, err := toml.DecodeFile(path, &config); err != nil {
		return nil, fmt.Errorf("failed to decode config file: %w", err)
	}

	return &config, nil
}

// LoadWithFallback loads the configuration by checking multiple locations in order of preference
func LoadWithFallback(preferredPath string) (*Config, error) {
	// List of paths to check in order of preference
	searchPaths := []string{
		preferredPath,         // User-specified path (if provided)
		"configs/config.toml", // configs/ folder
		"config.toml",         // Root directory
	}

	// Remove duplicates while preserving order
	uniquePaths := make([]string, 0, len(searchPaths))
	seen := make(map[string]bool)
	for _, path := range searchPaths {
		if path != "" && !seen[path] {
			uniquePaths = append(uniquePaths, path)
			seen[path] = true
		}
	}

	var lastErr error
	for _, path := range uniquePaths {
		if _, err := os.Stat(path); err == nil {
			// File exists, try to load it
			config, err := Load(path)
			if err != nil {
				lastErr = fmt.Errorf("failed to load config from %s: %w", path, err)
				continue
			}
			return config, nil
		}
		lastErr = fmt.Errorf("config file not found: %s", path)
	}

	return nil, fmt.Errorf("config file not found in any of the expected locations: %v. Last error: %w", uniquePaths, lastErr)
}

// Validate validates the configuration and fills in defaults
func (c *Config) Validate() error {
	// Validate server config
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	portsSeen := make(map[int]bool)
	portsSeen[c.Server.Port] = true
	for _, p := range c.Server.AdditionalPorts {
		if p <= 0 || p > 65535 {
			return fmt.Errorf("invalid additional server port: %d", p)
		}
		if portsSeen[p] {
			return fmt.Errorf("duplicate port configured: %d (primary or additional)", p)
		}
		portsSeen[p] = true
	}
	if c.Server.Host == "" {
		c.Server.Host = "127.0.0.1"
	}

	// Validate logging config
	switch c.Logging.Level {
	case "":
		c.Logging.Level = "info"
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level: %s (must be 'debug', 'info', 'warn', or 'error')", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "":
		c.Logging.Format = "console"
	case "json", "console":
	default:
		return fmt.Errorf("invalid log format: %s (must be 'json' or 'console')", c.Logging.Format)
	}

	// Validate storage config
	if c.Storage.Type == "" {
		c.Storage.Type = "sqlite"
	}
	if c.Storage.Type != "sqlite" {
		return fmt.Errorf("invalid storage type: %s (only 'sqlite' is supported)", c.Storage.Type)
	}
	if c.Storage.SQLitePath == "" {
		c.Storage.SQLitePath = "data/flightops.db"
	}

	// Validate schedule config
	switch c.Schedule.AlertSeverity {
	case "":
		c.Schedule.AlertSeverity = "high"
	case "low", "medium", "high", "critical":
	default:
		return fmt.Errorf("invalid alert_severity: %s (must be 'low', 'medium', 'high', or 'critical')", c.Schedule.AlertSeverity)
	}
	if c.Schedule.AlertBufferSize <= 0 {
		c.Schedule.AlertBufferSize = 200
	}
	if c.Schedule.MaxFuelKg < 0 {
		return fmt.Errorf("max_fuel_kg cannot be negative: %f", c.Schedule.MaxFuelKg)
	}
	if c.Schedule.AdvisoryPruneIntervalMinutes <= 0 {
		c.Schedule.AdvisoryPruneIntervalMinutes = 15
	}
	for ctype, sev := range c.Schedule.SeverityOverrides {
		switch sev {
		case "low", "medium", "high", "critical":
		default:
			return fmt.Errorf("invalid severity override for %s: %s", ctype, sev)
		}
	}

	return nil
}
