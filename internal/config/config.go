// Package config loads the server configuration from an optional YAML file,
// an optional .env file and the process environment, in that order of
// increasing precedence.
package config

import (
	"net"
	"strconv"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Logging  LoggingConfig  `yaml:"logging"`
	Export   ExportConfig   `yaml:"export"`
	Import   ImportConfig   `yaml:"import"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the interface to bind to (default: 0.0.0.0)
	Host string `yaml:"host" env:"SERVER_HOST" default:"0.0.0.0"`

	// Port is the port to listen on (default: 8080)
	Port int `yaml:"port" env:"SERVER_PORT" default:"8080"`

	ReadTimeout  time.Duration `yaml:"readTimeout" env:"SERVER_READ_TIMEOUT" default:"15s"`
	WriteTimeout time.Duration `yaml:"writeTimeout" env:"SERVER_WRITE_TIMEOUT" default:"60s"`

	// ShutdownTimeout bounds graceful shutdown (default: 30s)
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout" env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	// Driver is the database/sql driver name: mysql or pgx (default: mysql)
	Driver string `yaml:"driver" env:"DB_DRIVER" default:"mysql"`

	// DSN is the driver-specific connection string (required)
	DSN string `yaml:"dsn" env:"DATABASE_DSN" envAlt:"DATABASE_URL"`

	MaxOpenConns    int           `yaml:"maxOpenConns" env:"DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `yaml:"maxIdleConns" env:"DB_MAX_IDLE_CONNS" default:"5"`
	ConnMaxLifetime time.Duration `yaml:"connMaxLifetime" env:"DB_CONN_MAX_LIFETIME" default:"1h"`

	// AutoMigrate applies pending migrations on startup (default: false)
	AutoMigrate bool `yaml:"autoMigrate" env:"DB_AUTO_MIGRATE" default:"false"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `yaml:"level" env:"LOG_LEVEL" default:"info"`

	// Format is the log format: json or console (default: json)
	Format string `yaml:"format" env:"LOG_FORMAT" default:"json"`

	// OutputPath is a file path or "stdout" (default: stdout)
	OutputPath string `yaml:"outputPath" env:"LOG_OUTPUT_PATH" default:"stdout"`
}

type ExportConfig struct {
	// TempDir is the parent of per-export temp directories; empty means the
	// system temp directory.
	TempDir string `yaml:"tempDir" env:"EXPORT_TEMP_DIR"`
}

type ImportConfig struct {
	// MaxFileSize is the largest accepted upload in bytes (default: 32MB)
	MaxFileSize int64 `yaml:"maxFileSize" env:"IMPORT_MAX_FILE_SIZE" default:"33554432"`
}

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}
