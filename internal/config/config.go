// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package config

import (
	"fmt"
	"time"

	altsrc "github.com/urfave/cli-altsrc/v3"
	"github.com/urfave/cli-altsrc/v3/toml"
	"github.com/urfave/cli/v3"
)

var (
	configPath = "config.toml"
	configFile = altsrc.NewStringPtrSourcer(&configPath)
)

type Config struct { //nolint:govet // fieldalignment not critical for config structs
	Server       ServerConfig
	Log          LogConfig
	Database     DatabaseConfig
	Auth         AuthConfig
	SMTP         SMTPConfig
	Verification VerificationConfig
	Metrics      MetricsConfig
}

type ServerConfig struct { //nolint:govet // fieldalignment not critical for config structs
	Host        string
	Port        int
	BaseURL     string
	MaxBodySize int // in MB
}

type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // text, json
}

type DatabaseConfig struct { //nolint:govet // fieldalignment not critical for config structs
	Driver      string // sqlite, postgres, memory
	DSN         string
	Timeout     time.Duration
	MaxItemSize int // in bytes
}

type AuthConfig struct {
	ApprovedKeys []string // name:secret pairs
}

type SMTPConfig struct { //nolint:govet // fieldalignment not critical for config structs
	Enabled  bool
	Host     string
	Port     int
	Username string
	Password string
	From     string
	FromName string
	TLS      bool
	Timeout  time.Duration
}

type VerificationConfig struct {
	TTL         time.Duration
	ExposeToken bool // return the plaintext token in API responses
}

type MetricsConfig struct {
	Enabled bool
}

func NewFromCLI(cmd *cli.Command) *Config {
	cfg := &Config{
		Server: ServerConfig{
			Host:        cmd.String("host"),
			Port:        int(cmd.Int("port")),
			BaseURL:     cmd.String("base-url"),
			MaxBodySize: int(cmd.Int("max-body-size")),
		},
		Log: LogConfig{
			Level:  cmd.String("log-level"),
			Format: cmd.String("log-format"),
		},
		Database: DatabaseConfig{
			Driver:      cmd.String("database-driver"),
			DSN:         cmd.String("database-dsn"),
			Timeout:     cmd.Duration("database-timeout"),
			MaxItemSize: int(cmd.Int("database-max-item-size")),
		},
		Auth: AuthConfig{
			ApprovedKeys: cmd.StringSlice("approved-keys"),
		},
		SMTP: SMTPConfig{
			Enabled:  cmd.Bool("smtp-enabled"),
			Host:     cmd.String("smtp-host"),
			Port:     int(cmd.Int("smtp-port")),
			Username: cmd.String("smtp-username"),
			Password: cmd.String("smtp-password"),
			From:     cmd.String("smtp-from"),
			FromName: cmd.String("smtp-from-name"),
			TLS:      cmd.Bool("smtp-tls"),
			Timeout:  cmd.Duration("smtp-timeout"),
		},
		Verification: VerificationConfig{
			TTL:         cmd.Duration("verification-ttl"),
			ExposeToken: cmd.Bool("verification-expose-token"),
		},
		Metrics: MetricsConfig{
			Enabled: cmd.Bool("metrics-enabled"),
		},
	}

	if cfg.Server.BaseURL == "" {
		cfg.Server.BaseURL = buildBaseURL(cfg)
	}

	return cfg
}

// Validate checks settings that cannot be expressed as flag defaults.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "sqlite", "postgres", "memory":
	default:
		return fmt.Errorf("unknown database driver %q (sqlite, postgres, memory)", c.Database.Driver)
	}
	if c.Database.Driver == "postgres" && c.Database.DSN == "" {
		return fmt.Errorf("database DSN is required for postgres")
	}
	if len(c.Auth.ApprovedKeys) == 0 {
		return fmt.Errorf("at least one approved key is required")
	}
	if c.SMTP.Enabled {
		if c.SMTP.Host == "" {
			return fmt.Errorf("SMTP host is required when email is enabled")
		}
		if c.SMTP.From == "" {
			return fmt.Errorf("SMTP from address is required when email is enabled")
		}
	}
	return nil
}

func buildBaseURL(cfg *Config) string {
	host := cfg.Server.Host
	if host == "" || host == "0.0.0.0" {
		host = "localhost"
	}
	// Hide default port in URL
	if cfg.Server.Port == 80 {
		return fmt.Sprintf("http://%s", host)
	}
	return fmt.Sprintf("http://%s:%d", host, cfg.Server.Port)
}

func Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "config",
			Aliases:     []string{"c"},
			Value:       "config.toml",
			Usage:       "Path to configuration file",
			Destination: &configPath,
			Sources:     cli.EnvVars("CONFIG"),
		},
		&cli.StringFlag{
			Name:    "host",
			Value:   "localhost",
			Usage:   "Host to bind to",
			Sources: cli.NewValueSourceChain(cli.EnvVar("HOST"), toml.TOML("server.host", configFile)),
		},
		&cli.IntFlag{
			Name:    "port",
			Value:   8080,
			Usage:   "Port to listen on",
			Sources: cli.NewValueSourceChain(cli.EnvVar("PORT"), toml.TOML("server.port", configFile)),
		},
		&cli.StringFlag{
			Name:    "base-url",
			Usage:   "Public base URL used in verification links",
			Sources: cli.NewValueSourceChain(cli.EnvVar("BASE_URL"), toml.TOML("server.base_url", configFile)),
		},
		&cli.IntFlag{
			Name:    "max-body-size",
			Value:   1,
			Usage:   "Maximum request body size in MB",
			Sources: cli.NewValueSourceChain(cli.EnvVar("MAX_BODY_SIZE"), toml.TOML("server.max_body_size", configFile)),
		},
		&cli.StringFlag{
			Name:    "log-level",
			Value:   "info",
			Usage:   "Log level (debug, info, warn, error)",
			Sources: cli.NewValueSourceChain(cli.EnvVar("LOG_LEVEL"), toml.TOML("log.level", configFile)),
		},
		&cli.StringFlag{
			Name:    "log-format",
			Value:   "text",
			Usage:   "Log format (text, json)",
			Sources: cli.NewValueSourceChain(cli.EnvVar("LOG_FORMAT"), toml.TOML("log.format", configFile)),
		},
		// Database flags
		&cli.StringFlag{
			Name:    "database-driver",
			Value:   "sqlite",
			Usage:   "Record store backend (sqlite, postgres, memory)",
			Sources: cli.NewValueSourceChain(cli.EnvVar("DATABASE_DRIVER"), toml.TOML("database.driver", configFile)),
		},
		&cli.StringFlag{
			Name:    "database-dsn",
			Value:   "./data/accounts.db",
			Usage:   "Database DSN",
			Sources: cli.NewValueSourceChain(cli.EnvVar("DATABASE_DSN"), toml.TOML("database.dsn", configFile)),
		},
		&cli.DurationFlag{
			Name:    "database-timeout",
			Value:   5 * time.Second,
			Usage:   "Timeout for a single store operation",
			Sources: cli.NewValueSourceChain(cli.EnvVar("DATABASE_TIMEOUT"), toml.TOML("database.timeout", configFile)),
		},
		&cli.IntFlag{
			Name:    "database-max-item-size",
			Value:   400 * 1024,
			Usage:   "Maximum size of a stored user document in bytes",
			Sources: cli.NewValueSourceChain(cli.EnvVar("DATABASE_MAX_ITEM_SIZE"), toml.TOML("database.max_item_size", configFile)),
		},
		// Auth flags
		&cli.StringSliceFlag{
			Name:    "approved-keys",
			Value:   []string{"application:secret"},
			Usage:   "Application keys allowed to call the API (name:secret)",
			Sources: cli.NewValueSourceChain(cli.EnvVar("APPROVED_KEYS"), toml.TOML("auth.approved_keys", configFile)),
		},
		// SMTP flags
		&cli.BoolFlag{
			Name:    "smtp-enabled",
			Usage:   "Send verification emails",
			Sources: cli.NewValueSourceChain(cli.EnvVar("SMTP_ENABLED"), toml.TOML("smtp.enabled", configFile)),
		},
		&cli.StringFlag{
			Name:    "smtp-host",
			Usage:   "SMTP server host",
			Sources: cli.NewValueSourceChain(cli.EnvVar("SMTP_HOST"), toml.TOML("smtp.host", configFile)),
		},
		&cli.IntFlag{
			Name:    "smtp-port",
			Value:   587,
			Usage:   "SMTP server port",
			Sources: cli.NewValueSourceChain(cli.EnvVar("SMTP_PORT"), toml.TOML("smtp.port", configFile)),
		},
		&cli.StringFlag{
			Name:    "smtp-username",
			Usage:   "SMTP username",
			Sources: cli.NewValueSourceChain(cli.EnvVar("SMTP_USERNAME"), toml.TOML("smtp.username", configFile)),
		},
		&cli.StringFlag{
			Name:    "smtp-password",
			Usage:   "SMTP password",
			Sources: cli.NewValueSourceChain(cli.EnvVar("SMTP_PASSWORD"), toml.TOML("smtp.password", configFile)),
		},
		&cli.StringFlag{
			Name:    "smtp-from",
			Usage:   "Sender address for verification emails",
			Sources: cli.NewValueSourceChain(cli.EnvVar("SMTP_FROM"), toml.TOML("smtp.from", configFile)),
		},
		&cli.StringFlag{
			Name:    "smtp-from-name",
			Usage:   "Sender display name",
			Sources: cli.NewValueSourceChain(cli.EnvVar("SMTP_FROM_NAME"), toml.TOML("smtp.from_name", configFile)),
		},
		&cli.BoolFlag{
			Name:    "smtp-tls",
			Value:   true,
			Usage:   "Require TLS (implicit on port 465, STARTTLS otherwise)",
			Sources: cli.NewValueSourceChain(cli.EnvVar("SMTP_TLS"), toml.TOML("smtp.tls", configFile)),
		},
		&cli.DurationFlag{
			Name:    "smtp-timeout",
			Value:   10 * time.Second,
			Usage:   "Timeout for a single email delivery",
			Sources: cli.NewValueSourceChain(cli.EnvVar("SMTP_TIMEOUT"), toml.TOML("smtp.timeout", configFile)),
		},
		// Verification flags
		&cli.DurationFlag{
			Name:    "verification-ttl",
			Value:   24 * time.Hour,
			Usage:   "Lifetime of a verification token",
			Sources: cli.NewValueSourceChain(cli.EnvVar("VERIFICATION_TTL"), toml.TOML("verification.ttl", configFile)),
		},
		&cli.BoolFlag{
			Name:    "verification-expose-token",
			Usage:   "Include the plaintext verification token in API responses (testing only)",
			Sources: cli.NewValueSourceChain(cli.EnvVar("VERIFICATION_EXPOSE_TOKEN"), toml.TOML("verification.expose_token", configFile)),
		},
		// Metrics flags
		&cli.BoolFlag{
			Name:    "metrics-enabled",
			Value:   true,
			Usage:   "Expose Prometheus metrics on /metrics",
			Sources: cli.NewValueSourceChain(cli.EnvVar("METRICS_ENABLED"), toml.TOML("metrics.enabled", configFile)),
		},
	}
}
