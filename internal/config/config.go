// Package config loads and validates service configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config captures all service configuration knobs loaded via Viper.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Upstream  UpstreamConfig  `mapstructure:"upstream"`
	DB        DBConfig        `mapstructure:"db"`
	Retention RetentionConfig `mapstructure:"retention"`
	Archive   ArchiveConfig   `mapstructure:"archive"`
	Notify    NotifyConfig    `mapstructure:"notify"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// ServerConfig controls HTTP server behavior.
type ServerConfig struct {
	Port int `mapstructure:"port"`
}

// UpstreamConfig locates the commerce API and holds client credentials.
// An explicit struct passed into the client constructor, not process-wide
// constants.
type UpstreamConfig struct {
	BaseURL        string `mapstructure:"base_url"`
	APIVersion     string `mapstructure:"api_version"`
	ClientID       string `mapstructure:"client_id"`
	UserAgent      string `mapstructure:"user_agent"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

// DBConfig selects and configures the snapshot store backend.
type DBConfig struct {
	Driver   string `mapstructure:"driver"` // postgres | sqlite | memory
	DSN      string `mapstructure:"dsn"`
	Path     string `mapstructure:"path"` // sqlite file
	MaxConns int32  `mapstructure:"max_conns"`
	MinConns int32  `mapstructure:"min_conns"`
}

// RetentionConfig bounds per-invocation pruning work.
type RetentionConfig struct {
	PruneLimit int `mapstructure:"prune_limit"`
}

// ArchiveConfig configures optional raw payload archiving.
type ArchiveConfig struct {
	Provider string `mapstructure:"provider"` // none | local | memory | gcs
	BaseDir  string `mapstructure:"base_dir"`
	Bucket   string `mapstructure:"bucket"`
	Prefix   string `mapstructure:"prefix"`
}

// NotifyConfig configures optional sync-completed notifications.
type NotifyConfig struct {
	Provider  string `mapstructure:"provider"` // none | memory | pubsub
	ProjectID string `mapstructure:"project_id"`
	TopicID   string `mapstructure:"topic_id"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("DEALSTATS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("upstream.base_url", "https://api.groupon.com")
	v.SetDefault("upstream.api_version", "v2")
	v.SetDefault("upstream.user_agent", "dealstats/1.0")
	v.SetDefault("upstream.timeout_seconds", 15)
	v.SetDefault("db.driver", "memory")
	v.SetDefault("db.max_conns", 4)
	v.SetDefault("db.min_conns", 0)
	v.SetDefault("retention.prune_limit", 30)
	v.SetDefault("archive.provider", "none")
	v.SetDefault("archive.prefix", "payloads")
	v.SetDefault("notify.provider", "none")
	v.SetDefault("logging.development", true)
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be > 0")
	}
	if c.Upstream.BaseURL == "" {
		return fmt.Errorf("upstream.base_url is required")
	}
	if c.Upstream.TimeoutSeconds <= 0 {
		return fmt.Errorf("upstream.timeout_seconds must be > 0")
	}
	switch c.DB.Driver {
	case "postgres":
		if c.DB.DSN == "" {
			return fmt.Errorf("db.dsn is required when db.driver is postgres")
		}
	case "sqlite":
		if c.DB.Path == "" {
			return fmt.Errorf("db.path is required when db.driver is sqlite")
		}
	case "memory":
	default:
		return fmt.Errorf("unknown db.driver %q", c.DB.Driver)
	}
	if c.Retention.PruneLimit <= 0 {
		return fmt.Errorf("retention.prune_limit must be > 0")
	}
	switch c.Archive.Provider {
	case "none", "memory":
	case "local":
		if c.Archive.BaseDir == "" {
			return fmt.Errorf("archive.base_dir is required when archive.provider is local")
		}
	case "gcs":
		if c.Archive.Bucket == "" {
			return fmt.Errorf("archive.bucket is required when archive.provider is gcs")
		}
	default:
		return fmt.Errorf("unknown archive.provider %q", c.Archive.Provider)
	}
	switch c.Notify.Provider {
	case "none", "memory":
	case "pubsub":
		if c.Notify.ProjectID == "" || c.Notify.TopicID == "" {
			return fmt.Errorf("notify.project_id and notify.topic_id are required when notify.provider is pubsub")
		}
	default:
		return fmt.Errorf("unknown notify.provider %q", c.Notify.Provider)
	}
	return nil
}

// UpstreamTimeout converts the configured timeout into a duration.
func (c Config) UpstreamTimeout() time.Duration {
	return time.Duration(c.Upstream.TimeoutSeconds) * time.Second
}
