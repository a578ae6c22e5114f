// Package config loads and validates harvester configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config captures all service configuration knobs loaded via Viper.
type Config struct {
	Harvest   HarvestConfig   `mapstructure:"harvest"`
	Portal    PortalConfig    `mapstructure:"portal"`
	Sink      SinkConfig      `mapstructure:"sink"`
	Report    ReportConfig    `mapstructure:"report"`
	Publisher PublisherConfig `mapstructure:"publisher"`
	Server    ServerConfig    `mapstructure:"server"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// HarvestConfig governs the partitioned crawl itself.
type HarvestConfig struct {
	PageSize    int           `mapstructure:"page_size"`
	Concurrency int           `mapstructure:"concurrency"`
	Timeout     time.Duration `mapstructure:"timeout"`
	Retries     int           `mapstructure:"retries"`
	RetryDelay  time.Duration `mapstructure:"retry_delay"`
	// Enumerator selects partition-key discovery: "static" uses the
	// configured license list as-is, "facet" probes the portal first.
	Enumerator string   `mapstructure:"enumerator"`
	Licenses   []string `mapstructure:"licenses"`
}

// PortalConfig configures the upstream search API client.
type PortalConfig struct {
	BaseURL   string `mapstructure:"base_url"`
	UserAgent string `mapstructure:"user_agent"`
	// RequestsPerSecond paces outbound requests; 0 disables pacing.
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
}

// SinkConfig selects and configures the result sink provider.
type SinkConfig struct {
	Provider  string `mapstructure:"provider"`
	OutputDir string `mapstructure:"output_dir"`
	ChunkSize int    `mapstructure:"chunk_size"`
	GCSBucket string `mapstructure:"gcs_bucket"`
	GCSPrefix string `mapstructure:"gcs_prefix"`
}

// ReportConfig selects where per-partition run reports are persisted.
type ReportConfig struct {
	Provider string `mapstructure:"provider"`
	DSN      string `mapstructure:"dsn"`
}

// PublisherConfig holds metadata for run-completion notifications.
type PublisherConfig struct {
	Provider  string `mapstructure:"provider"`
	ProjectID string `mapstructure:"project_id"`
	TopicID   string `mapstructure:"topic_id"`
}

// ServerConfig controls the optional status/metrics HTTP server.
type ServerConfig struct {
	Enabled bool `mapstructure:"enabled"`
	Port    int  `mapstructure:"port"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("HARVESTER")
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
	v.SetDefault("harvest.page_size", 500)
	v.SetDefault("harvest.concurrency", 10)
	v.SetDefault("harvest.timeout", "90s")
	v.SetDefault("harvest.retries", 3)
	v.SetDefault("harvest.retry_delay", "5s")
	v.SetDefault("harvest.enumerator", "static")
	v.SetDefault("harvest.licenses", []string{"cc-by", "cc-zero", "odc-odbl", "odc-pddl"})

	v.SetDefault("portal.base_url", "https://dados.gov.br/api/publico/conjuntos-dados/buscar")
	v.SetDefault("portal.user_agent", "dadosgov-harvester/1.0 (+https://github.com/opendatahub-br/dadosgov-harvester)")
	v.SetDefault("portal.requests_per_second", 0)

	v.SetDefault("sink.provider", "local")
	v.SetDefault("sink.output_dir", "scraped_data")
	v.SetDefault("sink.chunk_size", 500)

	v.SetDefault("report.provider", "noop")
	v.SetDefault("publisher.provider", "noop")

	v.SetDefault("server.enabled", false)
	v.SetDefault("server.port", 8080)

	v.SetDefault("logging.development", false)
}

// Validate checks for obviously bad configuration combinations.
func (c Config) Validate() error {
	if c.Harvest.PageSize <= 0 {
		return fmt.Errorf("harvest.page_size must be > 0")
	}
	if c.Harvest.Concurrency <= 0 {
		return fmt.Errorf("harvest.concurrency must be > 0")
	}
	if c.Harvest.Timeout <= 0 {
		return fmt.Errorf("harvest.timeout must be > 0")
	}
	if c.Harvest.Retries <= 0 {
		return fmt.Errorf("harvest.retries must be > 0")
	}
	if c.Harvest.RetryDelay <= 0 {
		return fmt.Errorf("harvest.retry_delay must be > 0")
	}
	switch c.Harvest.Enumerator {
	case "static", "facet":
	default:
		return fmt.Errorf("harvest.enumerator must be one of: static, facet")
	}
	if len(c.Harvest.Licenses) == 0 {
		return fmt.Errorf("harvest.licenses must include at least one license key")
	}
	if c.Portal.BaseURL == "" {
		return fmt.Errorf("portal.base_url must be set")
	}
	if c.Portal.RequestsPerSecond < 0 {
		return fmt.Errorf("portal.requests_per_second must be >= 0")
	}
	switch c.Sink.Provider {
	case "local":
		if c.Sink.OutputDir == "" {
			return fmt.Errorf("sink.output_dir must be set for the local provider")
		}
	case "gcs":
		if c.Sink.GCSBucket == "" {
			return fmt.Errorf("sink.gcs_bucket must be set for the gcs provider")
		}
	case "memory", "noop":
	default:
		return fmt.Errorf("unknown sink provider: %s", c.Sink.Provider)
	}
	switch c.Report.Provider {
	case "postgres":
		if c.Report.DSN == "" {
			return fmt.Errorf("report.dsn must be set for the postgres provider")
		}
	case "memory", "noop":
	default:
		return fmt.Errorf("unknown report provider: %s", c.Report.Provider)
	}
	switch c.Publisher.Provider {
	case "pubsub":
		if c.Publisher.ProjectID == "" || c.Publisher.TopicID == "" {
			return fmt.Errorf("publisher.project_id and publisher.topic_id must be set for the pubsub provider")
		}
	case "memory", "noop":
	default:
		return fmt.Errorf("unknown publisher provider: %s", c.Publisher.Provider)
	}
	if c.Server.Enabled && (c.Server.Port <= 0 || c.Server.Port > 65535) {
		return fmt.Errorf("server.port must be a valid TCP port")
	}
	return nil
}
