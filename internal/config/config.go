package config

import (
	"time"

	"github.com/citypulse/enrichment/internal/logger"
)

// Default configuration values.
const (
	defaultServiceName           = "enrichment"
	defaultServiceVersion        = "1.0.0"
	defaultServicePort           = 8080
	defaultDBHost                = "localhost"
	defaultDBPort                = 5432
	defaultDBUser                = "postgres"
	defaultDBName                = "citypulse"
	defaultDBSSLMode             = "disable"
	defaultDBMaxConns            = 25
	defaultDBMaxIdleConns        = 5
	defaultESURL                 = "http://localhost:9200"
	defaultESIndex               = "enriched_reports"
	defaultAnalysisURL           = "http://localhost:8090"
	defaultAnalysisTimeoutSec    = 30
	defaultInitMaxAttempts       = 5
	defaultInitInitialDelaySec   = 10
	defaultInitBackoffMultiplier = 2.0
	defaultTagThreshold          = 0.5
	defaultAnalysisRPS           = 20
	defaultWorkers               = 5
	defaultQueueSize             = 256
	defaultRetriggerIntervalSec  = 60
	defaultStaleAgeSec           = 300
)

// Config holds all configuration for the enrichment service.
type Config struct {
	Service       ServiceConfig       `yaml:"service"`
	Database      DatabaseConfig      `yaml:"database"`
	Elasticsearch ElasticsearchConfig `yaml:"elasticsearch"`
	Analysis      AnalysisConfig      `yaml:"analysis"`
	Pipeline      PipelineConfig      `yaml:"pipeline"`
	Logging       logger.Config       `yaml:"logging"`
}

// ServiceConfig holds service-level configuration.
type ServiceConfig struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`
	Port    int    `env:"ENRICHMENT_PORT" yaml:"port"`
	Debug   bool   `env:"APP_DEBUG"       yaml:"debug"`
}

// DatabaseConfig holds PostgreSQL configuration.
type DatabaseConfig struct {
	Host            string        `env:"POSTGRES_HOST"     yaml:"host"`
	Port            int           `env:"POSTGRES_PORT"     yaml:"port"`
	User            string        `env:"POSTGRES_USER"     yaml:"user"`
	Password        string        `env:"POSTGRES_PASSWORD" yaml:"password"`
	Database        string        `env:"POSTGRES_DB"       yaml:"database"`
	SSLMode         string        `env:"POSTGRES_SSLMODE"  yaml:"sslmode"`
	MaxConnections  int           `yaml:"max_connections"`
	MaxIdleConns    int           `yaml:"max_idle_connections"`
	ConnMaxLifetime time.Duration `yaml:"connection_max_lifetime"`
}

// ElasticsearchConfig holds the optional enriched-report index configuration.
type ElasticsearchConfig struct {
	Enabled bool   `env:"ELASTICSEARCH_ENABLED" yaml:"enabled"`
	URL     string `env:"ELASTICSEARCH_URL"     yaml:"url"`
	Index   string `yaml:"index"`
}

// AnalysisConfig holds text analysis backend configuration.
type AnalysisConfig struct {
	// URL of the ML sidecar exposing sentiment and zero-shot tagging.
	URL string `env:"ANALYSIS_SERVICE_URL" yaml:"url"`
	// RequestTimeout bounds a single classification call.
	RequestTimeout time.Duration `yaml:"request_timeout"`
	// Startup retry policy for backend (model) initialization.
	InitMaxAttempts   int           `yaml:"init_max_attempts"`
	InitInitialDelay  time.Duration `yaml:"init_initial_delay"`
	InitBackoffFactor float64       `yaml:"init_backoff_factor"`
	// TagThreshold is the minimum entailment probability for a tag to be kept.
	TagThreshold float64 `yaml:"tag_threshold"`
	// RateLimit bounds classification calls per second (burst defaults to RPS).
	RateLimitRPS int `yaml:"rate_limit_rps"`
	// Catalog overrides the built-in tag catalog when non-empty.
	HighPriorityLabels []string `yaml:"high_priority_labels"`
	OrdinaryLabels     []string `yaml:"ordinary_labels"`
}

// PipelineConfig holds background processing configuration.
type PipelineConfig struct {
	Workers   int `env:"PIPELINE_WORKERS" yaml:"workers"`
	QueueSize int `yaml:"queue_size"`
	// RetriggerInterval is how often the poller rescans for stuck reports.
	RetriggerInterval time.Duration `yaml:"retrigger_interval"`
	// StaleAge is how old an unfinished report must be before re-triggering.
	StaleAge time.Duration `yaml:"stale_age"`
}

// Load loads configuration from the specified path.
func Load(path string) (*Config, error) {
	return loadWithDefaults[Config](path, setDefaults)
}

// setDefaults applies default values to the config.
func setDefaults(cfg *Config) {
	setServiceDefaults(&cfg.Service)
	setDatabaseDefaults(&cfg.Database)
	setElasticsearchDefaults(&cfg.Elasticsearch)
	setAnalysisDefaults(&cfg.Analysis)
	setPipelineDefaults(&cfg.Pipeline)
	cfg.Logging.SetDefaults()
}

func setServiceDefaults(s *ServiceConfig) {
	if s.Name == "" {
		s.Name = defaultServiceName
	}
	if s.Version == "" {
		s.Version = defaultServiceVersion
	}
	if s.Port == 0 {
		s.Port = defaultServicePort
	}
}

func setDatabaseDefaults(d *DatabaseConfig) {
	if d.Host == "" {
		d.Host = defaultDBHost
	}
	if d.Port == 0 {
		d.Port = defaultDBPort
	}
	if d.User == "" {
		d.User = defaultDBUser
	}
	if d.Database == "" {
		d.Database = defaultDBName
	}
	if d.SSLMode == "" {
		d.SSLMode = defaultDBSSLMode
	}
	if d.MaxConnections == 0 {
		d.MaxConnections = defaultDBMaxConns
	}
	if d.MaxIdleConns == 0 {
		d.MaxIdleConns = defaultDBMaxIdleConns
	}
	if d.ConnMaxLifetime == 0 {
		d.ConnMaxLifetime = time.Hour
	}
}

func setElasticsearchDefaults(e *ElasticsearchConfig) {
	if e.URL == "" {
		e.URL = defaultESURL
	}
	if e.Index == "" {
		e.Index = defaultESIndex
	}
}

func setAnalysisDefaults(a *AnalysisConfig) {
	if a.URL == "" {
		a.URL = defaultAnalysisURL
	}
	if a.RequestTimeout == 0 {
		a.RequestTimeout = defaultAnalysisTimeoutSec * time.Second
	}
	if a.InitMaxAttempts == 0 {
		a.InitMaxAttempts = defaultInitMaxAttempts
	}
	if a.InitInitialDelay == 0 {
		a.InitInitialDelay = defaultInitInitialDelaySec * time.Second
	}
	if a.InitBackoffFactor == 0 {
		a.InitBackoffFactor = defaultInitBackoffMultiplier
	}
	if a.TagThreshold == 0 {
		a.TagThreshold = defaultTagThreshold
	}
	if a.RateLimitRPS == 0 {
		a.RateLimitRPS = defaultAnalysisRPS
	}
}

func setPipelineDefaults(p *PipelineConfig) {
	if p.Workers == 0 {
		p.Workers = defaultWorkers
	}
	if p.QueueSize == 0 {
		p.QueueSize = defaultQueueSize
	}
	if p.RetriggerInterval == 0 {
		p.RetriggerInterval = defaultRetriggerIntervalSec * time.Second
	}
	if p.StaleAge == 0 {
		p.StaleAge = defaultStaleAgeSec * time.Second
	}
}
