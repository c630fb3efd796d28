// internal/common/config/config.go
package config

import "fmt"

// Config is the main application configuration struct.
type Config struct {
	App       AppConfig               `mapstructure:"app"`
	Camunda   CamundaConfig           `mapstructure:"camunda"`
	Database  DatabaseConfig          `mapstructure:"database"`
	Data      DataConfig              `mapstructure:"data"`
	Knowledge KnowledgeConfig         `mapstructure:"knowledge"`
	Workers   map[string]WorkerConfig `mapstructure:"workers"`
	Alerts    AlertConfig             `mapstructure:"alerts"`
	Registry  RegistryConfig          `mapstructure:"registry"`
	Logging   LoggingConfig           `mapstructure:"logging"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type CamundaConfig struct {
	BrokerAddress  string `mapstructure:"broker_address"`
	MaxJobsActive  int    `mapstructure:"max_jobs_active"`
	Timeout        int    `mapstructure:"timeout"`         // milliseconds
	RequestTimeout int    `mapstructure:"request_timeout"` // milliseconds
}

type DatabaseConfig struct {
	Postgres      PostgresConfig      `mapstructure:"postgres"`
	Elasticsearch ElasticsearchConfig `mapstructure:"elasticsearch"`
	Redis         RedisConfig         `mapstructure:"redis"`
}

type PostgresConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
	MaxIdle        int    `mapstructure:"max_idle"`
	SSLMode        string `mapstructure:"sslmode"`
}

// GetDSN returns the PostgreSQL connection string
func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

type ElasticsearchConfig struct {
	Addresses  []string `mapstructure:"addresses"`
	Username   string   `mapstructure:"username"`
	Password   string   `mapstructure:"password"`
	SSLEnabled bool     `mapstructure:"ssl_enabled"`
	URL        string   `mapstructure:"url"` // Single URL for backwards compatibility
}

// GetURL returns the first address or the URL field
func (e ElasticsearchConfig) GetURL() string {
	if e.URL != "" {
		return e.URL
	}
	if len(e.Addresses) > 0 {
		return e.Addresses[0]
	}
	return ""
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// DataConfig points at the merchant reference datasets loaded once at startup.
// Source selects where merchant records come from: "csv" loads the three files
// into memory, "postgres" reads the equivalent tables on demand.
type DataConfig struct {
	Source            string `mapstructure:"source"`
	MerchantCSV       string `mapstructure:"merchant_csv"`
	SalesCSV          string `mapstructure:"sales_csv"`
	CustomerCSV       string `mapstructure:"customer_csv"`
	MerchantEncoding  string `mapstructure:"merchant_encoding"`
	SalesEncoding     string `mapstructure:"sales_encoding"`
	CustomerEncoding  string `mapstructure:"customer_encoding"`
	RuleCatalog       string `mapstructure:"rule_catalog"`
}

// KnowledgeConfig drives the marketing-tip retriever.
type KnowledgeConfig struct {
	Enabled             bool    `mapstructure:"enabled"`
	Index               string  `mapstructure:"index"`
	SimilarityThreshold float64 `mapstructure:"similarity_threshold"`
	MaxResults          int     `mapstructure:"max_results"`
	CacheTTL            int     `mapstructure:"cache_ttl"` // seconds
	Timeout             int     `mapstructure:"timeout"`   // milliseconds
}

// WorkerConfig holds the core settings applicable to every worker.
type WorkerConfig struct {
	Enabled       bool `mapstructure:"enabled"`
	MaxJobsActive int  `mapstructure:"max_jobs_active"`
	Timeout       int  `mapstructure:"timeout"`     // milliseconds
	MaxRetries    int  `mapstructure:"max_retries"` // For error handling
}

// AlertConfig holds settings for the send-decline-alert worker.
type AlertConfig struct {
	Enabled          bool   `mapstructure:"enabled"`
	AWSRegion        string `mapstructure:"aws_region"`
	FromEmail        string `mapstructure:"from_email"`
	MinSeverityLevel int    `mapstructure:"min_severity_level"`
	SMSMinLevel      int    `mapstructure:"sms_min_level"`
}

// RegistryConfig points at the tool activity registry consumed by the agent layer.
type RegistryConfig struct {
	Path string `mapstructure:"path"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}
