package config

import (
	"fmt"
	"os"
	"reflect"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the service
type Config struct {
	Environment string `mapstructure:"environment"`
	LogLevel    string `mapstructure:"logLevel"`
	Server      struct {
		Port int `mapstructure:"port"`
	} `mapstructure:"server"`
	HTTP HTTPConfig `mapstructure:"http"`
	NATS struct {
		URL      string             `mapstructure:"url"`
		LeadFeed ConsumerNatsConfig `mapstructure:"leadFeed"`
		Inquiry  ConsumerNatsConfig `mapstructure:"inquiry"`
	} `mapstructure:"nats"`
	Database struct {
		PostgresDSN         string `mapstructure:"postgresDSN"`
		PostgresAutoMigrate bool   `mapstructure:"postgresAutoMigrate"`
	} `mapstructure:"database"`
	Metrics struct {
		Enabled bool `mapstructure:"enabled"`
		Port    int  `mapstructure:"port"`
	} `mapstructure:"metrics"`
	WorkerPools struct {
		Intake IntakeWorkerPoolConfig `mapstructure:"intake"`
	} `mapstructure:"workerPools"`
}

// HTTPConfig holds configuration for the board API server
type HTTPConfig struct {
	Port           string   `mapstructure:"port"`
	AllowedOrigins []string `mapstructure:"allowedOrigins"`
}

// IntakeWorkerPoolConfig holds configuration for the inquiry intake worker pool
type IntakeWorkerPoolConfig struct {
	PoolSize   int           `mapstructure:"poolSize"`   // Number of workers
	QueueSize  int           `mapstructure:"queueSize"`  // Task queue buffer size
	MaxBlock   time.Duration `mapstructure:"maxBlock"`   // Max time to block when submitting if queue full
	ExpiryTime time.Duration `mapstructure:"expiryTime"` // Idle worker expiry time
	DedupeSize uint          `mapstructure:"dedupeSize"` // Expected entries in the intake dedupe filter
	DedupeFP   float64       `mapstructure:"dedupeFP"`   // Acceptable false-positive rate for the filter
}

// ConsumerNatsConfig holds configuration specific to a NATS consumer
type ConsumerNatsConfig struct {
	MaxAge       int64         `mapstructure:"maxAge"` // max age of messages in days
	Stream       string        `mapstructure:"stream"`
	Consumer     string        `mapstructure:"consumer"` // durable name
	QueueGroup   string        `mapstructure:"group"`
	SubjectList  []string      `mapstructure:"subjectList"`
	MaxDeliver   int           `mapstructure:"maxDeliver"`
	NakBaseDelay time.Duration `mapstructure:"nakBaseDelay"`
	NakMaxDelay  time.Duration `mapstructure:"nakMaxDelay"`
}

// LoadConfig reads configuration from file or environment variables
func LoadConfig(path string) (*Config, error) {
	v := viper.New()

	// Set defaults
	v.SetDefault("environment", "development")
	v.SetDefault("logLevel", "info")
	v.SetDefault("server.port", 8080)
	v.SetDefault("http.port", "8081")
	v.SetDefault("http.allowedOrigins", []string{"*"})
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.port", 2112)

	v.SetDefault("nats.leadFeed.stream", "lead_events")
	v.SetDefault("nats.leadFeed.consumer", "crm_board")
	v.SetDefault("nats.leadFeed.group", "crm_board_group")
	v.SetDefault("nats.leadFeed.subjectList", []string{"v1.leads.>"})
	v.SetDefault("nats.leadFeed.maxDeliver", 5)
	v.SetDefault("nats.leadFeed.nakBaseDelay", time.Second)
	v.SetDefault("nats.leadFeed.nakMaxDelay", 30*time.Second)
	v.SetDefault("nats.leadFeed.maxAge", 1)

	v.SetDefault("nats.inquiry.stream", "inquiry_events")
	v.SetDefault("nats.inquiry.consumer", "crm_intake")
	v.SetDefault("nats.inquiry.group", "crm_intake_group")
	v.SetDefault("nats.inquiry.subjectList", []string{"v1.inquiries.>"})
	v.SetDefault("nats.inquiry.maxDeliver", 5)
	v.SetDefault("nats.inquiry.nakBaseDelay", time.Second)
	v.SetDefault("nats.inquiry.nakMaxDelay", 30*time.Second)
	v.SetDefault("nats.inquiry.maxAge", 7)

	// WorkerPools defaults
	v.SetDefault("workerPools.intake.poolSize", 10)
	v.SetDefault("workerPools.intake.queueSize", 10000)
	v.SetDefault("workerPools.intake.maxBlock", time.Second)
	v.SetDefault("workerPools.intake.expiryTime", time.Minute)
	v.SetDefault("workerPools.intake.dedupeSize", 100000)
	v.SetDefault("workerPools.intake.dedupeFP", 0.01)

	// Config file settings
	v.SetConfigName("default")
	v.SetConfigType("yaml")

	// Add lookup paths
	if path != "" {
		v.AddConfigPath(path)
	}
	v.AddConfigPath(".")
	v.AddConfigPath("./internal/config")
	v.AddConfigPath("$HOME/.estate-crm-leads")
	v.AddConfigPath("/etc/estate-crm-leads")

	// Try to read from config file
	if err := v.ReadInConfig(); err != nil {
		// It's ok if config file is not found, we'll use env vars
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	// Override with environment variables
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Map environment variables to config fields
	bindEnvs(v, Config{})

	// Read directly from ENV for critical values
	if dsn := os.Getenv("POSTGRES_DSN"); dsn != "" {
		v.Set("database.postgresDSN", dsn)
	}
	if lgLevel := os.Getenv("LOG_LEVEL"); lgLevel != "" {
		v.Set("logLevel", lgLevel)
	}
	if url := os.Getenv("NATS_URL"); url != "" {
		v.Set("nats.url", url)
	}

	// Unmarshal config
	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}

	return &config, nil
}

// bindEnvs recursively binds environment variables to config struct fields
func bindEnvs(v *viper.Viper, cfg interface{}, parts ...string) {
	ifv := reflect.ValueOf(cfg)
	ift := reflect.TypeOf(cfg)
	for i := 0; i < ift.NumField(); i++ {
		fieldVal := ifv.Field(i)
		fieldType := ift.Field(i)

		tag := fieldType.Tag.Get("mapstructure")
		if tag == "" || tag == "-" {
			continue
		}

		path := append(parts, tag)
		key := strings.Join(path, ".")

		if fieldType.Type.Kind() == reflect.Struct {
			bindEnvs(v, fieldVal.Interface(), path...)
			continue
		}

		_ = v.BindEnv(key)
	}
}
