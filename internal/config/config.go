package config

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/spf13/viper"
)

//go:embed defaults.yaml
var defaults []byte

var (
	ErrEmptyTitle   = errors.New("teams.title must not be empty")
	ErrEmptyBody    = errors.New("teams.body must not be empty")
	ErrEmptyWebhook = errors.New("teams.webhook must not be empty")
)

// ---- Root ----

type Config struct {
	Log        LogConfig       `mapstructure:"log"`
	HTTP       HTTPConfig      `mapstructure:"http"`
	Teams      TeamsConfig     `mapstructure:"teams"`
	Worker     WorkerConfig    `mapstructure:"worker"`
	Kafka      KafkaConfig     `mapstructure:"kafka"`
	Redis      RedisConfig     `mapstructure:"redis"`
	MySQL      DatabaseConfig  `mapstructure:"mysql"`
	ClickHouse DatabaseConfig  `mapstructure:"clickhouse"`
	RateLimit  RateLimitConfig `mapstructure:"rate_limit"`
}

// ---- Leaf structs ----

type LogConfig struct {
	Level    string `mapstructure:"level"`
	Encoding string `mapstructure:"encoding"` // json | console
}

type HTTPConfig struct {
	Addr string `mapstructure:"addr"`
}

// TeamsConfig is the notification contract: Title and Body are templates
// resolved against record attributes, Webhook is used verbatim.
type TeamsConfig struct {
	Title   string        `mapstructure:"title"`
	Body    string        `mapstructure:"body"`
	Webhook string        `mapstructure:"webhook"`
	Timeout time.Duration `mapstructure:"timeout"` // 0 = no client timeout
}

// Validate reports every empty required setting at once.
func (t TeamsConfig) Validate() error {
	var errs []error
	if t.Title == "" {
		errs = append(errs, ErrEmptyTitle)
	}
	if t.Body == "" {
		errs = append(errs, ErrEmptyBody)
	}
	if t.Webhook == "" {
		errs = append(errs, ErrEmptyWebhook)
	}
	if t.Timeout < 0 {
		errs = append(errs, fmt.Errorf("teams.timeout must not be negative (got %s)", t.Timeout))
	}
	return errors.Join(errs...)
}

type WorkerConfig struct {
	Count          int           `mapstructure:"count"`
	MetricsAddr    string        `mapstructure:"metrics_addr"`
	AuditBatchSize int           `mapstructure:"audit_batch_size"`
	AuditBatchWait time.Duration `mapstructure:"audit_batch_wait"`
}

type KafkaConfig struct {
	Brokers        []string `mapstructure:"brokers"`
	Topic          string   `mapstructure:"topic"`
	SuccessTopic   string   `mapstructure:"success_topic"`
	FailureTopic   string   `mapstructure:"failure_topic"`
	GroupID        string   `mapstructure:"group_id"`
	MinBytes       int      `mapstructure:"min_bytes"`
	MaxBytes       int      `mapstructure:"max_bytes"`
	CommitInterval int      `mapstructure:"commit_interval_ms"`
}

type RedisConfig struct {
	Addr          string        `mapstructure:"addr"`
	Password      string        `mapstructure:"password"`
	DB            int           `mapstructure:"db"`
	DialTimeout   time.Duration `mapstructure:"dial_timeout"`
	InputKey      string        `mapstructure:"input_key"`
	ProcessingKey string        `mapstructure:"processing_key"`
	OutcomePrefix string        `mapstructure:"outcome_prefix"`
	PollTimeout   time.Duration `mapstructure:"poll_timeout"`
}

type DatabaseConfig struct {
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idletime"`
	PingTimeout     time.Duration `mapstructure:"ping_timeout"`
}

type RateLimitConfig struct {
	RPS int `mapstructure:"rps"`
}

// Load reads embedded defaults, merges user YAML (if present), and applies
// env overrides (TEAMSNOTIFY_*, nested keys joined by "_").
func Load(path string) (Config, error) {
	v := viper.New()

	// embedded defaults
	v.SetConfigType("yaml")
	if err := v.ReadConfig(bytes.NewReader(defaults)); err != nil {
		return Config{}, fmt.Errorf("read defaults: %w", err)
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.MergeInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
				return Config{}, fmt.Errorf("merge %s: %w", path, err)
			}
		}
	}

	v.SetEnvPrefix("TEAMSNOTIFY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	return cfg, nil
}
