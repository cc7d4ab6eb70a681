package config

import (
	"errors"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig
	Postgres DBConfig
	Redis    RedisConfig
	S3       S3Config
	Logger   Logger
	Worker   WorkerConfig
	Invoker  InvokerConfig
	Pipeline PipelineConfig
}

type ServerConfig struct {
	AppVersion string
	Port       string
	Mode       string
}

type WorkerConfig struct {
	WorkerCount  int
	MaxCPUUsage  float64
	PollInterval time.Duration
}

type DBConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	PgDriver string
	SSLMode  string
}

type RedisConfig struct {
	RedisAddr     string
	RedisPassword string
	DB            int
	MinIdleConns  int
	PoolSize      int
	PoolTimeout   int
	JobQueueKey   string
	UseTLS        bool
}

type S3Config struct {
	Endpoint       string
	Region         string
	AccessKey      string
	SecretKey      string
	ArtifactBucket string
}

type Logger struct {
	Development       bool
	DisableCaller     bool
	DisableStacktrace bool
	Encoding          string
	Level             string
}

// InvokerConfig tunes the retry/backoff policy applied to provider calls.
type InvokerConfig struct {
	MaxAttempts    int
	BackoffBase    time.Duration
	BackoffCap     time.Duration
	AttemptTimeout time.Duration
}

// PipelineConfig tunes per-job lease duration and stage execution deadlines.
type PipelineConfig struct {
	LeaseTTL      time.Duration
	StageDeadline time.Duration
}

func LoadConfig(filename string) (*viper.Viper, error) {
	v := viper.New()
	v.SetConfigFile(filename)
	v.AddConfigPath(".")
	v.AutomaticEnv()
	if err := v.ReadInConfig(); err != nil {
		var configFileNotFound viper.ConfigFileNotFoundError
		if errors.As(err, &configFileNotFound) {
			return nil, errors.New("config file not found")
		}
		return nil, err
	}
	return v, nil
}

func ParseConfig(v *viper.Viper) (*Config, error) {
	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, err
	}
	applyDefaults(&c)
	return &c, nil
}

func applyDefaults(c *Config) {
	if c.Invoker.MaxAttempts <= 0 {
		c.Invoker.MaxAttempts = 3
	}
	if c.Invoker.BackoffBase <= 0 {
		c.Invoker.BackoffBase = 500 * time.Millisecond
	}
	if c.Invoker.BackoffCap <= 0 {
		c.Invoker.BackoffCap = 8 * time.Second
	}
	if c.Invoker.AttemptTimeout <= 0 {
		c.Invoker.AttemptTimeout = 30 * time.Second
	}
	if c.Pipeline.LeaseTTL <= 0 {
		c.Pipeline.LeaseTTL = 10 * time.Minute
	}
	if c.Pipeline.StageDeadline <= 0 {
		c.Pipeline.StageDeadline = 5 * time.Minute
	}
	if c.Redis.JobQueueKey == "" {
		c.Redis.JobQueueKey = "pipeline_jobs"
	}
	if c.Worker.PollInterval <= 0 {
		c.Worker.PollInterval = 10 * time.Second
	}
}
