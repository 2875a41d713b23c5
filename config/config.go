package config

import (
	"encoding/json"

	"github.com/creasty/defaults"
	"github.com/eventatlas/eventatlas/config/modules"
	"github.com/eventatlas/eventatlas/config/types"
)

var (
	VERSION = "dev"
	COMMIT  = "unknown"
)

var _ types.Config = &Config{}

// Config Configuration
type Config struct {
	modules.BaseConfig
	Log       modules.LogConfig       `yaml:"log" json:"log" envconfig:"LOG"`
	AccessLog modules.AccessLogConfig `yaml:"access_log" json:"access_log" envconfig:"ACCESS_LOG"`
	Database  modules.DatabaseConfig  `yaml:"database" json:"database" envconfig:"DATABASE"`
	Redis     modules.RedisConfig     `yaml:"redis" json:"redis" envconfig:"REDIS"`
	Search    modules.SearchConfig    `yaml:"search" json:"search" envconfig:"SEARCH"`
	Worker    modules.WorkerConfig    `yaml:"worker" json:"worker" envconfig:"WORKER"`
	API       modules.APIConfig       `yaml:"api" json:"api" envconfig:"API"`
	Status    modules.StatusConfig    `yaml:"status" json:"status" envconfig:"STATUS"`
	Nats      modules.NatsConfig      `yaml:"nats" json:"nats" envconfig:"NATS"`
	Feed      modules.FeedConfig      `yaml:"feed" json:"feed" envconfig:"FEED"`
	Metrics   modules.MetricsConfig   `yaml:"metrics" json:"metrics" envconfig:"METRICS"`
	Tracing   modules.TracingConfig   `yaml:"tracing" json:"tracing" envconfig:"TRACING"`
}

func (cfg Config) String() string {
	bytes, err := json.Marshal(cfg)
	if err != nil {
		panic(err)
	}
	return string(bytes)
}

func (cfg Config) Validate() error {
	return modules.ValidateSections(
		modules.Section{Name: "log", Config: cfg.Log},
		modules.Section{Name: "access_log", Config: cfg.AccessLog},
		modules.Section{Name: "database", Config: cfg.Database},
		modules.Section{Name: "redis", Config: cfg.Redis},
		modules.Section{Name: "search", Config: cfg.Search},
		modules.Section{Name: "worker", Config: &cfg.Worker},
		modules.Section{Name: "api", Config: cfg.API},
		modules.Section{Name: "status", Config: cfg.Status},
		modules.Section{Name: "nats", Config: cfg.Nats},
		modules.Section{Name: "feed", Config: cfg.Feed},
		modules.Section{Name: "metrics", Config: &cfg.Metrics},
		modules.Section{Name: "tracing", Config: &cfg.Tracing},
	)
}

func New() *Config {
	var cfg Config
	if err := defaults.Set(&cfg); err != nil {
		panic(err)
	}
	return &cfg
}
