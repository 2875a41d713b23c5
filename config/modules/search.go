package modules

import (
	"fmt"
	"slices"

	"github.com/eventatlas/eventatlas/config/types"
	"github.com/robfig/cron/v3"
)

type RebuildStrategy string

const (
	// RebuildStrategyRecreate drops and recreates the collection in place
	RebuildStrategyRecreate RebuildStrategy = "recreate"
	// RebuildStrategyAlias builds a new collection and swaps the alias onto it
	RebuildStrategyAlias RebuildStrategy = "alias"
)

type SearchConfig struct {
	BaseConfig
	Host            string          `yaml:"host" json:"host" default:"localhost"`
	Port            uint32          `yaml:"port" json:"port" default:"8108"`
	Protocol        string          `yaml:"protocol" json:"protocol" default:"http"`
	APIKey          types.Password  `yaml:"api_key" json:"api_key" default:"changeme" envconfig:"API_KEY"`
	Timeout         uint32          `yaml:"timeout" json:"timeout" default:"5"`
	Collection      string          `yaml:"collection" json:"collection" default:"events"`
	BatchSize       uint32          `yaml:"batch_size" json:"batch_size" default:"500" envconfig:"BATCH_SIZE"`
	RebuildStrategy RebuildStrategy `yaml:"rebuild_strategy" json:"rebuild_strategy" default:"recreate" envconfig:"REBUILD_STRATEGY"`
	RebuildInterval uint32          `yaml:"rebuild_interval" json:"rebuild_interval" default:"0" envconfig:"REBUILD_INTERVAL"`
	RebuildCron     string          `yaml:"rebuild_cron" json:"rebuild_cron" default:"" envconfig:"REBUILD_CRON"`
	LockTTL         uint32          `yaml:"lock_ttl" json:"lock_ttl" default:"30" envconfig:"LOCK_TTL"`
}

// RebuildScheduled reports whether the node rebuilds the index periodically
func (cfg SearchConfig) RebuildScheduled() bool {
	return cfg.RebuildCron != "" || cfg.RebuildInterval > 0
}

func (cfg SearchConfig) URL() string {
	return fmt.Sprintf("%s://%s:%d", cfg.Protocol, cfg.Host, cfg.Port)
}

func (cfg SearchConfig) Validate() error {
	if cfg.Port > 65535 {
		return fmt.Errorf("port must be in the range [0, 65535]")
	}
	if !slices.Contains([]string{"http", "https"}, cfg.Protocol) {
		return fmt.Errorf("invalid protocol: %s", cfg.Protocol)
	}
	if cfg.Collection == "" {
		return fmt.Errorf("collection cannot be empty")
	}
	if cfg.BatchSize < 1 || cfg.BatchSize > 10000 {
		return fmt.Errorf("batch_size must be in the range [1, 10000]")
	}
	if !slices.Contains([]RebuildStrategy{RebuildStrategyRecreate, RebuildStrategyAlias}, cfg.RebuildStrategy) {
		return fmt.Errorf("invalid rebuild_strategy: %s", cfg.RebuildStrategy)
	}
	if cfg.RebuildCron != "" {
		if cfg.RebuildInterval > 0 {
			return fmt.Errorf("rebuild_cron and rebuild_interval are mutually exclusive")
		}
		if _, err := cron.ParseStandard(cfg.RebuildCron); err != nil {
			return fmt.Errorf("invalid rebuild_cron: %s", err)
		}
	}
	if cfg.LockTTL < 5 {
		return fmt.Errorf("lock_ttl must be at least 5")
	}
	return nil
}
