package modules

import (
	"fmt"
)

type RateLimitStore string

const (
	// RateLimitStoreRedis shares the quota across every node
	RateLimitStoreRedis RateLimitStore = "redis"
	// RateLimitStoreMemory counts per node
	RateLimitStoreMemory RateLimitStore = "memory"
)

type RateLimit struct {
	Quota  uint32         `yaml:"quota" json:"quota" default:"0"`
	Period uint32         `yaml:"period" json:"period" default:"1"`
	Store  RateLimitStore `yaml:"store" json:"store" default:"redis"`
}

func (r RateLimit) Enabled() bool {
	return r.Quota > 0
}

type APIConfig struct {
	BaseConfig
	Listen             Listen    `yaml:"listen" json:"listen" default:"0.0.0.0:8080"`
	MaxRequestBodySize int64     `yaml:"max_request_body_size" json:"max_request_body_size" default:"1048576" envconfig:"MAX_REQUEST_BODY_SIZE"`
	TimeoutRead        int64     `yaml:"timeout_read" json:"timeout_read" default:"10" envconfig:"TIMEOUT_READ"`
	TimeoutWrite       int64     `yaml:"timeout_write" json:"timeout_write" default:"10" envconfig:"TIMEOUT_WRITE"`
	RateLimit          RateLimit `yaml:"rate_limit" json:"rate_limit" envconfig:"RATE_LIMIT"`
}

func (cfg APIConfig) Validate() error {
	if err := cfg.Listen.Validate(); err != nil {
		return err
	}
	if cfg.MaxRequestBodySize < 0 {
		return fmt.Errorf("max_request_body_size cannot be negative value")
	}
	if cfg.TimeoutRead < 0 {
		return fmt.Errorf("timeout_read cannot be negative value")
	}
	if cfg.TimeoutWrite < 0 {
		return fmt.Errorf("timeout_write cannot be negative value")
	}
	if cfg.RateLimit.Enabled() && cfg.RateLimit.Period == 0 {
		return fmt.Errorf("rate_limit.period must be at least 1")
	}
	switch cfg.RateLimit.Store {
	case RateLimitStoreRedis, RateLimitStoreMemory:
	default:
		return fmt.Errorf("invalid rate_limit.store: %s", cfg.RateLimit.Store)
	}
	return nil
}
