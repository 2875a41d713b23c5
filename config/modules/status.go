package modules

import "fmt"

type StatusConfig struct {
	BaseConfig
	Listen         Listen `yaml:"listen" json:"listen" default:"127.0.0.1:8081"`
	DebugEndpoints bool   `yaml:"debug_endpoints" json:"debug_endpoints" default:"true" envconfig:"DEBUG_ENDPOINTS"`
	// HealthTimeout bounds a single round of dependency checks, in seconds
	HealthTimeout uint32 `yaml:"health_timeout" json:"health_timeout" default:"3" envconfig:"HEALTH_TIMEOUT"`
}

func (cfg StatusConfig) Validate() error {
	if err := cfg.Listen.Validate(); err != nil {
		return err
	}
	if cfg.HealthTimeout < 1 || cfg.HealthTimeout > 60 {
		return fmt.Errorf("health_timeout must be in the range [1, 60]")
	}
	return nil
}
