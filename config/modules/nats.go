package modules

import (
	"fmt"
	"strings"
)

type NatsConfig struct {
	BaseConfig
	URL           string `yaml:"url" json:"url" default:""`
	Name          string `yaml:"name" json:"name" default:"eventatlas"`
	MaxReconnects int    `yaml:"max_reconnects" json:"max_reconnects" default:"60" envconfig:"MAX_RECONNECTS"`
}

func (cfg NatsConfig) Enabled() bool {
	return cfg.URL != ""
}

func (cfg NatsConfig) Validate() error {
	if cfg.Enabled() && !strings.HasPrefix(cfg.URL, "nats://") && !strings.HasPrefix(cfg.URL, "tls://") {
		return fmt.Errorf("invalid url: %s", cfg.URL)
	}
	return nil
}
