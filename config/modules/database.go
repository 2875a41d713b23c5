package modules

import (
	"fmt"
	"net"
	"net/url"
	"strconv"

	"github.com/eventatlas/eventatlas/config/types"
)

type DatabaseConfig struct {
	BaseConfig
	Host        string         `yaml:"host" json:"host" default:"localhost"`
	Port        uint32         `yaml:"port" json:"port" default:"5432"`
	Username    string         `yaml:"username" json:"username" default:"eventatlas"`
	Password    types.Password `yaml:"password" json:"password" default:""`
	Database    string         `yaml:"database" json:"database" default:"eventatlas"`
	Parameters  string         `yaml:"parameters" json:"parameters" default:"application_name=eventatlas&sslmode=disable&connect_timeout=10"`
	MaxPoolSize uint32         `yaml:"max_pool_size" json:"max_pool_size" default:"40" envconfig:"MAX_POOL_SIZE"`
	MaxLifetime uint32         `yaml:"max_life_time" json:"max_life_time" default:"1800" envconfig:"MAX_LIFETIME"`
}

// GetDSN builds a postgres:// URL, credentials are escaped
func (cfg DatabaseConfig) GetDSN() string {
	dsn := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(cfg.Username, cfg.Password.Reveal()),
		Host:     net.JoinHostPort(cfg.Host, strconv.Itoa(int(cfg.Port))),
		Path:     "/" + cfg.Database,
		RawQuery: cfg.Parameters,
	}
	return dsn.String()
}

func (cfg DatabaseConfig) Validate() error {
	if cfg.Port > 65535 {
		return fmt.Errorf("port must be in the range [0, 65535]")
	}
	if cfg.Database == "" {
		return fmt.Errorf("database cannot be empty")
	}
	if _, err := url.ParseQuery(cfg.Parameters); err != nil {
		return fmt.Errorf("invalid parameters: %s", err)
	}
	return nil
}
