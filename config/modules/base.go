package modules

import (
	"fmt"

	"github.com/eventatlas/eventatlas/config/types"
)

var _ types.Config = BaseConfig{}

// BaseConfig gives a section no-op hooks, sections override what they need
type BaseConfig struct{}

func (c BaseConfig) PostProcess() error { return nil }
func (c BaseConfig) Validate() error    { return nil }

// Section is a named top-level block of the configuration file
type Section struct {
	Name   string
	Config types.Config
}

// ValidateSections stops at the first invalid section and prefixes the error with its name
func ValidateSections(sections ...Section) error {
	for _, s := range sections {
		if err := s.Config.Validate(); err != nil {
			return fmt.Errorf("%s: %w", s.Name, err)
		}
	}
	return nil
}
