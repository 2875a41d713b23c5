package config

import (
	"github.com/eventatlas/eventatlas/config/providers"
)

const EnvPrefix = "EVENTATLAS"

// Loader applies the YAML file first and the environment on top of it
type Loader struct {
	cfg         *Config
	envPrefix   string
	filename    string
	fileContent []byte
	strict      bool
	env         map[string]string
}

func NewLoader(cfg *Config) *Loader {
	return &Loader{cfg: cfg}
}

func (l *Loader) WithEnvPrefix(prefix string) *Loader {
	l.envPrefix = prefix
	return l
}

func (l *Loader) WithFilename(filename string) *Loader {
	l.filename = filename
	return l
}

func (l *Loader) WithFileContent(content []byte) *Loader {
	l.fileContent = content
	return l
}

// Strict fails on YAML keys that match no configuration field
func (l *Loader) Strict() *Loader {
	l.strict = true
	return l
}

// WithEnv replaces the process environment
func (l *Loader) WithEnv(env map[string]string) *Loader {
	l.env = env
	return l
}

func (l *Loader) Load() error {
	file := providers.NewYAMLProvider(l.filename, l.fileContent)
	if l.strict {
		file.Strict()
	}
	if l.env != nil {
		file.WithEnv(l.env)
	}
	if err := file.Load(l.cfg); err != nil {
		return err
	}

	if l.envPrefix != "" {
		env := providers.NewEnvProvider(l.envPrefix)
		if l.env != nil {
			env.WithEnv(l.env)
		}
		if err := env.Load(l.cfg); err != nil {
			return err
		}
	}

	return l.cfg.PostProcess()
}

// Load reads filename, which may be empty, then EVENTATLAS_* variables
func Load(filename string, cfg *Config) error {
	return NewLoader(cfg).WithEnvPrefix(EnvPrefix).WithFilename(filename).Strict().Load()
}
