package providers

import (
	"bytes"
	"errors"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// YAMLProvider decodes a YAML document onto the configuration.
// ${VAR} references are expanded from the environment before decoding.
type YAMLProvider struct {
	filename string
	content  []byte
	strict   bool
	lookup   func(key string) (string, bool)
}

func NewYAMLProvider(filename string, content []byte) *YAMLProvider {
	return &YAMLProvider{
		filename: filename,
		content:  content,
		lookup:   os.LookupEnv,
	}
}

// Strict rejects keys that match no configuration field
func (p *YAMLProvider) Strict() *YAMLProvider {
	p.strict = true
	return p
}

func (p *YAMLProvider) WithEnv(env map[string]string) *YAMLProvider {
	p.lookup = func(key string) (string, bool) {
		value, ok := env[key]
		return value, ok
	}
	return p
}

func (p *YAMLProvider) Load(cfg any) error {
	content := p.content
	if p.filename != "" {
		b, err := os.ReadFile(p.filename)
		if err != nil {
			return err
		}
		content = b
	}
	if len(content) == 0 {
		return nil
	}

	expanded := os.Expand(string(content), func(key string) string {
		value, _ := p.lookup(key)
		return value
	})

	decoder := yaml.NewDecoder(bytes.NewBufferString(expanded))
	decoder.KnownFields(p.strict)
	if err := decoder.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}
