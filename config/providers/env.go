package providers

import (
	"fmt"
	"os"
	"reflect"
	"strings"

	"gopkg.in/yaml.v3"
)

// EnvProvider overrides configuration fields from environment variables.
//
// A field is addressed as PREFIX_<NAME>, NAME being the `envconfig` tag or the
// upper-cased `yaml` tag. Nested structs extend the prefix. Values are decoded
// as YAML scalars, slices also accept comma separated values.
type EnvProvider struct {
	prefix string
	lookup func(key string) (string, bool)
}

func NewEnvProvider(prefix string) *EnvProvider {
	return &EnvProvider{prefix: prefix, lookup: os.LookupEnv}
}

func (p *EnvProvider) WithEnv(env map[string]string) *EnvProvider {
	p.lookup = func(key string) (string, bool) {
		value, ok := env[key]
		return value, ok
	}
	return p
}

func (p *EnvProvider) Load(cfg any) error {
	v := reflect.ValueOf(cfg)
	if v.Kind() != reflect.Ptr || v.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("config must be a pointer to struct, got %T", cfg)
	}
	return p.process(p.prefix, v.Elem())
}

func (p *EnvProvider) process(prefix string, v reflect.Value) error {
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		value := v.Field(i)
		if !field.IsExported() {
			continue
		}
		if field.Anonymous {
			if value.Kind() == reflect.Struct {
				if err := p.process(prefix, value); err != nil {
					return err
				}
			}
			continue
		}

		name := envName(field)
		if name == "" {
			continue
		}
		key := name
		if prefix != "" {
			key = prefix + "_" + name
		}

		if value.Kind() == reflect.Struct {
			if err := p.process(key, value); err != nil {
				return err
			}
			continue
		}

		str, ok := p.lookup(key)
		if !ok {
			continue
		}
		if err := decode(str, value); err != nil {
			return fmt.Errorf("envconfig.Process: assigning %s to %s: %w", key, field.Name, err)
		}
	}
	return nil
}

func envName(field reflect.StructField) string {
	if name := field.Tag.Get("envconfig"); name != "" {
		return name
	}
	name, _, _ := strings.Cut(field.Tag.Get("yaml"), ",")
	if name == "-" {
		return ""
	}
	if name == "" {
		name = field.Name
	}
	return strings.ToUpper(name)
}

func decode(str string, value reflect.Value) error {
	if value.Kind() == reflect.Slice && !strings.HasPrefix(strings.TrimSpace(str), "[") {
		items := make([]string, 0)
		for _, item := range strings.Split(str, ",") {
			if item = strings.TrimSpace(item); item != "" {
				items = append(items, yamlQuote(item))
			}
		}
		str = "[" + strings.Join(items, ",") + "]"
	}

	target := reflect.New(value.Type())
	if value.Kind() == reflect.String {
		// keep strings verbatim, "yes" or "0123" must not be reinterpreted
		target.Elem().SetString(str)
	} else if err := yaml.Unmarshal([]byte(str), target.Interface()); err != nil {
		return err
	}
	value.Set(target.Elem())
	return nil
}

func yamlQuote(s string) string {
	b, _ := yaml.Marshal(s)
	return strings.TrimSpace(string(b))
}
