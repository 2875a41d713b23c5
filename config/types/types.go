package types

import "encoding/json"

// Config is implemented by every configuration section
type Config interface {
	Validate() error
	PostProcess() error
}

// Map is a string map decodable from a JSON environment value
type Map map[string]string

func (m *Map) Decode(value string) error {
	return json.Unmarshal([]byte(value), m)
}

const masked = "******"

// Password is masked whenever the configuration is printed or serialized
type Password string

func (p Password) String() string {
	if p == "" {
		return ""
	}
	return masked
}

func (p Password) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.String())
}

// Reveal returns the clear text value for use by clients
func (p Password) Reveal() string {
	return string(p)
}
