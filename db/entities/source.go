package entities

import (
	"strings"

	"github.com/eventatlas/eventatlas/utils"
)

// Source is an upstream feed events are ingested from.
// Events reference it by Code without owning it.
type Source struct {
	Code string  `json:"code" db:"code" validate:"required,max=64,printascii"`
	Name string  `json:"name" db:"name" validate:"required,max=255"`
	URL  *string `json:"url" db:"url" validate:"omitempty,url"`

	BaseModel `yaml:"-"`
}

// Normalize trims surrounding whitespace and drops an empty URL
func (m *Source) Normalize() {
	m.Code = strings.TrimSpace(m.Code)
	m.Name = strings.TrimSpace(m.Name)
	if m.URL != nil {
		if url := strings.TrimSpace(*m.URL); url != "" {
			m.URL = &url
		} else {
			m.URL = nil
		}
	}
}

func (m *Source) Validate() error {
	return utils.Validate(m)
}
