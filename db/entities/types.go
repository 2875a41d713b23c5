package entities

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"github.com/eventatlas/eventatlas/pkg/types"
	"github.com/lib/pq"
)

type BaseModel struct {
	CreatedAt types.Time `db:"created_at" json:"createdAt"`
	UpdatedAt types.Time `db:"updated_at" json:"updatedAt"`
}

type Strings = pq.StringArray

// Flags is a set of named boolean attributes stored as jsonb
type Flags map[string]bool

// Scan replaces the content of m, keys of a previous scan are not kept
func (m *Flags) Scan(src interface{}) error {
	var data []byte
	switch v := src.(type) {
	case nil:
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into Flags", src)
	}
	*m = Flags{}
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, m)
}

func (m Flags) Value() (driver.Value, error) {
	if m == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(m)
}
