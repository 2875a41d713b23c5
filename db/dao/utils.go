package dao

import (
	"reflect"
	"strings"
	"sync"
)

type column struct {
	name  string
	index []int
}

var columnCache sync.Map // reflect.Type -> []column

// columnsOf lists the db columns of a struct type, embedded structs flattened.
// Untagged fields map to their lower-cased name, `db:"-"` skips a field.
func columnsOf(t reflect.Type) []column {
	if cached, ok := columnCache.Load(t); ok {
		return cached.([]column)
	}

	columns := make([]column, 0, t.NumField())
	for _, f := range reflect.VisibleFields(t) {
		if f.Anonymous || !f.IsExported() {
			continue
		}
		name := f.Tag.Get("db")
		if name == "-" {
			continue
		}
		if name == "" {
			name = strings.ToLower(f.Name)
		}
		columns = append(columns, column{name: name, index: f.Index})
	}

	columnCache.Store(t, columns)
	return columns
}

// eachColumn calls fn with each column of entity and its value
func eachColumn(entity any, fn func(name string, value any)) {
	v := reflect.Indirect(reflect.ValueOf(entity))
	for _, c := range columnsOf(v.Type()) {
		fn(c.name, v.FieldByIndex(c.index).Interface())
	}
}
