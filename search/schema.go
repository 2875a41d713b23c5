package search

// Field is a collection field definition
type Field struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	Facet    bool   `json:"facet,omitempty"`
	Optional bool   `json:"optional,omitempty"`
}

type CollectionSchema struct {
	Name                string  `json:"name"`
	Fields              []Field `json:"fields"`
	DefaultSortingField string  `json:"default_sorting_field,omitempty"`
}

// CollectionInfo is the state of an existing collection
type CollectionInfo struct {
	Name         string `json:"name"`
	NumDocuments int64  `json:"num_documents"`
	CreatedAt    int64  `json:"created_at"`
}

// EventsSchema returns the fixed schema of the events collection
func EventsSchema(name string) *CollectionSchema {
	return &CollectionSchema{
		Name: name,
		Fields: []Field{
			{Name: "id", Type: "string"},
			{Name: "name", Type: "string"},
			{Name: "type", Type: "string", Facet: true},
			{Name: "startsAt", Type: "int64"},
			{Name: "endsAt", Type: "int64"},
			{Name: "country", Type: "string", Facet: true},
			{Name: "region", Type: "string", Facet: true},
			{Name: "city", Type: "string", Facet: true},
			{Name: "vibe", Type: "string[]", Facet: true},
			{Name: "amenities", Type: "string[]", Facet: true},
		},
		DefaultSortingField: "startsAt",
	}
}
