package search

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("not found")

// Engine is a search index backend
type Engine interface {
	Health(ctx context.Context) error
	CreateCollection(ctx context.Context, schema *CollectionSchema) error
	// GetCollection returns ErrNotFound when the collection does not exist
	GetCollection(ctx context.Context, name string) (*CollectionInfo, error)
	// DropCollection is a no-op when the collection does not exist
	DropCollection(ctx context.Context, name string) error
	// Import upserts documents, failures of individual documents are reported as an *ImportError
	Import(ctx context.Context, collection string, docs []*Document) error
	Search(ctx context.Context, collection string, q *Query) (*Result, error)
	// UpsertAlias points alias at collection
	UpsertAlias(ctx context.Context, alias string, collection string) error
	// GetAlias returns the collection behind alias, ErrNotFound when unset
	GetAlias(ctx context.Context, alias string) (string, error)
	DeleteAlias(ctx context.Context, alias string) error
}
