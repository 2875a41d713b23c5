package dao

import (
	"github.com/eventatlas/eventatlas/db/entities"
	"github.com/jmoiron/sqlx"
)

// SourceDAO stores sources keyed by code
type SourceDAO interface {
	BaseDAO[entities.Source]
}

func NewSourceDAO(db *sqlx.DB) SourceDAO {
	return NewDAO[entities.Source](db, Options{Table: "sources", Key: "code"})
}
