package worker

import "encoding/json"

// IngestData is the data of an ingest task
type IngestData struct {
	SourceCode string          `json:"sourceCode"`
	RawPayload json.RawMessage `json:"rawPayload"`
}

// ReindexData is the data of a reindex task
type ReindexData struct {
	Hashes []string `json:"hashes"`
}
