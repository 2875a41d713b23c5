// Package feed reads upstream event feeds and splits them into raw payloads
package feed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/eventatlas/eventatlas/config/modules"
	"github.com/tidwall/gjson"
	"gopkg.in/yaml.v3"
)

var ErrUnsupportedFormat = errors.New("unsupported feed format")

// Loader fetches a feed document by location
type Loader interface {
	Load(ctx context.Context, location string) ([]json.RawMessage, error)
}

// Open returns the loader for location, s3:// URIs are read from S3 and
// everything else from the local filesystem
func Open(ctx context.Context, location string, cfg modules.FeedConfig) (Loader, error) {
	if strings.HasPrefix(location, "s3://") {
		return NewS3Loader(ctx, cfg.S3)
	}
	return &FileLoader{}, nil
}

// Decode splits a feed document into payloads, the format is chosen by extension
func Decode(name string, data []byte) ([]json.RawMessage, error) {
	switch strings.ToLower(path.Ext(name)) {
	case ".json", "":
		return Split(data)
	case ".jsonl", ".ndjson":
		return SplitLines(data)
	case ".yaml", ".yml":
		var v interface{}
		if err := yaml.Unmarshal(data, &v); err != nil {
			return nil, fmt.Errorf("invalid yaml: %w", err)
		}
		b, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		return Split(b)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, name)
	}
}

// Split accepts a single payload, an array of payloads, or an object with an "events" array
func Split(data []byte) ([]json.RawMessage, error) {
	if !gjson.ValidBytes(data) {
		return nil, errors.New("invalid json")
	}
	doc := gjson.ParseBytes(data)
	if doc.IsObject() {
		if events := doc.Get("events"); events.IsArray() {
			doc = events
		}
	}

	switch {
	case doc.IsArray():
		payloads := make([]json.RawMessage, 0)
		for _, item := range doc.Array() {
			payloads = append(payloads, json.RawMessage(item.Raw))
		}
		return payloads, nil
	case doc.IsObject():
		return []json.RawMessage{json.RawMessage(doc.Raw)}, nil
	default:
		return nil, fmt.Errorf("feed must be an object or an array, got %s", doc.Type)
	}
}

// SplitLines reads one payload per non-blank line
func SplitLines(data []byte) ([]json.RawMessage, error) {
	payloads := make([]json.RawMessage, 0)
	for i, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if !gjson.Valid(line) {
			return nil, fmt.Errorf("invalid json on line %d", i+1)
		}
		payloads = append(payloads, json.RawMessage(line))
	}
	return payloads, nil
}
