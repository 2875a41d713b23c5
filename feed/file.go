package feed

import (
	"context"
	"encoding/json"
	"os"
)

type FileLoader struct{}

func (l *FileLoader) Load(ctx context.Context, location string) ([]json.RawMessage, error) {
	data, err := os.ReadFile(location)
	if err != nil {
		return nil, err
	}
	return Decode(location, data)
}
