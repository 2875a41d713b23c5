package utils

import (
	uuid "github.com/satori/go.uuid"
	"github.com/segmentio/ksuid"
)

// UUID returns a random version 4 UUID, used for request ids
func UUID() string {
	return uuid.NewV4().String()
}

func IsValidUUID(id string) bool {
	_, err := uuid.FromString(id)
	return err == nil
}

// KSUID returns a k-sortable unique id, used for task ids
func KSUID() string {
	return ksuid.New().String()
}
