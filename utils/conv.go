package utils

import "time"

type integer interface {
	~int | ~int32 | ~int64 | ~uint | ~uint32 | ~uint64
}

func Pointer[T any](v T) *T {
	return &v
}

// PointerValue dereferences v, nil yields the zero value
func PointerValue[T any](v *T) T {
	if v == nil {
		return *new(T)
	}
	return *v
}

// Seconds converts a configured number of seconds to a duration
func Seconds[T integer](n T) time.Duration {
	return time.Duration(n) * time.Second
}
