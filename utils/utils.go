package utils

import (
	"slices"
	"strings"
)

// DefaultIfZero returns fallback when v is the zero value of its type
func DefaultIfZero[T comparable](v T, fallback T) T {
	var zero T
	if v == zero {
		return fallback
	}
	return v
}

// NormalizeSet trims, lowercases, de-duplicates and sorts values.
// The result is never nil.
func NormalizeSet(values []string) []string {
	set := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.ToLower(strings.TrimSpace(v))
		if v == "" {
			continue
		}
		set = append(set, v)
	}
	slices.Sort(set)
	return slices.Compact(set)
}

// SplitCSV flattens values that may contain comma separated items
func SplitCSV(values []string) []string {
	list := make([]string, 0, len(values))
	for _, v := range values {
		for _, item := range strings.Split(v, ",") {
			if item = strings.TrimSpace(item); item != "" {
				list = append(list, item)
			}
		}
	}
	return list
}
