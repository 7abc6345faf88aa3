// Package search finds literal byte patterns in captured memory.
package search

import (
	"bytes"
	"errors"
)

var (
	// ErrNotFound is returned when the pattern does not occur in the data
	ErrNotFound = errors.New("pattern not found")

	// ErrEmptyPattern is returned for a zero-length pattern
	ErrEmptyPattern = errors.New("empty pattern")
)

// Find returns the offset of the first occurrence of pattern in data.
// Matching is exact and byte-for-byte; no byte has a special meaning.
func Find(data, pattern []byte) (int, error) {
	if len(pattern) == 0 {
		return 0, ErrEmptyPattern
	}
	index := bytes.Index(data, pattern)
	if index == -1 {
		return 0, ErrNotFound
	}
	return index, nil
}

// FindAll returns the offsets of every non-overlapping occurrence of pattern in data,
// in ascending order.
func FindAll(data, pattern []byte) ([]int, error) {
	if len(pattern) == 0 {
		return nil, ErrEmptyPattern
	}

	var matches []int
	offset := 0
	for offset <= len(data)-len(pattern) {
		index := bytes.Index(data[offset:], pattern)
		if index == -1 {
			break
		}
		matches = append(matches, offset+index)
		offset += index + len(pattern)
	}
	return matches, nil
}
