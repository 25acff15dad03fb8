package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrStoreUnavailable indicates the document store could not be read or written.
	ErrStoreUnavailable = errors.New("document store unavailable")

	// ErrEmbeddingFailure indicates the embedding provider failed or returned
	// a malformed vector.
	ErrEmbeddingFailure = errors.New("embedding failure")

	// ErrDimensionMismatch indicates vectors from different embedding models
	// were compared.
	ErrDimensionMismatch = errors.New("dimension mismatch")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")
)

// DimensionMismatchError reports the two lengths that disagreed.
type DimensionMismatchError struct {
	Expected int
	Got      int
	ChunkID  string
}

func (e *DimensionMismatchError) Error() string {
	msg := fmt.Sprintf("dimension mismatch: expected %d, got %d", e.Expected, e.Got)
	if e.ChunkID != "" {
		msg += " (chunk " + e.ChunkID + ")"
	}
	return msg
}

func (e *DimensionMismatchError) Is(target error) bool {
	return target == ErrDimensionMismatch
}
