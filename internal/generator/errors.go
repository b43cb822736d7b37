package generator

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyDataset means a collection the generator samples from has no rows.
	ErrEmptyDataset = errors.New("empty dataset")
	// ErrInsufficientDataset means a collection has rows, but fewer than the
	// chosen branch needs.
	ErrInsufficientDataset = errors.New("insufficient dataset")
	// ErrConnection wraps failures reading from the store.
	ErrConnection = errors.New("store unreachable")
	// ErrWrite wraps insert or commit failures that survived every attempt.
	ErrWrite = errors.New("face log write failed")
)

// DatasetError reports a collection that is too small to sample from.
type DatasetError struct {
	Collection string
	Size       int
	Required   int
}

func (e *DatasetError) Error() string {
	return fmt.Sprintf("%s: %s has %d rows, need at least %d", e.Unwrap(), e.Collection, e.Size, e.Required)
}

func (e *DatasetError) Unwrap() error {
	if e.Size == 0 {
		return ErrEmptyDataset
	}
	return ErrInsufficientDataset
}

// errorKind labels an error for metrics.
func errorKind(err error) string {
	switch {
	case errors.Is(err, ErrEmptyDataset):
		return "empty_dataset"
	case errors.Is(err, ErrInsufficientDataset):
		return "insufficient_dataset"
	case errors.Is(err, ErrConnection):
		return "connection"
	case errors.Is(err, ErrWrite):
		return "write"
	default:
		return "other"
	}
}
