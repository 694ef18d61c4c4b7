package rag

import "errors"

var (
	// ErrInference indicates an embedding or chat completion call failed.
	// Callers surface it without retry.
	ErrInference = errors.New("inference backend call failed")

	// ErrBackend indicates an optional search capability is unavailable.
	// Recovered internally by falling back to a reduced search path.
	ErrBackend = errors.New("backend capability unavailable")
)
