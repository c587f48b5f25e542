// Package common defines sentinel errors shared by the storage, tracker and
// transport layers. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Service-level errors.
	ErrorInternal = errors.New("internal error")
	ErrValidation = errors.New("validation error")

	// Remote mirror errors.
	ErrRemoteUnavailable = errors.New("remote store unavailable")
	ErrUnknownCollection = errors.New("unknown collection")
)
