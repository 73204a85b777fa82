package service

import "errors"

// Sentinel errors shared by the session and config packages, so transports
// can map them without importing the storage layers.
var (
	ErrSessionNotFound      = errors.New("session not found")
	ErrSessionAlreadyExists = errors.New("session already exists")
	ErrConfigNotFound       = errors.New("configuration not found")
	ErrInvalidConfig        = errors.New("invalid configuration")
	ErrInvalidRequest       = errors.New("invalid request")
)
