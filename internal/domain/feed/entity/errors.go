package entity

import "errors"

// Domain errors for the feed
var (
	ErrPostNotFound = errors.New("post not found")
	ErrEmptyPost    = errors.New("post text cannot be empty")
	ErrPostTooLong  = errors.New("post exceeds maximum length")
)
