package entity

import "errors"

// Domain errors for threads and messages
var (
	ErrThreadNotFound  = errors.New("thread not found")
	ErrMessageNotFound = errors.New("message not found")
	ErrEmptyMessage    = errors.New("message text cannot be empty")
	ErrMessageTooLong  = errors.New("message exceeds maximum length")
	ErrThreadLocked    = errors.New("thread persona is locked")
	ErrMediaRequired   = errors.New("media is required for this message kind")
)
