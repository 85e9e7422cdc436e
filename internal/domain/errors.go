package domain

import "errors"

// Domain errors
var (
	ErrServerNotFound   = errors.New("server not found")
	ErrPlayerNotFound   = errors.New("player not found")
	ErrInvalidSettings  = errors.New("invalid tracker settings")
	ErrUnknownMessage   = errors.New("unknown message type")
	ErrInvalidPayload   = errors.New("invalid message payload")
	ErrSessionClosed    = errors.New("session closed")
	ErrUnauthorizedHost = errors.New("host token rejected")
)
