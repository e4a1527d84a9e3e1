package domain

import "errors"

// ErrSessionNotFound is returned when a session ID cannot be found in the store.
var ErrSessionNotFound = errors.New("session not found")

// ErrSessionClosed is returned when an operation targets a form that was already closed.
var ErrSessionClosed = errors.New("session closed")

// ErrOptionsNotFound is returned when no display options are stored under a key.
var ErrOptionsNotFound = errors.New("display options not found")

// ErrInvalidPayload is returned when a server payload or response cannot be decoded.
var ErrInvalidPayload = errors.New("invalid payload")

// ErrUnknownNodeType is returned when a descriptor carries a type tag the runtime does not know.
var ErrUnknownNodeType = errors.New("unknown node type")

// ErrQuestionNotFound is returned when an answer targets an index that is not a question.
var ErrQuestionNotFound = errors.New("question not found")
