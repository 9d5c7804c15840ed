package repository

import "errors"

// ErrNotFound is returned when a document or record does not exist. Typed
// repositories also return it for documents whose payload cannot be decoded
// into the expected shape (e.g. a profile missing its role discriminant).
var ErrNotFound = errors.New("not found")
