package repository

import "errors"

// ErrNotFound is returned when a record that must exist is absent.
// Callers distinguish it from store failures with errors.Is.
var ErrNotFound = errors.New("record not found")
