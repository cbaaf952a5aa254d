package model

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates a link or category was not found.
	ErrNotFound = errors.New("not found")

	// ErrMissingTitle is returned when a link is added without a title.
	ErrMissingTitle = errors.New("please enter title for webpage")

	// ErrInvalidLink is returned when the link is empty, malformed, or cannot be opened.
	ErrInvalidLink = errors.New("please enter link for webpage")

	// ErrNoCategory is returned when a link is added while no category is selected.
	ErrNoCategory = errors.New("no category selected")

	// ErrDuplicateCategory indicates a category with the same name already exists.
	ErrDuplicateCategory = errors.New("duplicate category")

	// ErrInvalidCategory indicates an empty category name.
	ErrInvalidCategory = errors.New("category name is required")
)

// ValidationError rejects user input before any state changes.
type ValidationError struct {
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %v", e.Field, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// StoreError reports a failed fetch or save against the persistent store.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }
