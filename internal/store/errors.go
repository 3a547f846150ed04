package store

import (
	"errors"

	"github.com/dotcommander/playbook/internal/models"
)

// RecoverableError is an alias for models.RecoverableError.
type RecoverableError = models.RecoverableError

// ErrNotFound is matched by NotFoundError via errors.Is.
var ErrNotFound = errors.New("row not found")

// NotFoundError reports an id that does not exist for the owning user.
type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string     { return e.Entity + " not found: " + e.ID }
func (e *NotFoundError) ErrorCode() string { return "NOT_FOUND" }
func (e *NotFoundError) Context() map[string]string {
	return map[string]string{
		"entity": e.Entity,
		"id":     e.ID,
	}
}
func (e *NotFoundError) SuggestedAction() string {
	return "reload with `playbook status` and retry with a current id"
}
func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// ErrDuplicateID is matched by DuplicateIDError via errors.Is.
var ErrDuplicateID = errors.New("duplicate id")

// DuplicateIDError reports a caller-supplied id that is already taken.
type DuplicateIDError struct {
	Entity string
	ID     string
}

func (e *DuplicateIDError) Error() string     { return e.Entity + " id already exists: " + e.ID }
func (e *DuplicateIDError) ErrorCode() string { return "DUPLICATE_ID" }
func (e *DuplicateIDError) Context() map[string]string {
	return map[string]string{
		"entity": e.Entity,
		"id":     e.ID,
	}
}
func (e *DuplicateIDError) SuggestedAction() string { return "retry without an explicit id" }
func (e *DuplicateIDError) Is(target error) bool    { return target == ErrDuplicateID }
