package errors

import (
	"errors"
	"fmt"
)

// Standard sentinel errors for type checking
var (
	ErrNotFound               = errors.New("not found")
	ErrAlreadyExists          = errors.New("already exists")
	ErrInvalidInput           = errors.New("invalid input")
	ErrPersistenceUnavailable = errors.New("persistence unavailable")
	ErrMalformedSnapshot      = errors.New("malformed snapshot")
	ErrInvalidDropTarget      = errors.New("invalid drop target")
	ErrNotInitialized         = errors.New("not initialized")
)

// NotFoundError indicates a resource doesn't exist.
type NotFoundError struct {
	Resource string // "list", "item"
	ID       string // The identifier that wasn't found
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

func (e *NotFoundError) Unwrap() error {
	return ErrNotFound
}

// AlreadyExistsError indicates a resource already exists.
type AlreadyExistsError struct {
	Resource string
	ID       string
}

func (e *AlreadyExistsError) Error() string {
	return fmt.Sprintf("%s already exists: %s", e.Resource, e.ID)
}

func (e *AlreadyExistsError) Unwrap() error {
	return ErrAlreadyExists
}

// ValidationError indicates invalid user input.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
	}
	return e.Message
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidInput
}

// NotInitializedError indicates there's no taskboard config to work with.
type NotInitializedError struct {
	Path string
}

func (e *NotInitializedError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("taskboard not initialized in %s (run 'taskboard init')", e.Path)
	}
	return "taskboard not initialized (run 'taskboard init')"
}

func (e *NotInitializedError) Unwrap() error {
	return ErrNotInitialized
}

// PersistenceError indicates the storage collaborator failed to read or write.
// The in-memory board stays authoritative when this happens.
type PersistenceError struct {
	Op  string // "get" or "set"
	Key string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence %s %q failed: %v", e.Op, e.Key, e.Err)
}

func (e *PersistenceError) Unwrap() []error {
	return []error{ErrPersistenceUnavailable, e.Err}
}

// MalformedSnapshotError indicates a stored board value could not be parsed.
type MalformedSnapshotError struct {
	Reason string
	Err    error
}

func (e *MalformedSnapshotError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("malformed snapshot: %s: %v", e.Reason, e.Err)
	}
	return "malformed snapshot: " + e.Reason
}

func (e *MalformedSnapshotError) Unwrap() error {
	return ErrMalformedSnapshot
}

// InvalidDropTargetError indicates a drop that cannot be turned into a move.
type InvalidDropTargetError struct {
	Reason string
}

func (e *InvalidDropTargetError) Error() string {
	return "invalid drop target: " + e.Reason
}

func (e *InvalidDropTargetError) Unwrap() error {
	return ErrInvalidDropTarget
}

// Helper constructors for common cases

func ListNotFound(name string) error {
	return &NotFoundError{Resource: "list", ID: name}
}

func ItemNotFound(idOrTitle string) error {
	return &NotFoundError{Resource: "item", ID: idOrTitle}
}

func ListAlreadyExists(name string) error {
	return &AlreadyExistsError{Resource: "list", ID: name}
}

func ItemAlreadyExists(id string) error {
	return &AlreadyExistsError{Resource: "item", ID: id}
}

func InvalidField(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

func IndexOutOfRange(field string, index, max int) error {
	return &ValidationError{
		Field:   field,
		Message: fmt.Sprintf("index %d out of range [0, %d]", index, max),
	}
}

func MalformedSnapshot(reason string, err error) error {
	return &MalformedSnapshotError{Reason: reason, Err: err}
}

func InvalidDropTarget(reason string) error {
	return &InvalidDropTargetError{Reason: reason}
}

// IsNotFound checks if an error is a not-found error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsAlreadyExists checks if an error is an already-exists error.
func IsAlreadyExists(err error) bool {
	return errors.Is(err, ErrAlreadyExists)
}

// IsValidationError checks if an error is a validation error.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}

// IsPersistenceUnavailable checks if the storage collaborator failed.
func IsPersistenceUnavailable(err error) bool {
	return errors.Is(err, ErrPersistenceUnavailable)
}

// IsMalformedSnapshot checks if a stored snapshot failed to parse.
func IsMalformedSnapshot(err error) bool {
	return errors.Is(err, ErrMalformedSnapshot)
}

// IsInvalidDropTarget checks if a drop was rejected.
func IsInvalidDropTarget(err error) bool {
	return errors.Is(err, ErrInvalidDropTarget)
}
