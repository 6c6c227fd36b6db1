package service

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/Leganyst/easycars/internal/repository"
)

// Error kinds. Callers match with errors.Is; the transport maps each kind
// to a status code.
var (
	ErrNotFound           = errors.New("not found")
	ErrInvalidState       = errors.New("invalid state")
	ErrInvalidInput       = errors.New("invalid input")
	ErrForbidden          = errors.New("forbidden")
	ErrUnauthenticated    = errors.New("unauthenticated")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrConflict           = errors.New("conflict")
)

// Error is a classified failure whose message is safe to show to clients.
type Error struct {
	Kind error
	Msg  string
}

func (e *Error) Error() string { return e.Msg }
func (e *Error) Unwrap() error { return e.Kind }

func fail(kind error, format string, args ...any) error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// lookupErr classifies a repository read failure for what.
func lookupErr(what string, err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fail(ErrNotFound, "%s not found", what)
	}
	return fmt.Errorf("load %s: %w", what, err)
}

// writeErr classifies a repository write failure.
func writeErr(op string, err error) error {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return fail(ErrNotFound, "%s: record not found", op)
	case errors.Is(err, repository.ErrDuplicate):
		return fail(ErrConflict, "%s: already exists", op)
	}
	return fmt.Errorf("%s: %w", op, err)
}
