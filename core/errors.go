package core

import (
	"errors"
	"fmt"

	"github.com/snowduck/snowduck/convert"
)

var (
	ErrConnectionBusy       = errors.New("connection is busy: another operation or row iteration is in progress")
	ErrConnectionClosed     = errors.New("connection is closed")
	ErrEmptyRow             = errors.New("could not get first column: row has no columns")
	ErrInvalidSecretName    = func(name string) error { return fmt.Errorf("invalid secret name %q", name) }
	ErrInvalidExtensionName = func(name string) error { return fmt.Errorf("invalid extension name %q", name) }
)

// ErrorKind classifies every failure that crosses the library boundary.
type ErrorKind int

const (
	KindQueryExecution ErrorKind = iota
	KindConfig
	KindEngineOpen
	KindExtensionInstall
	KindSecretRegistration
	KindStatementPrepare
	KindColumnConversion
	KindBusy
	KindClosed
)

func (k ErrorKind) String() string {
	switch k {
	case KindQueryExecution:
		return "query_execution"
	case KindConfig:
		return "config"
	case KindEngineOpen:
		return "engine_open"
	case KindExtensionInstall:
		return "extension_install"
	case KindSecretRegistration:
		return "secret_registration"
	case KindStatementPrepare:
		return "statement_prepare"
	case KindColumnConversion:
		return "column_conversion"
	case KindBusy:
		return "busy"
	case KindClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Error is the single error shape reported by connections.
type Error struct {
	Kind ErrorKind
	// Column is set for column conversion failures.
	Column string
	Err    error
}

func NewError(kind ErrorKind, err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return &Error{Kind: kind, Err: err}
}

// NewColumnError reports a failure to convert the value of a column.
func NewColumnError(column string, err error) *Error {
	return &Error{Kind: KindColumnConversion, Column: column, Err: err}
}

func (e *Error) Error() string {
	if e.Kind == KindColumnConversion {
		return fmt.Sprintf("error converting value of column %s: %s", e.Column, e.Err)
	}
	return e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Translate maps any error to *Error. Errors that already are *Error keep
// their kind.
func Translate(err error) *Error {
	if err == nil {
		return nil
	}

	var e *Error
	if errors.As(err, &e) {
		return e
	}

	switch {
	case errors.Is(err, ErrConnectionBusy):
		return &Error{Kind: KindBusy, Err: err}
	case errors.Is(err, ErrConnectionClosed):
		return &Error{Kind: KindClosed, Err: err}
	case errors.Is(err, convert.ErrDepthExceeded):
		return &Error{Kind: KindColumnConversion, Err: err}
	default:
		return &Error{Kind: KindQueryExecution, Err: err}
	}
}
