package errors

import (
	stderrors "errors"
	"fmt"
)

type Kind string

const (
	InvalidConfig Kind = "invalid_config"
	PathContract  Kind = "path_contract"
	LinkFailure   Kind = "link_failure"
	CopyFailure   Kind = "copy_failure"
	NotFound      Kind = "not_found"
	IOFailure     Kind = "io_failure"
	Locked        Kind = "locked"
	Internal      Kind = "internal"
)

type AppError struct {
	Kind   Kind
	Op     string
	Path   string
	Source string
	Err    error
}

func (e *AppError) Error() string {
	switch {
	case e.Source != "" && e.Path != "":
		return fmt.Sprintf("%s: %s -> %s: %v", e.Op, e.Source, e.Path, e.Err)
	case e.Path != "":
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Path, e.Err)
	default:
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func Wrap(kind Kind, op, path string, err error) error {
	if err == nil {
		return nil
	}
	return &AppError{
		Kind: kind,
		Op:   op,
		Path: path,
		Err:  err,
	}
}

// WrapPair wraps an error that concerns a (source, target) pair.
func WrapPair(kind Kind, op, source, target string, err error) error {
	if err == nil {
		return nil
	}
	return &AppError{
		Kind:   kind,
		Op:     op,
		Path:   target,
		Source: source,
		Err:    err,
	}
}

// KindOf returns the kind of the outermost AppError in err's chain, or
// Internal when there is none.
func KindOf(err error) Kind {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Kind
	}
	return Internal
}

func UserMessage(err error) string {
	var appErr *AppError
	if !stderrors.As(err, &appErr) {
		return err.Error()
	}
	switch appErr.Kind {
	case InvalidConfig:
		return fmt.Sprintf("Invalid configuration: %v", appErr.Err)
	case PathContract:
		return fmt.Sprintf("Path outside of the mirrored root: %s", appErr.Path)
	case LinkFailure:
		return fmt.Sprintf("Link failed: %s -> %s: %v", appErr.Path, appErr.Source, appErr.Err)
	case CopyFailure:
		return fmt.Sprintf("Copy failed: %s: %v", appErr.Path, appErr.Err)
	case NotFound:
		return fmt.Sprintf("Path not found: %s", appErr.Path)
	case IOFailure:
		return fmt.Sprintf("I/O error: %s", appErr.Path)
	case Locked:
		return fmt.Sprintf("Another mirroring pass holds the lock: %s", appErr.Path)
	default:
		return fmt.Sprintf("Unexpected error: %v", appErr.Err)
	}
}
