package core

import "github.com/pkg/errors"

// FieldError is used to indicate an error with a specific struct field.
type FieldError struct {
	Field string
	Error string
}

type ValidationError struct {
	Err    error
	Fields []FieldError
}

func NewValidationError(err error, flds ...FieldError) error {
	return &ValidationError{err, flds}
}

func (err ValidationError) Error() string {
	if err.Err == nil {
		return ""
	}
	return err.Err.Error()
}

func (err ValidationError) Unwrap() error { return err.Err }

// ConnectivityError means the record store could not be reached or refused our credentials.
type ConnectivityError struct {
	Err error
}

func NewConnectivityError(err error) error {
	if err == nil {
		return nil
	}
	return &ConnectivityError{Err: err}
}

func (err ConnectivityError) Error() string {
	return "record store unavailable: " + err.Err.Error()
}

func (err ConnectivityError) Unwrap() error { return err.Err }

func IsConnectivity(err error) bool {
	var cErr *ConnectivityError
	return errors.As(err, &cErr)
}
