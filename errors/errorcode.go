// Package errors maps failures at the command line boundary to process exit codes.
package errors

import stderrors "errors"

const (
	// ExitOK is returned when every operation succeeded.
	ExitOK = 0
	// ExitUsage is returned on a wrong argument count or bad flags.
	ExitUsage = 1
	// ExitIO is returned when an input file cannot be opened or read.
	ExitIO = 2
	// ExitMismatch is returned when a file no longer matches its recorded digest.
	ExitMismatch = 3
	// ExitFailure is returned for anything else.
	ExitFailure = 4
)

// CodedError attaches an exit code to an error.
type CodedError struct {
	Code int
	Err  error
}

func (e *CodedError) Error() string {
	return e.Err.Error()
}

func (e *CodedError) Cause() error {
	return e.Err
}

func (e *CodedError) Unwrap() error {
	return e.Err
}

// WithCode attaches code to err, nil stays nil.
func WithCode(code int, err error) error {
	if err == nil {
		return nil
	}
	return &CodedError{Code: code, Err: err}
}

// Usage marks err as a usage error.
func Usage(err error) error {
	return WithCode(ExitUsage, err)
}

// IO marks err as an input acquisition error.
func IO(err error) error {
	return WithCode(ExitIO, err)
}

// Mismatch marks err as a digest verification failure.
func Mismatch(err error) error {
	return WithCode(ExitMismatch, err)
}

// ExitCode resolves the exit code of err through any wrapping.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	var coded *CodedError
	if stderrors.As(err, &coded) {
		return coded.Code
	}
	return ExitFailure
}
