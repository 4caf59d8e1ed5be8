// Package sfs implements a simple UNIX-style file system over a fixed-size
// block device. The disk package provides the device emulation, the fs
// package interprets it as a volume.
package sfs

import "fmt"

// Error is a sentinel error identifying a broad failure category. Callers can
// test for a category with errors.Is regardless of how many times the original
// error was annotated.
type Error string

const ErrAlreadyMounted = Error("Device already mounted")
const ErrArgumentOutOfRange = Error("Numerical argument out of domain")
const ErrFileSystemCorrupted = Error("Structure needs cleaning")
const ErrFileTooLarge = Error("File too large")
const ErrInvalidArgument = Error("Invalid argument")
const ErrIOFailed = Error("Input/output error")
const ErrNoFreeInodes = Error("No free inodes")
const ErrNoSpaceOnDevice = Error("No space left on device")
const ErrNotFound = Error("No such file")
const ErrNotMounted = Error("Device not mounted")
const ErrUnexpectedEOF = Error("Unexpected end of file or stream")

func (e Error) Error() string {
	return string(e)
}

// WithMessage returns an error that annotates the sentinel with extra detail.
func (e Error) WithMessage(message string) error {
	return wrappedError{
		message: fmt.Sprintf("%s: %s", e.Error(), message),
		cause:   e,
	}
}

// WrapError returns an error that chains the sentinel on top of `err`. The
// result matches both e and err under errors.Is.
func (e Error) WrapError(err error) error {
	return wrappedError{
		message: fmt.Sprintf("%s: %s", e.Error(), err.Error()),
		cause:   chainedError{sentinel: e, cause: err},
	}
}

type wrappedError struct {
	message string
	cause   error
}

func (e wrappedError) Error() string {
	return e.message
}

func (e wrappedError) Unwrap() error {
	return e.cause
}

// chainedError makes both the sentinel and the original error visible to
// errors.Is and errors.As.
type chainedError struct {
	sentinel Error
	cause    error
}

func (e chainedError) Error() string {
	return e.sentinel.Error()
}

func (e chainedError) Is(target error) bool {
	return target == e.sentinel
}

func (e chainedError) Unwrap() error {
	return e.cause
}
