package common

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// AppError represents application-specific errors
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Common application errors
var (
	ErrDatabase     = errors.New("database error")
	ErrValidation   = errors.New("validation failed")
	ErrNoRoots      = errors.New("no usable roots configured")
)

// Gate and conversion error kinds. Every typed error below matches exactly one of
// these through errors.Is.
var (
	ErrInvalidPath       = errors.New("invalid path")
	ErrAccessDenied      = errors.New("access denied")
	ErrUnsupportedFormat = errors.New("unsupported format")
	ErrExtraction        = errors.New("extraction failed")
	ErrWrite             = errors.New("write failed")
)

// Error constructors
func NewAppError(code, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// InvalidPathError: the input could not be turned into a usable absolute path.
type InvalidPathError struct {
	Input  string
	Reason string
	Cause  error
}

func (e *InvalidPathError) Error() string {
	msg := fmt.Sprintf("invalid path %q: %s", e.Input, e.Reason)
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *InvalidPathError) Unwrap() error        { return e.Cause }
func (e *InvalidPathError) Is(target error) bool { return target == ErrInvalidPath }

// AccessDeniedError: the resolved path is outside every allowed root. The
// message always lists the roots so the caller can correct the request.
type AccessDeniedError struct {
	Path  string
	Roots []string
}

func (e *AccessDeniedError) Error() string {
	return fmt.Sprintf("access denied: %s is outside the allowed roots [%s]", e.Path, strings.Join(e.Roots, ", "))
}

func (e *AccessDeniedError) Is(target error) bool { return target == ErrAccessDenied }

// UnsupportedFormatError covers both unknown input extensions and unknown output formats.
type UnsupportedFormatError struct {
	Value     string
	What      string // "extension" | "output format"
	Supported []string
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("unsupported %s %q (supported: %s)", e.What, e.Value, strings.Join(e.Supported, ", "))
}

func (e *UnsupportedFormatError) Is(target error) bool { return target == ErrUnsupportedFormat }

// ExtractionError: a backend could not read or decode the document.
type ExtractionError struct {
	Path    string
	Backend string
	Cause   error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("%s extraction of %s failed: %v", e.Backend, e.Path, e.Cause)
}

func (e *ExtractionError) Unwrap() error        { return e.Cause }
func (e *ExtractionError) Is(target error) bool { return target == ErrExtraction }

// WriteError: the destination could not be written. The conversion result is
// still returned alongside it.
type WriteError struct {
	Path  string
	Cause error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("write %s: %v", e.Path, e.Cause)
}

func (e *WriteError) Unwrap() error        { return e.Cause }
func (e *WriteError) Is(target error) bool { return target == ErrWrite }

// ToStatus maps an error from the gate or the pipeline onto a gRPC status error.
func ToStatus(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	case errors.Is(err, ErrInvalidPath), errors.Is(err, ErrUnsupportedFormat):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, ErrAccessDenied):
		return status.Error(codes.PermissionDenied, err.Error())
	case errors.Is(err, ErrNoRoots):
		return status.Error(codes.FailedPrecondition, err.Error())
	case errors.Is(err, ErrExtraction):
		return status.Error(codes.DataLoss, err.Error())
	case errors.Is(err, ErrWrite):
		return status.Error(codes.Unavailable, err.Error())
	default:
		return status.Error(codes.Internal, err.Error())
	}
}

// gRPC error helpers
func InvalidArgumentError(message string) error {
	return status.Error(codes.InvalidArgument, message)
}

func InternalError(message string) error {
	return status.Error(codes.Internal, message)
}
