package errors

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrPipelineUsed = errors.New("pipeline already run")
	ErrExportFailed = errors.New("export failed")
	ErrUnavailable  = errors.New("backend unavailable")
	ErrInternal     = errors.New("internal error")
)

// Exit codes reported by the CLI.
const (
	ExitOK       = 0
	ExitConfig   = 2
	ExitExport   = 3
	ExitInternal = 1
)

type AppError struct {
	Err     error
	Message string
	Code    int
}

func (e *AppError) Error() string {
	return fmt.Sprintf("%s: %s", e.Err.Error(), e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func New(sentinel error, code int, message string) *AppError {
	return &AppError{
		Err:     sentinel,
		Message: message,
		Code:    code,
	}
}

func Newf(sentinel error, code int, format string, args ...any) *AppError {
	return &AppError{
		Err:     sentinel,
		Message: fmt.Sprintf(format, args...),
		Code:    code,
	}
}

// ExitCode maps an error to the process exit status.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}

	switch {
	case errors.Is(err, ErrInvalidInput):
		return ExitConfig
	case errors.Is(err, ErrExportFailed), errors.Is(err, ErrUnavailable):
		return ExitExport
	default:
		return ExitInternal
	}
}
