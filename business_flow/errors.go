// Package businessflow contains the use cases of the operator ranking service
package businessflow

import (
	"errors"
	"fmt"
)

// Business flow error constants
var (
	// Admin-related errors
	ErrAdminNotFound     = errors.New("admin not found")
	ErrAdminInactive     = errors.New("admin is inactive")
	ErrIncorrectPassword = errors.New("incorrect password")
	ErrInvalidToken      = errors.New("invalid token")

	// Ranking errors
	ErrOperatorNotFound = errors.New("operator not found")
	ErrInvalidPeriod    = errors.New("invalid period")

	// Upload errors
	ErrUnsupportedFile   = errors.New("unsupported file type")
	ErrFileTooLarge      = errors.New("file is too large")
	ErrEmptyFile         = errors.New("file has no rows")
	ErrMissingColumn     = errors.New("required column missing")
	ErrInvalidUploadMode = errors.New("upload mode must be preview or commit")

	// Infrastructure errors
	ErrCacheNotAvailable = errors.New("cache not available")
	ErrStoreNotAvailable = errors.New("record store not available")
)

type BusinessError struct {
	Code    string
	Message string
	Err     error
}

func (e *BusinessError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *BusinessError) Unwrap() error {
	return e.Err
}

func NewBusinessError(code, message string, err error) *BusinessError {
	return &BusinessError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

func NewBusinessErrorf(code, message string, err error, args ...any) *BusinessError {
	return &BusinessError{
		Code:    code,
		Message: fmt.Sprintf(message, args...),
		Err:     err,
	}
}

// BusinessErrorCode returns the code of the outermost BusinessError in err's chain, or "".
func BusinessErrorCode(err error) string {
	var be *BusinessError
	if errors.As(err, &be) {
		return be.Code
	}
	return ""
}

func IsAdminNotFound(err error) bool {
	return errors.Is(err, ErrAdminNotFound)
}

func IsAdminInactive(err error) bool {
	return errors.Is(err, ErrAdminInactive)
}

func IsIncorrectPassword(err error) bool {
	return errors.Is(err, ErrIncorrectPassword)
}

func IsInvalidToken(err error) bool {
	return errors.Is(err, ErrInvalidToken)
}

func IsOperatorNotFound(err error) bool {
	return errors.Is(err, ErrOperatorNotFound)
}

func IsInvalidPeriod(err error) bool {
	return errors.Is(err, ErrInvalidPeriod)
}

func IsUnsupportedFile(err error) bool {
	return errors.Is(err, ErrUnsupportedFile)
}

func IsFileTooLarge(err error) bool {
	return errors.Is(err, ErrFileTooLarge)
}

func IsEmptyFile(err error) bool {
	return errors.Is(err, ErrEmptyFile)
}

func IsMissingColumn(err error) bool {
	return errors.Is(err, ErrMissingColumn)
}

func IsInvalidUploadMode(err error) bool {
	return errors.Is(err, ErrInvalidUploadMode)
}

func IsCacheNotAvailable(err error) bool {
	return errors.Is(err, ErrCacheNotAvailable)
}

func IsStoreNotAvailable(err error) bool {
	return errors.Is(err, ErrStoreNotAvailable)
}
