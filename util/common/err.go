package common

import (
	"errors"
	"fmt"

	"github.com/hospital-ui/hospital-ui/logger"
)

// Error kinds shared by every service. Wrap a cause with Wrap and test the
// kind with errors.Is.
var (
	ErrNotFound         = errors.New("not found")
	ErrBadCredential    = errors.New("bad credential")
	ErrCryptoFailure    = errors.New("crypto failure")
	ErrStoreUnavailable = errors.New("store unavailable")
	ErrIOFailure        = errors.New("io failure")
)

// Wrap attaches kind to cause. A nil cause yields kind itself.
func Wrap(kind error, cause error) error {
	if cause == nil {
		return kind
	}
	return fmt.Errorf("%w: %w", kind, cause)
}

func NewErrorf(format string, a ...any) error {
	msg := fmt.Sprintf(format, a...)
	return errors.New(msg)
}

func NewError(a ...any) error {
	msg := fmt.Sprintln(a...)
	return errors.New(msg)
}

func Recover(msg string) any {
	panicErr := recover()
	if panicErr != nil {
		if msg != "" {
			logger.Error(msg, "panic:", panicErr)
		}
	}
	return panicErr
}
