package common

import (
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWrapKeepsKindAndCause(t *testing.T) {
	err := Wrap(ErrIOFailure, io.ErrUnexpectedEOF)
	assert.ErrorIs(t, err, ErrIOFailure)
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
	assert.False(t, errors.Is(err, ErrNotFound))

	assert.Equal(t, ErrNotFound, Wrap(ErrNotFound, nil))
}

func TestFormatBytes(t *testing.T) {
	assert.Equal(t, "512.00B", FormatBytes(512))
	assert.Equal(t, "1.50KB", FormatBytes(1536))
	assert.Equal(t, "2.00GB", FormatBytes(2<<30))
}
