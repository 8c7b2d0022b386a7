package random

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSeq(t *testing.T) {
	a := Seq(32)
	assert.Len(t, a, 32)
	assert.Regexp(t, `^[0-9a-zA-Z]{32}$`, a)
	assert.NotEqual(t, a, Seq(32))
	assert.Empty(t, Seq(0))
}
