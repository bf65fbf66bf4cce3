package srderr

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOKOrErr(t *testing.T) {
	assert.NoError(t, OK.OKOrErr())
	assert.Error(t, BadArgument.OKOrErr())
}

func TestErrorIsComparable(t *testing.T) {
	var err error = BadArgument
	assert.True(t, errors.Is(err, BadArgument))
	assert.False(t, errors.Is(err, InternalBug))
}

func TestErrorStrings(t *testing.T) {
	assert.NotEmpty(t, Generic.Error())
	assert.NotEmpty(t, TerminationRequested.Error())
	assert.Equal(t, "no error", OK.Error())
}
