package logging

import (
	"testing"

	"github.com/peterldowns/testy/assert"
	"github.com/peterldowns/testy/check"
)

func TestNew(t *testing.T) {
	log, flush, err := New(Options{Verbosity: 1})
	assert.NoError(t, err)
	defer flush()

	check.True(t, log.Enabled())
	check.True(t, log.V(1).Enabled())
	check.False(t, log.V(2).Enabled())
}

func TestNew_Development(t *testing.T) {
	log, flush, err := New(Options{Development: true})
	assert.NoError(t, err)
	defer flush()

	check.True(t, log.Enabled())
	check.False(t, log.V(1).Enabled())
}

func TestNew_NegativeVerbosity(t *testing.T) {
	_, _, err := New(Options{Verbosity: -1})
	check.Error(t, err)
}
