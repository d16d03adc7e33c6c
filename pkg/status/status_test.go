package status

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestZeroValueCellIsOk(t *testing.T) {
	var c Cell
	require.Equal(t, Ok, c.Get().Level)
}

func TestSetDegradedThenOk(t *testing.T) {
	var c Cell
	c.SetDegraded("virtual pad update failed")
	s := c.Get()
	require.Equal(t, Degraded, s.Level)
	require.Equal(t, "virtual pad update failed", s.Reason)

	c.SetOk()
	require.Equal(t, Ok, c.Get().Level)
}

func TestSetFatal(t *testing.T) {
	var c Cell
	c.SetFatal("bus not found")
	s := c.Get()
	require.Equal(t, Fatal, s.Level)
	require.Equal(t, "bus not found", s.Reason)
}
