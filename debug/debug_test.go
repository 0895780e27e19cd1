package debug

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAssert(t *testing.T) {
	assert.NotPanics(t, func() { Assert(true, "unused") })

	defer func() {
		msg, ok := recover().(string)
		require.True(t, ok, "assertion failures panic with a string")
		assert.Contains(t, msg, "precondition violation: op 3 out of range")
	}()
	Assert(false, "op %d out of range", 3)
}

func TestStack(t *testing.T) {
	s := Stack()
	assert.Contains(t, s, "debug.TestStack")
	assert.Contains(t, s, "debug_test.go")
}
