package errs

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSentinelWrapping(t *testing.T) {
	assert.True(t, errors.Is(NotFound("match %s", "m1"), ErrNotFound))
	assert.True(t, errors.Is(Invalid("bad currency"), ErrInvalidRequest))
	assert.True(t, errors.Is(Forbidden("not your property"), ErrForbidden))
	assert.False(t, errors.Is(NotFound("x"), ErrForbidden))

	assert.Equal(t, "match m1: not found", NotFound("match %s", "m1").Error())
}

func TestConflictError(t *testing.T) {
	err := Conflict("Cannot propose viewing", "TENANT_DECLINED", "MATCHED", "VIEWING_REQUESTED")

	assert.True(t, errors.Is(err, ErrConflict))
	assert.Equal(t,
		"Cannot propose viewing. Current status: TENANT_DECLINED. Must be MATCHED or VIEWING_REQUESTED",
		err.Error())

	wrapped := fmt.Errorf("workflow: %w", err)
	var conflict *ConflictError
	require.True(t, errors.As(wrapped, &conflict))
	assert.Equal(t, "TENANT_DECLINED", conflict.Current)
	assert.Equal(t, []string{"MATCHED", "VIEWING_REQUESTED"}, conflict.Expected)
}

func TestConflictError_ReasonOnly(t *testing.T) {
	err := Conflict("A rent proposal is already pending for this match", "")
	assert.Equal(t, "A rent proposal is already pending for this match", err.Error())
}
