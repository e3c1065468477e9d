package service

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	assert.Equal(t, ErrorKind(""), KindOf(nil))
	assert.Equal(t, KindReadOnly, KindOf(newError(KindReadOnly, MsgReadOnlyDate)))
	assert.Equal(t, KindNotStarted, KindOf(fmt.Errorf("wrapped: %w", newError(KindNotStarted, MsgNotStarted))))
	assert.Equal(t, KindTransient, KindOf(errors.New("dial tcp: refused")))
}

func TestError_MessageAndUnwrap(t *testing.T) {
	cause := errors.New("connection reset")
	err := transient(cause)

	assert.Equal(t, MsgTemporaryFailure+": connection reset", err.Error())
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, MsgReadOnlyDate, newError(KindReadOnly, MsgReadOnlyDate).Error())
}
