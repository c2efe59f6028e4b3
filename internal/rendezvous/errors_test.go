package rendezvous

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorMatching(t *testing.T) {
	base := errors.New("connection refused")
	err := fmt.Errorf("begin: %w", ipcError("connect", base))

	assert.ErrorIs(t, err, ErrIPC)
	assert.NotErrorIs(t, err, ErrIO)
	assert.NotErrorIs(t, err, ErrConfig)
	assert.ErrorIs(t, err, base)
	assert.Equal(t, "begin: ipc error in connect: connection refused", err.Error())
}

func TestErrorWithoutCause(t *testing.T) {
	err := &Error{Kind: KindIO, Op: "write"}
	assert.Equal(t, "io error in write", err.Error())
	assert.ErrorIs(t, err, ErrIO)
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "config error", KindConfig.String())
	assert.Equal(t, "kind(9)", Kind(9).String())
}
