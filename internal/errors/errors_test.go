package errors

import (
	stderrors "errors"
	"testing"

	"trialstat/domain/core"

	"github.com/stretchr/testify/assert"
)

func TestWrap_DerivesCodeFromDomainSentinels(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code string
	}{
		{"cell error", core.NewCellError(2, "age", "x", nil), CodeInvalidInput},
		{"missing column", core.NewMissingColumnError("trx"), CodeInvalidInput},
		{"degenerate", core.NewDegenerateError("z-test", "zero totals"), CodeDomainError},
		{"app error", ConfigInvalid("bad alpha"), CodeConfigInvalid},
		{"plain", stderrors.New("boom"), "UNKNOWN"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wrapped := Wrap(tt.err, "load failed")
			assert.Equal(t, tt.code, GetCode(wrapped))
			assert.True(t, stderrors.Is(wrapped, tt.err), "wrapped error should unwrap to its cause")
		})
	}
}

func TestWrap_Nil(t *testing.T) {
	assert.Nil(t, Wrap(nil, "nothing"))
	assert.Nil(t, Wrapf(nil, "nothing %d", 1))
	assert.Nil(t, WithCode(CodeIOError, nil))
}

func TestWithCode(t *testing.T) {
	err := WithCode(CodeIOError, stderrors.New("disk full"))
	assert.Equal(t, CodeIOError, GetCode(err))
	assert.True(t, IsAppError(err))
	assert.Equal(t, "disk full: disk full", err.Error())

	recoded := WithCode(CodeInternalError, InvalidInput("bad row"))
	assert.Equal(t, CodeInternalError, GetCode(recoded))
	assert.Equal(t, "bad row", recoded.Error())
}
