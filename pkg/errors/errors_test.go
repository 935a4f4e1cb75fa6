package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorFormatting(t *testing.T) {
	err := New(ErrFileRead, "cannot read file")
	assert.Equal(t, "[FILE_READ] cannot read file", err.Error())

	wrapped := Wrap(stderrors.New("permission denied"), ErrFileRead, "cannot read file")
	assert.Equal(t, "[FILE_READ] cannot read file: permission denied", wrapped.Error())
}

func TestWrapNilReturnsNil(t *testing.T) {
	assert.Nil(t, Wrap(nil, ErrUnknown, "x"))
	assert.Nil(t, Wrapf(nil, ErrUnknown, "x %d", 1))
}

func TestUnwrapChain(t *testing.T) {
	cause := stderrors.New("root cause")
	err := Wrap(cause, ErrRender, "render failed")

	assert.True(t, stderrors.Is(err, cause))
}

func TestIsErrorCode(t *testing.T) {
	err := Newf(ErrRenderSyntax, "bad template at line %d", 3)

	assert.True(t, IsErrorCode(err, ErrRenderSyntax))
	assert.False(t, IsErrorCode(err, ErrRenderUndefined))
	assert.False(t, IsErrorCode(stderrors.New("plain"), ErrRenderSyntax))

	// Codes survive another layer of wrapping.
	outer := fmt.Errorf("context: %w", err)
	assert.True(t, IsErrorCode(outer, ErrRenderSyntax))
}

func TestGetErrorCode(t *testing.T) {
	assert.Equal(t, ErrVarParse, GetErrorCode(New(ErrVarParse, "x")))
	assert.Equal(t, ErrUnknown, GetErrorCode(stderrors.New("plain")))
}

func TestWithDetail(t *testing.T) {
	err := New(ErrFileWrite, "write failed").
		WithDetail("path", "/tmp/out").
		WithDetail("attempt", 2)

	assert.Equal(t, "/tmp/out", err.Details["path"])
	assert.Equal(t, 2, err.Details["attempt"])
}
