package errors_test

import (
	"errors"
	"testing"

	pkgerrors "github.com/agentstation/strix/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	err := pkgerrors.New("test error")
	assert.NotNil(t, err)
	assert.Equal(t, "test error", err.Error())
}

func TestNotFoundError(t *testing.T) {
	t.Run("basic error", func(t *testing.T) {
		err := &pkgerrors.NotFoundError{
			Resource: "core",
			ID:       "local",
		}
		assert.Equal(t, "core with ID local not found", err.Error())
		assert.True(t, errors.Is(err, pkgerrors.ErrNotFound))
	})

	t.Run("wrapped error", func(t *testing.T) {
		base := pkgerrors.NewNotFoundError("source", "abbey-road")
		wrapped := errors.Join(errors.New("failed"), base)
		assert.True(t, pkgerrors.IsNotFound(wrapped))
	})
}

func TestAlreadyExistsError(t *testing.T) {
	err := pkgerrors.NewAlreadyExistsError("core", "spotify")
	assert.Equal(t, "core with ID spotify already exists", err.Error())
	assert.True(t, pkgerrors.IsAlreadyExists(err))
	assert.False(t, pkgerrors.IsNotFound(err))
}

func TestValidationError(t *testing.T) {
	t.Run("with field", func(t *testing.T) {
		err := &pkgerrors.ValidationError{
			Field:   "ranking",
			Message: "cannot be empty",
		}
		assert.Equal(t, "validation failed for field ranking: cannot be empty", err.Error())
		assert.True(t, errors.Is(err, pkgerrors.ErrInvalidInput))
	})

	t.Run("without field", func(t *testing.T) {
		err := &pkgerrors.ValidationError{
			Message: "invalid configuration",
		}
		assert.Equal(t, "validation failed: invalid configuration", err.Error())
		assert.True(t, pkgerrors.IsValidationError(err))
	})
}

func TestCapabilityErrors(t *testing.T) {
	tests := []struct {
		name           string
		err            error
		notSupported   bool
		notImplemented bool
		invalid        bool
	}{
		{"not supported", pkgerrors.NewNotSupportedError("download", "album"), true, false, false},
		{"not implemented", pkgerrors.NewNotImplementedError("merge dispatch", "device"), false, true, false},
		{"merge", pkgerrors.NewMergeError("album", "Abbey Road", "Let It Be", nil), false, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.notSupported, pkgerrors.IsNotSupported(tt.err))
			assert.Equal(t, tt.notImplemented, pkgerrors.IsNotImplemented(tt.err))
			assert.Equal(t, tt.invalid, pkgerrors.IsValidationError(tt.err))
		})
	}
}

func TestNotSupportedError_Message(t *testing.T) {
	assert.Equal(t, "download is not supported on track", pkgerrors.NewNotSupportedError("download", "track").Error())
	assert.Equal(t, "download is not supported", pkgerrors.NewNotSupportedError("download", "").Error())
}

func TestMergeError_Unwrap(t *testing.T) {
	cause := errors.New("kind mismatch")
	err := pkgerrors.NewMergeError("track", "Come Together", "Something", cause)
	require.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "kind mismatch")
}

func TestResourceError(t *testing.T) {
	cause := errors.New("disk full")
	err := pkgerrors.WrapResource("dispose", "core", "local", cause)
	require.Error(t, err)
	assert.Equal(t, "failed to dispose core local: disk full", err.Error())
	assert.ErrorIs(t, err, cause)
	assert.NoError(t, pkgerrors.WrapResource("dispose", "core", "local", nil))
}

func TestParseError(t *testing.T) {
	cause := errors.New("bad indent")
	err := pkgerrors.WrapParse("yaml", "fixtures.yaml", cause)
	assert.Equal(t, "parse error in yaml file fixtures.yaml: bad indent", err.Error())
	assert.ErrorIs(t, err, cause)
}
