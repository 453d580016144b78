package errs

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestError_Message(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		want string
	}{
		{
			name: "without cause",
			err:  New(ErrKindNotConnected, "no open connection"),
			want: "[not_connected] no open connection",
		},
		{
			name: "with cause",
			err:  Wrap(ErrKindConnectionFailed, "connect failed", errors.New("refused")),
			want: "[connection_failed] connect failed: refused",
		},
		{
			name: "missing parameter",
			err:  MissingParameter("region"),
			want: `[missing_parameter] missing value for parameter "region"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestPredicates(t *testing.T) {
	tests := []struct {
		name  string
		err   error
		check func(error) bool
	}{
		{"connection", Wrap(ErrKindConnectionFailed, "x", nil), IsConnectionFailed},
		{"template", New(ErrKindTemplate, "x"), IsTemplate},
		{"missing parameter", MissingParameter("k"), IsMissingParameter},
		{"not connected", New(ErrKindNotConnected, "x"), IsNotConnected},
		{"already executed", New(ErrKindAlreadyExecuted, "x"), IsAlreadyExecuted},
		{"query failed", New(ErrKindQueryFailed, "x"), IsQueryFailed},
		{"invalid input", New(ErrKindInvalidInput, "x"), IsInvalidInput},
		{"not found", New(ErrKindNotFound, "x"), IsNotFound},
		{"permission denied", New(ErrKindPermissionDenied, "x"), IsPermissionDenied},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, tt.check(tt.err))
			assert.True(t, tt.check(fmt.Errorf("outer: %w", tt.err)), "predicate must see through wrapping")
			assert.False(t, tt.check(errors.New("plain")))
		})
	}
}

func TestUnwrapPreservesCause(t *testing.T) {
	cause := errors.New("driver exploded")
	err := Wrap(ErrKindQueryFailed, "query failed", cause)

	require.ErrorIs(t, err, cause)
	assert.False(t, IsConnectionFailed(err))
}

func TestIsTimeout(t *testing.T) {
	err := Wrap(ErrKindConnectionFailed, "connect failed", context.DeadlineExceeded)

	assert.True(t, IsTimeout(err))
	assert.True(t, IsConnectionFailed(err))
	assert.False(t, IsTimeout(New(ErrKindConnectionFailed, "refused")))
}

func TestParamOf(t *testing.T) {
	assert.Equal(t, "year", ParamOf(fmt.Errorf("build: %w", MissingParameter("year"))))
	assert.Empty(t, ParamOf(errors.New("plain")))
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "unknown", ErrKind(99).String())
	assert.Equal(t, "query_failed", ErrKindQueryFailed.String())
}
