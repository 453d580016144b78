package minio

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/koustreak/querykit/internal/errs"
	miniogo "github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
)

func TestMapError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want errs.ErrKind
	}{
		{
			name: "not found status",
			err:  miniogo.ErrorResponse{StatusCode: http.StatusNotFound, Code: "NoSuchKey"},
			want: errs.ErrKindNotFound,
		},
		{
			name: "forbidden status",
			err:  miniogo.ErrorResponse{StatusCode: http.StatusForbidden},
			want: errs.ErrKindPermissionDenied,
		},
		{
			name: "bad request status",
			err:  miniogo.ErrorResponse{StatusCode: http.StatusBadRequest},
			want: errs.ErrKindInvalidInput,
		},
		{
			name: "no such bucket code",
			err:  miniogo.ErrorResponse{StatusCode: http.StatusOK, Code: "NoSuchBucket"},
			want: errs.ErrKindNotFound,
		},
		{
			name: "signature code",
			err:  miniogo.ErrorResponse{Code: "SignatureDoesNotMatch"},
			want: errs.ErrKindPermissionDenied,
		},
		{
			name: "wrapped response",
			err:  fmt.Errorf("put: %w", miniogo.ErrorResponse{Code: "InvalidBucketName"}),
			want: errs.ErrKindInvalidInput,
		},
		{
			name: "network failure",
			err:  errors.New("dial tcp: connection refused"),
			want: errs.ErrKindConnectionFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := mapError(tt.err, "op failed")
			assert.Equal(t, tt.want, got.Kind)
			assert.ErrorIs(t, got, tt.err)
		})
	}
}

func TestMapError_DeadlineStaysDetectable(t *testing.T) {
	err := mapError(context.DeadlineExceeded, "upload failed")
	assert.True(t, errs.IsConnectionFailed(err))
	assert.True(t, errs.IsTimeout(err))
}

func TestMapError_Nil(t *testing.T) {
	assert.Nil(t, mapError(nil, "noop"))
}
