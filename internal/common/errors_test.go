package common

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestTypedErrorsMatchTheirKind(t *testing.T) {
	cases := []struct {
		name string
		err  error
		kind error
	}{
		{"invalid path", &InvalidPathError{Input: "", Reason: "empty"}, ErrInvalidPath},
		{"access denied", &AccessDeniedError{Path: "/etc/passwd", Roots: []string{"/tmp/docs"}}, ErrAccessDenied},
		{"unsupported", &UnsupportedFormatError{Value: "xml", What: "output format"}, ErrUnsupportedFormat},
		{"extraction", &ExtractionError{Path: "/a.pdf", Backend: "pdf", Cause: errors.New("boom")}, ErrExtraction},
		{"write", &WriteError{Path: "/a.md", Cause: errors.New("disk full")}, ErrWrite},
	}
	kinds := []error{ErrInvalidPath, ErrAccessDenied, ErrUnsupportedFormat, ErrExtraction, ErrWrite}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			wrapped := fmt.Errorf("convert: %w", tc.err)
			for _, k := range kinds {
				assert.Equal(t, k == tc.kind, errors.Is(wrapped, k), "kind %v", k)
			}
		})
	}
}

func TestAccessDeniedListsRoots(t *testing.T) {
	err := &AccessDeniedError{Path: "/etc/passwd", Roots: []string{"/tmp/docs", "/home/me"}}
	assert.Contains(t, err.Error(), "/tmp/docs")
	assert.Contains(t, err.Error(), "/home/me")

	var denied *AccessDeniedError
	require.True(t, errors.As(fmt.Errorf("x: %w", err), &denied))
	assert.Equal(t, []string{"/tmp/docs", "/home/me"}, denied.Roots)
}

func TestExtractionErrorUnwrapsCause(t *testing.T) {
	cause := errors.New("corrupt xref")
	err := &ExtractionError{Path: "/a.pdf", Backend: "pdf", Cause: cause}
	assert.ErrorIs(t, err, cause)
}

func TestToStatus(t *testing.T) {
	cases := []struct {
		err  error
		code codes.Code
	}{
		{&InvalidPathError{Input: "x", Reason: "does not exist"}, codes.InvalidArgument},
		{&AccessDeniedError{Path: "/etc"}, codes.PermissionDenied},
		{&UnsupportedFormatError{Value: "xml"}, codes.InvalidArgument},
		{&ExtractionError{Cause: errors.New("x")}, codes.DataLoss},
		{&WriteError{Cause: errors.New("x")}, codes.Unavailable},
		{fmt.Errorf("%w (candidates: /x)", ErrNoRoots), codes.FailedPrecondition},
		{context.DeadlineExceeded, codes.DeadlineExceeded},
		{fmt.Errorf("wrapped: %w", context.Canceled), codes.Canceled},
		{errors.New("other"), codes.Internal},
	}
	for _, tc := range cases {
		st, ok := status.FromError(ToStatus(tc.err))
		require.True(t, ok)
		assert.Equal(t, tc.code, st.Code(), tc.err.Error())
	}
	assert.NoError(t, ToStatus(nil))
}
