package store

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// pagedDirectory serves fixed pages keyed by continuation token.
type pagedDirectory struct {
	pages map[string]*ContainerPage
	calls []string
	err   error
}

func (d *pagedDirectory) ListContainersPage(_ context.Context, continuation string) (*ContainerPage, error) {
	d.calls = append(d.calls, continuation)
	if d.err != nil {
		return nil, d.err
	}
	return d.pages[continuation], nil
}

func (d *pagedDirectory) Open(context.Context, string) (Store, error) {
	return nil, errors.New("not implemented")
}

func TestListAllContainers_ConcatenatesPages(t *testing.T) {
	dir := &pagedDirectory{pages: map[string]*ContainerPage{
		"":   {Names: []string{"alpha", "beta"}, Next: "t1"},
		"t1": {Names: []string{"gamma"}, Next: "t2"},
		"t2": {Names: []string{"delta"}},
	}}

	names, err := ListAllContainers(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha", "beta", "gamma", "delta"}, names)
	assert.Equal(t, []string{"", "t1", "t2"}, dir.calls)
}

func TestListAllContainers_PropagatesError(t *testing.T) {
	dir := &pagedDirectory{err: ErrAccessDenied}

	_, err := ListAllContainers(context.Background(), dir)
	require.Error(t, err)
	assert.True(t, IsAccessDenied(err))
}

func TestListAllContainers_RepeatedToken(t *testing.T) {
	dir := &pagedDirectory{pages: map[string]*ContainerPage{
		"":   {Names: []string{"a"}, Next: "t1"},
		"t1": {Names: []string{"b"}, Next: "t1"},
	}}

	_, err := ListAllContainers(context.Background(), dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "repeated")
}

func TestCollect(t *testing.T) {
	seq := func(yield func(ObjectMeta, error) bool) {
		if !yield(ObjectMeta{Key: "a"}, nil) {
			return
		}
		yield(ObjectMeta{Key: "b"}, nil)
	}

	objects, err := Collect(seq)
	require.NoError(t, err)
	require.Len(t, objects, 2)
	assert.Equal(t, "b", objects[1].Key)

	_, err = Collect(Fail(ErrThrottled))
	assert.ErrorIs(t, err, ErrThrottled)
}

func TestError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *Error
		expected string
	}{
		{
			name:     "with key",
			err:      &Error{Op: "Delete", Backend: BackendAzure, Container: "demo", Key: "logs/b.txt", Err: ErrAccessDenied},
			expected: "azure Delete: demo/logs/b.txt: access denied",
		},
		{
			name:     "container only",
			err:      &Error{Op: "List", Backend: BackendS3, Container: "demo", Err: ErrContainerNotFound},
			expected: "s3 List: demo: container not found",
		},
		{
			name:     "bare",
			err:      &Error{Op: "ListContainers", Backend: BackendLocal, Err: ErrUnavailable},
			expected: "local ListContainers: service unavailable",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.err.Error())
		})
	}
}
