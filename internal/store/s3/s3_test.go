package s3

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slmtnm/blobnav/internal/store"
)

// mockAPIError implements smithy.APIError for testing error code mapping.
type mockAPIError struct {
	code    string
	message string
}

func (e *mockAPIError) Error() string                 { return fmt.Sprintf("%s: %s", e.code, e.message) }
func (e *mockAPIError) ErrorCode() string             { return e.code }
func (e *mockAPIError) ErrorMessage() string          { return e.message }
func (e *mockAPIError) ErrorFault() smithy.ErrorFault { return smithy.FaultUnknown }

var _ smithy.APIError = (*mockAPIError)(nil)

// fakeAPI serves canned pages and records the inputs it receives.
type fakeAPI struct {
	bucketPages []*s3.ListBucketsOutput
	listPages   []*s3.ListObjectsV2Output
	listErr     error
	headBucket  error
	objects     map[string]string
	getErr      error

	bucketInputs []*s3.ListBucketsInput
	listInputs   []*s3.ListObjectsV2Input
	getInputs    []*s3.GetObjectInput
	copyInputs   []*s3.CopyObjectInput
	deleted      []string
}

var _ API = (*fakeAPI)(nil)

func (f *fakeAPI) ListBuckets(_ context.Context, in *s3.ListBucketsInput, _ ...func(*s3.Options)) (*s3.ListBucketsOutput, error) {
	f.bucketInputs = append(f.bucketInputs, in)
	i := len(f.bucketInputs) - 1
	if i >= len(f.bucketPages) {
		return &s3.ListBucketsOutput{}, nil
	}
	return f.bucketPages[i], nil
}

func (f *fakeAPI) HeadBucket(context.Context, *s3.HeadBucketInput, ...func(*s3.Options)) (*s3.HeadBucketOutput, error) {
	if f.headBucket != nil {
		return nil, f.headBucket
	}
	return &s3.HeadBucketOutput{}, nil
}

func (f *fakeAPI) ListObjectsV2(_ context.Context, in *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	f.listInputs = append(f.listInputs, in)
	i := len(f.listInputs) - 1
	if f.listErr != nil && i == len(f.listPages) {
		return nil, f.listErr
	}
	if i >= len(f.listPages) {
		return &s3.ListObjectsV2Output{}, nil
	}
	return f.listPages[i], nil
}

func (f *fakeAPI) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	f.getInputs = append(f.getInputs, in)
	if f.getErr != nil {
		return nil, f.getErr
	}
	data, ok := f.objects[aws.ToString(in.Key)]
	if !ok {
		return nil, &types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(strings.NewReader(data))}, nil
}

func (f *fakeAPI) HeadObject(_ context.Context, in *s3.HeadObjectInput, _ ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
	data, ok := f.objects[aws.ToString(in.Key)]
	if !ok {
		return nil, &types.NotFound{}
	}
	return &s3.HeadObjectOutput{
		ContentLength: aws.Int64(int64(len(data))),
		LastModified:  aws.Time(time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)),
		ETag:          aws.String(`"abc123"`),
	}, nil
}

func (f *fakeAPI) CopyObject(_ context.Context, in *s3.CopyObjectInput, _ ...func(*s3.Options)) (*s3.CopyObjectOutput, error) {
	f.copyInputs = append(f.copyInputs, in)
	return &s3.CopyObjectOutput{}, nil
}

func (f *fakeAPI) DeleteObject(_ context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	if aws.ToString(in.Key) == "locked.txt" {
		return nil, &mockAPIError{code: "AccessDenied", message: "Access Denied"}
	}
	f.deleted = append(f.deleted, aws.ToString(in.Key))
	return &s3.DeleteObjectOutput{}, nil
}

func obj(key string, size int64) types.Object {
	return types.Object{Key: aws.String(key), Size: aws.Int64(size), ETag: aws.String(`"e"`)}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr string
	}{
		{"empty", Config{}, ""},
		{"explicit creds", Config{AccessKeyID: "AKIA", SecretAccessKey: "secret"}, ""},
		{"access key without secret", Config{AccessKeyID: "AKIA"}, "both access key ID and secret access key must be provided together"},
		{"secret without access key", Config{SecretAccessKey: "secret"}, "both access key ID and secret access key must be provided together"},
		{"bad endpoint", Config{Endpoint: "not a url"}, "invalid endpoint"},
		{"minio endpoint", Config{Endpoint: "http://localhost:9000"}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestListContainersPage(t *testing.T) {
	api := &fakeAPI{bucketPages: []*s3.ListBucketsOutput{
		{Buckets: []types.Bucket{{Name: aws.String("a")}, {Name: aws.String("b")}}, ContinuationToken: aws.String("tok")},
		{Buckets: []types.Bucket{{Name: aws.String("c")}}},
	}}
	dir := NewWithClient(api)

	names, err := store.ListAllContainers(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, names)

	require.Len(t, api.bucketInputs, 2)
	assert.Nil(t, api.bucketInputs[0].ContinuationToken)
	assert.Equal(t, "tok", aws.ToString(api.bucketInputs[1].ContinuationToken))
}

func TestOpen_MissingBucket(t *testing.T) {
	dir := NewWithClient(&fakeAPI{headBucket: &types.NotFound{}})

	_, err := dir.Open(context.Background(), "nope")
	require.Error(t, err)
	assert.True(t, store.IsContainerNotFound(err))
}

func TestListWithDelimiter_ConcatenatesPages(t *testing.T) {
	api := &fakeAPI{listPages: []*s3.ListObjectsV2Output{
		{
			CommonPrefixes:        []types.CommonPrefix{{Prefix: aws.String("logs/2024/")}},
			Contents:              []types.Object{obj("logs/a.txt", 1)},
			IsTruncated:           aws.Bool(true),
			NextContinuationToken: aws.String("p2"),
		},
		{Contents: []types.Object{obj("logs/b.txt", 2)}},
	}}
	st, err := NewWithClient(api).Open(context.Background(), "demo")
	require.NoError(t, err)

	listing, err := st.ListWithDelimiter(context.Background(), "logs/")
	require.NoError(t, err)
	assert.Equal(t, []string{"logs/2024/"}, listing.Prefixes)
	require.Len(t, listing.Objects, 2)
	assert.Equal(t, "logs/b.txt", listing.Objects[1].Key)
	assert.Equal(t, "e", listing.Objects[0].ETag)

	require.Len(t, api.listInputs, 2)
	assert.Equal(t, "/", aws.ToString(api.listInputs[0].Delimiter))
	assert.Equal(t, "logs/", aws.ToString(api.listInputs[0].Prefix))
	assert.Equal(t, "p2", aws.ToString(api.listInputs[1].ContinuationToken))
}

func TestListWithDelimiter_RootHasNoPrefix(t *testing.T) {
	api := &fakeAPI{}
	st, err := NewWithClient(api).Open(context.Background(), "demo")
	require.NoError(t, err)

	_, err = st.ListWithDelimiter(context.Background(), "")
	require.NoError(t, err)
	assert.Nil(t, api.listInputs[0].Prefix)
}

func TestList_StreamsAndStopsOnError(t *testing.T) {
	api := &fakeAPI{
		listPages: []*s3.ListObjectsV2Output{{
			Contents:              []types.Object{obj("data/x", 1), obj("data/y/z", 2)},
			IsTruncated:           aws.Bool(true),
			NextContinuationToken: aws.String("p2"),
		}},
		listErr: &mockAPIError{code: "AccessDenied"},
	}
	st, err := NewWithClient(api).Open(context.Background(), "demo")
	require.NoError(t, err)

	var keys []string
	var gotErr error
	for meta, err := range st.List(context.Background(), "data/") {
		if err != nil {
			gotErr = err
			break
		}
		keys = append(keys, meta.Key)
	}
	assert.Equal(t, []string{"data/x", "data/y/z"}, keys)
	assert.True(t, store.IsAccessDenied(gotErr))
	assert.Nil(t, api.listInputs[0].Delimiter)
}

func TestGetRange(t *testing.T) {
	api := &fakeAPI{objects: map[string]string{"a.csv": "h1,h2\n1,2\n"}}
	st, err := NewWithClient(api).Open(context.Background(), "demo")
	require.NoError(t, err)

	data, err := st.GetRange(context.Background(), "a.csv", 0, 65536)
	require.NoError(t, err)
	assert.Equal(t, "h1,h2\n1,2\n", string(data))
	assert.Equal(t, "bytes=0-65535", aws.ToString(api.getInputs[0].Range))
}

func TestGetRange_InvalidRangeIsEmpty(t *testing.T) {
	api := &fakeAPI{getErr: &mockAPIError{code: "InvalidRange"}}
	st, err := NewWithClient(api).Open(context.Background(), "demo")
	require.NoError(t, err)

	data, err := st.GetRange(context.Background(), "empty.txt", 0, 10)
	require.NoError(t, err)
	assert.Empty(t, data)
}

func TestHead(t *testing.T) {
	api := &fakeAPI{objects: map[string]string{"a.txt": "hello"}}
	st, err := NewWithClient(api).Open(context.Background(), "demo")
	require.NoError(t, err)

	meta, err := st.Head(context.Background(), "a.txt")
	require.NoError(t, err)
	assert.Equal(t, int64(5), meta.Size)
	assert.Equal(t, "abc123", meta.ETag)

	_, err = st.Head(context.Background(), "missing")
	assert.True(t, store.IsNotFound(err))
}

func TestCopy_EscapesSource(t *testing.T) {
	api := &fakeAPI{}
	st, err := NewWithClient(api).Open(context.Background(), "demo")
	require.NoError(t, err)

	require.NoError(t, st.Copy(context.Background(), "data/my file+1.csv", "data2/my file+1.csv"))
	require.Len(t, api.copyInputs, 1)
	assert.Equal(t, "demo/data/my%20file+1.csv", aws.ToString(api.copyInputs[0].CopySource))
	assert.Equal(t, "data2/my file+1.csv", aws.ToString(api.copyInputs[0].Key))
}

func TestDelete(t *testing.T) {
	api := &fakeAPI{}
	st, err := NewWithClient(api).Open(context.Background(), "demo")
	require.NoError(t, err)

	require.NoError(t, st.Delete(context.Background(), "a.txt"))
	assert.Equal(t, []string{"a.txt"}, api.deleted)

	err = st.Delete(context.Background(), "locked.txt")
	require.Error(t, err)
	assert.True(t, store.IsAccessDenied(err))
	assert.Contains(t, err.Error(), "access denied")
}

func TestWrapError(t *testing.T) {
	wrapped := wrapError("HeadObject", "demo", "missing.txt", &types.NoSuchKey{})

	var storeErr *store.Error
	require.True(t, errors.As(error(wrapped), &storeErr))
	assert.Equal(t, "HeadObject", storeErr.Op)
	assert.Equal(t, store.BackendS3, storeErr.Backend)
	assert.Equal(t, "demo", storeErr.Container)
	assert.Equal(t, "missing.txt", storeErr.Key)
	assert.True(t, errors.Is(wrapped, store.ErrNotFound))

	assert.True(t, errors.Is(wrapError("List", "gone", "", &types.NoSuchBucket{}), store.ErrContainerNotFound))
}

func TestWrapError_APIError(t *testing.T) {
	tests := []struct {
		code     string
		expected error
	}{
		{"NoSuchKey", store.ErrNotFound},
		{"NotFound", store.ErrNotFound},
		{"NoSuchBucket", store.ErrContainerNotFound},
		{"AccessDenied", store.ErrAccessDenied},
		{"Forbidden", store.ErrAccessDenied},
		{"InvalidAccessKeyId", store.ErrInvalidCredentials},
		{"SignatureDoesNotMatch", store.ErrInvalidCredentials},
		{"SlowDown", store.ErrThrottled},
		{"RequestLimitExceeded", store.ErrThrottled},
		{"ServiceUnavailable", store.ErrUnavailable},
		{"InternalError", store.ErrUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			err := wrapError("Test", "demo", "key", &mockAPIError{code: tt.code})
			assert.True(t, errors.Is(err, tt.expected))
		})
	}
}

func TestWrapError_FromMessage(t *testing.T) {
	tests := []struct {
		name     string
		msg      string
		expected error
	}{
		{"403", "operation error: https response error StatusCode: 403", store.ErrAccessDenied},
		{"404", "operation error: https response error StatusCode: 404", store.ErrNotFound},
		{"no such bucket", "NoSuchBucket: bucket does not exist", store.ErrContainerNotFound},
		{"429", "operation error: https response error StatusCode: 429", store.ErrThrottled},
		{"503", "operation error: https response error StatusCode: 503", store.ErrUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := wrapError("Test", "demo", "key", errors.New(tt.msg))
			assert.True(t, errors.Is(err, tt.expected))
		})
	}

	unknown := errors.New("connection reset")
	assert.ErrorIs(t, wrapError("Test", "demo", "", unknown), unknown)
}

func TestCleanETag(t *testing.T) {
	assert.Equal(t, "d41d8cd98f00b204e9800998ecf8427e", cleanETag(`"d41d8cd98f00b204e9800998ecf8427e"`))
	assert.Equal(t, "plain", cleanETag("plain"))
}
