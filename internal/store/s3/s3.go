// Package s3 implements the store ports on top of Amazon S3 and
// S3-compatible services such as MinIO.
package s3

import (
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"net/url"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"

	"github.com/slmtnm/blobnav/internal/store"
)

// maxBuckets is the page size requested from ListBuckets.
const maxBuckets = 1000

// API is the subset of the S3 client the adapter uses.
type API interface {
	ListBuckets(ctx context.Context, params *s3.ListBucketsInput, optFns ...func(*s3.Options)) (*s3.ListBucketsOutput, error)
	HeadBucket(ctx context.Context, params *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error)
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	CopyObject(ctx context.Context, params *s3.CopyObjectInput, optFns ...func(*s3.Options)) (*s3.CopyObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// Config holds connection settings.
type Config struct {
	// Endpoint is the service URL, e.g. "https://s3.amazonaws.com" or
	// "http://localhost:9000".
	Endpoint string

	Region          string
	AccessKeyID     string
	SecretAccessKey string
}

// Validate checks that the configuration can produce a client.
func (c Config) Validate() error {
	if (c.AccessKeyID == "") != (c.SecretAccessKey == "") {
		return errors.New("both access key ID and secret access key must be provided together")
	}
	if c.Endpoint != "" {
		if _, err := url.ParseRequestURI(c.Endpoint); err != nil {
			return fmt.Errorf("invalid endpoint %q: %w", c.Endpoint, err)
		}
	}
	return nil
}

// Directory lists buckets and binds stores to them.
type Directory struct {
	client API
}

var _ store.Directory = (*Directory)(nil)

// New creates a directory backed by a real S3 client.
func New(ctx context.Context, cfg Config) (*Directory, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid s3 config: %w", err)
	}

	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}
	opts := []func(*config.LoadOptions) error{config.WithRegion(region)}
	if cfg.AccessKeyID != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsConfig, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsConfig, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = true // Required for MinIO and some S3-compatible services
	})

	return NewWithClient(client), nil
}

// NewWithClient wraps an existing client.
func NewWithClient(client API) *Directory {
	return &Directory{client: client}
}

// ListContainersPage implements store.Directory.
func (d *Directory) ListContainersPage(ctx context.Context, continuation string) (*store.ContainerPage, error) {
	input := &s3.ListBucketsInput{MaxBuckets: aws.Int32(maxBuckets)}
	if continuation != "" {
		input.ContinuationToken = aws.String(continuation)
	}

	output, err := d.client.ListBuckets(ctx, input)
	if err != nil {
		return nil, wrapError("ListBuckets", "", "", err)
	}

	page := &store.ContainerPage{Names: make([]string, 0, len(output.Buckets))}
	for _, b := range output.Buckets {
		page.Names = append(page.Names, aws.ToString(b.Name))
	}
	page.Next = aws.ToString(output.ContinuationToken)
	return page, nil
}

// Open checks the bucket is reachable and binds a store to it.
func (d *Directory) Open(ctx context.Context, bucket string) (store.Store, error) {
	_, err := d.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(bucket)})
	if err != nil {
		wrapped := wrapError("HeadBucket", bucket, "", err)
		if errors.Is(wrapped.Err, store.ErrNotFound) {
			wrapped.Err = store.ErrContainerNotFound
		}
		return nil, wrapped
	}
	return &Bucket{client: d.client, bucket: bucket}, nil
}

// Bucket is a store bound to one bucket.
type Bucket struct {
	client API
	bucket string
}

var _ store.Store = (*Bucket)(nil)

// ListWithDelimiter implements store.Store.
func (b *Bucket) ListWithDelimiter(ctx context.Context, prefix string) (*store.Listing, error) {
	input := &s3.ListObjectsV2Input{
		Bucket:    aws.String(b.bucket),
		Delimiter: aws.String(store.Delimiter),
	}
	if prefix != "" {
		input.Prefix = aws.String(prefix)
	}

	listing := &store.Listing{}
	paginator := s3.NewListObjectsV2Paginator(b.client, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, b.wrapError("ListObjectsV2", prefix, err)
		}
		for _, p := range page.CommonPrefixes {
			listing.Prefixes = append(listing.Prefixes, aws.ToString(p.Prefix))
		}
		for _, obj := range page.Contents {
			listing.Objects = append(listing.Objects, summary(obj))
		}
	}
	return listing, nil
}

// List implements store.Store.
func (b *Bucket) List(ctx context.Context, prefix string) iter.Seq2[store.ObjectMeta, error] {
	return func(yield func(store.ObjectMeta, error) bool) {
		input := &s3.ListObjectsV2Input{Bucket: aws.String(b.bucket)}
		if prefix != "" {
			input.Prefix = aws.String(prefix)
		}

		paginator := s3.NewListObjectsV2Paginator(b.client, input)
		for paginator.HasMorePages() {
			page, err := paginator.NextPage(ctx)
			if err != nil {
				yield(store.ObjectMeta{}, b.wrapError("ListObjectsV2", prefix, err))
				return
			}
			for _, obj := range page.Contents {
				if !yield(summary(obj), nil) {
					return
				}
			}
		}
	}
}

// Get implements store.Store.
func (b *Bucket) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	output, err := b.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, b.wrapError("GetObject", key, err)
	}
	return output.Body, nil
}

// GetRange implements store.Store.
func (b *Bucket) GetRange(ctx context.Context, key string, offset, length int64) ([]byte, error) {
	if length <= 0 {
		return []byte{}, nil
	}

	output, err := b.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(key),
		Range:  aws.String(fmt.Sprintf("bytes=%d-%d", offset, offset+length-1)),
	})
	if err != nil {
		var apiErr smithy.APIError
		if errors.As(err, &apiErr) && apiErr.ErrorCode() == "InvalidRange" {
			return []byte{}, nil
		}
		return nil, b.wrapError("GetObject", key, err)
	}
	defer output.Body.Close()

	data, err := io.ReadAll(output.Body)
	if err != nil {
		return nil, b.wrapError("GetObject", key, fmt.Errorf("failed to read object data: %w", err))
	}
	return data, nil
}

// Head implements store.Store.
func (b *Bucket) Head(ctx context.Context, key string) (*store.ObjectMeta, error) {
	output, err := b.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, b.wrapError("HeadObject", key, err)
	}
	return &store.ObjectMeta{
		Key:          key,
		Size:         aws.ToInt64(output.ContentLength),
		LastModified: aws.ToTime(output.LastModified),
		ETag:         cleanETag(aws.ToString(output.ETag)),
	}, nil
}

// Copy implements store.Store with a server-side CopyObject.
func (b *Bucket) Copy(ctx context.Context, src, dst string) error {
	_, err := b.client.CopyObject(ctx, &s3.CopyObjectInput{
		Bucket:     aws.String(b.bucket),
		Key:        aws.String(dst),
		CopySource: aws.String(copySource(b.bucket, src)),
	})
	if err != nil {
		return b.wrapError("CopyObject", src, err)
	}
	return nil
}

// Delete implements store.Store.
func (b *Bucket) Delete(ctx context.Context, key string) error {
	_, err := b.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return b.wrapError("DeleteObject", key, err)
	}
	return nil
}

func (b *Bucket) wrapError(op, key string, err error) error {
	return wrapError(op, b.bucket, key, err)
}

func summary(obj types.Object) store.ObjectMeta {
	return store.ObjectMeta{
		Key:          aws.ToString(obj.Key),
		Size:         aws.ToInt64(obj.Size),
		LastModified: aws.ToTime(obj.LastModified),
		ETag:         cleanETag(aws.ToString(obj.ETag)),
	}
}

// copySource builds the URL-encoded "bucket/key" value CopyObject expects.
func copySource(bucket, key string) string {
	segments := strings.Split(key, "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return bucket + "/" + strings.Join(segments, "/")
}

// cleanETag removes surrounding quotes from an ETag value.
func cleanETag(etag string) string {
	return strings.Trim(etag, "\"")
}

// wrapError converts S3 errors to store errors with appropriate sentinel errors.
func wrapError(op, bucket, key string, err error) *store.Error {
	wrapped := &store.Error{
		Op:        op,
		Backend:   store.BackendS3,
		Container: bucket,
		Key:       key,
		Err:       err,
	}

	var notFound *types.NotFound
	var noSuchKey *types.NoSuchKey
	var noSuchBucket *types.NoSuchBucket

	switch {
	case errors.As(err, &notFound), errors.As(err, &noSuchKey):
		wrapped.Err = store.ErrNotFound
		return wrapped
	case errors.As(err, &noSuchBucket):
		wrapped.Err = store.ErrContainerNotFound
		return wrapped
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchKey", "NotFound":
			wrapped.Err = store.ErrNotFound
		case "NoSuchBucket":
			wrapped.Err = store.ErrContainerNotFound
		case "AccessDenied", "Forbidden":
			wrapped.Err = store.ErrAccessDenied
		case "InvalidAccessKeyId", "SignatureDoesNotMatch":
			wrapped.Err = store.ErrInvalidCredentials
		case "SlowDown", "Throttling", "RequestLimitExceeded":
			wrapped.Err = store.ErrThrottled
		case "ServiceUnavailable", "InternalError":
			wrapped.Err = store.ErrUnavailable
		}
		return wrapped
	}

	msg := err.Error()
	switch {
	case strings.Contains(msg, "NoSuchBucket"):
		wrapped.Err = store.ErrContainerNotFound
	case strings.Contains(msg, "NoSuchKey"), strings.Contains(msg, "StatusCode: 404"):
		wrapped.Err = store.ErrNotFound
	case strings.Contains(msg, "AccessDenied"), strings.Contains(msg, "StatusCode: 403"):
		wrapped.Err = store.ErrAccessDenied
	case strings.Contains(msg, "InvalidAccessKeyId"), strings.Contains(msg, "SignatureDoesNotMatch"):
		wrapped.Err = store.ErrInvalidCredentials
	case strings.Contains(msg, "SlowDown"), strings.Contains(msg, "StatusCode: 429"):
		wrapped.Err = store.ErrThrottled
	case strings.Contains(msg, "ServiceUnavailable"), strings.Contains(msg, "StatusCode: 503"):
		wrapped.Err = store.ErrUnavailable
	}
	return wrapped
}
