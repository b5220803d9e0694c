// Package azure implements the store ports on Azure Blob Storage using
// shared-key authentication.
package azure

import (
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"net/http"
	"strings"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/blob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/bloberror"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/container"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/service"

	"github.com/slmtnm/blobnav/internal/store"
)

// defaultCopyPoll is how often a pending server-side copy is checked.
const defaultCopyPoll = 500 * time.Millisecond

// Config holds the account credentials.
type Config struct {
	Account   string
	AccessKey string

	// Endpoint overrides the service URL, e.g. for a local emulator.
	// Defaults to https://<account>.blob.core.windows.net/.
	Endpoint string

	// ClientOptions are passed to the SDK client.
	ClientOptions *azblob.ClientOptions
}

// Validate checks required fields.
func (c Config) Validate() error {
	if c.Account == "" {
		return errors.New("storage account name is required")
	}
	if c.AccessKey == "" {
		return errors.New("storage access key is required")
	}
	return nil
}

// ServiceURL returns the endpoint the client talks to.
func (c Config) ServiceURL() string {
	if c.Endpoint != "" {
		return strings.TrimSuffix(c.Endpoint, "/") + "/"
	}
	return fmt.Sprintf("https://%s.blob.core.windows.net/", c.Account)
}

// Directory lists the containers of one storage account.
type Directory struct {
	client *azblob.Client
}

var _ store.Directory = (*Directory)(nil)

// New creates a directory authenticated with the account's shared key.
func New(cfg Config) (*Directory, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid azure config: %w", err)
	}

	cred, err := azblob.NewSharedKeyCredential(cfg.Account, cfg.AccessKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create shared key credential: %w", err)
	}

	client, err := azblob.NewClientWithSharedKeyCredential(cfg.ServiceURL(), cred, cfg.ClientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to create Azure client: %w", err)
	}
	return &Directory{client: client}, nil
}

// ListContainersPage implements store.Directory.
func (d *Directory) ListContainersPage(ctx context.Context, continuation string) (*store.ContainerPage, error) {
	opts := &service.ListContainersOptions{}
	if continuation != "" {
		opts.Marker = &continuation
	}

	pager := d.client.NewListContainersPager(opts)
	resp, err := pager.NextPage(ctx)
	if err != nil {
		return nil, wrapError("ListContainers", "", "", err)
	}

	page := &store.ContainerPage{Names: make([]string, 0, len(resp.ContainerItems))}
	for _, item := range resp.ContainerItems {
		if item != nil && item.Name != nil {
			page.Names = append(page.Names, *item.Name)
		}
	}
	if resp.NextMarker != nil {
		page.Next = *resp.NextMarker
	}
	return page, nil
}

// Open checks the container exists and binds a store to it.
func (d *Directory) Open(ctx context.Context, name string) (store.Store, error) {
	client := d.client.ServiceClient().NewContainerClient(name)
	if _, err := client.GetProperties(ctx, nil); err != nil {
		wrapped := wrapError("Open", name, "", err)
		if errors.Is(wrapped.Err, store.ErrNotFound) {
			wrapped.Err = store.ErrContainerNotFound
		}
		return nil, wrapped
	}
	return &Container{client: client, name: name, copyPoll: defaultCopyPoll}, nil
}

// Container is a store bound to one blob container.
type Container struct {
	client   *container.Client
	name     string
	copyPoll time.Duration
}

var _ store.Store = (*Container)(nil)

// ListWithDelimiter implements store.Store.
func (c *Container) ListWithDelimiter(ctx context.Context, prefix string) (*store.Listing, error) {
	opts := &container.ListBlobsHierarchyOptions{}
	if prefix != "" {
		opts.Prefix = &prefix
	}

	listing := &store.Listing{}
	pager := c.client.NewListBlobsHierarchyPager(store.Delimiter, opts)
	for pager.More() {
		resp, err := pager.NextPage(ctx)
		if err != nil {
			return nil, wrapError("ListBlobsHierarchy", c.name, prefix, err)
		}
		if resp.Segment == nil {
			continue
		}
		for _, p := range resp.Segment.BlobPrefixes {
			if p != nil && p.Name != nil {
				listing.Prefixes = append(listing.Prefixes, *p.Name)
			}
		}
		for _, item := range resp.Segment.BlobItems {
			if meta, ok := itemMeta(item); ok {
				listing.Objects = append(listing.Objects, meta)
			}
		}
	}
	return listing, nil
}

// List implements store.Store.
func (c *Container) List(ctx context.Context, prefix string) iter.Seq2[store.ObjectMeta, error] {
	return func(yield func(store.ObjectMeta, error) bool) {
		opts := &container.ListBlobsFlatOptions{}
		if prefix != "" {
			opts.Prefix = &prefix
		}

		pager := c.client.NewListBlobsFlatPager(opts)
		for pager.More() {
			resp, err := pager.NextPage(ctx)
			if err != nil {
				yield(store.ObjectMeta{}, wrapError("ListBlobsFlat", c.name, prefix, err))
				return
			}
			if resp.Segment == nil {
				continue
			}
			for _, item := range resp.Segment.BlobItems {
				meta, ok := itemMeta(item)
				if !ok {
					continue
				}
				if !yield(meta, nil) {
					return
				}
			}
		}
	}
}

// Get implements store.Store.
func (c *Container) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	resp, err := c.client.NewBlobClient(key).DownloadStream(ctx, nil)
	if err != nil {
		return nil, wrapError("Download", c.name, key, err)
	}
	return resp.Body, nil
}

// GetRange implements store.Store.
func (c *Container) GetRange(ctx context.Context, key string, offset, length int64) ([]byte, error) {
	if length <= 0 {
		return []byte{}, nil
	}

	resp, err := c.client.NewBlobClient(key).DownloadStream(ctx, &blob.DownloadStreamOptions{
		Range: blob.HTTPRange{Offset: offset, Count: length},
	})
	if err != nil {
		if bloberror.HasCode(err, bloberror.InvalidRange) {
			return []byte{}, nil
		}
		return nil, wrapError("Download", c.name, key, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, wrapError("Download", c.name, key, fmt.Errorf("failed to read blob data: %w", err))
	}
	return data, nil
}

// Head implements store.Store.
func (c *Container) Head(ctx context.Context, key string) (*store.ObjectMeta, error) {
	resp, err := c.client.NewBlobClient(key).GetProperties(ctx, nil)
	if err != nil {
		return nil, wrapError("GetProperties", c.name, key, err)
	}

	meta := &store.ObjectMeta{Key: key}
	if resp.ContentLength != nil {
		meta.Size = *resp.ContentLength
	}
	if resp.LastModified != nil {
		meta.LastModified = *resp.LastModified
	}
	if resp.ETag != nil {
		meta.ETag = cleanETag(string(*resp.ETag))
	}
	return meta, nil
}

// Copy implements store.Store with a server-side copy, waiting for the
// service to report it finished.
func (c *Container) Copy(ctx context.Context, src, dst string) error {
	srcURL := c.client.NewBlobClient(src).URL()
	dstClient := c.client.NewBlobClient(dst)

	resp, err := dstClient.StartCopyFromURL(ctx, srcURL, nil)
	if err != nil {
		return wrapError("StartCopyFromURL", c.name, src, err)
	}

	status := resp.CopyStatus
	for status != nil && *status == blob.CopyStatusTypePending {
		select {
		case <-ctx.Done():
			return wrapError("StartCopyFromURL", c.name, src, ctx.Err())
		case <-time.After(c.copyPoll):
		}
		props, err := dstClient.GetProperties(ctx, nil)
		if err != nil {
			return wrapError("GetProperties", c.name, dst, err)
		}
		status = props.CopyStatus
	}

	if status != nil && *status != blob.CopyStatusTypeSuccess {
		return wrapError("StartCopyFromURL", c.name, src, fmt.Errorf("copy ended with status %s", *status))
	}
	return nil
}

// Delete implements store.Store.
func (c *Container) Delete(ctx context.Context, key string) error {
	if _, err := c.client.NewBlobClient(key).Delete(ctx, nil); err != nil {
		return wrapError("Delete", c.name, key, err)
	}
	return nil
}

func itemMeta(item *container.BlobItem) (store.ObjectMeta, bool) {
	if item == nil || item.Name == nil {
		return store.ObjectMeta{}, false
	}
	meta := store.ObjectMeta{Key: *item.Name}
	if p := item.Properties; p != nil {
		if p.ContentLength != nil {
			meta.Size = *p.ContentLength
		}
		if p.LastModified != nil {
			meta.LastModified = *p.LastModified
		}
		if p.ETag != nil {
			meta.ETag = cleanETag(string(*p.ETag))
		}
	}
	return meta, true
}

func cleanETag(etag string) string {
	return strings.Trim(etag, "\"")
}

// wrapError maps Azure error codes and statuses onto store sentinels.
func wrapError(op, containerName, key string, err error) *store.Error {
	wrapped := &store.Error{
		Op:        op,
		Backend:   store.BackendAzure,
		Container: containerName,
		Key:       key,
		Err:       err,
	}

	switch {
	case bloberror.HasCode(err, bloberror.BlobNotFound, bloberror.ResourceNotFound):
		wrapped.Err = store.ErrNotFound
		return wrapped
	case bloberror.HasCode(err, bloberror.ContainerNotFound, bloberror.ContainerBeingDeleted):
		wrapped.Err = store.ErrContainerNotFound
		return wrapped
	case bloberror.HasCode(err, bloberror.AuthorizationFailure, bloberror.AuthorizationPermissionMismatch,
		bloberror.InsufficientAccountPermissions):
		wrapped.Err = store.ErrAccessDenied
		return wrapped
	case bloberror.HasCode(err, bloberror.AuthenticationFailed):
		wrapped.Err = store.ErrInvalidCredentials
		return wrapped
	case bloberror.HasCode(err, bloberror.ServerBusy):
		wrapped.Err = store.ErrThrottled
		return wrapped
	case bloberror.HasCode(err, bloberror.InternalError, bloberror.OperationTimedOut):
		wrapped.Err = store.ErrUnavailable
		return wrapped
	}

	var respErr *azcore.ResponseError
	if errors.As(err, &respErr) {
		switch respErr.StatusCode {
		case http.StatusNotFound:
			wrapped.Err = store.ErrNotFound
		case http.StatusForbidden:
			wrapped.Err = store.ErrAccessDenied
		case http.StatusUnauthorized:
			wrapped.Err = store.ErrInvalidCredentials
		case http.StatusTooManyRequests:
			wrapped.Err = store.ErrThrottled
		case http.StatusServiceUnavailable, http.StatusInternalServerError:
			wrapped.Err = store.ErrUnavailable
		}
	}
	return wrapped
}
