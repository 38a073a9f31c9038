package storage

import (
	"context"
	"io"
	"path"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/bloberror"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/container"
	"github.com/google/uuid"
)

// Blobs stores opaque objects in named containers created on first use.
type Blobs struct {
	client *azblob.Client
}

// NewBlobs wraps an azblob client.
func NewBlobs(client *azblob.Client) *Blobs {
	return &Blobs{client: client}
}

// EnsureContainer creates the named container if absent, optionally with
// blob-level public read access.
func (b *Blobs) EnsureContainer(ctx context.Context, name string, publicRead bool) error {
	opts := &azblob.CreateContainerOptions{}
	if publicRead {
		opts.Access = to.Ptr(container.PublicAccessTypeBlob)
	}
	if _, err := b.client.CreateContainer(ctx, name, opts); err != nil {
		if bloberror.HasCode(err, bloberror.ContainerAlreadyExists) {
			return nil
		}
		return mapError("create container "+name, err)
	}
	return nil
}

// Upload streams content into the container under a freshly generated object
// name carrying the original file extension, and returns the blob URL. An
// upload never overwrites an existing object.
func (b *Blobs) Upload(ctx context.Context, containerName string, content io.Reader, originalName string) (string, error) {
	if err := b.EnsureContainer(ctx, containerName, true); err != nil {
		return "", err
	}
	name := newObjectName(originalName)
	if _, err := b.client.UploadStream(ctx, containerName, name, content, nil); err != nil {
		return "", mapError("upload blob", err)
	}
	return b.url(containerName, name), nil
}

// Download opens the named object for reading. The caller owns the returned
// stream and must close it.
func (b *Blobs) Download(ctx context.Context, containerName, objectName string) (io.ReadCloser, error) {
	resp, err := b.client.DownloadStream(ctx, containerName, objectName, nil)
	if err != nil {
		return nil, mapError("download blob", err)
	}
	return resp.Body, nil
}

// Delete removes the named object. Deleting an absent object is a no-op.
func (b *Blobs) Delete(ctx context.Context, containerName, objectName string) error {
	if _, err := b.client.DeleteBlob(ctx, containerName, objectName, nil); err != nil {
		if bloberror.HasCode(err, bloberror.BlobNotFound, bloberror.ContainerNotFound) {
			return nil
		}
		return mapError("delete blob", err)
	}
	return nil
}

// NamePager walks a listing lazily, one backend page at a time. One-shot.
type NamePager struct {
	next func(ctx context.Context) ([]string, error)
	more func() bool
}

// More reports whether another page may be available.
func (p *NamePager) More() bool { return p.more() }

// NextPage fetches the next page of names.
func (p *NamePager) NextPage(ctx context.Context) ([]string, error) {
	return p.next(ctx)
}

// List starts a lazy scan of every object name in the container.
func (b *Blobs) List(containerName string) *NamePager {
	pager := b.client.NewListBlobsFlatPager(containerName, nil)
	return &NamePager{
		more: pager.More,
		next: func(ctx context.Context) ([]string, error) {
			resp, err := pager.NextPage(ctx)
			if err != nil {
				return nil, mapError("list blobs", err)
			}
			names := make([]string, 0, len(resp.Segment.BlobItems))
			for _, item := range resp.Segment.BlobItems {
				if item.Name != nil {
					names = append(names, *item.Name)
				}
			}
			return names, nil
		},
	}
}

// ListAll drains a listing into memory.
func (b *Blobs) ListAll(ctx context.Context, containerName string) ([]string, error) {
	return drainNames(ctx, b.List(containerName))
}

func (b *Blobs) url(containerName, objectName string) string {
	base := strings.TrimSuffix(b.client.URL(), "/")
	return base + "/" + containerName + "/" + objectName
}

func newObjectName(originalName string) string {
	return uuid.NewString() + path.Ext(originalName)
}

func drainNames(ctx context.Context, pager *NamePager) ([]string, error) {
	var out []string
	for pager.More() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		out = append(out, page...)
	}
	return out, nil
}
