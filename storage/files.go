package storage

import (
	"bytes"
	"context"
	"io"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore/streaming"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azfile/directory"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azfile/fileerror"
	fileservice "github.com/Azure/azure-sdk-for-go/sdk/storage/azfile/service"
)

// uploadRangeSize is the service limit for a single range write.
const uploadRangeSize = 4 * 1024 * 1024

// Files stores named files in share directories created on first use.
// Directory semantics are flat: one level under the share root.
type Files struct {
	svc *fileservice.Client
}

// NewFiles wraps an azfile service client.
func NewFiles(svc *fileservice.Client) *Files {
	return &Files{svc: svc}
}

// EnsureShare creates the named share if absent.
func (f *Files) EnsureShare(ctx context.Context, share string) error {
	if _, err := f.svc.NewShareClient(share).Create(ctx, nil); err != nil {
		if fileerror.HasCode(err, fileerror.ShareAlreadyExists) {
			return nil
		}
		return mapError("create share "+share, err)
	}
	return nil
}

// EnsureDirectory creates the directory if absent. An empty path means the
// share root, which always exists.
func (f *Files) EnsureDirectory(ctx context.Context, share, dir string) error {
	if dir == "" {
		return nil
	}
	if _, err := f.svc.NewShareClient(share).NewDirectoryClient(dir).Create(ctx, nil); err != nil {
		if fileerror.HasCode(err, fileerror.ResourceAlreadyExists) {
			return nil
		}
		return mapError("create directory "+dir, err)
	}
	return nil
}

// Upload reserves size bytes under the directory and streams content into
// them. The share and directory are created on first use. The declared size
// must match the content exactly; share files are fixed-length.
func (f *Files) Upload(ctx context.Context, share, dir, fileName string, content io.Reader, size int64) error {
	if err := f.EnsureShare(ctx, share); err != nil {
		return err
	}
	if err := f.EnsureDirectory(ctx, share, dir); err != nil {
		return err
	}
	fc := f.directoryClient(share, dir).NewFileClient(fileName)
	if _, err := fc.Create(ctx, size, nil); err != nil {
		return mapError("create file", err)
	}
	buf := make([]byte, uploadRangeSize)
	for offset := int64(0); offset < size; {
		n := int64(len(buf))
		if remaining := size - offset; remaining < n {
			n = remaining
		}
		if _, err := io.ReadFull(content, buf[:n]); err != nil {
			return &TransportError{Op: "read upload content", Err: err}
		}
		body := streaming.NopCloser(bytes.NewReader(buf[:n]))
		if _, err := fc.UploadRange(ctx, offset, body, nil); err != nil {
			return mapError("upload range", err)
		}
		offset += n
	}
	return nil
}

// List starts a lazy scan of the names directly under the directory, files
// and subdirectories intermixed.
func (f *Files) List(share, dir string) *NamePager {
	pager := f.directoryClient(share, dir).NewListFilesAndDirectoriesPager(nil)
	return &NamePager{
		more: pager.More,
		next: func(ctx context.Context) ([]string, error) {
			resp, err := pager.NextPage(ctx)
			if err != nil {
				return nil, mapError("list files", err)
			}
			var names []string
			for _, d := range resp.Segment.Directories {
				names = appendName(names, d.Name)
			}
			for _, fi := range resp.Segment.Files {
				names = appendName(names, fi.Name)
			}
			return names, nil
		},
	}
}

// ListAll drains a directory listing into memory.
func (f *Files) ListAll(ctx context.Context, share, dir string) ([]string, error) {
	return drainNames(ctx, f.List(share, dir))
}

// Download streams the named file into the caller-supplied sink.
func (f *Files) Download(ctx context.Context, share, dir, fileName string, dst io.Writer) error {
	fc := f.directoryClient(share, dir).NewFileClient(fileName)
	resp, err := fc.DownloadStream(ctx, nil)
	if err != nil {
		return mapError("download file", err)
	}
	defer resp.Body.Close()
	if _, err := io.Copy(dst, resp.Body); err != nil {
		return &TransportError{Op: "download file", Err: err}
	}
	return nil
}

func appendName(names []string, name *string) []string {
	if name == nil {
		return names
	}
	return append(names, *name)
}

func (f *Files) directoryClient(share, dir string) *directory.Client {
	sc := f.svc.NewShareClient(share)
	if dir == "" {
		return sc.NewRootDirectoryClient()
	}
	return sc.NewDirectoryClient(dir)
}
