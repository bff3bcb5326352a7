package vocsensor

import (
	"context"
	"io"
	"os"
	"path"
	"path/filepath"

	"cloud.google.com/go/storage"
	"github.com/carbocation/pfx"
)

// Sink creates named outputs beneath a root. Names always use forward
// slashes.
type Sink interface {
	Create(name string) (io.WriteCloser, error)
	String() string
}

// NewSink returns a GSSink for gs:// roots and a DirSink otherwise.
func NewSink(root string, client *storage.Client) (Sink, error) {
	if !IsGoogleStoragePath(root) {
		return DirSink{Root: ExpandHome(root)}, nil
	}

	if client == nil {
		return nil, pfx.Err(errNoStorageClient(root))
	}

	bucket, prefix, err := SplitGoogleStoragePath(root)
	if err != nil {
		return nil, pfx.Err(err)
	}

	return GSSink{Client: client, Bucket: bucket, Prefix: prefix, Context: context.Background()}, nil
}

// DirSink writes beneath a local directory, creating intermediate
// directories as needed. Existing files are truncated.
type DirSink struct {
	Root string
}

func (s DirSink) Create(name string) (io.WriteCloser, error) {
	p := filepath.Join(s.Root, filepath.FromSlash(name))
	if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
		return nil, pfx.Err(err)
	}

	f, err := os.Create(p)
	if err != nil {
		return nil, pfx.Err(err)
	}

	return f, nil
}

func (s DirSink) String() string {
	return s.Root
}

// GSSink writes objects beneath gs://Bucket/Prefix. Objects only become
// visible once the returned writer is closed.
type GSSink struct {
	Client  *storage.Client
	Bucket  string
	Prefix  string
	Context context.Context
}

func (s GSSink) Create(name string) (io.WriteCloser, error) {
	ctx := s.Context
	if ctx == nil {
		ctx = context.Background()
	}

	w := s.Client.Bucket(s.Bucket).Object(path.Join(s.Prefix, name)).NewWriter(ctx)
	w.ContentType = "text/csv"

	return w, nil
}

func (s GSSink) String() string {
	return gsPrefix + path.Join(s.Bucket, s.Prefix)
}
