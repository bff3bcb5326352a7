package vocsensor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/carbocation/pfx"
)

const gsPrefix = "gs://"

// IsGoogleStoragePath reports whether path names a Google Storage object.
func IsGoogleStoragePath(path string) bool {
	return strings.HasPrefix(path, gsPrefix)
}

// SplitGoogleStoragePath splits gs://bucket/some/object into its bucket and
// object name.
func SplitGoogleStoragePath(path string) (bucket, object string, err error) {
	pathParts := strings.SplitN(strings.TrimPrefix(path, gsPrefix), "/", 2)
	if len(pathParts) != 2 || pathParts[0] == "" {
		return "", "", fmt.Errorf("Tried to split your google storage path into 2 parts, but got %d: %v", len(pathParts), pathParts)
	}

	return pathParts[0], pathParts[1], nil
}

// IsNotExist reports whether err means that a local file or a Google Storage
// object does not exist.
func IsNotExist(err error) bool {
	return errors.Is(err, fs.ErrNotExist) || errors.Is(err, storage.ErrObjectNotExist)
}

// OpenSource opens path for sequential reading. Paths beginning with gs:// are
// read from Google Storage with client, which may be nil when only local
// paths are expected.
func OpenSource(ctx context.Context, path string, client *storage.Client) (io.ReadCloser, error) {
	if !IsGoogleStoragePath(path) {
		return os.Open(ExpandHome(path))
	}

	if client == nil {
		return nil, pfx.Err(errNoStorageClient(path))
	}

	bucketName, objectName, err := SplitGoogleStoragePath(path)
	if err != nil {
		return nil, pfx.Err(err)
	}

	// Not wrapped with pfx: callers test for storage.ErrObjectNotExist.
	return client.Bucket(bucketName).Object(objectName).NewReader(ctx)
}

// OpenDecompressedSource opens path like OpenSource and transparently
// decompresses it if it is gzip, zip, bzip2, xz or zlib compressed. Closing
// the result closes the underlying source.
func OpenDecompressedSource(ctx context.Context, path string, client *storage.Client) (io.ReadCloser, error) {
	src, err := OpenSource(ctx, path, client)
	if err != nil {
		return nil, err
	}

	dec, _, err := MaybeDecompress(src)
	if err != nil {
		src.Close()
		return nil, pfx.Err(fmt.Errorf("%s: %v", path, err))
	}

	return &stackedReadCloser{ReadCloser: dec, under: src}, nil
}

type stackedReadCloser struct {
	io.ReadCloser
	under io.Closer
}

func (s *stackedReadCloser) Close() error {
	err := s.ReadCloser.Close()
	if uerr := s.under.Close(); err == nil {
		err = uerr
	}

	return err
}

func errNoStorageClient(path string) error {
	return fmt.Errorf("%s: a Google Storage client is required for this path", path)
}
