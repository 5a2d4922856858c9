package object

import (
	"context"
	"errors"
	"io"
)

// ErrNotFound indicates the requested storage key does not exist.
var ErrNotFound = errors.New("object not found")

// ObjectStore persists uploaded resume files and derived artifacts.
//
// Save namespaces the object under the owner and returns the storage key,
// the number of bytes written, and the sniffed content type. SaveWithKey
// stores under an exact caller-chosen key. Keys returned by Save are opaque
// and must be passed back to Open unmodified.
type ObjectStore interface {
	Save(ctx context.Context, owner string, fileName string, r io.Reader) (storageKey string, size int64, mimeType string, err error)
	Open(ctx context.Context, storageKey string) (io.ReadCloser, error)
	SaveWithKey(ctx context.Context, storageKey string, contentType string, r io.Reader) (int64, error)
}
