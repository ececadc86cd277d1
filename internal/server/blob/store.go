// Package blob stores the PDF bytes behind document rows.
package blob

import (
	"context"
	"io"
	"net/url"
	"strings"
)

// Store is the blob side of the catalog store. Paths are relative keys of
// the form <ownerId>/<timestamp>_<name>.
type Store interface {
	// Upload writes r under path. It fails if path already exists.
	Upload(ctx context.Context, path string, r io.Reader, size int64, contentType string) error
	// Download returns the full content at path. A missing path yields an
	// error wrapping common.ErrorNotFound.
	Download(ctx context.Context, path string) ([]byte, error)
	// Remove deletes path. Removing a missing path is not an error.
	Remove(ctx context.Context, path string) error
	// PublicURL is the address clients can fetch path from.
	PublicURL(path string) string
}

// joinURL appends the escaped segments of path to base.
func joinURL(base, path string) string {
	segments := strings.Split(path, "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return strings.TrimRight(base, "/") + "/" + strings.Join(segments, "/")
}
