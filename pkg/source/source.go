package source

import (
	"context"
	"io"
)

// Source is the capability a byte provider must offer so that ranged
// responses can be served from it. Offsets are inclusive on both ends,
// matching the HTTP Range header.
//
// Local implements it over a caller-owned seekable handle, Remote over an
// HTTP-fetchable blob, S3 over an object in a bucket.
type Source interface {
	// Size returns the total size of the resource in bytes.
	Size(ctx context.Context) (int64, error)

	// Fetch returns a reader over [start, end]. The reader never yields
	// bytes past end, but it may yield fewer when the resource turns out
	// to be shorter than its declared size.
	Fetch(ctx context.Context, start, end int64) (io.ReadCloser, error)
}
