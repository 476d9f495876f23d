package source

import (
	"context"
	"fmt"
	"net/url"
	"path"
)

// Open builds a source for a URI based on its scheme:
//
//	file://path/to/file  (also bare paths with no scheme)
//	http://host/object   https://host/object
//	s3://bucket/key
//
// Sources that open their own handles also implement io.Closer; callers
// that are done streaming should close them via a type assertion.
func Open(ctx context.Context, uri string) (Source, error) {
	parsed, err := url.Parse(uri)
	if err != nil {
		return nil, ErrInvalidURI
	}
	switch parsed.Scheme {
	case "", "file":
		return OpenFile(localPath(parsed))
	case "http", "https":
		return NewRemote(uri), nil
	case "s3", "s3a":
		return NewS3(ctx, uri)
	default:
		return nil, fmt.Errorf("%w: unknown scheme: %s", ErrInvalidURI, parsed.Scheme)
	}
}

func localPath(parsed *url.URL) string {
	if parsed.Scheme == "" {
		return parsed.Path
	}
	return path.Clean(path.Join(parsed.Host, parsed.Path))
}
