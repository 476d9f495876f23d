package ranged

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/streamkit/ranged/pkg/source"
)

// Resolution is the outcome of matching a Range header against a resource:
// the span to stream, the HTTP status to answer with, and the resource
// size the headers are derived from.
type Resolution struct {
	Span   Span
	Status int
	Size   int64
}

// Resolve parses the Range header against the source's size.
//
// No (or no recognizable) range means the whole resource at 200. A valid
// range means its span at 206, even when the span happens to cover the
// whole resource. An unsatisfiable range is not an error: it resolves to a
// bodyless 416. Only a source that cannot report its size makes Resolve
// fail, and that error is the caller's to turn into a 5xx.
func Resolve(ctx context.Context, header string, src source.Source) (*Resolution, error) {
	size, err := src.Size(ctx)
	if err != nil {
		return nil, err
	}
	span, err := ParseRange(header, size)
	if errors.Is(err, ErrUnsatisfiable) {
		return &Resolution{Status: http.StatusRequestedRangeNotSatisfiable, Size: size}, nil
	} else if err != nil {
		return nil, err
	}
	if span == nil {
		return &Resolution{
			Span:   Span{Start: 0, End: size - 1},
			Status: http.StatusOK,
			Size:   size,
		}, nil
	}
	return &Resolution{Span: *span, Status: http.StatusPartialContent, Size: size}, nil
}

// Header returns the response headers the resolution calls for.
func (r *Resolution) Header() http.Header {
	h := http.Header{}
	h.Set("Accept-Ranges", rangeUnit)
	switch r.Status {
	case http.StatusRequestedRangeNotSatisfiable:
		h.Set("Content-Range", fmt.Sprintf("%s */%d", rangeUnit, r.Size))
	case http.StatusPartialContent:
		h.Set("Content-Range", r.Span.ContentRange(r.Size))
		h.Set("Content-Length", strconv.FormatInt(r.Span.Length(), 10))
	default:
		h.Set("Content-Length", strconv.FormatInt(r.Size, 10))
	}
	return h
}

// HasBody reports whether the resolution carries response bytes to stream.
func (r *Resolution) HasBody() bool {
	return r.Status != http.StatusRequestedRangeNotSatisfiable && r.Span.Length() > 0
}
