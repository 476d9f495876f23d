package ranged

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// rangeUnit is the only unit recognized in Range headers.
const rangeUnit = "bytes"

// ErrUnsatisfiable means a Range header was present but cannot be served:
// start past the end of the resource, start beyond end, or tokens that do
// not parse. Resolve recovers it into a 416 response.
var ErrUnsatisfiable = errors.New("unsatisfiable range")

// Span is an inclusive byte range into a resource. After resolution,
// 0 <= Start <= End < size holds.
type Span struct {
	Start int64
	End   int64
}

// Length returns the number of bytes the span covers.
func (s Span) Length() int64 {
	return s.End - s.Start + 1
}

// ContentRange renders the span as a Content-Range header value.
func (s Span) ContentRange(size int64) string {
	return fmt.Sprintf("%s %d-%d/%d", rangeUnit, s.Start, s.End, size)
}

// ParseRange resolves a Range request header against the resource size.
//
// It returns (nil, nil) when the header is absent, empty or not a bytes
// range: the request is then served whole. A recognized header resolves to
// a span, clamped to the resource:
//
//	bytes=N-M   [N, min(M, size-1)]
//	bytes=N-    [N, size-1]
//	bytes=-N    the last min(N, size) bytes
//
// Only the first of several comma-separated ranges is honored; the rest
// are ignored. A header that is recognized but cannot be satisfied returns
// ErrUnsatisfiable.
func ParseRange(header string, size int64) (*Span, error) {
	if header == "" || !strings.Contains(header, "=") {
		return nil, nil
	}
	unit, spec, _ := strings.Cut(header, "=")
	if strings.ToLower(strings.TrimSpace(unit)) != rangeUnit {
		return nil, nil
	}

	// multipart byteranges are not supported: first range only
	first, _, _ := strings.Cut(spec, ",")
	first = strings.TrimSpace(first)
	startTok, endTok, found := strings.Cut(first, "-")
	if !found {
		return nil, fmt.Errorf("%w: %q", ErrUnsatisfiable, header)
	}

	var span Span
	if startTok == "" {
		// suffix form: the last N bytes
		n, err := strconv.ParseInt(endTok, 10, 64)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("%w: %q", ErrUnsatisfiable, header)
		}
		span.Start = size - n
		if span.Start < 0 {
			span.Start = 0
		}
		span.End = size - 1
	} else {
		start, err := strconv.ParseInt(startTok, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %q", ErrUnsatisfiable, header)
		}
		span.Start = start
		if endTok == "" {
			span.End = size - 1
		} else {
			end, err := strconv.ParseInt(endTok, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("%w: %q", ErrUnsatisfiable, header)
			}
			span.End = end
			if span.End > size-1 {
				span.End = size - 1
			}
		}
	}

	if span.Start >= size || span.Start > span.End {
		return nil, fmt.Errorf("%w: %q", ErrUnsatisfiable, header)
	}
	return &span, nil
}
