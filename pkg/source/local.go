package source

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/go-git/go-billy/v5"
)

var _ Source = &Local{}

// Local serves ranges out of a seekable handle. The handle stays owned by
// whoever supplied it: readers returned by Fetch never close it, and closing
// the source only closes handles it opened itself (OpenFile, OpenBilly).
//
// A Local supports one in-flight Fetch at a time since reads share the
// handle's position.
type Local struct {
	r     io.ReadSeeker
	size  int64
	owned io.Closer
}

// NewLocal wraps a caller-owned seekable handle. The size is probed by
// seeking to the end once; the position is restored before returning.
func NewLocal(r io.ReadSeeker) (*Local, error) {
	size, err := r.Seek(0, io.SeekEnd)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrUpstream, err)
	}
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrUpstream, err)
	}
	return &Local{r: r, size: size}, nil
}

// NewLocalFile wraps an open caller-owned file, taking the size from stat
// instead of a seek probe.
func NewLocalFile(f *os.File) (*Local, error) {
	stat, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrUpstream, err)
	}
	return &Local{r: f, size: stat.Size()}, nil
}

// OpenFile opens path and wraps it. Unlike the New* constructors the
// returned source owns the handle; Close releases it.
func OpenFile(path string) (*Local, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, ErrDoesNotExist
	} else if err != nil {
		return nil, err
	}
	l, err := NewLocalFile(f)
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	l.owned = f
	return l, nil
}

// OpenBilly opens path on the given filesystem and wraps it. The returned
// source owns the handle; Close releases it.
func OpenBilly(fs billy.Filesystem, path string) (*Local, error) {
	stat, err := fs.Stat(path)
	if os.IsNotExist(err) {
		return nil, ErrDoesNotExist
	} else if err != nil {
		return nil, err
	}
	f, err := fs.Open(path)
	if err != nil {
		return nil, err
	}
	return &Local{r: f, size: stat.Size(), owned: f}, nil
}

func (l *Local) Size(_ context.Context) (int64, error) {
	return l.size, nil
}

func (l *Local) Fetch(_ context.Context, start, end int64) (io.ReadCloser, error) {
	if _, err := l.r.Seek(start, io.SeekStart); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrUpstream, err)
	}
	return &boundedReader{r: io.LimitReader(l.r, end+1-start)}, nil
}

// Close releases the handle only if this source opened it.
func (l *Local) Close() error {
	if l.owned == nil {
		return nil
	}
	return l.owned.Close()
}

// boundedReader keeps the underlying handle open when the consumer closes
// the fetched range.
type boundedReader struct {
	r io.Reader
}

func (b *boundedReader) Read(p []byte) (int, error) {
	return b.r.Read(p)
}

func (b *boundedReader) Close() error {
	return nil
}
