package source_test

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/streamkit/ranged/pkg/source"
)

func TestOpen(t *testing.T) {
	ctx := context.Background()

	t.Run("file scheme", func(t *testing.T) {
		src, err := source.Open(ctx, "file://testdata/lorem.txt")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		defer src.(io.Closer).Close()
		size, err := src.Size(ctx)
		if err != nil || size != 446 {
			t.Errorf("expected size 446, got %d (err %v)", size, err)
		}
	})
	t.Run("bare path", func(t *testing.T) {
		src, err := source.Open(ctx, "testdata/lorem.txt")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		defer src.(io.Closer).Close()
		size, err := src.Size(ctx)
		if err != nil || size != 446 {
			t.Errorf("expected size 446, got %d (err %v)", size, err)
		}
	})
	t.Run("http scheme", func(t *testing.T) {
		src, err := source.Open(ctx, "http://example.com/blob.bin")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if _, ok := src.(*source.Remote); !ok {
			t.Errorf("expected a remote source, got %T", src)
		}
	})
	t.Run("unknown scheme", func(t *testing.T) {
		_, err := source.Open(ctx, "gopher://example.com/blob")
		if !errors.Is(err, source.ErrInvalidURI) {
			t.Errorf("unexpected error, %v", err)
		}
	})
	t.Run("missing file", func(t *testing.T) {
		_, err := source.Open(ctx, "file://testdata/no_such_file.txt")
		if !errors.Is(err, source.ErrDoesNotExist) {
			t.Errorf("unexpected error, %v", err)
		}
	})
}
