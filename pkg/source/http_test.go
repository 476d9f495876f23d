package source_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/streamkit/ranged/pkg/source"
)

// rangingUpstream honors Range requests the way a well-behaved object
// store does.
func rangingUpstream(data []byte) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.ServeContent(w, r, "blob.bin", timeZero(), bytes.NewReader(data))
	})
}

// ignoringUpstream always replies 200 with the whole body, whatever the
// Range header says. Some storage providers do exactly this.
func ignoringUpstream(data []byte) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", strconv.Itoa(len(data)))
		w.WriteHeader(http.StatusOK)
		if r.Method != http.MethodHead {
			_, _ = w.Write(data)
		}
	})
}

func TestRemote_Size(t *testing.T) {
	ctx := context.Background()
	data := []byte("Lorem ipsum dolor sit amet")

	t.Run("reported by HEAD", func(t *testing.T) {
		server := httptest.NewServer(rangingUpstream(data))
		defer server.Close()
		r := source.NewRemote(server.URL)
		size, err := r.Size(ctx)
		if err != nil {
			t.Errorf("unexpected error: %v", err)
			return
		}
		if size != int64(len(data)) {
			t.Errorf("expected size %d, got %d", len(data), size)
		}
	})
	t.Run("missing object", func(t *testing.T) {
		server := httptest.NewServer(http.NotFoundHandler())
		defer server.Close()
		r := source.NewRemote(server.URL)
		_, err := r.Size(ctx)
		if !errors.Is(err, source.ErrDoesNotExist) {
			t.Errorf("unexpected error, %v", err)
		}
	})
	t.Run("upstream failure", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		}))
		defer server.Close()
		r := source.NewRemote(server.URL)
		_, err := r.Size(ctx)
		if !errors.Is(err, source.ErrUpstream) {
			t.Errorf("unexpected error, %v", err)
		}
	})
}

func TestRemote_Fetch(t *testing.T) {
	ctx := context.Background()
	data := make([]byte, 1000)
	for i := range data {
		data[i] = byte(i % 251)
	}

	t.Run("upstream honors ranges", func(t *testing.T) {
		var gotRange string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotRange = r.Header.Get("Range")
			http.ServeContent(w, r, "blob.bin", timeZero(), bytes.NewReader(data))
		}))
		defer server.Close()
		r := source.NewRemote(server.URL)
		rc, err := r.Fetch(ctx, 100, 349)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		defer rc.Close()
		body, err := io.ReadAll(rc)
		if err != nil {
			t.Fatalf("could not read body: %v", err)
		}
		if gotRange != "bytes=100-349" {
			t.Errorf("wrong upstream range header: %q", gotRange)
		}
		if !bytes.Equal(body, data[100:350]) {
			t.Errorf("wrong body returned (%d bytes)", len(body))
		}
	})

	t.Run("upstream ignores ranges", func(t *testing.T) {
		server := httptest.NewServer(ignoringUpstream(data))
		defer server.Close()
		r := source.NewRemote(server.URL)
		rc, err := r.Fetch(ctx, 100, 349)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		defer rc.Close()
		body, err := io.ReadAll(rc)
		if err != nil {
			t.Fatalf("could not read body: %v", err)
		}
		// client-side clamp: same bytes as a compliant upstream
		if !bytes.Equal(body, data[100:350]) {
			t.Errorf("clamped body does not match the span (%d bytes)", len(body))
		}
	})

	t.Run("missing object", func(t *testing.T) {
		server := httptest.NewServer(http.NotFoundHandler())
		defer server.Close()
		r := source.NewRemote(server.URL)
		_, err := r.Fetch(ctx, 0, 10)
		if !errors.Is(err, source.ErrDoesNotExist) {
			t.Errorf("unexpected error, %v", err)
		}
	})

	t.Run("upstream failure", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer server.Close()
		r := source.NewRemote(server.URL)
		_, err := r.Fetch(ctx, 0, 10)
		if !errors.Is(err, source.ErrUpstream) {
			t.Errorf("unexpected error, %v", err)
		}
	})

	t.Run("custom client", func(t *testing.T) {
		server := httptest.NewServer(rangingUpstream(data))
		defer server.Close()
		r := source.NewRemoteWithClient(server.URL, server.Client())
		rc, err := r.Fetch(ctx, 0, 9)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		defer rc.Close()
		body, _ := io.ReadAll(rc)
		if !bytes.Equal(body, data[:10]) {
			t.Errorf("wrong body returned: %v", body)
		}
	})
}

func TestRemote_EndToEndComparison(t *testing.T) {
	// both upstream behaviors must produce identical spans
	data := []byte("The quick brown fox jumps over the lazy dog")
	cases := []struct{ start, end int64 }{
		{0, 2}, {4, 8}, {0, int64(len(data) - 1)}, {40, 42},
	}
	for name, handler := range map[string]http.Handler{
		"ranging":  rangingUpstream(data),
		"ignoring": ignoringUpstream(data),
	} {
		t.Run(name, func(t *testing.T) {
			server := httptest.NewServer(handler)
			defer server.Close()
			r := source.NewRemote(server.URL)
			for _, c := range cases {
				rc, err := r.Fetch(context.Background(), c.start, c.end)
				if err != nil {
					t.Fatalf("%d-%d: unexpected error: %v", c.start, c.end, err)
				}
				body, err := io.ReadAll(rc)
				_ = rc.Close()
				if err != nil {
					t.Fatalf("%d-%d: could not read body: %v", c.start, c.end, err)
				}
				if want := data[c.start : c.end+1]; !bytes.Equal(body, want) {
					t.Errorf("%d-%d: got %q want %q", c.start, c.end, body, want)
				}
			}
		})
	}
}

func timeZero() time.Time {
	return time.Time{}
}
