package source

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

var _ Source = &Remote{}

// Remote serves ranges out of an HTTP-accessible blob (a public object
// storage URL or any static file endpoint). Size comes from a HEAD request,
// bytes from a single ranged GET per Fetch.
type Remote struct {
	url    string
	client *http.Client
}

func NewRemote(uri string) *Remote {
	return &Remote{url: uri, client: http.DefaultClient}
}

// NewRemoteWithClient is NewRemote with a caller-supplied http.Client, for
// timeouts, transports or test doubles.
func NewRemoteWithClient(uri string, client *http.Client) *Remote {
	return &Remote{url: uri, client: client}
}

func (r *Remote) Size(ctx context.Context) (int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, r.url, nil)
	if err != nil {
		return 0, err
	}
	start := time.Now()
	response, err := r.client.Do(req)
	tookMs := time.Since(start).Milliseconds()
	if err != nil {
		slog.Error("http.Head", "url", r.url, "took_ms", tookMs, "error", err)
		return 0, fmt.Errorf("%w: %s", ErrUpstream, err)
	}
	defer func() {
		_ = response.Body.Close()
	}()
	if response.StatusCode == http.StatusNotFound {
		slog.Warn("http.Head", "url", r.url, "took_ms", tookMs, "error", "NotFound")
		return 0, ErrDoesNotExist
	}
	if response.StatusCode < 200 || response.StatusCode > 299 {
		return 0, fmt.Errorf("%w: HEAD returned HTTP %d", ErrUpstream, response.StatusCode)
	}
	if response.ContentLength < 0 {
		return 0, fmt.Errorf("%w: upstream did not report a content length", ErrUpstream)
	}
	slog.Debug("http.Head", "url", r.url, "took_ms", tookMs, "size", response.ContentLength)
	return response.ContentLength, nil
}

func (r *Remote) Fetch(ctx context.Context, start, end int64) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.url, nil)
	if err != nil {
		return nil, err
	}
	rangeHeader := fmt.Sprintf("bytes=%d-%d", start, end)
	req.Header.Set("Range", rangeHeader)
	began := time.Now()
	response, err := r.client.Do(req)
	tookMs := time.Since(began).Milliseconds()
	if err != nil {
		slog.Error("http.Get", "range", rangeHeader, "url", r.url, "took_ms", tookMs, "error", err)
		return nil, fmt.Errorf("%w: %s", ErrUpstream, err)
	}
	switch response.StatusCode {
	case http.StatusPartialContent:
		slog.Debug("http.Get", "range", rangeHeader, "url", r.url, "took_ms", tookMs, "status", response.StatusCode)
		// upstream honored the range, the body already starts at start.
		// Truncate anyway in case it over-delivers.
		return clampBody(response.Body, end+1-start), nil
	case http.StatusOK:
		// upstream ignored the range and sent the whole object. Clamp on
		// our side: drop everything before start, truncate after end.
		// Range support cannot be assumed for every storage provider.
		slog.Debug("http.Get", "range", rangeHeader, "url", r.url, "took_ms", tookMs, "status", response.StatusCode, "clamped", true)
		if _, err := io.CopyN(io.Discard, response.Body, start); err != nil && err != io.EOF {
			_ = response.Body.Close()
			return nil, fmt.Errorf("%w: %s", ErrUpstream, err)
		}
		return clampBody(response.Body, end+1-start), nil
	case http.StatusNotFound:
		_ = response.Body.Close()
		slog.Warn("http.Get", "range", rangeHeader, "url", r.url, "took_ms", tookMs, "error", "NotFound")
		return nil, ErrDoesNotExist
	default:
		_ = response.Body.Close()
		return nil, fmt.Errorf("%w: GET returned HTTP %d", ErrUpstream, response.StatusCode)
	}
}

func clampBody(body io.ReadCloser, length int64) io.ReadCloser {
	return &clampedBody{r: io.LimitReader(body, length), body: body}
}

type clampedBody struct {
	r    io.Reader
	body io.ReadCloser
}

func (c *clampedBody) Read(p []byte) (int, error) {
	return c.r.Read(p)
}

func (c *clampedBody) Close() error {
	return c.body.Close()
}
