package ranged

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/streamkit/ranged/pkg/source"
)

// ServeSource answers one HTTP request from a source with byte-range
// support: 200 for whole-resource requests, 206 with Content-Range for
// partial ones, 416 for unsatisfiable ones, 404/502 when the source cannot
// deliver. A missing consumer (client hung up mid-stream) is logged, not
// an error.
func ServeSource(w http.ResponseWriter, r *http.Request, src source.Source, opts ...SessionOption) {
	res, err := Resolve(r.Context(), r.Header.Get("Range"), src)
	if err != nil {
		w.WriteHeader(sourceErrorStatus(err))
		slog.Warn("could not resolve range", "url", r.URL.Path, "error", err)
		return
	}
	for k, vs := range res.Header() {
		for _, v := range vs {
			w.Header().Set(k, v)
		}
	}
	w.WriteHeader(res.Status)
	if r.Method == http.MethodHead || !res.HasBody() {
		return
	}

	sess := NewSession(opts...)
	written, err := sess.Stream(r.Context(), w, src, res.Span)
	if err != nil {
		// headers are gone, nothing to do but log
		slog.Debug("range stream ended early", "uid", sess.UID(), "url", r.URL.Path, "written", written, "error", err)
	}
}

// Handler wraps a single source as an http.Handler.
func Handler(src source.Source, opts ...SessionOption) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ServeSource(w, r, src, opts...)
	})
}

func sourceErrorStatus(err error) int {
	if errors.Is(err, source.ErrDoesNotExist) {
		return http.StatusNotFound
	}
	if errors.Is(err, source.ErrInvalidURI) {
		return http.StatusInternalServerError
	}
	return http.StatusBadGateway
}
