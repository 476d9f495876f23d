// Package ginranged serves byte-range responses through gin handlers.
package ginranged

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/streamkit/ranged/pkg/ranged"
	"github.com/streamkit/ranged/pkg/source"
)

// Serve answers the current request from src with byte-range support.
// Source failures become JSON error bodies; everything range-related is
// delegated to the core resolver.
func Serve(c *gin.Context, src source.Source, opts ...ranged.SessionOption) {
	res, err := ranged.Resolve(c.Request.Context(), c.GetHeader("Range"), src)
	if errors.Is(err, source.ErrDoesNotExist) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	} else if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "upstream unavailable"})
		return
	}
	for k, vs := range res.Header() {
		for _, v := range vs {
			c.Header(k, v)
		}
	}
	c.Status(res.Status)
	if c.Request.Method == http.MethodHead || !res.HasBody() {
		return
	}
	sess := ranged.NewSession(opts...)
	if _, err := sess.Stream(c.Request.Context(), c.Writer, src, res.Span); err != nil {
		// too late for a status change, the stream just ends
		_ = c.Error(err)
	}
}

// ServeFile serves a local file at path through Serve.
func ServeFile(c *gin.Context, path string, opts ...ranged.SessionOption) {
	src, err := source.OpenFile(path)
	if errors.Is(err, source.ErrDoesNotExist) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	} else if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not open file"})
		return
	}
	defer func() {
		_ = src.Close()
	}()
	Serve(c, src, opts...)
}
