package ranged

import (
	"context"
	"errors"
	"io"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/streamkit/ranged/pkg/source"
)

// DefaultChunkSize is the read block size used when no option overrides it.
const DefaultChunkSize = 8192

// Session holds the per-request streaming state: a uid for notification
// correlation, the chunk size policy and how many bytes went out so far.
// Sessions are single-use; nothing survives the request that made one.
type Session struct {
	uid       string
	chunkSize int
	notifier  Notifier
	limiter   *rate.Limiter
	emitted   int64
}

type SessionOption func(*Session)

// WithChunkSize overrides the block size chunks are read with.
func WithChunkSize(n int) SessionOption {
	return func(s *Session) {
		if n > 0 {
			s.chunkSize = n
		}
	}
}

// WithNotifier subscribes a progress sink to the session.
func WithNotifier(n Notifier) SessionOption {
	return func(s *Session) {
		s.notifier = n
	}
}

// WithUID overrides the generated session id, to correlate events with an
// identifier the caller already tracks.
func WithUID(uid string) SessionOption {
	return func(s *Session) {
		s.uid = uid
	}
}

// WithRateLimit caps delivery at bytesPerSecond.
func WithRateLimit(bytesPerSecond int) SessionOption {
	return func(s *Session) {
		if bytesPerSecond > 0 {
			s.limiter = rate.NewLimiter(rate.Limit(bytesPerSecond), bytesPerSecond)
		}
	}
}

func NewSession(opts ...SessionOption) *Session {
	s := &Session{
		uid:       uuid.New().String(),
		chunkSize: DefaultChunkSize,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// UID returns the session identifier carried by its events.
func (s *Session) UID() string {
	return s.uid
}

// Stream copies the span's bytes from src to w in chunks of at most the
// session's chunk size, firing a progress event after every chunk and a
// final one when done. It never reads past span.End. A source that runs
// dry before the span is satisfied ends the stream early without error;
// the resource shrank underneath us and partial delivery is the contract.
//
// Returns the number of bytes written. Write errors (a consumer that went
// away) are returned as-is; the final event still fires.
func (s *Session) Stream(ctx context.Context, w io.Writer, src source.Source, span Span) (int64, error) {
	if span.Length() <= 0 {
		notify(s.notifier, Event{UID: s.uid, Start: span.Start, Finished: true})
		return 0, nil
	}
	rc, err := src.Fetch(ctx, span.Start, span.End)
	if err != nil {
		return 0, err
	}
	defer func() {
		_ = rc.Close()
	}()

	// the source is trusted to clamp, but never over-read regardless
	reader := io.LimitReader(rc, span.Length())
	buf := make([]byte, s.chunkSize)
	for {
		n, rerr := reader.Read(buf)
		if n > 0 {
			if s.limiter != nil {
				if werr := s.limiter.WaitN(ctx, n); werr != nil {
					return s.emitted, werr
				}
			}
			wn, werr := w.Write(buf[:n])
			s.emitted += int64(wn)
			notify(s.notifier, Event{UID: s.uid, Start: span.Start, Reloaded: s.emitted})
			if werr != nil {
				notify(s.notifier, Event{UID: s.uid, Start: span.Start, Reloaded: s.emitted, Finished: true})
				return s.emitted, werr
			}
		}
		if rerr != nil {
			if !errors.Is(rerr, io.EOF) && !errors.Is(rerr, io.ErrUnexpectedEOF) {
				notify(s.notifier, Event{UID: s.uid, Start: span.Start, Reloaded: s.emitted, Finished: true})
				return s.emitted, rerr
			}
			break
		}
	}
	notify(s.notifier, Event{UID: s.uid, Start: span.Start, Reloaded: s.emitted, Finished: true})
	return s.emitted, nil
}
