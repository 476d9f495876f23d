package ranged

import "log/slog"

// Event reports streaming progress for one session. One event fires after
// every chunk and a final one fires when the stream ends.
type Event struct {
	// UID correlates events of the same session.
	UID string
	// Start is the first byte offset of the span being streamed.
	Start int64
	// Reloaded is the cumulative number of bytes emitted so far.
	Reloaded int64
	// Finished marks the last event of the session.
	Finished bool
}

// Notifier receives progress events. Delivery is fire-and-forget: a slow
// or panicking notifier cannot stall or abort byte delivery.
type Notifier interface {
	Notify(Event)
}

// NotifierFunc adapts a function to the Notifier interface.
type NotifierFunc func(Event)

func (f NotifierFunc) Notify(e Event) {
	f(e)
}

func notify(n Notifier, e Event) {
	if n == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			slog.Warn("ranged: notifier panic", "uid", e.UID, "panic", r)
		}
	}()
	n.Notify(e)
}
