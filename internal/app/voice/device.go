// Package voice drives speech capture and playback as a side channel of a
// conversation. Capture and playback are never active at the same time.
package voice

import "context"

// EventKind identifies a device callback.
type EventKind string

const (
	EventCaptureResult EventKind = "capture.result"
	EventCaptureError  EventKind = "capture.error"
	EventCaptureEnd    EventKind = "capture.end"
	EventPlaybackEnd   EventKind = "playback.end"
)

// Event is what a device reports back. Text is set for capture results,
// Err for capture errors.
type Event struct {
	Kind EventKind
	Text string
	Err  error
}

// Sink receives device events. A Sink is bound to one capture or playback
// request; events posted after that request was cancelled are dropped.
// Post may block until the machine accepts the event, so devices should
// call it from their own goroutine.
type Sink interface {
	Post(Event)
}

// Capturer is a speech-to-text device. It accepts one pending request at a time.
type Capturer interface {
	StartCapture(ctx context.Context, locale string, sink Sink) error
	CancelCapture()
}

// Player is a text-to-speech device. It accepts one pending request at a time.
type Player interface {
	StartPlayback(ctx context.Context, text, locale string, sink Sink) error
	CancelPlayback()
}
