package voice_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PabloGalante/healthai-agent/internal/app/voice"
)

// fakeDevice implements both Capturer and Player. Tests drive device
// events through the sinks it keeps.
type fakeDevice struct {
	mu        sync.Mutex
	startErr  error
	sinks     []voice.Sink
	texts     []string
	locales   []string
	cancelled int
}

func (f *fakeDevice) start(locale, text string, sink voice.Sink) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.startErr != nil {
		return f.startErr
	}
	f.sinks = append(f.sinks, sink)
	f.texts = append(f.texts, text)
	f.locales = append(f.locales, locale)
	return nil
}

func (f *fakeDevice) StartCapture(_ context.Context, locale string, sink voice.Sink) error {
	return f.start(locale, "", sink)
}

func (f *fakeDevice) CancelCapture() { f.cancel() }

func (f *fakeDevice) StartPlayback(_ context.Context, text, locale string, sink voice.Sink) error {
	return f.start(locale, text, sink)
}

func (f *fakeDevice) CancelPlayback() { f.cancel() }

func (f *fakeDevice) cancel() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cancelled++
}

func (f *fakeDevice) sink(i int) voice.Sink {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sinks[i]
}

func (f *fakeDevice) starts() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sinks)
}

func (f *fakeDevice) cancels() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.cancelled
}

type rig struct {
	m   *voice.Machine
	mic *fakeDevice
	spk *fakeDevice

	mu          sync.Mutex
	transitions [][2]voice.State
}

func newRig(t *testing.T) *rig {
	t.Helper()

	r := &rig{mic: &fakeDevice{}, spk: &fakeDevice{}}
	r.m = voice.NewMachine(r.mic, r.spk, "es-ES", voice.WithObserver(func(from, to voice.State) {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.transitions = append(r.transitions, [2]voice.State{from, to})
	}))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = r.m.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return r
}

func (r *rig) seen() [][2]voice.State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([][2]voice.State(nil), r.transitions...)
}

func (r *rig) waitState(t *testing.T, want voice.State) {
	t.Helper()
	require.Eventually(t, func() bool { return r.m.State() == want },
		time.Second, 5*time.Millisecond, "expected state %s", want)
}

func TestCaptureResultReturnsToIdleWithPendingInput(t *testing.T) {
	ctx := context.Background()
	r := newRig(t)

	require.NoError(t, r.m.StartCapture(ctx))
	assert.Equal(t, voice.StateListening, r.m.State())
	assert.Equal(t, voice.Snapshot{Listening: true}, r.m.Snapshot())

	r.mic.sink(0).Post(voice.Event{Kind: voice.EventCaptureResult, Text: "me siento cansada"})
	r.waitState(t, voice.StateIdle)

	assert.Equal(t, "me siento cansada", r.m.PendingInput())
	assert.Equal(t, "me siento cansada", r.m.TakePendingInput())
	assert.Empty(t, r.m.PendingInput())
	assert.Equal(t, "es-ES", r.mic.locales[0])
}

func TestCaptureToggleCancels(t *testing.T) {
	ctx := context.Background()
	r := newRig(t)

	require.NoError(t, r.m.StartCapture(ctx))
	require.NoError(t, r.m.StartCapture(ctx))

	assert.Equal(t, voice.StateIdle, r.m.State())
	assert.Equal(t, 1, r.mic.cancels())
	assert.Equal(t, 1, r.mic.starts())
}

func TestCaptureErrorAndEndReturnToIdle(t *testing.T) {
	ctx := context.Background()
	r := newRig(t)

	require.NoError(t, r.m.StartCapture(ctx))
	r.mic.sink(0).Post(voice.Event{Kind: voice.EventCaptureError, Err: errors.New("no mic")})
	r.waitState(t, voice.StateIdle)
	assert.Empty(t, r.m.PendingInput())

	require.NoError(t, r.m.StartCapture(ctx))
	r.mic.sink(1).Post(voice.Event{Kind: voice.EventCaptureEnd})
	r.waitState(t, voice.StateIdle)
}

func TestPlaybackWhileListeningGoesStraightToSpeaking(t *testing.T) {
	ctx := context.Background()
	r := newRig(t)

	require.NoError(t, r.m.StartCapture(ctx))
	require.NoError(t, r.m.StartPlayback(ctx, "Hola, ¿cómo estás?"))

	assert.Equal(t, voice.StateSpeaking, r.m.State())
	assert.Equal(t, voice.Snapshot{Speaking: true}, r.m.Snapshot())
	assert.Equal(t, 1, r.mic.cancels())
	assert.Equal(t, []string{"Hola, ¿cómo estás?"}, r.spk.texts)

	assert.Equal(t, [][2]voice.State{
		{voice.StateIdle, voice.StateListening},
		{voice.StateListening, voice.StateSpeaking},
	}, r.seen())

	r.spk.sink(0).Post(voice.Event{Kind: voice.EventPlaybackEnd})
	r.waitState(t, voice.StateIdle)
}

func TestCaptureWhileSpeakingCancelsPlayback(t *testing.T) {
	ctx := context.Background()
	r := newRig(t)

	require.NoError(t, r.m.StartPlayback(ctx, "texto"))
	require.NoError(t, r.m.StartCapture(ctx))

	assert.Equal(t, voice.StateListening, r.m.State())
	assert.Equal(t, 1, r.spk.cancels())
}

func TestPlaybackToggleStops(t *testing.T) {
	ctx := context.Background()
	r := newRig(t)

	require.NoError(t, r.m.StartPlayback(ctx, "uno"))
	require.NoError(t, r.m.StartPlayback(ctx, "dos"))

	assert.Equal(t, voice.StateIdle, r.m.State())
	assert.Equal(t, 1, r.spk.cancels())
	assert.Equal(t, 1, r.spk.starts(), "toggle does not queue the second text")
}

func TestPlaybackRejectsEmptyText(t *testing.T) {
	r := newRig(t)

	err := r.m.StartPlayback(context.Background(), "  ")
	require.ErrorIs(t, err, voice.ErrNothingToSay)
	assert.Equal(t, voice.StateIdle, r.m.State())
	assert.Zero(t, r.spk.starts())
}

func TestStaleEventsAreIgnored(t *testing.T) {
	ctx := context.Background()
	r := newRig(t)

	require.NoError(t, r.m.StartCapture(ctx))
	stale := r.mic.sink(0)
	require.NoError(t, r.m.StartCapture(ctx)) // toggle off
	require.NoError(t, r.m.StartCapture(ctx)) // listen again

	stale.Post(voice.Event{Kind: voice.EventCaptureResult, Text: "viejo"})
	stale.Post(voice.Event{Kind: voice.EventCaptureEnd})

	// a command round-trip guarantees the stale events were processed
	require.NoError(t, r.m.StartPlayback(ctx, "hola"))
	assert.Equal(t, voice.StateSpeaking, r.m.State())
	assert.Empty(t, r.m.PendingInput())

	stalePlayback := r.spk.sink(0)
	require.NoError(t, r.m.StartPlayback(ctx, "x")) // toggle off
	require.NoError(t, r.m.StartPlayback(ctx, "otra vez"))
	stalePlayback.Post(voice.Event{Kind: voice.EventPlaybackEnd})
	require.NoError(t, r.m.StartCapture(ctx))
	assert.Equal(t, voice.StateListening, r.m.State())
	assert.Equal(t, 2, r.spk.cancels(), "capture still had to cancel the live playback")
}

func TestDeviceStartFailure(t *testing.T) {
	ctx := context.Background()
	r := newRig(t)
	r.mic.startErr = errors.New("permission denied")
	r.spk.startErr = errors.New("no audio")

	require.Error(t, r.m.StartCapture(ctx))
	assert.Equal(t, voice.StateIdle, r.m.State())
	assert.Empty(t, r.m.PendingInput())

	require.Error(t, r.m.StartPlayback(ctx, "hola"))
	assert.Equal(t, voice.StateIdle, r.m.State())
	assert.Empty(t, r.seen())
}

func TestRelease(t *testing.T) {
	ctx := context.Background()
	r := newRig(t)

	require.NoError(t, r.m.StartPlayback(ctx, "hola"))
	require.NoError(t, r.m.Release(ctx))

	assert.Equal(t, voice.StateIdle, r.m.State())
	assert.Equal(t, 1, r.spk.cancels())
}

func TestCommandsAfterStopFail(t *testing.T) {
	m := voice.NewMachine(&fakeDevice{}, &fakeDevice{}, "es-ES")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.ErrorIs(t, m.Run(ctx), context.Canceled)
	require.ErrorIs(t, m.Run(context.Background()), voice.ErrAlreadyActive)

	require.ErrorIs(t, m.StartCapture(context.Background()), voice.ErrStopped)
}
