package voice_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	voicedev "github.com/PabloGalante/healthai-agent/internal/adapters/voice"
	appvoice "github.com/PabloGalante/healthai-agent/internal/app/voice"
)

type chanSink chan appvoice.Event

func (c chanSink) Post(ev appvoice.Event) { c <- ev }

func next(t *testing.T, c chanSink) appvoice.Event {
	t.Helper()
	select {
	case ev := <-c:
		return ev
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for device event")
		return appvoice.Event{}
	}
}

func TestCommandCapturerReportsTranscript(t *testing.T) {
	c, err := voicedev.NewCommandCapturer("echo me siento bien")
	require.NoError(t, err)

	sink := make(chanSink, 4)
	require.NoError(t, c.StartCapture(context.Background(), "es-ES", sink))

	ev := next(t, sink)
	assert.Equal(t, appvoice.EventCaptureResult, ev.Kind)
	assert.Equal(t, "me siento bien", ev.Text)
	assert.Equal(t, appvoice.EventCaptureEnd, next(t, sink).Kind)
}

func TestCommandCapturerCancel(t *testing.T) {
	c, err := voicedev.NewCommandCapturer("sleep 10")
	require.NoError(t, err)

	sink := make(chanSink, 4)
	require.NoError(t, c.StartCapture(context.Background(), "es-ES", sink))
	c.CancelCapture()

	assert.Equal(t, appvoice.EventCaptureError, next(t, sink).Kind)
	assert.Equal(t, appvoice.EventCaptureEnd, next(t, sink).Kind)

	// cancelling frees the device right away
	again := make(chanSink, 4)
	require.NoError(t, c.StartCapture(context.Background(), "es-ES", again))
	c.CancelCapture()
}

func TestCommandCapturerBusy(t *testing.T) {
	c, err := voicedev.NewCommandCapturer("sleep 10")
	require.NoError(t, err)
	t.Cleanup(c.CancelCapture)

	require.NoError(t, c.StartCapture(context.Background(), "es-ES", make(chanSink, 4)))
	require.ErrorIs(t, c.StartCapture(context.Background(), "es-ES", make(chanSink, 4)), voicedev.ErrBusy)
}

func TestCommandPlayerPipesText(t *testing.T) {
	p, err := voicedev.NewCommandPlayer("cat")
	require.NoError(t, err)

	sink := make(chanSink, 2)
	require.NoError(t, p.StartPlayback(context.Background(), "hola", "es-ES", sink))
	assert.Equal(t, appvoice.EventPlaybackEnd, next(t, sink).Kind)
}

func TestEmptyCaptureCommand(t *testing.T) {
	_, err := voicedev.NewCommandCapturer("   ")
	require.Error(t, err)
}

func TestMissingBinary(t *testing.T) {
	c, err := voicedev.NewCommandCapturer("healthai-no-such-binary")
	require.NoError(t, err)
	require.Error(t, c.StartCapture(context.Background(), "es-ES", make(chanSink, 1)))
}
