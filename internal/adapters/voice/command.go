// Package voice provides capture and playback devices backed by external
// commands (a speech-to-text script, espeak-ng, macOS say, ...).
package voice

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"sync"

	appvoice "github.com/PabloGalante/healthai-agent/internal/app/voice"
	"github.com/PabloGalante/healthai-agent/internal/observability"
)

// DefaultPlaybackCommand reads the text to speak from stdin.
const DefaultPlaybackCommand = "espeak-ng -v es --stdin"

var ErrBusy = errors.New("device busy")

// runner tracks the single in-flight command of a device.
type runner struct {
	name   string
	argv   []string
	mu     sync.Mutex
	active *run
}

type run struct {
	cancel context.CancelFunc
}

func newRunner(name, command string) (*runner, error) {
	argv := strings.Fields(command)
	if len(argv) == 0 {
		return nil, fmt.Errorf("%s: empty command", name)
	}
	return &runner{name: name, argv: argv}, nil
}

// start launches the command and calls done with its stdout once it exits.
// A cancelled run still calls done; the machine drops its late events.
func (r *runner) start(ctx context.Context, locale string, stdin string, done func(out string, err error)) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.active != nil {
		return ErrBusy
	}

	ctx, cancel := context.WithCancel(ctx)
	cmd := exec.CommandContext(ctx, r.argv[0], r.argv[1:]...)
	cmd.Env = append(os.Environ(), "HEALTHAI_VOICE_LOCALE="+locale)
	if stdin != "" {
		cmd.Stdin = strings.NewReader(stdin)
	}
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Start(); err != nil {
		cancel()
		return fmt.Errorf("%s: %w", r.name, err)
	}
	current := &run{cancel: cancel}
	r.active = current

	log := observability.Logger().With("device", r.name)
	log.Debug("device command started", "command", r.argv[0])

	go func() {
		err := cmd.Wait()

		r.mu.Lock()
		if r.active == current {
			r.active = nil
		}
		r.mu.Unlock()
		cancel()

		if err != nil {
			log.Debug("device command exited", "error", err, "stderr", strings.TrimSpace(stderr.String()))
			err = fmt.Errorf("%s: %w", r.name, err)
		}
		done(strings.TrimSpace(stdout.String()), err)
	}()
	return nil
}

func (r *runner) stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.active != nil {
		r.active.cancel()
		r.active = nil
	}
}

// CommandCapturer runs a speech-to-text command and treats its trimmed
// stdout as the transcript.
type CommandCapturer struct {
	r *runner
}

func NewCommandCapturer(command string) (*CommandCapturer, error) {
	r, err := newRunner("capture", command)
	if err != nil {
		return nil, err
	}
	return &CommandCapturer{r: r}, nil
}

func (c *CommandCapturer) StartCapture(ctx context.Context, locale string, sink appvoice.Sink) error {
	return c.r.start(ctx, locale, "", func(out string, err error) {
		switch {
		case err != nil:
			sink.Post(appvoice.Event{Kind: appvoice.EventCaptureError, Err: err})
		case out != "":
			sink.Post(appvoice.Event{Kind: appvoice.EventCaptureResult, Text: out})
		}
		sink.Post(appvoice.Event{Kind: appvoice.EventCaptureEnd})
	})
}

func (c *CommandCapturer) CancelCapture() { c.r.stop() }

// CommandPlayer pipes the text to a text-to-speech command.
type CommandPlayer struct {
	r *runner
}

func NewCommandPlayer(command string) (*CommandPlayer, error) {
	if strings.TrimSpace(command) == "" {
		command = DefaultPlaybackCommand
	}
	r, err := newRunner("playback", command)
	if err != nil {
		return nil, err
	}
	return &CommandPlayer{r: r}, nil
}

func (p *CommandPlayer) StartPlayback(ctx context.Context, text, locale string, sink appvoice.Sink) error {
	return p.r.start(ctx, locale, text, func(_ string, _ error) {
		sink.Post(appvoice.Event{Kind: appvoice.EventPlaybackEnd})
	})
}

func (p *CommandPlayer) CancelPlayback() { p.r.stop() }
