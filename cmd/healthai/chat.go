package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	voicedev "github.com/PabloGalante/healthai-agent/internal/adapters/voice"
	"github.com/PabloGalante/healthai-agent/internal/app/conversation"
	"github.com/PabloGalante/healthai-agent/internal/app/voice"
	"github.com/PabloGalante/healthai-agent/internal/config"
	"github.com/PabloGalante/healthai-agent/internal/domain"
)

const chatHelp = `Comandos:
  /voz      empezar o detener la escucha
  /enviar   enviar el texto dictado pendiente
  /leer     leer en voz alta la última respuesta (otra vez para detener)
  /borrar   borrar el historial
  /salir    terminar`

const voiceDisabled = "voz desactivada: configura capture_command"

func newChatCmd() *cobra.Command {
	var userID string

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Chat with Health-AI in the terminal",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			a, err := buildApp(ctx, cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			return runChat(ctx, cfg, a.conversation, domain.UserID(userID), cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&userID, "user", "local", "user id for the conversation")
	return cmd
}

func runChat(ctx context.Context, cfg *config.Config, svc *conversation.Service, userID domain.UserID, in io.Reader, out io.Writer) error {
	var machine *voice.Machine
	if cfg.CaptureCommand != "" {
		m, err := newVoiceMachine(cfg, out)
		if err != nil {
			return err
		}
		machine = m
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)

	if machine != nil {
		g.Go(func() error {
			if err := machine.Run(gctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		})
	}

	lines := make(chan string)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(in)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-gctx.Done():
				return
			}
		}
	}()

	g.Go(func() error {
		defer cancel()
		return chatLoop(gctx, svc, machine, userID, lines, out)
	})

	return g.Wait()
}

// newVoiceMachine shows dictated text as pending input; it is only sent on /enviar.
func newVoiceMachine(cfg *config.Config, out io.Writer) (*voice.Machine, error) {
	capturer, err := voicedev.NewCommandCapturer(cfg.CaptureCommand)
	if err != nil {
		return nil, err
	}
	player, err := voicedev.NewCommandPlayer(cfg.PlaybackCommand)
	if err != nil {
		return nil, err
	}

	var m *voice.Machine
	m = voice.NewMachine(capturer, player, cfg.Locale, voice.WithObserver(func(from, to voice.State) {
		switch to {
		case voice.StateListening:
			fmt.Fprintln(out, "[escuchando...]")
		case voice.StateSpeaking:
			fmt.Fprintln(out, "[hablando...]")
		}
		if from == voice.StateListening && to == voice.StateIdle {
			if text := m.PendingInput(); text != "" {
				fmt.Fprintf(out, "[pendiente] %s (/enviar para mandarlo)\n", text)
			}
		}
	}))
	return m, nil
}

func chatLoop(
	ctx context.Context,
	svc *conversation.Service,
	machine *voice.Machine,
	userID domain.UserID,
	lines <-chan string,
	out io.Writer,
) error {
	msgs, err := svc.History(ctx, userID)
	if err != nil {
		return err
	}
	for _, m := range msgs {
		printMessage(out, m)
	}
	fmt.Fprintln(out, chatHelp)

	var lastReply string
	if n := len(msgs); n > 0 && msgs[n-1].Role == domain.RoleAssistant {
		lastReply = msgs[n-1].Text
	}

	for {
		var line string
		select {
		case <-ctx.Done():
			return nil
		case l, ok := <-lines:
			if !ok {
				return nil
			}
			line = strings.TrimSpace(l)
		}

		switch line {
		case "":
			continue
		case "/salir":
			return nil
		case "/borrar":
			if err := svc.Clear(ctx, userID); err != nil {
				fmt.Fprintln(out, "no se pudo borrar el historial:", err)
				continue
			}
			lastReply = ""
			fmt.Fprintln(out, "historial borrado")
			continue
		case "/voz":
			voiceCommand(out, machine, func(m *voice.Machine) error { return m.StartCapture(ctx) })
			continue
		case "/leer":
			voiceCommand(out, machine, func(m *voice.Machine) error { return m.StartPlayback(ctx, lastReply) })
			continue
		case "/enviar":
			if machine == nil {
				fmt.Fprintln(out, voiceDisabled)
				continue
			}
			line = machine.TakePendingInput()
			if line == "" {
				fmt.Fprintln(out, "no hay texto dictado pendiente")
				continue
			}
			fmt.Fprintf(out, "tú (voz)> %s\n", line)
		}

		res, err := svc.Send(ctx, userID, line)
		if err != nil {
			fmt.Fprintln(out, "no se pudo enviar el mensaje:", err)
			continue
		}
		printMessage(out, res.AssistantMessage)
		lastReply = res.AssistantMessage.Text
	}
}

func voiceCommand(out io.Writer, m *voice.Machine, fn func(*voice.Machine) error) {
	if m == nil {
		fmt.Fprintln(out, voiceDisabled)
		return
	}
	if err := fn(m); err != nil {
		fmt.Fprintln(out, "voz:", err)
	}
}

func printMessage(out io.Writer, m *domain.ChatMessage) {
	who := "tú"
	if m.Role == domain.RoleAssistant {
		who = "health-ai"
	}
	fmt.Fprintf(out, "%s> %s\n", who, m.Text)
}
