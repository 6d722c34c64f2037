// Package modelchain tries an ordered list of backend models until one answers.
package modelchain

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/PabloGalante/healthai-agent/internal/domain"
	"github.com/PabloGalante/healthai-agent/internal/observability"
)

var (
	ErrNoModels        = errors.New("no models configured")
	ErrAllModelsFailed = errors.New("all models failed")
)

// Static replies used when every model fails, one per call site.
const (
	FallbackAssessment   = "Tus resultados han sido guardados, pero no pude generar el análisis de texto en este momento."
	FallbackJournal      = "Emoción: Neutro\nReflexión: Gracias por registrar tus pensamientos hoy."
	FallbackConversation = "Lo siento, ocurrió un problema técnico. Por favor, intenta de nuevo."
)

// DefaultModels is the preference order used when none is configured.
var DefaultModels = []string{
	"gemini-2.5-flash",
	"gemini-2.5-flash-latest",
	"gemini-pro",
	"gemini-2.0-pro",
}

// Chain runs generation attempts strictly one after another, never in parallel.
type Chain struct {
	llm            domain.LLMClient
	models         []string
	perCallTimeout time.Duration
}

// New builds a chain. perCallTimeout <= 0 leaves each attempt bounded only by ctx.
func New(llm domain.LLMClient, models []string, perCallTimeout time.Duration) *Chain {
	ms := make([]string, 0, len(models))
	for _, m := range models {
		if m = strings.TrimSpace(m); m != "" {
			ms = append(ms, m)
		}
	}
	return &Chain{
		llm:            llm,
		models:         ms,
		perCallTimeout: perCallTimeout,
	}
}

// Models returns the configured order.
func (c *Chain) Models() []string {
	out := make([]string, len(c.models))
	copy(out, c.models)
	return out
}

// Generate returns the first successful reply. A failed model is skipped
// without retry or backoff.
func (c *Chain) Generate(ctx context.Context, req domain.GenerationRequest) (string, error) {
	if len(c.models) == 0 {
		return "", ErrNoModels
	}

	log := observability.LoggerFromContext(ctx)

	for i, model := range c.models {
		if err := ctx.Err(); err != nil {
			return "", fmt.Errorf("%w: %w", ErrAllModelsFailed, err)
		}

		start := time.Now()
		text, err := c.attempt(ctx, model, req)
		elapsed := time.Since(start)

		if err != nil {
			log.Warn("model attempt failed",
				"model", model,
				"attempt", i+1,
				"elapsed_ms", elapsed.Milliseconds(),
				"error", err)
			continue
		}

		log.Info("model attempt succeeded",
			"model", model,
			"attempt", i+1,
			"elapsed_ms", elapsed.Milliseconds())
		return text, nil
	}

	return "", fmt.Errorf("%w: %d models tried", ErrAllModelsFailed, len(c.models))
}

// GenerateOr is Generate with a degraded but always successful result.
func (c *Chain) GenerateOr(ctx context.Context, req domain.GenerationRequest, fallback string) string {
	text, err := c.Generate(ctx, req)
	if err != nil {
		observability.LoggerFromContext(ctx).Error("model chain exhausted, using fallback", "error", err)
		return fallback
	}
	return text
}

func (c *Chain) attempt(ctx context.Context, model string, req domain.GenerationRequest) (string, error) {
	if c.perCallTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.perCallTimeout)
		defer cancel()
	}

	text, err := c.llm.GenerateReply(ctx, model, req)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(text) == "" {
		return "", errors.New("empty reply")
	}
	return text, nil
}
