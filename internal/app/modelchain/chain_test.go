package modelchain_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PabloGalante/healthai-agent/internal/app/modelchain"
	"github.com/PabloGalante/healthai-agent/internal/domain"
)

// scriptedLLM answers per model id and records the order of calls.
type scriptedLLM struct {
	mu      sync.Mutex
	replies map[string]string
	errs    map[string]error
	block   map[string]bool
	calls   []string
}

func (s *scriptedLLM) GenerateReply(ctx context.Context, modelID string, _ domain.GenerationRequest) (string, error) {
	s.mu.Lock()
	s.calls = append(s.calls, modelID)
	block := s.block[modelID]
	reply, err := s.replies[modelID], s.errs[modelID]
	s.mu.Unlock()

	if block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	return reply, err
}

func (s *scriptedLLM) Calls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.calls...)
}

var errUnavailable = errors.New("model unavailable")

func TestGenerateFirstModelWins(t *testing.T) {
	llm := &scriptedLLM{replies: map[string]string{"a": "hola", "b": "otra"}}
	chain := modelchain.New(llm, []string{"a", "b"}, 0)

	out, err := chain.Generate(context.Background(), domain.GenerationRequest{Message: "hi"})
	require.NoError(t, err)
	assert.Equal(t, "hola", out)
	assert.Equal(t, []string{"a"}, llm.Calls())
}

func TestGenerateFallsThroughInOrder(t *testing.T) {
	llm := &scriptedLLM{
		replies: map[string]string{"c": "desde c", "d": "desde d"},
		errs:    map[string]error{"a": errUnavailable, "b": errUnavailable},
	}
	chain := modelchain.New(llm, []string{"a", "b", "c", "d"}, 0)

	out, err := chain.Generate(context.Background(), domain.GenerationRequest{Message: "hi"})
	require.NoError(t, err)
	assert.Equal(t, "desde c", out)
	assert.Equal(t, []string{"a", "b", "c"}, llm.Calls())
}

func TestGenerateAllFail(t *testing.T) {
	llm := &scriptedLLM{errs: map[string]error{"a": errUnavailable, "b": errUnavailable}}
	chain := modelchain.New(llm, []string{"a", "b"}, 0)

	_, err := chain.Generate(context.Background(), domain.GenerationRequest{Message: "hi"})
	require.ErrorIs(t, err, modelchain.ErrAllModelsFailed)
	assert.Equal(t, []string{"a", "b"}, llm.Calls(), "each model is tried exactly once")
}

func TestGenerateEmptyReplyCountsAsFailure(t *testing.T) {
	llm := &scriptedLLM{replies: map[string]string{"a": "   ", "b": "bien"}}
	chain := modelchain.New(llm, []string{"a", "b"}, 0)

	out, err := chain.Generate(context.Background(), domain.GenerationRequest{Message: "hi"})
	require.NoError(t, err)
	assert.Equal(t, "bien", out)
}

func TestGenerateNoModels(t *testing.T) {
	chain := modelchain.New(&scriptedLLM{}, []string{"", "  "}, 0)

	_, err := chain.Generate(context.Background(), domain.GenerationRequest{})
	require.ErrorIs(t, err, modelchain.ErrNoModels)
	assert.Empty(t, chain.Models())
}

func TestGeneratePerCallTimeoutMovesOn(t *testing.T) {
	llm := &scriptedLLM{
		block:   map[string]bool{"slow": true},
		replies: map[string]string{"fast": "listo"},
	}
	chain := modelchain.New(llm, []string{"slow", "fast"}, 20*time.Millisecond)

	out, err := chain.Generate(context.Background(), domain.GenerationRequest{Message: "hi"})
	require.NoError(t, err)
	assert.Equal(t, "listo", out)
}

func TestGenerateStopsOnCancelledContext(t *testing.T) {
	llm := &scriptedLLM{replies: map[string]string{"a": "hola"}}
	chain := modelchain.New(llm, []string{"a"}, 0)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := chain.Generate(ctx, domain.GenerationRequest{Message: "hi"})
	require.ErrorIs(t, err, modelchain.ErrAllModelsFailed)
	require.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, llm.Calls())
}

func TestGenerateOrReturnsFallback(t *testing.T) {
	llm := &scriptedLLM{errs: map[string]error{"a": errUnavailable}}
	chain := modelchain.New(llm, []string{"a"}, 0)

	out := chain.GenerateOr(context.Background(), domain.GenerationRequest{}, modelchain.FallbackJournal)
	assert.Equal(t, modelchain.FallbackJournal, out)
}

func TestModelsReturnsCopy(t *testing.T) {
	chain := modelchain.New(&scriptedLLM{}, modelchain.DefaultModels, 0)

	ms := chain.Models()
	ms[0] = "changed"
	assert.Equal(t, modelchain.DefaultModels[0], chain.Models()[0])
}
