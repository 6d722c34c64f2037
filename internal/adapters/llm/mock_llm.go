package llm

import (
	"context"
	"fmt"

	"github.com/PabloGalante/healthai-agent/internal/domain"
)

// MockLLM answers locally without any backend. Useful for dev and tests.
type MockLLM struct{}

func NewMockLLM() *MockLLM {
	return &MockLLM{}
}

func (m *MockLLM) GenerateReply(_ context.Context, modelID string, req domain.GenerationRequest) (string, error) {
	return fmt.Sprintf("Te escucho. Dijiste %q. ¿Podrías contarme un poco más sobre cómo te hace sentir eso?", req.Message), nil
}
