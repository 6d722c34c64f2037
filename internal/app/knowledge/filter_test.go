package knowledge_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PabloGalante/healthai-agent/internal/app/knowledge"
	"github.com/PabloGalante/healthai-agent/internal/domain"
)

var library = []domain.KnowledgeDocument{
	{Title: "Respiración", Content: "Técnicas para reducir la ansiedad con respiración diafragmática."},
	{Title: "Sueño", Content: "Higiene del sueño y rutinas nocturnas."},
	{Title: "Estrés laboral", Content: "El ESTRÉS en el trabajo se maneja con pausas activas."},
	{Title: "Duelo", Content: "La tristeza es parte natural del duelo."},
}

func newFilter() *knowledge.Filter {
	return knowledge.NewFilter(knowledge.DefaultKeywords, 0, "es-ES")
}

func TestRelevantSelectsByKeywordCoOccurrence(t *testing.T) {
	out := newFilter().Relevant("Últimamente siento mucha Ansiedad", library)

	assert.Contains(t, out, "\n--- FUENTE: Respiración ---\n")
	assert.NotContains(t, out, "Sueño")
	assert.NotContains(t, out, "Duelo")
}

func TestRelevantIsCaseInsensitive(t *testing.T) {
	out := newFilter().Relevant("tengo estrés y tristeza", library)

	assert.Contains(t, out, "FUENTE: Estrés laboral")
	assert.Contains(t, out, "FUENTE: Duelo")
}

func TestRelevantEmptyWithoutKeywords(t *testing.T) {
	assert.Empty(t, newFilter().Relevant("hoy comí pasta", library))
	assert.Empty(t, newFilter().Relevant("ansiedad", nil))
}

func TestRelevantIgnoresOrderOfDocuments(t *testing.T) {
	reversed := make([]domain.KnowledgeDocument, len(library))
	for i, d := range library {
		reversed[len(library)-1-i] = d
	}

	msg := "ansiedad, estrés y tristeza"
	f := newFilter()
	assert.Equal(t, f.Relevant(msg, library), f.Relevant(msg, reversed))
}

func TestRelevantGrowsWithMoreKeywords(t *testing.T) {
	f := newFilter()
	narrow := f.Relevant("ansiedad", library)
	wide := f.Relevant("ansiedad y tristeza", library)

	require.NotEmpty(t, narrow)
	assert.Contains(t, wide, narrow)
	assert.Greater(t, len(wide), len(narrow))
}

func TestRelevantUnaffectedByUnrelatedDocuments(t *testing.T) {
	f := newFilter()
	msg := "siento ansiedad"

	extended := append([]domain.KnowledgeDocument{
		{Title: "Alimentación", Content: "Come frutas y verduras."},
	}, library...)
	assert.Equal(t, f.Relevant(msg, library), f.Relevant(msg, extended))
}

func TestRelevantSkipsIncompleteDocuments(t *testing.T) {
	docs := []domain.KnowledgeDocument{
		{Title: "", Content: "ansiedad sin título"},
		{Title: "Vacío", Content: ""},
	}
	assert.Empty(t, newFilter().Relevant("ansiedad", docs))
}

func TestRelevantEmitsEachDocumentOnce(t *testing.T) {
	out := newFilter().Relevant("estrés, ESTRÉS y más estrés", library)
	assert.Equal(t, 1, strings.Count(out, "FUENTE: Estrés laboral"))
}

func TestRelevantRespectsBudget(t *testing.T) {
	docs := []domain.KnowledgeDocument{
		{Title: "A", Content: "ansiedad " + strings.Repeat("a", 50)},
		{Title: "B", Content: "ansiedad " + strings.Repeat("b", 500)},
		{Title: "C", Content: "ansiedad corta"},
	}
	f := knowledge.NewFilter([]string{"ansiedad"}, 120, "es")

	out := f.Relevant("ansiedad", docs)
	assert.Contains(t, out, "FUENTE: A")
	assert.NotContains(t, out, "FUENTE: B")
	assert.Contains(t, out, "FUENTE: C")
	assert.LessOrEqual(t, len([]rune(out)), 120)
}

func TestNewFilterNormalizesKeywords(t *testing.T) {
	f := knowledge.NewFilter([]string{"  MIEDO ", "miedo", ""}, 0, "not a tag")

	out := f.Relevant("tengo miedo", []domain.KnowledgeDocument{{Title: "Fobias", Content: "El miedo irracional"}})
	assert.Equal(t, "\n--- FUENTE: Fobias ---\nEl miedo irracional\n", out)
}

func TestLoadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kb.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`documents:
  - title: Manejo de la ansiedad
    content: Respira profundo.
  - title: Estrés
    content: Organiza tus pausas.
`), 0o600))

	docs, err := knowledge.LoadYAML(path)
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "Manejo de la ansiedad", docs[0].Title)
	assert.Equal(t, "Organiza tus pausas.", docs[1].Content)

	_, err = knowledge.LoadYAML(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}
