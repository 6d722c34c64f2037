// Package knowledge selects background documents for a conversational turn
// by keyword co-occurrence. It is not a semantic search.
package knowledge

import (
	"sort"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/PabloGalante/healthai-agent/internal/domain"
)

// DefaultKeywords are the emotional topics that trigger retrieval.
var DefaultKeywords = []string{"estrés", "ansiedad", "depresión", "tristeza", "miedo", "preocupación", "angustia"}

// DefaultMaxChars bounds the concatenated knowledge injected into one prompt.
const DefaultMaxChars = 12000

// Filter picks the knowledge documents that share a keyword with a message.
type Filter struct {
	keywords []string
	maxChars int
	tag      language.Tag
}

// NewFilter builds a filter for the given language tag (e.g. "es-ES").
// maxChars <= 0 disables the size budget.
func NewFilter(keywords []string, maxChars int, lang string) *Filter {
	tag, err := language.Parse(lang)
	if err != nil {
		tag = language.Spanish
	}
	lower := cases.Lower(tag)

	kws := make([]string, 0, len(keywords))
	seen := make(map[string]struct{}, len(keywords))
	for _, k := range keywords {
		k = lower.String(strings.TrimSpace(k))
		if k == "" {
			continue
		}
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		kws = append(kws, k)
	}

	return &Filter{keywords: kws, maxChars: maxChars, tag: tag}
}

// Relevant returns the concatenated content of every document sharing at
// least one keyword with message, each under a source header. Documents are
// emitted sorted by title, then content, so the result does not depend on
// the order of docs. Empty when nothing qualifies.
func (f *Filter) Relevant(message string, docs []domain.KnowledgeDocument) string {
	// A Caser is stateful, so each call gets its own.
	lower := cases.Lower(f.tag)
	msg := lower.String(message)

	var present []string
	for _, k := range f.keywords {
		if strings.Contains(msg, k) {
			present = append(present, k)
		}
	}
	if len(present) == 0 {
		return ""
	}

	var selected []domain.KnowledgeDocument
	for _, d := range docs {
		if d.Title == "" || d.Content == "" {
			continue
		}
		content := lower.String(d.Content)
		for _, k := range present {
			if strings.Contains(content, k) {
				selected = append(selected, d)
				break
			}
		}
	}

	sort.SliceStable(selected, func(i, j int) bool {
		if selected[i].Title != selected[j].Title {
			return selected[i].Title < selected[j].Title
		}
		return selected[i].Content < selected[j].Content
	})

	var b strings.Builder
	used := 0
	for _, d := range selected {
		block := "\n--- FUENTE: " + d.Title + " ---\n" + d.Content + "\n"
		n := utf8.RuneCountInString(block)
		if f.maxChars > 0 && used+n > f.maxChars {
			continue
		}
		used += n
		b.WriteString(block)
	}
	return b.String()
}
