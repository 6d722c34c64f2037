package assessment

import (
	"fmt"
	"time"

	"github.com/PabloGalante/healthai-agent/internal/domain"
)

// threshold above which a category is considered clinically relevant,
// and below which every category must sit for a "Healthy" label.
const (
	elevatedThreshold = 10
	healthyThreshold  = 5
)

// Validate checks that answers cover every item with an in-range value.
// It is the caller's precondition for Score.
func Validate(answers domain.AnswerSet, items []domain.QuestionnaireItem) error {
	known := make(map[int]struct{}, len(items))
	for _, it := range items {
		known[it.ID] = struct{}{}
	}

	for id, v := range answers {
		if _, ok := known[id]; !ok {
			return fmt.Errorf("%w: unknown item %d", domain.ErrInvalidAnswer, id)
		}
		if v < 0 || v > domain.MaxItemValue {
			return fmt.Errorf("%w: item %d has value %d", domain.ErrInvalidAnswer, id, v)
		}
	}

	answered := 0
	for _, it := range items {
		if _, ok := answers[it.ID]; ok {
			answered++
		}
	}
	if answered < len(items) {
		return fmt.Errorf("%w: %d/%d answered", domain.ErrIncompleteAnswers, answered, len(items))
	}
	return nil
}

// Score reduces a complete AnswerSet into category totals and an interpretation.
func Score(answers domain.AnswerSet, items []domain.QuestionnaireItem, now time.Time) domain.ScoreReport {
	scores := make(map[domain.Category]int, len(domain.Categories))
	for _, c := range domain.Categories {
		scores[c] = 0
	}
	for _, it := range items {
		scores[it.Category] += answers[it.ID]
	}

	total := 0
	for _, v := range scores {
		total += v
	}

	return domain.ScoreReport{
		Scores:     scores,
		TotalScore: total,
		Interpretation: Interpret(
			scores[domain.CategoryDepression],
			scores[domain.CategoryAnxiety],
			scores[domain.CategoryStress],
		),
		CreatedAt: now,
	}
}

// Interpret applies the rule chain in order; every matching rule overwrites
// the label set by the rules before it.
func Interpret(depression, anxiety, stress int) domain.Interpretation {
	label := domain.InterpretationBalanced
	if depression >= elevatedThreshold {
		label = domain.InterpretationDepression
	}
	if anxiety >= elevatedThreshold && anxiety > depression {
		label = domain.InterpretationAnxiety
	}
	if stress >= elevatedThreshold && stress > anxiety {
		label = domain.InterpretationStress
	}
	if depression < healthyThreshold && anxiety < healthyThreshold && stress < healthyThreshold {
		label = domain.InterpretationHealthy
	}
	return label
}

// Percentages expresses each category score as a share of its maximum (0-100).
func Percentages(report domain.ScoreReport, scales map[domain.Category]domain.CategoryScale) map[domain.Category]float64 {
	out := make(map[domain.Category]float64, len(scales))
	for c, sc := range scales {
		if sc.MaxScore == 0 {
			out[c] = 0
			continue
		}
		out[c] = float64(report.Scores[c]) / float64(sc.MaxScore) * 100
	}
	return out
}
