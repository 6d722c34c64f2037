package assessment_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PabloGalante/healthai-agent/internal/app/assessment"
	"github.com/PabloGalante/healthai-agent/internal/domain"
)

// answersFor fills every item of a category with the given value so the
// category totals are easy to reason about.
func answersFor(d, a, s int) domain.AnswerSet {
	out := domain.AnswerSet{}
	for _, it := range assessment.Items() {
		switch it.Category {
		case domain.CategoryDepression:
			out[it.ID] = d
		case domain.CategoryAnxiety:
			out[it.ID] = a
		case domain.CategoryStress:
			out[it.ID] = s
		}
	}
	return out
}

func TestQuestionnaireShape(t *testing.T) {
	items := assessment.Items()
	require.Len(t, items, 22)

	scales := assessment.Scales(items)
	assert.Equal(t, 27, scales[domain.CategoryDepression].MaxScore)
	assert.Equal(t, 21, scales[domain.CategoryAnxiety].MaxScore)
	assert.Equal(t, 18, scales[domain.CategoryStress].MaxScore)

	opts := assessment.Options()
	require.Len(t, opts, 4)
	assert.Equal(t, "Nunca", opts[0].Label)
	assert.Equal(t, 3, opts[3].Value)
}

func TestScoreTotalsAndBounds(t *testing.T) {
	items := assessment.Items()
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	full := assessment.Score(answersFor(3, 3, 3), items, now)
	assert.Equal(t, 27, full.Scores[domain.CategoryDepression])
	assert.Equal(t, 21, full.Scores[domain.CategoryAnxiety])
	assert.Equal(t, 18, full.Scores[domain.CategoryStress])
	assert.Equal(t, 66, full.TotalScore)
	assert.Equal(t, now, full.CreatedAt)

	zero := assessment.Score(answersFor(0, 0, 0), items, now)
	assert.Equal(t, 0, zero.TotalScore)
	assert.Equal(t, domain.InterpretationHealthy, zero.Interpretation)
	assert.Len(t, zero.Scores, 3)
}

func TestInterpret(t *testing.T) {
	cases := []struct {
		name    string
		d, a, s int
		want    domain.Interpretation
	}{
		{"all low", 4, 4, 4, domain.InterpretationHealthy},
		{"depression only", 10, 4, 4, domain.InterpretationDepression},
		{"anxiety above depression", 10, 12, 4, domain.InterpretationAnxiety},
		{"stress above anxiety", 10, 12, 14, domain.InterpretationStress},
		{"moderate everywhere", 6, 6, 6, domain.InterpretationBalanced},
		{"anxiety tie keeps depression", 12, 12, 0, domain.InterpretationDepression},
		{"stress compares with anxiety only", 20, 2, 11, domain.InterpretationStress},
		{"elevated anxiety not above depression", 15, 11, 0, domain.InterpretationDepression},
		{"healthy needs every score under five", 4, 5, 4, domain.InterpretationBalanced},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, assessment.Interpret(tc.d, tc.a, tc.s))
		})
	}
}

func TestValidate(t *testing.T) {
	items := assessment.Items()

	require.NoError(t, assessment.Validate(answersFor(1, 2, 3), items))

	partial := answersFor(1, 1, 1)
	delete(partial, 22)
	err := assessment.Validate(partial, items)
	require.ErrorIs(t, err, domain.ErrIncompleteAnswers)
	assert.Contains(t, err.Error(), "21/22")

	outOfRange := answersFor(1, 1, 1)
	outOfRange[3] = 4
	require.ErrorIs(t, assessment.Validate(outOfRange, items), domain.ErrInvalidAnswer)

	negative := answersFor(1, 1, 1)
	negative[3] = -1
	require.ErrorIs(t, assessment.Validate(negative, items), domain.ErrInvalidAnswer)

	unknown := answersFor(1, 1, 1)
	unknown[99] = 1
	require.ErrorIs(t, assessment.Validate(unknown, items), domain.ErrInvalidAnswer)

	require.ErrorIs(t, assessment.Validate(domain.AnswerSet{}, items), domain.ErrIncompleteAnswers)
}

func TestPercentages(t *testing.T) {
	items := assessment.Items()
	report := assessment.Score(answersFor(3, 0, 1), items, time.Now())

	pct := assessment.Percentages(report, assessment.Scales(items))
	assert.InDelta(t, 100.0, pct[domain.CategoryDepression], 0.001)
	assert.InDelta(t, 0.0, pct[domain.CategoryAnxiety], 0.001)
	assert.InDelta(t, 33.333, pct[domain.CategoryStress], 0.01)
}
