package assessment

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/PabloGalante/healthai-agent/internal/app/modelchain"
	"github.com/PabloGalante/healthai-agent/internal/app/prompt"
	"github.com/PabloGalante/healthai-agent/internal/domain"
	"github.com/PabloGalante/healthai-agent/internal/observability"
)

// Service scores questionnaires, asks the backend for a short clinical
// impression and stores the result.
type Service struct {
	store  domain.AssessmentStore
	chain  *modelchain.Chain
	items  []domain.QuestionnaireItem
	scales map[domain.Category]domain.CategoryScale
	now    func() time.Time
}

func NewService(store domain.AssessmentStore, chain *modelchain.Chain) *Service {
	qs := Items()
	return &Service{
		store:  store,
		chain:  chain,
		items:  qs,
		scales: Scales(qs),
		now:    time.Now,
	}
}

// Questionnaire returns the items and their category maxima.
func (s *Service) Questionnaire() ([]domain.QuestionnaireItem, map[domain.Category]domain.CategoryScale) {
	return Items(), Scales(s.items)
}

// Submit validates and scores answers, then persists the record.
// Backend failures degrade to a static analysis; store failures are returned.
func (s *Service) Submit(ctx context.Context, userID domain.UserID, answers domain.AnswerSet) (*domain.AssessmentRecord, error) {
	log := observability.LoggerFromContext(ctx).With("user_id", userID)

	if err := Validate(answers, s.items); err != nil {
		log.Info("assessment rejected", "error", err)
		return nil, err
	}

	report := Score(answers, s.items, s.now())
	log.Info("assessment scored",
		"total_score", report.TotalScore,
		"interpretation", report.Interpretation)

	analysis := s.chain.GenerateOr(ctx, domain.GenerationRequest{
		Message: prompt.ClinicalReport(report, s.scales),
	}, modelchain.FallbackAssessment)

	stored := make(domain.AnswerSet, len(answers))
	for k, v := range answers {
		stored[k] = v
	}

	rec := &domain.AssessmentRecord{
		ID:       domain.AssessmentID(uuid.NewString()),
		UserID:   userID,
		Report:   report,
		Analysis: analysis,
		Answers:  stored,
	}

	if err := s.store.AppendAssessment(ctx, rec); err != nil {
		log.Error("failed to store assessment", "error", err)
		return nil, fmt.Errorf("store assessment: %w", err)
	}

	return rec, nil
}

// History returns every stored assessment, oldest first.
func (s *Service) History(ctx context.Context, userID domain.UserID) ([]*domain.AssessmentRecord, error) {
	recs, err := s.store.ListAssessments(ctx, userID)
	if err != nil {
		observability.LoggerFromContext(ctx).Error("failed to list assessments", "user_id", userID, "error", err)
		return nil, err
	}
	return recs, nil
}

// TrendPoint is one assessment expressed as percentages of each maximum.
type TrendPoint struct {
	CreatedAt      time.Time                   `json:"created_at"`
	Percentages    map[domain.Category]float64 `json:"percentages"`
	Interpretation domain.Interpretation       `json:"interpretation"`
}

// Trend turns the history into chartable points.
func (s *Service) Trend(ctx context.Context, userID domain.UserID) ([]TrendPoint, error) {
	recs, err := s.History(ctx, userID)
	if err != nil {
		return nil, err
	}

	out := make([]TrendPoint, 0, len(recs))
	for _, r := range recs {
		out = append(out, TrendPoint{
			CreatedAt:      r.Report.CreatedAt,
			Percentages:    Percentages(r.Report, s.scales),
			Interpretation: r.Report.Interpretation,
		})
	}
	return out, nil
}
