package firestore

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/PabloGalante/healthai-agent/internal/domain"
)

// Store keeps every per-user collection under users/{uid} and the shared
// knowledge base in a top-level collection.
type Store struct {
	client *firestore.Client
}

// NewStore creates a Firestore store.
// Uses the project passed (HEALTHAI_GCP_PROJECT).
func NewStore(ctx context.Context, projectID string) (*Store, error) {
	if projectID == "" {
		return nil, fmt.Errorf("projectID is required for Firestore store")
	}

	client, err := firestore.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("creating firestore client: %w", err)
	}

	return &Store{client: client}, nil
}

func (s *Store) Close() error {
	return s.client.Close()
}

// ─────────────────────────────────────────
// Helpers
// ─────────────────────────────────────────

func (s *Store) userDoc(id domain.UserID) *firestore.DocumentRef {
	return s.client.Collection("users").Doc(string(id))
}

func (s *Store) chatCol(id domain.UserID) *firestore.CollectionRef {
	return s.userDoc(id).Collection("chat_history")
}

func (s *Store) journalCol(id domain.UserID) *firestore.CollectionRef {
	return s.userDoc(id).Collection("journal")
}

func (s *Store) assessmentsCol(id domain.UserID) *firestore.CollectionRef {
	return s.userDoc(id).Collection("assessments")
}

func (s *Store) knowledgeCol() *firestore.CollectionRef {
	return s.client.Collection("knowledge_base")
}

// eachDoc drains a query iterator.
func eachDoc(it *firestore.DocumentIterator, fn func(*firestore.DocumentSnapshot) error) error {
	defer it.Stop()
	for {
		snap, err := it.Next()
		if errors.Is(err, iterator.Done) {
			return nil
		}
		if err != nil {
			return err
		}
		if err := fn(snap); err != nil {
			return err
		}
	}
}

// bulkJob is the part of *firestore.BulkWriterJob read after End.
type bulkJob interface {
	Results() (*firestore.WriteResult, error)
}

// firstJobError waits on every job and returns the first write that failed.
func firstJobError(jobs []bulkJob) error {
	var first error
	for _, j := range jobs {
		if _, err := j.Results(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// ─────────────────────────────────────────
// Firestore Types
// ─────────────────────────────────────────

type messageDoc struct {
	Text      string    `firestore:"text"`
	Role      string    `firestore:"role"`
	CreatedAt time.Time `firestore:"createdAt"`
}

type journalDoc struct {
	Text       string    `firestore:"text"`
	Emotion    string    `firestore:"emotion"`
	Reflection string    `firestore:"reflection"`
	CreatedAt  time.Time `firestore:"createdAt"`
}

type assessmentDoc struct {
	Scores         map[string]int `firestore:"scores"`
	TotalScore     int            `firestore:"totalScore"`
	Interpretation string         `firestore:"interpretation"`
	Analysis       string         `firestore:"ai_analysis"`
	Answers        map[string]int `firestore:"answers"`
	CreatedAt      time.Time      `firestore:"createdAt"`
}

type profileDoc struct {
	FullName string `firestore:"full_name"`
	Bio      string `firestore:"bio"`
}

type knowledgeDoc struct {
	Title   string `firestore:"title"`
	Content string `firestore:"content"`
}

// ─────────────────────────────────────────
// ChatStore implementation
// ─────────────────────────────────────────

func (s *Store) AppendMessage(ctx context.Context, msg *domain.ChatMessage) error {
	doc := messageDoc{
		Text:      msg.Text,
		Role:      string(msg.Role),
		CreatedAt: msg.CreatedAt,
	}

	// Create, not Set: messages are never rewritten.
	if _, err := s.chatCol(msg.UserID).Doc(string(msg.ID)).Create(ctx, doc); err != nil {
		return fmt.Errorf("firestore AppendMessage: %w", err)
	}
	return nil
}

func (s *Store) ListMessages(ctx context.Context, userID domain.UserID, limit int) ([]*domain.ChatMessage, error) {
	// Message ids are time-ordered, so they break createdAt ties.
	q := s.chatCol(userID).
		OrderBy("createdAt", firestore.Asc).
		OrderBy(firestore.DocumentID, firestore.Asc)
	if limit > 0 {
		q = q.LimitToLast(limit)
	}

	// LimitToLast queries cannot be streamed, only read whole.
	snaps, err := q.Documents(ctx).GetAll()
	if err != nil {
		return nil, fmt.Errorf("firestore ListMessages: %w", err)
	}

	out := make([]*domain.ChatMessage, 0, len(snaps))
	for _, snap := range snaps {
		var doc messageDoc
		if err := snap.DataTo(&doc); err != nil {
			return nil, fmt.Errorf("firestore ListMessages: decode messageDoc: %w", err)
		}
		out = append(out, &domain.ChatMessage{
			ID:        domain.MessageID(snap.Ref.ID),
			UserID:    userID,
			Role:      domain.Role(doc.Role),
			Text:      doc.Text,
			CreatedAt: doc.CreatedAt,
		})
	}
	return out, nil
}

func (s *Store) ClearMessages(ctx context.Context, userID domain.UserID) error {
	bw := s.client.BulkWriter(ctx)

	var jobs []bulkJob
	err := eachDoc(s.chatCol(userID).Documents(ctx), func(snap *firestore.DocumentSnapshot) error {
		job, err := bw.Delete(snap.Ref)
		if err != nil {
			return err
		}
		jobs = append(jobs, job)
		return nil
	})
	bw.End()
	if err == nil {
		err = firstJobError(jobs)
	}
	if err != nil {
		return fmt.Errorf("firestore ClearMessages: %w", err)
	}
	return nil
}

// ─────────────────────────────────────────
// JournalStore implementation
// ─────────────────────────────────────────

func (s *Store) AppendJournalEntry(ctx context.Context, entry *domain.JournalEntry) error {
	doc := journalDoc{
		Text:       entry.Text,
		Emotion:    entry.Emotion,
		Reflection: entry.Reflection,
		CreatedAt:  entry.CreatedAt,
	}

	if _, err := s.journalCol(entry.UserID).Doc(string(entry.ID)).Create(ctx, doc); err != nil {
		return fmt.Errorf("firestore AppendJournalEntry: %w", err)
	}
	return nil
}

func (s *Store) ListJournalEntries(ctx context.Context, userID domain.UserID, limit int) ([]*domain.JournalEntry, error) {
	q := s.journalCol(userID).OrderBy("createdAt", firestore.Desc)
	if limit > 0 {
		q = q.Limit(limit)
	}

	var out []*domain.JournalEntry
	err := eachDoc(q.Documents(ctx), func(snap *firestore.DocumentSnapshot) error {
		var doc journalDoc
		if err := snap.DataTo(&doc); err != nil {
			return fmt.Errorf("decode journalDoc: %w", err)
		}
		out = append(out, &domain.JournalEntry{
			ID:         domain.JournalEntryID(snap.Ref.ID),
			UserID:     userID,
			Text:       doc.Text,
			Emotion:    doc.Emotion,
			Reflection: doc.Reflection,
			CreatedAt:  doc.CreatedAt,
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("firestore ListJournalEntries: %w", err)
	}
	return out, nil
}

// ─────────────────────────────────────────
// AssessmentStore implementation
// ─────────────────────────────────────────

func (s *Store) AppendAssessment(ctx context.Context, rec *domain.AssessmentRecord) error {
	scores := make(map[string]int, len(rec.Report.Scores))
	for c, v := range rec.Report.Scores {
		scores[string(c)] = v
	}
	answers := make(map[string]int, len(rec.Answers))
	for id, v := range rec.Answers {
		answers[strconv.Itoa(id)] = v
	}

	doc := assessmentDoc{
		Scores:         scores,
		TotalScore:     rec.Report.TotalScore,
		Interpretation: string(rec.Report.Interpretation),
		Analysis:       rec.Analysis,
		Answers:        answers,
		CreatedAt:      rec.Report.CreatedAt,
	}

	if _, err := s.assessmentsCol(rec.UserID).Doc(string(rec.ID)).Create(ctx, doc); err != nil {
		return fmt.Errorf("firestore AppendAssessment: %w", err)
	}
	return nil
}

func (s *Store) ListAssessments(ctx context.Context, userID domain.UserID) ([]*domain.AssessmentRecord, error) {
	q := s.assessmentsCol(userID).OrderBy("createdAt", firestore.Asc)

	var out []*domain.AssessmentRecord
	err := eachDoc(q.Documents(ctx), func(snap *firestore.DocumentSnapshot) error {
		var doc assessmentDoc
		if err := snap.DataTo(&doc); err != nil {
			return fmt.Errorf("decode assessmentDoc: %w", err)
		}

		scores := make(map[domain.Category]int, len(doc.Scores))
		for c, v := range doc.Scores {
			scores[domain.Category(c)] = v
		}
		answers := make(domain.AnswerSet, len(doc.Answers))
		for k, v := range doc.Answers {
			id, err := strconv.Atoi(k)
			if err != nil {
				continue
			}
			answers[id] = v
		}

		out = append(out, &domain.AssessmentRecord{
			ID:     domain.AssessmentID(snap.Ref.ID),
			UserID: userID,
			Report: domain.ScoreReport{
				Scores:         scores,
				TotalScore:     doc.TotalScore,
				Interpretation: domain.Interpretation(doc.Interpretation),
				CreatedAt:      doc.CreatedAt,
			},
			Analysis: doc.Analysis,
			Answers:  answers,
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("firestore ListAssessments: %w", err)
	}
	return out, nil
}

// ─────────────────────────────────────────
// ProfileStore implementation
// ─────────────────────────────────────────

func (s *Store) GetProfile(ctx context.Context, userID domain.UserID) (*domain.Profile, error) {
	snap, err := s.userDoc(userID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("firestore GetProfile: %w", err)
	}

	var doc profileDoc
	if err := snap.DataTo(&doc); err != nil {
		return nil, fmt.Errorf("firestore GetProfile decode: %w", err)
	}

	return &domain.Profile{
		UserID:   userID,
		FullName: doc.FullName,
		Bio:      doc.Bio,
	}, nil
}

func (s *Store) SaveProfile(ctx context.Context, p *domain.Profile) error {
	doc := map[string]interface{}{
		"full_name": p.FullName,
		"bio":       p.Bio,
	}

	if _, err := s.userDoc(p.UserID).Set(ctx, doc, firestore.MergeAll); err != nil {
		return fmt.Errorf("firestore SaveProfile: %w", err)
	}
	return nil
}

// ─────────────────────────────────────────
// KnowledgeStore implementation
// ─────────────────────────────────────────

func (s *Store) ListKnowledge(ctx context.Context) ([]domain.KnowledgeDocument, error) {
	var out []domain.KnowledgeDocument
	err := eachDoc(s.knowledgeCol().Documents(ctx), func(snap *firestore.DocumentSnapshot) error {
		var doc knowledgeDoc
		if err := snap.DataTo(&doc); err != nil {
			return fmt.Errorf("decode knowledgeDoc: %w", err)
		}
		out = append(out, domain.KnowledgeDocument{Title: doc.Title, Content: doc.Content})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("firestore ListKnowledge: %w", err)
	}
	return out, nil
}

// SeedKnowledge replaces the shared collection with docs.
func (s *Store) SeedKnowledge(ctx context.Context, docs []domain.KnowledgeDocument) error {
	bw := s.client.BulkWriter(ctx)

	var deletes []bulkJob
	err := eachDoc(s.knowledgeCol().Documents(ctx), func(snap *firestore.DocumentSnapshot) error {
		job, err := bw.Delete(snap.Ref)
		if err != nil {
			return err
		}
		deletes = append(deletes, job)
		return nil
	})
	if err == nil {
		bw.Flush()
		err = firstJobError(deletes)
	}
	if err != nil {
		bw.End()
		return fmt.Errorf("firestore SeedKnowledge clear: %w", err)
	}

	var sets []bulkJob
	for _, d := range docs {
		job, err := bw.Set(s.knowledgeCol().NewDoc(), knowledgeDoc{Title: d.Title, Content: d.Content})
		if err != nil {
			bw.End()
			return fmt.Errorf("firestore SeedKnowledge: %w", err)
		}
		sets = append(sets, job)
	}
	bw.End()
	if err := firstJobError(sets); err != nil {
		return fmt.Errorf("firestore SeedKnowledge: %w", err)
	}
	return nil
}
