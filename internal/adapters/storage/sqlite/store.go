// Package sqlite is a single-file local backend for every record store.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/PabloGalante/healthai-agent/internal/domain"
)

const schema = `
CREATE TABLE IF NOT EXISTS chat_messages (
	seq        INTEGER PRIMARY KEY AUTOINCREMENT,
	id         TEXT UNIQUE NOT NULL,
	user_id    TEXT NOT NULL,
	role       TEXT NOT NULL,
	text       TEXT NOT NULL,
	created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_chat_user_created ON chat_messages(user_id, created_at, seq);

CREATE TABLE IF NOT EXISTS journal_entries (
	seq        INTEGER PRIMARY KEY AUTOINCREMENT,
	id         TEXT UNIQUE NOT NULL,
	user_id    TEXT NOT NULL,
	text       TEXT NOT NULL,
	emotion    TEXT NOT NULL,
	reflection TEXT NOT NULL,
	created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_journal_user_created ON journal_entries(user_id, created_at);

CREATE TABLE IF NOT EXISTS assessments (
	seq            INTEGER PRIMARY KEY AUTOINCREMENT,
	id             TEXT UNIQUE NOT NULL,
	user_id        TEXT NOT NULL,
	scores         TEXT NOT NULL,
	total_score    INTEGER NOT NULL,
	interpretation TEXT NOT NULL,
	analysis       TEXT NOT NULL,
	answers        TEXT NOT NULL,
	created_at     INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_assessments_user_created ON assessments(user_id, created_at);

CREATE TABLE IF NOT EXISTS profiles (
	user_id   TEXT PRIMARY KEY,
	full_name TEXT NOT NULL,
	bio       TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS knowledge_documents (
	seq     INTEGER PRIMARY KEY AUTOINCREMENT,
	title   TEXT NOT NULL,
	content TEXT NOT NULL
)
`

type Store struct {
	db *sql.DB
}

// NewStore opens (or creates) the database at path. ":memory:" works for tests.
func NewStore(ctx context.Context, path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// One connection keeps ":memory:" databases shared and writes serialized.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	for _, pragma := range []string{"PRAGMA journal_mode=WAL", "PRAGMA busy_timeout=5000"} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("sqlite %s: %w", pragma, err)
		}
	}

	s := &Store{db: db}
	if err := s.initSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) initSchema(ctx context.Context) error {
	for _, stmt := range strings.Split(schema, ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("sqlite schema: %w", err)
		}
	}
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// ─────────────────────────────────────────
// ChatStore implementation
// ─────────────────────────────────────────

func (s *Store) AppendMessage(ctx context.Context, msg *domain.ChatMessage) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO chat_messages (id, user_id, role, text, created_at) VALUES (?, ?, ?, ?, ?)`,
		string(msg.ID), string(msg.UserID), string(msg.Role), msg.Text, msg.CreatedAt.UnixNano())
	if err != nil {
		return fmt.Errorf("sqlite AppendMessage: %w", err)
	}
	return nil
}

func (s *Store) ListMessages(ctx context.Context, userID domain.UserID, limit int) ([]*domain.ChatMessage, error) {
	q := `SELECT id, role, text, created_at FROM chat_messages WHERE user_id = ? ORDER BY created_at, seq`
	args := []any{string(userID)}
	if limit > 0 {
		q = `SELECT id, role, text, created_at FROM (
			SELECT id, role, text, created_at, seq FROM chat_messages WHERE user_id = ?
			ORDER BY created_at DESC, seq DESC LIMIT ?
		) ORDER BY created_at, seq`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite ListMessages: %w", err)
	}
	defer rows.Close()

	var out []*domain.ChatMessage
	for rows.Next() {
		var (
			id, role, text string
			created        int64
		)
		if err := rows.Scan(&id, &role, &text, &created); err != nil {
			return nil, fmt.Errorf("sqlite ListMessages scan: %w", err)
		}
		out = append(out, &domain.ChatMessage{
			ID:        domain.MessageID(id),
			UserID:    userID,
			Role:      domain.Role(role),
			Text:      text,
			CreatedAt: time.Unix(0, created),
		})
	}
	return out, rows.Err()
}

func (s *Store) ClearMessages(ctx context.Context, userID domain.UserID) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM chat_messages WHERE user_id = ?`, string(userID)); err != nil {
		return fmt.Errorf("sqlite ClearMessages: %w", err)
	}
	return nil
}

// ─────────────────────────────────────────
// JournalStore implementation
// ─────────────────────────────────────────

func (s *Store) AppendJournalEntry(ctx context.Context, e *domain.JournalEntry) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO journal_entries (id, user_id, text, emotion, reflection, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		string(e.ID), string(e.UserID), e.Text, e.Emotion, e.Reflection, e.CreatedAt.UnixNano())
	if err != nil {
		return fmt.Errorf("sqlite AppendJournalEntry: %w", err)
	}
	return nil
}

func (s *Store) ListJournalEntries(ctx context.Context, userID domain.UserID, limit int) ([]*domain.JournalEntry, error) {
	q := `SELECT id, text, emotion, reflection, created_at FROM journal_entries
		WHERE user_id = ? ORDER BY created_at DESC, seq DESC`
	args := []any{string(userID)}
	if limit > 0 {
		q += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite ListJournalEntries: %w", err)
	}
	defer rows.Close()

	var out []*domain.JournalEntry
	for rows.Next() {
		var (
			e       domain.JournalEntry
			id      string
			created int64
		)
		if err := rows.Scan(&id, &e.Text, &e.Emotion, &e.Reflection, &created); err != nil {
			return nil, fmt.Errorf("sqlite ListJournalEntries scan: %w", err)
		}
		e.ID = domain.JournalEntryID(id)
		e.UserID = userID
		e.CreatedAt = time.Unix(0, created)
		out = append(out, &e)
	}
	return out, rows.Err()
}

// ─────────────────────────────────────────
// AssessmentStore implementation
// ─────────────────────────────────────────

func (s *Store) AppendAssessment(ctx context.Context, rec *domain.AssessmentRecord) error {
	scores, err := json.Marshal(rec.Report.Scores)
	if err != nil {
		return fmt.Errorf("sqlite AppendAssessment scores: %w", err)
	}
	answers, err := json.Marshal(rec.Answers)
	if err != nil {
		return fmt.Errorf("sqlite AppendAssessment answers: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO assessments (id, user_id, scores, total_score, interpretation, analysis, answers, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		string(rec.ID), string(rec.UserID), string(scores), rec.Report.TotalScore,
		string(rec.Report.Interpretation), rec.Analysis, string(answers), rec.Report.CreatedAt.UnixNano())
	if err != nil {
		return fmt.Errorf("sqlite AppendAssessment: %w", err)
	}
	return nil
}

func (s *Store) ListAssessments(ctx context.Context, userID domain.UserID) ([]*domain.AssessmentRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, scores, total_score, interpretation, analysis, answers, created_at
		FROM assessments WHERE user_id = ? ORDER BY created_at, seq`, string(userID))
	if err != nil {
		return nil, fmt.Errorf("sqlite ListAssessments: %w", err)
	}
	defer rows.Close()

	var out []*domain.AssessmentRecord
	for rows.Next() {
		var (
			id, scores, interp, analysis, answers string
			total                                 int
			created                               int64
		)
		if err := rows.Scan(&id, &scores, &total, &interp, &analysis, &answers, &created); err != nil {
			return nil, fmt.Errorf("sqlite ListAssessments scan: %w", err)
		}

		rec := &domain.AssessmentRecord{
			ID:       domain.AssessmentID(id),
			UserID:   userID,
			Analysis: analysis,
			Report: domain.ScoreReport{
				TotalScore:     total,
				Interpretation: domain.Interpretation(interp),
				CreatedAt:      time.Unix(0, created),
			},
		}
		if err := json.Unmarshal([]byte(scores), &rec.Report.Scores); err != nil {
			return nil, fmt.Errorf("sqlite ListAssessments scores: %w", err)
		}
		if err := json.Unmarshal([]byte(answers), &rec.Answers); err != nil {
			return nil, fmt.Errorf("sqlite ListAssessments answers: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// ─────────────────────────────────────────
// ProfileStore implementation
// ─────────────────────────────────────────

func (s *Store) GetProfile(ctx context.Context, userID domain.UserID) (*domain.Profile, error) {
	p := &domain.Profile{UserID: userID}
	err := s.db.QueryRowContext(ctx,
		`SELECT full_name, bio FROM profiles WHERE user_id = ?`, string(userID)).Scan(&p.FullName, &p.Bio)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite GetProfile: %w", err)
	}
	return p, nil
}

func (s *Store) SaveProfile(ctx context.Context, p *domain.Profile) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO profiles (user_id, full_name, bio) VALUES (?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET full_name = excluded.full_name, bio = excluded.bio`,
		string(p.UserID), p.FullName, p.Bio)
	if err != nil {
		return fmt.Errorf("sqlite SaveProfile: %w", err)
	}
	return nil
}

// ─────────────────────────────────────────
// KnowledgeStore implementation
// ─────────────────────────────────────────

func (s *Store) ListKnowledge(ctx context.Context) ([]domain.KnowledgeDocument, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT title, content FROM knowledge_documents ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("sqlite ListKnowledge: %w", err)
	}
	defer rows.Close()

	var out []domain.KnowledgeDocument
	for rows.Next() {
		var d domain.KnowledgeDocument
		if err := rows.Scan(&d.Title, &d.Content); err != nil {
			return nil, fmt.Errorf("sqlite ListKnowledge scan: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// SeedKnowledge replaces the knowledge collection with docs.
func (s *Store) SeedKnowledge(ctx context.Context, docs []domain.KnowledgeDocument) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite SeedKnowledge: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM knowledge_documents`); err != nil {
		return fmt.Errorf("sqlite SeedKnowledge clear: %w", err)
	}
	for _, d := range docs {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO knowledge_documents (title, content) VALUES (?, ?)`, d.Title, d.Content); err != nil {
			return fmt.Errorf("sqlite SeedKnowledge insert: %w", err)
		}
	}
	return tx.Commit()
}
