package main

import (
	"context"
	"fmt"
	"io"

	"github.com/PabloGalante/healthai-agent/internal/adapters/llm"
	firestorestore "github.com/PabloGalante/healthai-agent/internal/adapters/storage/firestore"
	memstore "github.com/PabloGalante/healthai-agent/internal/adapters/storage/memory"
	sqlitestore "github.com/PabloGalante/healthai-agent/internal/adapters/storage/sqlite"
	"github.com/PabloGalante/healthai-agent/internal/app/assessment"
	"github.com/PabloGalante/healthai-agent/internal/app/conversation"
	"github.com/PabloGalante/healthai-agent/internal/app/journal"
	"github.com/PabloGalante/healthai-agent/internal/app/knowledge"
	"github.com/PabloGalante/healthai-agent/internal/app/modelchain"
	"github.com/PabloGalante/healthai-agent/internal/app/profile"
	"github.com/PabloGalante/healthai-agent/internal/config"
	"github.com/PabloGalante/healthai-agent/internal/domain"
	"github.com/PabloGalante/healthai-agent/internal/observability"
)

// stores groups the persistence ports. A single backend usually implements
// all of them.
type stores struct {
	chat        domain.ChatStore
	journal     domain.JournalStore
	assessments domain.AssessmentStore
	knowledge   domain.KnowledgeStore
	profiles    domain.ProfileStore

	seed   func(ctx context.Context, docs []domain.KnowledgeDocument) error
	closer io.Closer
}

type app struct {
	conversation *conversation.Service
	assessment   *assessment.Service
	journal      *journal.Service
	profile      *profile.Service

	closer io.Closer
}

func (a *app) Close() error {
	if a.closer == nil {
		return nil
	}
	return a.closer.Close()
}

func buildApp(ctx context.Context, cfg *config.Config) (*app, error) {
	log := observability.WithFields("component", "wire")

	llmClient, err := buildLLM(ctx, cfg)
	if err != nil {
		return nil, err
	}

	st, err := buildStores(ctx, cfg)
	if err != nil {
		return nil, err
	}

	if cfg.KnowledgePath != "" {
		docs, err := knowledge.LoadYAML(cfg.KnowledgePath)
		if err != nil {
			closeQuietly(st.closer)
			return nil, err
		}
		if err := st.seed(ctx, docs); err != nil {
			closeQuietly(st.closer)
			return nil, fmt.Errorf("seed knowledge: %w", err)
		}
		log.Info("knowledge seeded", "path", cfg.KnowledgePath, "documents", len(docs))
	}

	chain := modelchain.New(llmClient, cfg.ModelOrder, cfg.PerCallTimeout)
	filter := knowledge.NewFilter(cfg.KnowledgeKeywords, cfg.KnowledgeMaxChars, cfg.Locale)

	return &app{
		conversation: conversation.NewService(chain, filter, st.chat, st.knowledge, st.profiles,
			conversation.Config{HistoryLimit: cfg.HistoryLimit}),
		assessment: assessment.NewService(st.assessments, chain),
		journal:    journal.NewService(st.journal, chain),
		profile:    profile.NewService(st.profiles),
		closer:     st.closer,
	}, nil
}

func buildLLM(ctx context.Context, cfg *config.Config) (domain.LLMClient, error) {
	log := observability.Logger()

	if cfg.UseMockLLM {
		log.Info("using mock LLM client")
		return llm.NewMockLLM(), nil
	}

	log.Info("using Gemini LLM client", "project", cfg.GCPProjectID, "location", cfg.GCPLocation)
	client, err := llm.NewGeminiClient(ctx, llm.GeminiConfig{
		Project:  cfg.GCPProjectID,
		Location: cfg.GCPLocation,
		APIKey:   cfg.APIKey,
	})
	if err != nil {
		return nil, fmt.Errorf("init gemini client: %w", err)
	}
	return client, nil
}

func buildStores(ctx context.Context, cfg *config.Config) (*stores, error) {
	log := observability.Logger()

	switch cfg.StorageBackend {
	case config.StorageFirestore:
		log.Info("using firestore storage", "project", cfg.GCPProjectID)
		fs, err := firestorestore.NewStore(ctx, cfg.GCPProjectID)
		if err != nil {
			return nil, fmt.Errorf("init firestore store: %w", err)
		}
		// 1 store, implements every port
		return &stores{
			chat: fs, journal: fs, assessments: fs, knowledge: fs, profiles: fs,
			seed: fs.SeedKnowledge, closer: fs,
		}, nil

	case config.StorageSQLite:
		log.Info("using sqlite storage", "path", cfg.SQLitePath)
		db, err := sqlitestore.NewStore(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("init sqlite store: %w", err)
		}
		return &stores{
			chat: db, journal: db, assessments: db, knowledge: db, profiles: db,
			seed: db.SeedKnowledge, closer: db,
		}, nil

	default:
		log.Info("using in-memory storage")
		kb := memstore.NewKnowledgeStore()
		return &stores{
			chat:        memstore.NewMessageStore(),
			journal:     memstore.NewJournalStore(),
			assessments: memstore.NewAssessmentStore(),
			knowledge:   kb,
			profiles:    memstore.NewProfileStore(),
			seed: func(_ context.Context, docs []domain.KnowledgeDocument) error {
				kb.Add(docs...)
				return nil
			},
		}, nil
	}
}

func closeQuietly(c io.Closer) {
	if c != nil {
		_ = c.Close()
	}
}
