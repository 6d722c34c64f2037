package httpadapter

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/PabloGalante/healthai-agent/internal/app/assessment"
	"github.com/PabloGalante/healthai-agent/internal/app/conversation"
	"github.com/PabloGalante/healthai-agent/internal/app/journal"
	"github.com/PabloGalante/healthai-agent/internal/app/profile"
	"github.com/PabloGalante/healthai-agent/internal/domain"
	"github.com/PabloGalante/healthai-agent/internal/observability"
)

type Services struct {
	Conversation *conversation.Service
	Assessment   *assessment.Service
	Journal      *journal.Service
	Profile      *profile.Service
}

type Server struct {
	svc Services
}

func NewServer(svc Services) http.Handler {
	s := &Server{svc: svc}
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", s.handleHealthz)
	mux.HandleFunc("GET /questionnaire", s.handleQuestionnaire)

	mux.HandleFunc("GET /users/{userID}/chat", s.handleGetChat)
	mux.HandleFunc("DELETE /users/{userID}/chat", s.handleClearChat)
	mux.HandleFunc("POST /users/{userID}/chat/messages", s.handleSendMessage)

	mux.HandleFunc("GET /users/{userID}/assessments", s.handleListAssessments)
	mux.HandleFunc("POST /users/{userID}/assessments", s.handleSubmitAssessment)
	mux.HandleFunc("GET /users/{userID}/assessments/trend", s.handleAssessmentTrend)

	mux.HandleFunc("GET /users/{userID}/journal", s.handleListJournal)
	mux.HandleFunc("POST /users/{userID}/journal", s.handleCreateJournal)

	mux.HandleFunc("GET /users/{userID}/profile", s.handleGetProfile)
	mux.HandleFunc("PUT /users/{userID}/profile", s.handleUpdateProfile)

	return chainMiddlewares(mux, withLogging, withCORS, withRequestID)
}

// ─────────────────────────────────────────────
// DTOs (request/response)
// ─────────────────────────────────────────────

type messageResponse struct {
	ID        string    `json:"id"`
	Role      string    `json:"role"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

type chatResponse struct {
	State    string            `json:"state"`
	Messages []messageResponse `json:"messages"`
}

type sendMessageRequest struct {
	Text string `json:"text"`
}

type sendMessageResponse struct {
	UserMessage      messageResponse `json:"user_message"`
	AssistantMessage messageResponse `json:"assistant_message"`
}

type questionnaireResponse struct {
	Items   []domain.QuestionnaireItem `json:"items"`
	Options []assessment.Option        `json:"options"`
	Scales  []domain.CategoryScale     `json:"scales"`
}

type submitAssessmentRequest struct {
	// Answers maps item id to a value in [0,3].
	Answers map[int]int `json:"answers"`
}

type journalRequest struct {
	Text string `json:"text"`
}

type profileRequest struct {
	FullName string `json:"full_name"`
	Bio      string `json:"bio"`
}

type profileResponse struct {
	UserID   string `json:"user_id"`
	FullName string `json:"full_name"`
	Bio      string `json:"bio"`
}

// ─────────────────────────────────────────────
// Concrete handlers
// ─────────────────────────────────────────────

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleQuestionnaire(w http.ResponseWriter, r *http.Request) {
	items, scales := s.svc.Assessment.Questionnaire()

	resp := questionnaireResponse{
		Items:   items,
		Options: assessment.Options(),
	}
	for _, c := range domain.Categories {
		resp.Scales = append(resp.Scales, scales[c])
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetChat(w http.ResponseWriter, r *http.Request) {
	userID := domain.UserID(r.PathValue("userID"))

	msgs, err := s.svc.Conversation.History(r.Context(), userID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	state, err := s.svc.Conversation.State(r.Context(), userID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, chatResponse{
		State:    string(state),
		Messages: toMessagesResponse(msgs),
	})
}

func (s *Server) handleSendMessage(w http.ResponseWriter, r *http.Request) {
	var req sendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid JSON body")
		return
	}

	// A client that disconnects mid-generation does not abort the send.
	out, err := s.svc.Conversation.Send(context.WithoutCancel(r.Context()), domain.UserID(r.PathValue("userID")), req.Text)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, sendMessageResponse{
		UserMessage:      toMessageResponse(out.UserMessage),
		AssistantMessage: toMessageResponse(out.AssistantMessage),
	})
}

func (s *Server) handleClearChat(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Conversation.Clear(r.Context(), domain.UserID(r.PathValue("userID"))); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSubmitAssessment(w http.ResponseWriter, r *http.Request) {
	var req submitAssessmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid JSON body")
		return
	}

	rec, err := s.svc.Assessment.Submit(context.WithoutCancel(r.Context()), domain.UserID(r.PathValue("userID")), domain.AnswerSet(req.Answers))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, rec)
}

func (s *Server) handleListAssessments(w http.ResponseWriter, r *http.Request) {
	recs, err := s.svc.Assessment.History(r.Context(), domain.UserID(r.PathValue("userID")))
	if err != nil {
		writeError(w, r, err)
		return
	}
	if recs == nil {
		recs = []*domain.AssessmentRecord{}
	}
	writeJSON(w, http.StatusOK, recs)
}

func (s *Server) handleAssessmentTrend(w http.ResponseWriter, r *http.Request) {
	points, err := s.svc.Assessment.Trend(r.Context(), domain.UserID(r.PathValue("userID")))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, points)
}

func (s *Server) handleCreateJournal(w http.ResponseWriter, r *http.Request) {
	var req journalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid JSON body")
		return
	}

	entry, err := s.svc.Journal.Create(context.WithoutCancel(r.Context()), domain.UserID(r.PathValue("userID")), req.Text)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, entry)
}

func (s *Server) handleListJournal(w http.ResponseWriter, r *http.Request) {
	entries, err := s.svc.Journal.List(r.Context(), domain.UserID(r.PathValue("userID")), 0)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if entries == nil {
		entries = []*domain.JournalEntry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	p, err := s.svc.Profile.Get(r.Context(), domain.UserID(r.PathValue("userID")))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toProfileResponse(p))
}

func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req profileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid JSON body")
		return
	}

	p, err := s.svc.Profile.Update(r.Context(), domain.UserID(r.PathValue("userID")), req.FullName, req.Bio)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toProfileResponse(p))
}

// ─────────────────────────────────────────────
// Conversation Helpers
// ─────────────────────────────────────────────

func toMessageResponse(m *domain.ChatMessage) messageResponse {
	return messageResponse{
		ID:        string(m.ID),
		Role:      string(m.Role),
		Text:      m.Text,
		CreatedAt: m.CreatedAt,
	}
}

func toMessagesResponse(msgs []*domain.ChatMessage) []messageResponse {
	out := make([]messageResponse, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, toMessageResponse(m))
	}
	return out
}

func toProfileResponse(p *domain.Profile) profileResponse {
	return profileResponse{
		UserID:   string(p.UserID),
		FullName: p.FullName,
		Bio:      p.Bio,
	}
}

// ─────────────────────────────────────────────
// HTTP Helpers
// ─────────────────────────────────────────────

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func badRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, map[string]string{
		"error": msg,
	})
}

// writeError maps domain errors to status codes. Anything unclassified is
// a persistence failure the user can retry.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrEmptyMessage),
		errors.Is(err, domain.ErrIncompleteAnswers),
		errors.Is(err, domain.ErrInvalidAnswer):
		badRequest(w, err.Error())
	case errors.Is(err, domain.ErrSendInFlight):
		writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
	case errors.Is(err, domain.ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
	default:
		observability.LoggerFromContext(r.Context()).Error("request failed", "path", r.URL.Path, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "no se pudo completar la operación, intenta de nuevo",
		})
	}
}
