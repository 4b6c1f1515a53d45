package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/fundops/subreview/internal/auth"
	"github.com/fundops/subreview/internal/classify"
	"github.com/fundops/subreview/internal/feedback"
	"github.com/fundops/subreview/internal/review"
	"github.com/fundops/subreview/internal/store"
	"github.com/fundops/subreview/pkg/types"
)

type Handler struct {
	Auth    auth.Authenticator
	Reviews *review.Service
	Learner *feedback.Learner
	Store   store.Store
	// BatchLimit bounds concurrent reviews in one batch request.
	BatchLimit int
	Log        *zap.Logger
}

// CreateReview runs the pipeline for one questionnaire. All three decisions
// are 200 responses; escalate is a successful review, not an error.
func (h *Handler) CreateReview(w http.ResponseWriter, r *http.Request) {
	if !h.ensureAuth(w, r) {
		return
	}
	if h.Reviews == nil {
		writeJSON(w, http.StatusNotImplemented, map[string]string{"error": "review service not configured"})
		return
	}

	var q types.Questionnaire
	if err := json.NewDecoder(r.Body).Decode(&q); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	result, err := h.Reviews.Review(r.Context(), q)
	if err != nil {
		h.log().Error("review failed",
			zap.String("questionnaire_id", q.QuestionnaireID),
			zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "review failed"})
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// CreateReviewBatch reviews independent questionnaires concurrently. One
// failed item reports its error in place; the rest of the batch completes.
func (h *Handler) CreateReviewBatch(w http.ResponseWriter, r *http.Request) {
	if !h.ensureAuth(w, r) {
		return
	}
	if h.Reviews == nil {
		writeJSON(w, http.StatusNotImplemented, map[string]string{"error": "review service not configured"})
		return
	}

	var req struct {
		Questionnaires []types.Questionnaire `json:"questionnaires"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	if len(req.Questionnaires) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "questionnaires is required"})
		return
	}

	items := h.Reviews.ReviewBatch(r.Context(), req.Questionnaires, h.BatchLimit)

	type batchItem struct {
		Result *types.ReviewResult `json:"result,omitempty"`
		Error  string              `json:"error,omitempty"`
	}
	out := make([]batchItem, len(items))
	for i, item := range items {
		if item.Err != nil {
			out[i] = batchItem{Error: item.Err.Error()}
			continue
		}
		result := item.Result
		out[i] = batchItem{Result: &result}
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": out})
}

func (h *Handler) GetReview(w http.ResponseWriter, r *http.Request) {
	if !h.ensureAuth(w, r) {
		return
	}
	if h.Store == nil {
		writeJSON(w, http.StatusNotImplemented, map[string]string{"error": "store not configured"})
		return
	}

	reviewID := strings.TrimPrefix(r.URL.Path, "/v1/reviews/")
	if reviewID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing review_id"})
		return
	}

	rec, ok := h.Store.GetReview(reviewID)
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "review not found"})
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(rec.BodyJSON)
}

// Feedback submits one reviewer correction to the learner. Extraction
// failures are reported, never guessed around.
func (h *Handler) Feedback(w http.ResponseWriter, r *http.Request) {
	if !h.ensureAuth(w, r) {
		return
	}
	if h.Learner == nil {
		writeJSON(w, http.StatusNotImplemented, map[string]string{"error": "learner not configured"})
		return
	}

	var sub feedback.Submission
	if err := json.NewDecoder(r.Body).Decode(&sub); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	entry, added, err := h.Learner.Learn(r.Context(), sub)
	switch {
	case errors.Is(err, classify.ErrNoTerm):
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": "no term extracted, feedback discarded"})
		return
	case errors.Is(err, classify.ErrUnavailable):
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "classification unavailable, feedback discarded"})
		return
	case err != nil:
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "feedback failed"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"term":  entry.Term,
		"kind":  entry.Kind,
		"added": added,
	})
}

func (h *Handler) Corpus(w http.ResponseWriter, r *http.Request) {
	if !h.ensureAuth(w, r) {
		return
	}
	if h.Store == nil {
		writeJSON(w, http.StatusNotImplemented, map[string]string{"error": "store not configured"})
		return
	}

	records, err := h.Store.ListTerms()
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "corpus unavailable"})
		return
	}

	terms := make([]types.TermEntry, len(records))
	for i, rec := range records {
		terms[i] = types.TermEntry{Term: rec.Term, Kind: rec.Kind, Source: rec.Source, CreatedAt: rec.CreatedAt}
	}
	writeJSON(w, http.StatusOK, map[string]any{"terms": terms})
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) ensureAuth(w http.ResponseWriter, r *http.Request) bool {
	if h.Auth == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "auth not configured"})
		return false
	}
	if _, err := h.Auth.Authenticate(r); err != nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": err.Error()})
		return false
	}
	return true
}

func (h *Handler) log() *zap.Logger {
	if h.Log == nil {
		return zap.NewNop()
	}
	return h.Log
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(payload)
}
