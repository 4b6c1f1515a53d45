package api

import "net/http"

// NewRouter wires the gateway endpoints onto a stdlib mux.
func NewRouter(h *Handler) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/reviews", h.CreateReview)
	mux.HandleFunc("POST /v1/reviews/batch", h.CreateReviewBatch)
	mux.HandleFunc("GET /v1/reviews/{id}", h.GetReview)
	mux.HandleFunc("POST /v1/feedback", h.Feedback)
	mux.HandleFunc("GET /v1/corpus", h.Corpus)
	mux.HandleFunc("GET /healthz", h.Health)
	return mux
}
