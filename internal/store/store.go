// Package store persists the two durable artifacts of the review service:
// the suspicious-term corpus and the append-only review results. Three
// backends implement the same contract: in-memory, SQLite, Postgres.
package store

// TermRecord is one corpus entry. Term is already normalized by the caller;
// the store keys on it. Position is assigned at insert and fixes the corpus
// iteration order across backends.
type TermRecord struct {
	Term      string
	Kind      string
	Source    string
	Position  int64
	CreatedAt string
}

// ReviewRecord is one serialized ReviewResult. BodyJSON carries the full
// wire form; the indexed columns exist for lookup only.
type ReviewRecord struct {
	ReviewID        string
	QuestionnaireID string
	Decision        string
	BodyJSON        []byte
	CreatedAt       string
}

type Store interface {
	// AddTerm inserts add-if-absent keyed by normalized term and reports
	// whether a new row was created. Concurrent inserts of the same term
	// resolve silently: exactly one wins, neither errors.
	AddTerm(term TermRecord) (bool, error)

	// ListTerms returns the full corpus snapshot in insertion order.
	ListTerms() ([]TermRecord, error)

	// PutReview appends a result. Results are never updated or deleted.
	PutReview(review ReviewRecord) error
	GetReview(reviewID string) (ReviewRecord, bool)

	// ListReviews returns results in insertion order.
	ListReviews() ([]ReviewRecord, error)
}
