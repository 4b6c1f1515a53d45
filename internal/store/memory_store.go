package store

import "sync"

// InMemoryStore backs tests and dev mode. A single mutex covers both maps;
// AddTerm's check-then-insert is atomic under it.
type InMemoryStore struct {
	mu sync.Mutex

	termIndex map[string]int
	terms     []TermRecord
	reviews   map[string]ReviewRecord
	order     []string
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		termIndex: make(map[string]int),
		reviews:   make(map[string]ReviewRecord),
	}
}

func (s *InMemoryStore) AddTerm(term TermRecord) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.termIndex[term.Term]; ok {
		return false, nil
	}
	term.Position = int64(len(s.terms) + 1)
	s.termIndex[term.Term] = len(s.terms)
	s.terms = append(s.terms, term)
	return true, nil
}

func (s *InMemoryStore) ListTerms() ([]TermRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]TermRecord, len(s.terms))
	copy(out, s.terms)
	return out, nil
}

func (s *InMemoryStore) PutReview(review ReviewRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.reviews[review.ReviewID]; !ok {
		s.order = append(s.order, review.ReviewID)
	}
	s.reviews[review.ReviewID] = review
	return nil
}

func (s *InMemoryStore) GetReview(reviewID string) (ReviewRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	review, ok := s.reviews[reviewID]
	return review, ok
}

func (s *InMemoryStore) ListReviews() ([]ReviewRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]ReviewRecord, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.reviews[id])
	}
	return out, nil
}
