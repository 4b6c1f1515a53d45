package store

import (
	"fmt"
	"sync"
	"testing"
)

func TestInMemoryStoreAddTermIdempotent(t *testing.T) {
	s := NewInMemoryStore()

	added, err := s.AddTerm(TermRecord{Term: "offshore", Kind: "keyword", Source: "seed", CreatedAt: "now"})
	if err != nil || !added {
		t.Fatalf("first add: added=%v err=%v", added, err)
	}

	added, err = s.AddTerm(TermRecord{Term: "offshore", Kind: "keyword", Source: "learned", CreatedAt: "later"})
	if err != nil || added {
		t.Fatalf("duplicate add should be silent no-op: added=%v err=%v", added, err)
	}

	terms, err := s.ListTerms()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(terms) != 1 || terms[0].Source != "seed" {
		t.Fatalf("expected single original entry, got %+v", terms)
	}
}

func TestInMemoryStoreTermOrder(t *testing.T) {
	s := NewInMemoryStore()

	for _, term := range []string{"gambling", "offshore", "undisclosed"} {
		if _, err := s.AddTerm(TermRecord{Term: term, Kind: "keyword", Source: "seed", CreatedAt: "now"}); err != nil {
			t.Fatalf("add %s: %v", term, err)
		}
	}

	terms, err := s.ListTerms()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	for i, want := range []string{"gambling", "offshore", "undisclosed"} {
		if terms[i].Term != want {
			t.Fatalf("term %d = %q, want %q", i, terms[i].Term, want)
		}
		if terms[i].Position != int64(i+1) {
			t.Fatalf("term %d position = %d", i, terms[i].Position)
		}
	}
}

func TestInMemoryStoreConcurrentAdds(t *testing.T) {
	s := NewInMemoryStore()

	var wg sync.WaitGroup
	var mu sync.Mutex
	addedCount := 0

	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			added, err := s.AddTerm(TermRecord{Term: "structuring", Kind: "keyword", Source: "learned", CreatedAt: "now"})
			if err != nil {
				t.Errorf("add: %v", err)
				return
			}
			if added {
				mu.Lock()
				addedCount++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if addedCount != 1 {
		t.Fatalf("expected exactly one winning insert, got %d", addedCount)
	}
	terms, _ := s.ListTerms()
	if len(terms) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(terms))
	}
}

func TestInMemoryStoreSnapshotIsolation(t *testing.T) {
	s := NewInMemoryStore()
	if _, err := s.AddTerm(TermRecord{Term: "offshore", Kind: "keyword", Source: "seed", CreatedAt: "now"}); err != nil {
		t.Fatalf("add: %v", err)
	}

	snapshot, err := s.ListTerms()
	if err != nil {
		t.Fatalf("list: %v", err)
	}

	if _, err := s.AddTerm(TermRecord{Term: "gambling", Kind: "keyword", Source: "learned", CreatedAt: "now"}); err != nil {
		t.Fatalf("add: %v", err)
	}

	if len(snapshot) != 1 {
		t.Fatalf("snapshot must not observe later writes, got %d entries", len(snapshot))
	}
}

func TestInMemoryStoreReviews(t *testing.T) {
	s := NewInMemoryStore()

	for i := 0; i < 3; i++ {
		rec := ReviewRecord{
			ReviewID:  fmt.Sprintf("sha256:%02d", i),
			Decision:  "approve",
			BodyJSON:  []byte(`{}`),
			CreatedAt: "now",
		}
		if err := s.PutReview(rec); err != nil {
			t.Fatalf("put: %v", err)
		}
	}

	got, ok := s.GetReview("sha256:01")
	if !ok || got.Decision != "approve" {
		t.Fatalf("get mismatch: ok=%v got=%+v", ok, got)
	}
	if _, ok := s.GetReview("sha256:99"); ok {
		t.Fatalf("expected miss")
	}

	reviews, err := s.ListReviews()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(reviews) != 3 || reviews[0].ReviewID != "sha256:00" {
		t.Fatalf("unexpected review order: %+v", reviews)
	}
}
