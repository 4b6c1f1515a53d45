// Package feedback turns free-text reviewer corrections into new
// suspicious-term corpus entries. It runs out of band from the review
// pipeline; new terms apply only to reviews that start after the insert.
package feedback

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fundops/subreview/internal/classify"
	"github.com/fundops/subreview/internal/corpus"
	"github.com/fundops/subreview/internal/store"
	"github.com/fundops/subreview/pkg/types"
)

// Submission is one piece of reviewer feedback. WrongDecision and
// CorrectDecision give the extractor context about what the pipeline got
// wrong; only Text is required.
type Submission struct {
	FeedbackID      string `json:"feedback_id,omitempty"`
	Text            string `json:"text"`
	WrongDecision   string `json:"wrong_decision,omitempty"`
	CorrectDecision string `json:"correct_decision,omitempty"`
}

type Learner struct {
	Classifier classify.Classifier
	Store      store.Store
	Log        *zap.Logger
	now        func() time.Time
}

func NewLearner(classifier classify.Classifier, s store.Store, log *zap.Logger) *Learner {
	if log == nil {
		log = zap.NewNop()
	}
	return &Learner{Classifier: classifier, Store: s, Log: log, now: time.Now}
}

// Learn extracts one normalized term from the feedback and merges it into
// the corpus. It is idempotent: resubmitting equivalent feedback reports
// added=false and leaves the corpus unchanged. Failed or empty extraction
// discards the feedback with an error; a term is never guessed.
func (l *Learner) Learn(ctx context.Context, sub Submission) (types.TermEntry, bool, error) {
	if sub.FeedbackID == "" {
		sub.FeedbackID = uuid.NewString()
	}
	if strings.TrimSpace(sub.Text) == "" {
		return types.TermEntry{}, false, fmt.Errorf("feedback %s: %w", sub.FeedbackID, classify.ErrNoTerm)
	}

	raw, err := l.Classifier.ExtractTerm(ctx, l.prompt(sub))
	if err != nil {
		l.Log.Warn("feedback discarded",
			zap.String("feedback_id", sub.FeedbackID),
			zap.Error(err))
		return types.TermEntry{}, false, fmt.Errorf("feedback %s: %w", sub.FeedbackID, err)
	}

	// Kind is decided on the raw term: case-folding a regex would rewrite
	// metacharacters like \B and \W, so patterns are stored verbatim and
	// only keywords go through full normalization.
	term := strings.TrimSpace(raw)
	kind := termKind(term)
	if kind == types.TermKindKeyword {
		term = corpus.NormalizeTerm(raw)
	}
	if term == "" {
		return types.TermEntry{}, false, fmt.Errorf("feedback %s: %w", sub.FeedbackID, classify.ErrNoTerm)
	}

	entry := types.TermEntry{
		Term:      term,
		Kind:      kind,
		Source:    types.TermSourceLearned,
		CreatedAt: l.now().UTC().Format(time.RFC3339),
	}

	added, err := l.Store.AddTerm(store.TermRecord{
		Term:      entry.Term,
		Kind:      entry.Kind,
		Source:    entry.Source,
		CreatedAt: entry.CreatedAt,
	})
	if err != nil {
		return types.TermEntry{}, false, fmt.Errorf("feedback %s: store term: %w", sub.FeedbackID, err)
	}

	if added {
		l.Log.Info("learned suspicious term",
			zap.String("feedback_id", sub.FeedbackID),
			zap.String("term", entry.Term))
	}
	return entry, added, nil
}

func (l *Learner) prompt(sub Submission) string {
	var b strings.Builder
	if sub.WrongDecision != "" && sub.CorrectDecision != "" {
		fmt.Fprintf(&b, "Previous decision: %s\nCorrect decision: %s\n", sub.WrongDecision, sub.CorrectDecision)
	}
	b.WriteString("Feedback: ")
	b.WriteString(sub.Text)
	return b.String()
}

// termKind distinguishes an extracted regular expression from a plain
// keyword so the matcher compiles it correctly.
func termKind(term string) string {
	if strings.ContainsAny(term, `\[](){}|*+?^$`) {
		return types.TermKindPattern
	}
	return types.TermKindKeyword
}
