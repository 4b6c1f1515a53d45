package risk

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"testing"

	"github.com/fundops/subreview/internal/classify"
	"github.com/fundops/subreview/pkg/types"
)

type fakeClassifier struct {
	judgment classify.Judgment
	err      error
	calls    int
}

func (f *fakeClassifier) ClassifyRisk(ctx context.Context, text string) (classify.Judgment, error) {
	f.calls++
	return f.judgment, f.err
}

func (f *fakeClassifier) ExtractTerm(ctx context.Context, text string) (string, error) {
	return "", errors.New("not used")
}

func accredited() *bool {
	v := true
	return &v
}

func cleanQuestionnaire() types.Questionnaire {
	return types.Questionnaire{
		QuestionnaireID:          "q-1",
		IsAccreditedInvestor:     accredited(),
		AccreditationDetails:     "net worth over threshold",
		SourceOfFundsDescription: "sale of primary business",
	}
}

func seedSnapshot() []types.TermEntry {
	return []types.TermEntry{
		{Term: "offshore", Kind: types.TermKindKeyword},
		{Term: "gambling", Kind: types.TermKindKeyword},
	}
}

func TestAnalyzeClean(t *testing.T) {
	fc := &fakeClassifier{judgment: classify.Judgment{Verdict: classify.VerdictClean}}
	a := NewAnalyzer(fc, nil)

	findings := a.Analyze(context.Background(), cleanQuestionnaire(), seedSnapshot())
	if len(findings) != 0 {
		t.Fatalf("expected no findings, got %+v", findings)
	}
	if fc.calls != 1 {
		t.Fatalf("expected one classifier call, got %d", fc.calls)
	}
}

func TestAnalyzeOrderContract(t *testing.T) {
	fc := &fakeClassifier{judgment: classify.Judgment{Verdict: classify.VerdictAmbiguous, Rationale: "vague phrasing"}}
	a := NewAnalyzer(fc, nil)

	q := cleanQuestionnaire()
	q.IsAccreditedInvestor = nil
	q.SourceOfFundsDescription = "gambling winnings moved offshore"

	findings := a.Analyze(context.Background(), q, seedSnapshot())
	if len(findings) != 4 {
		t.Fatalf("expected 4 findings, got %+v", findings)
	}

	// Accreditation first, then corpus matches in snapshot order, judgment last.
	if findings[0].Reason != ReasonNotAccredited || findings[0].Severity != types.SeverityBlock {
		t.Fatalf("finding 0: %+v", findings[0])
	}
	if findings[1].Signal != "offshore" || findings[2].Signal != "gambling" {
		t.Fatalf("corpus findings out of order: %+v", findings[1:3])
	}
	if findings[3].Reason != "vague phrasing" || findings[3].Severity != types.SeverityFlag {
		t.Fatalf("finding 3: %+v", findings[3])
	}
}

func TestAnalyzeSuspiciousVerdictIsBlock(t *testing.T) {
	fc := &fakeClassifier{judgment: classify.Judgment{Verdict: classify.VerdictSuspicious, Rationale: "undisclosed source"}}
	a := NewAnalyzer(fc, nil)

	findings := a.Analyze(context.Background(), cleanQuestionnaire(), nil)
	if len(findings) != 1 {
		t.Fatalf("expected 1 finding, got %+v", findings)
	}
	if findings[0].Severity != types.SeverityBlock || findings[0].Signal != "suspicious" {
		t.Fatalf("unexpected finding: %+v", findings[0])
	}
}

func TestAnalyzeMatchedTermReason(t *testing.T) {
	fc := &fakeClassifier{judgment: classify.Judgment{Verdict: classify.VerdictClean}}
	a := NewAnalyzer(fc, nil)

	q := cleanQuestionnaire()
	q.SourceOfFundsDescription = "profits from structuring deals"

	findings := a.Analyze(context.Background(), q, []types.TermEntry{
		{Term: "structuring", Kind: types.TermKindKeyword},
	})
	if len(findings) != 1 {
		t.Fatalf("expected 1 finding, got %+v", findings)
	}
	want := types.RiskFinding{Reason: "matched suspicious term: structuring", Severity: types.SeverityFlag, Signal: "structuring"}
	if findings[0] != want {
		t.Fatalf("got %+v, want %+v", findings[0], want)
	}
}

func TestAnalyzeFailClosed(t *testing.T) {
	fc := &fakeClassifier{err: fmt.Errorf("boom: %w", classify.ErrUnavailable)}
	a := NewAnalyzer(fc, nil)

	findings := a.Analyze(context.Background(), cleanQuestionnaire(), nil)
	if len(findings) != 1 {
		t.Fatalf("expected 1 finding, got %+v", findings)
	}
	if findings[0].Reason != ReasonUnavailable || findings[0].Severity != types.SeverityBlock {
		t.Fatalf("unexpected finding: %+v", findings[0])
	}
}

func TestAnalyzeIdempotent(t *testing.T) {
	fc := &fakeClassifier{judgment: classify.Judgment{Verdict: classify.VerdictAmbiguous, Rationale: "vague"}}
	a := NewAnalyzer(fc, nil)

	q := cleanQuestionnaire()
	q.SourceOfFundsDescription = "undisclosed offshore holdings"
	snapshot := []types.TermEntry{
		{Term: "offshore", Kind: types.TermKindKeyword},
		{Term: "undisclosed", Kind: types.TermKindKeyword},
	}

	first := a.Analyze(context.Background(), q, snapshot)
	second := a.Analyze(context.Background(), q, snapshot)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("analyzer not idempotent:\n%+v\n%+v", first, second)
	}
}

func TestAnalyzeDoesNotMutateSnapshot(t *testing.T) {
	fc := &fakeClassifier{judgment: classify.Judgment{Verdict: classify.VerdictClean}}
	a := NewAnalyzer(fc, nil)

	snapshot := seedSnapshot()
	want := make([]types.TermEntry, len(snapshot))
	copy(want, snapshot)

	q := cleanQuestionnaire()
	q.SourceOfFundsDescription = "offshore gambling"
	a.Analyze(context.Background(), q, snapshot)

	if !reflect.DeepEqual(snapshot, want) {
		t.Fatalf("snapshot mutated: %+v", snapshot)
	}
}
