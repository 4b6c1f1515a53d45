// Package risk inspects the source-of-funds narrative and accreditation
// claim. It combines deterministic corpus matching with one call to the
// external classification capability and reports findings in a fixed order.
package risk

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/fundops/subreview/internal/classify"
	"github.com/fundops/subreview/internal/corpus"
	"github.com/fundops/subreview/pkg/types"
)

const (
	ReasonNotAccredited = "investor is not accredited"
	ReasonUnavailable   = "risk analysis unavailable"

	matchedReasonPrefix = "matched suspicious term: "

	signalNotAccredited   = "accreditation"
	signalClassifierError = "classifier_error"
)

type Analyzer struct {
	Classifier classify.Classifier
	Log        *zap.Logger
}

func NewAnalyzer(classifier classify.Classifier, log *zap.Logger) *Analyzer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Analyzer{Classifier: classifier, Log: log}
}

// Analyze returns findings in contract order: accreditation check first,
// corpus matches in snapshot order, classifier judgment last. Deterministic
// checks precede the probabilistic one because only the first few reasons
// may be surfaced to reviewers. The snapshot is never mutated.
func (a *Analyzer) Analyze(ctx context.Context, q types.Questionnaire, snapshot []types.TermEntry) []types.RiskFinding {
	findings := []types.RiskFinding{}

	// Absent and unparseable claims fail the same as an explicit false.
	if q.IsAccreditedInvestor == nil || !*q.IsAccreditedInvestor {
		findings = append(findings, types.RiskFinding{
			Reason:   ReasonNotAccredited,
			Severity: types.SeverityBlock,
			Signal:   signalNotAccredited,
		})
	}

	narrative := strings.TrimSpace(q.AccreditationDetails + " " + q.SourceOfFundsDescription)

	matcher := corpus.NewMatcher(snapshot)
	for _, entry := range matcher.Match(narrative) {
		findings = append(findings, types.RiskFinding{
			Reason:   matchedReasonPrefix + entry.Term,
			Severity: types.SeverityFlag,
			Signal:   entry.Term,
		})
	}

	judgment, err := a.Classifier.ClassifyRisk(ctx, narrative)
	if err != nil {
		// Fail closed: an unreachable classifier is itself a block-level
		// concern, never a silent approve.
		a.Log.Warn("classifier unavailable, escalating",
			zap.String("questionnaire_id", q.QuestionnaireID),
			zap.Error(err))
		findings = append(findings, types.RiskFinding{
			Reason:   ReasonUnavailable,
			Severity: types.SeverityBlock,
			Signal:   signalClassifierError,
		})
		return findings
	}

	switch judgment.Verdict {
	case classify.VerdictAmbiguous:
		findings = append(findings, judgmentFinding(judgment, types.SeverityFlag))
	case classify.VerdictSuspicious:
		findings = append(findings, judgmentFinding(judgment, types.SeverityBlock))
	}

	return findings
}

func judgmentFinding(j classify.Judgment, severity types.Severity) types.RiskFinding {
	reason := j.Rationale
	if reason == "" {
		reason = "narrative classified as " + string(j.Verdict)
	}
	return types.RiskFinding{
		Reason:   reason,
		Severity: severity,
		Signal:   string(j.Verdict),
	}
}
