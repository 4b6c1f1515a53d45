// Package review runs the pipeline for one questionnaire: field validation,
// risk analysis, decision, then an append to the result store.
package review

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/fundops/subreview/internal/crypto"
	"github.com/fundops/subreview/internal/decision"
	"github.com/fundops/subreview/internal/risk"
	"github.com/fundops/subreview/internal/store"
	"github.com/fundops/subreview/internal/validate"
	"github.com/fundops/subreview/pkg/types"
)

const ResultSchema = "subreview.result.v0.1"

type Service struct {
	Store         store.Store
	Analyzer      *risk.Analyzer
	MinInvestment float64
	Log           *zap.Logger
	now           func() time.Time
}

func NewService(s store.Store, analyzer *risk.Analyzer, minInvestment float64, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		Store:         s,
		Analyzer:      analyzer,
		MinInvestment: minInvestment,
		Log:           log,
		now:           time.Now,
	}
}

// Review classifies one questionnaire and appends the result. The corpus
// snapshot is taken once at the start; terms learned while this review is in
// flight apply only to later reviews.
func (s *Service) Review(ctx context.Context, q types.Questionnaire) (types.ReviewResult, error) {
	records, err := s.Store.ListTerms()
	if err != nil {
		return types.ReviewResult{}, fmt.Errorf("corpus snapshot: %w", err)
	}
	snapshot := make([]types.TermEntry, len(records))
	for i, rec := range records {
		snapshot[i] = types.TermEntry{
			Term:      rec.Term,
			Kind:      rec.Kind,
			Source:    rec.Source,
			CreatedAt: rec.CreatedAt,
		}
	}

	outcome := validate.Check(q, s.MinInvestment)
	findings := s.Analyzer.Analyze(ctx, q, snapshot)
	verdict := decision.Decide(outcome, findings)

	result, err := buildResult(q.QuestionnaireID, verdict, outcome.MissingFields, findings, s.now().UTC().Format(time.RFC3339))
	if err != nil {
		return types.ReviewResult{}, err
	}

	body, err := json.Marshal(result)
	if err != nil {
		return types.ReviewResult{}, fmt.Errorf("encode result: %w", err)
	}
	rec := store.ReviewRecord{
		ReviewID:        result.ReviewID,
		QuestionnaireID: result.QuestionnaireID,
		Decision:        result.Decision,
		BodyJSON:        body,
		CreatedAt:       result.CreatedAt,
	}
	if err := s.Store.PutReview(rec); err != nil {
		return types.ReviewResult{}, fmt.Errorf("append result: %w", err)
	}

	s.Log.Info("questionnaire reviewed",
		zap.String("questionnaire_id", q.QuestionnaireID),
		zap.String("review_id", result.ReviewID),
		zap.String("decision", result.Decision),
		zap.Int("missing_fields", len(result.MissingFields)),
		zap.Int("escalation_reasons", len(result.EscalationReasons)))

	return result, nil
}

// Item is one batch entry. Err is set when that review alone failed; other
// items are unaffected.
type Item struct {
	Result types.ReviewResult
	Err    error
}

// ReviewBatch processes independent questionnaires concurrently, bounded by
// limit, and returns items in input order. A failed item never aborts the
// rest of the batch.
func (s *Service) ReviewBatch(ctx context.Context, qs []types.Questionnaire, limit int) []Item {
	if limit <= 0 {
		limit = 1
	}

	items := make([]Item, len(qs))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	for i, q := range qs {
		g.Go(func() error {
			result, err := s.Review(ctx, q)
			items[i] = Item{Result: result, Err: err}
			return nil
		})
	}
	_ = g.Wait()

	return items
}

// buildResult derives the review_id from a canonical view of the result
// body, so identical inputs reviewed against the same snapshot produce the
// same id.
func buildResult(questionnaireID string, verdict string, missingFields []string, findings []types.RiskFinding, createdAt string) (types.ReviewResult, error) {
	if missingFields == nil {
		missingFields = []string{}
	}
	if findings == nil {
		findings = []types.RiskFinding{}
	}

	result := types.ReviewResult{
		Schema:            ResultSchema,
		QuestionnaireID:   questionnaireID,
		Decision:          verdict,
		MissingFields:     missingFields,
		EscalationReasons: findings,
		CreatedAt:         createdAt,
	}

	reasons := make([]any, len(findings))
	for i, f := range findings {
		reasons[i] = map[string]any{
			"reason":   f.Reason,
			"severity": string(f.Severity),
			"signal":   f.Signal,
		}
	}
	signingView := map[string]any{
		"schema":             result.Schema,
		"questionnaire_id":   result.QuestionnaireID,
		"decision":           result.Decision,
		"missing_fields":     result.MissingFields,
		"escalation_reasons": reasons,
		"created_at":         result.CreatedAt,
	}

	canonical, err := crypto.Canonicalize(signingView)
	if err != nil {
		return types.ReviewResult{}, err
	}
	result.ReviewID = crypto.DigestWithPrefix(canonical)
	return result, nil
}
