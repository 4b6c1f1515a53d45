// Package classify defines the external text-classification capability the
// review pipeline depends on. The pipeline only sees this interface; the
// natural-language judgment itself is an opaque remote service.
package classify

import (
	"context"
	"errors"
)

type Verdict string

const (
	VerdictClean      Verdict = "clean"
	VerdictAmbiguous  Verdict = "ambiguous"
	VerdictSuspicious Verdict = "suspicious"
)

// Judgment is the risk-classification response for one narrative.
type Judgment struct {
	Verdict   Verdict
	Rationale string
}

var (
	// ErrUnavailable wraps transport failures and timeouts. Callers treat it
	// as a risk signal (fail-closed), never as a skippable condition.
	ErrUnavailable = errors.New("classification unavailable")

	// ErrNoTerm means term extraction produced nothing usable. Feedback that
	// hits this is discarded with a report, never guessed at.
	ErrNoTerm = errors.New("no term extracted")
)

// Classifier is the request-response capability interface. Both calls block
// until the service answers or ctx / the client's own timeout expires.
type Classifier interface {
	ClassifyRisk(ctx context.Context, text string) (Judgment, error)
	ExtractTerm(ctx context.Context, text string) (string, error)
}
