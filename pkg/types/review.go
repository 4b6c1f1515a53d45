package types

// Decision is the terminal verdict for one questionnaire. All three values
// are successful pipeline outcomes; escalate is not an error state.
const (
	DecisionApprove  = "approve"
	DecisionReturn   = "return"
	DecisionEscalate = "escalate"
)

type Severity string

const (
	// SeverityFlag marks a concern that needs human eyes.
	SeverityFlag Severity = "flag"
	// SeverityBlock marks a concern that unconditionally forces escalation.
	SeverityBlock Severity = "block"
)

// RiskFinding is one escalation reason. Signal carries the matched term or
// classifier verdict that triggered it.
type RiskFinding struct {
	Reason   string   `json:"reason"`
	Severity Severity `json:"severity"`
	Signal   string   `json:"signal,omitempty"`
}

// ReviewResult is the append-only output record for one review. Constructed
// once by the decision engine, never mutated afterwards.
type ReviewResult struct {
	Schema            string        `json:"schema"`
	ReviewID          string        `json:"review_id"`
	QuestionnaireID   string        `json:"questionnaire_id,omitempty"`
	Decision          string        `json:"decision"`
	MissingFields     []string      `json:"missing_fields"`
	EscalationReasons []RiskFinding `json:"escalation_reasons"`
	CreatedAt         string        `json:"created_at"`
}

// TermEntry is one suspicious-term corpus entry, keyed by its normalized term.
type TermEntry struct {
	Term      string `json:"term"`
	Kind      string `json:"kind"`
	Source    string `json:"source"`
	CreatedAt string `json:"created_at"`
}

const (
	TermKindKeyword = "keyword"
	TermKindPattern = "pattern"

	TermSourceSeed    = "seed"
	TermSourceLearned = "learned"
)
