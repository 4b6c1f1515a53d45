// Package validate checks required-field presence and the investment-amount
// threshold. It is a pure function of the questionnaire and the configured
// minimum; risk judgment lives elsewhere.
package validate

import (
	"strings"

	"github.com/fundops/subreview/pkg/types"
)

// Stable field identifiers reported in ValidationOutcome. These are part of
// the output contract; downstream tooling keys on them.
const (
	FieldInvestorName       = "investor_name"
	FieldTaxID              = "tax_id"
	FieldSignature          = "signature"
	FieldInvestmentAmount   = "investment_amount"
	FieldAmountBelowMinimum = "investment_amount_below_minimum"
)

// Outcome is the ordered missing/invalid field list for one review.
type Outcome struct {
	MissingFields []string
	BelowMinimum  bool
}

func (o Outcome) Clean() bool {
	return len(o.MissingFields) == 0
}

// Check reports absent or empty required fields and the threshold result.
// A present-but-invalid amount (non-numeric, negative) is reported under
// investment_amount; an amount below minInvestment is a distinct validity
// failure and can coexist with other missing fields. Never errors.
func Check(q types.Questionnaire, minInvestment float64) Outcome {
	var out Outcome

	if strings.TrimSpace(q.InvestorName) == "" {
		out.MissingFields = append(out.MissingFields, FieldInvestorName)
	}
	if !q.TaxIDProvided {
		out.MissingFields = append(out.MissingFields, FieldTaxID)
	}
	if !q.SignaturePresent {
		out.MissingFields = append(out.MissingFields, FieldSignature)
	}

	switch {
	case q.InvestmentAmount == nil, !q.InvestmentAmount.Valid, q.InvestmentAmount.Value < 0:
		out.MissingFields = append(out.MissingFields, FieldInvestmentAmount)
	case q.InvestmentAmount.Value < minInvestment:
		// Equality passes: the threshold is a floor, not an exclusive bound.
		out.MissingFields = append(out.MissingFields, FieldAmountBelowMinimum)
		out.BelowMinimum = true
	}

	return out
}
