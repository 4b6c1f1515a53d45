// Package decision merges the field validator and risk analyzer outputs into
// one terminal verdict.
package decision

import (
	"github.com/fundops/subreview/internal/validate"
	"github.com/fundops/subreview/pkg/types"
)

// Decide is total over its two inputs. Precedence is escalate > return >
// approve: any risk finding reaches a human even when fields are also
// missing, and severity does not change the verdict, only its reasons.
func Decide(outcome validate.Outcome, findings []types.RiskFinding) string {
	switch {
	case len(findings) > 0:
		return types.DecisionEscalate
	case len(outcome.MissingFields) > 0:
		return types.DecisionReturn
	default:
		return types.DecisionApprove
	}
}
