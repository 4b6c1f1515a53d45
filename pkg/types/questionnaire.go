package types

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// Questionnaire is an investor-submitted subscription record under review.
// Every field is representable as absent: the field validator reports gaps,
// parsing never rejects them.
type Questionnaire struct {
	QuestionnaireID          string  `json:"questionnaire_id,omitempty"`
	InvestorName             string  `json:"investor_name,omitempty"`
	InvestorAddress          string  `json:"investor_address,omitempty"`
	InvestorType             string  `json:"investor_type,omitempty"`
	InvestmentAmount         *Amount `json:"investment_amount,omitempty"`
	IsAccreditedInvestor     *bool   `json:"is_accredited_investor,omitempty"`
	AccreditationDetails     string  `json:"accreditation_details,omitempty"`
	SourceOfFundsDescription string  `json:"source_of_funds_description,omitempty"`
	TaxIDProvided            bool    `json:"tax_id_provided,omitempty"`
	SignaturePresent         bool    `json:"signature_present,omitempty"`
	SubmissionDate           string  `json:"submission_date,omitempty"`
}

// Amount is a tolerant decimal. Submissions carry amounts as JSON numbers or
// numeric strings; anything else decodes as present-but-invalid so the field
// validator can report it instead of failing the whole record.
type Amount struct {
	Value float64
	Valid bool
}

func NewAmount(v float64) *Amount {
	return &Amount{Value: v, Valid: true}
}

func (a *Amount) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		*a = Amount{}
		return nil
	}

	raw := string(data)
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			*a = Amount{}
			return nil
		}
		raw = strings.TrimSpace(strings.ReplaceAll(s, ",", ""))
		raw = strings.TrimPrefix(raw, "$")
	}

	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		*a = Amount{}
		return nil
	}

	*a = Amount{Value: value, Valid: true}
	return nil
}

func (a Amount) MarshalJSON() ([]byte, error) {
	if !a.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(a.Value)
}
