package corpus

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/fundops/subreview/pkg/types"
)

// NormalizeTerm folds a term or free-text fragment into the form the corpus
// is keyed by: NFKC, lowercase, inner whitespace collapsed to single spaces.
// Two terms that normalize equally are the same corpus entry.
func NormalizeTerm(s string) string {
	folded := strings.ToLower(norm.NFKC.String(s))
	return strings.Join(strings.Fields(folded), " ")
}

// Matcher scans normalized text against a corpus snapshot. It is built per
// review from one snapshot and never observes later corpus writes.
type Matcher struct {
	terms []compiledTerm
}

type compiledTerm struct {
	entry types.TermEntry
	re    *regexp.Regexp
}

// NewMatcher compiles a snapshot. Entries that fail to compile (a learned
// pattern that is not a valid regexp) are skipped rather than failing the
// whole snapshot; one bad entry must not disable deterministic matching.
func NewMatcher(snapshot []types.TermEntry) *Matcher {
	m := &Matcher{terms: make([]compiledTerm, 0, len(snapshot))}
	for _, entry := range snapshot {
		re, err := compile(entry)
		if err != nil {
			continue
		}
		m.terms = append(m.terms, compiledTerm{entry: entry, re: re})
	}
	return m
}

func compile(entry types.TermEntry) (*regexp.Regexp, error) {
	if entry.Kind == types.TermKindPattern {
		return regexp.Compile("(?i)" + entry.Term)
	}
	// Keywords match whole words only: "crypto" must not fire on "cryptographic".
	return regexp.Compile(`(?i)\b` + regexp.QuoteMeta(entry.Term) + `\b`)
}

// Match returns every snapshot entry found in text, in snapshot order. The
// order is a contract: downstream reason lists surface the first N matches.
func (m *Matcher) Match(text string) []types.TermEntry {
	normalized := NormalizeTerm(text)
	var matched []types.TermEntry
	for _, ct := range m.terms {
		if ct.re.MatchString(normalized) {
			matched = append(matched, ct.entry)
		}
	}
	return matched
}
