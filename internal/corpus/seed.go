package corpus

import (
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"

	"github.com/fundops/subreview/pkg/types"
)

// Seed is the operator-maintained initial term set, loaded once at startup.
// Learned entries accumulate beside it in the store; the seed file itself is
// never rewritten by the service.
type Seed struct {
	Keywords []string      `yaml:"keywords"`
	Patterns []SeedPattern `yaml:"patterns"`
}

type SeedPattern struct {
	Pattern     string `yaml:"pattern"`
	Description string `yaml:"description"`
}

// LoadSeed loads and validates a YAML seed file. Seed patterns are operator
// input, so an invalid regexp is a startup error, not a skipped entry.
func LoadSeed(path string) (Seed, error) {
	// #nosec G304 -- path is operator-provided seed path.
	data, err := os.ReadFile(path)
	if err != nil {
		return Seed{}, err
	}

	var seed Seed
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return Seed{}, err
	}
	return seed, seed.Validate()
}

func (s Seed) Validate() error {
	for _, kw := range s.Keywords {
		if NormalizeTerm(kw) == "" {
			return fmt.Errorf("empty keyword in seed")
		}
	}
	for _, p := range s.Patterns {
		if p.Pattern == "" {
			return fmt.Errorf("empty pattern in seed")
		}
		if _, err := regexp.Compile("(?i)" + p.Pattern); err != nil {
			return fmt.Errorf("invalid seed pattern %q: %w", p.Pattern, err)
		}
	}
	return nil
}

// Entries converts the seed to normalized corpus entries, keywords first,
// preserving file order.
func (s Seed) Entries(createdAt string) []types.TermEntry {
	entries := make([]types.TermEntry, 0, len(s.Keywords)+len(s.Patterns))
	for _, kw := range s.Keywords {
		entries = append(entries, types.TermEntry{
			Term:      NormalizeTerm(kw),
			Kind:      types.TermKindKeyword,
			Source:    types.TermSourceSeed,
			CreatedAt: createdAt,
		})
	}
	for _, p := range s.Patterns {
		entries = append(entries, types.TermEntry{
			Term:      p.Pattern,
			Kind:      types.TermKindPattern,
			Source:    types.TermSourceSeed,
			CreatedAt: createdAt,
		})
	}
	return entries
}
