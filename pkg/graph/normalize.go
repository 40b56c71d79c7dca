package graph

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// Normalizer collapses surface-form entity names to one canonical form.
// Subtitle translations drift between nicknames, romanizations and
// per-episode variants; the alias table pins them all to one name.
type Normalizer struct {
	aliases map[string]string
}

// NewNormalizer creates a Normalizer over the given alias table. A nil table
// yields a normalizer that only trims whitespace. Chained aliases are
// flattened to their final form up front, and a cycle maps every member to
// itself, so normalization stays idempotent for any table.
func NewNormalizer(aliases map[string]string) *Normalizer {
	resolved := make(map[string]string, len(aliases))
	for from, to := range aliases {
		seen := map[string]struct{}{from: {}}
		for {
			next, ok := aliases[to]
			if !ok || next == to {
				break
			}
			if _, cycle := seen[to]; cycle {
				to = from
				break
			}
			seen[to] = struct{}{}
			to = next
		}
		resolved[from] = to
	}
	return &Normalizer{aliases: resolved}
}

// LoadAliasTable reads an alias table from a JSON file mapping surface forms
// to canonical names. An empty path returns an empty table.
func LoadAliasTable(path string) (map[string]string, error) {
	if path == "" {
		return map[string]string{}, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read alias table: %w", err)
	}

	aliases := map[string]string{}
	if err := json.Unmarshal(data, &aliases); err != nil {
		return nil, fmt.Errorf("failed to parse alias table: %w", err)
	}

	return aliases, nil
}

// Normalize trims surrounding whitespace and maps the result through the
// alias table. Unknown names pass through trimmed but otherwise unchanged.
// Normalize is pure, total and idempotent.
func (n *Normalizer) Normalize(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if canonical, ok := n.aliases[trimmed]; ok {
		return canonical
	}
	return trimmed
}
