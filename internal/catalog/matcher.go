package catalog

import (
	"context"
	"fmt"
	"strings"

	"github.com/tbourn/go-workshop-backend/internal/displacement"
	"github.com/tbourn/go-workshop-backend/internal/domain"
)

// Match is the outcome of resolving a vehicle description against the
// catalog. Type is one of domain.MatchExact or domain.MatchEngineSimilarity;
// Confidence is a human-readable rationale shown verbatim to operators and
// stored on unassigned-vehicle suggestions. Branch on Type, never on
// Confidence.
type Match struct {
	Entry      domain.VehicleCatalogEntry
	Type       string
	Confidence string
}

// Matcher resolves (make, line, displacement) descriptions, or a displacement
// alone, to a catalog entry. It is a pure query component over whatever
// Catalog accessor it is given — an Index snapshot during batch runs, or a
// live store during interactive merges.
type Matcher struct {
	catalog Catalog
}

// NewMatcher returns a Matcher bound to the given catalog accessor.
func NewMatcher(c Catalog) *Matcher {
	return &Matcher{catalog: c}
}

// Match returns the best candidate for the description, or nil when nothing
// can be resolved with enough confidence. Displacement is mandatory: without
// it there is no match.
//
// Rules, in priority order:
//
//  1. Exact: when make and line are supplied, the first active entry with the
//     same make and line whose displacement equals or is equivalent to the
//     input. When several model-year variants exist, the earliest indexed one
//     wins; callers needing year accuracy post-filter with IsYearInRange.
//  2. Engine-only: all active entries with an equivalent displacement,
//     regardless of make/line. Exactly one candidate is a unique engine size
//     and classifies as exact; two or three candidates classify as
//     engine_similarity and return the first; zero or four-plus candidates
//     are too ambiguous to auto-resolve.
func (m *Matcher) Match(ctx context.Context, make, line, disp string) (*Match, error) {
	disp = strings.TrimSpace(disp)
	if disp == "" {
		return nil, nil
	}
	mk := strings.ToUpper(strings.TrimSpace(make))
	ln := strings.ToUpper(strings.TrimSpace(line))

	if mk != "" && ln != "" {
		entries, err := m.catalog.Entries(ctx)
		if err != nil {
			return nil, err
		}
		for _, e := range entries {
			if e.Make != mk || e.Line != ln {
				continue
			}
			if strings.EqualFold(e.Displacement, disp) || displacement.Equivalent(e.Displacement, disp) {
				return &Match{
					Entry:      e,
					Type:       domain.MatchExact,
					Confidence: fmt.Sprintf("exact match: %s %s %s", e.Make, e.Line, e.Displacement),
				}, nil
			}
		}
	}

	canon := displacement.Normalize(disp)
	if canon == "" {
		return nil, nil
	}
	candidates, err := m.catalog.ByDisplacement(ctx, canon)
	if err != nil {
		return nil, err
	}
	candidates = dedupeByID(candidates)
	switch n := len(candidates); {
	case n == 1:
		e := candidates[0]
		return &Match{
			Entry:      e,
			Type:       domain.MatchExact,
			Confidence: fmt.Sprintf("unique displacement match: %s %s %s", e.Make, e.Line, e.Displacement),
		}, nil
	case n >= 2 && n <= 3:
		e := candidates[0]
		return &Match{
			Entry:      e,
			Type:       domain.MatchEngineSimilarity,
			Confidence: fmt.Sprintf("displacement matches (%d candidates): %s %s %s", n, e.Make, e.Line, e.Displacement),
		}, nil
	default:
		return nil, nil
	}
}

// dedupeByID drops repeated catalog entries while keeping first-seen order.
func dedupeByID(entries []domain.VehicleCatalogEntry) []domain.VehicleCatalogEntry {
	if len(entries) < 2 {
		return entries
	}
	seen := make(map[string]struct{}, len(entries))
	out := entries[:0:0]
	for _, e := range entries {
		if _, ok := seen[e.ID]; ok {
			continue
		}
		seen[e.ID] = struct{}{}
		out = append(out, e)
	}
	return out
}
