package catalog

import (
	"context"
	"testing"

	"github.com/tbourn/go-workshop-backend/internal/domain"
)

func newMatcher(entries ...domain.VehicleCatalogEntry) *Matcher {
	return NewMatcher(BuildIndex(entries))
}

func TestMatch_MissingDisplacement(t *testing.T) {
	m := newMatcher(entry("a", "RENAULT", "LOGAN", "1600", true))
	got, err := m.Match(context.Background(), "RENAULT", "LOGAN", "")
	if err != nil {
		t.Fatalf("Match: %v", err)
	}
	if got != nil {
		t.Fatalf("expected no match without displacement, got %+v", got)
	}
}

func TestMatch_ExactMakeLineDisplacement(t *testing.T) {
	m := newMatcher(
		entry("a", "RENAULT", "LOGAN", "1600", true),
		entry("b", "RENAULT", "SANDERO", "1600", true),
	)
	got, err := m.Match(context.Background(), "renault", "logan", "1.6")
	if err != nil {
		t.Fatalf("Match: %v", err)
	}
	if got == nil || got.Entry.ID != "a" || got.Type != domain.MatchExact {
		t.Fatalf("expected exact match on entry a, got %+v", got)
	}
}

func TestMatch_UniqueDisplacementIsExact(t *testing.T) {
	// Scenario: only one active entry with displacement 1300; engine-only
	// input "1.3" must classify as exact, not engine_similarity.
	m := newMatcher(
		entry("a", "RENAULT", "TWINGO", "1300", true),
		entry("b", "KIA", "RIO", "1400", true),
	)
	got, err := m.Match(context.Background(), "", "", "1.3")
	if err != nil {
		t.Fatalf("Match: %v", err)
	}
	if got == nil || got.Type != domain.MatchExact || got.Entry.ID != "a" {
		t.Fatalf("expected unique-displacement exact match, got %+v", got)
	}
}

func TestMatch_NarrowAmbiguityIsEngineSimilarity(t *testing.T) {
	// Three makes share displacement 1600: the first indexed entry is
	// returned with the engine_similarity classification.
	m := newMatcher(
		entry("a", "RENAULT", "LOGAN", "1600", true),
		entry("b", "KIA", "CERATO", "1.6", true),
		entry("c", "MAZDA", "3", "1600", true),
	)
	got, err := m.Match(context.Background(), "", "", "1600")
	if err != nil {
		t.Fatalf("Match: %v", err)
	}
	if got == nil || got.Type != domain.MatchEngineSimilarity || got.Entry.ID != "a" {
		t.Fatalf("expected engine_similarity on first entry, got %+v", got)
	}
}

func TestMatch_WideAmbiguityIsNoMatch(t *testing.T) {
	m := newMatcher(
		entry("a", "RENAULT", "LOGAN", "1600", true),
		entry("b", "KIA", "CERATO", "1600", true),
		entry("c", "MAZDA", "3", "1600", true),
		entry("d", "FORD", "FIESTA", "1.6", true),
	)
	got, err := m.Match(context.Background(), "", "", "1600")
	if err != nil {
		t.Fatalf("Match: %v", err)
	}
	if got != nil {
		t.Fatalf("four candidates should be too ambiguous, got %+v", got)
	}
}

func TestMatch_FallsBackToEngineOnlyWhenMakeLineMiss(t *testing.T) {
	m := newMatcher(entry("a", "RENAULT", "LOGAN", "1600", true))
	got, err := m.Match(context.Background(), "KIA", "RIO", "1600")
	if err != nil {
		t.Fatalf("Match: %v", err)
	}
	if got == nil || got.Entry.ID != "a" || got.Type != domain.MatchExact {
		t.Fatalf("expected engine-only unique match, got %+v", got)
	}
}

func TestMatch_UnparseableDisplacement(t *testing.T) {
	m := newMatcher(entry("a", "RENAULT", "LOGAN", "1600", true))
	got, err := m.Match(context.Background(), "", "", "not-a-number")
	if err != nil {
		t.Fatalf("Match: %v", err)
	}
	if got != nil {
		t.Fatalf("unparseable displacement must not match, got %+v", got)
	}
}
