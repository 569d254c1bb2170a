package domain

import "testing"

func intp(v int) *int { return &v }

func TestIsYearInRange(t *testing.T) {
	cases := []struct {
		name  string
		entry VehicleCatalogEntry
		year  int
		want  bool
	}{
		{"no bounds accepts anything", VehicleCatalogEntry{}, 1999, true},
		{"single year match", VehicleCatalogEntry{YearFrom: intp(2015)}, 2015, true},
		{"single year mismatch", VehicleCatalogEntry{YearFrom: intp(2015)}, 2016, false},
		{"range inside", VehicleCatalogEntry{YearFrom: intp(2010), YearTo: intp(2015)}, 2012, true},
		{"range lower bound", VehicleCatalogEntry{YearFrom: intp(2010), YearTo: intp(2015)}, 2010, true},
		{"range upper bound", VehicleCatalogEntry{YearFrom: intp(2010), YearTo: intp(2015)}, 2015, true},
		{"range below", VehicleCatalogEntry{YearFrom: intp(2010), YearTo: intp(2015)}, 2009, false},
		{"range above", VehicleCatalogEntry{YearFrom: intp(2010), YearTo: intp(2015)}, 2016, false},
		{"open lower bound", VehicleCatalogEntry{YearTo: intp(2015)}, 1990, true},
		{"open lower bound above", VehicleCatalogEntry{YearTo: intp(2015)}, 2016, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.entry.IsYearInRange(tc.year); got != tc.want {
				t.Fatalf("IsYearInRange(%d) = %v, want %v", tc.year, got, tc.want)
			}
		})
	}
}

func TestHasSuggestion(t *testing.T) {
	var u UnassignedVehicle
	if u.HasSuggestion() {
		t.Fatal("empty record should not report a suggestion")
	}
	u.Suggested = SuggestedVehicle{VehicleID: "v1", MatchType: MatchExact}
	if !u.HasSuggestion() {
		t.Fatal("record with a vehicle id should report a suggestion")
	}
}
