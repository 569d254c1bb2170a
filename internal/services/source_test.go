package services

import (
	"testing"

	"github.com/tbourn/go-workshop-backend/internal/domain"
)

func TestBuildPayload_AliasesAndNormalization(t *testing.T) {
	cust, veh := buildPayload(SourceRecord{
		Plate:        "  abc123 ",
		Document:     " 900123 ",
		Name:         "  Maria Gomez ",
		Make:         "renault",
		Line:         " logan ",
		Displacement: "1.6",
		ModelYear:    intp(2018),
	})

	if cust.IDNumber != "900123" || cust.Name != "Maria Gomez" {
		t.Fatalf("customer aliases not applied: %+v", cust)
	}
	if veh.Plate != "ABC123" || veh.Brand != "RENAULT" || veh.Line != "LOGAN" || veh.Engine != "1.6" {
		t.Fatalf("vehicle keys not normalized: %+v", veh)
	}
	if veh.Year == nil || *veh.Year != 2018 {
		t.Fatalf("modelYear alias lost: %+v", veh.Year)
	}
}

func TestBuildPayload_PrimaryNameBeatsAlias(t *testing.T) {
	cust, veh := buildPayload(SourceRecord{
		IDNumber: "A",
		Document: "B",
		Brand:    "RENAULT",
		Make:     "KIA",
		Engine:   "1600",
		Year:     intp(2019),
		ModelYear: intp(2001),
	})
	if cust.IDNumber != "A" || veh.Brand != "RENAULT" || veh.Engine != "1600" {
		t.Fatalf("primary fields must win over aliases: %+v %+v", cust, veh)
	}
	if *veh.Year != 2019 {
		t.Fatalf("year alias must not shadow year: %d", *veh.Year)
	}
}

func TestScore_RanksRicherProfiles(t *testing.T) {
	rich := domain.CustomerProfile{
		Customer: domain.Customer{Name: "MARIA", IDNumber: "900123", Phone: "300"},
		Vehicle:  domain.Vehicle{Brand: "RENAULT", Line: "LOGAN"},
	}
	poor := domain.CustomerProfile{
		Customer: domain.Customer{Phone: "300"},
	}
	if score(rich) <= score(poor) {
		t.Fatalf("richer profile must outrank: %d vs %d", score(rich), score(poor))
	}
	// Name alone outweighs phone+email+address combined.
	named := domain.CustomerProfile{Customer: domain.Customer{Name: "X"}}
	contact := domain.CustomerProfile{Customer: domain.Customer{Phone: "1", Email: "a@b", Address: "c"}}
	if score(named) <= score(contact) {
		t.Fatalf("name weight too low: %d vs %d", score(named), score(contact))
	}
}

func TestMerge_FillsMissingWithoutClobbering(t *testing.T) {
	p := &domain.CustomerProfile{
		Plate:    "ABC123",
		Customer: domain.Customer{Name: "MARIA GOMEZ"},
		Vehicle:  domain.Vehicle{Plate: "ABC123", Brand: "RENAULT"},
	}
	diff := merge(p,
		domain.Customer{Name: "M. GOMEZ", Phone: "3001234567"},
		domain.Vehicle{Plate: "ABC123", Line: "LOGAN"},
		MergeOptions{},
	)

	if p.Customer.Name != "MARIA GOMEZ" {
		t.Fatalf("existing name clobbered: %q", p.Customer.Name)
	}
	if p.Customer.Phone != "3001234567" || p.Vehicle.Line != "LOGAN" {
		t.Fatalf("gaps not filled: %+v %+v", p.Customer, p.Vehicle)
	}
	if _, ok := diff["customer"]; !ok {
		t.Fatal("expected customer diff entry")
	}
	if _, ok := diff["vehicle"]; !ok {
		t.Fatal("expected vehicle diff entry")
	}
	if _, ok := diff["plate"]; ok {
		t.Fatal("plate did not change, diff must not report it")
	}
}

func TestMerge_OverwriteReplacesExisting(t *testing.T) {
	p := &domain.CustomerProfile{
		Customer: domain.Customer{Name: "OLD NAME"},
		Vehicle:  domain.Vehicle{Brand: "RENAUL"},
	}
	merge(p,
		domain.Customer{Name: "NEW NAME"},
		domain.Vehicle{Brand: "RENAULT"},
		MergeOptions{OverwriteCustomer: true, OverwriteVehicle: true},
	)
	if p.Customer.Name != "NEW NAME" || p.Vehicle.Brand != "RENAULT" {
		t.Fatalf("overwrite options ignored: %+v %+v", p.Customer, p.Vehicle)
	}
}

func TestMerge_EmptyIncomingNeverErasesUnderFillMissing(t *testing.T) {
	p := &domain.CustomerProfile{
		Plate:    "ABC123",
		Customer: domain.Customer{Name: "MARIA", Phone: "300"},
		Vehicle:  domain.Vehicle{Plate: "ABC123", Brand: "RENAULT", Year: intp(2018)},
	}
	diff := merge(p, domain.Customer{}, domain.Vehicle{}, MergeOptions{})
	if len(diff) != 0 {
		t.Fatalf("empty payload must be a no-op, diff=%v", diff)
	}
	if p.Customer.Name != "MARIA" || p.Vehicle.Brand != "RENAULT" || p.Vehicle.Year == nil {
		t.Fatalf("stored data erased: %+v %+v", p.Customer, p.Vehicle)
	}
}

func TestMerge_OverwriteClearsStoredFieldsWithEmptyIncoming(t *testing.T) {
	// An explicit user edit that blanks the name and supplies a phone: under
	// the overwrite policy the empty name is applied, it is not a gap.
	p := &domain.CustomerProfile{
		Plate:    "ABC123",
		Customer: domain.Customer{Name: "JUAN"},
		Vehicle:  domain.Vehicle{Plate: "ABC123", Year: intp(2018)},
	}
	diff := merge(p,
		domain.Customer{Name: "", Phone: "3001234567"},
		domain.Vehicle{},
		MergeOptions{OverwriteCustomer: true, OverwriteYear: true},
	)

	if p.Customer.Name != "" {
		t.Fatalf("name should be cleared, got %q", p.Customer.Name)
	}
	if p.Customer.Phone != "3001234567" {
		t.Fatalf("phone not applied: %+v", p.Customer)
	}
	if _, ok := diff["customer"]; !ok {
		t.Fatalf("clearing a field must show in the diff: %v", diff)
	}
	// Nil year is "not observed", not "clear it": it survives even with the
	// overwrite flag set.
	if p.Vehicle.Year == nil || *p.Vehicle.Year != 2018 {
		t.Fatalf("nil incoming year erased stored year: %+v", p.Vehicle.Year)
	}
}

func TestMerge_MileageMonotonic(t *testing.T) {
	cases := []struct {
		name      string
		stored    *int
		incoming  *int
		overwrite bool
		want      *int
	}{
		{"fills unknown", nil, intp(42000), false, intp(42000)},
		{"advances forward", intp(42000), intp(50000), false, intp(50000)},
		{"rejects rollback", intp(50000), intp(42000), false, intp(50000)},
		{"overwrite forces rollback", intp(50000), intp(42000), true, intp(42000)},
		{"nil incoming keeps stored", intp(50000), nil, true, intp(50000)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := &domain.CustomerProfile{Vehicle: domain.Vehicle{Mileage: tc.stored}}
			merge(p, domain.Customer{}, domain.Vehicle{Mileage: tc.incoming},
				MergeOptions{OverwriteMileage: tc.overwrite})
			if !intPtrEqual(p.Vehicle.Mileage, tc.want) {
				t.Fatalf("mileage = %v, want %v", p.Vehicle.Mileage, tc.want)
			}
		})
	}
}

func TestMerge_YearFillsButNeverOverwritesByDefault(t *testing.T) {
	p := &domain.CustomerProfile{Vehicle: domain.Vehicle{Year: intp(2018)}}
	merge(p, domain.Customer{}, domain.Vehicle{Year: intp(2020)}, MergeOptions{})
	if *p.Vehicle.Year != 2018 {
		t.Fatalf("year clobbered without overwrite flag: %d", *p.Vehicle.Year)
	}
	merge(p, domain.Customer{}, domain.Vehicle{Year: intp(2020)}, MergeOptions{OverwriteYear: true})
	if *p.Vehicle.Year != 2020 {
		t.Fatalf("year overwrite ignored: %d", *p.Vehicle.Year)
	}
}

func TestMerge_VehicleIDAlwaysWins(t *testing.T) {
	p := &domain.CustomerProfile{Vehicle: domain.Vehicle{VehicleID: "old-id"}}
	merge(p, domain.Customer{}, domain.Vehicle{VehicleID: "new-id"}, MergeOptions{})
	if p.Vehicle.VehicleID != "new-id" {
		t.Fatalf("explicit vehicle assignment must always apply: %q", p.Vehicle.VehicleID)
	}
}
