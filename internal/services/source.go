// Package services – source records and merge mechanics
//
// This file defines the inbound observation shape (SourceRecord), the
// normalization that turns it into a merge payload, the completeness score
// used to rank duplicate profiles, and the field-by-field merge itself.
// The merge is deliberately free of persistence concerns: it mutates an
// in-memory profile and reports whether anything changed, leaving storage
// and auditing to ProfileService.
package services

import (
	"strings"

	"github.com/tbourn/go-workshop-backend/internal/domain"
)

// SourceRecord is one inbound customer/vehicle observation, as submitted by
// an intake form, a bulk import row, or an integration. Several fields accept
// a legacy alias (Document for IDNumber, Make for Brand, Displacement for
// Engine, ModelYear for Year); when both are present the primary name wins.
type SourceRecord struct {
	Plate string `json:"plate"`

	IDNumber string `json:"idNumber"`
	Document string `json:"document"`
	Name     string `json:"name"`
	Phone    string `json:"phone"`
	Email    string `json:"email"`
	Address  string `json:"address"`

	VehicleID    string `json:"vehicleId"`
	Brand        string `json:"brand"`
	Make         string `json:"make"`
	Line         string `json:"line"`
	Engine       string `json:"engine"`
	Displacement string `json:"displacement"`
	Year         *int   `json:"year"`
	ModelYear    *int   `json:"modelYear"`
	Mileage      *int   `json:"mileage"`
}

// MergeOptions control how an incoming payload interacts with stored values.
// The zero value is the safe default: fill missing fields only, never clobber.
type MergeOptions struct {
	// OverwriteCustomer replaces non-empty stored customer fields with
	// non-empty incoming ones instead of only filling gaps.
	OverwriteCustomer bool
	// OverwriteVehicle does the same for brand, line and engine.
	OverwriteVehicle bool
	// OverwriteYear allows replacing a known model year.
	OverwriteYear bool
	// OverwriteMileage bypasses the monotonic mileage rule.
	OverwriteMileage bool
	// Source labels the origin of the record in the history ledger
	// (e.g. "api", "import").
	Source string
}

// FieldChange is one before/after pair in a merge diff.
type FieldChange struct {
	Before any `json:"before"`
	After  any `json:"after"`
}

// buildPayload resolves aliases and normalizes the record into clean customer
// and vehicle values. Plate, brand, line and engine are upper-cased; all
// strings are trimmed.
func buildPayload(rec SourceRecord) (domain.Customer, domain.Vehicle) {
	cust := domain.Customer{
		IDNumber: strings.TrimSpace(coalesce(rec.IDNumber, rec.Document)),
		Name:     strings.TrimSpace(rec.Name),
		Phone:    strings.TrimSpace(rec.Phone),
		Email:    strings.TrimSpace(rec.Email),
		Address:  strings.TrimSpace(rec.Address),
	}
	veh := domain.Vehicle{
		Plate:     normKey(rec.Plate),
		VehicleID: strings.TrimSpace(rec.VehicleID),
		Brand:     normKey(coalesce(rec.Brand, rec.Make)),
		Line:      normKey(rec.Line),
		Engine:    normKey(coalesce(rec.Engine, rec.Displacement)),
		Year:      coalesceInt(rec.Year, rec.ModelYear),
		Mileage:   rec.Mileage,
	}
	return cust, veh
}

// Completeness weights. Identity-bearing fields weigh more than contact or
// descriptive ones so the richest duplicate survives deduplication.
const (
	weightName     = 5
	weightIDNumber = 3
	weightPhone    = 2
	weightBrand    = 2
	weightEmail    = 1
	weightAddress  = 1
	weightLine     = 1
	weightEngine   = 1
	weightYear     = 1
	weightMileage  = 1
)

// score returns the completeness score of a profile. Higher means richer.
func score(p domain.CustomerProfile) int {
	s := 0
	if p.Customer.Name != "" {
		s += weightName
	}
	if p.Customer.IDNumber != "" {
		s += weightIDNumber
	}
	if p.Customer.Phone != "" {
		s += weightPhone
	}
	if p.Customer.Email != "" {
		s += weightEmail
	}
	if p.Customer.Address != "" {
		s += weightAddress
	}
	if p.Vehicle.Brand != "" {
		s += weightBrand
	}
	if p.Vehicle.Line != "" {
		s += weightLine
	}
	if p.Vehicle.Engine != "" {
		s += weightEngine
	}
	if p.Vehicle.Year != nil {
		s += weightYear
	}
	if p.Vehicle.Mileage != nil {
		s += weightMileage
	}
	return s
}

// merge applies the payload to the profile in place and returns the diff of
// changed top-level sections (customer, vehicle, plate). An empty diff means
// the merge was a no-op.
//
// Rules:
//   - Under the fill-missing policy, empty or nil incoming values never erase
//     stored data; string fields only fill gaps.
//   - With the matching overwrite option the incoming value is authoritative:
//     it replaces the stored one even when empty, so an explicit edit can
//     clear a field. Nil Year/Mileage still mean "not observed" and are
//     never applied.
//   - Mileage only moves forward unless OverwriteMileage is set: an incoming
//     value is applied when nothing is stored or when it is greater.
//   - An incoming VehicleID always wins; it is the product of an explicit
//     assignment upstream, never a guess.
func merge(p *domain.CustomerProfile, cust domain.Customer, veh domain.Vehicle, opts MergeOptions) map[string]FieldChange {
	beforeCustomer := p.Customer
	beforeVehicle := p.Vehicle
	beforePlate := p.Plate

	mergeStr(&p.Customer.IDNumber, cust.IDNumber, opts.OverwriteCustomer)
	mergeStr(&p.Customer.Name, cust.Name, opts.OverwriteCustomer)
	mergeStr(&p.Customer.Phone, cust.Phone, opts.OverwriteCustomer)
	mergeStr(&p.Customer.Email, cust.Email, opts.OverwriteCustomer)
	mergeStr(&p.Customer.Address, cust.Address, opts.OverwriteCustomer)

	if veh.Plate != "" {
		p.Plate = veh.Plate
		p.Vehicle.Plate = veh.Plate
	}
	if veh.VehicleID != "" {
		p.Vehicle.VehicleID = veh.VehicleID
	}
	mergeStr(&p.Vehicle.Brand, veh.Brand, opts.OverwriteVehicle)
	mergeStr(&p.Vehicle.Line, veh.Line, opts.OverwriteVehicle)
	mergeStr(&p.Vehicle.Engine, veh.Engine, opts.OverwriteVehicle)

	if veh.Year != nil && (p.Vehicle.Year == nil || opts.OverwriteYear) {
		y := *veh.Year
		p.Vehicle.Year = &y
	}
	if veh.Mileage != nil &&
		(opts.OverwriteMileage || p.Vehicle.Mileage == nil || *veh.Mileage > *p.Vehicle.Mileage) {
		m := *veh.Mileage
		p.Vehicle.Mileage = &m
	}

	diff := map[string]FieldChange{}
	if beforeCustomer != p.Customer {
		diff["customer"] = FieldChange{Before: beforeCustomer, After: p.Customer}
	}
	if !vehicleEqual(beforeVehicle, p.Vehicle) {
		diff["vehicle"] = FieldChange{Before: beforeVehicle, After: p.Vehicle}
	}
	if beforePlate != p.Plate {
		diff["plate"] = FieldChange{Before: beforePlate, After: p.Plate}
	}
	return diff
}

func mergeStr(dst *string, incoming string, overwrite bool) {
	if overwrite {
		*dst = incoming
		return
	}
	if incoming != "" && *dst == "" {
		*dst = incoming
	}
}

// vehicleEqual compares vehicles by value, dereferencing the nullable fields.
func vehicleEqual(a, b domain.Vehicle) bool {
	return a.Plate == b.Plate &&
		a.VehicleID == b.VehicleID &&
		a.Brand == b.Brand &&
		a.Line == b.Line &&
		a.Engine == b.Engine &&
		intPtrEqual(a.Year, b.Year) &&
		intPtrEqual(a.Mileage, b.Mileage)
}

func intPtrEqual(a, b *int) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func coalesce(a, b string) string {
	if strings.TrimSpace(a) != "" {
		return a
	}
	return b
}

func coalesceInt(a, b *int) *int {
	if a != nil {
		return a
	}
	return b
}

// normKey trims and upper-cases a lookup key (plate, brand, line, engine).
func normKey(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}
