// Package domain defines the persistence models for the workshop customer
// and vehicle reconciliation subsystem. These types are mapped with GORM and
// form the core data layer of the application.
//
// All records are tenant-scoped: every row carries a TenantID and queries must
// always filter by it. Cross-tenant reads or merges are never performed.
package domain

import (
	"time"

	"gorm.io/datatypes"
)

// Customer holds the identity fields of a workshop customer. It is embedded
// into CustomerProfile and UnassignedVehicle (as a point-in-time snapshot).
// Empty strings mean "unknown"; the merge engine treats them as absent.
type Customer struct {
	IDNumber string `json:"idNumber" gorm:"type:varchar(32)"`
	Name     string `json:"name"     gorm:"type:varchar(128)"`
	Phone    string `json:"phone"    gorm:"type:varchar(32)"`
	Email    string `json:"email"    gorm:"type:varchar(128)"`
	Address  string `json:"address"  gorm:"type:varchar(256)"`
}

// Vehicle holds the vehicle fields attached to a profile. Plate, Brand, Line
// and Engine are stored upper-cased. VehicleID, when non-empty, references an
// active VehicleCatalogEntry; it is never guessed by the merge engine without
// a confident match. Year and Mileage are nullable: nil means "unknown".
type Vehicle struct {
	Plate     string `json:"plate"               gorm:"type:varchar(32)"`
	VehicleID string `json:"vehicleId,omitempty" gorm:"type:char(36)"`
	Brand     string `json:"brand"               gorm:"type:varchar(64)"`
	Line      string `json:"line"                gorm:"type:varchar(64)"`
	Engine    string `json:"engine"              gorm:"type:varchar(32)"`
	Year      *int   `json:"year,omitempty"`
	Mileage   *int   `json:"mileage,omitempty"`
}

// CustomerProfile is the root aggregate of the reconciliation engine: one row
// per (tenant, plate), enforced by a composite unique index. It is created on
// the first reconciled sighting of a plate and mutated by every subsequent
// merge.
//
// Historical imports sometimes stored the plate only under the nested vehicle
// record; lookups therefore match either the top-level Plate column or
// Vehicle.Plate (column vehicle_plate).
type CustomerProfile struct {
	ID       string `json:"id"        gorm:"type:char(36);primaryKey"`
	TenantID string `json:"tenant_id" gorm:"type:char(36);not null;uniqueIndex:ux_profiles_tenant_plate,priority:1"`
	Plate    string `json:"plate"     gorm:"type:varchar(32);not null;uniqueIndex:ux_profiles_tenant_plate,priority:2"`

	Customer Customer `json:"customer" gorm:"embedded;embeddedPrefix:customer_"`
	Vehicle  Vehicle  `json:"vehicle"  gorm:"embedded;embeddedPrefix:vehicle_"`

	// Tier is a loyalty tier ("General" or "GOLD") managed outside the merge
	// flow; reconciliation never touches it.
	Tier string `json:"tier" gorm:"type:varchar(16);not null;default:'General'"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName returns the database table name for CustomerProfile.
func (CustomerProfile) TableName() string { return "customer_profiles" }

// VehicleCatalogEntry is a canonical vehicle definition from the per-tenant
// catalog. The reconciliation engine only reads these rows; catalog authoring
// happens elsewhere. Make, Line and Displacement are stored upper-cased.
//
// YearFrom/YearTo describe the model-year coverage: both nil means "any year",
// YearFrom alone means a single year, both set means an inclusive range.
type VehicleCatalogEntry struct {
	ID           string    `json:"id"           gorm:"type:char(36);primaryKey"`
	TenantID     string    `json:"tenant_id"    gorm:"type:char(36);not null;index"`
	Make         string    `json:"make"         gorm:"type:varchar(64);not null"`
	Line         string    `json:"line"         gorm:"type:varchar(64);not null"`
	Displacement string    `json:"displacement" gorm:"type:varchar(32);not null"`
	YearFrom     *int      `json:"yearFrom,omitempty"`
	YearTo       *int      `json:"yearTo,omitempty"`
	// Active carries no column default on purpose: GORM skips zero-value
	// fields that have one, which would persist a retired (false) entry as
	// active on insert. Writers always set it explicitly.
	Active    bool      `json:"active" gorm:"not null;index"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName returns the database table name for VehicleCatalogEntry.
func (VehicleCatalogEntry) TableName() string { return "vehicle_catalog" }

// IsYearInRange reports whether the given model year falls inside this
// entry's coverage. Entries without year bounds accept any year; an entry
// with only YearFrom covers that single year.
func (e VehicleCatalogEntry) IsYearInRange(year int) bool {
	switch {
	case e.YearFrom == nil && e.YearTo == nil:
		return true
	case e.YearFrom != nil && e.YearTo == nil:
		return year == *e.YearFrom
	case e.YearFrom == nil:
		return year <= *e.YearTo
	default:
		return year >= *e.YearFrom && year <= *e.YearTo
	}
}

// Merge actions recorded in the profile history ledger.
const (
	ActionCreated   = "created"
	ActionUpdated   = "updated"
	ActionUnchanged = "unchanged"
)

// CustomerProfileHistory is the append-only audit ledger: exactly one row per
// merge attempt, including no-ops. Rows are never updated or deleted, and
// deleting a profile does not cascade here — the trail must survive.
//
// Diff maps changed top-level fields (customer, vehicle, plate) to their
// before/after values; Snapshot is the full post-merge profile; Meta carries
// the overwrite options the caller used.
type CustomerProfileHistory struct {
	ID        string         `json:"id"         gorm:"type:char(36);primaryKey"`
	TenantID  string         `json:"tenant_id"  gorm:"type:char(36);not null;index:idx_history_tenant_plate,priority:1"`
	ProfileID string         `json:"profile_id" gorm:"type:char(36);not null;index"`
	Plate     string         `json:"plate"      gorm:"type:varchar(32);not null;index:idx_history_tenant_plate,priority:2"`
	Action    string         `json:"action"     gorm:"type:varchar(16);not null;check:action IN ('created','updated','unchanged')"`
	Diff      datatypes.JSON `json:"diff,omitempty"`
	Snapshot  datatypes.JSON `json:"snapshot_after,omitempty" gorm:"column:snapshot_after"`
	Source    string         `json:"source"     gorm:"type:varchar(32)"`
	Meta      datatypes.JSON `json:"meta,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

// TableName returns the database table name for CustomerProfileHistory.
func (CustomerProfileHistory) TableName() string { return "customer_profile_history" }

// Unassigned-vehicle workflow states. pending is the only non-terminal state.
const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
	StatusDeleted  = "deleted"
)

// Vehicle match classifications produced by the matcher.
const (
	MatchExact            = "exact"
	MatchEngineSimilarity = "engine_similarity"
)

// SuggestedVehicle is the matcher's best low-confidence guess stored on an
// UnassignedVehicle record. It is advisory only and never applied without an
// operator approving it. An empty VehicleID means no suggestion exists.
type SuggestedVehicle struct {
	VehicleID    string `json:"vehicleId,omitempty"    gorm:"type:char(36)"`
	Make         string `json:"make,omitempty"         gorm:"type:varchar(64)"`
	Line         string `json:"line,omitempty"         gorm:"type:varchar(64)"`
	Displacement string `json:"displacement,omitempty" gorm:"type:varchar(32)"`
	MatchType    string `json:"matchType,omitempty"    gorm:"type:varchar(32)"`
	Confidence   string `json:"confidence,omitempty"   gorm:"type:varchar(256)"`
}

// VehicleData is the raw, unresolved vehicle description captured from the
// source record when a fragment lands in the unassigned queue.
type VehicleData struct {
	Plate  string `json:"plate"  gorm:"type:varchar(32)"`
	Brand  string `json:"brand"  gorm:"type:varchar(64)"`
	Line   string `json:"line"   gorm:"type:varchar(64)"`
	Engine string `json:"engine" gorm:"type:varchar(32)"`
	Year   *int   `json:"year,omitempty"`
}

// UnassignedVehicle is a customer/vehicle fragment the matcher could not
// confidently resolve. An operator drives it from pending to exactly one of
// the terminal states (approved, rejected, deleted); transitions re-check the
// pending status so a record is never double-applied.
type UnassignedVehicle struct {
	ID        string `json:"id"         gorm:"type:char(36);primaryKey"`
	TenantID  string `json:"tenant_id"  gorm:"type:char(36);not null;index:idx_unassigned_tenant_status,priority:1"`
	ProfileID string `json:"profile_id" gorm:"type:char(36);not null;index"`

	Customer    Customer         `json:"customer"         gorm:"embedded;embeddedPrefix:customer_"`
	VehicleData VehicleData      `json:"vehicleData"      gorm:"embedded;embeddedPrefix:vehicle_"`
	Suggested   SuggestedVehicle `json:"suggestedVehicle" gorm:"embedded;embeddedPrefix:suggested_"`

	Status     string         `json:"status" gorm:"type:varchar(16);not null;default:'pending';index:idx_unassigned_tenant_status,priority:2;check:status IN ('pending','approved','rejected','deleted')"`
	Source     string         `json:"source" gorm:"type:varchar(32)"`
	Notes      string         `json:"notes"  gorm:"type:varchar(512)"`
	LegacyData datatypes.JSON `json:"legacyData,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName returns the database table name for UnassignedVehicle.
func (UnassignedVehicle) TableName() string { return "unassigned_vehicles" }

// HasSuggestion reports whether the record carries a usable matcher hint.
func (u UnassignedVehicle) HasSuggestion() bool { return u.Suggested.VehicleID != "" }
