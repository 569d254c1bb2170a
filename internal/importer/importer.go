// Package importer ingests legacy workshop customer exports into the
// reconciliation engine. The source files are semicolon-separated CSV dumps
// of the old management system, one customer per row with the first known
// vehicle flattened alongside.
//
// The importer never writes profiles itself: every row goes through the same
// ProfileService.Reconcile path as the API, with the fill-missing policy and
// source "import", so the ledger and the unassigned queue stay consistent
// with interactive traffic. The only importer-specific behavior is the
// synthetic plate assigned to rows that carry no plate at all.
package importer

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/tbourn/go-workshop-backend/internal/catalog"
	"github.com/tbourn/go-workshop-backend/internal/domain"
	"github.com/tbourn/go-workshop-backend/internal/repo"
	"github.com/tbourn/go-workshop-backend/internal/services"
)

// repoShim adapts the repository free functions to the persistence interfaces
// ProfileService expects, mirroring the wiring the HTTP layer uses.
type repoShim struct{}

func (repoShim) FindProfilesByPlate(ctx context.Context, db *gorm.DB, tenantID, plate string) ([]domain.CustomerProfile, error) {
	return repo.FindProfilesByPlate(ctx, db, tenantID, plate)
}

func (repoShim) CreateProfile(ctx context.Context, db *gorm.DB, p *domain.CustomerProfile) error {
	return repo.CreateProfile(ctx, db, p)
}

func (repoShim) SaveProfile(ctx context.Context, db *gorm.DB, p *domain.CustomerProfile) error {
	return repo.SaveProfile(ctx, db, p)
}

func (repoShim) DeleteProfiles(ctx context.Context, db *gorm.DB, tenantID string, ids []string) error {
	return repo.DeleteProfiles(ctx, db, tenantID, ids)
}

func (repoShim) AppendHistory(ctx context.Context, db *gorm.DB, h *domain.CustomerProfileHistory) error {
	return repo.AppendHistory(ctx, db, h)
}

func (repoShim) FindPendingByProfileOrPlate(ctx context.Context, db *gorm.DB, tenantID, profileID, plate string) (*domain.UnassignedVehicle, error) {
	return repo.FindPendingByProfileOrPlate(ctx, db, tenantID, profileID, plate)
}

func (repoShim) CreateUnassigned(ctx context.Context, db *gorm.DB, u *domain.UnassignedVehicle) error {
	return repo.CreateUnassigned(ctx, db, u)
}

// ErrNoHeader is returned when the CSV file is empty or has no header row.
var ErrNoHeader = errors.New("importer: missing header row")

// Summary counts the outcomes of one import run.
type Summary struct {
	Processed int `json:"processed"`
	Skipped   int `json:"skipped"`
	Created   int `json:"created"`
	Updated   int `json:"updated"`
	Unchanged int `json:"unchanged"`
	Matched   int `json:"matched"`
	Pending   int `json:"pending"`
}

// Options configure one import run.
type Options struct {
	// TenantID scopes every created row. Required.
	TenantID string
	// Delimiter is the CSV field separator; defaults to ';'.
	Delimiter rune
	// Limit stops the run after this many data rows; 0 means all.
	Limit int
	// ProgressEvery logs a progress line every N rows; 0 disables.
	ProgressEvery int
}

// Importer drives a legacy CSV export through the reconciliation engine.
type Importer struct {
	db      *gorm.DB
	profile *services.ProfileService
	opts    Options
}

// New constructs an Importer. The catalog is snapshotted once per Run so a
// large import does not hammer the vehicle table with per-row queries.
func New(db *gorm.DB, opts Options) *Importer {
	if opts.Delimiter == 0 {
		opts.Delimiter = ';'
	}
	return &Importer{db: db, profile: services.NewProfileService(db, repoShim{}, repoShim{}, repoShim{}), opts: opts}
}

// RunFile opens path and imports it. See Run.
func (im *Importer) RunFile(ctx context.Context, path string) (*Summary, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("importer: open %s: %w", path, err)
	}
	defer f.Close()
	return im.Run(ctx, f)
}

// Run reads the export from r and reconciles every row. It returns the
// counters for the run; a malformed row aborts the run with an error, since
// a silently half-imported file is worse than a failed one.
func (im *Importer) Run(ctx context.Context, r io.Reader) (*Summary, error) {
	entries, err := repo.ListActiveVehicles(ctx, im.db, im.opts.TenantID)
	if err != nil {
		return nil, err
	}
	idx := catalog.BuildIndex(entries)
	im.profile.MatcherFor = func(string) services.VehicleMatcher {
		return catalog.NewMatcher(idx)
	}

	cr := csv.NewReader(r)
	cr.Comma = im.opts.Delimiter
	cr.FieldsPerRecord = -1 // legacy dumps have ragged rows
	cr.LazyQuotes = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrNoHeader
		}
		return nil, err
	}
	cols := headerIndex(header)

	var sum Summary
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("importer: row %d: %w", sum.Processed+1, err)
		}
		sum.Processed++
		if im.opts.Limit > 0 && sum.Processed > im.opts.Limit {
			sum.Processed--
			break
		}

		rec, ok := rowToRecord(cols, row, sum.Processed)
		if !ok {
			sum.Skipped++
			continue
		}

		res, err := im.profile.Reconcile(ctx, im.opts.TenantID, rec, services.MergeOptions{Source: "import"})
		if err != nil {
			return nil, fmt.Errorf("importer: row %d (plate %s): %w", sum.Processed, rec.Plate, err)
		}
		sum.count(res)

		if im.opts.ProgressEvery > 0 && sum.Processed%im.opts.ProgressEvery == 0 {
			log.Info().
				Int("processed", sum.Processed).
				Int("created", sum.Created).
				Int("updated", sum.Updated).
				Int("pending", sum.Pending).
				Msg("import progress")
		}
	}

	log.Info().
		Int("processed", sum.Processed).
		Int("skipped", sum.Skipped).
		Int("created", sum.Created).
		Int("updated", sum.Updated).
		Int("unchanged", sum.Unchanged).
		Int("matched", sum.Matched).
		Int("pending", sum.Pending).
		Msg("import finished")
	return &sum, nil
}

func (s *Summary) count(res *services.ReconcileResult) {
	switch res.Action {
	case domain.ActionCreated:
		s.Created++
	case domain.ActionUpdated:
		s.Updated++
	default:
		s.Unchanged++
	}
	if res.Profile != nil && res.Profile.Vehicle.VehicleID != "" {
		s.Matched++
	} else if res.Unassigned != nil {
		s.Pending++
	}
}

// Legacy export column names. The engine column appears with and without the
// historical typo, so both spellings are accepted.
var columnAliases = map[string][]string{
	"id":       {"cl_codigo"},
	"idNumber": {"cl_identificacion"},
	"name":     {"cl_nombre"},
	"phone":    {"cl_telefono"},
	"email":    {"cl_mail"},
	"address":  {"cl_direccion"},
	"plate":    {"au_placa", "placa"},
	"brand":    {"marca", "au_marca"},
	"line":     {"linea", "serie"},
	"engine":   {"au_cilindraje", "au_cilidraje"},
	"year":     {"au_modelo"},
}

// headerIndex maps logical field names to column positions for this file.
func headerIndex(header []string) map[string]int {
	byName := make(map[string]int, len(header))
	for i, h := range header {
		byName[strings.ToLower(strings.TrimSpace(h))] = i
	}
	cols := make(map[string]int, len(columnAliases))
	for field, aliases := range columnAliases {
		cols[field] = -1
		for _, a := range aliases {
			if i, ok := byName[a]; ok {
				cols[field] = i
				break
			}
		}
	}
	return cols
}

// rowToRecord builds the source record for one row. Rows without an id number
// and without a name carry nothing worth merging and are skipped.
func rowToRecord(cols map[string]int, row []string, rowNum int) (services.SourceRecord, bool) {
	get := func(field string) string {
		i := cols[field]
		if i < 0 || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	// Numeric exports append ".0" to id numbers; strip it.
	idNumber := strings.TrimSuffix(get("idNumber"), ".0")
	name := get("name")
	if idNumber == "" && name == "" {
		return services.SourceRecord{}, false
	}

	rec := services.SourceRecord{
		Plate:    get("plate"),
		IDNumber: idNumber,
		Name:     name,
		Phone:    get("phone"),
		Email:    get("email"),
		Address:  get("address"),
		Brand:    get("brand"),
		Line:     get("line"),
		Engine:   get("engine"),
	}
	if y := get("year"); y != "" {
		if n, err := strconv.Atoi(y); err == nil {
			rec.Year = &n
		}
	}
	if rec.Plate == "" {
		rec.Plate = syntheticPlate(idNumber, get("id"), rowNum)
	}
	return rec, true
}

// syntheticPlate derives a stable placeholder plate for plate-less rows so
// re-running the import updates the same profile instead of duplicating it.
func syntheticPlate(idNumber, legacyID string, rowNum int) string {
	if idNumber != "" {
		return "CATALOGO-" + strings.ToUpper(idNumber)
	}
	if legacyID != "" {
		return "CLIENT-" + strings.ToUpper(legacyID)
	}
	return "CLIENT-ROW-" + strconv.Itoa(rowNum)
}
