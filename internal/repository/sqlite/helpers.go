package sqlite

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"chipforge/internal/domain"
)

// ============================================================================
// Null Type Conversion Helpers
// ============================================================================

// nullToString safely converts sql.NullString to string
func nullToString(ns sql.NullString) string {
	if ns.Valid {
		return ns.String
	}
	return ""
}

// nullToBool converts sql.NullInt64 to bool (0 = false, non-zero = true)
func nullToBool(ni sql.NullInt64) bool {
	return ni.Valid && ni.Int64 != 0
}

// stringToNull safely converts string to sql.NullString
func stringToNull(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

// boolToInt stores a bool in an INTEGER column
func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// ============================================================================
// JSON Marshaling Helpers
// ============================================================================

// unmarshalJSONField safely unmarshals JSON from nullable string into target
func unmarshalJSONField(ns sql.NullString, target interface{}) error {
	if !ns.Valid || ns.String == "" {
		return nil
	}
	return json.Unmarshal([]byte(ns.String), target)
}

// marshalToNull marshals interface to nullable JSON string
// Returns empty NullString for nil values
func marshalToNull(v interface{}) (sql.NullString, error) {
	if v == nil {
		return sql.NullString{}, nil
	}

	data, err := json.Marshal(v)
	if err != nil {
		return sql.NullString{}, err
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}

// ============================================================================
// Schema Evolution Guide
// ============================================================================
//
// To add a new column to the designs table:
// 1. Add field to designRow struct (below)
// 2. Update scanArgs() - APPEND to end to match column order
// 3. Update designColumns constant - APPEND to end
// 4. Update toDomain() to map new field to domain.Design
// 5. Update designInsertArgs() if column should be writable
// 6. Add migration in sqlite.go migrate() using addColumnIfNotExists()
// 7. Update relevant tests
//
// CRITICAL: Column order must match between:
// - designColumns constant
// - scanArgs() return slice
// - All SELECT queries using designColumns
//
// Same pattern applies to reports.

// ============================================================================
// Design Row Scanner
// ============================================================================

// graphDocument is the JSON body of a design row
type graphDocument struct {
	Components  []domain.Component   `json:"components"`
	Nets        []domain.Net         `json:"nets"`
	Buses       []domain.Bus         `json:"buses"`
	Constraints domain.ConstraintSet `json:"constraints"`
}

// designRow holds all columns from a design query for scanning
type designRow struct {
	ID          string
	Name        string
	Description sql.NullString
	GraphJSON   sql.NullString
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// scanArgs returns pointers to all fields for sql.Scan()
// MUST match designColumns order exactly:
// id, name, description, graph, created_at, updated_at
func (r *designRow) scanArgs() []interface{} {
	return []interface{}{
		&r.ID,          // 1
		&r.Name,        // 2
		&r.Description, // 3
		&r.GraphJSON,   // 4
		&r.CreatedAt,   // 5
		&r.UpdatedAt,   // 6
	}
}

// toDomain converts the scanned row to a domain.Design
func (r *designRow) toDomain() (*domain.Design, error) {
	design := domain.NewDesign(r.ID, r.Name)
	design.Description = nullToString(r.Description)
	design.CreatedAt = r.CreatedAt
	design.UpdatedAt = r.UpdatedAt

	var doc graphDocument
	if err := unmarshalJSONField(r.GraphJSON, &doc); err != nil {
		return nil, fmt.Errorf("unmarshal graph: %w", err)
	}

	if doc.Components != nil {
		design.Components = doc.Components
	}
	if doc.Nets != nil {
		design.Nets = doc.Nets
	}
	if doc.Buses != nil {
		design.Buses = doc.Buses
	}
	if doc.Constraints.Clocks != nil {
		design.Constraints.Clocks = doc.Constraints.Clocks
	}
	if doc.Constraints.Resets != nil {
		design.Constraints.Resets = doc.Constraints.Resets
	}

	return design, nil
}

// designColumns returns the SELECT column list for design queries
const designColumns = `id, name, description, graph, created_at, updated_at`

// ============================================================================
// Report Row Scanner
// ============================================================================

// reportRow holds all columns from a report query for scanning
type reportRow struct {
	ID           string
	DesignID     string
	DesignName   sql.NullString
	Strict       sql.NullInt64
	ErrorsJSON   sql.NullString
	WarningsJSON sql.NullString
	CreatedAt    time.Time
}

// scanArgs returns pointers to all fields for sql.Scan()
// MUST match reportColumns order exactly:
// id, design_id, design_name, strict, errors, warnings, created_at
func (r *reportRow) scanArgs() []interface{} {
	return []interface{}{
		&r.ID,           // 1
		&r.DesignID,     // 2
		&r.DesignName,   // 3
		&r.Strict,       // 4
		&r.ErrorsJSON,   // 5
		&r.WarningsJSON, // 6
		&r.CreatedAt,    // 7
	}
}

// toDomain converts the scanned row to a domain.Report
func (r *reportRow) toDomain() (*domain.Report, error) {
	report := &domain.Report{
		ID:         r.ID,
		DesignID:   r.DesignID,
		DesignName: nullToString(r.DesignName),
		Strict:     nullToBool(r.Strict),
		Result:     domain.NewERCResult(),
		CreatedAt:  r.CreatedAt,
	}

	if err := unmarshalJSONField(r.ErrorsJSON, &report.Result.Errors); err != nil {
		return nil, fmt.Errorf("unmarshal errors: %w", err)
	}
	if err := unmarshalJSONField(r.WarningsJSON, &report.Result.Warnings); err != nil {
		return nil, fmt.Errorf("unmarshal warnings: %w", err)
	}

	return report, nil
}

// reportColumns returns the SELECT column list for report queries
const reportColumns = `id, design_id, design_name, strict, errors, warnings, created_at`

// ============================================================================
// Write Helpers
// ============================================================================

// designInsertArgs prepares arguments for design INSERT/UPDATE
// Returns: id, name, description, graph, component_count, net_count, bus_count, created_at, updated_at
func designInsertArgs(design *domain.Design) ([]interface{}, error) {
	graphJSON, err := marshalToNull(graphDocument{
		Components:  design.Components,
		Nets:        design.Nets,
		Buses:       design.Buses,
		Constraints: design.Constraints,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal graph: %w", err)
	}

	return []interface{}{
		design.ID,
		design.Name,
		stringToNull(design.Description),
		graphJSON,
		len(design.Components),
		len(design.Nets),
		len(design.Buses),
		design.CreatedAt,
		design.UpdatedAt,
	}, nil
}

// reportInsertArgs prepares arguments for report INSERT
// Returns: id, design_id, design_name, strict, errors, warnings, error_count, warning_count, created_at
func reportInsertArgs(report *domain.Report) ([]interface{}, error) {
	errorsJSON, err := marshalToNull(nonNil(report.Result.Errors))
	if err != nil {
		return nil, fmt.Errorf("marshal errors: %w", err)
	}
	warningsJSON, err := marshalToNull(nonNil(report.Result.Warnings))
	if err != nil {
		return nil, fmt.Errorf("marshal warnings: %w", err)
	}

	return []interface{}{
		report.ID,
		report.DesignID,
		stringToNull(report.DesignName),
		boolToInt(report.Strict),
		errorsJSON,
		warningsJSON,
		len(report.Result.Errors),
		len(report.Result.Warnings),
		report.CreatedAt,
	}, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
