package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"chipforge/internal/domain"
	"chipforge/internal/repository"

	_ "modernc.org/sqlite"
)

// Repository implements repository.Repository using SQLite
type Repository struct {
	db *sql.DB
}

var _ repository.Repository = (*Repository)(nil)

// New creates a new SQLite repository
func New(dbPath string) (*Repository, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// one connection keeps :memory: databases and per-connection pragmas shared
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to configure database: %w", err)
		}
	}

	repo := &Repository{db: db}
	if err := repo.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return repo, nil
}

func (r *Repository) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS designs (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		description TEXT,
		graph TEXT,
		component_count INTEGER NOT NULL DEFAULT 0,
		net_count INTEGER NOT NULL DEFAULT 0,
		bus_count INTEGER NOT NULL DEFAULT 0,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS erc_reports (
		id TEXT PRIMARY KEY,
		design_id TEXT NOT NULL,
		design_name TEXT,
		errors TEXT,
		warnings TEXT,
		error_count INTEGER NOT NULL DEFAULT 0,
		warning_count INTEGER NOT NULL DEFAULT 0,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY (design_id) REFERENCES designs(id) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_reports_design ON erc_reports(design_id, created_at);
	`

	if _, err := r.db.Exec(schema); err != nil {
		return err
	}

	// columns added after the first schema
	return r.addColumnIfNotExists("erc_reports", "strict", "INTEGER NOT NULL DEFAULT 0")
}

// addColumnIfNotExists adds a column to an existing table, leaving rows intact
func (r *Repository) addColumnIfNotExists(table, column, definition string) error {
	rows, err := r.db.Query(fmt.Sprintf("PRAGMA table_info(%s)", table))
	if err != nil {
		return fmt.Errorf("failed to inspect %s: %w", table, err)
	}

	exists := false
	for rows.Next() {
		var (
			cid       int
			name      string
			colType   string
			notNull   int
			dfltValue sql.NullString
			pk        int
		)
		if err := rows.Scan(&cid, &name, &colType, &notNull, &dfltValue, &pk); err != nil {
			rows.Close()
			return fmt.Errorf("failed to scan column info: %w", err)
		}
		if strings.EqualFold(name, column) {
			exists = true
		}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	if exists {
		return nil
	}

	_, err = r.db.Exec(fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", table, column, definition))
	return err
}

// ============================================================================
// Designs
// ============================================================================

// CreateDesign inserts a new design, stamping its timestamps
func (r *Repository) CreateDesign(ctx context.Context, design *domain.Design) error {
	now := time.Now().UTC()
	design.CreatedAt = now
	design.UpdatedAt = now

	args, err := designInsertArgs(design)
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO designs (id, name, description, graph, component_count, net_count, bus_count, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, args...)
	if err != nil {
		if isConstraintError(err) {
			return fmt.Errorf("design %s: %w", design.ID, repository.ErrConflict)
		}
		return fmt.Errorf("failed to insert design: %w", err)
	}

	return nil
}

// GetDesign retrieves a single design by ID
func (r *Repository) GetDesign(ctx context.Context, id string) (*domain.Design, error) {
	var row designRow
	err := r.db.QueryRowContext(ctx, `
		SELECT `+designColumns+` FROM designs WHERE id = ?
	`, id).Scan(row.scanArgs()...)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("design %s: %w", id, repository.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query design: %w", err)
	}

	return row.toDomain()
}

// ListDesigns returns every stored design ordered by name
func (r *Repository) ListDesigns(ctx context.Context) ([]*domain.Design, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+designColumns+` FROM designs ORDER BY name, id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query designs: %w", err)
	}
	defer rows.Close()

	designs := make([]*domain.Design, 0)
	for rows.Next() {
		var row designRow
		if err := rows.Scan(row.scanArgs()...); err != nil {
			return nil, fmt.Errorf("failed to scan design: %w", err)
		}

		design, err := row.toDomain()
		if err != nil {
			return nil, fmt.Errorf("failed to decode design %s: %w", row.ID, err)
		}
		designs = append(designs, design)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating designs: %w", err)
	}

	return designs, nil
}

// UpdateDesign replaces a stored design, keeping its creation time
func (r *Repository) UpdateDesign(ctx context.Context, design *domain.Design) error {
	design.UpdatedAt = time.Now().UTC()

	args, err := designInsertArgs(design)
	if err != nil {
		return err
	}

	// args: id, name, description, graph, counts..., created_at, updated_at
	res, err := r.db.ExecContext(ctx, `
		UPDATE designs SET
			name = ?,
			description = ?,
			graph = ?,
			component_count = ?,
			net_count = ?,
			bus_count = ?,
			updated_at = ?
		WHERE id = ?
	`, args[1], args[2], args[3], args[4], args[5], args[6], args[8], args[0])
	if err != nil {
		return fmt.Errorf("failed to update design: %w", err)
	}

	if err := requireAffected(res, "design", design.ID); err != nil {
		return err
	}

	return r.db.QueryRowContext(ctx, `SELECT created_at FROM designs WHERE id = ?`, design.ID).Scan(&design.CreatedAt)
}

// DeleteDesign removes a design and, by cascade, its reports
func (r *Repository) DeleteDesign(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM designs WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete design: %w", err)
	}
	return requireAffected(res, "design", id)
}

// ============================================================================
// Reports
// ============================================================================

// SaveReport stores an ERC report; the design must exist
func (r *Repository) SaveReport(ctx context.Context, report *domain.Report) error {
	if report.CreatedAt.IsZero() {
		report.CreatedAt = time.Now().UTC()
	}

	args, err := reportInsertArgs(report)
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO erc_reports (id, design_id, design_name, strict, errors, warnings, error_count, warning_count, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, args...)
	if err != nil {
		if isForeignKeyError(err) {
			return fmt.Errorf("design %s: %w", report.DesignID, repository.ErrNotFound)
		}
		return fmt.Errorf("failed to insert report: %w", err)
	}

	return nil
}

// GetReport retrieves a single report by ID
func (r *Repository) GetReport(ctx context.Context, id string) (*domain.Report, error) {
	var row reportRow
	err := r.db.QueryRowContext(ctx, `
		SELECT `+reportColumns+` FROM erc_reports WHERE id = ?
	`, id).Scan(row.scanArgs()...)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("report %s: %w", id, repository.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query report: %w", err)
	}

	return row.toDomain()
}

// ListReports returns a design's reports, newest first. A limit of zero or less returns all.
func (r *Repository) ListReports(ctx context.Context, designID string, limit int) ([]*domain.Report, error) {
	query := `SELECT ` + reportColumns + ` FROM erc_reports WHERE design_id = ? ORDER BY created_at DESC, rowid DESC`
	args := []interface{}{designID}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query reports: %w", err)
	}
	defer rows.Close()

	reports := make([]*domain.Report, 0)
	for rows.Next() {
		var row reportRow
		if err := rows.Scan(row.scanArgs()...); err != nil {
			return nil, fmt.Errorf("failed to scan report: %w", err)
		}

		report, err := row.toDomain()
		if err != nil {
			return nil, fmt.Errorf("failed to decode report %s: %w", row.ID, err)
		}
		reports = append(reports, report)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating reports: %w", err)
	}

	return reports, nil
}

// Close closes the database connection
func (r *Repository) Close() error {
	return r.db.Close()
}

func requireAffected(res sql.Result, kind, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%s %s: %w", kind, id, repository.ErrNotFound)
	}
	return nil
}

func isConstraintError(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") || strings.Contains(msg, "PRIMARY KEY")
}

func isForeignKeyError(err error) bool {
	return strings.Contains(err.Error(), "FOREIGN KEY constraint failed")
}
