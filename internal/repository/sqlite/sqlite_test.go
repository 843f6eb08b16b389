package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chipforge/internal/domain"
	"chipforge/internal/repository"
)

// ============================================================================
// Test Helpers
// ============================================================================

// newTestRepo creates an in-memory SQLite repository for testing
func newTestRepo(t *testing.T) *Repository {
	t.Helper()
	repo, err := New(":memory:")
	require.NoError(t, err, "failed to create test repository")

	t.Cleanup(func() {
		repo.Close()
	})
	return repo
}

func testDesign(id string) *domain.Design {
	d := domain.NewDesign(id, "Design "+id)
	d.Description = "two blocks on one clock"
	d.AddComponent(domain.Component{
		ID: "cpu", Name: "cpu", Type: domain.ComponentManager,
		Pins:       []domain.Pin{{ID: "clk", Name: "HCLK", Direction: domain.DirectionIn, Width: 1}},
		Parameters: map[string]any{"addressRange": "4KB"},
	})
	d.AddNet(domain.Net{ID: "n_clk", Name: "HCLK", Width: 1})
	d.Connect("n_clk", "cpu", "clk")
	d.AddBus(domain.Bus{ID: "ahb0", Protocol: domain.ProtocolAHB, Nets: []domain.NetRef{{NetID: "n_clk", Role: "clock"}}})
	d.Constraints.Clocks = append(d.Constraints.Clocks, domain.Clock{Name: "HCLK", FreqMHz: 100})
	return d
}

func testReport(id, designID string, errs ...string) *domain.Report {
	result := domain.NewERCResult()
	result.Errors = append(result.Errors, errs...)
	return &domain.Report{ID: id, DesignID: designID, DesignName: "Design " + designID, Result: result}
}

// ============================================================================
// Helper Function Tests
// ============================================================================

func TestNullHelpers(t *testing.T) {
	assert.Equal(t, "", nullToString(sql.NullString{}))
	assert.Equal(t, "x", nullToString(sql.NullString{String: "x", Valid: true}))
	assert.False(t, stringToNull("").Valid)
	assert.True(t, stringToNull("x").Valid)
	assert.True(t, nullToBool(sql.NullInt64{Int64: 1, Valid: true}))
	assert.False(t, nullToBool(sql.NullInt64{Int64: 1}))
	assert.Equal(t, 1, boolToInt(true))
}

func TestMarshalToNull(t *testing.T) {
	ns, err := marshalToNull(nil)
	require.NoError(t, err)
	assert.False(t, ns.Valid)

	ns, err = marshalToNull([]string{})
	require.NoError(t, err)
	assert.Equal(t, "[]", ns.String)

	var out []string
	require.NoError(t, unmarshalJSONField(ns, &out))
	assert.Empty(t, out)
	require.NoError(t, unmarshalJSONField(sql.NullString{}, &out))
}

// ============================================================================
// Design Tests
// ============================================================================

func TestCreateAndGetDesign(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	design := testDesign("soc")
	require.NoError(t, repo.CreateDesign(ctx, design))
	assert.False(t, design.CreatedAt.IsZero())

	got, err := repo.GetDesign(ctx, "soc")
	require.NoError(t, err)

	assert.Equal(t, "Design soc", got.Name)
	assert.Equal(t, "two blocks on one clock", got.Description)
	require.Len(t, got.Components, 1)
	assert.Equal(t, "4KB", got.Components[0].Parameters["addressRange"])
	assert.Equal(t, "n_clk", got.Components[0].Pins[0].NetID)
	assert.Equal(t, design.Nets, got.Nets)
	assert.Equal(t, design.Buses, got.Buses)
	assert.Equal(t, design.Constraints, got.Constraints)
	assert.WithinDuration(t, design.CreatedAt, got.CreatedAt, time.Second)
}

func TestCreateDesignConflict(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.CreateDesign(ctx, testDesign("soc")))
	err := repo.CreateDesign(ctx, testDesign("soc"))

	assert.True(t, errors.Is(err, repository.ErrConflict), "got %v", err)
}

func TestGetDesignNotFound(t *testing.T) {
	repo := newTestRepo(t)

	_, err := repo.GetDesign(context.Background(), "missing")

	assert.True(t, errors.Is(err, repository.ErrNotFound))
}

func TestEmptyDesignRoundTrip(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.CreateDesign(ctx, domain.NewDesign("empty", "Empty")))
	got, err := repo.GetDesign(ctx, "empty")
	require.NoError(t, err)

	assert.NotNil(t, got.Components)
	assert.NotNil(t, got.Nets)
	assert.NotNil(t, got.Buses)
	assert.NotNil(t, got.Constraints.Clocks)
}

func TestListDesigns(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	designs, err := repo.ListDesigns(ctx)
	require.NoError(t, err)
	assert.Empty(t, designs)

	for _, id := range []string{"b", "c", "a"} {
		require.NoError(t, repo.CreateDesign(ctx, testDesign(id)))
	}

	designs, err = repo.ListDesigns(ctx)
	require.NoError(t, err)
	require.Len(t, designs, 3)
	assert.Equal(t, "a", designs[0].ID)
	assert.Equal(t, "c", designs[2].ID)
}

func TestUpdateDesign(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	original := testDesign("soc")
	require.NoError(t, repo.CreateDesign(ctx, original))

	changed := testDesign("soc")
	changed.Name = "Renamed"
	changed.Net("n_clk").Width = 2
	require.NoError(t, repo.UpdateDesign(ctx, changed))
	assert.WithinDuration(t, original.CreatedAt, changed.CreatedAt, time.Second)

	got, err := repo.GetDesign(ctx, "soc")
	require.NoError(t, err)
	assert.Equal(t, "Renamed", got.Name)
	assert.Equal(t, 2, got.Net("n_clk").Width)

	err = repo.UpdateDesign(ctx, testDesign("missing"))
	assert.True(t, errors.Is(err, repository.ErrNotFound))
}

func TestDeleteDesign(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.CreateDesign(ctx, testDesign("soc")))
	require.NoError(t, repo.DeleteDesign(ctx, "soc"))

	_, err := repo.GetDesign(ctx, "soc")
	assert.True(t, errors.Is(err, repository.ErrNotFound))

	err = repo.DeleteDesign(ctx, "soc")
	assert.True(t, errors.Is(err, repository.ErrNotFound))
}

// ============================================================================
// Report Tests
// ============================================================================

func TestSaveAndGetReport(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	require.NoError(t, repo.CreateDesign(ctx, testDesign("soc")))

	report := testReport("r1", "soc", "Missing required AHB signal: HCLK")
	report.Strict = true
	report.Result.Warnings = append(report.Result.Warnings, "No AHB bus found")
	require.NoError(t, repo.SaveReport(ctx, report))

	got, err := repo.GetReport(ctx, "r1")
	require.NoError(t, err)

	assert.Equal(t, "soc", got.DesignID)
	assert.Equal(t, "Design soc", got.DesignName)
	assert.True(t, got.Strict)
	assert.Equal(t, []string{"Missing required AHB signal: HCLK"}, got.Result.Errors)
	assert.Equal(t, []string{"No AHB bus found"}, got.Result.Warnings)
	assert.False(t, got.Passed())
}

func TestSaveReportKeepsEmptyLists(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	require.NoError(t, repo.CreateDesign(ctx, testDesign("soc")))

	require.NoError(t, repo.SaveReport(ctx, &domain.Report{ID: "r1", DesignID: "soc"}))

	got, err := repo.GetReport(ctx, "r1")
	require.NoError(t, err)
	assert.NotNil(t, got.Result.Errors)
	assert.NotNil(t, got.Result.Warnings)
	assert.True(t, got.Passed())
}

func TestSaveReportUnknownDesign(t *testing.T) {
	repo := newTestRepo(t)

	err := repo.SaveReport(context.Background(), testReport("r1", "ghost"))

	assert.True(t, errors.Is(err, repository.ErrNotFound), "got %v", err)
}

func TestGetReportNotFound(t *testing.T) {
	repo := newTestRepo(t)

	_, err := repo.GetReport(context.Background(), "missing")

	assert.True(t, errors.Is(err, repository.ErrNotFound))
}

func TestListReports(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	require.NoError(t, repo.CreateDesign(ctx, testDesign("soc")))
	require.NoError(t, repo.CreateDesign(ctx, testDesign("other")))

	base := time.Now().UTC()
	for i, id := range []string{"r1", "r2", "r3"} {
		report := testReport(id, "soc")
		report.CreatedAt = base.Add(time.Duration(i) * time.Minute)
		require.NoError(t, repo.SaveReport(ctx, report))
	}
	require.NoError(t, repo.SaveReport(ctx, testReport("x1", "other")))

	t.Run("newest first", func(t *testing.T) {
		reports, err := repo.ListReports(ctx, "soc", 0)
		require.NoError(t, err)
		require.Len(t, reports, 3)
		assert.Equal(t, "r3", reports[0].ID)
		assert.Equal(t, "r1", reports[2].ID)
	})

	t.Run("limit", func(t *testing.T) {
		reports, err := repo.ListReports(ctx, "soc", 2)
		require.NoError(t, err)
		require.Len(t, reports, 2)
		assert.Equal(t, "r3", reports[0].ID)
	})

	t.Run("unknown design has no reports", func(t *testing.T) {
		reports, err := repo.ListReports(ctx, "ghost", 0)
		require.NoError(t, err)
		assert.Empty(t, reports)
	})
}

func TestDeleteDesignCascadesReports(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	require.NoError(t, repo.CreateDesign(ctx, testDesign("soc")))
	require.NoError(t, repo.SaveReport(ctx, testReport("r1", "soc")))

	require.NoError(t, repo.DeleteDesign(ctx, "soc"))

	_, err := repo.GetReport(ctx, "r1")
	assert.True(t, errors.Is(err, repository.ErrNotFound))
}

// ============================================================================
// Migration Tests
// ============================================================================

func TestMigrateIsIdempotent(t *testing.T) {
	repo := newTestRepo(t)

	require.NoError(t, repo.migrate())
	require.NoError(t, repo.addColumnIfNotExists("erc_reports", "strict", "INTEGER NOT NULL DEFAULT 0"))
}

func TestAddColumnIfNotExists(t *testing.T) {
	repo := newTestRepo(t)

	require.NoError(t, repo.addColumnIfNotExists("designs", "revision", "INTEGER NOT NULL DEFAULT 1"))

	var revision int
	require.NoError(t, repo.CreateDesign(context.Background(), testDesign("soc")))
	require.NoError(t, repo.db.QueryRow(`SELECT revision FROM designs WHERE id = 'soc'`).Scan(&revision))
	assert.Equal(t, 1, revision)
}
