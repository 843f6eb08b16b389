package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chipforge/internal/domain"
	"chipforge/internal/erc"
	"chipforge/internal/repository/sqlite"
	"chipforge/internal/service"
)

const yamlType = "application/x-yaml"

type testServer struct {
	t       *testing.T
	handler http.Handler
	fixture string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	repo, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })

	fixture, err := os.ReadFile(filepath.Join("..", "loader", "testdata", "minimal_ahb.yaml"))
	require.NoError(t, err)

	svc := service.NewDesignService(repo, service.NewEventBus(), erc.DefaultOptions(), 2)
	mux := Routes(NewDesignHandler(svc), nil)

	return &testServer{
		t:       t,
		handler: Chain(mux, Recover, CORS, Logger),
		fixture: string(fixture),
	}
}

func (s *testServer) do(method, path, body, contentType string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	w := httptest.NewRecorder()
	s.handler.ServeHTTP(w, req)
	return w
}

func (s *testServer) createFixture() {
	w := s.do(http.MethodPost, "/api/designs", s.fixture, yamlType)
	require.Equal(s.t, http.StatusCreated, w.Code, w.Body.String())
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)

	w := s.do(http.MethodGet, "/health", "", "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	resp := decode[HealthResponse](t, w)
	assert.Equal(t, "healthy", resp.Status)
	assert.Equal(t, "chipforge", resp.Service)
	assert.NotEmpty(t, resp.Timestamp)
	assert.Equal(t, "9", resp.Details["erc_rules"])
}

func TestDesignLifecycle(t *testing.T) {
	s := newTestServer(t)

	t.Run("create from YAML", func(t *testing.T) {
		w := s.do(http.MethodPost, "/api/designs", s.fixture, yamlType)

		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		d := decode[domain.Design](t, w)
		assert.Equal(t, "minimal_ahb", d.ID)
		assert.Len(t, d.Components, 2)
	})

	t.Run("duplicate id conflicts", func(t *testing.T) {
		w := s.do(http.MethodPost, "/api/designs", s.fixture, yamlType)

		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("get and list", func(t *testing.T) {
		w := s.do(http.MethodGet, "/api/designs/minimal_ahb", "", "")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "Minimal AHB SoC", decode[domain.Design](t, w).Name)

		w = s.do(http.MethodGet, "/api/designs", "", "")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Len(t, decode[[]domain.Design](t, w), 1)
	})

	t.Run("update with mismatched id is rejected", func(t *testing.T) {
		w := s.do(http.MethodPut, "/api/designs/minimal_ahb", `{"id":"other","name":"x"}`, "application/json")

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("update renames the design", func(t *testing.T) {
		body := strings.Replace(s.fixture, "name: Minimal AHB SoC", "name: Renamed SoC", 1)
		w := s.do(http.MethodPut, "/api/designs/minimal_ahb", body, yamlType)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		w = s.do(http.MethodGet, "/api/designs/minimal_ahb", "", "")
		assert.Equal(t, "Renamed SoC", decode[domain.Design](t, w).Name)
	})

	t.Run("malformed body is a bad request", func(t *testing.T) {
		w := s.do(http.MethodPost, "/api/designs", `{"id":`, "application/json")

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "Invalid request body", decode[ErrorResponse](t, w).Error)
	})

	t.Run("delete then get is not found", func(t *testing.T) {
		w := s.do(http.MethodDelete, "/api/designs/minimal_ahb", "", "")
		require.Equal(t, http.StatusNoContent, w.Code)

		w = s.do(http.MethodGet, "/api/designs/minimal_ahb", "", "")
		assert.Equal(t, http.StatusNotFound, w.Code)

		w = s.do(http.MethodDelete, "/api/designs/minimal_ahb", "", "")
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestERCEndpoints(t *testing.T) {
	s := newTestServer(t)
	s.createFixture()

	var reportID string

	t.Run("run records a clean report", func(t *testing.T) {
		w := s.do(http.MethodPost, "/api/designs/minimal_ahb/erc", "", "")

		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		report := decode[domain.Report](t, w)
		assert.Equal(t, "minimal_ahb", report.DesignID)
		assert.Empty(t, report.Result.Errors)
		assert.Empty(t, report.Result.Warnings)
		assert.False(t, report.Strict)
		reportID = report.ID
	})

	t.Run("strict override is recorded", func(t *testing.T) {
		w := s.do(http.MethodPost, "/api/designs/minimal_ahb/erc?strict=true", "", "")

		require.Equal(t, http.StatusOK, w.Code)
		assert.True(t, decode[domain.Report](t, w).Strict)
	})

	t.Run("bad strict value", func(t *testing.T) {
		w := s.do(http.MethodPost, "/api/designs/minimal_ahb/erc?strict=maybe", "", "")

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("unknown design", func(t *testing.T) {
		w := s.do(http.MethodPost, "/api/designs/nope/erc", "", "")

		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("reports are listed newest first", func(t *testing.T) {
		w := s.do(http.MethodGet, "/api/designs/minimal_ahb/reports", "", "")
		require.Equal(t, http.StatusOK, w.Code)
		reports := decode[[]domain.Report](t, w)
		require.Len(t, reports, 2)
		assert.True(t, reports[0].Strict)

		w = s.do(http.MethodGet, "/api/designs/minimal_ahb/reports?limit=1", "", "")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Len(t, decode[[]domain.Report](t, w), 1)

		w = s.do(http.MethodGet, "/api/designs/minimal_ahb/reports?limit=-1", "", "")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("get report by id", func(t *testing.T) {
		w := s.do(http.MethodGet, "/api/reports/"+reportID, "", "")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, reportID, decode[domain.Report](t, w).ID)

		w = s.do(http.MethodGet, "/api/reports/missing", "", "")
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("validate all", func(t *testing.T) {
		w := s.do(http.MethodPost, "/api/erc/all", "", "")

		require.Equal(t, http.StatusOK, w.Code)
		assert.Len(t, decode[[]domain.Report](t, w), 1)
	})
}

func TestValidateAdHoc(t *testing.T) {
	s := newTestServer(t)

	t.Run("clean fixture", func(t *testing.T) {
		w := s.do(http.MethodPost, "/api/erc", s.fixture, yamlType)

		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		result := decode[domain.ERCResult](t, w)
		assert.Empty(t, result.Errors)
		assert.Empty(t, result.Warnings)
	})

	t.Run("nothing is stored", func(t *testing.T) {
		w := s.do(http.MethodGet, "/api/designs", "", "")

		assert.Empty(t, decode[[]domain.Design](t, w))
	})

	t.Run("empty design", func(t *testing.T) {
		w := s.do(http.MethodPost, "/api/erc", `{"id":"e","name":"e"}`, "application/json")

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, []string{"No AHB components found"}, decode[domain.ERCResult](t, w).Errors)
	})

	t.Run("dangling endpoint is a finding, strict makes it an error", func(t *testing.T) {
		body := strings.Replace(s.fixture, "{component_id: sram, pin_id: clk}", "{component_id: ghost, pin_id: clk}", 1)
		require.NotEqual(t, s.fixture, body)

		w := s.do(http.MethodPost, "/api/erc", body, yamlType)
		require.Equal(t, http.StatusOK, w.Code)
		assert.NotEmpty(t, decode[domain.ERCResult](t, w).Warnings)

		w = s.do(http.MethodPost, "/api/erc?strict=1", body, yamlType)
		require.Equal(t, http.StatusOK, w.Code)
		assert.NotEmpty(t, decode[domain.ERCResult](t, w).Errors)
	})
}

func TestImportExport(t *testing.T) {
	s := newTestServer(t)

	t.Run("import creates", func(t *testing.T) {
		w := s.do(http.MethodPost, "/api/import/yaml", s.fixture, yamlType)

		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		result := decode[service.ImportResult](t, w)
		assert.True(t, result.Created)
		assert.Equal(t, "create", result.Strategy)
	})

	t.Run("second create conflicts, replace overwrites", func(t *testing.T) {
		w := s.do(http.MethodPost, "/api/import/yaml", s.fixture, yamlType)
		assert.Equal(t, http.StatusConflict, w.Code)

		w = s.do(http.MethodPost, "/api/import/yaml?strategy=replace", s.fixture, yamlType)
		require.Equal(t, http.StatusOK, w.Code)
		assert.False(t, decode[service.ImportResult](t, w).Created)
	})

	t.Run("unknown strategy", func(t *testing.T) {
		w := s.do(http.MethodPost, "/api/import/yaml?strategy=merge", s.fixture, yamlType)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("invalid YAML", func(t *testing.T) {
		w := s.do(http.MethodPost, "/api/import/yaml", "id: [", yamlType)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("export yaml", func(t *testing.T) {
		w := s.do(http.MethodGet, "/api/designs/minimal_ahb/export/yaml", "", "")

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "application/x-yaml", w.Header().Get("Content-Type"))
		assert.Equal(t, "attachment; filename=minimal_ahb.yaml", w.Header().Get("Content-Disposition"))
		assert.Contains(t, w.Body.String(), "id: minimal_ahb")
	})

	t.Run("export json", func(t *testing.T) {
		w := s.do(http.MethodGet, "/api/designs/minimal_ahb/export/json", "", "")

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "minimal_ahb", decode[domain.Design](t, w).ID)
	})

	t.Run("export errors", func(t *testing.T) {
		w := s.do(http.MethodGet, "/api/designs/minimal_ahb/export/xml", "", "")
		assert.Equal(t, http.StatusBadRequest, w.Code)

		w = s.do(http.MethodGet, "/api/designs/nope/export/json", "", "")
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Empty(t, w.Header().Get("Content-Disposition"))
	})

	t.Run("view", func(t *testing.T) {
		w := s.do(http.MethodGet, "/api/designs/minimal_ahb/view", "", "")

		require.Equal(t, http.StatusOK, w.Code)
		view := decode[domain.SchematicView](t, w)
		assert.Len(t, view.Nodes, 2)
		assert.NotEmpty(t, view.Edges)
	})
}
