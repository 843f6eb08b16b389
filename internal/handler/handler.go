package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strconv"

	"chipforge/internal/codec"
	"chipforge/internal/domain"
	"chipforge/internal/erc"
	"chipforge/internal/loader"
	"chipforge/internal/repository"
	"chipforge/internal/service"
)

// maxBodyBytes caps design uploads
const maxBodyBytes = 10 << 20

// defaultReportLimit is how many reports a listing returns without ?limit
const defaultReportLimit = 20

// DesignHandler handles design and ERC API requests
type DesignHandler struct {
	svc *service.DesignService
}

// NewDesignHandler creates a new design handler
func NewDesignHandler(svc *service.DesignService) *DesignHandler {
	return &DesignHandler{svc: svc}
}

// Error response structure
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// ListDesigns returns all designs
func (h *DesignHandler) ListDesigns(w http.ResponseWriter, r *http.Request) {
	designs, err := h.svc.ListDesigns(r.Context())
	if err != nil {
		log.Printf("Failed to list designs: %v", err)
		h.writeError(w, "Failed to list designs", err.Error(), http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, designs, http.StatusOK)
}

// GetDesign returns a single design
func (h *DesignHandler) GetDesign(w http.ResponseWriter, r *http.Request) {
	design, err := h.svc.GetDesign(r.Context(), r.PathValue("id"))
	if err != nil {
		h.writeServiceError(w, "Failed to get design", err)
		return
	}

	h.writeJSON(w, design, http.StatusOK)
}

// CreateDesign creates a new design from a JSON or YAML body
func (h *DesignHandler) CreateDesign(w http.ResponseWriter, r *http.Request) {
	design, ok := h.decodeDesign(w, r)
	if !ok {
		return
	}

	if err := h.svc.CreateDesign(r.Context(), design); err != nil {
		h.writeServiceError(w, "Failed to create design", err)
		return
	}

	h.writeJSON(w, design, http.StatusCreated)
}

// UpdateDesign replaces an existing design
func (h *DesignHandler) UpdateDesign(w http.ResponseWriter, r *http.Request) {
	design, ok := h.decodeDesign(w, r)
	if !ok {
		return
	}

	if err := h.svc.UpdateDesign(r.Context(), r.PathValue("id"), design); err != nil {
		h.writeServiceError(w, "Failed to update design", err)
		return
	}

	h.writeJSON(w, design, http.StatusOK)
}

// DeleteDesign removes a design and its reports
func (h *DesignHandler) DeleteDesign(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteDesign(r.Context(), r.PathValue("id")); err != nil {
		h.writeServiceError(w, "Failed to delete design", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// RunERC validates a stored design and records the report
func (h *DesignHandler) RunERC(w http.ResponseWriter, r *http.Request) {
	opts, err := h.options(r)
	if err != nil {
		h.writeError(w, "Invalid strict parameter", err.Error(), http.StatusBadRequest)
		return
	}

	report, err := h.svc.ValidateWithOptions(r.Context(), r.PathValue("id"), opts)
	if err != nil {
		h.writeServiceError(w, "Failed to run ERC", err)
		return
	}

	h.writeJSON(w, report, http.StatusOK)
}

// ValidateAdHoc validates a design posted in the body without storing it.
// Dangling references are not rejected; the connectivity pass reports them.
func (h *DesignHandler) ValidateAdHoc(w http.ResponseWriter, r *http.Request) {
	opts, err := h.options(r)
	if err != nil {
		h.writeError(w, "Invalid strict parameter", err.Error(), http.StatusBadRequest)
		return
	}

	design, ok := h.decodeDesign(w, r)
	if !ok {
		return
	}

	h.writeJSON(w, h.svc.ValidateDesignWithOptions(design, opts), http.StatusOK)
}

// ValidateAll validates every stored design
func (h *DesignHandler) ValidateAll(w http.ResponseWriter, r *http.Request) {
	reports, err := h.svc.ValidateAll(r.Context())
	if err != nil {
		h.writeServiceError(w, "Failed to validate designs", err)
		return
	}

	h.writeJSON(w, reports, http.StatusOK)
}

// ListReports returns a design's ERC reports, newest first
func (h *DesignHandler) ListReports(w http.ResponseWriter, r *http.Request) {
	limit := defaultReportLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			h.writeError(w, "Invalid limit", "limit must be a non-negative integer", http.StatusBadRequest)
			return
		}
		limit = n
	}

	reports, err := h.svc.ListReports(r.Context(), r.PathValue("id"), limit)
	if err != nil {
		h.writeServiceError(w, "Failed to list reports", err)
		return
	}

	h.writeJSON(w, reports, http.StatusOK)
}

// GetReport returns a single ERC report
func (h *DesignHandler) GetReport(w http.ResponseWriter, r *http.Request) {
	report, err := h.svc.GetReport(r.Context(), r.PathValue("id"))
	if err != nil {
		h.writeServiceError(w, "Failed to get report", err)
		return
	}

	h.writeJSON(w, report, http.StatusOK)
}

// GetView returns the schematic view of a design
func (h *DesignHandler) GetView(w http.ResponseWriter, r *http.Request) {
	view, err := h.svc.View(r.Context(), r.PathValue("id"))
	if err != nil {
		h.writeServiceError(w, "Failed to derive view", err)
		return
	}

	h.writeJSON(w, view, http.StatusOK)
}

// ImportYAML imports a design from a YAML body
func (h *DesignHandler) ImportYAML(w http.ResponseWriter, r *http.Request) {
	strategy := r.URL.Query().Get("strategy")
	if strategy != "" && strategy != "create" && strategy != "replace" {
		h.writeError(w, "Invalid strategy", "strategy must be 'create' or 'replace'", http.StatusBadRequest)
		return
	}

	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		h.writeError(w, "Failed to read request body", err.Error(), http.StatusBadRequest)
		return
	}

	result, err := h.svc.ImportYAML(r.Context(), data, strategy)
	if err != nil {
		h.writeServiceError(w, "Failed to import YAML", err)
		return
	}

	h.writeJSON(w, result, http.StatusOK)
}

// Export writes a design as JSON or YAML
func (h *DesignHandler) Export(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	format := r.PathValue("format")

	c, err := codec.ForFormat(format)
	if err != nil {
		h.writeError(w, "Unsupported format", err.Error(), http.StatusBadRequest)
		return
	}

	contentType := "application/json"
	if c.Format() == "yaml" {
		contentType = "application/x-yaml"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", "attachment; filename="+id+"."+c.Format())

	if err := h.svc.Export(r.Context(), id, c.Format(), w); err != nil {
		w.Header().Del("Content-Disposition")
		h.writeServiceError(w, "Failed to export design", err)
		return
	}
}

// Helper methods

// decodeDesign reads a JSON or YAML design body, chosen by Content-Type
func (h *DesignHandler) decodeDesign(w http.ResponseWriter, r *http.Request) (*domain.Design, bool) {
	c := codec.ForContentType(r.Header.Get("Content-Type"))
	design, err := loader.Decode(http.MaxBytesReader(w, r.Body, maxBodyBytes), c)
	if err != nil {
		h.writeError(w, "Invalid request body", err.Error(), http.StatusBadRequest)
		return nil, false
	}
	return design, true
}

// options applies an optional ?strict= override to the service defaults
func (h *DesignHandler) options(r *http.Request) (erc.Options, error) {
	opts := h.svc.Options()
	if v := r.URL.Query().Get("strict"); v != "" {
		strict, err := strconv.ParseBool(v)
		if err != nil {
			return opts, err
		}
		opts.Strict = strict
	}
	return opts, nil
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, repository.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, service.ErrInvalidDesign):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (h *DesignHandler) writeServiceError(w http.ResponseWriter, msg string, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		log.Printf("%s: %v", msg, err)
	}
	h.writeError(w, msg, err.Error(), status)
}

func (h *DesignHandler) writeJSON(w http.ResponseWriter, data interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("Failed to encode JSON: %v", err)
	}
}

func (h *DesignHandler) writeError(w http.ResponseWriter, message, details string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(ErrorResponse{
		Error:   message,
		Details: details,
	}); err != nil {
		log.Printf("Failed to encode error response: %v", err)
	}
}
