package handler

import "net/http"

// Routes registers the API on a new mux. events serves the SSE stream
// and may be nil.
func Routes(h *DesignHandler, events http.Handler) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", Health)

	mux.HandleFunc("GET /api/designs", h.ListDesigns)
	mux.HandleFunc("POST /api/designs", h.CreateDesign)
	mux.HandleFunc("GET /api/designs/{id}", h.GetDesign)
	mux.HandleFunc("PUT /api/designs/{id}", h.UpdateDesign)
	mux.HandleFunc("DELETE /api/designs/{id}", h.DeleteDesign)
	mux.HandleFunc("GET /api/designs/{id}/view", h.GetView)
	mux.HandleFunc("GET /api/designs/{id}/export/{format}", h.Export)

	mux.HandleFunc("POST /api/designs/{id}/erc", h.RunERC)
	mux.HandleFunc("GET /api/designs/{id}/reports", h.ListReports)
	mux.HandleFunc("GET /api/reports/{id}", h.GetReport)
	mux.HandleFunc("POST /api/erc", h.ValidateAdHoc)
	mux.HandleFunc("POST /api/erc/all", h.ValidateAll)

	mux.HandleFunc("POST /api/import/yaml", h.ImportYAML)

	if events != nil {
		mux.Handle("GET /events", events)
	}

	return mux
}
