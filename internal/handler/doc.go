// Package handler implements the HTTP layer of the chipforge API.
//
// DesignHandler serves design CRUD, ERC runs and their stored reports,
// YAML import and JSON/YAML export, and the schematic view. Routes wires
// it onto a ServeMux together with the health check and, when given, the
// SSE event stream.
//
// Request bodies are JSON unless the Content-Type names YAML. Errors are
// returned as JSON {error, details}; not-found maps to 404, id conflicts
// to 409 and malformed designs to 400.
//
// Chain composes the Recover, CORS and Logger middleware around the mux.
package handler
