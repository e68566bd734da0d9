package api

import (
	"encoding/json"
	"net/http"

	"github.com/nerrad567/graybridge/internal/bridge"
)

// Request bodies for the /db endpoints. Every command names its target
// database by filesystem path except load, which resolves the default
// location from config.
type openRequest struct {
	Path    string             `json:"path"`
	Options bridge.OpenOptions `json:"options"`
}

type loadRequest struct {
	Options bridge.OpenOptions `json:"options"`
}

type pragmaRequest struct {
	Path  string `json:"path"`
	Key   string `json:"key"`
	Value any    `json:"value"`
}

type statementRequest struct {
	Path   string `json:"path"`
	SQL    string `json:"sql"`
	Params []any  `json:"params"`
}

type batchRequest struct {
	Path       string             `json:"path"`
	Statements []bridge.Statement `json:"statements"`
}

// decodeBody parses a JSON request body into dst.
//
// UseNumber keeps integer parameters from collapsing into float64 before
// they reach the binder, which would turn INTEGER columns into REALs.
func decodeBody(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.UseNumber()
	return dec.Decode(dst)
}

// handleOpen opens (or reopens) a connection to the database at a path.
func (s *Server) handleOpen(w http.ResponseWriter, r *http.Request) {
	var req openRequest
	if err := decodeBody(r, &req); err != nil {
		writeBadRequest(w, "invalid request body: "+err.Error())
		return
	}
	if req.Path == "" {
		writeBadRequest(w, "path is required")
		return
	}

	if err := s.registry.Open(r.Context(), req.Path, req.Options); err != nil {
		writeBridgeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

// handleLoad opens the default database under the configured data directory.
func (s *Server) handleLoad(w http.ResponseWriter, r *http.Request) {
	var req loadRequest
	if err := decodeBody(r, &req); err != nil {
		writeBadRequest(w, "invalid request body: "+err.Error())
		return
	}

	path, err := s.registry.Load(r.Context(), req.Options)
	if err != nil {
		writeBridgeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"success": true, "path": path})
}

// handlePragma sets a session pragma on an open connection.
func (s *Server) handlePragma(w http.ResponseWriter, r *http.Request) {
	var req pragmaRequest
	if err := decodeBody(r, &req); err != nil {
		writeBadRequest(w, "invalid request body: "+err.Error())
		return
	}
	if req.Path == "" {
		writeBadRequest(w, "path is required")
		return
	}
	if req.Key == "" {
		writeBadRequest(w, "key is required")
		return
	}

	if err := s.registry.SetPragma(r.Context(), req.Path, req.Key, req.Value); err != nil {
		writeBridgeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

// handleSelect runs a read statement and returns the rows.
func (s *Server) handleSelect(w http.ResponseWriter, r *http.Request) {
	var req statementRequest
	if err := decodeBody(r, &req); err != nil {
		writeBadRequest(w, "invalid request body: "+err.Error())
		return
	}
	if req.Path == "" {
		writeBadRequest(w, "path is required")
		return
	}
	if req.SQL == "" {
		writeBadRequest(w, "sql is required")
		return
	}

	rows, err := s.registry.Select(r.Context(), req.Path, req.SQL, req.Params)
	if err != nil {
		writeBridgeError(w, err)
		return
	}
	if rows == nil {
		rows = []bridge.Row{}
	}

	writeJSON(w, http.StatusOK, map[string]any{"rows": rows})
}

// handleExecute runs a write statement. Params may be a flat list for one
// execution or a list of lists for repeated execution inside a transaction.
func (s *Server) handleExecute(w http.ResponseWriter, r *http.Request) {
	var req statementRequest
	if err := decodeBody(r, &req); err != nil {
		writeBadRequest(w, "invalid request body: "+err.Error())
		return
	}
	if req.Path == "" {
		writeBadRequest(w, "path is required")
		return
	}
	if req.SQL == "" {
		writeBadRequest(w, "sql is required")
		return
	}

	affected, err := s.registry.Exec(r.Context(), req.Path, req.SQL, req.Params)
	if err != nil {
		writeBridgeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"success": true, "rows_affected": affected})
}

// handleBatch runs a heterogeneous statement list in one transaction.
func (s *Server) handleBatch(w http.ResponseWriter, r *http.Request) {
	var req batchRequest
	if err := decodeBody(r, &req); err != nil {
		writeBadRequest(w, "invalid request body: "+err.Error())
		return
	}
	if req.Path == "" {
		writeBadRequest(w, "path is required")
		return
	}
	if len(req.Statements) == 0 {
		writeBadRequest(w, "statements is required")
		return
	}

	if err := s.registry.Batch(r.Context(), req.Path, req.Statements); err != nil {
		writeBridgeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}
