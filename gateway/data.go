package gateway

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/panpapadopoulos/subtrack/dataset"
	"github.com/panpapadopoulos/subtrack/storage"
)

// maxDatasetBodySize caps POST /api/data bodies. The whole dataset travels
// as one document, so the cap is generous.
const maxDatasetBodySize = 10 << 20

// ErrorResponse is returned for all API error cases.
type ErrorResponse struct {
	Error string `json:"error"`
}

// AckResponse is returned from a successful POST /api/data.
type AckResponse struct {
	Success bool `json:"success"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}

// GetDataset handles GET /api/data. An absent key reads as the
// empty-collections document, never as an error.
func (g *Gateway) GetDataset(w http.ResponseWriter, r *http.Request) {
	doc, err := g.store.Get(storage.DatasetKey)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			g.audit.logFailure(AuditDatasetReadFailed, r, err.Error())
			writeError(w, http.StatusInternalServerError, "failed to read dataset")
			return
		}
		doc, err = dataset.Empty().Marshal()
		if err != nil {
			writeError(w, http.StatusInternalServerError, "failed to encode dataset")
			return
		}
	}

	g.audit.logEvent(AuditDatasetRead, r)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(doc)
}

// PutDataset handles POST /api/data. The body replaces the stored document
// verbatim — a full overwrite, not a merge, and no schema enforcement
// beyond well-formed JSON. A malformed body leaves the previous document
// untouched.
func (g *Gateway) PutDataset(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxDatasetBodySize)
	body, err := io.ReadAll(r.Body)
	if err != nil {
		g.audit.logFailure(AuditDatasetWriteRejected, r, "unreadable body")
		writeError(w, http.StatusBadRequest, "failed to read request body")
		return
	}
	if !json.Valid(body) {
		g.audit.logFailure(AuditDatasetWriteRejected, r, "malformed json")
		writeError(w, http.StatusBadRequest, "request body is not valid JSON")
		return
	}

	if err := g.store.Put(storage.DatasetKey, body); err != nil {
		g.audit.logFailure(AuditDatasetWriteFailed, r, err.Error())
		writeError(w, http.StatusInternalServerError, "failed to store dataset")
		return
	}

	g.audit.logEvent(AuditDatasetWritten, r)
	writeJSON(w, http.StatusOK, AckResponse{Success: true})
}
