package handler

import (
	"log/slog"
	"net/http"

	"github.com/rocjay1/fiscal-sentinel/internal/chainlog"
)

// HandleChainlog returns the audit trail, optionally filtered by ?action=.
func (d *Dependencies) HandleChainlog(w http.ResponseWriter, r *http.Request) {
	if d.AuditLog == nil {
		WriteError(w, http.StatusServiceUnavailable, "Audit log is not configured")
		return
	}

	entries, err := d.AuditLog.Entries(r.Context())
	if err != nil {
		slog.Error("failed to read audit log", "error", err)
		WriteError(w, http.StatusInternalServerError, "Failed to read audit log: "+err.Error())
		return
	}

	if action := r.URL.Query().Get("action"); action != "" {
		filtered := make([]chainlog.Entry, 0, len(entries))
		for _, e := range entries {
			if e.Action == action {
				filtered = append(filtered, e)
			}
		}
		entries = filtered
	}

	WriteJSON(w, http.StatusOK, map[string]any{
		"count":   len(entries),
		"entries": entries,
	})
}
