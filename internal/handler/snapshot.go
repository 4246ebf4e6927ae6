package handler

import (
	"bytes"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/dukerupert/weeklycart/internal/export"
	"github.com/dukerupert/weeklycart/internal/importer"
	"github.com/dukerupert/weeklycart/internal/snapshot"
	"github.com/dukerupert/weeklycart/internal/store"
	ws "github.com/dukerupert/weeklycart/internal/websocket"
)

type SnapshotHandler struct {
	manager *snapshot.Manager
	store   *store.SnapshotStore
	lists   *store.ListStore
	hub     *ws.Hub
	logger  *slog.Logger
}

func NewSnapshotHandler(m *snapshot.Manager, ss *store.SnapshotStore, ls *store.ListStore, hub *ws.Hub, logger *slog.Logger) *SnapshotHandler {
	return &SnapshotHandler{manager: m, store: ss, lists: ls, hub: hub, logger: logger}
}

func (h *SnapshotHandler) List(w http.ResponseWriter, r *http.Request) {
	snaps, err := h.store.List(50)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"enabled":   h.manager.Enabled(),
		"snapshots": snaps,
	})
}

func (h *SnapshotHandler) RunNow(w http.ResponseWriter, r *http.Request) {
	if !h.manager.Enabled() {
		writeJSON(w, http.StatusConflict, map[string]string{"error": "snapshots are not configured"})
		return
	}

	snap, err := h.manager.RunNow(r.Context())
	if err != nil {
		h.logger.Error("manual snapshot failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "snapshot failed"})
		return
	}
	writeJSON(w, http.StatusCreated, snap)
}

// Restore decrypts a snapshot file and swaps it in as the whole collection.
// The payload goes through the same validation and merge path as any import.
func (h *SnapshotHandler) Restore(w http.ResponseWriter, r *http.Request) {
	if !h.manager.Enabled() {
		writeJSON(w, http.StatusConflict, map[string]string{"error": "snapshots are not configured"})
		return
	}

	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid snapshot id"})
		return
	}
	snap, err := h.store.GetByID(id)
	if err != nil {
		writeError(w, err)
		return
	}
	if snap == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "snapshot not found"})
		return
	}

	plaintext, err := h.manager.Restore(snap.Filename)
	if err != nil {
		h.logger.Error("restore snapshot", "file", snap.Filename, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "snapshot could not be decrypted"})
		return
	}

	env, err := export.ParseJSON(bytes.NewReader(plaintext))
	if err != nil {
		writeError(w, err)
		return
	}
	merged, err := importer.Merge(env, nil, importer.StrategyReplace)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := h.lists.ReplaceAll(merged); err != nil {
		writeError(w, err)
		return
	}

	h.logger.Info("snapshot restored", "file", snap.Filename, "lists", len(merged))
	h.hub.Broadcast(ws.NewMessage("import", "completed", "", map[string]any{
		"lists_imported": len(merged),
	}))
	writeJSON(w, http.StatusOK, map[string]any{"listsRestored": len(merged)})
}
