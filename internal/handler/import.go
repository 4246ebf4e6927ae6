package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/dukerupert/weeklycart/internal/export"
	"github.com/dukerupert/weeklycart/internal/importer"
	"github.com/dukerupert/weeklycart/internal/model"
	"github.com/dukerupert/weeklycart/internal/push"
	"github.com/dukerupert/weeklycart/internal/store"
	ws "github.com/dukerupert/weeklycart/internal/websocket"
)

// maxUploadBytes bounds an uploaded export file.
const maxUploadBytes = 10 << 20

type ImportHandler struct {
	lists    *store.ListStore
	hub      *ws.Hub
	notifier *push.Notifier
	logger   *slog.Logger
}

func NewImportHandler(ls *store.ListStore, hub *ws.Hub, notifier *push.Notifier, logger *slog.Logger) *ImportHandler {
	return &ImportHandler{lists: ls, hub: hub, notifier: notifier, logger: logger}
}

type importPreviewRequest struct {
	Token string `json:"token"`
}

type previewList struct {
	Name      string `json:"name"`
	ItemCount int    `json:"itemCount"`
}

type importPreviewResponse struct {
	Lists        []previewList        `json:"lists"`
	SpaceWarning string               `json:"spaceWarning,omitempty"`
	Envelope     *model.ShareEnvelope `json:"envelope"`
}

// Preview validates an import token and returns a summary plus the sanitized
// envelope. The client echoes the envelope back on confirm; nothing is stored
// server side between the two calls.
func (h *ImportHandler) Preview(w http.ResponseWriter, r *http.Request) {
	var req importPreviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}

	env, err := importer.ValidateToken(req.Token)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, h.preview(env))
}

// PreviewFile validates an uploaded JSON export file.
func (h *ImportHandler) PreviewFile(w http.ResponseWriter, r *http.Request) {
	env, err := export.ParseJSON(http.MaxBytesReader(w, r.Body, maxUploadBytes))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, h.preview(env))
}

type importConfirmRequest struct {
	Envelope *model.ShareEnvelope `json:"envelope"`
	Strategy string               `json:"strategy"`
}

// Confirm merges a previously previewed envelope into the collection. The
// envelope is re-validated; the preview response is client-held state and
// cannot be trusted.
func (h *ImportHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	var req importConfirmRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}

	if err := importer.Validate(req.Envelope); err != nil {
		writeError(w, err)
		return
	}

	merged, err := importer.Merge(*req.Envelope, h.lists.Lists(), req.Strategy)
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.lists.ReplaceAll(merged); err != nil {
		writeError(w, err)
		return
	}

	imported := len(req.Envelope.Flatten())
	h.logger.Info("import completed", "lists_imported", imported, "strategy", req.Strategy)
	h.hub.Broadcast(ws.NewMessage("import", "completed", "", map[string]any{
		"lists_imported": imported,
	}))
	if h.notifier != nil {
		h.notifier.NotifyImport(imported)
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"listsImported": imported,
		"totalLists":    len(merged),
	})
}

func (h *ImportHandler) preview(env model.ShareEnvelope) importPreviewResponse {
	resp := importPreviewResponse{Envelope: &env}
	for _, l := range env.Flatten() {
		resp.Lists = append(resp.Lists, previewList{Name: l.Name, ItemCount: len(l.Items)})
	}

	merged, err := importer.Merge(env, h.lists.Lists(), importer.StrategyAppend)
	if err == nil {
		if err := h.lists.CheckSpace(merged); err != nil {
			resp.SpaceWarning = "importing may exceed the available storage space"
		}
	}
	return resp
}
