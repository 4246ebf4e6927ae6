package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/dukerupert/weeklycart/internal/export"
	"github.com/dukerupert/weeklycart/internal/model"
	"github.com/dukerupert/weeklycart/internal/store"
)

type ExportHandler struct {
	lists  *store.ListStore
	logger *slog.Logger
}

func NewExportHandler(ls *store.ListStore, logger *slog.Logger) *ExportHandler {
	return &ExportHandler{lists: ls, logger: logger}
}

// JSON serves the collection, or one list when ?list_id is set, as a JSON
// download.
func (h *ExportHandler) JSON(w http.ResponseWriter, r *http.Request) {
	now := time.Now()

	var (
		env  model.ShareEnvelope
		name string
	)
	if listID := r.URL.Query().Get("list_id"); listID != "" {
		list := h.lists.GetList(listID)
		if list == nil {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "list not found"})
			return
		}
		env = model.NewSingleEnvelope(*list, now)
		name = export.ListFileName(list.Name, "json", now)
	} else {
		env = model.NewMultiEnvelope(h.lists.Lists(), now)
		name = export.FileName("shopping-lists", "json", now)
	}

	data, err := export.JSON(env)
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// Text serves the collection, or one list when ?list_id is set, as a plain
// text download.
func (h *ExportHandler) Text(w http.ResponseWriter, r *http.Request) {
	now := time.Now()

	var (
		body string
		name string
	)
	if listID := r.URL.Query().Get("list_id"); listID != "" {
		list := h.lists.GetList(listID)
		if list == nil {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "list not found"})
			return
		}
		body = export.SingleText(*list, now)
		name = export.ListFileName(list.Name, "txt", now)
	} else {
		body = export.Text(h.lists.Lists(), now)
		name = export.FileName("shopping-lists", "txt", now)
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(body))
}
