package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/dukerupert/weeklycart/internal/model"
	"github.com/dukerupert/weeklycart/internal/store"
	ws "github.com/dukerupert/weeklycart/internal/websocket"
)

type ListHandler struct {
	lists  *store.ListStore
	hub    *ws.Hub
	logger *slog.Logger
}

func NewListHandler(ls *store.ListStore, hub *ws.Hub, logger *slog.Logger) *ListHandler {
	return &ListHandler{lists: ls, hub: hub, logger: logger}
}

type listResponse struct {
	Lists         []listSummary `json:"lists"`
	CurrentListID string        `json:"currentListId"`
}

type listSummary struct {
	ID        string       `json:"id"`
	Name      string       `json:"name"`
	Items     []model.Item `json:"items"`
	CreatedAt time.Time    `json:"createdAt"`
}

func (h *ListHandler) List(w http.ResponseWriter, r *http.Request) {
	lists := h.lists.Lists()
	resp := listResponse{CurrentListID: h.lists.CurrentListID(), Lists: make([]listSummary, 0, len(lists))}
	for _, l := range lists {
		resp.Lists = append(resp.Lists, listSummary{ID: l.ID, Name: l.Name, Items: l.Items, CreatedAt: l.CreatedAt})
	}
	writeJSON(w, http.StatusOK, resp)
}

type listRequest struct {
	Name string `json:"name"`
}

func (h *ListHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req listRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}

	list, err := h.lists.CreateList(req.Name)
	if err != nil {
		writeError(w, err)
		return
	}

	h.hub.Broadcast(ws.NewMessage("list", "created", list.ID, nil))
	writeJSON(w, http.StatusCreated, list)
}

func (h *ListHandler) Rename(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var req listRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}

	if err := h.lists.RenameList(id, req.Name); err != nil {
		writeError(w, err)
		return
	}

	h.hub.Broadcast(ws.NewMessage("list", "renamed", id, nil))
	writeJSON(w, http.StatusOK, h.lists.GetList(id))
}

func (h *ListHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	if err := h.lists.DeleteList(id); err != nil {
		writeError(w, err)
		return
	}

	h.hub.Broadcast(ws.NewMessage("list", "deleted", id, map[string]any{
		"current_list_id": h.lists.CurrentListID(),
	}))
	w.WriteHeader(http.StatusNoContent)
}

func (h *ListHandler) Select(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	if err := h.lists.SelectList(id); err != nil {
		writeError(w, err)
		return
	}

	h.hub.Broadcast(ws.NewMessage("list", "selected", id, nil))
	writeJSON(w, http.StatusOK, map[string]string{"currentListId": id})
}

type itemRequest struct {
	Name   string `json:"name"`
	Amount string `json:"amount"`
}

func (h *ListHandler) CreateItem(w http.ResponseWriter, r *http.Request) {
	listID := r.PathValue("id")

	var req itemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}

	item, err := h.lists.AddItem(listID, req.Name, req.Amount)
	if err != nil {
		writeError(w, err)
		return
	}

	h.hub.Broadcast(ws.NewMessage("item", "created", listID, map[string]any{"item_id": item.ID}))
	writeJSON(w, http.StatusCreated, item)
}

func (h *ListHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	listID := r.PathValue("id")
	itemID, err := parseItemIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid item_id"})
		return
	}

	var req itemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}

	item, err := h.lists.EditItem(listID, itemID, req.Name, req.Amount)
	if err != nil {
		writeError(w, err)
		return
	}
	if item == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "item not found"})
		return
	}

	h.hub.Broadcast(ws.NewMessage("item", "updated", listID, map[string]any{"item_id": item.ID}))
	writeJSON(w, http.StatusOK, item)
}

func (h *ListHandler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	listID := r.PathValue("id")
	itemID, err := parseItemIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid item_id"})
		return
	}

	if err := h.lists.DeleteItem(listID, itemID); err != nil {
		writeError(w, err)
		return
	}

	h.hub.Broadcast(ws.NewMessage("item", "deleted", listID, map[string]any{"item_id": itemID}))
	w.WriteHeader(http.StatusNoContent)
}

func (h *ListHandler) ToggleItem(w http.ResponseWriter, r *http.Request) {
	listID := r.PathValue("id")
	itemID, err := parseItemIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid item_id"})
		return
	}

	item := h.lists.ToggleItem(listID, itemID)
	if item == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "item not found"})
		return
	}

	h.hub.Broadcast(ws.NewMessage("item", "toggled", listID, map[string]any{
		"item_id": item.ID,
		"checked": item.Checked,
	}))
	writeJSON(w, http.StatusOK, item)
}

func (h *ListHandler) Reset(w http.ResponseWriter, r *http.Request) {
	listID := r.PathValue("id")

	at, err := h.lists.ResetList(listID)
	if err != nil {
		writeError(w, err)
		return
	}

	h.hub.Broadcast(ws.NewMessage("reset", "completed", listID, nil))
	writeJSON(w, http.StatusOK, map[string]string{"lastResetDate": at.Format(time.RFC3339)})
}

func (h *ListHandler) ResetAll(w http.ResponseWriter, r *http.Request) {
	at := h.lists.ResetAll()

	h.hub.Broadcast(ws.NewMessage("reset", "completed", "", nil))
	writeJSON(w, http.StatusOK, map[string]string{"lastResetDate": at.Format(time.RFC3339)})
}
