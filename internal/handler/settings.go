package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/dukerupert/weeklycart/internal/model"
	"github.com/dukerupert/weeklycart/internal/reset"
	"github.com/dukerupert/weeklycart/internal/store"
	ws "github.com/dukerupert/weeklycart/internal/websocket"
)

type SettingsHandler struct {
	settings  *store.SettingsStore
	scheduler *reset.Scheduler
	hub       *ws.Hub
	logger    *slog.Logger
}

func NewSettingsHandler(ss *store.SettingsStore, sched *reset.Scheduler, hub *ws.Hub, logger *slog.Logger) *SettingsHandler {
	return &SettingsHandler{settings: ss, scheduler: sched, hub: hub, logger: logger}
}

type autoResetResponse struct {
	Enabled       bool   `json:"enabled"`
	ResetDays     []int  `json:"resetDays"`
	ResetTime     string `json:"resetTime"`
	LastResetDate string `json:"lastResetDate,omitempty"`
	NextReset     string `json:"nextReset,omitempty"`
}

func (h *SettingsHandler) GetAutoReset(w http.ResponseWriter, r *http.Request) {
	cfg, err := h.settings.AutoReset()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.toResponse(cfg))
}

type autoResetRequest struct {
	Enabled   bool   `json:"enabled"`
	ResetDays []int  `json:"resetDays"`
	ResetTime string `json:"resetTime"`
}

func (h *SettingsHandler) UpdateAutoReset(w http.ResponseWriter, r *http.Request) {
	var req autoResetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}

	if _, _, err := reset.ParseTime(req.ResetTime); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "resetTime must be HH:MM"})
		return
	}

	prev, err := h.settings.AutoReset()
	if err != nil {
		writeError(w, err)
		return
	}

	cfg := model.AutoResetConfig{
		Enabled:       req.Enabled,
		ResetDays:     req.ResetDays,
		ResetTime:     req.ResetTime,
		LastResetDate: prev.LastResetDate,
	}
	cfg.Normalize()

	if err := h.settings.SetAutoReset(cfg); err != nil {
		writeError(w, err)
		return
	}

	h.scheduler.Restart(context.WithoutCancel(r.Context()))

	h.hub.Broadcast(ws.NewMessage("settings", "updated", "", nil))
	writeJSON(w, http.StatusOK, h.toResponse(cfg))
}

func (h *SettingsHandler) CheckNow(w http.ResponseWriter, r *http.Request) {
	fired := h.scheduler.CheckNow()
	writeJSON(w, http.StatusOK, map[string]bool{"triggered": fired})
}

func (h *SettingsHandler) toResponse(cfg model.AutoResetConfig) autoResetResponse {
	resp := autoResetResponse{
		Enabled:   cfg.Enabled,
		ResetDays: cfg.ResetDays,
		ResetTime: cfg.ResetTime,
	}
	if !cfg.LastResetDate.IsZero() {
		resp.LastResetDate = cfg.LastResetDate.Format(time.RFC3339)
	}
	if cfg.Enabled {
		if next, ok := reset.Next(cfg.ResetDays, cfg.ResetTime, time.Now()); ok {
			resp.NextReset = next.Format(time.RFC3339)
		}
	}
	return resp
}
