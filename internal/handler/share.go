package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/dukerupert/weeklycart/internal/model"
	"github.com/dukerupert/weeklycart/internal/share"
	"github.com/dukerupert/weeklycart/internal/store"
)

type ShareHandler struct {
	lists   *store.ListStore
	qr      *share.QRService
	baseURL string
	logger  *slog.Logger
}

func NewShareHandler(ls *store.ListStore, qr *share.QRService, baseURL string, logger *slog.Logger) *ShareHandler {
	return &ShareHandler{lists: ls, qr: qr, baseURL: baseURL, logger: logger}
}

// envelope builds the share envelope for a request. ?list_id selects a single
// list; without it the whole collection is shared.
func (h *ShareHandler) envelope(r *http.Request) (model.ShareEnvelope, error) {
	if listID := r.URL.Query().Get("list_id"); listID != "" {
		list := h.lists.GetList(listID)
		if list == nil {
			return model.ShareEnvelope{}, &model.NotFoundError{Resource: "list"}
		}
		return model.NewSingleEnvelope(*list, time.Now()), nil
	}
	return model.NewMultiEnvelope(h.lists.Lists(), time.Now()), nil
}

func (h *ShareHandler) URL(w http.ResponseWriter, r *http.Request) {
	env, err := h.envelope(r)
	if err != nil {
		writeError(w, err)
		return
	}

	link, compressed, err := h.render(env, share.URL)
	if err != nil {
		writeShareError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"url": link, "compressed": compressed})
}

func (h *ShareHandler) Text(w http.ResponseWriter, r *http.Request) {
	env, err := h.envelope(r)
	if err != nil {
		writeError(w, err)
		return
	}

	text, compressed, err := h.render(env, share.Text)
	if err != nil {
		writeShareError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"text": text, "compressed": compressed})
}

func (h *ShareHandler) QR(w http.ResponseWriter, r *http.Request) {
	env, err := h.envelope(r)
	if err != nil {
		writeError(w, err)
		return
	}

	imageURL, err := h.qr.ImageURL(r.Context(), h.baseURL, env)
	if errors.Is(err, share.ErrTooLarge) {
		imageURL, err = h.qr.ImageURL(r.Context(), h.baseURL, share.Compress(env))
	}
	if err != nil {
		writeShareError(w, err)
		return
	}

	data, contentType, err := h.qr.FetchImage(r.Context(), imageURL)
	if err != nil {
		writeShareError(w, err)
		return
	}

	if contentType == "" {
		contentType = "image/png"
	}
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// render runs a share renderer, retrying once with a compressed envelope
// when the full payload is over the ceiling.
func (h *ShareHandler) render(env model.ShareEnvelope, fn func(string, model.ShareEnvelope) (string, error)) (out string, compressed bool, err error) {
	out, err = fn(h.baseURL, env)
	if errors.Is(err, share.ErrTooLarge) {
		out, err = fn(h.baseURL, share.Compress(env))
		compressed = true
	}
	return out, compressed, err
}

func writeShareError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, share.ErrTooLarge):
		writeJSON(w, http.StatusRequestEntityTooLarge, map[string]string{"error": "list data is too large to share"})
	case errors.Is(err, share.ErrOffline):
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "network unavailable, QR codes need a connection"})
	case errors.Is(err, share.ErrPermissionDenied):
		writeJSON(w, http.StatusForbidden, map[string]string{"error": "QR service refused the request"})
	case errors.Is(err, share.ErrServiceUnavailable):
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": "QR service unavailable"})
	default:
		writeError(w, err)
	}
}
