package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"gameops/api/store"
)

func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.store.ListUsers(r.Context(), r.URL.Query().Get("keyword"))
	if err != nil {
		h.internalError(w, "list users", err)
		return
	}
	writeJSON(w, users)
}

func (h *Handler) BanUser(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, CodeBadRequest, "无效的用户 ID")
		return
	}
	u, err := h.store.BanUser(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, CodeNotFound, "用户不存在")
		return
	}
	if err != nil {
		h.internalError(w, "ban user", err)
		return
	}
	h.log.Info("user banned", zap.Int64("userId", id), zap.String("by", operator(r)))
	writeJSON(w, u)
}

func (h *Handler) ListItems(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	items, err := h.store.ListItems(r.Context(), q.Get("keyword"), q.Get("type"))
	if err != nil {
		h.internalError(w, "list items", err)
		return
	}
	writeJSON(w, items)
}

func (h *Handler) ListLevels(w http.ResponseWriter, r *http.Request) {
	levels, err := h.store.ListLevels(r.Context(), r.URL.Query().Get("keyword"))
	if err != nil {
		h.internalError(w, "list levels", err)
		return
	}
	writeJSON(w, levels)
}

func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	stats, err := h.store.Stats(r.Context())
	if err != nil {
		h.internalError(w, "dashboard stats", err)
		return
	}
	writeJSON(w, stats)
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]interface{}{
		"status":    "healthy",
		"wsClients": h.ws.Clients(),
		"locked":    !h.pipeline.PreCheck().CanExecute,
	})
}
