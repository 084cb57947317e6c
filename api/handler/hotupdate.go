package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"gameops/api/model"
	"gameops/api/pipeline"
)

const maxPageSize = 100

func (h *Handler) Detect(w http.ResponseWriter, r *http.Request) {
	pending, err := h.store.PendingChanges(r.Context())
	if err != nil {
		h.internalError(w, "pending changes", err)
		return
	}
	if pending == nil || len(pending.Changes) == 0 {
		writeError(w, CodeNothingToUpdate, "当前没有需要更新的配置")
		return
	}
	writeJSON(w, pending)
}

func (h *Handler) PreCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.pipeline.PreCheck())
}

func (h *Handler) Execute(w http.ResponseWriter, r *http.Request) {
	var req model.DetectResult
	if !h.decode(w, r, &req) {
		return
	}

	start, err := h.pipeline.Start(operator(r), req)
	var locked *pipeline.LockedError
	if errors.As(err, &locked) {
		writeError(w, CodeLocked, fmt.Sprintf("%s 正在执行热更新（开始于 %s），请稍后再试", locked.Holder, locked.Since.Format("15:04")))
		return
	}
	if err != nil {
		h.internalError(w, "start execution", err)
		return
	}
	writeJSON(w, start)
}

func (h *Handler) GetExecution(w http.ResponseWriter, r *http.Request) {
	exec, err := h.pipeline.Get(chi.URLParam(r, "id"))
	if errors.Is(err, pipeline.ErrNotFound) {
		writeError(w, CodeNotFound, "执行记录不存在")
		return
	}
	if err != nil {
		h.internalError(w, "get execution", err)
		return
	}
	writeJSON(w, exec)
}

func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page := intParam(q.Get("page"), 1)
	pageSize := min(intParam(q.Get("pageSize"), 20), maxPageSize)

	result, err := h.store.ListHistory(r.Context(), q.Get("keyword"), page, pageSize)
	if err != nil {
		h.internalError(w, "list history", err)
		return
	}
	writeJSON(w, result)
}

func intParam(s string, fallback int) int {
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return fallback
	}
	return n
}
