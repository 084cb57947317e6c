package handler

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"gameops/api/auth"
	"gameops/api/model"
	"gameops/api/store"
)

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req model.LoginRequest
	if !h.decode(w, r, &req) {
		return
	}

	name, err := h.store.Authenticate(r.Context(), req.Username, req.Password)
	if errors.Is(err, store.ErrInvalidCredentials) {
		h.log.Info("login rejected", zap.String("username", req.Username))
		writeError(w, CodeInvalidCredentials, "用户名或密码错误")
		return
	}
	if err != nil {
		h.internalError(w, "authenticate", err)
		return
	}

	token, err := h.tokens.Issue(req.Username, name)
	if err != nil {
		h.internalError(w, "issue token", err)
		return
	}
	h.log.Info("login", zap.String("username", req.Username))
	writeJSON(w, model.LoginResponse{Token: token, Name: name})
}

func (h *Handler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	claims, _ := auth.FromContext(r.Context())

	var req model.ChangePasswordRequest
	if !h.decode(w, r, &req) {
		return
	}

	err := h.store.ChangePassword(r.Context(), claims.Username, req.OldPassword, req.NewPassword)
	switch {
	case errors.Is(err, store.ErrInvalidCredentials):
		writeError(w, CodeInvalidCredentials, "当前密码错误")
		return
	case errors.Is(err, store.ErrNotFound):
		writeError(w, CodeNotFound, "账号不存在")
		return
	case err != nil:
		h.internalError(w, "change password", err)
		return
	}
	h.log.Info("password changed", zap.String("username", claims.Username))
	writeJSON(w, nil)
}

// operator names the caller in history records and lock notices.
func operator(r *http.Request) string {
	claims, ok := auth.FromContext(r.Context())
	if !ok {
		return "unknown"
	}
	if claims.Name != "" {
		return claims.Name
	}
	return claims.Username
}
