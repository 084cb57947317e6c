package handler

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"
)

// Application result codes carried in the envelope. HTTP status stays 200
// for all of them; 401 is reserved for authentication.
const (
	CodeOK                 = 0
	CodeBadRequest         = 1001
	CodeNothingToUpdate    = 1002
	CodeLocked             = 1003
	CodeNotFound           = 1004
	CodeInvalidCredentials = 1005
	CodeInternal           = 1500
)

type envelope struct {
	Code    int         `json:"code"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(envelope{Code: CodeOK, Data: v})
}

func writeError(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(envelope{Code: code, Message: msg})
}

// decode reads a JSON body into v and validates it. On failure the error
// response has been written and false is returned.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, CodeBadRequest, "请求格式错误")
		return false
	}
	if err := h.validate.Struct(v); err != nil {
		writeError(w, CodeBadRequest, h.translate(err))
		return false
	}
	return true
}

func (h *Handler) internalError(w http.ResponseWriter, op string, err error) {
	h.log.Error(op, zap.Error(err))
	writeError(w, CodeInternal, "服务器内部错误")
}
