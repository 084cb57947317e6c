package handler

import (
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"gameops/api/auth"
	"gameops/api/hub"
	"gameops/api/pipeline"
	"gameops/api/store"
)

type Handler struct {
	store    *store.Store
	pipeline *pipeline.Pipeline
	tokens   *auth.Issuer
	ws       *hub.Hub
	validate *validator.Validate
	trans    ut.Translator
	log      *zap.Logger
}

func New(st *store.Store, p *pipeline.Pipeline, tokens *auth.Issuer, ws *hub.Hub, log *zap.Logger) *Handler {
	v, trans := newValidator()
	return &Handler{
		store:    st,
		pipeline: p,
		tokens:   tokens,
		ws:       ws,
		validate: v,
		trans:    trans,
		log:      log,
	}
}
