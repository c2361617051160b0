// Package api is the thin HTTP adapter over the registries, the judging
// pipeline and the rank engine: request validation, dispatch, error-to-
// status mapping. Nothing here owns domain state.
package api

import (
	"github.com/minioj/minioj/internal/config"
	"github.com/minioj/minioj/internal/judger"
	"github.com/minioj/minioj/internal/store"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	cfg    *config.Config
	store  *store.Store
	judger *judger.Judger
	exit   chan<- struct{}
}

func NewHandler(cfg *config.Config, st *store.Store, jd *judger.Judger, exit chan<- struct{}) *Handler {
	return &Handler{cfg: cfg, store: st, judger: jd, exit: exit}
}

// NewRouter creates and configures the Gin engine.
func NewRouter(cfg *config.Config, st *store.Store, jd *judger.Judger, exit chan<- struct{}) *gin.Engine {
	r := gin.Default()
	h := NewHandler(cfg, st, jd, exit)

	r.POST("/jobs", h.postJob)
	r.GET("/jobs", h.getJobs)
	r.GET("/jobs/:id", h.getJob)
	r.PUT("/jobs/:id", h.putJob)

	r.POST("/users", h.postUser)
	r.GET("/users", h.getUsers)

	r.POST("/contests", h.postContest)
	r.GET("/contests", h.getContests)
	r.GET("/contests/:id", h.getContest)
	r.GET("/contests/:id/ranklist", h.getRanklist)

	r.POST("/internal/exit", h.postExit)

	return r
}
