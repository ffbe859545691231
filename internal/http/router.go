package http

import (
	"github.com/gin-gonic/gin"
)

// RouterConfig holds the dependencies of the router.
type RouterConfig struct {
	Version string
	Checks  map[string]Pinger
	Quiet   bool // skip request logging
}

// NewRouter creates the HTTP router for operational endpoints.
func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	if !cfg.Quiet {
		router.Use(gin.Logger())
	}
	router.Use(gin.Recovery())

	health := NewHealthController(cfg.Checks, cfg.Version)
	router.GET("/health", health.Status)

	return router
}
