package handlers

import (
	"fmt"

	"github.com/gin-gonic/gin"

	"gradestats-server-go/config"
)

// NewRouter wires every route of the dashboard and the JSON API
func NewRouter(h *APIHandler, limit config.RateLimit) (*gin.Engine, error) {
	tmpl, err := LoadTemplates()
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	router := gin.New()
	router.Use(RequestID(), RequestLogger(h.Logger), gin.Recovery())
	router.SetHTMLTemplate(tmpl)

	throttle := func(c *gin.Context) { c.Next() }
	if limit.Enabled {
		throttle = NewRateLimiter(limit.RPS, limit.Burst, h.Logger).Handler
	}

	// Web form
	router.GET("/", h.Index)
	router.POST("/analyze", throttle, h.AnalyzeForm)
	router.GET("/reports/:id/:kind", h.DownloadReport)

	// Setup API routes
	api := router.Group("/api")
	{
		api.POST("/analyze", throttle, h.Analyze)
		api.POST("/export/xlsx", throttle, h.ExportWorkbook)
		api.POST("/export/pdf", throttle, h.ExportDocument)
		api.GET("/ping", h.Ping)
	}

	if h.Metrics != nil {
		router.GET("/metrics", gin.WrapH(h.Metrics.Handler()))
	}
	return router, nil
}
