package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"scholar-export/config"
	"scholar-export/metrics"
	"scholar-export/services"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

const (
	requestIDHeader = "X-Request-ID"
	// maxAllowedResults begrenzt max_results pro Anfrage.
	maxAllowedResults = 100
)

func setupRouter(cfg *config.Config, stack *services.Stack, log *zap.Logger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestIDMiddleware())
	router.Use(accessLogMiddleware(log))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	setupHealthRoutes(router, stack.Health)
	setupSearchRoutes(router, cfg, stack.Pipeline, log)
	setupDownloadRoutes(router, cfg, log)
	return router
}

// requestIDMiddleware übernimmt eine mitgeschickte X-Request-ID oder erzeugt eine neue.
func requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := strings.TrimSpace(c.GetHeader(requestIDHeader))
		if id == "" {
			id = uuid.NewString()
		}
		c.Set("request_id", id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

func accessLogMiddleware(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Info("HTTP request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("request_id", c.GetString("request_id")))
	}
}

func setupHealthRoutes(router *gin.Engine, health *services.HealthChecker) {
	router.GET("/healthz", func(c *gin.Context) {
		status := "ok"
		if !health.Healthy() {
			status = "degraded"
		}
		c.JSON(http.StatusOK, gin.H{"status": status, "upstreams": health.Status()})
	})
}

type searchRequest struct {
	Query      string `form:"query" json:"query"`
	MaxResults int    `form:"max_results" json:"max_results"`
}

func setupSearchRoutes(router *gin.Engine, cfg *config.Config, pipeline *services.Pipeline, log *zap.Logger) {
	router.POST("/search", func(c *gin.Context) {
		var req searchRequest
		if err := c.ShouldBind(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
			return
		}
		if req.MaxResults > maxAllowedResults {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("max_results must not exceed %d", maxAllowedResults)})
			return
		}
		if req.MaxResults <= 0 {
			req.MaxResults = cfg.MaxResults
		}

		ctx := c.Request.Context()
		if cfg.SearchTimeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, cfg.SearchTimeout)
			defer cancel()
		}

		rows, err := pipeline.Run(ctx, req.Query, req.MaxResults)
		if errors.Is(err, services.ErrEmptyQuery) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "query is required"})
			return
		}
		if err != nil {
			log.Error("Search failed", zap.Error(err), zap.String("request_id", c.GetString("request_id")))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "search failed"})
			return
		}

		partial := errors.Is(ctx.Err(), context.DeadlineExceeded)
		if partial {
			log.Warn("Search timed out, returning partial result",
				zap.Duration("timeout", cfg.SearchTimeout),
				zap.Int("rows", len(rows)),
				zap.String("request_id", c.GetString("request_id")))
		}

		c.JSON(http.StatusOK, gin.H{
			"query":   services.NormalizeText(req.Query),
			"count":   len(rows),
			"partial": partial,
			"results": rows,
		})
	})
}

// downloadRequest liest nur das Format aus einem JSON-Body; die Zeilen parst der Exporter selbst.
type downloadRequest struct {
	Format string `json:"format"`
}

func setupDownloadRoutes(router *gin.Engine, cfg *config.Config, log *zap.Logger) {
	scorer := services.NewImpactScorer(cfg.ImpactFactorBase)
	router.POST("/download", func(c *gin.Context) {
		var raw, formatParam string
		if c.ContentType() == binding.MIMEJSON {
			body, err := c.GetRawData()
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
				return
			}
			var req downloadRequest
			_ = json.Unmarshal(body, &req)
			raw, formatParam = string(body), req.Format
		} else {
			raw, formatParam = c.PostForm("results"), c.PostForm("format")
		}
		if q := c.Query("format"); q != "" {
			formatParam = q
		}

		format, err := services.ParseFormat(formatParam)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		rows, err := services.ParsePayload(raw, scorer)
		switch {
		case errors.Is(err, services.ErrNoData):
			c.JSON(http.StatusBadRequest, gin.H{"error": "No data to download"})
			return
		case err != nil:
			log.Warn("Rejected download payload", zap.Error(err), zap.String("request_id", c.GetString("request_id")))
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		data, err := services.Render(format, rows)
		if err != nil {
			log.Error("Export failed", zap.Error(err), zap.String("format", string(format)))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "export failed"})
			return
		}

		metrics.ExportsTotal.WithLabelValues(string(format)).Inc()
		c.Header("Content-Disposition", "attachment; filename="+format.Filename())
		c.Data(http.StatusOK, format.ContentType(), data)
	})
}
