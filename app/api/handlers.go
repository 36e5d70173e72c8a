package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/lysyi3m/rss-lens/app/analysis"
	"github.com/lysyi3m/rss-lens/app/database"
	"github.com/lysyi3m/rss-lens/app/outlet"
)

const (
	defaultListLimit = 50
	maxListLimit     = 500
	topTopics        = 10
)

func NewHandler(db Pinger, records database.RecordRepository, classifications database.ClassificationRepository,
	registry *outlet.Registry, collector Collector, analyzer Analyzer, generator GeneratorInterface,
	analysisLimit int, version string) *Handler {
	return &Handler{
		db:              db,
		records:         records,
		classifications: classifications,
		registry:        registry,
		collector:       collector,
		analyzer:        analyzer,
		generator:       generator,
		analysisLimit:   analysisLimit,
		version:         version,
	}
}

func (h *Handler) GetHealth(c *gin.Context) {
	health := gin.H{
		"timestamp": time.Now().In(time.Local).Format(time.RFC3339),
		"version":   h.version,
		"outlets":   h.registry.Count(),
	}

	if err := h.db.Ping(c.Request.Context()); err != nil {
		slog.Error("Health check failed", "check", "database", "error", err)
		health["status"] = "unhealthy"
		health["database"] = "unreachable"
		c.JSON(http.StatusServiceUnavailable, health)
		return
	}

	health["status"] = "healthy"
	health["database"] = "ok"
	c.JSON(http.StatusOK, health)
}

func (h *Handler) GetStats(c *gin.Context) {
	stats := gin.H{
		"outlets": h.registry.Names(),
	}

	records, err := h.records.RecordCount()
	if err != nil {
		slog.Error("Database error", "operation", "record_count", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}
	stats["records"] = records

	classified, err := h.classifications.ClassifiedCount()
	if err != nil {
		slog.Error("Database error", "operation", "classified_count", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}
	stats["classified"] = classified

	if topics, err := h.classifications.TopicCounts(topTopics); err == nil {
		top := make([]gin.H, 0, len(topics))
		for _, tc := range topics {
			top = append(top, gin.H{"topic": tc.Topic, "count": tc.Count})
		}
		stats["top_topics"] = top
	}

	if last := h.analyzer.LastRun(); !last.IsZero() {
		stats["last_analysis"] = last.In(time.Local).Format(time.RFC3339)
	}

	c.JSON(http.StatusOK, stats)
}

func (h *Handler) GetTopicFeed(c *gin.Context) {
	topic := analysis.NormalizeLabel(c.Param("topic"))
	if topic == "" {
		c.Status(http.StatusBadRequest)
		return
	}

	items, err := h.classifications.FindClassified(database.Filter{Topic: topic, Limit: defaultListLimit})
	if err != nil && !errors.Is(err, database.ErrRelationMissing) {
		slog.Error("Database error", "operation", "find_classified", "topic", topic, "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}

	rss, err := h.generator.Run(topic, items)
	if err != nil {
		slog.Error("RSS generation error", "topic", topic, "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}

	c.Header("Content-Type", "application/xml; charset=utf-8")
	c.Header("X-Feed-Items", strconv.Itoa(len(items)))
	c.Header("X-Feed-Topic", topic)

	c.String(http.StatusOK, rss)
}

func (h *Handler) APIListOutlets(c *gin.Context) {
	names := h.registry.Names()
	outlets := make([]gin.H, 0, len(names))

	for _, name := range names {
		o, err := h.registry.Get(name)
		if err != nil {
			continue
		}

		categories := make([]gin.H, 0, len(o.Links))
		for _, category := range o.Links {
			categories = append(categories, gin.H{"name": category.Name, "urls": category.URLs})
		}

		outlets = append(outlets, gin.H{"name": o.Name, "categories": categories})
	}

	c.JSON(http.StatusOK, gin.H{
		"outlets": outlets,
		"total":   len(outlets),
	})
}

func (h *Handler) APICollectOutlet(c *gin.Context) {
	name := c.Param("name")
	category := c.Query("category")

	report, err := h.collector.Collect(c.Request.Context(), name, category)
	if errors.Is(err, outlet.ErrUnknownOutlet) || errors.Is(err, outlet.ErrUnknownCategory) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		slog.Error("Collect failed", "outlet", name, "category", category, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to collect outlet", "details": err.Error()})
		return
	}

	failures := make([]gin.H, 0, len(report.Failures))
	for _, f := range report.Failures {
		failures = append(failures, gin.H{
			"category": f.Endpoint.Category,
			"url":      f.Endpoint.URL,
			"error":    f.Err.Error(),
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"outlet":         report.Outlet,
		"category":       report.Category,
		"endpoints":      report.Endpoints,
		"fetched":        report.Fetched,
		"duplicates":     report.Duplicates,
		"already_stored": report.AlreadyStored,
		"stored":         report.Stored,
		"failures":       failures,
	})
}

func (h *Handler) APIAnalyze(c *gin.Context) {
	limit := h.analysisLimit
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		limit = parsed
	}

	report, err := h.analyzer.Run(c.Request.Context(), limit)
	switch {
	case errors.Is(err, analysis.ErrTooSoon):
		c.JSON(http.StatusTooManyRequests, gin.H{"error": err.Error()})
		return
	case errors.Is(err, analysis.ErrRunInProgress):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	case err != nil:
		slog.Error("Analysis failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Analysis failed", "details": err.Error()})
		return
	}

	results := make([]gin.H, 0, len(report.Results))
	for _, r := range report.Results {
		results = append(results, gin.H{
			"content_hash": r.ContentHash,
			"topic":        r.Topic,
			"individuals":  r.Individuals,
			"sentiment":    r.Sentiment,
		})
	}

	failures := make([]failureResponse, 0, len(report.Failures))
	for _, f := range report.Failures {
		failures = append(failures, failureResponse{
			ContentHash: f.ContentHash,
			Title:       f.Title,
			Kind:        string(f.Kind),
			Error:       f.Err.Error(),
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"run_id":     report.RunID,
		"candidates": report.Candidates,
		"stored":     report.Stored,
		"duration":   report.Duration.String(),
		"results":    results,
		"failures":   failures,
	})
}

func (h *Handler) APIGetRecord(c *gin.Context) {
	hash := c.Param("hash")

	record, err := h.records.GetRecord(hash)
	if err != nil {
		slog.Error("Database error", "operation", "get_record", "hash", hash, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}
	if record == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Record not found"})
		return
	}

	response := gin.H{"record": newRecordResponse(*record), "classification": nil}

	classified, err := h.classifications.FindClassified(database.Filter{Hash: hash, Limit: 1})
	if err != nil && !errors.Is(err, database.ErrRelationMissing) {
		slog.Error("Database error", "operation", "find_classified", "hash", hash, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}
	if len(classified) > 0 {
		response["classification"] = newClassificationResponse(classified[0].Classification)
	}

	c.JSON(http.StatusOK, response)
}

func (h *Handler) APIListClassified(c *gin.Context) {
	limit := defaultListLimit
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		limit = min(parsed, maxListLimit)
	}

	filter := database.Filter{
		Topic:      analysis.NormalizeLabel(c.Query("topic")),
		Individual: analysis.NormalizeLabel(c.Query("individual")),
		Limit:      limit,
	}

	items, err := h.classifications.FindClassified(filter)
	if err != nil && !errors.Is(err, database.ErrRelationMissing) {
		slog.Error("Database error", "operation", "find_classified", "topic", filter.Topic, "individual", filter.Individual, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	response := make([]classifiedResponse, 0, len(items))
	for _, item := range items {
		response = append(response, classifiedResponse{
			recordResponse: newRecordResponse(item.Record),
			Classification: newClassificationResponse(item.Classification),
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"items": response,
		"total": len(response),
	})
}
