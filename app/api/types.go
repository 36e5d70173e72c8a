package api

import (
	"context"
	"time"

	"github.com/lysyi3m/rss-lens/app/analysis"
	"github.com/lysyi3m/rss-lens/app/database"
	"github.com/lysyi3m/rss-lens/app/feed"
	"github.com/lysyi3m/rss-lens/app/outlet"
)

type GeneratorInterface interface {
	Run(topic string, items []database.ClassifiedRecord) (string, error)
}

var _ GeneratorInterface = (*Generator)(nil)

type Pinger interface {
	Ping(ctx context.Context) error
}

type Collector interface {
	Collect(ctx context.Context, outletName, category string) (*feed.CollectReport, error)
}

type Analyzer interface {
	Run(ctx context.Context, limit int) (*analysis.Report, error)
	LastRun() time.Time
}

var (
	_ Collector = (*feed.Collector)(nil)
	_ Analyzer  = (*analysis.RunGuard)(nil)
)

type Handler struct {
	db              Pinger
	records         database.RecordRepository
	classifications database.ClassificationRepository
	registry        *outlet.Registry
	collector       Collector
	analyzer        Analyzer
	generator       GeneratorInterface
	analysisLimit   int
	version         string
}

type recordResponse struct {
	ContentHash  string    `json:"content_hash"`
	Outlet       string    `json:"outlet"`
	Category     string    `json:"category"`
	Title        *string   `json:"title"`
	Link         *string   `json:"link"`
	Summary      *string   `json:"summary"`
	Published    *string   `json:"published"`
	Updated      *string   `json:"updated"`
	Tags         []*string `json:"tags"`
	MediaContent *string   `json:"media_content"`
	Content      *string   `json:"content"`
	Authors      *string   `json:"authors"`
	ID           *string   `json:"id"`
}

type classificationResponse struct {
	Topic        string    `json:"topic"`
	Individuals  string    `json:"individuals"`
	Sentiment    string    `json:"sentiment"`
	ClassifiedAt time.Time `json:"classified_at"`
}

type classifiedResponse struct {
	recordResponse
	Classification classificationResponse `json:"classification"`
}

type failureResponse struct {
	ContentHash string `json:"content_hash"`
	Title       string `json:"title"`
	Kind        string `json:"kind"`
	Error       string `json:"error"`
}

func newRecordResponse(r feed.Record) recordResponse {
	return recordResponse{
		ContentHash:  r.ContentHash,
		Outlet:       r.Outlet,
		Category:     r.Category,
		Title:        r.Title,
		Link:         r.Link,
		Summary:      r.Summary,
		Published:    r.Published,
		Updated:      r.Updated,
		Tags:         r.Tags,
		MediaContent: r.MediaContent,
		Content:      r.Content,
		Authors:      r.Authors,
		ID:           r.ID,
	}
}

func newClassificationResponse(c database.Classification) classificationResponse {
	return classificationResponse{
		Topic:        c.Topic,
		Individuals:  c.Individuals,
		Sentiment:    c.Sentiment,
		ClassifiedAt: c.ClassifiedAt,
	}
}
