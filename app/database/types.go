package database

import (
	"errors"
	"time"

	"github.com/lysyi3m/rss-lens/app/feed"
)

// ErrRelationMissing is returned when the classified relation has not been
// created yet, meaning no record was ever classified.
var ErrRelationMissing = errors.New("relation does not exist")

// Classification is one stored classification row.
type Classification struct {
	ID           int64
	ContentHash  string
	Topic        string
	Individuals  string
	Sentiment    string
	ClassifiedAt time.Time
}

// ClassifiedRecord joins a classification with the raw record it describes.
type ClassifiedRecord struct {
	Classification
	Record feed.Record
}

// Filter narrows FindClassified. Empty fields match everything and a limit
// of zero or less is unbounded.
type Filter struct {
	Topic      string
	Individual string
	Hash       string
	Limit      int
}

type TopicCount struct {
	Topic string
	Count int
}
