package database

import (
	"github.com/lysyi3m/rss-lens/app/feed"
)

type RecordRepository interface {
	AppendRecords(records []feed.Record) (int, error)
	RecordHashes() (feed.HashSet, error)
	AllRecords() ([]feed.Record, error)
	GetRecord(contentHash string) (*feed.Record, error)
	RecordCount() (int, error)
}

type ClassificationRepository interface {
	ClassifiedHashes() (feed.HashSet, error)
	AppendResults(results []Classification) (int, error)
	FindClassified(filter Filter) ([]ClassifiedRecord, error)
	ClassifiedCount() (int, error)
	TopicCounts(limit int) ([]TopicCount, error)
}

var (
	_ RecordRepository         = (*RecordStore)(nil)
	_ ClassificationRepository = (*ClassificationStore)(nil)
	_ feed.RecordStore         = (*RecordStore)(nil)
)
