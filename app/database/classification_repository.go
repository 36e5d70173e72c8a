package database

import (
	"fmt"
	"strings"
	"time"

	"github.com/lysyi3m/rss-lens/app/feed"
)

// ClassificationStore persists classification results in
// classified_records. The relation is append only.
type ClassificationStore struct {
	db *DB
}

func NewClassificationStore(db *DB) *ClassificationStore {
	return &ClassificationStore{db: db}
}

// ClassifiedHashes returns the hashes that already have a classification.
// ErrRelationMissing is returned when the relation does not exist yet.
func (r *ClassificationStore) ClassifiedHashes() (feed.HashSet, error) {
	rows, err := r.db.Query("SELECT DISTINCT content_hash FROM classified_records")
	if err != nil {
		if isMissingRelation(err) {
			return nil, fmt.Errorf("%w: classified_records", ErrRelationMissing)
		}
		return nil, fmt.Errorf("failed to get classified hashes: %w", err)
	}
	defer rows.Close()

	return scanHashes(rows)
}

// AppendResults inserts all results in one transaction. Nothing is written
// if any insert fails.
func (r *ClassificationStore) AppendResults(results []Classification) (int, error) {
	if len(results) == 0 {
		return 0, nil
	}

	tx, err := r.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO classified_records (content_hash, topic, individuals, sentiment, classified_at)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC()
	for _, result := range results {
		classifiedAt := result.ClassifiedAt
		if classifiedAt.IsZero() {
			classifiedAt = now
		}

		_, err := stmt.Exec(result.ContentHash, result.Topic, result.Individuals, result.Sentiment,
			classifiedAt.UTC().Format(time.RFC3339Nano))
		if err != nil {
			return 0, fmt.Errorf("failed to insert classification for %s: %w", result.ContentHash, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit classifications: %w", err)
	}

	return len(results), nil
}

// FindClassified returns classifications joined with their raw records,
// newest first.
func (r *ClassificationStore) FindClassified(filter Filter) ([]ClassifiedRecord, error) {
	var (
		conditions []string
		args       []any
	)

	if filter.Topic != "" {
		conditions = append(conditions, "c.topic = ?")
		args = append(args, filter.Topic)
	}
	if filter.Individual != "" {
		conditions = append(conditions, "c.individuals = ?")
		args = append(args, filter.Individual)
	}
	if filter.Hash != "" {
		conditions = append(conditions, "c.content_hash = ?")
		args = append(args, filter.Hash)
	}

	query := `
		SELECT r.outlet, r.category, r.title, r.link, r.summary, r.published, r.updated, r.tags,
		       r.media_content, r.content, r.authors, r.native_id, r.content_hash,
		       c.id, c.topic, c.individuals, c.sentiment, c.classified_at
		FROM classified_records c
		JOIN raw_records r ON r.content_hash = c.content_hash`

	if len(conditions) > 0 {
		query += "\n\t\tWHERE " + strings.Join(conditions, " AND ")
	}
	query += "\n\t\tORDER BY c.id DESC"
	if filter.Limit > 0 {
		query += "\n\t\tLIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		if isMissingRelation(err) {
			return nil, fmt.Errorf("%w: classified_records", ErrRelationMissing)
		}
		return nil, fmt.Errorf("failed to find classified records: %w", err)
	}
	defer rows.Close()

	var found []ClassifiedRecord
	for rows.Next() {
		var (
			item         ClassifiedRecord
			classifiedAt string
		)

		record, err := scanRecord(rows, &item.ID, &item.Topic, &item.Individuals, &item.Sentiment, &classifiedAt)
		if err != nil {
			return nil, err
		}

		item.Record = record
		item.ContentHash = record.ContentHash
		item.ClassifiedAt, err = time.Parse(time.RFC3339Nano, classifiedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to parse classified_at '%s': %w", classifiedAt, err)
		}

		found = append(found, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating classified rows: %w", err)
	}

	return found, nil
}

func (r *ClassificationStore) ClassifiedCount() (int, error) {
	var count int
	err := r.db.QueryRow("SELECT COUNT(*) FROM classified_records").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to get classified count: %w", err)
	}
	return count, nil
}

// TopicCounts returns the most frequent topics first.
func (r *ClassificationStore) TopicCounts(limit int) ([]TopicCount, error) {
	if limit <= 0 {
		limit = -1
	}

	rows, err := r.db.Query(`
		SELECT topic, COUNT(*) AS total
		FROM classified_records
		GROUP BY topic
		ORDER BY total DESC, topic ASC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get topic counts: %w", err)
	}
	defer rows.Close()

	var counts []TopicCount
	for rows.Next() {
		var tc TopicCount
		if err := rows.Scan(&tc.Topic, &tc.Count); err != nil {
			return nil, fmt.Errorf("failed to scan topic count row: %w", err)
		}
		counts = append(counts, tc)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating topic count rows: %w", err)
	}

	return counts, nil
}

func isMissingRelation(err error) bool {
	return strings.Contains(err.Error(), "no such table")
}
