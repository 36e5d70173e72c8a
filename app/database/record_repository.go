package database

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/lysyi3m/rss-lens/app/feed"
)

const recordColumns = `outlet, category, title, link, summary, published, updated, tags,
	media_content, content, authors, native_id, content_hash`

// RecordStore persists canonical records in raw_records. Rows are never
// updated once written.
type RecordStore struct {
	db *DB
}

func NewRecordStore(db *DB) *RecordStore {
	return &RecordStore{db: db}
}

// AppendRecords inserts records in order within one transaction and returns
// the number of new rows. A record whose hash is already stored is skipped.
func (r *RecordStore) AppendRecords(records []feed.Record) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}

	tx, err := r.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var seq int64
	if err := tx.QueryRow("SELECT COALESCE(MAX(seq), 0) FROM raw_records").Scan(&seq); err != nil {
		return 0, fmt.Errorf("failed to read record sequence: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT OR IGNORE INTO raw_records (` + recordColumns + `, seq, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	createdAt := time.Now().UTC().Format(time.RFC3339Nano)
	inserted := 0

	for _, record := range records {
		hash := record.ContentHash
		if hash == "" {
			hash = feed.ContentHash(record.Title)
		}

		tags, err := encodeTags(record.Tags)
		if err != nil {
			return 0, err
		}

		seq++
		res, err := stmt.Exec(
			record.Outlet, record.Category,
			toNull(record.Title), toNull(record.Link), toNull(record.Summary),
			toNull(record.Published), toNull(record.Updated), toNull(tags),
			toNull(record.MediaContent), toNull(record.Content), toNull(record.Authors),
			toNull(record.ID), hash,
			seq, createdAt,
		)
		if err != nil {
			return 0, fmt.Errorf("failed to insert record %s: %w", hash, err)
		}

		affected, err := res.RowsAffected()
		if err != nil {
			return 0, fmt.Errorf("failed to read affected rows: %w", err)
		}
		if affected == 0 {
			seq--
			continue
		}
		inserted++
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit records: %w", err)
	}

	return inserted, nil
}

func (r *RecordStore) RecordHashes() (feed.HashSet, error) {
	rows, err := r.db.Query("SELECT content_hash FROM raw_records")
	if err != nil {
		return nil, fmt.Errorf("failed to get record hashes: %w", err)
	}
	defer rows.Close()

	return scanHashes(rows)
}

// AllRecords returns every stored record in insertion order.
func (r *RecordStore) AllRecords() ([]feed.Record, error) {
	rows, err := r.db.Query("SELECT " + recordColumns + " FROM raw_records ORDER BY seq")
	if err != nil {
		return nil, fmt.Errorf("failed to get records: %w", err)
	}
	defer rows.Close()

	var records []feed.Record
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating record rows: %w", err)
	}

	return records, nil
}

// GetRecord returns nil when no record has the hash.
func (r *RecordStore) GetRecord(contentHash string) (*feed.Record, error) {
	row := r.db.QueryRow("SELECT "+recordColumns+" FROM raw_records WHERE content_hash = ?", contentHash)

	record, err := scanRecord(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &record, nil
}

func (r *RecordStore) RecordCount() (int, error) {
	var count int
	err := r.db.QueryRow("SELECT COUNT(*) FROM raw_records").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to get record count: %w", err)
	}
	return count, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(s scanner, extra ...any) (feed.Record, error) {
	var (
		record                                   feed.Record
		title, link, summary, published, updated sql.NullString
		tags, mediaContent, content, authors, id sql.NullString
	)

	dest := []any{
		&record.Outlet, &record.Category,
		&title, &link, &summary, &published, &updated, &tags,
		&mediaContent, &content, &authors, &id, &record.ContentHash,
	}
	dest = append(dest, extra...)

	if err := s.Scan(dest...); err != nil {
		if err == sql.ErrNoRows {
			return record, err
		}
		return record, fmt.Errorf("failed to scan record row: %w", err)
	}

	record.Title = nullable(title)
	record.Link = nullable(link)
	record.Summary = nullable(summary)
	record.Published = nullable(published)
	record.Updated = nullable(updated)
	record.MediaContent = nullable(mediaContent)
	record.Content = nullable(content)
	record.Authors = nullable(authors)
	record.ID = nullable(id)

	decoded, err := decodeTags(tags)
	if err != nil {
		return record, err
	}
	record.Tags = decoded

	return record, nil
}

func scanHashes(rows *sql.Rows) (feed.HashSet, error) {
	hashes := feed.HashSet{}
	for rows.Next() {
		var hash string
		if err := rows.Scan(&hash); err != nil {
			return nil, fmt.Errorf("failed to scan hash row: %w", err)
		}
		hashes.Add(hash)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating hash rows: %w", err)
	}

	return hashes, nil
}

func toNull(value *string) sql.NullString {
	if value == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *value, Valid: true}
}

func nullable(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	value := ns.String
	return &value
}

// encodeTags keeps nil (unmapped) distinct from an empty list.
func encodeTags(tags []*string) (*string, error) {
	if tags == nil {
		return nil, nil
	}

	data, err := json.Marshal(tags)
	if err != nil {
		return nil, fmt.Errorf("failed to encode tags: %w", err)
	}

	encoded := string(data)
	return &encoded, nil
}

func decodeTags(ns sql.NullString) ([]*string, error) {
	if !ns.Valid {
		return nil, nil
	}

	tags := []*string{}
	if err := json.Unmarshal([]byte(ns.String), &tags); err != nil {
		return nil, fmt.Errorf("failed to decode tags: %w", err)
	}
	return tags, nil
}
