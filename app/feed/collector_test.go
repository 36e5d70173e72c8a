package feed

import (
	"context"
	"errors"
	"testing"
	"time"
)

type memoryStore struct {
	records []Record
	hashErr error
}

func (m *memoryStore) RecordHashes() (HashSet, error) {
	if m.hashErr != nil {
		return nil, m.hashErr
	}
	hashes := make(HashSet, len(m.records))
	for _, record := range m.records {
		hashes.Add(record.ContentHash)
	}
	return hashes, nil
}

func (m *memoryStore) AppendRecords(records []Record) (int, error) {
	m.records = append(m.records, records...)
	return len(records), nil
}

func TestCollectorCollect(t *testing.T) {
	fetcher := &mockFetcher{
		entries: map[string][]Entry{
			"https://example.com/politics": {{"title": "A"}, {"title": "B"}},
			"https://example.com/world":    {{"title": "A"}, {"title": "C"}},
			"https://example.com/europe":   {{"title": "D"}},
		},
	}
	registry := testRegistry(t)
	store := &memoryStore{}
	collector := NewCollector(registry, NewNormalizer(registry, fetcher, 2, time.Second), store)

	report, err := collector.Collect(context.Background(), "Guardian", "")
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if report.Fetched != 5 {
		t.Errorf("Expected 5 fetched, got %d", report.Fetched)
	}
	if report.Duplicates != 1 {
		t.Errorf("Expected 1 duplicate, got %d", report.Duplicates)
	}
	if report.Stored != 4 {
		t.Errorf("Expected 4 stored, got %d", report.Stored)
	}
	if store.records[0].Category != "politics" {
		t.Errorf("Expected first occurrence of A from politics, got %s", store.records[0].Category)
	}

	again, err := collector.Collect(context.Background(), "Guardian", "")
	if err != nil {
		t.Fatal(err)
	}
	if again.Stored != 0 || again.AlreadyStored != 4 {
		t.Errorf("Expected nothing new on second collect, got stored=%d already=%d", again.Stored, again.AlreadyStored)
	}
	if len(store.records) != 4 {
		t.Errorf("Expected store to keep 4 records, got %d", len(store.records))
	}
}

func TestCollectorStoreError(t *testing.T) {
	fetcher := &mockFetcher{
		entries: map[string][]Entry{"https://example.com/politics": {{"title": "A"}}},
	}
	registry := testRegistry(t)
	store := &memoryStore{hashErr: errors.New("disk I/O error")}
	collector := NewCollector(registry, NewNormalizer(registry, fetcher, 1, time.Second), store)

	if _, err := collector.Collect(context.Background(), "Guardian", "politics"); err == nil {
		t.Error("Expected store error to be returned")
	}

	reports, err := collector.CollectAll(context.Background())
	if err == nil {
		t.Error("Expected joined error from CollectAll")
	}
	if len(reports) != 0 {
		t.Errorf("Expected no successful reports, got %d", len(reports))
	}
}
