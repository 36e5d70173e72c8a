package database

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/lysyi3m/rss-lens/app/feed"
)

func strPtr(s string) *string {
	return &s
}

func openTestDB(t *testing.T, migrate bool) *DB {
	t.Helper()

	db, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if migrate {
		version, dirty, err := RunMigrations(db)
		if err != nil {
			t.Fatalf("Failed to run migrations: %v", err)
		}
		if dirty || version != 2 {
			t.Fatalf("Expected clean migration version 2, got %d (dirty=%t)", version, dirty)
		}
	}

	return db
}

func record(title string) feed.Record {
	r := feed.Record{
		Outlet:   "CNN",
		Category: "politics",
		Title:    strPtr(title),
		Link:     strPtr("https://example.com/" + title),
	}
	r.ContentHash = feed.ContentHash(r.Title)
	return r
}

func TestOpenRequiresPath(t *testing.T) {
	if _, err := Open(""); err == nil {
		t.Error("Expected error for empty database path")
	}
}

func TestPing(t *testing.T) {
	db := openTestDB(t, false)
	if err := db.Ping(context.Background()); err != nil {
		t.Errorf("Expected ping to succeed, got: %v", err)
	}
}

func TestRunMigrationsIdempotent(t *testing.T) {
	db := openTestDB(t, true)

	version, _, err := RunMigrations(db)
	if err != nil {
		t.Fatalf("Expected second migration run to succeed, got: %v", err)
	}
	if version != 2 {
		t.Errorf("Expected version 2, got %d", version)
	}
}

func TestAppendRecordsPreservesFields(t *testing.T) {
	db := openTestDB(t, true)
	store := NewRecordStore(db)

	full := record("Test Title 1")
	full.Summary = strPtr("Summary")
	full.Published = strPtr("Mon, 03 Jul 2023 10:00:00 GMT")
	full.Tags = []*string{strPtr("politics"), nil}
	full.ID = strPtr("guid-1")

	bare := feed.Record{Outlet: "Fox News", Category: "politics"}
	bare.ContentHash = feed.ContentHash(nil)

	empty := record("Test Title 2")
	empty.Tags = []*string{}

	inserted, err := store.AppendRecords([]feed.Record{full, bare, empty})
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if inserted != 3 {
		t.Errorf("Expected 3 inserted, got %d", inserted)
	}

	got, err := store.GetRecord(full.ContentHash)
	if err != nil {
		t.Fatal(err)
	}
	if got == nil {
		t.Fatal("Expected record to be found")
	}
	if *got.Title != "Test Title 1" || *got.Summary != "Summary" || *got.ID != "guid-1" {
		t.Errorf("Expected fields to round trip, got %+v", got)
	}
	if got.Updated != nil || got.Content != nil {
		t.Error("Expected null fields to stay null")
	}
	if len(got.Tags) != 2 || *got.Tags[0] != "politics" || got.Tags[1] != nil {
		t.Errorf("Expected tags [politics <nil>], got %v", got.Tags)
	}

	gotBare, _ := store.GetRecord(bare.ContentHash)
	if gotBare == nil || gotBare.Title != nil || gotBare.Tags != nil {
		t.Errorf("Expected untitled record with nil tags, got %+v", gotBare)
	}

	gotEmpty, _ := store.GetRecord(empty.ContentHash)
	if gotEmpty == nil || gotEmpty.Tags == nil || len(gotEmpty.Tags) != 0 {
		t.Errorf("Expected empty non-nil tags, got %+v", gotEmpty)
	}

	missing, err := store.GetRecord("unknown")
	if err != nil || missing != nil {
		t.Errorf("Expected nil record without error, got %v / %v", missing, err)
	}
}

func TestAppendRecordsSkipsStoredHashes(t *testing.T) {
	db := openTestDB(t, true)
	store := NewRecordStore(db)

	if _, err := store.AppendRecords([]feed.Record{record("A"), record("B")}); err != nil {
		t.Fatal(err)
	}

	inserted, err := store.AppendRecords([]feed.Record{record("B"), record("C")})
	if err != nil {
		t.Fatal(err)
	}
	if inserted != 1 {
		t.Errorf("Expected 1 inserted, got %d", inserted)
	}

	all, err := store.AllRecords()
	if err != nil {
		t.Fatal(err)
	}

	expected := []string{"A", "B", "C"}
	if len(all) != len(expected) {
		t.Fatalf("Expected %d records, got %d", len(expected), len(all))
	}
	for i, title := range expected {
		if *all[i].Title != title {
			t.Errorf("Expected record %d to be %s, got %s", i, title, *all[i].Title)
		}
	}

	hashes, err := store.RecordHashes()
	if err != nil {
		t.Fatal(err)
	}
	if len(hashes) != 3 || !hashes.Has(feed.ContentHash(strPtr("C"))) {
		t.Errorf("Expected 3 hashes including C, got %v", hashes)
	}

	count, _ := store.RecordCount()
	if count != 3 {
		t.Errorf("Expected count 3, got %d", count)
	}
}

func TestClassifiedHashesRelationMissing(t *testing.T) {
	db := openTestDB(t, false)
	store := NewClassificationStore(db)

	_, err := store.ClassifiedHashes()
	if !errors.Is(err, ErrRelationMissing) {
		t.Errorf("Expected ErrRelationMissing, got: %v", err)
	}
}

func TestAppendResultsAndFind(t *testing.T) {
	db := openTestDB(t, true)
	records := NewRecordStore(db)
	store := NewClassificationStore(db)

	a, b := record("Test Title 1"), record("Test Title 2")
	if _, err := records.AppendRecords([]feed.Record{a, b}); err != nil {
		t.Fatal(err)
	}

	empty, err := store.ClassifiedHashes()
	if err != nil {
		t.Fatalf("Expected no error on empty relation, got: %v", err)
	}
	if len(empty) != 0 {
		t.Errorf("Expected no classified hashes, got %d", len(empty))
	}

	n, err := store.AppendResults([]Classification{
		{ContentHash: a.ContentHash, Topic: "politics", Individuals: "joe biden", Sentiment: "neutral"},
		{ContentHash: b.ContentHash, Topic: "economy", Individuals: "none", Sentiment: "negative"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Errorf("Expected 2 appended, got %d", n)
	}

	hashes, err := store.ClassifiedHashes()
	if err != nil {
		t.Fatal(err)
	}
	if !hashes.Has(a.ContentHash) || !hashes.Has(b.ContentHash) {
		t.Errorf("Expected both hashes classified, got %v", hashes)
	}

	byTopic, err := store.FindClassified(Filter{Topic: "politics"})
	if err != nil {
		t.Fatal(err)
	}
	if len(byTopic) != 1 || byTopic[0].Individuals != "joe biden" {
		t.Fatalf("Expected one politics classification, got %+v", byTopic)
	}
	if byTopic[0].Record.Title == nil || *byTopic[0].Record.Title != "Test Title 1" {
		t.Errorf("Expected joined record title, got %v", byTopic[0].Record.Title)
	}
	if byTopic[0].ClassifiedAt.IsZero() {
		t.Error("Expected classified_at to be set")
	}

	byIndividual, _ := store.FindClassified(Filter{Individual: "none"})
	if len(byIndividual) != 1 || byIndividual[0].ContentHash != b.ContentHash {
		t.Errorf("Expected lookup by individual to find second record, got %+v", byIndividual)
	}

	byHash, _ := store.FindClassified(Filter{Hash: a.ContentHash})
	if len(byHash) != 1 || byHash[0].Topic != "politics" {
		t.Errorf("Expected lookup by hash, got %+v", byHash)
	}

	limited, _ := store.FindClassified(Filter{Limit: 1})
	if len(limited) != 1 || limited[0].ContentHash != b.ContentHash {
		t.Errorf("Expected newest classification with limit 1, got %+v", limited)
	}

	count, _ := store.ClassifiedCount()
	if count != 2 {
		t.Errorf("Expected 2 classifications, got %d", count)
	}

	topics, err := store.TopicCounts(0)
	if err != nil {
		t.Fatal(err)
	}
	if len(topics) != 2 || topics[0].Topic != "economy" || topics[0].Count != 1 {
		t.Errorf("Expected topics sorted by count then name, got %+v", topics)
	}
}

func TestAppendResultsIsAppendOnly(t *testing.T) {
	db := openTestDB(t, true)
	store := NewClassificationStore(db)

	result := Classification{ContentHash: "abc", Topic: "politics", Individuals: "none", Sentiment: "neutral"}
	if _, err := store.AppendResults([]Classification{result}); err != nil {
		t.Fatal(err)
	}
	if _, err := store.AppendResults([]Classification{result}); err != nil {
		t.Fatal(err)
	}

	count, _ := store.ClassifiedCount()
	if count != 2 {
		t.Errorf("Expected both rows to be kept, got %d", count)
	}
}
