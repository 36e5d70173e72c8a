package feed

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/lysyi3m/rss-lens/app/outlet"
)

func fullMapping() outlet.Mapping {
	return outlet.Mapping{
		outlet.FieldTitle:        strPtr("title"),
		outlet.FieldLink:         strPtr("link"),
		outlet.FieldSummary:      strPtr("summary"),
		outlet.FieldPublished:    strPtr("published"),
		outlet.FieldUpdated:      nil,
		outlet.FieldTags:         strPtr("tags"),
		outlet.FieldMediaContent: strPtr("media_content"),
		outlet.FieldContent:      nil,
		outlet.FieldAuthors:      strPtr("authors"),
		outlet.FieldID:           strPtr("id"),
	}
}

func TestNormalizeAppliesMapping(t *testing.T) {
	entries := []Entry{
		{
			"title":     "Test Title 1",
			"link":      "https://example.com/1",
			"summary":   "Summary 1",
			"published": "Mon, 03 Jul 2023 10:00:00 GMT",
			"updated":   "Mon, 03 Jul 2023 11:00:00 GMT",
			"content":   "Body",
			"tags":      []Tag{{"term": "politics"}, {"term": "senate"}},
			"authors":   "Jane Doe",
			"id":        "guid-1",
		},
	}

	records := Normalize(entries, fullMapping())
	if len(records) != 1 {
		t.Fatalf("Expected 1 record, got %d", len(records))
	}

	r := records[0]
	if r.Title == nil || *r.Title != "Test Title 1" {
		t.Errorf("Expected title 'Test Title 1', got %v", r.Title)
	}
	if r.Published == nil || *r.Published != "Mon, 03 Jul 2023 10:00:00 GMT" {
		t.Errorf("Expected raw published text, got %v", r.Published)
	}
	if r.Updated != nil {
		t.Errorf("Expected updated to be null when mapped to null, got %s", *r.Updated)
	}
	if r.Content != nil {
		t.Errorf("Expected content to be null when mapped to null, got %s", *r.Content)
	}
	if r.MediaContent != nil {
		t.Errorf("Expected media content to be null when absent from entry, got %s", *r.MediaContent)
	}
	if r.ID == nil || *r.ID != "guid-1" {
		t.Errorf("Expected id 'guid-1', got %v", r.ID)
	}
	if len(r.Tags) != 2 || *r.Tags[0] != "politics" || *r.Tags[1] != "senate" {
		t.Errorf("Expected tags [politics senate], got %v", r.Tags)
	}
	if r.ContentHash != "fec5676dee10bade1e87a54e8f996fb151a32bcb246cb001b53f7e8943e3aab5" {
		t.Errorf("Expected content hash of title, got %s", r.ContentHash)
	}
}

func TestNormalizeEmptyMapping(t *testing.T) {
	records := Normalize([]Entry{{"title": "A", "tags": []Tag{{"term": "x"}}}}, outlet.Mapping{})
	if len(records) != 1 {
		t.Fatalf("Expected 1 record, got %d", len(records))
	}

	r := records[0]
	if r.Title != nil || r.Link != nil || r.Summary != nil || r.ID != nil {
		t.Error("Expected all fields to be null with an empty mapping")
	}
	if r.Tags != nil {
		t.Errorf("Expected nil tags when unmapped, got %v", r.Tags)
	}
	if r.ContentHash != ContentHash(nil) {
		t.Errorf("Expected hash of null title, got %s", r.ContentHash)
	}
}

func TestNormalizeTags(t *testing.T) {
	m := outlet.Mapping{outlet.FieldTags: strPtr("tags")}

	tests := []struct {
		name     string
		entry    Entry
		expected []*string
	}{
		{"missing list", Entry{}, []*string{}},
		{"missing term", Entry{"tags": []Tag{{"term": "a"}, {"label": "b"}}}, []*string{strPtr("a"), nil}},
		{"generic list", Entry{"tags": []any{map[string]any{"term": "a"}, map[string]any{"scheme": "x"}}}, []*string{strPtr("a"), nil}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records := Normalize([]Entry{tt.entry}, m)
			tags := records[0].Tags

			if tags == nil {
				t.Fatal("Expected non-nil tags when mapped")
			}
			if len(tags) != len(tt.expected) {
				t.Fatalf("Expected %d tags, got %d", len(tt.expected), len(tags))
			}
			for i := range tags {
				switch {
				case tt.expected[i] == nil && tags[i] != nil:
					t.Errorf("Expected tag %d to be null, got %s", i, *tags[i])
				case tt.expected[i] != nil && (tags[i] == nil || *tags[i] != *tt.expected[i]):
					t.Errorf("Expected tag %d to be %s, got %v", i, *tt.expected[i], tags[i])
				}
			}
		})
	}
}

func TestNormalizeNonStringValue(t *testing.T) {
	records := Normalize([]Entry{{"title": 42}}, outlet.Mapping{outlet.FieldTitle: strPtr("title")})
	if records[0].Title != nil {
		t.Errorf("Expected non-string value to normalize to null, got %s", *records[0].Title)
	}
}

type mockFetcher struct {
	mu       sync.Mutex
	entries  map[string][]Entry
	failures map[string]error
	delays   map[string]time.Duration
	calls    []string
}

func (m *mockFetcher) Fetch(ctx context.Context, url string) ([]Entry, error) {
	m.mu.Lock()
	m.calls = append(m.calls, url)
	delay := m.delays[url]
	m.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	if err, ok := m.failures[url]; ok {
		return nil, err
	}
	return m.entries[url], nil
}

func testRegistry(t *testing.T) *outlet.Registry {
	t.Helper()

	registry, err := outlet.New(outlet.Outlet{
		Name: "Guardian",
		Links: outlet.Categories{
			{Name: "politics", URLs: []string{"https://example.com/politics"}},
			{Name: "world", URLs: []string{"https://example.com/world", "https://example.com/europe"}},
		},
		Mapping: outlet.Mapping{
			outlet.FieldTitle: strPtr("title"),
			outlet.FieldLink:  strPtr("link"),
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	return registry
}

func TestNormalizerNormalize(t *testing.T) {
	fetcher := &mockFetcher{
		entries: map[string][]Entry{
			"https://example.com/politics": {{"title": "P1"}, {"title": "P2"}},
			"https://example.com/world":    {{"title": "W1"}},
			"https://example.com/europe":   {{"title": "E1"}},
		},
		delays: map[string]time.Duration{
			"https://example.com/politics": 30 * time.Millisecond,
		},
	}

	normalizer := NewNormalizer(testRegistry(t), fetcher, 3, time.Second)
	batch, err := normalizer.Normalize(context.Background(), "Guardian", "")
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if batch.Endpoints != 3 {
		t.Errorf("Expected 3 endpoints, got %d", batch.Endpoints)
	}

	expected := []string{"P1", "P2", "W1", "E1"}
	if len(batch.Records) != len(expected) {
		t.Fatalf("Expected %d records, got %d", len(expected), len(batch.Records))
	}
	for i, title := range expected {
		if *batch.Records[i].Title != title {
			t.Errorf("Expected record %d to be '%s', got '%s'", i, title, *batch.Records[i].Title)
		}
	}

	if batch.Records[0].Category != "politics" || batch.Records[2].Category != "world" {
		t.Errorf("Expected category provenance, got '%s' and '%s'", batch.Records[0].Category, batch.Records[2].Category)
	}
	if batch.Records[0].Outlet != "Guardian" {
		t.Errorf("Expected outlet provenance 'Guardian', got '%s'", batch.Records[0].Outlet)
	}
}

func TestNormalizerSingleCategory(t *testing.T) {
	fetcher := &mockFetcher{
		entries: map[string][]Entry{
			"https://example.com/politics": {{"title": "P1"}},
		},
	}

	normalizer := NewNormalizer(testRegistry(t), fetcher, 2, time.Second)
	batch, err := normalizer.Normalize(context.Background(), "Guardian", "politics")
	if err != nil {
		t.Fatal(err)
	}

	if len(fetcher.calls) != 1 || fetcher.calls[0] != "https://example.com/politics" {
		t.Errorf("Expected only the politics endpoint to be fetched, got %v", fetcher.calls)
	}
	if len(batch.Records) != 1 {
		t.Errorf("Expected 1 record, got %d", len(batch.Records))
	}
}

func TestNormalizerEndpointFailureIsolated(t *testing.T) {
	fetcher := &mockFetcher{
		entries: map[string][]Entry{
			"https://example.com/politics": {{"title": "P1"}},
			"https://example.com/europe":   {{"title": "E1"}},
		},
		failures: map[string]error{
			"https://example.com/world": fmt.Errorf("HTTP error: 503"),
		},
	}

	normalizer := NewNormalizer(testRegistry(t), fetcher, 3, time.Second)
	batch, err := normalizer.Normalize(context.Background(), "Guardian", "")
	if err != nil {
		t.Fatalf("Expected endpoint failure not to fail the batch, got: %v", err)
	}

	if len(batch.Records) != 2 {
		t.Errorf("Expected 2 records from healthy endpoints, got %d", len(batch.Records))
	}
	if len(batch.Failures) != 1 {
		t.Fatalf("Expected 1 endpoint failure, got %d", len(batch.Failures))
	}
	if batch.Failures[0].Endpoint.URL != "https://example.com/world" || batch.Failures[0].Endpoint.Category != "world" {
		t.Errorf("Expected failure for world endpoint, got %+v", batch.Failures[0].Endpoint)
	}
}

func TestNormalizerTimeoutAbandonsEndpoint(t *testing.T) {
	fetcher := &mockFetcher{
		entries: map[string][]Entry{
			"https://example.com/politics": {{"title": "P1"}},
			"https://example.com/world":    {{"title": "W1"}},
			"https://example.com/europe":   {{"title": "E1"}},
		},
		delays: map[string]time.Duration{
			"https://example.com/world": time.Second,
		},
	}

	normalizer := NewNormalizer(testRegistry(t), fetcher, 3, 50*time.Millisecond)
	batch, err := normalizer.Normalize(context.Background(), "Guardian", "")
	if err != nil {
		t.Fatal(err)
	}

	if len(batch.Failures) != 1 || !errors.Is(batch.Failures[0], context.DeadlineExceeded) {
		t.Errorf("Expected one deadline failure, got %v", batch.Failures)
	}
	if len(batch.Records) != 2 {
		t.Errorf("Expected 2 records, got %d", len(batch.Records))
	}
}

func TestNormalizerConfigurationErrors(t *testing.T) {
	fetcher := &mockFetcher{}
	normalizer := NewNormalizer(testRegistry(t), fetcher, 1, time.Second)

	_, err := normalizer.Normalize(context.Background(), "Invalid Outlet", "")
	if !errors.Is(err, outlet.ErrUnknownOutlet) {
		t.Errorf("Expected ErrUnknownOutlet, got: %v", err)
	}

	batch, err := normalizer.Normalize(context.Background(), "Guardian", "sports")
	if !errors.Is(err, outlet.ErrUnknownCategory) {
		t.Errorf("Expected ErrUnknownCategory, got: %v", err)
	}
	if batch != nil {
		t.Error("Expected no partial result for unknown category")
	}

	if len(fetcher.calls) != 0 {
		t.Errorf("Expected no fetches on configuration errors, got %v", fetcher.calls)
	}
}
