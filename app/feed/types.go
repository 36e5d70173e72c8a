package feed

import (
	"fmt"

	"github.com/lysyi3m/rss-lens/app/outlet"
)

// Record is one article in the canonical schema. Nil fields were not
// available from the outlet.
type Record struct {
	Outlet   string
	Category string

	Title        *string
	Link         *string
	Summary      *string
	Published    *string // raw timestamp text as published by the feed
	Updated      *string
	Tags         []*string
	MediaContent *string
	Content      *string
	Authors      *string
	ID           *string // source-native identifier

	ContentHash string
}

// Entry is one raw feed entry keyed by native field name. Values are
// strings, or a list of Tag for tag fields.
type Entry map[string]any

// Tag is one native tag entry, e.g. {"term": "politics"}.
type Tag map[string]string

// HashSet is a set of content hashes.
type HashSet map[string]struct{}

func (s HashSet) Has(hash string) bool {
	_, ok := s[hash]
	return ok
}

func (s HashSet) Add(hash string) {
	s[hash] = struct{}{}
}

type EndpointError struct {
	Endpoint outlet.Endpoint
	Err      error
}

func (e EndpointError) Error() string {
	return fmt.Sprintf("endpoint %s/%s (%s): %v", e.Endpoint.Outlet, e.Endpoint.Category, e.Endpoint.URL, e.Err)
}

func (e EndpointError) Unwrap() error {
	return e.Err
}

// Batch is the normalized output of one outlet run.
type Batch struct {
	Outlet    string
	Endpoints int
	Records   []Record
	Failures  []EndpointError
}
