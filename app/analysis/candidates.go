package analysis

import (
	"github.com/lysyi3m/rss-lens/app/feed"
)

// SelectCandidates returns the records whose hash is not in classified, in
// input order and at most limit of them. A limit of zero or less means no
// limit. The result never aliases records.
func SelectCandidates(records []feed.Record, classified feed.HashSet, limit int) []feed.Record {
	candidates := make([]feed.Record, 0, len(records))

	for _, record := range records {
		if limit > 0 && len(candidates) >= limit {
			break
		}
		if classified.Has(record.ContentHash) {
			continue
		}
		candidates = append(candidates, record)
	}

	return candidates
}
