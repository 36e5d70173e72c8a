package feed

import (
	"crypto/sha256"
	"encoding/hex"
)

// nullTitle is hashed in place of a missing title so that every untitled
// record shares one identity.
const nullTitle = "None"

// ContentHash is the record identity: the lowercase hex SHA-256 of the
// UTF-8 title.
func ContentHash(title *string) string {
	content := nullTitle
	if title != nil {
		content = *title
	}

	hash := sha256.Sum256([]byte(content))
	return hex.EncodeToString(hash[:])
}

// Dedup assigns content hashes and keeps the first record of every hash in
// input order. It returns the kept records and the number dropped.
func Dedup(records []Record) ([]Record, int) {
	seen := make(HashSet, len(records))
	kept := make([]Record, 0, len(records))

	for _, record := range records {
		record.ContentHash = ContentHash(record.Title)
		if seen.Has(record.ContentHash) {
			continue
		}
		seen.Add(record.ContentHash)
		kept = append(kept, record)
	}

	return kept, len(records) - len(kept)
}
