package analysis

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const (
	LabelTopic       = "topic"
	LabelIndividuals = "individuals"
	LabelSentiment   = "sentiment"

	labelSeparator = ": "
)

var requiredLabels = []string{LabelTopic, LabelIndividuals, LabelSentiment}

var sentiments = map[string]bool{
	"positive": true,
	"neutral":  true,
	"negative": true,
}

// ErrParse matches every *ParseError.
var ErrParse = errors.New("unparseable classification response")

type ParseReason string

const (
	ReasonEmpty            ParseReason = "empty response"
	ReasonMalformedLine    ParseReason = "malformed line"
	ReasonMissingLabel     ParseReason = "missing label"
	ReasonInvalidSentiment ParseReason = "invalid sentiment"
)

type ParseError struct {
	ContentHash string
	Reason      ParseReason
	Detail      string
}

func (e *ParseError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("failed to parse classification for %s: %s", e.ContentHash, e.Reason)
	}
	return fmt.Sprintf("failed to parse classification for %s: %s: %s", e.ContentHash, e.Reason, e.Detail)
}

func (e *ParseError) Is(target error) bool {
	return target == ErrParse
}

// NormalizeLabel applies the case folding used for stored labels, so that
// lookups match what ParseResponse produced.
func NormalizeLabel(s string) string {
	return cases.Lower(language.Und).String(strings.TrimSpace(s))
}

// ParseResponse turns a reply of "Label: value" lines into a Result. Lines
// are trimmed and lower-cased and split on the first ": ". Blank lines are
// skipped and unknown labels ignored.
func ParseResponse(raw, contentHash string) (Result, error) {
	lower := cases.Lower(language.Und)
	labels := make(map[string]string, len(requiredLabels))
	lines := 0

	for n, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		lines++

		line = lower.String(line)
		label, value, ok := strings.Cut(line, labelSeparator)
		if !ok && strings.HasSuffix(line, ":") {
			// "Individuals:" with its empty value trimmed away.
			label, value, ok = strings.TrimSuffix(line, ":"), "", true
		}
		if !ok {
			return Result{}, &ParseError{
				ContentHash: contentHash,
				Reason:      ReasonMalformedLine,
				Detail:      fmt.Sprintf("line %d: %q", n+1, line),
			}
		}
		labels[label] = value
	}

	if lines == 0 {
		return Result{}, &ParseError{ContentHash: contentHash, Reason: ReasonEmpty}
	}

	for _, label := range requiredLabels {
		if _, ok := labels[label]; !ok {
			return Result{}, &ParseError{ContentHash: contentHash, Reason: ReasonMissingLabel, Detail: label}
		}
	}

	if !sentiments[labels[LabelSentiment]] {
		return Result{}, &ParseError{
			ContentHash: contentHash,
			Reason:      ReasonInvalidSentiment,
			Detail:      fmt.Sprintf("%q", labels[LabelSentiment]),
		}
	}

	return Result{
		ContentHash: contentHash,
		Topic:       labels[LabelTopic],
		Individuals: labels[LabelIndividuals],
		Sentiment:   labels[LabelSentiment],
	}, nil
}
