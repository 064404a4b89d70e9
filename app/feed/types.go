package feed

import (
	"context"
	"time"
)

// Classification values.
const (
	ClassWebpage = "webpage"
	ClassVideo   = "video"
)

// Entry is a normalized feed item.
type Entry struct {
	GUID        string
	Title       string
	Link        string
	Description string
	Published   *time.Time
	Categories  []string
	Enclosures  []Enclosure
	MediaTypes  []string // media:content MIME types
	VideoID     string   // provider video marker (yt:videoId)
}

// Enclosure is a feed item attachment.
type Enclosure struct {
	URL  string
	Type string
}

// Identity returns the deterministic dedup key for the entry: the
// provider-assigned identifier when present, else a link+title composite.
// Stable across runs even when title or link of other entries change.
func (e *Entry) Identity() string {
	if e.GUID != "" {
		return e.GUID
	}
	return e.Link + "#" + e.Title
}

// ClassifiedEntry is an Entry bound to its feed, classification and resolved
// action. Ephemeral; exists only within one processing pass.
type ClassifiedEntry struct {
	Entry
	FeedURL        string
	FeedName       string
	Classification string
	Action         string
	CustomParams   map[string]interface{}
}

// StringParam returns a string-valued custom parameter, or "" when absent.
func (e *ClassifiedEntry) StringParam(key string) string {
	if e.CustomParams == nil {
		return ""
	}
	if value, ok := e.CustomParams[key].(string); ok {
		return value
	}
	return ""
}

// Outcome is the result of dispatching one entry's action. Only a hard
// failure prevents the entry from being marked processed.
type Outcome int

const (
	OutcomeSuccess Outcome = iota
	OutcomeSoftFailure
	OutcomeHardFailure
)

// Processed reports whether the outcome marks the entry as processed.
func (o Outcome) Processed() bool {
	return o != OutcomeHardFailure
}

func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomeSoftFailure:
		return "soft_failure"
	default:
		return "hard_failure"
	}
}

// Dispatcher hands a classified entry to its action.
type Dispatcher interface {
	Dispatch(ctx context.Context, entry *ClassifiedEntry) Outcome
}
