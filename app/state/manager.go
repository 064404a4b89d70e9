package state

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"
)

// Top-level keys of the state document.
const (
	keyLastChecks       = "last_checks"
	keyProcessedEntries = "processed_entries"
	keyErrorCounts      = "error_counts"
)

// ProcessedEntriesCap bounds the per-feed processed set. Trimming keeps the
// most recent identities, assuming append order approximates recency.
const ProcessedEntriesCap = 1000

// Manager provides the feed-processing view over the Store: last-check
// timestamps, processed-entry sets and error counters keyed by feed URL,
// plus the failure audit log.
type Manager struct {
	store *Store
	audit *AuditLog
}

// NewManager wires a Manager over dataDir/state.json and dataDir/failures.csv.
func NewManager(dataDir string) *Manager {
	return &Manager{
		store: NewStore(filepath.Join(dataDir, "state.json")),
		audit: NewAuditLog(filepath.Join(dataDir, "failures.csv")),
	}
}

func (m *Manager) Store() *Store {
	return m.store
}

// LastCheck returns the last successful fetch time for a feed.
func (m *Manager) LastCheck(feedURL string) (time.Time, bool) {
	checks := map[string]string{}
	m.store.ReadInto(keyLastChecks, &checks)

	raw, ok := checks[feedURL]
	if !ok {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		slog.Warn("Invalid last-check timestamp", "feed_url", feedURL, "value", raw)
		return time.Time{}, false
	}
	return t, true
}

// UpdateLastCheck records the last successful fetch time for a feed.
func (m *Manager) UpdateLastCheck(feedURL string, t time.Time) error {
	checks := map[string]string{}
	m.store.ReadInto(keyLastChecks, &checks)
	checks[feedURL] = t.UTC().Format(time.RFC3339)
	return m.store.Write(keyLastChecks, checks)
}

// ProcessedEntries returns the ordered processed-entry identities for a feed.
func (m *Manager) ProcessedEntries(feedURL string) []string {
	entries := map[string][]string{}
	m.store.ReadInto(keyProcessedEntries, &entries)
	return entries[feedURL]
}

// AddProcessedEntry appends an identity to a feed's processed set. Adding an
// identity already present is a no-op.
func (m *Manager) AddProcessedEntry(feedURL, entryID string) error {
	entries := map[string][]string{}
	m.store.ReadInto(keyProcessedEntries, &entries)

	for _, existing := range entries[feedURL] {
		if existing == entryID {
			return nil
		}
	}

	entries[feedURL] = append(entries[feedURL], entryID)
	if err := m.store.Write(keyProcessedEntries, entries); err != nil {
		return err
	}
	slog.Debug("Marked entry processed", "feed_url", feedURL, "entry_id", entryID)
	return nil
}

// TrimProcessedEntries drops the oldest identities beyond the limit.
func (m *Manager) TrimProcessedEntries(feedURL string, limit int) error {
	entries := map[string][]string{}
	m.store.ReadInto(keyProcessedEntries, &entries)

	list := entries[feedURL]
	if len(list) <= limit {
		return nil
	}

	entries[feedURL] = list[len(list)-limit:]
	if err := m.store.Write(keyProcessedEntries, entries); err != nil {
		return err
	}
	slog.Debug("Trimmed processed entries", "feed_url", feedURL, "kept", limit)
	return nil
}

// ErrorCount returns the consecutive-failure counter for a feed.
func (m *Manager) ErrorCount(feedURL string) int {
	counts := map[string]int{}
	m.store.ReadInto(keyErrorCounts, &counts)
	return counts[feedURL]
}

// IncrementErrorCount bumps the consecutive-failure counter for a feed.
func (m *Manager) IncrementErrorCount(feedURL string) (int, error) {
	counts := map[string]int{}
	m.store.ReadInto(keyErrorCounts, &counts)
	counts[feedURL]++
	if err := m.store.Write(keyErrorCounts, counts); err != nil {
		return 0, err
	}
	return counts[feedURL], nil
}

// ResetErrorCount clears the counter for a feed.
func (m *Manager) ResetErrorCount(feedURL string) error {
	counts := map[string]int{}
	m.store.ReadInto(keyErrorCounts, &counts)
	if _, ok := counts[feedURL]; !ok {
		return nil
	}
	delete(counts, feedURL)
	return m.store.Write(keyErrorCounts, counts)
}

// RecordFailure appends one row to the failure audit log.
func (m *Manager) RecordFailure(feedURL, entryID, url, action, reason string) error {
	return m.audit.Append(feedURL, entryID, url, action, reason)
}

// ReadKey returns the raw value of an arbitrary top-level key.
func (m *Manager) ReadKey(key string) (json.RawMessage, bool) {
	return m.store.Read(key)
}

// ReadAll returns the full state document.
func (m *Manager) ReadAll() map[string]json.RawMessage {
	return m.store.ReadAll()
}

// WriteKey writes an arbitrary top-level key.
func (m *Manager) WriteKey(key string, value interface{}) error {
	return m.store.Write(key, value)
}

// Stats summarizes the state document.
type Stats struct {
	TotalFeeds            int    `json:"total_feeds"`
	TotalProcessedEntries int    `json:"total_processed_entries"`
	TotalErrors           int    `json:"total_errors"`
	FeedsWithErrors       int    `json:"feeds_with_errors"`
	LastUpdated           string `json:"last_updated"`
}

// Stats returns aggregate processing statistics.
func (m *Manager) Stats() Stats {
	checks := map[string]string{}
	m.store.ReadInto(keyLastChecks, &checks)
	entries := map[string][]string{}
	m.store.ReadInto(keyProcessedEntries, &entries)
	counts := map[string]int{}
	m.store.ReadInto(keyErrorCounts, &counts)

	stats := Stats{
		TotalFeeds:      len(checks),
		FeedsWithErrors: len(counts),
		LastUpdated:     time.Now().UTC().Format(time.RFC3339),
	}
	for _, list := range entries {
		stats.TotalProcessedEntries += len(list)
	}
	for _, count := range counts {
		stats.TotalErrors += count
	}
	return stats
}

// String implements fmt.Stringer for the info command.
func (s Stats) String() string {
	return fmt.Sprintf("feeds=%d processed=%d errors=%d feeds_with_errors=%d",
		s.TotalFeeds, s.TotalProcessedEntries, s.TotalErrors, s.FeedsWithErrors)
}
