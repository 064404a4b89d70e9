package feed

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/user/rss-inbox/app/config"
	"github.com/user/rss-inbox/app/state"
)

// fakeDispatcher records dispatched entries and returns a scripted outcome
// per entry identity.
type fakeDispatcher struct {
	mu         sync.Mutex
	dispatched []ClassifiedEntry
	outcomes   map[string]Outcome
}

func (d *fakeDispatcher) Dispatch(_ context.Context, entry *ClassifiedEntry) Outcome {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.dispatched = append(d.dispatched, *entry)
	if outcome, ok := d.outcomes[entry.Identity()]; ok {
		return outcome
	}
	return OutcomeSuccess
}

func (d *fakeDispatcher) count() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.dispatched)
}

func feedServer(t *testing.T, body *string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, *body)
	}))
	t.Cleanup(server.Close)
	return server
}

func rssWithItems(items ...string) string {
	body := `<?xml version="1.0"?><rss version="2.0"><channel><title>Test</title>`
	for _, item := range items {
		body += item
	}
	return body + `</channel></rss>`
}

func rssItem(guid, title, link string) string {
	return fmt.Sprintf(`<item><guid>%s</guid><title>%s</title><link>%s</link></item>`, guid, title, link)
}

func newTestProcessor(t *testing.T, dispatcher Dispatcher, maxEntries int, dryRun bool) (*Processor, *state.Manager) {
	t.Helper()
	manager := state.NewManager(t.TempDir())
	fetcher := NewFetcher("Test Agent/1.0", 1, 10*time.Millisecond, 5*time.Second)
	classifier := NewClassifier(config.ClassificationConfig{
		VideoDomains:  []string{"youtube.com"},
		VideoKeywords: []string{"video"},
	})
	return NewProcessor(fetcher, NewParser(), classifier, manager, dispatcher, maxEntries, dryRun), manager
}

func TestProcessor_ProcessFeed_DispatchesNewEntries(t *testing.T) {
	body := rssWithItems(
		rssItem("a", "Alpha", "https://blog.example.com/a"),
		rssItem("b", "Beta", "https://blog.example.com/b"),
	)
	server := feedServer(t, &body)

	dispatcher := &fakeDispatcher{}
	processor, manager := newTestProcessor(t, dispatcher, 20, false)

	feedConfig := config.FeedConfig{Name: "Test", URL: server.URL, Handler: "webpage", Action: "auto"}
	newCount, err := processor.ProcessFeed(context.Background(), feedConfig)
	if err != nil {
		t.Fatalf("ProcessFeed failed: %v", err)
	}
	if newCount != 2 {
		t.Errorf("Expected 2 new entries, got %d", newCount)
	}
	if dispatcher.count() != 2 {
		t.Errorf("Expected 2 dispatches, got %d", dispatcher.count())
	}

	if dispatcher.dispatched[0].Action != "archive" {
		t.Errorf("Expected auto to resolve to archive for webpage, got %s", dispatcher.dispatched[0].Action)
	}

	if _, ok := manager.LastCheck(server.URL); !ok {
		t.Error("Expected last check to be recorded")
	}
	if entries := manager.ProcessedEntries(server.URL); len(entries) != 2 {
		t.Errorf("Expected 2 processed entries, got %d", len(entries))
	}
}

func TestProcessor_ProcessFeed_SkipsProcessedEntries(t *testing.T) {
	body := rssWithItems(rssItem("a", "Alpha", "https://blog.example.com/a"))
	server := feedServer(t, &body)

	dispatcher := &fakeDispatcher{}
	processor, _ := newTestProcessor(t, dispatcher, 20, false)
	feedConfig := config.FeedConfig{Name: "Test", URL: server.URL, Handler: "webpage", Action: "auto"}

	for i := 0; i < 2; i++ {
		if _, err := processor.ProcessFeed(context.Background(), feedConfig); err != nil {
			t.Fatalf("ProcessFeed pass %d failed: %v", i+1, err)
		}
	}

	if dispatcher.count() != 1 {
		t.Errorf("Expected entry dispatched once across passes, got %d", dispatcher.count())
	}
}

func TestProcessor_ProcessFeed_MaxEntriesKeepsNewestFirst(t *testing.T) {
	body := rssWithItems(
		rssItem("newest", "Newest", "https://blog.example.com/newest"),
		rssItem("older", "Older", "https://blog.example.com/older"),
	)
	server := feedServer(t, &body)

	dispatcher := &fakeDispatcher{}
	processor, _ := newTestProcessor(t, dispatcher, 1, false)

	feedConfig := config.FeedConfig{Name: "Test", URL: server.URL, Handler: "webpage", Action: "auto"}
	if _, err := processor.ProcessFeed(context.Background(), feedConfig); err != nil {
		t.Fatalf("ProcessFeed failed: %v", err)
	}

	if dispatcher.count() != 1 {
		t.Fatalf("Expected 1 dispatch with max entries 1, got %d", dispatcher.count())
	}
	if dispatcher.dispatched[0].GUID != "newest" {
		t.Errorf("Expected the first listed entry to win, got %s", dispatcher.dispatched[0].GUID)
	}
}

func TestProcessor_ProcessFeed_HardFailureNotMarkedProcessed(t *testing.T) {
	body := rssWithItems(
		rssItem("good", "Good", "https://blog.example.com/good"),
		rssItem("bad", "Bad", "https://blog.example.com/bad"),
	)
	server := feedServer(t, &body)

	dispatcher := &fakeDispatcher{outcomes: map[string]Outcome{"bad": OutcomeHardFailure}}
	processor, manager := newTestProcessor(t, dispatcher, 20, false)

	feedConfig := config.FeedConfig{Name: "Test", URL: server.URL, Handler: "webpage", Action: "auto"}
	newCount, err := processor.ProcessFeed(context.Background(), feedConfig)
	if err != nil {
		t.Fatalf("ProcessFeed failed: %v", err)
	}
	if newCount != 1 {
		t.Errorf("Expected 1 new entry, got %d", newCount)
	}

	processed := manager.ProcessedEntries(server.URL)
	if len(processed) != 1 || processed[0] != "good" {
		t.Errorf("Expected only the good entry marked processed, got %v", processed)
	}
}

func TestProcessor_ProcessFeed_SoftFailureMarkedProcessed(t *testing.T) {
	body := rssWithItems(rssItem("gone", "Gone", "https://blog.example.com/gone"))
	server := feedServer(t, &body)

	dispatcher := &fakeDispatcher{outcomes: map[string]Outcome{"gone": OutcomeSoftFailure}}
	processor, manager := newTestProcessor(t, dispatcher, 20, false)

	feedConfig := config.FeedConfig{Name: "Test", URL: server.URL, Handler: "webpage", Action: "auto"}
	if _, err := processor.ProcessFeed(context.Background(), feedConfig); err != nil {
		t.Fatalf("ProcessFeed failed: %v", err)
	}

	processed := manager.ProcessedEntries(server.URL)
	if len(processed) != 1 || processed[0] != "gone" {
		t.Errorf("Expected soft failure marked processed, got %v", processed)
	}
}

func TestProcessor_ProcessFeed_DryRunDoesNotPersist(t *testing.T) {
	body := rssWithItems(rssItem("a", "Alpha", "https://blog.example.com/a"))
	server := feedServer(t, &body)

	dispatcher := &fakeDispatcher{}
	processor, manager := newTestProcessor(t, dispatcher, 20, true)

	feedConfig := config.FeedConfig{Name: "Test", URL: server.URL, Handler: "webpage", Action: "auto"}
	newCount, err := processor.ProcessFeed(context.Background(), feedConfig)
	if err != nil {
		t.Fatalf("ProcessFeed failed: %v", err)
	}
	if newCount != 1 {
		t.Errorf("Expected 1 new entry in dry run, got %d", newCount)
	}
	if dispatcher.count() != 1 {
		t.Errorf("Expected action dispatched in dry run, got %d", dispatcher.count())
	}
	if entries := manager.ProcessedEntries(server.URL); len(entries) != 0 {
		t.Errorf("Dry run must not persist processed entries, got %v", entries)
	}
}

func TestProcessor_ProcessFeed_FetchFailureCountsError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	dispatcher := &fakeDispatcher{}
	processor, manager := newTestProcessor(t, dispatcher, 20, false)

	feedConfig := config.FeedConfig{Name: "Test", URL: server.URL, Handler: "webpage", Action: "auto"}
	if _, err := processor.ProcessFeed(context.Background(), feedConfig); err == nil {
		t.Fatal("Expected error for failing feed, got nil")
	}

	if count := manager.ErrorCount(server.URL); count != 1 {
		t.Errorf("Expected error count 1, got %d", count)
	}
	if _, ok := manager.LastCheck(server.URL); ok {
		t.Error("Failed fetch must not record a last check")
	}
}

func TestProcessor_ProcessFeed_SuccessResetsErrorCount(t *testing.T) {
	body := rssWithItems(rssItem("a", "Alpha", "https://blog.example.com/a"))
	server := feedServer(t, &body)

	dispatcher := &fakeDispatcher{}
	processor, manager := newTestProcessor(t, dispatcher, 20, false)

	if _, err := manager.IncrementErrorCount(server.URL); err != nil {
		t.Fatalf("IncrementErrorCount failed: %v", err)
	}

	feedConfig := config.FeedConfig{Name: "Test", URL: server.URL, Handler: "webpage", Action: "auto"}
	if _, err := processor.ProcessFeed(context.Background(), feedConfig); err != nil {
		t.Fatalf("ProcessFeed failed: %v", err)
	}

	if count := manager.ErrorCount(server.URL); count != 0 {
		t.Errorf("Expected error count reset after success, got %d", count)
	}
}
