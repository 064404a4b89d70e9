package state

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

var auditHeader = []string{"timestamp", "feed_url", "entry_id", "url", "action", "reason"}

// AuditLog is the append-only failure log. Rows are never rewritten or
// reordered; the header is written only when the file does not yet exist.
type AuditLog struct {
	path string
}

func NewAuditLog(path string) *AuditLog {
	return &AuditLog{path: path}
}

func (a *AuditLog) Path() string {
	return a.path
}

// Append records one failure row. The reason is collapsed to a single
// whitespace-normalized line.
func (a *AuditLog) Append(feedURL, entryID, url, action, reason string) error {
	if err := os.MkdirAll(filepath.Dir(a.path), 0o755); err != nil {
		return fmt.Errorf("failed to create audit log directory: %w", err)
	}

	writeHeader := false
	if _, err := os.Stat(a.path); os.IsNotExist(err) {
		writeHeader = true
	}

	file, err := os.OpenFile(a.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open audit log: %w", err)
	}
	defer file.Close()

	if entryID == "" {
		entryID = url
	}

	writer := csv.NewWriter(file)
	if writeHeader {
		if err := writer.Write(auditHeader); err != nil {
			return fmt.Errorf("failed to write audit log header: %w", err)
		}
	}

	row := []string{
		time.Now().UTC().Format(time.RFC3339),
		feedURL,
		entryID,
		url,
		action,
		normalizeReason(reason),
	}
	if err := writer.Write(row); err != nil {
		return fmt.Errorf("failed to append audit row: %w", err)
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("failed to flush audit row: %w", err)
	}

	return nil
}

func normalizeReason(reason string) string {
	return strings.Join(strings.Fields(reason), " ")
}
