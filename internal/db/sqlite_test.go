package db

import (
	"testing"
	"time"
)

func TestRecordAndQueryRequests(t *testing.T) {
	database, err := InitDB(":memory:")
	if err != nil {
		t.Fatalf("InitDB() error = %v", err)
	}

	RecordRequest(database, Record{
		Method:   "POST",
		Host:     "api.anthropic.com",
		Path:     "/v1/messages",
		Provider: "anthropic",
		Mode:     "LOCAL",
		Model:    "claude-3-sonnet-20240229",
		Status:   200,
		Duration: 120 * time.Millisecond,
	})
	RecordRequest(database, Record{
		Method:   "POST",
		Host:     "api.openai.com",
		Path:     "/v1/chat/completions",
		Provider: "openai",
		Mode:     "CLOUD",
		Status:   502,
		Err:      "upstream unreachable",
	})

	rows, err := RecentRequests(database, 10)
	if err != nil {
		t.Fatalf("RecentRequests() error = %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	for _, row := range rows {
		if row.ID == "" {
			t.Fatal("expected generated row ID")
		}
	}
}

func TestRecordRequestNilDatabase(t *testing.T) {
	// Logging disabled: must be a no-op, not a panic.
	RecordRequest(nil, Record{Path: "/v1/messages"})
}
