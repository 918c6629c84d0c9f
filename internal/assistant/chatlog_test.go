package assistant

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestChatLoggerWritesPerSessionNDJSON(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	logger, err := NewChatLogger(ChatLogConfig{
		Enabled:   true,
		Dir:       dir,
		QueueSize: 16,
	}, slog.Default())
	if err != nil {
		t.Fatalf("NewChatLogger failed: %v", err)
	}
	defer func() { _ = logger.Close() }()

	logger.Log(ChatLogEvent{
		UserID:     "user-1",
		SessionID:  "sess-1",
		Channel:    "chat_http",
		Direction:  "outbound",
		EventType:  "chat_user_message",
		ContentRaw: "hello jarvis",
	})

	path := filepath.Join(dir, "user-1", "sess-1.ndjson")
	line := waitForLogLine(t, path)
	var got ChatLogEvent
	if err := json.Unmarshal([]byte(line), &got); err != nil {
		t.Fatalf("failed to unmarshal log line: %v", err)
	}
	if got.ContentRaw != "hello jarvis" {
		t.Fatalf("unexpected ContentRaw: %q", got.ContentRaw)
	}
	if got.Content == "" {
		t.Fatal("expected cleaned content to be populated")
	}
	if got.Timestamp == "" {
		t.Fatal("expected a timestamp to be stamped")
	}
}

func TestChatLoggerDisabledIsNoop(t *testing.T) {
	t.Parallel()

	logger, err := NewChatLogger(ChatLogConfig{Enabled: false}, nil)
	if err != nil {
		t.Fatalf("NewChatLogger failed: %v", err)
	}
	logger.Log(ChatLogEvent{UserID: "u", SessionID: "s", ContentRaw: "x"})
	if err := logger.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
}

func TestChatLoggerSanitizesPathComponents(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	logger, err := NewChatLogger(ChatLogConfig{Enabled: true, Dir: dir, QueueSize: 4}, slog.Default())
	if err != nil {
		t.Fatalf("NewChatLogger failed: %v", err)
	}
	defer func() { _ = logger.Close() }()

	logger.Log(ChatLogEvent{
		UserID:     "../evil",
		SessionID:  "a/b",
		ContentRaw: "x",
	})

	path := filepath.Join(dir, ".._evil", "a_b.ndjson")
	waitForLogLine(t, path)
}

func TestCleanForReadabilityStripsANSI(t *testing.T) {
	t.Parallel()

	raw := "\x1b[31merror\x1b[0m plain"
	clean := cleanForReadability(raw)
	if strings.Contains(clean, "\x1b") {
		t.Fatalf("expected ANSI sequence to be stripped: %q", clean)
	}
	if !strings.Contains(clean, "error plain") {
		t.Fatalf("expected readable text to remain: %q", clean)
	}
}

func waitForLogLine(t *testing.T, path string) string {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		data, err := os.ReadFile(path)
		if err == nil && len(data) > 0 {
			lines := strings.Split(strings.TrimSpace(string(data)), "\n")
			if len(lines) > 0 {
				return lines[len(lines)-1]
			}
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for log file %s", path)
	return ""
}
