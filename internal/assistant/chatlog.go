package assistant

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"time"
)

// ChatLogEvent is one line of the NDJSON conversation transcript.
type ChatLogEvent struct {
	Timestamp  string         `json:"timestamp"`
	UserID     string         `json:"user_id"`
	SessionID  string         `json:"session_id"`
	Channel    string         `json:"channel"`
	Direction  string         `json:"direction"`
	EventType  string         `json:"event_type"`
	ContentRaw string         `json:"content_raw,omitempty"`
	Content    string         `json:"content,omitempty"`
	Meta       map[string]any `json:"meta,omitempty"`
}

// ChatLogger records conversation events. Logging is best effort and must
// never block or fail a chat request.
type ChatLogger interface {
	Log(event ChatLogEvent)
	Close() error
}

// ChatLogConfig controls transcript logging.
type ChatLogConfig struct {
	Enabled   bool
	Dir       string
	QueueSize int
}

type noopChatLogger struct{}

func (noopChatLogger) Log(ChatLogEvent) {}
func (noopChatLogger) Close() error     { return nil }

// NoopChatLogger returns a logger that discards every event.
func NoopChatLogger() ChatLogger { return noopChatLogger{} }

// fileChatLogger appends events as NDJSON to <dir>/<userID>/<sessionID>.ndjson.
// Events are queued to a single writer goroutine; when the queue is full the
// event is dropped and counted rather than blocking the request path.
type fileChatLogger struct {
	dir     string
	queue   chan ChatLogEvent
	done    chan struct{}
	wg      sync.WaitGroup
	logger  *slog.Logger
	dropped int64
	mu      sync.Mutex
}

// NewChatLogger creates a transcript logger writing under cfg.Dir. When
// logging is disabled a noop logger is returned.
func NewChatLogger(cfg ChatLogConfig, logger *slog.Logger) (ChatLogger, error) {
	if !cfg.Enabled {
		return noopChatLogger{}, nil
	}
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Dir == "" {
		return nil, fmt.Errorf("chat log dir is required when logging is enabled")
	}
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("create chat log dir: %w", err)
	}
	queueSize := cfg.QueueSize
	if queueSize <= 0 {
		queueSize = 1000
	}

	l := &fileChatLogger{
		dir:    cfg.Dir,
		queue:  make(chan ChatLogEvent, queueSize),
		done:   make(chan struct{}),
		logger: logger,
	}
	l.wg.Add(1)
	go l.writeLoop()
	return l, nil
}

// Log enqueues an event. A full queue drops the event.
func (l *fileChatLogger) Log(event ChatLogEvent) {
	if event.Timestamp == "" {
		event.Timestamp = time.Now().UTC().Format(time.RFC3339Nano)
	}
	if event.Content == "" && event.ContentRaw != "" {
		event.Content = cleanForReadability(event.ContentRaw)
	}

	select {
	case <-l.done:
	case l.queue <- event:
	default:
		l.mu.Lock()
		l.dropped++
		dropped := l.dropped
		l.mu.Unlock()
		if dropped%100 == 1 {
			l.logger.Warn("Chat log queue full, dropping events", "dropped_total", dropped)
		}
	}
}

// Close drains the queue and stops the writer goroutine.
func (l *fileChatLogger) Close() error {
	close(l.done)
	l.wg.Wait()
	return nil
}

func (l *fileChatLogger) writeLoop() {
	defer l.wg.Done()
	for {
		select {
		case event := <-l.queue:
			l.write(event)
		case <-l.done:
			for {
				select {
				case event := <-l.queue:
					l.write(event)
				default:
					return
				}
			}
		}
	}
}

func (l *fileChatLogger) write(event ChatLogEvent) {
	userDir := filepath.Join(l.dir, sanitizePathComponent(event.UserID))
	if err := os.MkdirAll(userDir, 0o755); err != nil {
		l.logger.Warn("failed to create chat log user dir", "error", err)
		return
	}
	path := filepath.Join(userDir, sanitizePathComponent(event.SessionID)+".ndjson")

	line, err := json.Marshal(event)
	if err != nil {
		l.logger.Warn("failed to marshal chat log event", "error", err)
		return
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		l.logger.Warn("failed to open chat log file", "error", err, "path", path)
		return
	}
	defer f.Close()

	if _, err := f.Write(append(line, '\n')); err != nil {
		l.logger.Warn("failed to write chat log line", "error", err, "path", path)
	}
}

var (
	ansiPattern     = regexp.MustCompile(`\x1b\[[0-9;?]*[a-zA-Z]`)
	unsafePathChars = regexp.MustCompile(`[^A-Za-z0-9._-]`)
)

// cleanForReadability strips ANSI escape sequences and non-printing control
// characters so transcripts stay greppable.
func cleanForReadability(s string) string {
	s = ansiPattern.ReplaceAllString(s, "")
	return strings.Map(func(r rune) rune {
		if r == '\n' || r == '\t' {
			return r
		}
		if r < 0x20 || r == 0x7f {
			return -1
		}
		return r
	}, s)
}

func sanitizePathComponent(s string) string {
	s = unsafePathChars.ReplaceAllString(s, "_")
	if s == "" {
		return "unknown"
	}
	return s
}
