package assistant

import (
	"context"
	"fmt"
	"iter"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jarvislab/jarvis/internal/conversation"
	"github.com/jarvislab/jarvis/internal/domain"
	"github.com/jarvislab/jarvis/internal/session"
	"github.com/jarvislab/jarvis/internal/store"
)

// Options bounds the assembler's behavior.
type Options struct {
	// HistoryLimit is how many recent messages are sent to the gateway as
	// context for a new request.
	HistoryLimit int
	// SpeechPrefixRunes bounds the reply prefix handed to the synthesizer.
	SpeechPrefixRunes int
}

const (
	defaultHistoryLimit      = 10
	defaultSpeechPrefixRunes = 500
)

// Service assembles streamed model fragments into conversation messages. One
// message id is allocated per request; every fragment grows that message via
// replacement, so clients observing the conversation mid-stream see a prefix
// of the final text, never an interleaving.
type Service struct {
	repo     store.Repository
	streamer Streamer
	states   *session.Tracker
	synth    Synthesizer
	opts     Options

	mu       sync.Mutex
	logs     map[string]*conversation.Log
	inflight map[string]bool
}

// NewService creates the assembler.
func NewService(repo store.Repository, streamer Streamer, states *session.Tracker, synth Synthesizer, opts Options) *Service {
	if opts.HistoryLimit <= 0 {
		opts.HistoryLimit = defaultHistoryLimit
	}
	if opts.SpeechPrefixRunes <= 0 {
		opts.SpeechPrefixRunes = defaultSpeechPrefixRunes
	}
	if synth == nil {
		synth = NoopSynthesizer{}
	}
	return &Service{
		repo:     repo,
		streamer: streamer,
		states:   states,
		synth:    synth,
		opts:     opts,
		logs:     make(map[string]*conversation.Log),
		inflight: make(map[string]bool),
	}
}

// logFor lazily loads a user's conversation from the store. Callers must
// hold s.mu.
func (s *Service) logFor(ctx context.Context, userID string) *conversation.Log {
	if l, ok := s.logs[userID]; ok {
		return l
	}
	l := conversation.New(store.LoadMessages(ctx, s.repo, userID))
	s.logs[userID] = l
	return l
}

// History returns the user's conversation oldest-first.
func (s *Service) History(ctx context.Context, userID string) []domain.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.logFor(ctx, userID).Snapshot()
}

func inflightKey(userID, sessionID string) string {
	return userID + ":" + sessionID
}

// Chat appends the user's message to the conversation and streams the
// assistant's reply. Each yielded Reply carries the full content assembled
// so far. A second request for the same user and session while one is
// streaming yields ErrStreamInFlight without touching the conversation.
//
// The user message is committed before the gateway is contacted and is never
// rolled back: a failed stream leaves the user turn, and whatever reply
// prefix arrived, in the conversation.
func (s *Service) Chat(ctx context.Context, userID, sessionID, text string) iter.Seq2[*Reply, error] {
	return func(yield func(*Reply, error) bool) {
		key := inflightKey(userID, sessionID)

		s.mu.Lock()
		if s.inflight[key] {
			s.mu.Unlock()
			yield(nil, ErrStreamInFlight)
			return
		}
		s.inflight[key] = true
		log := s.logFor(ctx, userID)

		userMsg := domain.Message{
			ID:        uuid.NewString(),
			Role:      domain.RoleUser,
			Content:   text,
			Timestamp: time.Now().UTC(),
		}
		log.Append(userMsg)
		window := log.Recent(s.opts.HistoryLimit)
		store.SaveMessages(ctx, s.repo, userID, log.Snapshot())
		s.mu.Unlock()

		defer func() {
			s.mu.Lock()
			delete(s.inflight, key)
			s.mu.Unlock()
		}()

		s.states.Set(userID, sessionID, session.StateThinking)

		turns := make([]domain.ChatTurn, len(window))
		for i, m := range window {
			turns[i] = m.Turn()
		}

		assistantID := uuid.NewString()
		var content strings.Builder

		for fragment, err := range s.streamer.StreamChat(ctx, turns) {
			if err != nil {
				s.finishPartial(ctx, userID, sessionID, log, content.String())
				yield(nil, fmt.Errorf("stream reply: %w", err))
				return
			}

			content.WriteString(fragment)
			assembled := content.String()

			log.AppendOrReplace(domain.Message{
				ID:        assistantID,
				Role:      domain.RoleAssistant,
				Content:   assembled,
				Timestamp: time.Now().UTC(),
			})

			if !yield(&Reply{MessageID: assistantID, Delta: fragment, Content: assembled}, nil) {
				s.finishPartial(ctx, userID, sessionID, log, assembled)
				return
			}
		}

		final := content.String()

		s.mu.Lock()
		store.SaveMessages(ctx, s.repo, userID, log.Snapshot())
		s.mu.Unlock()

		s.states.Set(userID, sessionID, session.StateSpeaking)
		prefix := speechPrefix(final, s.opts.SpeechPrefixRunes)
		if err := s.synth.Speak(ctx, userID, sessionID, prefix); err != nil {
			slog.Warn("Speech synthesis failed", "user_id", userID, "error", err)
		}
		s.states.Set(userID, sessionID, session.StateIdle)

		yield(&Reply{MessageID: assistantID, Content: final, Done: true}, nil)
	}
}

// finishPartial persists whatever arrived before the stream ended early and
// returns the session to idle. The partial reply stays in the conversation.
func (s *Service) finishPartial(ctx context.Context, userID, sessionID string, log *conversation.Log, content string) {
	s.mu.Lock()
	store.SaveMessages(ctx, s.repo, userID, log.Snapshot())
	s.mu.Unlock()
	s.states.Set(userID, sessionID, session.StateIdle)

	if content != "" {
		slog.Info("Stream ended early with partial reply",
			"user_id", userID,
			"session_id", sessionID,
			"partial_len", len(content),
		)
	}
}
