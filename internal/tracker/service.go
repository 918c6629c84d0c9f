package tracker

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jarvislab/jarvis/internal/domain"
	"github.com/jarvislab/jarvis/internal/gateway"
	"github.com/jarvislab/jarvis/internal/store"
)

// Validation failures surfaced to the user before any network call.
var (
	// ErrNoSkills rejects idea generation with an empty skill selection.
	ErrNoSkills = errors.New("select at least one skill to generate ideas")
	// ErrNoTopics rejects quiz generation with no started topics selected.
	ErrNoTopics = errors.New("select at least one started topic to quiz")
	// ErrEmptyText rejects a todo with no text.
	ErrEmptyText = errors.New("todo text is required")
)

// quizSubject is the fixed subject label sent with quiz requests.
const quizSubject = "Engineering"

// Generator is the AI-backed collaborator for quiz and idea generation.
type Generator interface {
	GenerateQuiz(ctx context.Context, req gateway.QuizRequest) ([]domain.Question, error)
	GenerateIdeas(ctx context.Context, req gateway.IdeaRequest) ([]gateway.GeneratedIdea, error)
}

// Service owns the in-memory collections per user. The in-memory copy is the
// single writable copy for the running session; the store is a write-through
// mirror read back only when a user's state is first touched. All mutations
// read the latest in-memory value under the service lock, never a snapshot
// captured before a suspension point.
type Service struct {
	repo store.Repository
	gen  Generator

	mu    sync.Mutex
	users map[string]*userState
}

type userState struct {
	todos  []domain.Todo
	topics []domain.Topic
	resume domain.ResumeData
	ideas  []domain.ProjectIdea
}

// NewService creates the tracker service.
func NewService(repo store.Repository, gen Generator) *Service {
	return &Service{
		repo:  repo,
		gen:   gen,
		users: make(map[string]*userState),
	}
}

// stateFor lazily loads a user's collections from the store. Callers must
// hold s.mu.
func (s *Service) stateFor(ctx context.Context, userID string) *userState {
	if st, ok := s.users[userID]; ok {
		return st
	}
	st := &userState{
		todos:  store.LoadTodos(ctx, s.repo, userID),
		topics: store.LoadTopics(ctx, s.repo, userID),
		resume: store.LoadResume(ctx, s.repo, userID),
		ideas:  store.LoadProjectIdeas(ctx, s.repo, userID),
	}
	s.users[userID] = st
	return st
}

// Todos returns the user's todo collection in display order.
func (s *Service) Todos(ctx context.Context, userID string) []domain.Todo {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.Todo(nil), s.stateFor(ctx, userID).todos...)
}

// AddTodo creates a todo at the front of the collection.
func (s *Service) AddTodo(ctx context.Context, userID, text string, priority domain.Priority, deadline *time.Time) (domain.Todo, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return domain.Todo{}, ErrEmptyText
	}
	if !priority.Valid() {
		priority = domain.PriorityMedium
	}

	todo := domain.Todo{
		ID:        uuid.NewString(),
		Text:      text,
		Completed: false,
		Priority:  priority,
		CreatedAt: time.Now().UTC(),
		Deadline:  deadline,
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.stateFor(ctx, userID)
	st.todos = addTodo(st.todos, todo)
	store.SaveTodos(ctx, s.repo, userID, st.todos)
	return todo, nil
}

// ToggleTodo flips the completed flag of the todo with the given id.
func (s *Service) ToggleTodo(ctx context.Context, userID, id string) []domain.Todo {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.stateFor(ctx, userID)
	st.todos = toggleTodo(st.todos, id)
	store.SaveTodos(ctx, s.repo, userID, st.todos)
	return append([]domain.Todo(nil), st.todos...)
}

// DeleteTodo removes the todo with the given id.
func (s *Service) DeleteTodo(ctx context.Context, userID, id string) []domain.Todo {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.stateFor(ctx, userID)
	st.todos = deleteTodo(st.todos, id)
	store.SaveTodos(ctx, s.repo, userID, st.todos)
	return append([]domain.Todo(nil), st.todos...)
}

// Topics returns the user's study topics.
func (s *Service) Topics(ctx context.Context, userID string) []domain.Topic {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.Topic(nil), s.stateFor(ctx, userID).topics...)
}

// SelectTopic marks a topic as started. Returns the topic's state after the
// transition, or ok=false when the id is unknown.
func (s *Service) SelectTopic(ctx context.Context, userID, id string) (domain.Topic, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.stateFor(ctx, userID)
	st.topics = selectTopic(st.topics, id)
	store.SaveTopics(ctx, s.repo, userID, st.topics)
	for _, t := range st.topics {
		if t.ID == id {
			return t, true
		}
	}
	return domain.Topic{}, false
}

// Resume returns the user's resume record.
func (s *Service) Resume(ctx context.Context, userID string) domain.ResumeData {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stateFor(ctx, userID).resume
}

// UpdateResume replaces the whole resume record. Edits are never sub-field
// patches at the storage layer.
func (s *Service) UpdateResume(ctx context.Context, userID string, data domain.ResumeData) domain.ResumeData {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.stateFor(ctx, userID)
	st.resume = data
	store.SaveResume(ctx, s.repo, userID, st.resume)
	return st.resume
}

// Ideas returns the user's project idea collection.
func (s *Service) Ideas(ctx context.Context, userID string) []domain.ProjectIdea {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.ProjectIdea(nil), s.stateFor(ctx, userID).ideas...)
}

// GenerateIdeas calls the idea-generation collaborator and prepends the
// returned ideas, stamped with fresh ids and the request difficulty. An
// empty skill selection is rejected locally before any network call, and a
// failed request leaves the collection untouched.
func (s *Service) GenerateIdeas(ctx context.Context, userID string, skills []string, difficulty domain.Difficulty, count int) ([]domain.ProjectIdea, error) {
	if len(skills) == 0 {
		return nil, ErrNoSkills
	}
	if !difficulty.Valid() {
		difficulty = domain.DifficultyIntermediate
	}
	if count <= 0 {
		count = 3
	}

	generated, err := s.gen.GenerateIdeas(ctx, gateway.IdeaRequest{
		Skills:     skills,
		Difficulty: difficulty,
		Count:      count,
	})
	if err != nil {
		return nil, fmt.Errorf("generate ideas: %w", err)
	}

	fresh := make([]domain.ProjectIdea, len(generated))
	for i, g := range generated {
		title := g.Title
		if title == "" {
			title = "Untitled Project"
		}
		description := g.Description
		if description == "" {
			description = "No description provided"
		}
		tags := g.Tags
		if tags == nil {
			tags = []string{}
		}
		fresh[i] = domain.ProjectIdea{
			ID:          uuid.NewString(),
			Title:       title,
			Description: description,
			Difficulty:  difficulty,
			Tags:        tags,
			CodeSnippet: g.CodeSnippet,
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.stateFor(ctx, userID)
	st.ideas = prependIdeas(st.ideas, fresh)
	store.SaveProjectIdeas(ctx, s.repo, userID, st.ideas)
	return append([]domain.ProjectIdea(nil), st.ideas...), nil
}

// GenerateQuiz builds a question set over the selected topics. Only topics
// that have been started or completed are eligible; nothing is stored on
// failure — exam results belong to the client session.
func (s *Service) GenerateQuiz(ctx context.Context, userID string, topicIDs []string, difficulty domain.QuizDifficulty) ([]domain.Question, error) {
	if !difficulty.Valid() {
		difficulty = domain.QuizMedium
	}

	s.mu.Lock()
	st := s.stateFor(ctx, userID)
	selected := make([]string, 0, len(topicIDs))
	for _, id := range topicIDs {
		for _, t := range st.topics {
			if t.ID == id && t.Started() {
				selected = append(selected, fmt.Sprintf("%s (%s)", t.Name, t.Subject))
			}
		}
	}
	s.mu.Unlock()

	if len(selected) == 0 {
		return nil, ErrNoTopics
	}

	questions, err := s.gen.GenerateQuiz(ctx, gateway.QuizRequest{
		Topic:         strings.Join(selected, ", "),
		Subject:       quizSubject,
		Difficulty:    difficulty,
		QuestionCount: difficulty.QuestionCount(),
	})
	if err != nil {
		return nil, fmt.Errorf("generate quiz: %w", err)
	}
	return questions, nil
}
