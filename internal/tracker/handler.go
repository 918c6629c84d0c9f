package tracker

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jarvislab/jarvis/internal/api"
	"github.com/jarvislab/jarvis/internal/domain"
	"github.com/jarvislab/jarvis/internal/identity"
)

// Handler exposes the tracker collections over HTTP.
type Handler struct {
	svc *Service
}

// NewHandler creates the tracker HTTP handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes registers tracker routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Get("/todos", h.ListTodos)
		r.Post("/todos", h.AddTodo)
		r.Post("/todos/{id}/toggle", h.ToggleTodo)
		r.Delete("/todos/{id}", h.DeleteTodo)

		r.Get("/topics", h.ListTopics)
		r.Post("/topics/{id}/select", h.SelectTopic)

		r.Get("/resume", h.GetResume)
		r.Put("/resume", h.UpdateResume)

		r.Get("/projects", h.ListIdeas)
		r.Post("/projects/generate", h.GenerateIdeas)

		r.Post("/quiz", h.GenerateQuiz)
	})
}

func userID(r *http.Request) string {
	return identity.UserIDFromContext(r.Context())
}

// ListTodos handles GET /api/todos.
func (h *Handler) ListTodos(w http.ResponseWriter, r *http.Request) {
	api.JSON(w, http.StatusOK, h.svc.Todos(r.Context(), userID(r)))
}

// AddTodo handles POST /api/todos.
func (h *Handler) AddTodo(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Text     string          `json:"text"`
		Priority domain.Priority `json:"priority"`
		Deadline *time.Time      `json:"deadline"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	todo, err := h.svc.AddTodo(r.Context(), userID(r), req.Text, req.Priority, req.Deadline)
	if err != nil {
		api.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	api.JSON(w, http.StatusCreated, todo)
}

// ToggleTodo handles POST /api/todos/{id}/toggle.
func (h *Handler) ToggleTodo(w http.ResponseWriter, r *http.Request) {
	todos := h.svc.ToggleTodo(r.Context(), userID(r), chi.URLParam(r, "id"))
	api.JSON(w, http.StatusOK, todos)
}

// DeleteTodo handles DELETE /api/todos/{id}.
func (h *Handler) DeleteTodo(w http.ResponseWriter, r *http.Request) {
	todos := h.svc.DeleteTodo(r.Context(), userID(r), chi.URLParam(r, "id"))
	api.JSON(w, http.StatusOK, todos)
}

// ListTopics handles GET /api/topics.
func (h *Handler) ListTopics(w http.ResponseWriter, r *http.Request) {
	api.JSON(w, http.StatusOK, h.svc.Topics(r.Context(), userID(r)))
}

// SelectTopic handles POST /api/topics/{id}/select.
func (h *Handler) SelectTopic(w http.ResponseWriter, r *http.Request) {
	topic, ok := h.svc.SelectTopic(r.Context(), userID(r), chi.URLParam(r, "id"))
	if !ok {
		api.Error(w, http.StatusNotFound, "topic not found")
		return
	}
	api.JSON(w, http.StatusOK, topic)
}

// GetResume handles GET /api/resume.
func (h *Handler) GetResume(w http.ResponseWriter, r *http.Request) {
	api.JSON(w, http.StatusOK, h.svc.Resume(r.Context(), userID(r)))
}

// UpdateResume handles PUT /api/resume. The request body replaces the whole
// record.
func (h *Handler) UpdateResume(w http.ResponseWriter, r *http.Request) {
	var data domain.ResumeData
	if err := json.NewDecoder(r.Body).Decode(&data); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	api.JSON(w, http.StatusOK, h.svc.UpdateResume(r.Context(), userID(r), data))
}

// ListIdeas handles GET /api/projects.
func (h *Handler) ListIdeas(w http.ResponseWriter, r *http.Request) {
	api.JSON(w, http.StatusOK, h.svc.Ideas(r.Context(), userID(r)))
}

// GenerateIdeas handles POST /api/projects/generate.
func (h *Handler) GenerateIdeas(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Skills     []string          `json:"skills"`
		Difficulty domain.Difficulty `json:"difficulty"`
		Count      int               `json:"count"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	ideas, err := h.svc.GenerateIdeas(r.Context(), userID(r), req.Skills, req.Difficulty, req.Count)
	if err != nil {
		if errors.Is(err, ErrNoSkills) {
			api.Error(w, http.StatusBadRequest, err.Error())
			return
		}
		api.ServiceError(w, err)
		return
	}
	api.JSON(w, http.StatusOK, map[string]any{"ideas": ideas})
}

// GenerateQuiz handles POST /api/quiz.
func (h *Handler) GenerateQuiz(w http.ResponseWriter, r *http.Request) {
	var req struct {
		TopicIDs   []string              `json:"topicIds"`
		Difficulty domain.QuizDifficulty `json:"difficulty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	questions, err := h.svc.GenerateQuiz(r.Context(), userID(r), req.TopicIDs, req.Difficulty)
	if err != nil {
		if errors.Is(err, ErrNoTopics) {
			api.Error(w, http.StatusBadRequest, err.Error())
			return
		}
		api.ServiceError(w, err)
		return
	}
	api.JSON(w, http.StatusOK, map[string]any{"questions": questions})
}
