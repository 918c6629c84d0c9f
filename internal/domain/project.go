package domain

// Difficulty levels for project ideas.
type Difficulty string

const (
	DifficultyBeginner     Difficulty = "beginner"
	DifficultyIntermediate Difficulty = "intermediate"
	DifficultyAdvanced     Difficulty = "advanced"
)

// Valid reports whether d is one of the known difficulty levels.
func (d Difficulty) Valid() bool {
	switch d {
	case DifficultyBeginner, DifficultyIntermediate, DifficultyAdvanced:
		return true
	}
	return false
}

// ProjectIdea is one generated (or seeded) project suggestion. Newly
// generated ideas are prepended to the collection, never replacing existing
// entries.
type ProjectIdea struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Difficulty  Difficulty `json:"difficulty"`
	Tags        []string   `json:"tags"`
	CodeSnippet string     `json:"codeSnippet,omitempty"`
}

// DefaultProjectIdeas returns the seeded ideas shown before any generation.
func DefaultProjectIdeas() []ProjectIdea {
	return []ProjectIdea{
		{
			ID:          "1",
			Title:       "Personal Portfolio Website",
			Description: "Create a responsive portfolio to showcase your projects and skills. Perfect for beginners learning HTML, CSS, and JavaScript.",
			Difficulty:  DifficultyBeginner,
			Tags:        []string{"HTML", "CSS", "JavaScript", "Portfolio"},
			CodeSnippet: "<!DOCTYPE html>\n<html lang=\"en\">\n<head>\n  <meta charset=\"UTF-8\">\n  <title>My Portfolio</title>\n</head>\n<body>\n  <header>\n    <h1>Your Name</h1>\n    <nav>\n      <a href=\"#projects\">Projects</a>\n      <a href=\"#contact\">Contact</a>\n    </nav>\n  </header>\n</body>\n</html>",
		},
		{
			ID:          "2",
			Title:       "Task Management API",
			Description: "Build a RESTful API for managing tasks with authentication, CRUD operations, and database integration.",
			Difficulty:  DifficultyIntermediate,
			Tags:        []string{"Node.js", "Express", "MongoDB", "REST API"},
			CodeSnippet: "const express = require('express');\nconst app = express();\n\napp.use(express.json());\n\nlet tasks = [];\n\napp.get('/api/tasks', (req, res) => {\n  res.json(tasks);\n});\n\napp.post('/api/tasks', (req, res) => {\n  const task = { id: Date.now(), ...req.body };\n  tasks.push(task);\n  res.status(201).json(task);\n});\n\napp.listen(3000);",
		},
	}
}
