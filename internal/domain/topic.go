package domain

// TopicStatus tracks how far a study topic has progressed. Transitions only
// move forward: selecting a not_started topic moves it to in_progress; the
// completed transition belongs to the external quiz flow.
type TopicStatus string

const (
	TopicNotStarted TopicStatus = "not_started"
	TopicInProgress TopicStatus = "in_progress"
	TopicCompleted  TopicStatus = "completed"
)

// StartingProgress is the progress percentage assigned when a topic is first
// selected.
const StartingProgress = 10

// Topic is a study-tracker entry. Progress stays within [0,100].
type Topic struct {
	ID       string      `json:"id"`
	Name     string      `json:"name"`
	Subject  string      `json:"subject"`
	Status   TopicStatus `json:"status"`
	Progress int         `json:"progress"`
}

// Started reports whether the topic has been started or completed. Only
// started topics are eligible for quizzing.
func (t Topic) Started() bool {
	return t.Status == TopicInProgress || t.Status == TopicCompleted
}

// DefaultTopics returns the seeded study curriculum used when a user has no
// persisted topics yet.
func DefaultTopics() []Topic {
	return []Topic{
		{ID: "1", Name: "Linear Algebra", Subject: "math", Status: TopicNotStarted, Progress: 0},
		{ID: "2", Name: "Calculus", Subject: "math", Status: TopicInProgress, Progress: 45},
		{ID: "3", Name: "Probability", Subject: "math", Status: TopicCompleted, Progress: 100},
		{ID: "4", Name: "Mechanics", Subject: "physics", Status: TopicNotStarted, Progress: 0},
		{ID: "5", Name: "Thermodynamics", Subject: "physics", Status: TopicInProgress, Progress: 30},
		{ID: "6", Name: "Data Structures", Subject: "cs", Status: TopicCompleted, Progress: 100},
		{ID: "7", Name: "Algorithms", Subject: "cs", Status: TopicInProgress, Progress: 60},
		{ID: "8", Name: "Operating Systems", Subject: "cs", Status: TopicNotStarted, Progress: 0},
	}
}
