package domain

// QuizDifficulty levels for exam mode.
type QuizDifficulty string

const (
	QuizEasy   QuizDifficulty = "easy"
	QuizMedium QuizDifficulty = "medium"
	QuizHard   QuizDifficulty = "hard"
)

// Valid reports whether d is one of the known quiz difficulty levels.
func (d QuizDifficulty) Valid() bool {
	switch d {
	case QuizEasy, QuizMedium, QuizHard:
		return true
	}
	return false
}

// QuestionCount returns how many questions an exam at this difficulty asks.
func (d QuizDifficulty) QuestionCount() int {
	switch d {
	case QuizEasy:
		return 5
	case QuizHard:
		return 10
	default:
		return 7
	}
}

// Options holds the four answer choices of a multiple-choice question.
type Options struct {
	A string `json:"A"`
	B string `json:"B"`
	C string `json:"C"`
	D string `json:"D"`
}

// Question is one generated multiple-choice exam question.
type Question struct {
	ID            int     `json:"id"`
	Question      string  `json:"question"`
	Options       Options `json:"options"`
	CorrectAnswer string  `json:"correctAnswer"`
	Explanation   string  `json:"explanation"`
}
