package domain

// Education is one entry in the resume's education section.
type Education struct {
	School string `json:"school"`
	Degree string `json:"degree"`
	Year   string `json:"year"`
}

// Experience is one entry in the resume's experience section.
type Experience struct {
	Company     string `json:"company"`
	Role        string `json:"role"`
	Duration    string `json:"duration"`
	Description string `json:"description"`
}

// ResumeData is the single resume record for a user. Edits replace the whole
// record; the storage layer never patches sub-fields.
type ResumeData struct {
	Name       string       `json:"name"`
	Email      string       `json:"email"`
	Phone      string       `json:"phone"`
	Summary    string       `json:"summary"`
	Education  []Education  `json:"education"`
	Experience []Experience `json:"experience"`
	Skills     []string     `json:"skills"`
}

// EmptyResume returns the default zero resume record.
func EmptyResume() ResumeData {
	return ResumeData{
		Education:  []Education{},
		Experience: []Experience{},
		Skills:     []string{},
	}
}
