package models

// Tutor is an entry of the static tutor directory.
type Tutor struct {
	ID          int          `json:"id"`
	Name        string       `json:"name"`
	Subject     string       `json:"subject"`
	Description string       `json:"description"`
	Image       string       `json:"image"`
	Contact     TutorContact `json:"contact"`
}

type TutorContact struct {
	Email string `json:"email"`
	Phone string `json:"phone"`
}
