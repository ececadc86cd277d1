package services

import (
	"fmt"
	"os"

	"github.com/dmitrijs2005/studyshelf/internal/server/models"
	"github.com/dmitrijs2005/studyshelf/internal/server/seed"
)

// TutorService serves the static tutor listing.
type TutorService struct {
	tutors []models.Tutor
}

// NewTutorService loads tutors from path, or from the built-in list when
// path is empty.
func NewTutorService(path string) (*TutorService, error) {
	if path == "" {
		t, err := seed.Tutors()
		if err != nil {
			return nil, err
		}
		return &TutorService{tutors: t}, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read tutors file: %w", err)
	}
	t, err := seed.ParseTutors(data)
	if err != nil {
		return nil, fmt.Errorf("parse tutors file %s: %w", path, err)
	}
	return &TutorService{tutors: t}, nil
}

func (s *TutorService) List() []models.Tutor {
	return s.tutors
}
