// Package seed embeds the reference data loaded into a fresh database: the
// per-year subject vocabulary and the default tutor directory.
package seed

import (
	_ "embed"
	"encoding/json"
	"fmt"

	"github.com/dmitrijs2005/studyshelf/internal/server/models"
	"gopkg.in/yaml.v3"
)

//go:embed subjects.yaml
var subjectsYAML []byte

//go:embed tutors.json
var tutorsJSON []byte

type vocabularyFile struct {
	Years []struct {
		Year     int      `yaml:"year"`
		Subjects []string `yaml:"subjects"`
	} `yaml:"years"`
}

// Subjects returns the embedded vocabulary as rows ready for insertion.
func Subjects() ([]models.Subject, error) {
	return ParseSubjects(subjectsYAML)
}

// ParseSubjects decodes a vocabulary document. Position follows list order
// within each year. Duplicate names inside a year and years outside 1..4 are
// rejected.
func ParseSubjects(data []byte) ([]models.Subject, error) {
	var f vocabularyFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse subjects: %w", err)
	}

	var out []models.Subject
	for _, y := range f.Years {
		if y.Year < 1 || y.Year > 4 {
			return nil, fmt.Errorf("parse subjects: year %d out of range", y.Year)
		}
		seen := make(map[string]struct{}, len(y.Subjects))
		for i, name := range y.Subjects {
			if _, dup := seen[name]; dup {
				return nil, fmt.Errorf("parse subjects: duplicate %q in year %d", name, y.Year)
			}
			seen[name] = struct{}{}
			out = append(out, models.Subject{Year: y.Year, Name: name, Position: i})
		}
	}
	return out, nil
}

// Tutors returns the embedded tutor directory.
func Tutors() ([]models.Tutor, error) {
	return ParseTutors(tutorsJSON)
}

func ParseTutors(data []byte) ([]models.Tutor, error) {
	var tutors []models.Tutor
	if err := json.Unmarshal(data, &tutors); err != nil {
		return nil, fmt.Errorf("parse tutors: %w", err)
	}
	return tutors, nil
}
