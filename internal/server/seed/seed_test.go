package seed

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubjects_Embedded(t *testing.T) {
	subjects, err := Subjects()
	require.NoError(t, err)

	perYear := map[int]int{}
	for _, s := range subjects {
		perYear[s.Year]++
	}
	assert.Equal(t, map[int]int{1: 11, 2: 10, 3: 5, 4: 4}, perYear)

	assert.Equal(t, "calculus 1", subjects[0].Name)
	assert.Equal(t, 0, subjects[0].Position)
}

func TestParseSubjects_Rejects(t *testing.T) {
	tests := map[string]string{
		"bad yaml":   "years: [",
		"year zero":  "years:\n  - year: 0\n    subjects: [a]\n",
		"year five":  "years:\n  - year: 5\n    subjects: [a]\n",
		"duplicates": "years:\n  - year: 1\n    subjects: [a, a]\n",
	}
	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ParseSubjects([]byte(doc))
			assert.Error(t, err)
		})
	}
}

func TestTutors_Embedded(t *testing.T) {
	tutors, err := Tutors()
	require.NoError(t, err)
	require.NotEmpty(t, tutors)
	for _, tu := range tutors {
		assert.NotEmpty(t, tu.Name)
		assert.NotEmpty(t, tu.Contact.Email)
	}
}

func TestParseTutors_Invalid(t *testing.T) {
	_, err := ParseTutors([]byte(`{"id":1}`))
	assert.Error(t, err)
}
