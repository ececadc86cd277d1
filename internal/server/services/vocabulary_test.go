package services

import (
	"context"
	"errors"
	"testing"

	"github.com/dmitrijs2005/studyshelf/internal/common"
	"github.com/dmitrijs2005/studyshelf/internal/server/seed"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVocabulary_SeedThenList(t *testing.T) {
	db, mock := newSQLMockDB(t)
	mock.ExpectBegin()
	mock.ExpectCommit()
	subs := &fakeSubjectsRepo{}
	svc := NewVocabularyService(db, &fakeRepoManager{s: subs}, testConfig(), testLogger)

	fixture, err := seed.Subjects()
	require.NoError(t, err)
	require.NoError(t, svc.Seed(context.Background(), fixture))
	require.NoError(t, mock.ExpectationsWereMet())
	assert.Len(t, subs.subjects, len(fixture))

	for year := 1; year <= 4; year++ {
		names, err := svc.Subjects(context.Background(), year)
		require.NoError(t, err)
		assert.NotEmpty(t, names, "year %d", year)
	}
}

func TestVocabulary_SeedRollsBackOnError(t *testing.T) {
	db, mock := newSQLMockDB(t)
	mock.ExpectBegin()
	mock.ExpectRollback()
	subs := &fakeSubjectsRepo{upsertErr: errors.New("boom")}
	svc := NewVocabularyService(db, &fakeRepoManager{s: subs}, testConfig(), testLogger)

	fixture, err := seed.Subjects()
	require.NoError(t, err)
	assert.Error(t, svc.Seed(context.Background(), fixture))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestVocabulary_Subjects(t *testing.T) {
	db, _ := newSQLMockDB(t)
	svc := NewVocabularyService(db, &fakeRepoManager{s: &fakeSubjectsRepo{}}, testConfig(), testLogger)

	names, err := svc.Subjects(context.Background(), 3)
	require.NoError(t, err)
	assert.NotNil(t, names)
	assert.Empty(t, names)

	_, err = svc.Subjects(context.Background(), 0)
	assert.ErrorIs(t, err, common.ErrorInvalidYear)
}
