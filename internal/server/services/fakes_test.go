package services

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"io"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/studyshelf/internal/common"
	"github.com/dmitrijs2005/studyshelf/internal/dbx"
	"github.com/dmitrijs2005/studyshelf/internal/logging"
	"github.com/dmitrijs2005/studyshelf/internal/server/blob"
	"github.com/dmitrijs2005/studyshelf/internal/server/config"
	"github.com/dmitrijs2005/studyshelf/internal/server/models"
	"github.com/dmitrijs2005/studyshelf/internal/server/repositories/documents"
	"github.com/dmitrijs2005/studyshelf/internal/server/repositories/refreshtokens"
	"github.com/dmitrijs2005/studyshelf/internal/server/repositories/subjects"
	"github.com/dmitrijs2005/studyshelf/internal/server/repositories/users"
	"github.com/dmitrijs2005/studyshelf/internal/session"
)

// --- helpers ---

func newSQLMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

func testConfig() *config.Config {
	return &config.Config{
		SecretKey:                    "k",
		AccessTokenValidityDuration:  time.Hour,
		RefreshTokenValidityDuration: 2 * time.Hour,
		CacheSize:                    4,
		CacheTTL:                     time.Minute,
		RemoteCallTimeout:            time.Second,
		MaxUploadBytes:               1 << 20,
	}
}

func signedIn(userID string) context.Context {
	return session.NewContext(context.Background(), session.NewAuthenticated(session.Identity{UserID: userID}))
}

var testLogger logging.Logger = logging.Discard()

// --- users ---

type fakeUsersRepo struct {
	mu      sync.Mutex
	byName  map[string]*models.User
	created int
	err     error
}

func newFakeUsersRepo() *fakeUsersRepo {
	return &fakeUsersRepo{byName: map[string]*models.User{}}
}

func (f *fakeUsersRepo) Create(ctx context.Context, u *models.User) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	if _, ok := f.byName[u.UserName]; ok {
		return nil, common.ErrorAlreadyExists
	}
	f.created++
	cp := *u
	cp.ID = fmt.Sprintf("user-%d", f.created)
	cp.CreatedAt = time.Now()
	f.byName[u.UserName] = &cp
	return &cp, nil
}

func (f *fakeUsersRepo) GetUserByLogin(ctx context.Context, login string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	u, ok := f.byName[login]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return u, nil
}

func (f *fakeUsersRepo) GetByID(ctx context.Context, id string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.byName {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, common.ErrorNotFound
}

// --- refresh tokens ---

type fakeRefreshRepo struct {
	mu        sync.Mutex
	tokens    map[string]models.RefreshToken
	findErr   error
	delErr    error
	createErr error
}

func newFakeRefreshRepo() *fakeRefreshRepo {
	return &fakeRefreshRepo{tokens: map[string]models.RefreshToken{}}
}

func (f *fakeRefreshRepo) Create(ctx context.Context, userID string, token string, expiresAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	f.tokens[token] = models.RefreshToken{UserID: userID, Token: token, Expires: expiresAt}
	return nil
}

func (f *fakeRefreshRepo) Find(ctx context.Context, token string) (*models.RefreshToken, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.findErr != nil {
		return nil, f.findErr
	}
	t, ok := f.tokens[token]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return &t, nil
}

func (f *fakeRefreshRepo) Delete(ctx context.Context, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.delErr != nil {
		return f.delErr
	}
	delete(f.tokens, token)
	return nil
}

func (f *fakeRefreshRepo) DeleteByUser(ctx context.Context, userID string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.delErr != nil {
		return 0, f.delErr
	}
	var n int64
	for k, t := range f.tokens {
		if t.UserID == userID {
			delete(f.tokens, k)
			n++
		}
	}
	return n, nil
}

// --- subjects ---

type fakeSubjectsRepo struct {
	mu        sync.Mutex
	subjects  []models.Subject
	upsertErr error
	existsErr error
}

func (f *fakeSubjectsRepo) ListByYear(ctx context.Context, year int) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, s := range f.subjects {
		if s.Year == year {
			out = append(out, s.Name)
		}
	}
	return out, nil
}

func (f *fakeSubjectsRepo) ListAll(ctx context.Context) ([]models.Subject, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.subjects), nil
}

func (f *fakeSubjectsRepo) Exists(ctx context.Context, year int, name string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.existsErr != nil {
		return false, f.existsErr
	}
	return slices.ContainsFunc(f.subjects, func(s models.Subject) bool {
		return s.Year == year && s.Name == name
	}), nil
}

func (f *fakeSubjectsRepo) Upsert(ctx context.Context, s models.Subject) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.upsertErr != nil {
		return f.upsertErr
	}
	f.subjects = append(f.subjects, s)
	return nil
}

// --- documents ---

// readBarrier blocks the first parties readers until all of them arrived,
// so concurrent increments are forced to read the same value.
type readBarrier struct {
	mu      sync.Mutex
	parties int
	arrived int
	ch      chan struct{}
}

func newReadBarrier(parties int) *readBarrier {
	return &readBarrier{parties: parties, ch: make(chan struct{})}
}

func (b *readBarrier) wait() {
	b.mu.Lock()
	if b.arrived >= b.parties {
		b.mu.Unlock()
		return
	}
	b.arrived++
	if b.arrived == b.parties {
		close(b.ch)
	}
	b.mu.Unlock()
	<-b.ch
}

type fakeDocumentsRepo struct {
	mu      sync.Mutex
	order   []string
	docs    map[string]*models.Document
	seq     int
	calls   int
	listAll int
	barrier *readBarrier
	// insertHook runs before Insert looks at ctx.
	insertHook func()

	listErr   error
	insertErr error
	deleteErr error
	incErr    error
}

var _ documents.Repository = (*fakeDocumentsRepo)(nil)

func newFakeDocumentsRepo(docs ...models.Document) *fakeDocumentsRepo {
	f := &fakeDocumentsRepo{docs: map[string]*models.Document{}}
	for _, d := range docs {
		cp := d
		f.docs[d.ID] = &cp
		f.order = append(f.order, d.ID)
	}
	return f
}

func (f *fakeDocumentsRepo) count(id string) int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.docs[id].DownloadCount
}

func (f *fakeDocumentsRepo) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func (f *fakeDocumentsRepo) collect(keep func(models.Document) bool) []models.Document {
	out := []models.Document{}
	for _, id := range f.order {
		if d, ok := f.docs[id]; ok && keep(*d) {
			out = append(out, *d)
		}
	}
	return out
}

func (f *fakeDocumentsRepo) ListAll(ctx context.Context) ([]models.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.listAll++
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.collect(func(models.Document) bool { return true }), nil
}

func (f *fakeDocumentsRepo) ListByYear(ctx context.Context, year int) ([]models.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.collect(func(d models.Document) bool { return d.Year == year }), nil
}

func (f *fakeDocumentsRepo) ListByOwner(ctx context.Context, ownerID string) ([]models.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.collect(func(d models.Document) bool { return d.OwnerID == ownerID }), nil
}

func (f *fakeDocumentsRepo) GetByID(ctx context.Context, id string) (*models.Document, error) {
	f.mu.Lock()
	f.calls++
	d, ok := f.docs[id]
	var cp models.Document
	if ok {
		cp = *d
	}
	b := f.barrier
	f.mu.Unlock()

	if b != nil {
		b.wait()
	}
	if !ok {
		return nil, common.ErrorNotFound
	}
	return &cp, nil
}

func (f *fakeDocumentsRepo) Insert(ctx context.Context, doc *models.Document) (*models.Document, error) {
	if f.insertHook != nil {
		f.insertHook()
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.insertErr != nil {
		return nil, f.insertErr
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f.seq++
	cp := *doc
	cp.ID = fmt.Sprintf("doc-%d", f.seq)
	cp.CreatedAt = time.Now()
	f.docs[cp.ID] = &cp
	f.order = append([]string{cp.ID}, f.order...)
	out := cp
	return &out, nil
}

func (f *fakeDocumentsRepo) Delete(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.deleteErr != nil {
		return f.deleteErr
	}
	if _, ok := f.docs[id]; !ok {
		return common.ErrorNotFound
	}
	delete(f.docs, id)
	return nil
}

func (f *fakeDocumentsRepo) SetDownloadCount(ctx context.Context, id string, count int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.incErr != nil {
		return f.incErr
	}
	d, ok := f.docs[id]
	if !ok {
		return common.ErrorNotFound
	}
	d.DownloadCount = count
	return nil
}

func (f *fakeDocumentsRepo) IncrementDownloadCount(ctx context.Context, id string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if f.incErr != nil {
		return 0, f.incErr
	}
	d, ok := f.docs[id]
	if !ok {
		return 0, common.ErrorNotFound
	}
	d.DownloadCount++
	return d.DownloadCount, nil
}

func (f *fakeDocumentsRepo) CompareAndSwapDownloadCount(ctx context.Context, id string, expected, next int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.incErr != nil {
		return f.incErr
	}
	d, ok := f.docs[id]
	if !ok || d.DownloadCount != expected {
		return common.ErrVersionConflict
	}
	d.DownloadCount = next
	return nil
}

// --- manager ---

type fakeRepoManager struct {
	u *fakeUsersRepo
	r *fakeRefreshRepo
	d *fakeDocumentsRepo
	s *fakeSubjectsRepo
}

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error       { return nil }
func (m *fakeRepoManager) Users(db dbx.DBTX) users.Repository                 { return m.u }
func (m *fakeRepoManager) RefreshTokens(db dbx.DBTX) refreshtokens.Repository { return m.r }
func (m *fakeRepoManager) Documents(db dbx.DBTX) documents.Repository         { return m.d }
func (m *fakeRepoManager) Subjects(db dbx.DBTX) subjects.Repository           { return m.s }

// --- blob store ---

// faultyStore wraps a MemoryStore with injectable failures and call counts.
type faultyStore struct {
	*blob.MemoryStore
	mu          sync.Mutex
	uploadErr   error
	downloadErr error
	removeErr   error
	blockFetch  bool
	calls       int
}

func newFaultyStore() *faultyStore {
	return &faultyStore{MemoryStore: blob.NewMemoryStore("http://files.test/pdfs")}
}

func (s *faultyStore) hit() {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
}

func (s *faultyStore) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func (s *faultyStore) Upload(ctx context.Context, path string, r io.Reader, size int64, contentType string) error {
	s.hit()
	if s.uploadErr != nil {
		return s.uploadErr
	}
	return s.MemoryStore.Upload(ctx, path, r, size, contentType)
}

func (s *faultyStore) Download(ctx context.Context, path string) ([]byte, error) {
	s.hit()
	if s.blockFetch {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if s.downloadErr != nil {
		return nil, s.downloadErr
	}
	return s.MemoryStore.Download(ctx, path)
}

func (s *faultyStore) Remove(ctx context.Context, path string) error {
	s.hit()
	if s.removeErr != nil {
		return s.removeErr
	}
	return s.MemoryStore.Remove(ctx, path)
}

// putBlob seeds a blob without counting a call.
func (s *faultyStore) putBlob(t *testing.T, path string, content []byte) {
	t.Helper()
	if err := s.MemoryStore.Upload(context.Background(), path, bytes.NewReader(content), int64(len(content)), common.PDFContentType); err != nil {
		t.Fatalf("seed blob: %v", err)
	}
}
