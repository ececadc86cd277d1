package rest

import (
	"bytes"
	"context"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"sync"
	"testing"

	"github.com/dmitrijs2005/studyshelf/internal/common"
	"github.com/dmitrijs2005/studyshelf/internal/logging"
	"github.com/dmitrijs2005/studyshelf/internal/server/models"
	"github.com/dmitrijs2005/studyshelf/internal/server/services"
	"github.com/dmitrijs2005/studyshelf/internal/session"
)

const (
	testUser  = "7d1f2c9e-0000-4000-8000-000000000001"
	testToken = "good-token"
	testDocID = "3b0b6c1e-5d1a-4f57-9b43-8a4b8f2f6a10"
)

type fakeUsers struct {
	mu        sync.Mutex
	pair      *services.TokenPair
	err       error
	signedOut []string
}

func (f *fakeUsers) Authenticate(token string) (string, error) {
	if token == testToken {
		return testUser, nil
	}
	return "", common.ErrInvalidToken
}

func (f *fakeUsers) Register(ctx context.Context, c services.Credentials) (*models.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &models.User{ID: testUser, UserName: c.UserName}, nil
}

func (f *fakeUsers) Login(ctx context.Context, c services.Credentials) (*services.TokenPair, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.pair, nil
}

func (f *fakeUsers) RefreshToken(ctx context.Context, token string) (*services.TokenPair, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.pair, nil
}

func (f *fakeUsers) SignOut(ctx context.Context, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.signedOut = append(f.signedOut, userID)
	return f.err
}

type fakeCatalog struct {
	listing *services.Listing
	year    *services.YearListing
	query   string
	err     error
}

func (f *fakeCatalog) List(ctx context.Context, q string) (*services.Listing, error) {
	f.query = q
	return f.listing, f.err
}

func (f *fakeCatalog) Year(ctx context.Context, year int) (*services.YearListing, error) {
	return f.year, f.err
}

type fakeDownloads struct {
	content    []byte
	count      int64
	counterErr error
	err        error
	calls      int
}

func (f *fakeDownloads) Download(ctx context.Context, id string, deliver services.DeliverFunc) (*services.DownloadOutcome, error) {
	f.calls++
	out := &services.DownloadOutcome{DocumentID: id}
	if _, err := session.FromContext(ctx).Require("download"); err != nil {
		return out, err
	}
	if f.err != nil {
		return out, f.err
	}
	deliver(models.Document{ID: id, Title: "บทที่ 1 notes.pdf"}, f.content)
	out.Delivered = true
	out.Count = f.count
	out.CounterErr = f.counterErr
	return out, nil
}

type fakeUploads struct {
	got    services.UploadRequest
	body   []byte
	calls  int
	result *services.UploadResult
	err    error
}

func (f *fakeUploads) Upload(ctx context.Context, req services.UploadRequest) (*services.UploadResult, error) {
	f.calls++
	f.got = req
	if req.Body != nil {
		f.body, _ = io.ReadAll(req.Body)
	}
	if f.err != nil {
		return &services.UploadResult{Log: &services.SagaLog{ID: "saga"}}, f.err
	}
	return f.result, nil
}

type fakeDocuments struct {
	deleted []string
	profile *services.Profile
	err     error
}

func (f *fakeDocuments) Delete(ctx context.Context, id string) error {
	if f.err != nil {
		return f.err
	}
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeDocuments) Profile(ctx context.Context) (*services.Profile, error) {
	if _, err := session.FromContext(ctx).Require("profile"); err != nil {
		return nil, err
	}
	return f.profile, f.err
}

type fakeVocabulary struct{}

func (fakeVocabulary) Subjects(ctx context.Context, year int) ([]string, error) {
	if year < 1 || year > 4 {
		return nil, common.ErrorInvalidYear
	}
	return []string{"Calculus", "Physics"}, nil
}

type fakeTutors struct{}

func (fakeTutors) List() []models.Tutor {
	return []models.Tutor{{ID: 1, Name: "Somchai", Subject: "Physics"}}
}

type fakePinger struct{ err error }

func (f fakePinger) PingContext(context.Context) error { return f.err }

type fixture struct {
	users     *fakeUsers
	catalog   *fakeCatalog
	downloads *fakeDownloads
	uploads   *fakeUploads
	documents *fakeDocuments
	pinger    *fakePinger
	handler   http.Handler
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		users:     &fakeUsers{pair: &services.TokenPair{AccessToken: testToken, RefreshToken: "r1"}},
		catalog:   &fakeCatalog{},
		downloads: &fakeDownloads{content: []byte("%PDF-1.7"), count: 42},
		uploads:   &fakeUploads{},
		documents: &fakeDocuments{},
		pinger:    &fakePinger{},
	}
	f.handler = f.build(1 << 20)
	return f
}

func (f *fixture) build(maxUpload int64) http.Handler {
	h := NewHandler(Services{
		Users:      f.users,
		Catalog:    f.catalog,
		Downloads:  f.downloads,
		Uploads:    f.uploads,
		Documents:  f.documents,
		Vocabulary: fakeVocabulary{},
		Tutors:     fakeTutors{},
		Ready:      f.pinger,
	}, maxUpload, 0, logging.Discard())
	return h.Router()
}

func authed(r *http.Request) *http.Request {
	r.Header.Set("Authorization", "Bearer "+testToken)
	return r
}

// multipartBody builds the upload form; an empty fileName omits the file.
func multipartBody(t *testing.T, fileName, contentType string, content []byte, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatal(err)
		}
	}
	if fileName != "" {
		hdr := textproto.MIMEHeader{}
		hdr.Set("Content-Disposition", `form-data; name="pdfUpload"; filename="`+fileName+`"`)
		hdr.Set("Content-Type", contentType)
		part, err := mw.CreatePart(hdr)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := part.Write(content); err != nil {
			t.Fatal(err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatal(err)
	}
	return &buf, mw.FormDataContentType()
}

var errBoom = errors.New("boom")
