package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrijs2005/studyshelf/internal/catalog"
	"github.com/dmitrijs2005/studyshelf/internal/common"
	"github.com/dmitrijs2005/studyshelf/internal/logging"
	"github.com/dmitrijs2005/studyshelf/internal/server/blob"
	"github.com/dmitrijs2005/studyshelf/internal/server/config"
	"github.com/dmitrijs2005/studyshelf/internal/server/models"
	"github.com/dmitrijs2005/studyshelf/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/studyshelf/internal/session"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// fallbackFileName replaces a name that sanitizes to nothing.
const fallbackFileName = "document.pdf"

var (
	unsafeFileChars = regexp.MustCompile(`[^a-zA-Z0-9._-]`)
	repeatedUnders  = regexp.MustCompile(`_{2,}`)
)

// SanitizeFileName keeps ASCII letters, digits, dot, dash and underscore,
// collapses underscore runs and trims underscores at both ends.
func SanitizeFileName(name string) string {
	s := unsafeFileChars.ReplaceAllString(name, "_")
	s = repeatedUnders.ReplaceAllString(s, "_")
	s = strings.Trim(s, "_")
	if s == "" {
		return fallbackFileName
	}
	return s
}

// ParseYear accepts "Year N" or "N" for an academic year 1..4.
func ParseYear(v string) (int, error) {
	v = strings.TrimSpace(v)
	v = strings.TrimSpace(strings.TrimPrefix(v, "Year"))
	n, err := strconv.Atoi(v)
	if err != nil || !catalog.ValidYear(n) {
		return 0, common.ErrorInvalidYear
	}
	return n, nil
}

// UploadRequest is one submission of the upload form.
type UploadRequest struct {
	Year        string `validate:"required,max=16"`
	Subject     string `validate:"required,max=200"`
	FileName    string `validate:"required,max=255"`
	ContentType string `validate:"required"`
	Size        int64  `validate:"gt=0"`
	Body        io.Reader
}

// SagaStep is one entry of the upload step log.
type SagaStep struct {
	Name   string    `json:"name"`
	Status string    `json:"status"`
	Error  string    `json:"error,omitempty"`
	At     time.Time `json:"at"`
}

// Step statuses.
const (
	StepOK                 = "ok"
	StepFailed             = "failed"
	StepCompensated        = "compensated"
	StepCompensationFailed = "compensation_failed"
)

// SagaLog is the ordered record of what an upload did.
type SagaLog struct {
	ID    string     `json:"id"`
	Steps []SagaStep `json:"steps"`
}

func (l *SagaLog) record(name, status string, err error) {
	st := SagaStep{Name: name, Status: status, At: time.Now()}
	if err != nil {
		st.Error = err.Error()
	}
	l.Steps = append(l.Steps, st)
}

// UploadedFile is returned on success.
type UploadedFile struct {
	Path string `json:"path"`
	URL  string `json:"url"`
	Name string `json:"name"`
}

// UploadResult carries the outcome of the saga. File and Document are set
// only on success; Log is always set.
type UploadResult struct {
	File     *UploadedFile
	Document *models.Document
	Log      *SagaLog
}

// UploadService writes the blob, then the row, and removes the blob again
// when the row cannot be written.
type UploadService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	blobs       blob.Store
	catalog     interface{ Invalidate() }
	validate    *validator.Validate
	logger      logging.Logger
	timeout     time.Duration
	maxBytes    int64
	now         func() time.Time
}

func NewUploadService(db *sql.DB, m repomanager.RepositoryManager, blobs blob.Store, c interface{ Invalidate() }, cfg *config.Config, l logging.Logger) *UploadService {
	return &UploadService{
		db:          db,
		repomanager: m,
		blobs:       blobs,
		catalog:     c,
		validate:    validator.New(validator.WithRequiredStructEnabled()),
		logger:      l.With("module", "upload_service"),
		timeout:     cfg.RemoteCallTimeout,
		maxBytes:    cfg.MaxUploadBytes,
		now:         time.Now,
	}
}

// check validates req and resolves its year. Nothing is written.
func (s *UploadService) check(ctx context.Context, req UploadRequest) (int, error) {
	if req.Body == nil {
		return 0, fmt.Errorf("%w: file is required", common.ErrorValidation)
	}
	if err := s.validate.Struct(req); err != nil {
		return 0, fmt.Errorf("%w: %v", common.ErrorValidation, err)
	}
	if req.ContentType != common.PDFContentType {
		return 0, common.ErrorNotPDF
	}
	if s.maxBytes > 0 && req.Size > s.maxBytes {
		return 0, fmt.Errorf("%w: file exceeds %d bytes", common.ErrorValidation, s.maxBytes)
	}

	year, err := ParseYear(req.Year)
	if err != nil {
		return 0, err
	}
	ok, err := callWithTimeout(ctx, s.timeout, func(ctx context.Context) (bool, error) {
		return s.repomanager.Subjects(s.db).Exists(ctx, year, req.Subject)
	})
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, common.ErrorUnknownSubject
	}
	return year, nil
}

// Upload runs the saga for the signed-in user of ctx.
func (s *UploadService) Upload(ctx context.Context, req UploadRequest) (*UploadResult, error) {
	res := &UploadResult{Log: &SagaLog{ID: uuid.NewString()}}

	id, err := session.FromContext(ctx).Require("upload")
	if err != nil {
		uploadsTotal.WithLabelValues("unauthenticated").Inc()
		return res, err
	}

	year, err := s.check(ctx, req)
	if err != nil {
		res.Log.record("validate", StepFailed, err)
		uploadsTotal.WithLabelValues("rejected").Inc()
		return res, err
	}
	res.Log.record("validate", StepOK, nil)

	name := fmt.Sprintf("%d_%s", s.now().UnixMilli(), SanitizeFileName(req.FileName))
	path := id.UserID + "/" + name

	err = execWithTimeout(ctx, s.timeout, func(ctx context.Context) error {
		return s.blobs.Upload(ctx, path, req.Body, req.Size, common.PDFContentType)
	})
	if err != nil {
		err = &common.BlobUploadError{Path: path, Err: err}
		res.Log.record("upload_blob", StepFailed, err)
		uploadsTotal.WithLabelValues("blob_failed").Inc()
		s.logger.Error(ctx, "upload failed", "saga", res.Log.ID, "path", path, "error", err)
		return res, err
	}
	res.Log.record("upload_blob", StepOK, nil)

	doc, err := callWithTimeout(ctx, s.timeout, func(ctx context.Context) (*models.Document, error) {
		return s.repomanager.Documents(s.db).Insert(ctx, &models.Document{
			Year:     year,
			Subject:  req.Subject,
			Title:    req.FileName,
			FilePath: path,
			FileSize: req.Size,
			OwnerID:  id.UserID,
		})
	})
	if err != nil {
		err = &common.InsertError{Path: path, Err: err}
		res.Log.record("insert_row", StepFailed, err)
		s.compensate(ctx, res.Log, path)
		uploadsTotal.WithLabelValues("insert_failed").Inc()
		s.logger.Error(ctx, "upload failed", "saga", res.Log.ID, "path", path, "error", err)
		return res, err
	}
	res.Log.record("insert_row", StepOK, nil)

	s.catalog.Invalidate()
	res.Document = doc
	res.File = &UploadedFile{Path: path, URL: s.blobs.PublicURL(path), Name: name}
	uploadsTotal.WithLabelValues("ok").Inc()
	s.logger.Info(ctx, "document uploaded", "saga", res.Log.ID, "id", doc.ID, "path", path, "size", req.Size)
	return res, nil
}

// compensate removes the blob of a failed upload. Its own failure is only
// logged; the caller still reports the insert error.
func (s *UploadService) compensate(ctx context.Context, log *SagaLog, path string) {
	// the request may already be cancelled; removal must still be attempted
	ctx = context.WithoutCancel(ctx)
	err := execWithTimeout(ctx, s.timeout, func(ctx context.Context) error {
		return s.blobs.Remove(ctx, path)
	})
	if err != nil {
		log.record("remove_blob", StepCompensationFailed, err)
		compensationsTotal.WithLabelValues("failed").Inc()
		s.logger.Error(ctx, "compensating blob removal failed, blob orphaned", "saga", log.ID, "path", path, "error", err)
		return
	}
	log.record("remove_blob", StepCompensated, nil)
	compensationsTotal.WithLabelValues("ok").Inc()
}

// IsRejection reports whether err is an input problem rather than a failure
// of a step.
func IsRejection(err error) bool {
	return errors.Is(err, common.ErrorValidation) ||
		errors.Is(err, common.ErrorNotPDF) ||
		errors.Is(err, common.ErrorInvalidYear) ||
		errors.Is(err, common.ErrorUnknownSubject)
}
