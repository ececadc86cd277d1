package rest

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/dmitrijs2005/studyshelf/internal/common"
	"github.com/dmitrijs2005/studyshelf/internal/server/services"
	"github.com/dmitrijs2005/studyshelf/internal/session"
)

// Multipart field names of the upload form.
const (
	fieldFile    = "pdfUpload"
	fieldYear    = "year"
	fieldSubject = "subject"
)

// multipartOverhead is the body allowance on top of the file size limit.
const multipartOverhead = 1 << 20

type uploadResponse struct {
	Success bool                   `json:"success"`
	Message string                 `json:"message"`
	File    *services.UploadedFile `json:"file"`
}

func (h *Handler) upload(w http.ResponseWriter, r *http.Request) {
	if _, err := session.FromContext(r.Context()).Require("upload"); err != nil {
		h.fail(w, r, err)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes+multipartOverhead)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.fail(w, r, fmt.Errorf("%w: file exceeds %d bytes", common.ErrorValidation, h.maxUploadBytes))
			return
		}
		h.fail(w, r, fmt.Errorf("%w: %v", common.ErrorValidation, err))
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	req := services.UploadRequest{
		Year:    r.FormValue(fieldYear),
		Subject: r.FormValue(fieldSubject),
	}
	file, header, err := r.FormFile(fieldFile)
	if err == nil {
		defer file.Close()
		req.Body = file
		req.FileName = header.Filename
		req.ContentType = header.Header.Get("Content-Type")
		req.Size = header.Size
	}

	res, err := h.svc.Uploads.Upload(r.Context(), req)
	if err != nil {
		if res != nil && res.Log != nil {
			h.logger.Warn(r.Context(), "upload saga stopped", "saga", res.Log.ID, "steps", res.Log.Steps)
		}
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, uploadResponse{Success: true, Message: "file uploaded", File: res.File})
}
