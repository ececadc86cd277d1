package rest

import (
	"mime"
	"net/http"
	"strconv"

	"github.com/dmitrijs2005/studyshelf/internal/common"
	"github.com/dmitrijs2005/studyshelf/internal/server/models"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// DownloadCountTrailer carries the stored count after a download.
const DownloadCountTrailer = common.DownloadCountTrailer

type homeResponse struct {
	Featured  []models.Document `json:"featured"`
	Remainder []models.Document `json:"remainder"`
}

type searchResponse struct {
	Query   string            `json:"query"`
	Results []models.Document `json:"results"`
}

func (h *Handler) listDocuments(w http.ResponseWriter, r *http.Request) {
	l, err := h.svc.Catalog.List(r.Context(), r.URL.Query().Get("s"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if l.Search {
		writeJSON(w, http.StatusOK, searchResponse{Query: l.Query, Results: l.Results})
		return
	}
	writeJSON(w, http.StatusOK, homeResponse{Featured: l.Featured, Remainder: l.Remainder})
}

func (h *Handler) yearListing(w http.ResponseWriter, r *http.Request) {
	year, err := strconv.Atoi(chi.URLParam(r, "year"))
	if err != nil {
		h.fail(w, r, common.ErrorInvalidYear)
		return
	}
	yl, err := h.svc.Catalog.Year(r.Context(), year)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, yl)
}

// documentID returns the {id} parameter when it is a well-formed id.
func documentID(r *http.Request) (string, bool) {
	id := chi.URLParam(r, "id")
	if _, err := uuid.Parse(id); err != nil {
		return "", false
	}
	return id, true
}

func (h *Handler) download(w http.ResponseWriter, r *http.Request) {
	id, ok := documentID(r)
	if !ok {
		h.fail(w, r, &common.NotFoundError{ID: chi.URLParam(r, "id")})
		return
	}

	w.Header().Set("Trailer", DownloadCountTrailer)
	out, err := h.svc.Downloads.Download(r.Context(), id, func(doc models.Document, content []byte) {
		w.Header().Set("Content-Type", common.PDFContentType)
		w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": doc.Title}))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(content)
	})
	if err != nil {
		w.Header().Del("Trailer")
		h.fail(w, r, err)
		return
	}
	if out.CounterErr == nil {
		w.Header().Set(DownloadCountTrailer, strconv.FormatInt(out.Count, 10))
	}
}

func (h *Handler) deleteDocument(w http.ResponseWriter, r *http.Request) {
	id, ok := documentID(r)
	if !ok {
		h.fail(w, r, &common.NotFoundError{ID: chi.URLParam(r, "id")})
		return
	}
	if err := h.svc.Documents.Delete(r.Context(), id); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) profile(w http.ResponseWriter, r *http.Request) {
	p, err := h.svc.Documents.Profile(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *Handler) subjects(w http.ResponseWriter, r *http.Request) {
	year, err := strconv.Atoi(r.URL.Query().Get("year"))
	if err != nil {
		h.fail(w, r, common.ErrorInvalidYear)
		return
	}
	names, err := h.svc.Vocabulary.Subjects(r.Context(), year)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"year": year, "subjects": names})
}

func (h *Handler) tutors(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.Tutors.List())
}
