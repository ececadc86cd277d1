package rest

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dmitrijs2005/studyshelf/internal/common"
	"github.com/dmitrijs2005/studyshelf/internal/server/services"
)

// errorBody is the JSON shape of every error response.
type errorBody struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, msg, details string) {
	writeJSON(w, status, errorBody{Error: msg, Details: details})
}

// cause returns the message of the error wrapped by a step error, so
// details never carry paths or ids.
func cause(err error) string {
	if inner := errors.Unwrap(err); inner != nil {
		return inner.Error()
	}
	return err.Error()
}

// classify maps a service error to a status code, a public message and
// optional details.
func classify(err error) (int, string, string) {
	var (
		unauth    *common.UnauthenticatedError
		malformed *common.MalformedRecordError
		fetch     *common.BlobFetchError
		upload    *common.BlobUploadError
		insert    *common.InsertError
		del       *common.DeleteError
		update    *common.UpdateError
	)

	switch {
	case errors.As(err, &unauth),
		errors.Is(err, common.ErrorUnauthorized),
		errors.Is(err, common.ErrInvalidToken),
		errors.Is(err, common.ErrTokenExpired),
		errors.Is(err, common.ErrRefreshTokenExpired):
		return http.StatusUnauthorized, "authentication required", ""
	case errors.Is(err, common.ErrorForbidden):
		return http.StatusForbidden, "not allowed", ""
	case errors.Is(err, common.ErrorNotPDF):
		return http.StatusBadRequest, "only PDF files are accepted", ""
	case services.IsRejection(err):
		return http.StatusBadRequest, "invalid request", err.Error()
	case errors.Is(err, common.ErrorAlreadyExists):
		return http.StatusConflict, "already exists", ""
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "upstream timed out", ""
	case errors.As(err, &fetch):
		return http.StatusBadGateway, "file is not available", cause(err)
	case errors.As(err, &upload):
		return http.StatusInternalServerError, "file upload failed", cause(err)
	case errors.As(err, &insert):
		return http.StatusInternalServerError, "saving document failed", cause(err)
	case errors.As(err, &del):
		return http.StatusInternalServerError, "delete failed", del.Step
	case errors.As(err, &update):
		return http.StatusInternalServerError, "update failed", ""
	case errors.Is(err, common.ErrorNotFound):
		return http.StatusNotFound, "not found", ""
	case errors.As(err, &malformed):
		return http.StatusInternalServerError, "catalog data is malformed", ""
	default:
		return http.StatusInternalServerError, "internal error", ""
	}
}
