package rest

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/dmitrijs2005/studyshelf/internal/common"
	"github.com/dmitrijs2005/studyshelf/internal/server/services"
	"github.com/dmitrijs2005/studyshelf/internal/session"
)

const maxAuthBody = 1 << 16

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxAuthBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: %v", common.ErrorValidation, err)
	}
	return nil
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	var c services.Credentials
	if err := decodeJSON(w, r, &c); err != nil {
		h.fail(w, r, err)
		return
	}
	u, err := h.svc.Users.Register(r.Context(), c)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"id": u.ID, "username": u.UserName})
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var c services.Credentials
	if err := decodeJSON(w, r, &c); err != nil {
		h.fail(w, r, err)
		return
	}
	pair, err := h.svc.Users.Login(r.Context(), c)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.signIn(w, r, pair)
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

func (h *Handler) refresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	if req.RefreshToken == "" {
		h.fail(w, r, fmt.Errorf("%w: refresh_token is required", common.ErrorValidation))
		return
	}
	pair, err := h.svc.Users.RefreshToken(r.Context(), req.RefreshToken)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.signIn(w, r, pair)
}

// signIn moves the request session to the new identity and hands the
// tokens to the client.
func (h *Handler) signIn(w http.ResponseWriter, r *http.Request, pair *services.TokenPair) {
	uid, err := h.svc.Users.Authenticate(pair.AccessToken)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	session.FromContext(r.Context()).SignIn(session.Identity{UserID: uid})
	setTokenCookie(w, pair.AccessToken, h.accessTTL)
	writeJSON(w, http.StatusOK, pair)
}

func (h *Handler) signOut(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())
	id, err := sess.Require("signout")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if err := h.svc.Users.SignOut(r.Context(), id.UserID); err != nil {
		h.fail(w, r, err)
		return
	}
	sess.SignOut()
	w.WriteHeader(http.StatusNoContent)
}
