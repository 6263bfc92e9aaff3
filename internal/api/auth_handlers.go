package api

import (
	"net/http"
	"time"

	"github.com/vytor/arenalobby/internal/errors"
	"github.com/vytor/arenalobby/internal/models"
)

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Username string `json:"username,omitempty"`
}

type sessionResponse struct {
	State     string          `json:"state"`
	UserID    string          `json:"user_id,omitempty"`
	Token     string          `json:"token,omitempty"`
	ExpiresAt *time.Time      `json:"expires_at,omitempty"`
	Profile   *models.Profile `json:"profile,omitempty"`
}

func signedInResponse(session models.SignedIn) sessionResponse {
	expires := session.ExpiresAt
	return sessionResponse{
		State:     "signed_in",
		UserID:    session.UserID,
		Token:     session.Token,
		ExpiresAt: &expires,
	}
}

func (s *Server) handleSignUp(w http.ResponseWriter, r *http.Request) {
	var body credentials
	if err := decodeJSON(r, &body); err != nil {
		handleError(w, r, err)
		return
	}

	profile, session, err := s.Accounts.SignUp(r.Context(), body.Email, body.Password, body.Username)
	if err != nil {
		handleError(w, r, err)
		return
	}

	setSessionCookie(w, session)
	resp := signedInResponse(session)
	resp.Profile = profile
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleSignIn(w http.ResponseWriter, r *http.Request) {
	var body credentials
	if err := decodeJSON(r, &body); err != nil {
		handleError(w, r, err)
		return
	}

	session, err := s.Accounts.SignIn(r.Context(), body.Email, body.Password)
	if err != nil {
		handleError(w, r, err)
		return
	}

	setSessionCookie(w, session)
	writeJSON(w, http.StatusOK, signedInResponse(session))
}

func (s *Server) handleSignOut(w http.ResponseWriter, r *http.Request) {
	token := sessionToken(r)
	if token == "" {
		handleError(w, r, errors.NewUnauthorizedError("missing session"))
		return
	}
	if err := s.Accounts.SignOut(r.Context(), token); err != nil {
		handleError(w, r, err)
		return
	}
	clearSessionCookie(w)
	w.WriteHeader(http.StatusNoContent)
}

// handleSession reports the caller's session state without starting a lobby.
func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	token := sessionToken(r)
	if token != "" {
		if signedIn, ok := s.Accounts.Session(r.Context(), token).(models.SignedIn); ok {
			resp := signedInResponse(signedIn)
			resp.Token = ""
			writeJSON(w, http.StatusOK, resp)
			return
		}
	}
	writeJSON(w, http.StatusOK, sessionResponse{State: "signed_out"})
}
