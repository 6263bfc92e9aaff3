package api

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/vytor/arenalobby/internal/errors"
	"github.com/vytor/arenalobby/internal/lobby"
	"github.com/vytor/arenalobby/internal/models"
)

func (s *Server) handleLobby(w http.ResponseWriter, r *http.Request) {
	ctrl := controllerFromContext(r.Context())
	writeJSON(w, http.StatusOK, ctrl.Snapshot())
}

// handleView runs the loader named by the path and returns that view.
func (s *Server) handleView(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ctrl := controllerFromContext(ctx)

	view, ok := lobby.ParseView(strings.TrimPrefix(r.URL.Path, "/"))
	if !ok {
		writeJSON(w, http.StatusNotFound, errorBody(errors.ErrCodeNotFound, "unknown view"))
		return
	}
	if err := ctrl.Load(ctx, view); err != nil {
		handleError(w, r, err)
		return
	}

	snap := ctrl.Snapshot()
	var value any
	switch view {
	case lobby.ViewProfile:
		value = snap.Profile
	case lobby.ViewMatches:
		value = snap.Matches
	case lobby.ViewLeaderboard:
		value = snap.Leaderboard
	case lobby.ViewMessages:
		value = snap.Messages
	case lobby.ViewTournament:
		value = snap.Tournament
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"version":     snap.Version,
		view.String(): value,
	})
}

func (s *Server) handleCreateMatch(w http.ResponseWriter, r *http.Request) {
	var settings models.MatchSettings
	if err := decodeJSON(r, &settings); err != nil {
		handleError(w, r, err)
		return
	}

	match, err := controllerFromContext(r.Context()).CreateMatch(r.Context(), settings)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, match)
}

func (s *Server) handleJoinMatch(w http.ResponseWriter, r *http.Request) {
	match, err := controllerFromContext(r.Context()).JoinMatch(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, match)
}

type messageRequest struct {
	Message string `json:"message"`
}

func (s *Server) handleSendMessage(w http.ResponseWriter, r *http.Request) {
	var body messageRequest
	if err := decodeJSON(r, &body); err != nil {
		handleError(w, r, err)
		return
	}

	msg, err := controllerFromContext(r.Context()).SendMessage(r.Context(), body.Message)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, msg)
}
