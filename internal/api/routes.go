package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/vytor/arenalobby/internal/errors"
)

func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(recoveryMiddleware)
	r.Use(loggingMiddleware)
	r.Use(securityHeadersMiddleware)

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)

	r.Post("/auth/signup", s.handleSignUp)
	r.Post("/auth/signin", s.handleSignIn)
	r.Post("/auth/signout", s.handleSignOut)
	r.Get("/session", s.handleSession)

	r.Group(func(r chi.Router) {
		r.Use(s.sessionMiddleware)

		r.Get("/lobby", s.handleLobby)
		r.Get("/profile", s.handleView)
		r.Get("/matches", s.handleView)
		r.Get("/leaderboard", s.handleView)
		r.Get("/messages", s.handleView)
		r.Get("/tournament", s.handleView)

		r.Post("/matches", s.handleCreateMatch)
		r.Post("/matches/{id}/join", s.handleJoinMatch)
		r.Post("/messages", s.handleSendMessage)

		r.Get("/ws", s.handleWebsocket)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, errorBody(errors.ErrCodeNotFound, "no route for "+r.URL.Path))
	})
	return r
}
