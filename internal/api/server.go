package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/vytor/arenalobby/internal/lobby"
	"github.com/vytor/arenalobby/internal/services"
)

// Pinger is the database readiness check.
type Pinger interface {
	PingContext(ctx context.Context) error
}

type Server struct {
	DB       Pinger
	Accounts services.AccountService
	Registry *lobby.Registry

	// PingInterval paces websocket keepalives.
	PingInterval time.Duration
	upgrader     websocket.Upgrader
}

func NewServer(db Pinger, accounts services.AccountService, registry *lobby.Registry) *Server {
	return &Server{
		DB:           db,
		Accounts:     accounts,
		Registry:     registry,
		PingInterval: 30 * time.Second,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
}
