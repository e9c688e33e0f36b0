package api

import (
	"platforma-zasobow/internal/config"
	"platforma-zasobow/internal/database"
	"platforma-zasobow/internal/websocket"
)

type Server struct {
	config *config.Config
	store  *database.PostgresStore
	wsHub  *websocket.Hub
}

func NewServer(cfg *config.Config, store *database.PostgresStore, wsHub *websocket.Hub) *Server {
	return &Server{
		config: cfg,
		store:  store,
		wsHub:  wsHub,
	}
}
