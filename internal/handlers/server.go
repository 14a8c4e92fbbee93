package handlers

import (
	"context"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"coderoom/internal/game"
	"coderoom/internal/models"
)

// UserDirectory is the sliver of the user store the room handlers need.
// database.Users implements it; tests plug in a stub.
type UserDirectory interface {
	GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// Server wires the game engine and user lookup into the HTTP boundary.
type Server struct {
	Engine *game.Engine
	Users  UserDirectory
	Log    *logrus.Logger
}

func NewServer(engine *game.Engine, users UserDirectory, log *logrus.Logger) *Server {
	if log == nil {
		log = logrus.New()
	}
	return &Server{Engine: engine, Users: users, Log: log}
}
