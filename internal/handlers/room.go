package handlers

import (
	"errors"
	"math/rand"
	"net/http"

	"coderoom/internal/game"
	"coderoom/internal/models"
)

const roomCodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
const roomCodeLength = 6

func generateRoomCode() string {
	code := make([]byte, roomCodeLength)
	for i := range code {
		code[i] = roomCodeAlphabet[rand.Intn(len(roomCodeAlphabet))]
	}
	return string(code)
}

type roomResponse struct {
	Code    string   `json:"code"`
	Players []string `json:"players"`
	IsHost  bool     `json:"is_host"`
}

// CreateRoomHandler creates a room with a fresh join code and seats the
// host in it.
func (s *Server) CreateRoomHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := requireUserID(r)
	if err != nil {
		http.Error(w, "invalid token", http.StatusForbidden)
		return
	}
	user, err := s.Users.GetUserByID(r.Context(), userID)
	if err != nil {
		http.Error(w, "user not found", http.StatusNotFound)
		return
	}

	// A collision on a fresh 36^6 code space is rare; retry a few times
	// rather than reserving codes up front.
	var room *models.Room
	for attempt := 0; attempt < 5; attempt++ {
		code := generateRoomCode()
		if _, getErr := s.Engine.Store.GetRoom(r.Context(), code); getErr == nil {
			continue
		}
		room = &models.Room{Code: code, HostUserID: user.ID, Status: models.StatusWaiting}
		if err = s.Engine.Store.CreateRoom(r.Context(), room); err == nil {
			break
		}
		room = nil
	}
	if room == nil {
		http.Error(w, "failed to create room", http.StatusInternalServerError)
		return
	}

	player := &models.Player{RoomID: room.ID, UserID: user.ID, Username: user.Username}
	if err := s.Engine.Store.CreatePlayer(r.Context(), player); err != nil {
		http.Error(w, "failed to seat host", http.StatusInternalServerError)
		return
	}

	s.Log.WithField("room", room.Code).Info("room created")
	writeJSON(w, http.StatusCreated, roomResponse{
		Code:    room.Code,
		Players: []string{user.Username},
		IsHost:  true,
	})
}

// JoinRoomHandler seats the caller in the room named by the path code.
// Joining twice is a no-op, matching the original join screen.
func (s *Server) JoinRoomHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := requireUserID(r)
	if err != nil {
		http.Error(w, "invalid token", http.StatusForbidden)
		return
	}
	user, err := s.Users.GetUserByID(r.Context(), userID)
	if err != nil {
		http.Error(w, "user not found", http.StatusNotFound)
		return
	}

	code := r.PathValue("code")
	room, err := s.Engine.Store.GetRoom(r.Context(), code)
	if err != nil {
		writeGameError(w, err)
		return
	}

	players, err := s.Engine.Store.ListPlayers(r.Context(), room.ID)
	if err != nil {
		writeGameError(w, err)
		return
	}

	if _, getErr := s.Engine.Store.GetPlayer(r.Context(), room.ID, user.ID); errors.Is(getErr, game.ErrPlayerNotFound) {
		if len(players) >= game.MaxPlayers {
			http.Error(w, "room is full", http.StatusConflict)
			return
		}
		player := &models.Player{RoomID: room.ID, UserID: user.ID, Username: user.Username}
		if err := s.Engine.Store.CreatePlayer(r.Context(), player); err != nil {
			http.Error(w, "failed to join room", http.StatusInternalServerError)
			return
		}
		players = append(players, player)
	} else if getErr != nil {
		writeGameError(w, getErr)
		return
	}

	names := make([]string, 0, len(players))
	for _, p := range players {
		names = append(names, p.Username)
	}
	writeJSON(w, http.StatusOK, roomResponse{
		Code:    room.Code,
		Players: names,
		IsHost:  room.HostUserID == user.ID,
	})
}

// LeaveRoomHandler removes the caller's seat.
func (s *Server) LeaveRoomHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := requireUserID(r)
	if err != nil {
		http.Error(w, "invalid token", http.StatusForbidden)
		return
	}
	code := r.PathValue("code")
	room, err := s.Engine.Store.GetRoom(r.Context(), code)
	if err != nil {
		writeGameError(w, err)
		return
	}
	player, err := s.Engine.Store.GetPlayer(r.Context(), room.ID, userID)
	if err != nil {
		writeGameError(w, err)
		return
	}
	if err := s.Engine.Store.DeletePlayer(r.Context(), player.ID); err != nil {
		writeGameError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "left"})
}
