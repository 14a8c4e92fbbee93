package models

import (
	"time"

	"github.com/google/uuid"
)

// RoomStatus tracks where a room is in its lifecycle.
type RoomStatus string

const (
	StatusWaiting  RoomStatus = "waiting"
	StatusPlaying  RoomStatus = "playing"
	StatusFinished RoomStatus = "finished"
)

// Room is one game instance, identified by a short alphanumeric join code.
// Turn order is the players' join order; CurrentTurn indexes into it.
type Room struct {
	ID          uuid.UUID  `json:"id"`
	Code        string     `json:"code"`
	HostUserID  uuid.UUID  `json:"host_user_id"`
	TableCards  []Symbol   `json:"table_cards"`
	CurrentTurn int        `json:"current_turn"`
	Status      RoomStatus `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
}
