package models

import (
	"time"

	"github.com/google/uuid"
)

// Player is one user's seat in one room. JoinOrder is assigned by the store
// at creation and never changes; it doubles as the turn order.
type Player struct {
	ID       uuid.UUID `json:"id"`
	RoomID   uuid.UUID `json:"room_id"`
	UserID   uuid.UUID `json:"user_id"`
	Username string    `json:"username"`

	Hand     []Symbol  `json:"hand"`
	IsTurn   bool      `json:"is_turn"`
	HasWon   bool      `json:"has_won"`
	LastSeen time.Time `json:"last_seen"`

	JoinOrder int64 `json:"-"`
}
