package game

import "errors"

// Sentinel errors returned by the engine. The HTTP layer maps these onto
// status codes with errors.Is; everything else is a 500.
var (
	ErrRoomNotFound       = errors.New("room not found")
	ErrPlayerNotFound     = errors.New("player not found")
	ErrInvalidState       = errors.New("operation not valid in current room state")
	ErrNotYourTurn        = errors.New("not your turn")
	ErrInvalidIndex       = errors.New("card index out of range")
	ErrInvalidPlayerCount = errors.New("invalid player count")
)
