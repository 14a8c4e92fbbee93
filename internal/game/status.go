package game

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"coderoom/internal/models"
)

// redactedCard is what other players' hand cards look like in a snapshot.
const redactedCard = "?"

// PlayerView is one player's row in a status snapshot. Hand holds real
// symbols only for the requesting player; everyone else's cards are
// placeholders of the same length.
type PlayerView struct {
	Username string   `json:"username"`
	Hand     []string `json:"hand"`
	IsTurn   bool     `json:"is_turn"`
	HasWon   bool     `json:"has_won"`
}

// Snapshot is the full poll response for one requesting player.
type Snapshot struct {
	RoomStatus     models.RoomStatus `json:"room_status"`
	TableCards     []models.Symbol   `json:"table_cards"`
	Players        []PlayerView      `json:"players"`
	YourTurn       bool              `json:"your_turn"`
	CurrentUser    string            `json:"current_user"`
	WinnerUsername string            `json:"winner_username,omitempty"`
	Redirect       bool              `json:"redirect,omitempty"`
}

// Status refreshes the requester's presence, runs the sweep, and returns the
// room snapshot. The sweep is cooperative: it only runs when someone polls,
// and its checks apply in a fixed order: idle eviction in waiting rooms,
// stalled-turn advance, win collapse, then the minimum-players check.
func (e *Engine) Status(ctx context.Context, code string, userID uuid.UUID) (*Snapshot, error) {
	var snap *Snapshot
	err := e.Store.WithRoomLock(ctx, code, func(ctx context.Context) error {
		room, err := e.Store.GetRoom(ctx, code)
		if err != nil {
			return err
		}
		requester, err := e.Store.GetPlayer(ctx, room.ID, userID)
		if err != nil {
			return err
		}
		now := e.Now()
		requester.LastSeen = now
		if err := e.Store.SavePlayer(ctx, requester, "last_seen"); err != nil {
			return err
		}

		players, err := e.Store.ListPlayers(ctx, room.ID)
		if err != nil {
			return err
		}

		if room.Status == models.StatusWaiting {
			players, err = e.evictIdle(ctx, room, players, now)
			if err != nil {
				return err
			}
		}

		if room.Status == models.StatusPlaying && len(players) > 0 {
			if err := e.advanceStalledTurn(ctx, room, players, now); err != nil {
				return err
			}
		}

		var winner string
		for _, p := range players {
			if p.HasWon {
				winner = p.Username
				break
			}
		}
		if winner != "" {
			if err := e.collapse(ctx, room, players); err != nil {
				return err
			}
		}

		redirect := false
		if room.Status == models.StatusPlaying && e.activeCount(players, now) < 2 {
			if err := e.collapse(ctx, room, players); err != nil {
				return err
			}
			redirect = true
			e.Log.WithField("room", code).Info("room collapsed: fewer than 2 active players")
		}

		snap = buildSnapshot(room, players, userID, winner, redirect)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return snap, nil
}

// evictIdle removes players who have not polled within the inactivity
// threshold. Only waiting rooms shed players this way; mid-game seats are
// handled by the turn advance and the minimum-players collapse instead.
func (e *Engine) evictIdle(ctx context.Context, room *models.Room, players []*models.Player, now time.Time) ([]*models.Player, error) {
	kept := players[:0]
	for _, p := range players {
		if now.Sub(p.LastSeen) > e.Inactivity {
			if err := e.Store.DeletePlayer(ctx, p.ID); err != nil {
				return nil, err
			}
			e.Log.WithFields(logrus.Fields{
				"room": room.Code,
				"user": p.Username,
			}).Info("evicted idle player")
			continue
		}
		kept = append(kept, p)
	}
	return kept, nil
}

// advanceStalledTurn force-advances when the turn holder has gone quiet.
// Rotation moves exactly one position regardless of whether the next player
// is active; a later poll advances again if needed.
func (e *Engine) advanceStalledTurn(ctx context.Context, room *models.Room, players []*models.Player, now time.Time) error {
	holder := players[room.CurrentTurn%len(players)]
	for _, p := range players {
		if p.IsTurn {
			holder = p
			break
		}
	}
	if now.Sub(holder.LastSeen) <= e.Inactivity {
		return nil
	}

	room.CurrentTurn = rotateTurn(players, room.CurrentTurn)
	if err := e.Store.SaveRoom(ctx, room, "current_turn"); err != nil {
		return err
	}
	for _, p := range players {
		if err := e.Store.SavePlayer(ctx, p, "is_turn"); err != nil {
			return err
		}
	}
	e.Log.WithFields(logrus.Fields{
		"room": room.Code,
		"user": holder.Username,
	}).Info("advanced turn past inactive holder")
	return nil
}

// collapse returns a room to the waiting state: table cleared, hands and
// flags wiped. Used both when a win is detected and when too few active
// players remain.
func (e *Engine) collapse(ctx context.Context, room *models.Room, players []*models.Player) error {
	for _, p := range players {
		p.Hand = nil
		p.IsTurn = false
		p.HasWon = false
		if err := e.Store.SavePlayer(ctx, p, "hand", "is_turn", "has_won"); err != nil {
			return err
		}
	}
	room.TableCards = nil
	room.CurrentTurn = 0
	room.Status = models.StatusWaiting
	return e.Store.SaveRoom(ctx, room, "table_cards", "current_turn", "status")
}

func (e *Engine) activeCount(players []*models.Player, now time.Time) int {
	n := 0
	for _, p := range players {
		if now.Sub(p.LastSeen) <= e.Inactivity {
			n++
		}
	}
	return n
}

func buildSnapshot(room *models.Room, players []*models.Player, userID uuid.UUID, winner string, redirect bool) *Snapshot {
	snap := &Snapshot{
		RoomStatus:     room.Status,
		TableCards:     append([]models.Symbol{}, room.TableCards...),
		Players:        make([]PlayerView, 0, len(players)),
		WinnerUsername: winner,
		Redirect:       redirect,
	}
	for _, p := range players {
		view := PlayerView{
			Username: p.Username,
			IsTurn:   p.IsTurn,
			HasWon:   p.HasWon,
		}
		if p.UserID == userID {
			view.Hand = models.StringsFromSymbols(p.Hand)
			snap.YourTurn = p.IsTurn
			snap.CurrentUser = p.Username
		} else {
			view.Hand = make([]string, len(p.Hand))
			for i := range view.Hand {
				view.Hand[i] = redactedCard
			}
		}
		snap.Players = append(snap.Players, view)
	}
	return snap
}
