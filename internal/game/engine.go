package game

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"coderoom/internal/cache"
	"coderoom/internal/models"
)

// InactivityThreshold is how long a player can go without polling before the
// presence sweep treats them as gone.
const InactivityThreshold = 30 * time.Second

// Engine holds the game session logic: dealing, swapping, turn rotation, and
// the presence sweep. It is stateless apart from its rng; all game state
// lives behind the Store, and every boundary operation runs under the room's
// lock so concurrent requests serialize per room.
type Engine struct {
	Store Store
	Log   *logrus.Logger

	// Now and Inactivity exist so tests can drive the presence sweep.
	Now        func() time.Time
	Inactivity time.Duration

	randMu sync.Mutex
	rng    *rand.Rand
}

func NewEngine(store Store, log *logrus.Logger) *Engine {
	if log == nil {
		log = logrus.New()
	}
	return &Engine{
		Store:      store,
		Log:        log,
		Now:        time.Now,
		Inactivity: InactivityThreshold,
		rng:        rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Seed reseeds the engine rng. Tests use it for reproducible deals.
func (e *Engine) Seed(seed int64) {
	e.randMu.Lock()
	defer e.randMu.Unlock()
	e.rng = rand.New(rand.NewSource(seed))
}

func (e *Engine) deal(numPlayers int) (*Deal, error) {
	e.randMu.Lock()
	defer e.randMu.Unlock()
	return DealHands(e.rng, numPlayers)
}

// rotateTurn advances exactly one position and rewrites every turn flag so
// at most one player holds the turn. Callers persist the flags.
func rotateTurn(players []*models.Player, current int) int {
	next := (current + 1) % len(players)
	for i, p := range players {
		p.IsTurn = i == next
	}
	return next
}

// Start deals a new round: every seated player gets a 4-card hand, the table
// gets 2N cards, and the first player in join order takes the turn.
func (e *Engine) Start(ctx context.Context, code string) error {
	return e.Store.WithRoomLock(ctx, code, func(ctx context.Context) error {
		room, err := e.Store.GetRoom(ctx, code)
		if err != nil {
			return err
		}
		if room.Status == models.StatusPlaying {
			return fmt.Errorf("%w: game already in progress", ErrInvalidState)
		}
		players, err := e.Store.ListPlayers(ctx, room.ID)
		if err != nil {
			return err
		}
		if len(players) < 2 {
			return fmt.Errorf("%w: need at least 2 players, have %d", ErrInvalidPlayerCount, len(players))
		}

		deal, err := e.deal(len(players))
		if err != nil {
			return err
		}
		for i, p := range players {
			p.Hand = deal.Hands[i]
			p.IsTurn = i == 0
			p.HasWon = false
			if err := e.Store.SavePlayer(ctx, p, "hand", "is_turn", "has_won"); err != nil {
				return err
			}
		}

		room.TableCards = deal.Table
		room.CurrentTurn = 0
		room.Status = models.StatusPlaying
		if err := e.Store.SaveRoom(ctx, room, "table_cards", "current_turn", "status"); err != nil {
			return err
		}

		e.Log.WithFields(logrus.Fields{
			"room":    code,
			"players": len(players),
		}).Info("game started")
		return nil
	})
}

// Swap performs the one legal player action: exchange the card at handIdx
// with the table card at tableIdx. The turn always advances, win or not.
// Returns true when the swap completed the winning hand.
func (e *Engine) Swap(ctx context.Context, code string, userID uuid.UUID, handIdx, tableIdx int) (bool, error) {
	var won bool
	err := e.Store.WithRoomLock(ctx, code, func(ctx context.Context) error {
		room, err := e.Store.GetRoom(ctx, code)
		if err != nil {
			return err
		}
		if room.Status != models.StatusPlaying {
			return fmt.Errorf("%w: room is %s", ErrInvalidState, room.Status)
		}
		player, err := e.Store.GetPlayer(ctx, room.ID, userID)
		if err != nil {
			return err
		}
		if !player.IsTurn {
			return ErrNotYourTurn
		}
		if handIdx < 0 || handIdx >= len(player.Hand) {
			return fmt.Errorf("%w: hand index %d", ErrInvalidIndex, handIdx)
		}
		if tableIdx < 0 || tableIdx >= len(room.TableCards) {
			return fmt.Errorf("%w: table index %d", ErrInvalidIndex, tableIdx)
		}

		player.Hand[handIdx], room.TableCards[tableIdx] = room.TableCards[tableIdx], player.Hand[handIdx]
		player.IsTurn = false
		if err := e.Store.SavePlayer(ctx, player, "hand", "is_turn"); err != nil {
			return err
		}

		players, err := e.Store.ListPlayers(ctx, room.ID)
		if err != nil {
			return err
		}
		room.CurrentTurn = rotateTurn(players, room.CurrentTurn)
		if err := e.Store.SaveRoom(ctx, room, "table_cards", "current_turn"); err != nil {
			return err
		}
		for _, p := range players {
			if err := e.Store.SavePlayer(ctx, p, "is_turn"); err != nil {
				return err
			}
		}

		if CheckWin(player.Hand) {
			player.HasWon = true
			if err := e.Store.SavePlayer(ctx, player, "has_won"); err != nil {
				return err
			}
			room.Status = models.StatusFinished
			if err := e.Store.SaveRoom(ctx, room, "status"); err != nil {
				return err
			}
			won = true
		}

		e.publishAction(ctx, room, player, handIdx, tableIdx, won)
		return nil
	})
	return won, err
}

// TimeoutTurn force-advances the turn away from a stalled holder. The HTTP
// layer invokes it from the clients' turn timers; the presence sweep applies
// the same rule server-side on every poll.
func (e *Engine) TimeoutTurn(ctx context.Context, code string, userID uuid.UUID) error {
	return e.Store.WithRoomLock(ctx, code, func(ctx context.Context) error {
		room, err := e.Store.GetRoom(ctx, code)
		if err != nil {
			return err
		}
		if room.Status != models.StatusPlaying {
			return fmt.Errorf("%w: room is %s", ErrInvalidState, room.Status)
		}
		player, err := e.Store.GetPlayer(ctx, room.ID, userID)
		if err != nil {
			return err
		}
		if !player.IsTurn {
			return fmt.Errorf("%w: player does not hold the turn", ErrInvalidState)
		}

		players, err := e.Store.ListPlayers(ctx, room.ID)
		if err != nil {
			return err
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
			"room": code,
			"user": userID,
		}).Info("turn timed out")
		return nil
	})
}

// Reset tears the room down: all seats are cleared and the room is deleted.
// Polling clients see the room disappear and return to the lobby.
func (e *Engine) Reset(ctx context.Context, code string) error {
	return e.Store.WithRoomLock(ctx, code, func(ctx context.Context) error {
		room, err := e.Store.GetRoom(ctx, code)
		if err != nil {
			return err
		}
		players, err := e.Store.ListPlayers(ctx, room.ID)
		if err != nil {
			return err
		}
		for _, p := range players {
			p.Hand = nil
			p.IsTurn = false
			p.HasWon = false
			if err := e.Store.SavePlayer(ctx, p, "hand", "is_turn", "has_won"); err != nil {
				return err
			}
		}
		return e.Store.DeleteRoom(ctx, code)
	})
}

// publishAction pushes a swap record onto the Redis action queue for the
// historian. Best-effort: the game never fails because logging did.
func (e *Engine) publishAction(ctx context.Context, room *models.Room, p *models.Player, handIdx, tableIdx int, won bool) {
	actionType := "swap"
	if won {
		actionType = "win"
	}
	rec := cache.ActionRecord{
		RoomCode:    room.Code,
		ActorUserID: p.UserID,
		ActionType:  actionType,
		Payload: map[string]interface{}{
			"hand_index":  handIdx,
			"table_index": tableIdx,
		},
		Timestamp: e.Now().UnixMilli(),
	}
	if err := cache.PublishAction(ctx, rec); err != nil {
		e.Log.WithError(err).Debug("skipping action log publish")
	}
}
