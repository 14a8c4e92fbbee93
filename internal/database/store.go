package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"coderoom/internal/game"
	"coderoom/internal/models"
)

// Store implements game.Store on Postgres. Field-level saves issue targeted
// UPDATEs; WithRoomLock serializes a room's whole mutation sequence with a
// session advisory lock keyed on the room code.
type Store struct {
	Pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{Pool: pool}
}

func (s *Store) GetRoom(ctx context.Context, code string) (*models.Room, error) {
	var r models.Room
	var table []string
	q := `SELECT id, code, host_user_id, table_cards, current_turn, status, created_at
	      FROM rooms WHERE code=$1`
	err := s.Pool.QueryRow(ctx, q, code).Scan(
		&r.ID, &r.Code, &r.HostUserID, &table, &r.CurrentTurn, &r.Status, &r.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, game.ErrRoomNotFound
	}
	if err != nil {
		return nil, err
	}
	r.TableCards, err = models.SymbolsFromStrings(table)
	if err != nil {
		return nil, fmt.Errorf("room %s has corrupt table cards: %w", code, err)
	}
	return &r, nil
}

func (s *Store) CreateRoom(ctx context.Context, room *models.Room) error {
	if room.ID == uuid.Nil {
		room.ID = uuid.New()
	}
	if room.Status == "" {
		room.Status = models.StatusWaiting
	}
	q := `INSERT INTO rooms (id, code, host_user_id, table_cards, current_turn, status)
	      VALUES ($1, $2, $3, $4, $5, $6)`
	return pgx.BeginTxFunc(ctx, s.Pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, q,
			room.ID, room.Code, room.HostUserID,
			models.StringsFromSymbols(room.TableCards), room.CurrentTurn, room.Status,
		)
		return err
	})
}

func (s *Store) DeleteRoom(ctx context.Context, code string) error {
	return pgx.BeginTxFunc(ctx, s.Pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `DELETE FROM rooms WHERE code=$1`, code)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return game.ErrRoomNotFound
		}
		return nil
	})
}

// SaveRoom updates only the named fields.
func (s *Store) SaveRoom(ctx context.Context, room *models.Room, fields ...string) error {
	return pgx.BeginTxFunc(ctx, s.Pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		for _, f := range fields {
			var err error
			switch f {
			case "table_cards":
				_, err = tx.Exec(ctx, `UPDATE rooms SET table_cards=$1 WHERE id=$2`,
					models.StringsFromSymbols(room.TableCards), room.ID)
			case "current_turn":
				_, err = tx.Exec(ctx, `UPDATE rooms SET current_turn=$1 WHERE id=$2`,
					room.CurrentTurn, room.ID)
			case "status":
				_, err = tx.Exec(ctx, `UPDATE rooms SET status=$1 WHERE id=$2`,
					room.Status, room.ID)
			default:
				err = fmt.Errorf("unknown room field %q", f)
			}
			if err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *Store) ListPlayers(ctx context.Context, roomID uuid.UUID) ([]*models.Player, error) {
	q := `SELECT id, room_id, user_id, username, hand, is_turn, has_won, last_seen, join_order
	      FROM players WHERE room_id=$1 ORDER BY join_order`
	rows, err := s.Pool.Query(ctx, q, roomID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var players []*models.Player
	for rows.Next() {
		p, err := scanPlayer(rows)
		if err != nil {
			return nil, err
		}
		players = append(players, p)
	}
	return players, rows.Err()
}

func (s *Store) GetPlayer(ctx context.Context, roomID, userID uuid.UUID) (*models.Player, error) {
	q := `SELECT id, room_id, user_id, username, hand, is_turn, has_won, last_seen, join_order
	      FROM players WHERE room_id=$1 AND user_id=$2`
	rows, err := s.Pool.Query(ctx, q, roomID, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, err
		}
		return nil, game.ErrPlayerNotFound
	}
	return scanPlayer(rows)
}

func (s *Store) CreatePlayer(ctx context.Context, p *models.Player) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	q := `INSERT INTO players (id, room_id, user_id, username, hand, is_turn, has_won)
	      VALUES ($1, $2, $3, $4, $5, $6, $7)
	      RETURNING join_order, last_seen`
	return pgx.BeginTxFunc(ctx, s.Pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		return tx.QueryRow(ctx, q,
			p.ID, p.RoomID, p.UserID, p.Username,
			models.StringsFromSymbols(p.Hand), p.IsTurn, p.HasWon,
		).Scan(&p.JoinOrder, &p.LastSeen)
	})
}

func (s *Store) DeletePlayer(ctx context.Context, id uuid.UUID) error {
	return pgx.BeginTxFunc(ctx, s.Pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `DELETE FROM players WHERE id=$1`, id)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return game.ErrPlayerNotFound
		}
		return nil
	})
}

// SavePlayer updates only the named fields.
func (s *Store) SavePlayer(ctx context.Context, p *models.Player, fields ...string) error {
	return pgx.BeginTxFunc(ctx, s.Pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		for _, f := range fields {
			var err error
			switch f {
			case "hand":
				_, err = tx.Exec(ctx, `UPDATE players SET hand=$1 WHERE id=$2`,
					models.StringsFromSymbols(p.Hand), p.ID)
			case "is_turn":
				_, err = tx.Exec(ctx, `UPDATE players SET is_turn=$1 WHERE id=$2`, p.IsTurn, p.ID)
			case "has_won":
				_, err = tx.Exec(ctx, `UPDATE players SET has_won=$1 WHERE id=$2`, p.HasWon, p.ID)
			case "last_seen":
				_, err = tx.Exec(ctx, `UPDATE players SET last_seen=$1 WHERE id=$2`, p.LastSeen, p.ID)
			default:
				err = fmt.Errorf("unknown player field %q", f)
			}
			if err != nil {
				return err
			}
		}
		return nil
	})
}

// WithRoomLock holds a Postgres advisory lock on the room code for the
// duration of fn. Two requests mutating the same room queue up here, which
// keeps a swap from racing another swap or a presence sweep.
func (s *Store) WithRoomLock(ctx context.Context, code string, fn func(ctx context.Context) error) error {
	conn, err := s.Pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("failed to acquire conn for room lock: %w", err)
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, `SELECT pg_advisory_lock(hashtext($1))`, code); err != nil {
		return fmt.Errorf("failed to lock room %s: %w", code, err)
	}
	defer conn.Exec(context.Background(), `SELECT pg_advisory_unlock(hashtext($1))`, code)

	return fn(ctx)
}

func scanPlayer(rows pgx.Rows) (*models.Player, error) {
	var p models.Player
	var hand []string
	err := rows.Scan(
		&p.ID, &p.RoomID, &p.UserID, &p.Username,
		&hand, &p.IsTurn, &p.HasWon, &p.LastSeen, &p.JoinOrder,
	)
	if err != nil {
		return nil, err
	}
	p.Hand, err = models.SymbolsFromStrings(hand)
	if err != nil {
		return nil, fmt.Errorf("player %s has corrupt hand: %w", p.ID, err)
	}
	return &p, nil
}
