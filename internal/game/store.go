package game

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"coderoom/internal/models"
)

// RoomStore is the room half of the persistence contract the engine
// consumes. Save takes an explicit field list so implementations can issue
// field-level updates instead of rewriting whole rows.
type RoomStore interface {
	GetRoom(ctx context.Context, code string) (*models.Room, error)
	CreateRoom(ctx context.Context, room *models.Room) error
	DeleteRoom(ctx context.Context, code string) error
	SaveRoom(ctx context.Context, room *models.Room, fields ...string) error
}

// PlayerStore is the player half. ListPlayers returns players in join order,
// which is also the turn order.
type PlayerStore interface {
	ListPlayers(ctx context.Context, roomID uuid.UUID) ([]*models.Player, error)
	GetPlayer(ctx context.Context, roomID, userID uuid.UUID) (*models.Player, error)
	CreatePlayer(ctx context.Context, p *models.Player) error
	DeletePlayer(ctx context.Context, id uuid.UUID) error
	SavePlayer(ctx context.Context, p *models.Player, fields ...string) error
}

// Locker serializes a room's mutation sequence. Every engine boundary
// operation runs inside WithRoomLock so concurrent swaps, timeouts, and
// presence sweeps on the same room cannot interleave.
type Locker interface {
	WithRoomLock(ctx context.Context, code string, fn func(ctx context.Context) error) error
}

// Store is the full persistence surface the engine needs.
type Store interface {
	RoomStore
	PlayerStore
	Locker
}

// MemoryStore is a map-backed Store. It backs the engine tests and serves as
// a single-process fallback when no database is configured. Returned structs
// are live pointers, so SaveRoom/SavePlayer only have to validate existence.
type MemoryStore struct {
	mu      sync.Mutex
	rooms   map[string]*models.Room
	players map[uuid.UUID]*models.Player
	locks   map[string]*sync.Mutex
	joinSeq int64
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		rooms:   make(map[string]*models.Room),
		players: make(map[uuid.UUID]*models.Player),
		locks:   make(map[string]*sync.Mutex),
	}
}

func (m *MemoryStore) GetRoom(ctx context.Context, code string) (*models.Room, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	room, ok := m.rooms[code]
	if !ok {
		return nil, ErrRoomNotFound
	}
	return room, nil
}

func (m *MemoryStore) CreateRoom(ctx context.Context, room *models.Room) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if room.ID == uuid.Nil {
		room.ID = uuid.New()
	}
	if room.CreatedAt.IsZero() {
		room.CreatedAt = time.Now()
	}
	if room.Status == "" {
		room.Status = models.StatusWaiting
	}
	m.rooms[room.Code] = room
	return nil
}

func (m *MemoryStore) DeleteRoom(ctx context.Context, code string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	room, ok := m.rooms[code]
	if !ok {
		return ErrRoomNotFound
	}
	for id, p := range m.players {
		if p.RoomID == room.ID {
			delete(m.players, id)
		}
	}
	delete(m.rooms, code)
	return nil
}

func (m *MemoryStore) SaveRoom(ctx context.Context, room *models.Room, fields ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rooms[room.Code]; !ok {
		return ErrRoomNotFound
	}
	return nil
}

func (m *MemoryStore) ListPlayers(ctx context.Context, roomID uuid.UUID) ([]*models.Player, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var players []*models.Player
	for _, p := range m.players {
		if p.RoomID == roomID {
			players = append(players, p)
		}
	}
	sort.Slice(players, func(i, j int) bool {
		return players[i].JoinOrder < players[j].JoinOrder
	})
	return players, nil
}

func (m *MemoryStore) GetPlayer(ctx context.Context, roomID, userID uuid.UUID) (*models.Player, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.players {
		if p.RoomID == roomID && p.UserID == userID {
			return p, nil
		}
	}
	return nil, ErrPlayerNotFound
}

func (m *MemoryStore) CreatePlayer(ctx context.Context, p *models.Player) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	if p.LastSeen.IsZero() {
		p.LastSeen = time.Now()
	}
	m.joinSeq++
	p.JoinOrder = m.joinSeq
	m.players[p.ID] = p
	return nil
}

func (m *MemoryStore) DeletePlayer(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.players[id]; !ok {
		return ErrPlayerNotFound
	}
	delete(m.players, id)
	return nil
}

func (m *MemoryStore) SavePlayer(ctx context.Context, p *models.Player, fields ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.players[p.ID]; !ok {
		return ErrPlayerNotFound
	}
	return nil
}

func (m *MemoryStore) WithRoomLock(ctx context.Context, code string, fn func(ctx context.Context) error) error {
	m.mu.Lock()
	lock, ok := m.locks[code]
	if !ok {
		lock = &sync.Mutex{}
		m.locks[code] = lock
	}
	m.mu.Unlock()

	lock.Lock()
	defer lock.Unlock()
	return fn(ctx)
}
