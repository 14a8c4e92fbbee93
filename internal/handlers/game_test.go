package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"coderoom/internal/auth"
	"coderoom/internal/game"
	"coderoom/internal/models"
)

// stubUsers satisfies UserDirectory without a database.
type stubUsers struct {
	users map[uuid.UUID]*models.User
}

func (s stubUsers) GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	u, ok := s.users[id]
	if !ok {
		return nil, fmt.Errorf("user %s not found", id)
	}
	return u, nil
}

type testHarness struct {
	mux    *http.ServeMux
	server *Server
	store  *game.MemoryStore
	users  stubUsers
}

func newTestHarness(t *testing.T) *testHarness {
	t.Helper()
	auth.Init()

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	store := game.NewMemoryStore()
	engine := game.NewEngine(store, logger)
	engine.Seed(7)

	users := stubUsers{users: map[uuid.UUID]*models.User{}}
	srv := NewServer(engine, users, logger)

	mux := http.NewServeMux()
	mux.HandleFunc("POST /room/create", srv.CreateRoomHandler)
	mux.HandleFunc("POST /room/{code}/join", srv.JoinRoomHandler)
	mux.HandleFunc("POST /room/{code}/leave", srv.LeaveRoomHandler)
	mux.HandleFunc("POST /api/room/{code}/start", srv.StartHandler)
	mux.HandleFunc("GET /api/room/{code}/status", srv.StatusHandler)
	mux.HandleFunc("POST /api/room/{code}/swap", srv.SwapHandler)
	mux.HandleFunc("POST /api/room/{code}/timeout", srv.TimeoutHandler)
	mux.HandleFunc("POST /api/reset/{code}", srv.ResetHandler)

	return &testHarness{mux: mux, server: srv, store: store, users: users}
}

// addUser registers a stub user and returns their session token.
func (h *testHarness) addUser(t *testing.T, username string) (*models.User, string) {
	t.Helper()
	u := &models.User{ID: uuid.New(), Username: username}
	h.users.users[u.ID] = u
	token, err := auth.CreateJWT(u.ID.String())
	require.NoError(t, err)
	return u, token
}

func (h *testHarness) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Cookie", "auth_token="+token)
	}
	w := httptest.NewRecorder()
	h.mux.ServeHTTP(w, req)
	return w
}

func TestCreateAndJoinRoom(t *testing.T) {
	h := newTestHarness(t)
	_, hostToken := h.addUser(t, "alice")
	_, guestToken := h.addUser(t, "bob")

	w := h.do(t, "POST", "/room/create", hostToken, nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var created roomResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.Len(t, created.Code, 6)
	assert.True(t, created.IsHost)
	assert.Equal(t, []string{"alice"}, created.Players)

	w = h.do(t, "POST", "/room/"+created.Code+"/join", guestToken, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var joined roomResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &joined))
	assert.False(t, joined.IsHost)
	assert.Equal(t, []string{"alice", "bob"}, joined.Players)

	// Joining again is a no-op, not a second seat.
	w = h.do(t, "POST", "/room/"+created.Code+"/join", guestToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &joined))
	assert.Len(t, joined.Players, 2)
}

func TestJoinUnknownRoom(t *testing.T) {
	h := newTestHarness(t)
	_, token := h.addUser(t, "alice")

	w := h.do(t, "POST", "/room/ZZZZ99/join", token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRoomEndpointsRequireAuth(t *testing.T) {
	h := newTestHarness(t)

	w := h.do(t, "POST", "/room/create", "", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = h.do(t, "GET", "/api/room/ABC123/status", "", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

// setupGame creates a room with three seated players and a known mid-game
// state, bypassing the random deal.
func setupGame(t *testing.T, h *testHarness) (code string, tokens []string, players []*models.Player) {
	t.Helper()
	ctx := context.Background()

	var users []*models.User
	for _, name := range []string{"alice", "bob", "carol"} {
		u, token := h.addUser(t, name)
		users = append(users, u)
		tokens = append(tokens, token)
	}

	room := &models.Room{Code: "ABC123", HostUserID: users[0].ID}
	require.NoError(t, h.store.CreateRoom(ctx, room))
	hands := [][]models.Symbol{
		{"C", "O", "D", "D"},
		{"E", "E", "O", "O"},
		{"C", "C", "D", "D"},
	}
	for i, u := range users {
		p := &models.Player{RoomID: room.ID, UserID: u.ID, Username: u.Username, Hand: hands[i], IsTurn: i == 0}
		require.NoError(t, h.store.CreatePlayer(ctx, p))
		players = append(players, p)
	}
	room.Status = models.StatusPlaying
	room.TableCards = []models.Symbol{"E", "C", "O", "D", "E", "C"}
	return room.Code, tokens, players
}

func TestStatusRedaction(t *testing.T) {
	h := newTestHarness(t)
	code, tokens, _ := setupGame(t, h)

	w := h.do(t, "GET", "/api/room/"+code+"/status", tokens[1], nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var snap game.Snapshot
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &snap))
	assert.Equal(t, models.StatusPlaying, snap.RoomStatus)
	assert.False(t, snap.YourTurn)
	assert.Equal(t, "bob", snap.CurrentUser)
	require.Len(t, snap.Players, 3)
	assert.Equal(t, []string{"?", "?", "?", "?"}, snap.Players[0].Hand)
	assert.Equal(t, []string{"E", "E", "O", "O"}, snap.Players[1].Hand)
	assert.Equal(t, []string{"?", "?", "?", "?"}, snap.Players[2].Hand)
}

func TestSwapByCardName(t *testing.T) {
	h := newTestHarness(t)
	code, tokens, players := setupGame(t, h)

	// alice swaps a duplicate D for the table's E and wins.
	w := h.do(t, "POST", "/api/room/"+code+"/swap", tokens[0],
		map[string]string{"hand_card": "D", "table_card": "E"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp map[string]bool
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp["success"])
	assert.True(t, players[0].HasWon)
}

func TestSwapRejectsAbsentCard(t *testing.T) {
	h := newTestHarness(t)
	code, tokens, _ := setupGame(t, h)

	// alice holds no E.
	w := h.do(t, "POST", "/api/room/"+code+"/swap", tokens[0],
		map[string]string{"hand_card": "E", "table_card": "C"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "not in player hand")

	w = h.do(t, "POST", "/api/room/"+code+"/swap", tokens[0],
		map[string]string{"hand_card": "C", "table_card": "X"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSwapOutOfTurnConflict(t *testing.T) {
	h := newTestHarness(t)
	code, tokens, _ := setupGame(t, h)

	w := h.do(t, "POST", "/api/room/"+code+"/swap", tokens[1],
		map[string]string{"hand_card": "E", "table_card": "C"})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestTimeoutEndpoint(t *testing.T) {
	h := newTestHarness(t)
	code, tokens, players := setupGame(t, h)

	w := h.do(t, "POST", "/api/room/"+code+"/timeout", tokens[0], nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.True(t, players[1].IsTurn)

	// A non-holder reporting a timeout is rejected.
	w = h.do(t, "POST", "/api/room/"+code+"/timeout", tokens[2], nil)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestResetEndpoint(t *testing.T) {
	h := newTestHarness(t)
	code, tokens, _ := setupGame(t, h)

	w := h.do(t, "POST", "/api/reset/"+code, tokens[0], nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = h.do(t, "GET", "/api/room/"+code+"/status", tokens[0], nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestStartEndpoint(t *testing.T) {
	h := newTestHarness(t)
	ctx := context.Background()

	u1, t1 := h.addUser(t, "alice")
	u2, _ := h.addUser(t, "bob")

	room := &models.Room{Code: "DEF456", HostUserID: u1.ID}
	require.NoError(t, h.store.CreateRoom(ctx, room))
	for _, u := range []*models.User{u1, u2} {
		p := &models.Player{RoomID: room.ID, UserID: u.ID, Username: u.Username}
		require.NoError(t, h.store.CreatePlayer(ctx, p))
	}

	w := h.do(t, "POST", "/api/room/DEF456/start", t1, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, models.StatusPlaying, room.Status)
	assert.Len(t, room.TableCards, 4)
}
