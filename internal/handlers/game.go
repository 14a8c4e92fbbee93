package handlers

import (
	"encoding/json"
	"net/http"

	"coderoom/internal/models"
)

type swapRequest struct {
	HandCard  string `json:"hand_card"`
	TableCard string `json:"table_card"`
}

// StartHandler deals a new round in the room.
func (s *Server) StartHandler(w http.ResponseWriter, r *http.Request) {
	if _, err := requireUserID(r); err != nil {
		http.Error(w, "invalid token", http.StatusForbidden)
		return
	}
	if err := s.Engine.Start(r.Context(), r.PathValue("code")); err != nil {
		writeGameError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "started"})
}

// StatusHandler is the poll endpoint: it refreshes the caller's presence,
// runs the sweep, and returns the caller's view of the room.
func (s *Server) StatusHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := requireUserID(r)
	if err != nil {
		http.Error(w, "invalid token", http.StatusForbidden)
		return
	}
	snap, err := s.Engine.Status(r.Context(), r.PathValue("code"), userID)
	if err != nil {
		writeGameError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// SwapHandler translates the posted card names into indices and performs
// the swap. Cards are identified by symbol; a symbol not currently in the
// caller's hand or on the table is a client error, and the index validation
// below stays server-authoritative.
func (s *Server) SwapHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := requireUserID(r)
	if err != nil {
		http.Error(w, "invalid token", http.StatusForbidden)
		return
	}

	var req swapRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	if req.HandCard == "" || req.TableCard == "" {
		http.Error(w, "missing card data", http.StatusBadRequest)
		return
	}
	handSym, err := models.ParseSymbol(req.HandCard)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	tableSym, err := models.ParseSymbol(req.TableCard)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
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

	handIdx := indexOfSymbol(player.Hand, handSym)
	if handIdx < 0 {
		http.Error(w, "card not in player hand", http.StatusBadRequest)
		return
	}
	tableIdx := indexOfSymbol(room.TableCards, tableSym)
	if tableIdx < 0 {
		http.Error(w, "card not on table", http.StatusBadRequest)
		return
	}

	won, err := s.Engine.Swap(r.Context(), code, userID, handIdx, tableIdx)
	if err != nil {
		writeGameError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": won})
}

// TimeoutHandler lets clients report that the current turn timer expired.
func (s *Server) TimeoutHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := requireUserID(r)
	if err != nil {
		http.Error(w, "invalid token", http.StatusForbidden)
		return
	}
	if err := s.Engine.TimeoutTurn(r.Context(), r.PathValue("code"), userID); err != nil {
		writeGameError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "advanced"})
}

// ResetHandler tears the room down entirely.
func (s *Server) ResetHandler(w http.ResponseWriter, r *http.Request) {
	if _, err := requireUserID(r); err != nil {
		http.Error(w, "invalid token", http.StatusForbidden)
		return
	}
	if err := s.Engine.Reset(r.Context(), r.PathValue("code")); err != nil {
		writeGameError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}

// indexOfSymbol returns the first occurrence of sym, or -1.
func indexOfSymbol(cards []models.Symbol, sym models.Symbol) int {
	for i, c := range cards {
		if c == sym {
			return i
		}
	}
	return -1
}
