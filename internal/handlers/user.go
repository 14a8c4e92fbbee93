package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"

	"coderoom/internal/auth"
	"coderoom/internal/cache"
	"coderoom/internal/database"
	"coderoom/internal/models"
)

type registerRequest struct {
	Username     string `json:"username"`
	Password     string `json:"password"`
	Confirmation string `json:"confirmation"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type tokenResponse struct {
	Token    string `json:"token"`
	Username string `json:"username"`
}

// RegisterHandler creates a named account. Password and confirmation must
// match; duplicate usernames are rejected.
func RegisterHandler(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}
	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || req.Password == "" {
		http.Error(w, "name and password are required", http.StatusBadRequest)
		return
	}
	if req.Password != req.Confirmation {
		http.Error(w, "passwords must match", http.StatusBadRequest)
		return
	}

	user := models.User{Username: req.Username, Password: req.Password}
	if err := database.CreateUser(r.Context(), &user); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			http.Error(w, "that name is already taken", http.StatusConflict)
			return
		}
		http.Error(w, "error creating user", http.StatusInternalServerError)
		return
	}

	token, err := auth.CreateJWT(user.ID.String())
	if err != nil {
		http.Error(w, "failed to create session", http.StatusInternalServerError)
		return
	}
	setAuthCookie(w, token)
	writeJSON(w, http.StatusCreated, tokenResponse{Token: token, Username: user.Username})
}

// LoginHandler keeps the original screens' login-or-register behavior: an
// unknown username creates the account on the spot, a known username must
// present the right password.
func LoginHandler(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request payload", http.StatusBadRequest)
		return
	}
	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || req.Password == "" {
		http.Error(w, "name and password are required", http.StatusBadRequest)
		return
	}

	token, err := database.AuthenticateUser(r.Context(), req.Username, req.Password)
	if errors.Is(err, database.ErrUserNotFound) {
		user := models.User{Username: req.Username, Password: req.Password}
		if createErr := database.CreateUser(r.Context(), &user); createErr != nil {
			http.Error(w, "could not create user, try a different name", http.StatusConflict)
			return
		}
		token, err = auth.CreateJWT(user.ID.String())
	}
	if err != nil {
		log.Printf("failed to authenticate user: %v", err)
		http.Error(w, "authentication failed", http.StatusForbidden)
		return
	}

	setAuthCookie(w, token)
	writeJSON(w, http.StatusOK, tokenResponse{Token: token, Username: req.Username})
}

// GuestHandler creates an ephemeral user named from the shared Redis
// counter ("Player A", "Player B", ...) and hands back a session.
func GuestHandler(w http.ResponseWriter, r *http.Request) {
	name, err := cache.NextGuestName(r.Context())
	if err != nil {
		http.Error(w, "failed to allocate guest name", http.StatusInternalServerError)
		return
	}

	user := models.User{Username: name, IsGuest: true}
	if err := database.CreateUser(r.Context(), &user); err != nil {
		http.Error(w, "failed to create guest user", http.StatusInternalServerError)
		return
	}

	token, err := auth.CreateJWT(user.ID.String())
	if err != nil {
		http.Error(w, "failed to create session", http.StatusInternalServerError)
		return
	}
	setAuthCookie(w, token)
	writeJSON(w, http.StatusCreated, tokenResponse{Token: token, Username: user.Username})
}
