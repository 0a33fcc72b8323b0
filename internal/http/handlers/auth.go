package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"farm-market/internal/auth"
	"farm-market/internal/model"
)

type UserStore interface {
	Insert(ctx context.Context, u model.User) error
	ByEmail(ctx context.Context, email string) (model.User, error)
	Update(ctx context.Context, u model.User) error
}

type SessionStore interface {
	Create(ctx context.Context, userID uuid.UUID) (string, error)
	Destroy(ctx context.Context, token string) error
}

type AuthHandler struct {
	Users    UserStore
	Sessions SessionStore
	Log      zerolog.Logger
}

type registerReq struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeFail(w, http.StatusBadRequest, "bad json")
		return
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Username == "" || req.Email == "" || req.Password == "" {
		writeFail(w, http.StatusBadRequest, "username, email and password are required")
		return
	}
	role, ok := model.ParseRole(req.Role)
	if !ok {
		writeFail(w, http.StatusBadRequest, "role must be farmer or buyer")
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	u := model.User{
		ID:           uuid.New(),
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: hash,
		Role:         role,
		CreatedAt:    time.Now(),
	}
	if err := h.Users.Insert(r.Context(), u); err != nil {
		writeError(w, h.Log, err)
		return
	}
	h.Log.Info().Str("user_id", u.ID.String()).Str("role", string(role)).Msg("user registered")
	writeJSON(w, http.StatusCreated, result{Success: true, Message: "registration successful, please log in"})
}

type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResp struct {
	Success bool   `json:"success"`
	Token   string `json:"token"`
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeFail(w, http.StatusBadRequest, "bad json")
		return
	}

	u, err := h.Users.ByEmail(r.Context(), strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil || !auth.CheckPassword(req.Password, u.PasswordHash) {
		// Same answer for unknown email and wrong password.
		writeFail(w, http.StatusUnauthorized, "invalid email or password")
		return
	}

	token, err := h.Sessions.Create(r.Context(), u.ID)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, loginResp{Success: true, Token: token})
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.Sessions.Destroy(r.Context(), BearerToken(r)); err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeOK(w)
}

type profileReq struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"` // optional; empty keeps the current one
}

func (h *AuthHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	u, ok := CurrentUser(r.Context())
	if !ok {
		writeFail(w, http.StatusUnauthorized, "not logged in")
		return
	}

	var req profileReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeFail(w, http.StatusBadRequest, "bad json")
		return
	}
	if req.Username != "" {
		u.Username = req.Username
	}
	if req.Email != "" {
		u.Email = strings.ToLower(strings.TrimSpace(req.Email))
	}
	if req.Password != "" {
		hash, err := auth.HashPassword(req.Password)
		if err != nil {
			writeError(w, h.Log, err)
			return
		}
		u.PasswordHash = hash
	}

	if err := h.Users.Update(r.Context(), u); err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, result{Success: true, Message: "profile updated"})
}
