package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/google/uuid"

	"github.com/askmynotes/askmynotes/internal/config"
	db "github.com/askmynotes/askmynotes/internal/core/database"
	"github.com/askmynotes/askmynotes/internal/models"
)

const sessionTTL = 7 * 24 * time.Hour

type AuthHandler struct {
	dbclient db.DbClient
	cfg      *config.Config
}

func NewAuthHandler(dbclient db.DbClient, cfg *config.Config) *AuthHandler {
	return &AuthHandler{dbclient: dbclient, cfg: cfg}
}

type signupRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type userResponse struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid body")
		return
	}
	if req.Username == "" || req.Email == "" || req.Password == "" {
		writeMessage(w, http.StatusBadRequest, "username, email and password are required")
		return
	}

	email := strings.ToLower(req.Email)
	existing, err := h.dbclient.GetUserByEmail(r.Context(), email)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	if existing != nil {
		writeMessage(w, http.StatusConflict, "a user with that email already exists")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		writeErr(w, r, err)
		return
	}

	user := &models.User{
		ID:           uuid.NewString(),
		Username:     req.Username,
		Email:        email,
		PasswordHash: string(hash),
		CreatedAt:    time.Now(),
	}
	if err := h.dbclient.CreateUser(r.Context(), user); err != nil {
		writeMessage(w, http.StatusConflict, "a user with that email already exists")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"user": userResponse{ID: user.ID, Username: user.Username, Email: user.Email},
	})
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid body")
		return
	}
	if req.Email == "" || req.Password == "" {
		writeMessage(w, http.StatusBadRequest, "email and password are required")
		return
	}

	user, err := h.dbclient.GetUserByEmail(r.Context(), strings.ToLower(req.Email))
	if err != nil {
		writeErr(w, r, err)
		return
	}
	if user == nil || bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		writeMessage(w, http.StatusUnauthorized, "invalid email or password")
		return
	}

	token := generateJWT(user.ID, h.cfg.JWTSecret)

	// Browser clients use the cookie; API clients can use the token directly.
	http.SetCookie(w, &http.Cookie{
		Name:     "token",
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.cfg.CookieSecure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(sessionTTL.Seconds()),
	})

	writeJSON(w, http.StatusOK, map[string]any{
		"token": token,
		"user":  userResponse{ID: user.ID, Username: user.Username, Email: user.Email},
	})
}

// generateJWT creates a signed token with user ID claim
func generateJWT(userID, secret string) string {
	claims := jwt.MapClaims{
		"user_id": userID,
		"exp":     time.Now().Add(sessionTTL).Unix(),
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	token, _ := tok.SignedString([]byte(secret))
	return token
}
