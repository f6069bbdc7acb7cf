package handlers

import (
	"encoding/json"
	"log"
	"net/http"
	"strings"

	"github.com/ild-thl/motbot-sub000/internal/api/auth"
	"github.com/ild-thl/motbot-sub000/internal/api/middleware"
	"github.com/ild-thl/motbot-sub000/internal/repository"
)

type AuthHandler struct {
	adminRepo  repository.AdminRepository
	jwtManager *auth.JWTManager
}

func NewAuthHandler(adminRepo repository.AdminRepository, jwtManager *auth.JWTManager) *AuthHandler {
	return &AuthHandler{
		adminRepo:  adminRepo,
		jwtManager: jwtManager,
	}
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Token     string            `json:"token"`
	ExpiresIn int64             `json:"expires_in"`
	User      AdminUserResponse `json:"user"`
}

type AdminUserResponse struct {
	ID          uint   `json:"id"`
	Username    string `json:"username"`
	Email       string `json:"email"`
	Role        string `json:"role"`
	IsActive    bool   `json:"is_active"`
	LastLoginAt string `json:"last_login_at,omitempty"`
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if strings.TrimSpace(req.Username) == "" || strings.TrimSpace(req.Password) == "" {
		respondError(w, http.StatusBadRequest, "Username and password are required")
		return
	}

	admin, err := h.adminRepo.GetByUsername(req.Username)
	if err != nil {
		log.Printf("Login lookup failed for %s: %v", req.Username, err)
		respondError(w, http.StatusInternalServerError, "Login failed")
		return
	}
	if admin == nil || !admin.CheckPassword(req.Password) {
		log.Printf("Failed login attempt for user: %s", req.Username)
		respondError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	token, err := h.jwtManager.GenerateToken(admin)
	if err != nil {
		log.Printf("Failed to generate token: %v", err)
		respondError(w, http.StatusInternalServerError, "Failed to generate token")
		return
	}

	if err := h.adminRepo.TouchLastLogin(admin.ID); err != nil {
		log.Printf("Failed to update last login: %v", err)
	}

	log.Printf("User logged in: %s (role: %s)", admin.Username, admin.Role)

	response := LoginResponse{
		Token:     token,
		ExpiresIn: 24 * 60 * 60,
		User: AdminUserResponse{
			ID:       admin.ID,
			Username: admin.Username,
			Email:    admin.Email,
			Role:     string(admin.Role),
			IsActive: admin.IsActive,
		},
	}
	if admin.LastLoginAt != nil {
		response.User.LastLoginAt = admin.LastLoginAt.String()
	}

	respondJSON(w, http.StatusOK, response)
}

type RefreshRequest struct {
	Token string `json:"token"`
}

func (h *AuthHandler) RefreshToken(w http.ResponseWriter, r *http.Request) {
	var req RefreshRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Token == "" {
		respondError(w, http.StatusBadRequest, "Token is required")
		return
	}

	token, err := h.jwtManager.RefreshToken(req.Token)
	if err != nil {
		respondError(w, http.StatusUnauthorized, "Invalid or expired token")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"token":      token,
		"expires_in": 24 * 60 * 60,
	})
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetUserFromContext(r.Context())
	if claims == nil {
		respondError(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	admin, err := h.adminRepo.GetByID(claims.UserID)
	if err != nil || admin == nil {
		respondError(w, http.StatusNotFound, "Account not found")
		return
	}

	response := AdminUserResponse{
		ID:       admin.ID,
		Username: admin.Username,
		Email:    admin.Email,
		Role:     string(admin.Role),
		IsActive: admin.IsActive,
	}
	if admin.LastLoginAt != nil {
		response.LastLoginAt = admin.LastLoginAt.String()
	}

	respondJSON(w, http.StatusOK, response)
}
