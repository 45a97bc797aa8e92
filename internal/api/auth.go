package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lakshan-j/threadgate/internal/auth"
	"github.com/lakshan-j/threadgate/internal/models"
	"github.com/lakshan-j/threadgate/internal/repository"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// AuthHandler owns the only public endpoints: signup and login. Identity
// here is deliberately thin — the rest of the system only consumes the
// opaque user id carried by the token.
type AuthHandler struct {
	accounts            repository.AccountRepository
	roles               repository.RoleRepository
	jwtSecret           string
	bootstrapAdminEmail string
	logger              *zap.Logger
}

func NewAuthHandler(
	accounts repository.AccountRepository,
	roles repository.RoleRepository,
	jwtSecret string,
	bootstrapAdminEmail string,
	logger *zap.Logger,
) *AuthHandler {
	return &AuthHandler{
		accounts:            accounts,
		roles:               roles,
		jwtSecret:           jwtSecret,
		bootstrapAdminEmail: bootstrapAdminEmail,
		logger:              logger,
	}
}

type signupRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type authResponse struct {
	Token string `json:"token"`
}

// Signup handles POST /v1/auth/signup.
func (h *AuthHandler) Signup(c *gin.Context) {
	var req signupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		h.logger.Error("failed to hash password", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "signup failed"})
		return
	}

	acc, err := h.accounts.Create(c.Request.Context(), req.Email, string(hash))
	if err != nil {
		respondErr(c, h.logger, err)
		return
	}

	// First-admin bootstrap: the configured email gets the admin role at
	// signup. Every later role change goes through the admin-only
	// role-assignment endpoint.
	if h.bootstrapAdminEmail != "" && strings.EqualFold(acc.Email, h.bootstrapAdminEmail) {
		if err := h.roles.Set(c.Request.Context(), acc.ID, models.RoleAdmin); err != nil {
			h.logger.Error("failed to bootstrap admin role", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "signup failed"})
			return
		}
		h.logger.Info("bootstrap admin assigned", zap.String("user", acc.ID.String()))
	}

	token, err := auth.GenerateToken(acc.ID, acc.Email, h.jwtSecret, 24*time.Hour)
	if err != nil {
		h.logger.Error("failed to generate token", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "signup failed"})
		return
	}

	c.JSON(http.StatusCreated, authResponse{Token: token})
}

// Login handles POST /v1/auth/login.
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	acc, err := h.accounts.GetByEmail(c.Request.Context(), req.Email)
	if err != nil {
		h.logger.Error("failed to find account", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "login failed"})
		return
	}

	// One generic message for unknown email and wrong password; the
	// difference would leak which addresses are registered.
	if acc == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid email or password"})
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(acc.PasswordHash), []byte(req.Password)); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid email or password"})
		return
	}

	token, err := auth.GenerateToken(acc.ID, acc.Email, h.jwtSecret, 24*time.Hour)
	if err != nil {
		h.logger.Error("failed to generate token", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "login failed"})
		return
	}

	c.JSON(http.StatusOK, authResponse{Token: token})
}
