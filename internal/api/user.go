package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/lakshan-j/threadgate/internal/access"
	"github.com/lakshan-j/threadgate/internal/cache"
	"github.com/lakshan-j/threadgate/internal/middleware"
	"github.com/lakshan-j/threadgate/internal/models"
	"github.com/lakshan-j/threadgate/internal/repository"
	"go.uber.org/zap"
)

// UserHandler covers chat profiles and role administration.
type UserHandler struct {
	profiles repository.ProfileRepository
	access   *access.Controller
	versions *cache.Versions
	logger   *zap.Logger
}

func NewUserHandler(
	profiles repository.ProfileRepository,
	accessCtl *access.Controller,
	versions *cache.Versions,
	logger *zap.Logger,
) *UserHandler {
	return &UserHandler{
		profiles: profiles,
		access:   accessCtl,
		versions: versions,
		logger:   logger,
	}
}

type registerRequest struct {
	DisplayName string `json:"display_name"`
}

// Register handles POST /v1/users/register — creates the caller's chat
// profile. 409 if already registered.
func (h *UserHandler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	profile := models.UserProfile{
		Principal:   middleware.GetUserID(c),
		DisplayName: req.DisplayName,
	}
	if err := h.profiles.Create(c.Request.Context(), profile); err != nil {
		respondErr(c, h.logger, err)
		return
	}
	h.versions.Bump(c.Request.Context(), cache.ViewUsers)
	respondMutation(c, http.StatusCreated, gin.H{"profile": profile}, cache.ViewUsers)
}

// Exists handles GET /v1/users/exists.
func (h *UserHandler) Exists(c *gin.Context) {
	profile, err := h.profiles.Get(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		respondErr(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"exists": profile != nil})
}

// Me handles GET /v1/users/me — null when not registered.
func (h *UserHandler) Me(c *gin.Context) {
	profile, err := h.profiles.Get(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		respondErr(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"profile": profile})
}

type saveProfileRequest struct {
	Principal   uuid.UUID `json:"principal" binding:"required"`
	DisplayName string    `json:"display_name"`
}

// SaveProfile handles PUT /v1/users/me. Only the owner may save their
// profile; the principal is immutable.
func (h *UserHandler) SaveProfile(c *gin.Context) {
	var req saveProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Principal != middleware.GetUserID(c) {
		respondErr(c, h.logger, models.ErrUnauthorized)
		return
	}
	profile := models.UserProfile{
		Principal:   req.Principal,
		DisplayName: req.DisplayName,
	}
	if err := h.profiles.Save(c.Request.Context(), profile); err != nil {
		respondErr(c, h.logger, err)
		return
	}
	h.versions.Bump(c.Request.Context(), cache.ViewUsers)
	respondMutation(c, http.StatusOK, gin.H{"profile": profile}, cache.ViewUsers)
}

// Get handles GET /v1/users/:id — any registered user's profile.
func (h *UserHandler) Get(c *gin.Context) {
	userID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user ID"})
		return
	}
	profile, err := h.profiles.Get(c.Request.Context(), userID)
	if err != nil {
		respondErr(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"profile": profile})
}

// List handles GET /v1/users — every registered chat user.
func (h *UserHandler) List(c *gin.Context) {
	profiles, err := h.profiles.List(c.Request.Context())
	if err != nil {
		respondErr(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": profiles})
}

type assignRoleRequest struct {
	User uuid.UUID       `json:"user" binding:"required"`
	Role models.UserRole `json:"role" binding:"required"`
}

// AssignRole handles POST /v1/users/role. Admin-only, enforced by the
// access controller.
func (h *UserHandler) AssignRole(c *gin.Context) {
	var req assignRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	caller := middleware.GetUserID(c)
	if err := h.access.AssignRole(c.Request.Context(), caller, req.User, req.Role); err != nil {
		respondErr(c, h.logger, err)
		return
	}
	h.versions.Bump(c.Request.Context(), cache.ViewUsers)
	respondMutation(c, http.StatusOK, nil, cache.ViewUsers)
}

// IsAdmin handles GET /v1/users/me/admin.
func (h *UserHandler) IsAdmin(c *gin.Context) {
	isAdmin, err := h.access.IsAdmin(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		respondErr(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"is_admin": isAdmin})
}

// Role handles GET /v1/users/me/role.
func (h *UserHandler) Role(c *gin.Context) {
	role, err := h.access.RoleOf(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		respondErr(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"role": role})
}
