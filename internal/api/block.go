package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/lakshan-j/threadgate/internal/cache"
	"github.com/lakshan-j/threadgate/internal/chat"
	"github.com/lakshan-j/threadgate/internal/middleware"
	"go.uber.org/zap"
)

type BlockHandler struct {
	chat     *chat.Service
	versions *cache.Versions
	logger   *zap.Logger
}

func NewBlockHandler(chatSvc *chat.Service, versions *cache.Versions, logger *zap.Logger) *BlockHandler {
	return &BlockHandler{chat: chatSvc, versions: versions, logger: logger}
}

func parseUserID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user ID"})
		return uuid.Nil, false
	}
	return id, true
}

// Block handles PUT /v1/blocks/:id. Idempotent.
func (h *BlockHandler) Block(c *gin.Context) {
	userID, ok := parseUserID(c)
	if !ok {
		return
	}
	if err := h.chat.Block(c.Request.Context(), middleware.GetUserID(c), userID); err != nil {
		respondErr(c, h.logger, err)
		return
	}
	h.versions.Bump(c.Request.Context(), cache.ViewBlocklist)
	respondMutation(c, http.StatusOK, nil, cache.ViewBlocklist)
}

// Unblock handles DELETE /v1/blocks/:id. Idempotent.
func (h *BlockHandler) Unblock(c *gin.Context) {
	userID, ok := parseUserID(c)
	if !ok {
		return
	}
	if err := h.chat.Unblock(c.Request.Context(), middleware.GetUserID(c), userID); err != nil {
		respondErr(c, h.logger, err)
		return
	}
	h.versions.Bump(c.Request.Context(), cache.ViewBlocklist)
	respondMutation(c, http.StatusOK, nil, cache.ViewBlocklist)
}

// Has handles GET /v1/blocks/:id — whether the caller blocks that user.
func (h *BlockHandler) Has(c *gin.Context) {
	userID, ok := parseUserID(c)
	if !ok {
		return
	}
	blocked, err := h.chat.HasBlocked(c.Request.Context(), middleware.GetUserID(c), userID)
	if err != nil {
		respondErr(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"blocked": blocked})
}

// List handles GET /v1/blocks — the caller's full block set.
func (h *BlockHandler) List(c *gin.Context) {
	blocked, err := h.chat.BlockedUsers(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		respondErr(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"blocked": blocked})
}
