package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/lakshan-j/threadgate/internal/cache"
	"github.com/lakshan-j/threadgate/internal/chat"
	"github.com/lakshan-j/threadgate/internal/middleware"
	"go.uber.org/zap"
)

type ThreadHandler struct {
	chat     *chat.Service
	versions *cache.Versions
	logger   *zap.Logger
}

func NewThreadHandler(chatSvc *chat.Service, versions *cache.Versions, logger *zap.Logger) *ThreadHandler {
	return &ThreadHandler{chat: chatSvc, versions: versions, logger: logger}
}

func parseThreadID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid thread ID"})
		return 0, false
	}
	return id, true
}

type createThreadRequest struct {
	Participants []uuid.UUID `json:"participants" binding:"required"`
}

// Create handles POST /v1/threads. The caller is always included in the
// participant set.
func (h *ThreadHandler) Create(c *gin.Context) {
	var req createThreadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	caller := middleware.GetUserID(c)
	id, err := h.chat.CreateThread(c.Request.Context(), caller, req.Participants)
	if err != nil {
		respondErr(c, h.logger, err)
		return
	}
	h.versions.Bump(c.Request.Context(), cache.ViewThreads)
	respondMutation(c, http.StatusCreated, gin.H{"thread_id": id}, cache.ViewThreads)
}

// List handles GET /v1/threads — ids of the caller's threads.
func (h *ThreadHandler) List(c *gin.Context) {
	ids, err := h.chat.UserThreads(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		respondErr(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"thread_ids": ids})
}

// Get handles GET /v1/threads/:id.
func (h *ThreadHandler) Get(c *gin.Context) {
	id, ok := parseThreadID(c)
	if !ok {
		return
	}
	view, err := h.chat.GetThread(c.Request.Context(), middleware.GetUserID(c), id)
	if err != nil {
		respondErr(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// Messages handles GET /v1/threads/:id/messages.
func (h *ThreadHandler) Messages(c *gin.Context) {
	id, ok := parseThreadID(c)
	if !ok {
		return
	}
	msgs, err := h.chat.GetMessages(c.Request.Context(), middleware.GetUserID(c), id)
	if err != nil {
		respondErr(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": msgs})
}

// Delete handles DELETE /v1/threads/:id — physical, irreversible.
func (h *ThreadHandler) Delete(c *gin.Context) {
	id, ok := parseThreadID(c)
	if !ok {
		return
	}
	if err := h.chat.DeleteThread(c.Request.Context(), middleware.GetUserID(c), id); err != nil {
		respondErr(c, h.logger, err)
		return
	}
	h.versions.Bump(c.Request.Context(), cache.ViewThreads)
	h.versions.BumpThread(c.Request.Context(), id)
	respondMutation(c, http.StatusOK, nil, cache.ViewThreads, cache.ViewMessages)
}
