package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/lakshan-j/threadgate/internal/cache"
	"github.com/lakshan-j/threadgate/internal/chat"
	"github.com/lakshan-j/threadgate/internal/middleware"
	"github.com/lakshan-j/threadgate/internal/observ"
	"go.uber.org/zap"
)

type MessageHandler struct {
	chat     *chat.Service
	versions *cache.Versions
	metrics  *observ.Metrics
	logger   *zap.Logger
}

func NewMessageHandler(
	chatSvc *chat.Service,
	versions *cache.Versions,
	metrics *observ.Metrics,
	logger *zap.Logger,
) *MessageHandler {
	return &MessageHandler{chat: chatSvc, versions: versions, metrics: metrics, logger: logger}
}

func parseMessageID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("msgID"), 10, 64)
	if err != nil || id < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid message ID"})
		return 0, false
	}
	return id, true
}

type sendMessageRequest struct {
	Content string `json:"content" binding:"required"`
}

// Send handles POST /v1/threads/:id/messages.
func (h *MessageHandler) Send(c *gin.Context) {
	threadID, ok := parseThreadID(c)
	if !ok {
		return
	}
	var req sendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	caller := middleware.GetUserID(c)
	msgID, err := h.chat.SendMessage(c.Request.Context(), caller, threadID, req.Content)
	if err != nil {
		respondErr(c, h.logger, err)
		return
	}
	h.metrics.RecordMessageSent()
	h.versions.BumpThread(c.Request.Context(), threadID)
	respondMutation(c, http.StatusCreated, gin.H{"message_id": msgID}, cache.ViewMessages)
}

type editMessageRequest struct {
	Content string `json:"content" binding:"required"`
}

// Edit handles PUT /v1/threads/:id/messages/:msgID.
func (h *MessageHandler) Edit(c *gin.Context) {
	threadID, ok := parseThreadID(c)
	if !ok {
		return
	}
	msgID, ok := parseMessageID(c)
	if !ok {
		return
	}
	var req editMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	caller := middleware.GetUserID(c)
	if err := h.chat.EditMessage(c.Request.Context(), caller, threadID, msgID, req.Content); err != nil {
		respondErr(c, h.logger, err)
		return
	}
	h.versions.BumpThread(c.Request.Context(), threadID)
	respondMutation(c, http.StatusOK, nil, cache.ViewMessages)
}

// Delete handles DELETE /v1/threads/:id/messages/:msgID — soft delete,
// the ordering slot stays.
func (h *MessageHandler) Delete(c *gin.Context) {
	threadID, ok := parseThreadID(c)
	if !ok {
		return
	}
	msgID, ok := parseMessageID(c)
	if !ok {
		return
	}
	caller := middleware.GetUserID(c)
	if err := h.chat.DeleteMessage(c.Request.Context(), caller, threadID, msgID); err != nil {
		respondErr(c, h.logger, err)
		return
	}
	h.versions.BumpThread(c.Request.Context(), threadID)
	respondMutation(c, http.StatusOK, nil, cache.ViewMessages)
}
