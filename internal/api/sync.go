package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lakshan-j/threadgate/internal/cache"
	"go.uber.org/zap"
)

// SyncHandler exposes the view-version counters pollers compare before
// refetching, which bounds staleness without a push channel.
type SyncHandler struct {
	versions *cache.Versions
	logger   *zap.Logger
}

func NewSyncHandler(versions *cache.Versions, logger *zap.Logger) *SyncHandler {
	return &SyncHandler{versions: versions, logger: logger}
}

// Versions handles GET /v1/sync/versions.
func (h *SyncHandler) Versions(c *gin.Context) {
	snapshot, err := h.versions.Snapshot(c.Request.Context())
	if err != nil {
		respondErr(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"versions": snapshot})
}

// ThreadVersion handles GET /v1/sync/threads/:id.
func (h *SyncHandler) ThreadVersion(c *gin.Context) {
	id, ok := parseThreadID(c)
	if !ok {
		return
	}
	version, err := h.versions.ThreadVersion(c.Request.Context(), id)
	if err != nil {
		respondErr(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"thread_id": id, "version": version})
}
