package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/lakshan-j/threadgate/internal/access"
	"github.com/lakshan-j/threadgate/internal/cache"
	"github.com/lakshan-j/threadgate/internal/middleware"
	"github.com/lakshan-j/threadgate/internal/models"
	"github.com/lakshan-j/threadgate/internal/observ"
	"go.uber.org/zap"
)

// AccessHandler exposes the entitlement lifecycle. Role enforcement lives
// in the controller; handlers only translate requests and errors.
type AccessHandler struct {
	access   *access.Controller
	versions *cache.Versions
	metrics  *observ.Metrics
	logger   *zap.Logger
}

func NewAccessHandler(
	accessCtl *access.Controller,
	versions *cache.Versions,
	metrics *observ.Metrics,
	logger *zap.Logger,
) *AccessHandler {
	return &AccessHandler{
		access:   accessCtl,
		versions: versions,
		metrics:  metrics,
		logger:   logger,
	}
}

// Request handles POST /v1/access/request. Returns whether a new pending
// request was created; false means a live record already existed.
func (h *AccessHandler) Request(c *gin.Context) {
	created, err := h.access.RequestAccess(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		respondErr(c, h.logger, err)
		return
	}
	if created {
		h.metrics.RecordEntitlementMutation("request")
		h.versions.Bump(c.Request.Context(), cache.ViewEntitlements)
		respondMutation(c, http.StatusOK, gin.H{"requested": true}, cache.ViewEntitlements)
		return
	}
	respondMutation(c, http.StatusOK, gin.H{"requested": false})
}

// Has handles GET /v1/access/check.
func (h *AccessHandler) Has(c *gin.Context) {
	ok, err := h.access.HasAccess(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		respondErr(c, h.logger, err)
		return
	}
	h.metrics.RecordAccessCheck(ok)
	c.JSON(http.StatusOK, gin.H{"has_access": ok})
}

// Current handles GET /v1/access/me — the caller's entitlement with its
// derived status, null when none exists.
func (h *AccessHandler) Current(c *gin.Context) {
	ent, err := h.access.CurrentEntitlement(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		respondErr(c, h.logger, err)
		return
	}
	resp := gin.H{"entitlement": ent}
	resp["derived_status"] = access.DeriveStatus(ent, time.Now().UnixNano())
	c.JSON(http.StatusOK, resp)
}

// Get handles GET /v1/access/users/:id — admin view of one user's record.
func (h *AccessHandler) Get(c *gin.Context) {
	userID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user ID"})
		return
	}
	ent, err := h.access.EntitlementFor(c.Request.Context(), middleware.GetUserID(c), userID)
	if err != nil {
		respondErr(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"entitlement": ent})
}

// All handles GET /v1/access — the admin listing.
func (h *AccessHandler) All(c *gin.Context) {
	ents, err := h.access.AllEntitlements(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		respondErr(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"entitlements": ents})
}

type grantRequest struct {
	User            uuid.UUID                `json:"user" binding:"required"`
	EntitlementType models.EntitlementType   `json:"entitlement_type" binding:"required"`
	Source          models.EntitlementSource `json:"source" binding:"required"`
	DurationSeconds *int64                   `json:"duration_seconds"`
}

// Grant handles POST /v1/access/grant. Null duration means permanent.
func (h *AccessHandler) Grant(c *gin.Context) {
	var req grantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	var duration *time.Duration
	if req.DurationSeconds != nil {
		d := time.Duration(*req.DurationSeconds) * time.Second
		duration = &d
	}
	caller := middleware.GetUserID(c)
	err := h.access.GrantAccess(c.Request.Context(), caller, req.User, req.EntitlementType, req.Source, duration)
	if err != nil {
		respondErr(c, h.logger, err)
		return
	}
	h.metrics.RecordEntitlementMutation("grant")
	h.versions.Bump(c.Request.Context(), cache.ViewEntitlements)
	respondMutation(c, http.StatusOK, nil, cache.ViewEntitlements)
}

type revokeRequest struct {
	User uuid.UUID `json:"user" binding:"required"`
}

// Revoke handles POST /v1/access/revoke — immediate expiry.
func (h *AccessHandler) Revoke(c *gin.Context) {
	var req revokeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	caller := middleware.GetUserID(c)
	if err := h.access.RevokeAccess(c.Request.Context(), caller, req.User); err != nil {
		respondErr(c, h.logger, err)
		return
	}
	h.metrics.RecordEntitlementMutation("revoke")
	h.versions.Bump(c.Request.Context(), cache.ViewEntitlements)
	respondMutation(c, http.StatusOK, nil, cache.ViewEntitlements)
}

type approveRequest struct {
	User    uuid.UUID `json:"user" binding:"required"`
	Approve *bool     `json:"approve" binding:"required"`
}

// Approve handles POST /v1/access/approve — resolves a pending request
// either way.
func (h *AccessHandler) Approve(c *gin.Context) {
	var req approveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	caller := middleware.GetUserID(c)
	err := h.access.ApproveAccessRequest(c.Request.Context(), caller, req.User, *req.Approve)
	if err != nil {
		respondErr(c, h.logger, err)
		return
	}
	h.metrics.RecordEntitlementMutation("approve")
	h.versions.Bump(c.Request.Context(), cache.ViewEntitlements)
	respondMutation(c, http.StatusOK, nil, cache.ViewEntitlements)
}

type switchTemporaryRequest struct {
	User            uuid.UUID `json:"user" binding:"required"`
	DurationSeconds int64     `json:"duration_seconds" binding:"required"`
}

// SwitchTemporary handles POST /v1/access/temporary — converts an
// open-ended entitlement into a time-boxed one.
func (h *AccessHandler) SwitchTemporary(c *gin.Context) {
	var req switchTemporaryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	caller := middleware.GetUserID(c)
	duration := time.Duration(req.DurationSeconds) * time.Second
	err := h.access.SwitchToTemporaryAccess(c.Request.Context(), caller, req.User, duration)
	if err != nil {
		respondErr(c, h.logger, err)
		return
	}
	h.metrics.RecordEntitlementMutation("switch_temporary")
	h.versions.Bump(c.Request.Context(), cache.ViewEntitlements)
	respondMutation(c, http.StatusOK, nil, cache.ViewEntitlements)
}
