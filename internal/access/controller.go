package access

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lakshan-j/threadgate/internal/models"
	"github.com/lakshan-j/threadgate/internal/repository"
	"go.uber.org/zap"
)

// DefaultTrialDuration is the access window given to an approved
// self-request when the admin did not pick one via GrantAccess.
const DefaultTrialDuration = 30 * 24 * time.Hour

// Controller owns every mutation of access entitlements and the
// authorization gate the messaging service consumes. Role enforcement for
// the admin-only operations happens here, not in the stores.
type Controller struct {
	entitlements  repository.EntitlementRepository
	roles         repository.RoleRepository
	trialDuration time.Duration
	now           func() time.Time
	logger        *zap.Logger
}

func NewController(
	entitlements repository.EntitlementRepository,
	roles repository.RoleRepository,
	trialDuration time.Duration,
	now func() time.Time,
	logger *zap.Logger,
) *Controller {
	if trialDuration <= 0 {
		trialDuration = DefaultTrialDuration
	}
	if now == nil {
		now = time.Now
	}
	return &Controller{
		entitlements:  entitlements,
		roles:         roles,
		trialDuration: trialDuration,
		now:           now,
		logger:        logger,
	}
}

func (c *Controller) nowNanos() int64 {
	return c.now().UnixNano()
}

// requireAdmin fails with models.ErrUnauthorized before any state is read
// or written on behalf of the operation.
func (c *Controller) requireAdmin(ctx context.Context, caller uuid.UUID) error {
	role, err := c.roles.Get(ctx, caller)
	if err != nil {
		return fmt.Errorf("get caller role: %w", err)
	}
	if role != models.RoleAdmin {
		return models.ErrUnauthorized
	}
	return nil
}

// RequestAccess creates a pending entitlement for the caller.
//
// Idempotent against live records: while the caller derives as pending or
// authorized the call is a no-op returning false. An expired or rejected
// record may be re-requested and is overwritten with a fresh pending one.
func (c *Controller) RequestAccess(ctx context.Context, caller uuid.UUID) (bool, error) {
	ent, err := c.entitlements.Get(ctx, caller)
	if err != nil {
		return false, fmt.Errorf("get entitlement: %w", err)
	}
	now := c.nowNanos()
	switch DeriveStatus(ent, now) {
	case models.DerivedPending, models.DerivedAuthorized:
		return false, nil
	}

	fresh := models.AccessEntitlement{
		User:             caller,
		EntitlementType:  models.EntitlementTrial,
		Source:           models.SourcePromotion,
		Status:           models.StatusPending,
		RequestTimestamp: now,
	}
	if err := c.entitlements.Upsert(ctx, fresh); err != nil {
		return false, fmt.Errorf("upsert entitlement: %w", err)
	}
	c.logger.Info("access requested", zap.String("user", caller.String()))
	return true, nil
}

// ApproveAccessRequest resolves a pending request. Approval starts a trial
// window; admins wanting different terms use GrantAccess instead.
func (c *Controller) ApproveAccessRequest(ctx context.Context, caller, user uuid.UUID, approve bool) error {
	if err := c.requireAdmin(ctx, caller); err != nil {
		return err
	}
	ent, err := c.entitlements.Get(ctx, user)
	if err != nil {
		return fmt.Errorf("get entitlement: %w", err)
	}
	if ent == nil || ent.Status != models.StatusPending {
		return fmt.Errorf("no pending request for %s: %w", user, models.ErrNotFound)
	}

	if approve {
		now := c.nowNanos()
		end := now + c.trialDuration.Nanoseconds()
		ent.Status = models.StatusApproved
		ent.StartTime = now
		ent.EndTime = &end
	} else {
		ent.Status = models.StatusRejected
	}
	if err := c.entitlements.Upsert(ctx, *ent); err != nil {
		return fmt.Errorf("upsert entitlement: %w", err)
	}
	c.logger.Info("access request resolved",
		zap.String("user", user.String()),
		zap.Bool("approved", approve),
	)
	return nil
}

// GrantAccess unconditionally creates or overwrites an approved
// entitlement. A nil duration means no expiry.
func (c *Controller) GrantAccess(ctx context.Context, caller, user uuid.UUID, typ models.EntitlementType, source models.EntitlementSource, duration *time.Duration) error {
	if err := c.requireAdmin(ctx, caller); err != nil {
		return err
	}
	if !models.ValidEntitlementType(typ) || !models.ValidEntitlementSource(source) {
		return fmt.Errorf("unknown entitlement type or source: %w", models.ErrInvalidArgument)
	}
	if duration != nil && *duration < 0 {
		return fmt.Errorf("negative duration: %w", models.ErrInvalidArgument)
	}

	now := c.nowNanos()
	ent := models.AccessEntitlement{
		User:             user,
		EntitlementType:  typ,
		Source:           source,
		Status:           models.StatusApproved,
		RequestTimestamp: now,
		StartTime:        now,
	}
	if duration != nil {
		end := now + duration.Nanoseconds()
		ent.EndTime = &end
	}
	if err := c.entitlements.Upsert(ctx, ent); err != nil {
		return fmt.Errorf("upsert entitlement: %w", err)
	}
	c.logger.Info("access granted",
		zap.String("user", user.String()),
		zap.String("type", string(typ)),
		zap.Bool("permanent", duration == nil),
	)
	return nil
}

// RevokeAccess caps the entitlement at the current instant, which makes it
// derive as expired immediately. The record is kept for audit. Revoking a
// user with no entitlement is a no-op.
func (c *Controller) RevokeAccess(ctx context.Context, caller, user uuid.UUID) error {
	if err := c.requireAdmin(ctx, caller); err != nil {
		return err
	}
	ent, err := c.entitlements.Get(ctx, user)
	if err != nil {
		return fmt.Errorf("get entitlement: %w", err)
	}
	if ent == nil {
		return nil
	}
	now := c.nowNanos()
	ent.EndTime = &now
	if err := c.entitlements.Upsert(ctx, *ent); err != nil {
		return fmt.Errorf("upsert entitlement: %w", err)
	}
	c.logger.Info("access revoked", zap.String("user", user.String()))
	return nil
}

// SwitchToTemporaryAccess converts an open-ended entitlement into a
// time-boxed one ending duration from now.
func (c *Controller) SwitchToTemporaryAccess(ctx context.Context, caller, user uuid.UUID, duration time.Duration) error {
	if err := c.requireAdmin(ctx, caller); err != nil {
		return err
	}
	if duration <= 0 {
		return fmt.Errorf("duration must be positive: %w", models.ErrInvalidArgument)
	}
	ent, err := c.entitlements.Get(ctx, user)
	if err != nil {
		return fmt.Errorf("get entitlement: %w", err)
	}
	if ent == nil {
		return fmt.Errorf("no entitlement for %s: %w", user, models.ErrNotFound)
	}
	end := c.nowNanos() + duration.Nanoseconds()
	ent.EndTime = &end
	if err := c.entitlements.Upsert(ctx, *ent); err != nil {
		return fmt.Errorf("upsert entitlement: %w", err)
	}
	c.logger.Info("access switched to temporary",
		zap.String("user", user.String()),
		zap.Duration("duration", duration),
	)
	return nil
}

// HasAccess is the single authorization gate consumed by messaging and by
// thread/message reads.
func (c *Controller) HasAccess(ctx context.Context, caller uuid.UUID) (bool, error) {
	ent, err := c.entitlements.Get(ctx, caller)
	if err != nil {
		return false, fmt.Errorf("get entitlement: %w", err)
	}
	return DeriveStatus(ent, c.nowNanos()) == models.DerivedAuthorized, nil
}

// CurrentEntitlement returns the caller's own record, nil if none.
func (c *Controller) CurrentEntitlement(ctx context.Context, caller uuid.UUID) (*models.AccessEntitlement, error) {
	ent, err := c.entitlements.Get(ctx, caller)
	if err != nil {
		return nil, fmt.Errorf("get entitlement: %w", err)
	}
	return ent, nil
}

// EntitlementFor returns any user's record. Admin-only.
func (c *Controller) EntitlementFor(ctx context.Context, caller, user uuid.UUID) (*models.AccessEntitlement, error) {
	if err := c.requireAdmin(ctx, caller); err != nil {
		return nil, err
	}
	ent, err := c.entitlements.Get(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("get entitlement: %w", err)
	}
	return ent, nil
}

// AllEntitlements lists every record for the admin screen. Records that
// are stored approved but already past their end time are promoted to the
// stored expired status here; everywhere else the derivation rule catches
// them without a write.
func (c *Controller) AllEntitlements(ctx context.Context, caller uuid.UUID) ([]models.AccessEntitlement, error) {
	if err := c.requireAdmin(ctx, caller); err != nil {
		return nil, err
	}
	ents, err := c.entitlements.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list entitlements: %w", err)
	}
	now := c.nowNanos()
	for i := range ents {
		if ents[i].Status != models.StatusApproved {
			continue
		}
		if ents[i].EndTime == nil || *ents[i].EndTime >= now {
			continue
		}
		ents[i].Status = models.StatusExpired
		if err := c.entitlements.Upsert(ctx, ents[i]); err != nil {
			// The derived status already reports expired; promotion is
			// an optimization and must not fail the listing.
			c.logger.Warn("lazy expiry promotion failed",
				zap.String("user", ents[i].User.String()),
				zap.Error(err),
			)
		}
	}
	return ents, nil
}

// RoleOf returns the user's role, defaulting to RoleUser.
func (c *Controller) RoleOf(ctx context.Context, user uuid.UUID) (models.UserRole, error) {
	role, err := c.roles.Get(ctx, user)
	if err != nil {
		return "", fmt.Errorf("get role: %w", err)
	}
	return role, nil
}

// IsAdmin reports whether the caller holds the admin role.
func (c *Controller) IsAdmin(ctx context.Context, caller uuid.UUID) (bool, error) {
	role, err := c.roles.Get(ctx, caller)
	if err != nil {
		return false, fmt.Errorf("get role: %w", err)
	}
	return role == models.RoleAdmin, nil
}

// AssignRole sets a user's role. Admin-only, so a non-admin can never
// self-promote.
func (c *Controller) AssignRole(ctx context.Context, caller, user uuid.UUID, role models.UserRole) error {
	if err := c.requireAdmin(ctx, caller); err != nil {
		return err
	}
	if !models.ValidRole(role) {
		return fmt.Errorf("unknown role %q: %w", role, models.ErrInvalidArgument)
	}
	if err := c.roles.Set(ctx, user, role); err != nil {
		return fmt.Errorf("set role: %w", err)
	}
	c.logger.Info("role assigned",
		zap.String("user", user.String()),
		zap.String("role", string(role)),
	)
	return nil
}
