package access

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/lakshan-j/threadgate/internal/models"
	"github.com/lakshan-j/threadgate/internal/repository/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeClock struct {
	t time.Time
}

func (f *fakeClock) Now() time.Time {
	return f.t
}

func (f *fakeClock) Advance(d time.Duration) {
	f.t = f.t.Add(d)
}

type fixture struct {
	ctl          *Controller
	entitlements *memory.EntitlementStore
	roles        *memory.RoleStore
	clock        *fakeClock
	admin        uuid.UUID
	user         uuid.UUID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	clock := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	entitlements := memory.NewEntitlementStore()
	roles := memory.NewRoleStore()
	ctl := NewController(entitlements, roles, 24*time.Hour, clock.Now, zap.NewNop())

	admin := uuid.New()
	require.NoError(t, roles.Set(context.Background(), admin, models.RoleAdmin))

	return &fixture{
		ctl:          ctl,
		entitlements: entitlements,
		roles:        roles,
		clock:        clock,
		admin:        admin,
		user:         uuid.New(),
	}
}

func TestRequestAccess_CreatesPending(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created, err := f.ctl.RequestAccess(ctx, f.user)
	require.NoError(t, err)
	assert.True(t, created)

	ent, err := f.entitlements.Get(ctx, f.user)
	require.NoError(t, err)
	require.NotNil(t, ent)
	assert.Equal(t, models.StatusPending, ent.Status)
	assert.Equal(t, models.EntitlementTrial, ent.EntitlementType)
	assert.Equal(t, models.SourcePromotion, ent.Source)
	assert.Equal(t, f.clock.Now().UnixNano(), ent.RequestTimestamp)
}

func TestRequestAccess_IdempotentWhilePendingOrAuthorized(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created, err := f.ctl.RequestAccess(ctx, f.user)
	require.NoError(t, err)
	require.True(t, created)

	created, err = f.ctl.RequestAccess(ctx, f.user)
	require.NoError(t, err)
	assert.False(t, created, "second request while pending must be a no-op")

	require.NoError(t, f.ctl.ApproveAccessRequest(ctx, f.admin, f.user, true))

	created, err = f.ctl.RequestAccess(ctx, f.user)
	require.NoError(t, err)
	assert.False(t, created, "request while authorized must be a no-op")
}

func TestRequestAccess_RerequestAfterRejection(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.ctl.RequestAccess(ctx, f.user)
	require.NoError(t, err)
	require.NoError(t, f.ctl.ApproveAccessRequest(ctx, f.admin, f.user, false))

	created, err := f.ctl.RequestAccess(ctx, f.user)
	require.NoError(t, err)
	assert.True(t, created)

	ent, err := f.entitlements.Get(ctx, f.user)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, ent.Status)
}

func TestRequestAccess_RerequestAfterExpiry(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	day := 24 * time.Hour
	require.NoError(t, f.ctl.GrantAccess(ctx, f.admin, f.user, models.EntitlementTrial, models.SourceAdminGrant, &day))
	f.clock.Advance(25 * time.Hour)

	created, err := f.ctl.RequestAccess(ctx, f.user)
	require.NoError(t, err)
	assert.True(t, created)
}

func TestApproveAccessRequest(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.ctl.RequestAccess(ctx, f.user)
	require.NoError(t, err)

	require.NoError(t, f.ctl.ApproveAccessRequest(ctx, f.admin, f.user, true))

	ent, err := f.entitlements.Get(ctx, f.user)
	require.NoError(t, err)
	assert.Equal(t, models.StatusApproved, ent.Status)
	assert.Equal(t, f.clock.Now().UnixNano(), ent.StartTime)
	require.NotNil(t, ent.EndTime, "approved self-requests get a trial window")
	assert.Equal(t, f.clock.Now().Add(24*time.Hour).UnixNano(), *ent.EndTime)

	ok, err := f.ctl.HasAccess(ctx, f.user)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestApproveAccessRequest_NoPendingRequest(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	err := f.ctl.ApproveAccessRequest(ctx, f.admin, f.user, true)
	assert.ErrorIs(t, err, models.ErrNotFound)

	// Approved records are not pending either.
	require.NoError(t, f.ctl.GrantAccess(ctx, f.admin, f.user, models.EntitlementPermanent, models.SourceAdminGrant, nil))
	err = f.ctl.ApproveAccessRequest(ctx, f.admin, f.user, true)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestGrantAccess_Permanent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.ctl.GrantAccess(ctx, f.admin, f.user, models.EntitlementPermanent, models.SourceAdminGrant, nil))

	ok, err := f.ctl.HasAccess(ctx, f.user)
	require.NoError(t, err)
	assert.True(t, ok)

	ent, err := f.entitlements.Get(ctx, f.user)
	require.NoError(t, err)
	assert.Nil(t, ent.EndTime)

	// A permanent grant never lapses.
	f.clock.Advance(1000 * 24 * time.Hour)
	ok, err = f.ctl.HasAccess(ctx, f.user)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestGrantAccess_TrialExpires(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	day := 24 * time.Hour
	require.NoError(t, f.ctl.GrantAccess(ctx, f.admin, f.user, models.EntitlementTrial, models.SourceAdminGrant, &day))

	ok, err := f.ctl.HasAccess(ctx, f.user)
	require.NoError(t, err)
	assert.True(t, ok)

	f.clock.Advance(24*time.Hour + time.Second)

	ok, err = f.ctl.HasAccess(ctx, f.user)
	require.NoError(t, err)
	assert.False(t, ok)

	ent, err := f.entitlements.Get(ctx, f.user)
	require.NoError(t, err)
	assert.Equal(t, models.DerivedExpired, DeriveStatus(ent, f.clock.Now().UnixNano()))
	// The stored status stays approved until the lazy promotion pass.
	assert.Equal(t, models.StatusApproved, ent.Status)
}

func TestRevokeAccess(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.ctl.GrantAccess(ctx, f.admin, f.user, models.EntitlementPermanent, models.SourceAdminGrant, nil))

	ok, err := f.ctl.HasAccess(ctx, f.user)
	require.NoError(t, err)
	require.True(t, ok)

	f.clock.Advance(time.Second)
	require.NoError(t, f.ctl.RevokeAccess(ctx, f.admin, f.user))

	f.clock.Advance(time.Nanosecond)
	ok, err = f.ctl.HasAccess(ctx, f.user)
	require.NoError(t, err)
	assert.False(t, ok)

	// The record survives revocation for audit.
	ent, err := f.entitlements.Get(ctx, f.user)
	require.NoError(t, err)
	require.NotNil(t, ent)

	// Revoking a user with no record is a no-op.
	require.NoError(t, f.ctl.RevokeAccess(ctx, f.admin, uuid.New()))
}

func TestSwitchToTemporaryAccess(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	err := f.ctl.SwitchToTemporaryAccess(ctx, f.admin, f.user, time.Hour)
	assert.ErrorIs(t, err, models.ErrNotFound)

	require.NoError(t, f.ctl.GrantAccess(ctx, f.admin, f.user, models.EntitlementPermanent, models.SourceAdminGrant, nil))
	require.NoError(t, f.ctl.SwitchToTemporaryAccess(ctx, f.admin, f.user, time.Hour))

	ent, err := f.entitlements.Get(ctx, f.user)
	require.NoError(t, err)
	require.NotNil(t, ent.EndTime)
	assert.Equal(t, f.clock.Now().Add(time.Hour).UnixNano(), *ent.EndTime)

	f.clock.Advance(2 * time.Hour)
	ok, err := f.ctl.HasAccess(ctx, f.user)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestAdminOnlyOperations_RejectNonAdmin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	outsider := uuid.New()

	_, err := f.ctl.RequestAccess(ctx, f.user)
	require.NoError(t, err)

	before, err := f.entitlements.GetAll(ctx)
	require.NoError(t, err)

	day := 24 * time.Hour
	calls := []error{
		f.ctl.ApproveAccessRequest(ctx, outsider, f.user, true),
		f.ctl.GrantAccess(ctx, outsider, f.user, models.EntitlementPermanent, models.SourceAdminGrant, nil),
		f.ctl.RevokeAccess(ctx, outsider, f.user),
		f.ctl.SwitchToTemporaryAccess(ctx, outsider, f.user, day),
		f.ctl.AssignRole(ctx, outsider, outsider, models.RoleAdmin),
	}
	for _, err := range calls {
		assert.ErrorIs(t, err, models.ErrUnauthorized)
	}

	_, err = f.ctl.AllEntitlements(ctx, outsider)
	assert.ErrorIs(t, err, models.ErrUnauthorized)
	_, err = f.ctl.EntitlementFor(ctx, outsider, f.user)
	assert.ErrorIs(t, err, models.ErrUnauthorized)

	// No admin-only failure may leave a trace in the store.
	after, err := f.entitlements.GetAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, before, after)

	role, err := f.ctl.RoleOf(ctx, outsider)
	require.NoError(t, err)
	assert.Equal(t, models.RoleUser, role, "self-promotion must not stick")
}

func TestAllEntitlements_LazyExpiryPromotion(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	day := 24 * time.Hour
	require.NoError(t, f.ctl.GrantAccess(ctx, f.admin, f.user, models.EntitlementTrial, models.SourceAdminGrant, &day))
	f.clock.Advance(48 * time.Hour)

	ents, err := f.ctl.AllEntitlements(ctx, f.admin)
	require.NoError(t, err)
	require.Len(t, ents, 1)
	assert.Equal(t, models.StatusExpired, ents[0].Status)

	stored, err := f.entitlements.Get(ctx, f.user)
	require.NoError(t, err)
	assert.Equal(t, models.StatusExpired, stored.Status)
}

func TestAssignRole(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.ctl.AssignRole(ctx, f.admin, f.user, models.RoleAdmin))

	isAdmin, err := f.ctl.IsAdmin(ctx, f.user)
	require.NoError(t, err)
	assert.True(t, isAdmin)

	err = f.ctl.AssignRole(ctx, f.admin, f.user, models.UserRole("owner"))
	assert.ErrorIs(t, err, models.ErrInvalidArgument)
}
