package chat

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

// openGate authorizes everyone; closedGate authorizes no one.
type openGate struct{}

func (openGate) HasAccess(ctx context.Context, caller uuid.UUID) (bool, error) {
	return true, nil
}

type closedGate struct{}

func (closedGate) HasAccess(ctx context.Context, caller uuid.UUID) (bool, error) {
	return false, nil
}

type fixture struct {
	svc    *Service
	blocks *memory.BlockStore
	alice  uuid.UUID
	bob    uuid.UUID
}

func newFixture(t *testing.T, gate AccessGate) *fixture {
	t.Helper()
	messages := memory.NewMessageStore()
	threads := memory.NewThreadStore(messages)
	blocks := memory.NewBlockStore()
	svc := NewService(threads, messages, blocks, gate, time.Now, zap.NewNop())
	return &fixture{
		svc:    svc,
		blocks: blocks,
		alice:  uuid.New(),
		bob:    uuid.New(),
	}
}

func TestCreateThread(t *testing.T) {
	f := newFixture(t, openGate{})
	ctx := context.Background()

	id, err := f.svc.CreateThread(ctx, f.alice, []uuid.UUID{f.bob})
	require.NoError(t, err)
	assert.Greater(t, id, int64(0))

	// The caller is part of the thread even when not named explicitly.
	view, err := f.svc.GetThread(ctx, f.alice, id)
	require.NoError(t, err)
	assert.ElementsMatch(t, []uuid.UUID{f.alice, f.bob}, view.Participants)
}

func TestCreateThread_DeduplicatesParticipants(t *testing.T) {
	f := newFixture(t, openGate{})
	ctx := context.Background()

	id, err := f.svc.CreateThread(ctx, f.alice, []uuid.UUID{f.bob, f.bob, f.alice})
	require.NoError(t, err)

	view, err := f.svc.GetThread(ctx, f.alice, id)
	require.NoError(t, err)
	assert.Len(t, view.Participants, 2)
}

func TestCreateThread_RequiresTwoParticipants(t *testing.T) {
	f := newFixture(t, openGate{})
	ctx := context.Background()

	_, err := f.svc.CreateThread(ctx, f.alice, nil)
	assert.ErrorIs(t, err, models.ErrInvalidArgument)

	// Naming only yourself is still a one-party thread.
	_, err = f.svc.CreateThread(ctx, f.alice, []uuid.UUID{f.alice})
	assert.ErrorIs(t, err, models.ErrInvalidArgument)
}

func TestSendAndReadAcrossParticipants(t *testing.T) {
	f := newFixture(t, openGate{})
	ctx := context.Background()

	id, err := f.svc.CreateThread(ctx, f.alice, []uuid.UUID{f.bob})
	require.NoError(t, err)

	msgID, err := f.svc.SendMessage(ctx, f.alice, id, "hello bob")
	require.NoError(t, err)

	msgs, err := f.svc.GetMessages(ctx, f.bob, id)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, msgID, msgs[0].ID)
	assert.Equal(t, f.alice, msgs[0].Sender)
	assert.Equal(t, "hello bob", msgs[0].Content)
	assert.False(t, msgs[0].Deleted)
}

func TestSendMessage_RequiresAccess(t *testing.T) {
	f := newFixture(t, closedGate{})
	ctx := context.Background()

	// Thread creation is not gated; sending is.
	id, err := f.svc.CreateThread(ctx, f.alice, []uuid.UUID{f.bob})
	require.NoError(t, err)

	_, err = f.svc.SendMessage(ctx, f.alice, id, "hi")
	assert.ErrorIs(t, err, models.ErrUnauthorized)
}

func TestSendMessage_RejectsOutsidersAndEmptyContent(t *testing.T) {
	f := newFixture(t, openGate{})
	ctx := context.Background()

	id, err := f.svc.CreateThread(ctx, f.alice, []uuid.UUID{f.bob})
	require.NoError(t, err)

	_, err = f.svc.SendMessage(ctx, uuid.New(), id, "hi")
	assert.ErrorIs(t, err, models.ErrForbidden)

	_, err = f.svc.SendMessage(ctx, f.alice, id, "   ")
	assert.ErrorIs(t, err, models.ErrInvalidArgument)

	_, err = f.svc.SendMessage(ctx, f.alice, 999, "hi")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestSendMessage_BlockedUntilUnblocked(t *testing.T) {
	f := newFixture(t, openGate{})
	ctx := context.Background()

	id, err := f.svc.CreateThread(ctx, f.alice, []uuid.UUID{f.bob})
	require.NoError(t, err)

	require.NoError(t, f.svc.Block(ctx, f.alice, f.bob))

	_, err = f.svc.SendMessage(ctx, f.alice, id, "hi")
	assert.ErrorIs(t, err, models.ErrBlocked)

	// Enforcement is one-directional: the blocked side can still send.
	_, err = f.svc.SendMessage(ctx, f.bob, id, "hello?")
	assert.NoError(t, err)

	require.NoError(t, f.svc.Unblock(ctx, f.alice, f.bob))
	_, err = f.svc.SendMessage(ctx, f.alice, id, "hi again")
	assert.NoError(t, err)
}

func TestEditMessage(t *testing.T) {
	f := newFixture(t, openGate{})
	ctx := context.Background()

	id, err := f.svc.CreateThread(ctx, f.alice, []uuid.UUID{f.bob})
	require.NoError(t, err)
	msgID, err := f.svc.SendMessage(ctx, f.alice, id, "helo")
	require.NoError(t, err)

	before, err := f.svc.GetMessages(ctx, f.alice, id)
	require.NoError(t, err)

	require.NoError(t, f.svc.EditMessage(ctx, f.alice, id, msgID, "hello"))

	after, err := f.svc.GetMessages(ctx, f.alice, id)
	require.NoError(t, err)
	require.Len(t, after, 1)
	assert.Equal(t, "hello", after[0].Content)
	assert.Equal(t, before[0].ID, after[0].ID)
	assert.Equal(t, before[0].Timestamp, after[0].Timestamp)
}

func TestEditMessage_OnlySender(t *testing.T) {
	f := newFixture(t, openGate{})
	ctx := context.Background()

	id, err := f.svc.CreateThread(ctx, f.alice, []uuid.UUID{f.bob})
	require.NoError(t, err)
	msgID, err := f.svc.SendMessage(ctx, f.alice, id, "mine")
	require.NoError(t, err)

	err = f.svc.EditMessage(ctx, f.bob, id, msgID, "yours now")
	assert.ErrorIs(t, err, models.ErrUnauthorized)
}

func TestDeleteMessage_TombstoneAndInvalidState(t *testing.T) {
	f := newFixture(t, openGate{})
	ctx := context.Background()

	id, err := f.svc.CreateThread(ctx, f.alice, []uuid.UUID{f.bob})
	require.NoError(t, err)
	msgID, err := f.svc.SendMessage(ctx, f.alice, id, "regret")
	require.NoError(t, err)

	err = f.svc.DeleteMessage(ctx, f.bob, id, msgID)
	assert.ErrorIs(t, err, models.ErrUnauthorized, "only the sender may delete")

	require.NoError(t, f.svc.DeleteMessage(ctx, f.alice, id, msgID))

	msgs, err := f.svc.GetMessages(ctx, f.bob, id)
	require.NoError(t, err)
	require.Len(t, msgs, 1, "the ordering slot is retained")
	assert.True(t, msgs[0].Deleted)
	assert.Equal(t, models.Tombstone, msgs[0].Content)

	// Deleting again leaves it deleted; editing it is now illegal.
	require.NoError(t, f.svc.DeleteMessage(ctx, f.alice, id, msgID))
	err = f.svc.EditMessage(ctx, f.alice, id, msgID, "undo")
	assert.ErrorIs(t, err, models.ErrInvalidState)
}

func TestDeleteThread(t *testing.T) {
	f := newFixture(t, openGate{})
	ctx := context.Background()

	id, err := f.svc.CreateThread(ctx, f.alice, []uuid.UUID{f.bob})
	require.NoError(t, err)
	_, err = f.svc.SendMessage(ctx, f.alice, id, "soon gone")
	require.NoError(t, err)

	err = f.svc.DeleteThread(ctx, uuid.New(), id)
	assert.ErrorIs(t, err, models.ErrForbidden)

	require.NoError(t, f.svc.DeleteThread(ctx, f.bob, id))

	for _, user := range []uuid.UUID{f.alice, f.bob} {
		ids, err := f.svc.UserThreads(ctx, user)
		require.NoError(t, err)
		assert.Empty(t, ids)
	}

	_, err = f.svc.GetThread(ctx, f.alice, id)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestUserThreads(t *testing.T) {
	f := newFixture(t, openGate{})
	ctx := context.Background()
	carol := uuid.New()

	first, err := f.svc.CreateThread(ctx, f.alice, []uuid.UUID{f.bob})
	require.NoError(t, err)
	second, err := f.svc.CreateThread(ctx, f.alice, []uuid.UUID{carol})
	require.NoError(t, err)

	ids, err := f.svc.UserThreads(ctx, f.alice)
	require.NoError(t, err)
	assert.Equal(t, []int64{second, first}, ids, "newest first")

	ids, err = f.svc.UserThreads(ctx, f.bob)
	require.NoError(t, err)
	assert.Equal(t, []int64{first}, ids)
}

func TestBlockList(t *testing.T) {
	f := newFixture(t, openGate{})
	ctx := context.Background()

	err := f.svc.Block(ctx, f.alice, f.alice)
	assert.ErrorIs(t, err, models.ErrInvalidArgument)

	require.NoError(t, f.svc.Block(ctx, f.alice, f.bob))
	require.NoError(t, f.svc.Block(ctx, f.alice, f.bob), "blocking is idempotent")

	blocked, err := f.svc.HasBlocked(ctx, f.alice, f.bob)
	require.NoError(t, err)
	assert.True(t, blocked)

	// Direction matters: bob has not blocked alice.
	blocked, err = f.svc.HasBlocked(ctx, f.bob, f.alice)
	require.NoError(t, err)
	assert.False(t, blocked)

	list, err := f.svc.BlockedUsers(ctx, f.alice)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{f.bob}, list)

	require.NoError(t, f.svc.Unblock(ctx, f.alice, f.bob))
	require.NoError(t, f.svc.Unblock(ctx, f.alice, f.bob), "unblocking is idempotent")

	list, err = f.svc.BlockedUsers(ctx, f.alice)
	require.NoError(t, err)
	assert.Empty(t, list)
}
