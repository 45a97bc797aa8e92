package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/lakshan-j/threadgate/internal/models"
)

// Every method takes a context so request cancellation propagates into the
// store. Lookups return (nil, nil) when the record is absent; callers
// decide whether absence is an error.

// AccountRepository holds login identities.
type AccountRepository interface {
	Create(ctx context.Context, email, passwordHash string) (*models.Account, error)
	GetByEmail(ctx context.Context, email string) (*models.Account, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Account, error)
}

// ProfileRepository holds the chat-visible user profiles.
type ProfileRepository interface {
	// Create inserts the profile. Returns models.ErrAlreadyExists if the
	// principal is already registered.
	Create(ctx context.Context, profile models.UserProfile) error

	Get(ctx context.Context, principal uuid.UUID) (*models.UserProfile, error)

	// Save replaces the mutable fields of an existing profile.
	Save(ctx context.Context, profile models.UserProfile) error

	// List returns every registered profile, oldest first.
	List(ctx context.Context) ([]models.UserProfile, error)
}

// RoleRepository holds one role per user. Get returns models.RoleUser for
// users that were never explicitly assigned.
type RoleRepository interface {
	Get(ctx context.Context, user uuid.UUID) (models.UserRole, error)
	Set(ctx context.Context, user uuid.UUID, role models.UserRole) error
}

// EntitlementRepository holds at most one access entitlement per user.
type EntitlementRepository interface {
	Get(ctx context.Context, user uuid.UUID) (*models.AccessEntitlement, error)

	// GetAll returns every entitlement record, newest request first.
	GetAll(ctx context.Context) ([]models.AccessEntitlement, error)

	// Upsert replaces the single record for ent.User. The replacement is
	// atomic per user key; there are no merge semantics.
	Upsert(ctx context.Context, ent models.AccessEntitlement) error
}

// BlockRepository holds directed (blocker, blocked) edges.
// Add and Remove are idempotent.
type BlockRepository interface {
	Add(ctx context.Context, blocker, blocked uuid.UUID) error
	Remove(ctx context.Context, blocker, blocked uuid.UUID) error
	Has(ctx context.Context, blocker, blocked uuid.UUID) (bool, error)
	List(ctx context.Context, blocker uuid.UUID) ([]uuid.UUID, error)
}

// ThreadRepository holds threads and their fixed participant sets.
type ThreadRepository interface {
	// Create inserts a thread with its participants and returns it with
	// the assigned id.
	Create(ctx context.Context, participants []uuid.UUID, createdAt int64) (*models.Thread, error)

	Get(ctx context.Context, id int64) (*models.Thread, error)

	// ListByUser returns ids of threads the user participates in,
	// newest first.
	ListByUser(ctx context.Context, user uuid.UUID) ([]int64, error)

	IsParticipant(ctx context.Context, id int64, user uuid.UUID) (bool, error)

	// Delete physically removes the thread and all its messages.
	// No-op if the thread does not exist.
	Delete(ctx context.Context, id int64) error
}

// MessageRepository holds the ordered message sequences of threads.
type MessageRepository interface {
	// Append persists a new message and returns it with the assigned id.
	Append(ctx context.Context, threadID int64, sender uuid.UUID, content string, timestamp int64) (*models.Message, error)

	Get(ctx context.Context, threadID, messageID int64) (*models.Message, error)

	// UpdateContent rewrites the content of a message in place. ID and
	// timestamp are untouched.
	UpdateContent(ctx context.Context, threadID, messageID int64, content string) error

	// MarkDeleted sets the deleted flag and blanks the stored content.
	// Idempotent.
	MarkDeleted(ctx context.Context, threadID, messageID int64) error

	// ListByThread returns all messages of a thread in id order.
	ListByThread(ctx context.Context, threadID int64) ([]models.Message, error)
}
