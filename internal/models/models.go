package models

import (
	"time"

	"github.com/google/uuid"
)

// All timestamps in this package are integer nanoseconds since the Unix
// epoch. They cross the API boundary as numbers, never as formatted dates.

// UserRole gates the privileged entitlement operations.
type UserRole string

const (
	RoleAdmin UserRole = "admin"
	RoleUser  UserRole = "user"
	RoleGuest UserRole = "guest"
)

// ValidRole reports whether r is one of the three known roles.
func ValidRole(r UserRole) bool {
	return r == RoleAdmin || r == RoleUser || r == RoleGuest
}

// EntitlementType describes what kind of access grant a user holds.
type EntitlementType string

const (
	EntitlementTrial        EntitlementType = "trial"
	EntitlementPermanent    EntitlementType = "permanent"
	EntitlementSubscription EntitlementType = "subscription"
	EntitlementSponsored    EntitlementType = "sponsored"
)

func ValidEntitlementType(t EntitlementType) bool {
	switch t {
	case EntitlementTrial, EntitlementPermanent, EntitlementSubscription, EntitlementSponsored:
		return true
	}
	return false
}

// EntitlementSource records how the grant came to be.
type EntitlementSource string

const (
	SourcePromotion  EntitlementSource = "promotion"
	SourceAdminGrant EntitlementSource = "adminGrant"
	SourcePayment    EntitlementSource = "payment"
)

func ValidEntitlementSource(s EntitlementSource) bool {
	return s == SourcePromotion || s == SourceAdminGrant || s == SourcePayment
}

// RequestStatus is the STORED status of an entitlement record. It is
// advisory: time-based expiry is caught by access.DeriveStatus at read
// time and only promoted to StatusExpired lazily.
type RequestStatus string

const (
	StatusPending  RequestStatus = "pending"
	StatusApproved RequestStatus = "approved"
	StatusRejected RequestStatus = "rejected"
	StatusExpired  RequestStatus = "expired"
)

// DerivedStatus is the live authorization state computed from a stored
// entitlement plus the current time. Never persisted.
type DerivedStatus string

const (
	DerivedNotAuthorized DerivedStatus = "not_authorized"
	DerivedPending       DerivedStatus = "pending"
	DerivedExpired       DerivedStatus = "expired"
	DerivedAuthorized    DerivedStatus = "authorized"
)

// Account is an authenticated identity. The chat core only ever sees the
// opaque ID; email and password hash exist for the login surface.
type Account struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// UserProfile is the chat-visible identity a user registers after signup.
// Principal is immutable; DisplayName is mutable by its owner only.
type UserProfile struct {
	Principal   uuid.UUID `json:"principal"`
	DisplayName string    `json:"display_name,omitempty"`
}

// AccessEntitlement is the single live access record for a user.
// EndTime nil means no expiry. Invariant: EndTime, when set, >= StartTime.
type AccessEntitlement struct {
	User             uuid.UUID         `json:"user"`
	EntitlementType  EntitlementType   `json:"entitlement_type"`
	Source           EntitlementSource `json:"source"`
	Status           RequestStatus     `json:"status"`
	RequestTimestamp int64             `json:"request_timestamp"`
	StartTime        int64             `json:"start_time"`
	EndTime          *int64            `json:"end_time,omitempty"`
}

// Thread is a private conversation between a fixed set of participants.
// The participant set never changes after creation.
type Thread struct {
	ID           int64       `json:"id"`
	Participants []uuid.UUID `json:"participants"`
	CreatedAt    int64       `json:"created_at"`
}

// Message is one entry in a thread's ordered sequence. IDs are monotonic
// within a thread; a soft-deleted message keeps its id and ordering slot.
type Message struct {
	ID        int64     `json:"id"`
	ThreadID  int64     `json:"thread_id"`
	Sender    uuid.UUID `json:"sender"`
	Content   string    `json:"content"`
	Timestamp int64     `json:"timestamp"`
	Deleted   bool      `json:"deleted"`
}

// Tombstone is the fixed content shown in place of a deleted message.
const Tombstone = "[message deleted]"

// MessageView is a message as rendered to participants: deleted messages
// carry the tombstone instead of their original content.
type MessageView struct {
	ID        int64     `json:"id"`
	Sender    uuid.UUID `json:"sender"`
	Content   string    `json:"content"`
	Timestamp int64     `json:"timestamp"`
	Deleted   bool      `json:"deleted"`
}

// ThreadView is a thread with its rendered messages.
type ThreadView struct {
	ID           int64         `json:"id"`
	Participants []uuid.UUID   `json:"participants"`
	Messages     []MessageView `json:"messages"`
}

// View renders m for participants, applying the tombstone.
func (m Message) View() MessageView {
	content := m.Content
	if m.Deleted {
		content = Tombstone
	}
	return MessageView{
		ID:        m.ID,
		Sender:    m.Sender,
		Content:   content,
		Timestamp: m.Timestamp,
		Deleted:   m.Deleted,
	}
}
