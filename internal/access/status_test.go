package access

import (
	"testing"

	"github.com/google/uuid"
	"github.com/lakshan-j/threadgate/internal/models"
	"github.com/stretchr/testify/assert"
)

func ptr(v int64) *int64 { return &v }

func TestDeriveStatus(t *testing.T) {
	user := uuid.New()
	now := int64(1_000_000)

	tests := []struct {
		name string
		ent  *models.AccessEntitlement
		want models.DerivedStatus
	}{
		{
			name: "no entitlement",
			ent:  nil,
			want: models.DerivedNotAuthorized,
		},
		{
			name: "rejected",
			ent:  &models.AccessEntitlement{User: user, Status: models.StatusRejected},
			want: models.DerivedNotAuthorized,
		},
		{
			name: "pending",
			ent:  &models.AccessEntitlement{User: user, Status: models.StatusPending},
			want: models.DerivedPending,
		},
		{
			name: "stored expired",
			ent:  &models.AccessEntitlement{User: user, Status: models.StatusExpired},
			want: models.DerivedExpired,
		},
		{
			name: "approved without end time",
			ent:  &models.AccessEntitlement{User: user, Status: models.StatusApproved},
			want: models.DerivedAuthorized,
		},
		{
			name: "approved with future end time",
			ent: &models.AccessEntitlement{
				User:    user,
				Status:  models.StatusApproved,
				EndTime: ptr(now + 1),
			},
			want: models.DerivedAuthorized,
		},
		{
			name: "approved ending exactly now",
			ent: &models.AccessEntitlement{
				User:    user,
				Status:  models.StatusApproved,
				EndTime: ptr(now),
			},
			want: models.DerivedAuthorized,
		},
		{
			name: "approved with past end time",
			ent: &models.AccessEntitlement{
				User:    user,
				Status:  models.StatusApproved,
				EndTime: ptr(now - 1),
			},
			want: models.DerivedExpired,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DeriveStatus(tt.ent, now))
			// Same clock, same answer: derivation is a pure function.
			assert.Equal(t, tt.want, DeriveStatus(tt.ent, now))
		})
	}
}
