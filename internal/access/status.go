// Package access implements the entitlement lifecycle: who may use the
// messaging surface, and the admin operations that change that.
package access

import "github.com/lakshan-j/threadgate/internal/models"

// DeriveStatus computes the live authorization state from a stored
// entitlement and the current time (nanoseconds since the Unix epoch).
//
// The stored status field is advisory: an approved record whose end time
// has passed derives as expired even though the row still says approved.
// Re-evaluating with an unchanged clock always yields the same result.
func DeriveStatus(ent *models.AccessEntitlement, now int64) models.DerivedStatus {
	if ent == nil {
		return models.DerivedNotAuthorized
	}
	switch ent.Status {
	case models.StatusRejected:
		return models.DerivedNotAuthorized
	case models.StatusPending:
		return models.DerivedPending
	case models.StatusExpired:
		return models.DerivedExpired
	case models.StatusApproved:
		if ent.EndTime != nil && *ent.EndTime < now {
			return models.DerivedExpired
		}
		return models.DerivedAuthorized
	}
	return models.DerivedNotAuthorized
}
