package availability

import (
	"context"

	"github.com/google/uuid"
)

// ProfileStore supplies doctor availability profiles. The doctor record
// itself is owned by the external profile-management collaborator; this
// store only reads the fields the calculator needs and writes the
// working-hours rows the booking engine is authoritative for.
type ProfileStore interface {
	GetProfile(ctx context.Context, doctorID uuid.UUID) (*Profile, error)
	SetWorkingHours(ctx context.Context, doctorID uuid.UUID, hours WeekHours) error
	SetStatus(ctx context.Context, doctorID uuid.UUID, status Status) error
}
