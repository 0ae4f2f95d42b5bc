package appointment

import (
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusScheduled  Status = "scheduled"
	StatusConfirmed  Status = "confirmed"
	StatusInProgress Status = "in-progress"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
	StatusNoShow     Status = "no-show"
)

type Type string

const (
	TypeConsultation Type = "consultation"
	TypeFollowUp     Type = "follow-up"
)

func ValidType(t Type) bool {
	return t == TypeConsultation || t == TypeFollowUp
}

// Appointment is never deleted: cancellation is a terminal status, so queue
// number history stays intact.
type Appointment struct {
	ID           uuid.UUID
	PatientID    uuid.UUID
	DoctorID     uuid.UUID
	Date         time.Time
	Type         Type
	Reason       string
	Symptoms     *string
	Priority     *string // informational hint, does not affect lane selection
	IsEmergency  bool
	Status       Status
	QueueEntryID uuid.UUID
	QueueNumber  string // rendered lane-scoped number, e.g. "7" or "E2"
	CancelReason *string
	Notes        *string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type Role string

const (
	RolePatient Role = "patient"
	RoleDoctor  Role = "doctor"
	RoleAdmin   Role = "admin"
	RoleSystem  Role = "system"
)

// Actor is the identity the upstream session collaborator attached to the
// request.
type Actor struct {
	UserID uuid.UUID
	Role   Role
}
