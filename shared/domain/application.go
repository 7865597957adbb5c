package domain

import "time"

type ApplicationStatus string

const (
	ApplicationPending   ApplicationStatus = "pending"
	ApplicationApproved  ApplicationStatus = "approved"
	ApplicationRejected  ApplicationStatus = "rejected"
	ApplicationCancelled ApplicationStatus = "cancelled"
)

// Active statuses hold the (event, applicant) uniqueness slot.
func (s ApplicationStatus) Active() bool {
	return s == ApplicationPending || s == ApplicationApproved
}

// CanTransition encodes the application state machine.
func (s ApplicationStatus) CanTransition(to ApplicationStatus) bool {
	switch s {
	case ApplicationPending:
		return to == ApplicationApproved || to == ApplicationRejected || to == ApplicationCancelled
	case ApplicationApproved:
		return to == ApplicationCancelled
	default:
		return false
	}
}

type Application struct {
	Id          ApplicationId
	EventId     EventId
	ApplicantId UserId
	Comment     string
	Status      ApplicationStatus
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ApplicationWithEvent is a user's application joined with its event summary.
type ApplicationWithEvent struct {
	Application
	Event EventSummary
}

// Transition is the result of a status change, with the event facts
// needed to address notifications.
type Transition struct {
	Application Application
	From        ApplicationStatus
	OrganizerId UserId
	EventTitle  string
}
