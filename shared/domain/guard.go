package domain

// Guards let the business rules veto a write from inside the store's
// transaction, after the rows they depend on have been read or locked.

// EventGuard inspects the locked event before it is changed.
type EventGuard func(event EventWithCounts) error

// ApplyGuard vets a new application against the event and whether the
// applicant is blocked by its organizer.
type ApplyGuard func(event EventWithCounts, blocked bool) error

// TransitionGuard vets a status change against the locked application and event.
type TransitionGuard func(app Application, event EventWithCounts) error
