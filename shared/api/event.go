package api

import (
	"time"

	"github.com/practix/practix/shared/domain"
)

// Request DTOs

type VenueRequest struct {
	Prefecture   string `json:"prefecture"`
	Municipality string `json:"municipality"`
	Name         string `json:"name"`
	Address      string `json:"address"`
}

type EventRequest struct {
	Title               string       `json:"title"`
	StartAt             time.Time    `json:"start_at"`
	EndAt               time.Time    `json:"end_at"`
	Venue               VenueRequest `json:"venue"`
	Capacity            int          `json:"capacity"`
	Fee                 int          `json:"fee"`
	Level               string       `json:"level"`
	Category            string       `json:"category"`
	Description         string       `json:"description"`
	Rules               string       `json:"rules"`
	Equipment           string       `json:"equipment"`
	Notes               string       `json:"notes"`
	DeadlineHoursBefore *int         `json:"deadline_hours_before,omitempty"`
	Status              string       `json:"status,omitempty"`
}

// Response DTOs

type VenueResponse struct {
	Prefecture   string `json:"prefecture"`
	Municipality string `json:"municipality"`
	Name         string `json:"name,omitempty"`
	Address      string `json:"address,omitempty"`
}

type EventResponse struct {
	Id                  string        `json:"id"`
	OrganizerId         string        `json:"organizer_id"`
	Title               string        `json:"title"`
	StartAt             time.Time     `json:"start_at"`
	EndAt               time.Time     `json:"end_at"`
	Venue               VenueResponse `json:"venue"`
	Capacity            int           `json:"capacity"`
	Fee                 int           `json:"fee"`
	Level               string        `json:"level"`
	Category            string        `json:"category,omitempty"`
	Description         string        `json:"description,omitempty"`
	Rules               string        `json:"rules,omitempty"`
	Equipment           string        `json:"equipment,omitempty"`
	Notes               string        `json:"notes,omitempty"`
	DeadlineHoursBefore *int          `json:"deadline_hours_before,omitempty"`
	Status              string        `json:"status"`
	ApprovedCount       int           `json:"approved_count"`
	PendingCount        int           `json:"pending_count"`
	RemainingSlots      int           `json:"remaining_slots"`
	ChatExpiresAt       time.Time     `json:"chat_expires_at"`
}

type EventsResponse struct {
	Events  []EventResponse `json:"events"`
	Page    int             `json:"page"`
	PerPage int             `json:"per_page"`
}

type EventSummaryResponse struct {
	Id           string    `json:"id"`
	OrganizerId  string    `json:"organizer_id"`
	Title        string    `json:"title"`
	StartAt      time.Time `json:"start_at"`
	EndAt        time.Time `json:"end_at"`
	Status       string    `json:"status"`
	Municipality string    `json:"municipality"`
}

func (r *EventRequest) Fields() domain.EventFields {
	return domain.EventFields{
		Title:   r.Title,
		StartAt: r.StartAt,
		EndAt:   r.EndAt,
		Venue: domain.Venue{
			Prefecture:   r.Venue.Prefecture,
			Municipality: r.Venue.Municipality,
			Name:         r.Venue.Name,
			Address:      r.Venue.Address,
		},
		Capacity:            r.Capacity,
		Fee:                 r.Fee,
		Level:               domain.Level(r.Level),
		Category:            r.Category,
		Description:         r.Description,
		Rules:               r.Rules,
		Equipment:           r.Equipment,
		Notes:               r.Notes,
		DeadlineHoursBefore: r.DeadlineHoursBefore,
		Status:              domain.EventStatus(r.Status),
	}
}

type CapacityResponse struct {
	Capacity       int `json:"capacity"`
	ApprovedCount  int `json:"approved_count"`
	PendingCount   int `json:"pending_count"`
	RemainingSlots int `json:"remaining_slots"`
}

func NewCapacityResponse(c domain.CapacityState) CapacityResponse {
	return CapacityResponse{
		Capacity:       c.Capacity,
		ApprovedCount:  c.Approved,
		PendingCount:   c.Pending,
		RemainingSlots: c.Remaining,
	}
}

func NewEventResponse(e domain.EventWithCounts) EventResponse {
	return EventResponse{
		Id:          e.Id.String(),
		OrganizerId: e.OrganizerId,
		Title:       e.Title,
		StartAt:     e.StartAt,
		EndAt:       e.EndAt,
		Venue: VenueResponse{
			Prefecture:   e.Venue.Prefecture,
			Municipality: e.Venue.Municipality,
			Name:         e.Venue.Name,
			Address:      e.Venue.Address,
		},
		Capacity:            e.Capacity,
		Fee:                 e.Fee,
		Level:               string(e.Level),
		Category:            e.Category,
		Description:         e.Description,
		Rules:               e.Rules,
		Equipment:           e.Equipment,
		Notes:               e.Notes,
		DeadlineHoursBefore: e.DeadlineHoursBefore,
		Status:              string(e.Status),
		ApprovedCount:       e.ApprovedCount,
		PendingCount:        e.PendingCount,
		RemainingSlots:      domain.RemainingSlots(e.Capacity, e.ApprovedCount),
		ChatExpiresAt:       e.ChatExpiresAt(),
	}
}

func NewEventSummaryResponse(e domain.EventSummary) EventSummaryResponse {
	return EventSummaryResponse{
		Id:           e.Id.String(),
		OrganizerId:  e.OrganizerId,
		Title:        e.Title,
		StartAt:      e.StartAt,
		EndAt:        e.EndAt,
		Status:       string(e.Status),
		Municipality: e.Venue.Municipality,
	}
}
