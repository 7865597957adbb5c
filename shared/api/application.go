package api

import (
	"time"

	"github.com/practix/practix/shared/domain"
)

type ApplyRequest struct {
	Comment string `json:"comment" validate:"max=500"`
}

type RejectRequest struct {
	Block bool `json:"block"`
}

type ApplicationResponse struct {
	Id          string                `json:"id"`
	EventId     string                `json:"event_id"`
	ApplicantId string                `json:"applicant_id"`
	Comment     string                `json:"comment,omitempty"`
	Status      string                `json:"status"`
	CreatedAt   time.Time             `json:"created_at"`
	UpdatedAt   time.Time             `json:"updated_at"`
	Event       *EventSummaryResponse `json:"event,omitempty"`
}

type ApplicationsResponse struct {
	Applications []ApplicationResponse `json:"applications"`
}

func NewApplicationResponse(a domain.Application) ApplicationResponse {
	return ApplicationResponse{
		Id:          a.Id.String(),
		EventId:     a.EventId.String(),
		ApplicantId: a.ApplicantId,
		Comment:     a.Comment,
		Status:      string(a.Status),
		CreatedAt:   a.CreatedAt,
		UpdatedAt:   a.UpdatedAt,
	}
}

func NewApplicationWithEventResponse(a domain.ApplicationWithEvent) ApplicationResponse {
	resp := NewApplicationResponse(a.Application)
	summary := NewEventSummaryResponse(a.Event)
	resp.Event = &summary
	return resp
}
