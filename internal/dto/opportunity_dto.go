package dto

import (
	"time"

	"github.com/bcgov/digital-marketplace-sub005/internal/models"
)

// OpportunityStatusUpdateRequest moves an opportunity along its lifecycle.
type OpportunityStatusUpdateRequest struct {
	Status string `json:"status" validate:"required"`
	Note   string `json:"note" validate:"max=5000"`
}

// OpportunityResponse is the serialized opportunity.
type OpportunityResponse struct {
	ID               uint                     `json:"id"`
	Kind             models.OpportunityKind   `json:"kind"`
	Title            string                   `json:"title"`
	Status           models.OpportunityStatus `json:"status"`
	ProposalDeadline time.Time                `json:"proposal_deadline"`
	CreatedAt        time.Time                `json:"created_at"`
	UpdatedAt        time.Time                `json:"updated_at"`
}

// NewOpportunityResponse converts a model into a DTO.
func NewOpportunityResponse(model models.Opportunity) OpportunityResponse {
	return OpportunityResponse{
		ID:               model.ID,
		Kind:             model.Kind,
		Title:            model.Title,
		Status:           model.Status,
		ProposalDeadline: model.ProposalDeadline,
		CreatedAt:        model.CreatedAt,
		UpdatedAt:        model.UpdatedAt,
	}
}
