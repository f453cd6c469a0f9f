package dto

import (
	"time"

	"github.com/bcgov/digital-marketplace-sub005/internal/models"
)

// ProposalStatusUpdateRequest moves a proposal along its lifecycle.
type ProposalStatusUpdateRequest struct {
	Status string `json:"status" validate:"required"`
	Note   string `json:"note" validate:"max=5000"`
}

// ProposalResponse is the serialized proposal.
type ProposalResponse struct {
	ID             uint                  `json:"id"`
	OpportunityID  uint                  `json:"opportunity_id"`
	VendorID       uint                  `json:"vendor_id"`
	Status         models.ProposalStatus `json:"status"`
	SubmittedAt    *time.Time            `json:"submitted_at,omitempty"`
	QuestionsScore *float64              `json:"questions_score,omitempty"`
	CreatedAt      time.Time             `json:"created_at"`
	UpdatedAt      time.Time             `json:"updated_at"`
}

// NewProposalResponse converts a model into a DTO.
func NewProposalResponse(model models.Proposal) ProposalResponse {
	return ProposalResponse{
		ID:             model.ID,
		OpportunityID:  model.OpportunityID,
		VendorID:       model.VendorID,
		Status:         model.Status,
		SubmittedAt:    model.SubmittedAt,
		QuestionsScore: model.QuestionsScore,
		CreatedAt:      model.CreatedAt,
		UpdatedAt:      model.UpdatedAt,
	}
}

// NewProposalResponseSlice converts a slice of models into DTOs.
func NewProposalResponseSlice(proposals []models.Proposal) []ProposalResponse {
	responses := make([]ProposalResponse, 0, len(proposals))
	for _, proposal := range proposals {
		responses = append(responses, NewProposalResponse(proposal))
	}

	return responses
}

// ProposalScoreSummaryResponse reports the score spread for an opportunity's
// scored proposals.
type ProposalScoreSummaryResponse struct {
	OpportunityID uint    `json:"opportunity_id"`
	Scored        int     `json:"scored"`
	Highest       float64 `json:"highest"`
	Average       float64 `json:"average"`
}
