package dto

import (
	"time"

	"github.com/bcgov/digital-marketplace-sub005/internal/models"
)

// QuestionScoreInput is one score entry in a create or update payload.
type QuestionScoreInput struct {
	Order int     `json:"order" validate:"min=0"`
	Score float64 `json:"score" validate:"min=0"`
	Notes string  `json:"notes" validate:"max=5000"`
}

// EvaluationCreateRequest opens an evaluation, one score per question of the
// opportunity's current version.
type EvaluationCreateRequest struct {
	ProposalID uint                 `json:"proposal_id" validate:"required"`
	Scores     []QuestionScoreInput `json:"scores" validate:"required,min=1,dive"`
}

// EvaluationUpdateRequest replaces the scores of a draft evaluation.
type EvaluationUpdateRequest struct {
	Scores []QuestionScoreInput `json:"scores" validate:"required,min=1,dive"`
}

// EvaluationResponse is the serialized aggregate evaluation.
type EvaluationResponse struct {
	ProposalID    uint                    `json:"proposal_id"`
	PanelMemberID uint                    `json:"panel_member_id"`
	Role          models.EvaluationRole   `json:"role"`
	Status        models.EvaluationStatus `json:"status"`
	Scores        []models.QuestionScore  `json:"scores"`
	UpdatedAt     time.Time               `json:"updated_at"`
}

// NewEvaluationResponse converts a model into a DTO.
func NewEvaluationResponse(model models.Evaluation) EvaluationResponse {
	return EvaluationResponse{
		ProposalID:    model.ProposalID,
		PanelMemberID: model.PanelMemberID,
		Role:          model.Role,
		Status:        model.Status,
		Scores:        model.Scores,
		UpdatedAt:     model.UpdatedAt,
	}
}

// NewEvaluationResponseSlice converts a slice of models into DTOs.
func NewEvaluationResponseSlice(evaluations []models.Evaluation) []EvaluationResponse {
	responses := make([]EvaluationResponse, 0, len(evaluations))
	for _, evaluation := range evaluations {
		responses = append(responses, NewEvaluationResponse(evaluation))
	}

	return responses
}

// CompletionResponse reports individual-phase progress for an opportunity.
type CompletionResponse struct {
	Submitted  int64 `json:"submitted"`
	Required   int64 `json:"required"`
	Evaluators int64 `json:"evaluators"`
	Proposals  int64 `json:"proposals"`
	Questions  int64 `json:"questions"`
	Complete   bool  `json:"complete"`
}

// NewCompletionResponse converts a completion report into a DTO.
func NewCompletionResponse(report models.CompletionReport) CompletionResponse {
	return CompletionResponse{
		Submitted:  report.Submitted,
		Required:   report.Required(),
		Evaluators: report.Evaluators,
		Proposals:  report.Proposals,
		Questions:  report.Questions,
		Complete:   report.Complete(),
	}
}
