package models

import "time"

// ProposalStatus enumerates the proposal lifecycle states. The question,
// challenge and scenario review phases apply per kind: CWU uses the plain
// UnderReview/Evaluated pair, SWU runs questions, code challenge and team
// scenario, TWU runs questions and challenge.
type ProposalStatus string

const (
	ProposalDraft                ProposalStatus = "DRAFT"
	ProposalSubmitted            ProposalStatus = "SUBMITTED"
	ProposalUnderReview          ProposalStatus = "UNDER_REVIEW"
	ProposalEvaluated            ProposalStatus = "EVALUATED"
	ProposalUnderReviewQuestions ProposalStatus = "UNDER_REVIEW_QUESTIONS"
	ProposalEvaluatedQuestions   ProposalStatus = "EVALUATED_QUESTIONS"
	ProposalUnderReviewChallenge ProposalStatus = "UNDER_REVIEW_CHALLENGE"
	ProposalEvaluatedChallenge   ProposalStatus = "EVALUATED_CHALLENGE"
	ProposalUnderReviewScenario  ProposalStatus = "UNDER_REVIEW_SCENARIO"
	ProposalEvaluatedScenario    ProposalStatus = "EVALUATED_SCENARIO"
	ProposalAwarded              ProposalStatus = "AWARDED"
	ProposalNotAwarded           ProposalStatus = "NOT_AWARDED"
	ProposalDisqualified         ProposalStatus = "DISQUALIFIED"
	ProposalWithdrawn            ProposalStatus = "WITHDRAWN"
)

// ParseProposalStatus returns the matching status constant or an empty string.
func ParseProposalStatus(raw string) ProposalStatus {
	switch ProposalStatus(raw) {
	case ProposalDraft, ProposalSubmitted, ProposalUnderReview, ProposalEvaluated,
		ProposalUnderReviewQuestions, ProposalEvaluatedQuestions,
		ProposalUnderReviewChallenge, ProposalEvaluatedChallenge,
		ProposalUnderReviewScenario, ProposalEvaluatedScenario,
		ProposalAwarded, ProposalNotAwarded, ProposalDisqualified, ProposalWithdrawn:
		return ProposalStatus(raw)
	default:
		return ""
	}
}

// Proposal is a vendor's response to an opportunity.
type Proposal struct {
	ID             uint                   `gorm:"primaryKey" json:"id"`
	OpportunityID  uint                   `gorm:"not null;index" json:"opportunity_id"`
	VendorID       uint                   `gorm:"not null;index" json:"vendor_id"`
	Status         ProposalStatus         `gorm:"size:40;not null;index" json:"status"`
	SubmittedAt    *time.Time             `json:"submitted_at,omitempty"`
	QuestionsScore *float64               `json:"questions_score,omitempty"`
	CreatedAt      time.Time              `json:"created_at"`
	UpdatedAt      time.Time              `json:"updated_at"`
	Opportunity    Opportunity            `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"opportunity"`
	Responses      []QuestionResponse     `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"responses,omitempty"`
	History        []ProposalStatusRecord `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"history,omitempty"`
}

// OwnedBy reports whether the proposal belongs to the given vendor user.
func (p Proposal) OwnedBy(userID uint) bool {
	return p.VendorID == userID
}

// QuestionResponse holds a proposal's answer to one question, plus the
// consensus score once one has been recorded.
type QuestionResponse struct {
	ID         uint     `gorm:"primaryKey" json:"id"`
	ProposalID uint     `gorm:"not null;index" json:"proposal_id"`
	Order      int      `gorm:"column:question_order;not null" json:"order"`
	Response   string   `gorm:"type:text" json:"response"`
	Score      *float64 `json:"score,omitempty"`
}

// ProposalStatusRecord is an append-only proposal history entry.
type ProposalStatusRecord struct {
	ID         uint           `gorm:"primaryKey" json:"id"`
	ProposalID uint           `gorm:"not null;index" json:"proposal_id"`
	Status     ProposalStatus `gorm:"size:40;not null" json:"status"`
	Note       string         `gorm:"type:text" json:"note"`
	CreatedBy  *uint          `json:"created_by,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
}
