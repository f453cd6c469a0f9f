package models

import "time"

// EvaluationRole distinguishes an evaluator's individual record from the
// chair's consensus record. The two record families share tables with this
// discriminator, and every query filters on it.
type EvaluationRole string

const (
	// RoleEvaluator marks an individual panel member's own scoring record.
	RoleEvaluator EvaluationRole = "evaluator"
	// RoleChair marks the single consensus record produced by the panel chair.
	RoleChair EvaluationRole = "chair"
)

// EvaluationStatus is the lifecycle of one member's evaluation of one
// proposal: Draft while editable, Submitted once final.
type EvaluationStatus string

const (
	EvaluationDraft     EvaluationStatus = "DRAFT"
	EvaluationSubmitted EvaluationStatus = "SUBMITTED"
)

// QuestionEvaluation is the atomic unit of panel work: one score for one
// question on one proposal by one panel member. Rows are only ever updated,
// never deleted, until the proposal itself is removed by cascade.
type QuestionEvaluation struct {
	ID            uint           `gorm:"primaryKey" json:"id"`
	ProposalID    uint           `gorm:"not null;uniqueIndex:idx_question_evaluation_key" json:"proposal_id"`
	PanelMemberID uint           `gorm:"not null;uniqueIndex:idx_question_evaluation_key" json:"panel_member_id"`
	Role          EvaluationRole `gorm:"size:16;not null;uniqueIndex:idx_question_evaluation_key" json:"role"`
	QuestionOrder int            `gorm:"not null;uniqueIndex:idx_question_evaluation_key" json:"question_order"`
	Score         float64        `gorm:"not null" json:"score"`
	Notes         string         `gorm:"type:text" json:"notes"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

// EvaluationStatusRecord is one entry in the append-only status log for a
// (proposal, panel member, role) evaluation. The current status is the most
// recent row by created_at, ties broken by highest id.
type EvaluationStatusRecord struct {
	ID            uint             `gorm:"primaryKey" json:"id"`
	ProposalID    uint             `gorm:"not null;index:idx_evaluation_status_key" json:"proposal_id"`
	PanelMemberID uint             `gorm:"not null;index:idx_evaluation_status_key" json:"panel_member_id"`
	Role          EvaluationRole   `gorm:"size:16;not null;index:idx_evaluation_status_key" json:"role"`
	Status        EvaluationStatus `gorm:"size:16;not null" json:"status"`
	Note          string           `gorm:"type:text" json:"note"`
	CreatedBy     uint             `gorm:"not null" json:"created_by"`
	CreatedAt     time.Time        `json:"created_at"`
}

// QuestionScore is one ordered entry in an assembled evaluation.
type QuestionScore struct {
	Order int     `json:"order"`
	Score float64 `json:"score"`
	Notes string  `json:"notes"`
}

// Evaluation is the aggregate view of a member's scoring of one proposal,
// assembled from the per-question rows and the latest status record. It is
// not persisted as a row itself.
type Evaluation struct {
	ProposalID    uint             `json:"proposal_id"`
	PanelMemberID uint             `json:"panel_member_id"`
	Role          EvaluationRole   `json:"role"`
	Status        EvaluationStatus `json:"status"`
	Scores        []QuestionScore  `json:"scores"`
	UpdatedAt     time.Time        `json:"updated_at"`
}

// IsDraft reports whether the evaluation is still editable by its author.
func (e Evaluation) IsDraft() bool {
	return e.Status == EvaluationDraft
}

// CompletionReport carries the raw counts behind the consensus-gate
// predicate. Complete holds only on exact equality: over-submission (stale
// rows from a superseded version or a removed panel member) is surfaced, not
// tolerated.
type CompletionReport struct {
	Submitted  int64 `json:"submitted"`
	Evaluators int64 `json:"evaluators"`
	Proposals  int64 `json:"proposals"`
	Questions  int64 `json:"questions"`
}

// Required is the number of submitted question evaluations the current
// opportunity version demands.
func (r CompletionReport) Required() int64 {
	return r.Evaluators * r.Proposals * r.Questions
}

// Complete reports whether every evaluator has submitted a score for every
// question of every proposal.
func (r CompletionReport) Complete() bool {
	return r.Submitted == r.Required()
}
