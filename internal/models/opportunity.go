package models

import (
	"time"

	"gorm.io/datatypes"
)

// OpportunityKind discriminates the three procurement programs.
type OpportunityKind string

const (
	// KindCodeWithUs is the fixed-price micro-procurement program.
	KindCodeWithUs OpportunityKind = "CWU"
	// KindSprintWithUs is the agile team procurement program.
	KindSprintWithUs OpportunityKind = "SWU"
	// KindTeamWithUs is the resource-based procurement program.
	KindTeamWithUs OpportunityKind = "TWU"
)

// OpportunityStatus enumerates the lifecycle states shared across kinds.
// Not every status is reachable for every kind; the lifecycle package owns
// the per-kind adjacency tables.
type OpportunityStatus string

const (
	OpportunityDraft                         OpportunityStatus = "DRAFT"
	OpportunityUnderReview                   OpportunityStatus = "UNDER_REVIEW"
	OpportunityPublished                     OpportunityStatus = "PUBLISHED"
	OpportunityEvaluation                    OpportunityStatus = "EVALUATION"
	OpportunityEvaluationQuestionsIndividual OpportunityStatus = "EVAL_QUESTIONS_INDIVIDUAL"
	OpportunityEvaluationQuestionsConsensus  OpportunityStatus = "EVAL_QUESTIONS_CONSENSUS"
	OpportunityEvaluationCodeChallenge       OpportunityStatus = "EVAL_CODE_CHALLENGE"
	OpportunityEvaluationTeamScenario        OpportunityStatus = "EVAL_TEAM_SCENARIO"
	OpportunityEvaluationChallenge           OpportunityStatus = "EVAL_CHALLENGE"
	OpportunityProcessing                    OpportunityStatus = "PROCESSING"
	OpportunityAwarded                       OpportunityStatus = "AWARDED"
	OpportunitySuspended                     OpportunityStatus = "SUSPENDED"
	OpportunityCanceled                      OpportunityStatus = "CANCELED"
)

// ParseOpportunityStatus returns the matching status constant or an empty
// string when the raw value is not recognised.
func ParseOpportunityStatus(raw string) OpportunityStatus {
	switch OpportunityStatus(raw) {
	case OpportunityDraft, OpportunityUnderReview, OpportunityPublished,
		OpportunityEvaluation, OpportunityEvaluationQuestionsIndividual,
		OpportunityEvaluationQuestionsConsensus, OpportunityEvaluationCodeChallenge,
		OpportunityEvaluationTeamScenario, OpportunityEvaluationChallenge,
		OpportunityProcessing, OpportunityAwarded, OpportunitySuspended,
		OpportunityCanceled:
		return OpportunityStatus(raw)
	default:
		return ""
	}
}

// Opportunity is a posted procurement opportunity of one of the three kinds.
// Questions and the evaluation panel live on versions: editing an opportunity
// appends a new version rather than mutating the previous one, so evaluations
// tied to an older version stay interpretable.
type Opportunity struct {
	ID               uint                      `gorm:"primaryKey" json:"id"`
	Kind             OpportunityKind           `gorm:"size:8;not null;index" json:"kind"`
	Title            string                    `gorm:"size:255;not null" json:"title"`
	Status           OpportunityStatus         `gorm:"size:40;not null;index" json:"status"`
	ProposalDeadline time.Time                 `gorm:"not null" json:"proposal_deadline"`
	CreatedBy        uint                      `gorm:"not null" json:"created_by"`
	CreatedAt        time.Time                 `json:"created_at"`
	UpdatedAt        time.Time                 `json:"updated_at"`
	Versions         []OpportunityVersion      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"versions,omitempty"`
	History          []OpportunityStatusRecord `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"history,omitempty"`
}

// ReachedStatus reports whether the opportunity has ever held the given
// status, based on the loaded history records.
func (o Opportunity) ReachedStatus(status OpportunityStatus) bool {
	for _, record := range o.History {
		if record.Status == status {
			return true
		}
	}
	return false
}

// OpportunityVersion is an immutable snapshot of an opportunity's questions
// and evaluation panel. The most recent version by (created_at, id) is the
// authoritative one.
type OpportunityVersion struct {
	ID            uint                    `gorm:"primaryKey" json:"id"`
	OpportunityID uint                    `gorm:"not null;index" json:"opportunity_id"`
	CreatedBy     uint                    `gorm:"not null" json:"created_by"`
	CreatedAt     time.Time               `json:"created_at"`
	Questions     []Question              `gorm:"foreignKey:OpportunityVersionID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"questions,omitempty"`
	Panel         []EvaluationPanelMember `gorm:"foreignKey:OpportunityVersionID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"panel,omitempty"`
}

// Chair returns the panel member flagged as chair, or nil when the panel has
// not been loaded or has no chair.
func (v OpportunityVersion) Chair() *EvaluationPanelMember {
	for i := range v.Panel {
		if v.Panel[i].Chair {
			return &v.Panel[i]
		}
	}
	return nil
}

// Member returns the panel member for the given user, or nil.
func (v OpportunityVersion) Member(userID uint) *EvaluationPanelMember {
	for i := range v.Panel {
		if v.Panel[i].UserID == userID {
			return &v.Panel[i]
		}
	}
	return nil
}

// EvaluatorCount returns the number of members flagged as evaluators.
func (v OpportunityVersion) EvaluatorCount() int {
	count := 0
	for _, member := range v.Panel {
		if member.Evaluator {
			count++
		}
	}
	return count
}

// Question is a scored question attached to an opportunity version. Order is
// the zero-based position within the version's question list and is part of
// the evaluation composite key.
type Question struct {
	ID                   uint     `gorm:"primaryKey" json:"id"`
	OpportunityVersionID uint     `gorm:"not null;index" json:"opportunity_version_id"`
	Order                int      `gorm:"column:question_order;not null" json:"order"`
	Text                 string   `gorm:"type:text" json:"text"`
	MaxScore             float64  `gorm:"not null" json:"max_score"`
	MinimumScore         *float64 `json:"minimum_score,omitempty"`
	WordLimit            int      `json:"word_limit"`
}

// EvaluationPanelMember assigns a user to an opportunity version's panel.
// A member may be an evaluator, the chair, or both; panel writes enforce
// exactly one chair per version.
type EvaluationPanelMember struct {
	ID                   uint `gorm:"primaryKey" json:"id"`
	OpportunityVersionID uint `gorm:"not null;index" json:"opportunity_version_id"`
	UserID               uint `gorm:"not null;index" json:"user_id"`
	Evaluator            bool `gorm:"not null" json:"evaluator"`
	Chair                bool `gorm:"not null" json:"chair"`
	Order                int  `gorm:"column:member_order;not null" json:"order"`
}

// OpportunityStatusRecord is an append-only history entry answering
// "has this opportunity ever reached status X" queries.
type OpportunityStatusRecord struct {
	ID            uint              `gorm:"primaryKey" json:"id"`
	OpportunityID uint              `gorm:"not null;index" json:"opportunity_id"`
	Status        OpportunityStatus `gorm:"size:40;not null" json:"status"`
	Note          string            `gorm:"type:text" json:"note"`
	CreatedBy     *uint             `json:"created_by,omitempty"`
	CreatedAt     time.Time         `json:"created_at"`
	Metadata      datatypes.JSON    `json:"metadata,omitempty"`
}
