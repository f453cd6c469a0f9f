package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/bcgov/digital-marketplace-sub005/internal/models"
)

// CreateEvaluationParams carries everything needed to open an evaluation:
// one question row per score plus the initial status row, written in a
// single transaction.
type CreateEvaluationParams struct {
	ProposalID    uint
	PanelMemberID uint
	Role          models.EvaluationRole
	Status        models.EvaluationStatus
	CreatedBy     uint
	Scores        []models.QuestionScore
}

// UpdateEvaluationParams carries replacement scores for an existing
// evaluation. Every score must match a persisted row by question order.
type UpdateEvaluationParams struct {
	ProposalID    uint
	PanelMemberID uint
	Role          models.EvaluationRole
	Scores        []models.QuestionScore
}

// EvaluationRepository defines data operations for question evaluations and
// their append-only status logs.
type EvaluationRepository interface {
	ReadOne(ctx context.Context, proposalID, panelMemberID uint, role models.EvaluationRole) (*models.Evaluation, error)
	ListForOpportunity(ctx context.Context, opportunityID uint, role models.EvaluationRole, panelMemberID *uint) ([]models.Evaluation, error)
	ListForProposal(ctx context.Context, proposalID uint, role models.EvaluationRole) ([]models.Evaluation, error)
	Create(ctx context.Context, params CreateEvaluationParams) (*models.Evaluation, error)
	Update(ctx context.Context, params UpdateEvaluationParams) (*models.Evaluation, error)
	AppendStatus(ctx context.Context, proposalID, panelMemberID uint, role models.EvaluationRole, status models.EvaluationStatus, createdBy uint) error
	CompletionReport(ctx context.Context, opportunityID uint, proposalIDs []uint) (models.CompletionReport, error)
}

type evaluationRepository struct {
	db *gorm.DB
}

// NewEvaluationRepository instantiates the repository.
func NewEvaluationRepository(db *gorm.DB) EvaluationRepository {
	return &evaluationRepository{db: db}
}

// evaluationRow is the flat shape produced by the list queries: one question
// row joined with its evaluation's current status.
type evaluationRow struct {
	ProposalID      uint
	PanelMemberID   uint
	QuestionOrder   int
	Score           float64
	Notes           string
	Status          models.EvaluationStatus
	StatusCreatedAt time.Time
	UpdatedAt       time.Time
}

// rankedStatuses ranks status rows by recency within each evaluation key.
// The id tiebreak makes created_at collisions deterministic: the
// last-inserted row wins.
func rankedStatuses(db *gorm.DB, role models.EvaluationRole) *gorm.DB {
	return db.Table("evaluation_status_records").
		Select(`proposal_id, panel_member_id, status, created_at,
			ROW_NUMBER() OVER (PARTITION BY proposal_id, panel_member_id, role ORDER BY created_at DESC, id DESC) AS rn`).
		Where("role = ?", role)
}

func (r *evaluationRepository) listQuery(ctx context.Context, role models.EvaluationRole) *gorm.DB {
	return r.db.WithContext(ctx).
		Table("question_evaluations AS evaluations").
		Joins(`JOIN (?) AS statuses
			ON statuses.proposal_id = evaluations.proposal_id
			AND statuses.panel_member_id = evaluations.panel_member_id
			AND statuses.rn = 1`, rankedStatuses(r.db, role)).
		Where("evaluations.role = ?", role).
		Select(`evaluations.proposal_id, evaluations.panel_member_id,
			evaluations.question_order, evaluations.score, evaluations.notes,
			evaluations.updated_at, statuses.status, statuses.created_at AS status_created_at`).
		Order("evaluations.proposal_id, evaluations.panel_member_id, evaluations.question_order")
}

// groupRows folds the flat join rows into aggregate evaluations. Rows are
// keyed by the (proposal, panel member) composite; when a caller has already
// filtered to a single member this degenerates to one entry per proposal.
func groupRows(rows []evaluationRow, role models.EvaluationRole) []models.Evaluation {
	result := make([]models.Evaluation, 0)
	index := make(map[[2]uint]int)
	for _, row := range rows {
		key := [2]uint{row.ProposalID, row.PanelMemberID}
		i, ok := index[key]
		if !ok {
			i = len(result)
			index[key] = i
			updatedAt := row.UpdatedAt
			if row.StatusCreatedAt.After(updatedAt) {
				updatedAt = row.StatusCreatedAt
			}
			result = append(result, models.Evaluation{
				ProposalID:    row.ProposalID,
				PanelMemberID: row.PanelMemberID,
				Role:          role,
				Status:        row.Status,
				UpdatedAt:     updatedAt,
			})
		}
		result[i].Scores = append(result[i].Scores, models.QuestionScore{
			Order: row.QuestionOrder,
			Score: row.Score,
			Notes: row.Notes,
		})
	}
	return result
}

func (r *evaluationRepository) ReadOne(ctx context.Context, proposalID, panelMemberID uint, role models.EvaluationRole) (*models.Evaluation, error) {
	var rows []models.QuestionEvaluation
	if err := r.db.WithContext(ctx).
		Where("proposal_id = ? AND panel_member_id = ? AND role = ?", proposalID, panelMemberID, role).
		Order("question_order ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}

	var record models.EvaluationStatusRecord
	err := r.db.WithContext(ctx).
		Where("proposal_id = ? AND panel_member_id = ? AND role = ?", proposalID, panelMemberID, role).
		Order("created_at DESC, id DESC").
		First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		// Question rows without any status row cannot arise from the
		// transactional create path.
		return nil, ErrEvaluationInconsistent
	}
	if err != nil {
		return nil, err
	}

	evaluation := models.Evaluation{
		ProposalID:    proposalID,
		PanelMemberID: panelMemberID,
		Role:          role,
		Status:        record.Status,
		UpdatedAt:     record.CreatedAt,
	}
	for _, row := range rows {
		if row.UpdatedAt.After(evaluation.UpdatedAt) {
			evaluation.UpdatedAt = row.UpdatedAt
		}
		evaluation.Scores = append(evaluation.Scores, models.QuestionScore{
			Order: row.QuestionOrder,
			Score: row.Score,
			Notes: row.Notes,
		})
	}
	return &evaluation, nil
}

func (r *evaluationRepository) ListForOpportunity(ctx context.Context, opportunityID uint, role models.EvaluationRole, panelMemberID *uint) ([]models.Evaluation, error) {
	query := r.listQuery(ctx, role).
		Joins("JOIN proposals ON proposals.id = evaluations.proposal_id").
		Where("proposals.opportunity_id = ?", opportunityID)
	if panelMemberID != nil {
		query = query.Where("evaluations.panel_member_id = ?", *panelMemberID)
	}

	var rows []evaluationRow
	if err := query.Scan(&rows).Error; err != nil {
		return nil, err
	}
	return groupRows(rows, role), nil
}

func (r *evaluationRepository) ListForProposal(ctx context.Context, proposalID uint, role models.EvaluationRole) ([]models.Evaluation, error) {
	var rows []evaluationRow
	if err := r.listQuery(ctx, role).
		Where("evaluations.proposal_id = ?", proposalID).
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	return groupRows(rows, role), nil
}

func (r *evaluationRepository) Create(ctx context.Context, params CreateEvaluationParams) (*models.Evaluation, error) {
	now := time.Now()
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, score := range params.Scores {
			row := models.QuestionEvaluation{
				ProposalID:    params.ProposalID,
				PanelMemberID: params.PanelMemberID,
				Role:          params.Role,
				QuestionOrder: score.Order,
				Score:         score.Score,
				Notes:         score.Notes,
				CreatedAt:     now,
				UpdatedAt:     now,
			}
			if err := tx.Create(&row).Error; err != nil {
				return err
			}
		}

		record := models.EvaluationStatusRecord{
			ProposalID:    params.ProposalID,
			PanelMemberID: params.PanelMemberID,
			Role:          params.Role,
			Status:        params.Status,
			CreatedBy:     params.CreatedBy,
			CreatedAt:     now,
		}
		return tx.Create(&record).Error
	})
	if err != nil {
		return nil, err
	}

	return r.ReadOne(ctx, params.ProposalID, params.PanelMemberID, params.Role)
}

func (r *evaluationRepository) Update(ctx context.Context, params UpdateEvaluationParams) (*models.Evaluation, error) {
	now := time.Now()
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, score := range params.Scores {
			result := tx.Model(&models.QuestionEvaluation{}).
				Where("proposal_id = ? AND panel_member_id = ? AND role = ? AND question_order = ?",
					params.ProposalID, params.PanelMemberID, params.Role, score.Order).
				Updates(map[string]interface{}{
					"score":      score.Score,
					"notes":      score.Notes,
					"updated_at": now,
				})
			if result.Error != nil {
				return result.Error
			}
			if result.RowsAffected == 0 {
				return ErrEvaluationRowMissing
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return r.ReadOne(ctx, params.ProposalID, params.PanelMemberID, params.Role)
}

func (r *evaluationRepository) AppendStatus(ctx context.Context, proposalID, panelMemberID uint, role models.EvaluationRole, status models.EvaluationStatus, createdBy uint) error {
	record := models.EvaluationStatusRecord{
		ProposalID:    proposalID,
		PanelMemberID: panelMemberID,
		Role:          role,
		Status:        status,
		CreatedBy:     createdBy,
		CreatedAt:     time.Now(),
	}
	return r.db.WithContext(ctx).Create(&record).Error
}

func (r *evaluationRepository) CompletionReport(ctx context.Context, opportunityID uint, proposalIDs []uint) (models.CompletionReport, error) {
	return completionCounts(r.db.WithContext(ctx), opportunityID, proposalIDs, false)
}

// latestVersions ranks an opportunity's versions by recency; rank 1 is the
// authoritative version for evaluator and question counts.
func latestVersions(db *gorm.DB, opportunityID uint) *gorm.DB {
	return db.Table("opportunity_versions").
		Select(`id, opportunity_id,
			ROW_NUMBER() OVER (PARTITION BY opportunity_id ORDER BY created_at DESC, id DESC) AS rn`).
		Where("opportunity_id = ?", opportunityID)
}

// completionCounts gathers the three counts behind the consensus-gate
// predicate, all scoped to the opportunity's most recent version. When lock
// is set the submitted rows are read FOR UPDATE so the predicate holds until
// the surrounding transaction commits; row locks are a postgres feature and
// are skipped on other dialects (the sqlite test database).
func completionCounts(tx *gorm.DB, opportunityID uint, proposalIDs []uint, lock bool) (models.CompletionReport, error) {
	report := models.CompletionReport{Proposals: int64(len(proposalIDs))}
	if len(proposalIDs) == 0 {
		return report, nil
	}

	submitted := tx.
		Table("question_evaluations AS evaluations").
		Joins(`JOIN (?) AS statuses
			ON statuses.proposal_id = evaluations.proposal_id
			AND statuses.panel_member_id = evaluations.panel_member_id
			AND statuses.rn = 1`, rankedStatuses(tx, models.RoleEvaluator)).
		Where("evaluations.role = ?", models.RoleEvaluator).
		Where("statuses.status = ?", models.EvaluationSubmitted).
		Where("evaluations.proposal_id IN ?", proposalIDs).
		Select("evaluations.id")
	if lock && tx.Dialector.Name() == "postgres" {
		submitted = submitted.Clauses(clause.Locking{
			Strength: "UPDATE",
			Table:    clause.Table{Name: "evaluations"},
		})
	}
	var submittedIDs []uint
	if err := submitted.Scan(&submittedIDs).Error; err != nil {
		return report, err
	}
	report.Submitted = int64(len(submittedIDs))

	if err := tx.Table("evaluation_panel_members AS members").
		Joins("JOIN (?) AS versions ON versions.id = members.opportunity_version_id AND versions.rn = 1",
			latestVersions(tx, opportunityID)).
		Where("members.evaluator = ?", true).
		Count(&report.Evaluators).Error; err != nil {
		return report, err
	}

	if err := tx.Table("questions").
		Joins("JOIN (?) AS versions ON versions.id = questions.opportunity_version_id AND versions.rn = 1",
			latestVersions(tx, opportunityID)).
		Count(&report.Questions).Error; err != nil {
		return report, err
	}

	return report, nil
}
