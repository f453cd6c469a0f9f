package repository

import (
	"context"
	"encoding/json"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/bcgov/digital-marketplace-sub005/internal/models"
)

// OpportunityRepository defines data operations for opportunities and their
// versioned questions and panels.
type OpportunityRepository interface {
	GetByID(ctx context.Context, id uint) (models.Opportunity, error)
	LatestVersion(ctx context.Context, opportunityID uint) (models.OpportunityVersion, error)
	UpdateStatus(ctx context.Context, opportunityID uint, to models.OpportunityStatus, note string, actorID uint) error
	AdvanceToConsensus(ctx context.Context, opportunityID uint, proposalIDs []uint, to models.OpportunityStatus, note string, actorID uint) (models.CompletionReport, error)
}

type opportunityRepository struct {
	db *gorm.DB
}

// NewOpportunityRepository instantiates the repository.
func NewOpportunityRepository(db *gorm.DB) OpportunityRepository {
	return &opportunityRepository{db: db}
}

func (r *opportunityRepository) GetByID(ctx context.Context, id uint) (models.Opportunity, error) {
	var opportunity models.Opportunity
	if err := r.db.WithContext(ctx).
		Preload("History", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC, id ASC")
		}).
		First(&opportunity, id).Error; err != nil {
		return models.Opportunity{}, err
	}
	return opportunity, nil
}

// LatestVersion returns the authoritative version: most recent created_at,
// ties broken by highest id.
func (r *opportunityRepository) LatestVersion(ctx context.Context, opportunityID uint) (models.OpportunityVersion, error) {
	var version models.OpportunityVersion
	if err := r.db.WithContext(ctx).
		Preload("Questions", func(db *gorm.DB) *gorm.DB {
			return db.Order("question_order ASC")
		}).
		Preload("Panel", func(db *gorm.DB) *gorm.DB {
			return db.Order("member_order ASC")
		}).
		Where("opportunity_id = ?", opportunityID).
		Order("created_at DESC, id DESC").
		First(&version).Error; err != nil {
		return models.OpportunityVersion{}, err
	}
	return version, nil
}

func (r *opportunityRepository) UpdateStatus(ctx context.Context, opportunityID uint, to models.OpportunityStatus, note string, actorID uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return appendOpportunityStatus(tx, opportunityID, to, note, actorID, nil)
	})
}

// AdvanceToConsensus performs the individual-to-consensus phase advance.
// The completion predicate is evaluated with row locks inside the same
// transaction as the status write, so two near-simultaneous final
// submissions cannot both advance the opportunity.
func (r *opportunityRepository) AdvanceToConsensus(ctx context.Context, opportunityID uint, proposalIDs []uint, to models.OpportunityStatus, note string, actorID uint) (models.CompletionReport, error) {
	var report models.CompletionReport
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		report, err = completionCounts(tx, opportunityID, proposalIDs, true)
		if err != nil {
			return err
		}
		if !report.Complete() {
			return ErrEvaluationsIncomplete
		}
		// The history row records the counts that satisfied the gate.
		metadata, err := json.Marshal(report)
		if err != nil {
			return err
		}
		return appendOpportunityStatus(tx, opportunityID, to, note, actorID, metadata)
	})
	return report, err
}

func appendOpportunityStatus(tx *gorm.DB, opportunityID uint, to models.OpportunityStatus, note string, actorID uint, metadata datatypes.JSON) error {
	now := time.Now()
	result := tx.Model(&models.Opportunity{}).
		Where("id = ?", opportunityID).
		Updates(map[string]interface{}{"status": to, "updated_at": now})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	record := models.OpportunityStatusRecord{
		OpportunityID: opportunityID,
		Status:        to,
		Note:          note,
		CreatedBy:     &actorID,
		CreatedAt:     now,
		Metadata:      metadata,
	}
	return tx.Create(&record).Error
}
