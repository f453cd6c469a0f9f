package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/bcgov/digital-marketplace-sub005/internal/models"
)

// ProposalRepository defines data operations for proposals.
type ProposalRepository interface {
	GetByID(ctx context.Context, id uint) (models.Proposal, error)
	ListForOpportunity(ctx context.Context, opportunityID uint, statuses ...models.ProposalStatus) ([]models.Proposal, error)
	IDsForOpportunity(ctx context.Context, opportunityID uint, statuses ...models.ProposalStatus) ([]uint, error)
	UpdateStatus(ctx context.Context, proposalID uint, to models.ProposalStatus, note string, actorID uint) error
	SetQuestionsScore(ctx context.Context, proposalID uint, score float64) error
}

type proposalRepository struct {
	db *gorm.DB
}

// NewProposalRepository instantiates the repository.
func NewProposalRepository(db *gorm.DB) ProposalRepository {
	return &proposalRepository{db: db}
}

func (r *proposalRepository) baseQuery(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Model(&models.Proposal{}).
		Preload("Opportunity").
		Preload("Responses", func(db *gorm.DB) *gorm.DB {
			return db.Order("question_order ASC")
		})
}

func (r *proposalRepository) GetByID(ctx context.Context, id uint) (models.Proposal, error) {
	var proposal models.Proposal
	if err := r.baseQuery(ctx).First(&proposal, id).Error; err != nil {
		return models.Proposal{}, err
	}
	return proposal, nil
}

func (r *proposalRepository) ListForOpportunity(ctx context.Context, opportunityID uint, statuses ...models.ProposalStatus) ([]models.Proposal, error) {
	query := r.baseQuery(ctx).Where("opportunity_id = ?", opportunityID)
	if len(statuses) > 0 {
		query = query.Where("status IN ?", statuses)
	}

	var proposals []models.Proposal
	if err := query.Order("id ASC").Find(&proposals).Error; err != nil {
		return nil, err
	}
	return proposals, nil
}

func (r *proposalRepository) IDsForOpportunity(ctx context.Context, opportunityID uint, statuses ...models.ProposalStatus) ([]uint, error) {
	query := r.db.WithContext(ctx).Model(&models.Proposal{}).
		Where("opportunity_id = ?", opportunityID)
	if len(statuses) > 0 {
		query = query.Where("status IN ?", statuses)
	}

	var ids []uint
	if err := query.Order("id ASC").Pluck("id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *proposalRepository) UpdateStatus(ctx context.Context, proposalID uint, to models.ProposalStatus, note string, actorID uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now()
		updates := map[string]interface{}{"status": to, "updated_at": now}
		if to == models.ProposalSubmitted {
			updates["submitted_at"] = now
		}

		result := tx.Model(&models.Proposal{}).
			Where("id = ?", proposalID).
			Updates(updates)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}

		record := models.ProposalStatusRecord{
			ProposalID: proposalID,
			Status:     to,
			Note:       note,
			CreatedBy:  &actorID,
			CreatedAt:  now,
		}
		return tx.Create(&record).Error
	})
}

func (r *proposalRepository) SetQuestionsScore(ctx context.Context, proposalID uint, score float64) error {
	result := r.db.WithContext(ctx).Model(&models.Proposal{}).
		Where("id = ?", proposalID).
		Update("questions_score", score)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
