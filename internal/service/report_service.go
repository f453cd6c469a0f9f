package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/bcgov/digital-marketplace-sub005/internal/dto"
	"github.com/bcgov/digital-marketplace-sub005/internal/repository"
	"github.com/bcgov/digital-marketplace-sub005/internal/scoring"
)

// ReportService produces score summaries for an opportunity's proposals.
// Summaries are cached in redis until a consensus submission invalidates
// them.
type ReportService interface {
	ReportInvalidator
	ScoreSummary(ctx context.Context, opportunityID uint) (dto.ProposalScoreSummaryResponse, error)
}

type reportService struct {
	proposals     repository.ProposalRepository
	opportunities repository.OpportunityRepository
	cache         *redis.Client
	cacheTTL      time.Duration
	logger        zerolog.Logger
}

// NewReportService constructs the report service. cache may be nil, in which
// case every read recomputes.
func NewReportService(
	proposals repository.ProposalRepository,
	opportunities repository.OpportunityRepository,
	cache *redis.Client,
	ttl time.Duration,
	logger zerolog.Logger,
) ReportService {
	return &reportService{
		proposals:     proposals,
		opportunities: opportunities,
		cache:         cache,
		cacheTTL:      ttl,
		logger:        logger.With().Str("component", "report_service").Logger(),
	}
}

func reportCacheKey(opportunityID uint) string {
	return fmt.Sprintf("report:scores:%d", opportunityID)
}

func (s *reportService) ScoreSummary(ctx context.Context, opportunityID uint) (dto.ProposalScoreSummaryResponse, error) {
	cacheKey := reportCacheKey(opportunityID)

	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, cacheKey).Result(); err == nil {
			var response dto.ProposalScoreSummaryResponse
			if unmarshalErr := json.Unmarshal([]byte(cached), &response); unmarshalErr == nil {
				s.logger.Debug().Uint("opportunity_id", opportunityID).Msg("score report cache hit")
				return response, nil
			}
		} else if err != redis.Nil {
			s.logger.Warn().Err(err).Msg("failed to read score report cache")
		}
	}

	if _, err := s.opportunities.GetByID(ctx, opportunityID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ProposalScoreSummaryResponse{}, ErrOpportunityNotFound
		}
		return dto.ProposalScoreSummaryResponse{}, err
	}

	proposals, err := s.proposals.ListForOpportunity(ctx, opportunityID)
	if err != nil {
		return dto.ProposalScoreSummaryResponse{}, err
	}

	scores := make([]*float64, 0, len(proposals))
	scored := 0
	for _, proposal := range proposals {
		scores = append(scores, proposal.QuestionsScore)
		if proposal.QuestionsScore != nil && *proposal.QuestionsScore != 0 {
			scored++
		}
	}
	highest, average := scoring.Summarize(scores)

	response := dto.ProposalScoreSummaryResponse{
		OpportunityID: opportunityID,
		Scored:        scored,
		Highest:       highest,
		Average:       average,
	}

	if s.cache != nil {
		if payload, err := json.Marshal(response); err == nil {
			if err := s.cache.Set(ctx, cacheKey, payload, s.cacheTTL).Err(); err != nil {
				s.logger.Warn().Err(err).Msg("failed to store score report cache")
			}
		}
	}
	return response, nil
}

// Invalidate drops the cached summary for an opportunity.
func (s *reportService) Invalidate(ctx context.Context, opportunityID uint) error {
	if s.cache == nil {
		return nil
	}
	return s.cache.Del(ctx, reportCacheKey(opportunityID)).Err()
}
