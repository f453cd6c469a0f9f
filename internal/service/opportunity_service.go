package service

import (
	"context"
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"gorm.io/gorm"

	"github.com/bcgov/digital-marketplace-sub005/internal/dto"
	"github.com/bcgov/digital-marketplace-sub005/internal/lifecycle"
	"github.com/bcgov/digital-marketplace-sub005/internal/models"
	"github.com/bcgov/digital-marketplace-sub005/internal/observability"
	"github.com/bcgov/digital-marketplace-sub005/internal/repository"
)

// OpportunityService encapsulates opportunity lifecycle workflows.
type OpportunityService interface {
	Get(ctx context.Context, id uint) (dto.OpportunityResponse, error)
	UpdateStatus(ctx context.Context, principal Principal, id uint, payload dto.OpportunityStatusUpdateRequest) (dto.OpportunityResponse, error)
}

type opportunityService struct {
	opportunities repository.OpportunityRepository
	proposals     repository.ProposalRepository
	validator     *validator.Validate
	logger        zerolog.Logger
}

// NewOpportunityService constructs the opportunity service.
func NewOpportunityService(
	opportunities repository.OpportunityRepository,
	proposals repository.ProposalRepository,
	validator *validator.Validate,
	logger zerolog.Logger,
) OpportunityService {
	return &opportunityService{
		opportunities: opportunities,
		proposals:     proposals,
		validator:     validator,
		logger:        logger.With().Str("component", "opportunity_service").Logger(),
	}
}

var opportunityTracer = otel.Tracer("github.com/bcgov/digital-marketplace-sub005/internal/service/opportunity")

func (s *opportunityService) Get(ctx context.Context, id uint) (dto.OpportunityResponse, error) {
	opportunity, err := s.opportunities.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.OpportunityResponse{}, ErrOpportunityNotFound
		}
		return dto.OpportunityResponse{}, err
	}
	return dto.NewOpportunityResponse(opportunity), nil
}

// UpdateStatus moves an opportunity along its per-kind lifecycle. The advance
// from individual question evaluation to consensus carries the completion
// gate: it commits only when every evaluator has submitted every score, and
// the check runs under row locks in the same transaction as the write.
func (s *opportunityService) UpdateStatus(ctx context.Context, principal Principal, id uint, payload dto.OpportunityStatusUpdateRequest) (dto.OpportunityResponse, error) {
	ctx, span := opportunityTracer.Start(ctx, "opportunity.update_status")
	span.SetAttributes(
		attribute.Int64("opportunity.id", int64(id)),
		attribute.Int64("opportunity.actor_id", int64(principal.UserID)),
		attribute.String("opportunity.target_status", payload.Status),
	)
	defer span.End()

	if err := s.validator.Struct(payload); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "validation_failed")
		return dto.OpportunityResponse{}, err
	}

	// Opportunity transitions are a government operation regardless of the
	// edge requested.
	if lifecycle.Actor(principal.Role).IsVendor() {
		span.SetStatus(codes.Error, "forbidden")
		return dto.OpportunityResponse{}, ErrInvalidStatusChange
	}

	to := models.ParseOpportunityStatus(payload.Status)
	if to == "" {
		span.SetStatus(codes.Error, "unknown_status")
		return dto.OpportunityResponse{}, ErrInvalidStatusChange
	}

	opportunity, err := s.opportunities.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			span.SetStatus(codes.Error, "not_found")
			return dto.OpportunityResponse{}, ErrOpportunityNotFound
		}
		span.RecordError(err)
		return dto.OpportunityResponse{}, err
	}

	if !lifecycle.IsValidOpportunityStatusChange(opportunity.Kind, opportunity.Status, to) {
		span.SetStatus(codes.Error, "invalid_transition")
		return dto.OpportunityResponse{}, ErrInvalidStatusChange
	}

	if lifecycle.IsConsensusAdvance(opportunity.Kind, opportunity.Status, to) {
		proposalIDs, err := s.proposals.IDsForOpportunity(ctx, id, evaluationPhaseStatuses...)
		if err != nil {
			span.RecordError(err)
			return dto.OpportunityResponse{}, err
		}
		report, err := s.opportunities.AdvanceToConsensus(ctx, id, proposalIDs, to, payload.Note, principal.UserID)
		if err != nil {
			if errors.Is(err, repository.ErrEvaluationsIncomplete) {
				observability.ConsensusGate().WithLabelValues("incomplete").Inc()
				span.SetAttributes(
					attribute.Int64("opportunity.submitted", report.Submitted),
					attribute.Int64("opportunity.required", report.Required()),
				)
				span.SetStatus(codes.Error, "evaluations_incomplete")
			}
			span.RecordError(err)
			return dto.OpportunityResponse{}, err
		}
		observability.ConsensusGate().WithLabelValues("advanced").Inc()
	} else if err := s.opportunities.UpdateStatus(ctx, id, to, payload.Note, principal.UserID); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "status_write_failed")
		return dto.OpportunityResponse{}, err
	}

	s.logger.Info().
		Uint("opportunity_id", id).
		Str("from", string(opportunity.Status)).
		Str("to", string(to)).
		Msg("opportunity status changed")

	updated, err := s.opportunities.GetByID(ctx, id)
	if err != nil {
		span.RecordError(err)
		return dto.OpportunityResponse{}, err
	}
	return dto.NewOpportunityResponse(updated), nil
}
