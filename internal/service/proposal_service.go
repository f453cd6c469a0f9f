package service

import (
	"context"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"gorm.io/gorm"

	"github.com/bcgov/digital-marketplace-sub005/internal/dto"
	"github.com/bcgov/digital-marketplace-sub005/internal/lifecycle"
	"github.com/bcgov/digital-marketplace-sub005/internal/models"
	"github.com/bcgov/digital-marketplace-sub005/internal/repository"
)

// ProposalService encapsulates proposal lifecycle workflows.
type ProposalService interface {
	Get(ctx context.Context, principal Principal, id uint) (dto.ProposalResponse, error)
	ListForOpportunity(ctx context.Context, principal Principal, opportunityID uint) ([]dto.ProposalResponse, error)
	UpdateStatus(ctx context.Context, principal Principal, id uint, payload dto.ProposalStatusUpdateRequest) (dto.ProposalResponse, error)
}

type proposalService struct {
	proposals     repository.ProposalRepository
	opportunities repository.OpportunityRepository
	validator     *validator.Validate
	logger        zerolog.Logger
	now           func() time.Time
}

// NewProposalService constructs the proposal service.
func NewProposalService(
	proposals repository.ProposalRepository,
	opportunities repository.OpportunityRepository,
	validator *validator.Validate,
	logger zerolog.Logger,
) ProposalService {
	return &proposalService{
		proposals:     proposals,
		opportunities: opportunities,
		validator:     validator,
		logger:        logger.With().Str("component", "proposal_service").Logger(),
		now:           time.Now,
	}
}

var proposalTracer = otel.Tracer("github.com/bcgov/digital-marketplace-sub005/internal/service/proposal")

func (s *proposalService) Get(ctx context.Context, principal Principal, id uint) (dto.ProposalResponse, error) {
	proposal, err := s.proposals.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ProposalResponse{}, ErrProposalNotFound
		}
		return dto.ProposalResponse{}, err
	}

	// Vendors only see their own proposals.
	if lifecycle.Actor(principal.Role).IsVendor() && !proposal.OwnedBy(principal.UserID) {
		return dto.ProposalResponse{}, ErrProposalNotFound
	}
	return dto.NewProposalResponse(proposal), nil
}

func (s *proposalService) ListForOpportunity(ctx context.Context, principal Principal, opportunityID uint) ([]dto.ProposalResponse, error) {
	proposals, err := s.proposals.ListForOpportunity(ctx, opportunityID)
	if err != nil {
		return nil, err
	}

	if lifecycle.Actor(principal.Role).IsVendor() {
		own := proposals[:0]
		for _, proposal := range proposals {
			if proposal.OwnedBy(principal.UserID) {
				own = append(own, proposal)
			}
		}
		proposals = own
	}
	return dto.NewProposalResponseSlice(proposals), nil
}

// UpdateStatus moves a proposal along its lifecycle. Which edges exist
// depends on the opportunity kind, the caller's role and the proposal
// deadline; the graph itself lives in the lifecycle package.
func (s *proposalService) UpdateStatus(ctx context.Context, principal Principal, id uint, payload dto.ProposalStatusUpdateRequest) (dto.ProposalResponse, error) {
	ctx, span := proposalTracer.Start(ctx, "proposal.update_status")
	span.SetAttributes(
		attribute.Int64("proposal.id", int64(id)),
		attribute.Int64("proposal.actor_id", int64(principal.UserID)),
		attribute.String("proposal.target_status", payload.Status),
	)
	defer span.End()

	if err := s.validator.Struct(payload); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "validation_failed")
		return dto.ProposalResponse{}, err
	}

	to := models.ParseProposalStatus(payload.Status)
	if to == "" {
		span.SetStatus(codes.Error, "unknown_status")
		return dto.ProposalResponse{}, ErrInvalidStatusChange
	}

	proposal, err := s.proposals.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			span.SetStatus(codes.Error, "not_found")
			return dto.ProposalResponse{}, ErrProposalNotFound
		}
		span.RecordError(err)
		return dto.ProposalResponse{}, err
	}

	actor := lifecycle.Actor(principal.Role)
	if actor.IsVendor() && !proposal.OwnedBy(principal.UserID) {
		span.SetStatus(codes.Error, "not_owner")
		return dto.ProposalResponse{}, ErrProposalNotFound
	}

	opportunity, err := s.opportunities.GetByID(ctx, proposal.OpportunityID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			span.SetStatus(codes.Error, "opportunity_missing")
			return dto.ProposalResponse{}, ErrOpportunityNotFound
		}
		span.RecordError(err)
		return dto.ProposalResponse{}, err
	}

	if !lifecycle.IsValidProposalStatusChange(opportunity.Kind, proposal.Status, to, actor, opportunity.ProposalDeadline, s.now()) {
		span.SetStatus(codes.Error, "invalid_transition")
		return dto.ProposalResponse{}, ErrInvalidStatusChange
	}

	if err := s.proposals.UpdateStatus(ctx, id, to, payload.Note, principal.UserID); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "status_write_failed")
		return dto.ProposalResponse{}, err
	}

	s.logger.Info().
		Uint("proposal_id", id).
		Str("from", string(proposal.Status)).
		Str("to", string(to)).
		Msg("proposal status changed")

	updated, err := s.proposals.GetByID(ctx, id)
	if err != nil {
		span.RecordError(err)
		return dto.ProposalResponse{}, err
	}
	return dto.NewProposalResponse(updated), nil
}
