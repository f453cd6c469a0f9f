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
	"github.com/bcgov/digital-marketplace-sub005/internal/models"
	"github.com/bcgov/digital-marketplace-sub005/internal/repository"
	"github.com/bcgov/digital-marketplace-sub005/internal/scoring"
)

// ReportInvalidator drops cached score reports for an opportunity after its
// underlying scores change.
type ReportInvalidator interface {
	Invalidate(ctx context.Context, opportunityID uint) error
}

// EvaluationService encapsulates panel scoring workflows. The role argument
// selects between an evaluator's individual record and the chair's consensus
// record; authorization is checked against the opportunity's current panel
// on every call.
type EvaluationService interface {
	Create(ctx context.Context, principal Principal, role models.EvaluationRole, payload dto.EvaluationCreateRequest) (dto.EvaluationResponse, error)
	Update(ctx context.Context, principal Principal, role models.EvaluationRole, proposalID uint, payload dto.EvaluationUpdateRequest) (dto.EvaluationResponse, error)
	Submit(ctx context.Context, principal Principal, role models.EvaluationRole, proposalID uint) (dto.EvaluationResponse, error)
	ReadOne(ctx context.Context, principal Principal, role models.EvaluationRole, proposalID, panelMemberID uint) (dto.EvaluationResponse, error)
	ListMine(ctx context.Context, principal Principal, role models.EvaluationRole, opportunityID uint) ([]dto.EvaluationResponse, error)
	ListForOpportunity(ctx context.Context, principal Principal, role models.EvaluationRole, opportunityID uint) ([]dto.EvaluationResponse, error)
	ListForProposal(ctx context.Context, principal Principal, role models.EvaluationRole, proposalID uint) ([]dto.EvaluationResponse, error)
	Completion(ctx context.Context, opportunityID uint) (dto.CompletionResponse, error)

	// Capability checks fail closed: any read failure denies.
	IsPanelEvaluator(ctx context.Context, principal Principal, opportunityID uint) bool
	IsPanelChair(ctx context.Context, principal Principal, opportunityID uint) bool
}

type evaluationService struct {
	evaluations   repository.EvaluationRepository
	opportunities repository.OpportunityRepository
	proposals     repository.ProposalRepository
	validator     *validator.Validate
	reports       ReportInvalidator
	logger        zerolog.Logger
}

// NewEvaluationService constructs the evaluation service. reports may be nil
// when no report cache is configured.
func NewEvaluationService(
	evaluations repository.EvaluationRepository,
	opportunities repository.OpportunityRepository,
	proposals repository.ProposalRepository,
	validator *validator.Validate,
	reports ReportInvalidator,
	logger zerolog.Logger,
) EvaluationService {
	return &evaluationService{
		evaluations:   evaluations,
		opportunities: opportunities,
		proposals:     proposals,
		validator:     validator,
		reports:       reports,
		logger:        logger.With().Str("component", "evaluation_service").Logger(),
	}
}

var evaluationTracer = otel.Tracer("github.com/bcgov/digital-marketplace-sub005/internal/service/evaluation")

// panelContext is everything authorization and score validation need about
// the proposal's opportunity: its kind, latest version and panel.
type panelContext struct {
	proposal    models.Proposal
	opportunity models.Opportunity
	version     models.OpportunityVersion
}

func (s *evaluationService) loadPanelContext(ctx context.Context, proposalID uint) (panelContext, error) {
	proposal, err := s.proposals.GetByID(ctx, proposalID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return panelContext{}, ErrProposalNotFound
		}
		return panelContext{}, err
	}

	opportunity, err := s.opportunities.GetByID(ctx, proposal.OpportunityID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return panelContext{}, ErrOpportunityNotFound
		}
		return panelContext{}, err
	}

	version, err := s.opportunities.LatestVersion(ctx, proposal.OpportunityID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return panelContext{}, ErrOpportunityNotFound
		}
		return panelContext{}, err
	}

	return panelContext{proposal: proposal, opportunity: opportunity, version: version}, nil
}

// authorize checks the principal against the current panel for the requested
// role. Membership is looked up fresh on every call so a member removed by a
// later version loses access immediately, and absence always denies.
func authorize(pc panelContext, principal Principal, role models.EvaluationRole) error {
	member := pc.version.Member(principal.UserID)
	switch role {
	case models.RoleChair:
		if member == nil || !member.Chair {
			return ErrNotPanelChair
		}
	default:
		if member == nil || !member.Evaluator {
			return ErrNotPanelEvaluator
		}
	}
	return nil
}

// validateScores checks a payload against the version's question set: one
// score per question, no extras, every score within [0, max].
func validateScores(inputs []dto.QuestionScoreInput, questions []models.Question) ([]models.QuestionScore, error) {
	byOrder := make(map[int]models.Question, len(questions))
	for _, question := range questions {
		byOrder[question.Order] = question
	}
	if len(inputs) != len(questions) {
		return nil, ErrQuestionSetMismatch
	}

	seen := make(map[int]bool, len(inputs))
	scores := make([]models.QuestionScore, 0, len(inputs))
	for _, input := range inputs {
		question, ok := byOrder[input.Order]
		if !ok || seen[input.Order] {
			return nil, ErrQuestionSetMismatch
		}
		seen[input.Order] = true
		if input.Score < 0 || input.Score > question.MaxScore {
			return nil, ErrScoreOutOfRange
		}
		scores = append(scores, models.QuestionScore{
			Order: input.Order,
			Score: input.Score,
			Notes: input.Notes,
		})
	}
	return scores, nil
}

func (s *evaluationService) Create(ctx context.Context, principal Principal, role models.EvaluationRole, payload dto.EvaluationCreateRequest) (dto.EvaluationResponse, error) {
	ctx, span := evaluationTracer.Start(ctx, "evaluation.create")
	span.SetAttributes(
		attribute.Int64("evaluation.proposal_id", int64(payload.ProposalID)),
		attribute.Int64("evaluation.actor_id", int64(principal.UserID)),
		attribute.String("evaluation.role", string(role)),
	)
	defer span.End()

	if err := s.validator.Struct(payload); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "validation_failed")
		return dto.EvaluationResponse{}, err
	}

	pc, err := s.loadPanelContext(ctx, payload.ProposalID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "context_load_failed")
		return dto.EvaluationResponse{}, err
	}
	if err := authorize(pc, principal, role); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "not_on_panel")
		return dto.EvaluationResponse{}, err
	}

	existing, err := s.evaluations.ReadOne(ctx, payload.ProposalID, principal.UserID, role)
	if err != nil {
		span.RecordError(err)
		return dto.EvaluationResponse{}, err
	}
	if existing != nil {
		span.SetStatus(codes.Error, "already_exists")
		return dto.EvaluationResponse{}, ErrEvaluationExists
	}

	scores, err := validateScores(payload.Scores, pc.version.Questions)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "invalid_scores")
		return dto.EvaluationResponse{}, err
	}

	created, err := s.evaluations.Create(ctx, repository.CreateEvaluationParams{
		ProposalID:    payload.ProposalID,
		PanelMemberID: principal.UserID,
		Role:          role,
		Status:        models.EvaluationDraft,
		CreatedBy:     principal.UserID,
		Scores:        scores,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "create_failed")
		return dto.EvaluationResponse{}, err
	}

	s.logger.Info().
		Uint("proposal_id", payload.ProposalID).
		Uint("panel_member_id", principal.UserID).
		Str("role", string(role)).
		Msg("evaluation opened")
	return dto.NewEvaluationResponse(*created), nil
}

func (s *evaluationService) Update(ctx context.Context, principal Principal, role models.EvaluationRole, proposalID uint, payload dto.EvaluationUpdateRequest) (dto.EvaluationResponse, error) {
	ctx, span := evaluationTracer.Start(ctx, "evaluation.update")
	span.SetAttributes(
		attribute.Int64("evaluation.proposal_id", int64(proposalID)),
		attribute.Int64("evaluation.actor_id", int64(principal.UserID)),
		attribute.String("evaluation.role", string(role)),
	)
	defer span.End()

	if err := s.validator.Struct(payload); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "validation_failed")
		return dto.EvaluationResponse{}, err
	}

	pc, err := s.loadPanelContext(ctx, proposalID)
	if err != nil {
		span.RecordError(err)
		return dto.EvaluationResponse{}, err
	}
	if err := authorize(pc, principal, role); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "not_on_panel")
		return dto.EvaluationResponse{}, err
	}

	existing, err := s.evaluations.ReadOne(ctx, proposalID, principal.UserID, role)
	if err != nil {
		span.RecordError(err)
		return dto.EvaluationResponse{}, err
	}
	if existing == nil {
		span.SetStatus(codes.Error, "not_found")
		return dto.EvaluationResponse{}, ErrEvaluationNotFound
	}
	if !existing.IsDraft() {
		span.SetStatus(codes.Error, "immutable")
		return dto.EvaluationResponse{}, ErrEvaluationImmutable
	}

	scores, err := validateScores(payload.Scores, pc.version.Questions)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "invalid_scores")
		return dto.EvaluationResponse{}, err
	}

	updated, err := s.evaluations.Update(ctx, repository.UpdateEvaluationParams{
		ProposalID:    proposalID,
		PanelMemberID: principal.UserID,
		Role:          role,
		Scores:        scores,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "update_failed")
		return dto.EvaluationResponse{}, err
	}
	return dto.NewEvaluationResponse(*updated), nil
}

func (s *evaluationService) Submit(ctx context.Context, principal Principal, role models.EvaluationRole, proposalID uint) (dto.EvaluationResponse, error) {
	ctx, span := evaluationTracer.Start(ctx, "evaluation.submit")
	span.SetAttributes(
		attribute.Int64("evaluation.proposal_id", int64(proposalID)),
		attribute.Int64("evaluation.actor_id", int64(principal.UserID)),
		attribute.String("evaluation.role", string(role)),
	)
	defer span.End()

	pc, err := s.loadPanelContext(ctx, proposalID)
	if err != nil {
		span.RecordError(err)
		return dto.EvaluationResponse{}, err
	}
	if err := authorize(pc, principal, role); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "not_on_panel")
		return dto.EvaluationResponse{}, err
	}

	existing, err := s.evaluations.ReadOne(ctx, proposalID, principal.UserID, role)
	if err != nil {
		span.RecordError(err)
		return dto.EvaluationResponse{}, err
	}
	if existing == nil {
		span.SetStatus(codes.Error, "not_found")
		return dto.EvaluationResponse{}, ErrEvaluationNotFound
	}
	if !existing.IsDraft() {
		span.SetStatus(codes.Error, "immutable")
		return dto.EvaluationResponse{}, ErrEvaluationImmutable
	}

	if err := s.evaluations.AppendStatus(ctx, proposalID, principal.UserID, role, models.EvaluationSubmitted, principal.UserID); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "submit_failed")
		return dto.EvaluationResponse{}, err
	}

	if role == models.RoleChair {
		s.recordConsensusScore(ctx, pc, existing.Scores)
	}

	submitted, err := s.evaluations.ReadOne(ctx, proposalID, principal.UserID, role)
	if err != nil {
		span.RecordError(err)
		return dto.EvaluationResponse{}, err
	}
	if submitted == nil {
		return dto.EvaluationResponse{}, ErrEvaluationNotFound
	}

	s.logger.Info().
		Uint("proposal_id", proposalID).
		Uint("panel_member_id", principal.UserID).
		Str("role", string(role)).
		Msg("evaluation submitted")
	return dto.NewEvaluationResponse(*submitted), nil
}

// recordConsensusScore persists the aggregate percentage on the proposal once
// the chair submits, then drops any cached score report. Both writes are
// derived data; failures are logged and do not undo the submission.
func (s *evaluationService) recordConsensusScore(ctx context.Context, pc panelContext, scores []models.QuestionScore) {
	percentage, ok := scoring.AggregateQuestionScore(scores, pc.version.Questions)
	if !ok {
		s.logger.Warn().
			Uint("proposal_id", pc.proposal.ID).
			Msg("consensus submitted with zero-weight question set")
		return
	}

	if err := s.proposals.SetQuestionsScore(ctx, pc.proposal.ID, percentage); err != nil {
		s.logger.Warn().Err(err).
			Uint("proposal_id", pc.proposal.ID).
			Msg("failed to persist consensus score")
		return
	}

	if s.reports != nil {
		if err := s.reports.Invalidate(ctx, pc.opportunity.ID); err != nil {
			s.logger.Warn().Err(err).
				Uint("opportunity_id", pc.opportunity.ID).
				Msg("failed to invalidate score report cache")
		}
	}
}

func (s *evaluationService) ReadOne(ctx context.Context, principal Principal, role models.EvaluationRole, proposalID, panelMemberID uint) (dto.EvaluationResponse, error) {
	ctx, span := evaluationTracer.Start(ctx, "evaluation.read")
	span.SetAttributes(
		attribute.Int64("evaluation.proposal_id", int64(proposalID)),
		attribute.Int64("evaluation.panel_member_id", int64(panelMemberID)),
		attribute.String("evaluation.role", string(role)),
	)
	defer span.End()

	pc, err := s.loadPanelContext(ctx, proposalID)
	if err != nil {
		span.RecordError(err)
		return dto.EvaluationResponse{}, err
	}

	// A member may always read their own record; reading another member's
	// record takes the chair.
	if panelMemberID != principal.UserID {
		if err := authorize(pc, principal, models.RoleChair); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "not_chair")
			return dto.EvaluationResponse{}, err
		}
	} else if err := authorize(pc, principal, role); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "not_on_panel")
		return dto.EvaluationResponse{}, err
	}

	evaluation, err := s.evaluations.ReadOne(ctx, proposalID, panelMemberID, role)
	if err != nil {
		span.RecordError(err)
		return dto.EvaluationResponse{}, err
	}
	if evaluation == nil {
		span.SetStatus(codes.Error, "not_found")
		return dto.EvaluationResponse{}, ErrEvaluationNotFound
	}
	return dto.NewEvaluationResponse(*evaluation), nil
}

func (s *evaluationService) ListMine(ctx context.Context, principal Principal, role models.EvaluationRole, opportunityID uint) ([]dto.EvaluationResponse, error) {
	ctx, span := evaluationTracer.Start(ctx, "evaluation.list_mine")
	span.SetAttributes(
		attribute.Int64("evaluation.opportunity_id", int64(opportunityID)),
		attribute.Int64("evaluation.actor_id", int64(principal.UserID)),
	)
	defer span.End()

	if err := s.authorizeOnOpportunity(ctx, opportunityID, principal, role); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "not_on_panel")
		return nil, err
	}

	memberID := principal.UserID
	evaluations, err := s.evaluations.ListForOpportunity(ctx, opportunityID, role, &memberID)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	return dto.NewEvaluationResponseSlice(evaluations), nil
}

// ListForOpportunity returns every member's records for the opportunity. The
// chair uses it with the evaluator role to seed the consensus discussion.
// Admins may list without sitting on the panel.
func (s *evaluationService) ListForOpportunity(ctx context.Context, principal Principal, role models.EvaluationRole, opportunityID uint) ([]dto.EvaluationResponse, error) {
	ctx, span := evaluationTracer.Start(ctx, "evaluation.list_all")
	span.SetAttributes(
		attribute.Int64("evaluation.opportunity_id", int64(opportunityID)),
		attribute.Int64("evaluation.actor_id", int64(principal.UserID)),
	)
	defer span.End()

	if principal.Role != "admin" {
		if err := s.authorizeOnOpportunity(ctx, opportunityID, principal, models.RoleChair); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "not_chair")
			return nil, err
		}
	}

	evaluations, err := s.evaluations.ListForOpportunity(ctx, opportunityID, role, nil)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	return dto.NewEvaluationResponseSlice(evaluations), nil
}

// ListForProposal returns every member's records for one proposal, the view
// the chair works from during the consensus discussion. Admins may read it
// without sitting on the panel.
func (s *evaluationService) ListForProposal(ctx context.Context, principal Principal, role models.EvaluationRole, proposalID uint) ([]dto.EvaluationResponse, error) {
	ctx, span := evaluationTracer.Start(ctx, "evaluation.list_for_proposal")
	span.SetAttributes(
		attribute.Int64("evaluation.proposal_id", int64(proposalID)),
		attribute.Int64("evaluation.actor_id", int64(principal.UserID)),
	)
	defer span.End()

	proposal, err := s.proposals.GetByID(ctx, proposalID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			span.SetStatus(codes.Error, "not_found")
			return nil, ErrProposalNotFound
		}
		span.RecordError(err)
		return nil, err
	}

	if principal.Role != "admin" && !s.IsPanelChair(ctx, principal, proposal.OpportunityID) {
		span.SetStatus(codes.Error, "not_chair")
		return nil, ErrNotPanelChair
	}

	evaluations, err := s.evaluations.ListForProposal(ctx, proposalID, role)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	return dto.NewEvaluationResponseSlice(evaluations), nil
}

// IsPanelEvaluator reports whether the principal sits on the opportunity's
// current panel as an evaluator. Internal read failures deny.
func (s *evaluationService) IsPanelEvaluator(ctx context.Context, principal Principal, opportunityID uint) bool {
	return s.hasPanelRole(ctx, principal, opportunityID, models.RoleEvaluator)
}

// IsPanelChair reports whether the principal chairs the opportunity's
// current panel. Internal read failures deny.
func (s *evaluationService) IsPanelChair(ctx context.Context, principal Principal, opportunityID uint) bool {
	return s.hasPanelRole(ctx, principal, opportunityID, models.RoleChair)
}

func (s *evaluationService) hasPanelRole(ctx context.Context, principal Principal, opportunityID uint, role models.EvaluationRole) bool {
	version, err := s.opportunities.LatestVersion(ctx, opportunityID)
	if err != nil {
		s.logger.Warn().Err(err).
			Uint("opportunity_id", opportunityID).
			Uint("user_id", principal.UserID).
			Msg("panel capability check failed, denying")
		return false
	}
	return authorize(panelContext{version: version}, principal, role) == nil
}

func (s *evaluationService) authorizeOnOpportunity(ctx context.Context, opportunityID uint, principal Principal, role models.EvaluationRole) error {
	version, err := s.opportunities.LatestVersion(ctx, opportunityID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrOpportunityNotFound
		}
		return err
	}
	return authorize(panelContext{version: version}, principal, role)
}

func (s *evaluationService) Completion(ctx context.Context, opportunityID uint) (dto.CompletionResponse, error) {
	ctx, span := evaluationTracer.Start(ctx, "evaluation.completion")
	span.SetAttributes(attribute.Int64("evaluation.opportunity_id", int64(opportunityID)))
	defer span.End()

	if _, err := s.opportunities.GetByID(ctx, opportunityID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.CompletionResponse{}, ErrOpportunityNotFound
		}
		span.RecordError(err)
		return dto.CompletionResponse{}, err
	}

	proposalIDs, err := s.proposals.IDsForOpportunity(ctx, opportunityID, evaluationPhaseStatuses...)
	if err != nil {
		span.RecordError(err)
		return dto.CompletionResponse{}, err
	}

	report, err := s.evaluations.CompletionReport(ctx, opportunityID, proposalIDs)
	if err != nil {
		span.RecordError(err)
		return dto.CompletionResponse{}, err
	}
	return dto.NewCompletionResponse(report), nil
}

// evaluationPhaseStatuses are the proposal statuses that place a proposal in
// front of the panel. Withdrawn and disqualified proposals drop out of the
// completion requirement.
var evaluationPhaseStatuses = []models.ProposalStatus{
	models.ProposalUnderReview,
	models.ProposalUnderReviewQuestions,
}
