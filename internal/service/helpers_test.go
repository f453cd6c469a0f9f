package service

import (
	"context"
	"io"
	"sort"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/bcgov/digital-marketplace-sub005/internal/models"
	"github.com/bcgov/digital-marketplace-sub005/internal/repository"
)

func testLogger() zerolog.Logger {
	return zerolog.New(io.Discard)
}

// evaluationKey identifies one member's record of one proposal.
type evaluationKey struct {
	proposalID    uint
	panelMemberID uint
	role          models.EvaluationRole
}

type fakeEvaluationRepo struct {
	evaluations map[evaluationKey]*models.Evaluation
	report      models.CompletionReport
	createCalls int
	updateCalls int
	statusCalls int
}

func newFakeEvaluationRepo() *fakeEvaluationRepo {
	return &fakeEvaluationRepo{evaluations: map[evaluationKey]*models.Evaluation{}}
}

func (f *fakeEvaluationRepo) ReadOne(ctx context.Context, proposalID, panelMemberID uint, role models.EvaluationRole) (*models.Evaluation, error) {
	evaluation, ok := f.evaluations[evaluationKey{proposalID, panelMemberID, role}]
	if !ok {
		return nil, nil
	}
	clone := *evaluation
	return &clone, nil
}

func (f *fakeEvaluationRepo) ListForOpportunity(ctx context.Context, opportunityID uint, role models.EvaluationRole, panelMemberID *uint) ([]models.Evaluation, error) {
	var result []models.Evaluation
	for key, evaluation := range f.evaluations {
		if key.role != role {
			continue
		}
		if panelMemberID != nil && key.panelMemberID != *panelMemberID {
			continue
		}
		result = append(result, *evaluation)
	}
	return result, nil
}

func (f *fakeEvaluationRepo) ListForProposal(ctx context.Context, proposalID uint, role models.EvaluationRole) ([]models.Evaluation, error) {
	var result []models.Evaluation
	for key, evaluation := range f.evaluations {
		if key.proposalID == proposalID && key.role == role {
			result = append(result, *evaluation)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].PanelMemberID < result[j].PanelMemberID })
	return result, nil
}

func (f *fakeEvaluationRepo) Create(ctx context.Context, params repository.CreateEvaluationParams) (*models.Evaluation, error) {
	f.createCalls++
	evaluation := &models.Evaluation{
		ProposalID:    params.ProposalID,
		PanelMemberID: params.PanelMemberID,
		Role:          params.Role,
		Status:        params.Status,
		Scores:        params.Scores,
	}
	f.evaluations[evaluationKey{params.ProposalID, params.PanelMemberID, params.Role}] = evaluation
	clone := *evaluation
	return &clone, nil
}

func (f *fakeEvaluationRepo) Update(ctx context.Context, params repository.UpdateEvaluationParams) (*models.Evaluation, error) {
	f.updateCalls++
	key := evaluationKey{params.ProposalID, params.PanelMemberID, params.Role}
	evaluation, ok := f.evaluations[key]
	if !ok {
		return nil, repository.ErrEvaluationRowMissing
	}
	evaluation.Scores = params.Scores
	clone := *evaluation
	return &clone, nil
}

func (f *fakeEvaluationRepo) AppendStatus(ctx context.Context, proposalID, panelMemberID uint, role models.EvaluationRole, status models.EvaluationStatus, createdBy uint) error {
	f.statusCalls++
	key := evaluationKey{proposalID, panelMemberID, role}
	evaluation, ok := f.evaluations[key]
	if !ok {
		return repository.ErrEvaluationRowMissing
	}
	evaluation.Status = status
	return nil
}

func (f *fakeEvaluationRepo) CompletionReport(ctx context.Context, opportunityID uint, proposalIDs []uint) (models.CompletionReport, error) {
	return f.report, nil
}

type fakeOpportunityRepo struct {
	opportunity   models.Opportunity
	version       models.OpportunityVersion
	versionErr    error
	report        models.CompletionReport
	incomplete    bool
	statusCalls   int
	advanceCalls  int
	appendedNotes []string
}

func (f *fakeOpportunityRepo) GetByID(ctx context.Context, id uint) (models.Opportunity, error) {
	if id != f.opportunity.ID {
		return models.Opportunity{}, gorm.ErrRecordNotFound
	}
	return f.opportunity, nil
}

func (f *fakeOpportunityRepo) LatestVersion(ctx context.Context, opportunityID uint) (models.OpportunityVersion, error) {
	if f.versionErr != nil {
		return models.OpportunityVersion{}, f.versionErr
	}
	if opportunityID != f.opportunity.ID {
		return models.OpportunityVersion{}, gorm.ErrRecordNotFound
	}
	return f.version, nil
}

func (f *fakeOpportunityRepo) UpdateStatus(ctx context.Context, opportunityID uint, to models.OpportunityStatus, note string, actorID uint) error {
	f.statusCalls++
	f.opportunity.Status = to
	f.appendedNotes = append(f.appendedNotes, note)
	return nil
}

func (f *fakeOpportunityRepo) AdvanceToConsensus(ctx context.Context, opportunityID uint, proposalIDs []uint, to models.OpportunityStatus, note string, actorID uint) (models.CompletionReport, error) {
	f.advanceCalls++
	if f.incomplete {
		return f.report, repository.ErrEvaluationsIncomplete
	}
	f.opportunity.Status = to
	return f.report, nil
}

type fakeProposalRepo struct {
	proposals   map[uint]*models.Proposal
	statusCalls int
	scoreCalls  int
}

func newFakeProposalRepo(proposals ...models.Proposal) *fakeProposalRepo {
	repo := &fakeProposalRepo{proposals: map[uint]*models.Proposal{}}
	for i := range proposals {
		proposal := proposals[i]
		repo.proposals[proposal.ID] = &proposal
	}
	return repo
}

func (f *fakeProposalRepo) GetByID(ctx context.Context, id uint) (models.Proposal, error) {
	proposal, ok := f.proposals[id]
	if !ok {
		return models.Proposal{}, gorm.ErrRecordNotFound
	}
	return *proposal, nil
}

func (f *fakeProposalRepo) ListForOpportunity(ctx context.Context, opportunityID uint, statuses ...models.ProposalStatus) ([]models.Proposal, error) {
	var result []models.Proposal
	for _, proposal := range f.proposals {
		if proposal.OpportunityID != opportunityID {
			continue
		}
		if len(statuses) > 0 {
			match := false
			for _, status := range statuses {
				if proposal.Status == status {
					match = true
					break
				}
			}
			if !match {
				continue
			}
		}
		result = append(result, *proposal)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (f *fakeProposalRepo) IDsForOpportunity(ctx context.Context, opportunityID uint, statuses ...models.ProposalStatus) ([]uint, error) {
	proposals, err := f.ListForOpportunity(ctx, opportunityID, statuses...)
	if err != nil {
		return nil, err
	}
	ids := make([]uint, 0, len(proposals))
	for _, proposal := range proposals {
		ids = append(ids, proposal.ID)
	}
	return ids, nil
}

func (f *fakeProposalRepo) UpdateStatus(ctx context.Context, proposalID uint, to models.ProposalStatus, note string, actorID uint) error {
	proposal, ok := f.proposals[proposalID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	f.statusCalls++
	proposal.Status = to
	return nil
}

func (f *fakeProposalRepo) SetQuestionsScore(ctx context.Context, proposalID uint, score float64) error {
	proposal, ok := f.proposals[proposalID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	f.scoreCalls++
	proposal.QuestionsScore = &score
	return nil
}

type fakeInvalidator struct {
	calls []uint
}

func (f *fakeInvalidator) Invalidate(ctx context.Context, opportunityID uint) error {
	f.calls = append(f.calls, opportunityID)
	return nil
}
