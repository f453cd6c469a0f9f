package service

import (
	"context"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/require"

	"github.com/bcgov/digital-marketplace-sub005/internal/dto"
	"github.com/bcgov/digital-marketplace-sub005/internal/models"
)

func newProposalService(proposals *fakeProposalRepo, opportunities *fakeOpportunityRepo) ProposalService {
	validate := validator.New(validator.WithRequiredStructEnabled())
	return NewProposalService(proposals, opportunities, validate, testLogger())
}

func proposalFixture(deadline time.Time, status models.ProposalStatus) (*fakeProposalRepo, *fakeOpportunityRepo) {
	opportunities := &fakeOpportunityRepo{
		opportunity: models.Opportunity{
			ID:               1,
			Kind:             models.KindCodeWithUs,
			Status:           models.OpportunityPublished,
			ProposalDeadline: deadline,
		},
	}
	proposals := newFakeProposalRepo(models.Proposal{
		ID:            100,
		OpportunityID: 1,
		VendorID:      vendorID,
		Status:        status,
	})
	return proposals, opportunities
}

func TestProposalVendorSubmitBeforeDeadline(t *testing.T) {
	proposals, opportunities := proposalFixture(time.Now().Add(time.Hour), models.ProposalDraft)
	svc := newProposalService(proposals, opportunities)

	response, err := svc.UpdateStatus(context.Background(), Principal{UserID: vendorID, Role: "vendor"}, 100, dto.ProposalStatusUpdateRequest{Status: "SUBMITTED"})
	require.NoError(t, err)
	require.Equal(t, models.ProposalSubmitted, response.Status)
}

func TestProposalVendorSubmitAfterDeadline(t *testing.T) {
	proposals, opportunities := proposalFixture(time.Now().Add(-time.Hour), models.ProposalDraft)
	svc := newProposalService(proposals, opportunities)

	_, err := svc.UpdateStatus(context.Background(), Principal{UserID: vendorID, Role: "vendor"}, 100, dto.ProposalStatusUpdateRequest{Status: "SUBMITTED"})
	require.ErrorIs(t, err, ErrInvalidStatusChange)
	require.Equal(t, 0, proposals.statusCalls)
}

func TestProposalVendorCannotTouchOthers(t *testing.T) {
	proposals, opportunities := proposalFixture(time.Now().Add(time.Hour), models.ProposalDraft)
	svc := newProposalService(proposals, opportunities)
	stranger := Principal{UserID: 999, Role: "vendor"}

	_, err := svc.UpdateStatus(context.Background(), stranger, 100, dto.ProposalStatusUpdateRequest{Status: "SUBMITTED"})
	require.ErrorIs(t, err, ErrProposalNotFound)

	_, err = svc.Get(context.Background(), stranger, 100)
	require.ErrorIs(t, err, ErrProposalNotFound)
}

func TestProposalGovReviewAfterDeadline(t *testing.T) {
	proposals, opportunities := proposalFixture(time.Now().Add(-time.Hour), models.ProposalSubmitted)
	svc := newProposalService(proposals, opportunities)
	gov := Principal{UserID: 1, Role: "gov"}

	response, err := svc.UpdateStatus(context.Background(), gov, 100, dto.ProposalStatusUpdateRequest{Status: "UNDER_REVIEW"})
	require.NoError(t, err)
	require.Equal(t, models.ProposalUnderReview, response.Status)
}

func TestProposalGovReviewBeforeDeadline(t *testing.T) {
	proposals, opportunities := proposalFixture(time.Now().Add(time.Hour), models.ProposalSubmitted)
	svc := newProposalService(proposals, opportunities)

	_, err := svc.UpdateStatus(context.Background(), Principal{UserID: 1, Role: "gov"}, 100, dto.ProposalStatusUpdateRequest{Status: "UNDER_REVIEW"})
	require.ErrorIs(t, err, ErrInvalidStatusChange)
}

func TestProposalListScopedForVendors(t *testing.T) {
	opportunities := &fakeOpportunityRepo{opportunity: models.Opportunity{ID: 1, Kind: models.KindCodeWithUs}}
	proposals := newFakeProposalRepo(
		models.Proposal{ID: 100, OpportunityID: 1, VendorID: vendorID, Status: models.ProposalSubmitted},
		models.Proposal{ID: 101, OpportunityID: 1, VendorID: 999, Status: models.ProposalSubmitted},
	)
	svc := newProposalService(proposals, opportunities)

	mine, err := svc.ListForOpportunity(context.Background(), Principal{UserID: vendorID, Role: "vendor"}, 1)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	require.Equal(t, uint(100), mine[0].ID)

	all, err := svc.ListForOpportunity(context.Background(), Principal{UserID: 1, Role: "gov"}, 1)
	require.NoError(t, err)
	require.Len(t, all, 2)
}
