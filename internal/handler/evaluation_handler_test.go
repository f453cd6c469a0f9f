package handler_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/bcgov/digital-marketplace-sub005/internal/dto"
	"github.com/bcgov/digital-marketplace-sub005/internal/handler"
	"github.com/bcgov/digital-marketplace-sub005/internal/models"
	"github.com/bcgov/digital-marketplace-sub005/internal/service"
)

type mockEvaluationService struct {
	lastRole            models.EvaluationRole
	lastPayload         dto.EvaluationCreateRequest
	lastProposalID      uint
	response            dto.EvaluationResponse
	list                []dto.EvaluationResponse
	completion          dto.CompletionResponse
	evaluatorCapability bool
	chairCapability     bool
	err                 error
}

func (m *mockEvaluationService) Create(_ context.Context, _ service.Principal, role models.EvaluationRole, payload dto.EvaluationCreateRequest) (dto.EvaluationResponse, error) {
	m.lastRole = role
	m.lastPayload = payload
	return m.response, m.err
}

func (m *mockEvaluationService) Update(_ context.Context, _ service.Principal, role models.EvaluationRole, _ uint, _ dto.EvaluationUpdateRequest) (dto.EvaluationResponse, error) {
	m.lastRole = role
	return m.response, m.err
}

func (m *mockEvaluationService) Submit(_ context.Context, _ service.Principal, role models.EvaluationRole, _ uint) (dto.EvaluationResponse, error) {
	m.lastRole = role
	return m.response, m.err
}

func (m *mockEvaluationService) ReadOne(_ context.Context, _ service.Principal, role models.EvaluationRole, _, _ uint) (dto.EvaluationResponse, error) {
	m.lastRole = role
	return m.response, m.err
}

func (m *mockEvaluationService) ListMine(_ context.Context, _ service.Principal, role models.EvaluationRole, _ uint) ([]dto.EvaluationResponse, error) {
	m.lastRole = role
	return m.list, m.err
}

func (m *mockEvaluationService) ListForOpportunity(_ context.Context, _ service.Principal, role models.EvaluationRole, _ uint) ([]dto.EvaluationResponse, error) {
	m.lastRole = role
	return m.list, m.err
}

func (m *mockEvaluationService) ListForProposal(_ context.Context, _ service.Principal, role models.EvaluationRole, proposalID uint) ([]dto.EvaluationResponse, error) {
	m.lastRole = role
	m.lastProposalID = proposalID
	return m.list, m.err
}

func (m *mockEvaluationService) Completion(_ context.Context, _ uint) (dto.CompletionResponse, error) {
	return m.completion, m.err
}

func (m *mockEvaluationService) IsPanelEvaluator(_ context.Context, _ service.Principal, _ uint) bool {
	return m.evaluatorCapability
}

func (m *mockEvaluationService) IsPanelChair(_ context.Context, _ service.Principal, _ uint) bool {
	return m.chairCapability
}

func newEvaluationApp(svc *mockEvaluationService) *fiber.App {
	logger := zerolog.New(io.Discard)
	app := fiber.New()
	h := handler.NewEvaluationHandler(svc, logger)
	h.Register(app.Group("/api/v1/evaluations", withPrincipal(10, "gov")))
	h.RegisterOpportunityRoutes(app.Group("/api/v1/opportunities", withPrincipal(10, "gov")))
	return app
}

func TestEvaluationHandlerCreate(t *testing.T) {
	svc := &mockEvaluationService{response: dto.EvaluationResponse{ProposalID: 100, Status: models.EvaluationDraft}}
	app := newEvaluationApp(svc)

	req := jsonRequest(t, http.MethodPost, "/api/v1/evaluations", dto.EvaluationCreateRequest{
		ProposalID: 100,
		Scores:     []dto.QuestionScoreInput{{Order: 0, Score: 4}},
	})
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	require.Equal(t, models.RoleEvaluator, svc.lastRole)
	require.Equal(t, uint(100), svc.lastPayload.ProposalID)
}

func TestEvaluationHandlerConsensusFlag(t *testing.T) {
	svc := &mockEvaluationService{}
	app := newEvaluationApp(svc)

	req := jsonRequest(t, http.MethodPost, "/api/v1/evaluations?consensus=true", dto.EvaluationCreateRequest{
		ProposalID: 100,
		Scores:     []dto.QuestionScoreInput{{Order: 0, Score: 4}},
	})
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	require.Equal(t, models.RoleChair, svc.lastRole)
}

func TestEvaluationHandlerErrorMapping(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{service.ErrEvaluationNotFound, fiber.StatusNotFound},
		{service.ErrNotPanelEvaluator, fiber.StatusForbidden},
		{service.ErrNotPanelChair, fiber.StatusForbidden},
		{service.ErrEvaluationExists, fiber.StatusConflict},
		{service.ErrEvaluationImmutable, fiber.StatusConflict},
		{service.ErrScoreOutOfRange, fiber.StatusBadRequest},
		{service.ErrQuestionSetMismatch, fiber.StatusBadRequest},
		{io.ErrUnexpectedEOF, fiber.StatusInternalServerError},
	}

	for _, tc := range cases {
		svc := &mockEvaluationService{err: tc.err}
		app := newEvaluationApp(svc)

		req := jsonRequest(t, http.MethodPost, "/api/v1/evaluations", dto.EvaluationCreateRequest{
			ProposalID: 100,
			Scores:     []dto.QuestionScoreInput{{Order: 0, Score: 4}},
		})
		resp, err := app.Test(req)
		require.NoError(t, err)
		require.Equal(t, tc.status, resp.StatusCode, "error %v", tc.err)
	}
}

func TestEvaluationHandlerSubmit(t *testing.T) {
	svc := &mockEvaluationService{response: dto.EvaluationResponse{ProposalID: 100, Status: models.EvaluationSubmitted}}
	app := newEvaluationApp(svc)

	resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/api/v1/evaluations/100/submit", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var body struct {
		Success bool                   `json:"success"`
		Data    dto.EvaluationResponse `json:"data"`
	}
	decodeResponse(t, resp, &body)
	require.True(t, body.Success)
	require.Equal(t, models.EvaluationSubmitted, body.Data.Status)
}

func TestEvaluationHandlerPanelListing(t *testing.T) {
	svc := &mockEvaluationService{list: []dto.EvaluationResponse{
		{ProposalID: 100, PanelMemberID: 10},
		{ProposalID: 100, PanelMemberID: 20},
	}}
	app := newEvaluationApp(svc)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/evaluations/100/panel", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Equal(t, uint(100), svc.lastProposalID)
	require.Equal(t, models.RoleEvaluator, svc.lastRole)

	var body struct {
		Success bool                     `json:"success"`
		Data    []dto.EvaluationResponse `json:"data"`
	}
	decodeResponse(t, resp, &body)
	require.True(t, body.Success)
	require.Len(t, body.Data, 2)
}

func TestEvaluationHandlerInvalidProposalID(t *testing.T) {
	svc := &mockEvaluationService{}
	app := newEvaluationApp(svc)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/evaluations/abc", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestEvaluationHandlerCompletion(t *testing.T) {
	svc := &mockEvaluationService{completion: dto.CompletionResponse{Submitted: 11, Required: 12}}
	app := newEvaluationApp(svc)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/opportunities/1/evaluations/completion", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var body struct {
		Data dto.CompletionResponse `json:"data"`
	}
	decodeResponse(t, resp, &body)
	require.Equal(t, int64(11), body.Data.Submitted)
	require.False(t, body.Data.Complete)
}
