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
	"github.com/bcgov/digital-marketplace-sub005/internal/repository"
	"github.com/bcgov/digital-marketplace-sub005/internal/service"
)

type mockOpportunityService struct {
	lastPayload dto.OpportunityStatusUpdateRequest
	response    dto.OpportunityResponse
	err         error
}

func (m *mockOpportunityService) Get(_ context.Context, _ uint) (dto.OpportunityResponse, error) {
	return m.response, m.err
}

func (m *mockOpportunityService) UpdateStatus(_ context.Context, _ service.Principal, _ uint, payload dto.OpportunityStatusUpdateRequest) (dto.OpportunityResponse, error) {
	m.lastPayload = payload
	return m.response, m.err
}

type mockReportService struct {
	summary dto.ProposalScoreSummaryResponse
	err     error
}

func (m *mockReportService) ScoreSummary(_ context.Context, _ uint) (dto.ProposalScoreSummaryResponse, error) {
	return m.summary, m.err
}

func (m *mockReportService) Invalidate(_ context.Context, _ uint) error {
	return nil
}

func newOpportunityApp(svc *mockOpportunityService, reports *mockReportService) *fiber.App {
	logger := zerolog.New(io.Discard)
	app := fiber.New()
	h := handler.NewOpportunityHandler(svc, reports, logger)
	h.Register(app.Group("/api/v1/opportunities", withPrincipal(1, "admin")))
	return app
}

func TestOpportunityHandlerUpdateStatus(t *testing.T) {
	svc := &mockOpportunityService{response: dto.OpportunityResponse{ID: 1, Status: models.OpportunityPublished}}
	app := newOpportunityApp(svc, &mockReportService{})

	req := jsonRequest(t, http.MethodPatch, "/api/v1/opportunities/1/status", dto.OpportunityStatusUpdateRequest{Status: "PUBLISHED"})
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Equal(t, "PUBLISHED", svc.lastPayload.Status)
}

func TestOpportunityHandlerIncompleteEvaluationsConflict(t *testing.T) {
	svc := &mockOpportunityService{err: repository.ErrEvaluationsIncomplete}
	app := newOpportunityApp(svc, &mockReportService{})

	req := jsonRequest(t, http.MethodPatch, "/api/v1/opportunities/1/status", dto.OpportunityStatusUpdateRequest{Status: "EVAL_QUESTIONS_CONSENSUS"})
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusConflict, resp.StatusCode)
}

func TestOpportunityHandlerInvalidTransition(t *testing.T) {
	svc := &mockOpportunityService{err: service.ErrInvalidStatusChange}
	app := newOpportunityApp(svc, &mockReportService{})

	req := jsonRequest(t, http.MethodPatch, "/api/v1/opportunities/1/status", dto.OpportunityStatusUpdateRequest{Status: "AWARDED"})
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestOpportunityHandlerReport(t *testing.T) {
	reports := &mockReportService{summary: dto.ProposalScoreSummaryResponse{OpportunityID: 1, Scored: 2, Highest: 80, Average: 70}}
	app := newOpportunityApp(&mockOpportunityService{}, reports)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/opportunities/1/report", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var body struct {
		Data dto.ProposalScoreSummaryResponse `json:"data"`
	}
	decodeResponse(t, resp, &body)
	require.Equal(t, 80.0, body.Data.Highest)
}

func TestOpportunityHandlerNotFound(t *testing.T) {
	svc := &mockOpportunityService{err: service.ErrOpportunityNotFound}
	app := newOpportunityApp(svc, &mockReportService{})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/opportunities/42", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}
