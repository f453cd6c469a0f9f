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

type mockProposalService struct {
	lastPrincipal service.Principal
	response      dto.ProposalResponse
	list          []dto.ProposalResponse
	err           error
}

func (m *mockProposalService) Get(_ context.Context, principal service.Principal, _ uint) (dto.ProposalResponse, error) {
	m.lastPrincipal = principal
	return m.response, m.err
}

func (m *mockProposalService) ListForOpportunity(_ context.Context, principal service.Principal, _ uint) ([]dto.ProposalResponse, error) {
	m.lastPrincipal = principal
	return m.list, m.err
}

func (m *mockProposalService) UpdateStatus(_ context.Context, principal service.Principal, _ uint, _ dto.ProposalStatusUpdateRequest) (dto.ProposalResponse, error) {
	m.lastPrincipal = principal
	return m.response, m.err
}

func newProposalApp(svc *mockProposalService, userID uint, role string) *fiber.App {
	logger := zerolog.New(io.Discard)
	app := fiber.New()
	h := handler.NewProposalHandler(svc, logger)
	h.Register(app.Group("/api/v1/proposals", withPrincipal(userID, role)))
	h.RegisterOpportunityRoutes(app.Group("/api/v1/opportunities", withPrincipal(userID, role)))
	return app
}

func TestProposalHandlerStatusUpdateCarriesPrincipal(t *testing.T) {
	svc := &mockProposalService{response: dto.ProposalResponse{ID: 100, Status: models.ProposalSubmitted}}
	app := newProposalApp(svc, 200, "vendor")

	req := jsonRequest(t, http.MethodPatch, "/api/v1/proposals/100/status", dto.ProposalStatusUpdateRequest{Status: "SUBMITTED"})
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Equal(t, uint(200), svc.lastPrincipal.UserID)
	require.Equal(t, "vendor", svc.lastPrincipal.Role)
}

func TestProposalHandlerNotFound(t *testing.T) {
	svc := &mockProposalService{err: service.ErrProposalNotFound}
	app := newProposalApp(svc, 200, "vendor")

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/proposals/100", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestProposalHandlerList(t *testing.T) {
	svc := &mockProposalService{list: []dto.ProposalResponse{{ID: 100}, {ID: 101}}}
	app := newProposalApp(svc, 1, "gov")

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/opportunities/1/proposals", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var body struct {
		Data []dto.ProposalResponse `json:"data"`
	}
	decodeResponse(t, resp, &body)
	require.Len(t, body.Data, 2)
}
