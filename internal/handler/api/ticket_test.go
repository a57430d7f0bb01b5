//go:build unit

package api_test

import (
	"net/http"
	"testing"
	"time"

	"ticketgate/internal/domain/credential"
	"ticketgate/internal/domain/user"
	"ticketgate/internal/handler/api"
	resdto "ticketgate/internal/handler/dto/response"
	"ticketgate/internal/usecase/commands"
	"ticketgate/tests/common/httptest"
	commandsmock "ticketgate/tests/mock/commands"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"
)

type TicketHandlerTestSuite struct {
	suite.Suite
	router       *gin.Engine
	mockCtrl     *gomock.Controller
	mockCommands *commandsmock.MockCredentialCommands
	handler      *api.TicketHandler
	buyerID      uuid.UUID
}

func (s *TicketHandlerTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	s.router = gin.New()

	s.mockCtrl = gomock.NewController(s.T())
	s.mockCommands = commandsmock.NewMockCredentialCommands(s.mockCtrl)
	s.handler = api.NewTicketHandler(s.mockCommands)

	s.buyerID = uuid.New()

	// Mock authentication middleware for testing
	authMiddleware := func(c *gin.Context) {
		if c.GetHeader("Authorization") == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		c.Set("user_id", s.buyerID)
		c.Set("user_role", user.RoleBuyer)
		c.Next()
	}

	s.router.POST("/tickets/:id/credential", authMiddleware, s.handler.IssueCredential)
}

func (s *TicketHandlerTestSuite) TearDownTest() {
	s.mockCtrl.Finish()
}

func TestTicketHandlerSuite(t *testing.T) {
	suite.Run(t, new(TicketHandlerTestSuite))
}

func (s *TicketHandlerTestSuite) TestIssueCredential() {
	ticketID := uuid.New()
	url := "/tickets/" + ticketID.String() + "/credential"

	s.Run("success: static credential", func() {
		expiresAt := time.Date(2026, 3, 15, 18, 0, 0, 0, time.UTC)
		s.mockCommands.EXPECT().
			Issue(gomock.Any(), ticketID, s.buyerID, credential.ModeStatic).
			Return(&commands.IssuedCredential{
				Token:     "encoded-static-token",
				Mode:      credential.ModeStatic,
				TicketID:  ticketID,
				ExpiresAt: expiresAt,
			}, nil).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, url,
			map[string]any{"mode": "static"}, "bearer-token")

		var response resdto.CredentialResponse
		httptest.AssertSuccessResponse(s.T(), rec, http.StatusOK, &response)
		s.Equal("encoded-static-token", response.Token)
		s.Equal("static", response.Mode)
		s.Equal(ticketID, response.TicketID)
		s.True(response.ExpiresAt.Equal(expiresAt))
	})

	s.Run("success: rotating credential", func() {
		s.mockCommands.EXPECT().
			Issue(gomock.Any(), ticketID, s.buyerID, credential.ModeRotating).
			Return(&commands.IssuedCredential{
				Token:    "encoded-rotating-token",
				Mode:     credential.ModeRotating,
				TicketID: ticketID,
			}, nil).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, url,
			map[string]any{"mode": "rotating"}, "bearer-token")

		var response resdto.CredentialResponse
		httptest.AssertSuccessResponse(s.T(), rec, http.StatusOK, &response)
		s.Equal("rotating", response.Mode)
	})

	s.Run("error: 400 on unknown mode", func() {
		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, url,
			map[string]any{"mode": "hologram"}, "bearer-token")
		httptest.AssertErrorResponse(s.T(), rec, http.StatusBadRequest, "Invalid request format")
	})

	s.Run("error: foreign ticket hidden as 404", func() {
		s.mockCommands.EXPECT().
			Issue(gomock.Any(), ticketID, s.buyerID, credential.ModeStatic).
			Return(nil, commands.ErrNotTicketOwner).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, url,
			map[string]any{"mode": "static"}, "bearer-token")
		httptest.AssertErrorResponse(s.T(), rec, http.StatusNotFound, "Ticket not found")
	})

	s.Run("error: 409 for a non-active ticket", func() {
		s.mockCommands.EXPECT().
			Issue(gomock.Any(), ticketID, s.buyerID, credential.ModeStatic).
			Return(nil, commands.ErrTicketNotActive).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, url,
			map[string]any{"mode": "static"}, "bearer-token")
		httptest.AssertErrorResponse(s.T(), rec, http.StatusConflict, "Ticket is not active")
	})

	s.Run("error: 401 when unauthenticated", func() {
		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, url,
			map[string]any{"mode": "static"}, "")
		httptest.AssertErrorResponse(s.T(), rec, http.StatusUnauthorized, "Unauthorized")
	})
}
