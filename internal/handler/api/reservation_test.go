//go:build unit

package api_test

import (
	"errors"
	"net/http"
	"testing"
	"time"

	"ticketgate/internal/domain/reservation"
	"ticketgate/internal/domain/ticket"
	"ticketgate/internal/domain/user"
	"ticketgate/internal/handler/api"
	resdto "ticketgate/internal/handler/dto/response"
	"ticketgate/internal/usecase/commands"
	"ticketgate/internal/usecase/queries"
	"ticketgate/tests/common/httptest"
	commandsmock "ticketgate/tests/mock/commands"
	queriesmock "ticketgate/tests/mock/queries"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"
)

type ReservationHandlerTestSuite struct {
	suite.Suite
	router       *gin.Engine
	mockCtrl     *gomock.Controller
	mockCommands *commandsmock.MockReservationCommands
	mockQueries  *queriesmock.MockReservationQueries
	handler      *api.ReservationHandler
	buyerID      uuid.UUID
}

func (s *ReservationHandlerTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	s.router = gin.New()

	s.mockCtrl = gomock.NewController(s.T())
	s.mockCommands = commandsmock.NewMockReservationCommands(s.mockCtrl)
	s.mockQueries = queriesmock.NewMockReservationQueries(s.mockCtrl)
	s.handler = api.NewReservationHandler(s.mockCommands, s.mockQueries)

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

	s.router.POST("/reservations", authMiddleware, s.handler.CreateReservation)
	s.router.GET("/reservations/:id", authMiddleware, s.handler.GetReservation)
	s.router.POST("/reservations/:id/consume", authMiddleware, s.handler.ConsumeReservation)
	s.router.DELETE("/reservations/:id", authMiddleware, s.handler.CancelReservation)
	s.router.GET("/reservations/:id/tickets", authMiddleware, s.handler.ListTickets)
}

func (s *ReservationHandlerTestSuite) TearDownTest() {
	s.mockCtrl.Finish()
}

func TestReservationHandlerSuite(t *testing.T) {
	suite.Run(t, new(ReservationHandlerTestSuite))
}

func (s *ReservationHandlerTestSuite) newPendingReservation(resourceID uuid.UUID) *reservation.Reservation {
	res, err := reservation.NewReservation(resourceID, s.buyerID, 2, 10*time.Minute, time.Now().UTC())
	s.Require().NoError(err)
	return res
}

func (s *ReservationHandlerTestSuite) TestCreateReservation() {
	url := "/reservations"
	resourceID := uuid.New()
	idempotencyKey := uuid.New().String()
	headers := map[string]string{"Idempotency-Key": idempotencyKey}
	reqBody := map[string]any{
		"resource_id": resourceID.String(),
		"quantity":    2,
	}

	s.Run("success: returns 201 Created", func() {
		res := s.newPendingReservation(resourceID)
		s.mockCommands.EXPECT().
			Create(gomock.Any(), s.buyerID, commands.CreateReservationInput{
				ResourceID: resourceID,
				Quantity:   2,
			}, gomock.Any()).
			Return(&commands.CreateReservationResult{Reservation: res}, nil).Times(1)

		rec := httptest.PerformRequestWithHeaders(s.T(), s.router, http.MethodPost, url, reqBody, "bearer-token", headers)

		var response resdto.ReservationResponse
		httptest.AssertSuccessResponse(s.T(), rec, http.StatusCreated, &response)
		s.Equal(res.ID(), response.ID)
		s.Equal("pending", response.Status)
		s.False(response.IsReplayed)
	})

	s.Run("success: idempotent replay returns 200", func() {
		res := s.newPendingReservation(resourceID)
		s.mockCommands.EXPECT().
			Create(gomock.Any(), s.buyerID, gomock.Any(), gomock.Any()).
			Return(&commands.CreateReservationResult{Reservation: res, IsReplayed: true}, nil).Times(1)

		rec := httptest.PerformRequestWithHeaders(s.T(), s.router, http.MethodPost, url, reqBody, "bearer-token", headers)

		var response resdto.ReservationResponse
		httptest.AssertSuccessResponse(s.T(), rec, http.StatusOK, &response)
		s.True(response.IsReplayed)
	})

	s.Run("error: 400 without idempotency key", func() {
		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, url, reqBody, "bearer-token")
		httptest.AssertErrorResponse(s.T(), rec, http.StatusBadRequest, "idempotency key required")
	})

	s.Run("error: 400 on validation failures", func() {
		for _, body := range []map[string]any{
			{"quantity": 2},
			{"resource_id": resourceID.String()},
			{"resource_id": resourceID.String(), "quantity": 0},
			{"resource_id": resourceID.String(), "quantity": 2, "ttl_seconds": -1},
		} {
			rec := httptest.PerformRequestWithHeaders(s.T(), s.router, http.MethodPost, url, body, "bearer-token", headers)
			httptest.AssertErrorResponse(s.T(), rec, http.StatusBadRequest, "")
		}
	})

	s.Run("error: maps usecase errors to proper statuses", func() {
		testCases := []struct {
			name           string
			commandsError  error
			expectedStatus int
			expectedMsg    string
		}{
			{"resource not found", commands.ErrResourceNotFound, http.StatusNotFound, "Resource not found"},
			{"sold out", commands.ErrSoldOut, http.StatusConflict, "Insufficient inventory"},
			{"captcha required", commands.ErrCaptchaRequired, http.StatusForbidden, "Captcha verification required"},
			{"phone check required", commands.ErrPhoneCheckRequired, http.StatusForbidden, "Phone verification required"},
			{"fraud refused", commands.ErrFraudRefused, http.StatusForbidden, "Reservation refused"},
			{"key reused with different body", commands.ErrDuplicateRequest, http.StatusConflict, "Idempotency key reused"},
			{"request in flight", commands.ErrIdempotencyInProgress, http.StatusConflict, "currently being processed"},
			{"infrastructure failure", errors.New("db down"), http.StatusInternalServerError, "Internal server error"},
		}

		for _, tc := range testCases {
			s.Run(tc.name, func() {
				s.mockCommands.EXPECT().
					Create(gomock.Any(), s.buyerID, gomock.Any(), gomock.Any()).
					Return(nil, tc.commandsError).Times(1)

				rec := httptest.PerformRequestWithHeaders(s.T(), s.router, http.MethodPost, url, reqBody, "bearer-token", headers)
				httptest.AssertErrorResponse(s.T(), rec, tc.expectedStatus, tc.expectedMsg)
			})
		}
	})

	s.Run("error: 401 when unauthenticated", func() {
		rec := httptest.PerformRequestWithHeaders(s.T(), s.router, http.MethodPost, url, reqBody, "", headers)
		httptest.AssertErrorResponse(s.T(), rec, http.StatusUnauthorized, "Unauthorized")
	})
}

func (s *ReservationHandlerTestSuite) TestGetReservation() {
	reservationID := uuid.New()
	url := "/reservations/" + reservationID.String()

	s.Run("success: returns 200 with the view", func() {
		view := &queries.ReservationView{
			ID:       reservationID,
			Quantity: 2,
			Status:   "pending",
		}
		s.mockQueries.EXPECT().
			GetReservation(gomock.Any(), reservationID, s.buyerID).
			Return(view, nil).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodGet, url, nil, "bearer-token")

		var response resdto.ReservationResponse
		httptest.AssertSuccessResponse(s.T(), rec, http.StatusOK, &response)
		s.Equal(reservationID, response.ID)
		s.Equal("pending", response.Status)
	})

	s.Run("error: 404 when missing or foreign", func() {
		s.mockQueries.EXPECT().
			GetReservation(gomock.Any(), reservationID, s.buyerID).
			Return(nil, queries.ErrReservationNotFound).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodGet, url, nil, "bearer-token")
		httptest.AssertErrorResponse(s.T(), rec, http.StatusNotFound, "Reservation not found")
	})

	s.Run("error: 400 on malformed id", func() {
		rec := httptest.PerformRequest(s.T(), s.router, http.MethodGet, "/reservations/not-a-uuid", nil, "bearer-token")
		httptest.AssertErrorResponse(s.T(), rec, http.StatusBadRequest, "Invalid reservation ID format")
	})
}

func (s *ReservationHandlerTestSuite) TestConsumeReservation() {
	resourceID := uuid.New()

	s.Run("success: returns the reservation and issued tickets", func() {
		res := s.newPendingReservation(resourceID)
		s.Require().NoError(res.Consume(time.Now().UTC()))

		tk, err := ticket.Issue(resourceID, uuid.New(), s.buyerID, res.ID(), time.Now().UTC())
		s.Require().NoError(err)

		s.mockCommands.EXPECT().
			Consume(gomock.Any(), res.ID()).
			Return(&commands.ConsumeReservationResult{
				Reservation: res,
				Tickets:     []*ticket.Ticket{tk},
			}, nil).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost,
			"/reservations/"+res.ID().String()+"/consume", nil, "bearer-token")

		var response resdto.ConsumeReservationResponse
		httptest.AssertSuccessResponse(s.T(), rec, http.StatusOK, &response)
		s.Equal("consumed", response.Reservation.Status)
		s.Require().Len(response.Tickets, 1)
		s.Equal(tk.ID(), response.Tickets[0].ID)
		s.Equal("active", response.Tickets[0].Status)
	})

	s.Run("error: maps usecase errors to proper statuses", func() {
		reservationID := uuid.New()
		url := "/reservations/" + reservationID.String() + "/consume"

		testCases := []struct {
			name           string
			commandsError  error
			expectedStatus int
			expectedMsg    string
		}{
			{"not found", commands.ErrReservationNotFound, http.StatusNotFound, "Reservation not found"},
			{"expired", commands.ErrReservationExpired, http.StatusGone, "Reservation expired"},
			{"cancelled", commands.ErrReservationCancelled, http.StatusGone, "Reservation cancelled"},
		}

		for _, tc := range testCases {
			s.Run(tc.name, func() {
				s.mockCommands.EXPECT().
					Consume(gomock.Any(), reservationID).
					Return(nil, tc.commandsError).Times(1)

				rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, url, nil, "bearer-token")
				httptest.AssertErrorResponse(s.T(), rec, tc.expectedStatus, tc.expectedMsg)
			})
		}
	})
}

func (s *ReservationHandlerTestSuite) TestCancelReservation() {
	reservationID := uuid.New()
	url := "/reservations/" + reservationID.String()

	s.Run("success: returns 204", func() {
		s.mockCommands.EXPECT().
			Cancel(gomock.Any(), reservationID, s.buyerID).
			Return(nil).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodDelete, url, nil, "bearer-token")
		s.Equal(http.StatusNoContent, rec.Code)
	})

	s.Run("error: 403 for a foreign reservation", func() {
		s.mockCommands.EXPECT().
			Cancel(gomock.Any(), reservationID, s.buyerID).
			Return(commands.ErrNotReservationOwner).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodDelete, url, nil, "bearer-token")
		httptest.AssertErrorResponse(s.T(), rec, http.StatusForbidden, "Reservation belongs to another buyer")
	})

	s.Run("error: 410 when already expired", func() {
		s.mockCommands.EXPECT().
			Cancel(gomock.Any(), reservationID, s.buyerID).
			Return(commands.ErrReservationExpired).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodDelete, url, nil, "bearer-token")
		httptest.AssertErrorResponse(s.T(), rec, http.StatusGone, "Reservation expired")
	})
}

func (s *ReservationHandlerTestSuite) TestListTickets() {
	reservationID := uuid.New()
	url := "/reservations/" + reservationID.String() + "/tickets"

	s.Run("success: returns ticket views", func() {
		views := []queries.TicketView{
			{ID: uuid.New(), ReservationID: reservationID, Status: "active"},
			{ID: uuid.New(), ReservationID: reservationID, Status: "used"},
		}
		s.mockQueries.EXPECT().
			ListTickets(gomock.Any(), reservationID, s.buyerID).
			Return(views, nil).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodGet, url, nil, "bearer-token")

		var response []resdto.TicketResponse
		httptest.AssertSuccessResponse(s.T(), rec, http.StatusOK, &response)
		s.Require().Len(response, 2)
		s.Equal(views[0].ID, response[0].ID)
	})

	s.Run("error: 404 when the reservation is missing", func() {
		s.mockQueries.EXPECT().
			ListTickets(gomock.Any(), reservationID, s.buyerID).
			Return(nil, queries.ErrReservationNotFound).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodGet, url, nil, "bearer-token")
		httptest.AssertErrorResponse(s.T(), rec, http.StatusNotFound, "Reservation not found")
	})
}
