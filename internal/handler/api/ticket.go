package api

import (
	"errors"
	"net/http"

	reqdto "ticketgate/internal/handler/dto/request"
	resdto "ticketgate/internal/handler/dto/response"
	"ticketgate/internal/handler/httperr"
	"ticketgate/internal/handler/middleware"
	"ticketgate/internal/usecase/commands"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type TicketHandler struct {
	credentialCommands commands.CredentialCommands
}

func NewTicketHandler(credentialCommands commands.CredentialCommands) *TicketHandler {
	return &TicketHandler{
		credentialCommands: credentialCommands,
	}
}

// @Summary Issue credential
// @Description Mint a presentable QR credential for an owned active ticket
// @Tags tickets
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Ticket ID"
// @Param request body reqdto.IssueCredentialRequest true "Credential request"
// @Success 200 {object} resdto.CredentialResponse
// @Failure 400 {object} map[string]string
// @Failure 401 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /tickets/{id}/credential [post]
func (h *TicketHandler) IssueCredential(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Internal server error",
		})
		return
	}

	ticketID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid ticket ID format",
		})
		return
	}

	var req reqdto.IssueCredentialRequest
	if bindErr := c.ShouldBindJSON(&req); bindErr != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request format",
		})
		return
	}

	cred, err := h.credentialCommands.Issue(c.Request.Context(), ticketID, userID, req.CredentialMode())
	if err != nil {
		switch {
		case errors.Is(err, commands.ErrTicketNotFound):
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Ticket not found",
			})
		case errors.Is(err, commands.ErrNotTicketOwner):
			// Hidden as not-found to avoid leaking ticket ids.
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Ticket not found",
			})
		case errors.Is(err, commands.ErrTicketNotActive):
			c.JSON(http.StatusConflict, gin.H{
				"error": "Ticket is not active",
			})
		default:
			httperr.AbortWithError(c, http.StatusInternalServerError, err, "Internal server error")
		}
		return
	}

	c.JSON(http.StatusOK, resdto.FromIssuedCredential(cred))
}
