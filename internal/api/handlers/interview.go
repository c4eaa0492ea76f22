package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"interview-service/internal/api/middleware"
	"interview-service/internal/models"
	"interview-service/internal/services"
)

type InterviewHandler struct {
	interviewService *services.InterviewService
}

func NewInterviewHandler(interviewService *services.InterviewService) *InterviewHandler {
	return &InterviewHandler{interviewService: interviewService}
}

func (h *InterviewHandler) Create(c *gin.Context) {
	userID := middleware.CurrentUserID(c)

	var req models.CreateInterviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Code:    http.StatusBadRequest,
			Message: "Invalid input data",
			Details: err.Error(),
		})
		return
	}

	interview, err := h.interviewService.Create(c.Request.Context(), userID, &req)
	if err != nil {
		h.writeError(c, err, "Failed to create interview")
		return
	}

	c.JSON(http.StatusCreated, interview)
}

func (h *InterviewHandler) List(c *gin.Context) {
	userID := middleware.CurrentUserID(c)

	interviews, err := h.interviewService.ListForUser(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Code:    http.StatusInternalServerError,
			Message: "Failed to list interviews",
		})
		return
	}

	c.JSON(http.StatusOK, interviews)
}

// Get returns the full interview including the current collaborative
// document state, so a reconnecting client can restore its editor.
func (h *InterviewHandler) Get(c *gin.Context) {
	userID := middleware.CurrentUserID(c)

	interview, err := h.interviewService.Get(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		h.writeError(c, err, "Failed to fetch interview")
		return
	}

	c.JSON(http.StatusOK, interview)
}

func (h *InterviewHandler) Start(c *gin.Context) {
	userID := middleware.CurrentUserID(c)

	interview, err := h.interviewService.Start(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		h.writeError(c, err, "Failed to start interview")
		return
	}

	c.JSON(http.StatusOK, interview)
}

func (h *InterviewHandler) End(c *gin.Context) {
	userID := middleware.CurrentUserID(c)

	interview, err := h.interviewService.End(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		h.writeError(c, err, "Failed to end interview")
		return
	}

	c.JSON(http.StatusOK, interview)
}

func (h *InterviewHandler) Delete(c *gin.Context) {
	userID := middleware.CurrentUserID(c)

	if err := h.interviewService.Delete(c.Request.Context(), c.Param("id"), userID); err != nil {
		h.writeError(c, err, "Failed to delete interview")
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *InterviewHandler) writeError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, services.ErrInterviewNotFound):
		c.JSON(http.StatusNotFound, models.ErrorResponse{
			Code:    http.StatusNotFound,
			Message: "Interview not found",
		})
	case errors.Is(err, services.ErrNotAParticipant):
		c.JSON(http.StatusForbidden, models.ErrorResponse{
			Code:    http.StatusForbidden,
			Message: "You are not a participant of this interview",
		})
	case errors.Is(err, services.ErrInterviewerOnly):
		c.JSON(http.StatusForbidden, models.ErrorResponse{
			Code:    http.StatusForbidden,
			Message: "Only interviewers can perform this action",
		})
	case errors.Is(err, services.ErrInterviewFinished):
		c.JSON(http.StatusConflict, models.ErrorResponse{
			Code:    http.StatusConflict,
			Message: "Interview already finished",
		})
	case errors.Is(err, services.ErrUserNotFound):
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Code:    http.StatusBadRequest,
			Message: "Unknown participant",
		})
	default:
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Code:    http.StatusInternalServerError,
			Message: fallback,
		})
	}
}
