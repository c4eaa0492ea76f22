package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"interview-service/internal/api/middleware"
	"interview-service/internal/models"
	"interview-service/internal/services"
)

type FriendHandler struct {
	friendService *services.FriendService
}

func NewFriendHandler(friendService *services.FriendService) *FriendHandler {
	return &FriendHandler{friendService: friendService}
}

func (h *FriendHandler) AddFriend(c *gin.Context) {
	userID := middleware.CurrentUserID(c)

	var req models.AddFriendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Code:    http.StatusBadRequest,
			Message: "Invalid input data",
			Details: err.Error(),
		})
		return
	}

	err := h.friendService.AddFriend(c.Request.Context(), userID, req.FriendID)
	switch {
	case errors.Is(err, services.ErrSelfFriend):
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Code:    http.StatusBadRequest,
			Message: "Cannot add yourself as a friend",
		})
	case errors.Is(err, services.ErrUserNotFound):
		c.JSON(http.StatusNotFound, models.ErrorResponse{
			Code:    http.StatusNotFound,
			Message: "User not found",
		})
	case errors.Is(err, services.ErrAlreadyFriends):
		c.JSON(http.StatusConflict, models.ErrorResponse{
			Code:    http.StatusConflict,
			Message: "Already friends",
		})
	case err != nil:
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Code:    http.StatusInternalServerError,
			Message: "Failed to add friend",
		})
	default:
		c.Status(http.StatusCreated)
	}
}

func (h *FriendHandler) RemoveFriend(c *gin.Context) {
	userID := middleware.CurrentUserID(c)
	friendID := c.Param("id")

	if err := h.friendService.RemoveFriend(c.Request.Context(), userID, friendID); err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Code:    http.StatusInternalServerError,
			Message: "Failed to remove friend",
		})
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *FriendHandler) ListFriends(c *gin.Context) {
	userID := middleware.CurrentUserID(c)

	friends, err := h.friendService.ListFriends(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Code:    http.StatusInternalServerError,
			Message: "Failed to list friends",
		})
		return
	}

	c.JSON(http.StatusOK, friends)
}
