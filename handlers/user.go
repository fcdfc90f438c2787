package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/heblopez/postable-api/services"
)

type UpdateProfileRequest struct {
	Email     *string `json:"email" binding:"omitempty,max=256"`
	FirstName *string `json:"firstName" binding:"omitempty,max=50"`
	LastName  *string `json:"lastName" binding:"omitempty,max=50"`
}

func (h *Handler) GetMyProfile(c *gin.Context) {
	user, err := h.Users.Profile(c.Request.Context(), currentUserID(c))
	if err != nil {
		respondError(c, "GetMyProfile", err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *Handler) UpdateMyProfile(c *gin.Context) {
	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.Users.UpdateProfile(c.Request.Context(), currentUserID(c), services.ProfileUpdate{
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	})
	if err != nil {
		respondError(c, "UpdateMyProfile", err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *Handler) DeleteMyAccount(c *gin.Context) {
	if err := h.Users.DeleteUser(c.Request.Context(), currentUserID(c)); err != nil {
		respondError(c, "DeleteMyAccount", err)
		return
	}
	c.Status(http.StatusNoContent)
}
