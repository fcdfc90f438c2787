package handlers

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/heblopez/postable-api/middleware"
	"github.com/heblopez/postable-api/services"
)

// Handler groups the HTTP endpoints and the services they call.
type Handler struct {
	Users *services.UserService
	Posts *services.PostService
}

func New(users *services.UserService, posts *services.PostService) *Handler {
	return &Handler{Users: users, Posts: posts}
}

// respondError maps service errors onto status codes. Anything unclassified
// is logged under op and reported as a 500.
func respondError(c *gin.Context, op string, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, services.ErrValidation),
		errors.Is(err, services.ErrDuplicate),
		errors.Is(err, services.ErrAlreadyLiked),
		errors.Is(err, services.ErrNotLiked):
		status = http.StatusBadRequest
	case errors.Is(err, services.ErrInvalidCredentials),
		errors.Is(err, services.ErrUnauthorized):
		status = http.StatusUnauthorized
	case errors.Is(err, services.ErrForbidden):
		status = http.StatusForbidden
	case errors.Is(err, services.ErrNotFound):
		status = http.StatusNotFound
	}

	if status == http.StatusInternalServerError {
		log.Printf("[%s] error: %v", op, err)
		c.JSON(status, gin.H{"error": "Internal server error"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func postIDParam(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Post not found"})
		return 0, false
	}
	return uint(id), true
}

// currentUserID is only called behind middleware.RequireAuth.
func currentUserID(c *gin.Context) uint {
	return middleware.CurrentIdentity(c).UserID
}
