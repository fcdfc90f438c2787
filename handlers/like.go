package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (h *Handler) LikePost(c *gin.Context) {
	postID, ok := postIDParam(c)
	if !ok {
		return
	}

	post, err := h.Posts.LikePost(c.Request.Context(), postID, currentUserID(c))
	if err != nil {
		respondError(c, "LikePost", err)
		return
	}
	c.JSON(http.StatusOK, post)
}

func (h *Handler) UnlikePost(c *gin.Context) {
	postID, ok := postIDParam(c)
	if !ok {
		return
	}

	post, err := h.Posts.UnlikePost(c.Request.Context(), postID, currentUserID(c))
	if err != nil {
		respondError(c, "UnlikePost", err)
		return
	}
	c.JSON(http.StatusOK, post)
}
