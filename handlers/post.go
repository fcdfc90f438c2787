package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/heblopez/postable-api/services"
)

type PostContentRequest struct {
	Content string `json:"content" binding:"required,max=480"`
}

func (h *Handler) ListPosts(c *gin.Context) {
	posts, err := h.Posts.ListPosts(c.Request.Context(), services.ListPostsInput{
		Username: c.Query("username"),
		OrderBy:  c.Query("orderBy"),
		Order:    c.Query("order"),
	})
	if err != nil {
		respondError(c, "ListPosts", err)
		return
	}
	c.JSON(http.StatusOK, posts)
}

func (h *Handler) GetPost(c *gin.Context) {
	postID, ok := postIDParam(c)
	if !ok {
		return
	}

	post, err := h.Posts.GetPost(c.Request.Context(), postID)
	if err != nil {
		respondError(c, "GetPost", err)
		return
	}
	c.JSON(http.StatusOK, post)
}

func (h *Handler) CreatePost(c *gin.Context) {
	var req PostContentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	post, err := h.Posts.CreatePost(c.Request.Context(), currentUserID(c), req.Content)
	if err != nil {
		respondError(c, "CreatePost", err)
		return
	}
	c.JSON(http.StatusCreated, post)
}

func (h *Handler) UpdatePost(c *gin.Context) {
	postID, ok := postIDParam(c)
	if !ok {
		return
	}

	var req PostContentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	post, err := h.Posts.UpdatePost(c.Request.Context(), postID, currentUserID(c), req.Content)
	if err != nil {
		respondError(c, "UpdatePost", err)
		return
	}
	c.JSON(http.StatusOK, post)
}
