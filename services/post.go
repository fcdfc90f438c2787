package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/heblopez/postable-api/database"
	"github.com/heblopez/postable-api/models"
)

type ListPostsInput struct {
	Username string
	OrderBy  string
	Order    string
}

type PostService struct {
	store database.Store
	now   func() time.Time
}

func NewPostService(store database.Store) *PostService {
	return &PostService{store: store, now: time.Now}
}

func validateContent(content string) error {
	if strings.TrimSpace(content) == "" || validate.Var(content, "max=480") != nil {
		return fail(ErrValidation, "Content is required and must be at most %d characters", models.MaxPostLength)
	}
	return nil
}

func (s *PostService) CreatePost(ctx context.Context, ownerID uint, content string) (*models.PostView, error) {
	if err := validateContent(content); err != nil {
		return nil, err
	}
	if err := s.requireUser(ctx, ownerID); err != nil {
		return nil, err
	}

	post := &models.Post{
		UserID:    ownerID,
		Content:   content,
		CreatedAt: s.now().UTC(),
	}
	if err := s.store.CreatePost(ctx, post); err != nil {
		return nil, err
	}
	return s.GetPost(ctx, post.ID)
}

// UpdatePost replaces the content of a post owned by requesterID. The owner
// and creation time never change.
func (s *PostService) UpdatePost(ctx context.Context, postID, requesterID uint, content string) (*models.PostView, error) {
	if err := validateContent(content); err != nil {
		return nil, err
	}

	post, err := s.findPost(ctx, postID)
	if err != nil {
		return nil, err
	}
	if post.UserID != requesterID {
		return nil, fail(ErrForbidden, "You can only edit your own posts")
	}

	if err := s.store.UpdatePostContent(ctx, postID, content); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, fail(ErrNotFound, "Post not found")
		}
		return nil, err
	}
	return s.GetPost(ctx, postID)
}

func (s *PostService) GetPost(ctx context.Context, postID uint) (*models.PostView, error) {
	view, err := s.store.PostView(ctx, postID)
	if errors.Is(err, database.ErrNotFound) {
		return nil, fail(ErrNotFound, "Post not found")
	}
	return view, err
}

// ListPosts defaults to createdAt ascending. Unknown sort keys fall back to
// createdAt and the order is matched case-insensitively.
func (s *PostService) ListPosts(ctx context.Context, in ListPostsInput) ([]models.PostView, error) {
	query := models.PostQuery{
		Username: in.Username,
		OrderBy:  models.SortByCreatedAt,
		Desc:     strings.EqualFold(in.Order, "desc"),
	}
	if in.OrderBy == string(models.SortByLikesCount) {
		query.OrderBy = models.SortByLikesCount
	}
	return s.store.ListPosts(ctx, query)
}

// LikePost records a like. The existence check only gives a nicer error; the
// store's unique index on (post, user) is what guarantees a single like.
func (s *PostService) LikePost(ctx context.Context, postID, userID uint) (*models.PostView, error) {
	if _, err := s.findPost(ctx, postID); err != nil {
		return nil, err
	}
	if err := s.requireUser(ctx, userID); err != nil {
		return nil, err
	}

	liked, err := s.store.LikeExists(ctx, postID, userID)
	if err != nil {
		return nil, err
	}
	if liked {
		return nil, fail(ErrAlreadyLiked, "You already liked this post")
	}

	like := &models.Like{PostID: postID, UserID: userID, CreatedAt: s.now().UTC()}
	if err := s.store.CreateLike(ctx, like); err != nil {
		if errors.Is(err, database.ErrDuplicate) {
			return nil, fail(ErrAlreadyLiked, "You already liked this post")
		}
		return nil, err
	}
	return s.GetPost(ctx, postID)
}

func (s *PostService) UnlikePost(ctx context.Context, postID, userID uint) (*models.PostView, error) {
	if _, err := s.findPost(ctx, postID); err != nil {
		return nil, err
	}

	removed, err := s.store.DeleteLike(ctx, postID, userID)
	if err != nil {
		return nil, err
	}
	if !removed {
		return nil, fail(ErrNotLiked, "You have not liked this post")
	}
	return s.GetPost(ctx, postID)
}

func (s *PostService) findPost(ctx context.Context, postID uint) (*models.Post, error) {
	post, err := s.store.PostByID(ctx, postID)
	if errors.Is(err, database.ErrNotFound) {
		return nil, fail(ErrNotFound, "Post not found")
	}
	return post, err
}

// requireUser guards writes made with a token whose account has since been
// deleted.
func (s *PostService) requireUser(ctx context.Context, userID uint) error {
	_, err := s.store.UserByID(ctx, userID)
	if errors.Is(err, database.ErrNotFound) {
		return fail(ErrNotFound, "User not found")
	}
	return err
}
