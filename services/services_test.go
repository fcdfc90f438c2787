package services

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/heblopez/postable-api/auth"
	"github.com/heblopez/postable-api/database"
	"github.com/heblopez/postable-api/models"
)

type fixture struct {
	store  database.Store
	tokens *auth.TokenIssuer
	users  *UserService
	posts  *PostService
}

// tickingClock returns a clock that advances one second per call.
func tickingClock() func() time.Time {
	at := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	return func() time.Time {
		at = at.Add(time.Second)
		return at
	}
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store, err := database.OpenSQLite(filepath.Join(t.TempDir(), "services.db"), false)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	tokens := auth.NewTokenIssuer("test-secret", "postable-api", "postable-clients")
	users := NewUserService(store, &auth.PasswordHasher{Cost: bcrypt.MinCost}, tokens)
	users.now = tickingClock()
	posts := NewPostService(store)
	posts.now = tickingClock()

	return &fixture{store: store, tokens: tokens, users: users, posts: posts}
}

func strPtr(s string) *string { return &s }

func (f *fixture) signup(t *testing.T, username string) *models.User {
	t.Helper()
	u, err := f.users.Signup(context.Background(), SignupInput{Username: username, Password: "password1"})
	require.NoError(t, err)
	return u
}

func TestSignupHashesPassword(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	u, err := f.users.Signup(ctx, SignupInput{
		Username:  "alice",
		Password:  "pw123456",
		Email:     strPtr("alice@example.com"),
		FirstName: strPtr("Alice"),
	})
	require.NoError(t, err)

	assert.NotZero(t, u.ID)
	assert.Equal(t, models.DefaultRole, u.Role)
	assert.NotEqual(t, "pw123456", u.PasswordHash)

	stored, err := f.store.UserByID(ctx, u.ID)
	require.NoError(t, err)
	assert.True(t, auth.NewPasswordHasher().Verify("pw123456", stored.PasswordHash))
	assert.Nil(t, stored.LastName)
}

func TestSignupRejectsDuplicatesAndBadInput(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.users.Signup(ctx, SignupInput{Username: "alice", Password: "pw1pw1", Email: strPtr("a@example.com"), Role: "admin"})
	require.NoError(t, err)

	_, err = f.users.Signup(ctx, SignupInput{Username: "alice", Password: "pw2pw2"})
	assert.ErrorIs(t, err, ErrDuplicate)
	assert.Equal(t, "Username already exists!", err.Error())

	_, err = f.users.Signup(ctx, SignupInput{Username: "alice2", Password: "pw2pw2", Email: strPtr("a@example.com")})
	assert.ErrorIs(t, err, ErrDuplicate)

	_, err = f.users.Signup(ctx, SignupInput{Username: "carol", Password: "pw2pw2", Email: strPtr("not-an-email")})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = f.users.Signup(ctx, SignupInput{Username: strings.Repeat("x", 51), Password: "pw2pw2"})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = f.users.Signup(ctx, SignupInput{Username: "  ", Password: "pw2pw2"})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestLogin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	u, err := f.users.Signup(ctx, SignupInput{Username: "alice", Password: "pw1pw1", Role: "admin"})
	require.NoError(t, err)

	token, err := f.users.Login(ctx, "alice", "pw1pw1")
	require.NoError(t, err)

	claims, err := f.tokens.Verify(token)
	require.NoError(t, err)
	id, err := claims.UserID()
	require.NoError(t, err)
	assert.Equal(t, u.ID, id)
	assert.Equal(t, "alice", claims.Username)
	assert.Equal(t, "admin", claims.Role)

	_, wrongPassword := f.users.Login(ctx, "alice", "nope")
	_, unknownUser := f.users.Login(ctx, "nobody", "pw1pw1")
	assert.ErrorIs(t, wrongPassword, ErrInvalidCredentials)
	assert.ErrorIs(t, unknownUser, ErrInvalidCredentials)
	assert.Equal(t, wrongPassword.Error(), unknownUser.Error())
}

func TestUpdateProfileIsPartial(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	u, err := f.users.Signup(ctx, SignupInput{
		Username:  "alice",
		Password:  "pw1pw1",
		Email:     strPtr("alice@example.com"),
		FirstName: strPtr("Alice"),
		LastName:  strPtr("Liddell"),
	})
	require.NoError(t, err)
	f.signup(t, "bob")

	updated, err := f.users.UpdateProfile(ctx, u.ID, ProfileUpdate{FirstName: strPtr("Al")})
	require.NoError(t, err)
	assert.Equal(t, "Al", *updated.FirstName)
	assert.Equal(t, "Liddell", *updated.LastName)
	assert.Equal(t, "alice@example.com", *updated.Email)

	updated, err = f.users.UpdateProfile(ctx, u.ID, ProfileUpdate{Email: strPtr("")})
	require.NoError(t, err)
	assert.Nil(t, updated.Email)

	bob, err := f.store.UserByUsername(ctx, "bob")
	require.NoError(t, err)
	_, err = f.users.UpdateProfile(ctx, u.ID, ProfileUpdate{Email: strPtr("bob@example.com")})
	require.NoError(t, err)
	_, err = f.users.UpdateProfile(ctx, bob.ID, ProfileUpdate{Email: strPtr("bob@example.com")})
	assert.ErrorIs(t, err, ErrDuplicate)

	_, err = f.users.UpdateProfile(ctx, u.ID, ProfileUpdate{Email: strPtr("bad")})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = f.users.UpdateProfile(ctx, 9999, ProfileUpdate{})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCreateAndUpdatePost(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.signup(t, "alice")
	other := f.signup(t, "mallory")

	post, err := f.posts.CreatePost(ctx, owner.ID, "hi")
	require.NoError(t, err)
	assert.Equal(t, "hi", post.Content)
	assert.Equal(t, "alice", post.Username)
	assert.Zero(t, post.LikesCount)

	_, err = f.posts.CreatePost(ctx, owner.ID, strings.Repeat("é", models.MaxPostLength))
	require.NoError(t, err, "length counts characters, not bytes")
	_, err = f.posts.CreatePost(ctx, owner.ID, strings.Repeat("a", models.MaxPostLength+1))
	assert.ErrorIs(t, err, ErrValidation)
	_, err = f.posts.CreatePost(ctx, owner.ID, "")
	assert.ErrorIs(t, err, ErrValidation)
	_, err = f.posts.CreatePost(ctx, owner.ID, " \t\n ")
	assert.ErrorIs(t, err, ErrValidation)
	_, err = f.posts.CreatePost(ctx, 9999, "ghost")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = f.posts.UpdatePost(ctx, post.ID, other.ID, "hijacked")
	assert.ErrorIs(t, err, ErrForbidden)
	unchanged, err := f.posts.GetPost(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, "hi", unchanged.Content)

	updated, err := f.posts.UpdatePost(ctx, post.ID, owner.ID, "hello")
	require.NoError(t, err)
	assert.Equal(t, "hello", updated.Content)
	assert.True(t, post.CreatedAt.Equal(updated.CreatedAt))

	_, err = f.posts.UpdatePost(ctx, 9999, owner.ID, "x")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = f.posts.GetPost(ctx, 9999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLikeUnlikeRoundTrip(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.signup(t, "alice")
	bob := f.signup(t, "bob")

	post, err := f.posts.CreatePost(ctx, alice.ID, "hi")
	require.NoError(t, err)

	liked, err := f.posts.LikePost(ctx, post.ID, alice.ID)
	require.NoError(t, err, "self-like is allowed")
	assert.Equal(t, int64(1), liked.LikesCount)

	_, err = f.posts.LikePost(ctx, post.ID, alice.ID)
	assert.ErrorIs(t, err, ErrAlreadyLiked)

	liked, err = f.posts.LikePost(ctx, post.ID, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), liked.LikesCount)

	unliked, err := f.posts.UnlikePost(ctx, post.ID, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), unliked.LikesCount)

	_, err = f.posts.UnlikePost(ctx, post.ID, bob.ID)
	assert.ErrorIs(t, err, ErrNotLiked)

	_, err = f.posts.LikePost(ctx, 9999, bob.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = f.posts.UnlikePost(ctx, 9999, bob.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListPosts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.signup(t, "alice")
	bob := f.signup(t, "bob")

	first, err := f.posts.CreatePost(ctx, alice.ID, "first")
	require.NoError(t, err)
	second, err := f.posts.CreatePost(ctx, bob.ID, "second")
	require.NoError(t, err)
	_, err = f.posts.LikePost(ctx, second.ID, alice.ID)
	require.NoError(t, err)

	posts, err := f.posts.ListPosts(ctx, ListPostsInput{})
	require.NoError(t, err)
	require.Len(t, posts, 2)
	assert.Equal(t, first.ID, posts[0].ID)

	posts, err = f.posts.ListPosts(ctx, ListPostsInput{Order: "DESC"})
	require.NoError(t, err)
	assert.Equal(t, second.ID, posts[0].ID)

	posts, err = f.posts.ListPosts(ctx, ListPostsInput{OrderBy: "likesCount", Order: "desc"})
	require.NoError(t, err)
	assert.Equal(t, second.ID, posts[0].ID)
	assert.Equal(t, int64(1), posts[0].LikesCount)

	posts, err = f.posts.ListPosts(ctx, ListPostsInput{OrderBy: "bogus"})
	require.NoError(t, err)
	assert.Equal(t, first.ID, posts[0].ID)

	posts, err = f.posts.ListPosts(ctx, ListPostsInput{Username: "bob"})
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, "bob", posts[0].Username)
}

func TestDeleteUserCascades(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.signup(t, "alice")
	bob := f.signup(t, "bob")

	alicePost, err := f.posts.CreatePost(ctx, alice.ID, "mine")
	require.NoError(t, err)
	bobPost, err := f.posts.CreatePost(ctx, bob.ID, "his")
	require.NoError(t, err)
	_, err = f.posts.LikePost(ctx, alicePost.ID, bob.ID)
	require.NoError(t, err)
	_, err = f.posts.LikePost(ctx, bobPost.ID, alice.ID)
	require.NoError(t, err)

	require.NoError(t, f.users.DeleteUser(ctx, alice.ID))

	_, err = f.posts.GetPost(ctx, alicePost.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	remaining, err := f.posts.GetPost(ctx, bobPost.ID)
	require.NoError(t, err)
	assert.Zero(t, remaining.LikesCount)

	_, err = f.users.Profile(ctx, alice.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, f.users.DeleteUser(ctx, alice.ID), ErrNotFound)
	_, err = f.posts.LikePost(ctx, bobPost.ID, alice.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}
