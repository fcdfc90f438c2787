package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/heblopez/postable-api/auth"
	"github.com/heblopez/postable-api/database"
	"github.com/heblopez/postable-api/models"
)

var validate = validator.New()

type SignupInput struct {
	Username  string
	Password  string
	Email     *string
	FirstName *string
	LastName  *string
	Role      string
}

// ProfileUpdate carries a partial profile change. Nil fields are left alone;
// an empty email clears it.
type ProfileUpdate struct {
	Email     *string
	FirstName *string
	LastName  *string
}

type UserService struct {
	store     database.Store
	passwords *auth.PasswordHasher
	tokens    *auth.TokenIssuer
	now       func() time.Time
}

func NewUserService(store database.Store, passwords *auth.PasswordHasher, tokens *auth.TokenIssuer) *UserService {
	return &UserService{
		store:     store,
		passwords: passwords,
		tokens:    tokens,
		now:       time.Now,
	}
}

func (s *UserService) Signup(ctx context.Context, in SignupInput) (*models.User, error) {
	username := strings.TrimSpace(in.Username)
	if err := validate.Var(username, "required,max=50"); err != nil {
		return nil, fail(ErrValidation, "Username must be 1-50 characters")
	}
	email, err := normalizeEmail(in.Email)
	if err != nil {
		return nil, err
	}

	// Friendly message for the common case; the unique index still decides.
	if _, err := s.store.UserByUsername(ctx, username); err == nil {
		return nil, fail(ErrDuplicate, "Username already exists!")
	} else if !errors.Is(err, database.ErrNotFound) {
		return nil, err
	}

	hashed, err := s.passwords.Hash(in.Password)
	if err != nil {
		return nil, fail(ErrValidation, "Invalid password: %v", err)
	}

	role := strings.TrimSpace(in.Role)
	if role == "" {
		role = models.DefaultRole
	}

	user := &models.User{
		Username:     username,
		PasswordHash: hashed,
		Email:        email,
		FirstName:    blankToNil(in.FirstName),
		LastName:     blankToNil(in.LastName),
		Role:         role,
		CreatedAt:    s.now().UTC(),
	}
	if err := s.store.CreateUser(ctx, user); err != nil {
		if errors.Is(err, database.ErrDuplicate) {
			return nil, fail(ErrDuplicate, "Username or email already exists")
		}
		return nil, err
	}
	return user, nil
}

// Login returns a signed token for valid credentials. Unknown usernames and
// wrong passwords produce the same error.
func (s *UserService) Login(ctx context.Context, username, password string) (string, error) {
	user, err := s.store.UserByUsername(ctx, strings.TrimSpace(username))
	if errors.Is(err, database.ErrNotFound) {
		return "", fail(ErrInvalidCredentials, "Invalid username or password")
	}
	if err != nil {
		return "", err
	}

	if !s.passwords.Verify(password, user.PasswordHash) {
		return "", fail(ErrInvalidCredentials, "Invalid username or password")
	}

	return s.tokens.Issue(user.ID, user.Username, user.Role)
}

func (s *UserService) Profile(ctx context.Context, userID uint) (*models.User, error) {
	user, err := s.store.UserByID(ctx, userID)
	if errors.Is(err, database.ErrNotFound) {
		return nil, fail(ErrNotFound, "User not found")
	}
	return user, err
}

func (s *UserService) UpdateProfile(ctx context.Context, userID uint, in ProfileUpdate) (*models.User, error) {
	user, err := s.Profile(ctx, userID)
	if err != nil {
		return nil, err
	}

	if in.Email != nil {
		email, err := normalizeEmail(in.Email)
		if err != nil {
			return nil, err
		}
		user.Email = email
	}
	if in.FirstName != nil {
		user.FirstName = blankToNil(in.FirstName)
	}
	if in.LastName != nil {
		user.LastName = blankToNil(in.LastName)
	}

	if err := s.store.UpdateUser(ctx, user); err != nil {
		switch {
		case errors.Is(err, database.ErrDuplicate):
			return nil, fail(ErrDuplicate, "Email already in use")
		case errors.Is(err, database.ErrNotFound):
			return nil, fail(ErrNotFound, "User not found")
		}
		return nil, err
	}
	return user, nil
}

// DeleteUser removes the account along with its posts and likes.
func (s *UserService) DeleteUser(ctx context.Context, userID uint) error {
	err := s.store.DeleteUser(ctx, userID)
	if errors.Is(err, database.ErrNotFound) {
		return fail(ErrNotFound, "User not found")
	}
	return err
}

func normalizeEmail(raw *string) (*string, error) {
	email := blankToNil(raw)
	if email == nil {
		return nil, nil
	}
	if err := validate.Var(*email, "email,max=256"); err != nil {
		return nil, fail(ErrValidation, "Invalid email address")
	}
	return email, nil
}

func blankToNil(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
