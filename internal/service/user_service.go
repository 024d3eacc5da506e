package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"

	"liggs/internal/domain"
	"liggs/internal/repository"
)

var (
	// ErrInvalidCredentials indicates that provided login credentials are incorrect.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUserAlreadyExists is returned when attempting to register with an existing username.
	ErrUserAlreadyExists = errors.New("username already taken")
	// ErrUserNotFound is returned when a user id has no stored account.
	ErrUserNotFound = errors.New("user not found")
)

// ValidationError reports input that was rejected before touching storage.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// UserService describes user lifecycle operations.
type UserService interface {
	Register(ctx context.Context, username, password string) (*domain.User, error)
	Authenticate(ctx context.Context, username, password string) (*domain.User, error)
	GetByID(ctx context.Context, id int64) (*domain.User, error)
}

type credentials struct {
	Username string `validate:"required"`
	Password string `validate:"required,min=4"`
}

type userService struct {
	users    repository.UserRepository
	validate *validator.Validate
	cost     int
}

// NewUserService builds a UserService hashing passwords with bcrypt at the
// given cost. Out-of-range costs fall back to bcrypt.DefaultCost.
func NewUserService(users repository.UserRepository, bcryptCost int) UserService {
	if bcryptCost < bcrypt.MinCost || bcryptCost > bcrypt.MaxCost {
		bcryptCost = bcrypt.DefaultCost
	}
	return &userService{
		users:    users,
		validate: validator.New(),
		cost:     bcryptCost,
	}
}

// Register trims the username but keeps the password verbatim.
func (s *userService) Register(ctx context.Context, username, password string) (*domain.User, error) {
	creds := credentials{
		Username: strings.TrimSpace(username),
		Password: password,
	}
	if err := s.validate.Struct(creds); err != nil {
		return nil, fromValidationError(err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(creds.Password), s.cost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return nil, &ValidationError{Message: "Password must be at most 72 bytes"}
		}
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &domain.User{
		Username:     creds.Username,
		PasswordHash: string(hash),
	}

	if _, err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrUsernameTaken) {
			return nil, ErrUserAlreadyExists
		}
		return nil, err
	}

	return sanitizeUser(user), nil
}

func (s *userService) Authenticate(ctx context.Context, username, password string) (*domain.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return sanitizeUser(user), nil
}

func (s *userService) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return sanitizeUser(user), nil
}

// fromValidationError folds field errors into the single message the API
// reports. A missing field wins over a short password.
func fromValidationError(err error) error {
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return fmt.Errorf("validate credentials: %w", err)
	}

	msg := ""
	for _, fe := range ve {
		switch fe.Tag() {
		case "required":
			return &ValidationError{Message: "Username and password required"}
		case "min":
			msg = "Password must be at least " + fe.Param() + " characters"
		}
	}
	if msg == "" {
		msg = "Invalid credentials format"
	}
	return &ValidationError{Message: msg}
}

func sanitizeUser(user *domain.User) *domain.User {
	if user == nil {
		return nil
	}
	return &domain.User{
		ID:        user.ID,
		Username:  user.Username,
		CreatedAt: user.CreatedAt,
	}
}
