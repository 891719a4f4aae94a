// internal/auth/service.go
package auth

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"quiz-modes/internal/models"
)

const MinPasswordLength = 6

// UserRepository is the user half of the persistence collaborator. Lookups
// return (nil, nil) when there is no such user.
type UserRepository interface {
	FindUserByUsername(ctx context.Context, username string) (*models.User, error)
	FindUserByEmail(ctx context.Context, email string) (*models.User, error)
	FindUserByID(ctx context.Context, id uint) (*models.User, error)
	InsertUser(ctx context.Context, user *models.User) error
	UpdateUserPassword(ctx context.Context, id uint, hash string) error
	DeleteUser(ctx context.Context, id uint) error
}

type Service struct {
	repo   UserRepository
	hasher Hasher
	log    *logrus.Entry
}

func NewService(repo UserRepository, hasher Hasher, log *logrus.Entry) *Service {
	return &Service{
		repo:   repo,
		hasher: hasher,
		log:    log,
	}
}

type RegisterInput struct {
	Fullname        string
	Username        string
	Email           string
	Password        string
	ConfirmPassword string
}

// RegisterForm holds the field values to put back on a rejected form.
type RegisterForm struct {
	Fullname string
	Username string
	Email    string
}

// Retained returns what the form keeps after err. The field that caused a
// uniqueness failure is blanked so the user has to pick a new one.
func (in RegisterInput) Retained(err error) RegisterForm {
	form := RegisterForm{Fullname: in.Fullname, Username: in.Username, Email: in.Email}
	switch err {
	case ErrUsernameTaken:
		form.Username = ""
	case ErrEmailTaken:
		form.Email = ""
	}
	return form
}

// Register checks the form in a fixed order and stops at the first problem.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	if in.Fullname == "" || in.Username == "" || in.Email == "" || in.Password == "" || in.ConfirmPassword == "" {
		return nil, ErrFieldsRequired
	}
	if in.Password != in.ConfirmPassword {
		return nil, ErrPasswordMismatch
	}
	if len(in.Password) < MinPasswordLength {
		return nil, ErrPasswordTooShort
	}

	existing, err := s.repo.FindUserByUsername(ctx, in.Username)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrUsernameTaken
	}

	existing, err = s.repo.FindUserByEmail(ctx, in.Email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrEmailTaken
	}

	hashed, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &models.User{
		Fullname: in.Fullname,
		Username: in.Username,
		Email:    in.Email,
		Password: hashed,
	}
	if err := s.repo.InsertUser(ctx, user); err != nil {
		return nil, err
	}

	s.log.WithField("user_id", user.ID).Info("user registered")
	return user, nil
}

func (s *Service) Login(ctx context.Context, username, password string) (*models.User, error) {
	if username == "" || password == "" {
		return nil, ErrCredentialsRequired
	}

	user, err := s.repo.FindUserByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUnknownUsername
	}
	if !s.hasher.Verify(user.Password, password) {
		return nil, ErrIncorrectPassword
	}

	s.log.WithField("user_id", user.ID).Debug("user logged in")
	return user, nil
}

// ChangePassword verifies the current password, then requires the new one to
// be confirmed, long enough and actually different, in that order.
func (s *Service) ChangePassword(ctx context.Context, userID uint, current, next, confirm string) error {
	user, err := s.repo.FindUserByID(ctx, userID)
	if err != nil {
		return err
	}
	if user == nil {
		return ErrUserNotFound
	}

	if !s.hasher.Verify(user.Password, current) {
		return ErrIncorrectCurrentPassword
	}
	if next != confirm {
		return ErrPasswordMismatch
	}
	if len(next) < MinPasswordLength {
		return ErrPasswordTooShort
	}
	if next == current {
		return ErrPasswordUnchanged
	}

	hashed, err := s.hasher.Hash(next)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.repo.UpdateUserPassword(ctx, userID, hashed); err != nil {
		return err
	}

	s.log.WithField("user_id", userID).Info("password changed")
	return nil
}

func (s *Service) DeleteAccount(ctx context.Context, userID uint) error {
	if err := s.repo.DeleteUser(ctx, userID); err != nil {
		return err
	}
	s.log.WithField("user_id", userID).Info("account deleted")
	return nil
}

// Profile returns the user or ErrUserNotFound.
func (s *Service) Profile(ctx context.Context, userID uint) (*models.User, error) {
	user, err := s.repo.FindUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}
