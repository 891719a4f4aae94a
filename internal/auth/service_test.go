package auth

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"quiz-modes/internal/models"
)

type memoryUsers struct {
	users  map[uint]*models.User
	nextID uint
	err    error
}

func newMemoryUsers() *memoryUsers {
	return &memoryUsers{users: map[uint]*models.User{}, nextID: 1}
}

func (m *memoryUsers) find(match func(*models.User) bool) (*models.User, error) {
	if m.err != nil {
		return nil, m.err
	}
	for _, u := range m.users {
		if match(u) {
			copied := *u
			return &copied, nil
		}
	}
	return nil, nil
}

func (m *memoryUsers) FindUserByUsername(_ context.Context, username string) (*models.User, error) {
	return m.find(func(u *models.User) bool { return u.Username == username })
}

func (m *memoryUsers) FindUserByEmail(_ context.Context, email string) (*models.User, error) {
	return m.find(func(u *models.User) bool { return u.Email == email })
}

func (m *memoryUsers) FindUserByID(_ context.Context, id uint) (*models.User, error) {
	return m.find(func(u *models.User) bool { return u.ID == id })
}

func (m *memoryUsers) InsertUser(_ context.Context, user *models.User) error {
	if m.err != nil {
		return m.err
	}
	user.ID = m.nextID
	m.nextID++
	copied := *user
	m.users[user.ID] = &copied
	return nil
}

func (m *memoryUsers) UpdateUserPassword(_ context.Context, id uint, hash string) error {
	if m.err != nil {
		return m.err
	}
	if u, ok := m.users[id]; ok {
		u.Password = hash
	}
	return nil
}

func (m *memoryUsers) DeleteUser(_ context.Context, id uint) error {
	if m.err != nil {
		return m.err
	}
	delete(m.users, id)
	return nil
}

func newTestService() (*Service, *memoryUsers) {
	repo := newMemoryUsers()
	log := logrus.NewEntry(logrus.New())
	return NewService(repo, BcryptHasher{Cost: bcrypt.MinCost}, log), repo
}

func validInput() RegisterInput {
	return RegisterInput{
		Fullname:        "Ann Lee",
		Username:        "ann",
		Email:           "ann@example.com",
		Password:        "secret1",
		ConfirmPassword: "secret1",
	}
}

func TestService_Register(t *testing.T) {
	ctx := context.Background()

	t.Run("stores a hash, never the plaintext", func(t *testing.T) {
		svc, repo := newTestService()

		user, err := svc.Register(ctx, validInput())
		require.NoError(t, err)

		stored := repo.users[user.ID]
		assert.NotEqual(t, "secret1", stored.Password)
		assert.True(t, BcryptHasher{}.Verify(stored.Password, "secret1"))
	})

	t.Run("password longer than bcrypt's 72 bytes", func(t *testing.T) {
		svc, _ := newTestService()
		long := strings.Repeat("p", 80)
		in := validInput()
		in.Password, in.ConfirmPassword = long, long

		_, err := svc.Register(ctx, in)
		require.NoError(t, err)

		_, err = svc.Login(ctx, "ann", long)
		assert.NoError(t, err)
		_, err = svc.Login(ctx, "ann", long[:72])
		assert.ErrorIs(t, err, ErrIncorrectPassword)
	})

	t.Run("validation order, first failure wins", func(t *testing.T) {
		cases := []struct {
			name   string
			mutate func(*RegisterInput)
			want   error
		}{
			{"empty field", func(in *RegisterInput) { in.Email = ""; in.ConfirmPassword = "x" }, ErrFieldsRequired},
			{"mismatch before length", func(in *RegisterInput) { in.Password = "a"; in.ConfirmPassword = "b" }, ErrPasswordMismatch},
			{"too short", func(in *RegisterInput) { in.Password = "abc"; in.ConfirmPassword = "abc" }, ErrPasswordTooShort},
		}
		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				svc, repo := newTestService()
				in := validInput()
				tc.mutate(&in)

				_, err := svc.Register(ctx, in)
				assert.ErrorIs(t, err, tc.want)
				assert.Empty(t, repo.users)
			})
		}
	})

	t.Run("duplicate username then email", func(t *testing.T) {
		svc, _ := newTestService()
		_, err := svc.Register(ctx, validInput())
		require.NoError(t, err)

		_, err = svc.Register(ctx, validInput())
		assert.ErrorIs(t, err, ErrUsernameTaken)

		other := validInput()
		other.Username = "ann2"
		_, err = svc.Register(ctx, other)
		assert.ErrorIs(t, err, ErrEmailTaken)
	})

	t.Run("storage failure is not a validation error", func(t *testing.T) {
		svc, repo := newTestService()
		repo.err = errors.New("disk full")

		_, err := svc.Register(ctx, validInput())
		require.Error(t, err)
		assert.False(t, IsValidation(err))
	})
}

func TestRegisterInput_Retained(t *testing.T) {
	in := validInput()

	assert.Equal(t, RegisterForm{Fullname: "Ann Lee", Username: "ann", Email: "ann@example.com"}, in.Retained(ErrPasswordMismatch))
	assert.Equal(t, RegisterForm{Fullname: "Ann Lee", Email: "ann@example.com"}, in.Retained(ErrUsernameTaken))
	assert.Equal(t, RegisterForm{Fullname: "Ann Lee", Username: "ann"}, in.Retained(ErrEmailTaken))
}

func TestService_Login(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService()
	registered, err := svc.Register(ctx, validInput())
	require.NoError(t, err)

	_, err = svc.Login(ctx, "", "secret1")
	assert.ErrorIs(t, err, ErrCredentialsRequired)

	_, err = svc.Login(ctx, "nobody", "secret1")
	assert.ErrorIs(t, err, ErrUnknownUsername)
	assert.NotErrorIs(t, err, ErrIncorrectPassword)

	_, err = svc.Login(ctx, "ann", "wrong-password")
	assert.ErrorIs(t, err, ErrIncorrectPassword)
	assert.NotErrorIs(t, err, ErrUnknownUsername)

	user, err := svc.Login(ctx, "ann", "secret1")
	require.NoError(t, err)
	assert.Equal(t, registered.ID, user.ID)
}

func TestService_ChangePassword(t *testing.T) {
	ctx := context.Background()

	cases := []struct {
		name                   string
		current, next, confirm string
		want                   error
	}{
		{"wrong current", "nope", "newpass1", "newpass1", ErrIncorrectCurrentPassword},
		{"mismatch", "secret1", "newpass1", "newpass2", ErrPasswordMismatch},
		{"too short", "secret1", "abc", "abc", ErrPasswordTooShort},
		{"unchanged", "secret1", "secret1", "secret1", ErrPasswordUnchanged},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc, repo := newTestService()
			user, err := svc.Register(ctx, validInput())
			require.NoError(t, err)
			before := repo.users[user.ID].Password

			err = svc.ChangePassword(ctx, user.ID, tc.current, tc.next, tc.confirm)
			assert.ErrorIs(t, err, tc.want)
			assert.Equal(t, before, repo.users[user.ID].Password)
		})
	}

	t.Run("success rehashes", func(t *testing.T) {
		svc, repo := newTestService()
		user, err := svc.Register(ctx, validInput())
		require.NoError(t, err)

		require.NoError(t, svc.ChangePassword(ctx, user.ID, "secret1", "newpass1", "newpass1"))
		assert.NotEqual(t, "newpass1", repo.users[user.ID].Password)

		_, err = svc.Login(ctx, "ann", "newpass1")
		assert.NoError(t, err)
		_, err = svc.Login(ctx, "ann", "secret1")
		assert.ErrorIs(t, err, ErrIncorrectPassword)
	})

	t.Run("new password longer than bcrypt's 72 bytes", func(t *testing.T) {
		svc, _ := newTestService()
		_, err := svc.Register(ctx, validInput())
		require.NoError(t, err)
		user, err := svc.Login(ctx, "ann", "secret1")
		require.NoError(t, err)

		long := strings.Repeat("n", 80)
		require.NoError(t, svc.ChangePassword(ctx, user.ID, "secret1", long, long))

		_, err = svc.Login(ctx, "ann", long)
		assert.NoError(t, err)
	})

	t.Run("deleted user", func(t *testing.T) {
		svc, _ := newTestService()
		err := svc.ChangePassword(ctx, 42, "a", "b", "b")
		assert.ErrorIs(t, err, ErrUserNotFound)
	})
}

func TestService_DeleteAndProfile(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService()
	user, err := svc.Register(ctx, validInput())
	require.NoError(t, err)

	profile, err := svc.Profile(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "ann@example.com", profile.Email)

	require.NoError(t, svc.DeleteAccount(ctx, user.ID))
	_, err = svc.Profile(ctx, user.ID)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestMessage(t *testing.T) {
	assert.Equal(t, "Username already exists.", Message(ErrUsernameTaken))
	assert.Equal(t, "Incorrect password.", Message(ErrIncorrectPassword))
	assert.Equal(t, "", Message(errors.New("boom")))
	assert.True(t, IsValidation(ErrFieldsRequired))
	assert.False(t, IsValidation(ErrUserNotFound))
}
