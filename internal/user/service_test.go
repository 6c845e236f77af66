package user

import (
	"context"
	"testing"

	"canteen-be/internal/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) Create(ctx context.Context, u *User) error {
	args := m.Called(ctx, u)
	return args.Error(0)
}

func (m *MockRepository) FindByEmail(ctx context.Context, email string) (*User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*User), args.Error(1)
}

func (m *MockRepository) FindByID(ctx context.Context, id string) (*User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*User), args.Error(1)
}

func newTestService(repo Repository) (Service, *TokenManager) {
	tokens := NewTokenManager("test-secret")
	return NewService(repo, tokens), tokens
}

func TestRegister(t *testing.T) {
	input := RegisterInput{Name: "Test User", Email: "user@canteen.com", Password: "user123"}

	t.Run("Success", func(t *testing.T) {
		repo := new(MockRepository)
		svc, tokens := newTestService(repo)

		repo.On("FindByEmail", mock.Anything, "user@canteen.com").Return(nil, ErrUserNotFound)
		repo.On("Create", mock.Anything, mock.AnythingOfType("*user.User")).Return(nil)

		token, u, err := svc.Register(context.Background(), input)

		require.NoError(t, err)
		assert.NotEmpty(t, u.ID)
		assert.Equal(t, utils.RoleUser, u.Role)
		assert.NotEqual(t, "user123", u.Password)
		assert.True(t, CheckPasswordHash("user123", u.Password))

		claims, err := tokens.Parse(token)
		require.NoError(t, err)
		assert.Equal(t, u.ID, claims.UserID)
		repo.AssertExpectations(t)
	})

	t.Run("NormalizesEmail", func(t *testing.T) {
		repo := new(MockRepository)
		svc, _ := newTestService(repo)

		repo.On("FindByEmail", mock.Anything, "user@canteen.com").Return(nil, ErrUserNotFound)
		repo.On("Create", mock.Anything, mock.AnythingOfType("*user.User")).Return(nil)

		_, u, err := svc.Register(context.Background(), RegisterInput{
			Name: "  Test User  ", Email: " User@Canteen.COM ", Password: "user123",
		})

		require.NoError(t, err)
		assert.Equal(t, "user@canteen.com", u.Email)
		assert.Equal(t, "Test User", u.Name)
	})

	t.Run("EmailTaken", func(t *testing.T) {
		repo := new(MockRepository)
		svc, _ := newTestService(repo)

		repo.On("FindByEmail", mock.Anything, "user@canteen.com").
			Return(&User{ID: "user-1", Email: "user@canteen.com"}, nil)

		_, _, err := svc.Register(context.Background(), input)
		assert.ErrorIs(t, err, ErrEmailExists)
		repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("MissingFields", func(t *testing.T) {
		repo := new(MockRepository)
		svc, _ := newTestService(repo)

		for _, in := range []RegisterInput{
			{Email: "user@canteen.com", Password: "user123"},
			{Name: "Test User", Password: "user123"},
			{Name: "Test User", Email: "user@canteen.com"},
		} {
			_, _, err := svc.Register(context.Background(), in)
			assert.ErrorIs(t, err, ErrMissingFields)
		}
	})

	t.Run("PasswordTooShort", func(t *testing.T) {
		repo := new(MockRepository)
		svc, _ := newTestService(repo)

		_, _, err := svc.Register(context.Background(), RegisterInput{
			Name: "Test User", Email: "user@canteen.com", Password: "12345",
		})
		assert.ErrorIs(t, err, ErrPasswordTooShort)
	})
}

func TestLogin(t *testing.T) {
	hashed, _ := HashPassword("user123")
	stored := &User{ID: "user-1", Email: "user@canteen.com", Password: hashed, Role: utils.RoleUser}

	t.Run("Success", func(t *testing.T) {
		repo := new(MockRepository)
		svc, tokens := newTestService(repo)

		repo.On("FindByEmail", mock.Anything, "user@canteen.com").Return(stored, nil)

		token, u, err := svc.Login(context.Background(), LoginInput{
			Email: "user@canteen.com", Password: "user123",
		})

		require.NoError(t, err)
		assert.Equal(t, "user-1", u.ID)

		claims, err := tokens.Parse(token)
		require.NoError(t, err)
		assert.Equal(t, "user-1", claims.UserID)
	})

	t.Run("WrongPassword", func(t *testing.T) {
		repo := new(MockRepository)
		svc, _ := newTestService(repo)

		repo.On("FindByEmail", mock.Anything, "user@canteen.com").Return(stored, nil)

		_, _, err := svc.Login(context.Background(), LoginInput{
			Email: "user@canteen.com", Password: "wrong",
		})
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("UnknownEmail", func(t *testing.T) {
		repo := new(MockRepository)
		svc, _ := newTestService(repo)

		repo.On("FindByEmail", mock.Anything, "ghost@canteen.com").Return(nil, ErrUserNotFound)

		_, _, err := svc.Login(context.Background(), LoginInput{
			Email: "ghost@canteen.com", Password: "user123",
		})
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})
}

func TestTokenManager(t *testing.T) {
	t.Run("RoundTrip", func(t *testing.T) {
		tokens := NewTokenManager("test-secret")

		token, err := tokens.Generate("user-1")
		require.NoError(t, err)

		claims, err := tokens.Parse(token)
		require.NoError(t, err)
		assert.Equal(t, "user-1", claims.UserID)
	})

	t.Run("WrongSecret", func(t *testing.T) {
		token, err := NewTokenManager("secret-a").Generate("user-1")
		require.NoError(t, err)

		_, err = NewTokenManager("secret-b").Parse(token)
		assert.Error(t, err)
	})

	t.Run("Garbage", func(t *testing.T) {
		_, err := NewTokenManager("test-secret").Parse("not.a.token")
		assert.Error(t, err)
	})
}
