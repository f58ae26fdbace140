package session_test

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/zatekoja/doctorconnect/internal/domain/entities"
	"github.com/zatekoja/doctorconnect/internal/session"
	apperrors "github.com/zatekoja/doctorconnect/pkg/errors"
)

type MockIdentityProvider struct {
	mock.Mock
	onCurrentUser func()
}

func (m *MockIdentityProvider) CurrentUser(ctx context.Context) (*entities.SessionUser, error) {
	if m.onCurrentUser != nil {
		m.onCurrentUser()
	}
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.SessionUser), args.Error(1)
}

func (m *MockIdentityProvider) Login(ctx context.Context, creds entities.Credentials) (*entities.SessionUser, error) {
	args := m.Called(ctx, creds)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.SessionUser), args.Error(1)
}

func (m *MockIdentityProvider) Register(ctx context.Context, reg entities.Registration) (*entities.SessionUser, error) {
	args := m.Called(ctx, reg)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.SessionUser), args.Error(1)
}

func (m *MockIdentityProvider) Logout(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func patient() *entities.SessionUser {
	return &entities.SessionUser{ID: "p1", Name: "Ana Pop", Email: "ana@example.com", Role: entities.RolePatient}
}

func TestStore_Restore(t *testing.T) {
	t.Run("adopts the current user", func(t *testing.T) {
		identity := new(MockIdentityProvider)
		store := session.NewStore(identity, zerolog.Nop())

		identity.onCurrentUser = func() {
			assert.True(t, store.Loading())
		}
		identity.On("CurrentUser", mock.Anything).Return(patient(), nil).Once()

		assert.False(t, store.Loading())
		store.Restore(context.Background())

		assert.False(t, store.Loading())
		require.NotNil(t, store.Current())
		assert.Equal(t, "p1", store.Current().ID)
		identity.AssertExpectations(t)
	})

	t.Run("failure is logged out, not an error", func(t *testing.T) {
		identity := new(MockIdentityProvider)
		identity.On("CurrentUser", mock.Anything).Return(nil, errors.New("401")).Once()

		store := session.NewStore(identity, zerolog.Nop())
		store.Restore(context.Background())

		assert.Nil(t, store.Current())
		assert.False(t, store.Loading())
	})

	t.Run("incomplete user is logged out", func(t *testing.T) {
		identity := new(MockIdentityProvider)
		identity.On("CurrentUser", mock.Anything).Return(&entities.SessionUser{ID: "x", Role: "NURSE"}, nil).Once()

		store := session.NewStore(identity, zerolog.Nop())
		store.Restore(context.Background())

		assert.Nil(t, store.Current())
	})

	t.Run("runs once and never retries", func(t *testing.T) {
		identity := new(MockIdentityProvider)
		identity.On("CurrentUser", mock.Anything).Return(nil, errors.New("boom")).Once()

		store := session.NewStore(identity, zerolog.Nop())
		store.Restore(context.Background())
		store.Restore(context.Background())

		identity.AssertNumberOfCalls(t, "CurrentUser", 1)
	})

	t.Run("cancelled restore discards the result", func(t *testing.T) {
		identity := new(MockIdentityProvider)
		ctx, cancel := context.WithCancel(context.Background())
		identity.onCurrentUser = cancel
		identity.On("CurrentUser", mock.Anything).Return(patient(), nil).Once()

		store := session.NewStore(identity, zerolog.Nop())
		store.Restore(ctx)

		assert.Nil(t, store.Current())
		assert.False(t, store.Loading())
	})
}

func TestStore_CurrentIsACopy(t *testing.T) {
	store := session.NewStore(new(MockIdentityProvider), zerolog.Nop())
	store.Login(patient())

	u := store.Current()
	u.Role = entities.RoleAdmin

	assert.Equal(t, entities.RolePatient, store.Current().Role)
}

func TestStore_Logout(t *testing.T) {
	t.Run("clears after server logout", func(t *testing.T) {
		identity := new(MockIdentityProvider)
		identity.On("Logout", mock.Anything).Return(nil).Once()

		store := session.NewStore(identity, zerolog.Nop())
		store.Login(patient())
		store.Logout(context.Background())

		assert.Nil(t, store.Current())
		identity.AssertExpectations(t)
	})

	t.Run("clears even when server logout fails", func(t *testing.T) {
		identity := new(MockIdentityProvider)
		identity.On("Logout", mock.Anything).Return(errors.New("network down")).Once()

		store := session.NewStore(identity, zerolog.Nop())
		store.Login(patient())
		store.Logout(context.Background())

		assert.Nil(t, store.Current())
	})
}

func TestStore_SignIn(t *testing.T) {
	t.Run("adopts the user", func(t *testing.T) {
		identity := new(MockIdentityProvider)
		identity.On("Login", mock.Anything, entities.Credentials{Email: "ana@example.com", Password: "pw"}).
			Return(patient(), nil).Once()

		store := session.NewStore(identity, zerolog.Nop())
		user, err := store.SignIn(context.Background(), " ana@example.com ", "pw")

		require.NoError(t, err)
		assert.Equal(t, "p1", user.ID)
		assert.Equal(t, "p1", store.Current().ID)
	})

	t.Run("rejected credentials", func(t *testing.T) {
		identity := new(MockIdentityProvider)
		identity.On("Login", mock.Anything, mock.Anything).Return(nil, errors.New("401")).Once()

		store := session.NewStore(identity, zerolog.Nop())
		_, err := store.SignIn(context.Background(), "ana@example.com", "bad")

		assert.True(t, apperrors.Is(err, apperrors.ErrorTypeUnauthorized))
		assert.Nil(t, store.Current())
	})

	t.Run("missing credentials never call the provider", func(t *testing.T) {
		identity := new(MockIdentityProvider)
		store := session.NewStore(identity, zerolog.Nop())

		_, err := store.SignIn(context.Background(), "", "pw")
		assert.True(t, apperrors.Is(err, apperrors.ErrorTypeValidation))
		identity.AssertNotCalled(t, "Login", mock.Anything, mock.Anything)
	})
}

func TestStore_Register(t *testing.T) {
	identity := new(MockIdentityProvider)
	reg := entities.Registration{FullName: "Dr. Ionescu", Email: "ion@example.com", Password: "pw", Role: entities.RoleDoctor}
	doctor := &entities.SessionUser{ID: "d1", Name: "Dr. Ionescu", Role: entities.RoleDoctor}
	identity.On("Register", mock.Anything, reg).Return(doctor, nil).Once()

	store := session.NewStore(identity, zerolog.Nop())
	user, err := store.Register(context.Background(), reg)
	require.NoError(t, err)
	assert.Equal(t, entities.RoleDoctor, user.Role)

	_, err = store.Register(context.Background(), entities.Registration{FullName: "x", Email: "x@example.com", Password: "pw", Role: "NURSE"})
	assert.True(t, apperrors.Is(err, apperrors.ErrorTypeValidation))
}
