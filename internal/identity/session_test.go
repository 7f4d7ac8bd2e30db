package identity_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/makindu-artifacts/storefront/internal/config"
	"github.com/makindu-artifacts/storefront/internal/identity"
)

type mockProvider struct {
	signInAnonymouslyFunc func(ctx context.Context) (string, error)
	signInWithTokenFunc   func(ctx context.Context, token string) (string, error)
	listeners             []func(string)
	stops                 int
}

func (m *mockProvider) SignInAnonymously(ctx context.Context) (string, error) {
	id, err := m.signInAnonymouslyFunc(ctx)
	if err == nil {
		m.notify(id)
	}
	return id, err
}

func (m *mockProvider) SignInWithToken(ctx context.Context, token string) (string, error) {
	id, err := m.signInWithTokenFunc(ctx, token)
	if err == nil {
		m.notify(id)
	}
	return id, err
}

func (m *mockProvider) OnStateChange(fn func(string)) func() {
	m.listeners = append(m.listeners, fn)
	fn("")
	return func() { m.stops++ }
}

func (m *mockProvider) notify(principal string) {
	for _, fn := range m.listeners {
		fn(principal)
	}
}

func validConfig() config.StoreConfig {
	return config.StoreConfig{
		APIKey:     "key",
		AuthDomain: "example.test",
		ProjectID:  "proj",
		AppID:      "app",
	}
}

func TestSession_Start(t *testing.T) {
	t.Run("anonymous", func(t *testing.T) {
		provider := &mockProvider{
			signInAnonymouslyFunc: func(ctx context.Context) (string, error) {
				return "anon-1", nil
			},
		}
		s := identity.NewSession(provider)

		err := s.Start(context.Background(), validConfig(), "")
		assert.NoError(t, err)
		assert.True(t, s.Ready())
		assert.Equal(t, "anon-1", s.ID())
		assert.Equal(t, identity.StateReady, s.State())
	})

	t.Run("token", func(t *testing.T) {
		provider := &mockProvider{
			signInWithTokenFunc: func(ctx context.Context, token string) (string, error) {
				return "user-" + token, nil
			},
		}
		s := identity.NewSession(provider)

		err := s.Start(context.Background(), validConfig(), "alice")
		assert.NoError(t, err)
		assert.True(t, s.Ready())
		assert.Equal(t, "user-alice", s.ID())
	})

	t.Run("token_failure_falls_back_to_anonymous", func(t *testing.T) {
		provider := &mockProvider{
			signInWithTokenFunc: func(ctx context.Context, token string) (string, error) {
				return "", errors.New("token expired")
			},
			signInAnonymouslyFunc: func(ctx context.Context) (string, error) {
				return "anon-2", nil
			},
		}
		s := identity.NewSession(provider)

		err := s.Start(context.Background(), validConfig(), "expired")
		assert.NoError(t, err)
		assert.True(t, s.Ready())
		assert.Equal(t, "anon-2", s.ID())
	})

	t.Run("total_sign_in_failure_is_unauthenticated_not_terminal", func(t *testing.T) {
		provider := &mockProvider{
			signInAnonymouslyFunc: func(ctx context.Context) (string, error) {
				return "", errors.New("auth unavailable")
			},
		}
		s := identity.NewSession(provider)

		err := s.Start(context.Background(), validConfig(), "")
		assert.NoError(t, err)
		assert.True(t, s.Ready())
		assert.Equal(t, identity.UnauthenticatedID, s.ID())
	})

	t.Run("invalid_config_fails_before_any_provider_call", func(t *testing.T) {
		provider := &mockProvider{
			signInAnonymouslyFunc: func(ctx context.Context) (string, error) {
				t.Fatal("provider must not be called with invalid config")
				return "", nil
			},
		}
		s := identity.NewSession(provider)

		err := s.Start(context.Background(), config.StoreConfig{APIKey: "YOUR_API_KEY"}, "")

		var cfgErr *config.ConfigurationError
		assert.ErrorAs(t, err, &cfgErr)
		assert.Equal(t, identity.StateFailed, s.State())
		assert.False(t, s.Ready())
		assert.ErrorAs(t, s.Err(), &cfgErr)
		assert.Empty(t, provider.listeners)
	})

	t.Run("second_start_rejected", func(t *testing.T) {
		provider := &mockProvider{
			signInAnonymouslyFunc: func(ctx context.Context) (string, error) {
				return "anon-1", nil
			},
		}
		s := identity.NewSession(provider)

		assert.NoError(t, s.Start(context.Background(), validConfig(), ""))
		assert.ErrorIs(t, s.Start(context.Background(), validConfig(), ""), identity.ErrAlreadyStarted)
		// The first principal stays in place.
		assert.Equal(t, "anon-1", s.ID())
	})
}

func TestSession_Stop(t *testing.T) {
	provider := &mockProvider{
		signInAnonymouslyFunc: func(ctx context.Context) (string, error) {
			return "anon-1", nil
		},
	}
	s := identity.NewSession(provider)
	assert.NoError(t, s.Start(context.Background(), validConfig(), ""))

	s.Stop()
	s.Stop()
	assert.Equal(t, 1, provider.stops, "listener teardown must run once")
}

func TestStaticProvider(t *testing.T) {
	p := identity.NewStaticProvider()

	var seen []string
	stop := p.OnStateChange(func(id string) { seen = append(seen, id) })
	defer stop()

	// Current (empty) state is delivered on attach.
	assert.Equal(t, []string{""}, seen)

	id, err := p.SignInAnonymously(context.Background())
	assert.NoError(t, err)
	assert.Contains(t, id, "anon-")
	assert.Equal(t, id, seen[len(seen)-1])

	tokenID, err := p.SignInWithToken(context.Background(), "bob")
	assert.NoError(t, err)
	assert.Equal(t, "user-bob", tokenID)

	_, err = p.SignInWithToken(context.Background(), "   ")
	assert.ErrorIs(t, err, identity.ErrInvalidToken)
}
