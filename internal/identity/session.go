package identity

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/makindu-artifacts/storefront/internal/config"
)

// UnauthenticatedID is the principal sentinel used when no identity could be
// established.
const UnauthenticatedID = "unauthenticated"

var ErrAlreadyStarted = errors.New("session already started")

type State int

const (
	StateUninitialized State = iota
	StateInitializing
	StateReady
	StateFailed
)

// Session holds the single process-wide principal. It becomes Ready once a
// sign-in attempt has completed and the provider's state-change callback has
// fired at least once; it enters Failed only when the store configuration
// itself is invalid. It never resets.
type Session struct {
	provider Provider

	mu           sync.Mutex
	state        State
	id           string
	err          error
	signedIn     bool
	stateChanges int

	stopListener func()
	stopOnce     sync.Once
}

func NewSession(provider Provider) *Session {
	return &Session{provider: provider}
}

// Start validates the configuration, attaches the state-change listener and
// signs in: with the bootstrap token when present, anonymously otherwise.
// Ordinary sign-in failures fall back to an unauthenticated principal rather
// than failing the session. Start is idempotent; concurrent or repeated
// calls after the first return ErrAlreadyStarted.
func (s *Session) Start(ctx context.Context, cfg config.StoreConfig, token string) error {
	s.mu.Lock()
	if s.state != StateUninitialized {
		s.mu.Unlock()
		return ErrAlreadyStarted
	}
	s.state = StateInitializing
	s.mu.Unlock()

	if err := cfg.Validate(); err != nil {
		s.mu.Lock()
		s.state = StateFailed
		s.err = err
		s.mu.Unlock()
		log.Error().Err(err).Msg("Session failed: invalid store configuration")
		return err
	}

	s.stopListener = s.provider.OnStateChange(func(principalID string) {
		s.mu.Lock()
		defer s.mu.Unlock()
		if principalID == "" {
			s.id = UnauthenticatedID
		} else {
			s.id = principalID
		}
		s.stateChanges++
		s.maybeReadyLocked()
	})

	signInMethod := "anonymous"
	var signInErr error
	if token != "" {
		if _, err := s.provider.SignInWithToken(ctx, token); err != nil {
			log.Warn().Err(err).Msg("Token sign-in failed, falling back to anonymous")
			_, signInErr = s.provider.SignInAnonymously(ctx)
		} else {
			signInMethod = "token"
		}
	} else {
		_, signInErr = s.provider.SignInAnonymously(ctx)
	}

	s.mu.Lock()
	s.signedIn = true
	if signInErr != nil {
		// No principal could be established; the session still becomes
		// ready with the unauthenticated sentinel.
		s.id = UnauthenticatedID
		if s.stateChanges == 0 {
			s.stateChanges++
		}
		log.Warn().Err(signInErr).Msg("Sign-in failed, session is unauthenticated")
	}
	s.maybeReadyLocked()
	state, id := s.state, s.id
	s.mu.Unlock()

	if state == StateReady {
		log.Info().Str("method", signInMethod).Str("user_id", id).Msg("Session ready")
	}
	return nil
}

func (s *Session) maybeReadyLocked() {
	if s.state == StateInitializing && s.signedIn && s.stateChanges > 0 {
		s.state = StateReady
	}
}

// ID returns the principal id, empty until the provider has confirmed one.
func (s *Session) ID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.id
}

func (s *Session) Ready() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state == StateReady
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Err returns the configuration error that failed the session, if any.
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Stop detaches the provider listener. Idempotent.
func (s *Session) Stop() {
	s.stopOnce.Do(func() {
		if s.stopListener != nil {
			s.stopListener()
		}
	})
}
