// Package identity establishes exactly one principal per process lifetime
// and exposes its readiness to dependents.
package identity

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/gofrs/uuid"
)

var ErrInvalidToken = errors.New("invalid bearer token")

// Provider is the boundary to the external identity service.
type Provider interface {
	SignInAnonymously(ctx context.Context) (string, error)
	SignInWithToken(ctx context.Context, token string) (string, error)
	// OnStateChange registers a callback invoked with the current principal
	// id (empty when none) immediately and on every subsequent change. The
	// returned stop function is idempotent.
	OnStateChange(fn func(principalID string)) (stop func())
}

// StaticProvider is a deterministic local provider: anonymous sign-in issues
// a fresh uuid-based principal, token sign-in derives the subject from the
// token. Used for local development and tests.
type StaticProvider struct {
	mu        sync.Mutex
	current   string
	listeners map[int]func(string)
	nextID    int
}

func NewStaticProvider() *StaticProvider {
	return &StaticProvider{listeners: make(map[int]func(string))}
}

func (p *StaticProvider) SignInAnonymously(ctx context.Context) (string, error) {
	id, err := uuid.NewV4()
	if err != nil {
		return "", err
	}
	principal := "anon-" + id.String()
	p.setPrincipal(principal)
	return principal, nil
}

func (p *StaticProvider) SignInWithToken(ctx context.Context, token string) (string, error) {
	subject := strings.TrimSpace(token)
	if subject == "" {
		return "", ErrInvalidToken
	}
	principal := "user-" + subject
	p.setPrincipal(principal)
	return principal, nil
}

func (p *StaticProvider) OnStateChange(fn func(principalID string)) func() {
	p.mu.Lock()
	id := p.nextID
	p.nextID++
	p.listeners[id] = fn
	current := p.current
	p.mu.Unlock()

	// Deliver the current state on attach, as the hosted provider does.
	fn(current)

	var once sync.Once
	return func() {
		once.Do(func() {
			p.mu.Lock()
			delete(p.listeners, id)
			p.mu.Unlock()
		})
	}
}

func (p *StaticProvider) setPrincipal(principal string) {
	p.mu.Lock()
	p.current = principal
	fns := make([]func(string), 0, len(p.listeners))
	for _, fn := range p.listeners {
		fns = append(fns, fn)
	}
	p.mu.Unlock()

	for _, fn := range fns {
		fn(principal)
	}
}
