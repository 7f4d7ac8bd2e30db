package docstore

import (
	"context"
	"fmt"
	"sync"

	"github.com/gofrs/uuid"
)

// listener guards its callbacks with its own lock so an unsubscribe that has
// returned can no longer observe a delivery. The lock is held while the
// callback runs, which is why callbacks must not call unsubscribe.
type listener struct {
	mu         sync.Mutex
	active     bool
	onSnapshot SnapshotFunc
	onError    ErrorFunc
}

func (l *listener) deliver(docs []Document) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.active {
		return
	}
	l.onSnapshot(docs)
}

func (l *listener) fail(err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.active {
		return
	}
	l.active = false
	if l.onError != nil {
		l.onError(err)
	}
}

func (l *listener) detach() {
	l.mu.Lock()
	l.active = false
	l.mu.Unlock()
}

// Memory is an in-memory Store. Documents keep insertion order per path and
// every mutation fans the fresh snapshot out to the path's subscribers.
type Memory struct {
	mu        sync.Mutex
	docs      map[string][]Document
	listeners map[string]map[int]*listener
	nextID    int
}

func NewMemory() *Memory {
	return &Memory{
		docs:      make(map[string][]Document),
		listeners: make(map[string]map[int]*listener),
	}
}

// Seed loads documents into a path without notifying subscribers. Intended
// for wiring up local-development data before anyone is listening.
func (m *Memory) Seed(path string, docs []Document) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs[path] = append(m.docs[path], docs...)
}

func (m *Memory) Subscribe(ctx context.Context, path string, onSnapshot SnapshotFunc, onError ErrorFunc) (func(), error) {
	if onSnapshot == nil {
		return nil, fmt.Errorf("docstore: onSnapshot is required")
	}

	l := &listener{active: true, onSnapshot: onSnapshot, onError: onError}

	m.mu.Lock()
	id := m.nextID
	m.nextID++
	if m.listeners[path] == nil {
		m.listeners[path] = make(map[int]*listener)
	}
	m.listeners[path][id] = l
	initial := m.snapshotLocked(path)
	m.mu.Unlock()

	onSnapshot(initial)

	var once sync.Once
	unsubscribe := func() {
		once.Do(func() {
			l.detach()
			m.mu.Lock()
			delete(m.listeners[path], id)
			m.mu.Unlock()
		})
	}
	return unsubscribe, nil
}

func (m *Memory) Insert(ctx context.Context, path string, data map[string]any) (string, error) {
	id, err := uuid.NewV4()
	if err != nil {
		return "", fmt.Errorf("docstore: failed to generate document id: %w", err)
	}

	m.mu.Lock()
	m.docs[path] = append(m.docs[path], Document{ID: id.String(), Data: cloneData(data)})
	snapshot, targets := m.notifyTargetsLocked(path)
	m.mu.Unlock()

	fanOut(snapshot, targets)
	return id.String(), nil
}

func (m *Memory) Set(ctx context.Context, path, id string, data map[string]any) error {
	if id == "" {
		return fmt.Errorf("docstore: document id is required")
	}

	m.mu.Lock()
	replaced := false
	for i := range m.docs[path] {
		if m.docs[path][i].ID == id {
			m.docs[path][i].Data = cloneData(data)
			replaced = true
			break
		}
	}
	if !replaced {
		m.docs[path] = append(m.docs[path], Document{ID: id, Data: cloneData(data)})
	}
	snapshot, targets := m.notifyTargetsLocked(path)
	m.mu.Unlock()

	fanOut(snapshot, targets)
	return nil
}

func (m *Memory) Delete(ctx context.Context, path, id string) error {
	m.mu.Lock()
	docs := m.docs[path]
	for i := range docs {
		if docs[i].ID == id {
			m.docs[path] = append(docs[:i:i], docs[i+1:]...)
			break
		}
	}
	snapshot, targets := m.notifyTargetsLocked(path)
	m.mu.Unlock()

	fanOut(snapshot, targets)
	return nil
}

// FailSubscriptions delivers a terminal error to every subscriber of the
// path and drops them. Models a permission/rules violation from the remote
// store; used by tests and the sandbox.
func (m *Memory) FailSubscriptions(path string, err error) {
	m.mu.Lock()
	targets := make([]*listener, 0, len(m.listeners[path]))
	for _, l := range m.listeners[path] {
		targets = append(targets, l)
	}
	delete(m.listeners, path)
	m.mu.Unlock()

	for _, l := range targets {
		l.fail(err)
	}
}

func (m *Memory) snapshotLocked(path string) []Document {
	docs := m.docs[path]
	out := make([]Document, len(docs))
	for i, d := range docs {
		out[i] = Document{ID: d.ID, Data: cloneData(d.Data)}
	}
	return out
}

func (m *Memory) notifyTargetsLocked(path string) ([]Document, []*listener) {
	ls := m.listeners[path]
	if len(ls) == 0 {
		return nil, nil
	}
	targets := make([]*listener, 0, len(ls))
	for _, l := range ls {
		targets = append(targets, l)
	}
	return m.snapshotLocked(path), targets
}

// fanOut runs outside the store lock so a callback may call back into the
// store without deadlocking. Each listener's own lock keeps the delivery
// from racing an unsubscribe.
func fanOut(snapshot []Document, targets []*listener) {
	for _, l := range targets {
		l.deliver(snapshot)
	}
}

func cloneData(data map[string]any) map[string]any {
	if data == nil {
		return map[string]any{}
	}
	out := make(map[string]any, len(data))
	for k, v := range data {
		out[k] = v
	}
	return out
}
