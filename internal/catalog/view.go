package catalog

import "sync"

// View consumes a Subscription and holds the latest catalog snapshot for the
// presentation layer to pull. The cart core never touches the stream itself.
type View struct {
	sub *Subscription

	mu       sync.RWMutex
	products []Product
	err      error

	done     chan struct{}
	stopOnce sync.Once
}

func NewView(sub *Subscription) *View {
	v := &View{sub: sub, done: make(chan struct{})}
	go v.run()
	return v
}

func (v *View) run() {
	for products := range v.sub.Updates() {
		v.mu.Lock()
		v.products = products
		v.mu.Unlock()
	}
	v.mu.Lock()
	v.err = v.sub.Err()
	v.mu.Unlock()
	close(v.done)
}

// Products returns a copy of the latest snapshot.
func (v *View) Products() []Product {
	v.mu.RLock()
	defer v.mu.RUnlock()
	out := make([]Product, len(v.products))
	copy(out, v.products)
	return out
}

// Err reports the terminal subscription error, if the stream has failed.
func (v *View) Err() error {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.err
}

// Stop unsubscribes and waits for the consumer goroutine to drain. Idempotent.
func (v *View) Stop() {
	v.stopOnce.Do(func() {
		v.sub.Unsubscribe()
		<-v.done
	})
}
