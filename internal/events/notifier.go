package events

import (
	"log"
	"sync"
)

//go:generate mockgen -destination=mock/mock_observer.go -package=mockevents github.com/tabletop-forge/combat-engine/internal/events Observer

// Observer receives events after they are committed. Returning a
// non-nil error marks the observer dead; it is dropped before the
// next broadcast rather than immediately.
type Observer interface {
	ID() string
	Notify(event Event) error
}

// Notifier fans events out to subscribed observers. Broadcasts run on
// a background goroutine so a slow observer never holds up the combat
// operation that produced the event.
type Notifier struct {
	mu        sync.Mutex
	observers []Observer
	dead      map[string]bool
	wg        sync.WaitGroup
}

func NewNotifier() *Notifier {
	return &Notifier{
		dead: make(map[string]bool),
	}
}

// Subscribe registers an observer for all sessions. Subscribing an ID
// that was previously marked dead revives it.
func (n *Notifier) Subscribe(observer Observer) {
	if observer == nil {
		return
	}

	n.mu.Lock()
	defer n.mu.Unlock()

	delete(n.dead, observer.ID())
	for _, existing := range n.observers {
		if existing.ID() == observer.ID() {
			return
		}
	}
	n.observers = append(n.observers, observer)
}

// Unsubscribe removes the observer with the given ID, if present.
func (n *Notifier) Unsubscribe(id string) {
	n.mu.Lock()
	defer n.mu.Unlock()

	for i, existing := range n.observers {
		if existing.ID() == id {
			n.observers = append(n.observers[:i], n.observers[i+1:]...)
			delete(n.dead, id)
			return
		}
	}
}

// Broadcast delivers the event to every live observer asynchronously
// and returns immediately. Observers marked dead by an earlier
// broadcast are pruned here before delivery.
func (n *Notifier) Broadcast(event Event) {
	n.mu.Lock()
	if len(n.dead) > 0 {
		n.prune()
	}
	targets := make([]Observer, len(n.observers))
	copy(targets, n.observers)
	n.mu.Unlock()

	if len(targets) == 0 {
		return
	}

	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		for _, observer := range targets {
			if err := observer.Notify(event); err != nil {
				log.Printf("Observer %s failed on %s event: %v", observer.ID(), event.Type, err)
				n.mu.Lock()
				n.dead[observer.ID()] = true
				n.mu.Unlock()
			}
		}
	}()
}

// Flush blocks until all in-flight broadcasts have been delivered.
func (n *Notifier) Flush() {
	n.wg.Wait()
}

// ObserverCount reports the number of live subscriptions, pruning any
// observers marked dead first.
func (n *Notifier) ObserverCount() int {
	n.mu.Lock()
	defer n.mu.Unlock()

	if len(n.dead) > 0 {
		n.prune()
	}
	return len(n.observers)
}

// prune drops dead observers. Caller holds n.mu.
func (n *Notifier) prune() {
	live := n.observers[:0]
	for _, observer := range n.observers {
		if !n.dead[observer.ID()] {
			live = append(live, observer)
		}
	}
	n.observers = live
	n.dead = make(map[string]bool)
}
