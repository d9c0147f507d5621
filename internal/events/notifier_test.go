package events_test

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tabletop-forge/combat-engine/internal/events"
)

type recordingObserver struct {
	id     string
	mu     sync.Mutex
	events []events.Event
	err    error
}

func (r *recordingObserver) ID() string { return r.id }

func (r *recordingObserver) Notify(event events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.events = append(r.events, event)
	return nil
}

func (r *recordingObserver) received() []events.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]events.Event, len(r.events))
	copy(out, r.events)
	return out
}

func TestBroadcast_DeliversToAllObservers(t *testing.T) {
	notifier := events.NewNotifier()
	first := &recordingObserver{id: "first"}
	second := &recordingObserver{id: "second"}
	notifier.Subscribe(first)
	notifier.Subscribe(second)

	notifier.Broadcast(events.NewEvent(events.TypeCombatStarted, "sess-1", nil))
	notifier.Flush()

	assert.Len(t, first.received(), 1)
	assert.Len(t, second.received(), 1)
	assert.Equal(t, events.TypeCombatStarted, first.received()[0].Type)
	assert.Equal(t, "sess-1", first.received()[0].SessionID)
}

func TestBroadcast_FailingObserverDoesNotStopDelivery(t *testing.T) {
	notifier := events.NewNotifier()
	broken := &recordingObserver{id: "broken", err: errors.New("connection reset")}
	healthy := &recordingObserver{id: "healthy"}
	notifier.Subscribe(broken)
	notifier.Subscribe(healthy)

	notifier.Broadcast(events.NewEvent(events.TypeTurnChanged, "sess-1", nil))
	notifier.Flush()

	assert.Len(t, healthy.received(), 1)
}

func TestBroadcast_PrunesDeadObserverLazily(t *testing.T) {
	notifier := events.NewNotifier()
	broken := &recordingObserver{id: "broken", err: errors.New("gone")}
	notifier.Subscribe(broken)

	notifier.Broadcast(events.NewEvent(events.TypeAttackPerformed, "sess-1", nil))
	notifier.Flush()

	// The failure marked it dead; the next interaction drops it
	assert.Equal(t, 0, notifier.ObserverCount())
}

func TestSubscribe_DuplicateIDIgnored(t *testing.T) {
	notifier := events.NewNotifier()
	observer := &recordingObserver{id: "dup"}
	notifier.Subscribe(observer)
	notifier.Subscribe(observer)

	notifier.Broadcast(events.NewEvent(events.TypeCombatEnded, "sess-1", nil))
	notifier.Flush()

	assert.Len(t, observer.received(), 1)
}

func TestSubscribe_RevivesDeadObserver(t *testing.T) {
	notifier := events.NewNotifier()
	observer := &recordingObserver{id: "flaky", err: errors.New("down")}
	notifier.Subscribe(observer)

	notifier.Broadcast(events.NewEvent(events.TypeCombatStarted, "sess-1", nil))
	notifier.Flush()

	observer.mu.Lock()
	observer.err = nil
	observer.mu.Unlock()
	notifier.Subscribe(observer)

	notifier.Broadcast(events.NewEvent(events.TypeCombatEnded, "sess-1", nil))
	notifier.Flush()

	assert.Len(t, observer.received(), 1)
	assert.Equal(t, 1, notifier.ObserverCount())
}

func TestUnsubscribe(t *testing.T) {
	notifier := events.NewNotifier()
	observer := &recordingObserver{id: "leaver"}
	notifier.Subscribe(observer)
	notifier.Unsubscribe("leaver")

	notifier.Broadcast(events.NewEvent(events.TypeTerrainUpdated, "sess-1", nil))
	notifier.Flush()

	assert.Empty(t, observer.received())
	assert.Equal(t, 0, notifier.ObserverCount())
}
