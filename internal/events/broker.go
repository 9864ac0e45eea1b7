// Package events fans out note change events to in-process subscribers.
package events

import (
	"sync/atomic"
	"time"

	"github.com/starford/ansuz/internal/index"
)

// Kind classifies an Event.
type Kind string

const (
	NoteCreated Kind = "note.created"
	NoteUpdated Kind = "note.updated"
	NoteDeleted Kind = "note.deleted"
	// Refresh follows note events, at most once per throttle interval, and
	// always after the last event of a burst.
	Refresh Kind = "query.refresh"
)

// Event is a change notification. Path is empty for Refresh.
type Event struct {
	Kind Kind
	Path string
}

// Broker manages subscribers and broadcasts events.
//
// A single internal event loop (goroutine) owns mutable state (subscribers
// and the refresh throttle). Public methods talk to it through channels, so
// no mutexes are required.
type Broker struct {
	refreshMin time.Duration

	subscribeCh   chan chan Event
	unsubscribeCh chan chan Event
	publishCh     chan Event

	stopCh  chan struct{}
	stopped chan struct{}
	closed  atomic.Bool
}

// NewBroker creates a broker that emits Refresh at most once per refreshThrottle.
func NewBroker(refreshThrottle time.Duration) *Broker {
	if refreshThrottle <= 0 {
		refreshThrottle = 500 * time.Millisecond
	}

	b := &Broker{
		refreshMin:    refreshThrottle,
		subscribeCh:   make(chan chan Event),
		unsubscribeCh: make(chan chan Event),
		publishCh:     make(chan Event, 256),
		stopCh:        make(chan struct{}),
		stopped:       make(chan struct{}),
	}

	go b.run()
	return b
}

func (b *Broker) run() {
	defer close(b.stopped)

	clients := make(map[chan Event]struct{})
	var lastRefresh time.Time
	var refreshTimer *time.Timer
	var refreshCh <-chan time.Time

	broadcast := func(ev Event) {
		for ch := range clients {
			select {
			case ch <- ev:
			default:
				// Subscriber buffer full; skip to avoid blocking the loop.
			}
		}
	}

	refresh := func() {
		lastRefresh = time.Now()
		broadcast(Event{Kind: Refresh})
	}

	for {
		select {
		case <-b.stopCh:
			if refreshTimer != nil {
				refreshTimer.Stop()
			}
			for ch := range clients {
				close(ch)
			}
			return

		case ch := <-b.subscribeCh:
			clients[ch] = struct{}{}

		case ch := <-b.unsubscribeCh:
			if _, ok := clients[ch]; ok {
				delete(clients, ch)
				close(ch)
			}

		case ev := <-b.publishCh:
			broadcast(ev)
			if ev.Kind == Refresh || refreshCh != nil {
				continue
			}
			if wait := b.refreshMin - time.Since(lastRefresh); wait > 0 {
				refreshTimer = time.NewTimer(wait)
				refreshCh = refreshTimer.C
				continue
			}
			refresh()

		case <-refreshCh:
			refreshTimer, refreshCh = nil, nil
			refresh()
		}
	}
}

// Close gracefully stops the broker loop and closes all subscriber channels.
func (b *Broker) Close() {
	if b.closed.CompareAndSwap(false, true) {
		close(b.stopCh)
	}
	<-b.stopped
}

// Subscribe adds a new subscriber and returns its channel.
func (b *Broker) Subscribe() chan Event {
	ch := make(chan Event, 64)
	if b.closed.Load() {
		close(ch)
		return ch
	}

	select {
	case b.subscribeCh <- ch:
	case <-b.stopped:
		close(ch)
	}

	return ch
}

// Unsubscribe removes a subscriber and closes its channel.
func (b *Broker) Unsubscribe(ch chan Event) {
	if b.closed.Load() {
		return
	}
	select {
	case b.unsubscribeCh <- ch:
	case <-b.stopped:
	}
}

// Publish sends an event to all subscribers. Note events schedule a Refresh.
func (b *Broker) Publish(ev Event) {
	if b.closed.Load() {
		return
	}
	select {
	case b.publishCh <- ev:
	case <-b.stopped:
	}
}

// PublishNoteEvent maps an index watcher event kind to a note event and
// publishes it. It satisfies index.EventCallback. Unknown kinds are dropped.
func (b *Broker) PublishNoteEvent(kind, path string) {
	var k Kind
	switch kind {
	case index.EventCreated:
		k = NoteCreated
	case index.EventUpdated:
		k = NoteUpdated
	case index.EventDeleted:
		k = NoteDeleted
	default:
		return
	}
	b.Publish(Event{Kind: k, Path: path})
}
