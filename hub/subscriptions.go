package hub

import (
	"maps"
	"slices"
	"sync"

	chub "github.com/next-trace/scg-event-hub/contract/hub"
)

// Subscriptions maps event names to the set of connections subscribed to them.
// An event whose set becomes empty is removed; the wildcard is never stored.
//
// Subscriptions is safe for concurrent use: lookups share a read lock, mutations serialize.
type Subscriptions struct {
	mu   sync.RWMutex
	subs map[string]map[chub.ConnID]struct{}
}

// NewSubscriptions returns an empty registry.
func NewSubscriptions() *Subscriptions {
	return &Subscriptions{subs: make(map[string]map[chub.ConnID]struct{})}
}

// Subscribe adds conn to event. The wildcard subscribes conn to every event known at this instant.
// Repeating a subscription changes nothing.
func (s *Subscriptions) Subscribe(event string, conn chub.ConnID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, name := range expand(event, s.subs) {
		set, ok := s.subs[name]
		if !ok {
			set = make(map[chub.ConnID]struct{})
			s.subs[name] = set
		}

		set[conn] = struct{}{}
	}
}

// Unsubscribe removes conn from event, dropping the event once nobody is left.
// The wildcard removes conn from every event known at this instant. Absent names are ignored.
func (s *Subscriptions) Unsubscribe(event string, conn chub.ConnID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, name := range expand(event, s.subs) {
		set, ok := s.subs[name]
		if !ok {
			continue
		}

		delete(set, conn)

		if len(set) == 0 {
			delete(s.subs, name)
		}
	}
}

// SubscribersOf returns a snapshot of the connections subscribed to event, sorted by id.
func (s *Subscriptions) SubscribersOf(event string) []chub.ConnID {
	s.mu.RLock()
	defer s.mu.RUnlock()

	set, ok := s.subs[event]
	if !ok {
		return nil
	}

	return slices.Sorted(maps.Keys(set))
}

// Events returns the event names that currently have subscribers, sorted.
func (s *Subscriptions) Events() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return slices.Sorted(maps.Keys(s.subs))
}

// EventCount returns the number of events with at least one subscriber.
func (s *Subscriptions) EventCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.subs)
}

// SubscriptionCount returns the number of (event, connection) pairs.
func (s *Subscriptions) SubscriptionCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, set := range s.subs {
		n += len(set)
	}

	return n
}
