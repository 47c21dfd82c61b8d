package store

import (
	"sort"
	"sync"
)

// ChangeKind describes what happened to a property.
type ChangeKind int

const (
	ChangeSet     ChangeKind = iota // value written or replaced
	ChangeDelete                    // single key removed
	ChangeCleared                   // entire store emptied
)

// String returns the kind name used on the wire by front-ends.
func (k ChangeKind) String() string {
	switch k {
	case ChangeSet:
		return "set"
	case ChangeDelete:
		return "delete"
	case ChangeCleared:
		return "cleared"
	default:
		return "unknown"
	}
}

// Change is a single store mutation delivered to subscribers.
type Change struct {
	Kind     ChangeKind
	Category string
	Key      string
	Value    string
}

// DefaultSubscriberBuffer is used when Subscribe is given a non-positive size.
const DefaultSubscriberBuffer = 64

// Store is a concurrent (category, key) -> value map with change
// notification.
type Store struct {
	mu    sync.RWMutex
	props map[string]map[string]string

	subMu  sync.Mutex
	subs   map[int]*subscriber
	nextID int
}

type subscriber struct {
	ch      chan Change
	dropped int
}

// New returns an empty store.
func New() *Store {
	return &Store{
		props: make(map[string]map[string]string),
		subs:  make(map[int]*subscriber),
	}
}

// Get returns the value of a property.
func (s *Store) Get(category, key string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.props[category][key]
	return v, ok
}

// Put writes a property. Subscribers are notified only when the value
// actually changes.
func (s *Store) Put(category, key, value string) {
	s.mu.Lock()
	cat, ok := s.props[category]
	if !ok {
		cat = make(map[string]string)
		s.props[category] = cat
	}
	old, existed := cat[key]
	cat[key] = value
	s.mu.Unlock()

	if !existed || old != value {
		s.publish(Change{Kind: ChangeSet, Category: category, Key: key, Value: value})
	}
}

// PutAll writes several properties of one category.
func (s *Store) PutAll(category string, values map[string]string) {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		s.Put(category, k, values[k])
	}
}

// Delete removes a property if present.
func (s *Store) Delete(category, key string) {
	s.mu.Lock()
	cat, ok := s.props[category]
	if ok {
		_, ok = cat[key]
		delete(cat, key)
		if len(cat) == 0 {
			delete(s.props, category)
		}
	}
	s.mu.Unlock()

	if ok {
		s.publish(Change{Kind: ChangeDelete, Category: category, Key: key})
	}
}

// Clear removes every property.
func (s *Store) Clear() {
	s.mu.Lock()
	empty := len(s.props) == 0
	s.props = make(map[string]map[string]string)
	s.mu.Unlock()

	if !empty {
		s.publish(Change{Kind: ChangeCleared})
	}
}

// ClearExcept removes every category not listed in keep.
func (s *Store) ClearExcept(keep ...string) {
	s.mu.Lock()
	removed := false
	for cat := range s.props {
		if !contains(keep, cat) {
			delete(s.props, cat)
			removed = true
		}
	}
	s.mu.Unlock()

	if removed {
		s.publish(Change{Kind: ChangeCleared})
	}
}

// Category returns a copy of all properties in one category.
func (s *Store) Category(category string) map[string]string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]string, len(s.props[category]))
	for k, v := range s.props[category] {
		out[k] = v
	}
	return out
}

// Categories lists the non-empty categories in sorted order.
func (s *Store) Categories() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cats := make([]string, 0, len(s.props))
	for c := range s.props {
		cats = append(cats, c)
	}
	sort.Strings(cats)
	return cats
}

// Snapshot returns a deep copy of the whole store.
func (s *Store) Snapshot() map[string]map[string]string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]map[string]string, len(s.props))
	for c, kv := range s.props {
		inner := make(map[string]string, len(kv))
		for k, v := range kv {
			inner[k] = v
		}
		out[c] = inner
	}
	return out
}

// Subscribe registers for change events. The returned function
// unsubscribes and closes the channel; it is safe to call more than once.
func (s *Store) Subscribe(buffer int) (<-chan Change, func()) {
	if buffer <= 0 {
		buffer = DefaultSubscriberBuffer
	}
	sub := &subscriber{ch: make(chan Change, buffer)}

	s.subMu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = sub
	s.subMu.Unlock()

	var once sync.Once
	return sub.ch, func() {
		once.Do(func() {
			s.subMu.Lock()
			delete(s.subs, id)
			s.subMu.Unlock()
			close(sub.ch)
		})
	}
}

// Dropped returns the total number of events discarded because a
// subscriber was not keeping up.
func (s *Store) Dropped() int {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	n := 0
	for _, sub := range s.subs {
		n += sub.dropped
	}
	return n
}

func (s *Store) publish(c Change) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	for _, sub := range s.subs {
		select {
		case sub.ch <- c:
		default:
			sub.dropped++
		}
	}
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
