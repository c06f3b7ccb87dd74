package execution

import (
	"encoding/json"
	"sort"
	"sync"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// StateListener is invoked every time State.Set overwrites an existing key
// or inserts a new one.
type StateListener func(key string, oldVal, newVal interface{})

// State is the run state accumulated by a single execution. Keys keep their
// insertion order; values can only be added or overwritten.
type State struct {
	values    *orderedmap.OrderedMap[string, interface{}]
	mu        sync.RWMutex
	listeners []StateListener
}

// RegisterListeners attaches a callback that will be called on every Set.
func (s *State) RegisterListeners(fn ...StateListener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn...)
}

// Set adds or updates a value
func (s *State) Set(key string, value interface{}) {
	s.mu.Lock()
	old, _ := s.values.Set(key, value)
	listeners := s.listeners
	s.mu.Unlock()
	for _, fn := range listeners {
		fn(key, old, value)
	}
}

// Get returns a value
func (s *State) Get(key string) (interface{}, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.values.Get(key)
}

// Has returns true if key was set
func (s *State) Has(key string) bool {
	_, ok := s.Get(key)
	return ok
}

// Len returns number of keys
func (s *State) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.values.Len()
}

// Keys returns keys in insertion order
func (s *State) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]string, 0, s.values.Len())
	for pair := s.values.Oldest(); pair != nil; pair = pair.Next() {
		result = append(result, pair.Key)
	}
	return result
}

// Values returns a plain map copy of the state
func (s *State) Values() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make(map[string]interface{}, s.values.Len())
	for pair := s.values.Oldest(); pair != nil; pair = pair.Next() {
		result[pair.Key] = pair.Value
	}
	return result
}

// Merge sets all supplied values, in key order
func (s *State) Merge(values map[string]interface{}) {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		s.Set(k, values[k])
	}
}

// Clone returns a snapshot; listeners are not carried over.
func (s *State) Clone() *State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ret := NewState(nil)
	for pair := s.values.Oldest(); pair != nil; pair = pair.Next() {
		ret.values.Set(pair.Key, pair.Value)
	}
	return ret
}

// MarshalJSON encodes state preserving key order
func (s *State) MarshalJSON() ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return json.Marshal(s.values)
}

// UnmarshalJSON decodes state
func (s *State) UnmarshalJSON(data []byte) error {
	values := orderedmap.New[string, interface{}]()
	if err := json.Unmarshal(data, values); err != nil {
		return err
	}
	s.mu.Lock()
	s.values = values
	s.mu.Unlock()
	return nil
}

// NewState creates a state seeded with values; seed keys are inserted in sorted order.
func NewState(seed map[string]interface{}) *State {
	ret := &State{values: orderedmap.New[string, interface{}]()}
	if len(seed) > 0 {
		ret.Merge(seed)
	}
	return ret
}
