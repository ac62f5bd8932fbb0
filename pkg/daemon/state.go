package daemon

import (
	"sort"
	"sync"
	"time"

	"github.com/devnode/devnoti/pkg/powerinfo"
)

// stateCache holds the last known state of every device.
type stateCache struct {
	mu          sync.RWMutex
	battery     *powerinfo.Battery
	connections map[powerinfo.ConnectorType]powerinfo.Connection
	updatedAt   time.Time
}

func newStateCache() *stateCache {
	return &stateCache{connections: make(map[powerinfo.ConnectorType]powerinfo.Connection)}
}

// setBattery stores b and reports whether it differs from the previous state.
func (s *stateCache) setBattery(b powerinfo.Battery) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	changed := s.battery == nil || *s.battery != b
	s.battery = &b
	s.updatedAt = time.Now().Round(0)
	return changed
}

// setConnection stores c and reports whether it differs from the previous state.
func (s *stateCache) setConnection(c powerinfo.Connection) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, ok := s.connections[c.Type]
	s.connections[c.Type] = c
	s.updatedAt = time.Now().Round(0)
	return !ok || prev != c
}

func (s *stateCache) snapshot() powerinfo.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := powerinfo.Snapshot{
		Connections: make([]powerinfo.Connection, 0, len(s.connections)),
		UpdatedAt:   s.updatedAt,
	}
	if s.battery != nil {
		b := *s.battery
		snap.Battery = &b
	}
	for _, c := range s.connections {
		snap.Connections = append(snap.Connections, c)
	}
	sort.Slice(snap.Connections, func(i, j int) bool {
		return snap.Connections[i].Type < snap.Connections[j].Type
	})
	return snap
}
