package core

import (
	"fmt"
	"maps"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
)

// IDSource issues Solution identifiers.
type IDSource interface {
	NextID() string
}

// UUIDSource issues random UUIDs.
type UUIDSource struct{}

func (UUIDSource) NextID() string { return uuid.NewString() }

// CounterSource issues "<prefix><n>" identifiers from an atomic counter.
type CounterSource struct {
	Prefix string
	n      atomic.Uint64
}

func (c *CounterSource) NextID() string {
	return fmt.Sprintf("%s%d", c.Prefix, c.n.Add(1))
}

// PeerWeightStore keeps the peer-weight maps of one Solution. Stores are
// scoped to the Solution that owns them and are released with it.
type PeerWeightStore interface {
	Put(dmuCode string, weights map[string]float64) error
	Get(dmuCode string) (map[string]float64, error)
	Release() error
}

// StoreFactory opens the peer-weight store for a new Solution.
type StoreFactory func(solutionID string) (PeerWeightStore, error)

// MemoryStores is the default StoreFactory.
func MemoryStores(string) (PeerWeightStore, error) {
	return &memoryStore{weights: make(map[string]map[string]float64)}, nil
}

type memoryStore struct {
	mu      sync.RWMutex
	weights map[string]map[string]float64
}

func (m *memoryStore) Put(code string, weights map[string]float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.weights[code] = maps.Clone(weights)
	return nil
}

func (m *memoryStore) Get(code string) (map[string]float64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return maps.Clone(m.weights[code]), nil
}

func (m *memoryStore) Release() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.weights = make(map[string]map[string]float64)
	return nil
}

// Session issues Solutions. It is shared by every model of one analysis and
// is safe for concurrent use as long as its IDSource and StoreFactory are.
type Session struct {
	ids    IDSource
	stores StoreFactory
}

// SessionOption configures a Session.
type SessionOption func(*Session)

func WithIDSource(ids IDSource) SessionOption {
	return func(s *Session) { s.ids = ids }
}

func WithStoreFactory(f StoreFactory) SessionOption {
	return func(s *Session) { s.stores = f }
}

// NewSession returns a Session using UUID identifiers and in-memory
// peer-weight stores unless overridden.
func NewSession(opts ...SessionOption) *Session {
	s := &Session{ids: UUIDSource{}, stores: MemoryStores}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewSolution allocates an empty Solution over data.
func (s *Session) NewSolution(data *DataSet) (*Solution, error) {
	id := s.ids.NextID()
	store, err := s.stores(id)
	if err != nil {
		return nil, fmt.Errorf("opening peer-weight store for solution %s: %w", id, err)
	}
	return newSolution(id, data, store), nil
}
