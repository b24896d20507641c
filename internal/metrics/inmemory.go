package metrics

import (
	"sync"
	"sync/atomic"
	"time"
)

// Snapshot captures current in-memory counters.
type Snapshot struct {
	RecipeCacheHits    uint64
	RecipeCacheMisses  uint64
	RecipesCreated     uint64
	RecipesUpdated     uint64
	RecipesDeleted     uint64
	AuthAttempts       map[string]uint64 // "method:outcome"
	FavoriteChanges    map[string]uint64
	ReviewsSubmitted   map[string]uint64
	PremiumChanges     map[string]uint64
	EventsPublished    map[string]uint64
	EventsProcessed    map[string]uint64
	ReminderDeliveries map[string]uint64
}

// InMemoryRecorder stores metrics in memory for tests.
type InMemoryRecorder struct {
	recipeCacheHits   uint64
	recipeCacheMisses uint64
	recipesCreated    uint64
	recipesUpdated    uint64
	recipesDeleted    uint64

	mu       sync.Mutex
	labelled map[string]map[string]uint64
}

// NewInMemory returns a Recorder that stores counters in memory.
func NewInMemory() *InMemoryRecorder {
	return &InMemoryRecorder{labelled: make(map[string]map[string]uint64)}
}

// Snapshot returns a copy of the counters.
func (m *InMemoryRecorder) Snapshot() Snapshot {
	return Snapshot{
		RecipeCacheHits:    atomic.LoadUint64(&m.recipeCacheHits),
		RecipeCacheMisses:  atomic.LoadUint64(&m.recipeCacheMisses),
		RecipesCreated:     atomic.LoadUint64(&m.recipesCreated),
		RecipesUpdated:     atomic.LoadUint64(&m.recipesUpdated),
		RecipesDeleted:     atomic.LoadUint64(&m.recipesDeleted),
		AuthAttempts:       m.copyOf("auth"),
		FavoriteChanges:    m.copyOf("favorite"),
		ReviewsSubmitted:   m.copyOf("review"),
		PremiumChanges:     m.copyOf("premium"),
		EventsPublished:    m.copyOf("event_published"),
		EventsProcessed:    m.copyOf("event_processed"),
		ReminderDeliveries: m.copyOf("reminder"),
	}
}

func (m *InMemoryRecorder) inc(family, label string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.labelled[family] == nil {
		m.labelled[family] = make(map[string]uint64)
	}
	m.labelled[family][label]++
}

func (m *InMemoryRecorder) copyOf(family string) map[string]uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]uint64, len(m.labelled[family]))
	for k, v := range m.labelled[family] {
		out[k] = v
	}
	return out
}

// IncRecipeCacheHit increments cache hit counter.
func (m *InMemoryRecorder) IncRecipeCacheHit() {
	atomic.AddUint64(&m.recipeCacheHits, 1)
}

// IncRecipeCacheMiss increments cache miss counter.
func (m *InMemoryRecorder) IncRecipeCacheMiss() {
	atomic.AddUint64(&m.recipeCacheMisses, 1)
}

// IncRecipeCreated increments recipe created counter.
func (m *InMemoryRecorder) IncRecipeCreated() {
	atomic.AddUint64(&m.recipesCreated, 1)
}

// IncRecipeUpdated increments recipe updated counter.
func (m *InMemoryRecorder) IncRecipeUpdated() {
	atomic.AddUint64(&m.recipesUpdated, 1)
}

// IncRecipeDeleted increments recipe deleted counter.
func (m *InMemoryRecorder) IncRecipeDeleted() {
	atomic.AddUint64(&m.recipesDeleted, 1)
}

func (m *InMemoryRecorder) IncAuthAttempt(method, outcome string) {
	m.inc("auth", method+":"+outcome)
}

func (m *InMemoryRecorder) IncFavoriteChange(action string)       { m.inc("favorite", action) }
func (m *InMemoryRecorder) IncReviewSubmitted(outcome string)     { m.inc("review", outcome) }
func (m *InMemoryRecorder) IncPremiumChange(action string)        { m.inc("premium", action) }
func (m *InMemoryRecorder) IncRecipeEventPublished(status string) { m.inc("event_published", status) }
func (m *InMemoryRecorder) IncRecipeEventProcessed(status string) { m.inc("event_processed", status) }
func (m *InMemoryRecorder) IncReminderDelivery(status string)     { m.inc("reminder", status) }
func (m *InMemoryRecorder) ObserveRecipeEventBatchSize(size int)  {}
func (m *InMemoryRecorder) SetRecipeEventQueueDepth(depth int64)  {}
func (m *InMemoryRecorder) SetReminderQueueDepth(depth int64)     {}

func (m *InMemoryRecorder) ObserveRecipeEventBatchDuration(duration time.Duration) {}
func (m *InMemoryRecorder) ObserveReminderDeliveryDuration(duration time.Duration) {}
