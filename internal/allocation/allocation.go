package allocation

import (
	"sync"

	"panelforge/internal/events"
)

// PointsPerLevel is how many allocatable points each level index grants.
const PointsPerLevel = 3

// Store is the slice of the persistence façade the budget needs.
type Store interface {
	LoadAllocations() map[string]int
	SaveAllocations(map[string]int)
}

// Budget tracks per-stat point allocations against the level-derived
// cap. Only stats named in the catalog order are allocatable; persisted
// entries for unknown keys are dropped on load.
type Budget struct {
	mu         sync.Mutex
	store      Store
	keys       []string
	alloc      map[string]int
	levelIndex int
}

func NewBudget(store Store, statKeys []string) *Budget {
	return &Budget{
		store: store,
		keys:  append([]string(nil), statKeys...),
		alloc: map[string]int{},
	}
}

// BudgetFor is the total allocatable points at a level index.
func BudgetFor(levelIndex int) int {
	if levelIndex < 0 {
		return 0
	}
	return levelIndex * PointsPerLevel
}

// Load restores persisted allocations, filtering unknown stat keys, and
// trims any overflow against the given level index.
func (b *Budget) Load(levelIndex int) {
	stored := b.store.LoadAllocations()
	b.mu.Lock()
	b.levelIndex = levelIndex
	b.alloc = map[string]int{}
	for _, k := range b.keys {
		if v, ok := stored[k]; ok && v > 0 {
			b.alloc[k] = v
		}
	}
	changed := b.trimLocked()
	b.mu.Unlock()
	if changed {
		b.persist()
	}
}

// Total is the current budget cap.
func (b *Budget) Total() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return BudgetFor(b.levelIndex)
}

// Spent sums all allocated points.
func (b *Budget) Spent() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.spentLocked()
}

// Remaining is the unallocated slice of the budget.
func (b *Budget) Remaining() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return BudgetFor(b.levelIndex) - b.spentLocked()
}

// Get returns the points allocated to one stat.
func (b *Budget) Get(key string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.alloc[key]
}

// All returns a copy of the allocation map.
func (b *Budget) All() map[string]int {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make(map[string]int, len(b.alloc))
	for k, v := range b.alloc {
		out[k] = v
	}
	return out
}

// Increment spends one point on a stat. Returns false, without change,
// when the key is unknown or the budget is exhausted.
func (b *Budget) Increment(key string) bool {
	b.mu.Lock()
	if !b.known(key) || b.spentLocked() >= BudgetFor(b.levelIndex) {
		b.mu.Unlock()
		return false
	}
	b.alloc[key]++
	b.mu.Unlock()
	b.persist()
	return true
}

// Decrement refunds one point from a stat. Returns false, without
// change, when nothing is allocated there.
func (b *Budget) Decrement(key string) bool {
	b.mu.Lock()
	if b.alloc[key] <= 0 {
		b.mu.Unlock()
		return false
	}
	b.alloc[key]--
	if b.alloc[key] == 0 {
		delete(b.alloc, key)
	}
	b.mu.Unlock()
	b.persist()
	return true
}

// OnLevelChange reconciles allocations with the new budget. Allocations
// under the cap are kept as-is; overflow is refunded point by point from
// the last stat in catalog order, so the earliest investments survive a
// level drop.
func (b *Budget) OnLevelChange(ev events.LevelChange) {
	b.mu.Lock()
	b.levelIndex = ev.LevelIndex
	changed := b.trimLocked()
	b.mu.Unlock()
	if changed {
		b.persist()
	}
}

func (b *Budget) trimLocked() bool {
	limit := BudgetFor(b.levelIndex)
	changed := false
	for b.spentLocked() > limit {
		k, ok := b.lastAllocatedLocked()
		if !ok {
			break
		}
		b.alloc[k]--
		if b.alloc[k] == 0 {
			delete(b.alloc, k)
		}
		changed = true
	}
	return changed
}

func (b *Budget) lastAllocatedLocked() (string, bool) {
	for i := len(b.keys) - 1; i >= 0; i-- {
		if b.alloc[b.keys[i]] > 0 {
			return b.keys[i], true
		}
	}
	return "", false
}

func (b *Budget) spentLocked() int {
	sum := 0
	for _, v := range b.alloc {
		sum += v
	}
	return sum
}

func (b *Budget) known(key string) bool {
	for _, k := range b.keys {
		if k == key {
			return true
		}
	}
	return false
}

func (b *Budget) persist() {
	b.store.SaveAllocations(b.All())
}
