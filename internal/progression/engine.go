package progression

import (
	"sync"

	"panelforge/internal/events"
)

// State is the persisted progression record. LevelIndex is always the
// value Derive produces for TotalResource against the current schedule,
// never independently set.
type State struct {
	TotalResource float64 `json:"totalExp"`
	LevelIndex    int     `json:"levelIndex"`
}

// Store is the slice of the persistence façade the engine needs.
type Store interface {
	LoadProgression() (State, bool)
	SaveProgression(State)
}

// Derived is the full result of a level derivation.
type Derived struct {
	Level      int
	LevelIndex int
	ExpInto    float64
	ReqForNext float64
	Total      float64
}

// Derive walks the per-step threshold schedule from level 1. A positive
// affordable cost is consumed and advances one level. A non-positive cost
// is malformed data-sheet noise: it never consumes resource and never
// blocks, but is only stepped past once the next positive cost is
// affordable; stepped-past entries still count one level each, keeping
// level numbers aligned with schedule positions. ReqForNext reports the
// raw cost at the current level's position, 0 when absent or malformed
// (which renders as the max-level state).
func Derive(total float64, thresholds []float64) Derived {
	if total < 0 {
		total = 0
	}
	level := 1
	remaining := total
	i := 0
	for i < len(thresholds) {
		cost := thresholds[i]
		if cost > 0 {
			if remaining < cost {
				break
			}
			remaining -= cost
			level++
			i++
			continue
		}
		j := i + 1
		for j < len(thresholds) && thresholds[j] <= 0 {
			j++
		}
		if j >= len(thresholds) || remaining < thresholds[j] {
			break
		}
		level += j - i
		i = j
	}
	req := 0.0
	if level-1 < len(thresholds) && thresholds[level-1] > 0 {
		req = thresholds[level-1]
	}
	return Derived{
		Level:      level,
		LevelIndex: level - 1,
		ExpInto:    remaining,
		ReqForNext: req,
		Total:      total,
	}
}

// CumulativeForLevel is the minimum total resource yielding levelIndex:
// the sum of the positive costs of every earlier step. Malformed steps
// cost nothing, consistent with Derive.
func CumulativeForLevel(levelIndex int, thresholds []float64) float64 {
	sum := 0.0
	for i := 0; i < levelIndex && i < len(thresholds); i++ {
		if thresholds[i] > 0 {
			sum += thresholds[i]
		}
	}
	return sum
}

// Engine drives the persisted progression state and emits level-change
// notifications. An empty schedule pins level 1 with ReqForNext 0.
type Engine struct {
	mu         sync.Mutex
	store      Store
	bus        *events.Bus
	thresholds []float64
	last       State
	haveLast   bool
	prevIndex  int

	// evalMu serializes whole derive-save-publish cycles so the persisted
	// record always trails the in-memory state in the same order. mu is
	// released before the save and publish, so level subscribers may call
	// the read side of the engine but must not mutate it.
	evalMu sync.Mutex
}

func NewEngine(store Store, bus *events.Bus) *Engine {
	return &Engine{store: store, bus: bus, prevIndex: -1}
}

// Load restores persisted progression and re-evaluates it against the
// current schedule. A schedule that shifted since last session produces a
// level-change notification like any other re-evaluation. Until Load has
// run, mutations derive without persisting, so a stored record is never
// clobbered by bootstrap defaults.
func (e *Engine) Load() Derived {
	st, ok := e.store.LoadProgression()
	e.mu.Lock()
	e.last = st
	e.haveLast = true
	if ok {
		e.prevIndex = st.LevelIndex
	}
	total := st.TotalResource
	e.mu.Unlock()
	return e.evaluate(total)
}

// SetThresholds installs a new schedule and re-evaluates.
func (e *Engine) SetThresholds(thresholds []float64) Derived {
	e.mu.Lock()
	e.thresholds = append([]float64(nil), thresholds...)
	total := e.last.TotalResource
	e.mu.Unlock()
	return e.evaluate(total)
}

// Thresholds returns a copy of the active schedule.
func (e *Engine) Thresholds() []float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]float64(nil), e.thresholds...)
}

// SetTotal replaces the cumulative resource counter.
func (e *Engine) SetTotal(total float64) Derived {
	if total < 0 {
		total = 0
	}
	return e.evaluate(total)
}

// Add applies a delta to the counter, floored at zero.
func (e *Engine) Add(delta float64) Derived {
	e.mu.Lock()
	total := e.last.TotalResource + delta
	e.mu.Unlock()
	if total < 0 {
		total = 0
	}
	return e.evaluate(total)
}

// SelectLevel jumps to the minimum total resource yielding the given
// level index; the level itself is never set directly.
func (e *Engine) SelectLevel(levelIndex int) Derived {
	if levelIndex < 0 {
		levelIndex = 0
	}
	e.mu.Lock()
	min := CumulativeForLevel(levelIndex, e.thresholds)
	e.mu.Unlock()
	return e.evaluate(min)
}

// Current re-derives without mutating anything.
func (e *Engine) Current() Derived {
	e.mu.Lock()
	defer e.mu.Unlock()
	return Derive(e.last.TotalResource, e.thresholds)
}

func (e *Engine) evaluate(total float64) Derived {
	e.evalMu.Lock()
	defer e.evalMu.Unlock()

	e.mu.Lock()
	d := Derive(total, e.thresholds)
	dirty := e.haveLast && (e.last.TotalResource != total || e.last.LevelIndex != d.LevelIndex)
	prev := e.prevIndex
	if dirty {
		e.last = State{TotalResource: total, LevelIndex: d.LevelIndex}
		e.prevIndex = d.LevelIndex
	}
	e.mu.Unlock()

	if dirty {
		e.store.SaveProgression(State{TotalResource: total, LevelIndex: d.LevelIndex})
		e.bus.PublishLevel(events.LevelChange{
			LevelIndex:    d.LevelIndex,
			PreviousIndex: prev,
			Level:         d.Level,
		})
	}
	return d
}
