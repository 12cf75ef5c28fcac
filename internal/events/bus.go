package events

import "sync"

// EquipmentChange reports an item entering or leaving a container slot.
type EquipmentChange struct {
	ItemID   string
	ItemType string
	Equipped bool
	SlotType string
}

// LevelChange reports a re-derived progression level.
type LevelChange struct {
	LevelIndex    int
	PreviousIndex int
	Level         int
}

// Bus is a typed broadcast bus with a replay backlog: events published
// before a subscriber attaches are delivered to it on subscribe, in
// emission order, so late consumers still see every transition.
type Bus struct {
	mu        sync.Mutex
	equipSubs []func(EquipmentChange)
	levelSubs []func(LevelChange)
	backlog   []any
}

func NewBus() *Bus { return &Bus{} }

// PublishEquipment broadcasts to current subscribers and appends to the
// replay backlog.
func (b *Bus) PublishEquipment(ev EquipmentChange) {
	b.mu.Lock()
	subs := append(([]func(EquipmentChange))(nil), b.equipSubs...)
	b.backlog = append(b.backlog, ev)
	b.mu.Unlock()
	for _, fn := range subs {
		fn(ev)
	}
}

// PublishLevel broadcasts to current subscribers and appends to the
// replay backlog.
func (b *Bus) PublishLevel(ev LevelChange) {
	b.mu.Lock()
	subs := append(([]func(LevelChange))(nil), b.levelSubs...)
	b.backlog = append(b.backlog, ev)
	b.mu.Unlock()
	for _, fn := range subs {
		fn(ev)
	}
}

// SubscribeEquipment registers fn and immediately replays the backlog of
// equipment events to it.
func (b *Bus) SubscribeEquipment(fn func(EquipmentChange)) {
	b.mu.Lock()
	b.equipSubs = append(b.equipSubs, fn)
	backlog := append([]any(nil), b.backlog...)
	b.mu.Unlock()
	for _, ev := range backlog {
		if e, ok := ev.(EquipmentChange); ok {
			fn(e)
		}
	}
}

// SubscribeLevel registers fn and immediately replays the backlog of
// level events to it.
func (b *Bus) SubscribeLevel(fn func(LevelChange)) {
	b.mu.Lock()
	b.levelSubs = append(b.levelSubs, fn)
	backlog := append([]any(nil), b.backlog...)
	b.mu.Unlock()
	for _, ev := range backlog {
		if e, ok := ev.(LevelChange); ok {
			fn(e)
		}
	}
}
