package snapshot

import (
	"time"

	"github.com/google/uuid"

	"panelforge/internal/boxes"
	"panelforge/internal/grid"
)

// Snapshot is a point-in-time copy of all placement state. Immutable once
// stored, except for schema normalization filling missing fields.
type Snapshot struct {
	ID    string                    `json:"id"`
	TS    time.Time                 `json:"ts"`
	Boxes map[string]boxes.Record   `json:"boxes"`
	Items map[string]grid.Placement `json:"items"`
}

// Kind distinguishes the manual slot from the automatic ring.
type Kind string

const (
	KindManual Kind = "manual"
	KindAuto   Kind = "auto"
)

// Entry pairs a snapshot with where it lives; Kind+ID is the stable
// composite selection key.
type Entry struct {
	Kind Kind
	Snap Snapshot
}

// Normalize fills missing id/ts and nil maps on a possibly-partial or
// legacy record. The changed flag lets callers persist only when a repair
// actually happened.
func Normalize(raw Snapshot, now time.Time) (Snapshot, bool) {
	changed := false
	if raw.ID == "" {
		raw.ID = uuid.NewString()
		changed = true
	}
	if raw.TS.IsZero() {
		raw.TS = now
		changed = true
	}
	if raw.Boxes == nil {
		raw.Boxes = map[string]boxes.Record{}
		changed = true
	}
	if raw.Items == nil {
		raw.Items = map[string]grid.Placement{}
		changed = true
	}
	return raw, changed
}
