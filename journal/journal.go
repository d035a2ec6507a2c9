// Package journal is the append-only audit log of the token engine. Every
// state-changing operation records a typed event carrying the resulting
// values, so an external reader can reconstruct balances, tax flows, and
// policy decisions without access to in-memory state.
package journal

import (
	"context"

	"github.com/google/uuid"
)

// Event is a single journal record. Seq is assigned by the store and is
// strictly increasing per stream, starting at 1.
type Event struct {
	ID     string         `json:"id"`
	Stream string         `json:"stream"`
	Seq    int            `json:"seq"`
	Type   string         `json:"type"`
	Block  uint64         `json:"block"`
	Time   uint64         `json:"time"`
	Data   map[string]any `json:"data,omitempty"`
}

// NewEvent builds an unsequenced event with a fresh random ID. Amount values
// in Data should be decimal strings; large integers do not survive JSON
// number encoding.
func NewEvent(stream, eventType string, block, now uint64, data map[string]any) *Event {
	return &Event{
		ID:     uuid.NewString(),
		Stream: stream,
		Type:   eventType,
		Block:  block,
		Time:   now,
		Data:   data,
	}
}

// Filter selects events for Store.ReadAll. Zero-valued fields match
// everything.
type Filter struct {
	// Stream restricts results to a single stream.
	Stream string
	// Types restricts results to the given event types.
	Types []string
	// FromBlock drops events below the given block height.
	FromBlock uint64
}

// Match reports whether the event passes the filter.
func (f Filter) Match(e *Event) bool {
	if f.Stream != "" && e.Stream != f.Stream {
		return false
	}
	if e.Block < f.FromBlock {
		return false
	}
	if len(f.Types) > 0 {
		found := false
		for _, t := range f.Types {
			if e.Type == t {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// Store persists events. Implementations assign Seq on append and preserve
// global append order for ReadAll.
type Store interface {
	// Append atomically appends events to their streams, assigning each a
	// per-stream sequence number.
	Append(ctx context.Context, events ...*Event) error

	// Read returns the events of one stream with Seq >= from, in sequence
	// order. A missing stream yields an empty result, not an error.
	Read(ctx context.Context, stream string, from int) ([]*Event, error)

	// ReadAll returns every stored event passing the filter, in global
	// append order.
	ReadAll(ctx context.Context, filter Filter) ([]*Event, error)

	// StreamSeq returns the highest sequence number of a stream, or 0 when
	// the stream has no events.
	StreamSeq(ctx context.Context, stream string) (int, error)

	// Close releases the store's resources.
	Close() error
}

// Recorder is the narrow emission interface handed to components that only
// write events. Emit is best-effort: persistence failures are retained by the
// implementation rather than failing the operation that emitted.
type Recorder interface {
	Emit(eventType string, data map[string]any)
}

// NopRecorder discards every event. It stands in when no journal is
// configured.
type NopRecorder struct{}

// Emit discards the event.
func (NopRecorder) Emit(string, map[string]any) {}
