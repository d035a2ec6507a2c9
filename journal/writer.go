package journal

import (
	"context"

	"github.com/VaultonCrypto/vaulton-token-sub001/chain"
)

// Writer stamps events with the environment's block and time and appends
// them to a store under a fixed stream. Emission never fails the caller;
// the first persistence error is retained and exposed via Err.
type Writer struct {
	store  Store
	env    chain.Env
	stream string
	err    error
}

// NewWriter binds a writer to a store, environment, and stream name.
func NewWriter(store Store, env chain.Env, stream string) *Writer {
	return &Writer{store: store, env: env, stream: stream}
}

// Emit records one event. A nil writer is a valid no-op receiver.
func (w *Writer) Emit(eventType string, data map[string]any) {
	if w == nil {
		return
	}
	e := NewEvent(w.stream, eventType, w.env.Block(), w.env.Now(), data)
	if err := w.store.Append(context.Background(), e); err != nil && w.err == nil {
		w.err = err
	}
}

// Err returns the first persistence error seen by Emit, if any.
func (w *Writer) Err() error {
	if w == nil {
		return nil
	}
	return w.err
}

// Stream returns the stream name events are appended under.
func (w *Writer) Stream() string { return w.stream }
