// File: internal/driver/surface.go
// Description: Surface is the set of UI primitives the field strategies are
// written against. The form is driven purely through simulated input; the
// only DOM-level touches are the start control and the file input.
package driver

import (
	"context"
	"errors"
	"time"
)

// Sentinel outcomes for the non-fatal driver paths.
var (
	// ErrStartNotFound reports that every start-control click strategy was
	// exhausted. Forms without a welcome screen hit this routinely.
	ErrStartNotFound = errors.New("start control not found")
	// ErrNoAcknowledgment reports that the success acknowledgment did not show
	// up within the bounded wait after submission.
	ErrNoAcknowledgment = errors.New("no submission acknowledgment detected")
)

// Surface abstracts the UI interactions a strategy can emit. The concrete
// implementation dispatches keyboard events into a browser tab; tests use a
// recording fake. Keeping the index-to-key translation behind this boundary
// makes the per-type interaction policy swappable without touching the
// traversal logic.
type Surface interface {
	// TypeText types the string into the focused control, key by key.
	TypeText(ctx context.Context, text string) error
	// PressKey presses a single key, e.g. "a", "2", "Tab".
	PressKey(ctx context.Context, key string) error
	// Advance commits the current field and moves to the next one, then lets
	// the UI settle.
	Advance(ctx context.Context) error
	// MoveDown presses the move-down key inside an open list control.
	MoveDown(ctx context.Context) error
	// AttachFile sets the form's file input to the given local path.
	AttachFile(ctx context.Context, path string) error
	// Submit emits the final-submit chord.
	Submit(ctx context.Context) error
	// Pause sleeps a randomized interval in [min, max] to approximate human
	// pacing.
	Pause(ctx context.Context, min, max time.Duration) error
}
