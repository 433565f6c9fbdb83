// Package history implements undo/redo for the editor buffer.
//
// Entries store reversible deltas rather than full snapshots: each entry
// holds the delta that turns the text before the edit into the text after
// it, and the delta that turns it back. Applying a delta to any other text
// fails, so undo and redo always reconstruct the exact buffer.
package history

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// Common errors for history operations.
var (
	ErrNothingToUndo = errors.New("nothing to undo")
	ErrNothingToRedo = errors.New("nothing to redo")
)

const (
	DefaultLimit          = 200
	DefaultCoalesceWindow = time.Second
)

// Kind classifies a recorded edit.
type Kind uint8

const (
	// KindTyping edits may be merged with the previous typing entry.
	KindTyping Kind = iota
	KindReplace
	KindTemplate
	KindOther
)

func (k Kind) String() string {
	switch k {
	case KindTyping:
		return "typing"
	case KindReplace:
		return "replace"
	case KindTemplate:
		return "template"
	}
	return "other"
}

type entry struct {
	kind Kind
	// undo turns the text after the edit into the text before it; redo is
	// the reverse.
	undo string
	redo string
	at   time.Time
	data any
}

// Step is an entry that was undone or redone.
type Step struct {
	Text string
	Kind Kind
	// Data is the value attached by RecordWith, or nil.
	Data any
}

// History is an undo/redo stack over one buffer.
type History struct {
	mu sync.Mutex

	dmp     *diffmatchpatch.DiffMatchPatch
	undo    []entry
	redo    []entry
	current string
	// sealed blocks coalescing into the top entry
	sealed bool

	limit  int
	window time.Duration
	now    func() time.Time
}

// Option configures a History.
type Option func(*History)

// WithLimit bounds the number of undo entries. Oldest entries are dropped.
func WithLimit(n int) Option {
	return func(h *History) {
		if n > 0 {
			h.limit = n
		}
	}
}

// WithCoalesceWindow sets the inactivity window within which typing
// edits merge into one entry. Zero disables coalescing.
func WithCoalesceWindow(d time.Duration) Option {
	return func(h *History) {
		if d >= 0 {
			h.window = d
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(h *History) {
		if now != nil {
			h.now = now
		}
	}
}

// New creates a history whose baseline is the given text.
func New(baseline string, opts ...Option) *History {
	h := &History{
		dmp:     diffmatchpatch.New(),
		current: baseline,
		sealed:  true,
		limit:   DefaultLimit,
		window:  DefaultCoalesceWindow,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Reset drops all entries and makes text the new baseline.
func (h *History) Reset(text string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.undo = nil
	h.redo = nil
	h.current = text
	h.sealed = true
}

// Current returns the text the history believes is in the buffer.
func (h *History) Current() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.current
}

// Record registers an edit that changed the buffer from its current text
// to after. The redo tail is cleared. Recording identical text is a no-op.
func (h *History) Record(after string, kind Kind) {
	h.RecordWith(after, kind, nil)
}

// RecordWith is Record with a value attached to the new entry. Entries
// carrying data never absorb later typing.
func (h *History) RecordWith(after string, kind Kind, data any) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if after == h.current {
		return
	}
	now := h.now()
	h.redo = nil

	if kind == KindTyping && data == nil && h.canCoalesce(now) {
		top := &h.undo[len(h.undo)-1]
		before, err := h.apply(h.current, top.undo)
		if err == nil {
			top.undo = h.delta(after, before)
			top.redo = h.delta(before, after)
			top.at = now
			h.current = after
			return
		}
	}

	h.undo = append(h.undo, entry{
		kind: kind,
		undo: h.delta(after, h.current),
		redo: h.delta(h.current, after),
		at:   now,
		data: data,
	})
	if len(h.undo) > h.limit {
		excess := len(h.undo) - h.limit
		h.undo = h.undo[excess:]
	}
	h.current = after
	h.sealed = kind != KindTyping || data != nil
}

// Seal ends the current typing group so the next typing edit starts a
// new entry.
func (h *History) Seal() {
	h.mu.Lock()
	h.sealed = true
	h.mu.Unlock()
}

func (h *History) canCoalesce(now time.Time) bool {
	if h.sealed || h.window == 0 || len(h.undo) == 0 {
		return false
	}
	top := h.undo[len(h.undo)-1]
	return top.kind == KindTyping && now.Sub(top.at) <= h.window
}

// Undo steps back one entry and returns the restored text. It reports
// false, leaving everything unchanged, when there is nothing to undo.
func (h *History) Undo() (string, bool) {
	st, ok := h.UndoStep()
	return st.Text, ok
}

// Redo re-applies the most recently undone entry.
func (h *History) Redo() (string, bool) {
	st, ok := h.RedoStep()
	return st.Text, ok
}

// UndoStep is Undo that also reports the kind and data of the entry.
func (h *History) UndoStep() (Step, bool) {
	st, err := h.step(&h.undo, &h.redo, func(e entry) string { return e.undo }, ErrNothingToUndo)
	return st, err == nil
}

// RedoStep is Redo that also reports the kind and data of the entry.
func (h *History) RedoStep() (Step, bool) {
	st, err := h.step(&h.redo, &h.undo, func(e entry) string { return e.redo }, ErrNothingToRedo)
	return st, err == nil
}

func (h *History) step(from, to *[]entry, pick func(entry) string, empty error) (Step, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if len(*from) == 0 {
		return Step{Text: h.current}, empty
	}
	i := len(*from) - 1
	e := (*from)[i]
	text, err := h.apply(h.current, pick(e))
	if err != nil {
		// The stack no longer matches the buffer; it cannot be trusted.
		h.undo, h.redo = nil, nil
		return Step{Text: h.current}, err
	}
	*from = (*from)[:i]
	*to = append(*to, e)
	h.current = text
	h.sealed = true
	return Step{Text: text, Kind: e.kind, Data: e.data}, nil
}

// CanUndo reports whether Undo would change the buffer.
func (h *History) CanUndo() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.undo) > 0
}

// CanRedo reports whether Redo would change the buffer.
func (h *History) CanRedo() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.redo) > 0
}

// Len returns the undo depth.
func (h *History) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.undo)
}

// RedoLen returns the redo depth.
func (h *History) RedoLen() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.redo)
}

func (h *History) delta(from, to string) string {
	return h.dmp.DiffToDelta(h.dmp.DiffMain(from, to, false))
}

func (h *History) apply(text, delta string) (string, error) {
	diffs, err := h.dmp.DiffFromDelta(text, delta)
	if err != nil {
		return "", fmt.Errorf("failed to apply history delta: %w", err)
	}
	return h.dmp.DiffText2(diffs), nil
}
