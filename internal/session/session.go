// Package session owns the live editing state for one user: the ordered
// image collection, the selection over it, and the drag gesture engine.
// It serializes all mutations and launches export jobs one at a time.
package session

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/local/pagebinder/internal/assemble"
	"github.com/local/pagebinder/internal/collection"
	"github.com/local/pagebinder/internal/reorder"
	"github.com/local/pagebinder/internal/store"
)

// ErrExportInFlight is returned when an export is requested while another
// one is still running. Re-entrant exports are rejected, never interleaved.
var ErrExportInFlight = errors.New("an export is already in flight")

// CompletionFunc is invoked exactly once per export job, after terminal
// status is recorded. The caller decides how to surface it.
type CompletionFunc func(jobID string, result assemble.Result, err error)

// Runner executes one export job. *assemble.Assembler is the production
// implementation.
type Runner interface {
	Run(ctx context.Context, locations []string, dest string, notify assemble.Notifier) (assemble.Result, error)
}

// Session holds one user's editing state. All collection and selection
// mutations go through the session mutex; the export worker only ever sees
// an immutable snapshot taken at job start.
type Session struct {
	mu   sync.Mutex
	coll *collection.Collection
	sel  *collection.Selection
	gest *reorder.Engine

	asm       Runner
	status    store.StatusStore
	exporting atomic.Bool
	onDone    CompletionFunc
}

// New creates a session with an empty collection.
func New(mode collection.Mode, asm Runner, status store.StatusStore, onDone CompletionFunc) *Session {
	return &Session{
		coll:   collection.New(),
		sel:    collection.NewSelection(mode),
		gest:   reorder.NewEngine(0),
		asm:    asm,
		status: status,
		onDone: onDone,
	}
}

// SetImages replaces the whole collection and clears the selection.
func (s *Session) SetImages(locations []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.coll.Set(locations)
	s.sel.Clear()
}

// AddImage appends a single location unless already present.
func (s *Session) AddImage(location string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.coll.Add(location)
}

// Remove deletes the entries at indices and remaps the selection. Returns
// the number of entries actually removed; out-of-range indices are ignored.
func (s *Session) Remove(indices []int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := s.coll.RemoveAt(indices)
	s.sel.ApplyRemove(removed)
	return len(removed)
}

// Move relocates one entry and remaps the selection. Returns false for
// no-op requests (equal or out-of-range indices).
func (s *Session) Move(from, to int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.coll.MoveTo(from, to) {
		return false
	}
	s.sel.ApplyMove(from, to)
	return true
}

// Select marks idx selected under the session's selection discipline.
func (s *Session) Select(idx int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if idx < 0 || idx >= s.coll.Len() {
		return
	}
	s.sel.Select(idx)
}

// Toggle flips idx in the selection.
func (s *Session) Toggle(idx int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if idx < 0 || idx >= s.coll.Len() {
		return
	}
	s.sel.Toggle(idx)
}

// SelectAll selects every entry.
func (s *Session) SelectAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sel.SelectAll(s.coll.Len())
}

// ClearSelection empties the selection.
func (s *Session) ClearSelection() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sel.Clear()
}

// Locations returns the current page order.
func (s *Session) Locations() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.coll.Locations()
}

// Selection returns the selected positions in ascending order.
func (s *Session) Selection() []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sel.Indices()
}

// Press starts a drag gesture on the item at index.
func (s *Session) Press(index int, x, y float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if index < 0 || index >= s.coll.Len() {
		return
	}
	s.gest.Press(index, x, y)
}

// Drag updates the gesture and returns the prospective drop index, or -1
// while the pointer is still within the jitter threshold.
func (s *Session) Drag(x, y float64, layout reorder.Layout) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gest.Move(x, y, layout, s.coll.Len())
}

// Release completes the gesture, applying a move or a click-select.
func (s *Session) Release(x, y float64, layout reorder.Layout) (reorder.Outcome, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gest.Release(x, y, layout, s.coll, s.sel)
}

// Export launches one export job over a snapshot of the current order.
// A second call while a job is in flight returns ErrExportInFlight. There is
// no cancellation: a started job runs to completion or failure.
func (s *Session) Export(ctx context.Context, dest string) (string, error) {
	if !s.exporting.CompareAndSwap(false, true) {
		return "", ErrExportInFlight
	}

	s.mu.Lock()
	snapshot := s.coll.Locations()
	s.mu.Unlock()

	if len(snapshot) == 0 {
		s.exporting.Store(false)
		return "", &assemble.ValidationError{Message: "no images to export"}
	}

	jobID := uuid.NewString()
	start := time.Now()
	_ = s.status.Set(ctx, jobID, store.Status{
		Status: "queued", Message: "queued", Start: &start,
		Metadata: map[string]interface{}{"images": len(snapshot), "dest": dest},
	})
	log.Info().Str("job_id", jobID).Int("images", len(snapshot)).Str("dest", dest).Msg("export job created")

	go s.runExport(jobID, snapshot, dest, start)
	return jobID, nil
}

// Exporting reports whether a job is currently in flight.
func (s *Session) Exporting() bool { return s.exporting.Load() }

func (s *Session) runExport(jobID string, snapshot []string, dest string, start time.Time) {
	defer s.exporting.Store(false)

	// Detached from the request context: a started job is not cancellable.
	ctx := context.Background()

	notify := func(p assemble.Progress) {
		st := store.Status{
			Status:   string(p.State),
			Progress: p.Percent,
			Message:  p.Message,
			Start:    &start,
			// kept on every update so a finished job still records where
			// its document was delivered
			Metadata: map[string]interface{}{"images": len(snapshot), "dest": dest},
		}
		if p.State == assemble.StateDone || p.State == assemble.StateFailed {
			end := time.Now()
			st.End = &end
		}
		_ = s.status.Set(ctx, jobID, st)
	}

	result, err := s.asm.Run(ctx, snapshot, dest, notify)
	if s.onDone != nil {
		s.onDone(jobID, result, err)
	}
}
