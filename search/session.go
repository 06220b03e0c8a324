package search

import (
	"context"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"github.com/mhelbo/gidasclient/transport"
)

// Defaults for the full search surface. Suggestion lookups use the
// tighter SuggestionConfig values.
const (
	DefaultDebounce  = 300 * time.Millisecond
	DefaultMinLength = 2

	SuggestionDebounce  = 200 * time.Millisecond
	SuggestionMinLength = 1
)

// Searcher issues one search query and returns its ordered results.
// Implementations are typically a closure over the request coordinator
// and the fetch package's search envelope helpers.
type Searcher[T any] func(ctx context.Context, query string) ([]T, error)

// Phase is the lifecycle of the current query.
type Phase int

const (
	// PhaseIdle means no query is active (empty or below the gate).
	PhaseIdle Phase = iota

	// PhasePending means the debounce timer is armed.
	PhasePending

	// PhaseInFlight means the debounced query is on the network.
	PhaseInFlight

	// PhaseSettled means the latest query resolved, with results or an
	// error.
	PhaseSettled
)

func (p Phase) String() string {
	switch p {
	case PhasePending:
		return "pending"
	case PhaseInFlight:
		return "in-flight"
	case PhaseSettled:
		return "settled"
	default:
		return "idle"
	}
}

// Config configures a Session.
type Config[T any] struct {
	// Debounce is the quiet window after the last keystroke before a
	// query is issued. Default: DefaultDebounce.
	Debounce time.Duration

	// MinLength is the minimum query length (in runes) before any
	// request is issued. Default: DefaultMinLength.
	MinLength int

	// OnChange is invoked with a snapshot after every committed
	// transition. Optional.
	OnChange func(Snapshot[T])

	// Logger receives debug-level session logs. Disabled when unset.
	Logger zerolog.Logger
}

// SuggestionConfig returns the preset for lightweight autocomplete
// lookups: a shorter window and a single-rune gate.
func SuggestionConfig[T any]() Config[T] {
	return Config[T]{Debounce: SuggestionDebounce, MinLength: SuggestionMinLength}
}

// Snapshot is the render state of a search widget.
//
// SelectedIndex is always within [-1, len(Results)-1]; -1 means nothing
// highlighted. Err is set when the latest query settled with a failure.
type Snapshot[T any] struct {
	RawQuery       string
	DebouncedQuery string
	Results        []T
	SelectedIndex  int
	Open           bool
	Phase          Phase
	Err            *transport.Error
}

// Session is the per-widget search controller.
type Session[T any] struct {
	searcher Searcher[T]
	ctx      context.Context
	cfg      Config[T]
	log      zerolog.Logger

	mu        sync.Mutex
	raw       string
	debounced string
	results   []T
	selected  int
	open      bool
	focused   bool
	phase     Phase
	err       *transport.Error
	gen       uint64
	timer     *time.Timer
	closed    bool
}

// NewSession creates a search session. ctx is the base context for every
// query the session issues; cancelling it stops in-flight work from
// committing.
func NewSession[T any](ctx context.Context, searcher Searcher[T], cfg Config[T]) *Session[T] {
	// Apply defaults
	if cfg.Debounce <= 0 {
		cfg.Debounce = DefaultDebounce
	}
	if cfg.MinLength <= 0 {
		cfg.MinLength = DefaultMinLength
	}

	return &Session[T]{
		searcher: searcher,
		ctx:      ctx,
		cfg:      cfg,
		log:      cfg.Logger,
		selected: -1,
		phase:    PhaseIdle,
	}
}

// SetQuery records a keystroke. Any pending debounce timer is re-armed
// and any in-flight query is superseded: its response will be discarded
// when it lands. Below the minimum length no request is issued and the
// results are cleared.
func (s *Session[T]) SetQuery(q string) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.raw = q
	s.focused = true
	s.gen++
	gen := s.gen
	s.stopTimerLocked()

	if utf8.RuneCountInString(q) < s.cfg.MinLength {
		s.debounced = ""
		s.setResultsLocked(nil)
		s.open = false
		s.phase = PhaseIdle
		s.err = nil
		snapshot := s.snapshotLocked()
		s.mu.Unlock()
		s.notify(snapshot)
		return
	}

	s.phase = PhasePending
	s.timer = time.AfterFunc(s.cfg.Debounce, func() { s.fire(gen) })
	snapshot := s.snapshotLocked()
	s.mu.Unlock()
	s.notify(snapshot)
}

// fire runs when the debounce window elapses without another keystroke.
func (s *Session[T]) fire(gen uint64) {
	s.mu.Lock()
	if s.closed || gen != s.gen {
		s.mu.Unlock()
		return
	}
	query := s.raw
	s.debounced = query
	s.phase = PhaseInFlight
	snapshot := s.snapshotLocked()
	s.mu.Unlock()
	s.notify(snapshot)

	results, err := s.searcher(s.ctx, query)

	s.mu.Lock()
	if s.closed || gen != s.gen {
		// The query changed while this response was in flight.
		s.mu.Unlock()
		s.log.Debug().Str("query", query).Msg("stale response discarded")
		return
	}
	s.phase = PhaseSettled
	if err != nil {
		s.err = transport.Classify(err)
		s.log.Debug().Str("query", query).Str("kind", s.err.Kind.String()).Msg("search failed")
	} else {
		s.err = nil
		s.setResultsLocked(results)
		s.open = s.focused
	}
	snapshot = s.snapshotLocked()
	s.mu.Unlock()
	s.notify(snapshot)
}

// MoveDown moves the selection cursor down one result, clamped to the
// last result. No wraparound.
func (s *Session[T]) MoveDown() {
	s.moveSelection(1)
}

// MoveUp moves the selection cursor up one result, clamped to the first
// result. No wraparound.
func (s *Session[T]) MoveUp() {
	s.moveSelection(-1)
}

func (s *Session[T]) moveSelection(delta int) {
	s.mu.Lock()
	if len(s.results) == 0 {
		s.mu.Unlock()
		return
	}
	next := s.selected + delta
	if next < 0 {
		next = 0
	}
	if next > len(s.results)-1 {
		next = len(s.results) - 1
	}
	s.selected = next
	snapshot := s.snapshotLocked()
	s.mu.Unlock()
	s.notify(snapshot)
}

// Select returns the highlighted result. The second return is false when
// nothing is highlighted.
func (s *Session[T]) Select() (T, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.selected < 0 || s.selected >= len(s.results) {
		var zero T
		return zero, false
	}
	return s.results[s.selected], true
}

// Escape closes the result surface and clears the highlight. The typed
// text is kept.
func (s *Session[T]) Escape() {
	s.mu.Lock()
	s.open = false
	s.selected = -1
	snapshot := s.snapshotLocked()
	s.mu.Unlock()
	s.notify(snapshot)
}

// Focus re-opens the result surface when results are available for the
// current query.
func (s *Session[T]) Focus() {
	s.mu.Lock()
	s.focused = true
	if len(s.results) > 0 && utf8.RuneCountInString(s.raw) >= s.cfg.MinLength {
		s.open = true
	}
	snapshot := s.snapshotLocked()
	s.mu.Unlock()
	s.notify(snapshot)
}

// Blur closes the result surface without clearing the typed text.
func (s *Session[T]) Blur() {
	s.mu.Lock()
	s.focused = false
	s.open = false
	snapshot := s.snapshotLocked()
	s.mu.Unlock()
	s.notify(snapshot)
}

// Clear resets the whole session, as when the widget is closed.
func (s *Session[T]) Clear() {
	s.mu.Lock()
	s.gen++
	s.stopTimerLocked()
	s.raw = ""
	s.debounced = ""
	s.setResultsLocked(nil)
	s.open = false
	s.phase = PhaseIdle
	s.err = nil
	snapshot := s.snapshotLocked()
	s.mu.Unlock()
	s.notify(snapshot)
}

// Close permanently detaches the session. Pending timers are stopped and
// in-flight responses are discarded. Idempotent.
func (s *Session[T]) Close() {
	s.mu.Lock()
	s.closed = true
	s.gen++
	s.stopTimerLocked()
	s.mu.Unlock()
}

// Snapshot returns the current render state. The results slice is shared
// with the session and must be treated as read-only.
func (s *Session[T]) Snapshot() Snapshot[T] {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// setResultsLocked replaces the result list and resets the cursor, which
// is tied to the list's identity. Caller holds s.mu.
func (s *Session[T]) setResultsLocked(results []T) {
	s.results = results
	s.selected = -1
}

func (s *Session[T]) stopTimerLocked() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

func (s *Session[T]) snapshotLocked() Snapshot[T] {
	return Snapshot[T]{
		RawQuery:       s.raw,
		DebouncedQuery: s.debounced,
		Results:        s.results,
		SelectedIndex:  s.selected,
		Open:           s.open,
		Phase:          s.phase,
		Err:            s.err,
	}
}

func (s *Session[T]) notify(snapshot Snapshot[T]) {
	if s.cfg.OnChange != nil {
		s.cfg.OnChange(snapshot)
	}
}
