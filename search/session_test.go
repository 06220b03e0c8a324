package search

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mhelbo/gidasclient/transport"
)

type hit struct {
	ID   int
	Name string
}

// recordingSearcher counts queries and serves canned results.
type recordingSearcher struct {
	mu      sync.Mutex
	queries []string
	results map[string][]hit
	err     error
}

func (r *recordingSearcher) search(ctx context.Context, query string) ([]hit, error) {
	r.mu.Lock()
	r.queries = append(r.queries, query)
	results := r.results[query]
	err := r.err
	r.mu.Unlock()
	return results, err
}

func (r *recordingSearcher) calls() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.queries...)
}

func settledSession(t *testing.T, results []hit) *Session[hit] {
	t.Helper()
	searcher := &recordingSearcher{results: map[string][]hit{"sep": results}}
	s := NewSession(context.Background(), searcher.search, Config[hit]{Debounce: 10 * time.Millisecond})
	t.Cleanup(s.Close)

	s.SetQuery("sep")
	require.Eventually(t, func() bool {
		return s.Snapshot().Phase == PhaseSettled
	}, time.Second, time.Millisecond)
	return s
}

func TestSession_DebouncedBurst(t *testing.T) {
	searcher := &recordingSearcher{results: map[string][]hit{
		"sep": {{ID: 1, Name: "Separering Nord"}},
	}}
	s := NewSession(context.Background(), searcher.search, Config[hit]{Debounce: 80 * time.Millisecond})
	defer s.Close()

	// Three keystrokes inside one debounce window.
	s.SetQuery("s")
	time.Sleep(20 * time.Millisecond)
	s.SetQuery("se")
	time.Sleep(20 * time.Millisecond)
	s.SetQuery("sep")

	require.Eventually(t, func() bool {
		return s.Snapshot().Phase == PhaseSettled
	}, time.Second, time.Millisecond)

	assert.Equal(t, []string{"sep"}, searcher.calls(), "exactly one query, for the final text")
	snap := s.Snapshot()
	assert.Equal(t, "sep", snap.DebouncedQuery)
	assert.Len(t, snap.Results, 1)
}

func TestSession_MinLengthGate(t *testing.T) {
	searcher := &recordingSearcher{}
	s := NewSession(context.Background(), searcher.search, Config[hit]{Debounce: 10 * time.Millisecond, MinLength: 2})
	defer s.Close()

	s.SetQuery("s")
	time.Sleep(50 * time.Millisecond)

	assert.Empty(t, searcher.calls(), "below the gate no request is issued")
	snap := s.Snapshot()
	assert.Equal(t, PhaseIdle, snap.Phase)
	assert.Empty(t, snap.Results)
	assert.False(t, snap.Open)
}

func TestSession_GateClearsPreviousResults(t *testing.T) {
	s := settledSession(t, []hit{{ID: 1}, {ID: 2}})
	require.Len(t, s.Snapshot().Results, 2)

	// Deleting back below the gate clears the list.
	s.SetQuery("s")
	snap := s.Snapshot()
	assert.Empty(t, snap.Results)
	assert.Equal(t, -1, snap.SelectedIndex)
	assert.Equal(t, "", snap.DebouncedQuery)
}

func TestSession_StalenessDiscard(t *testing.T) {
	aStarted := make(chan struct{})
	releaseA := make(chan struct{})
	searcher := func(ctx context.Context, query string) ([]hit, error) {
		if query == "aa" {
			close(aStarted)
			<-releaseA
			return []hit{{ID: 1, Name: "old answer"}}, nil
		}
		return []hit{{ID: 2, Name: "current answer"}}, nil
	}

	s := NewSession(context.Background(), searcher, Config[hit]{Debounce: 10 * time.Millisecond})
	defer s.Close()

	s.SetQuery("aa")
	<-aStarted

	// The query moves on while "aa" is still in flight.
	s.SetQuery("ab")
	require.Eventually(t, func() bool {
		snap := s.Snapshot()
		return snap.Phase == PhaseSettled && len(snap.Results) == 1
	}, time.Second, time.Millisecond)
	require.Equal(t, "current answer", s.Snapshot().Results[0].Name)

	// The superseded response lands late and must be dropped.
	close(releaseA)
	time.Sleep(50 * time.Millisecond)

	snap := s.Snapshot()
	assert.Equal(t, "ab", snap.DebouncedQuery)
	require.Len(t, snap.Results, 1)
	assert.Equal(t, "current answer", snap.Results[0].Name, "stale response must never commit")
}

func TestSession_KeyboardBounds(t *testing.T) {
	s := settledSession(t, []hit{{ID: 1}, {ID: 2}, {ID: 3}})

	// Fresh results start unhighlighted.
	require.Equal(t, -1, s.Snapshot().SelectedIndex)

	s.MoveDown()
	assert.Equal(t, 0, s.Snapshot().SelectedIndex)

	// Clamped at the last result, no wraparound.
	for i := 0; i < 5; i++ {
		s.MoveDown()
	}
	assert.Equal(t, 2, s.Snapshot().SelectedIndex)

	// Clamped at the first result.
	for i := 0; i < 5; i++ {
		s.MoveUp()
	}
	assert.Equal(t, 0, s.Snapshot().SelectedIndex)
	s.MoveUp()
	assert.Equal(t, 0, s.Snapshot().SelectedIndex)
}

func TestSession_KeyboardNoResults(t *testing.T) {
	searcher := &recordingSearcher{}
	s := NewSession(context.Background(), searcher.search, Config[hit]{})
	defer s.Close()

	s.MoveDown()
	s.MoveUp()
	assert.Equal(t, -1, s.Snapshot().SelectedIndex)
}

func TestSession_Select(t *testing.T) {
	s := settledSession(t, []hit{{ID: 1, Name: "a"}, {ID: 2, Name: "b"}})

	// Nothing highlighted: no-op.
	_, ok := s.Select()
	assert.False(t, ok)

	s.MoveDown()
	s.MoveDown()
	got, ok := s.Select()
	require.True(t, ok)
	assert.Equal(t, 2, got.ID)
}

func TestSession_Escape(t *testing.T) {
	s := settledSession(t, []hit{{ID: 1}})
	s.MoveDown()
	require.True(t, s.Snapshot().Open)

	s.Escape()

	snap := s.Snapshot()
	assert.False(t, snap.Open)
	assert.Equal(t, -1, snap.SelectedIndex)
	assert.Equal(t, "sep", snap.RawQuery, "escape keeps the typed text")
	assert.Len(t, snap.Results, 1, "escape keeps the results")
}

func TestSession_BlurAndFocus(t *testing.T) {
	s := settledSession(t, []hit{{ID: 1}})

	s.Blur()
	snap := s.Snapshot()
	assert.False(t, snap.Open)
	assert.Equal(t, "sep", snap.RawQuery, "blur keeps the typed text")

	s.Focus()
	assert.True(t, s.Snapshot().Open, "focus re-opens when results exist")
}

func TestSession_FocusBelowGateStaysClosed(t *testing.T) {
	searcher := &recordingSearcher{}
	s := NewSession(context.Background(), searcher.search, Config[hit]{MinLength: 2})
	defer s.Close()

	s.SetQuery("s")
	s.Focus()
	assert.False(t, s.Snapshot().Open)
}

func TestSession_Clear(t *testing.T) {
	s := settledSession(t, []hit{{ID: 1}})
	s.MoveDown()

	s.Clear()

	snap := s.Snapshot()
	assert.Equal(t, "", snap.RawQuery)
	assert.Equal(t, "", snap.DebouncedQuery)
	assert.Empty(t, snap.Results)
	assert.Equal(t, -1, snap.SelectedIndex)
	assert.False(t, snap.Open)
	assert.Equal(t, PhaseIdle, snap.Phase)
}

func TestSession_SearchError(t *testing.T) {
	searcher := &recordingSearcher{err: errors.New("backend down")}
	s := NewSession(context.Background(), searcher.search, Config[hit]{Debounce: 10 * time.Millisecond})
	defer s.Close()

	s.SetQuery("sep")
	require.Eventually(t, func() bool {
		return s.Snapshot().Phase == PhaseSettled
	}, time.Second, time.Millisecond)

	snap := s.Snapshot()
	require.NotNil(t, snap.Err)
	assert.Equal(t, transport.KindUnknown, snap.Err.Kind)
}

func TestSession_SelectionResetsOnNewResults(t *testing.T) {
	searcher := &recordingSearcher{results: map[string][]hit{
		"sep": {{ID: 1}, {ID: 2}},
		"kl":  {{ID: 3}},
	}}
	s := NewSession(context.Background(), searcher.search, Config[hit]{Debounce: 10 * time.Millisecond})
	defer s.Close()

	s.SetQuery("sep")
	require.Eventually(t, func() bool { return len(s.Snapshot().Results) == 2 }, time.Second, time.Millisecond)
	s.MoveDown()
	require.Equal(t, 0, s.Snapshot().SelectedIndex)

	s.SetQuery("kl")
	require.Eventually(t, func() bool { return len(s.Snapshot().Results) == 1 }, time.Second, time.Millisecond)
	assert.Equal(t, -1, s.Snapshot().SelectedIndex, "new results reset the cursor")
}

func TestSession_CloseDiscardsInFlight(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	var commits atomic.Int64
	searcher := func(ctx context.Context, query string) ([]hit, error) {
		close(started)
		<-release
		return []hit{{ID: 1}}, nil
	}

	s := NewSession(context.Background(), searcher, Config[hit]{
		Debounce: 10 * time.Millisecond,
		OnChange: func(snap Snapshot[hit]) {
			if snap.Phase == PhaseSettled {
				commits.Add(1)
			}
		},
	})

	s.SetQuery("sep")
	<-started
	s.Close()
	close(release)
	time.Sleep(50 * time.Millisecond)

	assert.Zero(t, commits.Load(), "closed session must not commit")
}

func TestSuggestionConfig(t *testing.T) {
	cfg := SuggestionConfig[hit]()
	assert.Equal(t, SuggestionDebounce, cfg.Debounce)
	assert.Equal(t, SuggestionMinLength, cfg.MinLength)
}

func TestSession_MinLengthCountsRunes(t *testing.T) {
	searcher := &recordingSearcher{results: map[string][]hit{"æø": {{ID: 1}}}}
	s := NewSession(context.Background(), searcher.search, Config[hit]{Debounce: 10 * time.Millisecond, MinLength: 2})
	defer s.Close()

	// Two runes, four bytes: passes a rune-based gate.
	s.SetQuery("æø")
	require.Eventually(t, func() bool {
		return s.Snapshot().Phase == PhaseSettled
	}, time.Second, time.Millisecond)
	assert.Equal(t, []string{"æø"}, searcher.calls())
}
