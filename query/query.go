package query

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/mhelbo/gidasclient/fetch"
	"github.com/mhelbo/gidasclient/transport"
)

// Status is the lifecycle phase of a query.
type Status int

const (
	// StatusIdle means no fetch has been issued yet.
	StatusIdle Status = iota

	// StatusLoading means a fetch is in flight. Previously loaded data
	// stays available for display.
	StatusLoading

	// StatusSuccess means the latest fetch committed its data.
	StatusSuccess

	// StatusError means the latest fetch failed; Err is populated.
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusLoading:
		return "loading"
	case StatusSuccess:
		return "success"
	case StatusError:
		return "error"
	default:
		return "idle"
	}
}

// State is the snapshot a consumer renders from.
//
// Data is meaningful when HasData is true; under StatusLoading it holds
// the previous result until the new one lands. Err is meaningful only
// under StatusError.
type State[T any] struct {
	Status  Status
	Data    T
	HasData bool
	Err     *transport.Error
}

// Decoder turns a raw response body into the consumer's type.
type Decoder[T any] func([]byte) (T, error)

// Config configures a Query.
type Config[T any] struct {
	// Params are the query parameters of the endpoint. Replaceable later
	// via SetParams.
	Params map[string]any

	// SkipCache bypasses the response cache for this query's fetches.
	SkipCache bool

	// Manual disables the automatic fetch a new Query otherwise issues.
	Manual bool

	// Decode converts response bodies. Defaults to unwrapping the
	// standard {success, data} envelope into T.
	Decode Decoder[T]

	// OnChange is invoked with a snapshot after every committed
	// transition. Optional.
	OnChange func(State[T])

	// Logger receives debug-level lifecycle logs. Disabled when unset.
	Logger zerolog.Logger
}

// Query is one consumer's live subscription to one endpoint.
type Query[T any] struct {
	coord    *fetch.Coordinator
	endpoint string
	decode   Decoder[T]
	onChange func(State[T])
	log      zerolog.Logger

	mu        sync.Mutex
	params    map[string]any
	skipCache bool
	state     State[T]
	gen       uint64
	closed    bool
}

// New creates a query for endpoint and, unless cfg.Manual is set, issues
// the initial fetch on a background goroutine.
func New[T any](ctx context.Context, coord *fetch.Coordinator, endpoint string, cfg Config[T]) *Query[T] {
	decode := cfg.Decode
	if decode == nil {
		decode = fetch.DecodeEnvelope[T]
	}

	q := &Query[T]{
		coord:     coord,
		endpoint:  endpoint,
		decode:    decode,
		onChange:  cfg.OnChange,
		log:       cfg.Logger,
		params:    cfg.Params,
		skipCache: cfg.SkipCache,
		state:     State[T]{Status: StatusIdle},
	}

	if !cfg.Manual {
		go q.Refetch(ctx)
	}
	return q
}

// State returns the current snapshot.
func (q *Query[T]) State() State[T] {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.state
}

// SetParams replaces the query parameters used by subsequent fetches.
func (q *Query[T]) SetParams(params map[string]any) {
	q.mu.Lock()
	q.params = params
	q.mu.Unlock()
}

// Refetch issues a fetch through the coordinator and blocks until its
// outcome is known. The cache may still answer; Refetch forces a request,
// not a network round trip.
//
// Every invocation gets a generation number. Only the outcome of the
// newest generation commits; anything older resolves silently, and after
// Close nothing commits at all. Failures are recorded in the state, never
// returned.
func (q *Query[T]) Refetch(ctx context.Context) {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.gen++
	gen := q.gen
	q.state.Status = StatusLoading
	q.state.Err = nil
	params := q.params
	skipCache := q.skipCache
	snapshot := q.state
	q.mu.Unlock()
	q.notify(snapshot)

	body, err := q.coord.Fetch(ctx, fetch.Request{
		Endpoint:  q.endpoint,
		Params:    params,
		SkipCache: skipCache,
	})

	var data T
	if err == nil {
		data, err = q.decode(body)
	}

	q.mu.Lock()
	if q.closed || gen != q.gen {
		// A newer refetch superseded this one, or the consumer is gone.
		q.mu.Unlock()
		q.log.Debug().Str("endpoint", q.endpoint).Uint64("gen", gen).Msg("result discarded")
		return
	}
	if err != nil {
		var zero T
		q.state = State[T]{Status: StatusError, Data: zero, Err: transport.Classify(err)}
	} else {
		q.state = State[T]{Status: StatusSuccess, Data: data, HasData: true}
	}
	snapshot = q.state
	q.mu.Unlock()
	q.notify(snapshot)
}

// Close detaches the consumer. In-flight results are discarded and no
// further transitions or OnChange calls happen. Idempotent.
func (q *Query[T]) Close() {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()
}

func (q *Query[T]) notify(s State[T]) {
	if q.onChange != nil {
		q.onChange(s)
	}
}
