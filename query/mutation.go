package query

import (
	"context"
	"net/http"
	"sync"

	"github.com/rs/zerolog"

	"github.com/mhelbo/gidasclient/fetch"
	"github.com/mhelbo/gidasclient/transport"
)

// MutationConfig configures a Mutation.
type MutationConfig[Out any] struct {
	// Method is the HTTP method. Defaults to POST.
	Method string

	// Decode converts response bodies. Defaults to unwrapping the
	// standard {success, data} envelope into Out.
	Decode Decoder[Out]

	// OnChange is invoked after every status transition. Optional.
	OnChange func(Status)

	// Logger receives debug-level lifecycle logs. Disabled when unset.
	Logger zerolog.Logger
}

// Mutation is the write-side controller for one endpoint.
//
// Mutations never read or write the response cache. After a successful
// mutation the caller invalidates the GET keys it affected, explicitly,
// through the coordinator.
type Mutation[In, Out any] struct {
	coord    *fetch.Coordinator
	endpoint string
	method   string
	decode   Decoder[Out]
	onChange func(Status)
	log      zerolog.Logger

	mu     sync.Mutex
	status Status
	err    *transport.Error
}

// NewMutation creates a mutation controller for endpoint.
func NewMutation[In, Out any](coord *fetch.Coordinator, endpoint string, cfg MutationConfig[Out]) *Mutation[In, Out] {
	method := cfg.Method
	if method == "" {
		method = http.MethodPost
	}
	decode := cfg.Decode
	if decode == nil {
		decode = fetch.DecodeEnvelope[Out]
	}
	return &Mutation[In, Out]{
		coord:    coord,
		endpoint: endpoint,
		method:   method,
		decode:   decode,
		onChange: cfg.OnChange,
		log:      cfg.Logger,
		status:   StatusIdle,
	}
}

// Mutate sends the payload and returns the decoded response. Unlike
// Refetch it also returns the error, because mutations are invoked from
// imperative handlers that branch on the outcome; the status lifecycle is
// tracked as well for surfaces that render it.
func (m *Mutation[In, Out]) Mutate(ctx context.Context, in In) (Out, error) {
	m.transition(StatusLoading, nil)

	body, err := m.coord.Fetch(ctx, fetch.Request{
		Method:   m.method,
		Endpoint: m.endpoint,
		Body:     in,
	})

	var out Out
	if err == nil {
		out, err = m.decode(body)
	}
	if err != nil {
		terr := transport.Classify(err)
		m.transition(StatusError, terr)
		m.log.Debug().Str("endpoint", m.endpoint).Str("kind", terr.Kind.String()).Msg("mutation failed")
		var zero Out
		return zero, terr
	}

	m.transition(StatusSuccess, nil)
	return out, nil
}

// Status returns the current lifecycle phase.
func (m *Mutation[In, Out]) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status
}

// Err returns the failure of the most recent Mutate, if any.
func (m *Mutation[In, Out]) Err() *transport.Error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.err
}

func (m *Mutation[In, Out]) transition(s Status, err *transport.Error) {
	m.mu.Lock()
	m.status = s
	m.err = err
	m.mu.Unlock()
	if m.onChange != nil {
		m.onChange(s)
	}
}
