package search

import (
	"context"

	"github.com/mhelbo/gidasclient/fetch"
)

// NewSearcher builds a Searcher over the request coordinator for a search
// endpoint that returns the grouped envelope. The query text is sent as
// the "q" parameter merged over params; category selects which result
// group to surface. Repeated queries benefit from the coordinator's cache
// and single-flight coalescing like any other GET.
func NewSearcher[T any](coord *fetch.Coordinator, endpoint, category string, params map[string]any) Searcher[T] {
	return func(ctx context.Context, query string) ([]T, error) {
		merged := make(map[string]any, len(params)+1)
		for k, v := range params {
			merged[k] = v
		}
		merged["q"] = query

		body, err := coord.Fetch(ctx, fetch.Request{Endpoint: endpoint, Params: merged})
		if err != nil {
			return nil, err
		}
		env, err := fetch.DecodeSearch(body)
		if err != nil {
			return nil, err
		}
		return fetch.GroupItems[T](env, category)
	}
}
