package fetch

import (
	"encoding/json"

	"github.com/mhelbo/gidasclient/transport"
)

// Envelope is the backend's wrapper for simple endpoints:
// {"success": bool, "data": ..., "error": ..., "message": ...}.
type Envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error,omitempty"`
	Message string          `json:"message,omitempty"`
}

// PageMeta is the pagination block of list endpoints.
type PageMeta struct {
	Page       int `json:"page"`
	PerPage    int `json:"per_page"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}

// Page is one page of a paginated list endpoint.
type Page[T any] struct {
	Items []T
	Meta  PageMeta
}

// SearchEnvelope is the wrapper of search endpoints:
// {"query", "results": {<category>: [...], "total_count"}, "execution_time_ms"}.
type SearchEnvelope struct {
	Query           string       `json:"query"`
	Results         SearchGroups `json:"results"`
	ExecutionTimeMS float64      `json:"execution_time_ms"`
}

// SearchGroups holds search results grouped by category (the backend
// groups into projects, cases and events) plus the overall count.
type SearchGroups struct {
	TotalCount int
	Groups     map[string]json.RawMessage
}

// UnmarshalJSON splits the results object into the total_count field and
// the per-category arrays, whatever the categories are.
func (g *SearchGroups) UnmarshalJSON(data []byte) error {
	raw := make(map[string]json.RawMessage)
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if count, ok := raw["total_count"]; ok {
		if err := json.Unmarshal(count, &g.TotalCount); err != nil {
			return err
		}
		delete(raw, "total_count")
	}
	g.Groups = raw
	return nil
}

// DecodeEnvelope unwraps a simple envelope and decodes its data into T.
// A success=false envelope becomes a *transport.Error with KindHTTP
// carrying the server's message; a malformed body becomes KindUnknown.
func DecodeEnvelope[T any](body []byte) (T, error) {
	var zero T

	var env Envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return zero, decodeError(err)
	}
	if !env.Success {
		return zero, rejectionError(env.Error, env.Message)
	}

	var out T
	if len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, &out); err != nil {
			return zero, decodeError(err)
		}
	}
	return out, nil
}

// DecodePage unwraps a paginated list envelope.
func DecodePage[T any](body []byte) (Page[T], error) {
	var env struct {
		Success    bool     `json:"success"`
		Data       []T      `json:"data"`
		Pagination PageMeta `json:"pagination"`
		Error      string   `json:"error"`
		Message    string   `json:"message"`
	}
	if err := json.Unmarshal(body, &env); err != nil {
		return Page[T]{}, decodeError(err)
	}
	if !env.Success {
		return Page[T]{}, rejectionError(env.Error, env.Message)
	}
	return Page[T]{Items: env.Data, Meta: env.Pagination}, nil
}

// DecodeSearch unwraps a search envelope, leaving category arrays raw.
func DecodeSearch(body []byte) (SearchEnvelope, error) {
	var env SearchEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return SearchEnvelope{}, decodeError(err)
	}
	return env, nil
}

// GroupItems decodes one category of a search envelope into []T.
// An absent category decodes to an empty slice.
func GroupItems[T any](env SearchEnvelope, category string) ([]T, error) {
	raw, ok := env.Results.Groups[category]
	if !ok {
		return nil, nil
	}
	var items []T
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, decodeError(err)
	}
	return items, nil
}

func decodeError(err error) error {
	return &transport.Error{
		Kind:    transport.KindUnknown,
		Message: "malformed response body",
		Cause:   err,
	}
}

// rejectionError maps a success=false envelope to a server rejection.
// The status code is unknown at this layer; Kind carries the meaning.
func rejectionError(errMsg, message string) error {
	msg := errMsg
	if msg == "" {
		msg = message
	}
	if msg == "" {
		msg = "request rejected"
	}
	return &transport.Error{Kind: transport.KindHTTP, Message: msg}
}
