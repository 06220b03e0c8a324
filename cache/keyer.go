package cache

import (
	"encoding/json"
	"fmt"
	"net/url"
	"sort"
	"strconv"
)

// Keyer derives deterministic cache keys from an endpoint and its query
// parameters.
//
// Contract:
// - Determinism: the same (endpoint, params) must produce the same key,
//   regardless of map iteration order.
// - Uniqueness: distinct (endpoint, params) pairs must produce distinct
//   keys (structural, not cryptographic).
// - Concurrency: implementations must be safe for concurrent use.
type Keyer interface {
	// Key derives a cache key. Parameters with nil values are treated as
	// absent and omitted.
	Key(endpoint string, params map[string]any) string
}

// QueryKeyer derives keys shaped like the request URL: the endpoint path
// followed by "?" and the parameters as a percent-encoded query string
// with names sorted lexicographically.
type QueryKeyer struct{}

// NewQueryKeyer creates a new query-string keyer.
func NewQueryKeyer() *QueryKeyer {
	return &QueryKeyer{}
}

// Key derives a deterministic cache key.
// Format: <endpoint>?<name>=<value>&... with names in sorted order.
// An endpoint with no parameters keys as the bare endpoint.
func (k *QueryKeyer) Key(endpoint string, params map[string]any) string {
	names := make([]string, 0, len(params))
	for name, value := range params {
		if value == nil {
			continue
		}
		names = append(names, name)
	}
	if len(names) == 0 {
		return endpoint
	}
	sort.Strings(names)

	buf := make([]byte, 0, 64)
	buf = append(buf, endpoint...)
	buf = append(buf, '?')
	for i, name := range names {
		if i > 0 {
			buf = append(buf, '&')
		}
		buf = append(buf, url.QueryEscape(name)...)
		buf = append(buf, '=')
		buf = append(buf, url.QueryEscape(FormatParam(params[name]))...)
	}
	return string(buf)
}

// FormatParam renders a parameter value as a stable string. Scalars format
// directly; composite values fall back to canonical JSON so nested maps
// serialize independent of iteration order. The same rendering is used for
// cache keys and for outgoing query strings, keeping the two aligned.
func FormatParam(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case bool:
		return strconv.FormatBool(val)
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case float64:
		return formatFloat(val)
	case float32:
		return formatFloat(float64(val))
	case fmt.Stringer:
		return val.String()
	default:
		b, err := canonicalJSON(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(b)
	}
}

// formatFloat keeps whole floats free of a trailing ".0" so 1.0 and 1 key
// identically, matching how query strings carry numbers.
func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// canonicalJSON produces a deterministic JSON representation of v.
// Maps are sorted by key to ensure consistent ordering.
func canonicalJSON(v any) ([]byte, error) {
	if v == nil {
		return []byte("null"), nil
	}

	switch val := v.(type) {
	case map[string]any:
		return canonicalMap(val)
	case []any:
		return canonicalSlice(val)
	default:
		return json.Marshal(v)
	}
}

func canonicalMap(m map[string]any) ([]byte, error) {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	result := []byte("{")
	for i, k := range keys {
		if i > 0 {
			result = append(result, ',')
		}

		keyBytes, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		result = append(result, keyBytes...)
		result = append(result, ':')

		valBytes, err := canonicalJSON(m[k])
		if err != nil {
			return nil, err
		}
		result = append(result, valBytes...)
	}
	result = append(result, '}')

	return result, nil
}

func canonicalSlice(s []any) ([]byte, error) {
	result := []byte("[")
	for i, v := range s {
		if i > 0 {
			result = append(result, ',')
		}

		valBytes, err := canonicalJSON(v)
		if err != nil {
			return nil, err
		}
		result = append(result, valBytes...)
	}
	result = append(result, ']')

	return result, nil
}

// Ensure QueryKeyer implements Keyer
var _ Keyer = (*QueryKeyer)(nil)
