// Package transport performs single HTTP calls against the case-management
// API and maps every expected failure mode to a typed error.
//
// The taxonomy distinguishes four kinds: the server answered and rejected
// the request (KindHTTP), no answer arrived within budget (KindTimeout),
// the server was unreachable (KindNetwork), and everything else
// (KindUnknown). Callers branch on Kind instead of string-matching.
//
// The transport is side-effect-only: it performs network I/O and never
// reads or writes the response cache.
package transport
