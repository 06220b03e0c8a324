// Package query exposes the request lifecycle to UI surfaces as a small
// state machine: Idle, Loading, Success, Error.
//
// A Query owns one consumer's subscription to one endpoint. While a
// refetch is in flight the previous data stays visible (stale-while-
// revalidate); results are committed in generation order so a slow, older
// response can never overwrite a newer one; after Close nothing commits
// at all. Failures land in the state's Err field instead of propagating -
// retry is the caller invoking Refetch again.
//
// Mutation is the write-side counterpart, and Pager derives page/cursor
// navigation on top of a Query of paginated lists.
package query
