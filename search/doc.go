// Package search turns a stream of keystrokes into a debounced,
// cancellable sequence of search queries with a keyboard-driven selection
// cursor.
//
// Each widget instance owns one Session. A keystroke re-arms the debounce
// timer and supersedes whatever was pending or in flight; a response only
// commits if it still belongs to the current query, so a slow answer for
// an old query can never flicker onto the screen. Queries below the
// minimum length never reach the network.
package search
