// Package server runs the chat service: a single event loop that owns the
// session table, the room registry and the server key pair.
//
// # Concurrency
//
// An accept goroutine and one reader goroutine per connection feed a single
// events channel. The run loop is the only goroutine that decrypts, parses
// commands or mutates rooms and sessions, so the at-most-one-room invariant
// holds without locks. Reader goroutines never touch shared state; they only
// move framed envelopes onto the channel. Nothing in the loop blocks beyond
// the channel receive itself: a failed write is treated as a disconnect, not
// retried.
package server
