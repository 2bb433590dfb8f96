// Package command parses one decrypted chat line into a closed set of
// command variants. Parsing is separate from dispatch: the server interprets
// the variant against the room registry.
package command
