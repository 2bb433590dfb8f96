// Package room owns named broadcast groups and the registry that maps room
// names to rooms.
//
// A room holds its members in join order and an optional bcrypt-hashed entry
// key. Join, leave and broadcast fan out per-recipient: every member gets an
// independently sealed envelope, the sender gets the acknowledgment sentinel
// instead of an echo. Members whose send fails are reported back to the
// caller so the event loop can drop them; a failed write is a disconnect.
package room
