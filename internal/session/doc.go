// Package session binds one transport connection to one connected identity.
//
// A Session owns the net.Conn, the handle other packages use to refer to the
// connection, and the peer's public key once the handshake has delivered it.
// Sends seal plaintext under the peer key; opens decrypt with the server's
// private key and capture the attached peer key on the first success.
package session
