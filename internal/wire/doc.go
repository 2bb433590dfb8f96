// Package wire frames envelopes for stream transports.
//
// Each record is a 4-byte big-endian length followed by a JSON-encoded
// envelope, so records survive partial reads and writes on a TCP byte
// stream. A clean peer close surfaces as io.EOF only when it falls on a
// record boundary; a close mid-record reports io.ErrUnexpectedEOF.
package wire
