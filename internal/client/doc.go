// Package client implements the interactive terminal client: dial, key
// exchange, then one pump from input lines to sealed frames and one from
// server frames to output. I/O endpoints are injectable so tests can drive a
// client without a terminal.
package client
