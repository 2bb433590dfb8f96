// Package commands wires the parley CLI: serve runs the chat server,
// connect runs the interactive terminal client. Configuration comes from the
// environment; flags only override what is awkward to set there.
package commands
