// Package transport opens the byte streams sample lines arrive on.
//
// Every transport is an io.ReadCloser. Closing it unblocks a pending Read,
// which is how a source is stopped. Available transports:
//
//   - Serial: a serial port through go.bug.st/serial
//   - Replay: a capture file or stdin, paced at a fixed line rate
//   - Pattern: a synthetic moving heat spot, for trying a setup without hardware
package transport
