// Package bridge implements the network-to-serial bridge.
//
// A Bridge owns two listening endpoints and one outbound serial channel:
//
//   - The control endpoint speaks a minimal HTTP/1.0 subset. A request line
//     "GET /set?r=<int>&g=<int>&b=<int> ..." is parsed into a colour command and
//     written to the serial channel as "C:<r>,<g>,<b>\n"; the client gets
//     200 "OK", or 400 "ERROR" when the query is invalid or the serial write
//     fails. Any other request gets the status page as text/html.
//   - The relay endpoint is a raw byte stream. Every chunk read from the peer is
//     written verbatim to the serial channel and acknowledged with "OK\n" until
//     the peer closes its write side.
//
// # Scheduling
//
// By default the bridge is single-threaded: one loop waits until either
// listener has a pending connection, accepts exactly one, and runs its handler
// to completion before waiting again. A slow relay client therefore delays
// every other client, control requests included, until it disconnects. This
// head-of-line blocking is part of the contract of the default mode.
//
// WithConcurrentHandlers switches to a bounded pool of handler goroutines. Serial
// writes are then funnelled through a uart.Writer so frames from different
// connections never interleave.
//
// # Errors
//
// Every handler returns a Result. Failures of a single connection, such as a
// malformed command or a peer reset, are logged and counted; they never stop
// the loop. Only failing to bind a listener is fatal, and it is reported by
// Listen or Run before the loop starts.
package bridge
