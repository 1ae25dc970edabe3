// Package uart provides the serial channel the bridge writes to.
//
// A Channel is a single shared, byte-oriented peripheral with one operation,
// Write. Implementations:
//
//   - Port: a UART opened through go.bug.st/serial. Writes are serialized by a mutex
//     and retried until the whole frame is written.
//   - Writer: a single-consumer queue in front of another Channel. Any number of
//     goroutines may call Write; frames reach the underlying channel one at a time
//     and in submission order, so concurrent writers never interleave frames.
//   - Recorder: an in-memory channel that records every frame, for tests and dry runs.
//
// Serial input is not read; the bridge only forwards toward the peripheral.
package uart
