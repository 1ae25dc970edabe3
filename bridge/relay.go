package bridge

import (
	"errors"
	"fmt"
	"io"
	"net"

	"github.com/arloliu/go-uartbridge/internal/pool"
)

// relayAck is written back after each chunk is forwarded.
var relayAck = []byte("OK\n")

// handleRelay forwards chunks from the peer to the serial channel until the
// peer closes its write side or an I/O error occurs. Errors end the session
// without an error frame; the peer only sees the connection close.
func (b *Bridge) handleRelay(conn net.Conn) Result {
	res := Result{Role: RoleRelay, Peer: peerAddr(conn), Outcome: OutcomeRelayed}
	defer func() { _ = conn.Close() }()

	buf := pool.GetBuffer(b.cfg.bufferSize)
	defer pool.PutBuffer(buf)

	for {
		b.setDeadline(conn)
		n, err := conn.Read(buf)
		if n > 0 {
			if werr := b.serial.Write(buf[:n]); werr != nil {
				res.Err = fmt.Errorf("%w: %w", ErrSerialWrite, werr)
				return res
			}
			res.Chunks++
			res.Bytes += n
			b.logger.Debug("relay chunk forwarded", "peer", res.Peer, "bytes", n)

			b.setDeadline(conn)
			if _, werr := conn.Write(relayAck); werr != nil {
				res.Err = fmt.Errorf("write ack: %w", werr)
				return res
			}
		}

		if err != nil {
			if !errors.Is(err, io.EOF) {
				res.Err = fmt.Errorf("read chunk: %w", err)
			}

			return res
		}
	}
}
