package bridge

import (
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"

	"github.com/arloliu/go-uartbridge/command"
	"github.com/arloliu/go-uartbridge/internal/pool"
)

// commandRoute prefixes every command request line.
const commandRoute = "GET /set?"

// handleControl serves one control connection: a single bounded read, then
// exactly one response. The connection is always closed on return.
func (b *Bridge) handleControl(conn net.Conn) Result {
	res := Result{Role: RoleControl, Peer: peerAddr(conn)}
	defer func() { _ = conn.Close() }()

	buf := pool.GetBuffer(b.cfg.bufferSize)
	defer pool.PutBuffer(buf)

	b.setDeadline(conn)
	n, err := conn.Read(buf)
	if n == 0 && err != nil && !errors.Is(err, io.EOF) {
		res.Outcome = OutcomeAborted
		res.Err = fmt.Errorf("read request: %w", err)

		return res
	}

	line := requestLine(buf[:n])
	b.logger.Debug("control request", "peer", res.Peer, "line", line, "bytes", n)

	if query, ok := commandQuery(line); ok {
		return b.runCommand(conn, query, res)
	}

	return b.servePage(conn, res)
}

func (b *Bridge) runCommand(conn net.Conn, query string, res Result) Result {
	cmd, err := command.Parse(query)
	if err != nil {
		res.Outcome = OutcomeRejected
		res.Status = http.StatusBadRequest
		res.Err = err
		if werr := b.respond(conn, res.Status, contentTypeText, bodyError); werr != nil {
			res.Err = errors.Join(err, werr)
		}

		return res
	}

	res.Command = cmd
	if err := b.serial.Write(cmd.Frame()); err != nil {
		res.Outcome = OutcomeSerialFault
		res.Status = http.StatusBadRequest
		res.Err = fmt.Errorf("%w: %w", ErrSerialWrite, err)
		if werr := b.respond(conn, res.Status, contentTypeText, bodyError); werr != nil {
			res.Err = errors.Join(res.Err, werr)
		}

		return res
	}

	b.logger.Info("command written", "peer", res.Peer, "frame", cmd.String())

	res.Outcome = OutcomeCommand
	res.Status = http.StatusOK
	res.Err = b.respond(conn, res.Status, contentTypeText, bodyOK)

	return res
}

func (b *Bridge) servePage(conn net.Conn, res Result) Result {
	res.Outcome = OutcomePage
	res.Status = http.StatusOK
	res.Err = b.respond(conn, res.Status, contentTypeHTML, b.loadPage())

	return res
}

func (b *Bridge) respond(conn net.Conn, status int, contentType string, body []byte) error {
	b.setDeadline(conn)
	if err := writeResponse(conn, status, contentType, body); err != nil {
		return fmt.Errorf("write response: %w", err)
	}

	return nil
}

// requestLine returns the first line of a request without its line terminator.
func requestLine(req []byte) string {
	line, _, _ := strings.Cut(string(req), "\n")
	return strings.TrimSuffix(line, "\r")
}

// commandQuery extracts the query string of a command request line.
func commandQuery(line string) (string, bool) {
	rest, ok := strings.CutPrefix(line, commandRoute)
	if !ok {
		return "", false
	}
	query, _, _ := strings.Cut(rest, " ")

	return query, true
}

func isSerialErr(err error) bool {
	return errors.Is(err, ErrSerialWrite)
}
