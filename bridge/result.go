package bridge

import (
	"github.com/arloliu/go-uartbridge/command"
)

// Outcome classifies how a connection was handled.
type Outcome int

const (
	// OutcomeAborted means the connection failed before a request could be handled.
	OutcomeAborted Outcome = iota
	// OutcomeCommand means a command frame was written to the serial channel.
	OutcomeCommand
	// OutcomeRejected means the command query was invalid; nothing was written.
	OutcomeRejected
	// OutcomeSerialFault means the command was valid but the serial write failed.
	OutcomeSerialFault
	// OutcomePage means the status page was served.
	OutcomePage
	// OutcomeRelayed means a relay session ended, by peer close or on error.
	OutcomeRelayed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeAborted:
		return "aborted"
	case OutcomeCommand:
		return "command"
	case OutcomeRejected:
		return "rejected"
	case OutcomeSerialFault:
		return "serial-fault"
	case OutcomePage:
		return "page"
	case OutcomeRelayed:
		return "relayed"
	}
	return "unknown"
}

// Result describes the handling of one connection.
type Result struct {
	Role    Role
	Peer    string
	Outcome Outcome

	// Status is the HTTP status written on the control endpoint, 0 if none.
	Status int
	// Command is the parsed command for OutcomeCommand and OutcomeSerialFault.
	Command command.Command

	// Chunks and Bytes count what the relay forwarded to the serial channel.
	Chunks int
	Bytes  int

	// Err is nil when the connection completed normally.
	Err error
}

// OK reports whether the connection completed without error.
func (r Result) OK() bool {
	return r.Err == nil
}
