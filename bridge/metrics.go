package bridge

import (
	"sync/atomic"
)

// Metrics contains atomic counters for a Bridge.
// Metrics can be used as the value of a prometheus CounterFunc or GaugeFunc.
type Metrics struct {
	// ControlRequestCount indicates the number of control connections handled.
	ControlRequestCount atomic.Uint64
	// CommandCount indicates the number of command frames written to the serial channel.
	CommandCount atomic.Uint64
	// CommandRejectCount indicates the number of invalid command requests.
	CommandRejectCount atomic.Uint64
	// PageCount indicates the number of status pages served.
	PageCount atomic.Uint64

	// RelayConnCount indicates the number of relay connections handled.
	RelayConnCount atomic.Uint64
	// RelayChunkCount indicates the number of relay chunks forwarded.
	RelayChunkCount atomic.Uint64
	// RelayByteCount indicates the number of relay bytes forwarded.
	RelayByteCount atomic.Uint64

	// SerialErrCount indicates the number of failed serial writes.
	SerialErrCount atomic.Uint64
	// ConnErrCount indicates the number of connections that ended with an I/O error.
	ConnErrCount atomic.Uint64
	// AcceptErrCount indicates the number of failed accepts.
	AcceptErrCount atomic.Uint64

	// ActiveConnGauge indicates the number of connections being handled.
	ActiveConnGauge atomic.Int64
}

func (m *Metrics) record(res Result) {
	switch res.Role {
	case RoleControl:
		m.ControlRequestCount.Add(1)
	case RoleRelay:
		m.RelayConnCount.Add(1)
		m.RelayChunkCount.Add(uint64(res.Chunks))
		m.RelayByteCount.Add(uint64(res.Bytes))
	}

	switch res.Outcome {
	case OutcomeCommand:
		m.CommandCount.Add(1)
	case OutcomeRejected:
		m.CommandRejectCount.Add(1)
	case OutcomePage:
		m.PageCount.Add(1)
	}

	switch {
	case res.Err == nil, res.Outcome == OutcomeRejected:
	case isSerialErr(res.Err):
		m.SerialErrCount.Add(1)
	default:
		m.ConnErrCount.Add(1)
	}
}

func (m *Metrics) incAcceptErrCount() {
	m.AcceptErrCount.Add(1)
}

func (m *Metrics) incActiveConn() {
	m.ActiveConnGauge.Add(1)
}

func (m *Metrics) decActiveConn() {
	m.ActiveConnGauge.Add(-1)
}
