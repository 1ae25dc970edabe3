package uart

// Channel is the outbound serial peripheral.
//
// Write sends p in full or returns an error. Implementations are not required
// to be safe for concurrent use unless documented; wrap them in a Writer when
// several goroutines write.
type Channel interface {
	Write(p []byte) error
}

// ChannelFunc adapts a function to Channel.
type ChannelFunc func(p []byte) error

// Write implements Channel.
func (f ChannelFunc) Write(p []byte) error {
	return f(p)
}
