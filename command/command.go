package command

import (
	"strconv"
	"strings"
)

// MaxChannel is the largest value of a colour channel.
const MaxChannel = 255

// framePrefix starts every serial frame produced from a Command.
const framePrefix = "C:"

// Command is a validated colour triple destined for the serial peripheral.
//
// The zero value is the valid command (0, 0, 0).
type Command struct {
	Red   uint8
	Green uint8
	Blue  uint8
}

// New constructs a Command, failing if any channel is outside [0, 255].
func New(red, green, blue int) (Command, error) {
	r, err := channel("r", red)
	if err != nil {
		return Command{}, err
	}
	g, err := channel("g", green)
	if err != nil {
		return Command{}, err
	}
	b, err := channel("b", blue)
	if err != nil {
		return Command{}, err
	}

	return Command{Red: r, Green: g, Blue: b}, nil
}

func channel(key string, v int) (uint8, error) {
	if v < 0 || v > MaxChannel {
		return 0, &ParseError{Key: key, Token: strconv.Itoa(v), Err: ErrOutOfRange}
	}
	return uint8(v), nil
}

// Frame returns the serial frame for the command, "C:<r>,<g>,<b>\n".
func (c Command) Frame() []byte {
	buf := make([]byte, 0, len(framePrefix)+12)
	buf = append(buf, framePrefix...)
	buf = strconv.AppendUint(buf, uint64(c.Red), 10)
	buf = append(buf, ',')
	buf = strconv.AppendUint(buf, uint64(c.Green), 10)
	buf = append(buf, ',')
	buf = strconv.AppendUint(buf, uint64(c.Blue), 10)
	buf = append(buf, '\n')

	return buf
}

// String returns the frame without its trailing newline.
func (c Command) String() string {
	return strings.TrimSuffix(string(c.Frame()), "\n")
}
