package command

import (
	"errors"
	"strconv"
	"strings"
)

// Parse maps a query string of '&'-joined key=value pairs to a Command.
//
// No percent-decoding is performed. Empty tokens are skipped, and when a key
// repeats the last value wins. The error, if any, is a *ParseError.
func Parse(query string) (Command, error) {
	values := [3]int{}

	for token := range strings.SplitSeq(query, "&") {
		if token == "" {
			continue
		}

		key, raw, ok := strings.Cut(token, "=")
		if !ok {
			return Command{}, &ParseError{Token: token, Err: ErrMalformedPair}
		}

		idx := channelIndex(key)
		if idx < 0 {
			continue
		}

		v, err := strconv.Atoi(raw)
		if err != nil {
			if errors.Is(err, strconv.ErrRange) {
				return Command{}, &ParseError{Key: key, Token: raw, Err: ErrOutOfRange}
			}
			return Command{}, &ParseError{Key: key, Token: raw, Err: ErrInvalidValue}
		}
		values[idx] = v
	}

	return New(values[0], values[1], values[2])
}

func channelIndex(key string) int {
	switch key {
	case "r":
		return 0
	case "g":
		return 1
	case "b":
		return 2
	default:
		return -1
	}
}
