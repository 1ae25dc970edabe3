// Package command parses colour commands received on the control endpoint and
// encodes them as serial frames.
//
// A command request carries a query string such as "r=255&g=0&b=0". Parse maps
// it to a Command, a fully validated triple of channel values in [0, 255]; the
// frame written to the serial peripheral is
//
//	C:<r>,<g>,<b>\n
//
// with each channel in base-10 without leading zeros.
//
// Keys other than r, g and b are ignored. Omitted keys default their channel
// to 0, while explicit values that are not base-10 integers or fall outside
// [0, 255] are rejected; no value is ever clamped.
package command
