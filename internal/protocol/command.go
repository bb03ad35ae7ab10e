// Package protocol implements the broker's length-framed binary wire
// codec: request headers, the Topic payload record, and response
// frames. All integers are big-endian.
package protocol

import "encoding/binary"

var enc = binary.BigEndian

// Command is the 4-byte request command discriminant carried in every
// BinaryHeader.
type Command uint32

const (
	CmdQuit      Command = 0
	CmdSubscribe Command = 1
	CmdPublish   Command = 2
	CmdPing      Command = 3
	CmdStats     Command = 4
)

func (c Command) String() string {
	switch c {
	case CmdQuit:
		return "QUIT"
	case CmdSubscribe:
		return "SUBSCRIBE"
	case CmdPublish:
		return "PUBLISH"
	case CmdPing:
		return "PING"
	case CmdStats:
		return "STATS"
	default:
		return "UNKNOWN"
	}
}
