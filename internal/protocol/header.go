package protocol

import "fmt"

// headerFixedLen is the byte length of command + total_length +
// payload_length, the only fixed-width fields in a BinaryHeader.
const headerFixedLen = 12

// MinTotalLength is the smallest legal total_length: a header carrying
// an empty queue name and no payload.
const MinTotalLength = headerFixedLen

// BinaryHeader is the request frame read off the wire for every
// command. Wire layout, all big-endian, total_length counted from the
// start of this header:
//
//	command         uint32
//	total_length    uint32  (whole frame, including this header)
//	payload_length  uint32
//	queue_name      []byte  (total_length - 12 - payload_length bytes)
//	payload         []byte  (payload_length bytes)
type BinaryHeader struct {
	Command       Command
	TotalLength   uint32
	PayloadLength uint32
	QueueName     string
	Payload       []byte
}

// NewBinaryHeader builds a BinaryHeader from a command, queue name and
// payload, computing total_length for the caller.
func NewBinaryHeader(cmd Command, queueName string, payload []byte) *BinaryHeader {
	return &BinaryHeader{
		Command:       cmd,
		TotalLength:   uint32(headerFixedLen + len(queueName) + len(payload)),
		PayloadLength: uint32(len(payload)),
		QueueName:     queueName,
		Payload:       payload,
	}
}

// Encode serializes h into the wire format described above.
func (h *BinaryHeader) Encode() []byte {
	qn := []byte(h.QueueName)
	buf := make([]byte, headerFixedLen+len(qn)+len(h.Payload))
	enc.PutUint32(buf[0:4], uint32(h.Command))
	enc.PutUint32(buf[4:8], h.TotalLength)
	enc.PutUint32(buf[8:12], h.PayloadLength)
	copy(buf[12:12+len(qn)], qn)
	copy(buf[12+len(qn):], h.Payload)
	return buf
}

// FrameLen reads total_length out of the first 8 bytes of buf, which
// is the whole frame's byte length counted from offset 0. It reports
// ok=false if fewer than 8 bytes are buffered so far.
func FrameLen(buf []byte) (totalLength int, ok bool) {
	if len(buf) < 8 {
		return 0, false
	}
	return int(enc.Uint32(buf[4:8])), true
}

// DecodeHeader parses one full request frame out of buf, which must
// hold exactly total_length bytes (the caller's frame reassembly loop
// slices that window out before calling this). DecodeHeader enforces
// total_length >= MinTotalLength and payload_length <= total_length-12
// per the header's wire invariant.
func DecodeHeader(buf []byte) (*BinaryHeader, error) {
	if len(buf) < headerFixedLen {
		return nil, fmt.Errorf("protocol: header too short: %d bytes", len(buf))
	}

	h := &BinaryHeader{
		Command:       Command(enc.Uint32(buf[0:4])),
		TotalLength:   enc.Uint32(buf[4:8]),
		PayloadLength: enc.Uint32(buf[8:12]),
	}

	if h.TotalLength < MinTotalLength {
		return nil, fmt.Errorf("protocol: total_length %d below minimum %d", h.TotalLength, MinTotalLength)
	}
	if h.PayloadLength > h.TotalLength-headerFixedLen {
		return nil, fmt.Errorf("protocol: payload_length %d exceeds total_length-12 (%d)", h.PayloadLength, h.TotalLength-headerFixedLen)
	}
	if uint32(len(buf)) < h.TotalLength {
		return nil, fmt.Errorf("protocol: short frame: need %d bytes, have %d", h.TotalLength, len(buf))
	}

	queueNameLength := h.TotalLength - headerFixedLen - h.PayloadLength
	qnStart := headerFixedLen
	qnEnd := qnStart + int(queueNameLength)
	h.QueueName = string(buf[qnStart:qnEnd])
	h.Payload = append([]byte(nil), buf[qnEnd:qnEnd+int(h.PayloadLength)]...)

	return h, nil
}
