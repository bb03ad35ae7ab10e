package protocol

import "fmt"

// topicFixedLen is the byte length of id + length + timestamp.
const topicFixedLen = 4 + 4 + 8

// Topic is the value written to a commit log and the body of a
// PUBLISH request's payload. Wire layout, big-endian:
//
//	id         uint32
//	length     uint32 (total, including this header)
//	timestamp  int64  (seconds since epoch, client-supplied)
//	message    []byte (length - 16 bytes)
type Topic struct {
	ID        uint32
	Timestamp int64
	Message   []byte
}

// NewTopic builds a Topic from an id, timestamp and message body.
func NewTopic(id uint32, timestamp int64, message []byte) *Topic {
	return &Topic{ID: id, Timestamp: timestamp, Message: message}
}

// Length reports the total encoded byte length of t, the value its
// own length field carries.
func (t *Topic) Length() uint32 {
	return uint32(topicFixedLen + len(t.Message))
}

// Encode serializes t into the wire format described above.
func (t *Topic) Encode() []byte {
	buf := make([]byte, t.Length())
	enc.PutUint32(buf[0:4], t.ID)
	enc.PutUint32(buf[4:8], t.Length())
	enc.PutUint64(buf[8:16], uint64(t.Timestamp))
	copy(buf[16:], t.Message)
	return buf
}

// DecodeTopic parses a Topic out of buf, which must hold exactly its
// encoded length bytes.
func DecodeTopic(buf []byte) (*Topic, error) {
	if len(buf) < topicFixedLen {
		return nil, fmt.Errorf("protocol: topic frame too short: %d bytes", len(buf))
	}
	length := enc.Uint32(buf[4:8])
	if int(length) != len(buf) {
		return nil, fmt.Errorf("protocol: topic length %d does not match frame size %d", length, len(buf))
	}

	t := &Topic{
		ID:        enc.Uint32(buf[0:4]),
		Timestamp: int64(enc.Uint64(buf[8:16])),
		Message:   append([]byte(nil), buf[16:]...),
	}
	return t, nil
}
