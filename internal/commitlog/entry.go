package commitlog

import "encoding/binary"

// entWidth is the fixed size, in bytes, of one Entry record: a 4-byte
// offset followed by a 4-byte size, both big-endian.
const entWidth = 8

var enc = binary.BigEndian

// Entry is a fixed-width index record describing where one message's
// payload lives in the companion log file: offset is the byte position
// of the payload within the log file, size is its length. For the i-th
// entry E_i in one index, E_i.offset == E_{i-1}.offset + E_{i-1}.size.
type Entry struct {
	Offset uint32
	Size   uint32
}

// marshal writes the entry's 8-byte big-endian encoding into buf, which
// must be at least entWidth bytes.
func (e Entry) marshal(buf []byte) {
	enc.PutUint32(buf[0:4], e.Offset)
	enc.PutUint32(buf[4:8], e.Size)
}

// unmarshalEntry decodes an 8-byte big-endian record.
func unmarshalEntry(buf []byte) Entry {
	return Entry{
		Offset: enc.Uint32(buf[0:4]),
		Size:   enc.Uint32(buf[4:8]),
	}
}
