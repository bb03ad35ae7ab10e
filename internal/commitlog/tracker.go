package commitlog

import (
	"fmt"
	"os"
	"path/filepath"
)

// trackerWidth is the fixed size, in bytes, of a persisted Tracker
// record: three big-endian uint32 fields.
const trackerWidth = 12

// tracker is the 12-byte per-topic cursor state persisted at
// offsets/<topic>: RPosition is the segment the reader is currently in,
// ROffset is the byte offset into that segment's index (see
// index.ReadAt), WLastIndexOffset is the last written index offset in
// the last segment, used to reconstruct the write cursor on restore.
type tracker struct {
	file             *os.File
	RPosition        uint32
	ROffset          uint32
	WLastIndexOffset uint32
}

// openTracker opens (creating if missing) offsets/<topic> and loads its
// current contents, or leaves all fields zero for a brand new topic.
func openTracker(rootDir, topic string) (*tracker, error) {
	dir := filepath.Join(rootDir, topic, "offsets")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("commitlog: create offsets dir: %w", err)
	}

	f, err := os.OpenFile(filepath.Join(dir, topic), os.O_RDWR|os.O_CREATE, 0644)
	if err != nil {
		return nil, fmt.Errorf("commitlog: open tracker file: %w", err)
	}

	t := &tracker{file: f}
	if err := t.load(); err != nil {
		f.Close()
		return nil, err
	}
	return t, nil
}

func (t *tracker) load() error {
	buf := make([]byte, trackerWidth)
	n, err := t.file.ReadAt(buf, 0)
	if err != nil && n == 0 {
		// brand new, empty tracker file: zero cursor.
		return nil
	}
	if n < trackerWidth {
		return nil
	}
	t.RPosition = enc.Uint32(buf[0:4])
	t.ROffset = enc.Uint32(buf[4:8])
	t.WLastIndexOffset = enc.Uint32(buf[8:12])
	return nil
}

// persist overwrites bytes [0, 12) of the tracker file with the current
// cursor state, big-endian. Called on every CommitLog.Append and every
// CommitLog.ReadNext, per spec.md's "every-append" durability choice.
func (t *tracker) persist(rposition, roffset, wlastIndexOffset uint32) error {
	t.RPosition = rposition
	t.ROffset = roffset
	t.WLastIndexOffset = wlastIndexOffset

	buf := make([]byte, trackerWidth)
	enc.PutUint32(buf[0:4], rposition)
	enc.PutUint32(buf[4:8], roffset)
	enc.PutUint32(buf[8:12], wlastIndexOffset)

	if _, err := t.file.WriteAt(buf, 0); err != nil {
		return fmt.Errorf("commitlog: persist tracker: %w", err)
	}
	return t.file.Sync()
}

func (t *tracker) Close() error {
	return t.file.Close()
}
