package commitlog

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/tysonmote/gommap"
)

// indexFileName returns the 12-digit zero-padded index file name for a
// segment id, e.g. 000000000003.idx.
func indexFileName(dir string, id uint32) string {
	return filepath.Join(dir, fmt.Sprintf("%012d.idx", id))
}

// logFileName returns the 12-digit zero-padded log file name for a
// segment id, e.g. 000000000003.log.
func logFileName(dir string, id uint32) string {
	return filepath.Join(dir, fmt.Sprintf("%012d.log", id))
}

// index is a fixed-max-size, memory-mapped file holding Entry records.
// writeOffset is always a multiple of entWidth and tracks how many bytes
// of the mapped file are valid entries; readOffset is an independent
// cursor used only by ReadFromStart (CommitLog.Iter), distinct from the
// persisted Tracker cursor that CommitLog.ReadNext addresses directly
// via ReadAt.
type index struct {
	file        *os.File
	mmap        gommap.MMap
	maxSize     uint64
	writeOffset uint64
	readOffset  uint64
}

// openNewIndex creates SSSSSSSSSSSS.idx, pre-allocates it to maxSize
// bytes, and memory-maps it read/write.
func openNewIndex(dir string, id uint32, maxSize uint64) (*index, error) {
	f, err := os.OpenFile(indexFileName(dir, id), os.O_RDWR|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return nil, fmt.Errorf("commitlog: create index %d: %w", id, err)
	}
	return newIndex(f, maxSize, 0)
}

// openExistingIndex reopens SSSSSSSSSSSS.idx, pre-allocates it to
// maxSize (a no-op if it is already that size), maps it, and seeds
// writeOffset from the caller — the persisted Tracker's
// wlast_index_offset for the last segment, or the file's own byte
// length for an earlier, closed segment.
func openExistingIndex(dir string, id uint32, writeOffset, maxSize uint64) (*index, error) {
	f, err := os.OpenFile(indexFileName(dir, id), os.O_RDWR, 0644)
	if err != nil {
		return nil, fmt.Errorf("commitlog: open index %d: %w", id, err)
	}
	return newIndex(f, maxSize, writeOffset)
}

func newIndex(f *os.File, maxSize, writeOffset uint64) (*index, error) {
	if writeOffset > maxSize {
		f.Close()
		return nil, fmt.Errorf("commitlog: index write offset %d exceeds index size %d", writeOffset, maxSize)
	}
	if err := os.Truncate(f.Name(), int64(maxSize)); err != nil {
		f.Close()
		return nil, fmt.Errorf("commitlog: preallocate index: %w", err)
	}

	m, err := gommap.Map(f.Fd(), gommap.PROT_READ|gommap.PROT_WRITE, gommap.MAP_SHARED)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("commitlog: mmap index: %w", err)
	}

	return &index{
		file:        f,
		mmap:        m,
		maxSize:     maxSize,
		writeOffset: writeOffset,
	}, nil
}

// Append writes entry at writeOffset and advances it by entWidth. It
// fails only if the mapped slice cannot hold another entWidth bytes.
func (idx *index) Append(e Entry) (bytesWritten int, err error) {
	if idx.writeOffset+entWidth > uint64(len(idx.mmap)) {
		return 0, ErrNoSpaceLeft{}
	}
	e.marshal(idx.mmap[idx.writeOffset : idx.writeOffset+entWidth])
	idx.writeOffset += entWidth
	return entWidth, nil
}

// Flush forces dirty mmap pages to disk.
func (idx *index) Flush() error {
	if err := idx.mmap.Sync(gommap.MS_SYNC); err != nil {
		return fmt.Errorf("commitlog: flush index: %w", err)
	}
	return nil
}

// ReadAt decodes the Entry occupying bytes [byteOffset-entWidth,
// byteOffset) — byteOffset is the offset's *end* boundary, matching the
// value CommitLog's persisted read cursor (Tracker.ROffset) already
// carries after each ReadNext advance.
func (idx *index) ReadAt(byteOffset uint64) (Entry, error) {
	if byteOffset < entWidth || byteOffset > idx.writeOffset {
		return Entry{}, ErrLogIndexOutOfBound{Offset: byteOffset}
	}
	return unmarshalEntry(idx.mmap[byteOffset-entWidth : byteOffset]), nil
}

// ReadFromStart advances the index's internal read cursor by entWidth
// and decodes the Entry it now points at. Used only by CommitLog.Iter's
// restartable full-log scan.
func (idx *index) ReadFromStart() (Entry, error) {
	if idx.readOffset >= idx.writeOffset {
		return Entry{}, ErrLogIndexOutOfBound{Offset: idx.readOffset}
	}
	idx.readOffset += entWidth
	return unmarshalEntry(idx.mmap[idx.readOffset-entWidth : idx.readOffset]), nil
}

// resetReadCursor rewinds ReadFromStart's cursor to the beginning,
// making the index scannable again from offset 0.
func (idx *index) resetReadCursor() {
	idx.readOffset = 0
}

// ResizeToWritten remaps the index to exactly writeOffset bytes and
// truncates the backing file to the same length. Called once, when the
// segment holding this index closes.
func (idx *index) ResizeToWritten() error {
	if err := idx.mmap.UnsafeUnmap(); err != nil {
		return fmt.Errorf("commitlog: unmap index: %w", err)
	}
	if err := idx.file.Truncate(int64(idx.writeOffset)); err != nil {
		return fmt.Errorf("commitlog: truncate index: %w", err)
	}
	m, err := gommap.Map(idx.file.Fd(), gommap.PROT_READ|gommap.PROT_WRITE, gommap.MAP_SHARED)
	if err != nil {
		return fmt.Errorf("commitlog: remap index: %w", err)
	}
	idx.mmap = m
	idx.maxSize = idx.writeOffset
	return nil
}

// WriteOffset reports the current write cursor, a multiple of entWidth.
func (idx *index) WriteOffset() uint64 { return idx.writeOffset }

func (idx *index) Close() error {
	if err := idx.mmap.Sync(gommap.MS_SYNC); err != nil {
		return fmt.Errorf("commitlog: sync index: %w", err)
	}
	if err := idx.file.Sync(); err != nil {
		return fmt.Errorf("commitlog: sync index file: %w", err)
	}
	if err := idx.file.Truncate(int64(idx.writeOffset)); err != nil {
		return fmt.Errorf("commitlog: truncate index on close: %w", err)
	}
	return idx.file.Close()
}

func (idx *index) Name() string { return idx.file.Name() }
