package commitlog

import (
	"fmt"
	"os"
)

// DefaultSegmentSize is SEGMENT_SIZE from spec.md §4.2: the maximum
// number of log bytes a single segment may hold before rollover.
const DefaultSegmentSize = 1 << 20 // 1 MiB

// segment pairs one log file with its index file. current_offset is the
// number of log bytes written so far; once closed is set the segment
// never accepts another append.
type segment struct {
	id            uint32
	log           *os.File
	index         *index
	baseOffset    uint64
	currentOffset uint64
	segmentSize   uint64
	closed        bool
}

// createSegment opens a brand new log file (exclusive create) and a
// brand new index for segment id in dir.
func createSegment(dir string, id uint32, segmentSize uint64) (*segment, error) {
	logFile, err := os.OpenFile(logFileName(dir, id), os.O_RDWR|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return nil, fmt.Errorf("commitlog: create log file for segment %d: %w", id, err)
	}

	idx, err := openNewIndex(dir, id, segmentSize)
	if err != nil {
		logFile.Close()
		return nil, err
	}

	return &segment{
		id:          id,
		log:         logFile,
		index:       idx,
		segmentSize: segmentSize,
	}, nil
}

// loadSegment reopens the log and index files of an existing segment.
// indexMaxSize bounds the index's memory-mapped region: SEGMENT_SIZE for
// the most recent (still appendable) segment, or the index file's own
// on-disk length for an earlier, already-closed one. indexWriteOffset
// seeds the index's write cursor: the persisted Tracker's
// WLastIndexOffset for the last segment, or the full file length for a
// closed one. closed marks every segment but the last.
func loadSegment(dir string, id uint32, segmentSize, indexMaxSize, indexWriteOffset uint64, closed bool) (*segment, error) {
	logFile, err := os.OpenFile(logFileName(dir, id), os.O_RDWR, 0644)
	if err != nil {
		return nil, fmt.Errorf("commitlog: open log file for segment %d: %w", id, err)
	}

	idx, err := openExistingIndex(dir, id, indexWriteOffset, indexMaxSize)
	if err != nil {
		logFile.Close()
		return nil, err
	}

	s := &segment{
		id:          id,
		log:         logFile,
		index:       idx,
		segmentSize: segmentSize,
		closed:      closed,
	}

	if err := s.repairTruncation(); err != nil {
		s.Close()
		return nil, err
	}

	return s, nil
}

// repairTruncation discards log bytes past the sum of sizes recorded by
// valid index entries. The index write and log write are not atomic
// (spec.md §4.2); on a crash between the two, the index's write_offset
// is the source of truth and any trailing log bytes are garbage.
func (s *segment) repairTruncation() error {
	var validLogBytes uint64
	if s.index.writeOffset > 0 {
		e, err := s.index.ReadAt(s.index.writeOffset)
		if err != nil {
			return err
		}
		validLogBytes = uint64(e.Offset) + uint64(e.Size)
	}

	fi, err := s.log.Stat()
	if err != nil {
		return fmt.Errorf("commitlog: stat log file: %w", err)
	}
	if uint64(fi.Size()) > validLogBytes {
		if err := s.log.Truncate(int64(validLogBytes)); err != nil {
			return fmt.Errorf("commitlog: truncate garbage log tail: %w", err)
		}
	}
	s.currentOffset = validLogBytes
	return nil
}

// Append writes data to the log file and records its (offset, size) in
// the index. It fails with ErrNoSpaceLeft if data would overflow the
// segment; the caller is expected to roll over to a new segment.
func (s *segment) Append(data []byte) error {
	if s.currentOffset+uint64(len(data)) > s.segmentSize {
		return ErrNoSpaceLeft{SegmentID: s.id}
	}

	if _, err := s.index.Append(Entry{Offset: uint32(s.currentOffset), Size: uint32(len(data))}); err != nil {
		return err
	}

	if _, err := s.log.WriteAt(data, int64(s.currentOffset)); err != nil {
		return fmt.Errorf("commitlog: write log data: %w", err)
	}
	s.currentOffset += uint64(len(data))

	if err := s.log.Sync(); err != nil {
		return fmt.Errorf("commitlog: sync log file: %w", err)
	}
	return s.index.Flush()
}

// ReadAt returns the payload addressed by the index's byteOffset-end
// boundary (see index.ReadAt).
func (s *segment) ReadAt(byteOffset uint64) ([]byte, error) {
	e, err := s.index.ReadAt(byteOffset)
	if err != nil {
		return nil, err
	}
	return s.readEntry(e)
}

// ReadFromStart advances the index's sequential read cursor and returns
// the payload it now points at.
func (s *segment) ReadFromStart() ([]byte, error) {
	e, err := s.index.ReadFromStart()
	if err != nil {
		return nil, err
	}
	return s.readEntry(e)
}

func (s *segment) readEntry(e Entry) ([]byte, error) {
	buf := make([]byte, e.Size)
	if _, err := s.log.ReadAt(buf, int64(e.Offset)); err != nil {
		return nil, fmt.Errorf("commitlog: read log data: %w", err)
	}
	return buf, nil
}

// IsFull reports whether the segment has no room for further appends.
func (s *segment) IsFull() bool {
	return s.currentOffset >= s.segmentSize
}

// seal resizes the index's mapping down to exactly what was written and
// marks the segment closed, but leaves both files open — a sealed
// segment stays readable (ReadAt/ReadFromStart) for the life of the
// process, it just never accepts another Append. Called on rollover.
func (s *segment) seal() error {
	if err := s.index.ResizeToWritten(); err != nil {
		return err
	}
	s.closed = true
	return nil
}

// Close syncs and closes the segment's log and index files; used when
// the owning CommitLog shuts down, and by loadSegment to release the
// files of a segment whose reload failed.
func (s *segment) Close() error {
	if err := s.index.Close(); err != nil {
		return err
	}
	return s.log.Close()
}
