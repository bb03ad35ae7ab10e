// Package commitlog implements the per-topic durable commit log:
// segmented log/index file pairs, a persisted read/write tracker, and
// crash-survivable restore.
package commitlog

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
)

// Log is the ordered list of segments for one topic, plus the topic's
// persisted Tracker. Only the last segment may be open for writes; all
// earlier segments are closed. Exported as Log so callers (the broker
// package) spell it commitlog.Log.
type Log struct {
	Topic       string
	dir         string
	segmentSize uint64
	segments    []*segment
	tracker     *tracker
	logger      zerolog.Logger
}

// New creates a brand new commit log for topic under rootDir/topic,
// with segment 0 and a zeroed Tracker.
func New(topic string, segmentSize uint64, rootDir string, logger zerolog.Logger) (*Log, error) {
	dir := filepath.Join(rootDir, topic)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("commitlog: create topic dir: %w", err)
	}

	tr, err := openTracker(rootDir, topic)
	if err != nil {
		return nil, err
	}

	seg, err := createSegment(dir, 0, segmentSize)
	if err != nil {
		tr.Close()
		return nil, err
	}

	return &Log{
		Topic:       topic,
		dir:         dir,
		segmentSize: segmentSize,
		segments:    []*segment{seg},
		tracker:     tr,
		logger:      logger.With().Str("topic", topic).Logger(),
	}, nil
}

// Restore scans rootDir for topic subdirectories and reconstructs one
// Log per topic, seeding read/write cursors from each topic's persisted
// Tracker. A missing or empty rootDir yields ErrDirEmpty, which the
// broker recovers from by starting with an empty topic registry.
func Restore(rootDir string, segmentSize uint64, logger zerolog.Logger) ([]*Log, error) {
	entries, err := os.ReadDir(rootDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrDirEmpty{Dir: rootDir}
		}
		return nil, fmt.Errorf("commitlog: read storage root: %w", err)
	}
	if len(entries) == 0 {
		return nil, ErrDirEmpty{Dir: rootDir}
	}

	var logs []*Log
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		topic := e.Name()
		l, err := restoreTopic(rootDir, topic, segmentSize, logger)
		if err != nil {
			return nil, err
		}
		logs = append(logs, l)
	}
	if len(logs) == 0 {
		return nil, ErrDirEmpty{Dir: rootDir}
	}
	return logs, nil
}

func restoreTopic(rootDir, topic string, segmentSize uint64, logger zerolog.Logger) (*Log, error) {
	dir := filepath.Join(rootDir, topic)

	ids, err := segmentIDs(dir)
	if err != nil {
		return nil, err
	}

	tr, err := openTracker(rootDir, topic)
	if err != nil {
		return nil, err
	}

	l := &Log{
		Topic:       topic,
		dir:         dir,
		segmentSize: segmentSize,
		tracker:     tr,
		logger:      logger.With().Str("topic", topic).Logger(),
	}

	lastID := ids[len(ids)-1]
	var messageCount int
	for _, id := range ids {
		var seg *segment
		if id == lastID {
			seg, err = loadSegment(dir, id, segmentSize, segmentSize, uint64(tr.WLastIndexOffset), false)
		} else {
			var idxLen int64
			idxLen, err = fileLen(indexFileName(dir, id))
			if err == nil {
				seg, err = loadSegment(dir, id, segmentSize, uint64(idxLen), uint64(idxLen), true)
			}
		}
		if err != nil {
			return nil, err
		}
		messageCount += int(seg.index.writeOffset / entWidth)
		l.segments = append(l.segments, seg)
	}

	l.logger.Info().
		Int("segments", len(l.segments)).
		Int("messages", messageCount).
		Msg("restored topic from disk")

	return l, nil
}

func fileLen(path string) (int64, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return 0, fmt.Errorf("commitlog: stat %s: %w", path, err)
	}
	return fi.Size(), nil
}

// segmentIDs enumerates the *.log files in dir, parses their 12-digit
// names as decimal segment ids, and returns them sorted ascending.
func segmentIDs(dir string) ([]uint32, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("commitlog: read topic dir: %w", err)
	}

	var ids []uint32
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".log") {
			continue
		}
		idStr := strings.TrimSuffix(name, ".log")
		id, err := strconv.ParseUint(idStr, 10, 32)
		if err != nil {
			continue
		}
		ids = append(ids, uint32(id))
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	if len(ids) == 0 {
		return nil, ErrSegmentNotFound{}
	}
	return ids, nil
}

// Append writes data as one message to the active (last) segment,
// rolling over to a new segment on ErrNoSpaceLeft. It fails with
// ErrMessageTooLarge only if len(data) exceeds the configured segment
// size — one message can never span segments in this core.
func (l *Log) Append(data []byte) error {
	if uint64(len(data)) > l.segmentSize {
		return ErrMessageTooLarge{Size: len(data), SegmentSize: l.segmentSize}
	}

	active := l.segments[len(l.segments)-1]
	if err := active.Append(data); err != nil {
		var noSpace ErrNoSpaceLeft
		if !errors.As(err, &noSpace) {
			return err
		}

		if err := active.seal(); err != nil {
			return err
		}

		next, err := createSegment(l.dir, active.id+1, l.segmentSize)
		if err != nil {
			return err
		}
		if err := next.Append(data); err != nil {
			return err
		}
		l.segments = append(l.segments, next)
		active = next
	}

	return l.tracker.persist(l.tracker.RPosition, l.tracker.ROffset, uint32(active.index.WriteOffset()))
}

// ReadNext is the subscriber read path: it advances the topic's shared,
// persisted read cursor by one message and returns its payload, or
// ErrLogIndexOutOfBound ("no new messages") if the cursor has caught up
// with the write cursor.
func (l *Log) ReadNext() ([]byte, error) {
	rposition := l.tracker.RPosition
	lastSeg := uint32(len(l.segments) - 1)

	if int(rposition) >= len(l.segments) {
		return nil, ErrSegmentNotFound{Position: rposition}
	}
	segWriteOffset := l.segments[rposition].index.writeOffset
	roffset := uint64(l.tracker.ROffset)

	if rposition == lastSeg && roffset >= segWriteOffset {
		if err := l.tracker.persist(rposition, uint32(segWriteOffset), l.tracker.WLastIndexOffset); err != nil {
			return nil, err
		}
		return nil, ErrLogIndexOutOfBound{Offset: roffset}
	}

	if roffset >= segWriteOffset {
		rposition++
		roffset = 0
		segWriteOffset = l.segments[rposition].index.writeOffset
	}

	roffset += entWidth

	data, err := l.segments[rposition].ReadAt(roffset)
	if err != nil {
		return nil, err
	}

	if err := l.tracker.persist(rposition, uint32(roffset), l.tracker.WLastIndexOffset); err != nil {
		return nil, err
	}

	return data, nil
}

// Iter returns a restartable iterator walking every message in the log,
// from the first segment's first entry, independent of the shared read
// cursor ReadNext advances.
func (l *Log) Iter() *Iterator {
	for _, s := range l.segments {
		s.index.resetReadCursor()
	}
	return &Iterator{log: l}
}

// Iterator walks an entire Log from the beginning, segment by segment,
// using each segment's own sequential read_from_start cursor.
type Iterator struct {
	log *Log
	pos int
}

// Next returns the next message in insertion order, or ok=false once it
// would re-read the last-appended entry.
func (it *Iterator) Next() (data []byte, ok bool, err error) {
	for it.pos < len(it.log.segments) {
		seg := it.log.segments[it.pos]
		data, err = seg.ReadFromStart()
		if err == nil {
			return data, true, nil
		}
		var oob ErrLogIndexOutOfBound
		if !errors.As(err, &oob) {
			return nil, false, err
		}
		it.pos++
	}
	return nil, false, nil
}

// Close closes every segment's files and the topic's tracker file.
func (l *Log) Close() error {
	var errs []error
	for _, s := range l.segments {
		if err := s.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	errs = append(errs, l.tracker.Close())
	return errors.Join(errs...)
}
