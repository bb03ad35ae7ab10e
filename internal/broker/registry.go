package broker

import (
	"errors"
	"sync"

	"github.com/rs/zerolog"

	"github.com/altmq/altmq-go/internal/commitlog"
)

// registry is the process-wide topic_name -> CommitLog map. It is the
// sole shared mutable state in the broker: one readers-writer lock
// guards the whole map, and operations against a single CommitLog are
// performed while holding the map's write lock, which doubles as
// mutual exclusion between concurrent operations on that CommitLog.
type registry struct {
	mu          sync.RWMutex
	topics      map[string]*commitlog.Log
	rootDir     string
	segmentSize uint64
	logger      zerolog.Logger
}

func newRegistry(rootDir string, segmentSize uint64, logger zerolog.Logger) *registry {
	return &registry{
		topics:      make(map[string]*commitlog.Log),
		rootDir:     rootDir,
		segmentSize: segmentSize,
		logger:      logger,
	}
}

// restore seeds the registry from disk. A missing or empty root
// directory is not an error: the registry simply starts empty.
func (r *registry) restore() error {
	logs, err := commitlog.Restore(r.rootDir, r.segmentSize, r.logger)
	if err != nil {
		var dirEmpty commitlog.ErrDirEmpty
		if errors.As(err, &dirEmpty) {
			return nil
		}
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, l := range logs {
		r.topics[l.Topic] = l
	}
	return nil
}

// contains reports whether topic already has a CommitLog, taking only
// the read lock.
func (r *registry) contains(topic string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.topics[topic]
	return ok
}

// append appends data to topic's CommitLog, lazily creating it on
// first use. Always taken under the write lock per spec: PUBLISH may
// insert a new topic and will mutate an existing one.
func (r *registry) append(topic string, data []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	l, ok := r.topics[topic]
	if !ok {
		var err error
		l, err = commitlog.New(topic, r.segmentSize, r.rootDir, r.logger)
		if err != nil {
			return err
		}
		r.topics[topic] = l
	}
	return l.Append(data)
}

// readNext advances topic's shared read cursor and returns its next
// message. ok is false, with a nil error, if the topic has never been
// published to. Also taken under the write lock: SUBSCRIBE mutates the
// topic's read cursor and persisted Tracker.
func (r *registry) readNext(topic string) (data []byte, ok bool, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	l, exists := r.topics[topic]
	if !exists {
		return nil, false, nil
	}
	data, err = l.ReadNext()
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

func (r *registry) close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var errs []error
	for _, l := range r.topics {
		if err := l.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
