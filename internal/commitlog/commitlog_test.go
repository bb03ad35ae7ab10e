package commitlog

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestCommitLogAppendAndReadNext(t *testing.T) {
	root := t.TempDir()
	logger := zerolog.Nop()

	l, err := New("orders", 1024, root, logger)
	require.NoError(t, err)

	require.NoError(t, l.Append([]byte("one")))
	require.NoError(t, l.Append([]byte("two")))

	got, err := l.ReadNext()
	require.NoError(t, err)
	require.Equal(t, []byte("one"), got)

	got, err = l.ReadNext()
	require.NoError(t, err)
	require.Equal(t, []byte("two"), got)

	_, err = l.ReadNext()
	require.Error(t, err)
	var oob ErrLogIndexOutOfBound
	require.ErrorAs(t, err, &oob)

	require.NoError(t, l.Close())
}

func TestCommitLogRejectsOversizeMessage(t *testing.T) {
	root := t.TempDir()
	l, err := New("orders", 16, root, zerolog.Nop())
	require.NoError(t, err)
	defer l.Close()

	err = l.Append(make([]byte, 17))
	require.Error(t, err)
	var tooLarge ErrMessageTooLarge
	require.ErrorAs(t, err, &tooLarge)
}

func TestCommitLogRolloverAcrossSegments(t *testing.T) {
	root := t.TempDir()
	l, err := New("orders", 24, root, zerolog.Nop())
	require.NoError(t, err)

	msgs := [][]byte{
		make([]byte, 12),
		make([]byte, 12),
		make([]byte, 12),
	}
	for i := range msgs {
		msgs[i][0] = byte(i + 1)
	}
	for _, m := range msgs {
		require.NoError(t, l.Append(m))
	}

	require.Len(t, l.segments, 2)
	require.Equal(t, uint64(24), l.segments[0].currentOffset)
	require.Equal(t, uint64(12), l.segments[1].currentOffset)

	for _, want := range msgs {
		got, err := l.ReadNext()
		require.NoError(t, err)
		require.Equal(t, want, got)
	}

	_, err = l.ReadNext()
	require.Error(t, err)

	require.NoError(t, l.Close())
}

func TestCommitLogIterWalksInOrder(t *testing.T) {
	root := t.TempDir()
	l, err := New("orders", 24, root, zerolog.Nop())
	require.NoError(t, err)
	defer l.Close()

	msgs := [][]byte{make([]byte, 12), make([]byte, 12), make([]byte, 12)}
	for _, m := range msgs {
		require.NoError(t, l.Append(m))
	}

	it := l.Iter()
	var got [][]byte
	for {
		data, ok, err := it.Next()
		require.NoError(t, err)
		if !ok {
			break
		}
		got = append(got, data)
	}
	require.Equal(t, msgs, got)
}

func TestCommitLogRestoreAfterCrash(t *testing.T) {
	root := t.TempDir()

	l, err := New("orders", 24, root, zerolog.Nop())
	require.NoError(t, err)

	msgs := [][]byte{
		[]byte("aaaaaaaaaaaa"),
		[]byte("bbbbbbbbbbbb"),
		[]byte("cccccccccccc"),
		[]byte("dddddddddddd"),
		[]byte("eeeeeeeeeeee"),
		[]byte("ffffffffffff"),
	}
	for _, m := range msgs {
		require.NoError(t, l.Append(m))
	}
	// no graceful Close: simulate a crash, leaving files as last synced.

	logs, err := Restore(root, 24, zerolog.Nop())
	require.NoError(t, err)
	require.Len(t, logs, 1)

	restored := logs[0]
	require.Equal(t, "orders", restored.Topic)
	require.Len(t, restored.segments, 3)

	for _, want := range msgs {
		got, err := restored.ReadNext()
		require.NoError(t, err)
		require.Equal(t, want, got)
	}

	_, err = restored.ReadNext()
	require.Error(t, err)

	require.NoError(t, restored.Close())
}

func TestRestoreEmptyDirectory(t *testing.T) {
	root := t.TempDir()

	_, err := Restore(root, 1024, zerolog.Nop())
	require.Error(t, err)
	var dirEmpty ErrDirEmpty
	require.ErrorAs(t, err, &dirEmpty)
}

func TestRestoreMissingDirectory(t *testing.T) {
	_, err := Restore("/nonexistent/path/for/test", 1024, zerolog.Nop())
	require.Error(t, err)
	var dirEmpty ErrDirEmpty
	require.ErrorAs(t, err, &dirEmpty)
}
