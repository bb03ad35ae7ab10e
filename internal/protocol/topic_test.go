package protocol

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTopicRoundTrip(t *testing.T) {
	want := NewTopic(1, 1718709072, []byte("Hello World!"))
	buf := want.Encode()
	require.Equal(t, int(want.Length()), len(buf))

	got, err := DecodeTopic(buf)
	require.NoError(t, err)
	require.Equal(t, want, got)
}

func TestTopicRoundTripEmptyMessage(t *testing.T) {
	want := NewTopic(0, 0, nil)
	buf := want.Encode()

	got, err := DecodeTopic(buf)
	require.NoError(t, err)
	require.Equal(t, want.ID, got.ID)
	require.Equal(t, want.Timestamp, got.Timestamp)
	require.Empty(t, got.Message)
}

func TestDecodeTopicRejectsLengthMismatch(t *testing.T) {
	want := NewTopic(1, 1, []byte("abc"))
	buf := want.Encode()

	_, err := DecodeTopic(buf[:len(buf)-1])
	require.Error(t, err)
}
