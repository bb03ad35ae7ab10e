package protocol

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBinaryHeaderRoundTrip(t *testing.T) {
	cases := []*BinaryHeader{
		NewBinaryHeader(CmdPublish, "orders", []byte("hello world")),
		NewBinaryHeader(CmdSubscribe, "orders", nil),
		NewBinaryHeader(CmdQuit, "", nil),
	}

	for _, want := range cases {
		buf := want.Encode()
		require.Equal(t, int(want.TotalLength), len(buf))

		got, err := DecodeHeader(buf)
		require.NoError(t, err)
		require.Equal(t, want, got)
	}
}

func TestDecodeHeaderRejectsShortTotalLength(t *testing.T) {
	h := NewBinaryHeader(CmdPublish, "", nil)
	h.TotalLength = 11
	buf := h.Encode()

	_, err := DecodeHeader(buf)
	require.Error(t, err)
}

func TestDecodeHeaderRejectsOversizePayloadLength(t *testing.T) {
	h := NewBinaryHeader(CmdPublish, "q", []byte("abc"))
	h.PayloadLength = 999
	buf := h.Encode()

	_, err := DecodeHeader(buf)
	require.Error(t, err)
}

func TestFrameLen(t *testing.T) {
	h := NewBinaryHeader(CmdPublish, "orders", []byte("payload"))
	buf := h.Encode()

	n, ok := FrameLen(buf[:8])
	require.True(t, ok)
	require.Equal(t, len(buf), n)

	_, ok = FrameLen(buf[:4])
	require.False(t, ok)
}
