package protocol

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestResponseRoundTrip(t *testing.T) {
	cases := []*Response{
		NewResponse(Ok, EmptyResponse, nil),
		NewResponse(Ok, ResponseWithBody, []byte("payload bytes")),
		NewResponse(Err, QueueNameRequired, []byte("queue_name is required")),
	}

	for _, want := range cases {
		buf := want.Encode()
		require.Equal(t, int(want.Length()), len(buf))

		got, err := DecodeResponse(buf)
		require.NoError(t, err)
		require.Equal(t, want, got)
	}
}

func TestDecodeResponseRejectsLengthMismatch(t *testing.T) {
	r := NewResponse(Err, ErrorResponse, []byte("boom"))
	buf := r.Encode()

	_, err := DecodeResponse(buf[:len(buf)-1])
	require.Error(t, err)
}

func TestResponseMessageString(t *testing.T) {
	require.Equal(t, "QueueNameRequired", QueueNameRequired.String())
	require.Equal(t, "Unknown", ResponseMessage(99).String())
}
