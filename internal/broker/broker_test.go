package broker

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/altmq/altmq-go/internal/protocol"
)

func newTestBroker(t *testing.T) *Broker {
	t.Helper()
	b, err := New(t.TempDir(), 1024, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = b.Close() })
	return b
}

func TestDispatchPublishThenSubscribe(t *testing.T) {
	b := newTestBroker(t)

	topic := protocol.NewTopic(1, 1718709072, []byte("Hello World!"))
	publishResp := b.Dispatch(protocol.NewBinaryHeader(protocol.CmdPublish, "t", topic.Encode()))
	require.Equal(t, protocol.Ok, publishResp.Code)
	require.Equal(t, protocol.EmptyResponse, publishResp.Message)

	subResp := b.Dispatch(protocol.NewBinaryHeader(protocol.CmdSubscribe, "t", nil))
	require.Equal(t, protocol.Ok, subResp.Code)
	require.Equal(t, protocol.ResponseWithBody, subResp.Message)
	require.Equal(t, topic.Encode(), subResp.Data)
}

func TestDispatchPublishMissingQueueName(t *testing.T) {
	b := newTestBroker(t)

	resp := b.Dispatch(protocol.NewBinaryHeader(protocol.CmdPublish, "", []byte("payload")))
	require.Equal(t, protocol.Err, resp.Code)
	require.Equal(t, protocol.QueueNameRequired, resp.Message)
}

func TestDispatchPublishMissingPayload(t *testing.T) {
	b := newTestBroker(t)

	resp := b.Dispatch(protocol.NewBinaryHeader(protocol.CmdPublish, "t", nil))
	require.Equal(t, protocol.Err, resp.Code)
	require.Equal(t, protocol.MessageBodyRequired, resp.Message)
}

func TestDispatchSubscribeUnknownTopic(t *testing.T) {
	b := newTestBroker(t)

	resp := b.Dispatch(protocol.NewBinaryHeader(protocol.CmdSubscribe, "ghost", nil))
	require.Equal(t, protocol.Ok, resp.Code)
	require.Equal(t, protocol.NoNewMessages, resp.Message)
}

func TestDispatchSubscribeExhausted(t *testing.T) {
	b := newTestBroker(t)

	b.Dispatch(protocol.NewBinaryHeader(protocol.CmdPublish, "t", []byte("only message")))
	first := b.Dispatch(protocol.NewBinaryHeader(protocol.CmdSubscribe, "t", nil))
	require.Equal(t, protocol.ResponseWithBody, first.Message)

	second := b.Dispatch(protocol.NewBinaryHeader(protocol.CmdSubscribe, "t", nil))
	require.Equal(t, protocol.Ok, second.Code)
	require.Equal(t, protocol.NoNewMessages, second.Message)
}

func TestDispatchPing(t *testing.T) {
	b := newTestBroker(t)

	resp := b.Dispatch(protocol.NewBinaryHeader(protocol.CmdPing, "", nil))
	require.Equal(t, protocol.Ok, resp.Code)
	require.Equal(t, protocol.ResponseWithMessage, resp.Message)
	require.Equal(t, []byte("pong"), resp.Data)
}

func TestDispatchStatsIsErrorForNow(t *testing.T) {
	b := newTestBroker(t)

	resp := b.Dispatch(protocol.NewBinaryHeader(protocol.CmdStats, "", nil))
	require.Equal(t, protocol.Err, resp.Code)
	require.Equal(t, protocol.ErrorResponse, resp.Message)
}

func TestDispatchMessageTooLarge(t *testing.T) {
	b, err := New(t.TempDir(), 8, zerolog.Nop())
	require.NoError(t, err)
	defer b.Close()

	resp := b.Dispatch(protocol.NewBinaryHeader(protocol.CmdPublish, "t", make([]byte, 9)))
	require.Equal(t, protocol.Err, resp.Code)
	require.Equal(t, protocol.ErrorResponse, resp.Message)
}

func TestDispatchTwoPublishersOneTopic(t *testing.T) {
	b := newTestBroker(t)

	b.Dispatch(protocol.NewBinaryHeader(protocol.CmdPublish, "t", []byte("from-a")))
	b.Dispatch(protocol.NewBinaryHeader(protocol.CmdPublish, "t", []byte("from-b")))

	first := b.Dispatch(protocol.NewBinaryHeader(protocol.CmdSubscribe, "t", nil))
	second := b.Dispatch(protocol.NewBinaryHeader(protocol.CmdSubscribe, "t", nil))

	require.Equal(t, protocol.ResponseWithBody, first.Message)
	require.Equal(t, protocol.ResponseWithBody, second.Message)
	require.ElementsMatch(t, [][]byte{first.Data, second.Data}, [][]byte{[]byte("from-a"), []byte("from-b")})
}
