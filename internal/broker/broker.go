// Package broker dispatches decoded wire requests against the topic
// registry and produces the corresponding Response frames.
package broker

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/altmq/altmq-go/internal/commitlog"
	"github.com/altmq/altmq-go/internal/protocol"
)

// Broker owns the topic registry and turns one decoded BinaryHeader
// into one Response. It holds no per-connection state; a single
// Broker is shared by every connection's handler goroutine.
type Broker struct {
	registry *registry
	logger   zerolog.Logger
}

// New builds a Broker whose topic registry is rooted at dataDir, with
// segments of segmentSize bytes. It restores any existing on-disk
// topics before returning.
func New(dataDir string, segmentSize uint64, logger zerolog.Logger) (*Broker, error) {
	r := newRegistry(dataDir, segmentSize, logger)
	if err := r.restore(); err != nil {
		return nil, fmt.Errorf("broker: restore topic registry: %w", err)
	}
	return &Broker{registry: r, logger: logger}, nil
}

// Dispatch routes one request to its handler and returns the Response
// to send back. It never returns an error itself: every failure mode
// defined by the protocol is represented as a Response.
func (b *Broker) Dispatch(h *protocol.BinaryHeader) *protocol.Response {
	switch h.Command {
	case protocol.CmdPublish:
		return b.handlePublish(h)
	case protocol.CmdSubscribe:
		return b.handleSubscribe(h)
	case protocol.CmdPing:
		return protocol.NewResponse(protocol.Ok, protocol.ResponseWithMessage, []byte("pong"))
	case protocol.CmdStats:
		return protocol.NewResponse(protocol.Err, protocol.ErrorResponse, []byte("STATS is not yet implemented"))
	default:
		return protocol.NewResponse(protocol.Err, protocol.ErrorResponse, []byte(fmt.Sprintf("unknown command %d", h.Command)))
	}
}

func (b *Broker) handlePublish(h *protocol.BinaryHeader) *protocol.Response {
	if h.QueueName == "" {
		return protocol.NewResponse(protocol.Err, protocol.QueueNameRequired, []byte("queue_name is required"))
	}
	if len(h.Payload) == 0 {
		return protocol.NewResponse(protocol.Err, protocol.MessageBodyRequired, []byte("payload is required"))
	}

	if err := b.registry.append(h.QueueName, h.Payload); err != nil {
		b.logger.Error().Err(err).Str("topic", h.QueueName).Msg("publish failed")
		return protocol.NewResponse(protocol.Err, protocol.ErrorResponse, []byte(err.Error()))
	}
	return protocol.NewResponse(protocol.Ok, protocol.EmptyResponse, nil)
}

func (b *Broker) handleSubscribe(h *protocol.BinaryHeader) *protocol.Response {
	if h.QueueName == "" {
		return protocol.NewResponse(protocol.Err, protocol.QueueNameRequired, []byte("queue_name is required"))
	}

	if !b.registry.contains(h.QueueName) {
		return protocol.NewResponse(protocol.Ok, protocol.NoNewMessages, nil)
	}

	data, ok, err := b.registry.readNext(h.QueueName)
	if err != nil {
		var oob commitlog.ErrLogIndexOutOfBound
		if errors.As(err, &oob) {
			return protocol.NewResponse(protocol.Ok, protocol.NoNewMessages, nil)
		}
		b.logger.Error().Err(err).Str("topic", h.QueueName).Msg("subscribe failed")
		return protocol.NewResponse(protocol.Err, protocol.ErrorResponse, []byte(err.Error()))
	}
	if !ok {
		return protocol.NewResponse(protocol.Ok, protocol.NoNewMessages, nil)
	}
	return protocol.NewResponse(protocol.Ok, protocol.ResponseWithBody, data)
}

// Close closes every CommitLog in the topic registry.
func (b *Broker) Close() error {
	return b.registry.close()
}
