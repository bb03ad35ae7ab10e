package broker

import (
	"context"
	"errors"
	"io"
	"net"

	"github.com/rs/zerolog"
	"golang.org/x/sync/semaphore"

	"github.com/altmq/altmq-go/internal/protocol"
)

// readBufSize is how many bytes conn.handle reads into its scratch
// buffer per socket read.
const readBufSize = 4096

// conn owns one accepted TCP connection: a private reassembly buffer
// of leftover bytes plus a shared reference to the broker. Requests
// decoded on this connection are handled one at a time, in order, so
// responses are emitted in the order their requests were decoded.
type conn struct {
	nc       net.Conn
	broker   *Broker
	logger   zerolog.Logger
	sem      *semaphore.Weighted
	scratch  [readBufSize]byte
	leftover []byte
}

func newConn(nc net.Conn, broker *Broker, sem *semaphore.Weighted, logger zerolog.Logger) *conn {
	return &conn{
		nc:     nc,
		broker: broker,
		sem:    sem,
		logger: logger.With().Str("remote_addr", nc.RemoteAddr().String()).Logger(),
	}
}

// handle runs the frame reassembly loop until the peer closes the
// connection, a framing error occurs, or the command stream requests
// QUIT. It acquires the shared connection-concurrency semaphore for
// the lifetime of the connection, bounding how many connections run
// their handler bodies concurrently to the host's CPU count.
func (c *conn) handle(ctx context.Context) {
	if err := c.sem.Acquire(ctx, 1); err != nil {
		return
	}
	defer c.sem.Release(1)
	defer c.nc.Close()

	for {
		n, err := c.nc.Read(c.scratch[:])
		if n > 0 {
			c.leftover = append(c.leftover, c.scratch[:n]...)
			if quit := c.drainFrames(); quit {
				return
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return
			}
			var ne net.Error
			if errors.As(err, &ne) && ne.Timeout() {
				continue
			}
			c.logger.Error().Err(err).Msg("connection read failed")
			return
		}
	}
}

// drainFrames decodes and dispatches every complete frame currently
// buffered in c.leftover, leaving any trailing partial frame in place.
// It reports whether the connection should now be closed (QUIT).
func (c *conn) drainFrames() bool {
	buf := c.leftover
	for {
		totalLength, ok := protocol.FrameLen(buf)
		if !ok || len(buf) < 8 {
			break
		}
		if totalLength < protocol.MinTotalLength || totalLength > readBufSize*64 {
			c.logger.Error().Int("total_length", totalLength).Msg("malformed frame, terminating connection")
			c.leftover = nil
			return true
		}
		if len(buf) < totalLength {
			break
		}

		frame := buf[:totalLength]
		buf = buf[totalLength:]

		h, err := protocol.DecodeHeader(frame)
		if err != nil {
			c.logger.Error().Err(err).Msg("malformed header, terminating connection")
			c.leftover = nil
			return true
		}

		if h.Command == protocol.CmdQuit {
			c.leftover = nil
			return true
		}

		resp := c.broker.Dispatch(h)
		if err := c.writeResponse(resp); err != nil {
			c.logger.Error().Err(err).Msg("write response failed, terminating connection")
			c.leftover = nil
			return true
		}
	}

	c.leftover = append([]byte(nil), buf...)
	return false
}

func (c *conn) writeResponse(resp *protocol.Response) error {
	_, err := c.nc.Write(resp.Encode())
	return err
}
