package broker

import (
	"context"
	"fmt"
	"net"
	"runtime"

	"github.com/rs/zerolog"
	"golang.org/x/sync/semaphore"
)

// Server accepts TCP connections and hands each one to a conn running
// the frame reassembly loop against a shared Broker.
type Server struct {
	addr   string
	broker *Broker
	logger zerolog.Logger
	ln     net.Listener
	sem    *semaphore.Weighted
	cancel context.CancelFunc
	done   chan struct{}
}

// NewServer builds a Server listening on addr, dispatching requests to
// broker, with connection handler concurrency bounded to
// runtime.NumCPU().
func NewServer(addr string, broker *Broker, logger zerolog.Logger) *Server {
	return &Server{
		addr:   addr,
		broker: broker,
		logger: logger,
		sem:    semaphore.NewWeighted(int64(runtime.NumCPU())),
	}
}

// Start binds the listener and begins accepting connections in the
// background. A non-nil error here is the listener-bind failure case
// that maps to a nonzero process exit code.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("broker: listen on %s: %w", s.addr, err)
	}
	s.ln = ln

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.done = make(chan struct{})

	go s.acceptLoop(ctx)

	s.logger.Info().Str("addr", s.addr).Msg("broker listening")
	return nil
}

func (s *Server) acceptLoop(ctx context.Context) {
	defer close(s.done)
	for {
		nc, err := s.ln.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return
			default:
				s.logger.Error().Err(err).Msg("accept failed")
				return
			}
		}
		c := newConn(nc, s.broker, s.sem, s.logger)
		go c.handle(ctx)
	}
}

// Shutdown stops accepting new connections and closes the listener.
// In-flight connection handlers are not forcibly terminated; they
// drain naturally as their peers disconnect.
func (s *Server) Shutdown() error {
	if s.cancel != nil {
		s.cancel()
	}
	if s.ln == nil {
		return nil
	}
	if err := s.ln.Close(); err != nil {
		return fmt.Errorf("broker: close listener: %w", err)
	}
	<-s.done
	return nil
}
