// Package agent wires together an Agent's components: the broker's
// topic registry (restored from disk) and the TCP server that serves
// it. One Agent runs per broker process.
package agent

import (
	"sync"

	"github.com/hashicorp/go-multierror"
	"github.com/rs/zerolog"

	"github.com/altmq/altmq-go/internal/broker"
	"github.com/altmq/altmq-go/internal/config"
)

// An Agent runs on every broker process, setting up and connecting its
// components: the restored topic registry and the TCP server.
type Agent struct {
	config.Config

	logger zerolog.Logger
	broker *broker.Broker
	server *broker.Server

	shutdown     bool
	shutdowns    chan struct{}
	shutdownLock sync.Mutex
}

// New builds an Agent: it restores the topic registry from cfg.DataDir
// (an empty or missing directory is not an error, per the commit log's
// restore contract) and starts the TCP listener on cfg.BindAddr.
func New(cfg config.Config, logger zerolog.Logger) (*Agent, error) {
	a := &Agent{
		Config:    cfg,
		logger:    logger,
		shutdowns: make(chan struct{}),
	}

	setup := []func() error{
		a.setupBroker,
		a.setupServer,
	}

	for _, fn := range setup {
		if err := fn(); err != nil {
			return nil, err
		}
	}

	return a, nil
}

func (a *Agent) setupBroker() error {
	var err error
	a.broker, err = broker.New(a.Config.DataDir, a.Config.SegmentSize, a.logger)
	return err
}

func (a *Agent) setupServer() error {
	a.server = broker.NewServer(a.Config.BindAddr, a.broker, a.logger)
	return a.server.Start()
}

// Shutdown stops the listener and closes every commit log, in that
// order, so no new request can be accepted while storage is closing.
// It is idempotent: calls after the first are no-ops. Errors from both
// steps are aggregated rather than short-circuited, so a listener
// close failure never hides a storage close failure.
func (a *Agent) Shutdown() error {
	a.shutdownLock.Lock()
	defer a.shutdownLock.Unlock()

	if a.shutdown {
		return nil
	}
	a.shutdown = true
	close(a.shutdowns)

	var result *multierror.Error
	if err := a.server.Shutdown(); err != nil {
		result = multierror.Append(result, err)
	}
	if err := a.broker.Close(); err != nil {
		result = multierror.Append(result, err)
	}
	return result.ErrorOrNil()
}
