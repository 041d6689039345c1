// Package application wires configuration, storage, the session
// registry and the listener into one process, and owns startup and
// graceful shutdown ordering.
package application

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/nostrforge/relay/internal/config"
	"github.com/nostrforge/relay/internal/logger"
	"github.com/nostrforge/relay/internal/relay"
	"github.com/nostrforge/relay/internal/storage"
)

// Node owns every long-lived component of one relay process.
type Node struct {
	cfg      *config.Config
	store    *storage.Store
	registry *relay.Registry
	listener *relay.Listener
	log      *zap.Logger

	serveErr chan error
}

// New opens the store and assembles the registry and listener. It does
// not start accepting connections; call Start.
func New(cfg *config.Config) (*Node, error) {
	store, err := storage.Open(cfg.Storage.Path, cfg.Storage.SyncWrites)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	registry := relay.NewRegistry(store)
	listener := relay.NewListener(cfg.Relay, cfg.Limiter, store, registry)

	return &Node{
		cfg:      cfg,
		store:    store,
		registry: registry,
		listener: listener,
		log:      logger.New("node"),
		serveErr: make(chan error, 1),
	}, nil
}

// Start begins accepting connections in the background. ctx cancellation
// tells the listener to stop accepting and existing sessions to drain;
// Start itself returns immediately.
func (n *Node) Start(ctx context.Context) {
	go func() {
		n.serveErr <- n.listener.ListenAndServe(ctx)
	}()
	n.log.Info("node started", zap.String("bind", n.cfg.Relay.Host), zap.String("store", n.cfg.Storage.Path))
}

// Wait blocks until the listener has stopped serving, returning
// whatever error it exited with (nil on a clean shutdown).
func (n *Node) Wait() error {
	return <-n.serveErr
}

// Shutdown closes the store. Callers must have already canceled the
// context passed to Start so the listener has stopped accepting first.
func (n *Node) Shutdown() error {
	n.log.Info("shutting down")

	if err := n.store.Close(); err != nil {
		return fmt.Errorf("close store: %w", err)
	}
	n.log.Info("shutdown complete")
	return nil
}
