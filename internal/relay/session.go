package relay

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/nostrforge/relay/internal/config"
	apperrors "github.com/nostrforge/relay/internal/errors"
	"github.com/nostrforge/relay/internal/limiter"
	"github.com/nostrforge/relay/internal/logger"
	"github.com/nostrforge/relay/internal/metrics"
	"github.com/nostrforge/relay/internal/nostr"
	"github.com/nostrforge/relay/internal/storage"
)

const (
	pongWait   = 90 * time.Second
	pingPeriod = (pongWait * 8) / 10
)

// Session is the per-connection actor: one receive loop decoding client
// frames and one outbound task draining a queue into the socket. The
// two only ever talk to each other through outbound and to the rest of
// the relay through registry and store.
type Session struct {
	key   string
	ws    *websocket.Conn
	cfg   config.RelayConfig
	store *storage.Store
	reg   *Registry
	rate  *limiter.SessionLimiter
	log   *zap.Logger

	outbound  chan []byte
	closeOnce sync.Once
	done      chan struct{}
	state     stateBox
}

// NewSession wraps an already-upgraded connection. Call Run, which
// registers the session, from the goroutine that owns the connection.
func NewSession(key string, ws *websocket.Conn, cfg config.RelayConfig, store *storage.Store, reg *Registry, rate *limiter.SessionLimiter) *Session {
	return &Session{
		key:      key,
		ws:       ws,
		cfg:      cfg,
		store:    store,
		reg:      reg,
		rate:     rate,
		log:      logger.New("session").With(zap.String("session", key)),
		outbound: make(chan []byte, cfg.SendBufferSize),
		done:     make(chan struct{}),
	}
}

// Run drives the session to completion: it registers, starts the
// outbound drain, and blocks in the receive loop until the connection
// dies or ctx is canceled. It always leaves the session Closed and
// unregistered before returning.
func (s *Session) Run(ctx context.Context) {
	s.reg.Register(s)
	metrics.ActiveConnections.Inc()
	defer func() {
		s.drain()
		s.reg.Unregister(s.key)
		metrics.ActiveConnections.Dec()
	}()

	sessionCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		s.outboundLoop(sessionCtx)
	}()

	s.receiveLoop(sessionCtx)
	cancel()
	wg.Wait()
}

func (s *Session) receiveLoop(ctx context.Context) {
	s.ws.SetReadLimit(int64(s.cfg.MaxMessageBytes))
	_ = s.ws.SetReadDeadline(time.Now().Add(pongWait))
	s.ws.SetPongHandler(func(string) error {
		return s.ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		select {
		case <-ctx.Done():
			s.beginDraining("shutting down")
			return
		default:
		}

		_, raw, err := s.ws.ReadMessage()
		if err != nil {
			s.beginDraining("read error")
			return
		}
		_ = s.ws.SetReadDeadline(time.Now().Add(pongWait))

		msg, err := nostr.Decode(raw)
		if err != nil {
			var unknown *nostr.UnknownTypeError
			if errors.As(err, &unknown) {
				s.sendNotice(apperrors.UnknownMessageType(unknown.Kind).Message)
			} else {
				s.sendNotice(apperrors.MalformedMessage(err).Message)
			}
			continue
		}
		s.handle(ctx, msg)
	}
}

func (s *Session) handle(ctx context.Context, msg interface{}) {
	switch m := msg.(type) {
	case nostr.EventMessage:
		metrics.CommandsReceived.WithLabelValues("EVENT").Inc()
		s.handleEvent(m.Event)
	case nostr.ReqMessage:
		metrics.CommandsReceived.WithLabelValues("REQ").Inc()
		s.handleReq(ctx, m)
	case nostr.CloseMessage:
		metrics.CommandsReceived.WithLabelValues("CLOSE").Inc()
		s.reg.RemoveSubscription(s.key, m.SubscriptionID)
	default:
		s.sendNotice(apperrors.UnknownMessageType("").Message)
	}
}

// handleEvent runs ingest synchronously on the receive loop. A REQ on
// this same session that follows this EVENT frame must see it, and
// bbolt serializes all writers behind a single lock regardless, so
// offloading the write to another goroutine would buy no parallelism
// while losing that ordering guarantee.
func (s *Session) handleEvent(event nostr.Event) {
	s.ingest(event)
}

func (s *Session) handleReq(ctx context.Context, m nostr.ReqMessage) {
	s.reg.AddSubscription(s.key, m.SubscriptionID, m.Filters)

	results, err := s.store.Query(m.Filters)
	if err != nil {
		s.sendNotice(apperrors.StoreError("query", err).Message)
		return
	}
	for _, event := range results {
		s.deliver(m.SubscriptionID, event)
	}
	if payload, err := nostr.EncodeEOSE(m.SubscriptionID); err == nil {
		s.enqueue(payload)
	}
}

// deliver encodes one EVENT frame for subID and enqueues it. It is the
// entry point the registry uses to fan events into this session.
func (s *Session) deliver(subID string, event nostr.Event) {
	payload, err := nostr.EncodeEvent(subID, event)
	if err != nil {
		return
	}
	s.enqueue(payload)
	metrics.MessagesDispatched.Inc()
}

func (s *Session) sendNotice(message string) {
	payload, err := nostr.EncodeNotice(message)
	if err != nil {
		return
	}
	s.enqueue(payload)
}

// enqueue is non-blocking: a session whose outbound queue is full is
// already too far behind to keep per-subscription order meaningful, so
// it is moved to Draining instead of stalling the caller.
func (s *Session) enqueue(payload []byte) {
	select {
	case s.outbound <- payload:
	default:
		metrics.DispatchDroppedSlow.Inc()
		s.beginDraining("outbound queue full")
	}
}

func (s *Session) outboundLoop(ctx context.Context) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case payload, ok := <-s.outbound:
			if !ok {
				return
			}
			if err := s.rate.Wait(ctx); err != nil {
				return
			}
			_ = s.ws.SetWriteDeadline(time.Now().Add(s.cfg.WriteTimeout))
			if err := s.ws.WriteMessage(websocket.TextMessage, payload); err != nil {
				s.beginDraining("write error")
				return
			}
		case <-ticker.C:
			_ = s.ws.SetWriteDeadline(time.Now().Add(s.cfg.WriteTimeout))
			if err := s.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				s.beginDraining("ping failed")
				return
			}
		}
	}
}

// beginDraining moves the session to Draining exactly once. The
// receive/outbound loops observe it via ctx cancellation in Run.
func (s *Session) beginDraining(reason string) {
	if s.state.transition(StateDraining) {
		s.log.Debug("session draining", zap.String("reason", reason))
	}
}

// drain flushes whatever is already queued, best-effort, then closes
// the socket and marks the session Closed.
func (s *Session) drain() {
	s.state.transition(StateDraining)
	deadline := time.Now().Add(2 * time.Second)
	for {
		select {
		case payload, ok := <-s.outbound:
			if !ok {
				break
			}
			_ = s.ws.SetWriteDeadline(deadline)
			_ = s.ws.WriteMessage(websocket.TextMessage, payload)
		default:
			s.closeOnce.Do(func() {
				_ = s.ws.Close()
				close(s.done)
			})
			s.state.transition(StateClosed)
			return
		}
	}
}
