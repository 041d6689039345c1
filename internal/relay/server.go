package relay

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/nostrforge/relay/internal/config"
	"github.com/nostrforge/relay/internal/limiter"
	"github.com/nostrforge/relay/internal/logger"
	"github.com/nostrforge/relay/internal/storage"
)

// Listener accepts transport connections, completes the WebSocket
// handshake at "/", and hands each connection off to a new Session. It
// never lets one handshake failure affect any other session.
type Listener struct {
	cfg     config.RelayConfig
	limCfg  config.LimiterConfig
	store   *storage.Store
	reg     *Registry
	log     *zap.Logger
	upgrade websocket.Upgrader
	httpSrv *http.Server
}

// NewListener builds a Listener bound to cfg.Host once ListenAndServe
// is called. store and reg are shared by every session it spawns.
func NewListener(cfg config.RelayConfig, limCfg config.LimiterConfig, store *storage.Store, reg *Registry) *Listener {
	return &Listener{
		cfg:    cfg,
		limCfg: limCfg,
		store:  store,
		reg:    reg,
		log:    logger.New("listener"),
		upgrade: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// ListenAndServe blocks accepting connections until ctx is canceled,
// at which point it stops accepting and returns as soon as the HTTP
// server's shutdown has begun. It does not wait for that shutdown to
// finish or for individual sessions to drain; callers coordinate that
// separately.
func (l *Listener) ListenAndServe(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		l.handleUpgrade(ctx, w, r)
	})

	l.httpSrv = &http.Server{
		Addr:         l.cfg.Host,
		Handler:      mux,
		ReadTimeout:  l.cfg.IdleTimeout,
		WriteTimeout: l.cfg.WriteTimeout,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = l.httpSrv.Shutdown(shutdownCtx)
	}()

	l.log.Info("listening", zap.String("addr", l.cfg.Host))
	if err := l.httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("listen on %s: %w", l.cfg.Host, err)
	}
	return nil
}

func (l *Listener) handleUpgrade(ctx context.Context, w http.ResponseWriter, r *http.Request) {
	ws, err := l.upgrade.Upgrade(w, r, nil)
	if err != nil {
		l.log.Debug("upgrade failed", zap.Error(err), zap.String("remote", r.RemoteAddr))
		return
	}

	key, err := newSessionKey()
	if err != nil {
		l.log.Warn("failed to allocate session key", zap.Error(err))
		_ = ws.Close()
		return
	}

	rate := limiter.New(l.limCfg.EventsPerSecond, l.limCfg.Burst)
	session := NewSession(key, ws, l.cfg, l.store, l.reg, rate)
	go session.Run(ctx)
}

func newSessionKey() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
