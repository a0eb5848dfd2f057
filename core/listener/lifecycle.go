package listener

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"stub-server/core/config"
	"stub-server/core/metrics"
	"stub-server/core/middleware/auth"
	"stub-server/core/server"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"
)

// Loader supplies a fresh configuration snapshot.
type Loader interface {
	Load() (*config.Config, error)
}

// HandlerBuilder builds the request handler of one run from its bound address
// and the settings it was started with.
type HandlerBuilder func(addr server.Address, settings server.Config) (fasthttp.RequestHandler, error)

// Config wires a Lifecycle.
type Config struct {
	Source  Loader
	Handler HandlerBuilder
	Logger  *zap.Logger
	Metrics *metrics.Metrics
	// IdleTimeout closes keep-alive connections that stay quiet between requests for this long.
	IdleTimeout time.Duration
	// ReadTimeout bounds reading one whole request, the first one on a fresh connection included.
	ReadTimeout time.Duration
}

// Lifecycle starts, stops and restarts the listener. It is safe for concurrent use.
type Lifecycle struct {
	source      Loader
	build       HandlerBuilder
	logger      *zap.Logger
	metrics     *metrics.Metrics
	idleTimeout time.Duration
	readTimeout time.Duration

	mu      sync.Mutex
	state   atomic.Int32
	run     *run
	retired []*run

	conns sync.WaitGroup
}

// New creates a stopped Lifecycle.
func New(cfg Config) *Lifecycle {
	l := cfg.Logger
	if l == nil {
		l = zap.NewNop()
	}
	idle := cfg.IdleTimeout
	if idle <= 0 {
		idle = time.Minute
	}
	read := cfg.ReadTimeout
	if read <= 0 {
		read = 30 * time.Second
	}
	return &Lifecycle{
		source:      cfg.Source,
		build:       cfg.Handler,
		logger:      l,
		metrics:     cfg.Metrics,
		idleTimeout: idle,
		readTimeout: read,
	}
}

// State returns the current state without waiting for a Start or Stop in progress.
func (l *Lifecycle) State() State {
	return State(l.state.Load())
}

// Address returns the bound address of the current run.
// ok is false when the listener is stopped.
func (l *Lifecycle) Address() (addr server.Address, ok bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.run == nil {
		return server.Address{}, false
	}
	return l.run.addr, true
}

// NeedsRestart reports whether cfg changes a setting that only applies after a rebind.
// A stopped listener never needs one.
func (l *Lifecycle) NeedsRestart(cfg *config.Config) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.run == nil || cfg == nil {
		return false
	}
	return l.run.settings.RequiresRebind(cfg.Server)
}

// Start binds the listener with a freshly loaded snapshot.
// A listener that is already running is stopped first, so Start doubles as restart.
func (l *Lifecycle) Start() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.run != nil {
		if err := l.stopLocked(); err != nil {
			l.logger.Warn("Previous listener did not close cleanly", zap.Error(err))
		}
	}

	snap, err := l.source.Load()
	if err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}
	addr, err := snap.Server.Address()
	if err != nil {
		return err
	}
	policy := auth.PolicyFrom(snap.Server)

	ln, err := listen(addr, snap.Server)
	if err != nil {
		return err
	}
	if tcp, ok := ln.Addr().(*net.TCPAddr); ok {
		addr.Port = tcp.Port
	}

	handler, err := l.build(addr, snap.Server)
	if err != nil {
		_ = ln.Close()
		return fmt.Errorf("failed to build request handler: %w", err)
	}

	r := newRun(ln, addr, snap.Server)
	r.srv = &fasthttp.Server{
		Handler:                      r.wrap(handler),
		Name:                         "stub-server",
		IdleTimeout:                  l.idleTimeout,
		ReadTimeout:                  l.readTimeout,
		ConnState:                    r.track,
		Logger:                       printfLogger{l.logger},
		DisablePreParseMultipartForm: true,
		NoDefaultContentType:         true,
	}

	l.run = r
	l.state.Store(int32(Listening))
	l.metrics.SetListening(true)

	go l.acceptLoop(r)

	l.logger.Info("Server listening",
		zap.String("uri", addr.Prefix()),
		zap.Stringer("authentication", policy.Kind),
	)
	return nil
}

// Stop closes the listening socket. Stopping a stopped listener is a no-op.
// Connections that have not started a request are closed; in-flight requests are
// not cancelled and their connections close once answered. Use Wait to drain them.
func (l *Lifecycle) Stop() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.stopLocked()
}

// Wait blocks until every connection accepted so far has been closed, or ctx ends.
// When ctx ends first the remaining connections are closed forcibly.
func (l *Lifecycle) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		l.conns.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		l.mu.Lock()
		for _, r := range l.retired {
			r.closeConns(false)
		}
		if l.run != nil {
			l.run.closeConns(false)
		}
		l.mu.Unlock()
		return ctx.Err()
	}
}

func (l *Lifecycle) stopLocked() error {
	r := l.run
	if r == nil {
		return nil
	}

	l.state.Store(int32(Stopping))
	r.stopping.Store(true)

	var closeErr error
	if err := r.ln.Close(); err != nil && !IsShutdownRace(err) {
		closeErr = fmt.Errorf("failed to close listener: %w", err)
	}
	<-r.done
	r.closeConns(true)

	l.retire(r)
	l.run = nil
	l.state.Store(int32(Stopped))
	l.metrics.SetListening(false)
	l.logger.Info("Server stopped", zap.String("uri", r.addr.Prefix()))
	return closeErr
}

// retire keeps r reachable for Wait while it still has open connections.
func (l *Lifecycle) retire(r *run) {
	kept := l.retired[:0]
	for _, old := range l.retired {
		if old.openConns() > 0 {
			kept = append(kept, old)
		}
	}
	if r.openConns() > 0 {
		kept = append(kept, r)
	}
	l.retired = kept
}

func (l *Lifecycle) acceptLoop(r *run) {
	defer close(r.done)
	for {
		conn, err := r.ln.Accept()
		if err != nil {
			if err = r.classify(err); IsShutdownRace(err) {
				l.logger.Debug("Accept loop ended", zap.String("uri", r.addr.Prefix()), zap.Error(err))
				return
			}
			l.logger.Error("Accept failed, listener no longer accepts connections",
				zap.String("uri", r.addr.Prefix()),
				zap.Error(err),
			)
			l.metrics.SetListening(false)
			return
		}

		r.track(conn, fasthttp.StateNew)
		l.conns.Add(1)
		go l.serve(r, conn)
	}
}

func (l *Lifecycle) serve(r *run, conn net.Conn) {
	defer l.conns.Done()
	defer r.track(conn, fasthttp.StateClosed)
	defer func() {
		if p := recover(); p != nil {
			_ = conn.Close()
			l.logger.Error("Connection handler panicked",
				zap.String("remote", conn.RemoteAddr().String()),
				zap.Any("panic", p),
			)
		}
	}()

	err := r.classify(r.srv.ServeConn(conn))
	if err == nil || IsShutdownRace(err) {
		return
	}
	if isClientGone(err) {
		l.logger.Debug("Connection closed by client",
			zap.String("remote", conn.RemoteAddr().String()),
			zap.Error(err),
		)
		return
	}
	l.logger.Error("Connection failed",
		zap.String("remote", conn.RemoteAddr().String()),
		zap.Error(err),
	)
}

// isClientGone reports errors caused by the peer hanging up or going quiet.
func isClientGone(err error) bool {
	var nothing fasthttp.ErrNothingRead
	if errors.As(err, &nothing) || errors.Is(err, io.EOF) ||
		errors.Is(err, syscall.ECONNRESET) || errors.Is(err, syscall.EPIPE) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func listen(addr server.Address, cfg server.Config) (net.Listener, error) {
	var cert tls.Certificate
	if addr.IsTLS() {
		var err error
		cert, err = tls.LoadX509KeyPair(cfg.TLSCertFile, cfg.TLSKeyFile)
		if err != nil {
			return nil, &server.ConfigurationError{Field: "tls_cert_file", Value: cfg.TLSCertFile, Reason: err.Error()}
		}
	}

	hostPort := addr.ListenAddr()
	tcp, err := net.Listen("tcp", hostPort)
	if err != nil {
		return nil, &BindError{Addr: hostPort, Err: err}
	}
	ln := net.Listener(trackingListener{tcp})
	if !addr.IsTLS() {
		return ln, nil
	}
	return tls.NewListener(ln, &tls.Config{
		Certificates: []tls.Certificate{cert},
		MinVersion:   tls.VersionTLS12,
	}), nil
}

// run is the state of one bound listener, from Start to Stop.
type run struct {
	ln       net.Listener
	addr     server.Address
	settings server.Config
	srv      *fasthttp.Server
	stopping atomic.Bool
	done     chan struct{}

	connMu sync.Mutex
	conns  map[net.Conn]*trackedConn
}

func newRun(ln net.Listener, addr server.Address, settings server.Config) *run {
	return &run{
		ln:       ln,
		addr:     addr,
		settings: settings,
		done:     make(chan struct{}),
		conns:    make(map[net.Conn]*trackedConn),
	}
}

// wrap asks clients to drop keep-alive connections once the run is stopping.
func (r *run) wrap(h fasthttp.RequestHandler) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		h(ctx)
		if r.stopping.Load() {
			ctx.SetConnectionClose()
		}
	}
}

// classify marks errors seen after Stop began as shutdown races.
func (r *run) classify(err error) error {
	if err == nil || !r.stopping.Load() || errors.Is(err, ErrShutdownRace) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrShutdownRace, err)
}

func (r *run) track(c net.Conn, state fasthttp.ConnState) {
	r.connMu.Lock()
	defer r.connMu.Unlock()
	switch state {
	case fasthttp.StateClosed, fasthttp.StateHijacked:
		delete(r.conns, c)
	case fasthttp.StateIdle:
		if tc := r.conns[c]; tc != nil {
			tc.busy.Store(false)
		}
		// A response finished while Stop was running; do not wait for the idle timeout.
		if r.stopping.Load() {
			_ = c.Close()
		}
	default:
		if _, ok := r.conns[c]; !ok {
			r.conns[c] = unwrapConn(c)
		}
	}
}

// closeConns closes connections on which no request has started.
// With idleOnly false every tracked connection is closed.
func (r *run) closeConns(idleOnly bool) {
	r.connMu.Lock()
	defer r.connMu.Unlock()
	for c, tc := range r.conns {
		if idleOnly && tc != nil && tc.busy.Load() {
			continue
		}
		_ = c.Close()
	}
}

func (r *run) openConns() int {
	r.connMu.Lock()
	defer r.connMu.Unlock()
	return len(r.conns)
}

// trackedConn records whether request bytes arrived since the last response.
// On TLS connections the handshake counts as the start of a request.
type trackedConn struct {
	net.Conn
	busy atomic.Bool
}

func (c *trackedConn) Read(b []byte) (int, error) {
	n, err := c.Conn.Read(b)
	if n > 0 {
		c.busy.Store(true)
	}
	return n, err
}

type trackingListener struct {
	net.Listener
}

func (l trackingListener) Accept() (net.Conn, error) {
	c, err := l.Listener.Accept()
	if err != nil {
		return nil, err
	}
	return &trackedConn{Conn: c}, nil
}

func unwrapConn(c net.Conn) *trackedConn {
	switch v := c.(type) {
	case *trackedConn:
		return v
	case *tls.Conn:
		tc, _ := v.NetConn().(*trackedConn)
		return tc
	}
	return nil
}

type printfLogger struct {
	l *zap.Logger
}

func (p printfLogger) Printf(format string, args ...any) {
	p.l.Warn(fmt.Sprintf(format, args...))
}
