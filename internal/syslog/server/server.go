// Package server runs the syslog listeners of every active endpoint and a
// shared worker pool that hands received frames to the collector.
package server

import (
	"bufio"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/netip"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	syslogDomain "github.com/allisson/trustlog/internal/syslog/domain"
	syslogService "github.com/allisson/trustlog/internal/syslog/service"
	syslogUseCase "github.com/allisson/trustlog/internal/syslog/usecase"
)

// Collector is the part of the collector use case the server drives.
type Collector interface {
	Ingest(ctx context.Context, in *syslogUseCase.Inbound) (*syslogUseCase.IngestResult, error)
	ReportOverflow(ctx context.Context, endpoint *syslogDomain.Endpoint, dropped int)
	ListActiveEndpoints(ctx context.Context) ([]*syslogDomain.Endpoint, error)
}

// Options size the server.
type Options struct {
	Workers        int
	RingSize       int
	MaxMessageSize int
}

type frame struct {
	raw        []byte
	sourceIP   string
	sourcePort int
	receivedAt time.Time
}

type listener struct {
	endpoint *syslogDomain.Endpoint
	ring     *syslogService.Ring[frame]
	closer   io.Closer
	addr     net.Addr

	connMu sync.Mutex
	conns  map[net.Conn]struct{}
	closed bool
}

func (l *listener) track(conn net.Conn) bool {
	l.connMu.Lock()
	defer l.connMu.Unlock()
	if l.closed {
		return false
	}
	l.conns[conn] = struct{}{}
	return true
}

func (l *listener) untrack(conn net.Conn) {
	l.connMu.Lock()
	delete(l.conns, conn)
	l.connMu.Unlock()
}

func (l *listener) close() {
	_ = l.closer.Close()

	l.connMu.Lock()
	l.closed = true
	for conn := range l.conns {
		_ = conn.Close()
	}
	l.connMu.Unlock()
}

// sameBinding reports whether the listener already serves the endpoint's
// current transport settings.
func (l *listener) sameBinding(e *syslogDomain.Endpoint) bool {
	cur := l.endpoint
	return cur.Protocol == e.Protocol && cur.Address == e.Address &&
		cur.TLSCertFile == e.TLSCertFile && cur.TLSKeyFile == e.TLSKeyFile
}

// Server owns the listeners. Each listener has its own bounded ring; all
// rings share one notify channel read by the workers.
type Server struct {
	collector Collector
	opts      Options
	logger    *slog.Logger
	now       func() time.Time

	notify chan struct{}
	wg     sync.WaitGroup

	mu        sync.Mutex
	listeners map[uuid.UUID]*listener
	order     []*listener
	next      int
	running   bool
	stopping  bool
	baseCtx   context.Context
}

// Run starts the workers and the listeners of all active endpoints and
// blocks until ctx is done. Frames still queued at shutdown are processed
// before Run returns.
func (s *Server) Run(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return errors.New("syslog server already running")
	}
	s.running = true
	s.baseCtx = ctx
	s.mu.Unlock()

	g, gctx := errgroup.WithContext(ctx)
	stopped := make(chan struct{})

	g.Go(func() error {
		<-gctx.Done()
		s.stopAll()
		s.wg.Wait()
		close(stopped)
		return nil
	})
	for range s.opts.Workers {
		g.Go(func() error {
			s.work(gctx, stopped)
			return nil
		})
	}

	if err := s.Sync(gctx); err != nil {
		s.logger.Error("failed to start syslog listeners", slog.Any("error", err))
	}

	return g.Wait()
}

// Sync starts listeners for new active endpoints and stops those whose
// endpoint was removed, deactivated or rebound.
func (s *Server) Sync(ctx context.Context) error {
	endpoints, err := s.collector.ListActiveEndpoints(ctx)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running || s.stopping {
		return nil
	}

	wanted := make(map[uuid.UUID]*syslogDomain.Endpoint, len(endpoints))
	for _, e := range endpoints {
		wanted[e.ID] = e
	}

	for id, l := range s.listeners {
		if e, ok := wanted[id]; ok && l.sameBinding(e) {
			continue
		}
		s.removeLocked(id)
	}

	var errs []error
	for _, e := range endpoints {
		if _, ok := s.listeners[e.ID]; ok {
			continue
		}
		if err := s.startLocked(e); err != nil {
			s.logger.Error("failed to start syslog listener",
				slog.String("endpoint_id", e.ID.String()),
				slog.String("protocol", string(e.Protocol)),
				slog.String("address", e.Address),
				slog.Any("error", err),
			)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Addr returns the bound address of an endpoint's listener, or nil.
func (s *Server) Addr(endpointID uuid.UUID) net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()

	if l, ok := s.listeners[endpointID]; ok {
		return l.addr
	}
	return nil
}

func (s *Server) startLocked(e *syslogDomain.Endpoint) error {
	l := &listener{
		endpoint: e,
		ring:     syslogService.NewRing[frame](s.opts.RingSize, s.notify),
		conns:    make(map[net.Conn]struct{}),
	}

	switch e.Protocol {
	case syslogDomain.ProtocolUDP:
		conn, err := net.ListenPacket("udp", e.Address)
		if err != nil {
			return fmt.Errorf("listen udp %s: %w", e.Address, err)
		}
		l.closer, l.addr = conn, conn.LocalAddr()
		s.wg.Go(func() { s.serveUDP(l, conn) })
	case syslogDomain.ProtocolTCP, syslogDomain.ProtocolTLS:
		ln, err := net.Listen("tcp", e.Address)
		if err != nil {
			return fmt.Errorf("listen tcp %s: %w", e.Address, err)
		}
		if e.Protocol == syslogDomain.ProtocolTLS {
			cert, err := tls.LoadX509KeyPair(e.TLSCertFile, e.TLSKeyFile)
			if err != nil {
				_ = ln.Close()
				return errors.Join(syslogDomain.ErrTLSMaterial, err)
			}
			ln = tls.NewListener(ln, &tls.Config{Certificates: []tls.Certificate{cert}, MinVersion: tls.VersionTLS12})
		}
		l.closer, l.addr = ln, ln.Addr()
		s.wg.Go(func() { s.serveStream(l, ln) })
	default:
		return fmt.Errorf("unsupported syslog protocol %q", e.Protocol)
	}

	s.listeners[e.ID] = l
	s.order = append(s.order, l)
	s.logger.Info("syslog listener started",
		slog.String("endpoint_id", e.ID.String()),
		slog.String("protocol", string(e.Protocol)),
		slog.String("address", l.addr.String()),
	)
	return nil
}

func (s *Server) removeLocked(id uuid.UUID) {
	l := s.listeners[id]
	l.close()
	delete(s.listeners, id)
	// The ring stays in order until drained so queued frames are not lost.
	s.logger.Info("syslog listener stopped", slog.String("endpoint_id", id.String()))
}

func (s *Server) stopAll() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stopping = true
	for id := range s.listeners {
		s.removeLocked(id)
	}
}

func (s *Server) serveUDP(l *listener, conn net.PacketConn) {
	buf := make([]byte, s.opts.MaxMessageSize)
	for {
		n, addr, err := conn.ReadFrom(buf)
		if err != nil {
			if !errors.Is(err, net.ErrClosed) {
				s.logger.Warn("syslog udp read failed", slog.Any("error", err))
			}
			return
		}
		if n == 0 {
			continue
		}
		raw := make([]byte, n)
		copy(raw, buf[:n])
		s.enqueue(l, raw, addr)
	}
}

func (s *Server) serveStream(l *listener, ln net.Listener) {
	for {
		conn, err := ln.Accept()
		if err != nil {
			if !errors.Is(err, net.ErrClosed) {
				s.logger.Warn("syslog accept failed", slog.Any("error", err))
			}
			return
		}
		if !l.track(conn) {
			_ = conn.Close()
			return
		}
		s.wg.Go(func() {
			defer l.untrack(conn)
			defer func() {
				_ = conn.Close()
			}()
			s.readStream(l, conn)
		})
	}
}

func (s *Server) readStream(l *listener, conn net.Conn) {
	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 0, 4096), s.opts.MaxMessageSize+16)
	scanner.Split(syslogService.SplitFrames(s.opts.MaxMessageSize))

	for scanner.Scan() {
		token := scanner.Bytes()
		if len(token) == 0 {
			continue
		}
		raw := make([]byte, len(token))
		copy(raw, token)
		s.enqueue(l, raw, conn.RemoteAddr())
	}
	if err := scanner.Err(); err != nil && !errors.Is(err, net.ErrClosed) {
		s.logger.Warn("syslog stream closed",
			slog.String("endpoint_id", l.endpoint.ID.String()),
			slog.String("remote", conn.RemoteAddr().String()),
			slog.Any("error", err),
		)
	}
}

func (s *Server) enqueue(l *listener, raw []byte, addr net.Addr) {
	ip, port := splitAddr(addr)
	dropped := l.ring.Push(frame{raw: raw, sourceIP: ip, sourcePort: port, receivedAt: s.now()})
	if dropped {
		s.collector.ReportOverflow(s.context(), l.endpoint, 1)
	}
}

func (s *Server) context() context.Context {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.baseCtx == nil {
		return context.Background()
	}
	return context.WithoutCancel(s.baseCtx)
}

// work drains the rings until ctx is done, then waits for the listeners to
// stop and drains what is left.
func (s *Server) work(ctx context.Context, stopped <-chan struct{}) {
	for {
		if l, f, ok := s.pop(); ok {
			s.handle(ctx, l, f)
			continue
		}
		select {
		case <-s.notify:
		case <-ctx.Done():
			<-stopped
			drainCtx := context.WithoutCancel(ctx)
			for {
				l, f, ok := s.pop()
				if !ok {
					return
				}
				s.handle(drainCtx, l, f)
			}
		}
	}
}

// pop takes one frame, rotating over the rings. Drained rings of stopped
// listeners are forgotten here.
func (s *Server) pop() (*listener, frame, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := 0; i < len(s.order); i++ {
		idx := (s.next + i) % len(s.order)
		l := s.order[idx]
		if f, ok := l.ring.TryPop(); ok {
			s.next = idx + 1
			return l, f, true
		}
		if s.listeners[l.endpoint.ID] != l {
			s.order = append(s.order[:idx], s.order[idx+1:]...)
			i--
		}
	}
	return nil, frame{}, false
}

func (s *Server) handle(ctx context.Context, l *listener, f frame) {
	_, err := s.collector.Ingest(ctx, &syslogUseCase.Inbound{
		Endpoint:   l.endpoint,
		Raw:        f.raw,
		SourceIP:   f.sourceIP,
		SourcePort: f.sourcePort,
		ReceivedAt: f.receivedAt,
	})
	if err != nil {
		s.logger.Error("failed to ingest syslog message",
			slog.String("endpoint_id", l.endpoint.ID.String()),
			slog.String("source_ip", f.sourceIP),
			slog.Any("error", err),
		)
	}
}

func splitAddr(addr net.Addr) (string, int) {
	if addr == nil {
		return "", 0
	}
	ap, err := netip.ParseAddrPort(addr.String())
	if err != nil {
		return addr.String(), 0
	}
	return ap.Addr().Unmap().String(), int(ap.Port())
}

// NewServer creates a server. Zero options take the collector defaults.
func NewServer(collector Collector, opts Options, logger *slog.Logger) *Server {
	if opts.Workers <= 0 {
		opts.Workers = 2 * runtime.GOMAXPROCS(0)
	}
	if opts.RingSize <= 0 {
		opts.RingSize = 10000
	}
	if opts.MaxMessageSize <= 0 {
		opts.MaxMessageSize = 64 * 1024
	}
	return &Server{
		collector: collector,
		opts:      opts,
		logger:    logger.With("component", "syslog-server"),
		now:       func() time.Time { return time.Now().UTC() },
		notify:    make(chan struct{}, 1),
		listeners: make(map[uuid.UUID]*listener),
	}
}
