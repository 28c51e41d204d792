package gridwire

import (
	"context"
	"io"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/pkg/errors"
)

// Handler is the interface for handling accepted client connections.
// Handle is only called once the client has sent a valid preamble.
type Handler interface {
	// Handle is called for each new connection. It should return once the
	// connection is closed; Serve waits for it during shutdown.
	Handle(conn *net.TCPConn)
}

// HandlerFunc adapts an ordinary function to Handler.
type HandlerFunc func(conn *net.TCPConn)

// Handle calls f(conn).
func (f HandlerFunc) Handle(conn *net.TCPConn) { f(conn) }

// defaultPreambleTimeout bounds how long a new connection may take to send
// its preamble.
const defaultPreambleTimeout = 5 * time.Second

// Server accepts client connections the way a grid member does: it checks
// the protocol preamble and hands the socket to a Handler. It keeps track of
// every accepted socket so shutdown can drain and then close them.
type Server struct {
	listener        *net.TCPListener
	logger          Logger
	shutdownTimeout time.Duration
	preambleTimeout time.Duration

	mu       sync.Mutex
	shutdown bool
	conns    map[*net.TCPConn]struct{}
	handlers sync.WaitGroup

	shutdownNow chan struct{} // closed by Close to skip the drain
	closeOnce   sync.Once
}

// ServerOption configures a Server.
type ServerOption func(*Server)

// ServerLoggerOption sets the logger for the server.
func ServerLoggerOption(logger Logger) ServerOption {
	return func(s *Server) {
		s.logger = logger
	}
}

// ServerShutdownTimeoutOption sets how long Serve waits, once its context is
// canceled, for handlers to return on their own before it closes the client
// connections that are still open. Default is 0 (close at once).
func ServerShutdownTimeoutOption(timeout time.Duration) ServerOption {
	return func(s *Server) {
		s.shutdownTimeout = timeout
	}
}

// ServerPreambleTimeoutOption sets how long a new connection may take to
// send the protocol preamble before it is closed.
func ServerPreambleTimeoutOption(timeout time.Duration) ServerOption {
	return func(s *Server) {
		s.preambleTimeout = timeout
	}
}

// New creates a new TCP server bound to the specified address.
// Returns an error if the address cannot be bound.
func New(addr *net.TCPAddr, opts ...ServerOption) (*Server, error) {
	listener, err := net.ListenTCP(addr.Network(), addr)
	if err != nil {
		return nil, err
	}

	s := &Server{
		listener:        listener,
		logger:          slog.Default(),
		preambleTimeout: defaultPreambleTimeout,
		conns:           make(map[*net.TCPConn]struct{}),
		shutdownNow:     make(chan struct{}),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s, nil
}

// Serve accepts client connections and runs handler for each one in its own
// goroutine. It blocks until the context is canceled or Accept fails.
//
// On cancellation the listener stops accepting at once. Serve then waits up
// to the shutdown timeout for running handlers, closes the client
// connections that remain, and returns ctx.Err() after every handler has
// returned. Close skips the wait.
func (s *Server) Serve(ctx context.Context, handler Handler) error {
	s.logger.Info("server started", "addr", s.listener.Addr())

	stopAccept := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
		case <-stopAccept:
			return
		}
		s.mu.Lock()
		s.shutdown = true
		s.mu.Unlock()
		// Unblock Accept.
		_ = s.listener.SetDeadline(time.Now())
	}()
	defer close(stopAccept)

	for {
		conn, err := s.listener.AcceptTCP()
		if err != nil {
			if s.isShutdown() {
				s.drain()
				s.logger.Info("server stopped", "addr", s.listener.Addr())
				return ctx.Err()
			}

			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				continue
			}
			s.logger.Error("accept error", "error", err)
			return err
		}

		if !s.track(conn) {
			_ = conn.Close()
			continue
		}
		s.logger.Debug("accepted connection", "remote_addr", conn.RemoteAddr())
		_ = conn.SetNoDelay(true)

		go func() {
			defer s.untrack(conn)
			s.handshake(conn, handler)
		}()
	}
}

// Connections reports how many accepted client connections are still being
// handled.
func (s *Server) Connections() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.conns)
}

func (s *Server) isShutdown() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.shutdown
}

func (s *Server) track(conn *net.TCPConn) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.shutdown {
		return false
	}
	s.conns[conn] = struct{}{}
	s.handlers.Add(1)
	return true
}

func (s *Server) untrack(conn *net.TCPConn) {
	s.mu.Lock()
	delete(s.conns, conn)
	s.mu.Unlock()
	s.handlers.Done()
}

// drain waits for handlers, then closes whatever is left open.
func (s *Server) drain() {
	finished := make(chan struct{})
	go func() {
		s.handlers.Wait()
		close(finished)
	}()

	if s.shutdownTimeout > 0 && s.Connections() > 0 {
		s.logger.Info("draining connections", "open", s.Connections(), "timeout", s.shutdownTimeout)
		select {
		case <-finished:
			return
		case <-time.After(s.shutdownTimeout):
		case <-s.shutdownNow:
			s.logger.Debug("drain skipped by Close")
		}
	}

	s.mu.Lock()
	open := len(s.conns)
	for conn := range s.conns {
		_ = conn.Close()
	}
	s.mu.Unlock()
	if open > 0 {
		s.logger.Info("closed open connections", "count", open)
	}
	<-finished
}

// handshake reads the preamble off a fresh connection and passes the
// connection on, or closes it if the preamble is wrong or late.
func (s *Server) handshake(conn *net.TCPConn, handler Handler) {
	if err := readPreamble(conn, s.preambleTimeout); err != nil {
		s.logger.Warn("rejected connection", "remote_addr", conn.RemoteAddr(), "error", err)
		_ = conn.Close()
		return
	}
	handler.Handle(conn)
}

func readPreamble(conn net.Conn, timeout time.Duration) error {
	if timeout > 0 {
		_ = conn.SetReadDeadline(time.Now().Add(timeout))
		defer conn.SetReadDeadline(time.Time{})
	}

	buf := make([]byte, len(ProtocolPreamble))
	if _, err := io.ReadFull(conn, buf); err != nil {
		return errors.Wrap(err, "read preamble")
	}
	if string(buf) != ProtocolPreamble {
		return errors.Wrapf(ErrInvalidPreamble, "got %q", buf)
	}
	return nil
}

// Close closes the listener, which makes a running Serve stop accepting,
// and cuts short any drain in progress. Client connections are closed by
// Serve on its way out.
func (s *Server) Close() error {
	s.mu.Lock()
	s.shutdown = true
	s.mu.Unlock()

	s.closeOnce.Do(func() { close(s.shutdownNow) })
	return s.listener.Close()
}

// Addr returns the listener's network address.
func (s *Server) Addr() net.Addr {
	return s.listener.Addr()
}
