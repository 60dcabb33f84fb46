package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/oiascix/ble-app/pkg/gatt"
	"github.com/oiascix/ble-app/pkg/log"
)

// DefaultPort is the default lock listen port.
const DefaultPort = 7420

// GATTTable is the attribute table a Server exposes.
type GATTTable interface {
	// Services lists the services and their characteristics.
	Services() gatt.ServiceMap

	// Open starts the per-connection state of a new client.
	Open(conn ConnInfo) GATTSession
}

// GATTSession serves one client connection. Calls are serialized.
type GATTSession interface {
	Read(char uuid.UUID) ([]byte, error)
	Write(char uuid.UUID, value []byte) error
	Close()
}

// ConnInfo identifies a server connection.
type ConnInfo struct {
	ID         string
	RemoteAddr string
}

// ServerConfig configures a Server.
type ServerConfig struct {
	// Address to listen on (e.g., ":7420" or "127.0.0.1:0").
	Address string

	// Table answers the requests. Required.
	Table GATTTable

	// MaxMessageSize is the maximum message size (default: 4KB).
	MaxMessageSize uint32

	// Logger receives operational logs. Default: slog.Default().
	Logger *slog.Logger

	// TraceLogger receives frame trace events (optional).
	TraceLogger log.Logger

	// OnConnect is called when a new connection is established.
	OnConnect func(conn ConnInfo)

	// OnDisconnect is called when a connection is closed.
	OnDisconnect func(conn ConnInfo)
}

// Server accepts clients and serves a GATT table to each of them.
type Server struct {
	config   ServerConfig
	logger   *slog.Logger
	listener net.Listener

	conns   map[*ServerConn]struct{}
	connsMu sync.RWMutex

	running atomic.Bool
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewServer creates a new server.
func NewServer(config ServerConfig) (*Server, error) {
	if config.Table == nil {
		return nil, fmt.Errorf("GATT table is required")
	}
	if config.Address == "" {
		config.Address = fmt.Sprintf(":%d", DefaultPort)
	}
	if config.MaxMessageSize == 0 {
		config.MaxMessageSize = DefaultMaxMessageSize
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Server{
		config: config,
		logger: logger.With("component", "transport-server"),
		conns:  make(map[*ServerConn]struct{}),
	}, nil
}

// Start starts the server and begins accepting connections.
func (s *Server) Start(ctx context.Context) error {
	if s.running.Load() {
		return fmt.Errorf("server already running")
	}

	s.ctx, s.cancel = context.WithCancel(ctx)

	listener, err := net.Listen("tcp", s.config.Address)
	if err != nil {
		s.cancel()
		return fmt.Errorf("failed to listen: %w", err)
	}
	s.listener = listener
	s.running.Store(true)

	s.wg.Add(1)
	go s.acceptLoop()

	s.logger.Info("listening", "addr", listener.Addr().String())
	return nil
}

// Stop stops the server and closes all connections.
func (s *Server) Stop() error {
	if !s.running.CompareAndSwap(true, false) {
		return nil
	}
	s.cancel()

	if s.listener != nil {
		s.listener.Close()
	}

	s.connsMu.Lock()
	for conn := range s.conns {
		conn.Close()
	}
	s.connsMu.Unlock()

	s.wg.Wait()
	return nil
}

// Addr returns the server's listen address.
func (s *Server) Addr() net.Addr {
	if s.listener != nil {
		return s.listener.Addr()
	}
	return nil
}

// ConnectionCount returns the number of active connections.
func (s *Server) ConnectionCount() int {
	s.connsMu.RLock()
	defer s.connsMu.RUnlock()
	return len(s.conns)
}

func (s *Server) acceptLoop() {
	defer s.wg.Done()

	for s.running.Load() {
		conn, err := s.listener.Accept()
		if err != nil {
			if !s.running.Load() || errors.Is(err, net.ErrClosed) {
				return
			}
			s.logger.Warn("accept failed", "error", err)
			continue
		}

		s.wg.Add(1)
		go s.handleConnection(conn)
	}
}

func (s *Server) handleConnection(conn net.Conn) {
	defer s.wg.Done()

	info := ConnInfo{ID: uuid.New().String(), RemoteAddr: conn.RemoteAddr().String()}

	framer := NewFramerWithMaxSize(conn, s.config.MaxMessageSize)
	if s.config.TraceLogger != nil {
		framer.SetLogger(s.config.TraceLogger, info.ID, log.RoleLock, info.RemoteAddr)
	}

	sconn := &ServerConn{
		conn:    conn,
		framer:  framer,
		info:    info,
		server:  s,
		session: s.config.Table.Open(info),
		closeCh: make(chan struct{}),
	}

	s.connsMu.Lock()
	if !s.running.Load() {
		s.connsMu.Unlock()
		sconn.Close()
		sconn.session.Close()
		return
	}
	s.conns[sconn] = struct{}{}
	s.connsMu.Unlock()

	s.logger.Debug("client connected", "conn", info.ID, "remote", info.RemoteAddr)
	if s.config.OnConnect != nil {
		s.config.OnConnect(info)
	}

	sconn.readLoop()
	sconn.Close()
	sconn.session.Close()

	s.connsMu.Lock()
	delete(s.conns, sconn)
	s.connsMu.Unlock()

	s.logger.Debug("client disconnected", "conn", info.ID)
	if s.config.OnDisconnect != nil {
		s.config.OnDisconnect(info)
	}
}

// ServerConn is one client connection.
type ServerConn struct {
	conn      net.Conn
	framer    *Framer
	info      ConnInfo
	server    *Server
	session   GATTSession
	closeCh   chan struct{}
	closeOnce sync.Once
}

// Info returns the connection identity.
func (c *ServerConn) Info() ConnInfo {
	return c.info
}

// Close closes the connection.
func (c *ServerConn) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.closeCh)
		err = c.conn.Close()
	})
	return err
}

func (c *ServerConn) readLoop() {
	for {
		select {
		case <-c.closeCh:
			return
		case <-c.server.ctx.Done():
			return
		default:
		}

		data, err := c.framer.ReadFrame()
		if err != nil {
			select {
			case <-c.closeCh:
			default:
				if err != io.EOF && !errors.Is(err, net.ErrClosed) {
					c.server.logger.Debug("read failed", "conn", c.info.ID, "error", err)
				}
			}
			return
		}

		req, err := DecodeMessage(data)
		if err != nil {
			c.reply(&Message{Type: MsgError, Status: StatusBadRequest, Text: err.Error()})
			continue
		}
		c.reply(c.handle(req))
	}
}

// handle answers one request.
func (c *ServerConn) handle(req *Message) *Message {
	fail := func(err error) *Message {
		return &Message{Type: MsgError, ID: req.ID, Char: req.Char, Status: StatusFor(err), Text: err.Error()}
	}

	switch req.Type {
	case MsgDiscover:
		return &Message{Type: MsgServices, ID: req.ID, Services: ServicesToEntries(c.server.config.Table.Services())}

	case MsgRead:
		value, err := c.session.Read(req.Char)
		if err != nil {
			return fail(err)
		}
		return &Message{Type: MsgReadResult, ID: req.ID, Char: req.Char, Value: value}

	case MsgWrite:
		if err := c.session.Write(req.Char, req.Value); err != nil {
			return fail(err)
		}
		return &Message{Type: MsgWriteResult, ID: req.ID, Char: req.Char}

	default:
		return &Message{Type: MsgError, ID: req.ID, Status: StatusBadRequest, Text: "unexpected " + req.Type.String()}
	}
}

func (c *ServerConn) reply(m *Message) {
	data, err := EncodeMessage(m)
	if err != nil {
		c.server.logger.Warn("encode failed", "conn", c.info.ID, "error", err)
		return
	}
	c.conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	if err := c.framer.WriteFrame(data); err != nil {
		c.server.logger.Debug("write failed", "conn", c.info.ID, "error", err)
		c.Close()
	}
}
