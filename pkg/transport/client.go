package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/oiascix/ble-app/pkg/discovery"
	"github.com/oiascix/ble-app/pkg/gatt"
	"github.com/oiascix/ble-app/pkg/log"
)

// ErrNoPeers is returned by Ready when the client has nowhere to look.
var ErrNoPeers = errors.New("no static peers and no peer source")

// PeerSource finds locks on the network.
type PeerSource interface {
	// Browse reports peers until ctx is done.
	Browse(ctx context.Context, found func(discovery.Peer)) error
}

// ClientConfig configures a Client.
type ClientConfig struct {
	// Peers are reported on every scan.
	Peers []discovery.Peer

	// Source, when set, is browsed during scans.
	Source PeerSource

	// DialTimeout bounds the TCP connect (default: 5s).
	DialTimeout time.Duration

	// MaxMessageSize is the maximum message size (default: 4KB).
	MaxMessageSize uint32

	// Logger receives operational logs. Default: slog.Default().
	Logger *slog.Logger

	// TraceLogger receives frame trace events (optional).
	TraceLogger log.Logger
}

// Client reaches locks over TCP and presents them as GATT peripherals.
// It implements gatt.Adapter.
type Client struct {
	config ClientConfig
	logger *slog.Logger

	mu         sync.Mutex
	scanCancel context.CancelFunc
	conn       *clientConn
}

// NewClient creates a new client.
func NewClient(config ClientConfig) *Client {
	if config.DialTimeout == 0 {
		config.DialTimeout = 5 * time.Second
	}
	if config.MaxMessageSize == 0 {
		config.MaxMessageSize = DefaultMaxMessageSize
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{config: config, logger: logger.With("component", "transport-client")}
}

// Ready implements gatt.Adapter.
func (c *Client) Ready() error {
	if len(c.config.Peers) == 0 && c.config.Source == nil {
		return fmt.Errorf("%w: %w", gatt.ErrNotReady, ErrNoPeers)
	}
	return nil
}

// Scan implements gatt.Adapter. Static peers are reported right away,
// browsed peers as they are found.
func (c *Client) Scan(filter *uuid.UUID, cb gatt.ScanCallbacks) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.scanCancel != nil {
		return gatt.ErrAlreadyScanning
	}

	ctx, cancel := context.WithCancel(context.Background())
	c.scanCancel = cancel

	report := func(p discovery.Peer) {
		if ctx.Err() != nil {
			return
		}
		if filter != nil && len(p.Services) > 0 && !slices.Contains(p.Services, *filter) {
			return
		}
		cb.OnMatch(gatt.Advertisement{
			Peripheral: gatt.PeripheralHandle{ID: p.Addr, Name: p.Name},
			Services:   p.Services,
		})
	}

	go func() {
		for _, p := range c.config.Peers {
			report(p)
		}
		if c.config.Source == nil {
			return
		}
		if err := c.config.Source.Browse(ctx, report); err != nil && ctx.Err() == nil {
			if cb.OnError != nil {
				cb.OnError(err)
			}
		}
	}()
	return nil
}

// StopScan implements gatt.Adapter. It does not wait for the browse to
// wind down, so it is safe to call from a scan callback.
func (c *Client) StopScan() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.scanCancel != nil {
		c.scanCancel()
		c.scanCancel = nil
	}
	return nil
}

// Connect implements gatt.Adapter. The dial runs in the background;
// OnStateChange reports Connected or Disconnected.
func (c *Client) Connect(p gatt.PeripheralHandle, cb gatt.ConnCallbacks) error {
	cc := &clientConn{
		client:  c,
		addr:    p.ID,
		cb:      cb,
		pending: make(map[uint32]request),
		closeCh: make(chan struct{}),
	}

	c.mu.Lock()
	old := c.conn
	c.conn = cc
	c.mu.Unlock()
	if old != nil {
		old.close()
	}

	go cc.dial(c.config.DialTimeout)
	return nil
}

// Disconnect implements gatt.Adapter.
func (c *Client) Disconnect() error {
	c.mu.Lock()
	cc := c.conn
	c.conn = nil
	c.mu.Unlock()
	if cc != nil {
		cc.close()
	}
	return nil
}

// DiscoverServices implements gatt.Adapter.
func (c *Client) DiscoverServices() error {
	return c.send(&Message{Type: MsgDiscover})
}

// ReadCharacteristic implements gatt.Adapter.
func (c *Client) ReadCharacteristic(id uuid.UUID) error {
	return c.send(&Message{Type: MsgRead, Char: id})
}

// WriteCharacteristic implements gatt.Adapter.
func (c *Client) WriteCharacteristic(id uuid.UUID, data []byte) error {
	return c.send(&Message{Type: MsgWrite, Char: id, Value: data})
}

func (c *Client) send(m *Message) error {
	c.mu.Lock()
	cc := c.conn
	c.mu.Unlock()
	if cc == nil {
		return gatt.ErrNotConnected
	}
	return cc.request(m)
}

// request is an outstanding request awaiting its response.
type request struct {
	typ  MsgType
	char uuid.UUID
}

// clientConn is one connection attempt and, once dialed, the connection.
type clientConn struct {
	client *Client
	addr   string
	cb     gatt.ConnCallbacks

	mu      sync.Mutex
	conn    net.Conn
	framer  *Framer
	nextID  uint32
	pending map[uint32]request

	closeCh   chan struct{}
	closeOnce sync.Once
	downOnce  sync.Once
}

func (cc *clientConn) dial(timeout time.Duration) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	go func() {
		select {
		case <-cc.closeCh:
			cancel()
		case <-ctx.Done():
		}
	}()

	dialer := &net.Dialer{}
	conn, err := dialer.DialContext(ctx, "tcp", cc.addr)
	if err != nil {
		cc.client.logger.Debug("dial failed", "addr", cc.addr, "error", err)
		cc.down()
		return
	}

	framer := NewFramerWithMaxSize(conn, cc.client.config.MaxMessageSize)
	if cc.client.config.TraceLogger != nil {
		framer.SetLogger(cc.client.config.TraceLogger, conn.LocalAddr().String(), log.RoleClient, cc.addr)
	}

	cc.mu.Lock()
	select {
	case <-cc.closeCh:
		cc.mu.Unlock()
		conn.Close()
		cc.down()
		return
	default:
	}
	cc.conn, cc.framer = conn, framer
	cc.mu.Unlock()

	if cc.cb.OnStateChange != nil {
		cc.cb.OnStateChange(gatt.Connected)
	}
	cc.readLoop()
}

func (cc *clientConn) request(m *Message) error {
	cc.mu.Lock()
	if cc.framer == nil {
		cc.mu.Unlock()
		return gatt.ErrNotConnected
	}
	cc.nextID++
	m.ID = cc.nextID
	cc.pending[m.ID] = request{typ: m.Type, char: m.Char}
	framer := cc.framer
	cc.mu.Unlock()

	data, err := EncodeMessage(m)
	if err == nil {
		err = framer.WriteFrame(data)
	}
	if err != nil {
		cc.mu.Lock()
		delete(cc.pending, m.ID)
		cc.mu.Unlock()
		return err
	}
	return nil
}

func (cc *clientConn) readLoop() {
	defer cc.down()
	defer cc.close()

	for {
		data, err := cc.framer.ReadFrame()
		if err != nil {
			select {
			case <-cc.closeCh:
			default:
				if err != io.EOF {
					cc.client.logger.Debug("read failed", "addr", cc.addr, "error", err)
				}
			}
			return
		}
		m, err := DecodeMessage(data)
		if err != nil {
			cc.client.logger.Debug("dropping invalid message", "addr", cc.addr, "error", err)
			continue
		}
		cc.dispatch(m)
	}
}

// dispatch turns a response into the callback of its request.
func (cc *clientConn) dispatch(m *Message) {
	cc.mu.Lock()
	req, ok := cc.pending[m.ID]
	delete(cc.pending, m.ID)
	cc.mu.Unlock()
	if !ok {
		cc.client.logger.Debug("unsolicited message", "type", m.Type.String(), "id", m.ID)
		return
	}

	var remote error
	if m.Type == MsgError {
		remote = &RemoteError{Status: m.Status, Text: m.Text}
	}

	switch req.typ {
	case MsgDiscover:
		if cc.cb.OnServicesReady == nil {
			return
		}
		if remote != nil {
			cc.cb.OnServicesReady(nil, remote)
			return
		}
		cc.cb.OnServicesReady(EntriesToServices(m.Services), nil)

	case MsgRead:
		if cc.cb.OnCharRead != nil {
			cc.cb.OnCharRead(req.char, m.Value, remote)
		}

	case MsgWrite:
		if cc.cb.OnCharWrite != nil {
			cc.cb.OnCharWrite(req.char, remote)
		}
	}
}

func (cc *clientConn) close() {
	cc.closeOnce.Do(func() {
		close(cc.closeCh)
		cc.mu.Lock()
		conn := cc.conn
		cc.mu.Unlock()
		if conn != nil {
			conn.Close()
		}
	})
}

// down reports Disconnected once per connection attempt.
func (cc *clientConn) down() {
	cc.downOnce.Do(func() {
		if cc.cb.OnStateChange != nil {
			cc.cb.OnStateChange(gatt.Disconnected)
		}
	})
}

