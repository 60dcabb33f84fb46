package ble

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/oiascix/ble-app/pkg/gatt"
	"tinygo.org/x/bluetooth"
)

// Config configures an Adapter.
type Config struct {
	// Logger receives operational logs. Default: slog.Default().
	Logger *slog.Logger
}

// Adapter drives the host BLE radio. It implements gatt.Adapter.
type Adapter struct {
	radio  radio
	logger *slog.Logger

	enableOnce sync.Once
	enableErr  error

	mu       sync.Mutex
	scanning bool
	scanID   uint64
	conn     *connection
}

var _ gatt.Adapter = (*Adapter)(nil)

// connection is one connect attempt and, once up, its link.
type connection struct {
	cb gatt.ConnCallbacks

	// ops serializes radio calls on the link.
	ops sync.Mutex

	mu     sync.Mutex
	link   link
	chars  map[uuid.UUID]characteristic
	closed bool

	downOnce sync.Once
}

// NewAdapter returns an adapter on the system default radio.
func NewAdapter(config Config) *Adapter {
	return newAdapter(newTinygoRadio(bluetooth.DefaultAdapter), config)
}

func newAdapter(r radio, config Config) *Adapter {
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Adapter{radio: r, logger: logger.With("component", "ble")}
}

// Ready enables the radio on first use.
func (a *Adapter) Ready() error {
	a.enableOnce.Do(func() {
		a.enableErr = a.radio.Enable()
	})
	if a.enableErr != nil {
		return fmt.Errorf("%w: %w", gatt.ErrNotReady, a.enableErr)
	}
	return nil
}

// Scan implements gatt.Adapter.
func (a *Adapter) Scan(filter *uuid.UUID, cb gatt.ScanCallbacks) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.scanning {
		return gatt.ErrAlreadyScanning
	}
	a.scanning = true
	a.scanID++
	id := a.scanID

	go func() {
		err := a.radio.Scan(func(ad advert) {
			if filter != nil && !ad.has(*filter) {
				return
			}
			if cb.OnMatch != nil {
				cb.OnMatch(gatt.Advertisement{
					Peripheral: gatt.PeripheralHandle{ID: ad.id, Name: ad.name},
					RSSI:       ad.rssi,
				})
			}
		})

		a.mu.Lock()
		stopped := !a.scanning || a.scanID != id
		if !stopped {
			a.scanning = false
		}
		a.mu.Unlock()

		if err != nil && !stopped {
			a.logger.Debug("scan failed", "error", err)
			if cb.OnError != nil {
				cb.OnError(err)
			}
		}
	}()
	return nil
}

// StopScan implements gatt.Adapter.
func (a *Adapter) StopScan() error {
	a.mu.Lock()
	if !a.scanning {
		a.mu.Unlock()
		return nil
	}
	a.scanning = false
	a.mu.Unlock()
	return a.radio.StopScan()
}

// Connect implements gatt.Adapter. The connection is reported through
// cb.OnStateChange.
func (a *Adapter) Connect(p gatt.PeripheralHandle, cb gatt.ConnCallbacks) error {
	c := &connection{cb: cb}

	a.mu.Lock()
	old := a.conn
	a.conn = c
	a.mu.Unlock()
	if old != nil {
		old.close(a.logger)
	}

	go func() {
		l, err := a.radio.Connect(p.ID)
		if err != nil {
			a.logger.Debug("connect failed", "peripheral", p.String(), "error", err)
			c.down()
			return
		}

		c.mu.Lock()
		if c.closed {
			c.mu.Unlock()
			l.Disconnect()
			c.down()
			return
		}
		c.link = l
		c.mu.Unlock()

		if cb.OnStateChange != nil {
			cb.OnStateChange(gatt.Connected)
		}
	}()
	return nil
}

// Disconnect implements gatt.Adapter.
func (a *Adapter) Disconnect() error {
	a.mu.Lock()
	c := a.conn
	a.conn = nil
	a.mu.Unlock()
	if c != nil {
		c.close(a.logger)
	}
	return nil
}

// DiscoverServices implements gatt.Adapter.
func (a *Adapter) DiscoverServices() error {
	c, l, err := a.current()
	if err != nil {
		return err
	}
	go func() {
		c.ops.Lock()
		found, err := l.Discover()
		c.ops.Unlock()

		if err != nil {
			c.servicesReady(nil, err)
			return
		}

		services := make(gatt.ServiceMap, len(found))
		chars := make(map[uuid.UUID]characteristic)
		for sid, list := range found {
			ids := make([]uuid.UUID, 0, len(list))
			for _, ch := range list {
				ids = append(ids, ch.ID())
				chars[ch.ID()] = ch
			}
			services[sid] = ids
		}

		c.mu.Lock()
		c.chars = chars
		c.mu.Unlock()
		c.servicesReady(services, nil)
	}()
	return nil
}

// ReadCharacteristic implements gatt.Adapter.
func (a *Adapter) ReadCharacteristic(id uuid.UUID) error {
	c, ch, err := a.characteristic(id)
	if err != nil {
		return err
	}
	go func() {
		c.ops.Lock()
		value, err := ch.Read()
		c.ops.Unlock()
		if c.cb.OnCharRead != nil {
			c.cb.OnCharRead(id, value, err)
		}
	}()
	return nil
}

// WriteCharacteristic implements gatt.Adapter.
func (a *Adapter) WriteCharacteristic(id uuid.UUID, data []byte) error {
	c, ch, err := a.characteristic(id)
	if err != nil {
		return err
	}
	value := append([]byte(nil), data...)
	go func() {
		c.ops.Lock()
		err := ch.Write(value)
		c.ops.Unlock()
		if c.cb.OnCharWrite != nil {
			c.cb.OnCharWrite(id, err)
		}
	}()
	return nil
}

func (a *Adapter) current() (*connection, link, error) {
	a.mu.Lock()
	c := a.conn
	a.mu.Unlock()
	if c == nil {
		return nil, nil, gatt.ErrNotConnected
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.link == nil || c.closed {
		return nil, nil, gatt.ErrNotConnected
	}
	return c, c.link, nil
}

func (a *Adapter) characteristic(id uuid.UUID) (*connection, characteristic, error) {
	c, _, err := a.current()
	if err != nil {
		return nil, nil, err
	}
	c.mu.Lock()
	ch, ok := c.chars[id]
	c.mu.Unlock()
	if !ok {
		return nil, nil, fmt.Errorf("%w: %s", gatt.ErrUnknownCharacteristic, id)
	}
	return c, ch, nil
}

func (c *connection) servicesReady(m gatt.ServiceMap, err error) {
	if c.cb.OnServicesReady != nil {
		c.cb.OnServicesReady(m, err)
	}
}

// close drops the link, or marks a pending connect for teardown.
func (c *connection) close(logger *slog.Logger) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	l := c.link
	c.mu.Unlock()

	if l == nil {
		// The connect goroutine reports Disconnected when it returns.
		return
	}
	go func() {
		c.ops.Lock()
		err := l.Disconnect()
		c.ops.Unlock()
		if err != nil {
			logger.Debug("disconnect failed", "error", err)
		}
		c.down()
	}()
}

// down reports Disconnected once.
func (c *connection) down() {
	c.downOnce.Do(func() {
		if c.cb.OnStateChange != nil {
			c.cb.OnStateChange(gatt.Disconnected)
		}
	})
}
