package ble

import (
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"tinygo.org/x/bluetooth"
)

// MaxValueSize is the largest characteristic value the adapter reads.
const MaxValueSize = 512

// ErrUnknownPeripheral is returned when connecting to an address that no
// scan has reported.
var ErrUnknownPeripheral = errors.New("ble: peripheral not seen in a scan")

// radio is the subset of a BLE stack the adapter drives.
type radio interface {
	Enable() error

	// Scan blocks, calling found for each advertisement, until StopScan.
	Scan(found func(advert)) error
	StopScan() error

	Connect(id string) (link, error)
}

// advert is one advertisement as seen by the radio.
type advert struct {
	id   string
	name string
	rssi int16

	// has reports whether the advertisement lists a service.
	has func(uuid.UUID) bool
}

// link is an open connection.
type link interface {
	// Discover enumerates services and their characteristics.
	Discover() (map[uuid.UUID][]characteristic, error)
	Disconnect() error
}

type characteristic interface {
	ID() uuid.UUID
	Read() ([]byte, error)
	Write(value []byte) error
}

// tinygoRadio drives a tinygo.org/x/bluetooth adapter.
type tinygoRadio struct {
	adapter *bluetooth.Adapter

	mu   sync.Mutex
	seen map[string]bluetooth.Address
}

func newTinygoRadio(adapter *bluetooth.Adapter) *tinygoRadio {
	return &tinygoRadio{adapter: adapter, seen: make(map[string]bluetooth.Address)}
}

func (r *tinygoRadio) Enable() error {
	return r.adapter.Enable()
}

func (r *tinygoRadio) Scan(found func(advert)) error {
	return r.adapter.Scan(func(_ *bluetooth.Adapter, res bluetooth.ScanResult) {
		id := res.Address.String()

		r.mu.Lock()
		r.seen[id] = res.Address
		r.mu.Unlock()

		found(advert{
			id:   id,
			name: res.LocalName(),
			rssi: res.RSSI,
			has: func(service uuid.UUID) bool {
				u, err := toRadioUUID(service)
				return err == nil && res.HasServiceUUID(u)
			},
		})
	})
}

func (r *tinygoRadio) StopScan() error {
	return r.adapter.StopScan()
}

func (r *tinygoRadio) Connect(id string) (link, error) {
	r.mu.Lock()
	addr, ok := r.seen[id]
	r.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownPeripheral, id)
	}

	dev, err := r.adapter.Connect(addr, bluetooth.ConnectionParams{})
	if err != nil {
		return nil, err
	}
	return &tinygoLink{discover: dev.DiscoverServices, disconnect: dev.Disconnect}, nil
}

// tinygoLink holds the device methods it needs, so it does not depend on
// whether the stack hands out devices by value or by pointer.
type tinygoLink struct {
	discover   func(filter []bluetooth.UUID) ([]bluetooth.DeviceService, error)
	disconnect func() error
}

func (l *tinygoLink) Discover() (map[uuid.UUID][]characteristic, error) {
	services, err := l.discover(nil)
	if err != nil {
		return nil, fmt.Errorf("discover services: %w", err)
	}

	out := make(map[uuid.UUID][]characteristic, len(services))
	for i := range services {
		svc := &services[i]
		sid, err := fromRadioUUID(svc.UUID())
		if err != nil {
			return nil, err
		}
		chars, err := svc.DiscoverCharacteristics(nil)
		if err != nil {
			return nil, fmt.Errorf("discover characteristics of %s: %w", sid, err)
		}
		list := make([]characteristic, 0, len(chars))
		for j := range chars {
			cid, err := fromRadioUUID(chars[j].UUID())
			if err != nil {
				return nil, err
			}
			list = append(list, &tinygoChar{id: cid, char: chars[j]})
		}
		out[sid] = list
	}
	return out, nil
}

func (l *tinygoLink) Disconnect() error {
	return l.disconnect()
}

type tinygoChar struct {
	id   uuid.UUID
	char bluetooth.DeviceCharacteristic
}

func (c *tinygoChar) ID() uuid.UUID { return c.id }

func (c *tinygoChar) Read() ([]byte, error) {
	buf := make([]byte, MaxValueSize)
	n, err := c.char.Read(buf)
	if err != nil {
		return nil, err
	}
	return buf[:n], nil
}

func (c *tinygoChar) Write(value []byte) error {
	_, err := c.char.WriteWithoutResponse(value)
	return err
}

func toRadioUUID(u uuid.UUID) (bluetooth.UUID, error) {
	return bluetooth.ParseUUID(u.String())
}

func fromRadioUUID(u bluetooth.UUID) (uuid.UUID, error) {
	id, err := uuid.Parse(u.String())
	if err != nil {
		return uuid.Nil, fmt.Errorf("ble: bad uuid %q: %w", u.String(), err)
	}
	return id, nil
}
