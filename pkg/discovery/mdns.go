package discovery

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"sync"
	"time"

	"github.com/enbility/zeroconf/v3"
)

// AdvertiserConfig configures an MDNSAdvertiser.
type AdvertiserConfig struct {
	// Interface restricts advertising to one interface (empty: all).
	Interface string

	// TTL of the published records (default: 120s).
	TTL time.Duration
}

// MDNSAdvertiser publishes a lock with zeroconf.
type MDNSAdvertiser struct {
	config AdvertiserConfig

	mu     sync.Mutex
	server *zeroconf.Server
}

// NewMDNSAdvertiser creates a new mDNS advertiser.
func NewMDNSAdvertiser(config AdvertiserConfig) *MDNSAdvertiser {
	if config.TTL == 0 {
		config.TTL = DefaultTTL
	}
	return &MDNSAdvertiser{config: config}
}

// Advertise starts advertising the lock, replacing an earlier
// advertisement.
func (a *MDNSAdvertiser) Advertise(info *LockInfo) error {
	if err := ValidateInstanceName(info.Name); err != nil {
		return err
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.server != nil {
		a.server.Shutdown()
		a.server = nil
	}

	port := int(info.Port)
	if port == 0 {
		port = DefaultPort
	}

	server, err := zeroconf.Register(
		info.Name,
		ServiceType,
		Domain,
		port,
		TXTRecordsToStrings(EncodeLockTXT(info)),
		interfaces(a.config.Interface),
		zeroconf.TTL(uint32(a.config.TTL.Seconds())),
	)
	if err != nil {
		return fmt.Errorf("failed to register lock service: %w", err)
	}
	a.server = server
	return nil
}

// Stop withdraws the advertisement.
func (a *MDNSAdvertiser) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.server != nil {
		a.server.Shutdown()
		a.server = nil
	}
}

// interfaces returns the named interface, or nil for all interfaces.
func interfaces(name string) []net.Interface {
	if name == "" {
		return nil
	}
	iface, err := net.InterfaceByName(name)
	if err != nil {
		return nil
	}
	return []net.Interface{*iface}
}

// BrowserConfig configures an MDNSBrowser.
type BrowserConfig struct {
	// Interface restricts browsing to one interface (empty: all).
	Interface string
}

// MDNSBrowser finds locks with zeroconf.
type MDNSBrowser struct {
	config BrowserConfig
}

// NewMDNSBrowser creates a new mDNS browser.
func NewMDNSBrowser(config BrowserConfig) *MDNSBrowser {
	return &MDNSBrowser{config: config}
}

// Browse reports each lock once, the first time it is resolved, until
// ctx is done.
func (b *MDNSBrowser) Browse(ctx context.Context, found func(Peer)) error {
	entries := make(chan *zeroconf.ServiceEntry)
	removed := make(chan *zeroconf.ServiceEntry)

	var opts []zeroconf.ClientOption
	if ifaces := interfaces(b.config.Interface); ifaces != nil {
		opts = append(opts, zeroconf.SelectIfaces(ifaces))
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- zeroconf.Browse(ctx, ServiceType, Domain, entries, removed, opts...)
	}()

	seen := make(map[string]bool)
	for {
		select {
		case entry, ok := <-entries:
			if !ok {
				entries = nil
				continue
			}
			peer, err := peerFromRecord(recordFromEntry(entry))
			if err != nil || seen[peer.Addr] {
				continue
			}
			seen[peer.Addr] = true
			found(peer)

		case entry, ok := <-removed:
			if !ok {
				removed = nil
				continue
			}
			// A lock that comes back is reported again.
			if peer, err := peerFromRecord(recordFromEntry(entry)); err == nil {
				delete(seen, peer.Addr)
			}

		case err := <-errCh:
			if err != nil && ctx.Err() == nil {
				return fmt.Errorf("mdns browse: %w", err)
			}
			return nil

		case <-ctx.Done():
			return nil
		}
	}
}

// FindAll browses for timeout and returns every lock found.
func (b *MDNSBrowser) FindAll(ctx context.Context, timeout time.Duration) ([]Peer, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var peers []Peer
	err := b.Browse(ctx, func(p Peer) { peers = append(peers, p) })
	return peers, err
}

// record is the part of a zeroconf entry a Peer is built from.
type record struct {
	instance string
	port     int
	text     []string
	addrs    []net.IP
}

func recordFromEntry(entry *zeroconf.ServiceEntry) record {
	addrs := make([]net.IP, 0, len(entry.AddrIPv4)+len(entry.AddrIPv6))
	addrs = append(addrs, entry.AddrIPv4...)
	addrs = append(addrs, entry.AddrIPv6...)
	return record{
		instance: entry.Instance,
		port:     entry.Port,
		text:     entry.Text,
		addrs:    addrs,
	}
}

// peerFromRecord converts a resolved entry. IPv4 addresses come first in
// the record, so they are preferred.
func peerFromRecord(rec record) (Peer, error) {
	if len(rec.addrs) == 0 {
		return Peer{}, ErrNoAddress
	}
	info, err := DecodeLockTXT(StringsToTXTRecords(rec.text))
	if err != nil {
		return Peer{}, err
	}
	name := info.Name
	if name == "" {
		name = rec.instance
	}
	return Peer{
		Name:     name,
		Addr:     net.JoinHostPort(rec.addrs[0].String(), strconv.Itoa(rec.port)),
		Services: info.Services,
	}, nil
}
