// Package mock provides an in-memory datagram substrate and canned
// topologies for tests. Delivery is unreliable on purpose: a full inbox
// or a Drop verdict loses the datagram silently, like the UDP it stands
// in for.
package mock

import (
	"fmt"
	"net"
	"net/netip"
	"slices"
	"sync"
	"time"

	"github.com/Robson-tech/docker-lsa/state"
)

type packet struct {
	from netip.AddrPort
	data []byte
}

type Net struct {
	mu    sync.Mutex
	conns map[netip.AddrPort]*Conn

	drop    func(from, to netip.AddrPort, data []byte) bool
	observe func(from, to netip.AddrPort, data []byte)
	latency time.Duration
}

func NewNet() *Net {
	return &Net{conns: make(map[netip.AddrPort]*Conn)}
}

// Bind opens a conn on the given endpoint. A taken endpoint is a bind
// failure, as with a real socket.
func (n *Net) Bind(ep netip.AddrPort) (*Conn, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if _, ok := n.conns[ep]; ok {
		return nil, fmt.Errorf("address in use: %s", ep)
	}
	c := &Conn{
		net:   n,
		local: ep,
		inbox: make(chan packet, 1024),
		done:  make(chan struct{}),
	}
	n.conns[ep] = c
	return c, nil
}

// SetDrop installs a per-datagram loss verdict; safe while nodes run.
func (n *Net) SetDrop(drop func(from, to netip.AddrPort, data []byte) bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.drop = drop
}

// SetObserve installs a tap on every delivered datagram.
func (n *Net) SetObserve(observe func(from, to netip.AddrPort, data []byte)) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.observe = observe
}

// SetLatency delays every delivery.
func (n *Net) SetLatency(d time.Duration) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.latency = d
}

func (n *Net) send(from, to netip.AddrPort, data []byte) {
	n.mu.Lock()
	drop, observe, latency := n.drop, n.observe, n.latency
	n.mu.Unlock()
	if drop != nil && drop(from, to, data) {
		return
	}
	deliver := func() {
		n.mu.Lock()
		c, ok := n.conns[to]
		n.mu.Unlock()
		if !ok {
			return
		}
		if observe != nil {
			observe(from, to, data)
		}
		select {
		case c.inbox <- packet{from, data}:
		default:
			// inbox overrun, datagram lost
		}
	}
	if latency > 0 {
		time.AfterFunc(latency, deliver)
	} else {
		deliver()
	}
}

type Conn struct {
	net       *Net
	local     netip.AddrPort
	inbox     chan packet
	done      chan struct{}
	closeOnce sync.Once
}

func (c *Conn) ReadFrom(p []byte) (int, netip.AddrPort, error) {
	select {
	case <-c.done:
		return 0, netip.AddrPort{}, net.ErrClosed
	case pkt := <-c.inbox:
		return copy(p, pkt.data), pkt.from, nil
	}
}

func (c *Conn) WriteTo(p []byte, to netip.AddrPort) (int, error) {
	select {
	case <-c.done:
		return 0, net.ErrClosed
	default:
	}
	c.net.send(c.local, to, slices.Clone(p))
	return len(p), nil
}

func (c *Conn) LocalAddr() netip.AddrPort {
	return c.local
}

func (c *Conn) Close() error {
	c.closeOnce.Do(func() {
		close(c.done)
		c.net.mu.Lock()
		delete(c.net.conns, c.local)
		c.net.mu.Unlock()
	})
	return nil
}

// Topology builds a central config from an edge list and a host→router
// attachment map, assigning loopback endpoints from basePort upward in
// sorted id order.
func Topology(basePort uint16, links []state.LinkCfg, hosts map[state.NodeId]state.NodeId) (state.CentralCfg, map[state.NodeId]state.LocalCfg) {
	routerIds := make([]state.NodeId, 0)
	for _, l := range links {
		if !slices.Contains(routerIds, l.A) {
			routerIds = append(routerIds, l.A)
		}
		if !slices.Contains(routerIds, l.B) {
			routerIds = append(routerIds, l.B)
		}
	}
	for _, r := range hosts {
		if !slices.Contains(routerIds, r) {
			routerIds = append(routerIds, r)
		}
	}
	slices.Sort(routerIds)

	hostIds := make([]state.NodeId, 0, len(hosts))
	for h := range hosts {
		hostIds = append(hostIds, h)
	}
	slices.Sort(hostIds)

	central := state.CentralCfg{Links: links}
	locals := make(map[state.NodeId]state.LocalCfg)
	port := basePort
	loopback := netip.MustParseAddr("127.0.0.1")
	for _, id := range routerIds {
		ep := netip.AddrPortFrom(loopback, port)
		port++
		central.Routers = append(central.Routers, state.RouterCfg{Id: id, Endpoint: ep})
		locals[id] = state.LocalCfg{Id: id, Bind: ep}
	}
	for _, id := range hostIds {
		ep := netip.AddrPortFrom(loopback, port)
		port++
		central.Hosts = append(central.Hosts, state.HostCfg{Id: id, Endpoint: ep, Router: hosts[id]})
		locals[id] = state.LocalCfg{Id: id, Bind: ep}
	}
	return central, locals
}
