package state

import (
	"net/netip"
	"slices"
	"time"
)

// RouterCfg is the central description of a router node.
type RouterCfg struct {
	Id       NodeId
	Endpoint netip.AddrPort
}

// HostCfg is the central description of a host and the router it is
// attached to.
type HostCfg struct {
	Id       NodeId
	Endpoint netip.AddrPort
	Router   NodeId
}

// LinkCfg is an undirected router-router edge. Cost 0 means
// DefaultLinkCost.
type LinkCfg struct {
	A    NodeId `yaml:"a"`
	B    NodeId `yaml:"b"`
	Cost uint32 `yaml:"cost,omitempty"`
}

// CentralCfg is the shared, static description of the whole network.
// Every process receives the same file.
type CentralCfg struct {
	Routers []RouterCfg
	Hosts   []HostCfg `yaml:",omitempty"`
	Links   []LinkCfg `yaml:",omitempty"`
}

// LocalCfg is the node-level configuration.
type LocalCfg struct {
	Id      NodeId
	Bind    netip.AddrPort
	LogPath string `yaml:"log_path,omitempty"`
	// Chatter enables spontaneous host traffic on the given interval.
	Chatter time.Duration `yaml:"chatter,omitempty"`
}

func (c *CentralCfg) IsRouter(id NodeId) bool {
	return slices.ContainsFunc(c.Routers, func(cfg RouterCfg) bool {
		return cfg.Id == id
	})
}

func (c *CentralCfg) IsHost(id NodeId) bool {
	return slices.ContainsFunc(c.Hosts, func(cfg HostCfg) bool {
		return cfg.Id == id
	})
}

func (c *CentralCfg) TryGetRouter(id NodeId) *RouterCfg {
	idx := slices.IndexFunc(c.Routers, func(cfg RouterCfg) bool {
		return cfg.Id == id
	})
	if idx == -1 {
		return nil
	}
	return &c.Routers[idx]
}

func (c *CentralCfg) GetRouter(id NodeId) RouterCfg {
	val := c.TryGetRouter(id)
	if val == nil {
		panic("router " + string(id) + " not found")
	}
	return *val
}

func (c *CentralCfg) TryGetHost(id NodeId) *HostCfg {
	idx := slices.IndexFunc(c.Hosts, func(cfg HostCfg) bool {
		return cfg.Id == id
	})
	if idx == -1 {
		return nil
	}
	return &c.Hosts[idx]
}

func (c *CentralCfg) GetHost(id NodeId) HostCfg {
	val := c.TryGetHost(id)
	if val == nil {
		panic("host " + string(id) + " not found")
	}
	return *val
}

// LinkCost returns the configured cost of the edge between a and b.
func (c *CentralCfg) LinkCost(a, b NodeId) (uint32, bool) {
	for _, l := range c.Links {
		if l.A == a && l.B == b || l.A == b && l.B == a {
			if l.Cost == 0 {
				return DefaultLinkCost, true
			}
			return l.Cost, true
		}
	}
	return 0, false
}

// RouterNeighbours derives the static neighbour set of a router from the
// edge list.
func (c *CentralCfg) RouterNeighbours(id NodeId) []*Neighbour {
	neighs := make([]*Neighbour, 0)
	for _, l := range c.Links {
		var other NodeId
		if l.A == id {
			other = l.B
		} else if l.B == id {
			other = l.A
		} else {
			continue
		}
		cost := l.Cost
		if cost == 0 {
			cost = DefaultLinkCost
		}
		neighs = append(neighs, &Neighbour{
			Id:       other,
			Endpoint: c.GetRouter(other).Endpoint,
			Cost:     cost,
		})
	}
	slices.SortFunc(neighs, func(a, b *Neighbour) int {
		return cmpNodeId(a.Id, b.Id)
	})
	return neighs
}

// AttachedHosts lists the hosts configured behind the given router.
func (c *CentralCfg) AttachedHosts(router NodeId) []HostCfg {
	hosts := make([]HostCfg, 0)
	for _, h := range c.Hosts {
		if h.Router == router {
			hosts = append(hosts, h)
		}
	}
	return hosts
}

// KnownHosts lists every host id except the given one.
func (c *CentralCfg) KnownHosts(except NodeId) []NodeId {
	ids := make([]NodeId, 0, len(c.Hosts))
	for _, h := range c.Hosts {
		if h.Id != except {
			ids = append(ids, h.Id)
		}
	}
	return ids
}

func cmpNodeId(a, b NodeId) int {
	if a < b {
		return -1
	}
	if a > b {
		return 1
	}
	return 0
}
