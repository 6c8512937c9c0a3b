package state

import (
	"fmt"
	"net/netip"
	"slices"
	"strings"
	"time"

	"github.com/jellydator/ttlcache/v3"
)

// LSA is the stored form of a link state advertisement.
type LSA struct {
	Originator NodeId
	Sequence   uint64
	Links      map[NodeId]uint32
}

// Neighbour is a statically configured adjacent router. Records are
// created at startup and never destroyed; only LastSeen moves.
type Neighbour struct {
	Id       NodeId
	Endpoint netip.AddrPort
	Cost     uint32
	LastSeen time.Time
}

// Hop is one forwarding table entry.
type Hop struct {
	NextHop  NodeId
	Endpoint netip.AddrPort
	Cost     uint32
}

type RouterState struct {
	Id         NodeId
	Seq        uint64
	Neighbours []*Neighbour
	Hosts      []HostCfg

	// LSDB maps originator to its freshest LSA; entries age out after
	// LSAMaxAge without a refresh. Expiry is driven by the age sweep
	// task, never by a cache-owned goroutine.
	LSDB *ttlcache.Cache[NodeId, LSA]

	// Forwarding is rebuilt wholesale after every LSDB change and
	// swapped in a single assignment.
	Forwarding map[NodeId]Hop
}

func NewRouterState(id NodeId, neighbours []*Neighbour, hosts []HostCfg) *RouterState {
	now := time.Now()
	for _, n := range neighbours {
		n.LastSeen = now
	}
	return &RouterState{
		Id:         id,
		Neighbours: neighbours,
		Hosts:      hosts,
		LSDB: ttlcache.New[NodeId, LSA](
			ttlcache.WithTTL[NodeId, LSA](LSAMaxAge),
			ttlcache.WithDisableTouchOnHit[NodeId, LSA](),
		),
		Forwarding: make(map[NodeId]Hop),
	}
}

func (r *RouterState) GetNeighbour(id NodeId) *Neighbour {
	idx := slices.IndexFunc(r.Neighbours, func(n *Neighbour) bool {
		return n.Id == id
	})
	if idx == -1 {
		return nil
	}
	return r.Neighbours[idx]
}

// LiveNeighbours returns the neighbours heard from within
// NeighbourDeadInterval.
func (r *RouterState) LiveNeighbours(now time.Time) []*Neighbour {
	live := make([]*Neighbour, 0, len(r.Neighbours))
	for _, n := range r.Neighbours {
		if now.Sub(n.LastSeen) < NeighbourDeadInterval {
			live = append(live, n)
		}
	}
	return live
}

// AcceptLSA applies the freshness rule: an LSA replaces the stored entry
// iff its sequence strictly exceeds the stored one (or the originator is
// new). Acceptance refreshes the entry's age.
func (r *RouterState) AcceptLSA(lsa LSA) bool {
	if cur := r.LSDB.Get(lsa.Originator); cur != nil && lsa.Sequence <= cur.Value().Sequence {
		return false
	}
	r.LSDB.Set(lsa.Originator, lsa, ttlcache.DefaultTTL)
	return true
}

func (r *RouterState) GetLSA(id NodeId) (LSA, bool) {
	item := r.LSDB.Get(id)
	if item == nil {
		return LSA{}, false
	}
	return item.Value(), true
}

// SnapshotLSDB copies the live LSDB entries for a recomputation pass.
func (r *RouterState) SnapshotLSDB() map[NodeId]LSA {
	db := make(map[NodeId]LSA, r.LSDB.Len())
	for _, id := range r.LSDB.Keys() {
		if item := r.LSDB.Get(id); item != nil {
			db[id] = item.Value()
		}
	}
	return db
}

// StringForwarding renders the forwarding table sorted by destination.
func (r *RouterState) StringForwarding() string {
	dests := make([]NodeId, 0, len(r.Forwarding))
	for d := range r.Forwarding {
		dests = append(dests, d)
	}
	slices.Sort(dests)
	out := make([]string, 0, len(dests))
	for _, d := range dests {
		hop := r.Forwarding[d]
		out = append(out, fmt.Sprintf("%s via %s (cost: %d)", d, hop.NextHop, hop.Cost))
	}
	return strings.Join(out, "\n")
}

// StringLSDB renders the LSDB sorted by originator.
func (r *RouterState) StringLSDB() string {
	db := r.SnapshotLSDB()
	origins := make([]NodeId, 0, len(db))
	for o := range db {
		origins = append(origins, o)
	}
	slices.Sort(origins)
	out := make([]string, 0, len(origins))
	for _, o := range origins {
		lsa := db[o]
		links := make([]NodeId, 0, len(lsa.Links))
		for l := range lsa.Links {
			links = append(links, l)
		}
		slices.Sort(links)
		parts := make([]string, 0, len(links))
		for _, l := range links {
			parts = append(parts, fmt.Sprintf("%s:%d", l, lsa.Links[l]))
		}
		out = append(out, fmt.Sprintf("%s seq=%d links=[%s]", o, lsa.Sequence, strings.Join(parts, " ")))
	}
	return strings.Join(out, "\n")
}

// AttachedHost resolves a locally attached host by id.
func (r *RouterState) AttachedHost(id NodeId) *HostCfg {
	idx := slices.IndexFunc(r.Hosts, func(h HostCfg) bool {
		return h.Id == id
	})
	if idx == -1 {
		return nil
	}
	return &r.Hosts[idx]
}
