package core

import (
	"container/heap"
	"net/netip"
	"slices"
	"time"

	"github.com/Robson-tech/docker-lsa/state"
)

type Event int

// trace events

const (
	LSAAccepted Event = iota
	LSAOriginated
	LSAAgedOut
	PacketDelivered
	PacketForwarded
	TableRebuilt
	AckMatched
	Retransmitted
)

// warn events

const (
	LSAStale Event = iota + 1000
	NoRoute
	TTLExpired
	AckUnmatched
	RetriesExhausted
)

func (e Event) String() string {
	switch e {
	case LSAAccepted:
		return "LSA_ACCEPTED"
	case LSAOriginated:
		return "LSA_ORIGINATED"
	case LSAAgedOut:
		return "LSA_AGED_OUT"
	case PacketDelivered:
		return "PACKET_DELIVERED"
	case PacketForwarded:
		return "PACKET_FORWARDED"
	case TableRebuilt:
		return "TABLE_REBUILT"
	case AckMatched:
		return "ACK_MATCHED"
	case Retransmitted:
		return "RETRANSMITTED"
	case LSAStale:
		return "LSA_STALE"
	case NoRoute:
		return "NO_ROUTE"
	case TTLExpired:
		return "TTL_EXPIRED"
	case AckUnmatched:
		return "ACK_UNMATCHED"
	case RetriesExhausted:
		return "RETRIES_EXHAUSTED"
	}
	return "UNKNOWN"
}

// Wire is the side-effect surface of the protocol logic.
type Wire interface {
	Send(m state.Message, to netip.AddrPort)
	Log(event Event, desc string, args ...any)
}

// HandleLSA applies the freshness rule, refloods accepted LSAs to every
// neighbour except the arrival endpoint, and rebuilds forwarding.
// Returns whether the LSA was accepted.
func HandleLSA(rs *state.RouterState, w Wire, m state.Message, from netip.AddrPort) bool {
	lsa := state.LSA{
		Originator: m.Originator,
		Sequence:   m.Sequence,
		Links:      m.Links,
	}
	if !rs.AcceptLSA(lsa) {
		w.Log(LSAStale, "stale lsa dropped", "origin", m.Originator, "seq", m.Sequence)
		return false
	}
	// liveness counts only LSAs heard straight from the neighbour; a
	// flooded copy arriving over another path says nothing about the
	// direct link
	if n := rs.GetNeighbour(m.Originator); n != nil && n.Endpoint == from {
		n.LastSeen = time.Now()
	}
	w.Log(LSAAccepted, "lsa accepted", "origin", m.Originator, "seq", m.Sequence)

	out := m
	out.TTL--
	if out.TTL > 0 {
		for _, n := range rs.Neighbours {
			if n.Endpoint == from {
				continue // split horizon by arrival endpoint
			}
			w.Send(out, n.Endpoint)
		}
	}
	Recompute(rs, w)
	return true
}

// OriginateLSA builds and floods this router's own advertisement:
// currently-live neighbours at their configured cost plus locally
// attached hosts as zero-cost stub links.
func OriginateLSA(rs *state.RouterState, w Wire, now time.Time) state.Message {
	rs.Seq++
	links := make(map[state.NodeId]uint32)
	for _, n := range rs.LiveNeighbours(now) {
		links[n.Id] = n.Cost
	}
	for _, h := range rs.Hosts {
		links[h.Id] = 0
	}
	m := state.Message{
		Kind:       state.KindLSA,
		Originator: rs.Id,
		Sequence:   rs.Seq,
		Links:      links,
		TTL:        state.InitialTTL,
	}
	rs.AcceptLSA(state.LSA{Originator: rs.Id, Sequence: rs.Seq, Links: links})
	w.Log(LSAOriginated, "lsa originated", "seq", rs.Seq, "links", len(links))
	for _, n := range rs.Neighbours {
		w.Send(m, n.Endpoint)
	}
	Recompute(rs, w)
	return m
}

// ForwardPacket moves a DATA or ACK datagram one hop: local delivery if
// the destination is an attached host, next-hop forwarding otherwise.
func ForwardPacket(rs *state.RouterState, w Wire, m state.Message) {
	out := m
	out.TTL = state.HopTTL(m) - 1
	if out.TTL <= 0 {
		w.Log(TTLExpired, "ttl expired", "source", m.Source, "dest", m.Destination)
		return
	}
	if h := rs.AttachedHost(m.Destination); h != nil {
		w.Log(PacketDelivered, "delivering to attached host", "dest", m.Destination)
		w.Send(out, h.Endpoint)
		return
	}
	if m.Destination == rs.Id {
		w.Log(PacketDelivered, "datagram addressed to this router", "source", m.Source)
		return
	}
	hop, ok := rs.Forwarding[m.Destination]
	if !ok {
		w.Log(NoRoute, "no route to destination", "dest", m.Destination)
		return
	}
	w.Log(PacketForwarded, "forwarding", "dest", m.Destination, "via", hop.NextHop)
	w.Send(out, hop.Endpoint)
}

// AgeSweep expires LSDB entries that have not been refreshed within
// LSAMaxAge. Neighbour records are never removed; stale neighbours fall
// out of the next originated LSA via LiveNeighbours.
func AgeSweep(rs *state.RouterState, w Wire) {
	before := rs.LSDB.Len()
	rs.LSDB.DeleteExpired()
	if rs.LSDB.Len() != before {
		w.Log(LSAAgedOut, "lsdb entries aged out", "removed", before-rs.LSDB.Len())
		Recompute(rs, w)
	}
}

// Recompute rebuilds the forwarding table wholesale from the LSDB.
func Recompute(rs *state.RouterState, w Wire) {
	rs.Forwarding = ComputeForwarding(rs)
	if state.DBG_log_table {
		w.Log(TableRebuilt, "forwarding table rebuilt", "table", "\n"+rs.StringForwarding())
	}
}

type spfEdge struct {
	to   state.NodeId
	cost uint32
}

// ComputeForwarding runs shortest-path-first over the LSDB. Edges
// between originators count only when bidirectional-confirmed; ids that
// never originate are stub leaves (hosts), reachable through their
// advertising router but never transit. Equal-cost ties resolve to the
// lexicographically smaller first hop so independent routers derive
// identical tables.
func ComputeForwarding(rs *state.RouterState) map[state.NodeId]state.Hop {
	db := rs.SnapshotLSDB()
	table := make(map[state.NodeId]state.Hop)
	if _, ok := db[rs.Id]; !ok {
		return table
	}

	adj := make(map[state.NodeId][]spfEdge)
	stubs := make(map[state.NodeId][]spfEdge)
	for u, lsa := range db {
		for v, cost := range lsa.Links {
			if peer, ok := db[v]; ok {
				if _, back := peer.Links[u]; back {
					adj[u] = append(adj[u], spfEdge{v, cost})
				}
			} else {
				stubs[u] = append(stubs[u], spfEdge{v, cost})
			}
		}
	}

	dist := map[state.NodeId]uint32{rs.Id: 0}
	first := make(map[state.NodeId]state.NodeId)
	visited := make(map[state.NodeId]bool)
	pq := &spfQueue{{node: rs.Id}}
	for pq.Len() > 0 {
		it := heap.Pop(pq).(spfItem)
		if visited[it.node] {
			continue
		}
		visited[it.node] = true
		for _, e := range adj[it.node] {
			nd := it.dist + e.cost
			nf := it.first
			if it.node == rs.Id {
				nf = e.to
			}
			cur, seen := dist[e.to]
			if !seen || nd < cur || (nd == cur && nf < first[e.to]) {
				dist[e.to] = nd
				first[e.to] = nf
				heap.Push(pq, spfItem{node: e.to, dist: nd, first: nf})
			}
		}
	}

	for node := range visited {
		if node == rs.Id {
			continue
		}
		n := rs.GetNeighbour(first[node])
		if n == nil {
			continue // first hop is not a configured neighbour
		}
		table[node] = state.Hop{NextHop: n.Id, Endpoint: n.Endpoint, Cost: dist[node]}
	}

	// hosts inherit the hop of the router advertising them; iterate in
	// sorted order and keep the cheapest claim so ties resolve the same
	// on every router
	origins := make([]state.NodeId, 0, len(stubs))
	for o := range stubs {
		origins = append(origins, o)
	}
	slices.Sort(origins)
	for _, origin := range origins {
		for _, leaf := range stubs[origin] {
			var cand state.Hop
			if origin == rs.Id {
				h := rs.AttachedHost(leaf.to)
				if h == nil {
					continue
				}
				cand = state.Hop{NextHop: leaf.to, Endpoint: h.Endpoint, Cost: leaf.cost}
			} else {
				hop, ok := table[origin]
				if !ok {
					continue
				}
				cand = state.Hop{NextHop: hop.NextHop, Endpoint: hop.Endpoint, Cost: hop.Cost + leaf.cost}
			}
			if cur, ok := table[leaf.to]; ok && cur.Cost <= cand.Cost {
				continue
			}
			table[leaf.to] = cand
		}
	}
	return table
}

type spfItem struct {
	node  state.NodeId
	dist  uint32
	first state.NodeId
}

type spfQueue []spfItem

func (q spfQueue) Len() int { return len(q) }
func (q spfQueue) Less(i, j int) bool {
	if q[i].dist != q[j].dist {
		return q[i].dist < q[j].dist
	}
	if q[i].first != q[j].first {
		return q[i].first < q[j].first
	}
	return q[i].node < q[j].node
}
func (q spfQueue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }
func (q *spfQueue) Push(x any)   { *q = append(*q, x.(spfItem)) }
func (q *spfQueue) Pop() any {
	old := *q
	n := len(old)
	it := old[n-1]
	*q = old[:n-1]
	return it
}
