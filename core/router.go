package core

import (
	"fmt"
	"net/netip"
	"time"

	"github.com/Robson-tech/docker-lsa/state"
)

// LinkStateRouter floods LSAs, maintains the LSDB and derives the
// forwarding table. All handlers run as dispatched turns on the main
// loop.
type LinkStateRouter struct{}

func (r *LinkStateRouter) Init(s *state.State) error {
	cfg := s.CentralCfg.GetRouter(s.LocalCfg.Id)
	s.Router = state.NewRouterState(cfg.Id,
		s.CentralCfg.RouterNeighbours(cfg.Id),
		s.CentralCfg.AttachedHosts(cfg.Id))

	s.Log.Debug("schedule router tasks")

	// the first tick originates the initial LSA (seq 1)
	s.Env.RepeatJitterTask(func(s *state.State) error {
		OriginateLSA(s.Router, wire{s}, time.Now())
		return nil
	}, state.LSAPeriod, state.LSAJitter)

	s.Env.RepeatTask(func(s *state.State) error {
		AgeSweep(s.Router, wire{s})
		return nil
	}, state.AgeSweepPeriod)

	return nil
}

func (r *LinkStateRouter) Cleanup(s *state.State) error {
	s.Router = nil
	return nil
}

func (r *LinkStateRouter) HandleMessage(s *state.State, m state.Message, from netip.AddrPort) error {
	rs := s.Router
	switch m.Kind {
	case state.KindLSA:
		if HandleLSA(rs, wire{s}, m, from) && state.DBG_log_lsdb {
			s.Log.Debug("lsa accepted", "origin", m.Originator, "seq", m.Sequence, "from", from, "lsdb", "\n"+rs.StringLSDB())
		}
	case state.KindData, state.KindAck:
		if state.DBG_log_traffic {
			s.Log.Debug("transit datagram", "kind", m.Kind, "source", m.Source, "dest", m.Destination, "ttl", m.TTL)
		}
		ForwardPacket(rs, wire{s}, m)
	case state.KindHello:
		if n := rs.GetNeighbour(m.Source); n != nil && n.Endpoint == from {
			n.LastSeen = time.Now()
		}
	}
	return nil
}

// wire routes protocol side effects to the socket, the logger and the
// drop counters.
type wire struct {
	s *state.State
}

func (w wire) Send(m state.Message, to netip.AddrPort) {
	Get[*Sock](w.s).Send(w.s, m, to)
}

func (w wire) Log(event Event, desc string, args ...any) {
	switch event {
	case LSAStale:
		w.s.Counters.StaleLSA++
	case NoRoute:
		w.s.Counters.Unroutable++
	case TTLExpired:
		w.s.Counters.TTLExpired++
	case RetriesExhausted:
		w.s.Counters.Abandoned++
	case AckMatched:
		w.s.Counters.AcksMatched++
	}
	msg := fmt.Sprintf("%s %s", event, desc)
	if event >= 1000 {
		w.s.Log.Warn(msg, args...)
	} else {
		w.s.Log.Debug(msg, args...)
	}
}
