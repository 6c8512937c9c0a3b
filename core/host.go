package core

import (
	"math/rand/v2"
	"net/netip"
	"time"

	"github.com/Robson-tech/docker-lsa/state"
)

// HostNode runs the reliable request/response protocol against the
// node's local router.
type HostNode struct {
	rng *rand.Rand
}

func (h *HostNode) Init(s *state.State) error {
	cfg := s.CentralCfg.GetHost(s.LocalCfg.Id)
	router := s.CentralCfg.GetRouter(cfg.Router)
	s.Host = state.NewHostState(cfg.Id, router.Endpoint, s.CentralCfg.KnownHosts(cfg.Id))

	if h.rng == nil {
		h.rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}

	s.Env.Dispatch(func(s *state.State) error {
		StartupBurst(s.Host, wire{s}, h.rng, time.Now())
		return nil
	})

	s.Env.RepeatTask(func(s *state.State) error {
		RetryScan(s.Host, wire{s}, time.Now())
		return nil
	}, state.RetryScanPeriod)

	chatter := s.LocalCfg.Chatter
	if chatter == 0 {
		chatter = state.ChatterInterval
	}
	if chatter > 0 {
		s.Env.RepeatJitterTask(func(s *state.State) error {
			if len(s.Host.Known) > 0 {
				dest := s.Host.Known[h.rng.IntN(len(s.Host.Known))]
				SendData(s.Host, wire{s}, dest, "ping", time.Now())
			}
			return nil
		}, chatter, state.ChatterJitter)
	}

	return nil
}

func (h *HostNode) Cleanup(s *state.State) error {
	s.Host = nil
	return nil
}

func (h *HostNode) HandleMessage(s *state.State, m state.Message, from netip.AddrPort) error {
	hs := s.Host
	switch m.Kind {
	case state.KindData:
		if state.DBG_log_traffic {
			s.Log.Debug("data received", "from", m.Source, "seq", m.Sequence, "payload", m.Payload)
		}
		HandleHostData(hs, wire{s}, m, time.Now())
	case state.KindAck:
		HandleHostAck(hs, wire{s}, m)
	}
	// hosts have no use for LSAs or HELLOs
	return nil
}
