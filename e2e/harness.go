// Package e2e runs whole nodes over the in-memory datagram network with
// compressed timers.
package e2e

import (
	"errors"
	"log/slog"
	"maps"
	"net/netip"
	"testing"
	"time"

	"github.com/Robson-tech/docker-lsa/core"
	"github.com/Robson-tech/docker-lsa/mock"
	"github.com/Robson-tech/docker-lsa/state"
	"golang.org/x/sync/errgroup"
)

// ConfigureConstants compresses every protocol timer so convergence and
// retransmission fit inside a test run.
func ConfigureConstants() {
	state.LSAPeriod = 150 * time.Millisecond
	state.LSAMaxAge = 3 * state.LSAPeriod
	state.NeighbourDeadInterval = 3 * state.LSAPeriod
	state.AgeSweepPeriod = 50 * time.Millisecond
	state.RetryInterval = 250 * time.Millisecond
	state.RetryScanPeriod = 50 * time.Millisecond
}

type Harness struct {
	t       *testing.T
	Net     *mock.Net
	Central state.CentralCfg
	Locals  map[state.NodeId]state.LocalCfg

	routerIds []state.NodeId
	hostIds   []state.NodeId
	states    map[state.NodeId]**state.State
	g         *errgroup.Group
}

// NewHarness builds the topology but starts nothing, so tests can
// install Drop/Observe hooks first.
func NewHarness(t *testing.T, links []state.LinkCfg, hosts map[state.NodeId]state.NodeId) *Harness {
	central, locals := mock.Topology(23000, links, hosts)
	h := &Harness{
		t:       t,
		Net:     mock.NewNet(),
		Central: central,
		Locals:  locals,
		states:  make(map[state.NodeId]**state.State),
		g:       &errgroup.Group{},
	}
	for _, r := range central.Routers {
		h.routerIds = append(h.routerIds, r.Id)
	}
	for _, hc := range central.Hosts {
		h.hostIds = append(h.hostIds, hc.Id)
	}
	return h
}

// Endpoint looks up a node's bind endpoint, for Drop hooks.
func (h *Harness) Endpoint(id state.NodeId) netip.AddrPort {
	return h.Locals[id].Bind
}

func (h *Harness) startNode(id state.NodeId) {
	local := h.Locals[id]
	conn, err := h.Net.Bind(local.Bind)
	if err != nil {
		h.t.Fatal(err)
	}
	slot := new(*state.State)
	h.states[id] = slot
	h.g.Go(func() error {
		return core.Start(h.Central, local, slog.LevelError, map[string]any{"conn": conn}, slot)
	})
}

func (h *Harness) waitStarted(ids []state.NodeId) {
	deadline := time.Now().Add(5 * time.Second)
	for _, id := range ids {
		for {
			s := *h.states[id]
			if s != nil && s.Started.Load() {
				break
			}
			if time.Now().After(deadline) {
				h.t.Fatalf("node %s did not start", id)
			}
			time.Sleep(10 * time.Millisecond)
		}
	}
}

// StartRouters brings up every router and waits for their main loops.
func (h *Harness) StartRouters() {
	for _, id := range h.routerIds {
		h.startNode(id)
	}
	h.waitStarted(h.routerIds)
}

// StartHosts brings up every host; call after the routers so the burst
// meets a converged network.
func (h *Harness) StartHosts() {
	for _, id := range h.hostIds {
		h.startNode(id)
	}
	h.waitStarted(h.hostIds)
}

func (h *Harness) Stop() {
	for _, slot := range h.states {
		if s := *slot; s != nil {
			s.Cancel(errors.New("stopping harness"))
		}
	}
	if err := h.g.Wait(); err != nil {
		h.t.Error(err)
	}
}

// WaitFor polls cond until it holds or the deadline passes.
func (h *Harness) WaitFor(timeout time.Duration, cond func() bool) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(20 * time.Millisecond)
	}
	return cond()
}

func (h *Harness) inspect(id state.NodeId, fun func(s *state.State) any) any {
	s := *h.states[id]
	if s == nil {
		return nil
	}
	res, err := s.Env.DispatchWait(func(s *state.State) (any, error) {
		return fun(s), nil
	})
	if err != nil {
		return nil
	}
	return res
}

// Forwarding snapshots a router's forwarding table.
func (h *Harness) Forwarding(id state.NodeId) map[state.NodeId]state.Hop {
	res := h.inspect(id, func(s *state.State) any {
		return maps.Clone(s.Router.Forwarding)
	})
	table, _ := res.(map[state.NodeId]state.Hop)
	return table
}

// LSDB renders a router's LSDB for cross-node comparison.
func (h *Harness) LSDB(id state.NodeId) string {
	res := h.inspect(id, func(s *state.State) any {
		return s.Router.StringLSDB()
	})
	str, _ := res.(string)
	return str
}

// Counters snapshots a node's drop/failure counters.
func (h *Harness) Counters(id state.NodeId) state.Counters {
	res := h.inspect(id, func(s *state.State) any {
		return s.Counters
	})
	c, _ := res.(state.Counters)
	return c
}

// PendingCount reports how many host requests are awaiting an ACK.
func (h *Harness) PendingCount(id state.NodeId) int {
	res := h.inspect(id, func(s *state.State) any {
		return len(s.Host.Pending)
	})
	n, _ := res.(int)
	return n
}
