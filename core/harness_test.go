package core

import (
	"fmt"
	"net/netip"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/Robson-tech/docker-lsa/state"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

// ConfigureConstants compresses the protocol timers so unit tests can
// cross age boundaries quickly.
func ConfigureConstants() func() {
	oldMaxAge := state.LSAMaxAge
	oldDead := state.NeighbourDeadInterval
	state.LSAMaxAge = 50 * time.Millisecond
	state.NeighbourDeadInterval = 50 * time.Millisecond
	return func() {
		state.LSAMaxAge = oldMaxAge
		state.NeighbourDeadInterval = oldDead
	}
}

type HarnessEvent struct {
	Message string
	Args    []any
}

func MakeEvent(msg string, args ...any) HarnessEvent {
	return HarnessEvent{
		Message: msg,
		Args:    args,
	}
}

// Harness records the protocol's side effects instead of performing
// them.
type Harness struct {
	actions []HarnessEvent
}

func (h *Harness) Send(m state.Message, to netip.AddrPort) {
	h.actions = append(h.actions, MakeEvent("SEND", m, to))
}

func (h *Harness) Log(event Event, desc string, args ...any) {
	x := make([]any, 0)
	x = append(x, event)
	x = append(x, desc)
	x = append(x, args...)
	h.actions = append(h.actions, MakeEvent("LOG", x...))
}

type HarnessEvents []HarnessEvent

func (h HarnessEvents) String() string {
	out := make([]string, 0)
	for _, action := range h {
		cur := action.Message
		for _, arg := range action.Args {
			cur += " " + fmt.Sprint(arg)
		}
		out = append(out, cur)
	}
	slices.Sort(out)
	return strings.Join(out, "\n")
}

// GetActions returns and clears the recorded sends, dropping logs.
func (h *Harness) GetActions() HarnessEvents {
	x := make([]HarnessEvent, 0)
	for _, action := range h.actions {
		if action.Message != "LOG" {
			x = append(x, action)
		}
	}
	h.actions = make([]HarnessEvent, 0)
	return x
}

// Logged reports whether an event was logged since the last GetActions.
func (h *Harness) Logged(event Event) bool {
	for _, action := range h.actions {
		if action.Message == "LOG" && len(action.Args) > 0 && action.Args[0] == event {
			return true
		}
	}
	return false
}

// Sent returns the recorded (message, destination) pairs in order.
func (h *Harness) Sent() []state.Pair[state.Message, netip.AddrPort] {
	out := make([]state.Pair[state.Message, netip.AddrPort], 0)
	for _, action := range h.actions {
		if action.Message == "SEND" {
			out = append(out, state.Pair[state.Message, netip.AddrPort]{
				V1: action.Args[0].(state.Message),
				V2: action.Args[1].(netip.AddrPort),
			})
		}
	}
	return out
}

func (e HarnessEvents) contains(msg string, args ...any) bool {
	for _, event := range e {
		if event.Message == msg {
			if len(event.Args) >= len(args) {
				match := true
				for i, arg := range args {
					if !cmp.Equal(event.Args[i], arg, cmpopts.EquateComparable(netip.AddrPort{})) {
						match = false
						break
					}
				}
				if match {
					return true
				}
			}
		}
	}
	return false
}

func (e HarnessEvents) AssertContains(t *testing.T, msg string, args ...any) {
	t.Helper()
	if e.contains(msg, args...) {
		return
	}
	t.Fatal("Expected event not found: ", msg, " with args: ", args, " in ", e)
}

func (e HarnessEvents) AssertNotContains(t *testing.T, msg string, args ...any) {
	t.Helper()
	if e.contains(msg, args...) {
		t.Fatal("Unexpected event found: ", msg, " with args: ", args, " in ", e)
	}
}

// Ep gives each node a stable fake endpoint.
func Ep(id state.NodeId) netip.AddrPort {
	var port uint16
	for _, c := range string(id) {
		port = port*31 + uint16(c)
	}
	return netip.AddrPortFrom(netip.MustParseAddr("127.0.0.1"), 20000+port%10000)
}

func MakeNeighbours(ids ...state.NodeId) []*state.Neighbour {
	neighs := make([]*state.Neighbour, 0, len(ids))
	for _, id := range ids {
		neighs = append(neighs, &state.Neighbour{
			Id:       id,
			Endpoint: Ep(id),
			Cost:     1,
			LastSeen: time.Now(),
		})
	}
	return neighs
}

func MakeRouter(id state.NodeId, neighbours ...state.NodeId) *state.RouterState {
	return state.NewRouterState(id, MakeNeighbours(neighbours...), nil)
}

// Seed installs an LSA directly into the LSDB.
func Seed(rs *state.RouterState, origin state.NodeId, seq uint64, links map[state.NodeId]uint32) {
	rs.AcceptLSA(state.LSA{Originator: origin, Sequence: seq, Links: links})
}

func LsaMsg(origin state.NodeId, seq uint64, ttl int, links map[state.NodeId]uint32) state.Message {
	return state.Message{
		Kind:       state.KindLSA,
		Originator: origin,
		Sequence:   seq,
		Links:      links,
		TTL:        ttl,
	}
}
