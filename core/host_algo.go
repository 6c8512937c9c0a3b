package core

import (
	"math/rand/v2"
	"time"

	"github.com/Robson-tech/docker-lsa/state"
)

// SendData originates a tracked DATA datagram toward dest through the
// local router. The pending record keeps the exact message so every
// retransmission carries the same sequence.
func SendData(hs *state.HostState, w Wire, dest state.NodeId, payload string, now time.Time) *state.PendingRequest {
	m := state.Message{
		Kind:        state.KindData,
		Source:      hs.Id,
		Destination: dest,
		Sequence:    hs.NextSeq(),
		Payload:     payload,
		TTL:         state.InitialTTL,
	}
	req := &state.PendingRequest{
		Seq:         m.Sequence,
		Destination: dest,
		Payload:     payload,
		FirstSent:   now,
		Attempts:    1,
		Msg:         m,
	}
	hs.Pending[m.Sequence] = req
	w.Send(m, hs.Router)
	return req
}

// StartupBurst fires InitialBurst datagrams at uniformly random known
// hosts.
func StartupBurst(hs *state.HostState, w Wire, rng *rand.Rand, now time.Time) {
	if len(hs.Known) == 0 {
		return
	}
	for range state.InitialBurst {
		dest := hs.Known[rng.IntN(len(hs.Known))]
		SendData(hs, w, dest, "ping", now)
	}
}

// HandleHostData acknowledges a received DATA and emits a response DATA
// back to the sender with a fresh sequence.
func HandleHostData(hs *state.HostState, w Wire, m state.Message, now time.Time) {
	if m.Destination != hs.Id {
		return // misdelivered, not ours
	}
	ack := state.Message{
		Kind:        state.KindAck,
		Source:      hs.Id,
		Destination: m.Source,
		AckSequence: m.Sequence,
		TTL:         state.InitialTTL,
	}
	w.Send(ack, hs.Router)
	SendData(hs, w, m.Source, "pong", now)
}

// HandleHostAck retires the pending request matching the ACK. The match
// requires both the sequence and the peer to line up; anything else is
// ignored.
func HandleHostAck(hs *state.HostState, w Wire, m state.Message) bool {
	req, ok := hs.Pending[m.AckSequence]
	if !ok || req.Destination != m.Source {
		w.Log(AckUnmatched, "unmatched ack ignored", "from", m.Source, "ack_seq", m.AckSequence)
		return false
	}
	delete(hs.Pending, m.AckSequence)
	w.Log(AckMatched, "ack received", "peer", m.Source, "seq", m.AckSequence, "attempts", req.Attempts)
	return true
}

// RetryScan retransmits overdue requests and abandons the ones that ran
// out of attempts. A request is due once RetryInterval×attempts has
// elapsed since the first send.
func RetryScan(hs *state.HostState, w Wire, now time.Time) {
	for seq, req := range hs.Pending {
		if now.Sub(req.FirstSent) < state.RetryInterval*time.Duration(req.Attempts) {
			continue
		}
		req.Attempts++
		if req.Attempts > state.MaxAttempts {
			delete(hs.Pending, seq)
			w.Log(RetriesExhausted, "request abandoned", "dest", req.Destination, "seq", req.Seq, "attempts", req.Attempts-1)
			continue
		}
		w.Log(Retransmitted, "retransmitting", "dest", req.Destination, "seq", req.Seq, "attempt", req.Attempts)
		w.Send(req.Msg, hs.Router)
	}
}
