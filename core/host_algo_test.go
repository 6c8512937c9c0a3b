package core

import (
	"math/rand/v2"
	"testing"
	"time"

	"github.com/Robson-tech/docker-lsa/state"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeHost(id state.NodeId, known ...state.NodeId) *state.HostState {
	return state.NewHostState(id, Ep("R"), known)
}

func testRng() *rand.Rand {
	return rand.New(rand.NewPCG(1, 2))
}

func TestSendDataTracksPending(t *testing.T) {
	h := &Harness{}
	hs := makeHost("H1", "H7")
	now := time.Now()

	req := SendData(hs, h, "H7", "ping", now)

	assert.Equal(t, uint64(1), req.Seq)
	assert.Equal(t, 1, req.Attempts)
	require.Contains(t, hs.Pending, uint64(1))

	sent := h.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, state.KindData, sent[0].V1.Kind)
	assert.Equal(t, state.InitialTTL, sent[0].V1.TTL)
	// everything leaves through the local router
	assert.Equal(t, Ep("R"), sent[0].V2)

	// sequences are monotonic
	req2 := SendData(hs, h, "H7", "ping", now)
	assert.Equal(t, uint64(2), req2.Seq)
}

func TestStartupBurst(t *testing.T) {
	h := &Harness{}
	hs := makeHost("H1", "H2", "H3")

	StartupBurst(hs, h, testRng(), time.Now())

	sent := h.Sent()
	require.Len(t, sent, state.InitialBurst)
	assert.Len(t, hs.Pending, state.InitialBurst)
	for _, p := range sent {
		assert.Contains(t, []state.NodeId{"H2", "H3"}, p.V1.Destination)
		assert.NotEqual(t, state.NodeId("H1"), p.V1.Destination)
	}
}

func TestStartupBurstNoPeers(t *testing.T) {
	h := &Harness{}
	hs := makeHost("H1")
	StartupBurst(hs, h, testRng(), time.Now())
	assert.Empty(t, h.Sent())
}

func TestHandleHostDataAcksAndResponds(t *testing.T) {
	h := &Harness{}
	hs := makeHost("H7", "H1")

	m := state.Message{Kind: state.KindData, Source: "H1", Destination: "H7", Sequence: 42, Payload: "hello", TTL: 9}
	HandleHostData(hs, h, m, time.Now())

	sent := h.Sent()
	require.Len(t, sent, 2)

	ack := sent[0].V1
	assert.Equal(t, state.KindAck, ack.Kind)
	assert.Equal(t, state.NodeId("H7"), ack.Source)
	assert.Equal(t, state.NodeId("H1"), ack.Destination)
	assert.Equal(t, uint64(42), ack.AckSequence)

	resp := sent[1].V1
	assert.Equal(t, state.KindData, resp.Kind)
	assert.Equal(t, state.NodeId("H1"), resp.Destination)
	assert.Equal(t, uint64(1), resp.Sequence)
	// the response is itself tracked for retransmission
	assert.Contains(t, hs.Pending, uint64(1))
}

func TestHandleHostDataMisdelivered(t *testing.T) {
	h := &Harness{}
	hs := makeHost("H7", "H1")

	m := state.Message{Kind: state.KindData, Source: "H1", Destination: "H9", Sequence: 1, Payload: "x", TTL: 9}
	HandleHostData(hs, h, m, time.Now())
	assert.Empty(t, h.Sent())
}

func TestHandleHostAck(t *testing.T) {
	h := &Harness{}
	hs := makeHost("H1", "H7")
	now := time.Now()
	SendData(hs, h, "H7", "ping", now)
	h.GetActions()

	// ack from the wrong peer does not match
	assert.False(t, HandleHostAck(hs, h, state.Message{Kind: state.KindAck, Source: "H9", Destination: "H1", AckSequence: 1}))
	assert.Contains(t, hs.Pending, uint64(1))

	// ack for an unknown sequence is ignored
	assert.False(t, HandleHostAck(hs, h, state.Message{Kind: state.KindAck, Source: "H7", Destination: "H1", AckSequence: 5}))

	// the matching ack retires the request
	assert.True(t, HandleHostAck(hs, h, state.Message{Kind: state.KindAck, Source: "H7", Destination: "H1", AckSequence: 1}))
	assert.Empty(t, hs.Pending)

	// a duplicate of the same ack is ignored
	assert.False(t, HandleHostAck(hs, h, state.Message{Kind: state.KindAck, Source: "H7", Destination: "H1", AckSequence: 1}))
}

// Walks the retransmission ladder: send at t0, retransmit at 5s and
// 10s, abandon at 15s.
func TestRetryScanLadder(t *testing.T) {
	h := &Harness{}
	hs := makeHost("H1", "H7")
	t0 := time.Now()
	req := SendData(hs, h, "H7", "ping", t0)
	h.GetActions()

	// before the first deadline nothing happens
	RetryScan(hs, h, t0.Add(4*time.Second))
	assert.Empty(t, h.Sent())
	assert.Equal(t, 1, req.Attempts)

	// 5s: first retransmission, same sequence
	RetryScan(hs, h, t0.Add(5*time.Second))
	sent := h.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, uint64(1), sent[0].V1.Sequence)
	assert.Equal(t, 2, req.Attempts)
	h.GetActions()

	// 8s: next deadline is 2×interval, not yet
	RetryScan(hs, h, t0.Add(8*time.Second))
	assert.Empty(t, h.Sent())

	// 10s: second retransmission
	RetryScan(hs, h, t0.Add(10*time.Second))
	require.Len(t, h.Sent(), 1)
	assert.Equal(t, 3, req.Attempts)
	h.GetActions()

	// 15s: attempts exceed the limit, request abandoned without sending
	RetryScan(hs, h, t0.Add(15*time.Second))
	assert.Empty(t, h.Sent())
	assert.True(t, h.Logged(RetriesExhausted))
	assert.Empty(t, hs.Pending)
}

func TestRetryScanAckStopsRetries(t *testing.T) {
	h := &Harness{}
	hs := makeHost("H1", "H7")
	t0 := time.Now()
	req := SendData(hs, h, "H7", "ping", t0)
	RetryScan(hs, h, t0.Add(5*time.Second))
	require.Equal(t, 2, req.Attempts)

	HandleHostAck(hs, h, state.Message{Kind: state.KindAck, Source: "H7", Destination: "H1", AckSequence: 1})
	// acked before the limit: attempts never exceeded MaxAttempts
	assert.LessOrEqual(t, req.Attempts, state.MaxAttempts)

	h.GetActions()
	RetryScan(hs, h, t0.Add(20*time.Second))
	assert.Empty(t, h.Sent())
}
