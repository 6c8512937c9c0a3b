package state

import (
	"net/netip"
	"time"
)

// PendingRequest tracks one unacknowledged DATA datagram. Created on
// send, destroyed on ACK or when attempts run out.
type PendingRequest struct {
	Seq         uint64
	Destination NodeId
	Payload     string
	FirstSent   time.Time
	Attempts    int

	// Msg is retransmitted verbatim so every attempt carries the same
	// sequence.
	Msg Message
}

type HostState struct {
	Id     NodeId
	Seq    uint64
	Router netip.AddrPort
	Known  []NodeId

	Pending map[uint64]*PendingRequest
}

func NewHostState(id NodeId, router netip.AddrPort, known []NodeId) *HostState {
	return &HostState{
		Id:      id,
		Router:  router,
		Known:   known,
		Pending: make(map[uint64]*PendingRequest),
	}
}

// NextSeq hands out the host's monotonically increasing local sequence,
// starting at 1.
func (h *HostState) NextSeq() uint64 {
	h.Seq++
	return h.Seq
}
