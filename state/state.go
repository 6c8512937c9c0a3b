package state

import (
	"context"
	"log/slog"
	"sync/atomic"
)

// NodeId identifies a router or host. The namespace is flat; roles are
// distinguished only by configuration.
type NodeId string

type Module interface {
	Init(s *State) error
	Cleanup(s *State) error
}

// State access must be done only on the main loop goroutine.
type State struct {
	*Env
	Modules map[string]Module

	// exactly one of Router/Host is non-nil, depending on the role of
	// this node
	Router *RouterState
	Host   *HostState

	Counters Counters

	Started  atomic.Bool
	Stopping atomic.Bool
}

// Env can be read from any goroutine.
type Env struct {
	DispatchChannel chan func(s *State) error
	CentralCfg
	LocalCfg
	Context context.Context
	Cancel  context.CancelCauseFunc
	Log     *slog.Logger

	// Aux carries test-injected collaborators, e.g. a mock datagram
	// conn under "conn".
	Aux map[string]any
}

// Counters tracks the drop/failure sites of the error policy. Mutated
// only on the main loop.
type Counters struct {
	Malformed   uint64
	UnknownKind uint64
	StaleLSA    uint64
	Unroutable  uint64
	TTLExpired  uint64
	SendFailed  uint64
	Abandoned   uint64
	AcksMatched uint64
}
