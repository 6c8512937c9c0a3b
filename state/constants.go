package state

import "time"

var (
	// LSAPeriod is the cadence of LSA origination, jittered by LSAJitter.
	LSAPeriod = time.Second * 30
	LSAJitter = 0.1

	// AgeSweepPeriod is the cadence of the LSDB age sweep.
	AgeSweepPeriod = time.Second * 10

	// LSAMaxAge is how long an LSDB entry survives without a refresh from
	// its originator.
	LSAMaxAge = 3 * LSAPeriod

	// NeighbourDeadInterval is how long a neighbour may stay silent before
	// it is excluded from originated LSAs.
	NeighbourDeadInterval = 3 * LSAPeriod

	// host retransmission
	RetryInterval   = time.Second * 5
	RetryScanPeriod = time.Second * 1
	MaxAttempts     = 3

	// InitialBurst is the number of datagrams a host sends on startup.
	InitialBurst = 100

	// ChatterInterval enables spontaneous host traffic when positive.
	ChatterInterval = time.Duration(0)
	ChatterJitter   = 0.4

	InitialTTL      = 16
	MaxDatagram     = 4096
	DefaultLinkCost = uint32(1)

	DefaultPort = uint16(5001)
)

// debug output flags, bound to CLI flags in cmd
var (
	DBG_log_table   = false
	DBG_log_lsdb    = false
	DBG_log_traffic = false
)
