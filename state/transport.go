package state

import "net/netip"

// DatagramConn is the unreliable substrate a node sits on. Implemented
// by a bound UDP socket in production and by the mock network in tests.
type DatagramConn interface {
	ReadFrom(p []byte) (int, netip.AddrPort, error)
	WriteTo(p []byte, to netip.AddrPort) (int, error)
	LocalAddr() netip.AddrPort
	Close() error
}
