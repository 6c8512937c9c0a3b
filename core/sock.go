package core

import (
	"errors"
	"fmt"
	"net"
	"net/netip"
	"slices"

	"github.com/Robson-tech/docker-lsa/state"
)

// MessageHandler is implemented by the role module (router or host).
type MessageHandler interface {
	HandleMessage(s *state.State, m state.Message, from netip.AddrPort) error
}

// Sock owns the node's datagram socket. It decodes inbound datagrams on
// its receive goroutine and dispatches the handling onto the main loop;
// sends happen inline and are best-effort.
type Sock struct {
	conn state.DatagramConn
}

func (k *Sock) Init(s *state.State) error {
	if c, ok := s.Aux["conn"].(state.DatagramConn); ok {
		k.conn = c
	} else {
		conn, err := net.ListenUDP("udp", net.UDPAddrFromAddrPort(s.LocalCfg.Bind))
		if err != nil {
			return fmt.Errorf("failed to bind %s: %w", s.LocalCfg.Bind, err)
		}
		k.conn = &udpConn{conn}
	}
	s.Log.Debug("listening", "bind", k.conn.LocalAddr())
	go k.recvLoop(s.Env)
	return nil
}

func (k *Sock) Cleanup(s *state.State) error {
	if k.conn != nil {
		return k.conn.Close()
	}
	return nil
}

func (k *Sock) recvLoop(e *state.Env) {
	buf := make([]byte, state.MaxDatagram)
	for {
		n, from, err := k.conn.ReadFrom(buf)
		if err != nil {
			if e.Context.Err() != nil || errors.Is(err, net.ErrClosed) {
				return
			}
			e.Log.Warn("receive error", "err", err)
			continue
		}
		data := slices.Clone(buf[:n])
		e.Dispatch(func(s *state.State) error {
			return handleDatagram(s, data, from)
		})
	}
}

func handleDatagram(s *state.State, data []byte, from netip.AddrPort) error {
	m, err := state.Decode(data)
	if err != nil {
		if errors.Is(err, state.ErrUnknownKind) {
			s.Counters.UnknownKind++
			s.Log.Warn("dropped datagram", "from", from, "err", err)
		} else {
			s.Counters.Malformed++
		}
		return nil
	}
	for _, mod := range s.Modules {
		if h, ok := mod.(MessageHandler); ok {
			return h.HandleMessage(s, m, from)
		}
	}
	return nil
}

// Send encodes and transmits m. Failures are logged and swallowed;
// reliability is end-to-end.
func (k *Sock) Send(s *state.State, m state.Message, to netip.AddrPort) {
	data, err := state.Encode(m)
	if err != nil {
		s.Log.Error("failed to encode message", "kind", m.Kind, "err", err)
		return
	}
	if _, err := k.conn.WriteTo(data, to); err != nil {
		s.Counters.SendFailed++
		s.Log.Warn("send failed", "to", to, "err", err)
	}
}

// udpConn adapts *net.UDPConn to the DatagramConn surface.
type udpConn struct {
	*net.UDPConn
}

func (u *udpConn) ReadFrom(p []byte) (int, netip.AddrPort, error) {
	return u.ReadFromUDPAddrPort(p)
}

func (u *udpConn) WriteTo(p []byte, to netip.AddrPort) (int, error) {
	return u.WriteToUDPAddrPort(p, to)
}

func (u *udpConn) LocalAddr() netip.AddrPort {
	return u.UDPConn.LocalAddr().(*net.UDPAddr).AddrPort()
}
