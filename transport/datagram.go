// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package transport

import (
	"io"
	"net"
	"syscall"

	"golang.org/x/sys/unix"

	"code.hybscloud.com/iox"
)

// PacketConn is the unreliable datagram endpoint used for the data
// channel. RecvFrom never blocks waiting for data to arrive: if none is
// immediately available it returns iox.ErrWouldBlock, which the receiver's
// drain loop (§4.3) treats as "no more datagrams ready, proceed to bitmap
// send" — the same control-flow vocabulary framer uses for its own
// non-blocking reads.
type PacketConn interface {
	// SendTo sends one datagram to addr. A send error is always fatal to
	// the sender, per §4.4.
	SendTo(payload []byte, addr *net.UDPAddr) error
	// RecvFrom receives at most one datagram into buf. It performs the
	// Ready check itself and returns iox.ErrWouldBlock if the socket is
	// not currently readable, so it does not block on an empty socket and
	// callers may loop on it until that error.
	RecvFrom(buf []byte) (n int, err error)
	// Ready performs a zero-timeout poll and reports whether at least one
	// datagram is immediately available to read.
	Ready() (bool, error)
	Close() error
}

type netPacketConn struct {
	c   *net.UDPConn
	raw syscall.RawConn
}

// ListenPacket binds a datagram endpoint to addr. Passing a zero port lets
// the OS assign an ephemeral one (the sender's "unbound" datagram socket
// per §4.4 CONNECTING); passing a specific port binds it (the receiver's
// LISTENING state per §4.3).
func ListenPacket(addr *net.UDPAddr) (PacketConn, error) {
	c, err := net.ListenUDP("udp", addr)
	if err != nil {
		return nil, err
	}
	p := &netPacketConn{c: c}
	if raw, rerr := c.SyscallConn(); rerr == nil {
		p.raw = raw
	}
	return p, nil
}

func (p *netPacketConn) SendTo(payload []byte, addr *net.UDPAddr) error {
	n, err := p.c.WriteToUDP(payload, addr)
	if err != nil {
		return err
	}
	if n != len(payload) {
		return io.ErrShortWrite
	}
	return nil
}

func (p *netPacketConn) RecvFrom(buf []byte) (int, error) {
	ready, err := p.Ready()
	if err != nil {
		return 0, err
	}
	if !ready {
		return 0, iox.ErrWouldBlock
	}
	n, _, err := p.c.ReadFromUDP(buf)
	return n, err
}

// Ready implements the zero-timeout "is a datagram ready?" primitive
// required by §4.6 and §9's "Readiness polling" re-architecture note, via
// unix.Poll on the socket's raw file descriptor (the pack's concrete
// syscall-level dependency; see SPEC_FULL.md's domain stack section).
func (p *netPacketConn) Ready() (bool, error) {
	if p.raw == nil {
		return false, nil
	}
	var ready bool
	var pollErr error
	err := p.raw.Control(func(fd uintptr) {
		fds := []unix.PollFd{{Fd: int32(fd), Events: unix.POLLIN}}
		n, e := unix.Poll(fds, 0)
		if e != nil {
			pollErr = e
			return
		}
		ready = n > 0 && fds[0].Revents&unix.POLLIN != 0
	})
	if err != nil {
		return false, err
	}
	if pollErr != nil {
		return false, pollErr
	}
	return ready, nil
}

func (p *netPacketConn) Close() error { return p.c.Close() }
