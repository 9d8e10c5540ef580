// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package transport implements the socket adapter the core state machines
// depend on (see §4.6 of the protocol design): a reliable stream endpoint
// for the control channel and an unreliable datagram endpoint for the data
// channel, plus the zero-timeout readiness primitive the receiver's drain
// loop needs.
//
// The exact-length read/write loop below is the same retry-until-satisfied
// shape as framer's internal readOnce/writeOnce helpers, adapted from
// "retry on iox.ErrWouldBlock until one Read/Write call makes progress" to
// "retry until exactly len(buf) bytes have moved or the connection fails" —
// the control channel's contract per §4.6 has no frame header to parse, so
// there is nothing left to adapt beyond the retry loop itself.
package transport

import (
	"errors"
	"io"
	"net"
	"time"
)

// StreamConn is the reliable, ordered, bidirectional byte-stream endpoint
// used for the control channel. All reads and writes are exact-length:
// implementations loop internally until the requested byte count is
// satisfied or the connection fails.
type StreamConn interface {
	// ReadFull reads exactly len(buf) bytes into buf.
	ReadFull(buf []byte) error
	// WriteFull writes exactly len(buf) bytes from buf.
	WriteFull(buf []byte) error
	// SetDeadline bounds the next ReadFull/WriteFull call pair; a zero
	// value disables the deadline (block indefinitely).
	SetDeadline(t time.Time) error
	Close() error
}

// StreamListener accepts exactly one inbound stream connection, per the
// protocol's single-synchronous-session model.
type StreamListener interface {
	Accept() (StreamConn, error)
	Close() error
}

type netStreamConn struct {
	c net.Conn
}

// WrapStreamConn adapts an existing net.Conn (e.g. a net.Pipe() endpoint in
// tests, matching framer's examples/tcp_test.go approach to deterministic
// stream testing) into a StreamConn.
func WrapStreamConn(c net.Conn) StreamConn {
	return &netStreamConn{c: c}
}

// DialStream resolves and connects a stream endpoint to addr (host:port),
// blocking until the connection succeeds or fails. Used by the sender's
// CONNECTING state.
func DialStream(network, addr string) (StreamConn, error) {
	c, err := net.Dial(network, addr)
	if err != nil {
		return nil, err
	}
	return &netStreamConn{c: c}, nil
}

// ListenStream binds a stream listen endpoint to addr (host:port). Used by
// the receiver's LISTENING state.
func ListenStream(network, addr string) (StreamListener, error) {
	l, err := net.Listen(network, addr)
	if err != nil {
		return nil, err
	}
	return &netStreamListener{l: l}, nil
}

type netStreamListener struct {
	l net.Listener
}

func (l *netStreamListener) Accept() (StreamConn, error) {
	c, err := l.l.Accept()
	if err != nil {
		return nil, err
	}
	return &netStreamConn{c: c}, nil
}

func (l *netStreamListener) Close() error { return l.l.Close() }

func (s *netStreamConn) ReadFull(buf []byte) error {
	_, err := io.ReadFull(s.c, buf)
	return err
}

func (s *netStreamConn) WriteFull(buf []byte) error {
	off := 0
	for off < len(buf) {
		n, err := s.c.Write(buf[off:])
		off += n
		if err != nil {
			return err
		}
		if n == 0 {
			return errors.New("transport: stream write made no progress")
		}
	}
	return nil
}

func (s *netStreamConn) SetDeadline(t time.Time) error { return s.c.SetDeadline(t) }

func (s *netStreamConn) Close() error { return s.c.Close() }
