// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package transport

import (
	"bytes"
	"net"
	"testing"
)

func TestStreamConnExactLengthReadWrite(t *testing.T) {
	clientConn, serverConn := net.Pipe()
	defer clientConn.Close()
	defer serverConn.Close()

	client := WrapStreamConn(clientConn)
	server := WrapStreamConn(serverConn)

	msg := bytes.Repeat([]byte("x"), 10_000) // larger than typical TCP segment

	errCh := make(chan error, 1)
	go func() { errCh <- client.WriteFull(msg) }()

	got := make([]byte, len(msg))
	if err := server.ReadFull(got); err != nil {
		t.Fatalf("ReadFull: %v", err)
	}
	if err := <-errCh; err != nil {
		t.Fatalf("WriteFull: %v", err)
	}
	if !bytes.Equal(got, msg) {
		t.Fatalf("round-tripped message does not match")
	}
}

func TestStreamListenerAcceptsOneConnection(t *testing.T) {
	l, err := ListenStream("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("ListenStream: %v", err)
	}
	defer l.Close()

	addr := l.(*netStreamListener).l.Addr().String()

	acceptCh := make(chan error, 1)
	go func() {
		_, err := l.Accept()
		acceptCh <- err
	}()

	c, err := DialStream("tcp", addr)
	if err != nil {
		t.Fatalf("DialStream: %v", err)
	}
	defer c.Close()

	if err := <-acceptCh; err != nil {
		t.Fatalf("Accept: %v", err)
	}
}
