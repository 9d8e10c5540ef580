// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package rbudp

import (
	"bytes"
	"errors"
	"net"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"code.hybscloud.com/iox"
	"code.hybscloud.com/rbudp/bitmap"
	"code.hybscloud.com/rbudp/region"
	"code.hybscloud.com/rbudp/transport"
)

// wire is an in-process, one-directional datagram channel with optional
// loss and duplication, used to drive the sender/receiver state machines
// end-to-end without binding real sockets. It implements transport.PacketConn
// twice over (send-only and recv-only ends) so the bitmap-repair loop can be
// exercised deterministically — the ambient "Test tooling" harness
// SPEC_FULL.md calls for in place of the teacher's net.Pipe-based stream
// tests, which don't carry packet semantics.
type wire struct {
	mu    sync.Mutex
	queue [][]byte
	seq   int
	drop  func(seq int) bool
	dup   int
}

type wireSendEnd struct{ w *wire }
type wireRecvEnd struct{ w *wire }

func (s *wireSendEnd) SendTo(payload []byte, _ *net.UDPAddr) error {
	s.w.mu.Lock()
	defer s.w.mu.Unlock()
	n := s.w.seq
	s.w.seq++
	if s.w.drop != nil && s.w.drop(n) {
		return nil
	}
	for i := 0; i < 1+s.w.dup; i++ {
		cp := make([]byte, len(payload))
		copy(cp, payload)
		s.w.queue = append(s.w.queue, cp)
	}
	return nil
}
func (s *wireSendEnd) RecvFrom([]byte) (int, error) { return 0, iox.ErrWouldBlock }
func (s *wireSendEnd) Ready() (bool, error)         { return false, nil }
func (s *wireSendEnd) Close() error                 { return nil }

func (r *wireRecvEnd) SendTo([]byte, *net.UDPAddr) error {
	return errors.New("wire: recv end cannot send")
}
func (r *wireRecvEnd) RecvFrom(buf []byte) (int, error) {
	r.w.mu.Lock()
	defer r.w.mu.Unlock()
	if len(r.w.queue) == 0 {
		return 0, iox.ErrWouldBlock
	}
	pkt := r.w.queue[0]
	r.w.queue = r.w.queue[1:]
	return copy(buf, pkt), nil
}
func (r *wireRecvEnd) Ready() (bool, error) {
	r.w.mu.Lock()
	defer r.w.mu.Unlock()
	return len(r.w.queue) > 0, nil
}
func (r *wireRecvEnd) Close() error { return nil }

var _ transport.PacketConn = (*wireSendEnd)(nil)
var _ transport.PacketConn = (*wireRecvEnd)(nil)

// runSession wires a Sender and Receiver together over net.Pipe (control)
// and a wire (data), and drives both state machines to completion.
func runSession(t *testing.T, sourceData []byte, blockSize uint32, drop func(int) bool, dup int) (receivedPath string) {
	t.Helper()

	dir := t.TempDir()
	sourcePath := filepath.Join(dir, "source.bin")
	if err := os.WriteFile(sourcePath, sourceData, 0o644); err != nil {
		t.Fatalf("write source file: %v", err)
	}
	destPath := filepath.Join(dir, "dest.bin")

	desc, err := NewTransmissionDescriptor(int64(len(sourceData)), blockSize, destPath)
	if err != nil {
		t.Fatalf("NewTransmissionDescriptor: %v", err)
	}

	srcRegion, err := region.Mmap(sourcePath, int64(len(sourceData)), region.ReadOnly)
	if err != nil {
		t.Fatalf("region.Mmap source: %v", err)
	}
	defer srcRegion.Close()

	dstRegion, err := region.Mmap(destPath, desc.TotalTransmissionSize(), region.ReadWrite)
	if err != nil {
		t.Fatalf("region.Mmap dest: %v", err)
	}
	defer dstRegion.Close()

	clientConn, serverConn := net.Pipe()
	defer clientConn.Close()
	defer serverConn.Close()

	w := &wire{drop: drop, dup: dup}

	sender := &Sender{
		opts:    resolveOptions(nil),
		stream:  transport.WrapStreamConn(clientConn),
		data:    &wireSendEnd{w: w},
		src:     srcRegion,
		desc:    desc,
		packet:  make([]byte, desc.PacketSize),
		bitmapB: make([]byte, desc.BitmapSizeBytes),
	}
	receiver := &Receiver{
		opts:   resolveOptions(nil),
		stream: transport.WrapStreamConn(serverConn),
		data:   &wireRecvEnd{w: w},
		dst:    dstRegion,
		desc:   desc,
		packet: make([]byte, desc.PacketSize),
		bitmap: bitmap.New(int(desc.NumberPackets)),
	}

	senderErr := make(chan error, 1)
	go func() { senderErr <- sender.blastAndDrain(&net.UDPAddr{}, int64(len(sourceData))) }()

	receiverErr := make(chan error, 1)
	go func() {
		err := receiver.transfer()
		if err != nil {
			serverConn.Close() // unblock the sender's pending control-channel I/O
		}
		receiverErr <- err
	}()

	if err := <-senderErr; err != nil {
		t.Fatalf("sender.blastAndDrain: %v", err)
	}

	// Sender's BLASTING loop returns once ack_bitmap is all-set; the
	// terminal 0x00 flag (DRAINING) is sent separately by Send(). Here we
	// send it directly to let receiver.transfer's loop exit.
	if err := sender.stream.WriteFull([]byte{0x00}); err != nil {
		t.Fatalf("send terminal flag: %v", err)
	}

	if err := <-receiverErr; err != nil {
		t.Fatalf("receiver.transfer: %v", err)
	}

	return destPath
}

// S1/S3 style: lossless transfer, file content must match exactly with
// zero-padded tail.
func TestEndToEndLossless(t *testing.T) {
	src := bytes.Repeat([]byte{0x62}, 64)
	destPath := losslessSession(t, src, 4096)

	got, err := os.ReadFile(destPath)
	if err != nil {
		t.Fatalf("read dest file: %v", err)
	}
	if len(got) != 4096 {
		t.Fatalf("len(dest) = %d, want 4096", len(got))
	}
	if !bytes.Equal(got[:64], src) {
		t.Fatalf("first 64 bytes mismatch")
	}
	for i := 64; i < 4096; i++ {
		if got[i] != 0 {
			t.Fatalf("dest[%d] = %d, want 0", i, got[i])
		}
	}
}

// S4 — simulated loss: session must still terminate with an identical file.
func TestEndToEndWithLoss(t *testing.T) {
	for _, n := range []int{2, 5, 100} {
		n := n
		t.Run("", func(t *testing.T) {
			src := bytes.Repeat([]byte{0x41}, 64*1024)
			drop := func(seq int) bool { return seq%n == 0 }
			destPath := losslessSessionWithLoss(t, src, 4096, drop)

			got, err := os.ReadFile(destPath)
			if err != nil {
				t.Fatalf("read dest file: %v", err)
			}
			if !bytes.Equal(got[:len(src)], src) {
				t.Fatalf("content mismatch with drop-every-%d", n)
			}
		})
	}
}

// Idempotence under duplication (§8 property 5): duplicating packets must
// not change the final file.
func TestEndToEndWithDuplication(t *testing.T) {
	src := []byte("ABCDEFGH")
	destPath := losslessSessionWithDup(t, src, 4, 3)

	got, err := os.ReadFile(destPath)
	if err != nil {
		t.Fatalf("read dest file: %v", err)
	}
	want := append([]byte("ABCDEFGH"), 0, 0, 0, 0)
	if !bytes.Equal(got, want) {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func losslessSession(t *testing.T, src []byte, blockSize uint32) string {
	return runSession(t, src, blockSize, nil, 0)
}

func losslessSessionWithLoss(t *testing.T, src []byte, blockSize uint32, drop func(int) bool) string {
	return runSession(t, src, blockSize, drop, 0)
}

func losslessSessionWithDup(t *testing.T, src []byte, blockSize uint32, dup int) string {
	return runSession(t, src, blockSize, nil, dup)
}

// S5 — a forged out-of-range packet id must fail the receiver.
func TestReceiverRejectsOutOfRangePacketID(t *testing.T) {
	dir := t.TempDir()
	destPath := filepath.Join(dir, "dest.bin")

	desc, err := NewTransmissionDescriptor(64, 4096, destPath)
	if err != nil {
		t.Fatalf("NewTransmissionDescriptor: %v", err)
	}

	dstRegion, err := region.Mmap(destPath, desc.TotalTransmissionSize(), region.ReadWrite)
	if err != nil {
		t.Fatalf("region.Mmap dest: %v", err)
	}
	defer dstRegion.Close()

	w := &wire{}
	receiver := &Receiver{
		opts:   resolveOptions(nil),
		data:   &wireRecvEnd{w: w},
		dst:    dstRegion,
		desc:   desc,
		packet: make([]byte, desc.PacketSize),
		bitmap: bitmap.New(int(desc.NumberPackets)),
	}

	forged := make([]byte, desc.PacketSize)
	EncodePacket(forged, desc.NumberPackets, desc.BlockSize, nil) // id == number_packets: out of range
	w.queue = append(w.queue, forged)

	err = receiver.drainDataChannel()
	if !errors.Is(err, ErrPacketOutOfRange) {
		t.Fatalf("err = %v, want ErrPacketOutOfRange", err)
	}
}
