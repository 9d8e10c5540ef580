// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package rbudp

import (
	"fmt"
	"net"
	"os"
	"time"

	"code.hybscloud.com/rbudp/bitmap"
	"code.hybscloud.com/rbudp/region"
	"code.hybscloud.com/rbudp/transport"
)

// Sender drives the sender-side state machine: CONNECTING -> HANDSHAKE_SENT
// -> BLASTING -> DRAINING -> (DONE | FAILED). One Sender is good for
// exactly one file transfer; construct a new one for the next.
type Sender struct {
	opts Options

	stream transport.StreamConn
	data   transport.PacketConn
	src    region.FileRegion

	desc    TransmissionDescriptor
	packet  []byte
	bitmapB []byte
}

// NewSender constructs a Sender with the given options.
func NewSender(opts ...Option) *Sender {
	return &Sender{opts: resolveOptions(opts)}
}

// Send transmits sourcePath to a receiver listening at hostname:port,
// instructing it to write the file at destinationPath. It returns nil iff
// the sender received a fully-set bitmap and emitted the terminal flag;
// any other outcome is an error and the session's resources have already
// been released.
func (s *Sender) Send(sourcePath, destinationPath, hostname string, port int) (err error) {
	log := s.opts.Log

	// Pre-send validation: reject an oversized destination path (and any
	// other descriptor-derived error) before attempting a connection at
	// all, matching the original sender's path_size check ahead of
	// SenderConnect — a bad path or block size must never cost a real
	// connection attempt.
	f, err := os.Open(sourcePath)
	if err != nil {
		log.Errorf("handshake", "open source file: %v", err)
		return fmt.Errorf("rbudp: handshake: %w", err)
	}
	fi, err := f.Stat()
	f.Close()
	if err != nil {
		log.Errorf("handshake", "stat source file: %v", err)
		return fmt.Errorf("rbudp: handshake: %w", err)
	}
	fileSize := fi.Size()

	s.desc, err = NewTransmissionDescriptor(fileSize, s.opts.BlockSize, destinationPath)
	if err != nil {
		log.Errorf("handshake", "build descriptor: %v", err)
		return fmt.Errorf("rbudp: handshake: %w", err)
	}

	// CONNECTING
	addr := net.JoinHostPort(hostname, fmt.Sprintf("%d", port))
	t0 := time.Now()
	s.stream, err = transport.DialStream("tcp", addr)
	if err != nil {
		log.Errorf("connecting", "dial %s: %v", addr, err)
		return fmt.Errorf("rbudp: connecting: %w", err)
	}
	defer func() {
		if s.stream != nil {
			s.stream.Close()
		}
	}()

	s.data, err = transport.ListenPacket(&net.UDPAddr{})
	if err != nil {
		log.Errorf("connecting", "create udp socket: %v", err)
		return fmt.Errorf("rbudp: connecting: %w", err)
	}
	defer func() {
		if s.data != nil {
			s.data.Close()
		}
	}()
	log.Tracef("connecting", "connected to %s in %s", addr, time.Since(t0))

	udpAddr, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		log.Errorf("connecting", "resolve udp addr %s: %v", addr, err)
		return fmt.Errorf("rbudp: connecting: %w", err)
	}

	// HANDSHAKE_SENT
	t0 = time.Now()
	s.src, err = region.Mmap(sourcePath, fileSize, region.ReadOnly)
	if err != nil {
		log.Errorf("handshake", "map source file: %v", err)
		return fmt.Errorf("rbudp: handshake: %w", err)
	}
	defer func() {
		if s.src != nil {
			s.src.Close()
		}
	}()

	if err := sendHandshake(s.stream, s.desc); err != nil {
		log.Errorf("handshake", "%v", err)
		return fmt.Errorf("rbudp: handshake: %w", err)
	}
	if err := armDeadline(s.stream, s.opts.ReadTimeout); err != nil {
		log.Errorf("handshake", "%v", err)
		return fmt.Errorf("rbudp: handshake: %w", err)
	}
	if err := recvReady(s.stream); err != nil {
		log.Errorf("handshake", "%v", err)
		return fmt.Errorf("rbudp: handshake: %w", err)
	}
	log.Tracef("handshake", "handshake complete in %s: number_packets=%d block_size=%d", time.Since(t0), s.desc.NumberPackets, s.desc.BlockSize)

	s.packet = make([]byte, s.desc.PacketSize)
	s.bitmapB = make([]byte, s.desc.BitmapSizeBytes)

	// BLASTING / DRAINING
	t0 = time.Now()
	if err := s.blastAndDrain(udpAddr, fileSize); err != nil {
		log.Errorf("blasting", "%v", err)
		return fmt.Errorf("rbudp: blasting: %w", err)
	}
	log.Tracef("draining", "transfer complete in %s", time.Since(t0))

	if err := s.stream.WriteFull([]byte{0x00}); err != nil {
		log.Errorf("draining", "send terminal flag: %v", err)
		return fmt.Errorf("rbudp: draining: %w", err)
	}
	return nil
}

// blastAndDrain implements BLASTING: it maintains a local ack_bitmap
// (initially all-zero) and repeats (emit unacknowledged packets up to one
// batch, signal batch-done, read the receiver's bitmap, overwrite
// ack_bitmap with it) until ack_bitmap is fully set.
func (s *Sender) blastAndDrain(addr *net.UDPAddr, fileSize int64) error {
	ackBitmap := bitmap.New(int(s.desc.NumberPackets))

	for {
		sent := uint32(0)
		for i := uint32(0); i < s.desc.NumberPackets; i++ {
			if sent >= s.desc.MaxPacketsPerBatch {
				break
			}
			if ackBitmap.Test(int(i)) {
				continue
			}

			offsetStart := int64(i) * int64(s.desc.BlockSize)
			offsetEnd := offsetStart + int64(s.desc.BlockSize)
			if offsetEnd > fileSize {
				offsetEnd = fileSize
			}
			var payload []byte
			if offsetStart < offsetEnd {
				payload = make([]byte, offsetEnd-offsetStart)
				if _, err := s.src.ReadAt(payload, offsetStart); err != nil {
					return fmt.Errorf("read source block %d: %w", i, err)
				}
			}

			EncodePacket(s.packet, i, s.desc.BlockSize, payload)
			if err := s.data.SendTo(s.packet, addr); err != nil {
				return fmt.Errorf("sendto packet %d: %w", i, err)
			}
			sent++
		}

		if err := s.stream.WriteFull([]byte{0x01}); err != nil {
			return fmt.Errorf("send batch-done flag: %w", err)
		}

		if err := armDeadline(s.stream, s.opts.ReadTimeout); err != nil {
			return fmt.Errorf("arm read deadline: %w", err)
		}
		if err := s.stream.ReadFull(s.bitmapB); err != nil {
			return fmt.Errorf("recv bitmap: %w", err)
		}
		if err := ackBitmap.CopyFrom(s.bitmapB); err != nil {
			return fmt.Errorf("%w: %v", ErrBitmapSizeMismatch, err)
		}

		s.opts.Log.Tracef("blasting", "round complete: bitmap=%s", ackBitmap)

		if ackBitmap.AllSet() {
			return nil
		}
	}
}
