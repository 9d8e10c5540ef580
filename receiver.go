// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package rbudp

import (
	"errors"
	"fmt"
	"net"
	"time"

	"code.hybscloud.com/iox"
	"code.hybscloud.com/rbudp/bitmap"
	"code.hybscloud.com/rbudp/region"
	"code.hybscloud.com/rbudp/transport"
)

// Receiver drives the receiver-side state machine: LISTENING -> ACCEPTED ->
// HANDSHAKE_RECEIVED -> TRANSFERRING -> (DONE | FAILED). One Receiver is
// good for exactly one file transfer.
type Receiver struct {
	opts Options

	listener transport.StreamListener
	data     transport.PacketConn
	stream   transport.StreamConn
	dst      region.FileRegion

	desc   TransmissionDescriptor
	packet []byte
	bitmap *bitmap.Bitmap
}

// NewReceiver constructs a Receiver with the given options.
func NewReceiver(opts ...Option) *Receiver {
	return &Receiver{opts: resolveOptions(opts)}
}

// Receive listens on hostname:port, accepts exactly one inbound session,
// and runs it to completion. It returns nil iff the receiver observed the
// terminal flag; any other outcome is an error.
func (r *Receiver) Receive(hostname string, port int) (err error) {
	log := r.opts.Log

	// LISTENING
	if dataConn, lerr := transport.ListenPacket(&net.UDPAddr{Port: port}); lerr != nil {
		log.Errorf("listening", "bind udp port %d: %v", port, lerr)
		return fmt.Errorf("rbudp: listening: %w", lerr)
	} else {
		r.data = dataConn
	}
	defer func() {
		if r.data != nil {
			r.data.Close()
		}
	}()

	addr := net.JoinHostPort(hostname, fmt.Sprintf("%d", port))
	r.listener, err = transport.ListenStream("tcp", addr)
	if err != nil {
		log.Errorf("listening", "listen tcp %s: %v", addr, err)
		return fmt.Errorf("rbudp: listening: %w", err)
	}
	defer r.listener.Close()

	// ACCEPTED
	log.Tracef("listening", "waiting for connection on %s", addr)
	r.stream, err = r.listener.Accept()
	if err != nil {
		log.Errorf("accepted", "accept: %v", err)
		return fmt.Errorf("rbudp: accepted: %w", err)
	}
	defer r.stream.Close()

	// HANDSHAKE_RECEIVED
	t0 := time.Now()
	if err := armDeadline(r.stream, r.opts.ReadTimeout); err != nil {
		log.Errorf("handshake", "%v", err)
		return fmt.Errorf("rbudp: handshake: %w", err)
	}
	r.desc, err = recvHandshake(r.stream)
	if err != nil {
		log.Errorf("handshake", "%v", err)
		return fmt.Errorf("rbudp: handshake: %w", err)
	}
	log.Tracef("handshake", "received descriptor: number_packets=%d block_size=%d path=%s", r.desc.NumberPackets, r.desc.BlockSize, r.desc.DestinationPath)

	r.dst, err = region.Mmap(r.desc.DestinationPath, r.desc.TotalTransmissionSize(), region.ReadWrite)
	if err != nil {
		log.Errorf("handshake", "map destination file: %v", err)
		return fmt.Errorf("rbudp: handshake: %w", err)
	}
	defer func() {
		if r.dst != nil {
			r.dst.Close()
		}
	}()

	if err := sendReady(r.stream); err != nil {
		log.Errorf("handshake", "%v", err)
		return fmt.Errorf("rbudp: handshake: %w", err)
	}
	log.Tracef("handshake", "handshake complete in %s", time.Since(t0))

	r.packet = make([]byte, r.desc.PacketSize)
	r.bitmap = bitmap.New(int(r.desc.NumberPackets))

	// TRANSFERRING
	if err := r.transfer(); err != nil {
		log.Errorf("data recv", "%v", err)
		return fmt.Errorf("rbudp: transferring: %w", err)
	}

	// DONE
	log.Tracef("done", "session complete: bitmap=%s", r.bitmap)
	return nil
}

func (r *Receiver) transfer() error {
	for {
		if err := armDeadline(r.stream, r.opts.ReadTimeout); err != nil {
			return fmt.Errorf("arm read deadline: %w", err)
		}
		var flagBuf [1]byte
		if err := r.stream.ReadFull(flagBuf[:]); err != nil {
			return fmt.Errorf("recv round flag: %w", err)
		}

		if flagBuf[0] == 0x00 {
			return nil
		}
		if flagBuf[0] != 0x01 {
			return fmt.Errorf("unexpected round flag 0x%02x", flagBuf[0])
		}

		if err := r.drainDataChannel(); err != nil {
			return err
		}

		if err := r.stream.WriteFull(r.bitmap.Raw()); err != nil {
			return fmt.Errorf("send bitmap: %w", err)
		}
	}
}

// drainDataChannel implements TRANSFERRING step 2: repeatedly poll the
// datagram channel with a zero timeout and receive while it is readable.
func (r *Receiver) drainDataChannel() error {
	for {
		n, err := r.data.RecvFrom(r.packet)
		if err != nil {
			if errors.Is(err, iox.ErrWouldBlock) {
				return nil
			}
			return fmt.Errorf("recvfrom: %w", err)
		}
		if n != len(r.packet) {
			return fmt.Errorf("recvfrom: short datagram: got %d want %d", n, len(r.packet))
		}

		id, payload := DecodePacket(r.packet)
		if id >= r.desc.NumberPackets {
			return fmt.Errorf("%w: id=%d number_packets=%d", ErrPacketOutOfRange, id, r.desc.NumberPackets)
		}

		offset := int64(id) * int64(r.desc.BlockSize)
		if _, err := r.dst.WriteAt(payload, offset); err != nil {
			return fmt.Errorf("write block %d at offset %d: %w", id, offset, err)
		}

		r.bitmap.Set(int(id))
	}
}
