// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package rbudp

import (
	"encoding/binary"
	"fmt"

	"code.hybscloud.com/rbudp/transport"
)

// Control-channel handshake wire format (§6):
//   sender -> receiver: u32 number_packets (LE), u32 block_size (LE), u8[PathFieldSize] destination_path
//   receiver -> sender: u8 0x01 ("ready")
//
// The path field is always PathFieldSize bytes regardless of the actual
// path length; trailing bytes are zeroed before sending so no stack or
// heap residue leaks onto the wire (the open question recorded in
// SPEC_FULL.md).

const readyByte = 0x01

func encodePathField(path string) ([]byte, error) {
	if len(path)+1 >= PathFieldSize {
		return nil, ErrPathTooLong
	}
	buf := make([]byte, PathFieldSize)
	copy(buf, path)
	return buf, nil
}

func decodePathField(buf []byte) string {
	i := 0
	for i < len(buf) && buf[i] != 0 {
		i++
	}
	return string(buf[:i])
}

// sendHandshake writes the handshake per §6 item 1 and returns once the
// sender has done so; it does not wait for the reply.
func sendHandshake(c transport.StreamConn, d TransmissionDescriptor) error {
	var numBuf [4]byte
	binary.LittleEndian.PutUint32(numBuf[:], d.NumberPackets)
	if err := c.WriteFull(numBuf[:]); err != nil {
		return fmt.Errorf("handshake: send number_packets: %w", err)
	}

	var blockBuf [4]byte
	binary.LittleEndian.PutUint32(blockBuf[:], d.BlockSize)
	if err := c.WriteFull(blockBuf[:]); err != nil {
		return fmt.Errorf("handshake: send block_size: %w", err)
	}

	pathBuf, err := encodePathField(d.DestinationPath)
	if err != nil {
		return err
	}
	if err := c.WriteFull(pathBuf); err != nil {
		return fmt.Errorf("handshake: send destination_path: %w", err)
	}
	return nil
}

// recvHandshake reads the handshake per §6 item 1 and derives the full
// TransmissionDescriptor (file_size is not part of the wire handshake; the
// receiver derives total size from number_packets × block_size instead).
func recvHandshake(c transport.StreamConn) (TransmissionDescriptor, error) {
	var numBuf [4]byte
	if err := c.ReadFull(numBuf[:]); err != nil {
		return TransmissionDescriptor{}, fmt.Errorf("%w: number_packets: %v", ErrShortHandshake, err)
	}
	numberPackets := binary.LittleEndian.Uint32(numBuf[:])

	var blockBuf [4]byte
	if err := c.ReadFull(blockBuf[:]); err != nil {
		return TransmissionDescriptor{}, fmt.Errorf("%w: block_size: %v", ErrShortHandshake, err)
	}
	blockSize := binary.LittleEndian.Uint32(blockBuf[:])

	pathBuf := make([]byte, PathFieldSize)
	if err := c.ReadFull(pathBuf); err != nil {
		return TransmissionDescriptor{}, fmt.Errorf("%w: destination_path: %v", ErrShortHandshake, err)
	}

	if blockSize == 0 {
		return TransmissionDescriptor{}, fmt.Errorf("%w: block size must be positive", ErrInvalidArgument)
	}
	if blockSize > MaxBlockSize {
		return TransmissionDescriptor{}, ErrBlockSizeTooLarge
	}

	packetSize := blockSize + PacketHeaderSize
	d := TransmissionDescriptor{
		NumberPackets:      numberPackets,
		BlockSize:          blockSize,
		PacketSize:         packetSize,
		BitmapSizeBytes:    numberPackets/8 + 1,
		MaxPacketsPerBatch: AssumedPortSize / packetSize,
		DestinationPath:    decodePathField(pathBuf),
	}
	return d, nil
}

// sendReady writes the single ready byte (§6 item 2).
func sendReady(c transport.StreamConn) error {
	return c.WriteFull([]byte{readyByte})
}

// recvReady reads the single ready byte and confirms it matches.
func recvReady(c transport.StreamConn) error {
	var b [1]byte
	if err := c.ReadFull(b[:]); err != nil {
		return fmt.Errorf("%w: ready byte: %v", ErrShortHandshake, err)
	}
	if b[0] != readyByte {
		return fmt.Errorf("handshake: unexpected ready byte 0x%02x", b[0])
	}
	return nil
}
