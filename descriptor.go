// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package rbudp

import "fmt"

const (
	// PacketHeaderSize is the size in bytes of a packet's id header.
	PacketHeaderSize = 4

	// MaxDatagramSize is the assumed MTU of the data channel.
	MaxDatagramSize = 65536

	// AssumedPortSize mirrors MaxDatagramSize; it is the conservative
	// approximation of the receive buffer capacity used to derive
	// MaxPacketsPerBatch.
	AssumedPortSize = 65536

	// DefaultBlockSize is used when a caller does not configure one.
	DefaultBlockSize = 4096

	// PathFieldSize is the fixed wire size of the destination path field,
	// including its null terminator.
	PathFieldSize = 2048

	// MaxBlockSize is the largest block_size that keeps packet_size within
	// MaxDatagramSize.
	MaxBlockSize = MaxDatagramSize - PacketHeaderSize
)

// TransmissionDescriptor holds every size derived from (fileSize,
// blockSize, destinationPath) that both peers must agree on bit-for-bit
// after the handshake completes.
type TransmissionDescriptor struct {
	NumberPackets      uint32
	BlockSize          uint32
	PacketSize         uint32
	BitmapSizeBytes    uint32
	MaxPacketsPerBatch uint32
	DestinationPath    string
}

// NewTransmissionDescriptor derives a TransmissionDescriptor from a file
// size, block size, and destination path.
//
// The number_packets formula intentionally adds one packet unconditionally,
// even when fileSize is an exact multiple of blockSize. This preserves the
// source implementation's behavior for wire compatibility; see SPEC_FULL.md
// for the rationale.
func NewTransmissionDescriptor(fileSize int64, blockSize uint32, destinationPath string) (TransmissionDescriptor, error) {
	if blockSize == 0 {
		return TransmissionDescriptor{}, fmt.Errorf("%w: block size must be positive", ErrInvalidArgument)
	}
	if blockSize > MaxBlockSize {
		return TransmissionDescriptor{}, ErrBlockSizeTooLarge
	}
	if len(destinationPath)+1 >= PathFieldSize {
		return TransmissionDescriptor{}, ErrPathTooLong
	}
	if fileSize < 0 {
		return TransmissionDescriptor{}, fmt.Errorf("%w: negative file size", ErrInvalidArgument)
	}

	numberPackets := uint32(fileSize/int64(blockSize)) + 1
	packetSize := blockSize + PacketHeaderSize

	d := TransmissionDescriptor{
		NumberPackets:      numberPackets,
		BlockSize:          blockSize,
		PacketSize:         packetSize,
		BitmapSizeBytes:    numberPackets/8 + 1,
		MaxPacketsPerBatch: AssumedPortSize / packetSize,
		DestinationPath:    destinationPath,
	}
	return d, nil
}

// TotalTransmissionSize returns number_packets × block_size: the exact
// length of the file the receiver will produce.
func (d TransmissionDescriptor) TotalTransmissionSize() int64 {
	return int64(d.NumberPackets) * int64(d.BlockSize)
}
