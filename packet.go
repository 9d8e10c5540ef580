// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package rbudp

import "encoding/binary"

// Packet wire format (one datagram):
//   bytes [0..4):            u32 id, little-endian
//   bytes [4..4+block_size): payload, zero-padded on the tail for the last block
//
// No checksum, no version, no flags: the control channel is the session's
// sole synchronization mechanism, so the data channel's framing stays as
// small as possible. Byte order is fixed little-endian rather than derived
// from host order, per the open question recorded in SPEC_FULL.md: a
// cross-platform implementation must pick one order explicitly instead of
// relying on both peers sharing endianness by accident.

// EncodePacket writes id and payload into buf, which must be at least
// packetSize bytes (PacketHeaderSize + blockSize). If payload is shorter
// than blockSize (the last logical block), the remaining bytes are zeroed.
func EncodePacket(buf []byte, id uint32, blockSize uint32, payload []byte) {
	binary.LittleEndian.PutUint32(buf[0:PacketHeaderSize], id)
	body := buf[PacketHeaderSize : PacketHeaderSize+int(blockSize)]
	n := copy(body, payload)
	for i := n; i < len(body); i++ {
		body[i] = 0
	}
}

// DecodePacket reads the id header from buf and returns it along with the
// payload slice (buf[PacketHeaderSize:]), which aliases buf.
func DecodePacket(buf []byte) (id uint32, payload []byte) {
	id = binary.LittleEndian.Uint32(buf[0:PacketHeaderSize])
	return id, buf[PacketHeaderSize:]
}
