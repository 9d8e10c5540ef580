// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package rbudp

import "errors"

// Sentinel errors returned by the sender and receiver state machines.
// Each corresponds to a fatal transition named in the protocol's error
// handling design: every one of these unwinds to session teardown, never
// to a retry at the protocol level.
var (
	// ErrInvalidArgument reports an invalid configuration value (e.g. a
	// zero block size, a negative file size).
	ErrInvalidArgument = errors.New("rbudp: invalid argument")

	// ErrPathTooLong reports a destination path whose length (including
	// the null terminator) is not less than PathFieldSize.
	ErrPathTooLong = errors.New("rbudp: destination path too long")

	// ErrBlockSizeTooLarge reports a block_size whose packet_size would
	// exceed the assumed datagram MTU.
	ErrBlockSizeTooLarge = errors.New("rbudp: block size exceeds datagram MTU")

	// ErrPacketOutOfRange reports a received packet whose id is >=
	// number_packets. This is always fatal to the receiver.
	ErrPacketOutOfRange = errors.New("rbudp: packet id out of range")

	// ErrShortHandshake reports a handshake read/write that could not be
	// completed to the exact byte count the protocol requires.
	ErrShortHandshake = errors.New("rbudp: short handshake exchange")

	// ErrBitmapSizeMismatch reports a received bitmap whose length does
	// not match the session's bitmap_size_bytes.
	ErrBitmapSizeMismatch = errors.New("rbudp: bitmap size mismatch")

	// ErrSessionFailed names a generic session failure. Sender.Send and
	// Receiver.Receive do not wrap it: their errors carry the failing stage
	// as a prefix and wrap the specific cause via %w.
	ErrSessionFailed = errors.New("rbudp: session failed")
)
