// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package rbudp

import (
	"errors"
	"strings"
	"testing"
)

// S1 — single-block transfer.
func TestDescriptorSingleBlock(t *testing.T) {
	d, err := NewTransmissionDescriptor(64, 4096, "out.bin")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.NumberPackets != 1 {
		t.Fatalf("NumberPackets = %d, want 1", d.NumberPackets)
	}
	if d.PacketSize != 4100 {
		t.Fatalf("PacketSize = %d, want 4100", d.PacketSize)
	}
	if d.BitmapSizeBytes != 1 {
		t.Fatalf("BitmapSizeBytes = %d, want 1", d.BitmapSizeBytes)
	}
	if d.TotalTransmissionSize() != 4096 {
		t.Fatalf("TotalTransmissionSize = %d, want 4096", d.TotalTransmissionSize())
	}
}

// S2 — exact-multiple transfer: the +1 packet is unconditional (§9 open question).
func TestDescriptorExactMultipleStillAddsOnePacket(t *testing.T) {
	d, err := NewTransmissionDescriptor(8, 4, "out.bin")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.NumberPackets != 3 {
		t.Fatalf("NumberPackets = %d, want 3 (8/4 + 1)", d.NumberPackets)
	}
	if d.TotalTransmissionSize() != 12 {
		t.Fatalf("TotalTransmissionSize = %d, want 12", d.TotalTransmissionSize())
	}
}

func TestDescriptorRejectsOversizedBlockSize(t *testing.T) {
	_, err := NewTransmissionDescriptor(1024, MaxBlockSize+1, "out.bin")
	if !errors.Is(err, ErrBlockSizeTooLarge) {
		t.Fatalf("err = %v, want ErrBlockSizeTooLarge", err)
	}
}

// S6 — oversized destination path.
func TestDescriptorRejectsOversizedPath(t *testing.T) {
	path := strings.Repeat("p", 2049) // S6: destination path of 2049 non-null bytes
	_, err := NewTransmissionDescriptor(1024, 4096, path)
	if !errors.Is(err, ErrPathTooLong) {
		t.Fatalf("err = %v, want ErrPathTooLong", err)
	}
}

func TestDescriptorRejectsZeroBlockSize(t *testing.T) {
	_, err := NewTransmissionDescriptor(1024, 0, "out.bin")
	if !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("err = %v, want ErrInvalidArgument", err)
	}
}

func TestDescriptorMaxPacketsPerBatch(t *testing.T) {
	d, err := NewTransmissionDescriptor(1<<20, 4096, "out.bin")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := uint32(AssumedPortSize) / d.PacketSize
	if d.MaxPacketsPerBatch != want {
		t.Fatalf("MaxPacketsPerBatch = %d, want %d", d.MaxPacketsPerBatch, want)
	}
}
