// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package region implements the file-backed, fixed-size I/O surface (§4.5)
// the sender reads its source file through and the receiver writes its
// destination file through.
//
// Mode selects how the region is opened: ReadOnly for the sender's source
// file, ReadWrite for the receiver's destination file (created or
// truncated to exactly size bytes).
package region

import "io"

// Mode selects the access pattern a FileRegion is opened with.
type Mode uint8

const (
	ReadOnly Mode = iota
	ReadWrite
)

// FileRegion is a contiguous, byte-addressable region of exactly Size()
// bytes, backed by a file. The core reads and writes via offset + length;
// the region must remain valid for the lifetime of the session.
type FileRegion interface {
	// Size returns the region's fixed byte length.
	Size() int64

	// ReadAt reads len(p) bytes starting at off. It is an error for
	// off+len(p) to exceed Size().
	ReadAt(p []byte, off int64) (int, error)

	// WriteAt writes len(p) bytes starting at off. It is an error for
	// off+len(p) to exceed Size(). Only valid when the region was opened
	// ReadWrite.
	WriteAt(p []byte, off int64) (int, error)

	// Close flushes (if writable) and releases the region.
	Close() error
}

var _ io.ReaderAt = FileRegion(nil)
var _ io.WriterAt = FileRegion(nil)
