// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package region

import (
	"fmt"
	"io"
	"os"

	"golang.org/x/sys/unix"
)

// mmapRegion is the Go-idiomatic replacement for the original
// implementation's platform-branching MapMemory/UnmapMemory (rse_io.h):
// one mmap(2) call acquires a shared mapping over the whole region, and
// Close unmaps it. There is no Windows branch because this module targets
// POSIX hosts only; ports needing Windows support would add a build-tagged
// sibling file the way the original split on _WIN32/__linux__.
type mmapRegion struct {
	data []byte
	mode Mode
	f    *os.File
}

// Mmap opens the file at path and maps its first size bytes into the
// process address space. For ReadWrite the file is created if needed and
// resized to exactly size bytes; for ReadOnly it is left as is and must
// be at least size bytes long. size must be > 0.
func Mmap(path string, size int64, mode Mode) (FileRegion, error) {
	if size <= 0 {
		return nil, fmt.Errorf("region: size must be positive, got %d", size)
	}

	var flags int
	var prot int
	switch mode {
	case ReadOnly:
		flags = os.O_RDONLY
		prot = unix.PROT_READ
	case ReadWrite:
		flags = os.O_RDWR | os.O_CREATE
		prot = unix.PROT_READ | unix.PROT_WRITE
	default:
		return nil, fmt.Errorf("region: unknown mode %d", mode)
	}

	f, err := os.OpenFile(path, flags, 0o644)
	if err != nil {
		return nil, fmt.Errorf("region: open %s: %w", path, err)
	}

	if mode == ReadWrite {
		if err := f.Truncate(size); err != nil {
			f.Close()
			return nil, fmt.Errorf("region: truncate %s: %w", path, err)
		}
	} else {
		info, serr := f.Stat()
		if serr != nil {
			f.Close()
			return nil, fmt.Errorf("region: stat %s: %w", path, serr)
		}
		if info.Size() < size {
			f.Close()
			return nil, fmt.Errorf("region: %s is shorter than requested region (%d < %d)", path, info.Size(), size)
		}
	}

	data, err := unix.Mmap(int(f.Fd()), 0, int(size), prot, unix.MAP_SHARED)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("region: mmap %s: %w", path, err)
	}

	return &mmapRegion{data: data, mode: mode, f: f}, nil
}

func (m *mmapRegion) Size() int64 { return int64(len(m.data)) }

func (m *mmapRegion) ReadAt(p []byte, off int64) (int, error) {
	if off < 0 || off+int64(len(p)) > int64(len(m.data)) {
		return 0, io.ErrShortBuffer
	}
	return copy(p, m.data[off:off+int64(len(p))]), nil
}

func (m *mmapRegion) WriteAt(p []byte, off int64) (int, error) {
	if m.mode != ReadWrite {
		return 0, fmt.Errorf("region: WriteAt on a read-only region")
	}
	if off < 0 || off+int64(len(p)) > int64(len(m.data)) {
		return 0, io.ErrShortBuffer
	}
	return copy(m.data[off:off+int64(len(p))], p), nil
}

func (m *mmapRegion) Close() error {
	if m.data == nil {
		return nil
	}
	var syncErr error
	if m.mode == ReadWrite {
		syncErr = unix.Msync(m.data, unix.MS_SYNC)
	}
	unmapErr := unix.Munmap(m.data)
	m.data = nil
	closeErr := m.f.Close()

	if syncErr != nil {
		return syncErr
	}
	if unmapErr != nil {
		return unmapErr
	}
	return closeErr
}
