//go:build windows

package heapprovider

import (
	"unsafe"

	"golang.org/x/sys/windows"
)

// MmapProvider is an OS-backed Provider on Windows, using
// VirtualAlloc/VirtualFree instead of mmap/munmap. Growth semantics
// mirror the unix implementation: reserve+commit a larger region, copy
// forward, free the old one.
type MmapProvider struct {
	mem []byte
}

func NewMmapProvider(initial int) (*MmapProvider, error) {
	if initial < 1 {
		initial = 1
	}

	mem, err := virtualAllocCommit(initial)
	if err != nil {
		return nil, err
	}

	return &MmapProvider{mem: mem[:0]}, nil
}

func virtualAllocCommit(size int) ([]byte, error) {
	addr, err := windows.VirtualAlloc(0, uintptr(size), windows.MEM_COMMIT|windows.MEM_RESERVE, windows.PAGE_READWRITE)
	if err != nil {
		return nil, err
	}

	return unsafe.Slice((*byte)(unsafe.Pointer(addr)), size), nil
}

func (p *MmapProvider) Sbrk(delta int) (int, bool) {
	if delta <= 0 {
		return 0, false
	}

	base := len(p.mem)

	newLen := base + delta
	if newLen < base {
		return 0, false
	}

	if newLen <= cap(p.mem) {
		p.mem = p.mem[:newLen]

		return base, true
	}

	next, err := virtualAllocCommit(growCap(cap(p.mem), newLen))
	if err != nil {
		return 0, false
	}

	copy(next, p.mem[:base])

	if cap(p.mem) > 0 {
		_ = windows.VirtualFree(uintptr(unsafe.Pointer(&p.mem[:1][0])), 0, windows.MEM_RELEASE)
	}

	p.mem = next[:newLen]

	return base, true
}

func (p *MmapProvider) Lo() int { return 0 }

func (p *MmapProvider) Hi() int { return len(p.mem) - 1 }

func (p *MmapProvider) Bytes() []byte { return p.mem }

// Close releases the reservation. See the unix Close doc for why this
// isn't part of the Provider interface.
func (p *MmapProvider) Close() error {
	if cap(p.mem) == 0 {
		return nil
	}

	err := windows.VirtualFree(uintptr(unsafe.Pointer(&p.mem[:1][0])), 0, windows.MEM_RELEASE)
	p.mem = nil

	return err
}
