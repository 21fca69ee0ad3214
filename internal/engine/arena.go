package engine

import (
	"fmt"
	"unsafe"

	"github.com/livp123/firesense/internal/model"
)

// Arena is a fixed, pre-allocated region tensors are carved from. It never
// grows; carving past the end fails.
// Arena 是预分配的固定内存区域，张量从中切分，不会增长。
type Arena struct {
	words []uint64 // backing store, 8-byte aligned
	buf   []byte
	off   int
}

// NewArena allocates size bytes up front.
// NewArena 预先分配 size 字节。
func NewArena(size int) (*Arena, error) {
	if size <= 0 {
		return nil, fmt.Errorf("arena size must be positive, got %d", size)
	}
	words := make([]uint64, (size+7)/8)
	buf := unsafe.Slice((*byte)(unsafe.Pointer(&words[0])), size)
	return &Arena{words: words, buf: buf}, nil
}

// Size returns the arena capacity in bytes.
func (a *Arena) Size() int { return len(a.buf) }

// Used returns how many bytes have been carved.
func (a *Arena) Used() int { return a.off }

// Reset releases every tensor and zeroes the memory.
// Reset 释放全部张量并清零内存。
func (a *Arena) Reset() {
	clear(a.words)
	a.off = 0
}

func (a *Arena) carve(n int) (unsafe.Pointer, error) {
	size := model.Align(n)
	if n <= 0 || a.off+size > len(a.buf) {
		return nil, fmt.Errorf("arena exhausted: want %d bytes at offset %d of %d", size, a.off, len(a.buf))
	}
	p := unsafe.Pointer(&a.buf[a.off])
	a.off += size
	return p, nil
}

// Int8 carves an int8 tensor of n elements.
// Int8 切分 n 个元素的 int8 张量。
func (a *Arena) Int8(n int) ([]int8, error) {
	p, err := a.carve(n)
	if err != nil {
		return nil, err
	}
	return unsafe.Slice((*int8)(p), n), nil
}

// Int32 carves an int32 tensor of n elements.
// Int32 切分 n 个元素的 int32 张量。
func (a *Arena) Int32(n int) ([]int32, error) {
	p, err := a.carve(4 * n)
	if err != nil {
		return nil, err
	}
	return unsafe.Slice((*int32)(p), n), nil
}
