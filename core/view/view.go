// Package view provides non-owning windows over byte buffers.
//
// A View is a (buffer, start) pair. Codec primitives are written against
// views so they work identically over flat byte slices and growable
// encoder buffers. All multi-byte accessors are little-endian; the layout
// is packed and alignment is never assumed.
package view

import "encoding/binary"

// Buffer is growable backing storage shared by views.
// The zero value is an empty buffer ready for use.
type Buffer struct {
	data []byte
}

// NewBuffer creates a buffer with the given initial length, zero filled.
func NewBuffer(n int) *Buffer {
	return &Buffer{data: make([]byte, n)}
}

// Wrap creates a buffer over an existing slice without copying.
// Growing past cap(b) reallocates, detaching from the original slice.
func Wrap(b []byte) *Buffer {
	return &Buffer{data: b}
}

// Bytes returns the current contents.
func (b *Buffer) Bytes() []byte { return b.data }

// Len returns the current length.
func (b *Buffer) Len() int { return len(b.data) }

// grow ensures len(data) >= n, keeping existing contents.
func (b *Buffer) grow(n int) {
	if n <= len(b.data) {
		return
	}
	if n <= cap(b.data) {
		b.data = b.data[:n]
		return
	}
	next := make([]byte, n, max(n, 2*cap(b.data)))
	copy(next, b.data)
	b.data = next
}

// View is a window into a Buffer starting at a fixed offset.
// Views do not own the buffer; the caller keeps it alive.
type View struct {
	buf *Buffer
	off int
}

// New returns a view over the whole buffer.
func New(b *Buffer) View {
	return View{buf: b}
}

// Of wraps a byte slice and returns a view over it.
func Of(b []byte) View {
	return New(Wrap(b))
}

// View returns a sub-view starting delta bytes further in.
func (v View) View(delta int) View {
	return View{buf: v.buf, off: v.off + delta}
}

// Size returns the number of bytes between the view start and the
// end of the backing buffer.
func (v View) Size() int {
	return v.buf.Len() - v.off
}

// Resize grows the backing buffer so that Size() >= n.
// Data before the new region is preserved; views created earlier
// observe the growth.
func (v View) Resize(n int) {
	v.buf.grow(v.off + n)
}

// Bytes returns the window contents from the view start to the buffer end.
func (v View) Bytes() []byte {
	return v.buf.data[v.off:]
}

// Accessors read and write fixed-width values at the view start.
// They panic if the window is shorter than the value, same as slice
// indexing; callers size buffers before writing.

func (v View) Uint8() uint8       { return v.buf.data[v.off] }
func (v View) SetUint8(x uint8)   { v.buf.data[v.off] = x }
func (v View) Int8() int8         { return int8(v.buf.data[v.off]) }
func (v View) SetInt8(x int8)     { v.buf.data[v.off] = byte(x) }
func (v View) Uint16() uint16     { return binary.LittleEndian.Uint16(v.Bytes()) }
func (v View) SetUint16(x uint16) { binary.LittleEndian.PutUint16(v.Bytes(), x) }
func (v View) Int16() int16       { return int16(v.Uint16()) }
func (v View) SetInt16(x int16)   { v.SetUint16(uint16(x)) }
func (v View) Uint32() uint32     { return binary.LittleEndian.Uint32(v.Bytes()) }
func (v View) SetUint32(x uint32) { binary.LittleEndian.PutUint32(v.Bytes(), x) }
func (v View) Int32() int32       { return int32(v.Uint32()) }
func (v View) SetInt32(x int32)   { v.SetUint32(uint32(x)) }
func (v View) Uint64() uint64     { return binary.LittleEndian.Uint64(v.Bytes()) }
func (v View) SetUint64(x uint64) { binary.LittleEndian.PutUint64(v.Bytes(), x) }
func (v View) Int64() int64       { return int64(v.Uint64()) }
func (v View) SetInt64(x int64)   { v.SetUint64(uint64(x)) }

// Uint24 reads a 3-byte little-endian unsigned value.
func (v View) Uint24() uint32 {
	b := v.buf.data[v.off : v.off+3]
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16
}

// SetUint24 writes the low 24 bits of x as a 3-byte little-endian value.
func (v View) SetUint24(x uint32) {
	b := v.buf.data[v.off : v.off+3]
	b[0] = byte(x)
	b[1] = byte(x >> 8)
	b[2] = byte(x >> 16)
}
