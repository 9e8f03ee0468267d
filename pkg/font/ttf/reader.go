package ttf

import (
	"encoding/binary"
	"fmt"
)

// Font files store multi-byte fields big-endian. The Read functions are pure
// functions of (buffer, offset) and fail with ErrOutOfBounds instead of
// reading past the end of b.

// ReadU8 reads an unsigned byte at offset off.
func ReadU8(b []byte, off int) (uint8, error) {
	if err := checkRange(b, off, 1); err != nil {
		return 0, err
	}
	return b[off], nil
}

// ReadU16 reads a big-endian uint16 at offset off.
func ReadU16(b []byte, off int) (uint16, error) {
	if err := checkRange(b, off, 2); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(b[off:]), nil
}

// ReadI16 reads a big-endian int16 at offset off.
func ReadI16(b []byte, off int) (int16, error) {
	v, err := ReadU16(b, off)
	return int16(v), err
}

// ReadU32 reads a big-endian uint32 at offset off.
func ReadU32(b []byte, off int) (uint32, error) {
	if err := checkRange(b, off, 4); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(b[off:]), nil
}

// ReadI32 reads a big-endian int32 at offset off.
func ReadI32(b []byte, off int) (int32, error) {
	v, err := ReadU32(b, off)
	return int32(v), err
}

func checkRange(b []byte, off, size int) error {
	if off < 0 || off > len(b)-size {
		return fmt.Errorf("%w: %d bytes at offset %d, buffer size %d", ErrOutOfBounds, size, off, len(b))
	}
	return nil
}

// reader wraps a byte segment and remembers the first failed read, so that
// table decoders can read a run of fields and check the error once.
type reader struct {
	data []byte
	err  error
}

func (r *reader) u8(off int) uint8 {
	v, err := ReadU8(r.data, off)
	r.keep(err)
	return v
}

func (r *reader) u16(off int) uint16 {
	v, err := ReadU16(r.data, off)
	r.keep(err)
	return v
}

func (r *reader) i16(off int) int16 {
	v, err := ReadI16(r.data, off)
	r.keep(err)
	return v
}

func (r *reader) u32(off int) uint32 {
	v, err := ReadU32(r.data, off)
	r.keep(err)
	return v
}

func (r *reader) keep(err error) {
	if err != nil && r.err == nil {
		r.err = err
	}
}

// sub returns the segment [off, off+size) of b or ErrOutOfBounds.
func sub(b []byte, off, size int) ([]byte, error) {
	if size < 0 {
		return nil, fmt.Errorf("%w: negative size %d", ErrOutOfBounds, size)
	}
	if err := checkRange(b, off, size); err != nil {
		return nil, err
	}
	return b[off : off+size], nil
}
