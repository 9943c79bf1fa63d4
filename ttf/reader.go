package ttf

import "encoding/binary"

// Big-endian primitives. Callers bounds-check before reading.

func u16(b []byte, off int) uint16 {
	return binary.BigEndian.Uint16(b[off:])
}

func i16(b []byte, off int) int16 {
	return int16(binary.BigEndian.Uint16(b[off:]))
}

func u32(b []byte, off int) uint32 {
	return binary.BigEndian.Uint32(b[off:])
}

// inBounds reports whether [off, off+n) lies within a buffer of length size.
// It works in uint64 so that offsets read from the file cannot overflow.
func inBounds(off, n uint64, size int) bool {
	return off+n <= uint64(size)
}
