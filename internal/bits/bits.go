// Package bits reads unsigned bit fields out of fixed-width payloads.
package bits

// ExtractUint returns the length bits of value starting at bit start, bit 0
// being the least significant one. The result is never sign extended.
//
// start+length must not exceed 64 and length must not exceed 32.
func ExtractUint(value uint64, start, length uint) uint32 {
	return uint32((value >> start) & (1<<length - 1))
}

// TestBit reports whether bit index of value is set.
func TestBit(value uint64, index uint) bool {
	return (value>>index)&1 == 1
}
