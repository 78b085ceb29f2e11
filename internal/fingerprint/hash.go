package fingerprint

import "encoding/binary"

// fieldBits and fieldMask are the width of each of the three packed fields
// in a LandmarkHash. The teacher's createAddress used a 9-bit/14-bit split;
// this spec pins the field widths as a testable invariant (property 2 in
// spec.md §8), so the layout is 10/10/10, not the teacher's split.
const (
	fieldBits = 10
	fieldMask = (1 << fieldBits) - 1 // 0x3FF
)

// makeHash packs an ordered peak pair into the 32-bit key:
//
//	hash = (f1&0x3FF)<<20 | (f2&0x3FF)<<10 | (dt&0x3FF)
//
// ok is false if the frequency bins or Δt don't fit their 10-bit field; the
// caller must then skip the pair rather than clamp it silently, since a
// clamped value would collide with unrelated hashes.
func makeHash(f1, f2, dt int) (LandmarkHash, bool) {
	if f1 < 0 || f1 > fieldMask || f2 < 0 || f2 > fieldMask || dt < 0 || dt > fieldMask {
		return 0, false
	}
	h := uint32(f1&fieldMask)<<20 | uint32(f2&fieldMask)<<10 | uint32(dt&fieldMask)
	return LandmarkHash(h), true
}

// decodeHash unpacks a LandmarkHash back into its (f1, f2, dt) fields, used
// for debugging and by this package's tests.
func decodeHash(h LandmarkHash) (f1, f2, dt int) {
	v := uint32(h)
	f1 = int((v >> 20) & fieldMask)
	f2 = int((v >> 10) & fieldMask)
	dt = int(v & fieldMask)
	return
}

// EncodeWireFormat writes h as 32-bit little-endian, the wire format
// spec.md §6 names for handing raw hashes to the WASM bridge.
func EncodeWireFormat(h LandmarkHash) []byte {
	buf := make([]byte, 4)
	binary.LittleEndian.PutUint32(buf, uint32(h))
	return buf
}

// DecodeWireFormat reads a 32-bit little-endian LandmarkHash.
func DecodeWireFormat(buf []byte) LandmarkHash {
	return LandmarkHash(binary.LittleEndian.Uint32(buf))
}
