package layout

import "unsafe"

// decodeFloat32/encodeFloat32 reinterpret 4 bytes of the mapped region
// as a float32 in host native representation, consistent with every
// other multi-byte field in the layout (the bus is not intended for
// cross-architecture sharing, per spec §6).
func decodeFloat32(b []byte) float32 {
	return *(*float32)(unsafe.Pointer(&b[0]))
}

func encodeFloat32(b []byte, v float32) {
	*(*float32)(unsafe.Pointer(&b[0])) = v
}
