package layout

import "unsafe"

// GetUint64 and PutUint64 reinterpret 8 arena bytes as a host-native
// uint64, the same representation convention as decodeFloat32/
// encodeFloat32 (§6: "not intended for cross-architecture sharing").
// Used by the typed integer op to read/write a BIGUINT slot's value.
func GetUint64(b []byte) uint64 {
	_ = b[7]
	return *(*uint64)(unsafe.Pointer(&b[0]))
}

func PutUint64(b []byte, v uint64) {
	_ = b[7]
	*(*uint64)(unsafe.Pointer(&b[0])) = v
}
