package layout

import (
	"sync/atomic"
	"unsafe"
)

// The helpers below reach into a []byte at a fixed offset and hand
// sync/atomic a pointer to that byte. This is the same trick
// _examples/nmxmxh-inos_v1/kernel/threads/sab/hal_native.go's ptrAt/AtomicLoad32 use: never cast a
// Go struct onto the mapped region, always go through
// unsafe.Pointer(&buf[off]) field by field, so the GC's view of buf's
// backing array stays authoritative.

func ptr32(buf []byte, off uint64) *uint32 {
	return (*uint32)(unsafe.Pointer(&buf[off]))
}

func ptr64(buf []byte, off uint64) *uint64 {
	return (*uint64)(unsafe.Pointer(&buf[off]))
}

func loadU32(buf []byte, off uint64) uint32 {
	return atomic.LoadUint32(ptr32(buf, off))
}

func storeU32(buf []byte, off uint64, v uint32) {
	atomic.StoreUint32(ptr32(buf, off), v)
}

func addU32(buf []byte, off uint64, delta uint32) uint32 {
	return atomic.AddUint32(ptr32(buf, off), delta)
}

func casU32(buf []byte, off uint64, old, new uint32) bool {
	return atomic.CompareAndSwapUint32(ptr32(buf, off), old, new)
}

func loadU64(buf []byte, off uint64) uint64 {
	return atomic.LoadUint64(ptr64(buf, off))
}

func storeU64(buf []byte, off uint64, v uint64) {
	atomic.StoreUint64(ptr64(buf, off), v)
}

func addU64(buf []byte, off uint64, delta uint64) uint64 {
	return atomic.AddUint64(ptr64(buf, off), delta)
}

func casU64(buf []byte, off uint64, old, new uint64) bool {
	return atomic.CompareAndSwapUint64(ptr64(buf, off), old, new)
}
