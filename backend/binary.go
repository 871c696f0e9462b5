package backend

import (
	"math"
)

const (
	bytesInInt16 int = 2
	bytesInInt64 int = 8
)

func uint16ToBytes(val uint16) (blob []byte) {
	// Arrange bytes in Big-Endian order
	return []byte{byte(val >> 8), byte(val)}
}

func int16ToBytes(val int16) (blob []byte) {
	return uint16ToBytes(uint16(val))
}

func uint64ToBytes(val uint64) (blob []byte) {
	blob = make([]byte, bytesInInt64)

	// Arrange bytes in Big-Endian order
	for i := 0; i < bytesInInt64; i++ {
		blob[i] = byte(val >> uint(8*(bytesInInt64-1-i)))
	}

	return blob
}

func int64ToBytes(val int64) (blob []byte) {
	return uint64ToBytes(uint64(val))
}

func float64ToBytes(val float64) (blob []byte) {
	return uint64ToBytes(math.Float64bits(val))
}

func bytesToUint16(b []byte) uint16 {
	return uint16(b[1]) | (uint16(b[0]) << 8)
}

func bytesToInt16(b []byte) int16 {
	return int16(bytesToUint16(b))
}

func bytesToUint64(b []byte) (val uint64) {
	for i := 0; i < bytesInInt64; i++ {
		val = (val << 8) | uint64(b[i])
	}

	return val
}

func bytesToInt64(b []byte) int64 {
	return int64(bytesToUint64(b))
}

func bytesToFloat64(b []byte) float64 {
	return math.Float64frombits(bytesToUint64(b))
}
