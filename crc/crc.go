// Package crc implements checksums used by Ping protocol frames.
package crc

// Sum16 is the Ping protocol frame checksum:
// unsigned sum of all bytes, truncated to 16 bits.
func Sum16(b []byte) uint16 {
	return Sum16Next(0, b)
}

// Sum16Next continues Sum16 over more data, useful when header and payload
// live in separate buffers.
func Sum16Next(sum uint16, b []byte) uint16 {
	for _, x := range b {
		sum += uint16(x)
	}
	return sum
}
