package libraw

// ICMP6Checksum computes the ICMPv6 checksum of payload under the 40-byte
// IPv6 header hdr; the pseudo-header handling lives in libraw. Deterministic
// and side-effect free.
func ICMP6Checksum(hdr *[40]byte, payload []byte) uint16 {
	return binding.icmp6Checksum(hdr, payload)
}

// CRC32 computes libraw's CRC-32 over data.
func CRC32(data []byte) uint32 {
	return binding.crc32(data)
}
