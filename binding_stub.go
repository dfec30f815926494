//go:build !linux || !cgo

package libraw

// libraw only exists on linux; every operation reports errOpNotImplemented.
type stubBinding struct{}

func newBinding() rawBinding { return stubBinding{} }

func (stubBinding) open(ifname string, layer Layer) (int32, error) {
	return -1, errOpNotImplemented
}

func (stubBinding) read(fd int32, p []byte, timeoutMillis *int32) (int, error) {
	return 0, errOpNotImplemented
}

func (stubBinding) write(fd int32, p []byte) (int, error) {
	return 0, errOpNotImplemented
}

func (stubBinding) close(fd int32) error { return errOpNotImplemented }

func (stubBinding) hwaddr(fd int32) ([6]byte, error) {
	return [6]byte{}, errOpNotImplemented
}

func (stubBinding) ipaddr(fd int32) ([4]byte, error) {
	return [4]byte{}, errOpNotImplemented
}

func (stubBinding) ip6addr(fd int32) ([16]byte, error) {
	return [16]byte{}, errOpNotImplemented
}

func (stubBinding) icmp6Checksum(hdr *[40]byte, payload []byte) uint16 { return 0 }

func (stubBinding) crc32(p []byte) uint32 { return 0 }

func (stubBinding) hexdump(p []byte) {}

func (stubBinding) hexdumpString(p []byte) []byte { return nil }
