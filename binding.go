package libraw

// rawBinding mirrors libraw's C entry points one to one. Exactly one
// implementation is active per build: the cgo binding on linux, the stub
// everywhere else. Tests swap in a fake through the package-level variable.
type rawBinding interface {
	// open returns the descriptor for an endpoint on the named interface.
	// err is non-nil exactly when the library reported a negative
	// descriptor; the errno is captured at the call.
	open(ifname string, layer Layer) (fd int32, err error)

	// read fills p with the next frame. A non-nil timeoutMillis bounds the
	// wait; the library may write the remaining time back through it.
	read(fd int32, p []byte, timeoutMillis *int32) (int, error)

	// write sends p as one frame and returns the number of bytes taken.
	write(fd int32, p []byte) (int, error)

	// close releases the descriptor.
	close(fd int32) error

	// hwaddr copies the interface's hardware address out of the
	// library-owned view.
	hwaddr(fd int32) ([6]byte, error)

	// ipaddr and ip6addr copy the interface's addresses, network byte
	// order, most significant byte first.
	ipaddr(fd int32) ([4]byte, error)
	ip6addr(fd int32) ([16]byte, error)

	icmp6Checksum(hdr *[40]byte, payload []byte) uint16
	crc32(p []byte) uint32

	// hexdump writes the library's formatted dump to its diagnostic
	// stream; hexdumpString returns the raw bytes of the formatted dump.
	// Callers enforce the library's length bound before calling.
	hexdump(p []byte)
	hexdumpString(p []byte) []byte
}

var binding rawBinding = newBinding()
