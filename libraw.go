// Package libraw provides Go bindings for GRnvS libraw, a small C library
// for raw link-layer and datagram-layer access to a network interface.
//
// The package wraps the library's descriptor in a Socket with checked open,
// close-exactly-once semantics and errno-carrying errors. Frame I/O,
// checksum computation and hex formatting stay inside libraw; this package
// only moves buffers, lengths and error codes across the boundary.
package libraw

import (
	"net"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/pkg/errors"
)

var (
	errOpNotImplemented = errors.New("operation not implemented")

	// ErrClosed is returned by every operation on a closed Socket.
	ErrClosed = errors.New("raw socket is closed")
)

// Layer selects the framing level of an endpoint: full frames including the
// link-layer header, or transport datagrams starting at the network header.
// The values are libraw's ABI constants.
type Layer int32

const (
	LayerDatagram Layer = 2
	LayerRaw      Layer = 3
)

func (l Layer) String() string {
	switch l {
	case LayerDatagram:
		return "datagram"
	case LayerRaw:
		return "raw"
	default:
		return "unknown"
	}
}

// Socket owns one open raw endpoint on a network interface.
//
// A Socket is a single exclusively-owned resource: it carries no internal
// locking and must not be used from multiple goroutines without external
// mutual exclusion.
type Socket struct {
	fd    int32
	name  string
	layer Layer

	closed    atomic.Bool
	closeOnce sync.Once
	closeErr  error
}

// Open opens a raw endpoint on the named interface at the given layer.
//
// The name is validated before the boundary is crossed: it must be non-empty
// and free of NUL bytes. A failed library open (permission denied, no such
// interface) is surfaced as an error carrying the errno captured at the
// call; Open never hands back an unusable descriptor.
func Open(ifname string, layer Layer) (*Socket, error) {
	if ifname == "" {
		return nil, errors.New("open: interface name is empty")
	}
	if strings.IndexByte(ifname, 0) >= 0 {
		return nil, errors.Errorf("open: interface name %q contains a NUL byte", ifname)
	}
	if layer != LayerDatagram && layer != LayerRaw {
		return nil, errors.Errorf("open: invalid layer %d", int32(layer))
	}

	fd, err := binding.open(ifname, layer)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", ifname)
	}

	s := &Socket{fd: fd, name: ifname, layer: layer}
	// leaked sockets still release their descriptor exactly once
	runtime.SetFinalizer(s, (*Socket).Close)
	return s, nil
}

// Name returns the interface name the socket was opened on.
func (s *Socket) Name() string { return s.name }

// Layer returns the framing level chosen at open time.
func (s *Socket) Layer() Layer { return s.layer }

// Read fills p with the next frame and returns the number of bytes stored.
// It blocks until a frame arrives. A zero-length p returns 0 immediately.
func (s *Socket) Read(p []byte) (int, error) {
	return s.read(p, nil)
}

// ReadTimeout behaves like Read but waits at most *millis milliseconds. The
// pointer is handed to the library as-is; libraw may write the remaining
// time back through it. A read that expires returns 0 bytes and no error.
func (s *Socket) ReadTimeout(p []byte, millis *int32) (int, error) {
	return s.read(p, millis)
}

func (s *Socket) read(p []byte, millis *int32) (int, error) {
	if s.closed.Load() {
		return 0, errors.WithStack(ErrClosed)
	}
	if len(p) == 0 {
		return 0, nil
	}
	n, err := binding.read(s.fd, p, millis)
	if err != nil {
		return 0, errors.Wrapf(err, "read from %s", s.name)
	}
	return n, nil
}

// Write sends p as a single frame and returns the number of bytes written.
// A negative library result is mapped to an error carrying the errno at the
// moment of failure, never to a count.
func (s *Socket) Write(p []byte) (int, error) {
	if s.closed.Load() {
		return 0, errors.WithStack(ErrClosed)
	}
	n, err := binding.write(s.fd, p)
	if err != nil {
		return 0, errors.Wrapf(err, "write to %s", s.name)
	}
	return n, nil
}

// Close releases the endpoint and invalidates the socket. It is idempotent:
// across explicit calls and the finalizer-backed release of a leaked socket,
// the library close runs exactly once.
func (s *Socket) Close() error {
	s.closeOnce.Do(func() {
		s.closed.Store(true)
		runtime.SetFinalizer(s, nil)
		if err := binding.close(s.fd); err != nil {
			s.closeErr = errors.Wrapf(err, "close %s", s.name)
		}
		s.fd = -1
	})
	return s.closeErr
}

// HardwareAddr returns the interface's hardware address. The six bytes are
// copied out of the library-owned view, so the returned address stays valid
// after the socket is closed.
func (s *Socket) HardwareAddr() (net.HardwareAddr, error) {
	if s.closed.Load() {
		return nil, errors.WithStack(ErrClosed)
	}
	hw, err := binding.hwaddr(s.fd)
	if err != nil {
		return nil, errors.Wrapf(err, "hardware address of %s", s.name)
	}
	return net.HardwareAddr(hw[:]), nil
}

// IPv4Addr returns the interface's IPv4 address as a caller-owned value.
// An unconfigured interface yields the zero address, as reported by libraw.
func (s *Socket) IPv4Addr() (net.IP, error) {
	if s.closed.Load() {
		return nil, errors.WithStack(ErrClosed)
	}
	a, err := binding.ipaddr(s.fd)
	if err != nil {
		return nil, errors.Wrapf(err, "IPv4 address of %s", s.name)
	}
	return net.IPv4(a[0], a[1], a[2], a[3]), nil
}

// IPv6Addr returns the interface's IPv6 address as a caller-owned value.
// An unconfigured interface yields the zero address, as reported by libraw.
func (s *Socket) IPv6Addr() (net.IP, error) {
	if s.closed.Load() {
		return nil, errors.WithStack(ErrClosed)
	}
	a, err := binding.ip6addr(s.fd)
	if err != nil {
		return nil, errors.Wrapf(err, "IPv6 address of %s", s.name)
	}
	ip := make(net.IP, net.IPv6len)
	copy(ip, a[:])
	return ip, nil
}
