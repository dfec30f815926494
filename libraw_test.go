package libraw

import (
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"net"
	"strings"
	"syscall"
	"testing"

	"github.com/stretchr/testify/require"
)

// fakeBinding is an in-memory stand-in for libraw: writes loop back into the
// read queue, addresses and errors are canned per test.
type fakeBinding struct {
	openFD  int32
	openErr error
	opened  []string // interface names that reached open

	frames  [][]byte // queued frames served by read
	readErr error

	written  [][]byte
	writeErr error

	closes   int
	closedFD []int32

	hw  [6]byte
	ip4 [4]byte
	ip6 [16]byte

	dumped  []string // formatted output emitted through hexdump
	dumpRaw []byte   // overrides hexdumpString's output when set
}

func (f *fakeBinding) open(ifname string, layer Layer) (int32, error) {
	f.opened = append(f.opened, ifname)
	if f.openErr != nil {
		return -1, f.openErr
	}
	return f.openFD, nil
}

func (f *fakeBinding) read(fd int32, p []byte, timeoutMillis *int32) (int, error) {
	if f.readErr != nil {
		return 0, f.readErr
	}
	if len(f.frames) == 0 {
		if timeoutMillis != nil {
			*timeoutMillis = 0 // whole budget consumed, nothing arrived
			return 0, nil
		}
		return 0, syscall.EIO
	}
	frame := f.frames[0]
	f.frames = f.frames[1:]
	return copy(p, frame), nil
}

func (f *fakeBinding) write(fd int32, p []byte) (int, error) {
	if f.writeErr != nil {
		return 0, f.writeErr
	}
	frame := append([]byte(nil), p...)
	f.written = append(f.written, frame)
	f.frames = append(f.frames, frame)
	return len(p), nil
}

func (f *fakeBinding) close(fd int32) error {
	f.closes++
	f.closedFD = append(f.closedFD, fd)
	return nil
}

func (f *fakeBinding) hwaddr(fd int32) ([6]byte, error)   { return f.hw, nil }
func (f *fakeBinding) ipaddr(fd int32) ([4]byte, error)   { return f.ip4, nil }
func (f *fakeBinding) ip6addr(fd int32) ([16]byte, error) { return f.ip6, nil }

func (f *fakeBinding) icmp6Checksum(hdr *[40]byte, payload []byte) uint16 {
	var sum uint32
	add := func(b []byte) {
		for i := 0; i+1 < len(b); i += 2 {
			sum += uint32(binary.BigEndian.Uint16(b[i:]))
		}
		if len(b)%2 == 1 {
			sum += uint32(b[len(b)-1]) << 8
		}
	}
	add(hdr[:])
	add(payload)
	for sum>>16 != 0 {
		sum = sum&0xffff + sum>>16
	}
	return ^uint16(sum)
}

func (f *fakeBinding) crc32(p []byte) uint32 { return crc32.ChecksumIEEE(p) }

func (f *fakeBinding) format(p []byte) string {
	var b strings.Builder
	for i, c := range p {
		if i > 0 {
			b.WriteByte(' ')
		}
		fmt.Fprintf(&b, "%02x", c)
	}
	return b.String()
}

func (f *fakeBinding) hexdump(p []byte) { f.dumped = append(f.dumped, f.format(p)) }

func (f *fakeBinding) hexdumpString(p []byte) []byte {
	if f.dumpRaw != nil {
		return f.dumpRaw
	}
	return []byte(f.format(p))
}

func swapBinding(t *testing.T, b rawBinding) {
	t.Helper()
	old := binding
	binding = b
	t.Cleanup(func() { binding = old })
}

func TestOpenValidatesName(t *testing.T) {
	fake := &fakeBinding{}
	swapBinding(t, fake)

	_, err := Open("", LayerRaw)
	require.Error(t, err)

	_, err = Open("eth\x000", LayerRaw)
	require.Error(t, err)

	// neither name may reach the library
	require.Empty(t, fake.opened)
}

func TestOpenInvalidLayer(t *testing.T) {
	fake := &fakeBinding{}
	swapBinding(t, fake)

	_, err := Open("eth0", Layer(7))
	require.Error(t, err)
	require.Empty(t, fake.opened)
}

func TestOpenChecksDescriptor(t *testing.T) {
	fake := &fakeBinding{openErr: syscall.EPERM}
	swapBinding(t, fake)

	s, err := Open("eth0", LayerRaw)
	require.Nil(t, s)
	require.ErrorIs(t, err, syscall.EPERM)
}

func TestWriteReadLoopback(t *testing.T) {
	fake := &fakeBinding{openFD: 3}
	swapBinding(t, fake)

	s, err := Open("eth0", LayerRaw)
	require.NoError(t, err)
	defer s.Close()

	frame := make([]byte, 64)
	for i := range frame {
		frame[i] = byte(i)
	}

	n, err := s.Write(frame)
	require.NoError(t, err)
	require.Equal(t, len(frame), n)

	buf := make([]byte, 128)
	n, err = s.Read(buf)
	require.NoError(t, err)
	require.Equal(t, frame, buf[:n])
}

func TestReadZeroLengthBuffer(t *testing.T) {
	// a read error is armed so any boundary call would fail the test
	fake := &fakeBinding{readErr: syscall.EIO}
	swapBinding(t, fake)

	s, err := Open("eth0", LayerRaw)
	require.NoError(t, err)
	defer s.Close()

	n, err := s.Read(nil)
	require.NoError(t, err)
	require.Zero(t, n)
}

func TestReadTimeoutConsumed(t *testing.T) {
	fake := &fakeBinding{}
	swapBinding(t, fake)

	s, err := Open("eth0", LayerRaw)
	require.NoError(t, err)
	defer s.Close()

	remaining := int32(50)
	n, err := s.ReadTimeout(make([]byte, 64), &remaining)
	require.NoError(t, err)
	require.Zero(t, n)
	require.Zero(t, remaining)
}

func TestReadErrorMapped(t *testing.T) {
	fake := &fakeBinding{readErr: syscall.EBADF}
	swapBinding(t, fake)

	s, err := Open("eth0", LayerRaw)
	require.NoError(t, err)
	defer s.Close()

	n, err := s.Read(make([]byte, 64))
	require.ErrorIs(t, err, syscall.EBADF)
	require.Zero(t, n)
}

func TestWriteErrorMapped(t *testing.T) {
	fake := &fakeBinding{writeErr: syscall.ENETDOWN}
	swapBinding(t, fake)

	s, err := Open("eth0", LayerRaw)
	require.NoError(t, err)
	defer s.Close()

	n, err := s.Write([]byte("frame"))
	require.ErrorIs(t, err, syscall.ENETDOWN)
	require.Zero(t, n)
}

func TestCloseExactlyOnce(t *testing.T) {
	fake := &fakeBinding{openFD: 5}
	swapBinding(t, fake)

	s, err := Open("eth0", LayerRaw)
	require.NoError(t, err)

	require.NoError(t, s.Close())
	require.NoError(t, s.Close())
	require.Equal(t, 1, fake.closes)
	require.Equal(t, []int32{5}, fake.closedFD)

	// a closed socket never reaches the boundary again
	_, err = s.Read(make([]byte, 1))
	require.ErrorIs(t, err, ErrClosed)
	_, err = s.Write([]byte{1})
	require.ErrorIs(t, err, ErrClosed)
	_, err = s.HardwareAddr()
	require.ErrorIs(t, err, ErrClosed)
	_, err = s.IPv4Addr()
	require.ErrorIs(t, err, ErrClosed)
	_, err = s.IPv6Addr()
	require.ErrorIs(t, err, ErrClosed)
}

func TestAddresses(t *testing.T) {
	fake := &fakeBinding{
		hw:  [6]byte{0x02, 0x42, 0xac, 0x11, 0x00, 0x02},
		ip4: [4]byte{10, 0, 0, 1},
	}
	copy(fake.ip6[:], net.ParseIP("fe80::1").To16())
	swapBinding(t, fake)

	s, err := Open("eth0", LayerDatagram)
	require.NoError(t, err)
	defer s.Close()

	require.Equal(t, "eth0", s.Name())
	require.Equal(t, LayerDatagram, s.Layer())

	hw, err := s.HardwareAddr()
	require.NoError(t, err)
	require.Equal(t, "02:42:ac:11:00:02", hw.String())

	// the address is a copy, mutating it must not affect later queries
	hw[0] = 0xff
	hw2, err := s.HardwareAddr()
	require.NoError(t, err)
	require.Equal(t, "02:42:ac:11:00:02", hw2.String())

	ip4, err := s.IPv4Addr()
	require.NoError(t, err)
	require.True(t, ip4.Equal(net.IPv4(10, 0, 0, 1)))

	ip6, err := s.IPv6Addr()
	require.NoError(t, err)
	require.True(t, ip6.Equal(net.ParseIP("fe80::1")))
}
