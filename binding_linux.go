//go:build linux && cgo

package libraw

/*
#cgo LDFLAGS: -lraw

#include <stdlib.h>
#include <stdint.h>
#include <sys/types.h>
#include <netinet/in.h>

extern int grnvs_open(const char *ifname, int layer);
extern ssize_t grnvs_read(int fd, void *buf, size_t maxlen, int *timeout);
extern ssize_t grnvs_write(int fd, const void *buf, size_t maxlen);
extern int grnvs_close(int fd);
extern const uint8_t *grnvs_get_hwaddr(int fd);
extern struct in_addr grnvs_get_ipaddr(int fd);
extern const uint8_t *grnvs_get_ip6addr(int fd);

extern uint16_t icmp6_checksum(const uint8_t hdr[40], const uint8_t *payload, size_t len);
extern uint32_t get_crc32(const void *frame, size_t length);

extern void hexdump(const void *buffer, ssize_t len);
extern const char *hexdump_str(const void *buffer, ssize_t len);
*/
import "C"

import (
	"syscall"
	"unsafe"
)

// cgoBinding forwards every call to libraw. Errno is taken from cgo's
// two-value call form at the failing call, before anything else can clobber
// it.
type cgoBinding struct{}

func newBinding() rawBinding { return cgoBinding{} }

// callErr turns the errno of a failed call into an error. A negative result
// with a clean errno still has to fail.
func callErr(errno error) error {
	if errno != nil {
		return errno
	}
	return syscall.EIO
}

func bufPtr(p []byte) unsafe.Pointer {
	if len(p) == 0 {
		return nil
	}
	return unsafe.Pointer(&p[0])
}

func (cgoBinding) open(ifname string, layer Layer) (int32, error) {
	cname := C.CString(ifname)
	defer C.free(unsafe.Pointer(cname))

	fd, errno := C.grnvs_open(cname, C.int(layer))
	if fd < 0 {
		return int32(fd), callErr(errno)
	}
	return int32(fd), nil
}

func (cgoBinding) read(fd int32, p []byte, timeoutMillis *int32) (int, error) {
	n, errno := C.grnvs_read(C.int(fd), bufPtr(p), C.size_t(len(p)),
		(*C.int)(unsafe.Pointer(timeoutMillis)))
	if n < 0 {
		return 0, callErr(errno)
	}
	return int(n), nil
}

func (cgoBinding) write(fd int32, p []byte) (int, error) {
	n, errno := C.grnvs_write(C.int(fd), bufPtr(p), C.size_t(len(p)))
	if n < 0 {
		return 0, callErr(errno)
	}
	return int(n), nil
}

func (cgoBinding) close(fd int32) error {
	rc, errno := C.grnvs_close(C.int(fd))
	if rc < 0 {
		return callErr(errno)
	}
	return nil
}

func (cgoBinding) hwaddr(fd int32) ([6]byte, error) {
	var hw [6]byte
	ptr := C.grnvs_get_hwaddr(C.int(fd))
	if ptr == nil {
		return hw, syscall.EINVAL
	}
	// the view is library-owned, copy it out while fd is still valid
	copy(hw[:], unsafe.Slice((*byte)(unsafe.Pointer(ptr)), 6))
	return hw, nil
}

func (cgoBinding) ipaddr(fd int32) ([4]byte, error) {
	a := C.grnvs_get_ipaddr(C.int(fd))
	var out [4]byte
	// s_addr is already in network byte order, keep the raw bytes
	*(*uint32)(unsafe.Pointer(&out[0])) = uint32(a.s_addr)
	return out, nil
}

func (cgoBinding) ip6addr(fd int32) ([16]byte, error) {
	var ip [16]byte
	ptr := C.grnvs_get_ip6addr(C.int(fd))
	if ptr == nil {
		return ip, syscall.EINVAL
	}
	copy(ip[:], unsafe.Slice((*byte)(unsafe.Pointer(ptr)), 16))
	return ip, nil
}

func (cgoBinding) icmp6Checksum(hdr *[40]byte, payload []byte) uint16 {
	var p *C.uint8_t
	if len(payload) > 0 {
		p = (*C.uint8_t)(unsafe.Pointer(&payload[0]))
	}
	return uint16(C.icmp6_checksum((*C.uint8_t)(unsafe.Pointer(&hdr[0])), p, C.size_t(len(payload))))
}

func (cgoBinding) crc32(p []byte) uint32 {
	return uint32(C.get_crc32(bufPtr(p), C.size_t(len(p))))
}

func (cgoBinding) hexdump(p []byte) {
	C.hexdump(bufPtr(p), C.ssize_t(len(p)))
}

func (cgoBinding) hexdumpString(p []byte) []byte {
	ptr := C.hexdump_str(bufPtr(p), C.ssize_t(len(p)))
	if ptr == nil {
		return nil
	}
	return []byte(C.GoString(ptr))
}
