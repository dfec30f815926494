package main

import (
	"encoding/binary"
	"net"
	"time"
)

const (
	icmp6TypeEchoRequest = 128

	protoICMPv6 = 58
	hopLimit    = 64

	echoPayloadLen = 56
)

// probeTemplate is the skeleton of an ICMPv6 echo request. Ident is fixed
// for the run; the sequence number and send timestamp are stamped per probe.
type probeTemplate struct {
	Ident   uint16
	Payload []byte
}

func (p probeTemplate) Clone() probeTemplate {
	c := p
	c.Payload = make([]byte, len(p.Payload))
	copy(c.Payload, p.Payload)
	return c
}

// build returns the ICMPv6 message for seq, checksum field zeroed, with the
// send time stamped into the first eight payload bytes.
func (p probeTemplate) build(seq uint16) []byte {
	msg := make([]byte, 8+len(p.Payload))
	msg[0] = icmp6TypeEchoRequest
	binary.BigEndian.PutUint16(msg[4:], p.Ident)
	binary.BigEndian.PutUint16(msg[6:], seq)
	copy(msg[8:], p.Payload)
	if len(p.Payload) >= 8 {
		binary.BigEndian.PutUint64(msg[8:], uint64(time.Now().UnixNano()))
	}
	return msg
}

// ipv6Header builds the fixed 40-byte header that both the checksum routine
// and the datagram-layer socket consume.
func ipv6Header(src, dst net.IP, payloadLen int) [40]byte {
	var h [40]byte
	h[0] = 6 << 4
	binary.BigEndian.PutUint16(h[4:], uint16(payloadLen))
	h[6] = protoICMPv6
	h[7] = hopLimit
	copy(h[8:24], src.To16())
	copy(h[24:40], dst.To16())
	return h
}
