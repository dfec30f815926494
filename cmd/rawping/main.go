// Command rawping sends ICMPv6 echo requests through a libraw datagram
// socket and reports round-trip times for the replies. Checksums are
// computed by libraw over the IPv6 header.
package main

import (
	"encoding/binary"
	"flag"
	"net"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/coreos/go-iptables/iptables"
	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"go.uber.org/zap"

	"github.com/grnvs/libraw"
)

func main() {
	var (
		ifname   = flag.String("i", "", "interface to probe from")
		dest     = flag.String("d", "", "destination IPv6 address")
		count    = flag.Int("c", 4, "number of probes")
		timeout  = flag.Int("t", 1000, "per-probe reply timeout in milliseconds")
		interval = flag.Duration("interval", time.Second, "delay between probes")
		quiet    = flag.Bool("quiet", false, "drop inbound echo replies in the kernel while probing")
		verbose  = flag.Bool("v", false, "debug logging")
	)
	flag.Parse()

	logger := newLogger(*verbose)
	defer logger.Sync()

	if *ifname == "" || *dest == "" {
		logger.Fatal("usage: rawping -i <iface> -d <ipv6 address>")
	}
	dst := net.ParseIP(*dest)
	if dst == nil || dst.To4() != nil {
		logger.Fatal("destination is not an IPv6 address", zap.String("dest", *dest))
	}

	sock, err := libraw.Open(*ifname, libraw.LayerDatagram)
	if err != nil {
		logger.Fatal("open", zap.Error(err))
	}
	defer sock.Close()

	src, err := sock.IPv6Addr()
	if err != nil {
		logger.Fatal("source address", zap.Error(err))
	}

	cleanup := func() {}
	if *quiet {
		cleanup = muteEchoReplies(logger)
	}
	defer cleanup()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cleanup()
		sock.Close()
		logger.Sync()
		os.Exit(1)
	}()

	tmpl := probeTemplate{
		Ident:   uint16(os.Getpid()),
		Payload: make([]byte, echoPayloadLen),
	}
	for i := 8; i < len(tmpl.Payload); i++ {
		tmpl.Payload[i] = byte('0' + i%10)
	}

	logger.Info("probing",
		zap.String("iface", *ifname),
		zap.String("src", src.String()),
		zap.String("dest", dst.String()),
		zap.Int("count", *count))

	buf := make([]byte, 2048)
	sent, received := 0, 0
	for seq := uint16(1); int(seq) <= *count; seq++ {
		probe := tmpl.Clone().build(seq)
		hdr := ipv6Header(src, dst, len(probe))
		binary.BigEndian.PutUint16(probe[2:], libraw.ICMP6Checksum(&hdr, probe))

		if _, err := sock.Write(append(hdr[:], probe...)); err != nil {
			logger.Error("write", zap.Error(err))
			continue
		}
		sent++

		remaining := int32(*timeout)
		for remaining > 0 {
			n, err := sock.ReadTimeout(buf, &remaining)
			if err != nil {
				logger.Error("read", zap.Error(err))
				break
			}
			if n == 0 {
				logger.Info("timeout", zap.Uint16("seq", seq))
				break
			}
			if rtt, ok := matchReply(buf[:n], tmpl.Ident, seq); ok {
				logger.Info("reply", zap.Uint16("seq", seq), zap.Duration("rtt", rtt))
				received++
				break
			}
			logger.Debug("unrelated datagram", zap.Int("bytes", n))
		}

		if int(seq) < *count {
			time.Sleep(*interval)
		}
	}

	logger.Info("done", zap.Int("sent", sent), zap.Int("received", received))
}

// matchReply reports whether dgram is the echo reply for ident/seq and, when
// the payload carries our send timestamp, the round-trip time.
func matchReply(dgram []byte, ident, seq uint16) (time.Duration, bool) {
	pkt := gopacket.NewPacket(dgram, layers.LayerTypeIPv6, gopacket.DecodeOptions{NoCopy: true, Lazy: true})

	icmp, _ := pkt.Layer(layers.LayerTypeICMPv6).(*layers.ICMPv6)
	if icmp == nil || icmp.TypeCode.Type() != layers.ICMPv6TypeEchoReply {
		return 0, false
	}
	echo, _ := pkt.Layer(layers.LayerTypeICMPv6Echo).(*layers.ICMPv6Echo)
	if echo == nil || echo.Identifier != ident || echo.SeqNumber != seq {
		return 0, false
	}

	if len(echo.Payload) >= 8 {
		stamp := int64(binary.BigEndian.Uint64(echo.Payload))
		return time.Since(time.Unix(0, stamp)), true
	}
	return 0, true
}

// muteEchoReplies keeps the kernel's ICMPv6 stack out of the exchange while
// probing. The rule is removed by the returned func, which tolerates being
// called from both the signal path and the normal exit path.
func muteEchoReplies(logger *zap.Logger) func() {
	ipt, err := iptables.NewWithProtocol(iptables.ProtocolIPv6)
	if err != nil {
		logger.Warn("ip6tables unavailable", zap.Error(err))
		return func() {}
	}

	rule := []string{"-p", "icmpv6", "--icmpv6-type", "echo-reply", "-j", "DROP"}
	if exists, err := ipt.Exists("filter", "INPUT", rule...); err != nil || exists {
		return func() {}
	}
	if err := ipt.Append("filter", "INPUT", rule...); err != nil {
		logger.Warn("ip6tables append", zap.Error(err))
		return func() {}
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			if err := ipt.Delete("filter", "INPUT", rule...); err != nil {
				logger.Warn("ip6tables delete", zap.Error(err))
			}
		})
	}
}

func newLogger(verbose bool) *zap.Logger {
	cfg := zap.NewDevelopmentConfig()
	cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	if verbose {
		cfg.Level.SetLevel(zap.DebugLevel)
	}
	logger, err := cfg.Build()
	if err != nil {
		panic(err)
	}
	return logger
}
