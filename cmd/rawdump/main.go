// Command rawdump captures frames from a network interface through libraw
// and prints a decode summary plus the library's hex dump for each one.
package main

import (
	"flag"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"go.uber.org/zap"

	"github.com/grnvs/libraw"
)

func main() {
	var (
		ifname  = flag.String("i", "", "interface to capture on")
		dgram   = flag.Bool("dgram", false, "open at datagram layer instead of raw")
		timeout = flag.Int("t", 0, "per-read timeout in milliseconds, 0 blocks")
		count   = flag.Int("n", 0, "stop after this many frames, 0 for no limit")
		verbose = flag.Bool("v", false, "debug logging")
	)
	flag.Parse()

	logger := newLogger(*verbose)
	defer logger.Sync()

	if *ifname == "" {
		logger.Fatal("no interface given, use -i")
	}

	layer := libraw.LayerRaw
	if *dgram {
		layer = libraw.LayerDatagram
	}

	sock, err := libraw.Open(*ifname, layer)
	if err != nil {
		logger.Fatal("open", zap.Error(err))
	}
	defer sock.Close()

	if hw, err := sock.HardwareAddr(); err == nil {
		logger.Info("capturing",
			zap.String("iface", *ifname),
			zap.Stringer("layer", layer),
			zap.String("hwaddr", hw.String()))
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("interrupted")
		sock.Close()
		logger.Sync()
		os.Exit(0)
	}()

	buf := make([]byte, 2048)
	for seen := 0; *count == 0 || seen < *count; {
		var millis *int32
		if *timeout > 0 {
			t := int32(*timeout)
			millis = &t
		}

		n, err := sock.ReadTimeout(buf, millis)
		if err != nil {
			logger.Fatal("read", zap.Error(err))
		}
		if n == 0 {
			logger.Debug("read timed out")
			continue
		}

		frame := buf[:n]
		logger.Info("frame",
			zap.Int("bytes", n),
			zap.String("layers", summarize(frame, layer)))
		libraw.Hexdump(frame)
		seen++
	}
}

// summarize decodes a frame just far enough for a one-line layer listing.
// Datagram-layer reads start at the network header, so the first layer is
// picked from the IP version nibble.
func summarize(frame []byte, layer libraw.Layer) string {
	first := layers.LayerTypeEthernet
	if layer == libraw.LayerDatagram {
		if len(frame) > 0 && frame[0]>>4 == 4 {
			first = layers.LayerTypeIPv4
		} else {
			first = layers.LayerTypeIPv6
		}
	}

	pkt := gopacket.NewPacket(frame, first, gopacket.DecodeOptions{NoCopy: true, Lazy: true})
	var names []string
	for _, l := range pkt.Layers() {
		names = append(names, l.LayerType().String())
	}
	return strings.Join(names, "/")
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
