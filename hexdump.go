package libraw

import (
	"fmt"
	"os"
	"strings"
)

// MaxHexdumpLen is the largest buffer libraw's hexdump routines can format.
// The library writes into a fixed internal buffer and overruns it on longer
// inputs, so the bound is enforced here before the boundary is crossed.
const MaxHexdumpLen = 17760

// fatalf is the exit path for hexdump length violations; swapped in tests.
var fatalf = func(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}

// Hexdump prints data as a hex dump on the library's diagnostic stream
// (stderr). Inputs longer than MaxHexdumpLen terminate the process with a
// diagnostic: the library cannot format them safely and no partial output
// is produced.
func Hexdump(data []byte) {
	if len(data) > MaxHexdumpLen {
		fatalf("data buffer too long (%d bytes) for libraw's hexdump function", len(data))
		return
	}
	binding.hexdump(data)
}

// HexdumpString returns the hex dump of data as a string, substituting
// U+FFFD for byte sequences that are not valid UTF-8. It shares Hexdump's
// length bound and fatal behavior.
func HexdumpString(data []byte) string {
	if len(data) > MaxHexdumpLen {
		fatalf("data buffer too long (%d bytes) for libraw's hexdump function", len(data))
		return ""
	}
	return strings.ToValidUTF8(string(binding.hexdumpString(data)), "�")
}
