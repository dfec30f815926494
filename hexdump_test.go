package libraw

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func swapFatalf(t *testing.T) *[]string {
	t.Helper()
	old := fatalf
	var msgs []string
	fatalf = func(format string, args ...interface{}) {
		msgs = append(msgs, fmt.Sprintf(format, args...))
	}
	t.Cleanup(func() { fatalf = old })
	return &msgs
}

func TestHexdumpConsistency(t *testing.T) {
	fake := &fakeBinding{}
	swapBinding(t, fake)

	for _, size := range []int{0, 1, 16, 1500, MaxHexdumpLen} {
		data := make([]byte, size)
		for i := range data {
			data[i] = byte(i)
		}

		Hexdump(data)
		require.NotEmpty(t, fake.dumped)
		// stream and string dumps share the byte-to-hex mapping
		require.Equal(t, fake.dumped[len(fake.dumped)-1], HexdumpString(data))
	}
}

func TestHexdumpOverLimitIsFatal(t *testing.T) {
	fake := &fakeBinding{}
	swapBinding(t, fake)
	msgs := swapFatalf(t)

	big := make([]byte, MaxHexdumpLen+1)

	Hexdump(big)
	require.Len(t, *msgs, 1)
	require.Contains(t, (*msgs)[0], "too long")
	require.Empty(t, fake.dumped) // no partial output

	require.Empty(t, HexdumpString(big))
	require.Len(t, *msgs, 2)
}

func TestHexdumpStringLossyDecode(t *testing.T) {
	fake := &fakeBinding{dumpRaw: []byte{'0', '0', 0xff, 0xfe, ' '}}
	swapBinding(t, fake)

	out := HexdumpString([]byte{0})
	require.True(t, strings.Contains(out, "�"))
	require.True(t, strings.HasPrefix(out, "00"))
	require.True(t, strings.HasSuffix(out, " "))
}
