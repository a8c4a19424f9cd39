package elecraft

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildQuery(t *testing.T) {
	assert.Equal(t, "PC;", Query("PC"))
	assert.Equal(t, "PC005;", Build("PC", "005"))
}

func TestPrefixAndArgs(t *testing.T) {
	assert.Equal(t, "FA", Prefix("FA00014230000;"))
	assert.Equal(t, "00014230000", Args("FA00014230000;"))
	assert.Equal(t, "TQ", Prefix("TQ1;"))
	assert.Equal(t, "1", Args("TQ1;"))
}

func TestParseIF(t *testing.T) {
	// 38-char synthetic IF response: IF + 11-digit freq + filler to 38,
	// with mode digit at 29 and tx/rx flag at 28.
	freq := "00014230000"
	var b strings.Builder
	b.WriteString("IF")
	b.WriteString(freq)  // positions 2-12
	b.WriteString("000")  // 13-15
	b.WriteString("+0000") // 16-20
	b.WriteString("0")    // 21
	b.WriteString("000000") // 22-27 (6 chars, padding up to 27)
	b.WriteString("1")    // 28: tx/rx flag
	b.WriteString("2")    // 29: mode
	for b.Len() < IFFrameLen {
		b.WriteByte('0')
	}
	line := b.String() + ";"
	require.Equal(t, IFFrameLen, len(StripTerminator(line)))

	resp, err := ParseIF(line)
	require.NoError(t, err)
	assert.Equal(t, uint64(14_230_000), resp.FrequencyA)
	assert.True(t, resp.Transmit)
	assert.Equal(t, byte('2'), resp.Mode)
	assert.Equal(t, "USB", ModeCode[resp.Mode])
}

func TestParseIF_TooShort(t *testing.T) {
	_, err := ParseIF("IF123;")
	assert.Error(t, err)
}

func TestBusyResponse(t *testing.T) {
	assert.Equal(t, "?;", Busy)
}
