package reader

import (
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type readLine struct {
	text    string
	tooLong bool
}

func readAll(t *testing.T, input string, max int) []readLine {
	t.Helper()
	lr := newLineReader(strings.NewReader(input), max)
	var out []readLine
	for {
		text, tooLong, err := lr.next()
		if err == io.EOF {
			return out
		}
		require.NoError(t, err)
		out = append(out, readLine{text, tooLong})
	}
}

func TestLineReader(t *testing.T) {
	assert.Equal(t, []readLine{
		{"/home 1.1.1.1", false},
		{"", false},
		{"/about 2.2.2.2", false},
		{"/last 3.3.3.3", false},
	}, readAll(t, "/home 1.1.1.1\n\n/about 2.2.2.2\r\n/last 3.3.3.3", 64))
}

func TestLineReaderTooLong(t *testing.T) {
	long := strings.Repeat("x", 200*1024)
	assert.Equal(t, []readLine{
		{"/a 1.1.1.1", false},
		{"", true},
		{"/b 2.2.2.2", false},
		{"", true},
	}, readAll(t, "/a 1.1.1.1\n"+long+"\n/b 2.2.2.2\n"+long, 100*1024))
}

func TestLineReaderExactLimit(t *testing.T) {
	line := strings.Repeat("y", 70*1024)
	got := readAll(t, line+"\n", len(line))
	require.Len(t, got, 1)
	assert.False(t, got[0].tooLong)
	assert.Equal(t, line, got[0].text)
}
