package reader

import (
	"bufio"
	"io"
)

// lineReader yields lines without their terminator. A line longer than max is
// consumed up to its newline and reported as too long instead of failing the read.
type lineReader struct {
	br  *bufio.Reader
	max int
	buf []byte
}

func newLineReader(r io.Reader, max int) *lineReader {
	return &lineReader{br: bufio.NewReaderSize(r, 64*1024), max: max}
}

// next returns the next line. err is io.EOF once the input is exhausted.
func (lr *lineReader) next() (line string, tooLong bool, err error) {
	lr.buf = lr.buf[:0]
	for {
		chunk, more, err := lr.br.ReadLine()
		if err != nil {
			return "", false, err
		}
		if !tooLong {
			if len(lr.buf)+len(chunk) > lr.max {
				tooLong = true
				lr.buf = lr.buf[:0]
			} else {
				lr.buf = append(lr.buf, chunk...)
			}
		}
		if !more {
			return string(lr.buf), tooLong, nil
		}
	}
}
