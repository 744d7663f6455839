package spectrum

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
)

// Write emits s as plain text, one value per line in %.18e notation, the
// layout of previously saved spectra.
func Write(w io.Writer, s Spectrum) error {
	bw := bufio.NewWriter(w)
	for _, v := range s {
		if _, err := fmt.Fprintf(bw, "%.18e\n", v); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// Read parses whitespace-separated floats. Values may be spread over any
// number of lines, so both one-per-line and single-row dumps load.
func Read(r io.Reader) (Spectrum, error) {
	scan := bufio.NewScanner(r)
	scan.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	scan.Split(bufio.ScanWords)

	var out Spectrum
	for scan.Scan() {
		tok := scan.Text()
		v, err := strconv.ParseFloat(tok, 64)
		if err != nil {
			return nil, fmt.Errorf("value %d: failed to parse %q: %w", len(out), tok, err)
		}
		out = append(out, v)
	}
	if err := scan.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
