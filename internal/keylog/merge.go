package keylog

import (
	"bufio"
	"io"
	"strings"
)

// Summary reports the outcome of a Merge or Lint pass over key log input.
type Summary struct {
	Written   int // lines emitted
	Duplicate int // dropped, client random already seen
	Malformed int // dropped, not a parseable key log line
}

// Merge copies key log lines from srcs to dst in order, dropping duplicate
// client randoms and malformed lines. Blank lines and '#' comment lines are
// skipped silently; some producers prepend a comment header.
func Merge(dst io.Writer, srcs ...io.Reader) (Summary, error) {
	var sum Summary
	seen := make(map[[ClientRandomSize]byte]struct{})

	for _, src := range srcs {
		sc := bufio.NewScanner(src)
		for sc.Scan() {
			line := strings.TrimSpace(sc.Text())
			if line == "" || strings.HasPrefix(line, "#") {
				continue
			}
			rec, err := ParseLine(line)
			if err != nil {
				sum.Malformed++
				continue
			}
			if _, ok := seen[rec.ClientRandom]; ok {
				sum.Duplicate++
				continue
			}
			seen[rec.ClientRandom] = struct{}{}
			if _, err := io.WriteString(dst, rec.Line()+"\n"); err != nil {
				return sum, err
			}
			sum.Written++
		}
		if err := sc.Err(); err != nil {
			return sum, err
		}
	}
	return sum, nil
}

// Lint validates key log input without emitting anything. Written counts
// well-formed lines, including duplicates.
func Lint(src io.Reader) (Summary, error) {
	var sum Summary
	sc := bufio.NewScanner(src)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if _, err := ParseLine(line); err != nil {
			sum.Malformed++
			continue
		}
		sum.Written++
	}
	return sum, sc.Err()
}
