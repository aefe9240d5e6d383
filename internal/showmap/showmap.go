// Package showmap turns a trace bitmap into the human-readable tuple
// listing written by afl-showmap.
package showmap

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
)

// ErrNoInstrumentation means the target left the bitmap untouched.
var ErrNoInstrumentation = errors.New("no instrumentation detected")

// Tuple is one non-zero bitmap entry.
type Tuple struct {
	Index int
	Count uint8
}

func (t Tuple) String() string {
	return fmt.Sprintf("%06d:%d", t.Index, t.Count)
}

// Tuples returns the non-zero entries of trace in index order.
func Tuples(trace []byte) []Tuple {
	var out []Tuple
	for i, b := range trace {
		if b == 0 {
			continue
		}
		out = append(out, Tuple{Index: i, Count: b})
	}
	return out
}

// WriteTuples writes one "index:count" line per tuple.
func WriteTuples(w io.Writer, tuples []Tuple) error {
	bw := bufio.NewWriter(w)
	for _, t := range tuples {
		if _, err := fmt.Fprintln(bw, t.String()); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// WriteFile writes the tuples of trace to path, replacing any existing
// file, and returns how many were written.
func WriteFile(path string, trace []byte) (int, error) {
	tuples := Tuples(trace)

	f, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("create output: %w", err)
	}
	if err := WriteTuples(f, tuples); err != nil {
		f.Close()
		return 0, fmt.Errorf("write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return 0, fmt.Errorf("close %s: %w", path, err)
	}
	return len(tuples), nil
}
