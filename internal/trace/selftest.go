package trace

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ErrTraceMismatch is returned by SelfTest when the two runs disagree.
var ErrTraceMismatch = errors.New("trace bitmaps differ between runs")

// SelfTest runs target twice, first reading from stdin and then from an
// in-memory reader, and checks that both runs leave the same bitmap. It
// verifies that file-backed and piped input are both delivered.
func SelfTest(ctx context.Context, r *Runner, target []string, stdin io.Reader) error {
	first, err := r.Run(ctx, target, stdin)
	if err != nil {
		return fmt.Errorf("run with file input: %w", err)
	}
	second, err := r.Run(ctx, target, strings.NewReader("a"))
	if err != nil {
		return fmt.Errorf("run with piped input: %w", err)
	}
	if !bytes.Equal(first.Trace, second.Trace) {
		return ErrTraceMismatch
	}
	return nil
}
