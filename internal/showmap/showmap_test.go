package showmap

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestTuples(t *testing.T) {
	trace := make([]byte, 70000)
	trace[0] = 1
	trace[17] = 255
	trace[65535] = 3
	trace[69999] = 9

	want := []Tuple{{0, 1}, {17, 255}, {65535, 3}, {69999, 9}}
	if diff := cmp.Diff(want, Tuples(trace)); diff != "" {
		t.Errorf("Tuples mismatch (-want +got):\n%s", diff)
	}
	if got := Tuples(make([]byte, 16)); len(got) != 0 {
		t.Errorf("Tuples(zeros) = %v, want none", got)
	}
}

func TestWriteTuples(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteTuples(&buf, []Tuple{{0, 1}, {4242, 17}, {123456, 2}}); err != nil {
		t.Fatalf("WriteTuples: %v", err)
	}
	want := "000000:1\n004242:17\n123456:2\n"
	if buf.String() != want {
		t.Errorf("WriteTuples = %q, want %q", buf.String(), want)
	}
}

func TestWriteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "map.txt")
	if err := os.WriteFile(path, []byte("stale contents\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	trace := make([]byte, 8)
	trace[0] = 1
	trace[5] = 2
	n, err := WriteFile(path, trace)
	if err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if n != 2 {
		t.Errorf("WriteFile returned %d, want 2", n)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "000000:1\n000005:2\n" {
		t.Errorf("file = %q", data)
	}
}

func TestWriteFile_BadPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "map.txt")
	if _, err := WriteFile(path, []byte{1}); err == nil {
		t.Fatal("WriteFile into a missing directory succeeded")
	}
}

func TestReporter_Plain(t *testing.T) {
	var buf bytes.Buffer
	r := NewReporter(&buf)

	r.Banner("someone <someone@example.com>")
	r.OutputBegins()
	r.OutputEnds()
	if err := r.Captured(3, "out.txt"); err != nil {
		t.Fatalf("Captured(3): %v", err)
	}
	err := r.Captured(0, "out.txt")
	if !errors.Is(err, ErrNoInstrumentation) {
		t.Fatalf("Captured(0) error = %v, want ErrNoInstrumentation", err)
	}
	r.Note("self-test %s", "ok")

	want := strings.Join([]string{
		"afl-showmap " + Version + " by someone <someone@example.com>",
		"-- Program output begins --",
		"-- Program output ends --",
		"[+] Captured 3 tuples in 'out.txt'.",
		"[-] PROGRAM ABORT : No instrumentation detected",
		"[*] self-test ok",
		"",
	}, "\n")
	if diff := cmp.Diff(want, buf.String()); diff != "" {
		t.Errorf("report mismatch (-want +got):\n%s", diff)
	}
	if strings.Contains(buf.String(), "\x1b") {
		t.Error("plain reporter emitted escape sequences")
	}
}

func TestReporter_Color(t *testing.T) {
	var buf bytes.Buffer
	r := &Reporter{w: &buf, color: true}

	if err := r.Captured(1, "o"); err != nil {
		t.Fatalf("Captured: %v", err)
	}
	if got := buf.String(); got != "\x1b[1;32m[+] \x1b[0mCaptured 1 tuples in 'o'.\x1b[0m\n" {
		t.Errorf("colored capture line = %q", got)
	}

	buf.Reset()
	r.Captured(0, "o")
	if !strings.HasPrefix(buf.String(), termRestore+"\n") {
		t.Errorf("abort output %q does not restore the terminal first", buf.String())
	}
}
