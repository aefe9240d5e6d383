//go:build unix

package executor

import (
	"bufio"
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"syscall"
	"testing"
	"time"
)

func TestExecExecutor_KillTakesDownProcessGroup(t *testing.T) {
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}

	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("Pipe: %v", err)
	}
	defer r.Close()

	proc, err := Default().Start(
		[]string{"sh", "-c", "sleep 30 & echo $!; wait"},
		map[string]string{"PATH": os.Getenv("PATH")},
		nil, w, io.Discard,
	)
	w.Close()
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil {
		proc.Kill()
		proc.Wait()
		t.Fatalf("reading child pid: %v", err)
	}
	child, err := strconv.Atoi(strings.TrimSpace(line))
	if err != nil {
		t.Fatalf("child pid %q: %v", line, err)
	}

	if err := proc.Kill(); err != nil {
		t.Fatalf("Kill: %v", err)
	}
	proc.Wait()

	deadline := time.Now().Add(5 * time.Second)
	for {
		err := syscall.Kill(child, 0)
		if errors.Is(err, syscall.ESRCH) || isZombie(child) {
			return
		}
		if time.Now().After(deadline) {
			syscall.Kill(child, syscall.SIGKILL)
			t.Fatalf("background child %d survived Kill (kill 0: %v)", child, err)
		}
		time.Sleep(20 * time.Millisecond)
	}
}

func TestFakeExecutor_StdinFileOutlivesCaller(t *testing.T) {
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("Pipe: %v", err)
	}

	e := NewFakeExecutor()
	got := make(chan string, 1)
	e.RegisterCommand("cat", func(ctx context.Context, env map[string]string, stdin io.Reader, stdout, stderr io.Writer, args []string) int {
		data, _ := io.ReadAll(stdin)
		got <- string(data)
		return 0
	})

	proc, err := e.Start([]string{"cat"}, nil, r, nil, nil)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	// The caller closes its copy right away.
	r.Close()
	io.WriteString(w, "still readable")
	w.Close()

	if _, err := proc.Wait(); err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if s := <-got; s != "still readable" {
		t.Errorf("stdin = %q", s)
	}
}

// isZombie reports whether pid has exited but not been reaped, which
// happens when nothing in the container reaps orphans.
func isZombie(pid int) bool {
	data, err := os.ReadFile("/proc/" + strconv.Itoa(pid) + "/stat")
	if err != nil {
		return false
	}
	i := strings.LastIndex(string(data), ") ")
	return i >= 0 && strings.HasPrefix(string(data[i+2:]), "Z")
}
