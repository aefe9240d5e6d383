// afl-probe - a target that is not instrumented but behaves as if it was
//
// It attaches the shared memory segment named by __AFL_SHM_ID and writes 1
// to its first byte.
//
// Exit status:
//
//	0  segment attached and written
//	1  segment could not be attached
//	2  __AFL_SHM_ID not set
package main

import (
	"os"

	"github.com/mbrock/shmprobe/internal/probe"
)

func main() {
	os.Exit(probe.Main(os.Stdout, probe.SysV{}))
}
