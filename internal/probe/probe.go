// Package probe implements a target that is not instrumented but behaves as
// if it was: it attaches the trace segment named by __AFL_SHM_ID and marks
// the first map entry.
package probe

import (
	"fmt"
	"io"
	"math"

	"github.com/kelseyhightower/envconfig"

	"github.com/mbrock/shmprobe/internal/shm"
)

// Exit codes.
const (
	ExitWritten      = 0
	ExitAttachFailed = 1
	ExitUnset        = 2
)

// UnsetMessage is printed to stdout when the segment id variable is absent.
const UnsetMessage = shm.EnvVar + " not set."

// Config is the probe's environment.
type Config struct {
	ShmID string `envconfig:"__AFL_SHM_ID" required:"true"`
}

// Attacher maps a segment by id.
type Attacher interface {
	Attach(id int) (*shm.Segment, error)
}

// SysV attaches segments with shmat.
type SysV struct{}

func (SysV) Attach(id int) (*shm.Segment, error) { return shm.Attach(id) }

// Main runs the probe against the process environment and returns the exit
// code.
func Main(stdout io.Writer, att Attacher) int {
	var cfg Config
	// The only way a required string field can fail is by being absent.
	if err := envconfig.Process("", &cfg); err != nil {
		fmt.Fprintln(stdout, UnsetMessage)
		return ExitUnset
	}
	return Touch(cfg.ShmID, att)
}

// Touch attaches the segment named by raw and writes 1 to its first byte.
func Touch(raw string, att Attacher) int {
	seg, err := att.Attach(ParseID(raw))
	if err != nil {
		return ExitAttachFailed
	}
	defer seg.Detach()

	if len(seg.Bytes()) == 0 {
		return ExitAttachFailed
	}
	seg.Bytes()[0] = 1
	return ExitWritten
}

// ParseID converts s the way C atoi does: optional leading whitespace, an
// optional sign, then as many decimal digits as follow. Anything else
// yields 0. Out-of-range values saturate at the 64-bit limits and are then
// truncated to 32 bits.
func ParseID(s string) int {
	i := 0
	for i < len(s) && isSpace(s[i]) {
		i++
	}
	neg := false
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		neg = s[i] == '-'
		i++
	}

	var n uint64
	overflow := false
	for ; i < len(s) && s[i] >= '0' && s[i] <= '9'; i++ {
		d := uint64(s[i] - '0')
		if n > (math.MaxUint64-d)/10 {
			overflow = true
			continue
		}
		n = n*10 + d
	}

	var v int64
	switch {
	case neg && (overflow || n > math.MaxInt64+1):
		v = math.MinInt64
	case neg:
		v = -int64(n)
	case overflow || n > math.MaxInt64:
		v = math.MaxInt64
	default:
		v = int64(n)
	}
	return int(int32(v))
}

func isSpace(c byte) bool {
	switch c {
	case ' ', '\t', '\n', '\v', '\f', '\r':
		return true
	}
	return false
}
