// Package shm wraps the System V shared memory calls used to exchange a
// trace bitmap between a harness and its target.
package shm

import (
	"errors"
	"fmt"
)

const (
	// EnvVar names the environment variable carrying the segment id.
	EnvVar = "__AFL_SHM_ID"

	// MapSize is the size of the trace bitmap the harness allocates.
	MapSize = 1 << 16
)

// ErrUnsupported is returned on platforms without SysV shared memory.
var ErrUnsupported = errors.New("shm: SysV shared memory not supported on this platform")

// Segment is an attached shared memory segment.
type Segment struct {
	id     int
	data   []byte
	detach func([]byte) error
}

// FromBytes wraps memory that is not a SysV mapping, such as a buffer
// standing in for a segment in tests. Detach only forgets it.
func FromBytes(id int, data []byte) *Segment {
	return &Segment{id: id, data: data}
}

// ID returns the segment identifier.
func (s *Segment) ID() int { return s.id }

// Bytes returns the mapped region. It is nil after Detach.
func (s *Segment) Bytes() []byte { return s.data }

// Detach unmaps the segment. Calling it twice is a no-op.
func (s *Segment) Detach() error {
	if s.data == nil {
		return nil
	}
	data := s.data
	s.data = nil
	if s.detach == nil {
		return nil
	}
	if err := s.detach(data); err != nil {
		return fmt.Errorf("shmdt %d: %w", s.id, err)
	}
	return nil
}
