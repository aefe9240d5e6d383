//go:build linux

package shm

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// Create allocates a new private segment of size bytes, readable and
// writable by the current user only.
func Create(size int) (int, error) {
	id, err := unix.SysvShmGet(unix.IPC_PRIVATE, size, unix.IPC_CREAT|unix.IPC_EXCL|0o600)
	if err != nil {
		return -1, fmt.Errorf("shmget: %w", err)
	}
	return id, nil
}

// Attach maps the segment identified by id read-write at an address chosen
// by the kernel.
func Attach(id int) (*Segment, error) {
	data, err := unix.SysvShmAttach(id, 0, 0)
	if err != nil {
		return nil, fmt.Errorf("shmat %d: %w", id, err)
	}
	return &Segment{id: id, data: data, detach: unix.SysvShmDetach}, nil
}

// Remove marks the segment for destruction. The kernel frees it once the
// last process detaches.
func Remove(id int) error {
	if _, err := unix.SysvShmCtl(id, unix.IPC_RMID, nil); err != nil {
		return fmt.Errorf("shmctl IPC_RMID %d: %w", id, err)
	}
	return nil
}
